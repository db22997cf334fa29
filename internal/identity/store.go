// Package identity persists returning-patient hints so repeat visitors can
// skip re-entering who they are. The web client kept these in cookies; here
// they live in Redis keyed by a per-device token, with the same expiry
// windows (90 days for the phone number, 14 days for the patient id).
package identity

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Store reads and writes returning-patient hints.
type Store struct {
	redis      *redis.Client
	phoneTTL   time.Duration
	patientTTL time.Duration
	tracer     trace.Tracer
}

// NewStore creates a hint store. TTLs <= 0 fall back to the cookie-era
// defaults.
func NewStore(rdb *redis.Client, phoneTTL, patientTTL time.Duration) *Store {
	if rdb == nil {
		panic("identity: redis client required")
	}
	if phoneTTL <= 0 {
		phoneTTL = 90 * 24 * time.Hour
	}
	if patientTTL <= 0 {
		patientTTL = 14 * 24 * time.Hour
	}
	return &Store{
		redis:      rdb,
		phoneTTL:   phoneTTL,
		patientTTL: patientTTL,
		tracer:     otel.Tracer("physio.internal.identity"),
	}
}

func phoneKey(token string) string   { return fmt.Sprintf("hint:phone:%s", token) }
func patientKey(token string) string { return fmt.Sprintf("hint:patient:%s", token) }

// SavePhoneHint remembers the phone number a booking was made with.
func (s *Store) SavePhoneHint(ctx context.Context, token, phone string) error {
	ctx, span := s.tracer.Start(ctx, "identity.save_phone_hint")
	defer span.End()

	if err := s.redis.Set(ctx, phoneKey(token), phone, s.phoneTTL).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("identity: save phone hint: %w", err)
	}
	return nil
}

// PhoneHint returns the remembered phone number, if any.
func (s *Store) PhoneHint(ctx context.Context, token string) (string, bool, error) {
	ctx, span := s.tracer.Start(ctx, "identity.phone_hint")
	defer span.End()

	phone, err := s.redis.Get(ctx, phoneKey(token)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		span.RecordError(err)
		return "", false, fmt.Errorf("identity: load phone hint: %w", err)
	}
	return phone, true, nil
}

// SavePatientID remembers a resolved patient id after a successful lookup.
func (s *Store) SavePatientID(ctx context.Context, token string, id int64) error {
	ctx, span := s.tracer.Start(ctx, "identity.save_patient_id")
	defer span.End()

	if err := s.redis.Set(ctx, patientKey(token), strconv.FormatInt(id, 10), s.patientTTL).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("identity: save patient id: %w", err)
	}
	return nil
}

// PatientID returns the remembered patient id, if any.
func (s *Store) PatientID(ctx context.Context, token string) (int64, bool, error) {
	ctx, span := s.tracer.Start(ctx, "identity.patient_id")
	defer span.End()

	raw, err := s.redis.Get(ctx, patientKey(token)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		span.RecordError(err)
		return 0, false, fmt.Errorf("identity: load patient id: %w", err)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		span.RecordError(err)
		return 0, false, fmt.Errorf("identity: corrupt patient id %q: %w", raw, err)
	}
	return id, true, nil
}

// Clear drops both hints for a device token.
func (s *Store) Clear(ctx context.Context, token string) error {
	ctx, span := s.tracer.Start(ctx, "identity.clear")
	defer span.End()

	if err := s.redis.Del(ctx, phoneKey(token), patientKey(token)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("identity: clear hints: %w", err)
	}
	return nil
}
