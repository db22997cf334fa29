// Package appointments presents a patient's booking history: confirmed
// appointments and still-pending requests, with display-ready dates.
package appointments

import (
	"context"
	"time"

	"github.com/harborpt/booking-platform/internal/clinicapi"
	"github.com/harborpt/booking-platform/pkg/logging"
)

// Status labels a history entry the way the client renders it.
type Status string

const (
	StatusScheduled Status = "Scheduled"
	StatusCompleted Status = "Completed"
	StatusPending   Status = "Pending"
)

// Entry is one appointment or request, ready for display.
type Entry struct {
	ID            int64     `json:"id"`
	When          time.Time `json:"when,omitempty"`
	Display       string    `json:"display"`
	TherapistName string    `json:"therapist_name"`
	Status        Status    `json:"status"`
}

// History groups a patient's entries by confirmation state.
type History struct {
	Confirmed []Entry `json:"confirmed"`
	Pending   []Entry `json:"pending"`
}

// HistoryAPI is the slice of the clinic API this service needs.
type HistoryAPI interface {
	FetchAppointments(ctx context.Context, patientID int64) (*clinicapi.AppointmentHistory, error)
}

const displayLayout = "Mon, Jan 2, 2006, 3:04 PM"

// Service fetches and shapes appointment history.
type Service struct {
	api    HistoryAPI
	logger *logging.Logger
}

// NewService constructs an appointment history service.
func NewService(api HistoryAPI, logger *logging.Logger) *Service {
	if api == nil {
		panic("appointments: history API required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{api: api, logger: logger}
}

// FetchForPatient returns the patient's confirmed and pending entries.
func (s *Service) FetchForPatient(ctx context.Context, patientID int64) (*History, error) {
	raw, err := s.api.FetchAppointments(ctx, patientID)
	if err != nil {
		return nil, err
	}

	h := &History{
		Confirmed: make([]Entry, 0, len(raw.Appointments)),
		Pending:   make([]Entry, 0, len(raw.Requests)),
	}
	for _, a := range raw.Appointments {
		status := StatusScheduled
		if a.IsCompleted {
			status = StatusCompleted
		}
		h.Confirmed = append(h.Confirmed, s.entry(a, status))
	}
	for _, r := range raw.Requests {
		h.Pending = append(h.Pending, s.entry(r, StatusPending))
	}
	return h, nil
}

// entry parses the server timestamp leniently. An unparseable value keeps
// the raw string for display instead of failing the whole list.
func (s *Service) entry(a clinicapi.AppointmentEntry, status Status) Entry {
	e := Entry{
		ID:            a.ID,
		TherapistName: a.TherapistName,
		Status:        status,
	}
	if when, ok := parseTimestamp(a.DateTime); ok {
		e.When = when
		e.Display = when.Format(displayLayout)
	} else {
		s.logger.Warn("unparseable appointment timestamp", "value", a.DateTime)
		e.Display = a.DateTime
	}
	return e
}

func parseTimestamp(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := clinicapi.ParseWire(s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
