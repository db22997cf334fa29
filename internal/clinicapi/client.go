package clinicapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/harborpt/booking-platform/pkg/logging"
)

const defaultTimeout = 20 * time.Second

var tracer = otel.Tracer("physio.internal.clinicapi")

// Client talks to the clinic appointment API over JSON/HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewClient creates an appointment API client. timeout <= 0 falls back to
// the transport default; no retries are performed at this layer.
func NewClient(baseURL string, timeout time.Duration, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// GetTherapists returns the therapist list with their booked schedules.
func (c *Client) GetTherapists(ctx context.Context) ([]Therapist, error) {
	ctx, span := tracer.Start(ctx, "clinicapi.get_therapists")
	defer span.End()

	var out []Therapist
	if err := c.get(ctx, "/api/GetTherapists", &out); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return out, nil
}

type bookingResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// RequestAppointment submits a booking request. A response whose message is
// anything other than SuccessMessage is a *RejectionError carrying the
// server's error field verbatim.
func (c *Client) RequestAppointment(ctx context.Context, req BookingRequest) error {
	ctx, span := tracer.Start(ctx, "clinicapi.request_appointment")
	defer span.End()

	status, body, err := c.post(ctx, "/api/RequestAppointment", req)
	if err != nil {
		span.RecordError(err)
		return err
	}

	var resp bookingResponse
	// The body is decoded even on non-2xx statuses: rejections arrive as
	// error JSON with a displayable message.
	if err := json.Unmarshal(body, &resp); err != nil && status == http.StatusOK {
		span.RecordError(err)
		return fmt.Errorf("clinicapi: decode booking response: %w", err)
	}

	if status != http.StatusOK || resp.Message != SuccessMessage {
		rej := &RejectionError{ServerMessage: resp.Error}
		span.RecordError(rej)
		c.logger.Warn("booking request rejected", "status", status, "server_error", resp.Error)
		return rej
	}
	return nil
}

type patientLookupRequest struct {
	PhoneNumber string `json:"phone_number"`
}

type patientLookupResponse struct {
	PatientID *int64 `json:"patient_id"`
}

// LookupPatientByPhone resolves a phone number to a patient id. found is
// false when the server knows no patient for that number.
func (c *Client) LookupPatientByPhone(ctx context.Context, phone string) (id int64, found bool, err error) {
	ctx, span := tracer.Start(ctx, "clinicapi.lookup_patient")
	defer span.End()

	status, body, err := c.post(ctx, "/api/GetPatientIdByPhone", patientLookupRequest{PhoneNumber: phone})
	if err != nil {
		span.RecordError(err)
		return 0, false, err
	}
	if status != http.StatusOK {
		err := fmt.Errorf("clinicapi: patient lookup status %d", status)
		span.RecordError(err)
		return 0, false, err
	}

	var resp patientLookupResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		span.RecordError(err)
		return 0, false, fmt.Errorf("clinicapi: decode patient lookup response: %w", err)
	}
	if resp.PatientID == nil {
		return 0, false, nil
	}
	return *resp.PatientID, true, nil
}

type appointmentsRequest struct {
	ID int64 `json:"id"`
}

// FetchAppointments returns the confirmed appointments and pending requests
// for a patient id.
func (c *Client) FetchAppointments(ctx context.Context, patientID int64) (*AppointmentHistory, error) {
	ctx, span := tracer.Start(ctx, "clinicapi.fetch_appointments")
	defer span.End()

	status, body, err := c.post(ctx, "/api/FetchAppointmentsByPatientID", appointmentsRequest{ID: patientID})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if status != http.StatusOK {
		err := fmt.Errorf("clinicapi: fetch appointments status %d", status)
		span.RecordError(err)
		return nil, err
	}

	var history AppointmentHistory
	if err := json.Unmarshal(body, &history); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("clinicapi: decode appointments response: %w", err)
	}
	return &history, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("clinicapi: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("clinicapi: http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("clinicapi: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := string(body)
		if len(msg) > 300 {
			msg = msg[:300]
		}
		return fmt.Errorf("clinicapi: status %d: %s", resp.StatusCode, msg)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("clinicapi: unmarshal response: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, in interface{}) (status int, body []byte, err error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return 0, nil, fmt.Errorf("clinicapi: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("clinicapi: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("clinicapi: http request: %w", err)
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("clinicapi: read response: %w", err)
	}
	return resp.StatusCode, body, nil
}
