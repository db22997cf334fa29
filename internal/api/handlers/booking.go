// Package handlers exposes the booking wizard and availability lookups
// over a small JSON HTTP API so any front end can drive them.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/harborpt/booking-platform/internal/appointments"
	"github.com/harborpt/booking-platform/internal/clinicapi"
	"github.com/harborpt/booking-platform/internal/observability/metrics"
	"github.com/harborpt/booking-platform/internal/wizard"
	"github.com/harborpt/booking-platform/pkg/logging"
)

// deviceCookie identifies a browser across visits; returning-patient hints
// are keyed by it. Lifetime matches the longest hint TTL.
const (
	deviceCookie       = "physio_device"
	deviceCookieMaxAge = 90 * 24 * 60 * 60
)

// ClinicAPI is everything the handlers need from the appointment API.
type ClinicAPI interface {
	GetTherapists(ctx context.Context) ([]clinicapi.Therapist, error)
	RequestAppointment(ctx context.Context, req clinicapi.BookingRequest) error
	LookupPatientByPhone(ctx context.Context, phone string) (int64, bool, error)
	FetchAppointments(ctx context.Context, patientID int64) (*clinicapi.AppointmentHistory, error)
}

// HintStore is the returning-patient hint storage the handlers need.
type HintStore interface {
	wizard.HintStore
	PatientID(ctx context.Context, token string) (int64, bool, error)
}

// BookingHandler drives wizard sessions over HTTP.
type BookingHandler struct {
	api      ClinicAPI
	sessions *wizard.Manager
	hints    HintStore
	history  *appointments.Service
	metrics  *metrics.BookingMetrics
	logger   *logging.Logger

	windowDays    int
	closedWeekday time.Weekday
	secureCookies bool
	now           func() time.Time
}

// BookingHandlerConfig wires a BookingHandler.
type BookingHandlerConfig struct {
	API           ClinicAPI
	Sessions      *wizard.Manager
	Hints         HintStore
	Metrics       *metrics.BookingMetrics
	Logger        *logging.Logger
	WindowDays    int
	ClosedWeekday time.Weekday
	// SecureCookies marks the device cookie Secure; leave off only for
	// local development over plain HTTP.
	SecureCookies bool
	Now           func() time.Time
}

// NewBookingHandler creates the booking HTTP handler.
func NewBookingHandler(cfg BookingHandlerConfig) *BookingHandler {
	if cfg.API == nil {
		panic("handlers: clinic API required")
	}
	if cfg.Sessions == nil {
		panic("handlers: session manager required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	windowDays := cfg.WindowDays
	if windowDays <= 0 {
		windowDays = 30
	}
	return &BookingHandler{
		api:           cfg.API,
		sessions:      cfg.Sessions,
		hints:         cfg.Hints,
		history:       appointments.NewService(cfg.API, logger),
		metrics:       cfg.Metrics,
		logger:        logger,
		windowDays:    windowDays,
		closedWeekday: cfg.ClosedWeekday,
		secureCookies: cfg.SecureCookies,
		now:           now,
	}
}

// Routes returns the chi router for the booking API.
func (h *BookingHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/sessions", h.CreateSession)
	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Post("/patient-type", h.PatientType)
		r.Post("/date", h.SelectDate)
		r.Post("/slot", h.SelectSlot)
		r.Post("/therapist", h.ChooseTherapist)
		r.Post("/details", h.Details)
		r.Post("/submit", h.Submit)
		r.Post("/back", h.Back)
		r.Post("/lookup/open", h.OpenLookup)
		r.Post("/lookup", h.Lookup)
	})
	r.Get("/slots", h.Slots)
	r.Post("/patients/lookup", h.LookupPatient)
	r.Get("/appointments", h.Appointments)
	return r
}

// CreateSession fetches the therapist snapshot and starts a wizard.
// POST /api/sessions
func (h *BookingHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	therapists, err := h.api.GetTherapists(r.Context())
	if err != nil {
		h.logger.Error("failed to fetch therapists", "error", err)
		writeError(w, http.StatusBadGateway, "Failed to load therapists. Please try again later.")
		return
	}

	token := h.deviceToken(w, r)
	wz := wizard.New(wizard.Config{
		API:           h.api,
		Hints:         h.hints,
		Logger:        h.logger,
		DeviceToken:   token,
		WindowDays:    h.windowDays,
		ClosedWeekday: h.closedWeekday,
		Now:           h.now,
	})
	wz.SetTherapists(therapists)

	s := h.sessions.Create(wz, token)
	h.logger.Info("wizard session created", "session_id", s.ID, "therapists", len(therapists))
	writeJSON(w, http.StatusCreated, h.snapshot(s))
}

// GetSession returns the current wizard snapshot.
// GET /api/sessions/{sessionID}
func (h *BookingHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(s *wizard.Session) int { return http.StatusOK })
}

type patientTypeRequest struct {
	Existing bool `json:"existing"`
}

// PatientType resolves the opening new/existing patient dialog.
// POST /api/sessions/{sessionID}/patient-type
func (h *BookingHandler) PatientType(w http.ResponseWriter, r *http.Request) {
	var req patientTypeRequest
	if !decode(w, r, &req) {
		return
	}
	h.withSession(w, r, func(s *wizard.Session) int {
		if err := s.Wizard.ChoosePatientType(r.Context(), req.Existing); err != nil {
			return transitionStatus(err)
		}
		return http.StatusOK
	})
}

type dateRequest struct {
	Date string `json:"date"` // 2006-01-02
}

// SelectDate picks the appointment date and recomputes availability.
// POST /api/sessions/{sessionID}/date
func (h *BookingHandler) SelectDate(w http.ResponseWriter, r *http.Request) {
	var req dateRequest
	if !decode(w, r, &req) {
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	h.withSession(w, r, func(s *wizard.Session) int {
		if err := s.Wizard.SelectDate(date); err != nil {
			return transitionStatus(err)
		}
		h.metrics.ObserveSlotComputation()
		if err := s.Wizard.ContinueToTime(); err != nil {
			return transitionStatus(err)
		}
		return http.StatusOK
	})
}

type slotRequest struct {
	Time string `json:"time"` // 15:04
}

// SelectSlot picks a time slot. Unavailable slots are a silent no-op; the
// snapshot simply comes back without an open therapist dialog.
// POST /api/sessions/{sessionID}/slot
func (h *BookingHandler) SelectSlot(w http.ResponseWriter, r *http.Request) {
	var req slotRequest
	if !decode(w, r, &req) {
		return
	}
	at, err := time.Parse("15:04", req.Time)
	if err != nil {
		writeError(w, http.StatusBadRequest, "time must be HH:MM")
		return
	}
	h.withSession(w, r, func(s *wizard.Session) int {
		date := s.Wizard.Date()
		s.Wizard.SelectSlot(time.Date(
			date.Year(), date.Month(), date.Day(),
			at.Hour(), at.Minute(), 0, 0, date.Location(),
		))
		return http.StatusOK
	})
}

type therapistRequest struct {
	TherapistID int64 `json:"therapist_id"`
	Cancel      bool  `json:"cancel"`
}

// ChooseTherapist resolves (or cancels) the therapist sub-dialog.
// POST /api/sessions/{sessionID}/therapist
func (h *BookingHandler) ChooseTherapist(w http.ResponseWriter, r *http.Request) {
	var req therapistRequest
	if !decode(w, r, &req) {
		return
	}
	h.withSession(w, r, func(s *wizard.Session) int {
		if req.Cancel {
			s.Wizard.CancelTherapistSelection()
			return http.StatusOK
		}
		if err := s.Wizard.ChooseTherapist(req.TherapistID); err != nil {
			return transitionStatus(err)
		}
		return http.StatusOK
	})
}

type detailsRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Details records the contact details.
// POST /api/sessions/{sessionID}/details
func (h *BookingHandler) Details(w http.ResponseWriter, r *http.Request) {
	var req detailsRequest
	if !decode(w, r, &req) {
		return
	}
	h.withSession(w, r, func(s *wizard.Session) int {
		if err := s.Wizard.SetDetails(req.Name, req.Phone); err != nil {
			return transitionStatus(err)
		}
		return http.StatusOK
	})
}

// Submit sends the booking request to the clinic API.
// POST /api/sessions/{sessionID}/submit
func (h *BookingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(s *wizard.Session) int {
		start := time.Now()
		err := s.Wizard.Submit(r.Context())
		elapsed := time.Since(start).Seconds()

		switch {
		case err == nil:
			h.metrics.ObserveSubmission("accepted", elapsed)
			return http.StatusOK
		case isRejection(err):
			h.metrics.ObserveSubmission("rejected", elapsed)
			// The wizard snapshot carries the display message.
			return http.StatusOK
		default:
			var verr *wizard.ValidationError
			if errors.As(err, &verr) {
				return http.StatusUnprocessableEntity
			}
			if errors.Is(err, wizard.ErrBusy) {
				return http.StatusConflict
			}
			if errors.Is(err, wizard.ErrInvalidTransition) {
				return http.StatusConflict
			}
			h.metrics.ObserveSubmission("error", elapsed)
			return http.StatusOK
		}
	})
}

// Back steps the wizard to the previous position.
// POST /api/sessions/{sessionID}/back
func (h *BookingHandler) Back(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(s *wizard.Session) int {
		if err := s.Wizard.Back(); err != nil {
			return transitionStatus(err)
		}
		return http.StatusOK
	})
}

// OpenLookup branches the wizard into the phone lookup.
// POST /api/sessions/{sessionID}/lookup/open
func (h *BookingHandler) OpenLookup(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(s *wizard.Session) int {
		if err := s.Wizard.OpenLookup(); err != nil {
			return transitionStatus(err)
		}
		return http.StatusOK
	})
}

type lookupRequest struct {
	PhoneNumber string `json:"phone_number"`
}

// Lookup resolves a phone number through the wizard's lookup branch.
// POST /api/sessions/{sessionID}/lookup
func (h *BookingHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	var req lookupRequest
	if !decode(w, r, &req) {
		return
	}
	h.withSession(w, r, func(s *wizard.Session) int {
		err := s.Wizard.Lookup(r.Context(), req.PhoneNumber)
		switch {
		case err == nil:
			h.metrics.ObserveLookup("found")
			return http.StatusOK
		default:
			var verr *wizard.ValidationError
			if errors.As(err, &verr) {
				if verr.Message == wizard.MsgNoPatientFound {
					h.metrics.ObserveLookup("not_found")
				}
				// Inline message travels in the snapshot.
				return http.StatusOK
			}
			if errors.Is(err, wizard.ErrInvalidTransition) || errors.Is(err, wizard.ErrBusy) {
				return http.StatusConflict
			}
			h.metrics.ObserveLookup("error")
			return http.StatusOK
		}
	})
}

func isRejection(err error) bool {
	var rej *clinicapi.RejectionError
	return errors.As(err, &rej)
}

func transitionStatus(err error) int {
	var verr *wizard.ValidationError
	if errors.As(err, &verr) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusConflict
}

// withSession resolves the session, runs op while holding its lock, and
// writes the resulting wizard snapshot. op returns the HTTP status; 4xx
// guard statuses still include the snapshot so the client can re-render.
func (h *BookingHandler) withSession(w http.ResponseWriter, r *http.Request, op func(*wizard.Session) int) {
	id := chi.URLParam(r, "sessionID")
	s, ok := h.sessions.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found or expired")
		return
	}
	s.Mu.Lock()
	defer s.Mu.Unlock()
	status := op(s)
	writeJSON(w, status, h.snapshot(s))
}

// deviceToken returns the device cookie value, setting one if missing.
func (h *BookingHandler) deviceToken(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(deviceCookie); err == nil && c.Value != "" {
		return c.Value
	}
	token := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     deviceCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   deviceCookieMaxAge,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return token
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
