package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harborpt/booking-platform/internal/api/handlers"
	"github.com/harborpt/booking-platform/internal/clinicapi"
	"github.com/harborpt/booking-platform/internal/wizard"
	"github.com/harborpt/booking-platform/pkg/logging"
)

type stubClinicAPI struct{}

func (stubClinicAPI) GetTherapists(context.Context) ([]clinicapi.Therapist, error) {
	return nil, nil
}

func (stubClinicAPI) RequestAppointment(context.Context, clinicapi.BookingRequest) error {
	return nil
}

func (stubClinicAPI) LookupPatientByPhone(context.Context, string) (int64, bool, error) {
	return 0, false, nil
}

func (stubClinicAPI) FetchAppointments(context.Context, int64) (*clinicapi.AppointmentHistory, error) {
	return &clinicapi.AppointmentHistory{}, nil
}

func newTestRouter() http.Handler {
	booking := handlers.NewBookingHandler(handlers.BookingHandlerConfig{
		API:      stubClinicAPI{},
		Sessions: wizard.NewManager(time.Minute, logging.Default()),
		Logger:   logging.Default(),
	})
	return New(&Config{
		Logger:             logging.Default(),
		Booking:            booking,
		MetricsHandler:     promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{}),
		CORSAllowedOrigins: []string{"https://booking.example"},
	})
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestBookingAPIIsMounted(t *testing.T) {
	r := newTestRouter()
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestCORSHeaderApplied(t *testing.T) {
	r := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://booking.example")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://booking.example" {
		t.Fatalf("expected CORS header, got %q", got)
	}
}
