package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveSubmission(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)

	m.ObserveSubmission("accepted", 0.2)
	m.ObserveSubmission("rejected", 0.1)
	m.ObserveSubmission("accepted", 0.3)

	expected := `
		# HELP physio_booking_submissions_total Booking submissions by outcome
		# TYPE physio_booking_submissions_total counter
		physio_booking_submissions_total{outcome="accepted"} 2
		physio_booking_submissions_total{outcome="rejected"} 1
	`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "physio_booking_submissions_total"); err != nil {
		t.Fatal(err)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *BookingMetrics
	m.ObserveSubmission("accepted", 0.1)
	m.ObserveLookup("found")
	m.ObserveSlotComputation()
}

func TestObserveLookup(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)

	m.ObserveLookup("found")
	m.ObserveLookup("not_found")

	if got := testutil.CollectAndCount(m.lookupsTotal); got != 2 {
		t.Fatalf("expected 2 lookup series, got %d", got)
	}
}
