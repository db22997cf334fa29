package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking flow.
type BookingMetrics struct {
	submissionsTotal  *prometheus.CounterVec
	lookupsTotal      *prometheus.CounterVec
	slotComputations  prometheus.Counter
	submissionLatency prometheus.Histogram
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "physio",
			Subsystem: "booking",
			Name:      "submissions_total",
			Help:      "Booking submissions by outcome",
		}, []string{"outcome"}),
		lookupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "physio",
			Subsystem: "booking",
			Name:      "patient_lookups_total",
			Help:      "Patient phone lookups by result",
		}, []string{"result"}),
		slotComputations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "physio",
			Subsystem: "booking",
			Name:      "slot_computations_total",
			Help:      "Availability recomputations",
		}),
		submissionLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "physio",
			Subsystem: "booking",
			Name:      "submission_latency_seconds",
			Help:      "Latency of booking submissions to the clinic API",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.lookupsTotal, m.slotComputations, m.submissionLatency)
	return m
}

// ObserveSubmission records one booking submission outcome:
// "accepted", "rejected" or "error".
func (m *BookingMetrics) ObserveSubmission(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(outcome).Inc()
	m.submissionLatency.Observe(seconds)
}

// ObserveLookup records one patient lookup result: "found", "not_found"
// or "error".
func (m *BookingMetrics) ObserveLookup(result string) {
	if m == nil {
		return
	}
	m.lookupsTotal.WithLabelValues(result).Inc()
}

// ObserveSlotComputation counts one availability recomputation.
func (m *BookingMetrics) ObserveSlotComputation() {
	if m == nil {
		return
	}
	m.slotComputations.Inc()
}
