package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultNamespace prefixes every collector unless configured otherwise
const DefaultNamespace = "studygate"

// Validation outcome labels
const (
	OutcomeValid       = "valid"
	OutcomeInvalid     = "invalid"
	OutcomeQuarantined = "quarantined"
)

// Analysis outcome labels, in addition to the recommendation tags
const (
	OutcomePreconditionFailed = "precondition_failed"
	OutcomeError              = "error"
)

var (
	validationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:      "validations_total",
			Help:      "Observations validated, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	validationDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:      "validation_seconds",
			Help:      "Single-observation validation latency in seconds.",
			Buckets:   []float64{0.0005, 0.001, 0.002, 0.005, 0.01, 0.025, 0.05},
		},
	)

	emergencyEscalationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:      "emergency_escalations_total",
			Help:      "Emergency flags raised, partitioned by triggering code.",
		},
		[]string{"code"},
	)

	analysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:      "analyses_total",
			Help:      "Analysis checkpoints, partitioned by recommendation or failure.",
		},
		[]string{"outcome"},
	)
)

// Register attaches studygate collectors to the supplied Prometheus
// registerer, naming them <namespace>_<metric>. An empty namespace leaves
// the names bare.
func Register(reg prometheus.Registerer, namespace string) error {
	if namespace != "" {
		reg = prometheus.WrapRegistererWithPrefix(namespace+"_", reg)
	}
	collectors := []prometheus.Collector{
		validationsTotal,
		validationDurationSeconds,
		emergencyEscalationsTotal,
		analysesTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveValidation records one validation call
func ObserveValidation(duration time.Duration, valid, quarantined bool) {
	switch {
	case quarantined:
		validationsTotal.WithLabelValues(OutcomeQuarantined).Inc()
	case valid:
		validationsTotal.WithLabelValues(OutcomeValid).Inc()
	default:
		validationsTotal.WithLabelValues(OutcomeInvalid).Inc()
	}
	if duration < 0 {
		duration = 0
	}
	validationDurationSeconds.Observe(duration.Seconds())
}

// ObserveEmergency records an emergency escalation
func ObserveEmergency(code string) {
	emergencyEscalationsTotal.WithLabelValues(code).Inc()
}

// ObserveAnalysis records an analysis checkpoint outcome
func ObserveAnalysis(outcome string) {
	analysesTotal.WithLabelValues(outcome).Inc()
}
