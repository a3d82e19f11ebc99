package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterIsIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg, DefaultNamespace); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := Register(reg, DefaultNamespace); err != nil {
		t.Fatalf("second register should tolerate duplicates: %v", err)
	}
}

func TestRegisterAppliesNamespace(t *testing.T) {
	tests := []struct {
		namespace string
		want      string
	}{
		{DefaultNamespace, "studygate_analyses_total"},
		{"loanstudy", "loanstudy_analyses_total"},
		{"", "analyses_total"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			reg := prometheus.NewRegistry()
			if err := Register(reg, tt.namespace); err != nil {
				t.Fatalf("register: %v", err)
			}
			ObserveAnalysis("continue")

			families, err := reg.Gather()
			if err != nil {
				t.Fatalf("gather: %v", err)
			}
			found := false
			for _, mf := range families {
				if mf.GetName() == tt.want {
					found = true
				}
			}
			if !found {
				t.Errorf("expected metric family %q to be registered", tt.want)
			}
		})
	}
}

func TestObserveValidationOutcomes(t *testing.T) {
	beforeQ := testutil.ToFloat64(validationsTotal.WithLabelValues(OutcomeQuarantined))
	beforeV := testutil.ToFloat64(validationsTotal.WithLabelValues(OutcomeValid))

	ObserveValidation(time.Millisecond, false, true)
	ObserveValidation(time.Millisecond, true, false)
	ObserveValidation(-time.Second, true, false)

	if got := testutil.ToFloat64(validationsTotal.WithLabelValues(OutcomeQuarantined)) - beforeQ; got != 1 {
		t.Errorf("expected 1 quarantined observation, got %v", got)
	}
	if got := testutil.ToFloat64(validationsTotal.WithLabelValues(OutcomeValid)) - beforeV; got != 2 {
		t.Errorf("expected 2 valid observations, got %v", got)
	}
}

func TestObserveAnalysis(t *testing.T) {
	before := testutil.ToFloat64(analysesTotal.WithLabelValues("stop_success"))
	ObserveAnalysis("stop_success")
	if got := testutil.ToFloat64(analysesTotal.WithLabelValues("stop_success")) - before; got != 1 {
		t.Errorf("expected analysis counter to increase by 1, got %v", got)
	}
}

func TestObserveEmergency(t *testing.T) {
	before := testutil.ToFloat64(emergencyEscalationsTotal.WithLabelValues("CONSENT_NOT_VERIFIED"))
	ObserveEmergency("CONSENT_NOT_VERIFIED")
	if got := testutil.ToFloat64(emergencyEscalationsTotal.WithLabelValues("CONSENT_NOT_VERIFIED")) - before; got != 1 {
		t.Errorf("expected emergency counter to increase by 1, got %v", got)
	}
}
