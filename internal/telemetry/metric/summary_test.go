package metric

import (
	"testing"
	"time"
)

func TestSummary_Empty(t *testing.T) {
	r := NewRegistry()

	samples, err := r.Summary()
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if len(samples) != 0 {
		t.Errorf("Summary() = %v, want empty", samples)
	}
}

func TestSummary(t *testing.T) {
	r := NewRegistry()
	r.ObserveRequest("GET", OutcomeOK, 100*time.Millisecond)
	r.ObserveRequest("GET", OutcomeUnauthorized, 50*time.Millisecond)
	r.SessionExpired()

	samples, err := r.Summary()
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}

	want := map[string]float64{
		"stockvoice_gateway_requests_total|method=GET,outcome=ok":           1,
		"stockvoice_gateway_requests_total|method=GET,outcome=unauthorized": 1,
		"stockvoice_gateway_request_duration_seconds|method=GET":            2,
		"stockvoice_session_expired_total|":                                 1,
	}

	if len(samples) != len(want) {
		t.Fatalf("len(samples) = %d, want %d: %+v", len(samples), len(want), samples)
	}
	for _, s := range samples {
		key := s.Name + "|" + s.Labels
		v, ok := want[key]
		if !ok {
			t.Errorf("unexpected sample %q", key)
			continue
		}
		if s.Value != v {
			t.Errorf("%s = %v, want %v", key, s.Value, v)
		}
	}

	for i := 1; i < len(samples); i++ {
		if samples[i-1].Name > samples[i].Name {
			t.Error("samples not sorted by name")
		}
	}
}

func TestSummary_HistogramSum(t *testing.T) {
	r := NewRegistry()
	r.ObserveRequest("POST", OutcomeOK, 500*time.Millisecond)
	r.ObserveRequest("POST", OutcomeOK, 250*time.Millisecond)

	samples, _ := r.Summary()
	for _, s := range samples {
		if s.Name == "stockvoice_gateway_request_duration_seconds" {
			if s.Sum < 0.74 || s.Sum > 0.76 {
				t.Errorf("Sum = %v, want 0.75", s.Sum)
			}
			return
		}
	}
	t.Error("duration sample missing")
}
