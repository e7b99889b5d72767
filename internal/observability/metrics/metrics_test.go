package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestLeadMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLeadMetrics(reg)

	m.ObserveSubmission(OutcomeAccepted, 0.2)
	m.ObserveSubmission(OutcomeAccepted, 0.4)
	m.ObserveSubmission(OutcomeInvalid, 0.01)
	m.ObserveEmailSend("business_notification", nil)
	m.ObserveEmailSend("customer_receipt", errors.New("boom"))
	m.ObserveRateLimited()

	if got := testutil.ToFloat64(m.submissionsTotal.WithLabelValues(OutcomeAccepted)); got != 2 {
		t.Fatalf("expected 2 accepted submissions, got %v", got)
	}
	if got := testutil.ToFloat64(m.emailSendsTotal.WithLabelValues("customer_receipt", "failed")); got != 1 {
		t.Fatalf("expected 1 failed receipt, got %v", got)
	}
	if got := testutil.ToFloat64(m.rateLimitedTotal); got != 1 {
		t.Fatalf("expected 1 rate limited request, got %v", got)
	}
}

func TestLeadMetricsLatencyHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLeadMetrics(reg)
	m.ObserveSubmission(OutcomeEmailFailed, 1.5)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var hist *dto.Histogram
	for _, mf := range families {
		if mf.GetName() == "tomplumb_leads_submit_duration_seconds" {
			hist = mf.GetMetric()[0].GetHistogram()
		}
	}
	if hist == nil {
		t.Fatalf("expected latency histogram to be exported")
	}
	if hist.GetSampleCount() != 1 || hist.GetSampleSum() != 1.5 {
		t.Fatalf("unexpected histogram count=%d sum=%v", hist.GetSampleCount(), hist.GetSampleSum())
	}
}

func TestLeadMetricsNilSafe(t *testing.T) {
	var m *LeadMetrics
	m.ObserveSubmission(OutcomeError, 0.1)
	m.ObserveEmailSend("business_notification", nil)
	m.ObserveRateLimited()
}
