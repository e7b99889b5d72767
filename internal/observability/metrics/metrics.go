package metrics

import "github.com/prometheus/client_golang/prometheus"

// Submission outcomes recorded by LeadMetrics.
const (
	OutcomeAccepted    = "accepted"
	OutcomeEmailFailed = "accepted_email_failed"
	OutcomeInvalid     = "invalid"
	OutcomeBadRequest  = "bad_request"
	OutcomeError       = "error"
)

// Email send statuses.
const (
	EmailStatusSent   = "sent"
	EmailStatusFailed = "failed"
)

// LeadMetrics exposes counters/histograms for the lead submission pipeline.
type LeadMetrics struct {
	submissionsTotal *prometheus.CounterVec
	submitLatency    *prometheus.HistogramVec
	emailSendsTotal  *prometheus.CounterVec
	rateLimitedTotal prometheus.Counter
}

func NewLeadMetrics(reg prometheus.Registerer) *LeadMetrics {
	m := &LeadMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tomplumb",
			Subsystem: "leads",
			Name:      "submissions_total",
			Help:      "Lead form submissions by outcome",
		}, []string{"outcome"}),
		submitLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tomplumb",
			Subsystem: "leads",
			Name:      "submit_duration_seconds",
			Help:      "Time spent handling a lead submission, including email dispatch",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		emailSendsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tomplumb",
			Subsystem: "email",
			Name:      "sends_total",
			Help:      "Outbound emails by kind and result",
		}, []string{"kind", "status"}),
		rateLimitedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tomplumb",
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the submission rate limiter",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.submitLatency, m.emailSendsTotal, m.rateLimitedTotal)
	return m
}

func (m *LeadMetrics) ObserveSubmission(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(outcome).Inc()
	m.submitLatency.WithLabelValues(outcome).Observe(seconds)
}

func (m *LeadMetrics) ObserveEmailSend(kind string, err error) {
	if m == nil {
		return
	}
	status := EmailStatusSent
	if err != nil {
		status = EmailStatusFailed
	}
	m.emailSendsTotal.WithLabelValues(kind, status).Inc()
}

func (m *LeadMetrics) ObserveRateLimited() {
	if m == nil {
		return
	}
	m.rateLimitedTotal.Inc()
}
