package metrics

import "github.com/prometheus/client_golang/prometheus"

// ContactMetrics exposes counters/histograms for the lead capture pipeline.
type ContactMetrics struct {
	submissionsTotal    *prometheus.CounterVec
	securityEventsTotal *prometheus.CounterVec
	emailsTotal         *prometheus.CounterVec
	leadTxDuration      prometheus.Histogram
}

func NewContactMetrics(reg prometheus.Registerer) *ContactMetrics {
	m := &ContactMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "alltech",
			Subsystem: "contact",
			Name:      "submissions_total",
			Help:      "Contact form submissions by outcome",
		}, []string{"status"}),
		securityEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "alltech",
			Subsystem: "contact",
			Name:      "security_events_total",
			Help:      "Security events by category",
		}, []string{"category"}),
		emailsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "alltech",
			Subsystem: "contact",
			Name:      "emails_total",
			Help:      "Notification emails by kind and outcome",
		}, []string{"kind", "status"}),
		leadTxDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "alltech",
			Subsystem: "contact",
			Name:      "lead_transaction_seconds",
			Help:      "Duration of the lead persistence transaction",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.securityEventsTotal, m.emailsTotal, m.leadTxDuration)
	return m
}

func (m *ContactMetrics) ObserveSubmission(status string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(status).Inc()
}

func (m *ContactMetrics) ObserveSecurityEvent(category string) {
	if m == nil {
		return
	}
	m.securityEventsTotal.WithLabelValues(category).Inc()
}

func (m *ContactMetrics) ObserveEmail(kind, status string) {
	if m == nil {
		return
	}
	m.emailsTotal.WithLabelValues(kind, status).Inc()
}

func (m *ContactMetrics) ObserveLeadTransaction(seconds float64) {
	if m == nil {
		return
	}
	m.leadTxDuration.Observe(seconds)
}
