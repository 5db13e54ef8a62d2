package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes counters and gauges for the booking and quote flows. All
// observe methods are nil-safe so callers can run without metrics wired.
type Metrics struct {
	emailsTotal        *prometheus.CounterVec
	tokensIssuedTotal  *prometheus.CounterVec
	actionOutcomes     *prometheus.CounterVec
	reminderQueueDepth prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		emailsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "systemsmatic",
			Subsystem: "mailer",
			Name:      "emails_total",
			Help:      "Total outbound emails by template and status",
		}, []string{"template", "status"}),
		tokensIssuedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "systemsmatic",
			Subsystem: "tokens",
			Name:      "issued_total",
			Help:      "Total email action tokens issued",
		}, []string{"type", "action"}),
		actionOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "systemsmatic",
			Subsystem: "email_actions",
			Name:      "outcomes_total",
			Help:      "Email action attempts by type, action and outcome",
		}, []string{"type", "action", "outcome"}),
		reminderQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "systemsmatic",
			Subsystem: "reminders",
			Name:      "queue_depth",
			Help:      "Reminders currently waiting in the scheduler queue",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.emailsTotal, m.tokensIssuedTotal, m.actionOutcomes, m.reminderQueueDepth)
	return m
}

func (m *Metrics) ObserveEmail(template, status string) {
	if m == nil {
		return
	}
	m.emailsTotal.WithLabelValues(template, status).Inc()
}

func (m *Metrics) ObserveTokenIssued(entityType, action string) {
	if m == nil {
		return
	}
	m.tokensIssuedTotal.WithLabelValues(entityType, action).Inc()
}

func (m *Metrics) ObserveActionOutcome(entityType, action, outcome string) {
	if m == nil {
		return
	}
	m.actionOutcomes.WithLabelValues(entityType, action, outcome).Inc()
}

func (m *Metrics) SetReminderQueueDepth(n float64) {
	if m == nil {
		return
	}
	m.reminderQueueDepth.Set(n)
}
