package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
	"github.com/tralhotec/tralhobot-go/internal/domain"
)

// Resolver labels for turnsTotal. Kept here so the snapshot endpoint and the
// dispatcher agree on the label set.
const (
	ResolverSupport    = "support_flow"
	ResolverSDR        = "sdr_flow"
	ResolverClassifier = "classifier"
	ResolverFAQ        = "faq"
	ResolverDefault    = "default"
)

// Metrics holds all Prometheus metrics for the bot.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	turnDuration         *prometheus.HistogramVec
	turnsTotal           *prometheus.CounterVec
	classifierErrors     prometheus.Counter
	notificationsTotal   *prometheus.CounterVec
	conversationsStarted prometheus.Counter
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		turnDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tralhobot_turn_duration_seconds",
				Help:    "Duration of a turn by resolver that handled it.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"resolver"},
		),
		turnsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tralhobot_turns_total",
				Help: "Total turns handled, by resolver.",
			},
			[]string{"resolver"},
		),
		classifierErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "tralhobot_classifier_errors_total",
				Help: "Total failed intent classifier calls.",
			},
		),
		notificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tralhobot_notifications_total",
				Help: "Total lead notifications by outcome.",
			},
			[]string{"status"},
		),
		conversationsStarted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "tralhobot_conversations_started_total",
				Help: "Total conversations greeted with the welcome message.",
			},
		),
	}
}

// RecordTurn records one handled turn and its duration.
func (m *Metrics) RecordTurn(resolver string, d time.Duration) {
	m.turnsTotal.WithLabelValues(resolver).Inc()
	m.turnDuration.WithLabelValues(resolver).Observe(d.Seconds())
}

// IncrClassifierError increments the classifier failure counter.
func (m *Metrics) IncrClassifierError() {
	m.classifierErrors.Inc()
}

// IncrNotification increments the notification counter ("sent" or "failed").
func (m *Metrics) IncrNotification(status string) {
	m.notificationsTotal.WithLabelValues(status).Inc()
}

// IncrConversationStarted counts a welcome event.
func (m *Metrics) IncrConversationStarted() {
	m.conversationsStarted.Inc()
}

// GetBotSnapshot returns a snapshot of the bot counters suitable for the
// GET /v1/metrics/bot endpoint.
func (m *Metrics) GetBotSnapshot() *domain.BotMetrics {
	byResolver := map[string]int64{}
	var totalTurns float64
	for _, resolver := range []string{ResolverSupport, ResolverSDR, ResolverClassifier, ResolverFAQ, ResolverDefault} {
		v := getCounterValue(m.turnsTotal.WithLabelValues(resolver))
		byResolver[resolver] = int64(v)
		totalTurns += v
	}

	classifierErrs := getCounterValue(m.classifierErrors)
	classifierTurns := float64(byResolver[ResolverClassifier]) + classifierErrs
	sent := getCounterValue(m.notificationsTotal.WithLabelValues("sent"))
	failed := getCounterValue(m.notificationsTotal.WithLabelValues("failed"))

	classifierErrRate := float64(0)
	if classifierTurns > 0 {
		classifierErrRate = classifierErrs / classifierTurns
	}
	notifSuccessRate := float64(0)
	if sent+failed > 0 {
		notifSuccessRate = sent / (sent + failed)
	}

	return &domain.BotMetrics{
		TotalTurns:              int64(totalTurns),
		TurnsByResolver:         byResolver,
		ClassifierErrors:        int64(classifierErrs),
		NotificationsSent:       int64(sent),
		NotificationsFailed:     int64(failed),
		ConversationsStarted:    int64(getCounterValue(m.conversationsStarted)),
		ClassifierErrorRate:     classifierErrRate,
		NotificationSuccessRate: notifSuccessRate,
		Period:                  "all_time",
	}
}

// getCounterValue extracts the current float64 value from a Counter.
func getCounterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
