package observability

import (
	"time"

	"github.com/paycrew/contractor-bfa-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the contractor BFF.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration    *prometheus.HistogramVec
	transitionsTotal   *prometheus.CounterVec
	withdrawalsTotal   *prometheus.CounterVec
	conversionFallback *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
	cacheHits          *prometheus.CounterVec
	cacheMisses        *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "contractor_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		transitionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contractor_lifecycle_transitions_total",
				Help: "Lifecycle transition attempts by machine, event and outcome.",
			},
			[]string{"machine", "event", "status"},
		),
		withdrawalsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contractor_withdrawals_total",
				Help: "Withdrawal requests by outcome.",
			},
			[]string{"status"},
		),
		conversionFallback: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contractor_conversion_fallback_total",
				Help: "Conversions that hit the unknown-currency rate fallback.",
			},
			[]string{"currency"},
		),
		notificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contractor_notifications_total",
				Help: "Lifecycle notifications emitted, by type and delivery status.",
			},
			[]string{"type", "status"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contractor_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contractor_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrTransition counts a lifecycle transition attempt. Machine is one of
// onboarding, verification, signature; status is accepted or rejected.
func (m *Metrics) IncrTransition(machine, event, status string) {
	m.transitionsTotal.WithLabelValues(machine, event, status).Inc()
}

// IncrWithdrawal counts a withdrawal request outcome.
func (m *Metrics) IncrWithdrawal(status string) {
	m.withdrawalsTotal.WithLabelValues(status).Inc()
}

// IncrConversionFallback counts a conversion that defaulted an unknown
// currency's rate to 1.
func (m *Metrics) IncrConversionFallback(currency string) {
	m.conversionFallback.WithLabelValues(currency).Inc()
}

// IncrNotification counts an emitted notification.
func (m *Metrics) IncrNotification(typ, status string) {
	m.notificationsTotal.WithLabelValues(typ, status).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// GetLifecycleSnapshot returns a snapshot of lifecycle metrics suitable for
// the GET /v1/metrics/lifecycle endpoint.
func (m *Metrics) GetLifecycleSnapshot() *domain.LifecycleMetrics {
	accepted := sumCounter(m.transitionsTotal, func(labels map[string]string) bool {
		return labels["status"] == "accepted"
	})
	rejected := sumCounter(m.transitionsTotal, func(labels map[string]string) bool {
		return labels["status"] == "rejected"
	})
	withdrawals := sumCounter(m.withdrawalsTotal, func(map[string]string) bool { return true })
	denied := sumCounter(m.withdrawalsTotal, func(labels map[string]string) bool {
		return labels["status"] != "accepted"
	})
	fallbacks := sumCounter(m.conversionFallback, func(map[string]string) bool { return true })
	hits := sumCounter(m.cacheHits, func(map[string]string) bool { return true })
	misses := sumCounter(m.cacheMisses, func(map[string]string) bool { return true })

	hitRate := float64(0)
	if hits+misses > 0 {
		hitRate = hits / (hits + misses)
	}

	return &domain.LifecycleMetrics{
		TransitionsTotal:    int64(accepted + rejected),
		TransitionsRejected: int64(rejected),
		WithdrawalsTotal:    int64(withdrawals),
		WithdrawalsDenied:   int64(denied),
		ConversionFallbacks: int64(fallbacks),
		CacheHitRate:        hitRate,
		Period:              "all_time",
	}
}

// sumCounter gathers a CounterVec and sums the series whose labels match.
func sumCounter(cv *prometheus.CounterVec, match func(map[string]string) bool) float64 {
	ch := make(chan prometheus.Metric, 64)
	go func() {
		cv.Collect(ch)
		close(ch)
	}()

	total := float64(0)
	for metric := range ch {
		m := &dto.Metric{}
		if err := metric.Write(m); err != nil {
			continue
		}
		labels := make(map[string]string, len(m.Label))
		for _, lp := range m.Label {
			labels[lp.GetName()] = lp.GetValue()
		}
		if match(labels) && m.Counter != nil && m.Counter.Value != nil {
			total += *m.Counter.Value
		}
	}
	return total
}
