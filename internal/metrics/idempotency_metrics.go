package metrics

import "github.com/prometheus/client_golang/prometheus"

// Исходы запросов с Idempotency-Key.
const (
	IdempotencyNew      = "new"
	IdempotencyReplayed = "replayed"
	IdempotencyInFlight = "in_flight"
	IdempotencyMismatch = "mismatch"
	IdempotencyReleased = "released"
)

// IdempotencyMetrics — метрики повторяемого создания записей и очистки ключей.
type IdempotencyMetrics struct {
	requests       *prometheus.CounterVec
	cleanupRuns    *prometheus.CounterVec
	cleanupDeleted prometheus.Counter
	keys           prometheus.Gauge
}

// NewIdempotencyMetricsWithRegisterer создаёт метрики в заданном реестре.
func NewIdempotencyMetricsWithRegisterer(registerer prometheus.Registerer) *IdempotencyMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &IdempotencyMetrics{
		requests: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "greekgods_idempotency_requests_total",
			Help: "Total number of requests carrying an Idempotency-Key grouped by outcome",
		}, []string{"result"}),
		cleanupRuns: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "greekgods_idempotency_cleanup_runs_total",
			Help: "Total number of idempotency cleanup runs grouped by result",
		}, []string{"result"}),
		cleanupDeleted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "greekgods_idempotency_cleanup_deleted_total",
			Help: "Total number of deleted expired idempotency keys",
		}),
		keys: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "greekgods_idempotency_keys",
			Help: "Current number of stored idempotency keys",
		}),
	}
}

// RecordRequest учитывает исход запроса с ключом.
func (m *IdempotencyMetrics) RecordRequest(result string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(result).Inc()
}

// RecordCleanup учитывает прогон очистки и число удалённых ключей.
func (m *IdempotencyMetrics) RecordCleanup(err error, deleted, remaining int) {
	if m == nil {
		return
	}
	if err != nil {
		m.cleanupRuns.WithLabelValues("error").Inc()
	} else {
		m.cleanupRuns.WithLabelValues("ok").Inc()
	}
	if deleted > 0 {
		m.cleanupDeleted.Add(float64(deleted))
	}
	m.keys.Set(float64(remaining))
}
