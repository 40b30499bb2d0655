package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Результаты операций для метки result.
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultInvalid  = "invalid"
	ResultError    = "error"
)

// APIMetrics содержит метрики операций над коллекцией.
type APIMetrics struct {
	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	records           prometheus.Gauge
	outboxEnqueued    prometheus.Counter
	outboxEnqueueFail prometheus.Counter
}

// NewAPIMetricsWithRegisterer создаёт метрики в заданном реестре. Повторная регистрация возвращает уже существующие коллекторы.
func NewAPIMetricsWithRegisterer(registerer prometheus.Registerer) *APIMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &APIMetrics{
		operations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "greekgods_operations_total",
			Help: "Total number of store operations grouped by operation and result",
		}, []string{"operation", "result"}),
		operationDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "greekgods_operation_duration_seconds",
			Help:    "Duration of store operations in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1},
		}, []string{"operation"}),
		records: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "greekgods_records",
			Help: "Current number of records in the collection",
		}),
		outboxEnqueued: registerCounter(registerer, prometheus.CounterOpts{
			Name: "greekgods_outbox_enqueued_total",
			Help: "Total number of change events enqueued into the outbox",
		}),
		outboxEnqueueFail: registerCounter(registerer, prometheus.CounterOpts{
			Name: "greekgods_outbox_enqueue_failed_total",
			Help: "Total number of change events that could not be enqueued",
		}),
	}
}

// ObserveOperation записывает результат и длительность операции.
func (m *APIMetrics) ObserveOperation(operation, result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, result).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetRecords обновляет размер коллекции.
func (m *APIMetrics) SetRecords(count int) {
	if m == nil {
		return
	}
	m.records.Set(float64(count))
}

// RecordOutboxEnqueued увеличивает счётчик событий, поставленных в outbox.
func (m *APIMetrics) RecordOutboxEnqueued() {
	if m == nil {
		return
	}
	m.outboxEnqueued.Inc()
}

// RecordOutboxEnqueueFailed увеличивает счётчик событий, которые не удалось поставить в outbox.
func (m *APIMetrics) RecordOutboxEnqueueFailed() {
	if m == nil {
		return
	}
	m.outboxEnqueueFail.Inc()
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}
