// Package metrics provides Prometheus metrics for the supplyline risk
// engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager registers and owns all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Ingestion
	signalsIngested   prometheus.Counter
	signalsDuplicate  prometheus.Counter
	signalsRejected   prometheus.Counter
	kafkaPublishError prometheus.Counter

	// Engine
	scoresComputed  prometheus.Counter
	scoresDegraded  prometheus.Counter
	scoringLatency  prometheus.Histogram
	assessmentsDone prometheus.Counter

	// Operational health
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge
	workerCount   prometheus.Gauge
	workerErrors  prometheus.Counter
	workerLatency prometheus.Histogram
	storeRecords  prometheus.Gauge
	catalogSize   *prometheus.GaugeVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithSubsystem sets the subsystem for all metrics.
func WithSubsystem(subsystem string) Option {
	return func(m *Manager) {
		if subsystem != "" {
			m.subsystem = subsystem
		}
	}
}

// WithHistogramBuckets sets custom buckets for latency histograms.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = buckets
		}
	}
}

// WithRegistry sets a custom Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

// Custom registry so default Go collectors do not pollute the scrape.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton metrics registry

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its metrics.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "supplyline",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}

	auto := promauto.With(m.registry)

	m.signalsIngested = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "signals_ingested_total",
		Help: "Total classified signals accepted for scoring",
	})
	m.signalsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "signals_duplicate_total",
		Help: "Total duplicate signals dropped by the idempotency cache",
	})
	m.signalsRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "signals_rejected_total",
		Help: "Total signals rejected at the ingest boundary",
	})
	m.kafkaPublishError = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "kafka_publish_errors_total",
		Help: "Total failures publishing scored assessments",
	})

	m.scoresComputed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "scores_computed_total",
		Help: "Total risk scores computed",
	})
	m.scoresDegraded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "scores_degraded_total",
		Help: "Total scores computed in degraded mode (defaulted inputs)",
	})
	m.scoringLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "scoring_latency_milliseconds",
		Help:    "Histogram of full pipeline latency per signal",
		Buckets: m.histogramBuckets,
	})
	m.assessmentsDone = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "assessments_total",
		Help: "Total per-OEM exposure assessments produced",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_size",
		Help: "Current size of the signal queue",
	})
	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_capacity",
		Help: "Configured capacity of the signal queue",
	})
	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "worker_count",
		Help: "Number of scoring workers",
	})
	m.workerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "worker_errors_total",
		Help: "Total worker processing errors",
	})
	m.workerLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "worker_latency_milliseconds",
		Help:    "Histogram of per-signal worker processing latency",
		Buckets: m.histogramBuckets,
	})
	m.storeRecords = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "assessment_store_records",
		Help: "Assessments currently held in the ranked store",
	})
	m.catalogSize = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "catalog_entities",
		Help: "Reference catalog entities loaded, by kind",
	}, []string{"kind"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "http_requests_total",
		Help: "Total HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "http_request_duration_milliseconds",
		Help:    "HTTP request duration by endpoint, method and status",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	return m
}

// Package-level recorders against the global manager.

func RecordSignalIngested()  { globalManager.signalsIngested.Inc() }
func RecordSignalDuplicate() { globalManager.signalsDuplicate.Inc() }
func RecordSignalRejected()  { globalManager.signalsRejected.Inc() }
func RecordKafkaPublishError() {
	globalManager.kafkaPublishError.Inc()
}

func RecordScoreComputed() { globalManager.scoresComputed.Inc() }
func RecordScoreDegraded() { globalManager.scoresDegraded.Inc() }
func RecordScoringLatency(ms float64) {
	globalManager.scoringLatency.Observe(ms)
}
func RecordAssessment() { globalManager.assessmentsDone.Inc() }

func UpdateQueueSize(n int)     { globalManager.queueSize.Set(float64(n)) }
func UpdateQueueCapacity(n int) { globalManager.queueCapacity.Set(float64(n)) }
func UpdateWorkerCount(n int)   { globalManager.workerCount.Set(float64(n)) }
func RecordWorkerError()        { globalManager.workerErrors.Inc() }
func RecordWorkerLatency(ms float64) {
	globalManager.workerLatency.Observe(ms)
}
func UpdateStoreRecords(n int) { globalManager.storeRecords.Set(float64(n)) }
func UpdateCatalogEntities(kind string, n int) {
	globalManager.catalogSize.WithLabelValues(kind).Set(float64(n))
}

func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(ms)
}

// GetRegistry returns the custom registry for the /metrics handler.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
