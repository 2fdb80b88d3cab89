// Package metrics provides Prometheus metrics for the fraudlens console.
package metrics

import (
	"fmt"
	"math"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric namespace defaults and unit conversions.
const (
	defaultNamespace          = "fraudlens"
	defaultSubsystem          = "console"
	nanosecondsPerMillisecond = 1e6
)

// probabilityBuckets partitions [0, 1] into tenths.
var probabilityBuckets = []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}

// Manager manages all Prometheus metrics for the console.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Scoring
	predictions        *prometheus.CounterVec
	predictionErrors   *prometheus.CounterVec
	predictionLatency  prometheus.Histogram
	fraudProbabilities prometheus.Histogram

	// Evaluation
	evaluations       prometheus.Counter
	evaluationErrors  *prometheus.CounterVec
	evaluationLatency prometheus.Histogram
	evaluationRows    prometheus.Gauge
	evaluationAUC     prometheus.Gauge

	// Resource loading (model artifact, split files)
	resourceLoads       *prometheus.CounterVec
	resourceLoadLatency *prometheus.HistogramVec

	// Page shell
	navTransitions *prometheus.CounterVec
	activeSessions prometheus.Gauge

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec
	errorLatency        *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        defaultNamespace,
		subsystem:        defaultSubsystem,
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		constLabels:      make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.enabled {
		m.initializeMetrics()
	}

	return m
}

// Enabled reports whether the manager registered its collectors.
func (m *Manager) Enabled() bool { return m.enabled }

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.constLabels)

	m.predictions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "predictions_total",
		Help:        "Total number of scored transactions by verdict",
		ConstLabels: labels,
	}, []string{"verdict"})

	m.predictionErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "prediction_errors_total",
		Help:        "Total number of failed scoring attempts by stage",
		ConstLabels: labels,
	}, []string{"stage"})

	m.predictionLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "prediction_latency_milliseconds",
		Help:        "Latency of a single predict + predict_proba round in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.fraudProbabilities = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "fraud_probability",
		Help:        "Distribution of positive-class probabilities returned to users",
		Buckets:     probabilityBuckets,
		ConstLabels: labels,
	})

	m.evaluations = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "evaluations_total",
		Help:        "Total number of completed test-split evaluations",
		ConstLabels: labels,
	})

	m.evaluationErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "evaluation_errors_total",
		Help:        "Total number of failed evaluations by stage",
		ConstLabels: labels,
	}, []string{"stage"})

	m.evaluationLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "evaluation_latency_milliseconds",
		Help:        "Latency of a full test-split evaluation in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.evaluationRows = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "evaluation_rows",
		Help:        "Number of test rows scored by the last evaluation",
		ConstLabels: labels,
	})

	m.evaluationAUC = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "evaluation_roc_auc",
		Help:        "ROC AUC computed by the last evaluation",
		ConstLabels: labels,
	})

	m.resourceLoads = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "resource_loads_total",
		Help:        "Total number of artifact/split load attempts by resource and outcome",
		ConstLabels: labels,
	}, []string{"resource", "outcome"})

	m.resourceLoadLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "resource_load_latency_milliseconds",
		Help:        "Latency of loading a resource from disk in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"resource"})

	m.navTransitions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "nav_transitions_total",
		Help:        "Total number of page shell transitions",
		ConstLabels: labels,
	}, []string{"from", "to"})

	m.activeSessions = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "active_sessions",
		Help:        "Number of browser sessions held in memory",
		ConstLabels: labels,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_requests_total",
		Help:        "Total number of HTTP requests by endpoint and method",
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByType = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "errors_by_type_total",
		Help:        "Total number of errors by type",
		ConstLabels: labels,
	}, []string{"error_type", "severity"})

	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "errors_by_endpoint_total",
		Help:        "Total number of errors by endpoint",
		ConstLabels: labels,
	}, []string{"endpoint", "method", "error_type"})

	m.errorLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "error_latency_milliseconds",
		Help:        "Latency of operations that resulted in errors",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"component", "error_type"})

	// Runtime gauges are sampled at scrape time.
	auto.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_memory_usage_bytes",
		Help:        "Heap bytes allocated",
		ConstLabels: labels,
	}, func() float64 {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		return float64(ms.Alloc)
	})

	auto.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_goroutine_count",
		Help:        "Number of goroutines",
		ConstLabels: labels,
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	auto.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_gc_pause_avg_milliseconds",
		Help:        "Average GC pause time in milliseconds",
		ConstLabels: labels,
	}, func() float64 {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		if ms.NumGC == 0 {
			return 0
		}
		return float64(ms.PauseTotalNs) / float64(ms.NumGC) / nanosecondsPerMillisecond
	})
}

// Scoring

// RecordPrediction increments the predictions counter for a verdict.
func (m *Manager) RecordPrediction(verdict string) {
	if !m.enabled {
		return
	}
	m.predictions.WithLabelValues(verdict).Inc()
}

// RecordPredictionError increments the prediction error counter for a stage
// (assemble, predict, predict_proba, validate).
func (m *Manager) RecordPredictionError(stage string) {
	if !m.enabled {
		return
	}
	m.predictionErrors.WithLabelValues(stage).Inc()
}

// RecordPredictionLatency records scoring latency in milliseconds.
func (m *Manager) RecordPredictionLatency(latencyMs float64) {
	if !m.enabled {
		return
	}
	m.predictionLatency.Observe(latencyMs)
}

// RecordFraudProbability observes a positive-class probability.
func (m *Manager) RecordFraudProbability(p float64) error {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return fmt.Errorf("%w: probability %v outside [0, 1]", ErrObserveFailed, p)
	}
	if !m.enabled {
		return nil
	}
	m.fraudProbabilities.Observe(p)
	return nil
}

// Evaluation

// RecordEvaluation records a completed evaluation over rows test rows.
func (m *Manager) RecordEvaluation(rows int, auc float64, latencyMs float64) {
	if !m.enabled {
		return
	}
	m.evaluations.Inc()
	m.evaluationRows.Set(float64(rows))
	if !math.IsNaN(auc) {
		m.evaluationAUC.Set(auc)
	}
	m.evaluationLatency.Observe(latencyMs)
}

// RecordEvaluationError increments the evaluation error counter for a stage.
func (m *Manager) RecordEvaluationError(stage string) {
	if !m.enabled {
		return
	}
	m.evaluationErrors.WithLabelValues(stage).Inc()
}

// Resources

// RecordResourceLoad records a load attempt for resource ("model", "split").
func (m *Manager) RecordResourceLoad(resource, outcome string, latencyMs float64) {
	if !m.enabled {
		return
	}
	m.resourceLoads.WithLabelValues(resource, outcome).Inc()
	m.resourceLoadLatency.WithLabelValues(resource).Observe(latencyMs)
}

// Page shell

// RecordNavTransition increments the transition counter.
func (m *Manager) RecordNavTransition(from, to string) {
	if !m.enabled {
		return
	}
	m.navTransitions.WithLabelValues(from, to).Inc()
}

// UpdateActiveSessions sets the number of sessions held in memory.
func (m *Manager) UpdateActiveSessions(count int) {
	if !m.enabled {
		return
	}
	m.activeSessions.Set(float64(count))
}

// HTTP

// RecordHTTPRequest records an HTTP request.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func (m *Manager) RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !m.enabled {
		return
	}
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByType records an error with type and severity labels.
func (m *Manager) RecordErrorByType(errorType, severity string) {
	if !m.enabled {
		return
	}
	m.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func (m *Manager) RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !m.enabled {
		return
	}
	m.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func (m *Manager) RecordErrorLatency(component, errorType string, latencyMs float64) {
	if !m.enabled {
		return
	}
	m.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// Package-level helpers delegate to the global manager.

// RecordPrediction increments the predictions counter for a verdict.
func RecordPrediction(verdict string) { globalManager.RecordPrediction(verdict) }

// RecordPredictionError increments the prediction error counter for a stage.
func RecordPredictionError(stage string) { globalManager.RecordPredictionError(stage) }

// RecordPredictionLatency records scoring latency in milliseconds.
func RecordPredictionLatency(latencyMs float64) { globalManager.RecordPredictionLatency(latencyMs) }

// RecordFraudProbability observes a positive-class probability.
func RecordFraudProbability(p float64) error { return globalManager.RecordFraudProbability(p) }

// RecordEvaluation records a completed evaluation.
func RecordEvaluation(rows int, auc, latencyMs float64) {
	globalManager.RecordEvaluation(rows, auc, latencyMs)
}

// RecordEvaluationError increments the evaluation error counter for a stage.
func RecordEvaluationError(stage string) { globalManager.RecordEvaluationError(stage) }

// RecordResourceLoad records a resource load attempt.
func RecordResourceLoad(resource, outcome string, latencyMs float64) {
	globalManager.RecordResourceLoad(resource, outcome, latencyMs)
}

// RecordNavTransition increments the transition counter.
func RecordNavTransition(from, to string) { globalManager.RecordNavTransition(from, to) }

// UpdateActiveSessions sets the number of sessions held in memory.
func UpdateActiveSessions(count int) { globalManager.UpdateActiveSessions(count) }

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode)
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.RecordHTTPRequestDuration(endpoint, method, statusCode, duration)
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.RecordErrorByType(errorType, severity)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.RecordErrorByEndpoint(endpoint, method, errorType)
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.RecordErrorLatency(component, errorType, latencyMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
