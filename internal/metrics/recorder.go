// Package metrics exposes Prometheus metrics for ranking runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spigell/resume-ranker/internal/models"
)

const (
	defaultNamespace = "resume_ranker"
	outcomeSuccess   = "success"
)

// Recorder implements the observer hooks of the gateway, the retry controller
// and the orchestrator.
type Recorder struct {
	namespace      string
	latencyBuckets []float64
	registry       *prometheus.Registry
	modelCalls     *prometheus.CounterVec
	modelLatency   *prometheus.HistogramVec
	attempts       *prometheus.CounterVec
	candidates     *prometheus.CounterVec
	fitScores      prometheus.Histogram
	batches        *prometheus.CounterVec
	lastBatchSize  prometheus.Gauge
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithNamespace sets the metric namespace.
func WithNamespace(namespace string) Option {
	return func(r *Recorder) {
		if namespace != "" {
			r.namespace = namespace
		}
	}
}

// WithLatencyBuckets sets the model call latency histogram buckets, in seconds.
func WithLatencyBuckets(buckets []float64) Option {
	return func(r *Recorder) {
		if len(buckets) > 0 {
			r.latencyBuckets = buckets
		}
	}
}

// WithRegistry registers metrics in registry instead of a private one.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(r *Recorder) {
		if registry != nil {
			r.registry = registry
		}
	}
}

// NewRecorder creates and registers all metrics.
func NewRecorder(opts ...Option) *Recorder {
	r := &Recorder{
		namespace:      defaultNamespace,
		latencyBuckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.registry == nil {
		r.registry = prometheus.NewRegistry()
	}

	factory := promauto.With(r.registry)

	r.modelCalls = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "model_calls_total",
		Help:      "Model gateway calls by backend, model and outcome.",
	}, []string{"backend", "model", "outcome"})

	r.modelLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Name:      "model_call_duration_seconds",
		Help:      "Latency of model gateway calls.",
		Buckets:   r.latencyBuckets,
	}, []string{"backend", "model"})

	r.attempts = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "attempts_total",
		Help:      "Retry controller attempts by stage and outcome.",
	}, []string{"stage", "outcome"})

	r.candidates = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "candidates_total",
		Help:      "Resolved candidates by recommendation or failure kind.",
	}, []string{"result"})

	r.fitScores = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Name:      "fit_score",
		Help:      "Distribution of candidate fit scores.",
		Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
	})

	r.batches = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "batches_total",
		Help:      "Finished ranking runs by final state.",
	}, []string{"state"})

	r.lastBatchSize = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: r.namespace,
		Name:      "last_batch_size",
		Help:      "Number of resumes in the most recent run.",
	})

	return r
}

// Registry returns the registry the metrics live in.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func (r *Recorder) ObserveCall(backend, model string, kind models.ErrorKind, elapsed time.Duration) {
	r.modelCalls.WithLabelValues(backend, model, outcome(kind)).Inc()
	r.modelLatency.WithLabelValues(backend, model).Observe(elapsed.Seconds())
}

func (r *Recorder) ObserveAttempt(stage string, kind models.ErrorKind) {
	r.attempts.WithLabelValues(stage, outcome(kind)).Inc()
}

func (r *Recorder) ObserveCandidate(entry models.Entry) {
	switch {
	case entry.Failure != nil:
		r.candidates.WithLabelValues(string(entry.Failure.Kind)).Inc()
	case entry.Score != nil:
		r.candidates.WithLabelValues(string(entry.Score.Recommendation)).Inc()
		r.fitScores.Observe(entry.Score.FitScore)
	}
}

func (r *Recorder) ObserveBatch(report *models.BatchReport) {
	if report == nil {
		return
	}
	r.batches.WithLabelValues(string(report.State)).Inc()
	r.lastBatchSize.Set(float64(len(report.Entries)))
}

func outcome(kind models.ErrorKind) string {
	if kind == "" {
		return outcomeSuccess
	}
	return string(kind)
}
