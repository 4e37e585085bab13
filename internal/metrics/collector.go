package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"meal-plan-generator/internal/shared"
)

const namespace = "meal_planner"

// Collector exposes generation and HTTP metrics in Prometheus format.
// Each Collector owns its registry so tests can build as many as they like.
type Collector struct {
	registry *prometheus.Registry

	generations  *prometheus.CounterVec
	llmLatency   *prometheus.HistogramVec
	tokens       *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewCollector registers all metrics plus the Go runtime and process
// collectors on a fresh registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		generations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generations_total",
				Help:      "Total number of meal plan generations by outcome",
			},
			[]string{"outcome"},
		),
		llmLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "llm_request_duration_seconds",
				Help:      "Duration of LLM calls in seconds",
				Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
			},
			[]string{"model"},
		),
		tokens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "llm_tokens_total",
				Help:      "Total number of LLM tokens consumed",
			},
			[]string{"model", "type"},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// RecordMeta implements the planner's usage recorder.
func (c *Collector) RecordMeta(meta shared.AgentMeta) error {
	outcome := meta.Outcome
	if outcome == "" {
		outcome = shared.OutcomeSuccess
	}
	c.generations.WithLabelValues(outcome).Inc()

	model := meta.Usage.Model
	c.llmLatency.WithLabelValues(model).Observe(meta.Latency.Seconds())
	if meta.Usage.PromptTokens > 0 {
		c.tokens.WithLabelValues(model, "prompt").Add(float64(meta.Usage.PromptTokens))
	}
	if meta.Usage.CompletionTokens > 0 {
		c.tokens.WithLabelValues(model, "completion").Add(float64(meta.Usage.CompletionTokens))
	}
	return nil
}

// ObserveHTTP records one served request. route is the matched route pattern,
// not the raw path, to keep label cardinality bounded.
func (c *Collector) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Registry returns the registry backing this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
