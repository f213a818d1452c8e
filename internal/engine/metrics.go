package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"pokewatch/internal/types"
)

// Metrics are the engine's Prometheus collectors. A nil *Metrics records
// nothing.
type Metrics struct {
	processed       *prometheus.CounterVec
	malformed       *prometheus.CounterVec
	evalSeconds     *prometheus.HistogramVec
	generation      *prometheus.GaugeVec
	cacheGeneration prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: types.MetricNamespace,
			Name:      types.MetricEventsProcessed,
			Help:      "Events evaluated, by kind and verdict",
		}, []string{types.LabelKind, types.LabelResult}),
		malformed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: types.MetricNamespace,
			Name:      types.MetricMalformedPayloads,
			Help:      "Payloads rejected during normalization",
		}, []string{types.LabelKind}),
		evalSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: types.MetricNamespace,
			Name:      types.MetricEvaluationSeconds,
			Help:      "Time spent evaluating one event against its filter set",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}, []string{types.LabelKind}),
		generation: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: types.MetricNamespace,
			Name:      types.MetricGenerationInfo,
			Help:      "Active rule generation, labelled by id; value is its filter count",
		}, []string{types.LabelGeneration}),
		cacheGeneration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: types.MetricNamespace,
			Name:      types.MetricCacheGeneration,
			Help:      "Generation of the most recently published cache snapshot",
		}),
	}
	reg.MustRegister(m.processed, m.malformed, m.evalSeconds, m.generation, m.cacheGeneration)
	return m
}

func (m *Metrics) observeResult(kind types.EventKind, result string) {
	if m == nil {
		return
	}
	m.processed.WithLabelValues(string(kind), result).Inc()
}

// observeMalformed counts a payload under a bounded kind label.
func (m *Metrics) observeMalformed(kind string) {
	if m == nil {
		return
	}
	m.malformed.WithLabelValues(kind).Inc()
}

func (m *Metrics) observeEval(kind types.EventKind, d time.Duration) {
	if m == nil {
		return
	}
	m.evalSeconds.WithLabelValues(string(kind)).Observe(d.Seconds())
}

func (m *Metrics) setGeneration(g *Generation) {
	if m == nil {
		return
	}
	m.generation.Reset()
	m.generation.WithLabelValues(g.ID.String()).Set(float64(g.Sets.Count()))
}

func (m *Metrics) setCacheGeneration(gen uint64) {
	if m == nil {
		return
	}
	m.cacheGeneration.Set(float64(gen))
}
