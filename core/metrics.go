package core

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"pathway-gateway/core/failover"
)

// PrometheusObserver 上游尝试次数与延迟指标
type PrometheusObserver struct {
	attempts *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewPrometheusObserver 在 reg 上注册指标；测试中传入独立的 Registry
func NewPrometheusObserver(reg prometheus.Registerer) (*PrometheusObserver, error) {
	o := &PrometheusObserver{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pathway",
			Name:      "upstream_attempts_total",
			Help:      "Upstream API attempts by provider and outcome.",
		}, []string{"provider", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pathway",
			Name:      "upstream_attempt_duration_seconds",
			Help:      "Latency of single upstream API attempts.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"provider"}),
	}
	for _, c := range []prometheus.Collector{o.attempts, o.latency} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (o *PrometheusObserver) ObserveAttempt(_ context.Context, a failover.Attempt) {
	o.attempts.WithLabelValues(a.Provider, a.Outcome.String()).Inc()
	o.latency.WithLabelValues(a.Provider).Observe(a.Duration.Seconds())
}

// InstrumentedCache 统计缓存命中/未命中/错误
type InstrumentedCache struct {
	next    ResultCache
	lookups *prometheus.CounterVec
	stores  *prometheus.CounterVec
}

func NewInstrumentedCache(next ResultCache, reg prometheus.Registerer) (*InstrumentedCache, error) {
	c := &InstrumentedCache{
		next: next,
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pathway",
			Name:      "cache_lookups_total",
			Help:      "Result cache lookups by result (hit, miss, error).",
		}, []string{"result"}),
		stores: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pathway",
			Name:      "cache_stores_total",
			Help:      "Result cache writes by result (ok, error).",
		}, []string{"result"}),
	}
	for _, col := range []prometheus.Collector{c.lookups, c.stores} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *InstrumentedCache) Lookup(ctx context.Context, query string) (string, bool, error) {
	v, found, err := c.next.Lookup(ctx, query)
	switch {
	case err != nil:
		c.lookups.WithLabelValues("error").Inc()
	case found:
		c.lookups.WithLabelValues("hit").Inc()
	default:
		c.lookups.WithLabelValues("miss").Inc()
	}
	return v, found, err
}

func (c *InstrumentedCache) Store(ctx context.Context, query, value string) error {
	err := c.next.Store(ctx, query, value)
	if err != nil {
		c.stores.WithLabelValues("error").Inc()
	} else {
		c.stores.WithLabelValues("ok").Inc()
	}
	return err
}
