package metrics

import (
	prom "github.com/prometheus/client_golang/prometheus"
)

// prometheusProvider implements Provider backed by a Prometheus registry. It
// is the backend the freshline_* metrics are actually scraped from on
// /metrics.
type prometheusProvider struct {
	reg *prom.Registry
}

func newPrometheusProvider(reg *prom.Registry) *prometheusProvider {
	return &prometheusProvider{reg: reg}
}

func (p *prometheusProvider) NewCounter(opts CounterOpts) Counter {
	vec := prom.NewCounterVec(prom.CounterOpts{Name: fqName(opts.CommonOpts), Help: opts.Help}, opts.Labels)
	p.reg.MustRegister(vec)
	return &promCounter{vec: vec}
}

func (p *prometheusProvider) NewGauge(opts GaugeOpts) Gauge {
	vec := prom.NewGaugeVec(prom.GaugeOpts{Name: fqName(opts.CommonOpts), Help: opts.Help}, opts.Labels)
	p.reg.MustRegister(vec)
	return &promGauge{vec: vec}
}

func (p *prometheusProvider) NewHistogram(opts HistogramOpts) Histogram {
	buckets := opts.Buckets
	if len(buckets) == 0 {
		buckets = prom.DefBuckets
	}
	vec := prom.NewHistogramVec(prom.HistogramOpts{Name: fqName(opts.CommonOpts), Help: opts.Help, Buckets: buckets}, opts.Labels)
	p.reg.MustRegister(vec)
	return &promHistogram{vec: vec}
}

type promCounter struct{ vec *prom.CounterVec }

func (c *promCounter) Inc(delta float64, labels ...string) {
	c.vec.WithLabelValues(labels...).Add(delta)
}

type promGauge struct{ vec *prom.GaugeVec }

func (g *promGauge) Set(value float64, labels ...string) { g.vec.WithLabelValues(labels...).Set(value) }
func (g *promGauge) Add(delta float64, labels ...string) { g.vec.WithLabelValues(labels...).Add(delta) }

type promHistogram struct{ vec *prom.HistogramVec }

func (h *promHistogram) Observe(value float64, labels ...string) {
	h.vec.WithLabelValues(labels...).Observe(value)
}
