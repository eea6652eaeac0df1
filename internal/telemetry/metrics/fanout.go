package metrics

// fanoutProvider dispatches every instrument to both the Prometheus and OTel
// backends, so each recorded event reaches the Prometheus registry served on
// /metrics and the OTel meter in the same call, without requiring callers to
// pick one.
type fanoutProvider struct {
	prom *prometheusProvider
	otel *otelProvider
}

func (f *fanoutProvider) NewCounter(opts CounterOpts) Counter {
	return &fanoutCounter{a: f.prom.NewCounter(opts), b: f.otel.NewCounter(opts)}
}

func (f *fanoutProvider) NewGauge(opts GaugeOpts) Gauge {
	return &fanoutGauge{a: f.prom.NewGauge(opts), b: f.otel.NewGauge(opts)}
}

func (f *fanoutProvider) NewHistogram(opts HistogramOpts) Histogram {
	return &fanoutHistogram{a: f.prom.NewHistogram(opts), b: f.otel.NewHistogram(opts)}
}

type fanoutCounter struct{ a, b Counter }

func (c *fanoutCounter) Inc(delta float64, labels ...string) {
	c.a.Inc(delta, labels...)
	c.b.Inc(delta, labels...)
}

type fanoutGauge struct{ a, b Gauge }

func (g *fanoutGauge) Set(value float64, labels ...string) {
	g.a.Set(value, labels...)
	g.b.Set(value, labels...)
}

func (g *fanoutGauge) Add(delta float64, labels ...string) {
	g.a.Add(delta, labels...)
	g.b.Add(delta, labels...)
}

type fanoutHistogram struct{ a, b Histogram }

func (h *fanoutHistogram) Observe(value float64, labels ...string) {
	h.a.Observe(value, labels...)
	h.b.Observe(value, labels...)
}
