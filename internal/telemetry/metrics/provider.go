package metrics

// Counter represents a monotonically increasing value.
type Counter interface {
	Inc(delta float64, labels ...string)
}

// Gauge represents a value that can go up or down.
type Gauge interface {
	Set(value float64, labels ...string)
	Add(delta float64, labels ...string)
}

// Histogram records observations into buckets and tracks count and sum.
type Histogram interface {
	Observe(value float64, labels ...string)
}

// CommonOpts are the fields shared by every metric option struct. Labels'
// ordering defines the order values must be passed to Inc/Set/Add/Observe.
type CommonOpts struct {
	Namespace string
	Name      string
	Help      string
	Labels    []string
}

type CounterOpts struct{ CommonOpts }
type GaugeOpts struct{ CommonOpts }
type HistogramOpts struct {
	CommonOpts
	Buckets []float64
}

// Provider builds named counters, gauges, and histograms against a backend.
type Provider interface {
	NewCounter(opts CounterOpts) Counter
	NewGauge(opts GaugeOpts) Gauge
	NewHistogram(opts HistogramOpts) Histogram
}

func fqName(c CommonOpts) string {
	if c.Namespace == "" {
		return c.Name
	}
	return c.Namespace + "_" + c.Name
}
