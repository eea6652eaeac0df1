// Package metrics wraps github.com/prometheus/client_golang and
// go.opentelemetry.io/otel/sdk/metric with the counters, histograms, and
// gauge the Brain service emits, fanned out to both backends behind a
// single Provider abstraction.
package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every metric the orchestrator and pipeline record.
type Registry struct {
	promReg *prom.Registry

	scansTotal              Counter
	fallbackTriggeredTotal  Counter
	fruitDefectFailureTotal Counter
	publishFailuresTotal    Counter
	clientCallDuration      Histogram
	inflightScans           Gauge
}

// NewRegistry constructs every metric against a fresh Prometheus registry
// and a fresh in-process OTel meter.
func NewRegistry() *Registry {
	promReg := prom.NewRegistry()
	provider := &fanoutProvider{
		prom: newPrometheusProvider(promReg),
		otel: newOTelProvider(),
	}

	return &Registry{
		promReg: promReg,
		scansTotal: provider.NewCounter(CounterOpts{CommonOpts: CommonOpts{
			Namespace: "freshline",
			Name:      "scans_total",
			Help:      "Total scan sessions by outcome.",
			Labels:    []string{"outcome"},
		}}),
		fallbackTriggeredTotal: provider.NewCounter(CounterOpts{CommonOpts: CommonOpts{
			Namespace: "freshline",
			Name:      "fallback_triggered_total",
			Help:      "Total fallback fruit-detector calls by trigger reason.",
			Labels:    []string{"reason"},
		}}),
		fruitDefectFailureTotal: provider.NewCounter(CounterOpts{CommonOpts: CommonOpts{
			Namespace: "freshline",
			Name:      "fruit_defect_failures_total",
			Help:      "Total per-fruit defect-analysis failures, isolated from the rest of the batch.",
		}}),
		publishFailuresTotal: provider.NewCounter(CounterOpts{CommonOpts: CommonOpts{
			Namespace: "freshline",
			Name:      "publish_failures_total",
			Help:      "Total publish failures by target (ui|main_server).",
			Labels:    []string{"target"},
		}}),
		clientCallDuration: provider.NewHistogram(HistogramOpts{CommonOpts: CommonOpts{
			Namespace: "freshline",
			Name:      "client_call_duration_seconds",
			Help:      "Downstream client call duration by client and outcome.",
			Labels:    []string{"client", "outcome"},
		}}),
		inflightScans: provider.NewGauge(GaugeOpts{CommonOpts: CommonOpts{
			Namespace: "freshline",
			Name:      "inflight_scans",
			Help:      "Number of scan pipeline executions currently in flight.",
		}}),
	}
}

// Handler exposes the Prometheus half of the registry on /metrics.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.promReg, promhttp.HandlerOpts{})
}

// RecordScan records one finished scan session by outcome ("failed" or
// "published").
func (r *Registry) RecordScan(outcome string) {
	r.scansTotal.Inc(1, outcome)
}

// RecordFallbackTriggered records one fallback fruit-detector call by reason.
func (r *Registry) RecordFallbackTriggered(reason string) {
	r.fallbackTriggeredTotal.Inc(1, reason)
}

// RecordFruitDefectFailure records one isolated per-fruit defect-analysis
// failure.
func (r *Registry) RecordFruitDefectFailure() {
	r.fruitDefectFailureTotal.Inc(1)
}

// RecordPublishFailure records one publish failure by target.
func (r *Registry) RecordPublishFailure(target string) {
	r.publishFailuresTotal.Inc(1, target)
}

// ObserveClientCall records a downstream call's duration and outcome.
func (r *Registry) ObserveClientCall(client, outcome string, d time.Duration) {
	r.clientCallDuration.Observe(d.Seconds(), client, outcome)
}

// IncInflightScans increments the number of scans currently executing.
func (r *Registry) IncInflightScans() {
	r.inflightScans.Add(1)
}

// DecInflightScans decrements the number of scans currently executing.
func (r *Registry) DecInflightScans() {
	r.inflightScans.Add(-1)
}
