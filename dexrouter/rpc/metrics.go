package rpc

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/models"
	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/router"
)

const metricsNamespace = "dexrouter"

// Metrics are the swap counters exposed on /metrics.
type Metrics struct {
	registry *prometheus.Registry

	transitions *prometheus.CounterVec
	failures    *prometheus.CounterVec
	swaps       *prometheus.CounterVec
	fees        *prometheus.CounterVec
	volume      *prometheus.CounterVec
}

// NewMetrics creates the swap counters on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "swap_transitions_total",
			Help:      "Swap state machine transitions.",
		}, []string{"from", "to"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "swap_failures_total",
			Help:      "Failed swaps by the state they failed in and the error kind.",
		}, []string{"state", "reason"}),
		swaps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "swaps_total",
			Help:      "Executed swaps by venue.",
		}, []string{"venue"}),
		fees: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "router_fees_total",
			Help:      "Router fees collected, in base units of the input asset.",
		}, []string{"asset"}),
		volume: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "swap_volume_total",
			Help:      "Gross swap input, in base units of the input asset.",
		}, []string{"asset"}),
	}
	m.registry.MustRegister(m.transitions, m.failures, m.swaps, m.fees, m.volume)
	return m
}

// Handler serves the swap counters together with the default registry, which
// carries the Go runtime collectors and the OTel Prometheus bridge.
func (m *Metrics) Handler() http.Handler {
	gatherers := prometheus.Gatherers{m.registry, prometheus.DefaultGatherer}
	return promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{})
}

// ObserveTransition is a router.TransitionFunc.
func (m *Metrics) ObserveTransition(from, to router.State, err error) {
	m.transitions.WithLabelValues(from.String(), to.String()).Inc()
	if to == router.StateFailed {
		m.failures.WithLabelValues(from.String(), ErrorKind(err)).Inc()
	}
}

// ObserveOutcome records a committed swap.
func (m *Metrics) ObserveOutcome(o *models.SwapOutcome) {
	asset := o.AssetIn.String()
	m.swaps.WithLabelValues(string(o.AMMUsed)).Inc()
	m.fees.WithLabelValues(asset).Add(float64(o.RouterFee))
	m.volume.WithLabelValues(asset).Add(float64(o.AmountIn))
}
