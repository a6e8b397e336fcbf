package gateway

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the gateway's Prometheus collectors
type Metrics struct {
	registry *prometheus.Registry

	proxiedRequests *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
	upstreamUp      prometheus.Gauge
	prunedRuns      prometheus.Counter
}

// NewMetrics registers the gateway collectors on a fresh registry
func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}
	auto := promauto.With(m.registry)

	m.proxiedRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bandgap",
		Subsystem: "gateway",
		Name:      "proxied_requests_total",
		Help:      "Requests forwarded to the prediction service by route and status code",
	}, []string{"route", "code"})

	m.upstreamLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "bandgap",
		Subsystem: "gateway",
		Name:      "upstream_latency_seconds",
		Help:      "Time taken by the prediction service to answer",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"route"})

	m.upstreamUp = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: "bandgap",
		Subsystem: "gateway",
		Name:      "upstream_up",
		Help:      "1 if the last scheduled health probe succeeded",
	})

	m.prunedRuns = auto.NewCounter(prometheus.CounterOpts{
		Namespace: "bandgap",
		Subsystem: "gateway",
		Name:      "pruned_runs_total",
		Help:      "Runs removed by the retention job",
	})

	return m
}

// Registry exposes the registry the collectors live on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveProxied records one forwarded request
func (m *Metrics) ObserveProxied(route string, code int, elapsed time.Duration) {
	m.proxiedRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.upstreamLatency.WithLabelValues(route).Observe(elapsed.Seconds())
}

// SetUpstreamUp records the outcome of a health probe
func (m *Metrics) SetUpstreamUp(up bool) {
	if up {
		m.upstreamUp.Set(1)
		return
	}
	m.upstreamUp.Set(0)
}

// AddPruned counts runs deleted by the retention job
func (m *Metrics) AddPruned(n int) {
	m.prunedRuns.Add(float64(n))
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
