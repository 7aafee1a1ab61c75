package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the relay.
type Metrics struct {
	registry       *prometheus.Registry
	requestsTotal  prometheus.Counter
	errorsTotal    prometheus.Counter
	peersConnected prometheus.Gauge
	linesRelayed   prometheus.Counter
	linesDelivered prometheus.Counter
	linesDropped   prometheus.Counter
	framesRejected *prometheus.CounterVec
}

// New creates and registers the relay metrics.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "liveboard_requests_total",
		Help: "Total number of HTTP requests received",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "liveboard_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})
	peersConnected := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "liveboard_peers_connected",
		Help: "Number of open board connections",
	})
	linesRelayed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "liveboard_lines_relayed_total",
		Help: "Total number of draw lines accepted for relay",
	})
	linesDelivered := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "liveboard_lines_delivered_total",
		Help: "Total number of draw-sync frames queued to peers",
	})
	linesDropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "liveboard_lines_dropped_total",
		Help: "Total number of draw-sync frames dropped because a peer queue was full",
	})
	framesRejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "liveboard_frames_rejected_total",
		Help: "Total number of inbound frames rejected, by reason",
	}, []string{"reason"})

	registry.MustRegister(
		requestsTotal,
		errorsTotal,
		peersConnected,
		linesRelayed,
		linesDelivered,
		linesDropped,
		framesRejected,
	)

	return &Metrics{
		registry:       registry,
		requestsTotal:  requestsTotal,
		errorsTotal:    errorsTotal,
		peersConnected: peersConnected,
		linesRelayed:   linesRelayed,
		linesDelivered: linesDelivered,
		linesDropped:   linesDropped,
		framesRejected: framesRejected,
	}
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// SetPeers sets the connected peers gauge.
func (m *Metrics) SetPeers(n int) {
	m.peersConnected.Set(float64(n))
}

// IncLinesRelayed counts one accepted line fanned out to delivered peers.
func (m *Metrics) IncLinesRelayed(delivered int) {
	m.linesRelayed.Inc()
	m.linesDelivered.Add(float64(delivered))
}

// IncLinesDropped counts one frame lost to a full peer queue.
func (m *Metrics) IncLinesDropped() {
	m.linesDropped.Inc()
}

// IncFramesRejected counts one rejected inbound frame.
func (m *Metrics) IncFramesRejected(reason string) {
	m.framesRejected.WithLabelValues(reason).Inc()
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
