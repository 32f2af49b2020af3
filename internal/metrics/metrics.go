package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "auction_client"

// Metrics owns its registry so several clients can live in one process.
type Metrics struct {
	registry *prometheus.Registry

	Reconnects      prometheus.Counter
	StreamFrames    *prometheus.CounterVec
	BidSubmissions  *prometheus.CounterVec
	SnapshotFetches *prometheus.CounterVec
	ConnectionState prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Reconnects: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reconnects_total",
				Help:      "Total number of scheduled stream reconnects.",
			},
		),
		StreamFrames: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stream_frames_total",
				Help:      "Stream frames received, by parse result.",
			},
			[]string{"result"}, // ok/malformed
		),
		BidSubmissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bid_submissions_total",
				Help:      "Bid submissions, by outcome.",
			},
			[]string{"result"},
		),
		SnapshotFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "snapshot_fetches_total",
				Help:      "Auction snapshot fetches, by result.",
			},
			[]string{"result"}, // ok/error/breaker_open
		),
		ConnectionState: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "connection_state",
				Help:      "Stream connection state (0 disconnected, 1 connecting, 2 open, 3 reconnecting).",
			},
		),
	}

	m.registry.MustRegister(
		m.Reconnects,
		m.StreamFrames,
		m.BidSubmissions,
		m.SnapshotFetches,
		m.ConnectionState,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
