package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exports pipeline observability through Prometheus, grounded on
// pkg/metrics/lux_metrics.go's per-namespace registry-and-collectors shape.
type Metrics struct {
	registry *prometheus.Registry

	MessagesSent    prometheus.Counter
	MessagesDropped prometheus.Counter
	MessagesQueued  prometheus.Counter
	CurrentRate     prometheus.Gauge
	TickToTrade     prometheus.Histogram
	RingHighWater   prometheus.Gauge
	RingDropped     prometheus.Counter
}

// NewMetrics builds a fresh registry scoped to namespace (e.g. "beacon_replayer",
// "beacon_algo").
func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		MessagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "messages_sent_total",
			Help: "Messages successfully sent.",
		}),
		MessagesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "messages_dropped_total",
			Help: "Messages dropped by a rule or a full ring.",
		}),
		MessagesQueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "messages_queued_total",
			Help: "Messages vetoed and counted as queued.",
		}),
		CurrentRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "current_rate_msgs_per_sec",
			Help: "Trailing one-second send rate.",
		}),
		TickToTrade: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "tick_to_trade_microseconds",
			Help:    "Tick-to-trade latency in microseconds.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 20),
		}),
		RingHighWater: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "ring_high_water_mark",
			Help: "Largest observed fill level of a ring buffer.",
		}),
		RingDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "ring_dropped_total",
			Help: "Items dropped because a ring buffer was full.",
		}),
	}

	registry.MustRegister(
		m.MessagesSent, m.MessagesDropped, m.MessagesQueued,
		m.CurrentRate, m.TickToTrade, m.RingHighWater, m.RingDropped,
	)
	return m
}

// Serve starts a promhttp handler on addr and blocks until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
