// Package metrics exposes demodulator counters in Prometheus format on an
// optional HTTP port.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"stream1090/internal/adsb"
)

// Collector mirrors the demodulator stats into Prometheus metrics. The
// demod core keeps plain counters; Update folds a snapshot's deltas into
// the registry so the hot path never touches a metric.
type Collector struct {
	registry *prometheus.Registry

	framesSent *prometheus.CounterVec
	framesDup  *prometheus.CounterVec
	repairs    *prometheus.CounterVec
	iterations prometheus.Counter

	prev adsb.StatsSnapshot
}

// NewCollector creates a collector with its own registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Collector{
		registry: registry,
		framesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stream1090_frames_sent_total",
			Help: "Validated frames emitted, by downlink format.",
		}, []string{"df"}),
		framesDup: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stream1090_frames_duplicate_total",
			Help: "Frames suppressed as phase duplicates, by downlink format.",
		}, []string{"df"}),
		repairs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stream1090_frames_repaired_total",
			Help: "Frames recovered through CRC error correction, by kind.",
		}, []string{"kind"}),
		iterations: factory.NewCounter(prometheus.CounterOpts{
			Name: "stream1090_demod_ticks_total",
			Help: "Demodulator ticks processed at the 1 MHz symbol clock.",
		}),
	}
}

// Update folds the counter deltas since the last call into the registry.
func (c *Collector) Update(s adsb.StatsSnapshot) {
	for df := range s.Sent {
		label := strconv.Itoa(df)
		if d := s.Sent[df] - c.prev.Sent[df]; d > 0 {
			c.framesSent.WithLabelValues(label).Add(float64(d))
		}
		if d := s.Dups[df] - c.prev.Dups[df]; d > 0 {
			c.framesDup.WithLabelValues(label).Add(float64(d))
		}
	}
	if d := s.DF17RepairSuccess - c.prev.DF17RepairSuccess; d > 0 {
		c.repairs.WithLabelValues("df17_burst").Add(float64(d))
	}
	if d := s.DF11BitFix - c.prev.DF11BitFix; d > 0 {
		c.repairs.WithLabelValues("df11_burst").Add(float64(d))
	}
	if d := s.DF11ParityFix - c.prev.DF11ParityFix; d > 0 {
		c.repairs.WithLabelValues("df11_parity").Add(float64(d))
	}
	if d := s.Iterations - c.prev.Iterations; d > 0 {
		c.iterations.Add(float64(d))
	}
	c.prev = s
}

// Serve runs the exposition endpoint until the context is cancelled.
func (c *Collector) Serve(ctx context.Context, port int, logger *logrus.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.WithField("port", port).Info("Serving Prometheus metrics")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
