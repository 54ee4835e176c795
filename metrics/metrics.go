// Package metrics exports render loop activity as Prometheus series.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flavioheleno/dcore/render"
)

const namespace = "dcore"

// Collector implements render.Observer.
type Collector struct {
	presented *prometheus.CounterVec
	reused    *prometheus.CounterVec
	skipped   *prometheus.CounterVec
	state     *prometheus.GaugeVec
	latency   *prometheus.HistogramVec
}

var _ render.Observer = (*Collector)(nil)

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		presented: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_presented_total",
			Help:      "Frames sent to a screen.",
		}, []string{"screen"}),
		reused: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_reused_total",
			Help:      "Ticks that fell back to the last good frame.",
		}, []string{"screen"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_skipped_total",
			Help:      "Ticks that presented nothing, by reason.",
		}, []string{"screen", "reason"}),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "screen_state",
			Help:      "Render state of a screen: 0 awaiting frame, 1 presenting, 2 degraded.",
		}, []string{"screen"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "present_duration_seconds",
			Help:      "Time spent adapting and sending a frame.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"screen"}),
	}
	for _, col := range []prometheus.Collector{c.presented, c.reused, c.skipped, c.state, c.latency} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collector) Presented(screen string, took time.Duration) {
	c.presented.WithLabelValues(screen).Inc()
	c.latency.WithLabelValues(screen).Observe(took.Seconds())
}

func (c *Collector) Reused(screen string) { c.reused.WithLabelValues(screen).Inc() }

func (c *Collector) Skipped(screen, reason string) {
	c.skipped.WithLabelValues(screen, reason).Inc()
}

func (c *Collector) StateChanged(screen string, s render.State) {
	c.state.WithLabelValues(screen).Set(float64(s))
}

// Handler serves the series gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
