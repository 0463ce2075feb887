// Package prom exports decode metrics with the Prometheus client.
// A Collector implements mcmc.Observer and owns a private registry, so
// several collectors (one per test, say) never clash on metric names.
package prom

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/corey/decipher/internal/domain/mcmc"
)

const namespace = "decipher"

// Collector records search and decode metrics.
type Collector struct {
	reg *prometheus.Registry

	restarts       prometheus.Counter
	improvements   prometheus.Counter
	proposals      *prometheus.CounterVec
	restartLL      prometheus.Histogram
	bestLL         prometheus.Gauge
	decodes        *prometheus.CounterVec
	decodeDuration *prometheus.HistogramVec
}

// NewCollector registers all metrics on a fresh registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Collector{
		reg: reg,

		// restarts counts finished MCMC restarts.
		restarts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mcmc",
			Name:      "restarts_total",
			Help:      "Finished Metropolis-Hastings restarts",
		}),
		improvements: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mcmc",
			Name:      "improvements_total",
			Help:      "Restarts whose final candidate replaced the best-found decode",
		}),
		// Labels: outcome (accepted, rejected, noop)
		proposals: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mcmc",
			Name:      "proposals_total",
			Help:      "Swap proposals by outcome",
		}, []string{"outcome"}),
		restartLL: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "mcmc",
			Name:      "restart_log_likelihood",
			Help:      "Log-likelihood of each restart's final candidate",
			Buckets:   []float64{-1e5, -3e4, -1e4, -3e3, -1e3, -300, -100, -30, -10, 0},
		}),
		bestLL: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "mcmc",
			Name:      "best_log_likelihood",
			Help:      "Log-likelihood of the most recent best decode",
		}),
		// Labels: mode (mcmc, frequency), status (ok, error)
		decodes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decodes_total",
			Help:      "Decode runs by mode and status",
		}, []string{"mode", "status"}),
		// Labels: mode
		decodeDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "decode_duration_seconds",
			Help:      "Wall time of decode runs",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"mode"}),
	}
}

// RestartFinished implements mcmc.Observer.
func (c *Collector) RestartFinished(s mcmc.RestartStats) {
	c.restarts.Inc()
	if s.Improved {
		c.improvements.Inc()
	}
	// No-ops are always accepted (ratio 1), so count them apart.
	c.proposals.WithLabelValues("accepted").Add(float64(s.Accepted - s.NoOps))
	c.proposals.WithLabelValues("noop").Add(float64(s.NoOps))
	c.proposals.WithLabelValues("rejected").Add(float64(s.Proposals - s.Accepted))
	c.restartLL.Observe(s.LogLikelihood)
}

// ObserveDecode records one finished decode.
func (c *Collector) ObserveDecode(mode string, elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.decodes.WithLabelValues(mode, status).Inc()
	if err == nil {
		c.decodeDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
	}
}

// ObserveBest records the log-likelihood of a finished MCMC decode.
func (c *Collector) ObserveBest(logLikelihood float64) {
	c.bestLL.Set(logLikelihood)
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.reg }

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}
