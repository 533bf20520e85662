package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Collector struct {
	reg *prometheus.Registry

	AirportsTotal     prometheus.Gauge
	AirportsProcessed prometheus.Counter
	AirportsNoReturn  prometheus.Counter

	Walks         *prometheus.CounterVec // outcome label: returned_home|dead_end|not_finished
	AverageLength prometheus.Histogram   // per-airport average length of returned walks

	AirportDuration prometheus.Histogram

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge

	ReportsPersisted *prometheus.CounterVec // sink label: file|postgres|nats

	Trials  prometheus.Gauge
	MaxHops prometheus.Gauge
	Workers prometheus.Gauge
}

func NewCollector(trials, maxHops, workers int) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		AirportsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "randomflight_airports_total",
			Help: "Number of start airports in the current run.",
		}),
		AirportsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "randomflight_airports_processed_total",
			Help: "Start airports whose trials have completed.",
		}),
		AirportsNoReturn: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "randomflight_airports_no_return_total",
			Help: "Start airports where no walk returned home.",
		}),
		Walks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "randomflight_walks_total",
			Help: "Walks performed, by outcome.",
		}, []string{"outcome"}),
		AverageLength: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "randomflight_average_walk_length",
			Help:    "Per-airport average length (airports visited) of walks that returned home.",
			Buckets: prometheus.ExponentialBuckets(2, 2, 16),
		}),
		AirportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "randomflight_airport_duration_seconds",
			Help:    "Time to run all trials for one start airport.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 18),
		}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "randomflight_nats_published_total",
			Help: "Total NATS messages published.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "randomflight_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "randomflight_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
		ReportsPersisted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "randomflight_reports_persisted_total",
			Help: "Reports persisted, by sink.",
		}, []string{"sink"}),
		Trials: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "randomflight_trials_per_airport",
			Help: "Configured walks per start airport.",
		}),
		MaxHops: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "randomflight_max_hops",
			Help: "Configured hop bound per walk.",
		}),
		Workers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "randomflight_workers",
			Help: "Configured worker goroutines.",
		}),
	}

	reg.MustRegister(
		c.AirportsTotal, c.AirportsProcessed, c.AirportsNoReturn,
		c.Walks, c.AverageLength, c.AirportDuration,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected,
		c.ReportsPersisted,
		c.Trials, c.MaxHops, c.Workers,
	)

	c.Trials.Set(float64(trials))
	c.MaxHops.Set(float64(maxHops))
	c.Workers.Set(float64(workers))

	return c
}

func (c *Collector) Registry() *prometheus.Registry { return c.reg }

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", zap.Error(err))
		}
	}()
	logger.Info("metrics listening", zap.String("addr", addr))
	return srv
}
