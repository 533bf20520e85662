package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"randomflight/internal/config"
	"randomflight/internal/db"
	"randomflight/internal/logging"
	"randomflight/internal/metrics"
	"randomflight/internal/publisher"
	"randomflight/internal/refdata"
	"randomflight/internal/sim"
)

func main() {
	// Load configuration from .env and environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer logger.Sync()

	// Root context with cancellation on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := refdata.Open(refdata.Paths{
		AirportsCSV:   cfg.AirportsCSV,
		RoutesCSV:     cfg.RoutesCSV,
		AirportsCache: cfg.AirportsCache,
		RoutesCache:   cfg.RoutesCache,
	}, logger)
	if err != nil {
		logger.Fatal("reference data", zap.Error(err))
	}

	opts := []sim.Option{
		sim.WithWorkers(cfg.Workers),
		sim.WithSeed(cfg.Seed),
		sim.WithProgress(os.Stdout),
		sim.WithLogger(logger),
		sim.WithSinks(sim.FileSink{Path: cfg.ReportPath, Format: cfg.ReportFormat}),
	}

	// Metrics setup
	var mcol *metrics.Collector
	if cfg.MetricsAddr != "" {
		mcol = metrics.NewCollector(cfg.Trials, cfg.MaxHops, cfg.Workers)
		srv := mcol.Serve(cfg.MetricsAddr, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		opts = append(opts, sim.WithMetrics(mcol))
	}

	if cfg.DatabaseURL != "" {
		sqlDB, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("db open", zap.Error(err))
		}
		defer sqlDB.Close()
		if err := db.Ping(ctx, sqlDB); err != nil {
			logger.Fatal("db ping", zap.Error(err))
		}
		if err := db.EnsureSchema(ctx, sqlDB); err != nil {
			logger.Fatal("db schema", zap.Error(err))
		}
		opts = append(opts, sim.WithSinks(sim.PostgresSink{DB: sqlDB}))
	}

	if cfg.NATSURL != "" {
		pub, err := publisher.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubjectPrefix, cfg.LogNATSSubjects, wrapPublisherMetrics(mcol), logger)
		if err != nil {
			logger.Fatal("nats connect", zap.Error(err))
		}
		defer pub.Close()
		opts = append(opts, sim.WithPublisher(pub), sim.WithSinks(sim.NATSSink{Pub: pub}))
	}

	driver := sim.NewDriver(store, opts...)
	rep, err := driver.RunAll(ctx, cfg.Trials, cfg.MaxHops)
	if err != nil {
		logger.Fatal("run failed", zap.Error(err))
	}
	logger.Info("shutdown complete",
		zap.Int("airports", len(rep)),
		zap.String("report", cfg.ReportPath),
	)
}

// wrapPublisherMetrics adapts our Collector to the PublisherMetrics interface.
func wrapPublisherMetrics(c *metrics.Collector) publisher.PublisherMetrics {
	if c == nil {
		return nil
	}
	return &pubMetrics{c: c}
}

type pubMetrics struct{ c *metrics.Collector }

func (p *pubMetrics) NATSPublishedInc()  { p.c.NATSPublished.Inc() }
func (p *pubMetrics) NATSPublishErrInc() { p.c.NATSPublishErrs.Inc() }
func (p *pubMetrics) NATSSetConnected(b bool) {
	if b {
		p.c.NATSConnected.Set(1)
	} else {
		p.c.NATSConnected.Set(0)
	}
}
