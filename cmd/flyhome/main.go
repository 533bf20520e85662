// Command flyhome runs the random flight trials for a single start airport
// and prints its statistics as JSON.
package main

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"randomflight/internal/config"
	"randomflight/internal/logging"
	"randomflight/internal/refdata"
	"randomflight/internal/stats"
	"randomflight/internal/walk"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer logger.Sync()

	start := cfg.StartAirport
	if len(os.Args) > 1 {
		start = strings.ToUpper(strings.TrimSpace(os.Args[1]))
	}

	store, err := refdata.Open(refdata.Paths{
		AirportsCSV:   cfg.AirportsCSV,
		RoutesCSV:     cfg.RoutesCSV,
		AirportsCache: cfg.AirportsCache,
		RoutesCache:   cfg.RoutesCache,
	}, logger)
	if err != nil {
		logger.Fatal("reference data", zap.Error(err))
	}
	airport, ok := store.Airport(start)
	if !ok {
		logger.Fatal("unknown airport", zap.String("airport", start))
	}
	if !store.Routes().HasRoutes(start) {
		logger.Fatal("airport has no outgoing routes", zap.String("airport", start))
	}

	began := time.Now()
	engine := walk.NewEngine(store.Routes(), walk.NewSource(cfg.Seed))
	walks := engine.RunTrials(start, cfg.Trials, cfg.MaxHops)
	s, err := stats.Aggregate(walks, cfg.MaxHops)
	switch {
	case errors.Is(err, stats.ErrNoReturns):
		logger.Warn("no walk returned home", zap.String("airport", start), zap.Error(err))
	case err != nil:
		logger.Fatal("aggregate", zap.Error(err))
	}
	logger.Info("trials complete",
		zap.String("airport", start),
		zap.String("name", airport.Name),
		zap.Int("trials", cfg.Trials),
		zap.Duration("elapsed", time.Since(began)),
	)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string]stats.Stats{start: s}); err != nil {
		logger.Fatal("encode stats", zap.Error(err))
	}
}
