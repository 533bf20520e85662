package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"randomflight/internal/report"
)

const (
	DefaultTrials       = 10000
	DefaultMaxHops      = 36525
	DefaultStartAirport = "IAD"
)

type Config struct {
	Trials       int
	MaxHops      int
	StartAirport string
	Workers      int
	Seed         uint64

	AirportsCSV   string
	RoutesCSV     string
	AirportsCache string
	RoutesCache   string
	ReportPath    string
	ReportFormat  report.Format

	DatabaseURL       string
	NATSURL           string
	NATSSubjectPrefix string
	LogNATSSubjects   bool
	MetricsAddr       string

	LogLevel  string
	LogFormat string
}

func Load() (*Config, error) {
	// Load .env into environment (ignore if missing)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error

	if cfg.Trials, err = positiveInt("TRIALS", DefaultTrials); err != nil {
		return nil, err
	}
	if cfg.MaxHops, err = positiveInt("MAX_HOPS", DefaultMaxHops); err != nil {
		return nil, err
	}
	if cfg.Workers, err = positiveInt("WORKERS", runtime.NumCPU()); err != nil {
		return nil, err
	}
	cfg.StartAirport = strings.ToUpper(strings.TrimSpace(getenvDefault("START_AIRPORT", DefaultStartAirport)))

	// Optional fixed seed for reproducible runs; unset draws fresh entropy.
	if v := os.Getenv("SEED"); v != "" {
		seed, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		if err != nil || seed == 0 {
			return nil, fmt.Errorf("invalid SEED: %q", v)
		}
		cfg.Seed = seed
	}

	dataDir := getenvDefault("DATA_DIR", "data")
	cfg.AirportsCSV = getenvDefault("AIRPORTS_CSV", filepath.Join(dataDir, "airports.csv"))
	cfg.RoutesCSV = getenvDefault("ROUTES_CSV", filepath.Join(dataDir, "flight_routes.csv"))
	cfg.AirportsCache = getenvDefault("AIRPORTS_CACHE", filepath.Join(dataDir, "airports.json"))
	cfg.RoutesCache = getenvDefault("ROUTES_CACHE", filepath.Join(dataDir, "flight_routes.json"))
	cfg.ReportPath = getenvDefault("REPORT_PATH", filepath.Join(dataDir, "all_stats.json"))
	if cfg.ReportFormat, err = report.ParseFormat(os.Getenv("REPORT_FORMAT")); err != nil {
		return nil, fmt.Errorf("invalid REPORT_FORMAT: %w", err)
	}

	// Postgres sink: prefer DATABASE_URL / PG_DSN, else build from PG* vars when PGDATABASE is set.
	cfg.DatabaseURL = firstNonEmpty(os.Getenv("DATABASE_URL"), os.Getenv("PG_DSN"))
	if cfg.DatabaseURL == "" {
		if db := os.Getenv("PGDATABASE"); db != "" {
			host := getenvDefault("PGHOST", "127.0.0.1")
			port := getenvDefault("PGPORT", "5432")
			user := getenvDefault("PGUSER", "postgres")
			pass := os.Getenv("PGPASSWORD")
			sslmode := getenvDefault("PGSSLMODE", "disable")
			if pass != "" {
				cfg.DatabaseURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", urlEscape(user), urlEscape(pass), host, port, db, sslmode)
			} else {
				cfg.DatabaseURL = fmt.Sprintf("postgres://%s@%s:%s/%s?sslmode=%s", urlEscape(user), host, port, db, sslmode)
			}
		}
	}

	// NATS is optional; empty disables publishing.
	cfg.NATSURL = os.Getenv("NATS_URL")
	cfg.NATSSubjectPrefix = getenvDefault("NATS_SUBJECT_PREFIX", "randomflight")
	cfg.LogNATSSubjects = parseBool(os.Getenv("LOG_NATS_SUBJECTS"))

	// Metrics listen address (e.g., ":9102"). Empty disables the metrics server.
	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")

	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.LogFormat = strings.ToLower(getenvDefault("LOG_FORMAT", "console"))
	if cfg.LogFormat != "console" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid LOG_FORMAT: %q", cfg.LogFormat)
	}

	return cfg, nil
}

func positiveInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func urlEscape(s string) string {
	// Minimal escape for DSN user/pass with special chars
	r := strings.NewReplacer("@", "%40", ":", "%3A", "/", "%2F", "?", "%3F", "#", "%23")
	return r.Replace(s)
}
