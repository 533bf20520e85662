package refdata

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"randomflight/internal/flights"
)

// Paths locates the raw CSV inputs and their derived JSON caches.
type Paths struct {
	AirportsCSV   string
	RoutesCSV     string
	AirportsCache string
	RoutesCache   string
}

// Store holds the airport directory and route graph. It is built once and
// read-only afterwards.
type Store struct {
	airports flights.Airports
	routes   flights.Routes
}

func NewStore(airports flights.Airports, routes flights.Routes) *Store {
	return &Store{airports: airports, routes: routes}
}

// Open loads airports then routes, using the caches when present.
func Open(p Paths, logger *zap.Logger) (*Store, error) {
	airports, err := LoadAirports(p.AirportsCSV, p.AirportsCache, logger)
	if err != nil {
		return nil, fmt.Errorf("load airports: %w", err)
	}
	routes, err := LoadRoutes(p.RoutesCSV, p.RoutesCache, airports, logger)
	if err != nil {
		return nil, fmt.Errorf("load routes: %w", err)
	}
	logger.Info("reference data loaded",
		zap.Int("airports", len(airports)),
		zap.Int("sources", len(routes)),
	)
	return NewStore(airports, routes), nil
}

func (s *Store) Airports() flights.Airports { return s.airports }
func (s *Store) Routes() flights.Routes     { return s.routes }

func (s *Store) Airport(code string) (flights.Airport, bool) {
	a, ok := s.airports[code]
	return a, ok
}

// Origins returns, sorted, the known airports with at least one outgoing route.
func (s *Store) Origins() []string {
	var out []string
	for _, code := range s.airports.Codes() {
		if s.routes.HasRoutes(code) {
			out = append(out, code)
		}
	}
	return out
}

// LoadAirports returns the airport directory keyed by IATA code. Rows without
// an IATA code are skipped.
func LoadAirports(csvPath, cachePath string, logger *zap.Logger) (flights.Airports, error) {
	var cached map[string]flights.Airport
	ok, err := readCache(cachePath, &cached)
	if err != nil {
		return nil, err
	}
	if ok {
		logger.Debug("airports from cache", zap.String("path", cachePath))
		airports := make(flights.Airports, len(cached))
		for code, a := range cached {
			a.Code = code
			airports[code] = a
		}
		return airports, nil
	}

	f, err := os.Open(csvPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	airports, err := ParseAirports(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", csvPath, err)
	}
	if err := writeCache(cachePath, airports); err != nil {
		return nil, err
	}
	logger.Debug("airports parsed", zap.String("path", csvPath), zap.Int("count", len(airports)))
	return airports, nil
}

func ParseAirports(r io.Reader) (flights.Airports, error) {
	rows, col, err := readTable(r, "iata_code", "name", "latitude_deg", "longitude_deg")
	if err != nil {
		return nil, err
	}
	airports := make(flights.Airports)
	for i, row := range rows {
		code := strings.TrimSpace(row[col["iata_code"]])
		if code == "" {
			continue
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(row[col["latitude_deg"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d (%s): invalid latitude_deg: %w", i+2, code, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(row[col["longitude_deg"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d (%s): invalid longitude_deg: %w", i+2, code, err)
		}
		airports[code] = flights.Airport{
			Code:      code,
			Name:      row[col["name"]],
			Latitude:  lat,
			Longitude: lon,
		}
	}
	return airports, nil
}

// LoadRoutes returns the nonstop route graph restricted to known airports.
// Cached graphs are re-normalized against airports as well.
func LoadRoutes(csvPath, cachePath string, airports flights.Airports, logger *zap.Logger) (flights.Routes, error) {
	var cached map[string][]string
	ok, err := readCache(cachePath, &cached)
	if err != nil {
		return nil, err
	}
	if ok {
		logger.Debug("routes from cache", zap.String("path", cachePath))
		return restrict(cached, airports), nil
	}

	f, err := os.Open(csvPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	routes, err := ParseRoutes(f, airports)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", csvPath, err)
	}
	if err := writeCache(cachePath, routes); err != nil {
		return nil, err
	}
	logger.Debug("routes parsed", zap.String("path", csvPath), zap.Int("sources", len(routes)))
	return routes, nil
}

func ParseRoutes(r io.Reader, airports flights.Airports) (flights.Routes, error) {
	rows, col, err := readTable(r, "source_airport", "destination_airport", "stops")
	if err != nil {
		return nil, err
	}
	raw := make(map[string][]string)
	for _, row := range rows {
		if strings.TrimSpace(row[col["stops"]]) != "0" {
			continue
		}
		src := strings.TrimSpace(row[col["source_airport"]])
		dst := strings.TrimSpace(row[col["destination_airport"]])
		raw[src] = append(raw[src], dst)
	}
	return restrict(raw, airports), nil
}

// restrict keeps edges whose endpoints are both known airports and normalizes the result.
func restrict(raw map[string][]string, airports flights.Airports) flights.Routes {
	kept := make(map[string][]string, len(raw))
	for src, dests := range raw {
		if _, ok := airports[src]; !ok {
			continue
		}
		for _, d := range dests {
			if _, ok := airports[d]; ok {
				kept[src] = append(kept[src], d)
			}
		}
	}
	return flights.NewRoutes(kept)
}

// readTable reads a headed CSV and returns its data rows plus the index of each required column.
func readTable(r io.Reader, required ...string) ([][]string, map[string]int, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, errors.New("empty csv")
		}
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(required))
	for i, h := range header {
		col[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, name := range required {
		if _, ok := col[name]; !ok {
			return nil, nil, fmt.Errorf("missing column %q", name)
		}
	}
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	return rows, col, nil
}

func readCache(path string, v any) (bool, error) {
	if path == "" {
		return false, nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read cache %s: %w", path, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return false, fmt.Errorf("decode cache %s: %w", path, err)
	}
	return true, nil
}

func writeCache(path string, v any) error {
	if path == "" {
		return nil
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write cache %s: %w", path, err)
	}
	return nil
}
