package refdata

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"randomflight/internal/flights"
)

const airportsCSV = `id,ident,type,name,latitude_deg,longitude_deg,iata_code
1,KIAD,large_airport,Washington Dulles International Airport,38.9445,-77.455803,IAD
2,KSFO,large_airport,San Francisco International Airport,37.619806,-122.374821,SFO
3,KBOS,large_airport,"Logan International Airport, Boston",42.3643,-71.005203,BOS
4,00AA,small_airport,Aero B Ranch Airport,38.704022,-101.473911,
5,EGLL,large_airport,London Heathrow Airport,51.4706,-0.461941,LHR
`

const routesCSV = `airline,airline_id,source_airport,source_airport_id,destination_airport,destination_airport_id,codeshare,stops,equipment
UA,1,IAD,1,SFO,2,,0,777
AA,2,IAD,1,SFO,2,Y,0,738
UA,1,IAD,1,BOS,3,,0,320
UA,1,IAD,1,LHR,5,,1,777
UA,1,SFO,2,IAD,1,,0,777
XX,9,SFO,2,NOP,9,,0,320
XX,9,NOP,9,IAD,1,,0,320
BA,3,LHR,5,NOP,9,,0,744
`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestParseAirports(t *testing.T) {
	airports, err := ParseAirports(strings.NewReader(airportsCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"BOS", "IAD", "LHR", "SFO"}, airports.Codes())
	iad := airports["IAD"]
	assert.Equal(t, "IAD", iad.Code)
	assert.Equal(t, "Washington Dulles International Airport", iad.Name)
	assert.InDelta(t, 38.9445, iad.Latitude, 1e-9)
	assert.InDelta(t, -77.455803, iad.Longitude, 1e-9)
	assert.Equal(t, "Logan International Airport, Boston", airports["BOS"].Name)
}

func TestParseAirportsErrors(t *testing.T) {
	_, err := ParseAirports(strings.NewReader("name,iata_code\nX,XXX\n"))
	assert.ErrorContains(t, err, "missing column")

	_, err = ParseAirports(strings.NewReader("iata_code,name,latitude_deg,longitude_deg\nXXX,X,north,1\n"))
	assert.ErrorContains(t, err, "latitude_deg")

	_, err = ParseAirports(strings.NewReader(""))
	assert.Error(t, err)
}

func TestParseRoutes(t *testing.T) {
	airports, err := ParseAirports(strings.NewReader(airportsCSV))
	require.NoError(t, err)

	routes, err := ParseRoutes(strings.NewReader(routesCSV), airports)
	require.NoError(t, err)

	assert.Equal(t, flights.Routes{
		"IAD": {"BOS", "SFO"},
		"SFO": {"IAD"},
	}, routes)
}

func TestOpenWritesAndReadsCaches(t *testing.T) {
	dir := t.TempDir()
	p := Paths{
		AirportsCSV:   writeFile(t, dir, "airports.csv", airportsCSV),
		RoutesCSV:     writeFile(t, dir, "flight_routes.csv", routesCSV),
		AirportsCache: filepath.Join(dir, "cache", "airports.json"),
		RoutesCache:   filepath.Join(dir, "cache", "flight_routes.json"),
	}
	logger := zaptest.NewLogger(t)

	first, err := Open(p, logger)
	require.NoError(t, err)
	assert.FileExists(t, p.AirportsCache)
	assert.FileExists(t, p.RoutesCache)

	// The raw inputs are no longer needed once cached.
	require.NoError(t, os.Remove(p.AirportsCSV))
	require.NoError(t, os.Remove(p.RoutesCSV))

	second, err := Open(p, logger)
	require.NoError(t, err)
	assert.Equal(t, first.Airports(), second.Airports())
	assert.Equal(t, first.Routes(), second.Routes())
	assert.Equal(t, []string{"IAD", "SFO"}, second.Origins())

	iad, ok := second.Airport("IAD")
	require.True(t, ok)
	assert.Equal(t, "IAD", iad.Code)
}

func TestOpenMissingInput(t *testing.T) {
	dir := t.TempDir()
	_, err := Open(Paths{
		AirportsCSV:   filepath.Join(dir, "missing.csv"),
		AirportsCache: filepath.Join(dir, "airports.json"),
	}, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "load airports")
}

func TestCachedRoutesAreRenormalized(t *testing.T) {
	dir := t.TempDir()
	cache := writeFile(t, dir, "routes.json", `{"IAD":["SFO","SFO","NOP"],"NOP":["IAD"],"SFO":[]}`)
	airports := flights.Airports{"IAD": {Code: "IAD"}, "SFO": {Code: "SFO"}}

	routes, err := LoadRoutes("", cache, airports, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, flights.Routes{"IAD": {"SFO"}}, routes)
}

func TestOriginsSkipsAirportsWithoutRoutes(t *testing.T) {
	s := NewStore(
		flights.Airports{"A": {Code: "A"}, "B": {Code: "B"}, "C": {Code: "C"}},
		flights.NewRoutes(map[string][]string{"A": {"B"}, "B": {"C"}}),
	)
	assert.Equal(t, []string{"A", "B"}, s.Origins())
}
