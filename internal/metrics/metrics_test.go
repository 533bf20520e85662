package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCollectorSetsRunGauges(t *testing.T) {
	c := NewCollector(10000, 36525, 8)
	assert.Equal(t, 10000.0, testutil.ToFloat64(c.Trials))
	assert.Equal(t, 36525.0, testutil.ToFloat64(c.MaxHops))
	assert.Equal(t, 8.0, testutil.ToFloat64(c.Workers))

	c.Walks.WithLabelValues("dead_end").Add(3)
	n, err := testutil.GatherAndCount(c.Registry(), "randomflight_walks_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestHandlerServesMetrics(t *testing.T) {
	c := NewCollector(1, 1, 1)
	c.AirportsProcessed.Inc()

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "randomflight_airports_processed_total 1")
}
