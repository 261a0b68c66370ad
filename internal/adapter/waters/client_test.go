package waters

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/reach-hydroline-service/internal/adapter/retryhttp"
	"github.com/couchcryptid/reach-hydroline-service/internal/domain"
	"github.com/couchcryptid/reach-hydroline-service/internal/observability"
)

func newTestClient(t *testing.T, indexingURL, navigationURL string) *Client {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	return New(
		retryhttp.New(2*time.Second, 0, logger),
		Options{
			IndexingURL:    indexingURL,
			NavigationURL:  navigationURL,
			SearchRadiusKm: 5,
			SnapAttempts:   3,
			TraceAttempts:  3,
		},
		logger,
		observability.NewMetricsForTesting(),
	)
}

const snapBody = `{
	"output": {
		"end_point": {"type": "Point", "coordinates": [-121.5501, 45.7102]},
		"ary_flowlines": [{"comid": 23001218, "fmeasure": 42.5}]
	}
}`

func TestSnapParsesIndexedPoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POINT(-121.55 45.71)", r.URL.Query().Get("pGeometry"))
		assert.Equal(t, "DISTANCE", r.URL.Query().Get("pPointIndexingMethod"))
		assert.Equal(t, "5", r.URL.Query().Get("pPointIndexingMaxDist"))
		w.Write([]byte(snapBody))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, "")
	res, err := c.Snap(context.Background(), -121.55, 45.71)
	require.NoError(t, err)
	assert.InDelta(t, -121.5501, res.Location.X, 1e-9)
	assert.InDelta(t, 45.7102, res.Location.Y, 1e-9)
	assert.Equal(t, 42.5, res.Measure)
	assert.Equal(t, "23001218", res.EdgeID)
	assert.Equal(t, domain.WGS84, res.Location.SR)
}

func TestSnapNullOutputIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"output": null}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, "")
	_, err := c.Snap(context.Background(), -121.55, 60.0)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSnapRetriesUpToBudget(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, "")
	_, err := c.Snap(context.Background(), -121.55, 45.71)
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
	assert.Equal(t, int32(3), calls.Load())
}

const traceBody = `{
	"output": {
		"ntNavResultsStandard": [
			{"shape": {"type": "LineString", "coordinates": [[0, 0], [1, 1], [2, 2]]}},
			{"shape": {"type": "LineString", "coordinates": [[2, 2], [3, 3]]}}
		]
	}
}`

func TestTraceDownstreamMergesFlowlines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "DM", r.URL.Query().Get("pNavigationType"))
		assert.Equal(t, "23001218", r.URL.Query().Get("pStartComID"))
		assert.Equal(t, "42.5", r.URL.Query().Get("pStartMeasure"))
		w.Write([]byte(traceBody))
	}))
	defer srv.Close()

	c := newTestClient(t, "", srv.URL)
	line, err := c.TraceDownstream(context.Background(), "23001218", 42.5)
	require.NoError(t, err)
	require.Len(t, line.Paths, 1)
	assert.Equal(t, []domain.Coord{{0, 0}, {1, 1}, {2, 2}, {3, 3}}, line.Paths[0])
}

func TestTraceDownstreamEmptyResultIsNoHydroline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"output": {"ntNavResultsStandard": []}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, "", srv.URL)
	_, err := c.TraceDownstream(context.Background(), "23001218", 42.5)
	assert.ErrorIs(t, err, domain.ErrNoHydrolineFound)
}
