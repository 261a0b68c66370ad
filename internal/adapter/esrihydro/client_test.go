package esrihydro

import (
	"context"
	"encoding/json"
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

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	return New(
		retryhttp.New(2*time.Second, 0, logger),
		Options{BaseURL: baseURL, TraceAttempts: 3},
		logger,
		observability.NewMetricsForTesting(),
	)
}

func TestWatershedSnapReturnsSnappedPoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/Watershed/execute", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "100", r.PostForm.Get("SnapDistance"))
		assert.Equal(t, "Meters", r.PostForm.Get("SnapDistanceUnits"))

		var input struct {
			Features []struct {
				Geometry struct {
					X float64 `json:"x"`
					Y float64 `json:"y"`
				} `json:"geometry"`
			} `json:"features"`
		}
		require.NoError(t, json.Unmarshal([]byte(r.PostForm.Get("InputPoints")), &input))
		require.Len(t, input.Features, 1)
		assert.InDelta(t, -121.55, input.Features[0].Geometry.X, 1e-9)

		w.Write([]byte(`{"snappedPoints": {"features": [{"geometry": {"x": -121.5502, "y": 45.7103}}]}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	pt, err := c.WatershedSnap(context.Background(), domain.Point{X: -121.55, Y: 45.71, SR: domain.WGS84})
	require.NoError(t, err)
	assert.InDelta(t, -121.5502, pt.X, 1e-9)
	assert.InDelta(t, 45.7103, pt.Y, 1e-9)
	assert.Equal(t, domain.WGS84, pt.SR)
}

func TestWatershedSnapEmptyIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"snappedPoints": {"features": []}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.WatershedSnap(context.Background(), domain.Point{X: 0, Y: 0, SR: domain.WGS84})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

const traceBody = `{
	"features": [{
		"geometry": {"paths": [[[0, 0], [0.5, 0.5], [1, 1]]]},
		"attributes": {"DataResolution": 0.0001}
	}]
}`

func TestTraceDownstreamBasinReturnsLineAndResolution(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/TraceDownstream/execute", r.URL.Path)
		w.Write([]byte(traceBody))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	line, resolution, err := c.TraceDownstreamBasin(context.Background(), domain.Point{X: 0, Y: 0, SR: domain.WGS84})
	require.NoError(t, err)
	require.Len(t, line.Paths, 1)
	assert.Equal(t, []domain.Coord{{0, 0}, {0.5, 0.5}, {1, 1}}, line.Paths[0])
	assert.Equal(t, 0.0001, resolution)
}

func TestTraceDownstreamBasinEmptyIsNoHydroline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"features": []}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, _, err := c.TraceDownstreamBasin(context.Background(), domain.Point{X: 0, Y: 0, SR: domain.WGS84})
	assert.ErrorIs(t, err, domain.ErrNoHydrolineFound)
}

func TestTraceDownstreamBasinRetriesTransportFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(traceBody))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	line, _, err := c.TraceDownstreamBasin(context.Background(), domain.Point{X: 0, Y: 0, SR: domain.WGS84})
	require.NoError(t, err)
	assert.Equal(t, 3, line.VertexCount())
	assert.Equal(t, int32(2), calls.Load())
}
