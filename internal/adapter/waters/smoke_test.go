//go:build waters

package waters

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/reach-hydroline-service/internal/adapter/retryhttp"
	"github.com/couchcryptid/reach-hydroline-service/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the real EPA WATERS services and need network access.
// Run with: go test -tags=waters ./internal/adapter/waters/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(
		retryhttp.New(30*time.Second, 1, logger),
		Options{
			IndexingURL:    "https://ofmpub.epa.gov/waters10/PointIndexing.Service",
			NavigationURL:  "https://ofmpub.epa.gov/waters10/Navigation.Service",
			SearchRadiusKm: 5,
			SnapAttempts:   3,
			TraceAttempts:  3,
		},
		logger,
		observability.NewMetricsForTesting(),
	)
}

func TestSmoke_Snap(t *testing.T) {
	c := smokeClient(t)

	// White Salmon River near BZ Corner, WA.
	snap, err := c.Snap(context.Background(), -121.4840, 45.7990)
	require.NoError(t, err)

	assert.NotEmpty(t, snap.EdgeID)
	assert.InDelta(t, -121.48, snap.Location.X, 0.05)
	assert.InDelta(t, 45.80, snap.Location.Y, 0.05)
	assert.GreaterOrEqual(t, snap.Measure, 0.0)
	assert.LessOrEqual(t, snap.Measure, 100.0)
}

func TestSmoke_SnapOutsideCoverage(t *testing.T) {
	c := smokeClient(t)

	// Middle of the Pacific, nothing within the search radius.
	_, err := c.Snap(context.Background(), -150.0, 30.0)
	require.Error(t, err)
}

func TestSmoke_TraceDownstream(t *testing.T) {
	c := smokeClient(t)

	snap, err := c.Snap(context.Background(), -121.4840, 45.7990)
	require.NoError(t, err)

	line, err := c.TraceDownstream(context.Background(), snap.EdgeID, snap.Measure)
	require.NoError(t, err)

	require.NotEmpty(t, line.Paths)
	assert.Greater(t, line.VertexCount(), 1)
	assert.Equal(t, 4326, line.SR.WKID)
}
