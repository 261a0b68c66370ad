package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func accessPoint(t *testing.T, x, y float64) *ReachPoint {
	t.Helper()
	pt, err := NewReachPoint("2172", &Point{X: x, Y: y, SR: WGS84}, PointTypeAccess, "")
	require.NoError(t, err)
	return pt
}

func TestReachAccessReplaceOnSet(t *testing.T) {
	r := NewReach("2172")

	first := accessPoint(t, -121.48, 45.80)
	require.NoError(t, r.SetPutin(first))
	assert.Same(t, first, r.Putin())
	assert.Equal(t, SubtypePutin, first.Subtype)
	assert.Equal(t, "2172", first.ReachID)

	second := accessPoint(t, -121.49, 45.81)
	require.NoError(t, r.SetPutin(second))
	assert.Same(t, second, r.Putin())
	assert.Len(t, r.Points(), 1, "replaced putin must not linger")
}

func TestReachSetAccessNil(t *testing.T) {
	r := NewReach("2172")
	assert.ErrorIs(t, r.SetPutin(nil), ErrValidation)
	assert.ErrorIs(t, r.SetTakeout(nil), ErrValidation)
	assert.ErrorIs(t, r.AddIntermediateAccess(nil), ErrValidation)
}

func TestReachPointsOrder(t *testing.T) {
	r := NewReach("2172")
	require.NoError(t, r.SetTakeout(accessPoint(t, -121.52, 45.75)))
	require.NoError(t, r.SetPutin(accessPoint(t, -121.48, 45.80)))
	mid := accessPoint(t, -121.50, 45.77)
	require.NoError(t, r.AddIntermediateAccess(mid))

	pts := r.Points()
	require.Len(t, pts, 3)
	assert.Equal(t, SubtypePutin, pts[0].Subtype)
	assert.Equal(t, SubtypeTakeout, pts[1].Subtype)
	assert.Equal(t, SubtypeIntermediate, pts[2].Subtype)
	assert.Equal(t, []*ReachPoint{mid}, r.IntermediateAccesses())
}

func TestReachCentroid(t *testing.T) {
	r := NewReach("2172")
	assert.Nil(t, r.Centroid())

	require.NoError(t, r.SetPutin(accessPoint(t, 0, 0)))
	c := r.Centroid()
	require.NotNil(t, c)
	assert.Equal(t, 0.0, c.X)

	require.NoError(t, r.SetTakeout(accessPoint(t, 2, 4)))
	c = r.Centroid()
	require.NotNil(t, c)
	assert.Equal(t, 1.0, c.X)
	assert.Equal(t, 2.0, c.Y)
	assert.Equal(t, WGS84, c.SR)
}

func TestReachExtent(t *testing.T) {
	r := NewReach("2172")
	_, err := r.Extent()
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, r.SetPutin(accessPoint(t, -121.48, 45.80)))
	require.NoError(t, r.SetTakeout(accessPoint(t, -121.52, 45.75)))

	env, err := r.Extent()
	require.NoError(t, err)
	assert.Equal(t, Envelope{XMin: -121.52, YMin: 45.75, XMax: -121.48, YMax: 45.80}, env)
}

func TestReachSearchString(t *testing.T) {
	r := NewReach("2172")
	assert.Equal(t, "", r.SearchString())

	r.ReachName = "Husum to Northwestern Lake"
	assert.Equal(t, "Husum to Northwestern Lake", r.SearchString())

	r.RiverName = "White Salmon"
	assert.Equal(t, "White Salmon Husum to Northwestern Lake", r.SearchString())

	r.ReachName = ""
	assert.Equal(t, "White Salmon", r.SearchString())
}

func TestReachGaugeMinMax(t *testing.T) {
	r := NewReach("2172")
	assert.Nil(t, r.GaugeMin())
	assert.Nil(t, r.GaugeMax())

	r.GaugeRanges[0] = fp(300)
	r.GaugeRanges[4] = fp(1200)
	r.GaugeRanges[9] = fp(3000)

	require.NotNil(t, r.GaugeMin())
	assert.Equal(t, 300.0, *r.GaugeMin())
	require.NotNil(t, r.GaugeMax())
	assert.Equal(t, 3000.0, *r.GaugeMax())
}

func TestReachGaugeWindowsOverlap(t *testing.T) {
	// r4 and r5 belong to both windows.
	r := NewReach("2172")
	r.GaugeRanges[0] = fp(300)
	r.GaugeRanges[4] = fp(1200)

	require.NotNil(t, r.GaugeMax())
	assert.Equal(t, 1200.0, *r.GaugeMax())

	r = NewReach("2172")
	r.GaugeRanges[5] = fp(900)
	r.GaugeRanges[9] = fp(3000)

	require.NotNil(t, r.GaugeMin())
	assert.Equal(t, 900.0, *r.GaugeMin())

	r.GaugeObservation = fp(1500)
	assert.True(t, r.Runnable())
}

func TestReachRunnable(t *testing.T) {
	r := NewReach("2172")
	assert.False(t, r.Runnable(), "no window defined")

	r.GaugeRanges[0] = fp(300)
	r.GaugeRanges[9] = fp(3000)
	assert.False(t, r.Runnable(), "no observation")

	r.GaugeObservation = fp(850)
	assert.True(t, r.Runnable())

	r.GaugeObservation = fp(300)
	assert.False(t, r.Runnable(), "window bounds are exclusive")

	r.GaugeObservation = fp(3200)
	assert.False(t, r.Runnable())
}

func TestReachMarkExported(t *testing.T) {
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(now))
	defer SetClock(nil)

	r := NewReach("2172")
	r.MarkExported()
	assert.Equal(t, now, r.UpdatedExport)
}
