package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReachPoint(t *testing.T) {
	geom := &Point{X: -121.48, Y: 45.80, SR: WGS84}
	pt, err := NewReachPoint("2172", geom, PointTypeAccess, SubtypePutin)
	require.NoError(t, err)

	assert.Equal(t, "2172", pt.ReachID)
	assert.Same(t, geom, pt.Geometry)
	assert.NotEmpty(t, pt.UID)

	other, err := NewReachPoint("2172", geom, PointTypeAccess, SubtypePutin)
	require.NoError(t, err)
	assert.NotEqual(t, pt.UID, other.UID)
}

func TestNewReachPointInvalidType(t *testing.T) {
	_, err := NewReachPoint("2172", nil, "portage", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestReachPointTypeID(t *testing.T) {
	pt := &ReachPoint{ReachID: "2172", PointType: PointTypeAccess, Subtype: SubtypeTakeout}
	assert.Equal(t, "2172_access_takeout", pt.TypeID())

	empty := &ReachPoint{}
	assert.Equal(t, "null_null_null", empty.TypeID())
}

func TestReachPointSideOfRiver(t *testing.T) {
	pt := &ReachPoint{}
	assert.Empty(t, pt.SideOfRiver())

	require.NoError(t, pt.SetSideOfRiver(SideRight))
	assert.Equal(t, "right", pt.SideOfRiver())

	assert.ErrorIs(t, pt.SetSideOfRiver("upstream"), ErrValidation)
	assert.Equal(t, "right", pt.SideOfRiver(), "invalid side leaves the value unchanged")

	require.NoError(t, pt.SetSideOfRiver(""))
	assert.Empty(t, pt.SideOfRiver())
}

func TestReachPointApplySnap(t *testing.T) {
	pt := &ReachPoint{Geometry: &Point{X: -121.480, Y: 45.799, SR: WGS84}}

	pt.ApplySnap(SnapResult{
		Location: Point{X: -121.484, Y: 45.801, SR: WGS84},
		Measure:  42.5,
		EdgeID:   "23001925",
	})

	assert.Equal(t, -121.484, pt.Geometry.X)
	assert.Equal(t, 45.801, pt.Geometry.Y)
	require.NotNil(t, pt.NetworkMeasure)
	assert.Equal(t, 42.5, *pt.NetworkMeasure)
	assert.Equal(t, "23001925", pt.NetworkEdgeID)
}
