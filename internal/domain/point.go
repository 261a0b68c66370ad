package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Reach point types and access subtypes.
const (
	PointTypeAccess   = "access"
	PointTypeWaypoint = "waypoint"
	PointTypeGauge    = "gauge"

	SubtypePutin        = "putin"
	SubtypeTakeout      = "takeout"
	SubtypeIntermediate = "intermediate"

	SideLeft  = "left"
	SideRight = "right"
)

// ReachPoint is a single geographic access or waypoint belonging to a reach.
// Snap operations mutate Geometry, NetworkMeasure, and NetworkEdgeID in place.
type ReachPoint struct {
	ReachID   string `json:"reach_id"`
	UID       string `json:"uid"`
	PointType string `json:"point_type"`
	Subtype   string `json:"subtype"`

	Geometry *Point `json:"geometry,omitempty"`

	// Linear reference onto the hydrography network, set by snapping.
	NetworkMeasure *float64 `json:"network_measure,omitempty"`
	NetworkEdgeID  string   `json:"network_edge_id,omitempty"`

	Name             string    `json:"name,omitempty"`
	Notes            string    `json:"notes,omitempty"`
	Description      string    `json:"description,omitempty"`
	Difficulty       string    `json:"difficulty,omitempty"`
	CollectionMethod string    `json:"collection_method,omitempty"`
	UpdateDate       time.Time `json:"update_date,omitzero"`

	sideOfRiver string
}

// NewReachPoint creates a reach point with a fresh UID.
func NewReachPoint(reachID string, geometry *Point, pointType, subtype string) (*ReachPoint, error) {
	switch pointType {
	case PointTypeAccess, PointTypeWaypoint, PointTypeGauge:
	default:
		return nil, fmt.Errorf("%w: point type %q", ErrValidation, pointType)
	}
	return &ReachPoint{
		ReachID:   reachID,
		UID:       uuid.NewString(),
		PointType: pointType,
		Subtype:   subtype,
		Geometry:  geometry,
	}, nil
}

// SideOfRiver returns which bank the point sits on, "left", "right", or empty.
func (p *ReachPoint) SideOfRiver() string { return p.sideOfRiver }

// SetSideOfRiver validates and sets the bank. Empty clears it.
func (p *ReachPoint) SetSideOfRiver(side string) error {
	if side != "" && side != SideLeft && side != SideRight {
		return fmt.Errorf("%w: side of river must be %q or %q, got %q", ErrValidation, SideLeft, SideRight, side)
	}
	p.sideOfRiver = side
	return nil
}

// TypeID returns the composite identity "<reach>_<type>_<subtype>" used to
// address a point row in the feature store.
func (p *ReachPoint) TypeID() string {
	parts := [3]string{p.ReachID, p.PointType, p.Subtype}
	for i, v := range parts {
		if v == "" {
			parts[i] = "null"
		}
	}
	return parts[0] + "_" + parts[1] + "_" + parts[2]
}

// ApplySnap updates the point from a network snap result.
func (p *ReachPoint) ApplySnap(res SnapResult) {
	loc := res.Location
	p.Geometry = &loc
	measure := res.Measure
	p.NetworkMeasure = &measure
	p.NetworkEdgeID = res.EdgeID
}
