package domain

import "context"

// SnapResult is an access point located on the hydrography network.
type SnapResult struct {
	Location Point
	Measure  float64 // linear-referenced position along the matched edge
	EdgeID   string  // opaque identifier of the matched edge
}

// NetworkTracer is the primary, distance-indexed hydrography backend.
type NetworkTracer interface {
	// Snap locates the nearest network edge to a coordinate. Returns
	// ErrNotFound when the point lies outside network coverage.
	Snap(ctx context.Context, x, y float64) (SnapResult, error)

	// TraceDownstream follows the flow path from a measure along an edge and
	// returns the merged hydroline. Returns ErrNoHydrolineFound when the
	// trace yields zero flow edges.
	TraceDownstream(ctx context.Context, edgeID string, measure float64) (*Polyline, error)
}

// BasinTracer is the secondary basin/hydrology backend used as a fallback.
type BasinTracer interface {
	// WatershedSnap relocates a point onto the basin drainage network.
	WatershedSnap(ctx context.Context, pt Point) (Point, error)

	// TraceDownstreamBasin traces the flow path from a point and reports the
	// source data resolution, used to parameterize smoothing of the coarse
	// basin geometry.
	TraceDownstreamBasin(ctx context.Context, pt Point) (*Polyline, float64, error)
}
