// Package geo implements the planar geometry operations used by the
// resolution pipeline: snapping points onto hydrolines, splitting and
// trimming lines at a point, merging traced flow edges, and smoothing coarse
// basin traces. All operations work in the coordinate units of their inputs
// (decimal degrees for WGS-84 hydrolines).
package geo

import (
	"fmt"
	"math"

	"github.com/couchcryptid/reach-hydroline-service/internal/domain"
)

// coincidentTol is how close a point must be to a line, in coordinate units,
// to count as lying on it for split operations. 1e-6 degrees is roughly 10cm.
const coincidentTol = 1e-6

// SnapToLine projects a point onto the nearest location along a polyline.
// Both geometries must share a spatial reference.
func SnapToLine(pt domain.Point, line *domain.Polyline) (domain.Point, error) {
	if line.IsEmpty() {
		return domain.Point{}, fmt.Errorf("%w: cannot snap to an empty line", domain.ErrGeometry)
	}
	if pt.SR != line.SR {
		return domain.Point{}, fmt.Errorf("%w: point wkid %d, line wkid %d",
			domain.ErrReferenceMismatch, pt.SR.WKID, line.SR.WKID)
	}

	best := domain.Coord{pt.X, pt.Y}
	bestDist := math.Inf(1)
	for _, path := range line.Paths {
		for i := 0; i+1 < len(path); i++ {
			c := nearestOnSegment(domain.Coord{pt.X, pt.Y}, path[i], path[i+1])
			if d := dist(c, domain.Coord{pt.X, pt.Y}); d < bestDist {
				bestDist = d
				best = c
			}
		}
	}
	return domain.Point{X: best.X(), Y: best.Y(), SR: pt.SR}, nil
}

// SplitAtPoint splits a single-path polyline at a point coincident with (or
// previously snapped onto) the line, returning the upstream and downstream
// parts. The split point becomes the last vertex of the first part and the
// first vertex of the second.
func SplitAtPoint(line *domain.Polyline, pt domain.Point) ([2]*domain.Polyline, error) {
	var out [2]*domain.Polyline
	if line.IsEmpty() || len(line.Paths) != 1 {
		return out, fmt.Errorf("%w: split requires a single continuous path", domain.ErrGeometry)
	}
	if pt.SR != line.SR {
		return out, fmt.Errorf("%w: point wkid %d, line wkid %d",
			domain.ErrReferenceMismatch, pt.SR.WKID, line.SR.WKID)
	}

	path := line.Paths[0]
	target := domain.Coord{pt.X, pt.Y}
	segIdx := -1
	var splitAt domain.Coord
	bestDist := math.Inf(1)
	for i := 0; i+1 < len(path); i++ {
		c := nearestOnSegment(target, path[i], path[i+1])
		if d := dist(c, target); d < bestDist {
			bestDist = d
			splitAt = c
			segIdx = i
		}
	}
	if segIdx < 0 || bestDist > coincidentTol {
		return out, fmt.Errorf("%w: split point does not lie on the line (offset %g)", domain.ErrGeometry, bestDist)
	}

	first := append(append([]domain.Coord{}, path[:segIdx+1]...), splitAt)
	second := append([]domain.Coord{splitAt}, path[segIdx+1:]...)
	out[0] = &domain.Polyline{Paths: [][]domain.Coord{dedupe(first)}, SR: line.SR}
	out[1] = &domain.Polyline{Paths: [][]domain.Coord{dedupe(second)}, SR: line.SR}
	return out, nil
}

// TrimAtPoint returns the portion of the line upstream of the point.
func TrimAtPoint(line *domain.Polyline, pt domain.Point) (*domain.Polyline, error) {
	parts, err := SplitAtPoint(line, pt)
	if err != nil {
		return nil, err
	}
	return parts[0], nil
}

// MergeSegments chains traced flow-edge paths into one continuous path,
// flipping segments whose orientation opposes the chain and dropping
// duplicated joint vertices. Segments are expected in flow order, as the
// tracing services return them.
func MergeSegments(segments [][]domain.Coord, sr domain.SpatialRef) (*domain.Polyline, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: no segments to merge", domain.ErrNoHydrolineFound)
	}

	merged := append([]domain.Coord{}, segments[0]...)
	for _, seg := range segments[1:] {
		if len(seg) == 0 {
			continue
		}
		last := merged[len(merged)-1]
		// Orient the segment so it continues from the chain's end.
		if dist(seg[len(seg)-1], last) < dist(seg[0], last) {
			seg = reversed(seg)
		}
		if dist(seg[0], last) <= coincidentTol {
			seg = seg[1:]
		}
		merged = append(merged, seg...)
	}
	return &domain.Polyline{Paths: [][]domain.Coord{dedupe(merged)}, SR: sr}, nil
}

func nearestOnSegment(p, a, b domain.Coord) domain.Coord {
	dx, dy := b.X()-a.X(), b.Y()-a.Y()
	segLenSq := dx*dx + dy*dy
	if segLenSq == 0 {
		return a
	}
	t := ((p.X()-a.X())*dx + (p.Y()-a.Y())*dy) / segLenSq
	t = math.Max(0, math.Min(1, t))
	return domain.Coord{a.X() + t*dx, a.Y() + t*dy}
}

func dist(a, b domain.Coord) float64 {
	return math.Hypot(a.X()-b.X(), a.Y()-b.Y())
}

func reversed(coords []domain.Coord) []domain.Coord {
	out := make([]domain.Coord, len(coords))
	for i, c := range coords {
		out[len(coords)-1-i] = c
	}
	return out
}

// dedupe removes consecutive vertices closer together than the coincidence
// tolerance, keeping endpoints.
func dedupe(coords []domain.Coord) []domain.Coord {
	if len(coords) < 2 {
		return coords
	}
	out := coords[:1]
	for _, c := range coords[1:] {
		if dist(c, out[len(out)-1]) > coincidentTol {
			out = append(out, c)
		}
	}
	if last := coords[len(coords)-1]; dist(last, out[len(out)-1]) > 0 && len(out) > 1 {
		out[len(out)-1] = last
	}
	return out
}
