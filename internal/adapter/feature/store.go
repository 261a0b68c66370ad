package feature

import (
	"context"
	"fmt"

	"github.com/couchcryptid/reach-hydroline-service/internal/domain"
)

// Store coordinates the three reach layers.
type Store struct {
	Lines     *LayerClient
	Centroids *LayerClient
	Points    *LayerClient
}

// NewStore groups the layer clients.
func NewStore(lines, centroids, points *LayerClient) *Store {
	return &Store{Lines: lines, Centroids: centroids, Points: points}
}

// upsert updates the existing row for the reach id or adds a new one. The
// object id fetched up front is stitched into the update row.
func (s *Store) upsert(ctx context.Context, layer *LayerClient, reachID string, row Feature) error {
	ids, err := layer.ObjectIDsByReachID(ctx, reachID)
	if err != nil {
		return err
	}
	if len(ids) > 0 {
		row.Attributes["OBJECTID"] = ids[0]
		return layer.ApplyEdits(ctx, nil, []Feature{row}, nil)
	}
	return layer.ApplyEdits(ctx, []Feature{row}, nil, nil)
}

// publishAccessPoints updates rows that already exist, addressed by reach id,
// point type, and subtype, and adds the rest in one bulk edit.
func (s *Store) publishAccessPoints(ctx context.Context, pts []*domain.ReachPoint) error {
	var adds, updates []Feature
	for _, pt := range pts {
		where := "reach_id = " + quoteLiteral(pt.ReachID) +
			" AND point_type = " + quoteLiteral(pt.PointType) +
			" AND subtype = " + quoteLiteral(pt.Subtype)
		ids, err := s.Points.ObjectIDs(ctx, where)
		if err != nil {
			return fmt.Errorf("%s point: %w", pt.Subtype, err)
		}
		row := PointRow(pt)
		if len(ids) > 0 {
			row.Attributes["OBJECTID"] = ids[0]
			updates = append(updates, row)
			continue
		}
		adds = append(adds, row)
	}
	if len(adds) == 0 && len(updates) == 0 {
		return nil
	}
	return s.Points.ApplyEdits(ctx, adds, updates, nil)
}

// PublishReach writes a resolved reach to all three layers. The centroid and
// access points are always written; the hydroline row is only written when
// resolution succeeded and produced a geometry, so a failed trace never
// clobbers a previously published line.
func (s *Store) PublishReach(ctx context.Context, r *domain.Reach) error {
	if r.Putin() == nil && r.Takeout() == nil {
		return fmt.Errorf("%w: reach %s has no access points to publish", domain.ErrValidation, r.ReachID)
	}

	if !r.Error && r.Geometry != nil && !r.Geometry.IsEmpty() {
		if err := s.upsert(ctx, s.Lines, r.ReachID, LineRow(r)); err != nil {
			return fmt.Errorf("publish reach %s line: %w", r.ReachID, err)
		}
	}

	if err := s.upsert(ctx, s.Centroids, r.ReachID, CentroidRow(r)); err != nil {
		return fmt.Errorf("publish reach %s centroid: %w", r.ReachID, err)
	}

	if err := s.publishAccessPoints(ctx, r.Points()); err != nil {
		return fmt.Errorf("publish reach %s: %w", r.ReachID, err)
	}
	return nil
}

// UpdateStage pushes only the live gauge condition fields to the line and
// centroid layers, leaving geometry and static attributes untouched. A reach
// with no published rows is skipped.
func (s *Store) UpdateStage(ctx context.Context, r *domain.Reach) error {
	stageAttrs := func() map[string]any {
		return map[string]any{
			"gauge_runnable":    boolFlag(r.Runnable()),
			"gauge_stage":       r.Stage(),
			"gauge_observation": floatOrNil(r.GaugeObservation),
		}
	}

	for _, layer := range []*LayerClient{s.Lines, s.Centroids} {
		ids, err := layer.ObjectIDsByReachID(ctx, r.ReachID)
		if err != nil {
			return fmt.Errorf("update stage for reach %s: %w", r.ReachID, err)
		}
		if len(ids) == 0 {
			continue
		}
		attrs := stageAttrs()
		attrs["OBJECTID"] = ids[0]
		if err := layer.ApplyEdits(ctx, nil, []Feature{{Attributes: attrs}}, nil); err != nil {
			return fmt.Errorf("update stage for reach %s: %w", r.ReachID, err)
		}
	}
	return nil
}
