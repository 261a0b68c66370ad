package feature

import (
	"time"

	"github.com/couchcryptid/reach-hydroline-service/internal/domain"
)

func esriPoint(pt *domain.Point) map[string]any {
	return map[string]any{
		"x":                pt.X,
		"y":                pt.Y,
		"spatialReference": map[string]int{"wkid": pt.SR.WKID},
	}
}

func esriPolyline(line *domain.Polyline) map[string]any {
	return map[string]any{
		"paths":            line.Paths,
		"spatialReference": map[string]int{"wkid": line.SR.WKID},
	}
}

func epochMillis(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UnixMilli()
}

func boolFlag(b bool) int {
	if b {
		return 1
	}
	return 0
}

// reachAttributes builds the shared attribute set carried by both the line
// and centroid layers.
func reachAttributes(r *domain.Reach) map[string]any {
	attrs := map[string]any{
		"reach_id":             r.ReachID,
		"river_name":           r.RiverName,
		"river_name_alternate": r.RiverNameAlternate,
		"reach_name":           r.ReachName,
		"reach_name_alternate": r.ReachNameAlternate,
		"abstract":             r.Abstract,
		"description":          r.Description,
		"agency":               r.Agency,
		"huc":                  r.HUC,
		"length_miles":         r.LengthMiles,
		"difficulty":           r.Difficulty,
		"difficulty_minimum":   r.DifficultyMinimum,
		"difficulty_maximum":   r.DifficultyMaximum,
		"difficulty_outlier":   r.DifficultyOutlier,
		"gauge_id":             r.GaugeID,
		"gauge_units":          r.GaugeUnits,
		"gauge_metric":         r.GaugeMetric,
		"gauge_observation":    floatOrNil(r.GaugeObservation),
		"gauge_min":            floatOrNil(r.GaugeMin()),
		"gauge_max":            floatOrNil(r.GaugeMax()),
		"gauge_runnable":       boolFlag(r.Runnable()),
		"gauge_stage":          r.Stage(),
		"tracing_method":       r.TracingMethod,
		"error":                boolFlag(r.Error),
		"notes":                r.Notes,
		"search_string":        r.SearchString(),
		"update_aw":            epochMillis(r.UpdatedAW),
		"update_export":        epochMillis(r.UpdatedExport),
	}
	for i, v := range r.GaugeRanges {
		attrs[rangeField(i)] = floatOrNil(v)
	}
	if f, err := domain.DifficultyFilter(r.DifficultyMaximum); err == nil {
		attrs["difficulty_filter"] = f
	}
	return attrs
}

var rangeFields = [domain.GaugeRangeCount]string{
	"gauge_r0", "gauge_r1", "gauge_r2", "gauge_r3", "gauge_r4",
	"gauge_r5", "gauge_r6", "gauge_r7", "gauge_r8", "gauge_r9",
}

func rangeField(i int) string { return rangeFields[i] }

func floatOrNil(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

// LineRow builds the hydroline layer row. The geometry is nil when the reach
// has not been traced.
func LineRow(r *domain.Reach) Feature {
	row := Feature{Attributes: reachAttributes(r)}
	if r.Geometry != nil && !r.Geometry.IsEmpty() {
		row.Geometry = esriPolyline(r.Geometry)
	}
	return row
}

// CentroidRow builds the centroid layer row.
func CentroidRow(r *domain.Reach) Feature {
	row := Feature{Attributes: reachAttributes(r)}
	if c := r.Centroid(); c != nil {
		row.Geometry = esriPoint(c)
	}
	return row
}

// PointRow builds an access point layer row.
func PointRow(pt *domain.ReachPoint) Feature {
	attrs := map[string]any{
		"reach_id":         pt.ReachID,
		"uid":              pt.UID,
		"point_type":       pt.PointType,
		"subtype":          pt.Subtype,
		"name":             pt.Name,
		"description":      pt.Description,
		"side_of_river":    pt.SideOfRiver(),
		"nhdplus_measure":  floatOrNil(pt.NetworkMeasure),
		"nhdplus_reach_id": pt.NetworkEdgeID,
		"type_id":          pt.TypeID(),
		"update_date":      epochMillis(pt.UpdateDate),
	}
	row := Feature{Attributes: attrs}
	if pt.Geometry != nil {
		row.Geometry = esriPoint(pt.Geometry)
	}
	return row
}
