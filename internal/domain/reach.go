package domain

import (
	"fmt"
	"time"
)

// Tracing methods recorded on a resolved reach.
const (
	TracingMethodNone      = ""
	TracingMethodNetwork   = "primary-network"
	TracingMethodHydrology = "fallback-hydrology"
)

// GaugeRangeCount is the number of range boundary slots a reach carries.
const GaugeRangeCount = 10

// Reach is the aggregate for one navigable river segment between a put-in
// and a take-out. It owns its access points; at most one putin and one
// takeout exist at any time, enforced by replace-on-set.
type Reach struct {
	ReachID string `json:"reach_id"`

	RiverName          string  `json:"river_name,omitempty"`
	RiverNameAlternate string  `json:"river_name_alternate,omitempty"`
	ReachName          string  `json:"reach_name,omitempty"`
	ReachNameAlternate string  `json:"reach_name_alternate,omitempty"`
	Abstract           string  `json:"abstract,omitempty"`
	Description        string  `json:"description,omitempty"`
	Agency             string  `json:"agency,omitempty"`
	HUC                string  `json:"huc,omitempty"`
	LengthMiles        float64 `json:"length_miles,omitempty"`

	Difficulty        string `json:"difficulty,omitempty"`
	DifficultyMinimum string `json:"difficulty_minimum,omitempty"`
	DifficultyMaximum string `json:"difficulty_maximum,omitempty"`
	DifficultyOutlier string `json:"difficulty_outlier,omitempty"`

	GaugeID          string                    `json:"gauge_id,omitempty"`
	GaugeUnits       string                    `json:"gauge_units,omitempty"`
	GaugeMetric      string                    `json:"gauge_metric,omitempty"`
	GaugeObservation *float64                  `json:"gauge_observation,omitempty"`
	GaugeRanges      [GaugeRangeCount]*float64 `json:"gauge_ranges"`

	// Resolution outputs. Error=true means Geometry may be nil or partial
	// and Notes explains why; a non-empty TracingMethod implies Geometry is
	// set.
	Geometry      *Polyline `json:"geometry,omitempty"`
	TracingMethod string    `json:"tracing_method,omitempty"`
	Error         bool      `json:"error"`
	Notes         string    `json:"notes,omitempty"`

	ZoomEnvelope  *Polygon  `json:"zoom_envelope,omitempty"`
	UpdatedAW     time.Time `json:"update_aw,omitzero"`
	UpdatedExport time.Time `json:"update_export,omitzero"`

	accesses      map[string]*ReachPoint
	intermediates []*ReachPoint
}

// NewReach creates an empty reach with the given identity.
func NewReach(reachID string) *Reach {
	return &Reach{
		ReachID:  reachID,
		accesses: make(map[string]*ReachPoint, 2),
	}
}

// Putin returns the put-in access point, or nil.
func (r *Reach) Putin() *ReachPoint { return r.accesses[SubtypePutin] }

// Takeout returns the take-out access point, or nil.
func (r *Reach) Takeout() *ReachPoint { return r.accesses[SubtypeTakeout] }

// SetPutin replaces the put-in access point.
func (r *Reach) SetPutin(pt *ReachPoint) error {
	return r.setAccess(pt, SubtypePutin)
}

// SetTakeout replaces the take-out access point.
func (r *Reach) SetTakeout(pt *ReachPoint) error {
	return r.setAccess(pt, SubtypeTakeout)
}

func (r *Reach) setAccess(pt *ReachPoint, subtype string) error {
	if pt == nil {
		return fmt.Errorf("%w: %s access point is nil", ErrValidation, subtype)
	}
	pt.ReachID = r.ReachID
	pt.PointType = PointTypeAccess
	pt.Subtype = subtype
	if r.accesses == nil {
		r.accesses = make(map[string]*ReachPoint, 2)
	}
	r.accesses[subtype] = pt
	return nil
}

// AddIntermediateAccess appends an intermediate access point, preserving
// insertion order.
func (r *Reach) AddIntermediateAccess(pt *ReachPoint) error {
	if pt == nil {
		return fmt.Errorf("%w: intermediate access point is nil", ErrValidation)
	}
	pt.ReachID = r.ReachID
	pt.PointType = PointTypeAccess
	pt.Subtype = SubtypeIntermediate
	r.intermediates = append(r.intermediates, pt)
	return nil
}

// Points returns all reach points: putin, takeout, then intermediates.
func (r *Reach) Points() []*ReachPoint {
	pts := make([]*ReachPoint, 0, 2+len(r.intermediates))
	if pi := r.Putin(); pi != nil {
		pts = append(pts, pi)
	}
	if to := r.Takeout(); to != nil {
		pts = append(pts, to)
	}
	return append(pts, r.intermediates...)
}

// IntermediateAccesses returns the intermediate access points in order.
func (r *Reach) IntermediateAccesses() []*ReachPoint { return r.intermediates }

// Centroid returns a representative point for the reach: the mean of the
// putin and takeout when both exist, either alone otherwise, or nil.
func (r *Reach) Centroid() *Point {
	pi, to := r.Putin(), r.Takeout()
	switch {
	case pi != nil && pi.Geometry != nil && to != nil && to.Geometry != nil:
		return &Point{
			X:  (pi.Geometry.X + to.Geometry.X) / 2,
			Y:  (pi.Geometry.Y + to.Geometry.Y) / 2,
			SR: pi.Geometry.SR,
		}
	case pi != nil && pi.Geometry != nil:
		g := *pi.Geometry
		return &g
	case to != nil && to.Geometry != nil:
		g := *to.Geometry
		return &g
	default:
		return nil
	}
}

// Extent returns the bounding box spanned by the putin and takeout.
func (r *Reach) Extent() (Envelope, error) {
	pi, to := r.Putin(), r.Takeout()
	if pi == nil || pi.Geometry == nil || to == nil || to.Geometry == nil {
		return Envelope{}, fmt.Errorf("%w: extent requires both accesses", ErrValidation)
	}
	return Envelope{
		XMin: min(pi.Geometry.X, to.Geometry.X),
		YMin: min(pi.Geometry.Y, to.Geometry.Y),
		XMax: max(pi.Geometry.X, to.Geometry.X),
		YMax: max(pi.Geometry.Y, to.Geometry.Y),
	}, nil
}

// SearchString combines river and section names for text search.
func (r *Reach) SearchString() string {
	switch {
	case r.RiverName != "" && r.ReachName != "":
		return r.RiverName + " " + r.ReachName
	case r.RiverName != "":
		return r.RiverName
	default:
		return r.ReachName
	}
}

// GaugeMin returns the lowest boundary among slots r0 through r5, or nil.
func (r *Reach) GaugeMin() *float64 {
	vals := distinctSorted(r.GaugeRanges[:6])
	if len(vals) == 0 {
		return nil
	}
	return &vals[0]
}

// GaugeMax returns the highest boundary among slots r4 through r9, or nil.
// The min and max windows overlap at r4 and r5.
func (r *Reach) GaugeMax() *float64 {
	vals := distinctSorted(r.GaugeRanges[4:])
	if len(vals) == 0 {
		return nil
	}
	return &vals[len(vals)-1]
}

// Runnable reports whether the live observation sits strictly inside the
// reach's overall operating window.
func (r *Reach) Runnable() bool {
	lo, hi := r.GaugeMin(), r.GaugeMax()
	if lo == nil || hi == nil || r.GaugeObservation == nil {
		return false
	}
	return *lo < *r.GaugeObservation && *r.GaugeObservation < *hi
}

// Stage bands the live observation against the reach's range boundaries.
// See GaugeStage.
func (r *Reach) Stage() string {
	return GaugeStage(r.GaugeObservation, r.GaugeRanges)
}

// MarkExported stamps the export time from the package clock.
func (r *Reach) MarkExported() {
	r.UpdatedExport = clock.Now()
}
