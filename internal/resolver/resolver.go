// Package resolver turns a reach's raw access coordinates into a trimmed
// hydroline. The primary path snaps the put-in onto the hydrography network
// and navigates downstream; when the reach sits outside network coverage the
// fallback path traces the drainage basin and smooths the coarser result.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/reach-hydroline-service/internal/domain"
	"github.com/couchcryptid/reach-hydroline-service/internal/geo"
	"github.com/couchcryptid/reach-hydroline-service/internal/observability"
)

// State tracks how far a reach has progressed through resolution.
type State string

const (
	StateUnresolved         State = "unresolved"
	StatePutinSnapped       State = "putin_snapped"
	StateTraced             State = "traced"
	StateTrimmedAndSmoothed State = "trimmed_and_smoothed"
	StateResolved           State = "resolved"
	StateFailed             State = "failed"
)

// Failure notes recorded on the reach.
const (
	noteMissingAccesses = "reach does not have both a put-in and a take-out location defined"
	noteNoAccessLocated = "put-in could not be located with either the network or the hydrology service"
	noteNoTrace         = "reach could not be traced with either the network or the hydrology service"
)

// Options bounds the resolution retry loops.
type Options struct {
	// TraceAttempts caps the primary trace-trim cycles before falling back.
	TraceAttempts int
}

// Resolver resolves reaches against a primary network tracer and a fallback
// basin tracer.
type Resolver struct {
	network domain.NetworkTracer
	basin   domain.BasinTracer
	opts    Options
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New constructs a resolver.
func New(network domain.NetworkTracer, basin domain.BasinTracer, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Resolver {
	if opts.TraceAttempts < 1 {
		opts.TraceAttempts = 5
	}
	return &Resolver{
		network: network,
		basin:   basin,
		opts:    opts,
		logger:  logger,
		metrics: metrics,
	}
}

// Resolve traces the reach hydroline in place. Domain failures are recorded
// on the reach as Error plus Notes; the returned error is reserved for
// context cancellation.
func (r *Resolver) Resolve(ctx context.Context, reach *domain.Reach) error {
	start := time.Now()
	defer func() {
		r.metrics.ResolveDuration.Observe(time.Since(start).Seconds())
	}()

	// A re-run starts clean.
	reach.Error = false
	reach.Notes = ""
	reach.TracingMethod = domain.TracingMethodNone
	reach.Geometry = nil

	state := r.resolve(ctx, reach)
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if state == StateResolved {
		r.metrics.ReachesResolved.WithLabelValues("resolved", reach.TracingMethod).Inc()
		r.logger.Info("reach resolved",
			"reach_id", reach.ReachID,
			"tracing_method", reach.TracingMethod,
			"vertices", reach.Geometry.VertexCount(),
		)
	} else {
		reach.Error = true
		r.metrics.ReachesResolved.WithLabelValues("failed", reach.TracingMethod).Inc()
		r.logger.Warn("reach resolution failed",
			"reach_id", reach.ReachID,
			"notes", reach.Notes,
		)
	}
	return nil
}

func (r *Resolver) resolve(ctx context.Context, reach *domain.Reach) State {
	putin, takeout := reach.Putin(), reach.Takeout()
	if putin == nil || putin.Geometry == nil || takeout == nil || takeout.Geometry == nil {
		reach.Notes = noteMissingAccesses
		return StateFailed
	}

	if state := r.resolveNetwork(ctx, reach); state == StateResolved {
		return state
	}
	if ctx.Err() != nil {
		return StateFailed
	}
	return r.resolveBasin(ctx, reach)
}

// resolveNetwork is the primary path: snap the put-in, navigate downstream,
// snap and re-reference the take-out on the traced line, and trim. The full
// cycle is retried because the take-out occasionally re-references onto a
// different flowline than the trace covered.
func (r *Resolver) resolveNetwork(ctx context.Context, reach *domain.Reach) State {
	putin := reach.Putin()

	snap, err := r.network.Snap(ctx, putin.Geometry.X, putin.Geometry.Y)
	if err != nil {
		r.logger.Debug("network put-in snap failed, falling back",
			"reach_id", reach.ReachID, "error", err)
		return StateUnresolved
	}
	putin.ApplySnap(snap)

	for attempt := 1; attempt <= r.opts.TraceAttempts; attempt++ {
		if ctx.Err() != nil {
			return StateFailed
		}

		traced, err := r.network.TraceDownstream(ctx, snap.EdgeID, snap.Measure)
		if err != nil {
			if errors.Is(err, domain.ErrNoHydrolineFound) {
				// Structural miss, retrying will not change it.
				return StateUnresolved
			}
			r.logger.Debug("downstream trace attempt failed",
				"reach_id", reach.ReachID, "attempt", attempt, "error", err)
			continue
		}

		line, ok := r.trimToTakeout(ctx, reach, traced, attempt)
		if !ok {
			continue
		}

		reach.Geometry = line
		reach.TracingMethod = domain.TracingMethodNetwork
		return StateResolved
	}
	return StateUnresolved
}

// trimToTakeout snaps the take-out onto the traced line, re-references it on
// the network for its measure and edge id, and trims the line at the snapped
// location.
func (r *Resolver) trimToTakeout(ctx context.Context, reach *domain.Reach, traced *domain.Polyline, attempt int) (*domain.Polyline, bool) {
	takeout := reach.Takeout()

	onLine, err := geo.SnapToLine(*takeout.Geometry, traced)
	if err != nil {
		r.logger.Debug("take-out line snap failed",
			"reach_id", reach.ReachID, "attempt", attempt, "error", err)
		return nil, false
	}

	ref, err := r.network.Snap(ctx, onLine.X, onLine.Y)
	if err != nil {
		r.logger.Debug("take-out network reference failed",
			"reach_id", reach.ReachID, "attempt", attempt, "error", err)
		return nil, false
	}

	trimmed, err := geo.TrimAtPoint(traced, onLine)
	if err != nil {
		r.logger.Debug("trim at take-out failed",
			"reach_id", reach.ReachID, "attempt", attempt, "error", err)
		return nil, false
	}

	// The take-out keeps the on-line location the trim used; the network
	// measure and edge id ride along for linear referencing.
	takeout.Geometry = &onLine
	measure := ref.Measure
	takeout.NetworkMeasure = &measure
	takeout.NetworkEdgeID = ref.EdgeID
	return trimmed, true
}

// resolveBasin is the fallback path for reaches outside network coverage.
func (r *Resolver) resolveBasin(ctx context.Context, reach *domain.Reach) State {
	putin, takeout := reach.Putin(), reach.Takeout()

	snapped, err := r.basin.WatershedSnap(ctx, *putin.Geometry)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			reach.Notes = noteNoAccessLocated
		} else {
			reach.Notes = fmt.Sprintf("%s: %v", noteNoTrace, err)
		}
		return StateFailed
	}
	putin.Geometry = &snapped

	traced, resolution, err := r.basin.TraceDownstreamBasin(ctx, snapped)
	if err != nil {
		reach.Notes = fmt.Sprintf("%s: %v", noteNoTrace, err)
		return StateFailed
	}

	onLine, err := geo.SnapToLine(*takeout.Geometry, traced)
	if err != nil {
		reach.Notes = fmt.Sprintf("%s: %v", noteNoTrace, err)
		return StateFailed
	}

	merged := traced
	if len(traced.Paths) > 1 {
		if merged, err = geo.MergeSegments(traced.Paths, traced.SR); err != nil {
			reach.Notes = fmt.Sprintf("%s: %v", noteNoTrace, err)
			return StateFailed
		}
	}

	trimmed, err := geo.TrimAtPoint(merged, onLine)
	if err != nil {
		reach.Notes = fmt.Sprintf("%s: %v", noteNoTrace, err)
		return StateFailed
	}
	takeout.Geometry = &onLine

	// Basin traces are jagged at coarse resolutions; smooth anything with
	// enough vertices to fit a spline through.
	if trimmed.VertexCount() > 3 {
		smoothed, err := geo.Smooth(trimmed, resolution*2, geo.DefaultSmoothingFactor, geo.DefaultSplineOrder)
		if err != nil {
			r.logger.Warn("smoothing failed, keeping raw trace",
				"reach_id", reach.ReachID, "error", err)
		} else {
			trimmed = smoothed
		}
	}

	reach.Geometry = trimmed
	reach.TracingMethod = domain.TracingMethodHydrology
	return StateResolved
}
