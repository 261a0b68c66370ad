// Package esrihydro implements the fallback basin tracer against the Esri
// Hydrology analysis services. It is used when a reach cannot be located on
// the NHD Plus network; the traced lines are coarser and get smoothed
// downstream of this adapter.
package esrihydro

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/reach-hydroline-service/internal/adapter/retryhttp"
	"github.com/couchcryptid/reach-hydroline-service/internal/domain"
	"github.com/couchcryptid/reach-hydroline-service/internal/observability"
)

const (
	watershedPath       = "/Watershed/execute"
	traceDownstreamPath = "/TraceDownstream/execute"

	snapDistanceMeters = 100
)

// Options configures the hydrology client endpoint and retry budget.
type Options struct {
	BaseURL       string
	TraceAttempts int
}

// Client implements domain.BasinTracer.
type Client struct {
	http    *retryhttp.Client
	opts    Options
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New constructs a hydrology client.
func New(httpClient *retryhttp.Client, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		http:    httpClient,
		opts:    opts,
		logger:  logger.With("adapter", "esrihydro"),
		metrics: metrics,
	}
}

type esriPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type watershedResponse struct {
	SnappedPoints struct {
		Features []struct {
			Geometry esriPoint `json:"geometry"`
		} `json:"features"`
	} `json:"snappedPoints"`
}

type traceResponse struct {
	Features []struct {
		Geometry struct {
			Paths [][][]float64 `json:"paths"`
		} `json:"geometry"`
		Attributes struct {
			DataResolution json.Number `json:"DataResolution"`
		} `json:"attributes"`
	} `json:"features"`
}

func inputPointJSON(pt domain.Point) string {
	payload, _ := json.Marshal(map[string]any{
		"geometryType": "esriGeometryPoint",
		"spatialReference": map[string]int{
			"wkid": pt.SR.WKID,
		},
		"features": []map[string]any{{
			"geometry": map[string]float64{"x": pt.X, "y": pt.Y},
		}},
	})
	return string(payload)
}

// WatershedSnap locates the nearest drainage line to a raw access point by
// running the watershed task with a 100m snap distance and returning the
// snapped point. An empty snapped point set yields ErrNotFound.
func (c *Client) WatershedSnap(ctx context.Context, pt domain.Point) (domain.Point, error) {
	start := time.Now()
	defer func() {
		c.metrics.ExternalRequestDuration.WithLabelValues("hydro_snap").Observe(time.Since(start).Seconds())
	}()

	form := url.Values{
		"InputPoints":       {inputPointJSON(pt)},
		"SnapDistance":      {strconv.Itoa(snapDistanceMeters)},
		"SnapDistanceUnits": {"Meters"},
		"f":                 {"json"},
	}

	var resp watershedResponse
	if err := c.http.PostFormJSON(ctx, c.opts.BaseURL+watershedPath, form, c.opts.TraceAttempts, &resp); err != nil {
		c.metrics.TraceAttempts.WithLabelValues("hydro_snap", "error").Inc()
		return domain.Point{}, fmt.Errorf("watershed snap: %w", err)
	}

	if len(resp.SnappedPoints.Features) == 0 {
		c.metrics.TraceAttempts.WithLabelValues("hydro_snap", "not_found").Inc()
		return domain.Point{}, fmt.Errorf("%w: watershed found no drainage near (%v %v)",
			domain.ErrNotFound, pt.X, pt.Y)
	}

	c.metrics.TraceAttempts.WithLabelValues("hydro_snap", "ok").Inc()
	snapped := resp.SnappedPoints.Features[0].Geometry
	return domain.Point{X: snapped.X, Y: snapped.Y, SR: pt.SR}, nil
}

// TraceDownstreamBasin traces the drainage path downstream from a snapped
// point and returns the traced line with the source data resolution, which
// callers use to pick a densification interval for smoothing.
func (c *Client) TraceDownstreamBasin(ctx context.Context, pt domain.Point) (*domain.Polyline, float64, error) {
	start := time.Now()
	defer func() {
		c.metrics.ExternalRequestDuration.WithLabelValues("hydro_trace").Observe(time.Since(start).Seconds())
	}()

	form := url.Values{
		"InputPoints": {inputPointJSON(pt)},
		"f":           {"json"},
	}

	var resp traceResponse
	if err := c.http.PostFormJSON(ctx, c.opts.BaseURL+traceDownstreamPath, form, c.opts.TraceAttempts, &resp); err != nil {
		c.metrics.TraceAttempts.WithLabelValues("hydro_trace", "error").Inc()
		return nil, 0, fmt.Errorf("trace downstream: %w", err)
	}

	if len(resp.Features) == 0 || len(resp.Features[0].Geometry.Paths) == 0 {
		c.metrics.TraceAttempts.WithLabelValues("hydro_trace", "not_found").Inc()
		return nil, 0, fmt.Errorf("%w: hydrology trace from (%v %v)", domain.ErrNoHydrolineFound, pt.X, pt.Y)
	}

	feature := resp.Features[0]
	paths := make([][]domain.Coord, 0, len(feature.Geometry.Paths))
	for _, rawPath := range feature.Geometry.Paths {
		path := make([]domain.Coord, len(rawPath))
		for i, pair := range rawPath {
			if len(pair) < 2 {
				return nil, 0, fmt.Errorf("trace downstream: malformed path coordinate")
			}
			path[i] = domain.Coord{pair[0], pair[1]}
		}
		paths = append(paths, path)
	}

	resolution, err := feature.Attributes.DataResolution.Float64()
	if err != nil {
		return nil, 0, fmt.Errorf("trace downstream: parse DataResolution: %w", err)
	}

	c.logger.Debug("basin trace complete",
		"paths", len(paths),
		"data_resolution", resolution,
	)
	c.metrics.TraceAttempts.WithLabelValues("hydro_trace", "ok").Inc()
	return &domain.Polyline{Paths: paths, SR: pt.SR}, resolution, nil
}
