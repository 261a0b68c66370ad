// Package waters implements the primary hydrography network tracer against
// the EPA WATERS point indexing and navigation services.
package waters

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
	"github.com/couchcryptid/reach-hydroline-service/internal/geo"
	"github.com/couchcryptid/reach-hydroline-service/internal/observability"
)

const (
	// DM navigates downstream along the main channel.
	navigationTypeDownstreamMain = "DM"
	navigationMaxDistanceKm      = 5000
)

// Options configures the WATERS client endpoints and retry budgets.
type Options struct {
	IndexingURL    string
	NavigationURL  string
	SearchRadiusKm float64
	SnapAttempts   int
	TraceAttempts  int
}

// Client resolves access points and downstream hydrolines on the NHD Plus
// network. It implements domain.NetworkTracer.
type Client struct {
	http    *retryhttp.Client
	opts    Options
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New constructs a WATERS client.
func New(httpClient *retryhttp.Client, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		http:    httpClient,
		opts:    opts,
		logger:  logger.With("adapter", "waters"),
		metrics: metrics,
	}
}

type pointIndexingResponse struct {
	Output *struct {
		EndPoint struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"end_point"`
		AryFlowlines []struct {
			FMeasure float64     `json:"fmeasure"`
			ComID    json.Number `json:"comid"`
		} `json:"ary_flowlines"`
	} `json:"output"`
}

type navigationResponse struct {
	Output struct {
		NTNavResultsStandard []struct {
			Shape struct {
				Type        string      `json:"type"`
				Coordinates [][]float64 `json:"coordinates"`
			} `json:"shape"`
		} `json:"ntNavResultsStandard"`
	} `json:"output"`
}

// Snap indexes a raw coordinate onto the nearest hydroline within the search
// radius. A null output means the point is outside NHD coverage and yields
// ErrNotFound.
func (c *Client) Snap(ctx context.Context, x, y float64) (domain.SnapResult, error) {
	start := time.Now()
	defer func() {
		c.metrics.ExternalRequestDuration.WithLabelValues("waters_snap").Observe(time.Since(start).Seconds())
	}()

	query := url.Values{
		"pGeometry":               {fmt.Sprintf("POINT(%v %v)", x, y)},
		"pGeometryMod":            {"WKT,SRSNAME=urn:ogc:def:crs:OGC::CRS84"},
		"pPointIndexingMethod":    {"DISTANCE"},
		"pPointIndexingMaxDist":   {strconv.FormatFloat(c.opts.SearchRadiusKm, 'f', -1, 64)},
		"pOutputPathFlag":         {"TRUE"},
		"pReturnFlowlineGeomFlag": {"FALSE"},
		"optOutCS":                {"SRSNAME=urn:ogc:def:crs:OGC::CRS84"},
		"optOutPrettyPrint":       {"0"},
		"f":                       {"json"},
	}

	var resp pointIndexingResponse
	if err := c.http.GetJSON(ctx, c.opts.IndexingURL, query, c.opts.SnapAttempts, &resp); err != nil {
		c.metrics.TraceAttempts.WithLabelValues("waters_snap", "error").Inc()
		return domain.SnapResult{}, fmt.Errorf("point indexing: %w", err)
	}

	if resp.Output == nil || len(resp.Output.AryFlowlines) == 0 {
		c.metrics.TraceAttempts.WithLabelValues("waters_snap", "not_found").Inc()
		return domain.SnapResult{}, fmt.Errorf("%w: no hydroline within %vkm of (%v %v)",
			domain.ErrNotFound, c.opts.SearchRadiusKm, x, y)
	}
	coords := resp.Output.EndPoint.Coordinates
	if len(coords) < 2 {
		return domain.SnapResult{}, fmt.Errorf("point indexing: malformed end_point coordinates")
	}

	c.metrics.TraceAttempts.WithLabelValues("waters_snap", "ok").Inc()
	return domain.SnapResult{
		Location: domain.Point{X: coords[0], Y: coords[1], SR: domain.WGS84},
		Measure:  resp.Output.AryFlowlines[0].FMeasure,
		EdgeID:   resp.Output.AryFlowlines[0].ComID.String(),
	}, nil
}

// TraceDownstream navigates the main channel downstream from a snapped
// putin and merges the returned flowlines into one continuous hydroline.
// An empty result set is a structural miss and is not retried.
func (c *Client) TraceDownstream(ctx context.Context, edgeID string, measure float64) (*domain.Polyline, error) {
	start := time.Now()
	defer func() {
		c.metrics.ExternalRequestDuration.WithLabelValues("waters_trace").Observe(time.Since(start).Seconds())
	}()

	query := url.Values{
		"pNavigationType":     {navigationTypeDownstreamMain},
		"pStartComID":         {edgeID},
		"pStartMeasure":       {strconv.FormatFloat(measure, 'f', -1, 64)},
		"pMaxDistanceKm":      {strconv.Itoa(navigationMaxDistanceKm)},
		"pReturnFlowlineAttr": {"TRUE"},
		"f":                   {"json"},
	}

	var resp navigationResponse
	if err := c.http.GetJSON(ctx, c.opts.NavigationURL, query, c.opts.TraceAttempts, &resp); err != nil {
		c.metrics.TraceAttempts.WithLabelValues("waters_trace", "error").Inc()
		return nil, fmt.Errorf("downstream navigation: %w", err)
	}

	if len(resp.Output.NTNavResultsStandard) == 0 {
		c.metrics.TraceAttempts.WithLabelValues("waters_trace", "not_found").Inc()
		return nil, fmt.Errorf("%w: downstream navigation from comid %s", domain.ErrNoHydrolineFound, edgeID)
	}

	segments := make([][]domain.Coord, 0, len(resp.Output.NTNavResultsStandard))
	for _, flowline := range resp.Output.NTNavResultsStandard {
		if len(flowline.Shape.Coordinates) < 2 {
			continue
		}
		path := make([]domain.Coord, len(flowline.Shape.Coordinates))
		for i, pair := range flowline.Shape.Coordinates {
			if len(pair) < 2 {
				return nil, fmt.Errorf("downstream navigation: malformed flowline coordinate")
			}
			path[i] = domain.Coord{pair[0], pair[1]}
		}
		segments = append(segments, path)
	}

	merged, err := geo.MergeSegments(segments, domain.WGS84)
	if err != nil {
		c.metrics.TraceAttempts.WithLabelValues("waters_trace", "error").Inc()
		return nil, fmt.Errorf("merge flowlines: %w", err)
	}

	c.logger.Debug("downstream trace merged",
		"comid", edgeID,
		"flowlines", len(segments),
		"vertices", merged.VertexCount(),
	)
	c.metrics.TraceAttempts.WithLabelValues("waters_trace", "ok").Inc()
	return merged, nil
}
