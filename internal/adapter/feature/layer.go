// Package feature publishes resolved reaches to hosted feature layers over
// the ArcGIS REST API. Three layers are maintained: reach hydrolines, reach
// centroids, and access points, all keyed by reach_id.
package feature

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/couchcryptid/reach-hydroline-service/internal/adapter/retryhttp"
	"github.com/couchcryptid/reach-hydroline-service/internal/observability"
)

// Feature is one row in a layer edit: flat attributes plus an optional Esri
// JSON geometry.
type Feature struct {
	Attributes map[string]any `json:"attributes"`
	Geometry   any            `json:"geometry,omitempty"`
}

// EditResult reports one applyEdits row outcome.
type EditResult struct {
	ObjectID int64 `json:"objectId"`
	Success  bool  `json:"success"`
}

type editsResponse struct {
	AddResults    []EditResult `json:"addResults"`
	UpdateResults []EditResult `json:"updateResults"`
	DeleteResults []EditResult `json:"deleteResults"`
}

// LayerClient talks to one hosted feature layer endpoint.
type LayerClient struct {
	http     *retryhttp.Client
	url      string
	name     string
	attempts int
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewLayerClient constructs a client for one layer URL. The name labels
// metrics and logs: "line", "centroid", or "point".
func NewLayerClient(httpClient *retryhttp.Client, layerURL, name string, attempts int, logger *slog.Logger, metrics *observability.Metrics) *LayerClient {
	return &LayerClient{
		http:     httpClient,
		url:      strings.TrimRight(layerURL, "/"),
		name:     name,
		attempts: attempts,
		logger:   logger.With("adapter", "feature", "layer", name),
		metrics:  metrics,
	}
}

// quoteLiteral wraps a value as a SQL string literal for a where clause,
// doubling any embedded single quotes. Ids come from callers as strings, so
// they cannot be interpolated raw.
func quoteLiteral(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

// ObjectIDs returns the object IDs of rows matching the where clause.
func (l *LayerClient) ObjectIDs(ctx context.Context, where string) ([]int64, error) {
	query := url.Values{
		"where":         {where},
		"returnIdsOnly": {"true"},
		"f":             {"json"},
	}

	var resp struct {
		ObjectIDs []int64 `json:"objectIds"`
	}
	if err := l.http.GetJSON(ctx, l.url+"/query", query, l.attempts, &resp); err != nil {
		return nil, fmt.Errorf("query %s layer ids: %w", l.name, err)
	}
	return resp.ObjectIDs, nil
}

// ObjectIDsByReachID returns the object IDs of rows carrying the reach id.
func (l *LayerClient) ObjectIDsByReachID(ctx context.Context, reachID string) ([]int64, error) {
	return l.ObjectIDs(ctx, "reach_id = "+quoteLiteral(reachID))
}

// QueryByReachID returns the full rows carrying the reach id.
func (l *LayerClient) QueryByReachID(ctx context.Context, reachID string) ([]Feature, error) {
	query := url.Values{
		"where":     {"reach_id = " + quoteLiteral(reachID)},
		"outFields": {"*"},
		"f":         {"json"},
	}

	var resp struct {
		Features []Feature `json:"features"`
	}
	if err := l.http.GetJSON(ctx, l.url+"/query", query, l.attempts, &resp); err != nil {
		return nil, fmt.Errorf("query %s layer: %w", l.name, err)
	}
	return resp.Features, nil
}

// ApplyEdits posts adds, updates, and deletes in one transaction and fails
// if any row edit reports failure.
func (l *LayerClient) ApplyEdits(ctx context.Context, adds, updates []Feature, deletes []int64) error {
	form := url.Values{"f": {"json"}}
	if len(adds) > 0 {
		payload, err := json.Marshal(adds)
		if err != nil {
			return fmt.Errorf("marshal adds: %w", err)
		}
		form.Set("adds", string(payload))
	}
	if len(updates) > 0 {
		payload, err := json.Marshal(updates)
		if err != nil {
			return fmt.Errorf("marshal updates: %w", err)
		}
		form.Set("updates", string(payload))
	}
	if len(deletes) > 0 {
		ids := make([]string, len(deletes))
		for i, id := range deletes {
			ids[i] = strconv.FormatInt(id, 10)
		}
		form.Set("deletes", strings.Join(ids, ","))
	}

	var resp editsResponse
	if err := l.http.PostFormJSON(ctx, l.url+"/applyEdits", form, l.attempts, &resp); err != nil {
		return fmt.Errorf("apply edits to %s layer: %w", l.name, err)
	}

	for _, results := range [][]EditResult{resp.AddResults, resp.UpdateResults, resp.DeleteResults} {
		for _, r := range results {
			if !r.Success {
				return fmt.Errorf("apply edits to %s layer: edit rejected for objectid %d", l.name, r.ObjectID)
			}
		}
	}

	if len(adds) > 0 {
		l.metrics.FeatureEdits.WithLabelValues(l.name, "add").Add(float64(len(adds)))
	}
	if len(updates) > 0 {
		l.metrics.FeatureEdits.WithLabelValues(l.name, "update").Add(float64(len(updates)))
	}
	if len(deletes) > 0 {
		l.metrics.FeatureEdits.WithLabelValues(l.name, "delete").Add(float64(len(deletes)))
	}
	return nil
}

// Flush deletes every row in the layer.
func (l *LayerClient) Flush(ctx context.Context) error {
	ids, err := l.ObjectIDs(ctx, "1=1")
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	return l.ApplyEdits(ctx, nil, nil, ids)
}
