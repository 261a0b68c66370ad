// Package aw fetches whitewater reach records from the American Whitewater
// content API and normalizes them into domain reaches. The upstream JSON is
// community-edited: fields switch between numbers, numeric strings, and
// null, text fields carry raw HTML, and some records are empty shells.
package aw

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/reach-hydroline-service/internal/adapter/retryhttp"
	"github.com/couchcryptid/reach-hydroline-service/internal/domain"
	"github.com/couchcryptid/reach-hydroline-service/internal/observability"
)

const (
	detailPathFormat = "/content/River/detail/id/%s/.json"
	editedTimeLayout = "2006-01-02 15:04:05"
	abstractMaxLen   = 500
)

// Options configures the record source endpoint and retry budget.
type Options struct {
	BaseURL       string
	FetchAttempts int
}

// Client fetches and parses reach detail records.
type Client struct {
	http    *retryhttp.Client
	opts    Options
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New constructs an American Whitewater client.
func New(httpClient *retryhttp.Client, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		http:    httpClient,
		opts:    opts,
		logger:  logger.With("adapter", "aw"),
		metrics: metrics,
	}
}

// flexFloat decodes JSON numbers, numeric strings, and null. The pointer is
// nil when the field is absent, null, or empty.
type flexFloat struct {
	value *float64
}

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(strings.Trim(string(b), `"`))
	if s == "null" || s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("numeric field %q: %w", s, err)
	}
	f.value = &v
	return nil
}

// flexString decodes JSON strings, numbers, and null into a plain string.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	raw := string(b)
	if raw == "null" {
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	*s = flexString(raw)
	return nil
}

type detailDocument struct {
	View struct {
		Main struct {
			Info         reachInfo    `json:"info"`
			Gauges       []gaugeInfo  `json:"gauges"`
			GaugeSummary gaugeSummary `json:"guagesummary"`
		} `json:"CRiverMainGadgetJSON_main"`
	} `json:"CContainerViewJSON_view"`
}

type reachInfo struct {
	River       string      `json:"river"`
	Section     string      `json:"section"`
	AltName     string      `json:"altname"`
	HUC         flexString  `json:"huc"`
	Description string      `json:"description"`
	Abstract    string      `json:"abstract"`
	Agency      string      `json:"agency"`
	Length      flexFloat   `json:"length"`
	Class       string      `json:"class"`
	Edited      string      `json:"edited"`
	PutinLon    flexFloat   `json:"plon"`
	PutinLat    flexFloat   `json:"plat"`
	TakeoutLon  flexFloat   `json:"tlon"`
	TakeoutLat  flexFloat   `json:"tlat"`
	BBox        []flexFloat `json:"bbox"`
}

type gaugeInfo struct {
	GaugeID      flexString `json:"gauge_id"`
	DHID         flexString `json:"dhid"`
	MetricUnit   string     `json:"metric_unit"`
	GaugeMetric  flexString `json:"gauge_metric"`
	GaugeReading flexFloat  `json:"gauge_reading"`
}

type gaugeSummary struct {
	Ranges []gaugeRange `json:"ranges"`
}

type gaugeRange struct {
	DHID     flexString `json:"dhid"`
	RangeMin string     `json:"range_min"`
	RangeMax string     `json:"range_max"`
	GaugeMin flexFloat  `json:"gauge_min"`
	GaugeMax flexFloat  `json:"gauge_max"`
}

// FetchReach downloads and parses one reach record. A 500 response or a 200
// with an empty body means the record does not exist and yields ErrNotFound;
// other failures are retried up to the configured budget.
func (c *Client) FetchReach(ctx context.Context, reachID string) (*domain.Reach, error) {
	u := c.opts.BaseURL + fmt.Sprintf(detailPathFormat, reachID)

	retryable := func(status int) bool {
		return status != http.StatusOK && status != http.StatusInternalServerError
	}
	status, body, err := c.http.GetBytes(ctx, u, nil, c.opts.FetchAttempts, retryable)
	if err != nil {
		c.metrics.TraceAttempts.WithLabelValues("aw_fetch", "error").Inc()
		return nil, fmt.Errorf("fetch reach %s: %w", reachID, err)
	}
	if status == http.StatusInternalServerError || len(body) == 0 {
		c.metrics.TraceAttempts.WithLabelValues("aw_fetch", "not_found").Inc()
		return nil, fmt.Errorf("%w: reach %s has no record", domain.ErrNotFound, reachID)
	}

	var doc detailDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		c.metrics.TraceAttempts.WithLabelValues("aw_fetch", "error").Inc()
		return nil, fmt.Errorf("parse reach %s: %w", reachID, err)
	}

	reach, err := c.buildReach(reachID, &doc)
	if err != nil {
		c.metrics.TraceAttempts.WithLabelValues("aw_fetch", "error").Inc()
		return nil, err
	}
	c.metrics.TraceAttempts.WithLabelValues("aw_fetch", "ok").Inc()
	return reach, nil
}

func (c *Client) buildReach(reachID string, doc *detailDocument) (*domain.Reach, error) {
	info := doc.View.Main.Info
	reach := domain.NewReach(reachID)

	reach.RiverName = validText(info.River)
	reach.ReachName = removeBackslashes(validText(info.Section))
	reach.ReachNameAlternate = removeBackslashes(validText(info.AltName))
	reach.HUC = validText(string(info.HUC))
	reach.Description = validText(info.Description)
	reach.Abstract = validText(info.Abstract)
	reach.Agency = validText(info.Agency)
	if info.Length.value != nil {
		reach.LengthMiles = *info.Length.value
	}

	c.applyGauges(reach, doc)

	if info.Edited != "" {
		if edited, err := time.Parse(editedTimeLayout, info.Edited); err == nil {
			reach.UpdatedAW = edited
		} else {
			c.logger.Warn("unparseable edited timestamp", "reach_id", reachID, "edited", info.Edited)
		}
	}

	if info.Class != "" && strings.ToLower(info.Class) != "none" {
		reach.Difficulty = validText(info.Class)
		if d, err := domain.ParseDifficulty(reach.Difficulty); err == nil {
			reach.DifficultyMinimum = d.Minimum
			reach.DifficultyMaximum = d.Maximum
			reach.DifficultyOutlier = d.Outlier
		} else {
			c.logger.Warn("unparseable difficulty grade", "reach_id", reachID, "class", info.Class)
		}
	}

	if info.PutinLon.value != nil && info.PutinLat.value != nil {
		pt, err := domain.NewReachPoint(reachID,
			&domain.Point{X: *info.PutinLon.value, Y: *info.PutinLat.value, SR: domain.WGS84},
			domain.PointTypeAccess, domain.SubtypePutin)
		if err != nil {
			return nil, fmt.Errorf("reach %s putin: %w", reachID, err)
		}
		if err := reach.SetPutin(pt); err != nil {
			return nil, fmt.Errorf("reach %s putin: %w", reachID, err)
		}
	}
	if info.TakeoutLon.value != nil && info.TakeoutLat.value != nil {
		pt, err := domain.NewReachPoint(reachID,
			&domain.Point{X: *info.TakeoutLon.value, Y: *info.TakeoutLat.value, SR: domain.WGS84},
			domain.PointTypeAccess, domain.SubtypeTakeout)
		if err != nil {
			return nil, fmt.Errorf("reach %s takeout: %w", reachID, err)
		}
		if err := reach.SetTakeout(pt); err != nil {
			return nil, fmt.Errorf("reach %s takeout: %w", reachID, err)
		}
	}

	if reach.Abstract == "" && reach.Description != "" {
		reach.Abstract = synthesizeAbstract(info.Description)
	}

	if env, ok := parseBBox(info.BBox); ok {
		reach.ZoomEnvelope = env.Polygon(domain.WGS84)
	}

	return reach, nil
}

// applyGauges picks the reporting gauge, preferring one that reads in cfs
// when several are attached, and fills the range boundary slots from the
// ranges correlated to that gauge.
func (c *Client) applyGauges(reach *domain.Reach, doc *detailDocument) {
	gauges := doc.View.Main.Gauges
	if len(gauges) == 0 {
		return
	}

	selected := gauges[0]
	for _, g := range gauges {
		if g.MetricUnit == "cfs" {
			selected = g
			break
		}
	}

	reach.GaugeID = string(selected.GaugeID)
	reach.GaugeUnits = selected.MetricUnit
	reach.GaugeMetric = string(selected.GaugeMetric)
	reach.GaugeObservation = selected.GaugeReading.value

	for _, rng := range doc.View.Main.GaugeSummary.Ranges {
		if rng.DHID != selected.DHID {
			continue
		}
		if idx, ok := rangeSlot(rng.RangeMin); ok && rng.GaugeMin.value != nil {
			reach.GaugeRanges[idx] = rng.GaugeMin.value
		}
		if idx, ok := rangeSlot(rng.RangeMax); ok && rng.GaugeMax.value != nil {
			reach.GaugeRanges[idx] = rng.GaugeMax.value
		}
	}
}

// rangeSlot maps a range label such as "R3" to its boundary slot index.
func rangeSlot(label string) (int, bool) {
	label = strings.ToLower(strings.TrimSpace(label))
	if !strings.HasPrefix(label, "r") {
		return 0, false
	}
	idx, err := strconv.Atoi(label[1:])
	if err != nil || idx < 0 || idx >= domain.GaugeRangeCount {
		return 0, false
	}
	return idx, true
}

// synthesizeAbstract builds an abstract from the raw description: strip
// markup, trim to 500 characters, and cut back to the last full word.
func synthesizeAbstract(description string) string {
	abstract := cleanupText(description)
	abstract = removeBackslashes(abstract)
	abstract = strings.ReplaceAll(abstract, "/n", "")
	if len(abstract) > abstractMaxLen {
		abstract = abstract[:abstractMaxLen]
	}
	if i := strings.LastIndex(abstract, " "); i > 0 {
		abstract = abstract[:i]
	}
	return abstract + "..."
}

func parseBBox(bbox []flexFloat) (domain.Envelope, bool) {
	if len(bbox) != 4 {
		return domain.Envelope{}, false
	}
	for _, v := range bbox {
		if v.value == nil {
			return domain.Envelope{}, false
		}
	}
	return domain.Envelope{
		XMin: *bbox[0].value,
		YMin: *bbox[1].value,
		XMax: *bbox[2].value,
		YMax: *bbox[3].value,
	}, true
}

func removeBackslashes(s string) string {
	return strings.ReplaceAll(s, `\`, "")
}
