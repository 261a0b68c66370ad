package domain

import "sort"

// StageNoReading is returned when a reach defines ranges but has no live
// gauge observation.
const StageNoReading = "no gauge reading"

// Banding tables keyed by the number of distinct range boundaries. Each row
// labels the successive intervals between the sorted boundaries, low to high.
// Odd boundary counts have two rows: one used when more boundaries sit in the
// low half of the range slots (the reach's data skews toward low-water
// detail), one for the opposite skew.
var (
	stageTables = map[int][]string{
		2:  {"runnable"},
		3:  {"lower runnable", "higher runnable"},
		4:  {"low", "medium", "high"},
		6:  {"low", "medium low", "medium", "medium high", "high"},
		8:  {"very low", "low", "medium low", "medium", "medium high", "high", "very high"},
		10: {"extremely low", "very low", "low", "medium low", "medium", "medium high", "high", "very high", "extremely high"},
	}

	stageTablesLowBiased = map[int][]string{
		5: {"very low", "medium low", "medium", "high"},
		7: {"very low", "low", "medium low", "medium", "medium high", "high"},
		9: {"extremely low", "very low", "low", "medium low", "medium", "medium high", "high", "very high"},
	}

	stageTablesHighBiased = map[int][]string{
		5: {"low", "medium", "medium high", "very high"},
		7: {"low", "medium low", "medium", "medium high", "high", "very high"},
		9: {"very low", "low", "medium low", "medium", "medium high", "high", "very high", "extremely high"},
	}
)

// GaugeStage bands a live gauge observation against up to ten range
// boundaries and returns a stage label. Returns "" when the reach defines no
// boundaries at all, and StageNoReading when boundaries exist but the
// observation is nil.
//
// An observation exactly equal to an interior boundary classifies into the
// interval above it; one equal to the top boundary stays in the top interval
// rather than reading "too high".
func GaugeStage(observation *float64, ranges [10]*float64) string {
	metrics := distinctSorted(ranges[:])
	if len(metrics) == 0 {
		return ""
	}
	if observation == nil {
		return StageNoReading
	}
	obs := *observation

	if obs < metrics[0] {
		return "too low"
	}
	if obs > metrics[len(metrics)-1] {
		return "too high"
	}

	// A single boundary only admits an exact match, and only when the data
	// source filed it as a high-water limit.
	if len(metrics) == 1 {
		if len(distinctSorted(ranges[5:])) > 0 {
			return "runnable"
		}
		return ""
	}

	table := stageTables[len(metrics)]
	if table == nil {
		lowCount := len(distinctSorted(ranges[:6]))
		highCount := len(distinctSorted(ranges[5:]))
		if lowCount >= highCount {
			table = stageTablesLowBiased[len(metrics)]
		} else {
			table = stageTablesHighBiased[len(metrics)]
		}
	}

	// Largest boundary at or below the observation selects the interval;
	// the top boundary snaps down into the last interval.
	idx := sort.SearchFloat64s(metrics, obs)
	if idx == len(metrics) || metrics[idx] > obs {
		idx--
	}
	if idx > len(table)-1 {
		idx = len(table) - 1
	}
	return table[idx]
}

// distinctSorted collects the non-nil values from a boundary slot slice,
// deduplicated and sorted ascending.
func distinctSorted(vals []*float64) []float64 {
	seen := make(map[float64]struct{}, len(vals))
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if v == nil {
			continue
		}
		if _, ok := seen[*v]; ok {
			continue
		}
		seen[*v] = struct{}{}
		out = append(out, *v)
	}
	sort.Float64s(out)
	return out
}
