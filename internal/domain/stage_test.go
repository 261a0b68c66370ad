package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fp(v float64) *float64 { return &v }

func slots(vals ...*float64) [10]*float64 {
	var out [10]*float64
	copy(out[:], vals)
	return out
}

func TestGaugeStageNoBoundaries(t *testing.T) {
	assert.Equal(t, "", GaugeStage(fp(100), [10]*float64{}))
}

func TestGaugeStageNoObservation(t *testing.T) {
	assert.Equal(t, StageNoReading, GaugeStage(nil, slots(fp(100), fp(500))))
}

func TestGaugeStageOutOfRange(t *testing.T) {
	ranges := slots(fp(100), fp(500))
	assert.Equal(t, "too low", GaugeStage(fp(50), ranges))
	assert.Equal(t, "too high", GaugeStage(fp(900), ranges))
}

func TestGaugeStageTwoBoundaries(t *testing.T) {
	assert.Equal(t, "runnable", GaugeStage(fp(300), slots(fp(100), fp(500))))
}

func TestGaugeStageSixBoundaries(t *testing.T) {
	ranges := slots(fp(1), fp(3), fp(5), fp(7), fp(9), fp(11))
	assert.Equal(t, "low", GaugeStage(fp(2), ranges))
	assert.Equal(t, "medium low", GaugeStage(fp(4), ranges))
	assert.Equal(t, "medium", GaugeStage(fp(5), ranges), "boundary value classifies upward")
	assert.Equal(t, "medium", GaugeStage(fp(6), ranges))
	assert.Equal(t, "medium high", GaugeStage(fp(8), ranges))
	assert.Equal(t, "high", GaugeStage(fp(10), ranges))
	assert.Equal(t, "high", GaugeStage(fp(11), ranges), "top boundary snaps into the top interval")
}

func TestGaugeStageTenBoundaries(t *testing.T) {
	ranges := slots(fp(1), fp(2), fp(3), fp(4), fp(5), fp(6), fp(7), fp(8), fp(9), fp(10))
	assert.Equal(t, "extremely low", GaugeStage(fp(1.5), ranges))
	assert.Equal(t, "medium", GaugeStage(fp(5.5), ranges))
	assert.Equal(t, "extremely high", GaugeStage(fp(9.5), ranges))
}

func TestGaugeStageOddBoundariesLowBiased(t *testing.T) {
	// Three boundaries in the low half, two in the high half.
	ranges := [10]*float64{}
	ranges[0], ranges[1], ranges[2] = fp(1), fp(3), fp(5)
	ranges[6], ranges[8] = fp(7), fp(9)

	assert.Equal(t, "very low", GaugeStage(fp(2), ranges))
	assert.Equal(t, "medium low", GaugeStage(fp(4), ranges))
	assert.Equal(t, "medium", GaugeStage(fp(6), ranges))
	assert.Equal(t, "high", GaugeStage(fp(8), ranges))
}

func TestGaugeStageOddBoundariesHighBiased(t *testing.T) {
	// Two boundaries in the low half, three in the high half.
	ranges := [10]*float64{}
	ranges[0], ranges[2] = fp(1), fp(3)
	ranges[6], ranges[7], ranges[8] = fp(5), fp(7), fp(9)

	assert.Equal(t, "low", GaugeStage(fp(2), ranges))
	assert.Equal(t, "medium", GaugeStage(fp(4), ranges))
	assert.Equal(t, "medium high", GaugeStage(fp(6), ranges))
	assert.Equal(t, "very high", GaugeStage(fp(8), ranges))
}

func TestGaugeStageSingleBoundary(t *testing.T) {
	// A lone high-water limit admits an exact match only.
	ranges := [10]*float64{}
	ranges[9] = fp(100)
	assert.Equal(t, "runnable", GaugeStage(fp(100), ranges))

	// A lone low-half boundary carries no usable banding.
	ranges = [10]*float64{}
	ranges[0] = fp(100)
	assert.Equal(t, "", GaugeStage(fp(100), ranges))
}

func TestGaugeStageDuplicateBoundariesCollapse(t *testing.T) {
	// Slot 5 repeats the value in slot 4; four distinct boundaries remain.
	ranges := slots(fp(1), fp(3), fp(5), fp(5), fp(7))
	assert.Equal(t, "low", GaugeStage(fp(2), ranges))
	assert.Equal(t, "medium", GaugeStage(fp(4), ranges))
	assert.Equal(t, "high", GaugeStage(fp(6), ranges))
}

func TestDistinctSorted(t *testing.T) {
	out := distinctSorted([]*float64{fp(5), nil, fp(1), fp(5), fp(3)})
	assert.Equal(t, []float64{1, 3, 5}, out)
}
