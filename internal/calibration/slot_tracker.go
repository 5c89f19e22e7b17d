package calibration

import (
	"math"

	"github.com/rowsense/rowsense/internal/series"
)

const (
	trackerBufferSize = 5

	// A slot whose recent deviations are persistently one-directional is
	// very likely carrying a real geometric bias rather than noise, so its
	// learning weight is boosted up to maxBoost. The boost saturates once
	// the deviation median reaches medianSaturation.
	medianSaturation = 0.004
	maxBoost         = 5.0
	medianThreshold  = 0.001
	signThreshold    = 1.0
)

// slotErrorTracker is a fixed-size ring of the most recent signed,
// normalized deviations observed for one slot. It drives the confidence
// boost: steady one-directional deviations converge faster, noisy
// sign-alternating ones do not.
type slotErrorTracker struct {
	buffer  [trackerBufferSize]float64
	count   int
	head    int
	signSum int
}

func (t *slotErrorTracker) push(deviation float64) {
	if t.count == trackerBufferSize {
		t.signSum -= sign(t.buffer[t.head])
	}
	t.signSum += sign(deviation)

	t.buffer[t.head] = deviation
	t.head = (t.head + 1) % trackerBufferSize
	if t.count < trackerBufferSize {
		t.count++
	}
}

func (t *slotErrorTracker) median() float64 {
	return series.Median(t.buffer[:t.count])
}

// meanSign returns the average sign of the tracked deviations in -1..+1;
// a magnitude near 1 means the deviations persistently share a sign.
func (t *slotErrorTracker) meanSign() float64 {
	if t.count == 0 {
		return 0
	}
	return float64(t.signSum) / float64(t.count)
}

// calculateBoost returns a learning-weight multiplier in [1, maxBoost].
// It stays exactly 1 until the ring is full and both the deviation median
// and the mean sign clear their thresholds.
func (t *slotErrorTracker) calculateBoost() float64 {
	if t.count < trackerBufferSize ||
		math.Abs(t.median()) < medianThreshold ||
		math.Abs(t.meanSign()) < signThreshold {
		return 1.0
	}

	medianNorm := math.Min(math.Abs(t.median())/medianSaturation, 1.0)
	confidence := medianNorm * math.Abs(t.meanSign())
	return 1.0 + confidence*(maxBoost-1.0)
}

func (t *slotErrorTracker) reset() {
	t.count = 0
	t.head = 0
	t.signSum = 0
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
