// Package calibration implements the cyclic timing-error filter: an
// online, self-calibrating correction table that removes systematic,
// sensor-geometry-induced bias from flywheel impulse delta-times.
//
// Each impulse is tagged with a slot (position modulo the number of
// per-rotation sensor events); impulses sharing a slot share one
// multiplicative correction factor. The table is learned in epochs from
// a replay buffer of raw samples against a trusted regression-predicted
// "ideal" delta-time, and validated by comparing how well the corrected
// signal tracks its cumulative trend versus the raw signal.
package calibration

import (
	"github.com/rowsense/rowsense/internal/series"
)

const (
	// absoluteMaxDeviation clamps a single observed correction factor to
	// within 2% of the slot's current learned value, bounding per-sample
	// drift speed.
	absoluteMaxDeviation = 0.02

	// volatilityMargin is how much worse the corrected signal's trend fit
	// may be, relative to the raw signal, before the filter is considered
	// potentially misaligned.
	volatilityMargin = 0.8

	// Misalignment decay bounds: the per-slot accumulators are decayed by
	// a factor mapped linearly between maxDecay (mild misalignment) and
	// minDecay (severe misalignment).
	maxDecay = 0.5
	minDecay = 0.1

	// Per-slot accumulator window bounds derived from the recording
	// buffer capacity.
	minSlotWindow = 15
	maxSlotWindow = 50
)

// CyclicErrorFilter learns, applies and validates a per-slot
// multiplicative correction table for cyclic timing measurements.
//
// The filter is owned by a single goroutine; callers must serialize all
// mutating operations. ApplyFilter is the hot path: it only indexes
// fixed arrays and appends to pre-reserved series.
type CyclicErrorFilter struct {
	maxAllocationCapacity   int
	recordingBufferCapacity int
	numberOfSlots           int
	aggressiveness          float64

	regressionSlope     float64
	regressionIntercept float64
	goodnessOfFit       float64

	filterArray       []*series.WeightedAverage
	filterConfig      []float64
	slotErrorTrackers []slotErrorTracker

	recordedRelativePosition []int
	recordedAbsolutePosition []float64
	recordedRawValue         []float64

	raw            *series.Series
	clean          *series.Series
	rawOlsSeries   *series.OLSLinearSeries
	cleanOlsSeries *series.OLSLinearSeries

	cursor           int
	filterSum        float64
	weightCorrection float64
	dataPointCount   int
}

// NewCyclicErrorFilter creates a filter for numberOfSlots cyclic sensor
// positions. impulseDataLength sizes the observational raw/clean series,
// aggressiveness in [0, 1] scales learning (0 disables it entirely), and
// recordingBufferCapacity bounds each learning epoch and defines the
// stabilization threshold.
func NewCyclicErrorFilter(numberOfSlots, impulseDataLength int, aggressiveness float64, recordingBufferCapacity int) *CyclicErrorFilter {
	return NewCyclicErrorFilterWithCapacity(numberOfSlots, impulseDataLength, aggressiveness, recordingBufferCapacity, series.MaxAllocationCapacity)
}

// NewCyclicErrorFilterWithCapacity creates a filter with an explicit
// allocation ceiling for its internal buffers.
func NewCyclicErrorFilterWithCapacity(numberOfSlots, impulseDataLength int, aggressiveness float64, recordingBufferCapacity, maxAllocationCapacity int) *CyclicErrorFilter {
	if numberOfSlots < 1 {
		numberOfSlots = 1
	}

	f := &CyclicErrorFilter{
		maxAllocationCapacity:   maxAllocationCapacity,
		recordingBufferCapacity: recordingBufferCapacity,
		numberOfSlots:           numberOfSlots,
		aggressiveness:          aggressiveness,

		filterArray:       make([]*series.WeightedAverage, 0, numberOfSlots),
		filterConfig:      make([]float64, 0, numberOfSlots),
		slotErrorTrackers: make([]slotErrorTracker, numberOfSlots),

		recordedRelativePosition: make([]int, 0, recordingBufferCapacity),
		recordedAbsolutePosition: make([]float64, 0, recordingBufferCapacity),
		recordedRawValue:         make([]float64, 0, recordingBufferCapacity),

		raw:            series.NewSeries(impulseDataLength),
		clean:          series.NewSeries(impulseDataLength),
		rawOlsSeries:   series.NewOLSLinearSeriesWithCapacity(0, recordingBufferCapacity, maxAllocationCapacity),
		cleanOlsSeries: series.NewOLSLinearSeriesWithCapacity(0, recordingBufferCapacity, maxAllocationCapacity),

		filterSum:        float64(numberOfSlots),
		weightCorrection: 1,
	}

	slotWindow := slotWindowFor(recordingBufferCapacity)
	for i := 0; i < numberOfSlots; i++ {
		// The synthetic initial buffer equals the window size, so every
		// slot starts at a correction factor of exactly 1 with enough
		// prior weight that early noisy samples move it slowly.
		f.filterArray = append(f.filterArray, series.NewWeightedAverage(slotWindow, float64(slotWindow)))
		f.filterConfig = append(f.filterConfig, 1)
	}

	return f
}

// slotWindowFor bounds the per-slot accumulator window between
// minSlotWindow and maxSlotWindow samples.
func slotWindowFor(recordingBufferCapacity int) int {
	window := recordingBufferCapacity
	if window > maxSlotWindow {
		window = maxSlotWindow
	}
	if window < minSlotWindow {
		window = minSlotWindow
	}
	return window
}

// RawSeries returns the observational series of raw values. The returned
// series is a live read-only view; callers must not push into it.
func (f *CyclicErrorFilter) RawSeries() *series.Series {
	return f.raw
}

// CleanSeries returns the observational series of corrected values.
func (f *CyclicErrorFilter) CleanSeries() *series.Series {
	return f.clean
}

// ApplyFilter multiplies rawValue by the learned correction factor of
// the slot derived from position and records both raw and corrected
// values. No learning happens here; this path is cheap enough to run on
// every sensor event.
func (f *CyclicErrorFilter) ApplyFilter(position int, rawValue float64) float64 {
	clean := rawValue * f.filterConfig[position%f.numberOfSlots] * f.weightCorrection
	f.raw.Push(rawValue)
	f.clean.Push(clean)
	return clean
}

// RecordRawDatapoint buffers a raw sample for the learning path. It is a
// no-op when aggressiveness is 0. Once the filter is stabilized it also
// feeds the raw and corrected cumulative-trend regressors that back the
// misalignment check.
func (f *CyclicErrorFilter) RecordRawDatapoint(relativePosition int, absolutePosition, rawValue float64) {
	if f.aggressiveness == 0 {
		return
	}

	f.recordedRelativePosition = append(f.recordedRelativePosition, relativePosition)
	f.recordedAbsolutePosition = append(f.recordedAbsolutePosition, absolutePosition)
	f.recordedRawValue = append(f.recordedRawValue, rawValue)

	if !f.IsStabilized() {
		return
	}

	cleanValue := rawValue * f.filterConfig[relativePosition%f.numberOfSlots] * f.weightCorrection

	f.rawOlsSeries.Push(f.rawOlsSeries.XAtSeriesEnd()+rawValue, rawValue)
	f.cleanOlsSeries.Push(f.cleanOlsSeries.XAtSeriesEnd()+cleanValue, cleanValue)
}

// ProcessNextRawDatapoint advances the learning cursor by at most one
// buffered sample per call; callers pace invocation. The regression line
// supplied via UpdateRegressionCoefficients predicts the ideal value for
// the sample's absolute position. When the cursor exhausts the buffer the
// epoch ends via Restart, keeping all learned state.
func (f *CyclicErrorFilter) ProcessNextRawDatapoint() {
	if len(f.recordedRawValue) == 0 {
		return
	}
	if f.cursor >= len(f.recordedRawValue) {
		f.Restart()
		return
	}

	ideal := f.regressionSlope*f.recordedAbsolutePosition[f.cursor] + f.regressionIntercept
	f.updateFilter(f.recordedRelativePosition[f.cursor], f.recordedRawValue[f.cursor], ideal)
	f.cursor++
}

// UpdateRegressionCoefficients installs the externally fitted trend line
// used as the learning target, together with its goodness of fit which
// weights how much each processed sample is trusted.
func (f *CyclicErrorFilter) UpdateRegressionCoefficients(slope, intercept, goodnessOfFit float64) {
	f.regressionSlope = slope
	f.regressionIntercept = intercept
	f.goodnessOfFit = goodnessOfFit
}

// IsStabilized reports whether enough samples have been processed for
// the correction table to be considered reasonably converged.
func (f *CyclicErrorFilter) IsStabilized() bool {
	return f.dataPointCount >= f.recordingBufferCapacity
}

// updateFilter is the learning core: it turns one buffered raw sample
// and its regression-predicted ideal value into a bounded, confidence-
// weighted nudge of the slot's learned correction factor.
func (f *CyclicErrorFilter) updateFilter(position int, rawValue, idealValue float64) {
	if rawValue == 0 {
		return
	}

	slot := position % f.numberOfSlots
	correctionFactor := idealValue / rawValue

	minCorrectionFactor := f.filterConfig[slot] * (1.0 - absoluteMaxDeviation)
	maxCorrectionFactor := f.filterConfig[slot] * (1.0 + absoluteMaxDeviation)
	clamped := clamp(correctionFactor, minCorrectionFactor, maxCorrectionFactor)

	weightCorrectedCorrectionFactor := (clamped-1)*f.aggressiveness + 1

	signedDeviation := (clamped - f.filterConfig[slot]) / f.filterConfig[slot]
	f.slotErrorTrackers[slot].push(signedDeviation)

	boost := f.slotErrorTrackers[slot].calculateBoost()
	f.filterArray[slot].Push(weightCorrectedCorrectionFactor, f.goodnessOfFit*boost)

	f.filterSum -= f.filterConfig[slot]
	f.filterConfig[slot] = f.filterArray[slot].Average()
	f.filterSum += f.filterConfig[slot]

	if !f.IsStabilized() {
		f.dataPointCount++
	}

	if f.filterSum != 0 {
		f.weightCorrection = float64(f.numberOfSlots) / f.filterSum
	}
}

// IsPotentiallyMisaligned reports whether applying the learned
// corrections makes the signal fit its cumulative trend worse than
// leaving it raw. When it does, every slot's accumulator is decayed in
// proportion to how badly the corrected fit trails the margin, so the
// filter actively forgets corrections that have turned counter-
// productive (for example after physical sensor alignment drifted).
func (f *CyclicErrorFilter) IsPotentiallyMisaligned() bool {
	if !f.IsStabilized() {
		return false
	}

	rawR2 := f.rawOlsSeries.GoodnessOfFit()
	cleanR2 := f.cleanOlsSeries.GoodnessOfFit()

	threshold := rawR2 * volatilityMargin
	if cleanR2 >= threshold {
		return false
	}

	misalignmentRatio := (threshold - cleanR2) / threshold
	decayFactor := maxDecay - misalignmentRatio*(maxDecay-minDecay)

	for _, accumulator := range f.filterArray {
		accumulator.Decay(decayFactor)
	}

	return true
}

// Restart ends a learning epoch: the replay buffer and the trend
// regressors are cleared while every learned correction factor, slot
// tracker and the stabilization latch survive. A no-op when there is
// nothing to clear.
func (f *CyclicErrorFilter) Restart() {
	if len(f.recordedRawValue) == 0 && f.rawOlsSeries.Size() == 0 {
		return
	}

	capacity := len(f.recordedRelativePosition)
	if capacity > f.maxAllocationCapacity {
		capacity = f.maxAllocationCapacity
	}

	f.recordedRelativePosition = make([]int, 0, capacity)
	f.recordedAbsolutePosition = make([]float64, 0, capacity)
	f.recordedRawValue = make([]float64, 0, capacity)

	f.rawOlsSeries.Reset()
	f.cleanOlsSeries.Reset()
	f.cursor = 0
}

// Reset fully re-initializes the filter as if newly constructed with the
// same parameters.
func (f *CyclicErrorFilter) Reset() {
	f.Restart()
	f.filterSum = float64(f.numberOfSlots)
	f.weightCorrection = 1
	f.dataPointCount = 0
	f.regressionSlope = 0
	f.regressionIntercept = 0
	f.goodnessOfFit = 0
	f.raw.Reset()
	f.clean.Reset()

	for i := 0; i < f.numberOfSlots; i++ {
		f.filterArray[i].Reset()
		f.filterConfig[i] = 1
		f.slotErrorTrackers[i].reset()
	}
}

// CorrectionFactors returns a copy of the current per-slot correction
// table for diagnostics.
func (f *CyclicErrorFilter) CorrectionFactors() []float64 {
	factors := make([]float64, len(f.filterConfig))
	copy(factors, f.filterConfig)
	return factors
}

// WeightCorrection returns the renormalization factor that keeps the
// average applied correction at 1.
func (f *CyclicErrorFilter) WeightCorrection() float64 {
	return f.weightCorrection
}

// NumberOfSlots returns the configured cyclic slot count.
func (f *CyclicErrorFilter) NumberOfSlots() int {
	return f.numberOfSlots
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
