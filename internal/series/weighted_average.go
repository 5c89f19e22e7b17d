package series

// WeightedAverage is an exponentially-decaying weighted mean. Each Push
// first multiplies both accumulators by a fixed decay factor derived from
// the configured window size (1 - 1/windowSize), so the most recent
// windowSize updates dominate the average.
//
// An optional non-zero initial buffer seeds both accumulators, which
// simulates pre-existing history: the average starts at 1 and new
// observations move it slowly instead of from a cold start.
type WeightedAverage struct {
	weightedSum   float64
	totalWeight   float64
	initialBuffer float64
	decayFactor   float64
}

// NewWeightedAverage creates an accumulator whose effective memory spans
// roughly windowSize updates. A windowSize below 1 is treated as 1, which
// makes the accumulator remember only the latest observation.
func NewWeightedAverage(windowSize int, initialBuffer float64) *WeightedAverage {
	if windowSize < 1 {
		windowSize = 1
	}
	return &WeightedAverage{
		weightedSum:   initialBuffer,
		totalWeight:   initialBuffer,
		initialBuffer: initialBuffer,
		decayFactor:   1.0 - 1.0/float64(windowSize),
	}
}

// Push decays both accumulators and then adds value*weight and weight.
func (w *WeightedAverage) Push(value, weight float64) {
	w.weightedSum = w.weightedSum*w.decayFactor + value*weight
	w.totalWeight = w.totalWeight*w.decayFactor + weight
}

// Decay applies an explicit forgetting step: both accumulators are
// multiplied by factor, so the current average is unchanged but future
// pushes carry proportionally more influence.
func (w *WeightedAverage) Decay(factor float64) {
	w.weightedSum *= factor
	w.totalWeight *= factor
}

// Average returns weightedSum/totalWeight, or 0 when the total weight is
// not positive.
func (w *WeightedAverage) Average() float64 {
	if w.totalWeight <= 0 {
		return 0
	}
	return w.weightedSum / w.totalWeight
}

// Reset restores both accumulators to the initial buffer value.
func (w *WeightedAverage) Reset() {
	w.weightedSum = w.initialBuffer
	w.totalWeight = w.initialBuffer
}
