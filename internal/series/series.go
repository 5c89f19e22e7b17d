// Package series provides the rolling-window containers and robust
// regression primitives used by the flywheel signal-conditioning engine:
// a bounded numeric series, an exponentially-decaying weighted average,
// and OLS / Theil-Sen linear and quadratic regressors.
package series

const (
	// DefaultAllocationCapacity is the initial backing capacity used when
	// no window length is configured.
	DefaultAllocationCapacity = 100

	// MaxAllocationCapacity is the hard ceiling for geometric capacity
	// growth. Beyond it the backing array grows by a fixed increment so an
	// unbounded series degrades gracefully instead of doubling forever.
	MaxAllocationCapacity = 1000

	// capacityGrowthIncrement is the additive growth step once the
	// allocation ceiling has been reached.
	capacityGrowthIncrement = 10
)

// Series is a rolling window of float64 values with a running sum.
// A maxLength of 0 means the window is unbounded: values accumulate up to
// the allocation ceiling and the backing array then grows additively.
//
// The running sum keeps Sum and Average O(1); Median is O(n) via a
// partial order statistic over a copy of the current window.
type Series struct {
	maxLength   int
	maxCapacity int
	sum         float64
	values      []float64
}

// NewSeries creates a rolling series with the default initial capacity
// and allocation ceiling.
func NewSeries(maxLength int) *Series {
	return NewSeriesWithCapacity(maxLength, DefaultAllocationCapacity, MaxAllocationCapacity)
}

// NewSeriesWithCapacity creates a rolling series with explicit initial
// backing capacity and allocation ceiling. The ceiling is clamped to
// MaxAllocationCapacity.
func NewSeriesWithCapacity(maxLength, initialCapacity, maxCapacity int) *Series {
	if initialCapacity <= 0 {
		initialCapacity = DefaultAllocationCapacity
	}
	if maxCapacity <= 0 || maxCapacity > MaxAllocationCapacity {
		maxCapacity = MaxAllocationCapacity
	}

	reserve := initialCapacity
	if maxLength > 0 {
		reserve = maxLength
	}

	return &Series{
		maxLength:   maxLength,
		maxCapacity: maxCapacity,
		values:      make([]float64, 0, reserve),
	}
}

// Push appends a value, evicting the oldest value when the configured
// window length is exceeded.
func (s *Series) Push(value float64) {
	if s.maxLength > 0 && len(s.values) >= s.maxLength {
		s.sum -= s.values[0]
		copy(s.values, s.values[1:])
		s.values = s.values[:len(s.values)-1]
	}

	if len(s.values) == cap(s.values) {
		s.grow()
	}

	s.values = append(s.values, value)
	s.sum += value
}

// grow reallocates the backing array: double while below the ceiling,
// clamp to the ceiling when doubling would overshoot it, then grow by a
// fixed increment once the ceiling has been reached.
func (s *Series) grow() {
	capacity := cap(s.values)
	var newCapacity int
	switch {
	case capacity >= s.maxCapacity:
		newCapacity = capacity + capacityGrowthIncrement
	case capacity*2 > s.maxCapacity:
		newCapacity = s.maxCapacity
	default:
		newCapacity = capacity * 2
	}

	grown := make([]float64, len(s.values), newCapacity)
	copy(grown, s.values)
	s.values = grown
}

// At returns the value at index i (0 = oldest), or 0 when out of range.
func (s *Series) At(i int) float64 {
	if i < 0 || i >= len(s.values) {
		return 0
	}
	return s.values[i]
}

// Front returns the oldest value in the window, or 0 when empty.
func (s *Series) Front() float64 {
	if len(s.values) == 0 {
		return 0
	}
	return s.values[0]
}

// Back returns the newest value in the window, or 0 when empty.
func (s *Series) Back() float64 {
	if len(s.values) == 0 {
		return 0
	}
	return s.values[len(s.values)-1]
}

// Size returns the number of values currently in the window.
func (s *Series) Size() int {
	return len(s.values)
}

// Capacity returns the current backing capacity.
func (s *Series) Capacity() int {
	return cap(s.values)
}

// Sum returns the running sum of the current window.
func (s *Series) Sum() float64 {
	return s.sum
}

// Average returns sum/size, or 0 when empty.
func (s *Series) Average() float64 {
	if len(s.values) == 0 {
		return 0
	}
	return s.sum / float64(len(s.values))
}

// Median returns the lower median for odd window sizes and the average
// of the two central elements for even sizes, or 0 when empty.
func (s *Series) Median() float64 {
	return Median(s.values)
}

// Reset clears the window and running sum but keeps the backing
// allocation and configuration.
func (s *Series) Reset() {
	s.values = s.values[:0]
	s.sum = 0
}

// Median computes the median of values without mutating the input:
// the lower median for odd counts, the average of the two central
// elements for even counts, and 0 for an empty slice.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	scratch := make([]float64, n)
	copy(scratch, values)

	mid := n / 2
	upper := nthElement(scratch, mid)
	if n%2 != 0 {
		return upper
	}

	// Even count: nthElement leaves the lower half left of mid, so the
	// second central element is the maximum of that partition.
	lower := scratch[0]
	for _, v := range scratch[1:mid] {
		if v > lower {
			lower = v
		}
	}
	return (upper + lower) / 2
}

// nthElement partially sorts values so that values[n] holds the element
// that would be at index n in a fully sorted slice, with all smaller
// elements to its left. Returns values[n].
func nthElement(values []float64, n int) float64 {
	left, right := 0, len(values)-1
	for left < right {
		pivot := values[(left+right)/2]
		i, j := left, right
		for i <= j {
			for values[i] < pivot {
				i++
			}
			for values[j] > pivot {
				j--
			}
			if i <= j {
				values[i], values[j] = values[j], values[i]
				i++
				j--
			}
		}
		if n <= j {
			right = j
		} else if n >= i {
			left = i
		} else {
			break
		}
	}
	return values[n]
}
