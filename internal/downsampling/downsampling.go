package downsampling

import (
	"fmt"
	"math"
)

// Mode represents the downsampling mode
type Mode string

const (
	// ModeNone means no downsampling
	ModeNone Mode = "none"
	// ModeAuto automatically determines if downsampling is needed
	ModeAuto Mode = "auto"
	// ModeLTTB uses Largest-Triangle-Three-Buckets algorithm
	ModeLTTB Mode = "lttb"
	// ModeMinMax keeps min and max values per bucket (preserves peaks/spikes)
	ModeMinMax Mode = "minmax"
	// ModeAverage uses average value per bucket
	ModeAverage Mode = "avg"
	// ModeM4 keeps First, Min, Max, Last per bucket (4 points per bucket)
	ModeM4 Mode = "m4"
)

// DefaultAutoThreshold is the default threshold for auto mode
const DefaultAutoThreshold = 1000

// MinLTTBThreshold is the minimum threshold for LTTB algorithm
const MinLTTBThreshold = 100

// ValidModes returns all valid downsampling modes
func ValidModes() []Mode {
	return []Mode{ModeNone, ModeAuto, ModeLTTB, ModeMinMax, ModeAverage, ModeM4}
}

// IsValid checks if a mode string is valid
func IsValid(mode string) bool {
	for _, m := range ValidModes() {
		if string(m) == mode {
			return true
		}
	}
	return false
}

// Point is a single sample of an impulse trace. Time is seconds since
// session start, Value is the inter-impulse interval in seconds.
type Point struct {
	Time  float64
	Value float64
}

// Apply downsamples a trace to at most threshold points.
// The input is assumed to be ordered by time.
func Apply(points []Point, mode Mode, threshold int) ([]Point, error) {
	if threshold <= 0 {
		threshold = DefaultAutoThreshold
	}

	switch mode {
	case ModeNone, "":
		return points, nil

	case ModeAuto:
		if len(points) <= threshold {
			return points, nil
		}
		if threshold < MinLTTBThreshold {
			threshold = MinLTTBThreshold
		}
		return lttb(points, threshold), nil

	case ModeLTTB:
		if threshold < MinLTTBThreshold {
			threshold = MinLTTBThreshold
		}
		return lttb(points, threshold), nil

	case ModeMinMax:
		return minMax(points, threshold), nil

	case ModeAverage:
		return average(points, threshold), nil

	case ModeM4:
		return m4(points, threshold), nil

	default:
		return nil, fmt.Errorf("invalid downsampling mode: %s", mode)
	}
}

// lttb implements Largest-Triangle-Three-Buckets.
// First and last points are always kept.
func lttb(points []Point, threshold int) []Point {
	n := len(points)
	if threshold >= n || threshold < 3 {
		return points
	}

	sampled := make([]Point, 0, threshold)
	sampled = append(sampled, points[0])

	// Bucket size excluding the fixed first and last points
	bucketSize := float64(n-2) / float64(threshold-2)

	prevIndex := 0
	for i := 0; i < threshold-2; i++ {
		bucketStart := int(math.Floor(float64(i)*bucketSize)) + 1
		bucketEnd := int(math.Floor(float64(i+1)*bucketSize)) + 1
		if bucketEnd >= n-1 {
			bucketEnd = n - 1
		}

		// Average of the next bucket forms the third triangle vertex
		nextStart := bucketEnd
		nextEnd := int(math.Floor(float64(i+2)*bucketSize)) + 1
		if nextEnd > n-1 {
			nextEnd = n - 1
		}
		if nextStart >= nextEnd {
			nextStart = n - 1
			nextEnd = n
		}

		var avgTime, avgValue float64
		nextCount := float64(nextEnd - nextStart)
		for j := nextStart; j < nextEnd; j++ {
			avgTime += points[j].Time
			avgValue += points[j].Value
		}
		avgTime /= nextCount
		avgValue /= nextCount

		// Pick the point with the largest triangle area
		prev := points[prevIndex]
		maxArea := -1.0
		maxIndex := bucketStart
		for j := bucketStart; j < bucketEnd; j++ {
			area := math.Abs((prev.Time-avgTime)*(points[j].Value-prev.Value) -
				(prev.Time-points[j].Time)*(avgValue-prev.Value))
			if area > maxArea {
				maxArea = area
				maxIndex = j
			}
		}

		sampled = append(sampled, points[maxIndex])
		prevIndex = maxIndex
	}

	sampled = append(sampled, points[n-1])
	return sampled
}

// minMax keeps the minimum and maximum point of each bucket, in time order.
func minMax(points []Point, threshold int) []Point {
	n := len(points)
	buckets := threshold / 2
	if buckets < 1 || n <= threshold {
		return points
	}

	sampled := make([]Point, 0, threshold)
	bucketSize := float64(n) / float64(buckets)

	for i := 0; i < buckets; i++ {
		start := int(math.Floor(float64(i) * bucketSize))
		end := int(math.Floor(float64(i+1) * bucketSize))
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}

		minIdx, maxIdx := start, start
		for j := start + 1; j < end; j++ {
			if points[j].Value < points[minIdx].Value {
				minIdx = j
			}
			if points[j].Value > points[maxIdx].Value {
				maxIdx = j
			}
		}

		if minIdx == maxIdx {
			sampled = append(sampled, points[minIdx])
		} else if minIdx < maxIdx {
			sampled = append(sampled, points[minIdx], points[maxIdx])
		} else {
			sampled = append(sampled, points[maxIdx], points[minIdx])
		}
	}

	return sampled
}

// average replaces each bucket with its mean time and mean value.
func average(points []Point, threshold int) []Point {
	n := len(points)
	if threshold < 1 || n <= threshold {
		return points
	}

	sampled := make([]Point, 0, threshold)
	bucketSize := float64(n) / float64(threshold)

	for i := 0; i < threshold; i++ {
		start := int(math.Floor(float64(i) * bucketSize))
		end := int(math.Floor(float64(i+1) * bucketSize))
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}

		var sumTime, sumValue float64
		for j := start; j < end; j++ {
			sumTime += points[j].Time
			sumValue += points[j].Value
		}
		count := float64(end - start)
		sampled = append(sampled, Point{Time: sumTime / count, Value: sumValue / count})
	}

	return sampled
}

// m4 keeps first, min, max and last point of each bucket, in time order.
func m4(points []Point, threshold int) []Point {
	n := len(points)
	buckets := threshold / 4
	if buckets < 1 || n <= threshold {
		return points
	}

	sampled := make([]Point, 0, threshold)
	bucketSize := float64(n) / float64(buckets)

	for i := 0; i < buckets; i++ {
		start := int(math.Floor(float64(i) * bucketSize))
		end := int(math.Floor(float64(i+1) * bucketSize))
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}

		minIdx, maxIdx := start, start
		for j := start + 1; j < end; j++ {
			if points[j].Value < points[minIdx].Value {
				minIdx = j
			}
			if points[j].Value > points[maxIdx].Value {
				maxIdx = j
			}
		}

		// Collect first, min, max, last keeping time order without duplicates
		indices := []int{start, minIdx, maxIdx, end - 1}
		ordered := make([]int, 0, 4)
		seen := make(map[int]bool, 4)
		for _, idx := range indices {
			if !seen[idx] {
				seen[idx] = true
				ordered = append(ordered, idx)
			}
		}
		sortInts(ordered)
		for _, idx := range ordered {
			sampled = append(sampled, points[idx])
		}
	}

	return sampled
}

// sortInts sorts a tiny index slice in place (at most 4 elements).
func sortInts(a []int) {
	for i := 1; i < len(a); i++ {
		for j := i; j > 0 && a[j] < a[j-1]; j-- {
			a[j], a[j-1] = a[j-1], a[j]
		}
	}
}
