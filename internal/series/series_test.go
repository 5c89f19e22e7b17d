package series

import (
	"math"
	"testing"
)

func TestSeriesPushAndAccessors(t *testing.T) {
	s := NewSeries(5)

	s.Push(1.5)
	s.Push(2.5)
	s.Push(3.5)

	if got := s.At(0); got != 1.5 {
		t.Errorf("At(0) = %v, want 1.5", got)
	}
	if got := s.At(2); got != 3.5 {
		t.Errorf("At(2) = %v, want 3.5", got)
	}
	if got := s.Front(); got != 1.5 {
		t.Errorf("Front() = %v, want 1.5", got)
	}
	if got := s.Back(); got != 3.5 {
		t.Errorf("Back() = %v, want 3.5", got)
	}
	if got := s.Size(); got != 3 {
		t.Errorf("Size() = %v, want 3", got)
	}
}

func TestSeriesEmptyQueries(t *testing.T) {
	s := NewSeries(5)

	if s.Sum() != 0 || s.Average() != 0 || s.Median() != 0 {
		t.Errorf("empty series aggregates = (%v, %v, %v), want all 0", s.Sum(), s.Average(), s.Median())
	}
	if s.Front() != 0 || s.Back() != 0 || s.At(0) != 0 {
		t.Error("empty series accessors should return 0")
	}
}

func TestSeriesSumAndAverage(t *testing.T) {
	s := NewSeries(5)
	s.Push(10)
	s.Push(20)
	s.Push(30)

	if got := s.Sum(); got != 60 {
		t.Errorf("Sum() = %v, want 60", got)
	}
	if got := s.Average(); math.Abs(got-20) > 1e-9 {
		t.Errorf("Average() = %v, want 20", got)
	}
}

func TestSeriesAverageEqualsSumOverSize(t *testing.T) {
	s := NewSeries(4)
	values := []float64{3.25, -1.5, 8.75, 2.0, 9.5, -4.25, 7.0}

	for _, v := range values {
		s.Push(v)
		want := s.Sum() / float64(s.Size())
		if got := s.Average(); math.Abs(got-want) > 1e-12 {
			t.Fatalf("Average() = %v, want Sum()/Size() = %v", got, want)
		}
		if s.Size() > s.Capacity() {
			t.Fatalf("Size() %d exceeds Capacity() %d", s.Size(), s.Capacity())
		}
	}
}

func TestSeriesMedian(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"odd count", []float64{3, 1, 2}, 2},
		{"even count", []float64{4, 1, 3, 2}, 2.5},
		{"single", []float64{7}, 7},
		{"insertion order independent", []float64{9, 2, 7, 4, 5}, 5},
		{"duplicates", []float64{2, 2, 8, 2}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSeries(10)
			for _, v := range tt.values {
				s.Push(v)
			}
			if got := s.Median(); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Median() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSeriesRollingWindow(t *testing.T) {
	s := NewSeries(3)

	s.Push(1)
	s.Push(2)
	s.Push(3)

	if s.Size() != 3 || s.Sum() != 6 || s.Front() != 1 {
		t.Fatalf("pre-roll state: size=%d sum=%v front=%v", s.Size(), s.Sum(), s.Front())
	}

	s.Push(4)

	if s.Size() != 3 || s.Sum() != 9 || s.Front() != 2 || s.Back() != 4 {
		t.Fatalf("after first roll: size=%d sum=%v front=%v back=%v", s.Size(), s.Sum(), s.Front(), s.Back())
	}

	s.Push(5)

	if s.Size() != 3 || s.Sum() != 12 || s.Front() != 3 || s.Back() != 5 {
		t.Fatalf("after second roll: size=%d sum=%v front=%v back=%v", s.Size(), s.Sum(), s.Front(), s.Back())
	}
}

func TestSeriesReset(t *testing.T) {
	s := NewSeries(5)
	s.Push(10)
	s.Push(20)

	capacityBefore := s.Capacity()
	s.Reset()

	if s.Size() != 0 || s.Sum() != 0 || s.Average() != 0 {
		t.Error("Reset() should clear contents and sum")
	}
	if s.Capacity() != capacityBefore {
		t.Errorf("Reset() changed capacity from %d to %d", capacityBefore, s.Capacity())
	}
}

func TestSeriesCapacityGrowth(t *testing.T) {
	t.Run("window length reserves exactly", func(t *testing.T) {
		s := NewSeries(10)
		if got := s.Capacity(); got != 10 {
			t.Errorf("Capacity() = %d, want 10", got)
		}
	})

	t.Run("unbounded starts at default capacity", func(t *testing.T) {
		s := NewSeriesWithCapacity(0, DefaultAllocationCapacity, 500)
		if got := s.Capacity(); got != DefaultAllocationCapacity {
			t.Errorf("Capacity() = %d, want %d", got, DefaultAllocationCapacity)
		}
	})

	t.Run("doubles below the ceiling", func(t *testing.T) {
		s := NewSeriesWithCapacity(0, DefaultAllocationCapacity, 500)
		for i := 0; i <= DefaultAllocationCapacity; i++ {
			s.Push(0.1)
		}
		if got := s.Capacity(); got != DefaultAllocationCapacity*2 {
			t.Errorf("Capacity() = %d, want %d", got, DefaultAllocationCapacity*2)
		}
	})

	t.Run("clamps to the ceiling when doubling overshoots", func(t *testing.T) {
		s := NewSeriesWithCapacity(0, DefaultAllocationCapacity, 500)
		step := DefaultAllocationCapacity
		for step <= 250 {
			step *= 2
		}
		for i := 0; i <= step; i++ {
			s.Push(0.1)
		}
		if got := s.Capacity(); got != 500 {
			t.Errorf("Capacity() = %d, want 500", got)
		}
	})

	t.Run("grows additively beyond the ceiling", func(t *testing.T) {
		s := NewSeriesWithCapacity(0, DefaultAllocationCapacity, 500)
		for i := 0; i <= 500; i++ {
			s.Push(0.1)
		}
		if got := s.Capacity(); got != 510 {
			t.Errorf("Capacity() = %d, want 510", got)
		}
	})

	t.Run("ceiling itself is clamped at 1000", func(t *testing.T) {
		s := NewSeriesWithCapacity(0, DefaultAllocationCapacity, 1200)
		for i := 0; i < 999; i++ {
			s.Push(0.1)
		}
		if got := s.Capacity(); got != 1000 {
			t.Errorf("Capacity() = %d, want 1000", got)
		}
	})
}

func TestMedianHelper(t *testing.T) {
	if got := Median(nil); got != 0 {
		t.Errorf("Median(nil) = %v, want 0", got)
	}

	values := []float64{5, 3, 9, 1}
	if got := Median(values); got != 4 {
		t.Errorf("Median = %v, want 4", got)
	}
	// Input must not be mutated.
	if values[0] != 5 || values[1] != 3 || values[2] != 9 || values[3] != 1 {
		t.Errorf("Median mutated its input: %v", values)
	}
}

func BenchmarkSeriesPush(b *testing.B) {
	s := NewSeries(12)
	for i := 0; i < b.N; i++ {
		s.Push(float64(i))
	}
}

func BenchmarkSeriesMedian(b *testing.B) {
	s := NewSeries(12)
	for i := 0; i < 12; i++ {
		s.Push(float64(i * 37 % 11))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = s.Median()
	}
}
