package series

import (
	"math"
	"testing"
)

func TestTSLinearSeriesExactLine(t *testing.T) {
	ts := NewTSLinearSeries(10)

	// y = 3x - 2
	for _, x := range []float64{0, 1, 2, 4, 7} {
		ts.Push(x, 3*x-2)
	}

	if got := ts.Median(); math.Abs(got-3) > 1e-9 {
		t.Errorf("Median() = %v, want 3", got)
	}
	if got := ts.CoefficientA(); got != ts.Median() {
		t.Errorf("CoefficientA() = %v, want Median() = %v", got, ts.Median())
	}
	if got := ts.CoefficientB(); math.Abs(got-(-2)) > 1e-9 {
		t.Errorf("CoefficientB() = %v, want -2", got)
	}
}

func TestTSLinearSeriesRobustToOutlier(t *testing.T) {
	ts := NewTSLinearSeries(10)
	ols := NewOLSLinearSeries(10)

	for _, x := range []float64{1, 2, 3, 4, 5, 6} {
		ts.Push(x, x)
		ols.Push(x, x)
	}
	ts.Push(7, 100)
	ols.Push(7, 100)

	// A single wild point must barely move the Theil-Sen slope while the
	// OLS slope is dragged far off.
	if got := ts.Median(); math.Abs(got-1) > 0.5 {
		t.Errorf("Theil-Sen Median() with outlier = %v, want near 1", got)
	}
	if math.Abs(ols.Slope()-1) < math.Abs(ts.Median()-1) {
		t.Error("expected Theil-Sen to be strictly more robust than OLS here")
	}
}

func TestTSLinearSeriesKnownMedian(t *testing.T) {
	ts := NewTSLinearSeries(5)

	// Pairwise slopes of (0,0), (1,2), (2,2), (3,6):
	// 2, 1, 2, 0, 2, 4 -> sorted 0,1,2,2,2,4 -> median 2.
	ts.Push(0, 0)
	ts.Push(1, 2)
	ts.Push(2, 2)
	ts.Push(3, 6)

	if got := ts.Median(); math.Abs(got-2) > 1e-9 {
		t.Errorf("Median() = %v, want 2", got)
	}
}

func TestTSLinearSeriesBelowMinimum(t *testing.T) {
	ts := NewTSLinearSeries(5)

	if ts.Median() != 0 || ts.CoefficientA() != 0 || ts.CoefficientB() != 0 {
		t.Error("empty regressor outputs should all be 0")
	}

	ts.Push(1, 10)

	if ts.Median() != 0 || ts.CoefficientB() != 0 {
		t.Error("single-point regressor outputs should all be 0")
	}
}

func TestTSLinearSeriesAccessors(t *testing.T) {
	ts := NewTSLinearSeries(10)
	ts.Push(1, 100)
	ts.Push(2, 200)
	ts.Push(3, 300)

	if got := ts.XAtSeriesBegin(); got != 1 {
		t.Errorf("XAtSeriesBegin() = %v, want 1", got)
	}
	if got := ts.YAtSeriesBegin(); got != 100 {
		t.Errorf("YAtSeriesBegin() = %v, want 100", got)
	}
	if got := ts.XAtSeriesEnd(); got != 3 {
		t.Errorf("XAtSeriesEnd() = %v, want 3", got)
	}
}

func TestTSLinearSeriesRollingWindow(t *testing.T) {
	ts := NewTSLinearSeries(3)

	ts.Push(1, 10)
	ts.Push(2, 20)
	ts.Push(3, 30)

	if ts.Size() != 3 || ts.XAtSeriesBegin() != 1 || ts.YAtSeriesBegin() != 10 {
		t.Fatalf("pre-roll: size=%d xBegin=%v yBegin=%v", ts.Size(), ts.XAtSeriesBegin(), ts.YAtSeriesBegin())
	}

	ts.Push(4, 40)

	if ts.Size() != 3 || ts.XAtSeriesBegin() != 2 || ts.YAtSeriesBegin() != 20 {
		t.Fatalf("post-roll: size=%d xBegin=%v yBegin=%v", ts.Size(), ts.XAtSeriesBegin(), ts.YAtSeriesBegin())
	}
	if got := ts.XAtSeriesEnd(); got != 4 {
		t.Errorf("XAtSeriesEnd() = %v, want 4", got)
	}

	// Slopes involving the evicted point must be gone: remaining window
	// still lies exactly on y = 10x.
	if got := ts.Median(); math.Abs(got-10) > 1e-9 {
		t.Errorf("Median() after roll = %v, want 10", got)
	}
}

func TestTSLinearSeriesReset(t *testing.T) {
	ts := NewTSLinearSeries(5)
	ts.Push(1, 1)
	ts.Push(2, 3)

	ts.Reset()

	if ts.Size() != 0 || ts.Median() != 0 || ts.CoefficientA() != 0 {
		t.Error("Reset() should clear the series and slopes")
	}

	// Usable again after reset.
	ts.Push(0, 0)
	ts.Push(1, 5)
	if got := ts.Median(); math.Abs(got-5) > 1e-9 {
		t.Errorf("Median() after reset and repopulation = %v, want 5", got)
	}
}

func BenchmarkTSLinearSeriesPush(b *testing.B) {
	ts := NewTSLinearSeries(10)
	for i := 0; i < b.N; i++ {
		ts.Push(float64(i), float64(i)*0.99)
	}
}
