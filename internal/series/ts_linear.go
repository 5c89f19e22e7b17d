package series

// TSLinearSeries is a rolling-window Theil-Sen linear regression: the
// slope is the median of the slopes of every point pair in the window,
// which tolerates a minority of outliers that would drag an OLS fit.
//
// Naming follows the fit y = A*x + B: CoefficientA is the robust slope,
// CoefficientB the robust intercept (median of y - A*x over the window
// rather than a sums-based formula, so a level shift in the data does
// not bias it).
type TSLinearSeries struct {
	maxLength int
	seriesX   *Series
	seriesY   *Series

	// slopes[i] holds the pairwise slopes between retained point i and
	// every later point, so evicting the oldest point is a single row
	// drop and each push appends one slope per retained point.
	slopes [][]float64
}

// NewTSLinearSeries creates a Theil-Sen regressor whose window rolls
// after maxLength points (0 = unbounded up to the allocation ceiling).
func NewTSLinearSeries(maxLength int) *TSLinearSeries {
	t := &TSLinearSeries{
		maxLength: maxLength,
		seriesX:   NewSeries(maxLength),
		seriesY:   NewSeries(maxLength),
	}
	if maxLength > 0 {
		t.slopes = make([][]float64, 0, maxLength)
	}
	return t
}

// Push appends an (x, y) pair, evicting the oldest pair and its slopes
// when the window is full.
func (t *TSLinearSeries) Push(x, y float64) {
	if t.maxLength > 0 && t.seriesX.Size() >= t.maxLength {
		t.slopes = t.slopes[1:]
	}

	for i := range t.slopes {
		dx := x - t.seriesX.At(t.indexOffset()+i)
		if dx != 0 {
			t.slopes[i] = append(t.slopes[i], (y-t.seriesY.At(t.indexOffset()+i))/dx)
		}
	}
	t.slopes = append(t.slopes, nil)

	t.seriesX.Push(x)
	t.seriesY.Push(y)
}

// indexOffset maps slope-row indices onto series indices when the window
// is about to roll: after the row drop in Push the series still holds the
// evicted point until its own Push runs.
func (t *TSLinearSeries) indexOffset() int {
	return t.seriesX.Size() - len(t.slopes)
}

// Size returns the number of points in the window.
func (t *TSLinearSeries) Size() int {
	return t.seriesX.Size()
}

// Median returns the median of all pairwise slopes, 0 below two points.
func (t *TSLinearSeries) Median() float64 {
	if t.Size() < 2 {
		return 0
	}
	flat := make([]float64, 0, t.Size()*(t.Size()-1)/2)
	for _, row := range t.slopes {
		flat = append(flat, row...)
	}
	return Median(flat)
}

// CoefficientA returns the robust slope of the fit y = A*x + B.
func (t *TSLinearSeries) CoefficientA() float64 {
	return t.Median()
}

// CoefficientB returns the robust intercept: the median of y - A*x over
// the window, 0 below two points.
func (t *TSLinearSeries) CoefficientB() float64 {
	if t.Size() < 2 {
		return 0
	}
	a := t.CoefficientA()
	residues := make([]float64, t.Size())
	for i := range residues {
		residues[i] = t.seriesY.At(i) - a*t.seriesX.At(i)
	}
	return Median(residues)
}

// XAtSeriesBegin returns the oldest retained x value.
func (t *TSLinearSeries) XAtSeriesBegin() float64 {
	return t.seriesX.Front()
}

// XAtSeriesEnd returns the newest x value.
func (t *TSLinearSeries) XAtSeriesEnd() float64 {
	return t.seriesX.Back()
}

// YAtSeriesBegin returns the oldest retained y value.
func (t *TSLinearSeries) YAtSeriesBegin() float64 {
	return t.seriesY.Front()
}

// Reset clears the window and all stored pairwise slopes.
func (t *TSLinearSeries) Reset() {
	t.seriesX.Reset()
	t.seriesY.Reset()
	t.slopes = t.slopes[:0]
}
