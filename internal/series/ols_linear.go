package series

// OLSLinearSeries is a rolling-window ordinary-least-squares linear
// regression over explicit (x, y) pairs. The window is shared by six
// internal Series holding x, y and their products, so slope, intercept
// and R-squared come straight from running sums in O(1) per query.
//
// All outputs are 0 while the window holds fewer than two points.
type OLSLinearSeries struct {
	seriesX       *Series
	seriesY       *Series
	seriesXX      *Series
	seriesYY      *Series
	seriesXY      *Series
	minDataPoints int
}

// NewOLSLinearSeries creates a regressor whose window rolls after
// maxLength points (0 = unbounded up to the allocation ceiling).
func NewOLSLinearSeries(maxLength int) *OLSLinearSeries {
	return NewOLSLinearSeriesWithCapacity(maxLength, DefaultAllocationCapacity, MaxAllocationCapacity)
}

// NewOLSLinearSeriesWithCapacity creates a regressor with explicit
// backing capacity settings for all internal series.
func NewOLSLinearSeriesWithCapacity(maxLength, initialCapacity, maxCapacity int) *OLSLinearSeries {
	return &OLSLinearSeries{
		seriesX:       NewSeriesWithCapacity(maxLength, initialCapacity, maxCapacity),
		seriesY:       NewSeriesWithCapacity(maxLength, initialCapacity, maxCapacity),
		seriesXX:      NewSeriesWithCapacity(maxLength, initialCapacity, maxCapacity),
		seriesYY:      NewSeriesWithCapacity(maxLength, initialCapacity, maxCapacity),
		seriesXY:      NewSeriesWithCapacity(maxLength, initialCapacity, maxCapacity),
		minDataPoints: 2,
	}
}

// Push appends an (x, y) pair, rolling the window when full.
func (o *OLSLinearSeries) Push(x, y float64) {
	o.seriesX.Push(x)
	o.seriesY.Push(y)
	o.seriesXX.Push(x * x)
	o.seriesYY.Push(y * y)
	o.seriesXY.Push(x * y)
}

// Size returns the number of points in the window.
func (o *OLSLinearSeries) Size() int {
	return o.seriesX.Size()
}

// Slope returns the least-squares slope of the current window.
func (o *OLSLinearSeries) Slope() float64 {
	n := float64(o.Size())
	if o.Size() < o.minDataPoints {
		return 0
	}
	denominator := n*o.seriesXX.Sum() - o.seriesX.Sum()*o.seriesX.Sum()
	if denominator == 0 {
		return 0
	}
	return (n*o.seriesXY.Sum() - o.seriesX.Sum()*o.seriesY.Sum()) / denominator
}

// Intercept returns the least-squares intercept of the current window.
func (o *OLSLinearSeries) Intercept() float64 {
	if o.Size() < o.minDataPoints {
		return 0
	}
	return (o.seriesY.Sum() - o.Slope()*o.seriesX.Sum()) / float64(o.Size())
}

// GoodnessOfFit returns the coefficient of determination (R-squared) of
// the current window, 0 when undefined.
func (o *OLSLinearSeries) GoodnessOfFit() float64 {
	n := float64(o.Size())
	if o.Size() < o.minDataPoints {
		return 0
	}
	covariance := n*o.seriesXY.Sum() - o.seriesX.Sum()*o.seriesY.Sum()
	varianceX := n*o.seriesXX.Sum() - o.seriesX.Sum()*o.seriesX.Sum()
	varianceY := n*o.seriesYY.Sum() - o.seriesY.Sum()*o.seriesY.Sum()
	if varianceX == 0 || varianceY == 0 {
		return 0
	}
	return (covariance * covariance) / (varianceX * varianceY)
}

// XAtSeriesBegin returns the oldest retained x value.
func (o *OLSLinearSeries) XAtSeriesBegin() float64 {
	return o.seriesX.Front()
}

// XAtSeriesEnd returns the newest x value, used by callers extending a
// cumulative axis incrementally.
func (o *OLSLinearSeries) XAtSeriesEnd() float64 {
	return o.seriesX.Back()
}

// YAtSeriesBegin returns the oldest retained y value.
func (o *OLSLinearSeries) YAtSeriesBegin() float64 {
	return o.seriesY.Front()
}

// Reset clears all internal series.
func (o *OLSLinearSeries) Reset() {
	o.seriesX.Reset()
	o.seriesY.Reset()
	o.seriesXX.Reset()
	o.seriesYY.Reset()
	o.seriesXY.Reset()
}
