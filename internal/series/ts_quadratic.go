package series

// TSQuadraticSeries is a rolling-window robust quadratic fit
// y = a*x^2 + b*x + c used where the curvature of the timing signal
// matters, typically to estimate angular velocity and acceleration from
// cumulative position samples.
//
// The second-order coefficient a is the median of three-point divided
// differences taken over (first, middle, last) triples of the window,
// accumulated per push the same way the Theil-Sen slope accumulates
// pairwise slopes. b is then the median of the pairwise slopes of the
// linear residue y - a*x^2, and c the median of the pointwise residue.
// All outputs are 0 while the window holds fewer than four points.
type TSQuadraticSeries struct {
	maxLength int
	seriesX   *Series
	seriesY   *Series

	// seriesA[k] holds the divided-difference estimates produced when the
	// k-th retained point arrived; evicting the oldest estimates is a
	// single row drop.
	seriesA [][]float64

	a float64
	b float64
	c float64
}

const quadraticMinDataPoints = 4

// NewTSQuadraticSeries creates a robust quadratic regressor whose window
// rolls after maxLength points (0 = unbounded up to the allocation
// ceiling).
func NewTSQuadraticSeries(maxLength int) *TSQuadraticSeries {
	t := &TSQuadraticSeries{
		maxLength: maxLength,
		seriesX:   NewSeries(maxLength),
		seriesY:   NewSeries(maxLength),
	}
	if maxLength > 2 {
		t.seriesA = make([][]float64, 0, maxLength-2)
	}
	return t
}

// Push appends an (x, y) pair and refreshes the fit coefficients.
func (t *TSQuadraticSeries) Push(x, y float64) {
	t.seriesX.Push(x)
	t.seriesY.Push(y)

	if t.maxLength > 2 && len(t.seriesA) >= t.maxLength-2 {
		t.seriesA = t.seriesA[1:]
	}

	size := t.seriesX.Size()
	if size < 3 {
		t.a, t.b, t.c = 0, 0, 0
		return
	}

	// One divided difference per window start, each spanning the new
	// point, the start, and the point midway between them.
	row := make([]float64, 0, size-2)
	for i := 0; i < size-2; i++ {
		mid := i + (size-1-i)/2
		row = append(row, t.dividedDifference(i, mid, size-1))
	}
	t.seriesA = append(t.seriesA, row)

	flat := make([]float64, 0, len(t.seriesA)*len(row))
	for _, r := range t.seriesA {
		flat = append(flat, r...)
	}
	t.a = Median(flat)
	t.b = t.linearResidueSlope()
	t.c = t.residueIntercept()
}

// dividedDifference returns the second-order Newton divided difference
// through the points at indices p1 < p2 < p3, which equals the quadratic
// coefficient of the parabola through them.
func (t *TSQuadraticSeries) dividedDifference(p1, p2, p3 int) float64 {
	x1, y1 := t.seriesX.At(p1), t.seriesY.At(p1)
	x2, y2 := t.seriesX.At(p2), t.seriesY.At(p2)
	x3, y3 := t.seriesX.At(p3), t.seriesY.At(p3)
	if x3 == x1 || x2 == x1 || x3 == x2 {
		return 0
	}
	return ((y3-y1)/(x3-x1) - (y2-y1)/(x2-x1)) / (x3 - x2)
}

// linearResidueSlope estimates b as the Theil-Sen slope of y - a*x^2.
func (t *TSQuadraticSeries) linearResidueSlope() float64 {
	size := t.seriesX.Size()
	slopes := make([]float64, 0, size*(size-1)/2)
	for i := 0; i < size-1; i++ {
		for j := i + 1; j < size; j++ {
			dx := t.seriesX.At(j) - t.seriesX.At(i)
			if dx == 0 {
				continue
			}
			ri := t.seriesY.At(i) - t.a*t.seriesX.At(i)*t.seriesX.At(i)
			rj := t.seriesY.At(j) - t.a*t.seriesX.At(j)*t.seriesX.At(j)
			slopes = append(slopes, (rj-ri)/dx)
		}
	}
	return Median(slopes)
}

// residueIntercept estimates c as the median of y - a*x^2 - b*x.
func (t *TSQuadraticSeries) residueIntercept() float64 {
	size := t.seriesX.Size()
	residues := make([]float64, size)
	for i := 0; i < size; i++ {
		x := t.seriesX.At(i)
		residues[i] = t.seriesY.At(i) - t.a*x*x - t.b*x
	}
	return Median(residues)
}

// Size returns the number of points in the window.
func (t *TSQuadraticSeries) Size() int {
	return t.seriesX.Size()
}

// FirstDerivative returns dy/dx of the fit evaluated at the x value of
// the window position i, 0 below the minimum point count or out of range.
func (t *TSQuadraticSeries) FirstDerivative(i int) float64 {
	if t.Size() < quadraticMinDataPoints || i < 0 || i >= t.Size() {
		return 0
	}
	return 2*t.a*t.seriesX.At(i) + t.b
}

// SecondDerivative returns the constant second derivative of the fit,
// 0 below the minimum point count or out of range.
func (t *TSQuadraticSeries) SecondDerivative(i int) float64 {
	if t.Size() < quadraticMinDataPoints || i < 0 || i >= t.Size() {
		return 0
	}
	return 2 * t.a
}

// GoodnessOfFit returns the R-squared of the quadratic over the window,
// 0 below the minimum point count.
func (t *TSQuadraticSeries) GoodnessOfFit() float64 {
	size := t.Size()
	if size < quadraticMinDataPoints {
		return 0
	}
	mean := t.seriesY.Average()
	var ssRes, ssTot float64
	for i := 0; i < size; i++ {
		x := t.seriesX.At(i)
		fitted := t.a*x*x + t.b*x + t.c
		residual := t.seriesY.At(i) - fitted
		deviation := t.seriesY.At(i) - mean
		ssRes += residual * residual
		ssTot += deviation * deviation
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

// XAtSeriesBegin returns the oldest retained x value.
func (t *TSQuadraticSeries) XAtSeriesBegin() float64 {
	return t.seriesX.Front()
}

// XAtSeriesEnd returns the newest x value.
func (t *TSQuadraticSeries) XAtSeriesEnd() float64 {
	return t.seriesX.Back()
}

// YAtSeriesBegin returns the oldest retained y value.
func (t *TSQuadraticSeries) YAtSeriesBegin() float64 {
	return t.seriesY.Front()
}

// Reset clears the window and all accumulated estimates.
func (t *TSQuadraticSeries) Reset() {
	t.seriesX.Reset()
	t.seriesY.Reset()
	t.seriesA = t.seriesA[:0]
	t.a, t.b, t.c = 0, 0, 0
}
