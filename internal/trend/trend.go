// Package trend fits a straight line to a series and labels its direction.
package trend

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/tabdash/internal/aggregate"
)

// DefaultTolerance is the slope magnitude below which a series is Flat.
const DefaultTolerance = 0.05

// Label is the three-way classification of a slope.
type Label string

const (
	Growing Label = "Growing"
	Falling Label = "Falling"
	Flat    Label = "Flat"
)

// Arrow returns the glyph shown next to the label in tables and captions.
func (l Label) Arrow() string {
	switch l {
	case Growing:
		return "↑"
	case Falling:
		return "↓"
	default:
		return "→"
	}
}

// Fit is the result of Estimate.
type Fit struct {
	// Fitted holds the line evaluated at every input x; NaN means undefined.
	Fitted    []float64
	Slope     float64
	Intercept float64
	Label     Label
}

type options struct {
	tol float64
}

// Option configures Estimate.
type Option func(*options)

// WithTolerance overrides DefaultTolerance. The sign is ignored.
func WithTolerance(tol float64) Option {
	return func(o *options) {
		if !math.IsNaN(tol) {
			o.tol = math.Abs(tol)
		}
	}
}

// Estimate fits y = a + b·x by ordinary least squares and classifies b.
//
// Pairs with a NaN x or y are ignored. With fewer than two usable pairs, or
// when all usable y values are equal within numpy-style allclose tolerances,
// the fit is Flat with slope 0 and every fitted value NaN. Estimate never
// panics, including on mismatched slice lengths (the shorter length wins).
func Estimate(xs, ys []float64, opts ...Option) Fit {
	o := options{tol: DefaultTolerance}
	for _, opt := range opts {
		opt(&o)
	}
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	var px, py []float64
	for i := 0; i < n; i++ {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) || math.IsInf(xs[i], 0) || math.IsInf(ys[i], 0) {
			continue
		}
		px = append(px, xs[i])
		py = append(py, ys[i])
	}
	if len(px) < 2 || allClose(py) || constant(px) {
		return flat(len(xs))
	}
	intercept, slope := stat.LinearRegression(px, py, nil, false)
	if math.IsNaN(slope) || math.IsInf(slope, 0) {
		return flat(len(xs))
	}
	fit := Fit{Slope: slope, Intercept: intercept, Label: classify(slope, o.tol)}
	fit.Fitted = make([]float64, len(xs))
	for i, x := range xs {
		if math.IsNaN(x) {
			fit.Fitted[i] = math.NaN()
			continue
		}
		fit.Fitted[i] = intercept + slope*x
	}
	return fit
}

// EstimateSeries fits an aggregate series, using numeric keys as x when every
// key is a number and positions otherwise.
func EstimateSeries(s aggregate.Series, opts ...Option) Fit {
	return Estimate(s.X(), s.Values(), opts...)
}

func classify(slope, tol float64) Label {
	switch {
	case slope > tol:
		return Growing
	case slope < -tol:
		return Falling
	default:
		return Flat
	}
}

func flat(n int) Fit {
	f := Fit{Label: Flat, Fitted: make([]float64, n)}
	for i := range f.Fitted {
		f.Fitted[i] = math.NaN()
	}
	return f
}

// allClose mirrors numpy.allclose(y, y[0]) with rtol=1e-5 and atol=1e-8.
func allClose(ys []float64) bool {
	ref := ys[0]
	for _, y := range ys[1:] {
		if math.Abs(y-ref) > 1e-8+1e-5*math.Abs(ref) {
			return false
		}
	}
	return true
}

// constant reports a vertical line, which has no finite slope.
func constant(xs []float64) bool {
	for _, x := range xs[1:] {
		if x != xs[0] {
			return false
		}
	}
	return true
}
