package projection

import (
	"errors"
	"fmt"
	"math"

	"trendcharts/internal/series"
)

var (
	ErrTooFewPoints     = errors.New("exponential fit needs at least 2 valid points")
	ErrNonPositiveValue = errors.New("exponential fit needs positive values")
	ErrDegenerateFit    = errors.New("exponential fit is degenerate")
)

// FitMethod selects how the exponential model is estimated.
type FitMethod int

const (
	// LogLinear is ordinary least squares on ln(value).
	LogLinear FitMethod = iota
	// Nonlinear refines the log-linear estimate with Gauss-Newton on raw residuals.
	Nonlinear
)

func (m FitMethod) String() string {
	switch m {
	case LogLinear:
		return "log-linear"
	case Nonlinear:
		return "nonlinear"
	default:
		return fmt.Sprintf("FitMethod(%d)", int(m))
	}
}

type fitConfig struct {
	method  FitMethod
	maxIter int
}

type FitOption func(*fitConfig)

func WithMethod(m FitMethod) FitOption {
	return func(c *fitConfig) { c.method = m }
}

func WithMaxIterations(n int) FitOption {
	return func(c *fitConfig) {
		if n > 0 {
			c.maxIter = n
		}
	}
}

// ExpFit is value = A * exp(B * (period - Origin)).
type ExpFit struct {
	Origin     int
	A          float64
	B          float64
	RSquared   float64
	Method     FitMethod
	Iterations int
}

// Eval evaluates the fitted curve at period.
func (f ExpFit) Eval(period int) float64 {
	return f.A * math.Exp(f.B*float64(period-f.Origin))
}

// CAGR is the per-period growth rate implied by B.
func (f ExpFit) CAGR() float64 {
	return math.Exp(f.B) - 1
}

// Extrapolate evaluates the curve for every period in [from, to].
func (f ExpFit) Extrapolate(name string, from, to int) (series.Series, error) {
	if to < from {
		return series.Series{Name: name}, nil
	}
	if err := CheckHorizon(from, to); err != nil {
		return series.Series{}, err
	}
	pts := make([]series.Point, 0, to-from+1)
	for p := from; p <= to; p++ {
		pts = append(pts, series.At(p, f.Eval(p)))
	}
	return series.New(name, pts...)
}

// FitExponential fits an exponential trend to the valid points of s.
func FitExponential(s series.Series, opts ...FitOption) (ExpFit, error) {
	cfg := fitConfig{method: LogLinear, maxIter: 100}
	for _, o := range opts {
		o(&cfg)
	}

	pts := series.DropMissing(s).Points
	if len(pts) < 2 {
		return ExpFit{}, ErrTooFewPoints
	}
	origin := pts[0].Period
	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, p := range pts {
		if p.Value <= 0 {
			return ExpFit{}, fmt.Errorf("%w: period %d value %v", ErrNonPositiveValue, p.Period, p.Value)
		}
		xs[i] = float64(p.Period - origin)
		ys[i] = p.Value
	}

	fit, err := fitLogLinear(xs, ys)
	if err != nil {
		return ExpFit{}, err
	}
	fit.Origin = origin
	if cfg.method == Nonlinear {
		fit = refineGaussNewton(fit, xs, ys, cfg.maxIter)
	}
	return fit, nil
}

func fitLogLinear(xs, ys []float64) (ExpFit, error) {
	n := float64(len(xs))
	var sx, sy, sxx, sxy float64
	lys := make([]float64, len(ys))
	for i := range xs {
		lys[i] = math.Log(ys[i])
		sx += xs[i]
		sy += lys[i]
		sxx += xs[i] * xs[i]
		sxy += xs[i] * lys[i]
	}
	den := n*sxx - sx*sx
	if den == 0 {
		return ExpFit{}, ErrDegenerateFit
	}
	b := (n*sxy - sx*sy) / den
	lnA := (sy - b*sx) / n

	mean := sy / n
	var ssRes, ssTot float64
	for i := range xs {
		pred := lnA + b*xs[i]
		ssRes += (lys[i] - pred) * (lys[i] - pred)
		ssTot += (lys[i] - mean) * (lys[i] - mean)
	}
	return ExpFit{
		A:        math.Exp(lnA),
		B:        b,
		RSquared: rSquared(ssRes, ssTot),
		Method:   LogLinear,
	}, nil
}

// refineGaussNewton minimises sum (y - A*exp(B*x))^2 starting from seed.
// Steps that increase the residual are halved; the seed is returned if no step helps.
func refineGaussNewton(seed ExpFit, xs, ys []float64, maxIter int) ExpFit {
	a, b := seed.A, seed.B
	sse := func(a, b float64) float64 {
		s := 0.0
		for i := range xs {
			r := ys[i] - a*math.Exp(b*xs[i])
			s += r * r
		}
		return s
	}
	cur := sse(a, b)
	iter := 0
	for ; iter < maxIter; iter++ {
		var jaa, jab, jbb, ga, gb float64
		for i := range xs {
			e := math.Exp(b * xs[i])
			da := e
			db := a * xs[i] * e
			r := ys[i] - a*e
			jaa += da * da
			jab += da * db
			jbb += db * db
			ga += da * r
			gb += db * r
		}
		det := jaa*jbb - jab*jab
		if det == 0 || math.IsNaN(det) {
			break
		}
		stepA := (jbb*ga - jab*gb) / det
		stepB := (jaa*gb - jab*ga) / det

		improved := false
		for scale := 1.0; scale > 1e-6; scale /= 2 {
			na, nb := a+scale*stepA, b+scale*stepB
			if next := sse(na, nb); next < cur {
				a, b, cur = na, nb, next
				improved = true
				break
			}
		}
		if !improved || (math.Abs(stepA) <= 1e-12*math.Abs(a) && math.Abs(stepB) <= 1e-12) {
			break
		}
	}

	mean := 0.0
	for _, y := range ys {
		mean += y
	}
	mean /= float64(len(ys))
	ssTot := 0.0
	for _, y := range ys {
		ssTot += (y - mean) * (y - mean)
	}
	return ExpFit{
		Origin:     seed.Origin,
		A:          a,
		B:          b,
		RSquared:   rSquared(cur, ssTot),
		Method:     Nonlinear,
		Iterations: iter,
	}
}

func rSquared(ssRes, ssTot float64) float64 {
	if ssTot == 0 {
		return 1
	}
	return 1 - ssRes/ssTot
}
