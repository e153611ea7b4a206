// Package validation tests whether per-site mean errors lie inside an
// accuracy band and reports a normality diagnostic for the same errors.
package validation

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/tphakala/hubheight/internal/errors"
)

// ErrInsufficientSamples is returned when there are too few finite values to test
var ErrInsufficientSamples = errors.NewStd("insufficient samples")

// Result of the band test. PLower tests H1: mean > Lower, PUpper tests
// H1: mean < Upper. P is their sum, and WithinBand is P < Alpha.
type Result struct {
	N      int
	Mean   float64
	StdDev float64

	Lower, Upper float64
	Alpha        float64

	TLower, TUpper float64
	PLower, PUpper float64
	P              float64
	WithinBand     bool

	// Shapiro-Wilk diagnostic, NaN when fewer than three samples
	ShapiroW, ShapiroP float64
}

// Validate runs the two one-sided one-sample t-tests against lower and upper.
// NaN values are omitted. The null hypothesis is that the true mean error lies
// outside [lower, upper]; the p-values are added, not combined.
func Validate(errs []float64, lower, upper, alpha float64) (Result, error) {
	x := finite(errs)
	res := Result{
		N:        len(x),
		Lower:    lower,
		Upper:    upper,
		Alpha:    alpha,
		Mean:     math.NaN(),
		StdDev:   math.NaN(),
		TLower:   math.NaN(),
		TUpper:   math.NaN(),
		PLower:   math.NaN(),
		PUpper:   math.NaN(),
		P:        math.NaN(),
		ShapiroW: math.NaN(),
		ShapiroP: math.NaN(),
	}
	if len(x) < 2 {
		return res, errors.New(ErrInsufficientSamples).
			Component("validation").
			Category(errors.CategoryValidation).
			Context("samples", len(x)).
			Context("required", 2).
			Build()
	}
	if lower >= upper {
		return res, errors.Newf("lower bound %g must be below upper bound %g", lower, upper).
			Component("validation").
			Category(errors.CategoryValidation).
			Build()
	}

	res.Mean, res.StdDev = stat.MeanStdDev(x, nil)
	n := float64(len(x))
	se := res.StdDev / math.Sqrt(n)

	if se == 0 {
		// degenerate distribution: the mean is exact
		res.TLower = math.Copysign(math.Inf(1), res.Mean-lower)
		res.TUpper = math.Copysign(math.Inf(1), res.Mean-upper)
		res.PLower = stepP(res.Mean > lower)
		res.PUpper = stepP(res.Mean < upper)
	} else {
		t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: n - 1}
		res.TLower = (res.Mean - lower) / se
		res.TUpper = (res.Mean - upper) / se
		res.PLower = t.Survival(res.TLower)
		res.PUpper = t.CDF(res.TUpper)
	}
	res.P = res.PLower + res.PUpper
	res.WithinBand = res.P < alpha

	if w, p, err := ShapiroWilk(x); err == nil {
		res.ShapiroW, res.ShapiroP = w, p
	}
	return res, nil
}

func stepP(inside bool) float64 {
	if inside {
		return 0
	}
	return 1
}

func finite(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, v := range xs {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}
