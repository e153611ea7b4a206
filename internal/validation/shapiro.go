package validation

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/tphakala/hubheight/internal/errors"
)

// Royston (1992, 1995) polynomial approximations
var (
	swC1 = []float64{0, 0.221157, -0.147981, -2.07119, 4.434685, -2.706056}
	swC2 = []float64{0, 0.042981, -0.293762, -1.752461, 5.682633, -3.582633}
	swC3 = []float64{0.544, -0.39978, 0.025054, -6.714e-4}
	swC4 = []float64{1.3822, -0.77857, 0.062767, -0.0020322}
	swC5 = []float64{-1.5861, -0.31082, -0.083751, 0.0038915}
	swC6 = []float64{-0.4803, -0.082676, 0.0030302}
	swG  = []float64{-2.273, 0.459}
)

const (
	shapiroMinN = 3
	shapiroMaxN = 5000
)

// ShapiroWilk returns the Shapiro-Wilk W statistic and its p-value using
// Royston's approximation. NaN values are omitted; 3 to 5000 samples with
// non-zero range are required.
func ShapiroWilk(xs []float64) (w, p float64, err error) {
	x := finite(xs)
	n := len(x)
	if n < shapiroMinN {
		return math.NaN(), math.NaN(), errors.New(ErrInsufficientSamples).
			Component("validation").
			Category(errors.CategoryValidation).
			Context("samples", n).
			Context("required", shapiroMinN).
			Build()
	}
	if n > shapiroMaxN {
		return math.NaN(), math.NaN(), errors.Newf("shapiro-wilk supports at most %d samples, got %d", shapiroMaxN, n).
			Component("validation").
			Category(errors.CategoryValidation).
			Build()
	}
	slices.Sort(x)
	if x[n-1]-x[0] < 1e-19 {
		return math.NaN(), math.NaN(), errors.Newf("shapiro-wilk needs non-identical samples").
			Component("validation").
			Category(errors.CategoryValidation).
			Build()
	}

	a := shapiroCoefficients(n)

	var mean float64
	for _, v := range x {
		mean += v
	}
	mean /= float64(n)

	var ss, b float64
	for _, v := range x {
		ss += (v - mean) * (v - mean)
	}
	for i := range a {
		b += a[i] * (x[n-1-i] - x[i])
	}
	w = min(b*b/ss, 1)

	return w, shapiroPValue(w, n), nil
}

// shapiroCoefficients returns the positive half of the antisymmetric weights
func shapiroCoefficients(n int) []float64 {
	nn2 := n / 2
	a := make([]float64, nn2)
	if n == 3 {
		a[0] = math.Sqrt(0.5)
		return a
	}

	an := float64(n)
	m := make([]float64, nn2)
	var summ2 float64
	for i := range m {
		m[i] = distuv.UnitNormal.Quantile((float64(i+1) - 0.375) / (an + 0.25))
		summ2 += m[i] * m[i]
	}
	summ2 *= 2
	ssumm2 := math.Sqrt(summ2)
	rsn := 1 / math.Sqrt(an)

	a1 := poly(swC1, rsn) - m[0]/ssumm2
	a[0] = a1

	first := 1
	var fac float64
	if n > 5 {
		a2 := poly(swC2, rsn) - m[1]/ssumm2
		fac = math.Sqrt((summ2 - 2*m[0]*m[0] - 2*m[1]*m[1]) / (1 - 2*a1*a1 - 2*a2*a2))
		a[1] = a2
		first = 2
	} else {
		fac = math.Sqrt((summ2 - 2*m[0]*m[0]) / (1 - 2*a1*a1))
	}
	for i := first; i < nn2; i++ {
		a[i] = -m[i] / fac
	}
	return a
}

func shapiroPValue(w float64, n int) float64 {
	if n == 3 {
		const pi6 = 6 / math.Pi
		const stqr = math.Pi / 3
		return max(pi6*(math.Asin(math.Sqrt(w))-stqr), 0)
	}
	if w >= 1 {
		return 1
	}

	an := float64(n)
	w1 := math.Log(1 - w)
	var mu, sigma float64
	if n <= 11 {
		gamma := poly(swG, an)
		if w1 >= gamma {
			return 1e-99
		}
		w1 = -math.Log(gamma - w1)
		mu = poly(swC3, an)
		sigma = math.Exp(poly(swC4, an))
	} else {
		ln := math.Log(an)
		mu = poly(swC5, ln)
		sigma = math.Exp(poly(swC6, ln))
	}
	return distuv.Normal{Mu: mu, Sigma: sigma}.Survival(w1)
}

// poly evaluates c[0] + c[1]x + c[2]x^2 + ...
func poly(c []float64, x float64) float64 {
	var r float64
	for i := len(c) - 1; i >= 0; i-- {
		r = r*x + c[i]
	}
	return r
}
