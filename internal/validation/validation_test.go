package validation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/hubheight/internal/errors"
)

func TestValidateWellCalibrated(t *testing.T) {
	t.Parallel()

	res, err := Validate([]float64{1.2, -0.7, 0.4, 2.1, -1.5, 0.3, math.NaN()}, -5, 5, 0.05)
	require.NoError(t, err)

	assert.Equal(t, 6, res.N)
	assert.InDelta(t, 0.3, res.Mean, 1e-9)
	assert.InDelta(t, 1.28841, res.StdDev, 1e-5)
	assert.InDelta(t, 10.0762, res.TLower, 1e-4)
	assert.InDelta(t, -8.9355, res.TUpper, 1e-4)
	assert.InDelta(t, 8.2417e-5, res.PLower, 1e-8)
	assert.InDelta(t, 1.4625e-4, res.PUpper, 1e-8)
	assert.InDelta(t, res.PLower+res.PUpper, res.P, 1e-15)
	assert.True(t, res.WithinBand)
	assert.False(t, math.IsNaN(res.ShapiroW))
}

func TestValidateBiasedEstimates(t *testing.T) {
	t.Parallel()

	res, err := Validate([]float64{8, 9, 7.5, 6.5}, -5, 5, 0.05)
	require.NoError(t, err)

	assert.InDelta(t, 7.45e-5, res.PLower, 1e-7)
	assert.InDelta(t, 0.99339, res.PUpper, 1e-5)
	assert.False(t, res.WithinBand)
}

func TestValidateWideSpread(t *testing.T) {
	t.Parallel()

	res, err := Validate([]float64{4.5, -4.8, 6.0, -6.2, 0.1}, -5, 5, 0.05)
	require.NoError(t, err)

	assert.InDelta(t, 0.05623, res.PLower, 1e-5)
	assert.InDelta(t, 0.05218, res.PUpper, 1e-5)
	assert.InDelta(t, 0.10841, res.P, 1e-5)
	assert.False(t, res.WithinBand)
}

func TestValidateTwoSamples(t *testing.T) {
	t.Parallel()

	// one degree of freedom has a closed form: p = 1/2 - atan(t)/pi
	res, err := Validate([]float64{1, 3}, -5, 5, 0.05)
	require.NoError(t, err)

	assert.InDelta(t, 0.5-math.Atan(7)/math.Pi, res.PLower, 1e-9)
	assert.InDelta(t, 0.5-math.Atan(3)/math.Pi, res.PUpper, 1e-9)
	assert.True(t, math.IsNaN(res.ShapiroW))
}

func TestValidateZeroVariance(t *testing.T) {
	t.Parallel()

	res, err := Validate([]float64{2, 2, 2}, -5, 5, 0.05)
	require.NoError(t, err)
	assert.Zero(t, res.P)
	assert.True(t, res.WithinBand)
	assert.True(t, math.IsInf(res.TLower, 1))
	assert.True(t, math.IsInf(res.TUpper, -1))

	res, err = Validate([]float64{7, 7}, -5, 5, 0.05)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, res.P, 1e-12)
	assert.False(t, res.WithinBand)
}

func TestValidateErrors(t *testing.T) {
	t.Parallel()

	_, err := Validate([]float64{1, math.NaN()}, -5, 5, 0.05)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientSamples)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))

	_, err = Validate(nil, -5, 5, 0.05)
	assert.ErrorIs(t, err, ErrInsufficientSamples)

	_, err = Validate([]float64{1, 2, 3}, 5, -5, 0.05)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
}

func TestShapiroWilk(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		x     []float64
		wantW float64
		wantP float64
	}{
		{"skewed", []float64{148, 154, 158, 160, 161, 162, 166, 170, 182, 195, 236}, 0.788815, 0.0067038},
		{"normal like", []float64{2.1, -1.3, 0.4, 0.9, -0.2, 1.7, -0.8, 0.3, 1.1, -0.5, 0.6, -1.0, 0.0, 1.4}, 0.978886, 0.967838},
		{"three", []float64{1, 2, 4}, 0.964286, 0.636887},
		{"five unsorted", []float64{1.2, -0.7, 0.4, 3.9, -2.2}, 0.979705, 0.933037},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w, p, err := ShapiroWilk(tt.x)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantW, w, 1e-5)
			assert.InDelta(t, tt.wantP, p, 1e-5)
		})
	}
}

func TestShapiroWilkDoesNotReorderInput(t *testing.T) {
	t.Parallel()

	x := []float64{3, 1, 2, 5}
	_, _, err := ShapiroWilk(x)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 1, 2, 5}, x)
}

func TestShapiroWilkErrors(t *testing.T) {
	t.Parallel()

	_, _, err := ShapiroWilk([]float64{1, 2})
	assert.ErrorIs(t, err, ErrInsufficientSamples)

	_, _, err = ShapiroWilk([]float64{4, 4, 4, 4})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
}
