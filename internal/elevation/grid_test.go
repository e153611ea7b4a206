package elevation

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/hubheight/internal/errors"
)

const tileA = `NCOLS 3
NROWS 3
XLLCENTER 500000
YLLCENTER 4700000
CELLSIZE 50
NODATA_VALUE -9999
10 20 30 
40 50 60 
70 80 -9999 

`

func TestParseGrid(t *testing.T) {
	t.Parallel()

	g, err := ParseGrid(strings.NewReader(tileA))
	require.NoError(t, err)

	assert.Equal(t, 3, g.NCols)
	assert.Equal(t, 3, g.NRows)
	assert.InDelta(t, 500000.0, g.XLLCenter, 1e-9)
	assert.InDelta(t, 50.0, g.CellSize, 1e-9)
	assert.InDelta(t, 10.0, g.At(0, 0), 1e-9)
	assert.InDelta(t, 80.0, g.At(2, 1), 1e-9)
	assert.True(t, math.IsNaN(g.At(2, 2)), "no-data cell must be NaN")

	minX, minY, maxX, maxY := g.Bounds()
	assert.InDelta(t, 500000.0, minX, 1e-9)
	assert.InDelta(t, 4700000.0, minY, 1e-9)
	assert.InDelta(t, 500100.0, maxX, 1e-9)
	assert.InDelta(t, 4700100.0, maxY, 1e-9)
}

func TestParseGridVariants(t *testing.T) {
	t.Parallel()

	t.Run("lower case corner header and footer", func(t *testing.T) {
		t.Parallel()
		g, err := ParseGrid(strings.NewReader(
			"ncols 2\nnrows 2\nxllcorner 0\nyllcorner 0\ncellsize 10\nnodata_value -1\n1 2\n3 -1\ntrailing footer\n"))
		require.NoError(t, err)
		assert.InDelta(t, 5.0, g.XLLCenter, 1e-9)
		assert.InDelta(t, 5.0, g.YLLCenter, 1e-9)
		assert.True(t, math.IsNaN(g.At(1, 1)))
	})

	t.Run("values wrapped across lines", func(t *testing.T) {
		t.Parallel()
		g, err := ParseGrid(strings.NewReader(
			"NCOLS 3\nNROWS 2\nXLLCENTER 0\nYLLCENTER 0\nCELLSIZE 1\n1 2\n3 4 5\n6\n"))
		require.NoError(t, err)
		assert.InDelta(t, 4.0, g.At(1, 0), 1e-9)
		assert.InDelta(t, 6.0, g.At(1, 2), 1e-9)
		assert.InDelta(t, float64(defaultNoData), g.NoData, 1e-9)
	})

	t.Run("missing header", func(t *testing.T) {
		t.Parallel()
		_, err := ParseGrid(strings.NewReader("NCOLS 2\nNROWS 2\nCELLSIZE 1\n1 2\n3 4\n"))
		require.Error(t, err)
		assert.True(t, errors.IsCategory(err, errors.CategoryFileParsing))
	})

	t.Run("short body", func(t *testing.T) {
		t.Parallel()
		_, err := ParseGrid(strings.NewReader("NCOLS 2\nNROWS 2\nXLLCENTER 0\nYLLCENTER 0\nCELLSIZE 1\n1 2\n3\n"))
		require.Error(t, err)
	})

	t.Run("bad value", func(t *testing.T) {
		t.Parallel()
		_, err := ParseGrid(strings.NewReader("NCOLS 1\nNROWS 2\nXLLCENTER 0\nYLLCENTER 0\nCELLSIZE 1\n1\nx\n"))
		require.Error(t, err)
	})
}

func TestGridInterpolate(t *testing.T) {
	t.Parallel()

	g, err := ParseGrid(strings.NewReader(tileA))
	require.NoError(t, err)

	tests := []struct {
		name string
		x, y float64
		want float64
	}{
		{"north-west cell centre", 500000, 4700100, 10},
		{"middle of four cells", 500025, 4700075, 30},
		{"along a row", 500025, 4700100, 15},
		{"one no-data neighbour renormalised", 500075, 4700025, (50 + 60 + 80) / 3.0},
		{"exactly on no-data cell", 500100, 4700000, math.NaN()},
		{"west of grid", 499999, 4700050, math.NaN()},
		{"north of grid", 500050, 4700100.5, math.NaN()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := g.Interpolate(tt.x, tt.y)
			if math.IsNaN(tt.want) {
				assert.True(t, math.IsNaN(got), "want NaN, got %v", got)
				return
			}
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestGridInterpolateAllNoData(t *testing.T) {
	t.Parallel()

	g, err := ParseGrid(strings.NewReader(
		"NCOLS 2\nNROWS 2\nXLLCENTER 0\nYLLCENTER 0\nCELLSIZE 1\nNODATA_VALUE -9999\n-9999 -9999\n-9999 -9999\n"))
	require.NoError(t, err)
	assert.True(t, math.IsNaN(g.Interpolate(0.5, 0.5)))
}
