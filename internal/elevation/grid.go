// Package elevation answers terrain height queries from ASCII grid elevation
// tiles. A coverage index maps ground positions to tile files and a
// single-slot TileCache keeps the most recently used tile decoded.
package elevation

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/tphakala/hubheight/internal/errors"
)

// defaultNoData is assumed when a tile header omits NODATA_VALUE
const defaultNoData = -9999

// Grid is a decoded elevation tile. Row 0 is the northernmost row. Cells
// holding the no-data sentinel are stored as NaN.
type Grid struct {
	NCols     int
	NRows     int
	XLLCenter float64 // x of the lower-left cell centre
	YLLCenter float64 // y of the lower-left cell centre
	CellSize  float64
	NoData    float64

	values []float64
}

// ParseGrid decodes an ASCII grid: a short KEY VALUE header followed by
// NROWS rows of NCOLS values. Anything after the last row is ignored.
func ParseGrid(r io.Reader) (*Grid, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	header := make(map[string]float64, 6)
	var body []string
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if _, err := strconv.ParseFloat(fields[0], 64); err == nil {
			body = fields
			break
		}
		if len(fields) != 2 {
			return nil, parseError(fmt.Errorf("malformed header line %q", scanner.Text()))
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, parseError(fmt.Errorf("header %s: %w", fields[0], err))
		}
		header[strings.ToLower(fields[0])] = v
	}

	g, err := gridFromHeader(header)
	if err != nil {
		return nil, err
	}

	total := g.NCols * g.NRows
	g.values = make([]float64, 0, total)
	appendValues := func(fields []string) error {
		for _, f := range fields {
			if len(g.values) == total {
				return nil
			}
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return fmt.Errorf("cell %d: %w", len(g.values), err)
			}
			if v == g.NoData {
				v = math.NaN()
			}
			g.values = append(g.values, v)
		}
		return nil
	}

	if err := appendValues(body); err != nil {
		return nil, parseError(err)
	}
	for len(g.values) < total && scanner.Scan() {
		if err := appendValues(strings.Fields(scanner.Text())); err != nil {
			return nil, parseError(err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.New(err).
			Component("elevation").
			Category(errors.CategoryFileIO).
			Build()
	}
	if len(g.values) < total {
		return nil, parseError(fmt.Errorf("expected %d cells, found %d", total, len(g.values)))
	}

	return g, nil
}

func gridFromHeader(h map[string]float64) (*Grid, error) {
	g := &Grid{NoData: defaultNoData}

	for _, key := range []string{"ncols", "nrows", "cellsize"} {
		if _, ok := h[key]; !ok {
			return nil, parseError(fmt.Errorf("missing header %s", strings.ToUpper(key)))
		}
	}
	g.NCols = int(h["ncols"])
	g.NRows = int(h["nrows"])
	g.CellSize = h["cellsize"]
	if g.NCols <= 0 || g.NRows <= 0 || g.CellSize <= 0 {
		return nil, parseError(fmt.Errorf("invalid grid shape %dx%d cellsize %g", g.NCols, g.NRows, g.CellSize))
	}

	var ok bool
	if g.XLLCenter, ok = centre(h, "x", g.CellSize); !ok {
		return nil, parseError(fmt.Errorf("missing header XLLCENTER or XLLCORNER"))
	}
	if g.YLLCenter, ok = centre(h, "y", g.CellSize); !ok {
		return nil, parseError(fmt.Errorf("missing header YLLCENTER or YLLCORNER"))
	}
	if v, ok := h["nodata_value"]; ok {
		g.NoData = v
	}
	return g, nil
}

// centre reads an ll centre, converting from a corner when needed
func centre(h map[string]float64, axis string, cellSize float64) (float64, bool) {
	if v, ok := h[axis+"llcenter"]; ok {
		return v, true
	}
	if v, ok := h[axis+"llcorner"]; ok {
		return v + cellSize/2, true
	}
	return 0, false
}

func parseError(err error) error {
	return errors.New(err).
		Component("elevation").
		Category(errors.CategoryFileParsing).
		Build()
}

// At returns the value of a cell, NaN for no-data cells
func (g *Grid) At(row, col int) float64 {
	return g.values[row*g.NCols+col]
}

// Bounds returns the extent covered by cell centres
func (g *Grid) Bounds() (minX, minY, maxX, maxY float64) {
	return g.XLLCenter, g.YLLCenter,
		g.XLLCenter + float64(g.NCols-1)*g.CellSize,
		g.YLLCenter + float64(g.NRows-1)*g.CellSize
}

// Interpolate returns the bilinearly interpolated height at projected x/y.
// No-data neighbours are dropped and the remaining weights renormalised; the
// result is NaN outside the grid or when no neighbour with weight has data.
func (g *Grid) Interpolate(x, y float64) float64 {
	topY := g.YLLCenter + float64(g.NRows-1)*g.CellSize
	col := (x - g.XLLCenter) / g.CellSize
	row := (topY - y) / g.CellSize

	if math.IsNaN(col) || math.IsNaN(row) ||
		col < 0 || row < 0 || col > float64(g.NCols-1) || row > float64(g.NRows-1) {
		return math.NaN()
	}

	c0 := min(int(col), max(g.NCols-2, 0))
	r0 := min(int(row), max(g.NRows-2, 0))
	c1 := min(c0+1, g.NCols-1)
	r1 := min(r0+1, g.NRows-1)
	fc := col - float64(c0)
	fr := row - float64(r0)

	neighbours := [4]struct {
		r, c int
		w    float64
	}{
		{r0, c0, (1 - fr) * (1 - fc)},
		{r0, c1, (1 - fr) * fc},
		{r1, c0, fr * (1 - fc)},
		{r1, c1, fr * fc},
	}

	var sum, weight float64
	for _, n := range neighbours {
		if n.w == 0 {
			continue
		}
		v := g.At(n.r, n.c)
		if math.IsNaN(v) {
			continue
		}
		sum += n.w * v
		weight += n.w
	}

	if weight < 1e-12 {
		return math.NaN()
	}
	return sum / weight
}
