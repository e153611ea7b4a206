package elevation

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/hubheight/internal/geo"
)

func square(file string, zone any, minX, minY, maxX, maxY float64) string {
	props := fmt.Sprintf(`"FICHERO": %q`, file)
	if zone != nil {
		props += fmt.Sprintf(`, "HUSO": %v`, zone)
	}
	return fmt.Sprintf(`{"type":"Feature","properties":{%s},"geometry":{"type":"Polygon","coordinates":[[[%f,%f],[%f,%f],[%f,%f],[%f,%f],[%f,%f]]]}}`,
		props, minX, minY, maxX, minY, maxX, maxY, minX, maxY, minX, minY)
}

func testCoverage(t *testing.T) *CoverageIndex {
	t.Helper()

	features := []string{
		square("A.asc", 30, 500000, 4700000, 500100, 4700100),
		square("B.asc", `"30"`, 500100, 4700000, 500200, 4700100),
		square("C.asc", nil, 500200, 4700000, 500300, 4700100),
		// large footprint overlapping A and B, its centroid is far away
		square("Z.asc", nil, 499000, 4699000, 500300, 4701000),
		square("E.asc", `"29"`, 600000, 4700000, 600100, 4700100),
		// unusable features
		`{"type":"Feature","properties":{"HUSO":30},"geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}}`,
		`{"type":"Feature","properties":{"FICHERO":"P.asc"},"geometry":{"type":"Point","coordinates":[0,0]}}`,
		square("bad.asc", 33, 0, 0, 1, 1),
	}
	doc := `{"type":"FeatureCollection","features":[` + strings.Join(features, ",") + `]}`

	idx, err := LoadCoverage(strings.NewReader(doc), "FICHERO", "HUSO", 30)
	require.NoError(t, err)
	return idx
}

func testTiles() fstest.MapFS {
	return fstest.MapFS{
		"A.asc": {Data: []byte(tileA)},
		"B.asc": {Data: []byte("NCOLS 3\nNROWS 3\nXLLCORNER 500075\nYLLCORNER 4699975\nCELLSIZE 50\nNODATA_VALUE -9999\n" +
			"100 100 100\n100 100 100\n100 100 100\n")},
		"Z.asc": {Data: []byte("NCOLS 2\nNROWS 2\nXLLCENTER 499000\nYLLCENTER 4699000\nCELLSIZE 2000\n1 1\n1 1\n")},
		// grid expressed in zone 29 coordinates
		"E.asc": {Data: []byte("NCOLS 4\nNROWS 4\nXLLCENTER 1092000\nYLLCENTER 4723000\nCELLSIZE 1000\n" +
			"7 7 7 7\n7 7 7 7\n7 7 7 7\n7 7 7 7\n")},
	}
}

func TestLoadCoverage(t *testing.T) {
	t.Parallel()

	idx := testCoverage(t)
	assert.Equal(t, 5, idx.Len())
	assert.Len(t, idx.Skipped(), 3)
	assert.Equal(t, geo.Zone(30), idx.Zone())
}

func TestLoadCoverageRejectsEmptyIndex(t *testing.T) {
	t.Parallel()

	_, err := LoadCoverage(strings.NewReader(`{"type":"FeatureCollection","features":[]}`), "FICHERO", "", 30)
	require.Error(t, err)

	_, err = LoadCoverage(strings.NewReader(`not json`), "FICHERO", "", 30)
	require.Error(t, err)

	_, err = LoadCoverage(strings.NewReader(`{"type":"FeatureCollection","features":[]}`), "FICHERO", "", 12)
	require.ErrorIs(t, err, geo.ErrInvalidZone)
}

func TestCoverageLookup(t *testing.T) {
	t.Parallel()

	idx := testCoverage(t)

	tests := []struct {
		name string
		x, y float64
		want string
	}{
		{"nearest centroid wins over large footprint", 500050, 4700050, "A.asc"},
		{"second tile", 500150, 4700050, "B.asc"},
		{"shared edge tie broken by name", 500100, 4700050, "A.asc"},
		{"only large footprint", 499500, 4700500, "Z.asc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tile, err := idx.Lookup(geo.Projected{X: tt.x, Y: tt.y, Zone: 30})
			require.NoError(t, err)
			assert.Equal(t, tt.want, tile.File)
		})
	}

	_, err := idx.Lookup(geo.Projected{X: 100, Y: 100, Zone: 30})
	require.ErrorIs(t, err, ErrTileNotCovered)
}

func TestTileCacheReloadsOnlyOnTileChange(t *testing.T) {
	t.Parallel()

	cache := NewTileCache(testCoverage(t), testTiles(), NewLedger(), nil)
	assert.Equal(t, "", cache.Resident())
	assert.Equal(t, 0, cache.Loads())

	inA := []geo.Projected{
		{X: 500025, Y: 4700075, Zone: 30},
		{X: 500000, Y: 4700100, Zone: 30},
		{X: 500050, Y: 4700050, Zone: 30},
	}
	want := []float64{30, 10, 50}
	for i, p := range inA {
		assert.InDelta(t, want[i], cache.ElevationAt(p), 1e-9)
	}
	assert.Equal(t, 1, cache.Loads(), "queries inside one tile load it once")
	assert.Equal(t, "A.asc", cache.Resident())

	assert.InDelta(t, 100, cache.ElevationAt(geo.Projected{X: 500150, Y: 4700050, Zone: 30}), 1e-9)
	assert.Equal(t, 2, cache.Loads(), "crossing into another tile reloads exactly once")
	assert.Equal(t, "B.asc", cache.Resident())
}

func TestTileCacheMissingTile(t *testing.T) {
	t.Parallel()

	ledger := NewLedger()
	cache := NewTileCache(testCoverage(t), testTiles(), ledger, nil)

	for _, x := range []float64{500210, 500250, 500290, 500250} {
		got := cache.ElevationAt(geo.Projected{X: x, Y: 4700050, Zone: 30})
		assert.True(t, math.IsNaN(got))
	}
	assert.Equal(t, 1, cache.Loads())
	assert.Equal(t, []string{"C.asc"}, ledger.List())

	// leaving and coming back records the tile only once
	cache.ElevationAt(geo.Projected{X: 500050, Y: 4700050, Zone: 30})
	assert.True(t, math.IsNaN(cache.ElevationAt(geo.Projected{X: 500250, Y: 4700050, Zone: 30})))
	assert.Equal(t, 1, ledger.Len())
}

func TestTileCacheGeodeticQuery(t *testing.T) {
	t.Parallel()

	cache := NewTileCache(testCoverage(t), testTiles(), NewLedger(), nil)

	lat, lon, err := geo.ProjectedToGeodetic(500025, 4700075, 30)
	require.NoError(t, err)
	assert.InDelta(t, 30, cache.Elevation(lat, lon), 1e-2)

	// a point queried in another zone is reprojected before lookup
	p29, err := geo.Reproject(geo.Projected{X: 500025, Y: 4700075, Zone: 30}, 29)
	require.NoError(t, err)
	assert.InDelta(t, 30, cache.ElevationAt(p29), 1e-2)

	assert.True(t, math.IsNaN(cache.Elevation(0, 0)))
	assert.Equal(t, 1, cache.Uncovered())
}

func TestTileCacheTileInOtherZone(t *testing.T) {
	t.Parallel()

	cache := NewTileCache(testCoverage(t), testTiles(), NewLedger(), nil)
	got := cache.ElevationAt(geo.Projected{X: 600050, Y: 4700050, Zone: 30})
	assert.InDelta(t, 7, got, 1e-9)
	assert.Equal(t, "E.asc", cache.Resident())
}

func TestLedgerConcurrentAdds(t *testing.T) {
	t.Parallel()

	ledger := NewLedger()
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Go(func() {
			for j := range 50 {
				ledger.Add(fmt.Sprintf("tile-%02d.asc", (i+j)%5))
			}
		})
	}
	wg.Wait()

	assert.Equal(t, 5, ledger.Len())
	assert.Equal(t, []string{"tile-00.asc", "tile-01.asc", "tile-02.asc", "tile-03.asc", "tile-04.asc"}, ledger.List())
}

type recordingObserver struct {
	loads   []string
	lookups map[bool]int
}

func (r *recordingObserver) RecordTileLoad(status string, seconds float64) {
	r.loads = append(r.loads, status)
}

func (r *recordingObserver) RecordLookup(ok bool) {
	if r.lookups == nil {
		r.lookups = make(map[bool]int)
	}
	r.lookups[ok]++
}

func TestTileCacheObserver(t *testing.T) {
	t.Parallel()

	tiles := testTiles()
	tiles["B.asc"] = &fstest.MapFile{Data: []byte("NCOLS x\n")}

	obs := &recordingObserver{}
	cache := NewTileCache(testCoverage(t), tiles, NewLedger(), nil)
	cache.SetObserver(obs)

	cache.ElevationAt(geo.Projected{X: 500050, Y: 4700050, Zone: 30})
	cache.ElevationAt(geo.Projected{X: 500060, Y: 4700050, Zone: 30})
	cache.ElevationAt(geo.Projected{X: 500150, Y: 4700050, Zone: 30})
	cache.ElevationAt(geo.Projected{X: 500250, Y: 4700050, Zone: 30})
	cache.ElevationAt(geo.Projected{X: 100, Y: 100, Zone: 30})

	assert.Equal(t, []string{LoadSuccess, LoadError, LoadMissing}, obs.loads)
	assert.Equal(t, 2, obs.lookups[true])
	assert.Equal(t, 3, obs.lookups[false])
}
