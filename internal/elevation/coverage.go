package elevation

import (
	"cmp"
	"fmt"
	"io"
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/tidwall/rtree"

	"github.com/tphakala/hubheight/internal/errors"
	"github.com/tphakala/hubheight/internal/geo"
)

// ErrTileNotCovered is returned when no tile polygon contains a point
var ErrTileNotCovered = errors.NewStd("point not covered by any elevation tile")

// Tile describes one elevation tile of the coverage index
type Tile struct {
	File     string       // tile filename
	Zone     geo.Zone     // projection zone of the tile grid
	Geometry orb.Geometry // footprint in the index zone
	Centroid orb.Point
}

// CoverageIndex maps projected positions to elevation tiles. Footprints are
// expressed in a single zone. Read-only after loading, safe to share.
type CoverageIndex struct {
	zone    geo.Zone
	tiles   []Tile
	tree    rtree.RTreeG[int]
	skipped []error
}

// LoadCoverage reads a GeoJSON FeatureCollection of tile footprints in zone.
// fileKey names the property holding the tile filename; zoneKey, when set,
// names the property holding the tile's own projection zone. Features that
// cannot be used are skipped and reported by Skipped.
func LoadCoverage(r io.Reader, fileKey, zoneKey string, zone geo.Zone) (*CoverageIndex, error) {
	if err := zone.Validate(); err != nil {
		return nil, errors.New(err).
			Component("elevation").
			Category(errors.CategoryConfiguration).
			Build()
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.New(err).
			Component("elevation").
			Category(errors.CategoryReferenceData).
			Build()
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, errors.New(err).
			Component("elevation").
			Category(errors.CategoryReferenceData).
			Context("operation", "parse-coverage").
			Build()
	}

	idx := &CoverageIndex{zone: zone}
	for i, f := range fc.Features {
		tile, err := tileFromFeature(f, fileKey, zoneKey, zone)
		if err != nil {
			idx.skipped = append(idx.skipped, fmt.Errorf("feature %d: %w", i, err))
			continue
		}

		b := tile.Geometry.Bound()
		idx.tree.Insert([2]float64{b.Min[0], b.Min[1]}, [2]float64{b.Max[0], b.Max[1]}, len(idx.tiles))
		idx.tiles = append(idx.tiles, tile)
	}

	if len(idx.tiles) == 0 {
		return nil, errors.Newf("coverage index has no usable tiles").
			Component("elevation").
			Category(errors.CategoryReferenceData).
			Context("features", len(fc.Features)).
			Build()
	}

	return idx, nil
}

func tileFromFeature(f *geojson.Feature, fileKey, zoneKey string, zone geo.Zone) (Tile, error) {
	file, ok := f.Properties[fileKey]
	if !ok || fmt.Sprint(file) == "" {
		return Tile{}, fmt.Errorf("missing property %s", fileKey)
	}

	tile := Tile{File: fmt.Sprint(file), Zone: zone}

	if zoneKey != "" {
		if raw, ok := f.Properties[zoneKey]; ok && raw != nil {
			z, err := geo.ParseZone(fmt.Sprint(raw))
			if err != nil {
				return Tile{}, errors.New(err).
					Component("elevation").
					Category(errors.CategoryConfiguration).
					Context("tile", tile.File).
					Build()
			}
			tile.Zone = z
		}
	}

	switch g := f.Geometry.(type) {
	case orb.Polygon, orb.MultiPolygon:
		tile.Geometry = g
	default:
		return Tile{}, fmt.Errorf("tile %s: unsupported geometry %T", tile.File, f.Geometry)
	}
	tile.Centroid, _ = planar.CentroidArea(tile.Geometry)

	return tile, nil
}

// Zone returns the projection zone of the tile footprints
func (c *CoverageIndex) Zone() geo.Zone { return c.zone }

// Len returns the number of indexed tiles
func (c *CoverageIndex) Len() int { return len(c.tiles) }

// Skipped returns the reasons features were left out of the index
func (c *CoverageIndex) Skipped() []error { return c.skipped }

// Lookup returns the tile covering p. When footprints overlap the tile whose
// centroid is nearest wins, ties broken by filename.
func (c *CoverageIndex) Lookup(p geo.Projected) (Tile, error) {
	p, err := geo.Reproject(p, c.zone)
	if err != nil {
		return Tile{}, err
	}
	pt := orb.Point{p.X, p.Y}

	var candidates []int
	c.tree.Search([2]float64{p.X, p.Y}, [2]float64{p.X, p.Y}, func(_, _ [2]float64, i int) bool {
		if contains(c.tiles[i].Geometry, pt) {
			candidates = append(candidates, i)
		}
		return true
	})

	if len(candidates) == 0 {
		return Tile{}, fmt.Errorf("%w: (%.1f, %.1f) in %s", ErrTileNotCovered, p.X, p.Y, c.zone)
	}

	best := slices.MinFunc(candidates, func(a, b int) int {
		da := planar.Distance(c.tiles[a].Centroid, pt)
		db := planar.Distance(c.tiles[b].Centroid, pt)
		if d := cmp.Compare(da, db); d != 0 {
			return d
		}
		return cmp.Compare(c.tiles[a].File, c.tiles[b].File)
	})
	return c.tiles[best], nil
}

func contains(g orb.Geometry, pt orb.Point) bool {
	switch g := g.(type) {
	case orb.Polygon:
		return planar.PolygonContains(g, pt)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(g, pt)
	}
	return false
}
