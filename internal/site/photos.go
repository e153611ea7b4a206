package site

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/tidwall/rtree"

	"github.com/tphakala/hubheight/internal/errors"
	"github.com/tphakala/hubheight/internal/geo"
)

// Photo is an aerial photograph centre with its capture time
type Photo struct {
	File     string
	Position geo.Projected
	Time     time.Time
}

// PhotoIndex finds the aerial photo nearest to a position. Read-only after
// loading and safe for concurrent use.
type PhotoIndex struct {
	zone    geo.Zone
	photos  []Photo
	tree    rtree.RTreeG[int]
	skipped []error
}

// LoadPhotos reads photo centres: photo_file, photo_latitude,
// photo_longitude and photo_timestamp. Centres are projected into zone.
func LoadPhotos(r io.Reader, zone geo.Zone) (*PhotoIndex, error) {
	t, err := readTable(r, "photos", "photo_latitude", "photo_longitude", "photo_timestamp")
	if err != nil {
		return nil, err
	}
	if err := zone.Validate(); err != nil {
		return nil, errors.New(err).
			Component("photos").
			Category(errors.CategoryConfiguration).
			Build()
	}

	idx := &PhotoIndex{zone: zone}
	for i, row := range t.rows {
		p, err := parsePhoto(t, row, zone)
		if err != nil {
			idx.skipped = append(idx.skipped, fmt.Errorf("row %d: %w", i+2, err))
			continue
		}
		pt := [2]float64{p.Position.X, p.Position.Y}
		idx.tree.Insert(pt, pt, len(idx.photos))
		idx.photos = append(idx.photos, p)
	}
	return idx, nil
}

func parsePhoto(t *table, row []string, zone geo.Zone) (Photo, error) {
	lat, err := t.float(row, "photo_latitude")
	if err != nil {
		return Photo{}, err
	}
	lon, err := t.float(row, "photo_longitude")
	if err != nil {
		return Photo{}, err
	}
	ts, err := ParseTimestamp(t.get(row, "photo_timestamp"))
	if err != nil {
		return Photo{}, err
	}
	pos, err := geo.GeodeticToProjected(lat, lon, zone)
	if err != nil {
		return Photo{}, err
	}
	return Photo{File: t.get(row, "photo_file"), Position: pos, Time: ts}, nil
}

// Len returns the number of indexed photos
func (idx *PhotoIndex) Len() int { return len(idx.photos) }

// Skipped returns the reasons rows were left out
func (idx *PhotoIndex) Skipped() []error { return idx.skipped }

// Nearest returns the photo closest to p strictly within radius metres
func (idx *PhotoIndex) Nearest(p geo.Projected, radius float64) (Photo, bool) {
	p, err := geo.Reproject(p, idx.zone)
	if err != nil || len(idx.photos) == 0 {
		return Photo{}, false
	}

	best, bestDist := -1, math.Inf(1)
	idx.tree.Search(
		[2]float64{p.X - radius, p.Y - radius},
		[2]float64{p.X + radius, p.Y + radius},
		func(_, _ [2]float64, i int) bool {
			d := math.Hypot(idx.photos[i].Position.X-p.X, idx.photos[i].Position.Y-p.Y)
			if d < bestDist || (d == bestDist && idx.photos[i].File < idx.photos[best].File) {
				best, bestDist = i, d
			}
			return true
		})

	if best < 0 || bestDist >= radius {
		return Photo{}, false
	}
	return idx.photos[best], true
}
