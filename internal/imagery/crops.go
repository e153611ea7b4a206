// Package imagery locates turbine crop images and maps them onto the ground.
package imagery

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/tphakala/hubheight/internal/errors"
	"github.com/tphakala/hubheight/internal/geo"
	"github.com/tphakala/hubheight/internal/site"
)

// SiteClipWidth is the side in metres of the square site image cut from the
// orthophoto, centred on the site
const SiteClipWidth = 2000.0

// CropKey identifies a turbine crop
type CropKey struct {
	Site    string
	Turbine int
}

// CropRecord is a row of the crop table. A crop is placed either by its
// projected top-left corner or by its pixel offset inside the site image.
type CropRecord struct {
	CropKey
	Corner     geo.Projected
	HasCorner  bool
	LeftOffset float64 // pixels from the site image's left edge
	TopOffset  float64 // pixels from the site image's top edge
	HasOffset  bool
	Resolution float64 // metres per pixel, 0 uses the orthophoto's
	Width      int     // pixels, 0 when unknown
	Height     int     // pixels, 0 when unknown
	zoneSet    bool
}

// Crops holds crop records by turbine
type Crops struct {
	byKey   map[CropKey]CropRecord
	skipped []error
}

// LoadCrops reads the crop table: site, turbine and any of corner_x,
// corner_y, left_offset, top_offset, resolution, width, height, huso/zone.
func LoadCrops(r io.Reader) (*Crops, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.New(err).
			Component("imagery").
			Category(errors.CategoryFileParsing).
			Build()
	}

	crops := &Crops{byKey: make(map[CropKey]CropRecord)}
	if len(records) == 0 {
		return crops, nil
	}

	cols := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := cols["site"]; !ok {
		return nil, missingColumn("site")
	}
	if _, ok := cols["turbine"]; !ok {
		return nil, missingColumn("turbine")
	}

	for i, row := range records[1:] {
		rec, err := parseCrop(cols, row)
		if err != nil {
			crops.skipped = append(crops.skipped, fmt.Errorf("row %d: %w", i+2, err))
			continue
		}
		crops.byKey[rec.CropKey] = rec
	}
	return crops, nil
}

func missingColumn(name string) error {
	return errors.Newf("crop table missing column %q", name).
		Component("imagery").
		Category(errors.CategoryReferenceData).
		Build()
}

func parseCrop(cols map[string]int, row []string) (CropRecord, error) {
	get := func(name string) string {
		if i, ok := cols[name]; ok && i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}
	number := func(name string) (float64, bool, error) {
		s := get(name)
		if s == "" {
			return 0, false, nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false, fmt.Errorf("column %s: %w", name, err)
		}
		return v, true, nil
	}

	var rec CropRecord
	rec.Site = get("site")
	turbine, err := strconv.Atoi(get("turbine"))
	if err != nil || rec.Site == "" {
		return CropRecord{}, errors.Newf("invalid crop key %q/%q", get("site"), get("turbine")).
			Component("imagery").
			Category(errors.CategoryConfiguration).
			Build()
	}
	rec.Turbine = turbine

	fail := func(err error) (CropRecord, error) {
		return CropRecord{}, errors.ConfigurationError(err, "imagery", rec.Site, rec.Turbine)
	}

	x, okX, err := number("corner_x")
	if err != nil {
		return fail(err)
	}
	y, okY, err := number("corner_y")
	if err != nil {
		return fail(err)
	}
	if okX && okY {
		rec.Corner.X, rec.Corner.Y, rec.HasCorner = x, y, true
	}

	left, okL, err := number("left_offset")
	if err != nil {
		return fail(err)
	}
	top, okT, err := number("top_offset")
	if err != nil {
		return fail(err)
	}
	if okL && okT {
		rec.LeftOffset, rec.TopOffset, rec.HasOffset = left, top, true
	}

	if rec.Resolution, _, err = number("resolution"); err != nil {
		return fail(err)
	}
	w, _, err := number("width")
	if err != nil {
		return fail(err)
	}
	h, _, err := number("height")
	if err != nil {
		return fail(err)
	}
	rec.Width, rec.Height = int(w), int(h)

	z := get("huso")
	if z == "" {
		z = get("zone")
	}
	if z != "" {
		if rec.Corner.Zone, err = geo.ParseZone(z); err != nil {
			return fail(err)
		}
		rec.zoneSet = true
	}

	return rec, nil
}

// Get returns the crop record of a turbine
func (c *Crops) Get(siteID string, turbine int) (CropRecord, bool) {
	if c == nil {
		return CropRecord{}, false
	}
	rec, ok := c.byKey[CropKey{Site: siteID, Turbine: turbine}]
	return rec, ok
}

// Len returns the number of crop records
func (c *Crops) Len() int {
	if c == nil {
		return 0
	}
	return len(c.byKey)
}

// Skipped returns the reasons rows were left out
func (c *Crops) Skipped() []error {
	if c == nil {
		return nil
	}
	return c.skipped
}

// ResolutionOr returns the crop resolution, falling back to the orthophoto's
func (rec CropRecord) ResolutionOr(ortho site.Orthophoto) float64 {
	if rec.Resolution > 0 {
		return rec.Resolution
	}
	return ortho.Resolution
}

// Locate places a crop of widthPx by heightPx pixels on the ground. It
// reports false when the crop corner cannot be derived.
func (rec CropRecord) Locate(ortho site.Orthophoto, s *site.Site, widthPx, heightPx int) (geo.Crop, bool) {
	crop := geo.Crop{
		Resolution: rec.ResolutionOr(ortho),
		Width:      widthPx,
		Height:     heightPx,
	}

	switch {
	case rec.HasCorner:
		crop.Corner = rec.Corner
		if !rec.zoneSet {
			crop.Corner.Zone = ortho.Corner.Zone
		}
		return crop, true

	case rec.HasOffset && ortho.HasCorner && s != nil:
		corner, ok := siteImageCorner(ortho, s.Position)
		if !ok {
			return geo.Crop{}, false
		}
		res := ortho.Resolution
		crop.Corner = geo.Projected{
			X:    corner.X + rec.LeftOffset*res,
			Y:    corner.Y - rec.TopOffset*res,
			Zone: corner.Zone,
		}
		return crop, true
	}

	return geo.Crop{}, false
}

// siteImageCorner returns the top-left corner of the site image, which is
// clipped from the orthophoto on whole pixels around the site centre
func siteImageCorner(ortho site.Orthophoto, sitePos geo.Projected) (geo.Projected, bool) {
	pos, err := geo.Reproject(sitePos, ortho.Corner.Zone)
	if err != nil || ortho.Resolution <= 0 {
		return geo.Projected{}, false
	}

	res := ortho.Resolution
	left := math.Trunc((pos.X - ortho.Corner.X - SiteClipWidth/2) / res)
	top := math.Trunc((ortho.Corner.Y - pos.Y - SiteClipWidth/2) / res)

	return geo.Projected{
		X:    ortho.Corner.X + left*res,
		Y:    ortho.Corner.Y - top*res,
		Zone: ortho.Corner.Zone,
	}, true
}
