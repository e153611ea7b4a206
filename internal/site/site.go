// Package site loads the reference tables describing wind farm sites: site
// metadata with nominal hub heights, orthophoto geometry and reference photo
// positions.
package site

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/tphakala/hubheight/internal/errors"
	"github.com/tphakala/hubheight/internal/geo"
)

// Site is a wind farm
type Site struct {
	ID         string
	Latitude   float64
	Longitude  float64
	Position   geo.Projected // site centre in its imagery zone
	Zone       geo.Zone      // zone of the site's orthophoto
	HubHeights HubHeights
	PhotoTime  time.Time // zero when the table has no timestamp
	PhotoFile  string
}

// ActualHubHeight returns the nominal hub height, NaN when unknown
func (s *Site) ActualHubHeight() float64 {
	return s.HubHeights.Nominal()
}

// HasPhotoTime reports whether a reference photo timestamp is known
func (s *Site) HasPhotoTime() bool {
	return !s.PhotoTime.IsZero()
}

// Registry holds all loaded sites, read-only after loading
type Registry struct {
	sites   map[string]*Site
	order   []string
	skipped []error
}

// LoadSites reads the site metadata table. Required columns are site,
// latitude, longitude and hub_height. Optional: num_turbines,
// photo_timestamp, photo_file, site_x, site_y and huso (or zone). Rows with a
// malformed zone or hub height are skipped and reported by Skipped.
func LoadSites(r io.Reader, defaultZone geo.Zone) (*Registry, error) {
	t, err := readTable(r, "site", "site", "latitude", "longitude", "hub_height")
	if err != nil {
		return nil, err
	}

	reg := &Registry{sites: make(map[string]*Site, len(t.rows))}
	for i, row := range t.rows {
		s, err := parseSite(t, row, defaultZone)
		if err != nil {
			reg.skipped = append(reg.skipped, fmt.Errorf("row %d: %w", i+2, err))
			continue
		}
		if _, dup := reg.sites[s.ID]; dup {
			reg.skipped = append(reg.skipped, fmt.Errorf("row %d: duplicate site %q", i+2, s.ID))
			continue
		}
		reg.sites[s.ID] = s
		reg.order = append(reg.order, s.ID)
	}

	if len(reg.sites) == 0 {
		return nil, errors.Newf("site table has no usable rows").
			Component("site").
			Category(errors.CategoryReferenceData).
			Context("rows", len(t.rows)).
			Build()
	}
	return reg, nil
}

func parseSite(t *table, row []string, defaultZone geo.Zone) (*Site, error) {
	s := &Site{ID: t.get(row, "site"), Zone: defaultZone}
	if s.ID == "" {
		return nil, configError(fmt.Errorf("empty site id"), "")
	}

	var err error
	if s.Latitude, err = t.float(row, "latitude"); err != nil {
		return nil, configError(err, s.ID)
	}
	if s.Longitude, err = t.float(row, "longitude"); err != nil {
		return nil, configError(err, s.ID)
	}

	if z := t.get(row, "huso", "zone"); z != "" {
		if s.Zone, err = geo.ParseZone(z); err != nil {
			return nil, configError(err, s.ID)
		}
	}

	if s.HubHeights, err = ParseHubHeight(t.get(row, "hub_height"), t.get(row, "num_turbines")); err != nil {
		return nil, configError(err, s.ID)
	}

	if ts := t.get(row, "photo_timestamp"); ts != "" {
		if s.PhotoTime, err = ParseTimestamp(ts); err != nil {
			return nil, configError(err, s.ID)
		}
	}
	s.PhotoFile = t.get(row, "photo_file")

	// prefer the stored projected centre, it matches the imagery exactly
	x, errX := t.float(row, "site_x")
	y, errY := t.float(row, "site_y")
	if errX == nil && errY == nil {
		s.Position = geo.Projected{X: x, Y: y, Zone: s.Zone}
	} else if s.Position, err = geo.GeodeticToProjected(s.Latitude, s.Longitude, s.Zone); err != nil {
		return nil, configError(err, s.ID)
	}

	return s, nil
}

func configError(err error, siteID string) error {
	return errors.ConfigurationError(err, "site", siteID, -1)
}

// Get returns a site by identifier
func (r *Registry) Get(id string) (*Site, bool) {
	s, ok := r.sites[id]
	return s, ok
}

// IDs returns site identifiers in table order
func (r *Registry) IDs() []string {
	return r.order
}

// Len returns the number of loaded sites
func (r *Registry) Len() int { return len(r.sites) }

// Skipped returns the reasons rows were left out
func (r *Registry) Skipped() []error { return r.skipped }

// Orthophoto describes the orthophoto mosaic a site's imagery was cut from
type Orthophoto struct {
	Site       string
	Resolution float64       // metres per pixel
	Corner     geo.Projected // top-left corner of the mosaic
	HasCorner  bool
}

// Orthophotos holds orthophoto geometry by site
type Orthophotos struct {
	bySite  map[string]Orthophoto
	skipped []error
}

// LoadOrthophotos reads the orthophoto table: site, resolution and optionally
// corner_x, corner_y and huso (or zone).
func LoadOrthophotos(r io.Reader, defaultZone geo.Zone) (*Orthophotos, error) {
	t, err := readTable(r, "site", "site", "resolution")
	if err != nil {
		return nil, err
	}

	out := &Orthophotos{bySite: make(map[string]Orthophoto, len(t.rows))}
	for i, row := range t.rows {
		o, err := parseOrthophoto(t, row, defaultZone)
		if err != nil {
			out.skipped = append(out.skipped, fmt.Errorf("row %d: %w", i+2, err))
			continue
		}
		out.bySite[o.Site] = o
	}
	return out, nil
}

func parseOrthophoto(t *table, row []string, defaultZone geo.Zone) (Orthophoto, error) {
	o := Orthophoto{Site: t.get(row, "site"), Corner: geo.Projected{Zone: defaultZone}}

	var err error
	if o.Resolution, err = t.float(row, "resolution"); err != nil {
		return Orthophoto{}, configError(err, o.Site)
	}
	if o.Resolution <= 0 || math.IsNaN(o.Resolution) {
		return Orthophoto{}, configError(fmt.Errorf("resolution must be positive, got %g", o.Resolution), o.Site)
	}

	if z := t.get(row, "huso", "zone"); z != "" {
		if o.Corner.Zone, err = geo.ParseZone(z); err != nil {
			return Orthophoto{}, configError(err, o.Site)
		}
	}

	x, errX := t.float(row, "corner_x")
	y, errY := t.float(row, "corner_y")
	if errX == nil && errY == nil {
		o.Corner.X, o.Corner.Y = x, y
		o.HasCorner = true
	}
	return o, nil
}

// Get returns the orthophoto of a site
func (o *Orthophotos) Get(site string) (Orthophoto, bool) {
	v, ok := o.bySite[site]
	return v, ok
}

// Skipped returns the reasons rows were left out
func (o *Orthophotos) Skipped() []error { return o.skipped }
