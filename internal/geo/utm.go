// Package geo converts between geographic coordinates, ETRS89 / UTM projected
// coordinates and pixel offsets inside geo-referenced image crops.
//
// Projections go through github.com/wroge/wgs84 using the EPSG:258zz
// definitions. ETRS89 and WGS84 share a zero datum shift there, so EPSG:4326
// stands in for geographic ETRS89.
package geo

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/wroge/wgs84"

	"github.com/tphakala/hubheight/internal/errors"
)

// ErrInvalidZone is returned for zone codes outside the supported set
var ErrInvalidZone = errors.NewStd("invalid projection zone")

const geographicEPSG = 4326

// Zone identifies a northern hemisphere UTM zone (EPSG:258zz for ETRS89)
type Zone int

// Supported zones. The Iberian orthophoto mosaics use 29, 30 and 31; 28 covers
// the Canary Islands.
var supportedZones = map[Zone]bool{28: true, 29: true, 30: true, 31: true}

// transforms holds forward and inverse functions per supported zone
type transforms struct {
	forward wgs84.Func
	inverse wgs84.Func
}

var zoneTransforms = buildTransforms()

func buildTransforms() map[Zone]transforms {
	epsg := wgs84.EPSG()
	geographic := epsg.Code(geographicEPSG)

	out := make(map[Zone]transforms, len(supportedZones))
	for z := range supportedZones {
		projected := epsg.Code(z.EPSG())
		out[z] = transforms{
			forward: geographic.To(projected),
			inverse: projected.To(geographic),
		}
	}
	return out
}
// ParseZone parses a zone code such as "30", "30.0" or "EPSG:25830"
func ParseZone(s string) (Zone, error) {
	raw := strings.TrimSpace(s)
	code := strings.TrimPrefix(strings.ToUpper(raw), "EPSG:")
	if len(code) == 5 && strings.HasPrefix(code, "258") {
		code = code[3:]
	}

	f, err := strconv.ParseFloat(code, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidZone, raw)
	}
	z := Zone(f)
	if err := z.Validate(); err != nil {
		return 0, err
	}
	return z, nil
}

// Validate reports whether the zone is supported
func (z Zone) Validate() error {
	if !supportedZones[z] {
		return fmt.Errorf("%w: %d", ErrInvalidZone, int(z))
	}
	return nil
}

// EPSG returns the ETRS89 EPSG code of the zone
func (z Zone) EPSG() int {
	return 25800 + int(z)
}

func (z Zone) String() string {
	return fmt.Sprintf("EPSG:%d", z.EPSG())
}

// Projected is a point in a zone's projected coordinate system, in metres
type Projected struct {
	X, Y float64
	Zone Zone
}

// GeodeticToProjected projects latitude/longitude in degrees into the zone
func GeodeticToProjected(lat, lon float64, zone Zone) (Projected, error) {
	if err := zone.Validate(); err != nil {
		return Projected{}, err
	}
	if !finite(lat, lon) || math.Abs(lat) > 90 {
		return Projected{}, fmt.Errorf("invalid coordinate (%g, %g)", lat, lon)
	}

	x, y, _ := zoneTransforms[zone].forward(lon, lat, 0)
	if !finite(x, y) {
		return Projected{}, fmt.Errorf("coordinate (%g, %g) cannot be projected to %s", lat, lon, zone)
	}
	return Projected{X: x, Y: y, Zone: zone}, nil
}

// ProjectedToGeodetic returns latitude/longitude in degrees for a projected point
func ProjectedToGeodetic(x, y float64, zone Zone) (lat, lon float64, err error) {
	if err := zone.Validate(); err != nil {
		return 0, 0, err
	}
	if !finite(x, y) {
		return 0, 0, fmt.Errorf("invalid projected coordinate (%g, %g)", x, y)
	}

	lon, lat, _ = zoneTransforms[zone].inverse(x, y, 0)
	if !finite(lat, lon) {
		return 0, 0, fmt.Errorf("projected coordinate (%g, %g) has no position in %s", x, y, zone)
	}
	return lat, lon, nil
}

// Reproject moves a projected point into another zone
func Reproject(p Projected, to Zone) (Projected, error) {
	if p.Zone == to {
		return p, nil
	}
	lat, lon, err := ProjectedToGeodetic(p.X, p.Y, p.Zone)
	if err != nil {
		return Projected{}, err
	}
	return GeodeticToProjected(lat, lon, to)
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
