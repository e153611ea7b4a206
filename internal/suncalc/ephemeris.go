package suncalc

import (
	"fmt"
	"math"
	"time"

	"github.com/tphakala/hubheight/internal/errors"
)

// ErrOutsideEphemeris is returned for timestamps outside the precomputed table
var ErrOutsideEphemeris = errors.NewStd("timestamp outside ephemeris range")

const (
	deg2rad = math.Pi / 180
	rad2deg = 180 / math.Pi

	julianUnixEpoch = 2440587.5 // Julian date of 1970-01-01T00:00Z
	julianJ2000     = 2451545.0
	secondsPerDay   = 86400.0
)

// Position is the sun's place in the local sky
type Position struct {
	Altitude float64 // degrees above the horizon, negative below
	Azimuth  float64 // degrees clockwise from true north, [0, 360)
}

// equatorial holds apparent right ascension and declination in degrees
type equatorial struct {
	ra, dec float64
}

// Ephemeris is a precomputed table of the sun's apparent equatorial
// coordinates sampled at a fixed step. Lookups interpolate linearly between
// samples. It is read-only after construction and safe for concurrent use.
type Ephemeris struct {
	start time.Time
	step  time.Duration
	ra    []float64 // unwrapped, so neighbouring samples never jump by 360°
	dec   []float64
}

// NewEphemeris tabulates the sun from January 1st of startYear to the end of endYear
func NewEphemeris(startYear, endYear int, step time.Duration) (*Ephemeris, error) {
	if endYear < startYear {
		return nil, fmt.Errorf("ephemeris end year %d before start year %d", endYear, startYear)
	}
	if step <= 0 {
		return nil, fmt.Errorf("ephemeris step must be positive, got %s", step)
	}

	start := time.Date(startYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(endYear+1, time.January, 1, 0, 0, 0, 0, time.UTC)
	n := int(end.Sub(start)/step) + 1
	if end.Sub(start)%step != 0 {
		n++
	}

	e := &Ephemeris{
		start: start,
		step:  step,
		ra:    make([]float64, n),
		dec:   make([]float64, n),
	}

	prev := 0.0
	for i := range n {
		eq := sunEquatorial(julianDate(start.Add(time.Duration(i) * step)))
		ra := eq.ra
		if i > 0 {
			for ra-prev > 180 {
				ra -= 360
			}
			for ra-prev < -180 {
				ra += 360
			}
		}
		e.ra[i] = ra
		e.dec[i] = eq.dec
		prev = ra
	}

	return e, nil
}

// Start returns the first tabulated instant
func (e *Ephemeris) Start() time.Time { return e.start }

// End returns the last tabulated instant
func (e *Ephemeris) End() time.Time {
	return e.start.Add(time.Duration(len(e.ra)-1) * e.step)
}

// Covers reports whether t lies inside the table
func (e *Ephemeris) Covers(t time.Time) bool {
	return !t.Before(e.start) && !t.After(e.End())
}

// Position returns sun altitude and azimuth for an observer at lat/lon (degrees) at t
func (e *Ephemeris) Position(lat, lon float64, t time.Time) (Position, error) {
	if !e.Covers(t) {
		return Position{}, fmt.Errorf("%w: %s not in [%s, %s]", ErrOutsideEphemeris,
			t.UTC().Format(time.RFC3339), e.start.Format(time.RFC3339), e.End().Format(time.RFC3339))
	}
	return horizontal(lat, lon, julianDate(t), e.lookup(t)), nil
}

func (e *Ephemeris) lookup(t time.Time) equatorial {
	offset := t.Sub(e.start)
	i := int(offset / e.step)
	if i >= len(e.ra)-1 {
		return equatorial{ra: e.ra[len(e.ra)-1], dec: e.dec[len(e.dec)-1]}
	}
	frac := float64(offset-time.Duration(i)*e.step) / float64(e.step)

	return equatorial{
		ra:  e.ra[i] + frac*(e.ra[i+1]-e.ra[i]),
		dec: e.dec[i] + frac*(e.dec[i+1]-e.dec[i]),
	}
}

// SunPosition evaluates the solar model directly, without a table
func SunPosition(lat, lon float64, t time.Time) Position {
	jd := julianDate(t)
	return horizontal(lat, lon, jd, sunEquatorial(jd))
}

func julianDate(t time.Time) float64 {
	return float64(t.UnixNano())/1e9/secondsPerDay + julianUnixEpoch
}

// sunEquatorial computes the sun's apparent right ascension and declination
// with the low precision solar theory (about 0.01° accuracy).
func sunEquatorial(jd float64) equatorial {
	T := (jd - julianJ2000) / 36525

	meanLongitude := 280.46646 + 36000.76983*T + 0.0003032*T*T
	meanAnomaly := (357.52911 + 35999.05029*T - 0.0001537*T*T) * deg2rad

	center := (1.914602-0.004817*T-0.000014*T*T)*math.Sin(meanAnomaly) +
		(0.019993-0.000101*T)*math.Sin(2*meanAnomaly) +
		0.000289*math.Sin(3*meanAnomaly)

	// nutation and aberration
	omega := (125.04 - 1934.136*T) * deg2rad
	lambda := (meanLongitude + center - 0.00569 - 0.00478*math.Sin(omega)) * deg2rad

	obliquity := 23 + 26.0/60 + 21.448/3600 - (46.8150*T+0.00059*T*T-0.001813*T*T*T)/3600
	epsilon := (obliquity + 0.00256*math.Cos(omega)) * deg2rad

	ra := math.Atan2(math.Cos(epsilon)*math.Sin(lambda), math.Cos(lambda))
	dec := math.Asin(math.Sin(epsilon) * math.Sin(lambda))

	return equatorial{ra: ra * rad2deg, dec: dec * rad2deg}
}

// horizontal converts equatorial coordinates to altitude/azimuth. No
// atmospheric refraction is applied.
func horizontal(lat, lon, jd float64, eq equatorial) Position {
	T := (jd - julianJ2000) / 36525
	gmst := 280.46061837 + 360.98564736629*(jd-julianJ2000) + 0.000387933*T*T - T*T*T/38710000

	hourAngle := (gmst + lon - eq.ra) * deg2rad
	phi := lat * deg2rad
	delta := eq.dec * deg2rad

	sinAlt := math.Sin(phi)*math.Sin(delta) + math.Cos(phi)*math.Cos(delta)*math.Cos(hourAngle)
	altitude := math.Asin(math.Max(-1, math.Min(1, sinAlt))) * rad2deg

	// measured from south, westward positive
	az := math.Atan2(math.Sin(hourAngle), math.Cos(hourAngle)*math.Sin(phi)-math.Tan(delta)*math.Cos(phi))
	azimuth := math.Mod(az*rad2deg+180, 360)
	if azimuth < 0 {
		azimuth += 360
	}

	return Position{Altitude: altitude, Azimuth: azimuth}
}
