package analysis

import (
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/tphakala/hubheight/internal/observability/metrics"
	"github.com/tphakala/hubheight/internal/site"
	"github.com/tphakala/hubheight/internal/suncalc"
)

// sunSource evaluates the shared ephemeris and counts evaluations
type sunSource struct {
	ephemeris *suncalc.Ephemeris
	metrics   *metrics.SunCalcMetrics
}

func (s sunSource) Position(lat, lon float64, t time.Time) (suncalc.Position, error) {
	pos, err := s.ephemeris.Position(lat, lon, t)
	if s.metrics != nil {
		if err != nil {
			s.metrics.RecordPosition(metrics.StatusError)
		} else {
			s.metrics.RecordPosition(metrics.StatusSuccess)
		}
	}
	return pos, err
}

// daylightChecker memoises one sun calculator per site. The cache has no
// janitor goroutine; expired entries are dropped on access.
type daylightChecker struct {
	calcs   *cache.Cache
	metrics *metrics.SunCalcMetrics
}

func newDaylightChecker(ttl time.Duration, m *metrics.SunCalcMetrics) *daylightChecker {
	return &daylightChecker{
		calcs:   cache.New(ttl, 0),
		metrics: m,
	}
}

func (d *daylightChecker) calculator(s *site.Site) *suncalc.SunCalc {
	if v, ok := d.calcs.Get(s.ID); ok {
		if d.metrics != nil {
			d.metrics.RecordCacheHit(metrics.OpSunEvents)
		}
		return v.(*suncalc.SunCalc)
	}
	if d.metrics != nil {
		d.metrics.RecordCacheMiss(metrics.OpSunEvents)
	}
	sc := suncalc.NewSunCalc(s.Latitude, s.Longitude)
	d.calcs.SetDefault(s.ID, sc)
	return sc
}

// IsDaylight implements estimator.DaylightFunc
func (d *daylightChecker) IsDaylight(s *site.Site, t time.Time) (bool, error) {
	day, err := d.calculator(s).IsDaylight(t)
	if err == nil && !day && d.metrics != nil {
		d.metrics.RecordDaylightMismatch()
	}
	return day, err
}
