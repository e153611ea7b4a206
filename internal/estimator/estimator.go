// Package estimator turns a turbine's detections into a hub height estimate:
// shadow vector, sun altitude at capture time and a terrain correction.
package estimator

import (
	"math"
	"time"

	"github.com/tphakala/hubheight/internal/geo"
	"github.com/tphakala/hubheight/internal/logger"
	"github.com/tphakala/hubheight/internal/shadow"
	"github.com/tphakala/hubheight/internal/site"
	"github.com/tphakala/hubheight/internal/suncalc"
)

// SunSource returns the sun's position for an observer
type SunSource interface {
	Position(lat, lon float64, t time.Time) (suncalc.Position, error)
}

// ElevationSource returns terrain height at a projected point, NaN when unknown
type ElevationSource interface {
	ElevationAt(p geo.Projected) float64
}

// DaylightFunc reports whether t lies between sunrise and sunset at a site
type DaylightFunc func(s *site.Site, t time.Time) (bool, error)

// Input is everything known about one turbine before estimation
type Input struct {
	Site       *site.Site
	Turbine    int
	Detections []shadow.Detection

	ImageFound bool
	Crop       geo.Crop // Width, Height and Resolution must be set when ImageFound
	CropPlaced bool     // Crop.Corner is known

	PhotoTime time.Time // zero when no reference photo is available
}

// Estimator is stateless apart from its collaborators and safe for concurrent
// use. Elevation lookups go through the caller's ElevationSource so each
// worker can own its tile cache.
type Estimator struct {
	sun      SunSource
	daylight DaylightFunc
	log      logger.Logger
}

// New creates an Estimator. daylight may be nil to skip the sunrise/sunset cross-check.
func New(sun SunSource, daylight DaylightFunc, log logger.Logger) *Estimator {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Estimator{sun: sun, daylight: daylight, log: log.Module("estimator")}
}

// Estimate runs the estimation steps for one turbine. Every early exit yields
// an unmeasured Outcome with a reason; nothing here fails the batch.
func (e *Estimator) Estimate(in Input, elevation ElevationSource) Outcome {
	s := in.Site
	counts := shadow.Count(in.Detections)
	log := e.log.With(logger.String("site", s.ID), logger.Int("turbine", in.Turbine))
	actual := s.ActualHubHeight()

	if !counts.Measurable() {
		log.Debug("Turbine not measurable",
			logger.String("reason", string(ReasonDetectionCountMismatch)),
			logger.Int("bases", counts.Bases),
			logger.Int("hub_shadows", counts.HubShadows))
		return Unmeasurable(s.ID, in.Turbine, counts, actual, ReasonDetectionCountMismatch)
	}

	if !in.ImageFound || in.Crop.Width <= 0 || in.Crop.Height <= 0 || in.Crop.Resolution <= 0 {
		log.Info("Turbine image missing", logger.String("reason", string(ReasonImageMissing)))
		return Unmeasurable(s.ID, in.Turbine, counts, actual, ReasonImageMissing)
	}

	if in.PhotoTime.IsZero() {
		log.Info("No reference photo timestamp", logger.String("reason", string(ReasonNoNearbyPhoto)))
		return Unmeasurable(s.ID, in.Turbine, counts, actual, ReasonNoNearbyPhoto)
	}

	sun, err := e.sun.Position(s.Latitude, s.Longitude, in.PhotoTime)
	if err != nil {
		log.Warn("Sun position unavailable",
			logger.String("reason", string(ReasonNoNearbyPhoto)),
			logger.Time("photo_time", in.PhotoTime),
			logger.Error(err))
		return Unmeasurable(s.ID, in.Turbine, counts, actual, ReasonNoNearbyPhoto)
	}
	if sun.Altitude <= 0 {
		log.Info("Sun below horizon at capture time",
			logger.String("reason", string(ReasonSunBelowHorizon)),
			logger.Float64("altitude", sun.Altitude))
		out := Unmeasurable(s.ID, in.Turbine, counts, actual, ReasonSunBelowHorizon)
		out.PhotoTime = in.PhotoTime
		out.SolarAltitude, out.SolarAzimuth = sun.Altitude, sun.Azimuth
		return out
	}
	e.checkDaylight(log, s, in.PhotoTime)

	base, _ := shadow.Best(in.Detections, shadow.ClassBase)
	tip, _ := shadow.Best(in.Detections, shadow.ClassHubShadow)
	length, shadowAz := shadow.Vector(
		shadow.Point{X: base.X, Y: base.Y},
		shadow.Point{X: tip.X, Y: tip.Y},
		in.Crop.Width, in.Crop.Height, in.Crop.Resolution)

	out := Outcome{
		Site:          s.ID,
		Turbine:       in.Turbine,
		Counts:        counts,
		Measured:      true,
		PhotoTime:     in.PhotoTime,
		ShadowLength:  length,
		ShadowAzimuth: shadowAz,
		SolarAltitude: sun.Altitude,
		SolarAzimuth:  sun.Azimuth,
		RawHeight:     math.Tan(sun.Altitude*math.Pi/180) * length,
		ActualHeight:  actual,
		BaseLat:       math.NaN(),
		BaseLon:       math.NaN(),
		TipLat:        math.NaN(),
		TipLon:        math.NaN(),
		BaseElevation: math.NaN(),
		TipElevation:  math.NaN(),
	}

	if in.CropPlaced {
		out.Base = in.Crop.Ground(base.X, base.Y)
		out.Tip = in.Crop.Ground(tip.X, tip.Y)
		if lat, lon, err := geo.ProjectedToGeodetic(out.Base.X, out.Base.Y, out.Base.Zone); err == nil {
			out.BaseLat, out.BaseLon = lat, lon
		}
		if lat, lon, err := geo.ProjectedToGeodetic(out.Tip.X, out.Tip.Y, out.Tip.Zone); err == nil {
			out.TipLat, out.TipLon = lat, lon
		}
		if elevation != nil {
			out.BaseElevation = elevation.ElevationAt(out.Base)
			out.TipElevation = elevation.ElevationAt(out.Tip)
		}
	}
	if !math.IsNaN(out.BaseElevation) && !math.IsNaN(out.TipElevation) {
		out.Correction = out.BaseElevation - out.TipElevation
		out.Corrected = true
	}

	out.Height = round1(out.RawHeight - out.Correction)
	out.Error = out.Height - actual
	// plain difference, a bearing pair straddling north is not wrapped
	out.AzimuthDiff = math.Abs(math.Round(shadowAz) - math.Round(sun.Azimuth))

	log.Debug("Estimated hub height",
		logger.Float64("shadow_length", out.ShadowLength),
		logger.Float64("shadow_azimuth", out.ShadowAzimuth),
		logger.Float64("solar_altitude", out.SolarAltitude),
		logger.Float64("solar_azimuth", out.SolarAzimuth),
		logger.Float64("correction", out.Correction),
		logger.Bool("terrain_corrected", out.Corrected),
		logger.Float64("height", out.Height),
		logger.Float64("actual", actual))

	return out
}

func (e *Estimator) checkDaylight(log logger.Logger, s *site.Site, t time.Time) {
	if e.daylight == nil {
		return
	}
	day, err := e.daylight(s, t)
	if err != nil {
		log.Debug("Daylight check failed", logger.Error(err))
		return
	}
	if !day {
		log.Warn("Photo timestamp outside sunrise and sunset while the sun is above the horizon",
			logger.Time("photo_time", t))
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
