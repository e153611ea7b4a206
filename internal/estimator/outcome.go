package estimator

import (
	"math"
	"time"

	"github.com/tphakala/hubheight/internal/geo"
	"github.com/tphakala/hubheight/internal/shadow"
)

// Reason explains why a turbine could not be measured
type Reason string

const (
	ReasonNone                   Reason = ""
	ReasonDetectionCountMismatch Reason = "detection-count-mismatch"
	ReasonImageMissing           Reason = "image-missing"
	ReasonNoNearbyPhoto          Reason = "no-nearby-photo"
	ReasonSunBelowHorizon        Reason = "sun-below-horizon"
	ReasonSiteConfig             Reason = "site-config"
)

// Outcome is the result for one turbine. Either Measured is true and the
// geometry fields are set, or Reason says why not. Geometry fields of an
// unmeasured outcome are NaN.
type Outcome struct {
	Site    string
	Turbine int
	Counts  shadow.Counts

	Measured bool
	Reason   Reason

	PhotoTime     time.Time
	ShadowLength  float64 // metres
	ShadowAzimuth float64 // degrees from north
	SolarAltitude float64 // degrees
	SolarAzimuth  float64 // degrees from north

	RawHeight  float64 // tan(altitude) * shadow length
	Correction float64 // base elevation minus tip elevation, 0 when unknown
	Corrected  bool    // both elevations were known
	Height     float64 // RawHeight - Correction, one decimal

	AzimuthDiff float64 // |round(shadow azimuth) - round(solar azimuth)|

	ActualHeight float64 // nominal hub height, NaN when unknown
	Error        float64 // Height - ActualHeight

	Base, Tip                   geo.Projected // zero when the crop is not placed
	BaseLat, BaseLon            float64
	TipLat, TipLon              float64
	BaseElevation, TipElevation float64
}

// Unmeasurable builds an outcome that carries only identity, counts and reason
func Unmeasurable(siteID string, turbine int, counts shadow.Counts, actual float64, reason Reason) Outcome {
	nan := math.NaN()
	return Outcome{
		Site:          siteID,
		Turbine:       turbine,
		Counts:        counts,
		Reason:        reason,
		ShadowLength:  nan,
		ShadowAzimuth: nan,
		SolarAltitude: nan,
		SolarAzimuth:  nan,
		RawHeight:     nan,
		Correction:    nan,
		Height:        nan,
		AzimuthDiff:   nan,
		ActualHeight:  actual,
		Error:         nan,
		BaseLat:       nan,
		BaseLon:       nan,
		TipLat:        nan,
		TipLon:        nan,
		BaseElevation: nan,
		TipElevation:  nan,
	}
}

// AbsError returns |Error|
func (o Outcome) AbsError() float64 {
	return math.Abs(o.Error)
}
