// conf/validate.go

package conf

import (
	"fmt"
	"strings"
	"time"

	"github.com/tphakala/hubheight/internal/geo"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	validators := []func(*Settings) error{
		validateDataSettings,
		validateElevationSettings,
		validateEphemerisSettings,
		validateEstimateSettings,
		validateValidationSettings,
		validateOutputSettings,
	}
	for _, validate := range validators {
		if err := validate(settings); err != nil {
			ve.Errors = append(ve.Errors, err.Error())
		}
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateDataSettings(s *Settings) error {
	var errs []string
	if s.Data.Sites == "" {
		errs = append(errs, "data.sites must be set")
	}
	if s.Data.Orthophotos == "" {
		errs = append(errs, "data.orthophotos must be set")
	}
	if s.Data.Labels == "" {
		errs = append(errs, "data.labels must be set")
	}
	if s.Data.Images == "" {
		errs = append(errs, "data.images must be set")
	}
	return joinErrors(errs)
}

func validateElevationSettings(s *Settings) error {
	var errs []string
	if err := geo.Zone(s.Elevation.Zone).Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("elevation.zone: %v", err))
	}
	if s.Elevation.Coverage != "" && s.Elevation.FileKey == "" {
		errs = append(errs, "elevation.filekey must be set when a coverage index is configured")
	}
	return joinErrors(errs)
}

func validateEphemerisSettings(s *Settings) error {
	var errs []string
	if s.Ephemeris.Start >= s.Ephemeris.End {
		errs = append(errs, fmt.Sprintf("ephemeris.start (%d) must be before ephemeris.end (%d)", s.Ephemeris.Start, s.Ephemeris.End))
	}
	if s.Ephemeris.Step <= 0 || s.Ephemeris.Step > 24*time.Hour {
		errs = append(errs, fmt.Sprintf("ephemeris.step must be between 0 and 24h, got %s", s.Ephemeris.Step))
	}
	return joinErrors(errs)
}

func validateEstimateSettings(s *Settings) error {
	var errs []string
	if s.Estimate.Run == "" {
		errs = append(errs, "estimate.run must be set")
	}
	if s.Estimate.Workers < 0 {
		errs = append(errs, "estimate.workers must not be negative")
	}
	if s.Estimate.MaxAzimuthDiff < 0 {
		errs = append(errs, "estimate.maxazimuthdiff must not be negative")
	}
	if s.Estimate.PhotoRadius < 0 {
		errs = append(errs, "estimate.photoradius must not be negative")
	}
	return joinErrors(errs)
}

func validateValidationSettings(s *Settings) error {
	var errs []string
	if s.Validation.LowerBound >= s.Validation.UpperBound {
		errs = append(errs, fmt.Sprintf("validation.lowerbound (%g) must be below validation.upperbound (%g)",
			s.Validation.LowerBound, s.Validation.UpperBound))
	}
	if s.Validation.Alpha <= 0 || s.Validation.Alpha >= 1 {
		errs = append(errs, fmt.Sprintf("validation.alpha must be between 0 and 1 exclusive, got %g", s.Validation.Alpha))
	}
	return joinErrors(errs)
}

func validateOutputSettings(s *Settings) error {
	switch s.Output.Format {
	case "csv", "table":
		return nil
	default:
		return fmt.Errorf("output.format must be csv or table, got %q", s.Output.Format)
	}
}

func joinErrors(errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%s", strings.Join(errs, "; "))
}
