// env.go - Environment variable configuration and validation
package conf

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/tphakala/hubheight/internal/geo"
)

// envPrefix is prepended to every environment variable, HUBHEIGHT_ESTIMATE_RUN etc.
const envPrefix = "HUBHEIGHT"

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns all environment variable bindings with validation
func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", "HUBHEIGHT_DEBUG", validateEnvBool},

		// Inputs
		{"data.sites", "HUBHEIGHT_DATA_SITES", nil},
		{"data.images", "HUBHEIGHT_DATA_IMAGES", nil},
		{"data.labels", "HUBHEIGHT_DATA_LABELS", nil},
		{"elevation.tiles", "HUBHEIGHT_ELEVATION_TILES", nil},
		{"elevation.zone", "HUBHEIGHT_ELEVATION_ZONE", validateEnvZone},

		// Run
		{"estimate.run", "HUBHEIGHT_ESTIMATE_RUN", nil},
		{"estimate.workers", "HUBHEIGHT_ESTIMATE_WORKERS", validateEnvWorkers},
		{"estimate.maxazimuthdiff", "HUBHEIGHT_ESTIMATE_MAXAZIMUTHDIFF", validateEnvNonNegative},
		{"estimate.photoradius", "HUBHEIGHT_ESTIMATE_PHOTORADIUS", validateEnvNonNegative},

		// Validation band
		{"validation.lowerbound", "HUBHEIGHT_VALIDATION_LOWERBOUND", validateEnvFloat},
		{"validation.upperbound", "HUBHEIGHT_VALIDATION_UPPERBOUND", validateEnvFloat},
		{"validation.alpha", "HUBHEIGHT_VALIDATION_ALPHA", validateEnvAlpha},

		{"output.dir", "HUBHEIGHT_OUTPUT_DIR", nil},
	}
}

// bindEnvVars sets up environment variable bindings with validation (internal)
func bindEnvVars(v *viper.Viper) error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		if err := v.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate != nil {
			if envValue := os.Getenv(binding.EnvVar); envValue != "" {
				if err := binding.Validate(envValue); err != nil {
					warnings = append(warnings, fmt.Sprintf("Invalid %s value '%s': %v", binding.EnvVar, envValue, err))
				}
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}

	return nil
}

// Environment variable validation functions

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("must be true or false")
	}
	return nil
}

func validateEnvFloat(value string) error {
	if _, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err != nil {
		return fmt.Errorf("must be a number")
	}
	return nil
}

func validateEnvNonNegative(value string) error {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fmt.Errorf("must be a number")
	}
	if f < 0 {
		return fmt.Errorf("must not be negative, got %g", f)
	}
	return nil
}

func validateEnvAlpha(value string) error {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fmt.Errorf("must be a number")
	}
	if f <= 0 || f >= 1 {
		return fmt.Errorf("must be between 0 and 1 exclusive, got %g", f)
	}
	return nil
}

func validateEnvWorkers(value string) error {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("must be an integer")
	}
	if n < 0 {
		return fmt.Errorf("must not be negative, got %d", n)
	}
	return nil
}

func validateEnvZone(value string) error {
	_, err := geo.ParseZone(value)
	return err
}

// configureEnvironmentVariables sets up environment variable support for Viper
func configureEnvironmentVariables(v *viper.Viper) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return bindEnvVars(v)
}
