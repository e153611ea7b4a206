// Package conf loads hubheight settings from the embedded defaults, an optional
// config.yaml, .env files and HUBHEIGHT_* environment variables.
package conf

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/tphakala/hubheight/internal/logger"
)

//go:embed config.yaml
var configFiles embed.FS

// DataSettings points at the reference tables and per-run inputs
type DataSettings struct {
	Sites       string // site metadata CSV
	Orthophotos string // per-site orthophoto resolution and corner CSV
	Crops       string // per-turbine crop CSV, optional
	Photos      string // photo centres with timestamps CSV, optional
	Images      string // directory holding turbine crop images
	Labels      string // label directory, "{run}" is replaced with the run name
}

// ElevationSettings configures the elevation tile cache
type ElevationSettings struct {
	Coverage string // GeoJSON tile coverage index
	Tiles    string // directory holding ASCII grid tiles
	FileKey  string // feature property holding the tile filename
	ZoneKey  string // feature property holding the tile projection zone, optional
	Zone     int    // projection zone of tiles without a zone property
}

// EphemerisSettings configures the precomputed sun table
type EphemerisSettings struct {
	Start int           // first year covered
	End   int           // last year covered
	Step  time.Duration // sampling interval
}

// EstimateSettings configures a batch run
type EstimateSettings struct {
	Run            string        // run name, e.g. "train" or "test"
	Workers        int           // worker goroutines, 0 uses all CPUs
	ExcludeSites   []string      // sites skipped entirely
	MaxAzimuthDiff float64       // degrees, above this an estimate is an azimuth mismatch
	PhotoRadius    float64       // metres, search radius for the nearest reference photo
	SunCacheTTL    time.Duration // lifetime of memoised per-site sun geometry
}

// ValidationSettings holds the acceptance band of the statistical validator
type ValidationSettings struct {
	LowerBound float64 // metres
	UpperBound float64 // metres
	Alpha      float64 // significance level
}

// OutputSettings controls where and how results are written
type OutputSettings struct {
	Dir         string // output directory
	Format      string // "csv" or "table"
	MetricsFile string // prometheus textfile, empty disables
}

// Settings contains all configuration options for hubheight
type Settings struct {
	Debug bool // true to enable debug logging

	Data       DataSettings
	Elevation  ElevationSettings
	Ephemeris  EphemerisSettings
	Estimate   EstimateSettings
	Validation ValidationSettings
	Output     OutputSettings
	Logging    logger.LoggingConfig
}

// LabelsDir returns the label directory for a run
func (s *Settings) LabelsDir(run string) string {
	return strings.ReplaceAll(s.Data.Labels, "{run}", run)
}

// OutputPath returns the path of a per-run output file such as "turbine_predictions.csv"
func (s *Settings) OutputPath(run, name string) string {
	return filepath.Join(s.Output.Dir, run+"_"+name)
}

// dotenvFiles are loaded before the environment is read; existing variables win
var dotenvFiles = []string{".env", ".env.secret"}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads configuration from configFile, or from the default search paths
// when configFile is empty, and validates the result.
func Load(configFile string) (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	if err := loadDotenv(dotenvFiles...); err != nil {
		return nil, fmt.Errorf("error loading dotenv files: %w", err)
	}

	v, err := initViper(configFile)
	if err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// GetSettings returns the most recently loaded settings, nil before Load
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// initViper builds a viper instance with defaults, the config file and environment
func initViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaultConfig(v)

	if err := configureEnvironmentVariables(v); err != nil {
		GetLogger().Warn("Environment variable issues", logger.Error(err))
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
		return v, nil
	}

	v.SetConfigName("config")
	for _, path := range GetDefaultConfigPaths() {
		v.AddConfigPath(path)
	}

	err := v.ReadInConfig()
	if err == nil {
		GetLogger().Debug("Using config file", logger.String("path", v.ConfigFileUsed()))
		return v, nil
	}

	var notFound viper.ConfigFileNotFoundError
	if !errors.As(err, &notFound) {
		return nil, fmt.Errorf("fatal error reading config file: %w", err)
	}

	// No user config, fall back to the embedded one
	if err := v.ReadConfig(bytes.NewReader(DefaultConfig())); err != nil {
		return nil, fmt.Errorf("error reading embedded config: %w", err)
	}
	return v, nil
}

// DefaultConfig returns the embedded config.yaml
func DefaultConfig() []byte {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		// embedded at build time, cannot be missing
		panic(fmt.Sprintf("embedded config.yaml missing: %v", err))
	}
	return data
}

// loadDotenv loads each file that exists; variables already set are kept
func loadDotenv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("%s: %w", f, err)
		}
	}
	return nil
}
