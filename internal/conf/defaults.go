// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"

	"github.com/tphakala/hubheight/internal/logger"
)

// setDefaultConfig mirrors config.yaml so a partial user config still works
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("data.sites", "data/sites.csv")
	v.SetDefault("data.orthophotos", "data/orthophotos.csv")
	v.SetDefault("data.crops", "")
	v.SetDefault("data.photos", "")
	v.SetDefault("data.images", "data/images")
	v.SetDefault("data.labels", "data/labels/{run}")

	v.SetDefault("elevation.coverage", "data/elevation/coverage.geojson")
	v.SetDefault("elevation.tiles", "data/elevation/tiles")
	v.SetDefault("elevation.filekey", "FICHERO")
	v.SetDefault("elevation.zonekey", "HUSO")
	v.SetDefault("elevation.zone", 30)

	v.SetDefault("ephemeris.start", 1950)
	v.SetDefault("ephemeris.end", 2050)
	v.SetDefault("ephemeris.step", 6*time.Hour)

	v.SetDefault("estimate.run", "test")
	v.SetDefault("estimate.workers", 0)
	v.SetDefault("estimate.excludesites", []string{"ourol"})
	v.SetDefault("estimate.maxazimuthdiff", 10.0)
	v.SetDefault("estimate.photoradius", 3100.0)
	v.SetDefault("estimate.suncachettl", 10*time.Minute)

	v.SetDefault("validation.lowerbound", -5.0)
	v.SetDefault("validation.upperbound", 5.0)
	v.SetDefault("validation.alpha", 0.05)

	v.SetDefault("output.dir", "results")
	v.SetDefault("output.format", "csv")
	v.SetDefault("output.metricsfile", "")

	v.SetDefault("logging.defaultlevel", logger.DefaultLogLevel)
	v.SetDefault("logging.timezone", "Local")
	v.SetDefault("logging.console.enabled", logger.DefaultConsoleEnabled)
	v.SetDefault("logging.console.level", logger.DefaultLogLevel)
	v.SetDefault("logging.fileoutput.enabled", logger.DefaultFileEnabled)
	v.SetDefault("logging.fileoutput.path", logger.DefaultLogPath)
	v.SetDefault("logging.fileoutput.level", logger.DefaultLogLevel)
}
