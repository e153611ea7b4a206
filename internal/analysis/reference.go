package analysis

import (
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/tphakala/hubheight/internal/conf"
	"github.com/tphakala/hubheight/internal/elevation"
	"github.com/tphakala/hubheight/internal/geo"
	"github.com/tphakala/hubheight/internal/imagery"
	"github.com/tphakala/hubheight/internal/logger"
	"github.com/tphakala/hubheight/internal/site"
	"github.com/tphakala/hubheight/internal/suncalc"
)

// Reference is the read-only data shared by all workers
type Reference struct {
	Sites       *site.Registry
	Orthophotos *site.Orthophotos
	Crops       *imagery.Crops   // nil when no crop table is configured
	Photos      *site.PhotoIndex // nil when no photo table is configured
	Images      *imagery.Locator
	Coverage    *elevation.CoverageIndex // nil disables terrain correction
	Tiles       fs.FS
	Ephemeris   *suncalc.Ephemeris

	// Skipped counts rows dropped while loading, per table
	Skipped map[string]int
}

// LoadReference loads every reference table named in settings. Any failure
// here is fatal to the run.
func LoadReference(settings *conf.Settings, log logger.Logger) (*Reference, error) {
	log = getLogger(log)
	zone := geo.Zone(settings.Elevation.Zone)
	ref := &Reference{Skipped: make(map[string]int)}

	var err error
	if err = loadFile(settings.Data.Sites, "sites", func(r io.Reader) (err error) {
		ref.Sites, err = site.LoadSites(r, zone)
		return
	}); err != nil {
		return nil, err
	}
	ref.skipped(log, "sites", ref.Sites.Skipped())

	if err = loadFile(settings.Data.Orthophotos, "orthophotos", func(r io.Reader) (err error) {
		ref.Orthophotos, err = site.LoadOrthophotos(r, zone)
		return
	}); err != nil {
		return nil, err
	}
	ref.skipped(log, "orthophotos", ref.Orthophotos.Skipped())

	if settings.Data.Crops != "" {
		if err = loadFile(settings.Data.Crops, "crops", func(r io.Reader) (err error) {
			ref.Crops, err = imagery.LoadCrops(r)
			return
		}); err != nil {
			return nil, err
		}
		ref.skipped(log, "crops", ref.Crops.Skipped())
	}

	if settings.Data.Photos != "" {
		if err = loadFile(settings.Data.Photos, "photos", func(r io.Reader) (err error) {
			ref.Photos, err = site.LoadPhotos(r, zone)
			return
		}); err != nil {
			return nil, err
		}
		ref.skipped(log, "photos", ref.Photos.Skipped())
	}

	if ref.Images, err = imagery.NewLocator(os.DirFS(settings.Data.Images)); err != nil {
		return nil, referenceError(err, "images", settings.Data.Images)
	}

	if settings.Elevation.Coverage != "" {
		if err = loadFile(settings.Elevation.Coverage, "coverage", func(r io.Reader) (err error) {
			ref.Coverage, err = elevation.LoadCoverage(r, settings.Elevation.FileKey, settings.Elevation.ZoneKey, zone)
			return
		}); err != nil {
			return nil, err
		}
		ref.skipped(log, "coverage", ref.Coverage.Skipped())
		ref.Tiles = os.DirFS(settings.Elevation.Tiles)
	} else {
		log.Warn("No elevation coverage configured, terrain correction disabled")
	}

	start := time.Now()
	if ref.Ephemeris, err = suncalc.NewEphemeris(settings.Ephemeris.Start, settings.Ephemeris.End, settings.Ephemeris.Step); err != nil {
		return nil, referenceError(err, "ephemeris", "")
	}

	log.Info("Reference data loaded",
		logger.Int("sites", ref.Sites.Len()),
		logger.Int("crops", ref.Crops.Len()),
		logger.Int("photos", ref.photoCount()),
		logger.Int("images", ref.Images.Len()),
		logger.Int("tiles", ref.tileCount()),
		logger.Duration("ephemeris_build", time.Since(start)))
	return ref, nil
}

func (ref *Reference) tileCount() int {
	if ref.Coverage == nil {
		return 0
	}
	return ref.Coverage.Len()
}

func (ref *Reference) photoCount() int {
	if ref.Photos == nil {
		return 0
	}
	return ref.Photos.Len()
}

// skipped logs each rejected row; the batch carries on without it
func (ref *Reference) skipped(log logger.Logger, table string, errs []error) {
	if len(errs) == 0 {
		return
	}
	ref.Skipped[table] = len(errs)
	for _, err := range errs {
		log.Warn("Skipped reference record",
			logger.String("table", table),
			logger.Error(err))
	}
}

func loadFile(path, what string, load func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return referenceError(err, what, path)
	}
	defer func() { _ = f.Close() }()

	if err := load(f); err != nil {
		return referenceError(err, what, path)
	}
	return nil
}
