package analysis

import (
	"context"
	"io/fs"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/tphakala/hubheight/internal/elevation"
	"github.com/tphakala/hubheight/internal/estimator"
	"github.com/tphakala/hubheight/internal/geo"
	"github.com/tphakala/hubheight/internal/logger"
	"github.com/tphakala/hubheight/internal/observability"
	"github.com/tphakala/hubheight/internal/observability/metrics"
	"github.com/tphakala/hubheight/internal/shadow"
	"github.com/tphakala/hubheight/internal/site"
)

const maxWorkers = 16

// pipeline turns jobs into outcomes. Everything it holds is read-only or
// safe for concurrent use; tile caches belong to the workers.
type pipeline struct {
	ref         *Reference
	labels      fs.FS
	est         *estimator.Estimator
	ledger      *elevation.Ledger
	photoRadius float64
	metrics     *observability.Metrics
	log         logger.Logger
}

type poolStats struct {
	tileLoads int
	uncovered int
}

// workerCount resolves the configured worker count: 0 or less uses all CPUs,
// never more workers than site batches.
func workerCount(configured, batches int) int {
	n := configured
	if n <= 0 {
		n = runtime.NumCPU()
	}
	return clampInt(clampInt(n, 1, maxWorkers), 1, max(batches, 1))
}

// run processes jobs with the given number of workers. Each worker owns a
// tile cache and takes a whole site at a time, so consecutive elevation
// queries stay in one tile.
func (p *pipeline) run(ctx context.Context, jobs []Job, workers int) ([]estimator.Outcome, poolStats, error) {
	batches := groupBySite(jobs)
	batchChan := make(chan []Job)
	resultChan := make(chan estimator.Outcome, len(jobs))

	var mu sync.Mutex
	var stats poolStats

	var wg sync.WaitGroup
	for id := range workers {
		wg.Go(func() {
			var terrain estimator.ElevationSource
			var cache *elevation.TileCache
			if p.ref.Coverage != nil {
				cache = elevation.NewTileCache(p.ref.Coverage, p.ref.Tiles, p.ledger, p.log)
				if p.metrics != nil {
					cache.SetObserver(p.metrics.Elevation)
				}
				terrain = cache
			}
			p.log.Debug("Worker started", logger.Int("worker", id))

			for batch := range batchChan {
				for _, job := range batch {
					resultChan <- p.process(job, terrain)
				}
			}

			if cache != nil {
				mu.Lock()
				stats.tileLoads += cache.Loads()
				stats.uncovered += cache.Uncovered()
				mu.Unlock()
				p.log.Debug("Worker finished",
					logger.Int("worker", id),
					logger.Int("tile_loads", cache.Loads()))
			}
		})
	}

	var canceled bool
feed:
	for _, batch := range batches {
		if ctx.Err() != nil {
			canceled = true
			break
		}
		select {
		case batchChan <- batch:
		case <-ctx.Done():
			canceled = true
			break feed
		}
	}
	close(batchChan)
	wg.Wait()
	close(resultChan)

	outcomes := make([]estimator.Outcome, 0, len(jobs))
	for o := range resultChan {
		outcomes = append(outcomes, o)
	}
	if canceled {
		return outcomes, stats, ErrAnalysisCanceled
	}
	return outcomes, stats, nil
}

// process gathers one turbine's inputs and estimates it
func (p *pipeline) process(job Job, terrain estimator.ElevationSource) estimator.Outcome {
	start := time.Now()
	out := p.estimate(job, terrain)
	if p.metrics != nil {
		p.metrics.Estimation.RecordDuration(metrics.OpEstimate, time.Since(start).Seconds())
		p.metrics.Estimation.RecordOperation(metrics.OpEstimate, outcomeStatus(out))
	}
	return out
}

func outcomeStatus(o estimator.Outcome) string {
	if o.Measured {
		return metrics.StatusSuccess
	}
	return string(o.Reason)
}

func (p *pipeline) estimate(job Job, terrain estimator.ElevationSource) estimator.Outcome {
	log := p.log.With(logger.String("site", job.Site), logger.Int("turbine", job.Turbine))

	dets := p.readLabels(job, log)
	counts := shadow.Count(dets)

	s, ok := p.ref.Sites.Get(job.Site)
	if !ok {
		log.Warn("Label file for unknown site")
		return estimator.Unmeasurable(job.Site, job.Turbine, counts, math.NaN(), estimator.ReasonSiteConfig)
	}

	in := estimator.Input{
		Site:       s,
		Turbine:    job.Turbine,
		Detections: dets,
	}

	// detection counts are judged before anything else
	if !counts.Measurable() {
		return p.est.Estimate(in, terrain)
	}

	ortho, hasOrtho := p.ref.Orthophotos.Get(job.Site)
	rec, hasCrop := p.ref.Crops.Get(job.Site, job.Turbine)

	if imgPath, found := p.ref.Images.Find(job.Site, job.Turbine); found {
		w, h := rec.Width, rec.Height
		if w <= 0 || h <= 0 {
			dims, err := p.ref.Images.Dimensions(imgPath)
			if err != nil {
				log.Warn("Cannot read crop image dimensions", logger.String("image", imgPath), logger.Error(err))
				p.recordError(metrics.OpLocateImage, "dimensions")
			}
			w, h = dims.Width, dims.Height
		}
		in.ImageFound = w > 0 && h > 0
		in.Crop = geo.Crop{Resolution: rec.ResolutionOr(ortho), Width: w, Height: h}

		if in.ImageFound && in.Crop.Resolution <= 0 {
			log.Warn("No ground resolution for turbine crop", logger.Bool("orthophoto_known", hasOrtho))
			return estimator.Unmeasurable(job.Site, job.Turbine, counts, s.ActualHubHeight(), estimator.ReasonSiteConfig)
		}
		if hasCrop && in.ImageFound {
			if crop, placed := rec.Locate(ortho, s, w, h); placed {
				in.Crop, in.CropPlaced = crop, true
			}
		}
	}

	in.PhotoTime = p.photoTime(s, log)
	return p.est.Estimate(in, terrain)
}

func (p *pipeline) readLabels(job Job, log logger.Logger) []shadow.Detection {
	f, err := p.labels.Open(job.Path)
	if err != nil {
		log.Warn("Cannot open label file", logger.String("file", job.Path), logger.Error(err))
		p.recordError(metrics.OpLoadLabels, "open")
		return nil
	}
	defer func() { _ = f.Close() }()

	dets, err := shadow.ParseLabels(f)
	if err != nil {
		log.Warn("Cannot parse label file", logger.String("file", job.Path), logger.Error(err))
		p.recordError(metrics.OpLoadLabels, "parse")
		return nil
	}
	return dets
}

// photoTime returns the site's reference timestamp, falling back to the
// nearest photo centre within the search radius. Zero when neither exists.
func (p *pipeline) photoTime(s *site.Site, log logger.Logger) time.Time {
	if s.HasPhotoTime() {
		return s.PhotoTime
	}
	if p.ref.Photos == nil {
		return time.Time{}
	}
	photo, ok := p.ref.Photos.Nearest(s.Position, p.photoRadius)
	if !ok {
		return time.Time{}
	}
	log.Debug("Using nearest reference photo",
		logger.String("photo", photo.File),
		logger.Time("photo_time", photo.Time))
	return photo.Time
}

func (p *pipeline) recordError(op, kind string) {
	if p.metrics != nil {
		p.metrics.Estimation.RecordError(op, kind)
	}
}

// clampInt ensures a value is between min and max (inclusive)
func clampInt(value, minValue, maxValue int) int {
	if value < minValue {
		return minValue
	}
	if value > maxValue {
		return maxValue
	}
	return value
}
