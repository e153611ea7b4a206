// Package analysis runs a batch estimation: it loads the reference data,
// estimates every labelled turbine on a worker pool, classifies and
// aggregates the results, validates the site errors and writes the reports.
package analysis

import (
	"cmp"
	"context"
	"io"
	"math"
	"os"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/tphakala/hubheight/internal/buildinfo"
	"github.com/tphakala/hubheight/internal/conf"
	"github.com/tphakala/hubheight/internal/elevation"
	"github.com/tphakala/hubheight/internal/errors"
	"github.com/tphakala/hubheight/internal/estimator"
	"github.com/tphakala/hubheight/internal/logger"
	"github.com/tphakala/hubheight/internal/observability"
	"github.com/tphakala/hubheight/internal/observability/metrics"
	"github.com/tphakala/hubheight/internal/quality"
	"github.com/tphakala/hubheight/internal/report"
	"github.com/tphakala/hubheight/internal/validation"
)

// Output file names, prefixed with the run name
const (
	TurbineReport = "turbine_predictions"
	SiteReport    = "site_predictions"
	MissingTiles  = "missing_tiles.txt"
	SummaryFile   = "summary.yaml"
)

// Result is the outcome of one batch run
type Result struct {
	RunID    string
	Run      string
	Version  string // build version, "unknown" outside a release build
	Started  time.Time
	Duration time.Duration

	Turbines []quality.Turbine
	Sites    []quality.SiteAggregate

	// Validation is nil when the validator could not run; ValidationErr says why
	Validation    *validation.Result
	ValidationErr error

	MissingTiles []string
	TileLoads    int
	Uncovered    int
	Skipped      map[string]int

	// Outputs lists the files written, in order
	Outputs []string
}

// Run estimates every turbine of the configured run and writes its reports.
// Only reference data failures and output failures abort the run; turbine
// level problems end up as unmeasured rows.
func Run(ctx context.Context, settings *conf.Settings, log logger.Logger) (*Result, error) {
	res := &Result{
		RunID:   uuid.NewString(),
		Run:     settings.Estimate.Run,
		Version: buildinfo.FromContext(ctx).GetVersion(),
		Started: time.Now(),
	}
	ctx = logger.WithTraceID(ctx, res.RunID)
	log = getLogger(log).WithContext(ctx).With(logger.String("run", res.Run))

	log.Info("Starting estimation run",
		logger.String("labels", settings.LabelsDir(res.Run)),
		logger.String("version", res.Version))

	ref, err := LoadReference(settings, log)
	if err != nil {
		return nil, err
	}
	res.Skipped = ref.Skipped

	jobs, err := DiscoverLabels(os.DirFS(settings.LabelsDir(res.Run)), settings.Estimate.ExcludeSites, log)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		log.Warn("No label files found")
	}

	m, err := observability.NewMetrics()
	if err != nil {
		return nil, err
	}
	stopCounting := m.CountErrors()
	defer stopCounting()
	m.SunCalc.SetEphemerisSpan(settings.Ephemeris.End - settings.Ephemeris.Start + 1)

	sun := sunSource{ephemeris: ref.Ephemeris, metrics: m.SunCalc}
	daylight := newDaylightChecker(settings.Estimate.SunCacheTTL, m.SunCalc)
	p := &pipeline{
		ref:         ref,
		labels:      os.DirFS(settings.LabelsDir(res.Run)),
		est:         estimator.New(sun, daylight.IsDaylight, log),
		ledger:      elevation.NewLedger(),
		photoRadius: settings.Estimate.PhotoRadius,
		metrics:     m,
		log:         log,
	}

	workers := workerCount(settings.Estimate.Workers, len(groupBySite(jobs)))
	m.Estimation.SetWorkers(workers)
	log.Info("Estimating turbines",
		logger.Int("turbines", len(jobs)),
		logger.Int("workers", workers))

	outcomes, stats, err := p.run(ctx, jobs, workers)
	if err != nil {
		log.Warn("Estimation run canceled", logger.Int("completed", len(outcomes)))
		return nil, err
	}
	slices.SortFunc(outcomes, func(a, b estimator.Outcome) int {
		return cmp.Or(cmp.Compare(a.Site, b.Site), cmp.Compare(a.Turbine, b.Turbine))
	})

	res.Turbines = quality.ClassifyAll(outcomes, settings.Estimate.MaxAzimuthDiff)
	res.Sites = quality.Aggregate(res.Turbines)
	res.TileLoads, res.Uncovered = stats.tileLoads, stats.uncovered
	res.MissingTiles = p.ledger.List()
	recordTurbines(m, res.Turbines)
	m.Estimation.SetSites(len(res.Sites))
	m.Elevation.SetMissingTiles(len(res.MissingTiles))

	val, err := validation.Validate(quality.MeanErrors(res.Sites),
		settings.Validation.LowerBound, settings.Validation.UpperBound, settings.Validation.Alpha)
	if err != nil {
		res.ValidationErr = err
		log.Warn("Site errors could not be validated", logger.Error(err))
	} else {
		res.Validation = &val
		m.Estimation.SetValidation(val.P, val.WithinBand)
		log.Info("Validation complete",
			logger.Int("sites", val.N),
			logger.Float64("mean_error", val.Mean),
			logger.Float64("p_value", val.P),
			logger.Float64("p_lower", val.PLower),
			logger.Float64("p_upper", val.PUpper),
			logger.Bool("within_band", val.WithinBand))
	}

	if err := ctx.Err(); err != nil {
		return nil, ErrAnalysisCanceled
	}

	res.Duration = time.Since(res.Started)
	if err := writeResults(settings, res, m, log); err != nil {
		return nil, err
	}

	log.Info("Estimation run complete",
		logger.Int("turbines", len(res.Turbines)),
		logger.Int("sites", len(res.Sites)),
		logger.Int("tile_loads", res.TileLoads),
		logger.Int("missing_tiles", len(res.MissingTiles)),
		logger.Duration("duration", res.Duration))
	return res, nil
}

// recordTurbines counts each row under its flag or unmeasurable reason
func recordTurbines(m *observability.Metrics, rows []quality.Turbine) {
	for i := range rows {
		r := &rows[i]
		switch {
		case r.Valid():
			m.Estimation.RecordTurbine("valid")
			if e := r.AbsError(); !math.IsNaN(e) {
				m.Estimation.RecordAbsError(e)
			}
		case r.MissingLabels:
			m.Estimation.RecordTurbine("missing_labels")
		case r.MultipleLabels:
			m.Estimation.RecordTurbine("multiple_labels")
		case r.AzimuthMismatch:
			m.Estimation.RecordTurbine("azimuth_mismatch")
		default:
			m.Estimation.RecordTurbine(string(r.Reason))
		}
	}
}

// writeResults writes the turbine and site tables, the missing tile ledger,
// the YAML summary and, when configured, the metrics textfile.
func writeResults(settings *conf.Settings, res *Result, m *observability.Metrics, log logger.Logger) error {
	format, err := report.ParseFormat(settings.Output.Format)
	if err != nil {
		return errors.New(err).
			Component("analysis").
			Category(errors.CategoryConfiguration).
			Context("setting", "output.format").
			Build()
	}

	start := time.Now()
	out := func(name string, write func(io.Writer) error) error {
		path := settings.OutputPath(res.Run, name)
		if err := report.WriteFile(path, log, write); err != nil {
			return err
		}
		res.Outputs = append(res.Outputs, path)
		return nil
	}

	summary := report.Summarize(res.Turbines, res.Sites, res.Validation, res.ValidationErr)
	summary.RunID = res.RunID
	summary.Run = res.Run
	summary.Version = res.Version
	summary.Started = res.Started
	summary.Duration = res.Duration.Round(time.Millisecond).String()
	summary.Elevation = report.ElevationSummary{
		TileLoads:    res.TileLoads,
		Uncovered:    res.Uncovered,
		MissingTiles: res.MissingTiles,
	}
	summary.SkippedRecords = res.Skipped

	steps := []struct {
		name  string
		write func(io.Writer) error
	}{
		{TurbineReport + format.Extension(), func(w io.Writer) error {
			return report.WriteTurbines(w, res.Turbines, format)
		}},
		{SiteReport + format.Extension(), func(w io.Writer) error {
			return report.WriteSites(w, res.Sites, format)
		}},
		{MissingTiles, func(w io.Writer) error {
			return report.WriteLedger(w, res.MissingTiles)
		}},
		{SummaryFile, func(w io.Writer) error {
			return report.WriteSummary(w, summary)
		}},
	}
	for _, step := range steps {
		if err := out(step.name, step.write); err != nil {
			m.Estimation.RecordOperation(metrics.OpWriteReports, metrics.StatusError)
			return err
		}
	}
	m.Estimation.RecordOperation(metrics.OpWriteReports, metrics.StatusSuccess)
	m.Estimation.RecordDuration(metrics.OpWriteReports, time.Since(start).Seconds())

	if settings.Output.MetricsFile != "" {
		if err := m.WriteTextfile(settings.Output.MetricsFile); err != nil {
			return err
		}
		res.Outputs = append(res.Outputs, settings.Output.MetricsFile)
		log.Debug("Metrics written", logger.String("path", settings.Output.MetricsFile))
	}
	return nil
}
