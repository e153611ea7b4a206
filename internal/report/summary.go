package report

import (
	"io"
	"math"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tphakala/hubheight/internal/errors"
	"github.com/tphakala/hubheight/internal/estimator"
	"github.com/tphakala/hubheight/internal/quality"
	"github.com/tphakala/hubheight/internal/validation"
)

// Summary is the YAML run summary
type Summary struct {
	RunID    string    `yaml:"run_id"`
	Run      string    `yaml:"run"`
	Version  string    `yaml:"version,omitempty"`
	Started  time.Time `yaml:"started"`
	Duration string    `yaml:"duration"`

	Turbines   TurbineSummary     `yaml:"turbines"`
	Sites      int                `yaml:"sites"`
	Validation *ValidationSummary `yaml:"validation,omitempty"`
	Elevation  ElevationSummary   `yaml:"elevation"`

	// SkippedRecords counts reference rows dropped at load time, per table
	SkippedRecords map[string]int `yaml:"skipped_records,omitempty"`
}

// TurbineSummary counts turbine outcomes
type TurbineSummary struct {
	Total           int            `yaml:"total"`
	Valid           int            `yaml:"valid"`
	MissingLabels   int            `yaml:"missing_labels"`
	MultipleLabels  int            `yaml:"multiple_labels"`
	AzimuthMismatch int            `yaml:"azimuth_mismatch"`
	Unmeasurable    map[string]int `yaml:"unmeasurable,omitempty"` // by reason
	MeanAbsError    *float64       `yaml:"mean_abs_error,omitempty"`
}

// ValidationSummary mirrors validation.Result
type ValidationSummary struct {
	Samples    int      `yaml:"samples"`
	Mean       float64  `yaml:"mean_error"`
	StdDev     float64  `yaml:"std_dev"`
	Lower      float64  `yaml:"lower_bound"`
	Upper      float64  `yaml:"upper_bound"`
	Alpha      float64  `yaml:"alpha"`
	TLower     float64  `yaml:"t_lower"`
	TUpper     float64  `yaml:"t_upper"`
	PLower     float64  `yaml:"p_lower"`
	PUpper     float64  `yaml:"p_upper"`
	P          float64  `yaml:"p_value"`
	WithinBand bool     `yaml:"within_band"`
	ShapiroW   *float64 `yaml:"shapiro_w,omitempty"`
	ShapiroP   *float64 `yaml:"shapiro_p,omitempty"`
	Error      string   `yaml:"error,omitempty"`
}

// ElevationSummary reports tile cache activity
type ElevationSummary struct {
	TileLoads    int      `yaml:"tile_loads"`
	Uncovered    int      `yaml:"uncovered_points"`
	MissingTiles []string `yaml:"missing_tiles,omitempty"`
}

// Summarize fills the turbine, site and validation sections. val may be nil
// when validation could not run; valErr is then recorded instead.
func Summarize(rows []quality.Turbine, sites []quality.SiteAggregate, val *validation.Result, valErr error) Summary {
	s := Summary{Sites: len(sites)}
	s.Turbines.Total = len(rows)

	var absSum float64
	var absN int
	for i := range rows {
		r := &rows[i]
		switch {
		case r.Valid():
			s.Turbines.Valid++
			if e := r.AbsError(); !math.IsNaN(e) {
				absSum += e
				absN++
			}
		case r.Good:
			if s.Turbines.Unmeasurable == nil {
				s.Turbines.Unmeasurable = make(map[string]int)
			}
			s.Turbines.Unmeasurable[reasonKey(r.Reason)]++
		default:
			s.Turbines.MissingLabels += b2i(r.MissingLabels)
			s.Turbines.MultipleLabels += b2i(r.MultipleLabels)
			s.Turbines.AzimuthMismatch += b2i(r.AzimuthMismatch)
		}
	}
	if absN > 0 {
		m := absSum / float64(absN)
		s.Turbines.MeanAbsError = &m
	}

	switch {
	case val != nil:
		s.Validation = &ValidationSummary{
			Samples:    val.N,
			Mean:       val.Mean,
			StdDev:     val.StdDev,
			Lower:      val.Lower,
			Upper:      val.Upper,
			Alpha:      val.Alpha,
			TLower:     val.TLower,
			TUpper:     val.TUpper,
			PLower:     val.PLower,
			PUpper:     val.PUpper,
			P:          val.P,
			WithinBand: val.WithinBand,
			ShapiroW:   finitePtr(val.ShapiroW),
			ShapiroP:   finitePtr(val.ShapiroP),
		}
	case valErr != nil:
		s.Validation = &ValidationSummary{Error: valErr.Error()}
	}
	return s
}

// WriteSummary encodes s as YAML
func WriteSummary(w io.Writer, s Summary) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return writeError(err, "summary")
	}
	if err := enc.Close(); err != nil {
		return writeError(err, "summary")
	}
	return nil
}

// ReadSummary decodes a summary written by WriteSummary
func ReadSummary(r io.Reader) (Summary, error) {
	var s Summary
	if err := yaml.NewDecoder(r).Decode(&s); err != nil {
		return Summary{}, errors.New(err).
			Component("report").
			Category(errors.CategoryFileParsing).
			Build()
	}
	return s, nil
}

func reasonKey(r estimator.Reason) string {
	if r == estimator.ReasonNone {
		return "unknown"
	}
	return string(r)
}

func finitePtr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
