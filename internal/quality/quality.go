// Package quality flags each turbine estimate and aggregates the reliable
// ones per site.
package quality

import (
	"cmp"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/tphakala/hubheight/internal/estimator"
	"github.com/tphakala/hubheight/internal/shadow"
)

// DefaultMaxAzimuthDiff is the largest shadow/sun bearing difference, in
// degrees, of a good estimate
const DefaultMaxAzimuthDiff = 10.0

// Flags are the per-turbine validity flags. MultipleLabels is never set
// together with MissingLabels, and AzimuthMismatch never with MultipleLabels.
type Flags struct {
	MissingLabels   bool
	MultipleLabels  bool
	AzimuthMismatch bool
	Good            bool
}

// Classify derives the flags from detection counts and the azimuth difference.
// A NaN difference never counts as a mismatch.
func Classify(counts shadow.Counts, azimuthDiff, maxDiff float64) Flags {
	var f Flags
	f.MissingLabels = counts.Bases == 0 || counts.HubShadows == 0
	f.MultipleLabels = counts.Total() > 2 && !f.MissingLabels
	f.AzimuthMismatch = azimuthDiff > maxDiff && !f.MultipleLabels
	f.Good = !f.MissingLabels && !f.MultipleLabels && !f.AzimuthMismatch
	return f
}

// Turbine is an estimate with its flags
type Turbine struct {
	estimator.Outcome
	Flags
}

// Valid reports whether the row contributes to site means
func (t Turbine) Valid() bool {
	return t.Good && t.Measured
}

// ClassifyAll flags every outcome, keeping order
func ClassifyAll(outcomes []estimator.Outcome, maxDiff float64) []Turbine {
	rows := make([]Turbine, len(outcomes))
	for i := range outcomes {
		rows[i] = Turbine{
			Outcome: outcomes[i],
			Flags:   Classify(outcomes[i].Counts, outcomes[i].AzimuthDiff, maxDiff),
		}
	}
	return rows
}

// SiteAggregate summarises one site. Means cover valid rows only and are NaN
// when the site has none.
type SiteAggregate struct {
	Site          string
	MeanActual    float64
	MeanEstimated float64
	MeanError     float64
	Valid         int

	MissingLabels   int
	MultipleLabels  int
	AzimuthMismatch int
	// Unmeasurable counts rows without flags that still produced no
	// estimate (image missing, no photo, sun below horizon).
	Unmeasurable int

	NumTurbines int
}

type siteAccumulator struct {
	actual, estimated, errs []float64
	agg                     SiteAggregate
}

// Aggregate builds one row per site seen in rows, sorted by site
func Aggregate(rows []Turbine) []SiteAggregate {
	acc := make(map[string]*siteAccumulator)
	for i := range rows {
		r := &rows[i]
		a, ok := acc[r.Site]
		if !ok {
			a = &siteAccumulator{agg: SiteAggregate{Site: r.Site}}
			acc[r.Site] = a
		}

		switch {
		case r.Valid():
			a.agg.Valid++
			a.actual = appendFinite(a.actual, r.ActualHeight)
			a.estimated = appendFinite(a.estimated, r.Height)
			a.errs = appendFinite(a.errs, r.Error)
		case r.Good:
			a.agg.Unmeasurable++
		default:
			a.agg.MissingLabels += b2i(r.MissingLabels)
			a.agg.MultipleLabels += b2i(r.MultipleLabels)
			a.agg.AzimuthMismatch += b2i(r.AzimuthMismatch)
		}
	}

	out := make([]SiteAggregate, 0, len(acc))
	for _, a := range acc {
		agg := a.agg
		agg.MeanActual = mean(a.actual)
		agg.MeanEstimated = mean(a.estimated)
		agg.MeanError = mean(a.errs)
		agg.NumTurbines = agg.Valid + agg.MissingLabels + agg.MultipleLabels + agg.AzimuthMismatch
		out = append(out, agg)
	}
	slices.SortFunc(out, func(a, b SiteAggregate) int {
		return cmp.Compare(a.Site, b.Site)
	})
	return out
}

// MeanErrors returns the finite per-site mean errors, in site order
func MeanErrors(sites []SiteAggregate) []float64 {
	var out []float64
	for i := range sites {
		out = appendFinite(out, sites[i].MeanError)
	}
	return out
}

func appendFinite(xs []float64, v float64) []float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return xs
	}
	return append(xs, v)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return stat.Mean(xs, nil)
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
