package quality

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/hubheight/internal/estimator"
	"github.com/tphakala/hubheight/internal/shadow"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	nan := math.NaN()
	tests := []struct {
		name   string
		counts shadow.Counts
		diff   float64
		want   Flags
	}{
		{"good", shadow.Counts{Bases: 1, HubShadows: 1}, 4, Flags{Good: true}},
		{"diff at threshold", shadow.Counts{Bases: 1, HubShadows: 1}, 10, Flags{Good: true}},
		{"mismatch", shadow.Counts{Bases: 1, HubShadows: 1}, 11, Flags{AzimuthMismatch: true}},
		{"no base", shadow.Counts{HubShadows: 1}, nan, Flags{MissingLabels: true}},
		{"nothing", shadow.Counts{}, nan, Flags{MissingLabels: true}},
		// three detections but no shadow: missing wins over multiple
		{"missing and many", shadow.Counts{Bases: 3}, nan, Flags{MissingLabels: true}},
		{"multiple", shadow.Counts{Bases: 2, HubShadows: 1}, nan, Flags{MultipleLabels: true}},
		{"multiple suppresses mismatch", shadow.Counts{Bases: 1, HubShadows: 2}, 40, Flags{MultipleLabels: true}},
		{"missing with large diff", shadow.Counts{Bases: 1}, 40, Flags{MissingLabels: true, AzimuthMismatch: true}},
		{"unmeasured without flags", shadow.Counts{Bases: 1, HubShadows: 1}, nan, Flags{Good: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Classify(tt.counts, tt.diff, DefaultMaxAzimuthDiff)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, !got.MissingLabels && !got.MultipleLabels && !got.AzimuthMismatch, got.Good)
		})
	}
}

func measured(siteID string, turbine int, height, actual, diff float64) estimator.Outcome {
	return estimator.Outcome{
		Site:         siteID,
		Turbine:      turbine,
		Counts:       shadow.Counts{Bases: 1, HubShadows: 1},
		Measured:     true,
		Height:       height,
		ActualHeight: actual,
		Error:        height - actual,
		AzimuthDiff:  diff,
	}
}

func TestAggregate(t *testing.T) {
	t.Parallel()

	outcomes := []estimator.Outcome{
		measured("b", 1, 82, 80, 3),
		measured("a", 1, 102, 100, 2),
		measured("a", 2, 99, 100, 1),
		measured("a", 3, 103, 100, 0),
		estimator.Unmeasurable("a", 4, shadow.Counts{HubShadows: 1}, 100, estimator.ReasonDetectionCountMismatch),
		measured("b", 2, 60, 80, 25),
		estimator.Unmeasurable("b", 3, shadow.Counts{Bases: 1, HubShadows: 1}, 80, estimator.ReasonImageMissing),
		estimator.Unmeasurable("c", 1, shadow.Counts{Bases: 2, HubShadows: 2}, 90, estimator.ReasonDetectionCountMismatch),
	}

	sites := Aggregate(ClassifyAll(outcomes, DefaultMaxAzimuthDiff))
	require.Len(t, sites, 3)

	a := sites[0]
	assert.Equal(t, "a", a.Site)
	assert.Equal(t, 3, a.Valid)
	assert.InDelta(t, 1.33, a.MeanError, 0.005)
	assert.InDelta(t, 100.0, a.MeanActual, 1e-9)
	assert.InDelta(t, 101.33, a.MeanEstimated, 0.005)
	assert.Equal(t, 1, a.MissingLabels)
	assert.Equal(t, 4, a.NumTurbines)

	b := sites[1]
	assert.Equal(t, "b", b.Site)
	assert.Equal(t, 1, b.Valid)
	assert.InDelta(t, 2.0, b.MeanError, 1e-9)
	assert.Equal(t, 1, b.AzimuthMismatch)
	assert.Equal(t, 1, b.Unmeasurable)
	assert.Equal(t, 2, b.NumTurbines)

	c := sites[2]
	assert.Equal(t, "c", c.Site)
	assert.Zero(t, c.Valid)
	assert.True(t, math.IsNaN(c.MeanError))
	assert.True(t, math.IsNaN(c.MeanEstimated))
	assert.Equal(t, 1, c.MultipleLabels)
	assert.Equal(t, 1, c.NumTurbines)

	assert.InDeltaSlice(t, []float64{4.0 / 3, 2}, MeanErrors(sites), 1e-9)
}

func TestAggregateSkipsUnknownActualHeight(t *testing.T) {
	t.Parallel()

	outcomes := []estimator.Outcome{
		measured("a", 1, 80, math.NaN(), 1),
		measured("a", 2, 84, 80, 1),
	}
	sites := Aggregate(ClassifyAll(outcomes, DefaultMaxAzimuthDiff))
	require.Len(t, sites, 1)
	assert.Equal(t, 2, sites[0].Valid)
	assert.InDelta(t, 82.0, sites[0].MeanEstimated, 1e-9)
	assert.InDelta(t, 80.0, sites[0].MeanActual, 1e-9)
	assert.InDelta(t, 4.0, sites[0].MeanError, 1e-9)
}

func TestAggregateEmpty(t *testing.T) {
	t.Parallel()
	assert.Empty(t, Aggregate(nil))
	assert.Empty(t, MeanErrors(nil))
}
