package analysis

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/hubheight/internal/observability"
	"github.com/tphakala/hubheight/internal/site"
	"github.com/tphakala/hubheight/internal/suncalc"
)

func TestDaylightCheckerMemoises(t *testing.T) {
	t.Parallel()

	m, err := observability.NewMetrics()
	require.NoError(t, err)
	d := newDaylightChecker(time.Minute, m.SunCalc)

	s := &site.Site{ID: "becerril", Latitude: 42.1, Longitude: -6.9}
	first := d.calculator(s)
	assert.Same(t, first, d.calculator(s))
	assert.Equal(t, 1, d.calcs.ItemCount())

	noon := time.Date(2020, 6, 21, 12, 30, 0, 0, time.UTC)
	day, err := d.IsDaylight(s, noon)
	require.NoError(t, err)
	assert.True(t, day)

	night := time.Date(2020, 6, 21, 1, 0, 0, 0, time.UTC)
	day, err = d.IsDaylight(s, night)
	require.NoError(t, err)
	assert.False(t, day)

	expected := `
# HELP suncalc_cache_hits_total Total number of sun calculator cache hits
# TYPE suncalc_cache_hits_total counter
suncalc_cache_hits_total{operation="sun_events"} 3
# HELP suncalc_cache_misses_total Total number of sun calculator cache misses
# TYPE suncalc_cache_misses_total counter
suncalc_cache_misses_total{operation="sun_events"} 1
# HELP suncalc_daylight_mismatches_total Photos with the sun above the horizon but outside sunrise and sunset
# TYPE suncalc_daylight_mismatches_total counter
suncalc_daylight_mismatches_total 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"suncalc_cache_hits_total", "suncalc_cache_misses_total", "suncalc_daylight_mismatches_total"))
}

func TestSunSourceCountsOutsideEphemeris(t *testing.T) {
	t.Parallel()

	eph, err := suncalc.NewEphemeris(2020, 2021, 6*time.Hour)
	require.NoError(t, err)
	src := sunSource{ephemeris: eph}

	_, err = src.Position(42, -3, time.Date(2020, 3, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	_, err = src.Position(42, -3, time.Date(1990, 3, 1, 12, 0, 0, 0, time.UTC))
	require.ErrorIs(t, err, suncalc.ErrOutsideEphemeris)
}
