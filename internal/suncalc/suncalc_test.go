package suncalc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Pamplona, where several of the surveyed wind farms are
const (
	testLatitude  = 42.7
	testLongitude = -1.6
)

func equinoxDate() time.Time {
	return time.Date(2019, 3, 20, 0, 0, 0, 0, time.UTC)
}

func TestGetSunEventTimes(t *testing.T) {
	t.Parallel()

	sc := NewSunCalc(testLatitude, testLongitude)

	times1, err := sc.GetSunEventTimes(equinoxDate().Add(9 * time.Hour))
	require.NoError(t, err)

	assert.True(t, times1.CivilDawn.Before(times1.Sunrise))
	assert.True(t, times1.Sunrise.Before(times1.Sunset))
	assert.True(t, times1.Sunset.Before(times1.CivilDusk))
	assert.Equal(t, time.UTC, times1.Sunrise.Location())

	// Around the equinox the day is close to 12 hours long
	dayLength := times1.Sunset.Sub(times1.Sunrise)
	assert.InDelta(t, 12*time.Hour, dayLength, float64(15*time.Minute))

	times2, err := sc.GetSunEventTimes(equinoxDate().Add(15 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, times1, times2, "same date must hit the cache")
	assert.Len(t, sc.cache, 1)
}

func TestIsDaylight(t *testing.T) {
	t.Parallel()

	sc := NewSunCalc(testLatitude, testLongitude)

	day, err := sc.IsDaylight(equinoxDate().Add(12 * time.Hour))
	require.NoError(t, err)
	assert.True(t, day)

	night, err := sc.IsDaylight(equinoxDate().Add(2 * time.Hour))
	require.NoError(t, err)
	assert.False(t, night)
}
