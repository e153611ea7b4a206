// Package suncalc provides solar geometry: sun altitude and azimuth from a
// precomputed ephemeris, and sunrise/sunset events for daylight checks.
package suncalc

import (
	"fmt"
	"sync"
	"time"

	"github.com/sj14/astral/pkg/astral"
)

// SunEventTimes holds the calculated sun event times in UTC
type SunEventTimes struct {
	CivilDawn time.Time
	Sunrise   time.Time
	Sunset    time.Time
	CivilDusk time.Time
}

// SunCalc calculates and caches sun event times for one location
type SunCalc struct {
	cache    map[string]SunEventTimes // keyed by UTC date
	lock     sync.RWMutex
	observer astral.Observer
}

// NewSunCalc creates a new SunCalc instance
func NewSunCalc(latitude, longitude float64) *SunCalc {
	return &SunCalc{
		cache:    make(map[string]SunEventTimes),
		observer: astral.Observer{Latitude: latitude, Longitude: longitude},
	}
}

// GetSunEventTimes returns the sun event times for the UTC date of t, using cache if available
func (sc *SunCalc) GetSunEventTimes(t time.Time) (SunEventTimes, error) {
	date := t.UTC()
	dateKey := date.Format(time.DateOnly)

	sc.lock.RLock()
	times, exists := sc.cache[dateKey]
	sc.lock.RUnlock()
	if exists {
		return times, nil
	}

	times, err := sc.calculateSunEventTimes(date)
	if err != nil {
		return SunEventTimes{}, err
	}

	sc.lock.Lock()
	sc.cache[dateKey] = times
	sc.lock.Unlock()

	return times, nil
}

func (sc *SunCalc) calculateSunEventTimes(date time.Time) (SunEventTimes, error) {
	civilDawn, err := astral.Dawn(sc.observer, date, astral.DepressionCivil)
	if err != nil {
		return SunEventTimes{}, fmt.Errorf("failed to calculate civil dawn: %w", err)
	}

	sunrise, err := astral.Sunrise(sc.observer, date)
	if err != nil {
		return SunEventTimes{}, fmt.Errorf("failed to calculate sunrise: %w", err)
	}

	sunset, err := astral.Sunset(sc.observer, date)
	if err != nil {
		return SunEventTimes{}, fmt.Errorf("failed to calculate sunset: %w", err)
	}

	civilDusk, err := astral.Dusk(sc.observer, date, astral.DepressionCivil)
	if err != nil {
		return SunEventTimes{}, fmt.Errorf("failed to calculate civil dusk: %w", err)
	}

	return SunEventTimes{
		CivilDawn: civilDawn.UTC(),
		Sunrise:   sunrise.UTC(),
		Sunset:    sunset.UTC(),
		CivilDusk: civilDusk.UTC(),
	}, nil
}

// IsDaylight reports whether t falls between sunrise and sunset
func (sc *SunCalc) IsDaylight(t time.Time) (bool, error) {
	times, err := sc.GetSunEventTimes(t)
	if err != nil {
		return false, fmt.Errorf("failed to get sun event times: %w", err)
	}
	return !t.Before(times.Sunrise) && !t.After(times.Sunset), nil
}
