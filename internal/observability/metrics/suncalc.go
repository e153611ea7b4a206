package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SunCalcMetrics tracks sun position and sun event calculations
type SunCalcMetrics struct {
	registry *prometheus.Registry

	positionsTotal     *prometheus.CounterVec
	cacheHitsTotal     *prometheus.CounterVec
	cacheMissesTotal   *prometheus.CounterVec
	daylightMismatches prometheus.Counter
	ephemerisSpanGauge prometheus.Gauge
}

// NewSunCalcMetrics creates and registers new suncalc metrics
func NewSunCalcMetrics(registry *prometheus.Registry) (*SunCalcMetrics, error) {
	m := &SunCalcMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *SunCalcMetrics) initMetrics() {
	m.positionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suncalc_positions_total",
			Help: "Total number of sun position evaluations",
		},
		[]string{"status"}, // success, error
	)

	m.cacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suncalc_cache_hits_total",
			Help: "Total number of sun calculator cache hits",
		},
		[]string{"operation"},
	)

	m.cacheMissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suncalc_cache_misses_total",
			Help: "Total number of sun calculator cache misses",
		},
		[]string{"operation"},
	)

	m.daylightMismatches = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "suncalc_daylight_mismatches_total",
		Help: "Photos with the sun above the horizon but outside sunrise and sunset",
	})

	m.ephemerisSpanGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "suncalc_ephemeris_span_years",
		Help: "Number of years covered by the ephemeris table",
	})
}

// Describe implements the Collector interface
func (m *SunCalcMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.positionsTotal.Describe(ch)
	m.cacheHitsTotal.Describe(ch)
	m.cacheMissesTotal.Describe(ch)
	m.daylightMismatches.Describe(ch)
	m.ephemerisSpanGauge.Describe(ch)
}

// Collect implements the Collector interface
func (m *SunCalcMetrics) Collect(ch chan<- prometheus.Metric) {
	m.positionsTotal.Collect(ch)
	m.cacheHitsTotal.Collect(ch)
	m.cacheMissesTotal.Collect(ch)
	m.daylightMismatches.Collect(ch)
	m.ephemerisSpanGauge.Collect(ch)
}

// RecordPosition counts a sun position evaluation
func (m *SunCalcMetrics) RecordPosition(status string) {
	m.positionsTotal.WithLabelValues(status).Inc()
}

// RecordCacheHit records a calculator cache hit
func (m *SunCalcMetrics) RecordCacheHit(operation string) {
	m.cacheHitsTotal.WithLabelValues(operation).Inc()
}

// RecordCacheMiss records a calculator cache miss
func (m *SunCalcMetrics) RecordCacheMiss(operation string) {
	m.cacheMissesTotal.WithLabelValues(operation).Inc()
}

// RecordDaylightMismatch counts a failed daylight cross-check
func (m *SunCalcMetrics) RecordDaylightMismatch() {
	m.daylightMismatches.Inc()
}

// SetEphemerisSpan records how many years the ephemeris covers
func (m *SunCalcMetrics) SetEphemerisSpan(years int) {
	m.ephemerisSpanGauge.Set(float64(years))
}
