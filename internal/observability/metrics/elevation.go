package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ElevationMetrics tracks tile cache activity across all workers
type ElevationMetrics struct {
	registry *prometheus.Registry

	tileLoadsTotal   *prometheus.CounterVec
	lookupsTotal     *prometheus.CounterVec
	missingTiles     prometheus.Gauge
	tileLoadDuration prometheus.Histogram
}

// NewElevationMetrics creates and registers new elevation metrics
func NewElevationMetrics(registry *prometheus.Registry) (*ElevationMetrics, error) {
	m := &ElevationMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *ElevationMetrics) initMetrics() {
	m.tileLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hubheight_elevation_tile_loads_total",
			Help: "Tile cache slot replacements",
		},
		[]string{"status"}, // success, missing, error
	)

	m.lookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hubheight_elevation_lookups_total",
			Help: "Elevation lookups by result",
		},
		[]string{"status"}, // success, nan
	)

	m.missingTiles = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "hubheight_elevation_missing_tiles",
		Help: "Distinct tiles referenced by the coverage index but absent from storage",
	})

	m.tileLoadDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "hubheight_elevation_tile_load_duration_seconds",
		Help:    "Time taken to read and parse a tile",
		Buckets: prometheus.ExponentialBuckets(BucketStart10ms, BucketFactor2, BucketCount12), // 10ms to ~20s
	})
}

// Describe implements the Collector interface
func (m *ElevationMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.tileLoadsTotal.Describe(ch)
	m.lookupsTotal.Describe(ch)
	m.missingTiles.Describe(ch)
	m.tileLoadDuration.Describe(ch)
}

// Collect implements the Collector interface
func (m *ElevationMetrics) Collect(ch chan<- prometheus.Metric) {
	m.tileLoadsTotal.Collect(ch)
	m.lookupsTotal.Collect(ch)
	m.missingTiles.Collect(ch)
	m.tileLoadDuration.Collect(ch)
}

// RecordTileLoad counts a slot replacement and, for parsed tiles, its duration
func (m *ElevationMetrics) RecordTileLoad(status string, seconds float64) {
	m.tileLoadsTotal.WithLabelValues(status).Inc()
	if status == StatusSuccess {
		m.tileLoadDuration.Observe(seconds)
	}
}

// RecordLookup counts an elevation query by whether it produced a value
func (m *ElevationMetrics) RecordLookup(ok bool) {
	if ok {
		m.lookupsTotal.WithLabelValues(StatusSuccess).Inc()
		return
	}
	m.lookupsTotal.WithLabelValues(StatusNaN).Inc()
}

// SetMissingTiles sets the size of the missing tile ledger
func (m *ElevationMetrics) SetMissingTiles(n int) {
	m.missingTiles.Set(float64(n))
}
