package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// EstimationMetrics tracks turbine outcomes and the batch's statistics
type EstimationMetrics struct {
	registry *prometheus.Registry

	operationsTotal *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	durationSeconds *prometheus.HistogramVec
	turbinesTotal   *prometheus.CounterVec
	absErrorMeters  prometheus.Histogram
	sitesGauge      prometheus.Gauge
	pValueGauge     prometheus.Gauge
	withinBandGauge prometheus.Gauge
	workersGauge    prometheus.Gauge
}

// NewEstimationMetrics creates and registers new estimation metrics
func NewEstimationMetrics(registry *prometheus.Registry) (*EstimationMetrics, error) {
	m := &EstimationMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *EstimationMetrics) initMetrics() {
	m.operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hubheight_operations_total",
			Help: "Total number of pipeline operations",
		},
		[]string{"operation", "status"},
	)

	m.errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hubheight_operation_errors_total",
			Help: "Total number of pipeline operation errors",
		},
		[]string{"operation", "error_type"},
	)

	m.durationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hubheight_operation_duration_seconds",
			Help:    "Time taken by pipeline operations",
			Buckets: prometheus.ExponentialBuckets(BucketStart100us, BucketFactor2, BucketCount12), // 0.1ms to ~200ms
		},
		[]string{"operation"},
	)

	m.turbinesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hubheight_turbines_total",
			Help: "Turbines processed, by outcome",
		},
		[]string{"outcome"}, // valid, missing_labels, multiple_labels, azimuth_mismatch or an unmeasurable reason
	)

	m.absErrorMeters = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "hubheight_abs_error_meters",
		Help:    "Absolute hub height error of valid estimates",
		Buckets: prometheus.LinearBuckets(0, BucketErrorWidth, BucketErrorCount),
	})

	m.sitesGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "hubheight_sites",
		Help: "Number of sites in the aggregate table",
	})

	m.pValueGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "hubheight_validation_p_value",
		Help: "Summed one-sided p-value of the accuracy band test",
	})

	m.withinBandGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "hubheight_validation_within_band",
		Help: "1 when the mean site error is inside the accuracy band",
	})

	m.workersGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "hubheight_workers",
		Help: "Number of estimation workers",
	})
}

// Describe implements the Collector interface
func (m *EstimationMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.operationsTotal.Describe(ch)
	m.errorsTotal.Describe(ch)
	m.durationSeconds.Describe(ch)
	m.turbinesTotal.Describe(ch)
	m.absErrorMeters.Describe(ch)
	m.sitesGauge.Describe(ch)
	m.pValueGauge.Describe(ch)
	m.withinBandGauge.Describe(ch)
	m.workersGauge.Describe(ch)
}

// Collect implements the Collector interface
func (m *EstimationMetrics) Collect(ch chan<- prometheus.Metric) {
	m.operationsTotal.Collect(ch)
	m.errorsTotal.Collect(ch)
	m.durationSeconds.Collect(ch)
	m.turbinesTotal.Collect(ch)
	m.absErrorMeters.Collect(ch)
	m.sitesGauge.Collect(ch)
	m.pValueGauge.Collect(ch)
	m.withinBandGauge.Collect(ch)
	m.workersGauge.Collect(ch)
}

// RecordOperation implements Recorder
func (m *EstimationMetrics) RecordOperation(operation, status string) {
	m.operationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordDuration implements Recorder
func (m *EstimationMetrics) RecordDuration(operation string, seconds float64) {
	m.durationSeconds.WithLabelValues(operation).Observe(seconds)
}

// RecordError implements Recorder
func (m *EstimationMetrics) RecordError(operation, errorType string) {
	m.errorsTotal.WithLabelValues(operation, errorType).Inc()
}

// RecordTurbine counts one turbine outcome
func (m *EstimationMetrics) RecordTurbine(outcome string) {
	m.turbinesTotal.WithLabelValues(outcome).Inc()
}

// RecordAbsError observes the absolute error of a valid estimate
func (m *EstimationMetrics) RecordAbsError(meters float64) {
	m.absErrorMeters.Observe(meters)
}

// SetSites sets the number of aggregated sites
func (m *EstimationMetrics) SetSites(n int) {
	m.sitesGauge.Set(float64(n))
}

// SetWorkers sets the worker pool size
func (m *EstimationMetrics) SetWorkers(n int) {
	m.workersGauge.Set(float64(n))
}

// SetValidation records the band test result
func (m *EstimationMetrics) SetValidation(p float64, withinBand bool) {
	m.pValueGauge.Set(p)
	if withinBand {
		m.withinBandGauge.Set(1)
	} else {
		m.withinBandGauge.Set(0)
	}
}
