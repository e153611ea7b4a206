// Package observability collects the Prometheus metrics of an estimation run
// and exports them as a node_exporter textfile.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tphakala/hubheight/internal/errors"
	"github.com/tphakala/hubheight/internal/observability/metrics"
)

// Metrics holds all the metric collectors for a run
type Metrics struct {
	registry   *prometheus.Registry
	Estimation *metrics.EstimationMetrics
	Elevation  *metrics.ElevationMetrics
	SunCalc    *metrics.SunCalcMetrics
	Errors     *metrics.ErrorMetrics
}

// NewMetrics creates a fresh registry with every collector registered
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	estimationMetrics, err := metrics.NewEstimationMetrics(registry)
	if err != nil {
		return nil, errors.New(err).Component("observability").Context("collector", "estimation").Build()
	}

	elevationMetrics, err := metrics.NewElevationMetrics(registry)
	if err != nil {
		return nil, errors.New(err).Component("observability").Context("collector", "elevation").Build()
	}

	sunCalcMetrics, err := metrics.NewSunCalcMetrics(registry)
	if err != nil {
		return nil, errors.New(err).Component("observability").Context("collector", "suncalc").Build()
	}

	errorMetrics, err := metrics.NewErrorMetrics(registry)
	if err != nil {
		return nil, errors.New(err).Component("observability").Context("collector", "errors").Build()
	}

	return &Metrics{
		registry:   registry,
		Estimation: estimationMetrics,
		Elevation:  elevationMetrics,
		SunCalc:    sunCalcMetrics,
		Errors:     errorMetrics,
	}, nil
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// CountErrors registers an error hook so that every categorised error built
// until stop is called is counted by component and category.
func (m *Metrics) CountErrors() (stop func()) {
	return errors.AddErrorHook(func(ee *errors.EnhancedError) {
		m.Errors.RecordError(ee.Component, string(ee.Category))
	})
}

// WriteTextfile writes all metrics in the text exposition format. The file is
// written atomically so a node_exporter textfile collector never reads a
// partial file.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return errors.FileError(err, path)
	}
	return nil
}
