// Package telemetry collects per-run cleaning metrics and pushes them to a
// Prometheus Pushgateway when one is configured.
package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics holds the collectors for one cleaning run. Each run gets its own
// registry so nothing leaks between invocations.
type Metrics struct {
	Registry     *prometheus.Registry
	RowsInput    prometheus.Counter
	RowsOutput   prometheus.Counter
	RowsDropped  *prometheus.CounterVec
	InvalidDates prometheus.Counter
	Duration     prometheus.Gauge
}

// NewMetrics creates and registers the run collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RowsInput: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cleaning_rows_input_total",
			Help: "Rows read from the input artifact.",
		}),
		RowsOutput: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cleaning_rows_output_total",
			Help: "Rows written to the output artifact.",
		}),
		RowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cleaning_rows_dropped_total",
			Help: "Rows removed by a bound filter.",
		}, []string{"reason"}),
		InvalidDates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cleaning_invalid_dates_total",
			Help: "last_review values that were not dates and became null.",
		}),
		Duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cleaning_run_duration_seconds",
			Help: "Wall time of the last cleaning run.",
		}),
	}
	m.Registry.MustRegister(m.RowsInput, m.RowsOutput, m.RowsDropped, m.InvalidDates, m.Duration)
	return m
}

// ObserveRows records row counts of a finished transform.
func (m *Metrics) ObserveRows(input, output, droppedPrice, droppedGeo, invalidDates int) {
	m.RowsInput.Add(float64(input))
	m.RowsOutput.Add(float64(output))
	m.RowsDropped.WithLabelValues("price").Add(float64(droppedPrice))
	m.RowsDropped.WithLabelValues("geo").Add(float64(droppedGeo))
	m.InvalidDates.Add(float64(invalidDates))
}

// ObserveDuration sets the run duration gauge.
func (m *Metrics) ObserveDuration(d time.Duration) {
	m.Duration.Set(d.Seconds())
}

// Push sends the registry to the Pushgateway at url under job, grouped by
// run id. An empty url is a no-op.
func (m *Metrics) Push(url, job, runID string) error {
	if url == "" {
		return nil
	}
	p := push.New(url, job).Gatherer(m.Registry)
	if runID != "" {
		p = p.Grouping("run_id", runID)
	}
	if err := p.Push(); err != nil {
		return fmt.Errorf("telemetry: push to %s: %w", url, err)
	}
	return nil
}
