// Package metricbundle holds the flat time-series representation plugins
// render on each scrape and the collector merges and exports.
package metricbundle

import (
	"errors"
	"time"
)

// Kind identifies the Prometheus metric type a bundle should be exported as.
type Kind int

const (
	Unknown Kind = iota
	Counter
	Gauge
)

// Metric is a single labelled time-series point inside a MetricBundle.
type Metric struct {
	LabelValues []string
	Value       int64
	Timestamp   time.Time
}

// MetricBundle is one metric family: a name, its label schema, and the
// series collected for it during one scrape.
type MetricBundle struct {
	Kind          Kind
	DeviceName    string
	MetricName    string
	Documentation string
	LabelSet      []string
	Metrics       []Metric
}

// Valid reports whether the bundle satisfies the invariants required before
// it may be exported: a known kind, a device and metric name, and every
// metric's label values matching the bundle's label set in length.
func (b MetricBundle) Valid() error {
	if b.Kind == Unknown {
		return errors.New("metric bundle kind is unknown")
	}
	if b.DeviceName == "" {
		return errors.New("metric bundle device name is empty")
	}
	if b.MetricName == "" {
		return errors.New("metric bundle metric name is empty")
	}
	for _, m := range b.Metrics {
		if len(m.LabelValues) != len(b.LabelSet) {
			return errors.New("metric bundle label values length mismatch")
		}
	}
	return nil
}
