package metricbundle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValid(t *testing.T) {
	good := MetricBundle{
		Kind:       Counter,
		DeviceName: "r1",
		MetricName: "gnmi_iface_in_octets",
		LabelSet:   []string{"instance_name", "name"},
		Metrics: []Metric{
			{LabelValues: []string{"default", "eth0"}, Value: 10, Timestamp: time.Now()},
		},
	}
	assert.NoError(t, good.Valid())
}

func TestValidRejectsUnknownKind(t *testing.T) {
	b := MetricBundle{DeviceName: "r1", MetricName: "x"}
	assert.Error(t, b.Valid())
}

func TestValidRejectsEmptyNames(t *testing.T) {
	assert.Error(t, MetricBundle{Kind: Gauge, MetricName: "x"}.Valid())
	assert.Error(t, MetricBundle{Kind: Gauge, DeviceName: "r1"}.Valid())
}

func TestValidRejectsLabelMismatch(t *testing.T) {
	b := MetricBundle{
		Kind:       Gauge,
		DeviceName: "r1",
		MetricName: "x",
		LabelSet:   []string{"a", "b"},
		Metrics:    []Metric{{LabelValues: []string{"only-one"}}},
	}
	assert.Error(t, b.Valid())
}
