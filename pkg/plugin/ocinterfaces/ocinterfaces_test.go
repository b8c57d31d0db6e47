package ocinterfaces

import (
	"testing"
	"time"

	"github.com/openconfig/gnmi/proto/gnmi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/automixer/gnmi-exporter/pkg/plugin"
)

func strVal(s string) *gnmi.TypedValue {
	return &gnmi.TypedValue{Value: &gnmi.TypedValue_StringVal{StringVal: s}}
}

func uintVal(v uint64) *gnmi.TypedValue {
	return &gnmi.TypedValue{Value: &gnmi.TypedValue_UintVal{UintVal: v}}
}

func ifaceNotification(ifName string, leafPath []string, val *gnmi.TypedValue) *gnmi.Notification {
	elems := make([]*gnmi.PathElem, len(leafPath))
	for i, n := range leafPath {
		elems[i] = &gnmi.PathElem{Name: n}
	}
	return &gnmi.Notification{
		Timestamp: time.Now().UnixNano(),
		Prefix: &gnmi.Path{
			Elem: []*gnmi.PathElem{
				{Name: "interfaces"},
				{Name: "interface", Key: map[string]string{"name": ifName}},
			},
		},
		Update: []*gnmi.Update{
			{Path: &gnmi.Path{Elem: elems}, Val: val},
		},
	}
}

func subifaceNotification(ifName, index string, leafPath []string, val *gnmi.TypedValue) *gnmi.Notification {
	elems := make([]*gnmi.PathElem, len(leafPath))
	for i, n := range leafPath {
		elems[i] = &gnmi.PathElem{Name: n}
	}
	return &gnmi.Notification{
		Timestamp: time.Now().UnixNano(),
		Prefix: &gnmi.Path{
			Elem: []*gnmi.PathElem{
				{Name: "interfaces"},
				{Name: "interface", Key: map[string]string{"name": ifName}},
				{Name: "subinterfaces"},
				{Name: "subinterface", Key: map[string]string{"index": index}},
			},
		},
		Update: []*gnmi.Update{
			{Path: &gnmi.Path{Elem: elems}, Val: val},
		},
	}
}

func newTestPlugin(t *testing.T) *OcInterfaces {
	t.Helper()
	p, err := New(plugin.Config{
		InstanceName:   "default",
		DevName:        "r1",
		PlugName:       "oc_interfaces",
		MetricPrefix:   "gnmi",
		ScrapeInterval: time.Second,
	})
	require.NoError(t, err)
	return p
}

func TestGetPathsReturnsSubscriptionDescriptor(t *testing.T) {
	p := newTestPlugin(t)
	paths := p.GetPaths()
	assert.Equal(t, "openconfig", paths.Origin)
	assert.Equal(t, "oc_interfaces", paths.Target)
	assert.Contains(t, paths.XPaths, "/interfaces/interface/state")
	assert.Contains(t, paths.XPaths, "/interfaces/interface/subinterfaces/subinterface/state")
}

func TestFetchMetricBundlesEmptyWhenNoUpdates(t *testing.T) {
	p := newTestPlugin(t)
	p.OnSync(true)
	assert.Nil(t, p.FetchMetricBundles())
}

func TestFetchMetricBundlesRendersInterfaceCounters(t *testing.T) {
	p := newTestPlugin(t)
	p.OnSync(true)
	p.Notification(ifaceNotification("eth0", []string{"state", "name"}, strVal("eth0")))
	p.Notification(ifaceNotification("eth0", []string{"state", "admin-status"}, strVal("UP")))
	p.Notification(ifaceNotification("eth0", []string{"state", "oper-status"}, strVal("UP")))
	p.Notification(ifaceNotification("eth0", []string{"state", "counters", "in-octets"}, uintVal(12345)))

	bundles := p.FetchMetricBundles()
	require.NotEmpty(t, bundles)

	found := false
	for _, b := range bundles {
		if b.MetricName != "gnmi_iface_in_octets" {
			continue
		}
		require.Len(t, b.Metrics, 1)
		assert.Equal(t, int64(12345), b.Metrics[0].Value)
		assert.Equal(t, []string{"default", dataModel, "r1", "eth0", "", "", "", "UP", "UP"}, b.Metrics[0].LabelValues)
		found = true
	}
	require.True(t, found)
}

func TestFetchMetricBundlesRendersSubinterfaceWithParentNameOverride(t *testing.T) {
	p := newTestPlugin(t)
	p.OnSync(true)
	p.Notification(subifaceNotification("eth0", "0", []string{"state", "name"}, strVal("eth0.0")))
	p.Notification(subifaceNotification("eth0", "0", []string{"state", "counters", "in-pkts"}, uintVal(7)))

	bundles := p.FetchMetricBundles()

	for _, b := range bundles {
		if b.MetricName != "gnmi_subiface_in_pkts" {
			continue
		}
		require.Len(t, b.Metrics, 1)
		// name label (index 3 after instance_name/data_model/device) must be
		// the parent interface name, not the subinterface's own name leaf.
		assert.Equal(t, "eth0", b.Metrics[0].LabelValues[3])
		assert.Equal(t, int64(7), b.Metrics[0].Value)
	}
}

func TestClearAllTablesEmptiesEverything(t *testing.T) {
	p := newTestPlugin(t)
	p.OnSync(true)
	p.Notification(ifaceNotification("eth0", []string{"state", "name"}, strVal("eth0")))
	p.FetchMetricBundles()

	p.clearAllTables()
	assert.Empty(t, p.ifaceTable.items())
	assert.Empty(t, p.subifaceTable.items())
	assert.Empty(t, p.ifaceMetrics.table)
	assert.Empty(t, p.subifaceMetrics.table)
}

func TestSyncFalseClearsPendingNotifications(t *testing.T) {
	p := newTestPlugin(t)
	p.OnSync(true)
	p.Notification(ifaceNotification("eth0", []string{"state", "name"}, strVal("eth0")))
	p.OnSync(false)
	p.OnSync(true)
	assert.Nil(t, p.FetchMetricBundles())
}
