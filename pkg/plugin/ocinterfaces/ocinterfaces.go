// Package ocinterfaces is the openconfig-interfaces plugin: a concrete
// instance of the plugin framework (pkg/plugin) that renders gNMI interface
// and subinterface state into a set of counter metric bundles.
//
// The render pipeline (clear tables -> checkout -> build skeleton tables ->
// fill tables -> build metrics -> build bundles) and every label/metric name
// below are a direct port of oc_interfaces/oc_if.py, not of the teacher's
// ygot-GoStruct-backed ocinterfaces package: the table design is what the
// literal path-string-equality scenarios in this adapter's test suite are
// written against.
package ocinterfaces

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/automixer/gnmi-exporter/pkg/metricbundle"
	"github.com/automixer/gnmi-exporter/pkg/plugin"
)

const dataModel = "openconfig-interfaces"

var pathsToSubscribe = plugin.PathsDescriptor{
	XPaths: []string{
		"/interfaces/interface/state",
		"/interfaces/interface/subinterfaces/subinterface/state",
	},
	DataModels: []string{dataModel},
	Origin:     "openconfig",
	Target:     "oc_interfaces",
}

var (
	pluginLabelSet = []string{"instance-name", "data-model", "device"}

	ifaceLabelSet = []string{"name", "mtu", "description", "ifindex", "admin-status", "oper-status"}

	subifaceLabelSet = []string{"name", "index", "mtu", "description", "ifindex", "admin-status", "oper-status"}

	subifaceMetricSet = []string{
		"in-octets", "in-pkts", "in-unicast-pkts", "in-broadcast-pkts",
		"in-multicast-pkts", "in-errors", "in-discards", "out-octets", "out-pkts",
		"out-unicast-pkts", "out-broadcast-pkts", "out-multicast-pkts", "out-discards",
		"out-errors", "last-clear", "last-change", "in-unknown-protos", "in-fcs-errors",
		"carrier-transitions",
	}

	ifaceMetricSet = append(append([]string{}, subifaceMetricSet...), "resets")
)

const (
	ifacePathNameIndex    = 1
	ifacePathNameKey      = "name"
	subifacePathIndexIdx  = 3
	subifacePathIndexKey  = "index"
)

func asSet(items []string) map[string]bool {
	out := make(map[string]bool, len(items))
	for _, i := range items {
		out[i] = true
	}
	return out
}

var (
	ifaceLabelSetMembers    = asSet(ifaceLabelSet)
	ifaceMetricSetMembers   = asSet(ifaceMetricSet)
	subifaceLabelSetMembers = asSet(subifaceLabelSet)
	subifaceMetricSetMember = asSet(subifaceMetricSet)
)

// OcInterfaces renders openconfig-interfaces telemetry into counter bundles.
type OcInterfaces struct {
	*plugin.Base

	ifaceTable      *ifaceTable
	subifaceTable   *ifaceTable
	ifaceMetrics    *metricTable
	subifaceMetrics *metricTable
}

// init registers the OcInterfaces factory under the plugin name
// "ocinterfaces".
func init() {
	plugin.RegisterFactory("ocinterfaces", func(cfg plugin.Config) (plugin.Plugin, error) {
		return New(cfg)
	})
}

// New builds and self-registers an OcInterfaces plugin instance.
func New(cfg plugin.Config) (*OcInterfaces, error) {
	p := &OcInterfaces{
		ifaceTable:      newIfaceTable(),
		subifaceTable:   newIfaceTable(),
		ifaceMetrics:    newMetricTable(),
		subifaceMetrics: newMetricTable(),
	}
	base, err := plugin.NewBase(cfg, p)
	if err != nil {
		return nil, err
	}
	p.Base = base
	return p, nil
}

// GetPaths returns what the session must subscribe to on this plugin's
// behalf. Pure and idempotent.
func (p *OcInterfaces) GetPaths() plugin.PathsDescriptor {
	return pathsToSubscribe
}

// FetchMetricBundles runs the render pipeline for one scrape.
func (p *OcInterfaces) FetchMetricBundles() []metricbundle.MetricBundle {
	p.clearAllTables()

	updates, _ := p.Checkout()
	if len(updates) == 0 {
		return nil
	}

	p.buildTables(updates)
	p.updateTables(updates)
	p.buildMetrics()
	return p.buildBundleList()
}

func (p *OcInterfaces) clearAllTables() {
	p.ifaceTable.clear()
	p.subifaceTable.clear()
	p.ifaceMetrics.clear()
	p.subifaceMetrics.clear()
}

// buildTables scans the update list for the one leaf ("name") that marks
// the start of an interface or subinterface, and creates a table skeleton
// keyed by its full name.
func (p *OcInterfaces) buildTables(updates []plugin.Update) {
	for _, u := range updates {
		pathStr := strings.Join(u.Path, "")

		switch pathStr {
		case "interfacesinterfacestatename":
			fullName := u.GetPathKey(ifacePathNameIndex, ifacePathNameKey)
			p.ifaceTable.addEntry(fullName, ifaceLabelSet, ifaceMetricSet)
		case "interfacesinterfacesubinterfacessubinterfacestatename":
			fullName := u.GetPathKey(ifacePathNameIndex, ifacePathNameKey) + "." +
				u.GetPathKey(subifacePathIndexIdx, subifacePathIndexKey)
			p.subifaceTable.addEntry(fullName, subifaceLabelSet, subifaceMetricSet)
		}
	}
}

// updateTables scans the update list again and fills in every table entry
// whose leaf is a known label or metric.
func (p *OcInterfaces) updateTables(updates []plugin.Update) {
	for _, u := range updates {
		pathStr := strings.Join(u.Path, "")
		if len(u.Path) == 0 {
			continue
		}
		leaf := u.Path[len(u.Path)-1]

		switch {
		case strings.HasPrefix(pathStr, "interfacesinterfacesubinterfacessubinterfacestate"):
			var val any
			switch {
			case subifaceLabelSetMembers[leaf]:
				val = asString(u.Val)
				if leaf == "name" {
					val = u.GetPathKey(ifacePathNameIndex, ifacePathNameKey)
				}
			case subifaceMetricSetMember[leaf]:
				val = asInt64(u.Val)
			default:
				continue
			}
			fullName := u.GetPathKey(ifacePathNameIndex, ifacePathNameKey) + "." +
				u.GetPathKey(subifacePathIndexIdx, subifacePathIndexKey)
			p.subifaceTable.updateEntry(fullName, leaf, val)

		case strings.HasPrefix(pathStr, "interfacesinterfacestate"):
			var val any
			switch {
			case ifaceLabelSetMembers[leaf]:
				val = asString(u.Val)
			case ifaceMetricSetMembers[leaf]:
				val = asInt64(u.Val)
			default:
				continue
			}
			fullName := u.GetPathKey(ifacePathNameIndex, ifacePathNameKey)
			p.ifaceTable.updateEntry(fullName, leaf, val)
		}
	}
}

func (p *OcInterfaces) buildMetrics() {
	now := time.Now()

	for _, metric := range ifaceMetricSet {
		for _, iface := range p.ifaceTable.items() {
			labelValues := []string{p.Config.InstanceName, dataModel, p.Config.DevName}
			for _, label := range ifaceLabelSet {
				labelValues = append(labelValues, p.ifaceTable.getString(iface, label))
			}
			p.ifaceMetrics.add(metric, metricbundle.Metric{
				LabelValues: labelValues,
				Value:       p.ifaceTable.getInt(iface, metric),
				// TODO: the notification timestamp is lost by the time
				// tables are built; use render time until it is threaded
				// through.
				Timestamp: now,
			})
		}
	}

	for _, metric := range subifaceMetricSet {
		for _, iface := range p.subifaceTable.items() {
			labelValues := []string{p.Config.InstanceName, dataModel, p.Config.DevName}
			for _, label := range subifaceLabelSet {
				labelValues = append(labelValues, p.subifaceTable.getString(iface, label))
			}
			p.subifaceMetrics.add(metric, metricbundle.Metric{
				LabelValues: labelValues,
				Value:       p.subifaceTable.getInt(iface, metric),
				Timestamp:   now,
			})
		}
	}
}

func (p *OcInterfaces) buildBundleList() []metricbundle.MetricBundle {
	var bundles []metricbundle.MetricBundle

	ifaceLabels := underscored(append(append([]string{}, pluginLabelSet...), ifaceLabelSet...))
	for _, name := range ifaceMetricSet {
		bundles = append(bundles, metricbundle.MetricBundle{
			Kind:       metricbundle.Counter,
			DeviceName: p.Config.DevName,
			MetricName: p.Config.MetricPrefix + "_iface_" + underscore(name),
			LabelSet:   ifaceLabels,
			Metrics:    p.ifaceMetrics.get(name),
		})
	}

	subifaceLabels := underscored(append(append([]string{}, pluginLabelSet...), subifaceLabelSet...))
	for _, name := range subifaceMetricSet {
		bundles = append(bundles, metricbundle.MetricBundle{
			Kind:       metricbundle.Counter,
			DeviceName: p.Config.DevName,
			MetricName: p.Config.MetricPrefix + "_subiface_" + underscore(name),
			LabelSet:   subifaceLabels,
			Metrics:    p.subifaceMetrics.get(name),
		})
	}

	return bundles
}

func underscore(s string) string {
	return strings.ReplaceAll(s, "-", "_")
}

func underscored(items []string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = underscore(s)
	}
	return out
}

func asString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case uint64:
		return int64(n)
	case float64:
		return int64(n)
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0
		}
		return i
	case bool:
		if n {
			return 1
		}
		return 0
	default:
		return 0
	}
}
