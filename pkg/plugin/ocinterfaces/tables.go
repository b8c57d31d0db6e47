package ocinterfaces

import "github.com/automixer/gnmi-exporter/pkg/metricbundle"

// ifaceTable maps an interface's full name (e.g. "eth1" or "eth1.100") to a
// flat record of label/metric entries, mirroring oc_if.py's IfaceTable.
type ifaceTable struct {
	table map[string]map[string]any
}

func newIfaceTable() *ifaceTable {
	return &ifaceTable{table: make(map[string]map[string]any)}
}

// addEntry creates the record skeleton for fullName on first sight: labels
// default to "", metrics default to 0. A second call for the same name is a
// no-op.
func (t *ifaceTable) addEntry(fullName string, labels, metrics []string) {
	if _, ok := t.table[fullName]; ok {
		return
	}
	entry := map[string]any{"name": ""}
	for _, l := range labels {
		entry[l] = ""
	}
	for _, m := range metrics {
		entry[m] = int64(0)
	}
	t.table[fullName] = entry
}

func (t *ifaceTable) updateEntry(fullName, name string, val any) {
	entry, ok := t.table[fullName]
	if !ok {
		return
	}
	entry[name] = val
}

func (t *ifaceTable) items() []string {
	out := make([]string, 0, len(t.table))
	for k := range t.table {
		out = append(out, k)
	}
	return out
}

func (t *ifaceTable) getString(fullName, name string) string {
	v, ok := t.lookup(fullName, name)
	if !ok {
		return " "
	}
	s, ok := v.(string)
	if !ok {
		return " "
	}
	return s
}

func (t *ifaceTable) getInt(fullName, name string) int64 {
	v, ok := t.lookup(fullName, name)
	if !ok {
		return 0
	}
	i, ok := v.(int64)
	if !ok {
		return 0
	}
	return i
}

func (t *ifaceTable) lookup(fullName, name string) (any, bool) {
	entry, ok := t.table[fullName]
	if !ok {
		return nil, false
	}
	v, ok := entry[name]
	return v, ok
}

func (t *ifaceTable) clear() {
	t.table = make(map[string]map[string]any)
}

// metricTable maps a metric name to the list of series collected for it
// during one render pass, mirroring oc_if.py's MetricTable.
type metricTable struct {
	table map[string][]metricbundle.Metric
}

func newMetricTable() *metricTable {
	return &metricTable{table: make(map[string][]metricbundle.Metric)}
}

func (t *metricTable) add(name string, m metricbundle.Metric) {
	t.table[name] = append(t.table[name], m)
}

func (t *metricTable) get(name string) []metricbundle.Metric {
	return t.table[name]
}

func (t *metricTable) clear() {
	t.table = make(map[string][]metricbundle.Metric)
}
