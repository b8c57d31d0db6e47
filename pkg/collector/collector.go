// Package collector implements the pull-based Prometheus export side (C4):
// a scrape-driven fan-out over registered plugins, a per-scrape merge table,
// self-statistics, and an "unchecked" prometheus.Collector whose descriptor
// set is only known once plugins have rendered.
package collector

import (
	"context"
	"sync"
	"time"

	log "github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"

	"github.com/automixer/gnmi-exporter/pkg/metricbundle"
	"github.com/automixer/gnmi-exporter/pkg/plugin"
)

// Config is the collector's share of the "global" YAML section.
type Config struct {
	ListenAddress string
	ListenPort    string
	ListenPath    string
	InstanceName  string
	MetricPrefix  string
}

// Collector is the sole prometheus.Collector registered with the process
// registry. It holds weak references to plugins: it invokes them on each
// scrape but never controls their lifetime.
type Collector struct {
	config     Config
	httpServer *http.Server

	mutex   sync.Mutex
	plugins []plugin.Plugin
}

// New builds a Collector and wires pkg/plugin's Register indirection to it,
// the same self-registration shape teacher's pkg/exporter.Registry var uses.
func New(cfg Config) *Collector {
	c := &Collector{config: cfg}
	plugin.Register = c.register
	return c
}

func (c *Collector) register(p plugin.Plugin) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.plugins = append(c.plugins, p)
	return nil
}

// UnregisterAll drops every registered plugin. Called on shutdown.
func (c *Collector) UnregisterAll() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.plugins = nil
}

// Start registers the collector with the default Prometheus registry and
// starts the scrape-endpoint HTTP server. Non-blocking.
func (c *Collector) Start() error {
	if err := prometheus.Register(c); err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle(c.config.ListenPath, promhttp.Handler())
	c.httpServer = &http.Server{Addr: c.config.ListenAddress + ":" + c.config.ListenPort, Handler: mux}
	go func() {
		if err := c.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(err)
		}
	}()
	return nil
}

// Close unregisters every plugin and shuts down the HTTP server.
func (c *Collector) Close() {
	c.UnregisterAll()
	if c.httpServer == nil {
		return
	}
	if err := c.httpServer.Shutdown(context.Background()); err != nil {
		log.Error(err)
	}
}

// Describe intentionally sends nothing: this is an unchecked collector, its
// metric schema is only known after plugins render on a live scrape.
func (c *Collector) Describe(chan<- *prometheus.Desc) {}

// Collect fans out to every registered plugin concurrently, merges the
// results into a per-scrape table keyed by metric name, computes
// self-statistics, emits every family, then clears the table.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snapshot := c.snapshotPlugins()

	results := make([][]metricbundle.MetricBundle, len(snapshot))
	var wg sync.WaitGroup
	for i, p := range snapshot {
		wg.Add(1)
		go func(i int, p plugin.Plugin) {
			defer wg.Done()
			results[i] = p.FetchMetricBundles()
		}(i, p)
	}
	wg.Wait()

	table := make(map[string]*metricbundle.MetricBundle)
	collectedPlugins := 0
	collectedDevices := 0

	for _, bundles := range results {
		if len(bundles) == 0 || bundles[0].Valid() != nil {
			continue
		}
		collectedPlugins++

		deviceNames := make(map[string]struct{})
		for _, b := range bundles {
			if b.Valid() != nil {
				continue
			}
			deviceNames[b.DeviceName] = struct{}{}
			mergeBundle(table, b)
		}
		// Reassigned per plugin, not accumulated across plugins: this
		// reproduces original_source's promexp.py _query_plugins exactly,
		// so only the last accepted plugin's device set is reflected.
		collectedDevices = len(deviceNames)
	}

	c.computeStats(table, len(snapshot), collectedDevices, collectedPlugins)

	for _, bundle := range table {
		emitBundle(ch, bundle)
	}
}

func mergeBundle(table map[string]*metricbundle.MetricBundle, b metricbundle.MetricBundle) {
	existing, ok := table[b.MetricName]
	if !ok {
		cp := b
		cp.Metrics = append([]metricbundle.Metric{}, b.Metrics...)
		table[b.MetricName] = &cp
		return
	}
	existing.Metrics = append(existing.Metrics, b.Metrics...)
}

func emitBundle(ch chan<- prometheus.Metric, bundle *metricbundle.MetricBundle) {
	if bundle.Kind == metricbundle.Unknown {
		return
	}
	valueType := prometheus.CounterValue
	if bundle.Kind == metricbundle.Gauge {
		valueType = prometheus.GaugeValue
	}
	desc := prometheus.NewDesc(bundle.MetricName, bundle.Documentation, bundle.LabelSet, nil)
	for _, m := range bundle.Metrics {
		pm, err := prometheus.NewConstMetric(desc, valueType, float64(m.Value), m.LabelValues...)
		if err != nil {
			log.Error("cannot send a malformed metric to prometheus: ", err)
			continue
		}
		if !m.Timestamp.IsZero() {
			pm = prometheus.NewMetricWithTimestamp(m.Timestamp, pm)
		}
		ch <- pm
	}
}

// computeStats reproduces promexp.py's _compute_stats: five gauges, with
// collected_metrics counting itself (+1) and collected_series summing over
// everything already in the table at that point.
func (c *Collector) computeStats(table map[string]*metricbundle.MetricBundle, configuredDevices, collectedDevices, collectedPlugins int) {
	now := time.Now()
	gauge := func(key, suffix, help string, val int64) {
		table[key] = &metricbundle.MetricBundle{
			Kind:          metricbundle.Gauge,
			DeviceName:    c.config.InstanceName,
			MetricName:    c.config.MetricPrefix + suffix,
			Documentation: help,
			LabelSet:      []string{"instance_name"},
			Metrics: []metricbundle.Metric{
				{LabelValues: []string{c.config.InstanceName}, Value: val, Timestamp: now},
			},
		}
	}

	gauge("configured_devices", "_configured_devices", "Number of configured devices", int64(configuredDevices))
	gauge("collected_devices", "_collected_devices", "Number of actively monitored devices", int64(collectedDevices))
	gauge("collected_plugins", "_collected_plugins", "Number of actively monitored plugin instances", int64(collectedPlugins))
	gauge("collected_metrics", "_collected_metrics", "Number of collected metrics", int64(len(table)+1))

	var collectedSeries int64
	for _, b := range table {
		collectedSeries += int64(len(b.Metrics))
	}
	gauge("collected_series", "_collected_series", "Number of collected series", collectedSeries)
}

func (c *Collector) snapshotPlugins() []plugin.Plugin {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	cp := make([]plugin.Plugin, len(c.plugins))
	copy(cp, c.plugins)
	return cp
}
