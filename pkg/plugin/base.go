// Package plugin implements the buffering, synchronization and registration
// contract shared by every plugin (C2), so concrete plugins only need to
// supply GetPaths and a FetchMetricBundles that renders what Checkout returns.
package plugin

import (
	"sort"
	"sync"
	"time"

	"github.com/openconfig/gnmi/proto/gnmi"

	"github.com/automixer/gnmi-exporter/pkg/metricbundle"
)

// PathsDescriptor is what a plugin asks the session to subscribe to on its
// behalf.
type PathsDescriptor struct {
	XPaths     []string
	DataModels []string
	Origin     string
	Target     string
}

// Plugin is the capability set the session and the collector drive a plugin
// through.
type Plugin interface {
	GetPlugName() string
	GetPaths() PathsDescriptor
	Notification(nf *gnmi.Notification)
	OnSync(onSync bool)
	FetchMetricBundles() []metricbundle.MetricBundle
}

// Config is the common per-plugin configuration every concrete plugin
// embeds and extends.
type Config struct {
	InstanceName   string
	DevName        string
	PlugName       string
	MetricPrefix   string
	ScrapeInterval time.Duration
}

// Base provides the notification buffer, the sync gate and the
// checkout/sort pipeline that every concrete plugin needs; it does not know
// how to render bundles.
type Base struct {
	Config Config

	mutex  sync.Mutex
	buf    *buffer
	onSync bool

	updateList []Update
	deleteList []Delete
}

// NewBase builds a Base and registers it with the collector via the
// package-level Register indirection (see register.go), the same pattern
// teacher's pkg/exporter.Registry var uses to avoid an import cycle between
// the plugin and collector packages.
func NewBase(cfg Config, self Plugin) (*Base, error) {
	b := &Base{
		Config: cfg,
		buf:    newBuffer(cfg.ScrapeInterval),
	}
	if Register != nil {
		if err := Register(self); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// GetPlugName returns the configured plugin name.
func (b *Base) GetPlugName() string {
	return b.Config.PlugName
}

// Notification is the producer side: append to the buffer under the mutex.
// Must not block on I/O.
func (b *Base) Notification(nf *gnmi.Notification) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.buf.add(nf)
}

// OnSync transitions the sync gate. On a true->false transition the buffer
// is cleared first: data received while out of sync is untrustworthy for
// counter reporting and must not leak into the next sync window.
func (b *Base) OnSync(onSync bool) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.onSync && !onSync {
		b.buf.clear()
	}
	b.onSync = onSync
}

// Checkout drains the buffer (only when on_sync is true), expands every
// notification into flattened Update/Delete messages, and returns both
// lists stable-sorted by timestamp ascending. Concrete plugins call this at
// the start of FetchMetricBundles.
func (b *Base) Checkout() ([]Update, []Delete) {
	var nfs []*gnmi.Notification

	b.mutex.Lock()
	if b.onSync {
		nfs = b.buf.checkout()
	}
	b.mutex.Unlock()

	updates := make([]Update, 0, len(nfs))
	deletes := make([]Delete, 0, len(nfs))
	for _, nf := range nfs {
		for _, upd := range nf.Update {
			updates = append(updates, newUpdate(nf, upd))
		}
		for _, del := range nf.Delete {
			deletes = append(deletes, newDelete(nf, del))
		}
	}

	sort.SliceStable(updates, func(i, j int) bool { return updates[i].Timestamp < updates[j].Timestamp })
	sort.SliceStable(deletes, func(i, j int) bool { return deletes[i].Timestamp < deletes[j].Timestamp })

	return updates, deletes
}
