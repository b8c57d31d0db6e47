// Package core is the supervisor (C5): it parses the YAML configuration,
// wires up the collector, builds one session engine and its plugin set per
// configured device, and drives start/stop of the whole process.
package core

import (
	"context"
	"fmt"
	"os"

	log "github.com/golang/glog"
	"gopkg.in/yaml.v2"

	"github.com/automixer/gnmi-exporter/pkg/collector"
	"github.com/automixer/gnmi-exporter/pkg/gnmiclient"
	"github.com/automixer/gnmi-exporter/pkg/plugin"

	// Plugin registration: each import's init() registers a factory with
	// pkg/plugin.
	_ "github.com/automixer/gnmi-exporter/pkg/plugin/ocinterfaces"
)

// Core owns the parsed configuration and the live object graph built from
// it.
type Core struct {
	collectorCfg collector.Config
	clientCfg    map[string]gnmiclient.Config // key: device name
	plugCfg      map[string][]plugin.Config   // key: device name
}

// New reads and validates cfgFile, returning a Core ready to Run.
func New(cfgFile string) (*Core, error) {
	app := &Core{}
	yCfg := &yamlConfig{}

	f, err := os.ReadFile(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := yaml.UnmarshalStrict(f, yCfg); err != nil {
		return nil, err
	}
	if err := app.parseAppConfig(yCfg); err != nil {
		return nil, err
	}
	return app, nil
}

// Run builds the collector and every device session, starts them, and
// blocks until ctx is cancelled, then closes the collector (unregistering
// every plugin) and after it every session.
func (c *Core) Run(ctx context.Context) error {
	coll := collector.New(c.collectorCfg)

	clients := make([]*gnmiclient.Client, 0, len(c.clientCfg))
	plugCount := 0
	for devName, clientCfg := range c.clientCfg {
		clt := gnmiclient.New(clientCfg)
		for _, pCfg := range c.plugCfg[devName] {
			p, err := plugin.New(pCfg)
			if err != nil {
				return err
			}
			if err := clt.RegisterPlugin(p); err != nil {
				return err
			}
			plugCount++
		}
		clients = append(clients, clt)
	}
	if len(clients) == 0 {
		return fmt.Errorf("device list is empty")
	}
	log.Infof("%d gNMI session(s) loaded - %d plugin instance(s) loaded", len(clients), plugCount)

	if err := coll.Start(); err != nil {
		return err
	}
	for _, clt := range clients {
		clt.Start()
	}

	<-ctx.Done()

	coll.Close()
	for _, clt := range clients {
		clt.Close()
	}
	return nil
}
