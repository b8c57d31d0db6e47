package core

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	log "github.com/golang/glog"

	"github.com/automixer/gnmi-exporter/pkg/collector"
	"github.com/automixer/gnmi-exporter/pkg/gnmiclient"
	"github.com/automixer/gnmi-exporter/pkg/plugin"
)

const (
	minScrapeInterval   = time.Second
	defaultOverSampling = 2
	defaultWdMultiplier = 3
)

type yamlDevConfig struct {
	Keys    map[string]string `yaml:"devices,inline"`
	Plugins []string          `yaml:"plugins"`
}

type yamlConfig struct {
	Global    map[string]string `yaml:"global"`
	Templates yamlDevConfig     `yaml:"device_template"`
	Devices   []yamlDevConfig
}

// parseAppConfig is the top-level entry point called by New: validate,
// merge device_template into every device entry, then build the three
// component configs.
func (c *Core) parseAppConfig(yCfg *yamlConfig) error {
	if err := c.validateGlobalConfig(yCfg); err != nil {
		return err
	}

	if yCfg.Devices == nil {
		return errors.New("no devices configured")
	}
	for i, devCfg := range yCfg.Devices {
		for k, v := range yCfg.Templates.Keys {
			if devCfg.Keys[k] == "" {
				yCfg.Devices[i].Keys[k] = v
			}
		}
		if devCfg.Plugins == nil {
			if yCfg.Templates.Plugins == nil {
				return errors.New("no plugins configured")
			}
			yCfg.Devices[i].Plugins = append(yCfg.Devices[i].Plugins, yCfg.Templates.Plugins...)
		}
	}

	deviceNames := make(map[string]bool)
	for _, dev := range yCfg.Devices {
		if err := c.validateDeviceConfig(&dev); err != nil {
			return err
		}
		if deviceNames[dev.Keys["name"]] {
			return fmt.Errorf("duplicated device name: %s", dev.Keys["name"])
		}
		deviceNames[dev.Keys["name"]] = true
	}

	c.buildCollectorCfg(yCfg)

	c.clientCfg = make(map[string]gnmiclient.Config, len(yCfg.Devices))
	c.plugCfg = make(map[string][]plugin.Config, len(yCfg.Devices))
	for i := range yCfg.Devices {
		c.buildGnmiClientCfg(yCfg, i)
		c.buildPluginCfg(yCfg, i)
	}

	return nil
}

func (c *Core) validateGlobalConfig(yCfg *yamlConfig) error {
	if yCfg.Global == nil {
		yCfg.Global = map[string]string{}
	}
	if yCfg.Global["instance_name"] == "" {
		yCfg.Global["instance_name"] = "default"
	}
	if yCfg.Global["listen_address"] == "" {
		yCfg.Global["listen_address"] = "0.0.0.0"
	}
	if yCfg.Global["listen_port"] == "" {
		yCfg.Global["listen_port"] = "9456"
	}
	if yCfg.Global["listen_path"] == "" {
		yCfg.Global["listen_path"] = "/metrics"
	}
	rx := regexp.MustCompile("^[a-zA-Z0-9_]*$")
	if !rx.MatchString(yCfg.Global["metric_prefix"]) {
		return fmt.Errorf("%q is not a valid Prometheus metric name prefix", yCfg.Global["metric_prefix"])
	}
	sInt, _ := time.ParseDuration(yCfg.Global["scrape_interval"])
	if sInt < minScrapeInterval {
		return fmt.Errorf("scrape interval must be greater than or equal to %s", minScrapeInterval)
	}
	return nil
}

func (c *Core) validateDeviceConfig(yCfg *yamlDevConfig) error {
	if _, ok := yCfg.Keys["name"]; !ok {
		return fmt.Errorf("device section must contain a device name")
	}
	if yCfg.Keys["ip"] == "" {
		return fmt.Errorf("device section must contain an ip address")
	}
	if yCfg.Keys["port"] == "" {
		return fmt.Errorf("device section must contain a port")
	}
	return nil
}

func (c *Core) buildCollectorCfg(yCfg *yamlConfig) {
	c.collectorCfg = collector.Config{
		ListenAddress: yCfg.Global["listen_address"],
		ListenPort:    yCfg.Global["listen_port"],
		ListenPath:    yCfg.Global["listen_path"],
		InstanceName:  yCfg.Global["instance_name"],
		MetricPrefix:  yCfg.Global["metric_prefix"],
	}
}

// buildGnmiClientCfg builds one device's session configuration, per spec.md
// §3/§6: scrape_interval/oversampling/wd_multiplier come from global,
// everything else is per-device.
func (c *Core) buildGnmiClientCfg(yCfg *yamlConfig, index int) {
	src := yCfg.Devices[index]

	newDev := gnmiclient.Config{
		DevName:       src.Keys["name"],
		IPAddress:     src.Keys["ip"],
		Port:          src.Keys["port"],
		User:          src.Keys["user"],
		Password:      src.Keys["password"],
		ForceEncoding: src.Keys["force_encoding"],
	}

	flag, _ := strconv.ParseBool(src.Keys["bypass_msg_routing"])
	newDev.BypassMsgRouting = flag

	scrapeInterval, _ := time.ParseDuration(yCfg.Global["scrape_interval"])
	newDev.ScrapeInterval = scrapeInterval

	newDev.OverSampling, _ = strconv.ParseInt(yCfg.Global["oversampling"], 10, 64)
	if newDev.OverSampling < 1 || newDev.OverSampling > 10 {
		if yCfg.Global["oversampling"] != "" {
			log.Warningf("%s: oversampling must fall between 1 and 10, using default", newDev.DevName)
		}
		newDev.OverSampling = defaultOverSampling
	}

	newDev.WdMultiplier, _ = strconv.ParseInt(yCfg.Global["wd_multiplier"], 10, 64)
	if newDev.WdMultiplier < 1 {
		newDev.WdMultiplier = defaultWdMultiplier
	}

	c.clientCfg[src.Keys["name"]] = newDev
}

// buildPluginCfg builds every plugin instance's configuration for one
// device.
func (c *Core) buildPluginCfg(yCfg *yamlConfig, index int) {
	src := yCfg.Devices[index]
	scrapeInterval, _ := time.ParseDuration(yCfg.Global["scrape_interval"])

	c.plugCfg[src.Keys["name"]] = make([]plugin.Config, 0, len(src.Plugins))
	for _, plugName := range src.Plugins {
		newPlug := plugin.Config{
			InstanceName:   yCfg.Global["instance_name"],
			DevName:        src.Keys["name"],
			PlugName:       plugName,
			MetricPrefix:   yCfg.Global["metric_prefix"],
			ScrapeInterval: scrapeInterval,
		}
		c.plugCfg[src.Keys["name"]] = append(c.plugCfg[src.Keys["name"]], newPlug)
	}
}
