package gnmiclient

import "time"

// Config is one device's session configuration, matching spec.md §3's
// session config shape.
type Config struct {
	DevName  string
	IPAddress string
	Port     string
	User     string
	Password string

	// Plugins is the set of plugin names enabled for this device.
	Plugins map[string]bool

	ScrapeInterval   time.Duration
	OverSampling     int64
	WdMultiplier     int64
	ForceEncoding    string
	BypassMsgRouting bool
}

// SampleInterval derives the gNMI sample_interval from scrape_interval and
// oversampling: sample_interval_ns = scrape_interval_s * 1e9 / oversampling.
func (c Config) SampleInterval() time.Duration {
	if c.OverSampling <= 0 {
		return c.ScrapeInterval
	}
	return time.Duration(c.ScrapeInterval.Nanoseconds() / c.OverSampling)
}

// WatchdogTimeout derives the silent-stream stall threshold:
// watchdog_timeout_s = scrape_interval_s * wd_multiplier.
func (c Config) WatchdogTimeout() time.Duration {
	if c.WdMultiplier <= 0 {
		return c.ScrapeInterval
	}
	return c.ScrapeInterval * time.Duration(c.WdMultiplier)
}
