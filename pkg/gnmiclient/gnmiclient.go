// Package gnmiclient implements the session engine (C3): one state machine
// per configured device that dials, checks capabilities, subscribes, and
// streams gNMI telemetry into its plugin set, reconnecting on failure or a
// silent-stream watchdog expiry.
package gnmiclient

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	log "github.com/golang/glog"
	"github.com/openconfig/gnmi/proto/gnmi"
	"google.golang.org/grpc"

	"github.com/automixer/gnmi-exporter/pkg/plugin"
)

const reconnectTimeout = 10 * time.Second
const capabilitiesTimeout = 10 * time.Second

// preferredEncodings is the order checkCapabilities walks when no forced
// encoding is configured, or the forced one isn't supported.
var preferredEncodings = []gnmi.Encoding{
	gnmi.Encoding_PROTO,
	gnmi.Encoding_JSON,
	gnmi.Encoding_JSON_IETF,
	gnmi.Encoding_ASCII,
}

// Client is a session: one instance per configured device.
type Client struct {
	config  Config
	plugins map[string]plugin.Plugin // keyed by subscription target == plugin name

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Client for one device. Call RegisterPlugin for every plugin
// enabled on this device, then Start.
func New(cfg Config) *Client {
	return &Client{config: cfg, plugins: make(map[string]plugin.Plugin)}
}

// RegisterPlugin attaches a plugin instance to this session, keyed by the
// subscription target its PathsDescriptor names.
func (c *Client) RegisterPlugin(p plugin.Plugin) error {
	target := p.GetPaths().Target
	if target == "" {
		return fmt.Errorf("plugin %s has no subscription target", p.GetPlugName())
	}
	if _, ok := c.plugins[target]; ok {
		return fmt.Errorf("target %s is already registered", target)
	}
	c.plugins[target] = p
	return nil
}

// Start spawns the session's run loop. Non-blocking.
func (c *Client) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.run(ctx)
	}()
}

// Close requests the session to terminate (EXITING) and waits for its
// goroutine to exit.
func (c *Client) Close() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	c.wg.Wait()
}

func (c *Client) target() string {
	if net.ParseIP(c.config.IPAddress) != nil {
		return fmt.Sprintf("%s:%s", c.config.IPAddress, c.config.Port)
	}
	return fmt.Sprintf("dns:///%s:%s", c.config.IPAddress, c.config.Port)
}

// run is INIT -> DIALING -> CAPS_CHECK -> SUBSCRIBING -> STREAMING, looping
// back to DIALING on disconnect and exiting when ctx is cancelled.
func (c *Client) run(ctx context.Context) {
	dialOpts := c.newDialOptions()

	for {
		if ctx.Err() != nil {
			return
		}

		// DIALING
		log.Infof("dialing %s", c.config.DevName)
		conn, err := grpc.NewClient(c.target(), dialOpts...)
		if err != nil {
			log.Error(&DialError{Dev: c.config.DevName, Op: "dial", Err: err})
			if c.sleepOrExit(ctx, reconnectTimeout) {
				return
			}
			continue
		}
		stub := gnmi.NewGNMIClient(conn)

		// CAPS_CHECK
		capsCtx, capsCancel := context.WithTimeout(ctx, capabilitiesTimeout)
		encoding, err := c.checkCapabilities(capsCtx, stub)
		capsCancel()
		if err != nil {
			log.Error(err)
			_ = conn.Close()
			if c.sleepOrExit(ctx, reconnectTimeout) {
				return
			}
			continue
		}

		// SUBSCRIBING
		sub, err := c.subscribe(ctx, stub, encoding)
		if err != nil {
			log.Error(err)
			_ = conn.Close()
			if c.sleepOrExit(ctx, reconnectTimeout) {
				return
			}
			continue
		}

		// STREAMING
		log.Infof("%s is now streaming", c.config.DevName)
		c.stream(ctx, sub)

		// DISCONNECT
		for _, p := range c.plugins {
			p.OnSync(false)
		}
		_ = conn.Close()
	}
}

// sleepOrExit sleeps for d, interruptible by ctx; returns true if the
// session should exit instead of retrying.
func (c *Client) sleepOrExit(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return true
	case <-time.After(d):
		return false
	}
}

// checkCapabilities verifies every plugin's required YANG models are
// present, then selects an encoding.
func (c *Client) checkCapabilities(ctx context.Context, stub gnmi.GNMIClient) (gnmi.Encoding, error) {
	caps, err := stub.Capabilities(ctx, &gnmi.CapabilityRequest{})
	if err != nil {
		return 0, &DialError{Dev: c.config.DevName, Op: "capabilities", Err: err}
	}

	supportedModels := make(map[string]bool, len(caps.SupportedModels))
	for _, m := range caps.SupportedModels {
		supportedModels[m.Name] = true
	}
	for _, p := range c.plugins {
		for _, model := range p.GetPaths().DataModels {
			if !supportedModels[model] {
				return 0, &DialError{Dev: c.config.DevName, Op: "capabilities",
					Err: fmt.Errorf("required yang model %q is not supported", model)}
			}
		}
	}

	supportedEncodings := make(map[gnmi.Encoding]bool, len(caps.SupportedEncodings))
	for _, e := range caps.SupportedEncodings {
		supportedEncodings[e] = true
	}

	if c.config.ForceEncoding != "" {
		if enc, ok := parseEncoding(c.config.ForceEncoding); ok && supportedEncodings[enc] {
			return enc, nil
		}
	}
	for _, enc := range preferredEncodings {
		if supportedEncodings[enc] {
			return enc, nil
		}
	}
	return gnmi.Encoding_JSON, nil
}

func parseEncoding(s string) (gnmi.Encoding, bool) {
	switch strings.ToUpper(s) {
	case "JSON":
		return gnmi.Encoding_JSON, true
	case "BYTES":
		return gnmi.Encoding_BYTES, true
	case "PROTO":
		return gnmi.Encoding_PROTO, true
	case "ASCII":
		return gnmi.Encoding_ASCII, true
	case "JSON_IETF":
		return gnmi.Encoding_JSON_IETF, true
	default:
		return 0, false
	}
}

// stream starts the watchdog and the receive loop, blocking until the
// stream ends: the peer closed it, an RPC error occurred, or the watchdog
// fired.
func (c *Client) stream(ctx context.Context, sub gnmi.GNMI_SubscribeClient) {
	wd := newWatchdog(c.config.WatchdogTimeout())
	defer wd.stop()

	msgs := make(chan *gnmi.SubscribeResponse, 128)
	recvErr := make(chan error, 1)
	go func() {
		for {
			sr, err := sub.Recv()
			if err != nil {
				close(msgs)
				recvErr <- err
				return
			}
			msgs <- sr
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-wd.expired:
			log.Warningf("%s: watchdog expired, no data for %s", c.config.DevName, c.config.WatchdogTimeout())
			return
		case sr, ok := <-msgs:
			if !ok {
				err := <-recvErr
				log.Error(&DialError{Dev: c.config.DevName, Op: "receive", Err: err})
				return
			}
			wd.kick()
			c.routeSr(sr)
		}
	}
}

// routeSr implements §4.3.1 notification routing.
func (c *Client) routeSr(sr *gnmi.SubscribeResponse) {
	switch r := sr.Response.(type) {
	case *gnmi.SubscribeResponse_SyncResponse:
		for _, p := range c.plugins {
			p.OnSync(r.SyncResponse)
		}
	case *gnmi.SubscribeResponse_Update:
		c.routeNotification(r.Update)
	case *gnmi.SubscribeResponse_Error:
		log.Errorf("%s: subscribe response error: %v", c.config.DevName, r.Error)
	}
}

func (c *Client) routeNotification(nf *gnmi.Notification) {
	if c.config.BypassMsgRouting {
		for _, p := range c.plugins {
			p.Notification(nf)
		}
		return
	}

	target := nf.GetPrefix().GetTarget()
	p, ok := c.plugins[target]
	if !ok {
		log.Errorf("%s: notification target %q does not name a loaded plugin, dropping (enable bypass_msg_routing?)",
			c.config.DevName, target)
		return
	}
	p.Notification(nf)
}
