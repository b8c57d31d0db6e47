package gnmiclient

import (
	"context"

	log "github.com/golang/glog"
	"github.com/openconfig/gnmi/proto/gnmi"

	"github.com/automixer/gnmi-exporter/pkg/gnmipath"
	"github.com/automixer/gnmi-exporter/pkg/plugin"
)

// subscribe opens the bidi Subscribe stream and sends one SubscribeRequest
// per registered plugin, each carrying that plugin's own SubscriptionList
// with its target set in Prefix — required so routeNotification can later
// dispatch on prefix.target (§4.3.1).
func (c *Client) subscribe(ctx context.Context, stub gnmi.GNMIClient, encoding gnmi.Encoding) (gnmi.GNMI_SubscribeClient, error) {
	sub, err := stub.Subscribe(ctx)
	if err != nil {
		return nil, &DialError{Dev: c.config.DevName, Op: "subscribe", Err: err}
	}

	for target, p := range c.plugins {
		sl := c.newSubscriptionList(target, p, encoding)
		if len(sl.Subscription) == 0 {
			log.Warningf("%s: plugin %s has no valid paths, skipping", c.config.DevName, p.GetPlugName())
			continue
		}
		req := &gnmi.SubscribeRequest{
			Request: &gnmi.SubscribeRequest_Subscribe{Subscribe: sl},
		}
		if err := sub.Send(req); err != nil {
			return nil, &DialError{Dev: c.config.DevName, Op: "subscribe", Err: err}
		}
	}

	return sub, nil
}

// newSubscriptionList builds one plugin's SubscriptionList: every configured
// xpath resolved to a gNMI path under the plugin's own origin, at the
// session's sample interval.
func (c *Client) newSubscriptionList(target string, p plugin.Plugin, encoding gnmi.Encoding) *gnmi.SubscriptionList {
	paths := p.GetPaths()
	sampleInterval := uint64(c.config.SampleInterval().Nanoseconds())

	var subs []*gnmi.Subscription
	for _, xpath := range paths.XPaths {
		gp, err := gnmipath.XpathToGNMI(xpath, paths.Origin, target)
		if err != nil {
			log.Errorf("%s: plugin %s: malformed path %q: %v", c.config.DevName, p.GetPlugName(), xpath, err)
			continue
		}
		subs = append(subs, &gnmi.Subscription{
			Path:              gp.ToProto(),
			Mode:              gnmi.SubscriptionMode_SAMPLE,
			SampleInterval:    sampleInterval,
			SuppressRedundant: false,
		})
	}

	return &gnmi.SubscriptionList{
		Prefix:           &gnmi.Path{Target: target},
		Subscription:     subs,
		Mode:             gnmi.SubscriptionList_STREAM,
		AllowAggregation: false,
		Encoding:         encoding,
		UpdatesOnly:      false,
	}
}
