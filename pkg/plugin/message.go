package plugin

import (
	log "github.com/golang/glog"
	"github.com/openconfig/gnmi/proto/gnmi"
)

// notAvailable is substituted for any path key that is missing or malformed,
// so a render never aborts on one bad leaf.
const notAvailable = "not_available"

// gnmiMessage is the flattened, concatenated-path representation shared by
// Update and Delete: the notification's prefix elements followed by the
// update/delete-specific elements, in order.
type gnmiMessage struct {
	Timestamp int64
	Path      []string
	PathKeys  []map[string]string
}

func scanPath(path *gnmi.Path, out *gnmiMessage) {
	if path == nil {
		return
	}
	for _, pe := range path.Elem {
		out.Path = append(out.Path, pe.Name)
		out.PathKeys = append(out.PathKeys, pe.Key)
	}
}

// GetPathKey returns the named key at the given path element index, or the
// notAvailable sentinel if the index or key is missing.
func (m gnmiMessage) GetPathKey(index int, name string) string {
	if index < 0 || index >= len(m.PathKeys) {
		log.Error("the required path key is not available")
		return notAvailable
	}
	v, ok := m.PathKeys[index][name]
	if !ok {
		log.Error("the required path key is not available")
		return notAvailable
	}
	return v
}

// Update is one gNMI update flattened into a prefix+path message, plus the
// leaf value and duplicate counter carried by the update itself.
type Update struct {
	gnmiMessage
	Val        interface{}
	Duplicates uint32
}

// Delete is one gNMI delete flattened into a prefix+path message.
type Delete struct {
	gnmiMessage
}

func newUpdate(nf *gnmi.Notification, upd *gnmi.Update) Update {
	u := Update{gnmiMessage: gnmiMessage{Timestamp: nf.Timestamp}}
	scanPath(nf.Prefix, &u.gnmiMessage)
	scanPath(upd.Path, &u.gnmiMessage)
	u.Val = typedValue(upd.Val)
	u.Duplicates = upd.Duplicates
	return u
}

func newDelete(nf *gnmi.Notification, path *gnmi.Path) Delete {
	d := Delete{gnmiMessage: gnmiMessage{Timestamp: nf.Timestamp}}
	scanPath(nf.Prefix, &d.gnmiMessage)
	scanPath(path, &d.gnmiMessage)
	return d
}

// typedValue extracts the concrete Go value out of a gnmi.TypedValue,
// mirroring Python's getattr(val, val.WhichOneof('value')).
func typedValue(tv *gnmi.TypedValue) interface{} {
	if tv == nil {
		return nil
	}
	switch v := tv.Value.(type) {
	case *gnmi.TypedValue_StringVal:
		return v.StringVal
	case *gnmi.TypedValue_IntVal:
		return v.IntVal
	case *gnmi.TypedValue_UintVal:
		return v.UintVal
	case *gnmi.TypedValue_BoolVal:
		return v.BoolVal
	case *gnmi.TypedValue_BytesVal:
		return v.BytesVal
	case *gnmi.TypedValue_FloatVal:
		return v.FloatVal
	case *gnmi.TypedValue_DecimalVal:
		return v.DecimalVal
	case *gnmi.TypedValue_LeaflistVal:
		return v.LeaflistVal
	case *gnmi.TypedValue_AnyVal:
		return v.AnyVal
	case *gnmi.TypedValue_JsonVal:
		return v.JsonVal
	case *gnmi.TypedValue_JsonIetfVal:
		return v.JsonIetfVal
	case *gnmi.TypedValue_AsciiVal:
		return v.AsciiVal
	case *gnmi.TypedValue_ProtoBytes:
		return v.ProtoBytes
	default:
		return nil
	}
}
