package plugin

import (
	"testing"
	"time"

	"github.com/openconfig/gnmi/proto/gnmi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBase(t *testing.T) *Base {
	t.Helper()
	b, err := NewBase(Config{PlugName: "test", ScrapeInterval: time.Second}, nil)
	require.NoError(t, err)
	return b
}

func notification(value string) *gnmi.Notification {
	return &gnmi.Notification{
		Timestamp: time.Now().UnixNano(),
		Prefix:    &gnmi.Path{Elem: []*gnmi.PathElem{{Name: "interfaces"}}},
		Update: []*gnmi.Update{
			{
				Path: &gnmi.Path{Elem: []*gnmi.PathElem{{Name: "interface", Key: map[string]string{"name": "eth0"}}, {Name: "state"}}},
				Val:  &gnmi.TypedValue{Value: &gnmi.TypedValue_StringVal{StringVal: value}},
			},
		},
	}
}

func TestCheckoutReturnsNothingWhenNotSynced(t *testing.T) {
	b := newTestBase(t)
	b.Notification(notification("up"))
	updates, deletes := b.Checkout()
	assert.Empty(t, updates)
	assert.Empty(t, deletes)
}

func TestCheckoutReturnsBufferedUpdatesWhenSynced(t *testing.T) {
	b := newTestBase(t)
	b.OnSync(true)
	b.Notification(notification("up"))
	b.Notification(notification("down"))
	updates, deletes := b.Checkout()
	require.Len(t, updates, 2)
	assert.Empty(t, deletes)
	assert.Equal(t, "up", updates[0].Val)
	assert.Equal(t, []string{"interfaces", "interface", "state"}, updates[0].Path)
	assert.Equal(t, "eth0", updates[0].GetPathKey(1, "name"))
}

func TestSyncFalseAfterTrueClearsBuffer(t *testing.T) {
	b := newTestBase(t)
	b.OnSync(true)
	b.Notification(notification("a"))
	b.Notification(notification("b"))
	b.Notification(notification("c"))
	b.OnSync(false)
	updates, deletes := b.Checkout()
	assert.Empty(t, updates)
	assert.Empty(t, deletes)
}

func TestCheckoutSortsByTimestampAscending(t *testing.T) {
	b := newTestBase(t)
	b.OnSync(true)
	older := notification("old")
	older.Timestamp = 100
	newer := notification("new")
	newer.Timestamp = 200
	b.Notification(newer)
	b.Notification(older)
	updates, _ := b.Checkout()
	require.Len(t, updates, 2)
	assert.Equal(t, "old", updates[0].Val)
	assert.Equal(t, "new", updates[1].Val)
}

func TestGetPathKeyMissingReturnsSentinel(t *testing.T) {
	b := newTestBase(t)
	b.OnSync(true)
	b.Notification(notification("up"))
	updates, _ := b.Checkout()
	require.Len(t, updates, 1)
	assert.Equal(t, "not_available", updates[0].GetPathKey(0, "missing"))
	assert.Equal(t, "not_available", updates[0].GetPathKey(99, "name"))
}
