package plugin

import (
	"sort"
	"time"

	"github.com/openconfig/gnmi/proto/gnmi"
)

const (
	bufInitialCap         = 2048
	scrapeDelayMultiplier = 2
)

// buffer holds inbound notifications between scrapes. It is deadline-bounded:
// if nothing checks it out within scrapeInt*scrapeDelayMultiplier, it stops
// accepting new notifications and drops what it is holding, rather than
// growing without bound while nobody is scraping.
type buffer struct {
	buf       []*gnmi.Notification
	scrapeInt time.Duration
	deadline  time.Time
	noScrape  bool
}

func newBuffer(scrapeInt time.Duration) *buffer {
	return &buffer{
		buf:       make([]*gnmi.Notification, 0, bufInitialCap),
		scrapeInt: scrapeInt,
		deadline:  time.Now().Add(scrapeInt * scrapeDelayMultiplier),
	}
}

// add appends nf unless the buffer has passed its deadline, in which case it
// clears itself and enters noScrape until the next checkout.
func (b *buffer) add(nf *gnmi.Notification) {
	if b.noScrape {
		return
	}
	if time.Now().After(b.deadline) {
		b.noScrape = true
		b.clear()
		return
	}
	b.buf = append(b.buf, nf)
}

// checkout returns the buffered notifications sorted by timestamp ascending
// and resets the buffer for the next collection window.
func (b *buffer) checkout() []*gnmi.Notification {
	out := b.buf
	b.clear()
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	b.noScrape = false
	b.deadline = time.Now().Add(b.scrapeInt * scrapeDelayMultiplier)
	return out
}

func (b *buffer) clear() {
	b.buf = make([]*gnmi.Notification, 0, bufInitialCap)
}
