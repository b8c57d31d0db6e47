package gnmiclient

import "time"

// watchdog detects a silent stream: if kick is not called within timeout, it
// signals expiry once on its channel. Grounded on original_source's
// _WatchDog thread (a 1-second-tick decrementing counter); re-expressed here
// as idiomatic Go, a time.Timer reset on every kick rather than a ticking
// counter, since that is the natural Go shape for the same contract.
type watchdog struct {
	timeout time.Duration
	timer   *time.Timer
	expired chan struct{}
}

func newWatchdog(timeout time.Duration) *watchdog {
	w := &watchdog{
		timeout: timeout,
		expired: make(chan struct{}, 1),
	}
	w.timer = time.AfterFunc(timeout, w.fire)
	return w
}

func (w *watchdog) fire() {
	select {
	case w.expired <- struct{}{}:
	default:
	}
}

// kick resets the timeout window. Called by the receive loop on every
// inbound SubscribeResponse.
func (w *watchdog) kick() {
	w.timer.Reset(w.timeout)
}

// stop halts the timer permanently. Called on session teardown.
func (w *watchdog) stop() {
	w.timer.Stop()
}
