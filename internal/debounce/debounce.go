// Package debounce coalesces bursts of calls into a single delayed call.
package debounce

import (
	"sync"
	"time"
)

// Debouncer runs only the last function handed to Trigger, once delay has passed
// without another Trigger. It is safe for concurrent use.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	gen     uint64
	stopped bool
}

// New creates a Debouncer with the given quiet period.
func New(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger schedules fn, replacing any pending function.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		current := d.gen == gen && !d.stopped
		if current {
			d.timer = nil
		}
		d.mu.Unlock()

		// A timer that already fired can lose the race against a newer Trigger or Cancel.
		if current {
			fn()
		}
	})
}

// Cancel drops the pending function, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
}

// pending reports whether a function is scheduled.
func (d *Debouncer) pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Stop cancels the pending function and turns later Triggers into no-ops.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
	d.stopped = true
}

func (d *Debouncer) cancelLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}
