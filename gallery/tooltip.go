package gallery

import (
	"sync"
	"time"

	"github.com/bodgit/forest/plant"
)

// DefaultDismissDelay is how long the tooltip stays after the pointer leaves
const DefaultDismissDelay = 250 * time.Millisecond

// Tooltip tracks the plant whose details are shown while the pointer hovers
// over it. Leaving the plant, or the tooltip itself, schedules a dismissal
// which entering either again cancels. At most one dismissal is pending.
type Tooltip struct {
	mu sync.Mutex

	delay  time.Duration
	active *plant.Plant

	timer *time.Timer
	// Bumped whenever the pending dismissal is cancelled or replaced so a
	// timer that has already fired can tell it is stale
	seq uint64

	closed bool
}

// NewTooltip returns a Tooltip dismissed delay after the pointer leaves
func NewTooltip(delay time.Duration) *Tooltip {
	if delay <= 0 {
		delay = DefaultDismissDelay
	}
	return &Tooltip{delay: delay}
}

func (t *Tooltip) cancel() {
	t.seq++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

func (t *Tooltip) schedule() {
	t.cancel()
	if t.active == nil || t.closed {
		return
	}
	seq := t.seq
	t.timer = time.AfterFunc(t.delay, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.seq != seq {
			return
		}
		t.active = nil
		t.timer = nil
	})
}

// Enter shows p, replacing whatever was shown
func (t *Tooltip) Enter(p plant.Plant) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.cancel()
	t.active = &p
}

// Leave schedules the dismissal of the shown plant
func (t *Tooltip) Leave() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.schedule()
}

// EnterInfo keeps the tooltip shown while the pointer is over it
func (t *Tooltip) EnterInfo() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancel()
}

// LeaveInfo schedules the dismissal once the pointer leaves the tooltip
func (t *Tooltip) LeaveInfo() {
	t.Leave()
}

// Active returns the shown plant, if any
func (t *Tooltip) Active() (plant.Plant, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == nil {
		return plant.Plant{}, false
	}
	return *t.active, true
}

// Pending reports whether a dismissal is scheduled
func (t *Tooltip) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timer != nil
}

// Close hides the tooltip and cancels any pending dismissal
func (t *Tooltip) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancel()
	t.active = nil
	t.closed = true
}
