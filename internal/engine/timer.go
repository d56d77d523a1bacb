package engine

import "time"

// Handle identifies one scheduled callback. The zero Handle is never issued.
type Handle uint64

// Scheduler runs fn once after d unless cancelled first. Implementations must
// invoke fn on the same goroutine that drives the board.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) Handle
	Cancel(h Handle)
}

// RoundTimer keeps at most one outstanding callback.
type RoundTimer struct {
	sched   Scheduler
	pending Handle
}

func NewRoundTimer(sched Scheduler) *RoundTimer {
	return &RoundTimer{sched: sched}
}

// Start cancels any pending callback, then schedules fn.
func (t *RoundTimer) Start(d time.Duration, fn func()) {
	t.Stop()
	if t.sched == nil {
		return
	}
	var h Handle
	h = t.sched.Schedule(d, func() {
		// A fire that lost a race with Stop/Start is stale.
		if t.pending != h {
			return
		}
		t.pending = 0
		fn()
	})
	t.pending = h
}

func (t *RoundTimer) Stop() {
	if t.pending == 0 {
		return
	}
	if t.sched != nil {
		t.sched.Cancel(t.pending)
	}
	t.pending = 0
}

func (t *RoundTimer) Pending() bool { return t.pending != 0 }
