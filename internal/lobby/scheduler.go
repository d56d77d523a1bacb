package lobby

import (
	"time"

	"github.com/DoyleJ11/hiragana-drop/internal/engine"
)

// scheduler implements engine.Scheduler on wall-clock timers. A timer only
// posts TimerFired; the callback itself runs on the lobby goroutine.
type scheduler struct {
	post   func(Msg)
	next   engine.Handle
	timers map[engine.Handle]*time.Timer
	fns    map[engine.Handle]func()
}

var _ engine.Scheduler = (*scheduler)(nil)

func newScheduler(post func(Msg)) *scheduler {
	return &scheduler{
		post:   post,
		timers: make(map[engine.Handle]*time.Timer),
		fns:    make(map[engine.Handle]func()),
	}
}

func (s *scheduler) Schedule(d time.Duration, fn func()) engine.Handle {
	s.next++
	h := s.next
	s.fns[h] = fn
	s.timers[h] = time.AfterFunc(d, func() { s.post(TimerFired{Handle: h}) })
	return h
}

func (s *scheduler) Cancel(h engine.Handle) {
	if t, ok := s.timers[h]; ok {
		t.Stop()
	}
	delete(s.timers, h)
	delete(s.fns, h)
}

// fire runs h's callback unless h was cancelled after its timer went off.
func (s *scheduler) fire(h engine.Handle) {
	fn, ok := s.fns[h]
	if !ok {
		return
	}
	delete(s.timers, h)
	delete(s.fns, h)
	fn()
}

func (s *scheduler) pending() int { return len(s.fns) }

func (s *scheduler) stopAll() {
	for h := range s.timers {
		s.Cancel(h)
	}
}
