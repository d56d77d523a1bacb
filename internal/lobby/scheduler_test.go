package lobby

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScheduler_PostsFiresAndDropsCancelled(t *testing.T) {
	posted := make(chan Msg, 4)
	s := newScheduler(func(m Msg) { posted <- m })

	ran := 0
	h1 := s.Schedule(time.Millisecond, func() { ran++ })
	h2 := s.Schedule(time.Hour, func() { ran += 10 })
	assert.Equal(t, 2, s.pending())

	var fired TimerFired
	select {
	case m := <-posted:
		fired = m.(TimerFired)
	case <-time.After(time.Second):
		t.Fatal("timer never posted")
	}
	assert.Equal(t, h1, fired.Handle)

	s.fire(fired.Handle)
	assert.Equal(t, 1, ran)

	// Already fired, or cancelled after the timer went off: both are no-ops.
	s.fire(h1)
	s.Cancel(h2)
	s.fire(h2)
	assert.Equal(t, 1, ran)
	assert.Equal(t, 0, s.pending())
}

func TestScheduler_StopAll(t *testing.T) {
	posted := make(chan Msg, 4)
	s := newScheduler(func(m Msg) { posted <- m })
	s.Schedule(20*time.Millisecond, func() {})
	s.Schedule(20*time.Millisecond, func() {})

	s.stopAll()
	assert.Equal(t, 0, s.pending())
	select {
	case m := <-posted:
		t.Fatalf("stopped timer posted %+v", m)
	case <-time.After(60 * time.Millisecond):
	}
}
