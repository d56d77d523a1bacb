package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTimer_StartReplacesPending(t *testing.T) {
	sched := newManualScheduler()
	timer := NewRoundTimer(sched)

	first, second := 0, 0
	timer.Start(time.Second, func() { first++ })
	h1 := sched.next
	stale := sched.pending[h1]
	timer.Start(2*time.Second, func() { second++ })

	assert.Equal(t, 1, sched.cancelled)
	require.Len(t, sched.pending, 1)
	assert.True(t, timer.Pending())

	// A fire that slipped past Cancel does nothing.
	sched.fire(h1, stale)
	assert.Equal(t, 0, first)
	assert.True(t, timer.Pending())

	sched.FireAll()
	assert.Equal(t, 1, second)
	assert.False(t, timer.Pending())
}

func TestRoundTimer_StopIsIdempotent(t *testing.T) {
	sched := newManualScheduler()
	timer := NewRoundTimer(sched)

	timer.Stop()
	timer.Start(time.Second, func() { t.Fatal("stopped timer fired") })
	timer.Stop()
	timer.Stop()

	assert.Equal(t, 1, sched.cancelled)
	assert.Empty(t, sched.pending)
	assert.False(t, timer.Pending())
}

func TestRoundTimer_NilScheduler(t *testing.T) {
	timer := NewRoundTimer(nil)
	timer.Start(time.Second, func() {})
	assert.False(t, timer.Pending())
}
