package engine

import (
	"strings"
	"time"
)

type Transition int

const (
	TransitionNone Transition = iota
	TransitionCompleted
	TransitionUncompleted
)

func (t Transition) String() string {
	switch t {
	case TransitionCompleted:
		return "completed"
	case TransitionUncompleted:
		return "uncompleted"
	default:
		return "none"
	}
}

// Evaluator detects edges of the board's completion state and fires the
// celebration or reset side effects exactly once per edge.
type Evaluator struct {
	slots        *Slots
	cues         Collaborators
	timer        *RoundTimer
	delay        time.Duration
	next         func()
	wasCompleted bool
}

func NewEvaluator(slots *Slots, cues Collaborators, timer *RoundTimer, delay time.Duration, next func()) *Evaluator {
	return &Evaluator{slots: slots, cues: cues, timer: timer, delay: delay, next: next}
}

// IsComplete reports whether every word position holds its exact letter and
// no slot past the word is filled.
func (e *Evaluator) IsComplete() bool {
	word := e.slots.Word()
	if len(word) == 0 {
		return false
	}
	for i, want := range word {
		slot, ok := e.slots.Get(i)
		if !ok || slot.Letter != want {
			return false
		}
	}
	for i := len(word); i < e.slots.Len(); i++ {
		if slot, _ := e.slots.Get(i); slot.Filled {
			return false
		}
	}
	return true
}

func (e *Evaluator) EvaluateTransition() Transition {
	complete := e.IsComplete()
	switch {
	case complete && !e.wasCompleted:
		e.wasCompleted = true
		e.cues.RevealWord(strings.Join(e.slots.Word(), ""))
		e.cues.ShowCompletion()
		e.cues.PlayCelebration()
		if e.next != nil {
			e.timer.Start(e.delay, e.next)
		}
		return TransitionCompleted
	case !complete && e.wasCompleted:
		e.wasCompleted = false
		e.cues.ResetToPreview()
		e.timer.Stop()
		return TransitionUncompleted
	default:
		return TransitionNone
	}
}

func (e *Evaluator) Completed() bool { return e.wasCompleted }

// Reset forgets the last completion state without firing side effects.
func (e *Evaluator) Reset() { e.wasCompleted = false }
