package engine

import (
	"math/rand/v2"
	"slices"
	"testing"
	"time"
)

type fixedWords struct {
	words []string
	next  int
}

func (f *fixedWords) PickWord(*rand.Rand) string {
	w := f.words[f.next%len(f.words)]
	f.next++
	return w
}

func (f *fixedWords) Alphabet() []string {
	var out []string
	for _, w := range f.words {
		for _, l := range Letters(w) {
			if !slices.Contains(out, l) {
				out = append(out, l)
			}
		}
	}
	return out
}

func (f *fixedWords) Choices(word string, n int, _ *rand.Rand) []string {
	out := []string{word}
	for _, w := range f.words {
		if len(out) >= n {
			break
		}
		if w != word {
			out = append(out, w)
		}
	}
	return out
}

func (f *fixedWords) Illustration(word string) string { return "assets/" + word + ".png" }

type manualScheduler struct {
	next      Handle
	pending   map[Handle]func()
	delays    map[Handle]time.Duration
	scheduled int
	cancelled int
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{pending: map[Handle]func(){}, delays: map[Handle]time.Duration{}}
}

func (m *manualScheduler) Schedule(d time.Duration, fn func()) Handle {
	m.next++
	m.pending[m.next] = fn
	m.delays[m.next] = d
	m.scheduled++
	return m.next
}

func (m *manualScheduler) Cancel(h Handle) {
	if _, ok := m.pending[h]; ok {
		m.cancelled++
	}
	delete(m.pending, h)
}

// fire runs h even if it was cancelled, the way a late timer would.
func (m *manualScheduler) fire(h Handle, fn func()) {
	delete(m.pending, h)
	fn()
}

func (m *manualScheduler) FireAll() {
	for h, fn := range m.pending {
		m.fire(h, fn)
	}
}

func testRand() *rand.Rand { return rand.New(rand.NewPCG(1, 2)) }

type testBoard struct {
	*Board
	cues    *EventLog
	sched   *manualScheduler
	results []Result
}

func newTestBoard(t *testing.T, cfg Config, words ...string) *testBoard {
	t.Helper()
	if len(words) == 0 {
		words = []string{"ねこ", "いぬ", "くま", "さる", "かに"}
	}
	tb := &testBoard{cues: &EventLog{}, sched: newManualScheduler()}
	tb.Board = NewBoard(cfg, Deps{
		Words:     &fixedWords{words: words},
		Rand:      testRand(),
		Cues:      tb.cues,
		Scheduler: tb.sched,
		OnResult:  func(r Result) { tb.results = append(tb.results, r) },
	})
	tb.NewRound()
	tb.cues.Drain()
	return tb
}

// tileWith returns the id of the first tile carrying letter.
func (tb *testBoard) tileWith(t *testing.T, letter string) int {
	t.Helper()
	for _, tile := range tb.Tiles() {
		if tile.Letter == letter {
			return tile.ID
		}
	}
	t.Fatalf("no tile with letter %q in %+v", letter, tb.Tiles())
	return -1
}

func (tb *testBoard) letters() []string {
	var out []string
	for _, s := range tb.Slots() {
		out = append(out, s.Letter)
	}
	return out
}

func countEvents(events []Event, eventType EventType) int {
	n := 0
	for _, e := range events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

func ptr[T any](v T) *T { return &v }
