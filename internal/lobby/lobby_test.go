package lobby

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/hiragana-drop/internal/engine"
	"github.com/DoyleJ11/hiragana-drop/internal/history"
	"github.com/DoyleJ11/hiragana-drop/internal/words"
)

const testDelay = 60 * time.Millisecond

// helper: receive one update with a timeout so tests never hang
func recvUpdate(t *testing.T, ch <-chan Update, within time.Duration) Update {
	t.Helper()
	select {
	case u, ok := <-ch:
		if !ok {
			t.Fatalf("client outbox closed unexpectedly")
		}
		return u
	case <-time.After(within):
		t.Fatalf("timed out waiting for update")
		return Update{} // unreachable
	}
}

func recvNoUpdate(t *testing.T, ch <-chan Update, within time.Duration) {
	t.Helper()
	select {
	case u, ok := <-ch:
		if !ok {
			// channel closed → that's fine; no further updates possible
			return
		}
		t.Fatalf("expected no update within %v, but got: %+v", within, u)
	case <-time.After(within):
		// good: no update
	}
}

// recvUntil reads updates until pred holds, collecting every event seen.
func recvUntil(t *testing.T, ch <-chan Update, pred func(Update) bool) (Update, []engine.Event) {
	t.Helper()
	var events []engine.Event
	for {
		u := recvUpdate(t, ch, time.Second)
		events = append(events, u.Events...)
		if pred(u) {
			return u, events
		}
	}
}

func recvView(t *testing.T, ch <-chan View, within time.Duration) View {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(within):
		t.Fatalf("timed out waiting for view")
		return View{} // unreachable
	}
}

func getView(t *testing.T, l *Lobby) View {
	t.Helper()
	reply := make(chan View, 1)
	l.Inbox() <- GetState{Reply: reply}
	return recvView(t, reply, time.Second)
}

func newTestLobby(t *testing.T, mutate func(*Options)) *Lobby {
	t.Helper()
	catalog, err := words.Parse([]byte("words:\n  - word: ねこ\n    image: neko\n    png: true\n"))
	require.NoError(t, err)

	cfg := engine.DefaultConfig()
	cfg.NextRoundDelay = testDelay
	opts := Options{
		Code:  "ABCDEF",
		Board: cfg,
		Words: catalog,
		Rand:  rand.New(rand.NewPCG(3, 4)),
	}
	if mutate != nil {
		mutate(&opts)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewLobby(ctx, opts)
}

func tileWith(t *testing.T, s engine.State, letter string) int {
	t.Helper()
	for _, tile := range s.Tiles {
		if tile.Letter == letter {
			return tile.ID
		}
	}
	t.Fatalf("no tile with %q in %+v", letter, s.Tiles)
	return -1
}

func place(l *Lobby, tile, slot int) {
	l.Inbox() <- FromClient{ClientID: "c1", Cmd: engine.Command{Type: engine.CmdPlaceTile, TileID: tile, Slot: slot}}
}

func TestLobby_JoinSendsCurrentState(t *testing.T) {
	l := newTestLobby(t, nil)
	out := make(chan Update, 4)
	l.Inbox() <- Join{ClientID: "c1", Caps: engine.Capabilities{PointerEvents: true}, Outbox: out}

	first := recvUpdate(t, out, 100*time.Millisecond)
	assert.Equal(t, 0, first.Version)
	assert.Equal(t, 1, first.State.Round)
	assert.Len(t, first.State.Tiles, 5)
	assert.Len(t, first.State.Slots, 2)
	assert.Equal(t, "assets/neko.png", first.State.Illustration)
	assert.Empty(t, first.State.Word)

	v := getView(t, l)
	assert.Equal(t, 1, v.NumClients)
	assert.Equal(t, engine.ModalityPointer, v.Modalities["c1"])
}

func TestLobby_PlaceTile_BroadcastsUpdateWithCues(t *testing.T) {
	l := newTestLobby(t, nil)
	out := make(chan Update, 4)
	l.Inbox() <- Join{ClientID: "c1", Outbox: out}
	first := recvUpdate(t, out, 100*time.Millisecond)

	place(l, tileWith(t, first.State, "ね"), 0)

	next := recvUpdate(t, out, 200*time.Millisecond)
	assert.Equal(t, 1, next.Version)
	assert.Equal(t, "ね", next.State.Slots[0].Letter)
	assert.Equal(t, engine.Correct, next.State.Slots[0].Correctness)
	assert.Equal(t, []engine.Event{{Type: engine.EvtFeedback, Correct: true}}, next.Events)
}

func TestLobby_RejectedCommandRepliesToSender(t *testing.T) {
	l := newTestLobby(t, nil)
	out := make(chan Update, 4)
	l.Inbox() <- Join{ClientID: "c1", Outbox: out}
	_ = recvUpdate(t, out, 100*time.Millisecond)

	l.Inbox() <- FromClient{ClientID: "c1", Cmd: engine.Command{Type: engine.CmdClearSlot, Slot: 9}}
	u := recvUpdate(t, out, 200*time.Millisecond)
	assert.Contains(t, u.Err, "slot out of range")
	assert.Equal(t, 0, u.Version)
}

func TestLobby_CompletionTimerStartsNextRound(t *testing.T) {
	store := history.NewMemory(10)
	l := newTestLobby(t, func(o *Options) { o.History = store })
	out := make(chan Update, 8)
	l.Inbox() <- Join{ClientID: "c1", Outbox: out}
	first := recvUpdate(t, out, 100*time.Millisecond)

	place(l, tileWith(t, first.State, "ね"), 0)
	place(l, tileWith(t, first.State, "こ"), 1)

	done, events := recvUntil(t, out, func(u Update) bool { return u.State.Completed })
	assert.True(t, engine.ContainsEvent(events, engine.EvtCelebrate))
	assert.Equal(t, "ねこ", done.State.Word)
	assert.True(t, done.State.NextRoundPending)

	next := recvUpdate(t, out, 10*testDelay)
	assert.Equal(t, 2, next.State.Round)
	assert.False(t, next.State.Completed)
	assert.True(t, engine.ContainsEvent(next.Events, engine.EvtPreviewReset))

	assert.Eventually(t, func() bool {
		recs, err := store.List(context.Background(), "ABCDEF", 0)
		return err == nil && len(recs) == 1 && recs[0].Correct
	}, time.Second, 10*time.Millisecond)
}

func TestLobby_WithdrawingCancelsNextRound(t *testing.T) {
	l := newTestLobby(t, nil)
	out := make(chan Update, 8)
	l.Inbox() <- Join{ClientID: "c1", Outbox: out}
	first := recvUpdate(t, out, 100*time.Millisecond)

	place(l, tileWith(t, first.State, "ね"), 0)
	place(l, tileWith(t, first.State, "こ"), 1)
	l.Inbox() <- FromClient{ClientID: "c1", Cmd: engine.Command{Type: engine.CmdClearSlot, Slot: 1}}

	last, _ := recvUntil(t, out, func(u Update) bool {
		return engine.ContainsEvent(u.Events, engine.EvtPreviewReset)
	})
	assert.False(t, last.State.NextRoundPending)

	recvNoUpdate(t, out, 3*testDelay)
	assert.Equal(t, 1, getView(t, l).State.Round)
}

func TestLobby_DropSlowClient(t *testing.T) {
	l := newTestLobby(t, nil)
	out := make(chan Update, 1)
	l.Inbox() <- Join{ClientID: "c1", Outbox: out}

	l.Inbox() <- FromClient{ClientID: "c1", Cmd: engine.Command{Type: engine.CmdNewRound}}

	view := getView(t, l)
	if view.NumClients != 0 {
		t.Fatalf("expected slow client to be dropped; NumClients=%d", view.NumClients)
	}
}

func TestLobby_Shutdown_StopsTimer_NoFire(t *testing.T) {
	l := newTestLobby(t, nil)
	out := make(chan Update, 8)
	l.Inbox() <- Join{ClientID: "c1", Outbox: out}
	first := recvUpdate(t, out, 100*time.Millisecond)

	place(l, tileWith(t, first.State, "ね"), 0)
	place(l, tileWith(t, first.State, "こ"), 1)
	l.Inbox() <- Shutdown{}

	for u := range out {
		assert.Equal(t, 1, u.State.Round)
	}
	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatal("lobby did not stop")
	}
}

func TestLobby_PointerDragWithLayout(t *testing.T) {
	l := newTestLobby(t, nil)
	out := make(chan Update, 16)
	l.Inbox() <- Join{ClientID: "c1", Caps: engine.Capabilities{PointerEvents: true}, Outbox: out}
	first := recvUpdate(t, out, 100*time.Millisecond)
	l.Inbox() <- SetLayout{ClientID: "c1", Layout: engine.Layout{
		Pool:  engine.Rect{Width: 500, Height: 100},
		Slots: []engine.Rect{{Y: 200, Width: 100, Height: 100}, {X: 120, Y: 200, Width: 100, Height: 100}},
	}}

	ko := tileWith(t, first.State, "こ")
	send := func(kind engine.EventKind, x, y float64) {
		l.Inbox() <- Input{ClientID: "c1", Event: engine.RawEvent{
			Kind: kind, TileID: ko, PointerID: 1, PointerType: "touch", Point: &engine.Point{X: x, Y: y},
		}}
	}
	send(engine.KindPointerDown, 10, 10)
	send(engine.KindPointerMove, 150, 250)
	send(engine.KindPointerUp, 150, 250)

	_, events := recvUntil(t, out, func(u Update) bool { return u.State.Slots[1].Filled })
	var types []engine.EventType
	for _, e := range events {
		types = append(types, e.Type)
	}
	assert.Equal(t, []engine.EventType{engine.EvtCapture, engine.EvtRelease, engine.EvtFeedback}, types)
}

func TestLobby_LeaveCancelsOwnedDrag(t *testing.T) {
	l := newTestLobby(t, nil)
	out := make(chan Update, 16)
	l.Inbox() <- Join{ClientID: "c1", Caps: engine.Capabilities{TouchEvents: true}, Outbox: out}
	first := recvUpdate(t, out, 100*time.Millisecond)

	l.Inbox() <- Input{ClientID: "c1", Event: engine.RawEvent{
		Kind: engine.KindTouchStart, TileID: tileWith(t, first.State, "ね"), ChangedTouches: []engine.Touch{{ID: 1}},
	}}
	recvUntil(t, out, func(u Update) bool {
		for _, tile := range u.State.Tiles {
			if tile.Active {
				return true
			}
		}
		return false
	})

	l.Inbox() <- Leave{ClientID: "c1"}
	for _, tile := range getView(t, l).State.Tiles {
		assert.False(t, tile.Active)
	}
}

func TestLobby_FrameBatchingHoldsCuesUntilFlush(t *testing.T) {
	l := newTestLobby(t, func(o *Options) { o.FrameInterval = 20 * time.Millisecond })
	out := make(chan Update, 8)
	l.Inbox() <- Join{ClientID: "c1", Outbox: out}
	first := recvUpdate(t, out, 100*time.Millisecond)

	place(l, tileWith(t, first.State, "ね"), 0)

	next := recvUpdate(t, out, time.Second)
	assert.True(t, next.State.Slots[0].Filled)
	assert.True(t, engine.ContainsEvent(next.Events, engine.EvtFeedback))
}

func TestLobby_SpeechFollowsClients(t *testing.T) {
	l := newTestLobby(t, nil)
	out := make(chan Update, 8)
	l.Inbox() <- Join{ClientID: "c1", Caps: engine.Capabilities{Speech: true}, Outbox: out}
	_ = recvUpdate(t, out, 100*time.Millisecond)

	u := recvUpdate(t, out, 200*time.Millisecond)
	assert.True(t, u.State.Speech)

	l.Inbox() <- FromClient{ClientID: "c1", Cmd: engine.Command{Type: engine.CmdSpeakWord}}
	u = recvUpdate(t, out, 200*time.Millisecond)
	assert.Equal(t, []engine.Event{{Type: engine.EvtSpeak, Text: "ねこ"}}, u.Events)
}

func activeTiles(s engine.State) int {
	n := 0
	for _, tile := range s.Tiles {
		if tile.Active {
			n++
		}
	}
	return n
}

func TestLobby_DragBelongsToItsStarter(t *testing.T) {
	l := newTestLobby(t, nil)
	outA := make(chan Update, 16)
	outB := make(chan Update, 16)
	caps := engine.Capabilities{PointerEvents: true}
	l.Inbox() <- Join{ClientID: "a", Caps: caps, Outbox: outA}
	l.Inbox() <- Join{ClientID: "b", Caps: caps, Outbox: outB}
	first := recvUpdate(t, outA, 100*time.Millisecond)
	ne := tileWith(t, first.State, "ね")

	pointer := func(client string, kind engine.EventKind) {
		l.Inbox() <- Input{ClientID: client, Event: engine.RawEvent{
			Kind: kind, TileID: ne, PointerID: 1, PointerType: "touch", Point: &engine.Point{X: 1, Y: 1},
		}}
	}
	pointer("a", engine.KindPointerDown)

	// Same browser-local pointer id from another client.
	pointer("b", engine.KindPointerUp)
	pointer("b", engine.KindPointerCancel)
	l.Inbox() <- Input{ClientID: "b", Event: engine.RawEvent{Kind: engine.KindClick, TileID: ne}}

	v := getView(t, l)
	assert.Equal(t, 1, activeTiles(v.State))
	assert.False(t, v.State.Slots[0].Filled)

	l.Inbox() <- Leave{ClientID: "a"}
	v = getView(t, l)
	assert.Equal(t, 0, activeTiles(v.State))
	assert.False(t, v.State.Slots[0].Filled)
	assert.Equal(t, 1, v.NumClients)
}

func TestLobby_LeaveClosesOutbox(t *testing.T) {
	l := newTestLobby(t, nil)
	out := make(chan Update, 4)
	l.Inbox() <- Join{ClientID: "c1", Outbox: out}
	_ = recvUpdate(t, out, 100*time.Millisecond)

	l.Inbox() <- Leave{ClientID: "c1"}
	select {
	case _, ok := <-out:
		assert.False(t, ok, "outbox still open after leave")
	case <-time.After(time.Second):
		t.Fatal("outbox not closed after leave")
	}

	// A repeated leave for the same client is a no-op.
	l.Inbox() <- Leave{ClientID: "c1"}
	assert.Equal(t, 0, getView(t, l).NumClients)
}

func TestLobby_SpeechOffWhenSpeakerLeavesWithinFrame(t *testing.T) {
	frame := 30 * time.Millisecond
	l := newTestLobby(t, func(o *Options) { o.FrameInterval = frame })
	out := make(chan Update, 8)
	l.Inbox() <- Join{ClientID: "speaker", Caps: engine.Capabilities{Speech: true}, Outbox: make(chan Update, 8)}
	l.Inbox() <- Leave{ClientID: "speaker"}
	l.Inbox() <- Join{ClientID: "c1", Outbox: out}
	_ = recvUpdate(t, out, 100*time.Millisecond)

	time.Sleep(5 * frame)
	assert.False(t, getView(t, l).State.Speech)
	for len(out) > 0 {
		<-out
	}

	l.Inbox() <- FromClient{ClientID: "c1", Cmd: engine.Command{Type: engine.CmdSpeakWord}}
	recvNoUpdate(t, out, 5*frame)
}

// slowStore delays every write so shutdown has to wait for it.
type slowStore struct {
	*history.Memory
	delay time.Duration
}

func (s slowStore) Record(ctx context.Context, rec history.Record) error {
	time.Sleep(s.delay)
	return s.Memory.Record(ctx, rec)
}

func TestLobby_ShutdownWaitsForHistoryWrites(t *testing.T) {
	mem := history.NewMemory(10)
	l := newTestLobby(t, func(o *Options) { o.History = slowStore{Memory: mem, delay: 50 * time.Millisecond} })
	out := make(chan Update, 8)
	l.Inbox() <- Join{ClientID: "c1", Outbox: out}
	first := recvUpdate(t, out, 100*time.Millisecond)

	place(l, tileWith(t, first.State, "ね"), 0)
	place(l, tileWith(t, first.State, "こ"), 1)
	l.Inbox() <- Shutdown{}

	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatal("lobby did not stop")
	}
	recs, err := mem.List(context.Background(), "ABCDEF", 0)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}
