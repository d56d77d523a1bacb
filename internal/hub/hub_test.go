package hub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/hiragana-drop/internal/engine"
	"github.com/DoyleJ11/hiragana-drop/internal/lobby"
	"github.com/DoyleJ11/hiragana-drop/internal/words"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	catalog, err := words.Default()
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewHub(ctx, lobby.Options{Board: engine.DefaultConfig(), Words: catalog})
}

func get(t *testing.T, h *Hub, code string) *lobby.Lobby {
	t.Helper()
	reply := make(chan *lobby.Lobby, 1)
	h.Inbox() <- GetLobby{Code: code, Reply: reply}
	select {
	case lb := <-reply:
		return lb
	case <-time.After(time.Second):
		t.Fatal("hub did not reply")
		return nil
	}
}

func TestHub_Create_Get_SamePointer(t *testing.T) {
	h := newTestHub(t)
	reply := make(chan *lobby.Lobby, 1)

	h.Inbox() <- CreateLobby{Code: "ZED123", Reply: reply}
	lb1 := <-reply
	lb2 := get(t, h, "ZED123")

	if lb1 == nil || lb2 == nil || lb1 != lb2 {
		t.Fatalf("expected same lobby pointer")
	}
	assert.Equal(t, "ZED123", lb1.Code())

	h.Inbox() <- EnsureLobby{Code: "ZED123", Reply: reply}
	assert.Same(t, lb1, <-reply)
}

func TestHub_GetMissingIsNil(t *testing.T) {
	h := newTestHub(t)
	assert.Nil(t, get(t, h, "NOPE"))
}

func TestHub_RemoveStopsLobby(t *testing.T) {
	h := newTestHub(t)
	reply := make(chan *lobby.Lobby, 1)
	h.Inbox() <- CreateLobby{Code: "AAA111", Reply: reply}
	lb := <-reply

	h.Inbox() <- RemoveLobby{Code: "AAA111"}
	assert.Nil(t, get(t, h, "AAA111"))
	select {
	case <-lb.Done():
	case <-time.After(time.Second):
		t.Fatal("removed lobby still running")
	}
}

func TestHub_ListAndShutdown(t *testing.T) {
	h := newTestHub(t)
	reply := make(chan *lobby.Lobby, 2)
	h.Inbox() <- CreateLobby{Code: "BBB", Reply: reply}
	h.Inbox() <- CreateLobby{Code: "AAA", Reply: reply}
	a, b := <-reply, <-reply

	codes := make(chan []string, 1)
	h.Inbox() <- ListLobbies{Reply: codes}
	assert.Equal(t, []string{"AAA", "BBB"}, <-codes)

	done := make(chan struct{})
	h.Inbox() <- ShutdownHub{Done: done}
	<-done
	for _, lb := range []*lobby.Lobby{a, b} {
		select {
		case <-lb.Done():
		case <-time.After(time.Second):
			t.Fatal("lobby still running after hub shutdown")
		}
	}
}
