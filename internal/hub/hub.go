package hub

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/DoyleJ11/hiragana-drop/internal/lobby"
)

type HubMsg interface{ isHubMsg() }

type CreateLobby struct {
	Code  string
	Reply chan *lobby.Lobby
}

type GetLobby struct {
	Code  string
	Reply chan *lobby.Lobby
}

type EnsureLobby struct {
	Code  string
	Reply chan *lobby.Lobby
}

type RemoveLobby struct {
	Code string
}

type ListLobbies struct {
	Reply chan []string
}

// ShutdownHub stops every lobby. Done, if set, is closed once they all stopped.
type ShutdownHub struct {
	Done chan struct{}
}

type Hub struct {
	inbox   chan HubMsg
	lobbies map[string]*lobby.Lobby
	opts    lobby.Options
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func (CreateLobby) isHubMsg() {}
func (GetLobby) isHubMsg()    {}
func (EnsureLobby) isHubMsg() {}
func (RemoveLobby) isHubMsg() {}
func (ListLobbies) isHubMsg() {}
func (ShutdownHub) isHubMsg() {}

// NewHub starts the registry. opts is the template every new lobby gets,
// with Code filled in.
func NewHub(parent context.Context, opts lobby.Options) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		lobbies: make(map[string]*lobby.Lobby),
		opts:    opts,
		log:     opts.Log,
		ctx:     ctx,
		cancel:  cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateLobby:
				msg.Reply <- h.ensure(msg.Code)

			case GetLobby:
				lb := h.lobbies[msg.Code]
				if lb != nil && isDone(lb) {
					delete(h.lobbies, msg.Code)
					lb = nil
				}
				msg.Reply <- lb // May be nil

			case EnsureLobby:
				msg.Reply <- h.ensure(msg.Code)

			case RemoveLobby:
				if lb := h.lobbies[msg.Code]; lb != nil {
					stop(lb)
					delete(h.lobbies, msg.Code)
					h.log.Info("lobby_removed", zap.String("code", msg.Code))
				}

			case ListLobbies:
				codes := make([]string, 0, len(h.lobbies))
				for code := range h.lobbies {
					codes = append(codes, code)
				}
				sort.Strings(codes)
				msg.Reply <- codes

			case ShutdownHub:
				h.shutdown()
				if msg.Done != nil {
					close(msg.Done)
				}
				return
			}
		}
	}
}

func (h *Hub) ensure(code string) *lobby.Lobby {
	if lb := h.lobbies[code]; lb != nil && !isDone(lb) {
		return lb
	}
	opts := h.opts
	opts.Code = code
	lb := lobby.NewLobby(h.ctx, opts)
	h.lobbies[code] = lb
	h.log.Info("lobby_created", zap.String("code", code))
	return lb
}

func (h *Hub) shutdown() {
	for _, lb := range h.lobbies {
		stop(lb)
	}
	// A lobby is done once its history writes have landed.
	for _, lb := range h.lobbies {
		<-lb.Done()
	}
	clear(h.lobbies)
	h.cancel()
}

func stop(lb *lobby.Lobby) {
	select {
	case lb.Inbox() <- lobby.Shutdown{}:
	case <-lb.Done():
	}
}

func isDone(lb *lobby.Lobby) bool {
	select {
	case <-lb.Done():
		return true
	default:
		return false
	}
}
