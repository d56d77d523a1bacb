package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/DoyleJ11/hiragana-drop/internal/engine"
	"github.com/DoyleJ11/hiragana-drop/internal/hub"
	"github.com/DoyleJ11/hiragana-drop/internal/lobby"
	"github.com/DoyleJ11/hiragana-drop/internal/types"
)

var (
	errHelloRequired = errors.New("first message must be Hello")
	errUnknownType   = errors.New("unknown type")
	errMissingField  = errors.New("missing field")
	errBadJSON       = errors.New("bad json")
)

type Options struct {
	// OriginPatterns are host patterns allowed to connect cross-origin.
	OriginPatterns []string
	HelloTimeout   time.Duration
	IdleTimeout    time.Duration
	WriteTimeout   time.Duration
	Log            *zap.Logger
}

func (o *Options) defaults() {
	if o.HelloTimeout <= 0 {
		o.HelloTimeout = 10 * time.Second
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = 5 * time.Minute
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 3 * time.Second
	}
	if o.Log == nil {
		o.Log = zap.NewNop()
	}
}

func Handler(h *hub.Hub, opts Options) http.HandlerFunc {
	opts.defaults()
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		reply := make(chan *lobby.Lobby, 1)
		h.Inbox() <- hub.GetLobby{Code: code, Reply: reply}
		lb := <-reply
		if lb == nil {
			http.Error(w, "lobby not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			opts.Log.Debug("ws_accept_failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		s := &session{
			conn:     conn,
			lb:       lb,
			clientID: uuid.NewString(),
			opts:     opts,
			log:      opts.Log.With(zap.String("lobby", code)),
		}
		s.run(r.Context())
	}
}

type session struct {
	conn     *websocket.Conn
	lb       *lobby.Lobby
	clientID string
	opts     Options
	log      *zap.Logger
}

func (s *session) run(ctx context.Context) {
	caps, err := s.hello(ctx)
	if err != nil {
		s.log.Debug("ws_hello_failed", zap.Error(err))
		s.conn.Close(websocket.StatusPolicyViolation, err.Error())
		return
	}
	s.log = s.log.With(zap.String("client", s.clientID))

	out := make(chan lobby.Update, 16)
	if !s.send(lobby.Join{ClientID: s.clientID, Caps: caps, Outbox: out}) {
		return
	}

	// Writer goroutine. It ends when the lobby closes out, which Leave does.
	writeCtx, writeCancel := context.WithCancel(ctx)
	defer writeCancel()
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for u := range out {
			msg := types.ServerMessage{Type: types.MsgStateSnapshot, Version: u.Version, State: &u.State, Events: u.Events}
			if u.Err != "" {
				msg = types.ServerMessage{Type: types.MsgError, Version: u.Version, Error: u.Err}
			}
			if writeCtx.Err() != nil {
				continue
			}
			if err := s.write(writeCtx, msg); err != nil {
				s.log.Debug("ws_write_failed", zap.Error(err))
				writeCancel()
			}
		}
		// Lobby closed our outbox: left, shut down or dropped as too slow.
		s.conn.Close(websocket.StatusGoingAway, "lobby closed")
	}()
	defer func() {
		if s.send(lobby.Leave{ClientID: s.clientID}) {
			<-writerDone
		}
	}()

	// Reader loop
	for {
		cm, err := s.read(writeCtx, s.opts.IdleTimeout)
		if err != nil {
			if errors.Is(err, errBadJSON) {
				_ = s.write(ctx, types.ServerMessage{Type: types.MsgError, Error: errBadJSON.Error()})
				continue
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				s.log.Debug("ws_read_ended", zap.Error(err))
			}
			return
		}

		msg, err := toLobbyMsg(s.clientID, cm)
		if err != nil {
			_ = s.write(ctx, types.ServerMessage{Type: types.MsgError, Error: err.Error()})
			continue
		}
		if !s.send(msg) {
			return
		}
	}
}

// hello waits for the client's capabilities and answers with its id.
func (s *session) hello(ctx context.Context) (engine.Capabilities, error) {
	cm, err := s.read(ctx, s.opts.HelloTimeout)
	if err != nil {
		return engine.Capabilities{}, err
	}
	if cm.Type != types.MsgHello {
		return engine.Capabilities{}, errHelloRequired
	}
	var caps engine.Capabilities
	if cm.Caps != nil {
		caps = *cm.Caps
	}
	return caps, s.write(ctx, types.ServerMessage{Type: types.MsgWelcome, ClientID: s.clientID})
}

func (s *session) read(ctx context.Context, timeout time.Duration) (types.ClientMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	_, data, err := s.conn.Read(ctx)
	if err != nil {
		return types.ClientMessage{}, err
	}
	var cm types.ClientMessage
	if err := json.Unmarshal(data, &cm); err != nil {
		return types.ClientMessage{}, fmt.Errorf("%w: %v", errBadJSON, err)
	}
	return cm, nil
}

func (s *session) write(ctx context.Context, msg types.ServerMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.WriteTimeout)
	defer cancel()
	return s.conn.Write(ctx, websocket.MessageText, payload)
}

// send reports false once the lobby is gone.
func (s *session) send(m lobby.Msg) bool {
	select {
	case s.lb.Inbox() <- m:
		return true
	case <-s.lb.Done():
		return false
	}
}

func toLobbyMsg(clientID string, m types.ClientMessage) (lobby.Msg, error) {
	switch m.Type {
	case types.MsgInput:
		if m.Event == nil {
			return nil, errMissingField
		}
		return lobby.Input{ClientID: clientID, Event: *m.Event}, nil
	case types.MsgLayout:
		if m.Layout == nil {
			return nil, errMissingField
		}
		return lobby.SetLayout{ClientID: clientID, Layout: *m.Layout}, nil
	}

	cmd, ok := toEngineCommand(m)
	if !ok {
		return nil, errUnknownType
	}
	return lobby.FromClient{ClientID: clientID, Cmd: cmd}, nil
}

func toEngineCommand(m types.ClientMessage) (engine.Command, bool) {
	switch m.Type {
	case types.MsgNewRound:
		return engine.Command{Type: engine.CmdNewRound}, true
	case types.MsgChooseCard:
		return engine.Command{Type: engine.CmdChooseCard, Word: m.Word}, true
	case types.MsgClearSlot:
		return engine.Command{Type: engine.CmdClearSlot, Slot: m.Slot}, true
	case types.MsgPlaceTile:
		return engine.Command{Type: engine.CmdPlaceTile, TileID: m.TileID, Slot: m.Slot}, true
	case types.MsgSpeakWord:
		return engine.Command{Type: engine.CmdSpeakWord}, true
	case types.MsgSetTileAudio:
		return engine.Command{Type: engine.CmdSetTileAudio, Enabled: m.Enabled}, true
	default:
		return engine.Command{}, false
	}
}
