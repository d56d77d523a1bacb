package lobby

import (
	"context"
	"math/rand/v2"
	"reflect"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/hiragana-drop/internal/engine"
	"github.com/DoyleJ11/hiragana-drop/internal/history"
)

type Msg interface{ isLobbyMsg() }

// Join registers a client. Caps decides the client's drag modality.
type Join struct {
	ClientID string
	Caps     engine.Capabilities
	Outbox   chan Update // where this client wants to receive updates
}

func (Join) isLobbyMsg() {}

type Leave struct{ ClientID string }

func (Leave) isLobbyMsg() {}

// Input is one raw UI event from a client.
type Input struct {
	ClientID string
	Event    engine.RawEvent
}

func (Input) isLobbyMsg() {}

type FromClient struct {
	ClientID string
	Cmd      engine.Command
}

func (FromClient) isLobbyMsg() {}

// SetLayout replaces the geometry used to hit-test a client's points.
type SetLayout struct {
	ClientID string
	Layout   engine.Layout
}

func (SetLayout) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

// TimerFired is posted by a board timer. Fires of cancelled handles are dropped.
type TimerFired struct{ Handle engine.Handle }

func (TimerFired) isLobbyMsg() {}

// FrameTick flushes the board's pending visual tasks.
type FrameTick struct{}

func (FrameTick) isLobbyMsg() {}

// Update is what a client receives: the rendered state plus the cues raised
// since the previous update. Err is set only on replies to the sender of a
// rejected command.
type Update struct {
	Version int
	State   engine.State
	Events  []engine.Event
	Err     string
}

type View struct {
	Version    int
	NumClients int
	State      engine.State
	Modalities map[string]engine.Modality
}

type Options struct {
	Code  string
	Board engine.Config
	Words engine.WordSource
	// FrameInterval delays visual updates into batches. Zero applies them at once.
	FrameInterval time.Duration
	History       history.Store
	Log           *zap.Logger
	Rand          *rand.Rand
}

type client struct {
	outbox  chan Update
	router  *engine.InputRouter
	surface *engine.ClientSurface
	caps    engine.Capabilities
}

type Lobby struct {
	code    string
	inbox   chan Msg
	board   *engine.Board
	cues    *engine.EventLog
	sched   *scheduler
	history history.Store
	log     *zap.Logger

	frameInterval time.Duration
	frameTimer    *time.Timer

	version   int
	published engine.State
	pending   []engine.Event
	clients   map[string]*client
	persists  sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
}

func NewLobby(parent context.Context, opts Options) *Lobby {
	ctx, cancel := context.WithCancel(parent)
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}

	l := &Lobby{
		code:          opts.Code,
		inbox:         make(chan Msg, 64), // Small buffer
		cues:          &engine.EventLog{},
		history:       opts.History,
		log:           opts.Log.With(zap.String("lobby", opts.Code)),
		frameInterval: opts.FrameInterval,
		clients:       make(map[string]*client),
		ctx:           ctx,
		cancel:        cancel,
	}
	l.sched = newScheduler(l.post)

	var requestFrame func()
	if l.frameInterval > 0 {
		requestFrame = l.requestFrame
	}
	l.board = engine.NewBoard(opts.Board, engine.Deps{
		Words:        opts.Words,
		Rand:         opts.Rand,
		Cues:         l.cues,
		Scheduler:    l.sched,
		RequestFrame: requestFrame,
		OnResult:     l.persist,
		Log:          l.log,
	})
	l.board.NewRound()
	l.board.Frames().Flush()
	l.cues.Drain()
	l.published = l.board.State()

	go l.loop()
	return l
}

func (l *Lobby) loop() {
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				l.join(msg)

			case Leave:
				l.leave(msg.ClientID)

			case Input:
				c, ok := l.clients[msg.ClientID]
				if !ok {
					break
				}
				c.router.Handle(msg.Event)

			case SetLayout:
				if c, ok := l.clients[msg.ClientID]; ok {
					c.router.SetHitTester(msg.Layout)
				}

			case FromClient:
				if err := l.board.Apply(msg.Cmd); err != nil {
					l.log.Debug("command_rejected", zap.String("client", msg.ClientID), zap.String("cmd", string(msg.Cmd.Type)), zap.Error(err))
					l.reply(msg.ClientID, Update{Version: l.version, State: l.published, Err: err.Error()})
				}

			case TimerFired:
				l.sched.fire(msg.Handle)

			case FrameTick:
				l.frameTimer = nil
				l.board.Frames().Flush()

			case GetState:
				// test-only: reflect internal state without data races
				modalities := make(map[string]engine.Modality, len(l.clients))
				for id, c := range l.clients {
					modalities[id] = c.router.Modality()
				}
				msg.Reply <- View{
					Version:    l.version,
					NumClients: len(l.clients),
					State:      l.published,
					Modalities: modalities,
				}
				continue

			case Shutdown:
				l.shutdown()
				return
			}
			l.sync()
		}
	}
}

func (l *Lobby) join(msg Join) {
	surface := l.cues.Surface(msg.ClientID)
	c := &client{
		outbox:  msg.Outbox,
		router:  l.board.NewInputRouter(msg.ClientID, msg.Caps, surface),
		surface: surface,
		caps:    msg.Caps,
	}
	l.clients[msg.ClientID] = c
	// Register client + send current snapshot immediately
	msg.Outbox <- Update{Version: l.version, State: l.published}
	l.updateSpeech()
	l.log.Info("client_joined", zap.String("client", msg.ClientID), zap.String("modality", string(c.router.Modality())))
}

// leave drops a client, closes its outbox and cancels any drag it started.
func (l *Lobby) leave(id string) {
	c, ok := l.clients[id]
	if !ok {
		return
	}
	delete(l.clients, id)
	close(c.outbox)
	c.surface.Detach()
	if s, active := l.board.Drag().Active(); active && s.Owner == id {
		l.board.Drag().Cancel()
	}
	l.updateSpeech()
	l.log.Info("client_left", zap.String("client", id))
}

// updateSpeech enables speech cues while any client can speak them.
func (l *Lobby) updateSpeech() {
	on := false
	for _, c := range l.clients {
		on = on || c.caps.Speech
	}
	if l.board.SpeechSupported() != on {
		l.board.SetSpeechSupported(on)
	}
}

// sync broadcasts once the board has no visual work queued. Cues raised in
// the meantime ride along with the next broadcast.
func (l *Lobby) sync() {
	l.pending = append(l.pending, l.cues.Drain()...)
	if l.board.Frames().Pending() > 0 {
		return
	}
	state := l.board.State()
	if len(l.pending) == 0 && reflect.DeepEqual(state, l.published) {
		return
	}
	l.published = state
	l.version++
	l.broadcast(Update{Version: l.version, State: state, Events: l.pending})
	l.pending = nil
}

func (l *Lobby) broadcast(u Update) {
	for id, c := range l.clients {
		select {
		case c.outbox <- u:
			//ok
		default:
			// Client is slow/full - drop them.
			l.leave(id)
			l.log.Warn("slow_client_dropped", zap.String("client", id))
		}
	}
}

func (l *Lobby) reply(id string, u Update) {
	c, ok := l.clients[id]
	if !ok {
		return
	}
	select {
	case c.outbox <- u:
	default:
	}
}

func (l *Lobby) requestFrame() {
	if l.frameTimer != nil {
		return
	}
	l.frameTimer = time.AfterFunc(l.frameInterval, func() { l.post(FrameTick{}) })
}

// post delivers a message from a timer goroutine.
func (l *Lobby) post(m Msg) {
	select {
	case l.inbox <- m:
	case <-l.ctx.Done():
	}
}

func (l *Lobby) persist(res engine.Result) {
	if l.history == nil {
		return
	}
	rec := history.FromResult(l.code, res)
	l.persists.Add(1)
	go func() {
		defer l.persists.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := l.history.Record(ctx, rec); err != nil {
			l.log.Error("history_record_failed", zap.String("round_id", rec.RoundID), zap.Error(err))
		}
	}()
}

func (l *Lobby) shutdown() {
	l.sched.stopAll()
	if l.frameTimer != nil {
		l.frameTimer.Stop()
		l.frameTimer = nil
	}
	for id, c := range l.clients {
		close(c.outbox) // Tell client no more updates
		c.surface.Detach()
		delete(l.clients, id)
	}
	// Pending history writes finish before the store can be closed.
	l.persists.Wait()
	l.cancel()
}

// Expose the inbox so tests or WS layer can send messages.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

func (l *Lobby) Code() string { return l.code }

// Done is closed once the lobby has shut down.
func (l *Lobby) Done() <-chan struct{} { return l.ctx.Done() }
