package engine

import (
	"math/rand/v2"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WordSource supplies the words a board plays with.
type WordSource interface {
	PickWord(rng *rand.Rand) string
	Alphabet() []string
	Choices(word string, n int, rng *rand.Rand) []string
	Illustration(word string) string
}

type Config struct {
	PoolSize       int
	SlotCount      int // 0 sizes the slots to each round's word
	ChoiceCount    int
	NextRoundDelay time.Duration
}

func DefaultConfig() Config {
	return Config{PoolSize: 5, SlotCount: 2, ChoiceCount: 5, NextRoundDelay: 2 * time.Second}
}

type Deps struct {
	Words     WordSource
	Rand      *rand.Rand
	Cues      Collaborators
	Scheduler Scheduler
	// RequestFrame asks the host for one frame tick that calls Frames().Flush.
	// Nil applies visual updates immediately.
	RequestFrame func()
	OnResult     func(Result)
	Log          *zap.Logger
	Now          func() time.Time
}

// SlotView is a slot as rendered.
type SlotView struct {
	Slot
	Label       string `json:"label"`
	Highlighted bool   `json:"highlighted"`
}

// State is the rendered view of a board. It changes only when a frame flushes.
type State struct {
	Round            int        `json:"round"`
	RoundID          string     `json:"round_id"`
	Word             string     `json:"word,omitempty"`
	Revealed         bool       `json:"revealed"`
	Completed        bool       `json:"completed"`
	Illustration     string     `json:"illustration"`
	Tiles            []Tile     `json:"tiles"`
	Slots            []SlotView `json:"slots"`
	Choices          []string   `json:"choices"`
	Selected         string     `json:"selected,omitempty"`
	Speech           bool       `json:"speech"`
	TileAudio        bool       `json:"tile_audio"`
	NextRoundPending bool       `json:"next_round_pending"`
}

// Board is one game session: the current word, tile pool, slots, the drag
// session and the completion evaluator.
type Board struct {
	cfg      Config
	words    WordSource
	rng      *rand.Rand
	cues     Collaborators
	log      *zap.Logger
	now      func() time.Time
	onResult func(Result)

	pool   *Pool
	slots  *Slots
	eval   *Evaluator
	drag   *DragController
	timer  *RoundTimer
	frames *FrameBatcher

	round     int
	roundID   string
	word      string
	choices   []string
	selected  string
	revealed  bool
	speech    bool
	tileAudio bool
	fills     int
	startedAt time.Time
	recorded  bool

	view State
}

func NewBoard(cfg Config, deps Deps) *Board {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if deps.Cues == nil {
		deps.Cues = &EventLog{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	b := &Board{
		cfg:       cfg,
		words:     deps.Words,
		rng:       deps.Rand,
		cues:      deps.Cues,
		log:       deps.Log,
		now:       deps.Now,
		onResult:  deps.OnResult,
		tileAudio: true,
	}
	var alphabet []string
	if b.words != nil {
		alphabet = b.words.Alphabet()
	}
	b.pool = NewPool(cfg.PoolSize, alphabet, b.rng)
	b.slots = NewSlots(cfg.SlotCount, nil)
	b.timer = NewRoundTimer(deps.Scheduler)
	b.eval = NewEvaluator(b.slots, b.cues, b.timer, cfg.NextRoundDelay, b.NewRound)
	b.drag = &DragController{board: b, log: b.log}
	b.frames = NewFrameBatcher(deps.RequestFrame, b.log)
	b.renderAll()
	return b
}

// NewRound cancels any pending transition and active drag, then deals a
// freshly picked word.
func (b *Board) NewRound() {
	word := ""
	if b.words != nil {
		word = b.words.PickWord(b.rng)
	}
	b.StartRound(word)
}

// StartRound deals word as the round's target.
func (b *Board) StartRound(word string) {
	b.timer.Stop()
	b.drag.Cancel()

	b.round++
	b.roundID = uuid.NewString()
	b.word = word
	letters := Letters(word)
	count := b.cfg.SlotCount
	if count == 0 {
		count = len(letters)
	}
	b.slots.Reset(count, letters)
	b.pool.Deal(word)
	b.eval.Reset()

	b.choices = nil
	if b.words != nil && word != "" && b.cfg.ChoiceCount > 0 {
		b.choices = b.words.Choices(word, b.cfg.ChoiceCount, b.rng)
	}
	b.selected = ""
	b.revealed = false
	b.fills = 0
	b.recorded = false
	b.startedAt = b.now()

	b.cues.ResetToPreview()
	b.renderAll()
	b.log.Info("round_started", zap.Int("round", b.round), zap.String("round_id", b.roundID), zap.Int("slots", count))
}

// Fill puts letter into slot index. An occupied slot is cleared first; an
// empty letter clears the slot.
func (b *Board) Fill(index int, letter string) error {
	if letter == "" {
		return b.Clear(index)
	}
	current, ok := b.slots.Get(index)
	if !ok {
		return ErrSlotOutOfRange
	}
	if current.Filled {
		if _, err := b.slots.Clear(index); err != nil {
			return err
		}
		b.renderSlots()
	}

	slot, err := b.slots.Fill(index, letter)
	if err != nil {
		return err
	}
	b.fills++
	b.cues.PlayFeedback(slot.Correctness == Correct)
	b.renderSlots()
	b.evaluate()
	return nil
}

// Clear withdraws whatever tile sits in slot index.
func (b *Board) Clear(index int) error {
	if _, err := b.slots.Clear(index); err != nil {
		return err
	}
	b.renderSlots()
	b.evaluate()
	return nil
}

func (b *Board) place(index int, letter string) {
	if err := b.Fill(index, letter); err != nil {
		b.log.Debug("place_failed", zap.Int("slot", index), zap.Error(err))
	}
}

func (b *Board) evaluate() {
	switch b.eval.EvaluateTransition() {
	case TransitionCompleted:
		b.revealed = true
		b.record(ModeTiles, true)
		b.log.Info("word_completed", zap.Int("round", b.round))
	case TransitionUncompleted:
		b.revealed = false
	default:
		return
	}
	b.renderPrompt()
}

// ChooseCard answers the round with one of the word cards.
func (b *Board) ChooseCard(word string) (bool, error) {
	if b.word == "" {
		return false, ErrNoRound
	}
	if !slices.Contains(b.choices, word) {
		return false, ErrUnknownChoice
	}
	if b.speech && b.tileAudio {
		b.cues.Speak(word)
	}
	b.selected = word
	correct := word == b.word
	b.cues.PlayFeedback(correct)
	if correct {
		b.timer.Start(b.cfg.NextRoundDelay, b.NewRound)
	}
	b.revealed = true
	b.cues.RevealWord(b.word)
	b.record(ModeCard, correct)
	b.renderPrompt()
	return correct, nil
}

// SpeakWord speaks the selected card, or the round's word.
func (b *Board) SpeakWord() {
	if !b.speech {
		return
	}
	target := b.selected
	if target == "" {
		target = b.word
	}
	if target != "" {
		b.cues.Speak(target)
	}
}

// SpeakTile speaks a tile's letter when tile audio is on.
func (b *Board) SpeakTile(id int) {
	tile, ok := b.pool.Tile(id)
	if !ok || tile.Inert() || !b.speech || !b.tileAudio {
		return
	}
	b.cues.Speak(tile.Letter)
}

func (b *Board) SetTileAudio(on bool) {
	b.tileAudio = on
	b.renderPrompt()
}

func (b *Board) SetSpeechSupported(on bool) {
	b.speech = on
	b.renderPrompt()
}

func (b *Board) record(mode ResultMode, correct bool) {
	if b.recorded || b.onResult == nil {
		return
	}
	b.recorded = true
	b.onResult(Result{
		RoundID:    b.roundID,
		Round:      b.round,
		Word:       b.word,
		Mode:       mode,
		Correct:    correct,
		Fills:      b.fills,
		StartedAt:  b.startedAt,
		FinishedAt: b.now(),
	})
}

func (b *Board) Drag() *DragController  { return b.drag }
func (b *Board) Frames() *FrameBatcher  { return b.frames }
func (b *Board) Word() string           { return b.word }
func (b *Board) Round() int             { return b.round }
func (b *Board) Slots() []Slot          { return b.slots.All() }
func (b *Board) Tiles() []Tile          { return b.pool.Tiles() }
func (b *Board) IsComplete() bool       { return b.eval.IsComplete() }
func (b *Board) NextRoundPending() bool { return b.timer.Pending() }
func (b *Board) SpeechSupported() bool  { return b.speech }

// ExpectedLetter reports the word's letter for slot index.
func (b *Board) ExpectedLetter(index int) (string, bool) { return b.slots.ExpectedLetter(index) }

// State returns a copy of the rendered view.
func (b *Board) State() State {
	s := b.view
	s.Tiles = slices.Clone(b.view.Tiles)
	s.Slots = slices.Clone(b.view.Slots)
	s.Choices = slices.Clone(b.view.Choices)
	return s
}

func (b *Board) renderAll() {
	b.renderPrompt()
	b.renderTiles()
	b.renderSlots()
}

func (b *Board) renderTiles() {
	b.frames.Schedule(func() {
		b.view.Tiles = b.pool.Tiles()
	})
}

func (b *Board) renderSlots() {
	b.frames.Schedule(b.publishSlots)
}

func (b *Board) renderHighlight() {
	b.frames.Schedule(b.publishSlots)
}

func (b *Board) publishSlots() {
	target := NoTarget()
	if s, ok := b.drag.Active(); ok {
		target = s.DropTarget
	}
	slots := b.slots.All()
	views := make([]SlotView, len(slots))
	for i, slot := range slots {
		views[i] = SlotView{
			Slot:        slot,
			Label:       slot.Label(),
			Highlighted: target.Kind == TargetSlot && target.Slot == i,
		}
	}
	b.view.Slots = views
}

func (b *Board) renderPrompt() {
	b.frames.Schedule(func() {
		v := &b.view
		v.Round = b.round
		v.RoundID = b.roundID
		v.Revealed = b.revealed
		v.Completed = b.eval.Completed()
		v.Word = ""
		if b.revealed {
			v.Word = b.word
		}
		v.Illustration = ""
		if b.words != nil {
			v.Illustration = b.words.Illustration(b.word)
		}
		v.Choices = slices.Clone(b.choices)
		v.Selected = b.selected
		v.Speech = b.speech
		v.TileAudio = b.tileAudio
		v.NextRoundPending = b.timer.Pending()
	})
}
