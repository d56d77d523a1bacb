package engine

import (
	"errors"
	"time"
)

// Collaborators are the presentation and audio hooks the board drives.
// Every call is fire-and-forget.
type Collaborators interface {
	Speak(text string)
	PlayFeedback(correct bool)
	PlayCelebration()
	RevealWord(word string)
	ShowCompletion()
	ResetToPreview()
}

// Surface is the hosting UI's pointer-capture resource. Either call may fail;
// failures never abort a drag.
type Surface interface {
	SetPointerCapture(tileID, pointerID int) error
	ReleasePointerCapture(tileID, pointerID int) error
}

type EventType string

const (
	EvtSpeak          EventType = "Speak"
	EvtFeedback       EventType = "Feedback"
	EvtCelebrate      EventType = "Celebrate"
	EvtRevealWord     EventType = "RevealWord"
	EvtCompletionShow EventType = "CompletionShown"
	EvtPreviewReset   EventType = "PreviewReset"
	EvtCapture        EventType = "PointerCapture"
	EvtRelease        EventType = "PointerRelease"
)

// Event is one collaborator cue, recorded for delivery to clients.
type Event struct {
	Type      EventType `json:"type"`
	Text      string    `json:"text,omitempty"`
	Correct   bool      `json:"correct,omitempty"`
	TileID    int       `json:"tile_id,omitempty"`
	PointerID int       `json:"pointer_id,omitempty"`
	ClientID  string    `json:"client_id,omitempty"`
}

// EventLog records collaborator calls as Events.
type EventLog struct {
	events []Event
}

var _ Collaborators = (*EventLog)(nil)

func (l *EventLog) Speak(text string) {
	l.events = append(l.events, Event{Type: EvtSpeak, Text: text})
}

func (l *EventLog) PlayFeedback(correct bool) {
	l.events = append(l.events, Event{Type: EvtFeedback, Correct: correct})
}

func (l *EventLog) PlayCelebration() {
	l.events = append(l.events, Event{Type: EvtCelebrate})
}

func (l *EventLog) RevealWord(word string) {
	l.events = append(l.events, Event{Type: EvtRevealWord, Text: word})
}

func (l *EventLog) ShowCompletion() {
	l.events = append(l.events, Event{Type: EvtCompletionShow})
}

func (l *EventLog) ResetToPreview() {
	l.events = append(l.events, Event{Type: EvtPreviewReset})
}

// ErrClientGone is returned by a Surface whose client has disconnected.
var ErrClientGone = errors.New("client gone")

// ClientSurface records capture calls for one client. Calls fail once the
// client is detached.
type ClientSurface struct {
	log      *EventLog
	clientID string
	detached bool
}

var _ Surface = (*ClientSurface)(nil)

func (l *EventLog) Surface(clientID string) *ClientSurface {
	return &ClientSurface{log: l, clientID: clientID}
}

func (s *ClientSurface) SetPointerCapture(tileID, pointerID int) error {
	if s.detached {
		return ErrClientGone
	}
	s.log.events = append(s.log.events, Event{Type: EvtCapture, TileID: tileID, PointerID: pointerID, ClientID: s.clientID})
	return nil
}

func (s *ClientSurface) ReleasePointerCapture(tileID, pointerID int) error {
	if s.detached {
		return ErrClientGone
	}
	s.log.events = append(s.log.events, Event{Type: EvtRelease, TileID: tileID, PointerID: pointerID, ClientID: s.clientID})
	return nil
}

func (s *ClientSurface) Detach() { s.detached = true }

// Drain returns and forgets the recorded events.
func (l *EventLog) Drain() []Event {
	out := l.events
	l.events = nil
	return out
}

func (l *EventLog) Len() int { return len(l.events) }

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

type ResultMode string

const (
	ModeTiles ResultMode = "tiles"
	ModeCard  ResultMode = "card"
)

// Result describes a finished round.
type Result struct {
	RoundID    string     `json:"round_id"`
	Round      int        `json:"round"`
	Word       string     `json:"word"`
	Mode       ResultMode `json:"mode"`
	Correct    bool       `json:"correct"`
	Fills      int        `json:"fills"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
}
