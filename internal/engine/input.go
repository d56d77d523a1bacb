package engine

import (
	"go.uber.org/zap"
)

type Modality string

const (
	ModalityPointer    Modality = "pointer"
	ModalityTouch      Modality = "touch"
	ModalityNativeDrag Modality = "drag"
)

// Capabilities is what the hosting UI reports about itself once, at setup.
type Capabilities struct {
	PointerEvents  bool `json:"pointer_events"`
	TouchEvents    bool `json:"touch_events"`
	MaxTouchPoints int  `json:"max_touch_points"`
	Speech         bool `json:"speech"`
}

// DetectModality picks the primary drag modality: pointer, then touch, then
// native drag-and-drop.
func DetectModality(c Capabilities) Modality {
	switch {
	case c.PointerEvents:
		return ModalityPointer
	case c.TouchEvents || c.MaxTouchPoints > 0:
		return ModalityTouch
	default:
		return ModalityNativeDrag
	}
}

type EventKind string

const (
	KindPointerDown   EventKind = "pointerdown"
	KindPointerMove   EventKind = "pointermove"
	KindPointerUp     EventKind = "pointerup"
	KindPointerCancel EventKind = "pointercancel"
	KindTouchStart    EventKind = "touchstart"
	KindTouchMove     EventKind = "touchmove"
	KindTouchEnd      EventKind = "touchend"
	KindTouchCancel   EventKind = "touchcancel"
	KindDragStart     EventKind = "dragstart"
	KindDragEnter     EventKind = "dragenter"
	KindDragOver      EventKind = "dragover"
	KindDragLeave     EventKind = "dragleave"
	KindDrop          EventKind = "drop"
	KindDragEnd       EventKind = "dragend"
	KindKeyDown       EventKind = "keydown"
	KindClick         EventKind = "click"
)

// NativePointerID marks sessions started by native drag-and-drop.
const NativePointerID = -1

type Touch struct {
	ID     int     `json:"id"`
	Point  Point   `json:"point"`
	Target *Target `json:"target,omitempty"`
}

// RawEvent is one UI input event as reported by the client. Target, when
// present, overrides hit testing of Point.
type RawEvent struct {
	Kind           EventKind `json:"kind"`
	TileID         int       `json:"tile"`
	PointerID      int       `json:"pointer_id,omitempty"`
	PointerType    string    `json:"pointer_type,omitempty"`
	Point          *Point    `json:"point,omitempty"`
	Target         *Target   `json:"target,omitempty"`
	Key            string    `json:"key,omitempty"`
	ChangedTouches []Touch   `json:"changed_touches,omitempty"`
	Touches        []Touch   `json:"touches,omitempty"`
}

// InputHandler converts one modality's events into DragController calls.
// Handle reports whether the event belonged to the modality.
type InputHandler interface {
	Handle(ev RawEvent) bool
}

type inputContext struct {
	client  string
	board   *Board
	drag    *DragController
	surface Surface
	hit     HitTester
	log     *zap.Logger
}

func (x *inputContext) resolve(p Point, explicit *Target) Target {
	if explicit != nil {
		return *explicit
	}
	return x.hit.HitTest(p)
}

// session returns the active session if this client started it.
func (x *inputContext) session() (DragSession, bool) {
	s, ok := x.drag.Active()
	if !ok || s.Owner != x.client {
		return DragSession{}, false
	}
	return s, true
}

func (x *inputContext) ownsSession(pointerID int) bool {
	s, ok := x.session()
	return ok && s.PointerID == pointerID
}

func (x *inputContext) begin(tileID, pointerID int, start *Point, hit Target) bool {
	if !x.drag.Begin(tileID, pointerID, start, hit) {
		return false
	}
	x.drag.claim(x.client)
	return true
}

type PointerInput struct{ *inputContext }

func (in PointerInput) Handle(ev RawEvent) bool {
	switch ev.Kind {
	case KindPointerDown, KindPointerMove, KindPointerUp, KindPointerCancel:
	default:
		return false
	}
	// Mouse pointers go through native drag-and-drop.
	if ev.PointerType == "mouse" {
		return false
	}

	switch ev.Kind {
	case KindPointerDown:
		var p Point
		if ev.Point != nil {
			p = *ev.Point
		}
		if !in.begin(ev.TileID, ev.PointerID, &p, in.resolve(p, ev.Target)) {
			return true
		}
		in.capture(ev.TileID, ev.PointerID)
	case KindPointerMove:
		if !in.ownsSession(ev.PointerID) || ev.Point == nil {
			return true
		}
		in.drag.Move(*ev.Point, in.resolve(*ev.Point, ev.Target))
	case KindPointerUp:
		if !in.ownsSession(ev.PointerID) {
			return true
		}
		if ev.Point == nil {
			in.drag.End(nil, NoTarget())
			return true
		}
		in.drag.End(ev.Point, in.resolve(*ev.Point, ev.Target))
	case KindPointerCancel:
		if !in.ownsSession(ev.PointerID) {
			return true
		}
		in.drag.Cancel()
	}
	return true
}

func (in PointerInput) capture(tileID, pointerID int) {
	if in.surface == nil {
		return
	}
	if err := in.surface.SetPointerCapture(tileID, pointerID); err != nil {
		in.log.Debug("pointer_capture_failed", zap.Int("tile", tileID), zap.Error(err))
		return
	}
	in.drag.OnRelease(func() {
		if err := in.surface.ReleasePointerCapture(tileID, pointerID); err != nil {
			in.log.Debug("pointer_release_failed", zap.Int("tile", tileID), zap.Error(err))
		}
	})
}

type TouchInput struct{ *inputContext }

func (in TouchInput) Handle(ev RawEvent) bool {
	switch ev.Kind {
	case KindTouchStart:
		if len(ev.ChangedTouches) == 0 {
			return true
		}
		t := ev.ChangedTouches[0]
		in.begin(ev.TileID, t.ID, &t.Point, in.resolve(t.Point, t.Target))
	case KindTouchMove:
		s, ok := in.session()
		if !ok {
			return true
		}
		t, ok := findTouch(ev.ChangedTouches, s.PointerID)
		if !ok {
			t, ok = findTouch(ev.Touches, s.PointerID)
		}
		if !ok {
			return true
		}
		in.drag.Move(t.Point, in.resolve(t.Point, t.Target))
	case KindTouchEnd:
		s, ok := in.session()
		if !ok {
			return true
		}
		if t, ok := findTouch(ev.ChangedTouches, s.PointerID); ok {
			in.drag.End(&t.Point, in.resolve(t.Point, t.Target))
		}
	case KindTouchCancel:
		s, ok := in.session()
		if !ok {
			return true
		}
		if _, ok := findTouch(ev.ChangedTouches, s.PointerID); ok {
			in.drag.Cancel()
		}
	default:
		return false
	}
	return true
}

func findTouch(touches []Touch, id int) (Touch, bool) {
	for _, t := range touches {
		if t.ID == id {
			return t, true
		}
	}
	return Touch{}, false
}

// NativeDragInput handles HTML drag-and-drop. It is always wired.
type NativeDragInput struct{ *inputContext }

func (in NativeDragInput) Handle(ev RawEvent) bool {
	switch ev.Kind {
	case KindDragStart:
		if in.begin(ev.TileID, NativePointerID, nil, NoTarget()) {
			in.drag.MarkMoved()
		}
	case KindDragEnter, KindDragOver:
		if target, ok := in.dropTarget(ev); ok && in.ownsSession(NativePointerID) {
			in.drag.Retarget(target)
		}
	case KindDragLeave:
		if target, ok := in.dropTarget(ev); ok && in.ownsSession(NativePointerID) {
			in.drag.Leave(target)
		}
	case KindDrop:
		target, ok := in.dropTarget(ev)
		if !ok || !in.ownsSession(NativePointerID) {
			return true
		}
		in.drag.Retarget(target)
		in.drag.End(nil, NoTarget())
	case KindDragEnd:
		// A drag that ends without a drop goes nowhere.
		if in.ownsSession(NativePointerID) {
			in.drag.Cancel()
		}
	default:
		return false
	}
	return true
}

// dropTarget accepts only the pool or a slot as a native drop zone.
func (in NativeDragInput) dropTarget(ev RawEvent) (Target, bool) {
	var target Target
	switch {
	case ev.Target != nil:
		target = *ev.Target
	case ev.Point != nil:
		target = in.hit.HitTest(*ev.Point)
	}
	return target, target.Kind == TargetPool || target.Kind == TargetSlot
}

// KeyboardInput handles Enter/Space activation and clicks. It is always wired.
type KeyboardInput struct{ *inputContext }

func (in KeyboardInput) Handle(ev RawEvent) bool {
	switch ev.Kind {
	case KindKeyDown:
		if ev.Key != "Enter" && ev.Key != " " {
			return true
		}
		in.board.SpeakTile(ev.TileID)
		in.drag.Activate(ev.TileID)
	case KindClick:
		in.board.SpeakTile(ev.TileID)
	default:
		return false
	}
	return true
}

// InputRouter dispatches raw events to the modality chosen at setup plus the
// always-on native drag and keyboard fallbacks.
type InputRouter struct {
	modality Modality
	ctx      *inputContext
	handlers []InputHandler
}

// NewInputRouter wires one client's input. Sessions it starts are owned by
// client and only that client's events can move, end or cancel them.
// surface may be nil.
func (b *Board) NewInputRouter(client string, caps Capabilities, surface Surface) *InputRouter {
	ctx := &inputContext{client: client, board: b, drag: b.drag, surface: surface, hit: noHits{}, log: b.log.With(zap.String("client", client))}
	r := &InputRouter{modality: DetectModality(caps), ctx: ctx}
	switch r.modality {
	case ModalityPointer:
		r.handlers = append(r.handlers, PointerInput{ctx})
	case ModalityTouch:
		r.handlers = append(r.handlers, TouchInput{ctx})
	}
	r.handlers = append(r.handlers, NativeDragInput{ctx}, KeyboardInput{ctx})
	b.log.Debug("input_wired", zap.String("modality", string(r.modality)))
	return r
}

func (r *InputRouter) Modality() Modality { return r.modality }

// SetHitTester replaces the geometry used to resolve event points.
func (r *InputRouter) SetHitTester(h HitTester) {
	if h == nil {
		h = noHits{}
	}
	r.ctx.hit = h
}

func (r *InputRouter) Handle(ev RawEvent) bool {
	for _, h := range r.handlers {
		if h.Handle(ev) {
			return true
		}
	}
	return false
}
