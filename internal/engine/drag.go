package engine

import (
	"math"

	"go.uber.org/zap"
)

// MoveThreshold is the per-axis displacement, in pixels, that turns a press
// into a drag.
const MoveThreshold = 6.0

type Outcome string

const (
	OutcomeNone      Outcome = "none"
	OutcomeDropped   Outcome = "dropped"
	OutcomeReturned  Outcome = "returned"
	OutcomePlaced    Outcome = "placed"
	OutcomeCancelled Outcome = "cancelled"
)

// DragSession is the state of one tile between pickup and drop or cancel.
type DragSession struct {
	TileID     int    `json:"tile_id"`
	PointerID  int    `json:"pointer_id"`
	Owner      string `json:"owner,omitempty"`
	Start      Point  `json:"start"`
	DropTarget Target `json:"drop_target"`
	HasMoved   bool   `json:"has_moved"`
	OverPool   bool   `json:"over_pool"`

	release func()
}

// DragController owns the single DragSession of a board.
type DragController struct {
	board   *Board
	session *DragSession
	log     *zap.Logger
}

func (c *DragController) Active() (DragSession, bool) {
	if c.session == nil {
		return DragSession{}, false
	}
	return *c.session, true
}

// Begin starts a session for tileID. Inert or unknown tiles are refused. A
// session already in progress is cancelled first.
func (c *DragController) Begin(tileID, pointerID int, start *Point, hit Target) bool {
	tile, ok := c.board.pool.Tile(tileID)
	if !ok || tile.Inert() {
		return false
	}
	if c.session != nil {
		c.Cancel()
	}

	s := &DragSession{TileID: tileID, PointerID: pointerID}
	if start != nil {
		s.Start = *start
	}
	c.session = s
	c.board.pool.setActive(tileID, true)
	c.board.renderTiles()

	if start != nil {
		c.retarget(hit)
	} else {
		c.setDropTarget(NoTarget())
	}
	c.log.Debug("drag_begin", zap.Int("tile", tileID), zap.Int("pointer", pointerID))
	return true
}

// claim records which client started the session. Pointer and touch IDs are
// only unique within one client.
func (c *DragController) claim(owner string) {
	if c.session != nil {
		c.session.Owner = owner
	}
}

// OnRelease registers the capture release to run when the session ends, on
// every exit path.
func (c *DragController) OnRelease(fn func()) {
	if c.session != nil {
		c.session.release = fn
	}
}

// MarkMoved flags the session as a genuine drag regardless of distance.
func (c *DragController) MarkMoved() {
	if c.session != nil {
		c.session.HasMoved = true
	}
}

func (c *DragController) Move(p Point, hit Target) {
	s := c.session
	if s == nil {
		return
	}
	if !s.HasMoved {
		dx := math.Abs(p.X - s.Start.X)
		dy := math.Abs(p.Y - s.Start.Y)
		if dx >= MoveThreshold || dy >= MoveThreshold {
			s.HasMoved = true
		}
	}
	c.retarget(hit)
}

// Retarget updates the drop target without a position, as native drag
// enter/over events do.
func (c *DragController) Retarget(hit Target) {
	if c.session == nil {
		return
	}
	c.retarget(hit)
}

// Leave clears the drop target if it is the one being left.
func (c *DragController) Leave(hit Target) {
	if c.session == nil {
		return
	}
	if c.session.DropTarget == hit {
		c.setDropTarget(NoTarget())
	}
}

// End finishes the session and resolves its outcome: drop on a slot, return
// to the pool, or tap-to-place into the first unfilled slot.
func (c *DragController) End(p *Point, hit Target) Outcome {
	s := c.session
	if s == nil {
		return OutcomeNone
	}
	if p != nil {
		c.retarget(hit)
	}

	tile, _ := c.board.pool.Tile(s.TileID)
	target, overPool, moved := s.DropTarget, s.OverPool, s.HasMoved
	c.teardown()

	if tile.Inert() {
		return OutcomeNone
	}
	switch {
	case target.Kind == TargetSlot:
		c.board.place(target.Slot, tile.Letter)
		return OutcomeDropped
	case overPool && moved:
		return OutcomeReturned
	case !moved:
		if i, ok := c.board.slots.FirstUnfilled(); ok {
			c.board.place(i, tile.Letter)
			return OutcomePlaced
		}
	}
	return OutcomeNone
}

// Cancel discards the session without touching any slot.
func (c *DragController) Cancel() Outcome {
	if c.session == nil {
		return OutcomeNone
	}
	c.teardown()
	return OutcomeCancelled
}

// Activate places tileID into the first unfilled slot without a session.
func (c *DragController) Activate(tileID int) Outcome {
	tile, ok := c.board.pool.Tile(tileID)
	if !ok || tile.Inert() {
		return OutcomeNone
	}
	i, ok := c.board.slots.FirstUnfilled()
	if !ok {
		return OutcomeNone
	}
	c.board.place(i, tile.Letter)
	return OutcomePlaced
}

func (c *DragController) retarget(hit Target) {
	s := c.session
	switch hit.Kind {
	case TargetPool:
		s.OverPool = true
		c.setDropTarget(NoTarget())
	case TargetSlot:
		s.OverPool = false
		if _, ok := c.board.slots.Get(hit.Slot); ok {
			c.setDropTarget(hit)
		} else {
			c.setDropTarget(NoTarget())
		}
	default:
		s.OverPool = false
		c.setDropTarget(NoTarget())
	}
}

func (c *DragController) setDropTarget(t Target) {
	if c.session.DropTarget == t {
		return
	}
	c.session.DropTarget = t
	c.board.renderHighlight()
}

func (c *DragController) teardown() {
	s := c.session
	c.session = nil
	if s.release != nil {
		s.release()
	}
	c.board.pool.setActive(s.TileID, false)
	c.board.renderTiles()
	c.board.renderHighlight()
	c.log.Debug("drag_end", zap.Int("tile", s.TileID))
}
