package engine

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type TargetKind string

const (
	TargetNone TargetKind = ""
	TargetPool TargetKind = "pool"
	TargetSlot TargetKind = "slot"
)

// Target is what lies under a point: nothing, the tile pool, or a slot.
type Target struct {
	Kind TargetKind `json:"kind"`
	Slot int        `json:"slot,omitempty"`
}

func NoTarget() Target            { return Target{} }
func PoolTarget() Target          { return Target{Kind: TargetPool} }
func SlotTarget(index int) Target { return Target{Kind: TargetSlot, Slot: index} }

// HitTester resolves the element at a point.
type HitTester interface {
	HitTest(p Point) Target
}

// Rect is an axis-aligned hit area.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Contains(p Point) bool {
	return r.Width > 0 && r.Height > 0 &&
		p.X >= r.X && p.X <= r.X+r.Width &&
		p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Layout is a client's reported geometry. The pool wins over overlapping slots.
type Layout struct {
	Pool  Rect   `json:"pool"`
	Slots []Rect `json:"slots"`
}

func (l Layout) HitTest(p Point) Target {
	if l.Pool.Contains(p) {
		return PoolTarget()
	}
	for i, r := range l.Slots {
		if r.Contains(p) {
			return SlotTarget(i)
		}
	}
	return NoTarget()
}

type noHits struct{}

func (noHits) HitTest(Point) Target { return NoTarget() }
