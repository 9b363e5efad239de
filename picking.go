package picking

import (
	"fmt"
	"sync/atomic"
)

// Entity is an opaque reference to something a pointer can interact with.
// The zero value means "no entity".
type Entity uint64

// NoEntity is the zero Entity.
const NoEntity Entity = 0

// String returns a short debug form such as "e42".
func (e Entity) String() string {
	return fmt.Sprintf("e%d", uint64(e))
}

// entityCounter hands out entities for the built-in backends so that nodes,
// meshes and widgets never collide with each other.
var entityCounter atomic.Uint64

// NewEntity returns a fresh entity from the package-wide counter. External
// worlds with their own ids need not use it.
func NewEntity() Entity {
	return Entity(entityCounter.Add(1))
}

// ViewportID identifies the surface or viewport a pointer location refers to.
type ViewportID uint32

// Vec2 is a 2D vector used for positions, offsets and deltas.
type Vec2 struct {
	X, Y float64
}

// Add returns v+o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v-o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// LengthSq returns the squared length of v.
func (v Vec2) LengthSq() float64 { return v.X*v.X + v.Y*v.Y }

// Vec3 is a 3D vector used by backends for hit positions and normals.
type Vec3 struct {
	X, Y, Z float64
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Intersects reports whether r and other overlap.
// Adjacent rectangles (sharing only an edge) are considered intersecting.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.X+other.Width &&
		r.X+r.Width >= other.X &&
		r.Y <= other.Y+other.Height &&
		r.Y+r.Height >= other.Y
}

// Location is a pointer position on a viewport for the current frame.
type Location struct {
	Viewport ViewportID
	Position Vec2
}

// PointerButton identifies a pointer button.
type PointerButton uint8

const (
	ButtonPrimary   PointerButton = iota // left mouse button, touch contact, pen tip
	ButtonSecondary                      // right mouse button, pen barrel button
	ButtonMiddle                         // middle mouse button (scroll wheel click)

	maxButtons = 3
)

func (b PointerButton) String() string {
	switch b {
	case ButtonPrimary:
		return "primary"
	case ButtonSecondary:
		return "secondary"
	case ButtonMiddle:
		return "middle"
	default:
		return fmt.Sprintf("button(%d)", uint8(b))
	}
}

func (b PointerButton) valid() bool { return b < maxButtons }

// Layer is a coarse ordering bucket declared by a backend. Hits on a higher
// layer are ordered before hits on a lower layer regardless of depth.
type Layer int

const (
	LayerWorld   Layer = 0   // sprites, meshes and other scene geometry
	LayerOverlay Layer = 100 // gizmos and world-space overlays
	LayerUI      Layer = 200 // screen-space UI
)
