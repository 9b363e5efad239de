package picking

import (
	"math"
	"slices"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Camera maps one viewport's screen coordinates into scene world space.
// The viewport center shows world point (X, Y); Zoom scales and Rotation
// turns the world clockwise around it.
type Camera struct {
	// ID is the viewport pointer locations must name to be seen by this camera.
	ID ViewportID
	X  float64
	Y  float64
	// Zoom is the scale factor (1.0 = no zoom, >1 = zoom in). A zero zoom
	// collapses the view and the camera resolves no location.
	Zoom     float64
	Rotation float64
	// Viewport is the screen-space rectangle this camera covers. Pointers
	// outside it hit nothing through this camera.
	Viewport Rect

	scroll *[2]*gween.Tween

	// Cached view and its inverse; key is the state they were built from.
	key        [4]float64
	keyRect    Rect
	view       [6]float64
	inv        [6]float64
	invertible bool
	built      bool
}

// NewCamera creates a Camera for viewport id covering the given rectangle.
func NewCamera(id ViewportID, viewport Rect) *Camera {
	return &Camera{ID: id, Zoom: 1, Viewport: viewport}
}

// ScrollTo animates the camera to the world position (x, y) over duration
// seconds of Scene.Update time.
func (c *Camera) ScrollTo(x, y float64, duration float32, easeFn ease.TweenFunc) {
	c.scroll = &[2]*gween.Tween{
		gween.New(float32(c.X), float32(x), duration, easeFn),
		gween.New(float32(c.Y), float32(y), duration, easeFn),
	}
}

// Scrolling reports whether a ScrollTo animation is in progress.
func (c *Camera) Scrolling() bool {
	return c.scroll != nil
}

func (c *Camera) update(dt float32) {
	if c.scroll == nil {
		return
	}
	x, doneX := c.scroll[0].Update(dt)
	y, doneY := c.scroll[1].Update(dt)
	c.X, c.Y = float64(x), float64(y)
	if doneX && doneY {
		c.scroll = nil
	}
}

// matrices rebuilds the view transform when any camera field changed since
// the last call:
//
//	Translate(center) * Scale(Zoom) * Rotate(-Rotation) * Translate(-X, -Y)
func (c *Camera) matrices() {
	key := [4]float64{c.X, c.Y, c.Zoom, c.Rotation}
	if c.built && key == c.key && c.Viewport == c.keyRect {
		return
	}
	c.key, c.keyRect, c.built = key, c.Viewport, true

	sin, cos := math.Sincos(-c.Rotation)
	z := c.Zoom
	m := [6]float64{1, 0, 0, 1, -c.X, -c.Y}
	m = multiplyAffine([6]float64{cos, sin, -sin, cos, 0, 0}, m)
	m = multiplyAffine([6]float64{z, 0, 0, z, 0, 0}, m)
	m[4] += c.Viewport.X + c.Viewport.Width/2
	m[5] += c.Viewport.Y + c.Viewport.Height/2
	c.view = m
	c.inv, c.invertible = invertAffine(m)
}

// WorldToScreen converts a world point to screen coordinates.
func (c *Camera) WorldToScreen(w Vec2) Vec2 {
	c.matrices()
	x, y := transformPoint(c.view, w.X, w.Y)
	return Vec2{x, y}
}

// ScreenToWorld converts a screen point to world coordinates. It fails when
// the view is singular.
func (c *Camera) ScreenToWorld(s Vec2) (Vec2, bool) {
	c.matrices()
	if !c.invertible {
		return Vec2{}, false
	}
	x, y := transformPoint(c.inv, s.X, s.Y)
	return Vec2{x, y}, true
}

// VisibleBounds returns the world-space bounding box of the viewport. A
// singular view yields the zero Rect.
func (c *Camera) VisibleBounds() Rect {
	v := c.Viewport
	corners := [4]Vec2{{v.X, v.Y}, {v.X + v.Width, v.Y}, {v.X + v.Width, v.Y + v.Height}, {v.X, v.Y + v.Height}}
	lo := Vec2{math.Inf(1), math.Inf(1)}
	hi := Vec2{math.Inf(-1), math.Inf(-1)}
	for _, s := range corners {
		w, ok := c.ScreenToWorld(s)
		if !ok {
			return Rect{}
		}
		lo = Vec2{min(lo.X, w.X), min(lo.Y, w.Y)}
		hi = Vec2{max(hi.X, w.X), max(hi.Y, w.Y)}
	}
	return Rect{X: lo.X, Y: lo.Y, Width: hi.X - lo.X, Height: hi.Y - lo.Y}
}

// Cameras maps viewports to cameras. With no cameras at all every viewport
// uses the identity mapping; once one is added, locations on viewports
// without a camera resolve to nothing.
type Cameras struct {
	list []*Camera
}

// Add appends a camera. A later camera for the same viewport shadows earlier
// ones.
func (cs *Cameras) Add(c *Camera) {
	cs.list = append(cs.list, c)
}

// Remove removes a camera.
func (cs *Cameras) Remove(c *Camera) {
	if i := slices.Index(cs.list, c); i >= 0 {
		cs.list = slices.Delete(cs.list, i, i+1)
	}
}

// List returns the cameras. The returned slice MUST NOT be mutated.
func (cs *Cameras) List() []*Camera {
	return cs.list
}

// For returns the camera of viewport id.
func (cs *Cameras) For(id ViewportID) (*Camera, bool) {
	for i := len(cs.list) - 1; i >= 0; i-- {
		if cs.list[i].ID == id {
			return cs.list[i], true
		}
	}
	return nil, false
}

// ToWorld resolves a pointer location into world space. It fails when
// cameras exist but none covers the location, or when that camera's view is
// singular.
func (cs *Cameras) ToWorld(loc Location) (Vec2, bool) {
	if len(cs.list) == 0 {
		return loc.Position, true
	}
	c, ok := cs.For(loc.Viewport)
	if !ok || !c.Viewport.Contains(loc.Position.X, loc.Position.Y) {
		return Vec2{}, false
	}
	return c.ScreenToWorld(loc.Position)
}

func (cs *Cameras) update(dt float32) {
	for _, c := range cs.list {
		c.update(dt)
	}
}
