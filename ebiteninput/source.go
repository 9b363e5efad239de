// Package ebiteninput turns Ebitengine mouse and touch state into picking
// input batches.
//
// Usage, once per Game.Update:
//
//	p.Update(ctx, src.Poll())
package ebiteninput

import (
	"slices"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/picking"
)

// Touch is one active touch contact.
type Touch struct {
	ID       ebiten.TouchID
	Position picking.Vec2
}

// Snapshot is the raw pointer state of one frame.
type Snapshot struct {
	Mouse   picking.Vec2
	Buttons [3]bool // primary (left), secondary (right), middle
	Touches []Touch
}

// mouseButtons maps picking buttons to ebiten buttons, by index.
var mouseButtons = [3]ebiten.MouseButton{
	ebiten.MouseButtonLeft,
	ebiten.MouseButtonRight,
	ebiten.MouseButtonMiddle,
}

// Source diffs successive snapshots into PointerInput batches. The mouse is
// MousePointer; each touch is TouchPointer(id) from first contact until it
// lifts.
type Source struct {
	// Viewport is stamped on every location.
	Viewport picking.ViewportID
	// Bounds, when non-empty, is the screen area the mouse is considered
	// inside; outside it the mouse has no location.
	Bounds picking.Rect

	mouseAdded bool
	mouseIn    bool
	prev       Snapshot
	lifted     []picking.PointerID
	touchBuf   []ebiten.TouchID
}

// New creates a source for viewport.
func New(viewport picking.ViewportID) *Source {
	return &Source{Viewport: viewport}
}

// Poll reads the current ebiten input state and returns this frame's batch.
// Call it from Game.Update.
func (s *Source) Poll() []picking.PointerInput {
	var snap Snapshot
	mx, my := ebiten.CursorPosition()
	snap.Mouse = picking.Vec2{X: float64(mx), Y: float64(my)}
	for i, b := range mouseButtons {
		snap.Buttons[i] = ebiten.IsMouseButtonPressed(b)
	}
	s.touchBuf = ebiten.AppendTouchIDs(s.touchBuf[:0])
	for _, id := range s.touchBuf {
		tx, ty := ebiten.TouchPosition(id)
		snap.Touches = append(snap.Touches, Touch{ID: id, Position: picking.Vec2{X: float64(tx), Y: float64(ty)}})
	}
	return s.Diff(snap)
}

// Diff returns the inputs that turn the previous snapshot into snap.
func (s *Source) Diff(snap Snapshot) []picking.PointerInput {
	var out []picking.PointerInput
	// Touches lifted last frame are removed one frame after their release,
	// so the release is still hit-tested and can click.
	for _, id := range s.lifted {
		out = append(out, picking.PointerInput{Kind: picking.InputRemoved, Pointer: id})
	}
	s.lifted = s.lifted[:0]
	out = s.diffMouse(snap, out)
	out = s.diffTouches(snap, out)
	s.prev = snap
	s.prev.Touches = slices.Clone(snap.Touches)
	return out
}

func (s *Source) loc(p picking.Vec2) picking.Location {
	return picking.Location{Viewport: s.Viewport, Position: p}
}

func (s *Source) inside(p picking.Vec2) bool {
	if s.Bounds.Width <= 0 || s.Bounds.Height <= 0 {
		return true
	}
	return s.Bounds.Contains(p.X, p.Y)
}

func (s *Source) diffMouse(snap Snapshot, out []picking.PointerInput) []picking.PointerInput {
	id := picking.MousePointer()
	in := s.inside(snap.Mouse)
	switch {
	case !s.mouseAdded:
		s.mouseAdded = true
		out = append(out, picking.PointerInput{Kind: picking.InputAdded, Pointer: id, Location: s.loc(snap.Mouse)})
		if !in {
			out = append(out, picking.PointerInput{Kind: picking.InputLeft, Pointer: id})
		}
	case in && (!s.mouseIn || snap.Mouse != s.prev.Mouse):
		out = append(out, picking.PointerInput{Kind: picking.InputMoved, Pointer: id, Location: s.loc(snap.Mouse)})
	case !in && s.mouseIn:
		out = append(out, picking.PointerInput{Kind: picking.InputLeft, Pointer: id})
	}
	s.mouseIn = in

	for i, down := range snap.Buttons {
		if down == s.prev.Buttons[i] {
			continue
		}
		kind := picking.InputReleased
		if down {
			kind = picking.InputPressed
		}
		out = append(out, picking.PointerInput{Kind: kind, Pointer: id, Button: picking.PointerButton(i)})
	}
	return out
}

func (s *Source) diffTouches(snap Snapshot, out []picking.PointerInput) []picking.PointerInput {
	for _, t := range snap.Touches {
		id := picking.TouchPointer(uint64(t.ID))
		i := slices.IndexFunc(s.prev.Touches, func(p Touch) bool { return p.ID == t.ID })
		if i < 0 {
			out = append(out,
				picking.PointerInput{Kind: picking.InputAdded, Pointer: id, Location: s.loc(t.Position)},
				picking.PointerInput{Kind: picking.InputPressed, Pointer: id, Button: picking.ButtonPrimary},
			)
			continue
		}
		if s.prev.Touches[i].Position != t.Position {
			out = append(out, picking.PointerInput{Kind: picking.InputMoved, Pointer: id, Location: s.loc(t.Position)})
		}
	}
	for _, p := range s.prev.Touches {
		if slices.ContainsFunc(snap.Touches, func(t Touch) bool { return t.ID == p.ID }) {
			continue
		}
		id := picking.TouchPointer(uint64(p.ID))
		out = append(out, picking.PointerInput{Kind: picking.InputReleased, Pointer: id, Button: picking.ButtonPrimary})
		s.lifted = append(s.lifted, id)
	}
	return out
}
