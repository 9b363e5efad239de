// Package tcellinput turns tcell terminal mouse events into picking input
// batches. Terminal cells become positions; button mask changes become
// press and release edges.
package tcellinput

import (
	"github.com/gdamore/tcell/v2"

	"github.com/phanxgames/picking"
)

// buttonMasks maps picking buttons to tcell button masks, by index.
var buttonMasks = [3]tcell.ButtonMask{
	tcell.Button1, // primary (left)
	tcell.Button2, // secondary (right)
	tcell.Button3, // middle
}

// Translator converts the mouse events of one terminal. Events for a frame
// are appended with Translate and collected with Flush.
type Translator struct {
	// Viewport is stamped on every location.
	Viewport picking.ViewportID
	// CellSize scales cell coordinates into positions. The zero value uses
	// one unit per cell.
	CellSize picking.Vec2

	id      picking.PointerID
	added   bool
	left    bool
	pos     picking.Vec2
	buttons tcell.ButtonMask
	pending []picking.PointerInput
}

// New creates a translator reporting as the mouse pointer on viewport.
func New(viewport picking.ViewportID) *Translator {
	return &Translator{Viewport: viewport, id: picking.MousePointer()}
}

// Pointer returns the pointer id the translator reports as.
func (t *Translator) Pointer() picking.PointerID {
	return t.id
}

// Translate appends the inputs for ev and returns them.
func (t *Translator) Translate(ev *tcell.EventMouse) []picking.PointerInput {
	start := len(t.pending)
	x, y := ev.Position()
	pos := t.toPosition(x, y)
	loc := picking.Location{Viewport: t.Viewport, Position: pos}
	switch {
	case !t.added:
		t.added = true
		t.pending = append(t.pending, picking.PointerInput{Kind: picking.InputAdded, Pointer: t.id, Location: loc})
	case pos != t.pos || t.left:
		t.pending = append(t.pending, picking.PointerInput{Kind: picking.InputMoved, Pointer: t.id, Location: loc})
	}
	t.pos = pos
	t.left = false

	mask := ev.Buttons()
	for i, bm := range buttonMasks {
		was, is := t.buttons&bm != 0, mask&bm != 0
		if was == is {
			continue
		}
		kind := picking.InputReleased
		if is {
			kind = picking.InputPressed
		}
		t.pending = append(t.pending, picking.PointerInput{Kind: kind, Pointer: t.id, Button: picking.PointerButton(i)})
	}
	t.buttons = mask
	return t.pending[start:]
}

// Flush returns every input translated since the last Flush, as one frame's
// batch.
func (t *Translator) Flush() []picking.PointerInput {
	out := t.pending
	t.pending = nil
	return out
}

// Leave queues the pointer leaving the terminal, for focus loss.
func (t *Translator) Leave() {
	if t.added && !t.left {
		t.left = true
		t.pending = append(t.pending, picking.PointerInput{Kind: picking.InputLeft, Pointer: t.id})
	}
}

func (t *Translator) toPosition(x, y int) picking.Vec2 {
	sx, sy := t.CellSize.X, t.CellSize.Y
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}
	return picking.Vec2{X: float64(x) * sx, Y: float64(y) * sy}
}
