package picking

import (
	"slices"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Synthetic scripts one pointer for tests, demos and automation. Each call
// queues one or more frames of input; Next pops one frame's batch, ready for
// Picker.Update. Positions are screen coordinates on the synthetic
// pointer's viewport, identical to real input.
type Synthetic struct {
	id       PointerID
	viewport ViewportID
	button   PointerButton
	easeFn   ease.TweenFunc
	queue    [][]PointerInput
	added    bool
	removed  bool
}

// NewSynthetic creates a synthetic pointer. It is registered by the first
// queued frame.
func NewSynthetic(id PointerID, viewport ViewportID) *Synthetic {
	return &Synthetic{id: id, viewport: viewport, easeFn: ease.Linear}
}

// ID returns the pointer id.
func (s *Synthetic) ID() PointerID {
	return s.id
}

// SetButton selects the button used by Press, Release, Click and Drag.
func (s *Synthetic) SetButton(b PointerButton) {
	s.button = b
}

// SetEasing selects the easing of intermediate Drag positions. The default
// is linear.
func (s *Synthetic) SetEasing(fn ease.TweenFunc) {
	s.easeFn = fn
}

// Pending returns the number of queued frames.
func (s *Synthetic) Pending() int {
	return len(s.queue)
}

// Next pops the next frame's input. It returns nil when nothing is queued.
func (s *Synthetic) Next() []PointerInput {
	if len(s.queue) == 0 {
		return nil
	}
	batch := s.queue[0]
	s.queue = slices.Delete(s.queue, 0, 1)
	return batch
}

// locate returns the input placing the pointer at (x, y), registering it on
// first use.
func (s *Synthetic) locate(x, y float64) PointerInput {
	kind := InputMoved
	if !s.added {
		kind = InputAdded
		s.added = true
	}
	return PointerInput{Kind: kind, Pointer: s.id, Location: Location{Viewport: s.viewport, Position: Vec2{x, y}}}
}

func (s *Synthetic) push(batch ...PointerInput) {
	if s.removed {
		return
	}
	s.queue = append(s.queue, batch)
}

// Move queues one frame moving the pointer to (x, y).
func (s *Synthetic) Move(x, y float64) {
	s.push(s.locate(x, y))
}

// Press queues one frame moving to (x, y) and pressing the button.
func (s *Synthetic) Press(x, y float64) {
	s.push(s.locate(x, y), PointerInput{Kind: InputPressed, Pointer: s.id, Button: s.button})
}

// Release queues one frame moving to (x, y) and releasing the button.
func (s *Synthetic) Release(x, y float64) {
	s.push(s.locate(x, y), PointerInput{Kind: InputReleased, Pointer: s.id, Button: s.button})
}

// Click queues a press followed by a release at the same position. Consumes
// two frames.
func (s *Synthetic) Click(x, y float64) {
	s.Press(x, y)
	s.Release(x, y)
}

// Drag queues a full drag: press at from, frames-2 eased moves, and release
// at to. The sequence consumes frames frames; the minimum is 2.
func (s *Synthetic) Drag(from, to Vec2, frames int) {
	if frames < 2 {
		frames = 2
	}
	s.Press(from.X, from.Y)
	steps := frames - 2
	tx := gween.New(float32(from.X), float32(to.X), float32(steps+1), s.easeFn)
	ty := gween.New(float32(from.Y), float32(to.Y), float32(steps+1), s.easeFn)
	for range steps {
		x, _ := tx.Update(1)
		y, _ := ty.Update(1)
		s.Move(float64(x), float64(y))
	}
	s.Release(to.X, to.Y)
}

// Leave queues one frame taking the pointer out of every viewport.
func (s *Synthetic) Leave() {
	s.push(PointerInput{Kind: InputLeft, Pointer: s.id})
}

// Remove queues the pointer's removal. Nothing can be queued after it.
func (s *Synthetic) Remove() {
	if !s.added {
		return
	}
	s.push(PointerInput{Kind: InputRemoved, Pointer: s.id})
	s.removed = true
}

// Wait queues frames empty frames.
func (s *Synthetic) Wait(frames int) {
	for range frames {
		s.push()
	}
}
