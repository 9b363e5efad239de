package picking

import (
	"errors"
	"fmt"
	"iter"
	"math"

	"github.com/google/uuid"
)

// PointerKind distinguishes the device class behind a pointer.
type PointerKind uint8

const (
	PointerMouse  PointerKind = iota // the system cursor
	PointerTouch                     // one touch contact
	PointerPen                       // stylus
	PointerCustom                    // synthetic pointer identified by a UUID
)

// PointerID is a stable identifier for a physical or synthetic pointer.
// It is comparable and can be used as a map key.
type PointerID struct {
	Kind   PointerKind
	Index  uint64
	Custom uuid.UUID
}

// MousePointer returns the id of the system mouse cursor.
func MousePointer() PointerID {
	return PointerID{Kind: PointerMouse}
}

// TouchPointer returns the id of touch contact n.
func TouchPointer(n uint64) PointerID {
	return PointerID{Kind: PointerTouch, Index: n}
}

// PenPointer returns the id of pen n.
func PenPointer(n uint64) PointerID {
	return PointerID{Kind: PointerPen, Index: n}
}

// CustomPointer returns the id of a synthetic pointer.
func CustomPointer(id uuid.UUID) PointerID {
	return PointerID{Kind: PointerCustom, Custom: id}
}

// NewCustomPointer mints a fresh synthetic pointer id.
func NewCustomPointer() PointerID {
	return CustomPointer(uuid.New())
}

func (p PointerID) String() string {
	switch p.Kind {
	case PointerMouse:
		return "mouse"
	case PointerTouch:
		return fmt.Sprintf("touch(%d)", p.Index)
	case PointerPen:
		return fmt.Sprintf("pen(%d)", p.Index)
	case PointerCustom:
		return "custom(" + p.Custom.String() + ")"
	default:
		return fmt.Sprintf("pointer(%d,%d)", p.Kind, p.Index)
	}
}

var (
	// ErrPointerExists is returned by Register for an id that is already live.
	ErrPointerExists = errors.New("picking: pointer already registered")
	// ErrUnknownPointer reports an operation on an id that is not live.
	ErrUnknownPointer = errors.New("picking: unknown pointer")
)

// buttonEdge is one press or release observed during the current frame.
type buttonEdge struct {
	button  PointerButton
	pressed bool
}

type pointerEntry struct {
	id      PointerID
	loc     Location
	hasLoc  bool
	pressed [maxButtons]bool
	edges   []buttonEdge
}

// PointerRegistry tracks live pointers, their current location and the button
// edges observed this frame. It is not safe for concurrent mutation; the
// Picker mutates it only during the input phase.
type PointerRegistry struct {
	entries map[PointerID]*pointerEntry
	order   []*pointerEntry
	retired []PointerID
	an      *anomalies
}

func newPointerRegistry(an *anomalies) *PointerRegistry {
	return &PointerRegistry{
		entries: make(map[PointerID]*pointerEntry),
		an:      an,
	}
}

// Register adds a live pointer. It fails with ErrPointerExists if id is live.
func (r *PointerRegistry) Register(id PointerID) error {
	if _, ok := r.entries[id]; ok {
		return fmt.Errorf("register %s: %w", id, ErrPointerExists)
	}
	e := &pointerEntry{id: id}
	r.entries[id] = e
	r.order = append(r.order, e)
	return nil
}

// Has reports whether id is live.
func (r *PointerRegistry) Has(id PointerID) bool {
	_, ok := r.entries[id]
	return ok
}

// Len returns the number of live pointers.
func (r *PointerRegistry) Len() int {
	return len(r.order)
}

// UpdateLocation sets the pointer's location for this frame. Unknown ids and
// non-finite positions are ignored with a diagnostic; the previous location
// stays.
func (r *PointerRegistry) UpdateLocation(id PointerID, loc Location) {
	e, ok := r.entries[id]
	if !ok {
		r.an.report(anomalyUnknownPointer, id, NoEntity, "update_location")
		return
	}
	if !finite(loc.Position.X) || !finite(loc.Position.Y) {
		r.an.report(anomalyBadInput, id, NoEntity, fmt.Sprintf("non-finite position %v", loc.Position))
		return
	}
	e.loc = loc
	e.hasLoc = true
}

// ClearLocation marks the pointer as outside every viewport.
func (r *PointerRegistry) ClearLocation(id PointerID) {
	e, ok := r.entries[id]
	if !ok {
		r.an.report(anomalyUnknownPointer, id, NoEntity, "clear_location")
		return
	}
	e.hasLoc = false
	e.loc = Location{}
}

// Location returns the pointer's current location, if it has one.
func (r *PointerRegistry) Location(id PointerID) (Location, bool) {
	e, ok := r.entries[id]
	if !ok || !e.hasLoc {
		return Location{}, false
	}
	return e.loc, true
}

// Press records a press edge for button. Presses of a button that is already
// held are dropped.
func (r *PointerRegistry) Press(id PointerID, button PointerButton) {
	r.edge(id, button, true)
}

// Release records a release edge for button. Releases of a button that is not
// held are dropped.
func (r *PointerRegistry) Release(id PointerID, button PointerButton) {
	r.edge(id, button, false)
}

func (r *PointerRegistry) edge(id PointerID, button PointerButton, pressed bool) {
	e, ok := r.entries[id]
	if !ok {
		r.an.report(anomalyUnknownPointer, id, NoEntity, "button")
		return
	}
	if !button.valid() {
		r.an.report(anomalyBadButton, id, NoEntity, button.String())
		return
	}
	if e.pressed[button] == pressed {
		r.an.report(anomalyRepeatedEdge, id, NoEntity, button.String())
		return
	}
	e.pressed[button] = pressed
	e.edges = append(e.edges, buttonEdge{button: button, pressed: pressed})
}

// Pressed reports whether button is currently held on pointer id.
func (r *PointerRegistry) Pressed(id PointerID, button PointerButton) bool {
	e, ok := r.entries[id]
	if !ok || !button.valid() {
		return false
	}
	return e.pressed[button]
}

// Unregister drops the pointer. Its interaction state is retired by the
// Picker with Cancel events before the next hit-test phase. Returns false
// (with a diagnostic) if id is unknown.
func (r *PointerRegistry) Unregister(id PointerID) bool {
	e, ok := r.entries[id]
	if !ok {
		r.an.report(anomalyUnknownPointer, id, NoEntity, "unregister")
		return false
	}
	delete(r.entries, id)
	for i, o := range r.order {
		if o == e {
			copy(r.order[i:], r.order[i+1:])
			r.order[len(r.order)-1] = nil
			r.order = r.order[:len(r.order)-1]
			break
		}
	}
	r.retired = append(r.retired, id)
	return true
}

// All yields (id, location) for every live pointer that has a location, in
// registration order. The sequence is lazy and may be ranged over again.
func (r *PointerRegistry) All() iter.Seq2[PointerID, Location] {
	return func(yield func(PointerID, Location) bool) {
		for _, e := range r.order {
			if !e.hasLoc {
				continue
			}
			if !yield(e.id, e.loc) {
				return
			}
		}
	}
}

// IDs yields every live pointer id in registration order, with or without a
// location.
func (r *PointerRegistry) IDs() iter.Seq[PointerID] {
	return func(yield func(PointerID) bool) {
		for _, e := range r.order {
			if !yield(e.id) {
				return
			}
		}
	}
}

// takeRetired returns and clears the ids unregistered since the last call.
func (r *PointerRegistry) takeRetired() []PointerID {
	out := r.retired
	r.retired = nil
	return out
}

// edgesOf returns the button edges recorded for id this frame.
func (r *PointerRegistry) edgesOf(id PointerID) []buttonEdge {
	if e, ok := r.entries[id]; ok {
		return e.edges
	}
	return nil
}

// endFrame clears per-frame button edges.
func (r *PointerRegistry) endFrame() {
	for _, e := range r.order {
		e.edges = e.edges[:0]
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
