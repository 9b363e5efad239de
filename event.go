package picking

import (
	"fmt"
	"time"
)

// EventKind identifies a kind of interaction event.
type EventKind uint8

const (
	EventOver      EventKind = iota // pointer started hovering the target (bubbles)
	EventOut                        // pointer stopped hovering the target (bubbles)
	EventEntered                    // paired with Left; always precedes Over
	EventLeft                       // paired with Entered; always follows Out
	EventMoved                      // pointer moved while hovering the target
	EventPressed                    // button pressed on the target
	EventReleased                   // button released after pressing the target
	EventClick                      // press and release without a drag
	EventDragStart                  // press moved past the drag threshold
	EventDrag                       // pointer moved while dragging the target
	EventDragEnd                    // drag finished normally
	EventDragEnter                  // dragged entity entered the target
	EventDragOver                   // dragged entity moved over the target
	EventDragLeave                  // dragged entity left the target
	EventDrop                       // dragged entity released over the target
	EventCancel                     // press or drag aborted; terminal, does not bubble

	numEventKinds
)

var eventKindNames = [numEventKinds]string{
	EventOver:      "Over",
	EventOut:       "Out",
	EventEntered:   "Entered",
	EventLeft:      "Left",
	EventMoved:     "Moved",
	EventPressed:   "Pressed",
	EventReleased:  "Released",
	EventClick:     "Click",
	EventDragStart: "DragStart",
	EventDrag:      "Drag",
	EventDragEnd:   "DragEnd",
	EventDragEnter: "DragEnter",
	EventDragOver:  "DragOver",
	EventDragLeave: "DragLeave",
	EventDrop:      "Drop",
	EventCancel:    "Cancel",
}

func (k EventKind) String() string {
	if k < numEventKinds {
		return eventKindNames[k]
	}
	return fmt.Sprintf("EventKind(%d)", uint8(k))
}

// Bubbles reports whether events of this kind propagate to ancestors.
func (k EventKind) Bubbles() bool {
	return k != EventCancel
}

// Event is an immutable record of one interaction. Fields that do not apply
// to Kind are zero.
type Event struct {
	Kind    EventKind
	Pointer PointerID
	Target  Entity
	Frame   uint64

	// Location is the pointer location when the event was generated. HasLocation
	// is false when the pointer had left every viewport.
	Location    Location
	HasLocation bool

	// Button is valid for Pressed, Released, Click, the Drag* family, Drop and
	// Cancel.
	Button PointerButton

	// Hit is the target's hit data this frame, when the target was hit.
	Hit *HitData

	// Delta is the movement since the previous frame (Moved, Drag, DragOver).
	Delta Vec2
	// Distance is the movement since the press (DragStart, Drag, DragEnd, Drop).
	Distance Vec2

	// Dragged is the entity being dragged (DragEnter, DragOver, DragLeave, Drop).
	Dragged Entity

	// Duration is the time between press and release (Released, Click).
	Duration time.Duration
}

func (e Event) String() string {
	return fmt.Sprintf("%s(%s,%d)", e.Kind, e.Pointer, uint64(e.Target))
}
