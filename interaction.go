package picking

import (
	"slices"
	"time"
)

// ButtonSet is a bitmask of pointer buttons.
type ButtonSet uint8

// Has reports whether b is in the set.
func (s ButtonSet) Has(b PointerButton) bool { return s&(1<<b) != 0 }

func (s *ButtonSet) set(b PointerButton)   { *s |= 1 << b }
func (s *ButtonSet) clear(b PointerButton) { *s &^= 1 << b }

// InteractionState is the persistent record for one (pointer, entity) pair.
// It exists while the entity is hovered, pressed, dragged or a drop target,
// and is destroyed as soon as none of those hold.
type InteractionState struct {
	Hovered    bool
	Pressed    ButtonSet
	Dragging   ButtonSet
	DropTarget ButtonSet
}

func (s *InteractionState) idle() bool {
	return !s.Hovered && s.Pressed == 0 && s.Dragging == 0 && s.DropTarget == 0
}

// press tracks one (pointer, entity, button) from Pressed to its terminal
// event: Idle -> Pressed -> (Dragging | released) -> Idle, or Cancel.
type press struct {
	origin   Entity
	button   PointerButton
	start    Vec2
	last     Vec2
	at       time.Time
	dragging bool
	targets  []Entity
}

func (p *press) distance() Vec2 { return p.last.Sub(p.start) }

// pointerArena owns all interaction state of one pointer. Only one goroutine
// touches an arena at a time.
type pointerArena struct {
	id      PointerID
	states  map[Entity]*InteractionState
	hovered []Entity
	presses [maxButtons]*press
	loc     Location
	hasLoc  bool
}

func newPointerArena(id PointerID) *pointerArena {
	return &pointerArena{id: id, states: make(map[Entity]*InteractionState)}
}

func (a *pointerArena) state(e Entity) *InteractionState {
	st, ok := a.states[e]
	if !ok {
		st = &InteractionState{}
		a.states[e] = st
	}
	return st
}

// captured reports whether e is the origin of an active drag on this pointer.
// Drag capture keeps e logically hovered while the pointer is elsewhere.
func (a *pointerArena) captured(e Entity) bool {
	for _, pr := range a.presses {
		if pr != nil && pr.dragging && pr.origin == e {
			return true
		}
	}
	return false
}

func (a *pointerArena) removeHovered(e Entity) {
	if i := slices.Index(a.hovered, e); i >= 0 {
		a.hovered = slices.Delete(a.hovered, i, i+1)
	}
}

// gc destroys every idle state.
func (a *pointerArena) gc() {
	for e, st := range a.states {
		if st.idle() {
			delete(a.states, e)
		}
	}
}

// emitter stamps pointer, frame and location onto generated events.
type emitter struct {
	out         []Event
	pointer     PointerID
	frame       uint64
	location    Location
	hasLocation bool
}

func (em *emitter) emit(ev Event) {
	ev.Pointer = em.pointer
	ev.Frame = em.frame
	ev.Location = em.location
	ev.HasLocation = em.hasLocation
	em.out = append(em.out, ev)
}

// machine runs the per-pointer interaction algorithm. It holds only
// read-only configuration, so one machine can step many arenas in parallel.
type machine struct {
	dragThresholdSq float64
	clickPolicy     ClickPolicy
	an              *anomalies
	now             func() time.Time
}

func newMachine(cfg Config, an *anomalies, now func() time.Time) *machine {
	return &machine{
		dragThresholdSq: cfg.DragThreshold * cfg.DragThreshold,
		clickPolicy:     cfg.ClickPolicy,
		an:              an,
		now:             now,
	}
}

// step diffs this frame's hits and button edges against the arena and
// appends the resulting events to out.
func (m *machine) step(a *pointerArena, frame uint64, hits PointerHits, loc Location, hasLoc bool, edges []buttonEdge, out []Event) []Event {
	em := emitter{out: out, pointer: a.id, frame: frame, location: loc, hasLocation: hasLoc}

	moved := hasLoc && (!a.hasLoc || loc != a.loc)
	var delta Vec2
	if hasLoc && a.hasLoc {
		delta = loc.Position.Sub(a.loc.Position)
	}

	// Copy each hit once; events share the copy.
	refs := make([]*HitData, len(hits.Hits))
	for i := range hits.Hits {
		h := hits.Hits[i]
		refs[i] = &h
	}
	hitOf := func(e Entity) *HitData {
		if i := hits.Index(e); i >= 0 {
			return refs[i]
		}
		return nil
	}

	// Promote presses that crossed the threshold before diffing hover, so the
	// drag capture applies to this frame's hover loss.
	var started [maxButtons]bool
	for b, pr := range a.presses {
		if pr == nil || !hasLoc {
			continue
		}
		pr.last = loc.Position
		if !pr.dragging && pr.distance().LengthSq() > m.dragThresholdSq {
			pr.dragging = true
			started[b] = true
			a.state(pr.origin).Dragging.set(PointerButton(b))
		}
	}

	// Hover: lost entities first, then gained, then movement over kept ones.
	var pinned []Entity
	for _, e := range a.hovered {
		if hits.Contains(e) {
			continue
		}
		if a.captured(e) {
			pinned = append(pinned, e)
			continue
		}
		em.emit(Event{Kind: EventOut, Target: e})
		em.emit(Event{Kind: EventLeft, Target: e})
		a.state(e).Hovered = false
	}
	var kept []int
	for i := range hits.Hits {
		e := hits.Hits[i].Entity
		st := a.state(e)
		if st.Hovered {
			kept = append(kept, i)
			continue
		}
		st.Hovered = true
		em.emit(Event{Kind: EventEntered, Target: e, Hit: refs[i]})
		em.emit(Event{Kind: EventOver, Target: e, Hit: refs[i]})
	}
	if moved {
		for _, i := range kept {
			em.emit(Event{Kind: EventMoved, Target: hits.Hits[i].Entity, Hit: refs[i], Delta: delta})
		}
	}
	next := make([]Entity, 0, len(hits.Hits)+len(pinned))
	for i := range hits.Hits {
		next = append(next, hits.Hits[i].Entity)
	}
	a.hovered = append(next, pinned...)

	// Drag movement and drop targets.
	for b, pr := range a.presses {
		if pr == nil || !pr.dragging {
			continue
		}
		button := PointerButton(b)
		if started[b] {
			em.emit(Event{Kind: EventDragStart, Target: pr.origin, Button: button, Hit: hitOf(pr.origin), Distance: pr.distance()})
		}
		if moved {
			em.emit(Event{Kind: EventDrag, Target: pr.origin, Button: button, Hit: hitOf(pr.origin), Delta: delta, Distance: pr.distance()})
		}

		targets := make([]Entity, 0, len(hits.Hits))
		for i := range hits.Hits {
			if e := hits.Hits[i].Entity; !a.captured(e) {
				targets = append(targets, e)
			}
		}
		for _, t := range pr.targets {
			if slices.Contains(targets, t) {
				continue
			}
			em.emit(Event{Kind: EventDragLeave, Target: t, Button: button, Dragged: pr.origin})
			a.state(t).DropTarget.clear(button)
		}
		for _, t := range targets {
			if slices.Contains(pr.targets, t) {
				if moved {
					em.emit(Event{Kind: EventDragOver, Target: t, Button: button, Dragged: pr.origin, Hit: hitOf(t), Delta: delta})
				}
				continue
			}
			em.emit(Event{Kind: EventDragEnter, Target: t, Button: button, Dragged: pr.origin, Hit: hitOf(t)})
			a.state(t).DropTarget.set(button)
		}
		pr.targets = targets
	}

	// Button edges, in the order they were observed.
	for _, ed := range edges {
		if ed.pressed {
			m.pressed(a, &em, hits, refs, loc, ed.button)
		} else {
			m.released(a, &em, hitOf, ed.button)
		}
	}

	a.loc, a.hasLoc = loc, hasLoc
	a.gc()
	return em.out
}

func (m *machine) pressed(a *pointerArena, em *emitter, hits PointerHits, refs []*HitData, loc Location, b PointerButton) {
	if a.presses[b] != nil {
		m.an.report(anomalyIgnoredPress, a.id, a.presses[b].origin, "button already pressed")
		return
	}
	top, ok := hits.Top()
	if !ok {
		return
	}
	a.presses[b] = &press{
		origin: top.Entity,
		button: b,
		start:  loc.Position,
		last:   loc.Position,
		at:     m.now(),
	}
	a.state(top.Entity).Pressed.set(b)
	em.emit(Event{Kind: EventPressed, Target: top.Entity, Button: b, Hit: refs[0]})
}

func (m *machine) released(a *pointerArena, em *emitter, hitOf func(Entity) *HitData, b PointerButton) {
	pr := a.presses[b]
	if pr == nil {
		// Pressed on nothing, or cancelled.
		return
	}
	a.presses[b] = nil
	st := a.state(pr.origin)
	st.Pressed.clear(b)
	dur := m.now().Sub(pr.at)
	origin := hitOf(pr.origin)

	em.emit(Event{Kind: EventReleased, Target: pr.origin, Button: b, Hit: origin, Duration: dur, Distance: pr.distance()})
	if !pr.dragging {
		if origin != nil || m.clickPolicy == ClickReleaseAnywhere {
			em.emit(Event{Kind: EventClick, Target: pr.origin, Button: b, Hit: origin, Duration: dur})
		}
		return
	}

	for _, t := range pr.targets {
		em.emit(Event{Kind: EventDrop, Target: t, Button: b, Dragged: pr.origin, Hit: hitOf(t), Distance: pr.distance()})
	}
	em.emit(Event{Kind: EventDragEnd, Target: pr.origin, Button: b, Hit: origin, Distance: pr.distance()})
	for _, t := range pr.targets {
		em.emit(Event{Kind: EventDragLeave, Target: t, Button: b, Dragged: pr.origin})
		a.state(t).DropTarget.clear(b)
	}
	st.Dragging.clear(b)

	// Drag capture over: the origin is hovered only if it is really hit.
	if st.Hovered && origin == nil && !a.captured(pr.origin) {
		em.emit(Event{Kind: EventOut, Target: pr.origin})
		em.emit(Event{Kind: EventLeft, Target: pr.origin})
		st.Hovered = false
		a.removeHovered(pr.origin)
	}
}

// cancelPress terminates the press on button b with Cancel instead of its
// natural terminal event.
func (m *machine) cancelPress(a *pointerArena, em *emitter, b PointerButton) {
	pr := a.presses[b]
	if pr == nil {
		return
	}
	a.presses[b] = nil
	if pr.dragging {
		for _, t := range pr.targets {
			em.emit(Event{Kind: EventDragLeave, Target: t, Button: b, Dragged: pr.origin})
			if st, ok := a.states[t]; ok {
				st.DropTarget.clear(b)
			}
		}
	}
	em.emit(Event{Kind: EventCancel, Target: pr.origin, Button: b, Distance: pr.distance()})
	if st, ok := a.states[pr.origin]; ok {
		st.Pressed.clear(b)
		st.Dragging.clear(b)
	}
}

// cancel aborts every active press and drag of the pointer. Hover state is
// kept; a drag-captured origin that is no longer hit is released by the next
// hover diff.
func (m *machine) cancel(a *pointerArena, frame uint64, out []Event) []Event {
	em := emitter{out: out, pointer: a.id, frame: frame, location: a.loc, hasLocation: a.hasLoc}
	for b := range a.presses {
		m.cancelPress(a, &em, PointerButton(b))
	}
	a.gc()
	return em.out
}

// retire cancels everything the pointer holds and ends every hover, leaving
// the arena empty. Used when the pointer is unregistered.
func (m *machine) retire(a *pointerArena, frame uint64, out []Event) []Event {
	em := emitter{out: out, pointer: a.id, frame: frame, location: a.loc, hasLocation: a.hasLoc}
	for b := range a.presses {
		m.cancelPress(a, &em, PointerButton(b))
	}
	for _, e := range a.hovered {
		em.emit(Event{Kind: EventOut, Target: e})
		em.emit(Event{Kind: EventLeft, Target: e})
	}
	a.hovered = nil
	clear(a.states)
	return em.out
}

// despawn removes e from the arena, synthesizing the terminal events it would
// otherwise never receive.
func (m *machine) despawn(a *pointerArena, e Entity, frame uint64, out []Event) []Event {
	if _, ok := a.states[e]; !ok {
		return out
	}
	em := emitter{out: out, pointer: a.id, frame: frame, location: a.loc, hasLocation: a.hasLoc}
	for b, pr := range a.presses {
		if pr == nil {
			continue
		}
		button := PointerButton(b)
		if pr.origin == e {
			m.cancelPress(a, &em, button)
			continue
		}
		if i := slices.Index(pr.targets, e); i >= 0 {
			pr.targets = slices.Delete(pr.targets, i, i+1)
			em.emit(Event{Kind: EventDragLeave, Target: e, Button: button, Dragged: pr.origin})
		}
	}
	if st := a.states[e]; st.Hovered {
		em.emit(Event{Kind: EventOut, Target: e})
		em.emit(Event{Kind: EventLeft, Target: e})
		a.removeHovered(e)
	}
	delete(a.states, e)
	a.gc()
	return em.out
}
