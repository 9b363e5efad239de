package picking

import "slices"

// Hierarchy is the parent-of relation of the external scene. Parent returns
// false for roots and for entities it does not know.
type Hierarchy interface {
	Parent(e Entity) (Entity, bool)
}

// HierarchyFunc adapts a function to the Hierarchy interface.
type HierarchyFunc func(e Entity) (Entity, bool)

func (f HierarchyFunc) Parent(e Entity) (Entity, bool) { return f(e) }

// Hierarchies combines the hierarchies of several backends. Parent asks each
// in turn and returns the first answer.
type Hierarchies []Hierarchy

func (hs Hierarchies) Parent(e Entity) (Entity, bool) {
	for _, h := range hs {
		if p, ok := h.Parent(e); ok {
			return p, true
		}
	}
	return NoEntity, false
}

// EntityStore receives every dispatched event once, before bubbling. It is
// the bridge to ECS worlds and event logs.
type EntityStore interface {
	EmitEvent(event Event)
}

// Context is passed to entity listeners while an event bubbles.
type Context struct {
	Event Event
	// Current is the entity whose listeners are running; Event.Target is the
	// entity the event was generated for.
	Current  Entity
	consumed bool
}

// Consume stops the event from reaching further ancestors. Listeners on the
// current entity still run.
func (c *Context) Consume() {
	c.consumed = true
}

// Consumed reports whether a listener consumed the event.
func (c *Context) Consumed() bool {
	return c.consumed
}

type entityListener struct {
	id   uint32
	kind EventKind
	any  bool
	fn   func(*Context)
}

type observer struct {
	id   uint32
	kind EventKind
	any  bool
	fn   func(Event)
}

// ListenerHandle allows removing a registered listener or observer.
type ListenerHandle struct {
	id       uint32
	entity   Entity
	observer bool
	d        *Dispatcher
}

// Remove unregisters the listener so it no longer fires. Removing twice is a
// no-op.
func (h ListenerHandle) Remove() {
	if h.d == nil {
		return
	}
	if h.observer {
		h.d.observers = slices.DeleteFunc(h.d.observers, func(o observer) bool { return o.id == h.id })
		return
	}
	ls := slices.DeleteFunc(h.d.listeners[h.entity], func(l entityListener) bool { return l.id == h.id })
	if len(ls) == 0 {
		delete(h.d.listeners, h.entity)
		return
	}
	h.d.listeners[h.entity] = ls
}

// Dispatcher delivers events to observers, entity stores and entity
// listeners, bubbling through the Hierarchy. It runs on one goroutine.
type Dispatcher struct {
	listeners map[Entity][]entityListener
	observers []observer
	stores    []EntityStore
	hierarchy Hierarchy
	maxDepth  int
	nextID    uint32
	an        *anomalies
}

func newDispatcher(maxDepth int, an *anomalies) *Dispatcher {
	return &Dispatcher{
		listeners: make(map[Entity][]entityListener),
		maxDepth:  maxDepth,
		an:        an,
	}
}

// On registers fn for events of kind delivered to e, either as the target or
// while bubbling from a descendant.
func (d *Dispatcher) On(e Entity, kind EventKind, fn func(*Context)) ListenerHandle {
	return d.addListener(e, entityListener{kind: kind, fn: fn})
}

// OnAny registers fn for every event delivered to e.
func (d *Dispatcher) OnAny(e Entity, fn func(*Context)) ListenerHandle {
	return d.addListener(e, entityListener{any: true, fn: fn})
}

func (d *Dispatcher) addListener(e Entity, l entityListener) ListenerHandle {
	d.nextID++
	l.id = d.nextID
	d.listeners[e] = append(d.listeners[e], l)
	return ListenerHandle{id: l.id, entity: e, d: d}
}

// Observe registers a global observer for events of kind. Observers see each
// event once, before entity listeners, and cannot consume it.
func (d *Dispatcher) Observe(kind EventKind, fn func(Event)) ListenerHandle {
	return d.addObserver(observer{kind: kind, fn: fn})
}

// ObserveAll registers a global observer for every event.
func (d *Dispatcher) ObserveAll(fn func(Event)) ListenerHandle {
	return d.addObserver(observer{any: true, fn: fn})
}

func (d *Dispatcher) addObserver(o observer) ListenerHandle {
	d.nextID++
	o.id = d.nextID
	d.observers = append(d.observers, o)
	return ListenerHandle{id: o.id, observer: true, d: d}
}

// AddEntityStore attaches a store that receives every event.
func (d *Dispatcher) AddEntityStore(s EntityStore) {
	if s != nil {
		d.stores = append(d.stores, s)
	}
}

// SetHierarchy sets the parent-of relation used for bubbling. A nil
// hierarchy delivers events to their target only.
func (d *Dispatcher) SetHierarchy(h Hierarchy) {
	d.hierarchy = h
}

// Forget drops every listener attached to e.
func (d *Dispatcher) Forget(e Entity) {
	delete(d.listeners, e)
}

// HasListeners reports whether any listener is attached to e.
func (d *Dispatcher) HasListeners(e Entity) bool {
	return len(d.listeners[e]) > 0
}

// DispatchAll delivers events in slice order.
func (d *Dispatcher) DispatchAll(events []Event) {
	for i := range events {
		d.Dispatch(events[i])
	}
}

// Dispatch delivers one event: observers first, then entity stores, then the
// target's listeners and its ancestors' until consumed or the root.
func (d *Dispatcher) Dispatch(ev Event) {
	if len(d.observers) > 0 {
		for _, o := range slices.Clone(d.observers) {
			if o.any || o.kind == ev.Kind {
				o.fn(ev)
			}
		}
	}
	for _, s := range d.stores {
		s.EmitEvent(ev)
	}
	if ev.Target == NoEntity {
		return
	}

	ctx := &Context{Event: ev, Current: ev.Target}
	var buf [16]Entity
	visited := buf[:0]
	for {
		visited = append(visited, ctx.Current)
		d.invoke(ctx)
		if ctx.consumed || !ev.Kind.Bubbles() || d.hierarchy == nil {
			return
		}
		parent, ok := d.hierarchy.Parent(ctx.Current)
		if !ok || parent == NoEntity {
			return
		}
		if slices.Contains(visited, parent) {
			d.an.report(anomalyBubbleCycle, ev.Pointer, parent, ev.Kind.String())
			return
		}
		if len(visited) >= d.maxDepth {
			d.an.report(anomalyBubbleDepth, ev.Pointer, ev.Target, ev.Kind.String())
			return
		}
		ctx.Current = parent
	}
}

func (d *Dispatcher) invoke(ctx *Context) {
	ls := d.listeners[ctx.Current]
	if len(ls) == 0 {
		return
	}
	for _, l := range slices.Clone(ls) {
		if l.any || l.kind == ctx.Event.Kind {
			l.fn(ctx)
		}
	}
}
