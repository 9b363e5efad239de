package picking

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// InputKind identifies one raw pointer input.
type InputKind uint8

const (
	InputAdded    InputKind = iota // a new pointer appeared at Location
	InputMoved                     // the pointer moved to Location
	InputLeft                      // the pointer left every viewport
	InputPressed                   // Button went down
	InputReleased                  // Button went up
	InputRemoved                   // the pointer is gone for good
)

func (k InputKind) String() string {
	switch k {
	case InputAdded:
		return "added"
	case InputMoved:
		return "moved"
	case InputLeft:
		return "left"
	case InputPressed:
		return "pressed"
	case InputReleased:
		return "released"
	case InputRemoved:
		return "removed"
	default:
		return fmt.Sprintf("InputKind(%d)", uint8(k))
	}
}

// PointerInput is one raw input from the windowing layer. A frame's inputs
// are delivered to Update as one batch, in the order they happened.
type PointerInput struct {
	Kind     InputKind
	Pointer  PointerID
	Location Location
	Button   PointerButton
}

// Liveness reports whether an entity still exists in the external scene.
// When set, the Picker checks every entity holding interaction state once
// per frame and retires the ones that are gone.
type Liveness interface {
	Alive(e Entity) bool
}

// LivenessFunc adapts a function to the Liveness interface.
type LivenessFunc func(e Entity) bool

func (f LivenessFunc) Alive(e Entity) bool { return f(e) }

// Picker runs the picking pipeline once per frame:
//
//	input -> cancellation/despawn -> hit test (backends, in parallel)
//	      -> aggregate -> interaction state machines -> dispatch
//
// Each arrow is a hard barrier. Update must be called from one goroutine;
// Submit, Despawn and CancelPointer may be called from any goroutine and take
// effect on the next Update.
type Picker struct {
	cfg        Config
	an         *anomalies
	logger     zerolog.Logger
	registry   *PointerRegistry
	backends   []Backend
	agg        *aggregator
	machine    *machine
	dispatcher *Dispatcher
	events     *EventLog
	store      *storeSlot
	liveness   Liveness
	arenas     map[PointerID]*pointerArena
	hits       map[PointerID]PointerHits
	frame      uint64
	debug      bool
	stats      FrameStats

	mu             sync.Mutex
	pendingHits    []Submission
	pendingDespawn []Entity
	pendingCancel  []PointerID
	live           map[PointerID]struct{} // registry ids as of the last input phase
}

// NewPicker creates a picker. An invalid config panics; use Config.Validate
// first for configuration read from outside the program.
func NewPicker(cfg Config) *Picker {
	if err := cfg.Validate(); err != nil {
		panic("picking: " + err.Error())
	}
	logger := zerolog.Nop()
	an := newAnomalies(logger)
	p := &Picker{
		cfg:        cfg,
		an:         an,
		logger:     logger,
		registry:   newPointerRegistry(an),
		agg:        newAggregator(an, newLayerTable(cfg.BackendOrder)),
		machine:    newMachine(cfg, an, time.Now),
		dispatcher: newDispatcher(cfg.MaxBubbleDepth, an),
		events:     NewEventLog(),
		arenas:     make(map[PointerID]*pointerArena),
		hits:       make(map[PointerID]PointerHits),
		store:      &storeSlot{},
		live:       make(map[PointerID]struct{}),
	}
	p.dispatcher.AddEntityStore(p.events)
	p.dispatcher.AddEntityStore(p.store)
	return p
}

// storeSlot forwards to the store set with SetEntityStore.
type storeSlot struct {
	s EntityStore
}

func (s *storeSlot) EmitEvent(ev Event) {
	if s.s != nil {
		s.s.EmitEvent(ev)
	}
}

// Config returns the picker's configuration.
func (p *Picker) Config() Config {
	return p.cfg
}

// Registry returns the pointer registry.
func (p *Picker) Registry() *PointerRegistry {
	return p.registry
}

// Dispatcher returns the event dispatcher, for registering listeners.
func (p *Picker) Dispatcher() *Dispatcher {
	return p.dispatcher
}

// Events returns the picker's event log.
func (p *Picker) Events() *EventLog {
	return p.events
}

// AddBackend appends a hit-test backend. Backends are invoked in the order
// they were added; their relative priority comes from their layer.
func (p *Picker) AddBackend(b Backend) {
	p.backends = append(p.backends, b)
}

// SetHierarchy sets the parent-of relation used for bubbling.
func (p *Picker) SetHierarchy(h Hierarchy) {
	p.dispatcher.SetHierarchy(h)
}

// SetLiveness sets the optional entity liveness check.
func (p *Picker) SetLiveness(l Liveness) {
	p.liveness = l
}

// SetEntityStore sets the optional ECS bridge. It receives every event after
// global observers and before entity listeners. Use
// Dispatcher().AddEntityStore to attach more than one.
func (p *Picker) SetEntityStore(s EntityStore) {
	p.store.s = s
}

// SetLogger sets the diagnostics logger. The default discards everything.
func (p *Picker) SetLogger(logger zerolog.Logger) {
	p.logger = logger
	p.an.setLogger(logger)
}

// SetDebugMode enables per-frame phase timing logs at debug level.
func (p *Picker) SetDebugMode(enabled bool) {
	p.debug = enabled
}

// SetClock replaces the clock used for click durations.
func (p *Picker) SetClock(now func() time.Time) {
	p.machine.now = now
}

// Frame returns the number of the last completed frame.
func (p *Picker) Frame() uint64 {
	return p.frame
}

// Submit queues hits computed outside the hit-test phase. They join the next
// frame's aggregation. Hits for a pointer that is not live then are dropped.
func (p *Picker) Submit(sub Submission) {
	sub.Hits = slices.Clone(sub.Hits)
	p.mu.Lock()
	p.pendingHits = append(p.pendingHits, sub)
	p.mu.Unlock()
}

// Despawn reports that e left the scene. Its interaction state is retired
// with the matching terminal events at the start of the next frame, and its
// listeners are dropped.
func (p *Picker) Despawn(e Entity) {
	if e == NoEntity {
		return
	}
	p.mu.Lock()
	p.pendingDespawn = append(p.pendingDespawn, e)
	p.mu.Unlock()
}

// CancelPointer aborts every press and drag of id with Cancel events at the
// start of the next frame. The pointer stays registered. Liveness is judged
// against the pointers registered by the last Update; a pointer removed by
// the next Update is reported as an anomaly instead.
func (p *Picker) CancelPointer(id PointerID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.live[id]; !ok {
		return fmt.Errorf("cancel %s: %w", id, ErrUnknownPointer)
	}
	p.pendingCancel = append(p.pendingCancel, id)
	return nil
}

// Interaction returns a copy of the interaction state of (pointer, entity).
func (p *Picker) Interaction(pointer PointerID, e Entity) (InteractionState, bool) {
	a, ok := p.arenas[pointer]
	if !ok {
		return InteractionState{}, false
	}
	st, ok := a.states[e]
	if !ok {
		return InteractionState{}, false
	}
	return *st, true
}

// Hovered returns the entities pointer logically hovers, in hit order,
// followed by drag-captured entities.
func (p *Picker) Hovered(pointer PointerID) []Entity {
	if a, ok := p.arenas[pointer]; ok {
		return slices.Clone(a.hovered)
	}
	return nil
}

// Hits returns the aggregated hits of pointer from the last frame.
func (p *Picker) Hits(pointer PointerID) PointerHits {
	h := p.hits[pointer]
	h.Hits = slices.Clone(h.Hits)
	return h
}

// Update runs one frame with the given input batch. ctx bounds the hit-test
// phase; a cancelled context means no hits this frame, not a failure.
func (p *Picker) Update(ctx context.Context, batch []PointerInput) {
	p.frame++
	frame := p.frame
	stats := FrameStats{Frame: frame}
	anomaliesBefore := p.an.total()
	t0 := time.Now()

	p.events.Update()
	p.agg.reset()

	// Input. Removed pointers are retired immediately so an id may be
	// re-added in the same batch.
	var out []Event
	out = p.retireUnregistered(frame, out)
	for _, in := range batch {
		p.applyInput(in)
		out = p.retireUnregistered(frame, out)
	}

	// Cancellation and despawn, before any backend sees the scene.
	p.mu.Lock()
	clear(p.live)
	for id := range p.registry.IDs() {
		p.live[id] = struct{}{}
	}
	cancels := p.pendingCancel
	despawns := p.pendingDespawn
	pushed := p.pendingHits
	p.pendingCancel, p.pendingDespawn, p.pendingHits = nil, nil, nil
	p.mu.Unlock()

	for _, id := range cancels {
		if !p.registry.Has(id) {
			p.an.report(anomalyUnknownPointer, id, NoEntity, "cancel")
			continue
		}
		if a, ok := p.arenas[id]; ok {
			out = p.machine.cancel(a, frame, out)
		}
	}
	despawns = p.appendDead(despawns)
	for _, e := range despawns {
		p.agg.markDespawned(e)
		for id := range p.registry.IDs() {
			if a, ok := p.arenas[id]; ok {
				out = p.machine.despawn(a, e, frame, out)
			}
		}
	}
	stats.InputTime = time.Since(t0)

	// Hit test. Wait inside hitTest is the barrier.
	t0 = time.Now()
	subs := p.hitTest(ctx, frame)
	stats.HitTestTime = time.Since(t0)

	// Aggregate.
	t0 = time.Now()
	for _, sub := range subs {
		p.agg.add(sub)
	}
	for _, sub := range pushed {
		p.agg.add(sub)
	}
	p.agg.discardUnknown(p.registry.Has)
	clear(p.hits)
	ids := slices.Collect(p.registry.IDs())
	for _, id := range ids {
		h := p.agg.build(id)
		p.hits[id] = h
		stats.Hits += len(h.Hits)
	}
	stats.AggregateTime = time.Since(t0)

	// Interaction.
	t0 = time.Now()
	streams := p.interact(frame, ids)
	for _, s := range streams {
		out = append(out, s...)
	}
	stats.InteractTime = time.Since(t0)

	// Dispatch.
	t0 = time.Now()
	p.dispatcher.DispatchAll(out)
	for _, e := range despawns {
		p.dispatcher.Forget(e)
	}
	stats.DispatchTime = time.Since(t0)

	p.registry.endFrame()

	stats.Pointers = len(ids)
	stats.Events = len(out)
	stats.Anomalies = int(p.an.total() - anomaliesBefore)
	p.stats = stats
	if p.debug {
		p.debugLog(stats)
	}
}

func (p *Picker) applyInput(in PointerInput) {
	switch in.Kind {
	case InputAdded:
		if err := p.registry.Register(in.Pointer); err != nil {
			p.an.report(anomalyDuplicatePointer, in.Pointer, NoEntity, err.Error())
		}
		p.registry.UpdateLocation(in.Pointer, in.Location)
	case InputMoved:
		p.registry.UpdateLocation(in.Pointer, in.Location)
	case InputLeft:
		p.registry.ClearLocation(in.Pointer)
	case InputPressed:
		p.registry.Press(in.Pointer, in.Button)
	case InputReleased:
		p.registry.Release(in.Pointer, in.Button)
	case InputRemoved:
		p.registry.Unregister(in.Pointer)
	default:
		p.an.report(anomalyBadInput, in.Pointer, NoEntity, in.Kind.String())
	}
}

// retireUnregistered emits the terminal events of every pointer unregistered
// since the last call and drops its arena.
func (p *Picker) retireUnregistered(frame uint64, out []Event) []Event {
	for _, id := range p.registry.takeRetired() {
		a, ok := p.arenas[id]
		if !ok {
			continue
		}
		out = p.machine.retire(a, frame, out)
		delete(p.arenas, id)
		delete(p.hits, id)
	}
	return out
}

// appendDead adds entities that fail the liveness check.
func (p *Picker) appendDead(despawns []Entity) []Entity {
	if p.liveness == nil {
		return despawns
	}
	for id := range p.registry.IDs() {
		a, ok := p.arenas[id]
		if !ok {
			continue
		}
		for e := range a.states {
			if p.liveness.Alive(e) || slices.Contains(despawns, e) {
				continue
			}
			p.an.report(anomalyStaleEntity, id, e, "entity no longer alive")
			despawns = append(despawns, e)
		}
	}
	return despawns
}

// hitTest runs every backend against every located pointer. Backends run in
// parallel; each tests all pointers in registration order.
func (p *Picker) hitTest(ctx context.Context, frame uint64) []Submission {
	if len(p.backends) == 0 {
		return nil
	}
	var queries []Query
	for id, loc := range p.registry.All() {
		queries = append(queries, Query{Frame: frame, Pointer: id, Location: loc})
	}
	if len(queries) == 0 {
		return nil
	}
	if p.cfg.BackendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.BackendTimeout)
		defer cancel()
	}

	results := make([][]Submission, len(p.backends))
	var g errgroup.Group
	for i, b := range p.backends {
		g.Go(func() error {
			results[i] = p.runBackend(ctx, b, queries)
			return nil
		})
	}
	_ = g.Wait()

	var subs []Submission
	for _, r := range results {
		subs = append(subs, r...)
	}
	return subs
}

func (p *Picker) runBackend(ctx context.Context, b Backend, queries []Query) []Submission {
	name, layer := b.Name(), b.Layer()
	subs := make([]Submission, 0, len(queries))
	for _, q := range queries {
		if ctx.Err() != nil {
			p.an.report(anomalyBackendLate, q.Pointer, NoEntity, name)
			continue
		}
		hits, err := b.HitTest(ctx, q)
		if err != nil {
			p.an.report(anomalyBackendError, q.Pointer, NoEntity, name+": "+err.Error())
			continue
		}
		if ctx.Err() != nil {
			p.an.report(anomalyBackendLate, q.Pointer, NoEntity, name)
			continue
		}
		if len(hits) > 0 {
			subs = append(subs, Submission{Backend: name, Layer: layer, Pointer: q.Pointer, Hits: hits})
		}
	}
	return subs
}

// interact steps every pointer's state machine and returns one event stream
// per pointer, in ids order.
func (p *Picker) interact(frame uint64, ids []PointerID) [][]Event {
	arenas := make([]*pointerArena, len(ids))
	for i, id := range ids {
		a, ok := p.arenas[id]
		if !ok {
			a = newPointerArena(id)
			p.arenas[id] = a
		}
		arenas[i] = a
	}

	streams := make([][]Event, len(ids))
	step := func(i int) {
		id := ids[i]
		loc, hasLoc := p.registry.Location(id)
		streams[i] = p.machine.step(arenas[i], frame, p.hits[id], loc, hasLoc, p.registry.edgesOf(id), nil)
	}

	if !p.cfg.ParallelPointers || len(ids) < 2 {
		for i := range ids {
			step(i)
		}
		return streams
	}
	var g errgroup.Group
	for i := range ids {
		g.Go(func() error {
			step(i)
			return nil
		})
	}
	_ = g.Wait()
	return streams
}
