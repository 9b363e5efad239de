package picking

import (
	"context"
	"slices"
	"sync"
	"testing"
)

// recorder is an EntityStore that keeps every event it receives.
type recorder struct {
	events []Event
}

func (r *recorder) EmitEvent(ev Event) { r.events = append(r.events, ev) }

func (r *recorder) reset() { r.events = nil }

// kinds returns the kinds of the recorded events, optionally filtered to
// the given set.
func (r *recorder) kinds(only ...EventKind) []EventKind {
	var out []EventKind
	for _, ev := range r.events {
		if len(only) == 0 || slices.Contains(only, ev.Kind) {
			out = append(out, ev.Kind)
		}
	}
	return out
}

// of returns the recorded events targeting e.
func (r *recorder) of(e Entity) []Event {
	var out []Event
	for _, ev := range r.events {
		if ev.Target == e {
			out = append(out, ev)
		}
	}
	return out
}

func (r *recorder) count(kind EventKind) int {
	n := 0
	for _, ev := range r.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

// staticBackend reports a fixed hit list per pointer, changeable between
// frames.
type staticBackend struct {
	name  string
	layer Layer
	mu    sync.Mutex
	hits  map[PointerID][]HitData
	calls int
}

func newStaticBackend(name string, layer Layer) *staticBackend {
	return &staticBackend{name: name, layer: layer, hits: make(map[PointerID][]HitData)}
}

func (b *staticBackend) Name() string { return b.name }
func (b *staticBackend) Layer() Layer { return b.layer }

func (b *staticBackend) HitTest(_ context.Context, q Query) ([]HitData, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	return slices.Clone(b.hits[q.Pointer]), nil
}

// set makes the backend report entities with depths 0, 1, 2, ... for p.
func (b *staticBackend) set(p PointerID, entities ...Entity) {
	b.mu.Lock()
	defer b.mu.Unlock()
	hits := make([]HitData, len(entities))
	for i, e := range entities {
		hits[i] = HitData{Entity: e, Depth: float64(i)}
	}
	b.hits[p] = hits
}

func (b *staticBackend) setHits(p PointerID, hits ...HitData) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hits[p] = hits
}

// fixture is a picker wired to one static backend and a recorder.
type fixture struct {
	t       *testing.T
	p       *Picker
	backend *staticBackend
	rec     *recorder
	ctx     context.Context
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	f := &fixture{
		t:       t,
		p:       NewPicker(cfg),
		backend: newStaticBackend("static", LayerWorld),
		rec:     &recorder{},
		ctx:     context.Background(),
	}
	f.p.AddBackend(f.backend)
	f.p.SetEntityStore(f.rec)
	return f
}

func (f *fixture) frame(inputs ...PointerInput) {
	f.p.Update(f.ctx, inputs)
}

func at(x, y float64) Location {
	return Location{Position: Vec2{x, y}}
}

func added(p PointerID, x, y float64) PointerInput {
	return PointerInput{Kind: InputAdded, Pointer: p, Location: at(x, y)}
}

func moved(p PointerID, x, y float64) PointerInput {
	return PointerInput{Kind: InputMoved, Pointer: p, Location: at(x, y)}
}

func pressed(p PointerID, b PointerButton) PointerInput {
	return PointerInput{Kind: InputPressed, Pointer: p, Button: b}
}

func released(p PointerID, b PointerButton) PointerInput {
	return PointerInput{Kind: InputReleased, Pointer: p, Button: b}
}

func removed(p PointerID) PointerInput {
	return PointerInput{Kind: InputRemoved, Pointer: p}
}

func assertKinds(t *testing.T, got []EventKind, want ...EventKind) {
	t.Helper()
	if !slices.Equal(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
}
