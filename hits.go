package picking

import (
	"cmp"
	"math"
	"slices"
)

// PointerHits is the ordered hit list of one pointer for one frame, nearest
// first. It is rebuilt every frame.
type PointerHits struct {
	Pointer PointerID
	Hits    []HitData
}

// Top returns the nearest hit, if any.
func (h PointerHits) Top() (HitData, bool) {
	if len(h.Hits) == 0 {
		return HitData{}, false
	}
	return h.Hits[0], true
}

// Index returns the position of e in the list, or -1.
func (h PointerHits) Index(e Entity) int {
	for i := range h.Hits {
		if h.Hits[i].Entity == e {
			return i
		}
	}
	return -1
}

// Contains reports whether e was hit.
func (h PointerHits) Contains(e Entity) bool {
	return h.Index(e) >= 0
}

// Entities returns the hit entities in order.
func (h PointerHits) Entities() []Entity {
	out := make([]Entity, len(h.Hits))
	for i := range h.Hits {
		out[i] = h.Hits[i].Entity
	}
	return out
}

// backendOrderBase places every backend named in Config.BackendOrder above any
// declared layer.
const backendOrderBase Layer = 1 << 20

// layerTable resolves a backend's effective layer.
type layerTable map[string]Layer

func newLayerTable(order []string) layerTable {
	t := make(layerTable, len(order))
	for i, name := range order {
		if _, dup := t[name]; dup {
			continue
		}
		t[name] = backendOrderBase - Layer(i)
	}
	return t
}

func (t layerTable) resolve(name string, declared Layer) Layer {
	if l, ok := t[name]; ok {
		return l
	}
	return declared
}

// aggregator collects submissions for one frame and merges them into one
// ordered PointerHits per pointer. Not safe for concurrent use; the hit-test
// phase hands it completed submissions after the barrier.
type aggregator struct {
	an        *anomalies
	layers    layerTable
	groups    map[PointerID][]HitData
	despawned map[Entity]struct{}
	seen      map[Entity]struct{}
}

func newAggregator(an *anomalies, layers layerTable) *aggregator {
	return &aggregator{
		an:        an,
		layers:    layers,
		groups:    make(map[PointerID][]HitData),
		despawned: make(map[Entity]struct{}),
		seen:      make(map[Entity]struct{}),
	}
}

// reset clears per-frame state.
func (a *aggregator) reset() {
	clear(a.groups)
	clear(a.despawned)
}

// markDespawned excludes e from this frame's hit lists.
func (a *aggregator) markDespawned(e Entity) {
	a.despawned[e] = struct{}{}
}

// add appends one submission. Within a submission an entity reported twice
// keeps its first report. Hits are copied; the caller's slice is not retained.
func (a *aggregator) add(sub Submission) {
	layer := a.layers.resolve(sub.Backend, sub.Layer)
	clear(a.seen)
	group := a.groups[sub.Pointer]
	for _, h := range sub.Hits {
		if h.Entity == NoEntity {
			a.an.report(anomalyNullEntity, sub.Pointer, NoEntity, sub.Backend)
			continue
		}
		if _, dup := a.seen[h.Entity]; dup {
			a.an.report(anomalyDuplicateHit, sub.Pointer, h.Entity, sub.Backend)
			continue
		}
		a.seen[h.Entity] = struct{}{}
		if _, gone := a.despawned[h.Entity]; gone {
			a.an.report(anomalyStaleEntity, sub.Pointer, h.Entity, sub.Backend)
			continue
		}
		if math.IsNaN(h.Depth) {
			a.an.report(anomalyBadDepth, sub.Pointer, h.Entity, sub.Backend)
			h.Depth = math.Inf(1)
		}
		h.Backend = sub.Backend
		h.Layer = layer
		group = append(group, h)
	}
	a.groups[sub.Pointer] = group
}

// build returns the ordered hits for p and forgets its group. Pointers that
// received no submissions get an empty list.
func (a *aggregator) build(p PointerID) PointerHits {
	group := a.groups[p]
	delete(a.groups, p)
	if len(group) == 0 {
		return PointerHits{Pointer: p}
	}

	// Stable: equal keys keep submission order.
	slices.SortStableFunc(group, compareHits)

	clear(a.seen)
	out := group[:0]
	for _, h := range group {
		if _, dup := a.seen[h.Entity]; dup {
			continue
		}
		a.seen[h.Entity] = struct{}{}
		out = append(out, h)
		if h.Blocking {
			break
		}
	}
	return PointerHits{Pointer: p, Hits: out}
}

// discardUnknown drops groups for pointers that are not live.
func (a *aggregator) discardUnknown(live func(PointerID) bool) {
	for p, group := range a.groups {
		if live(p) {
			continue
		}
		for _, h := range group {
			a.an.report(anomalyUnknownPointer, p, h.Entity, h.Backend)
		}
		delete(a.groups, p)
	}
}

// compareHits orders by layer descending, then depth ascending.
func compareHits(x, y HitData) int {
	if c := cmp.Compare(y.Layer, x.Layer); c != 0 {
		return c
	}
	return cmp.Compare(x.Depth, y.Depth)
}
