package picking

import (
	"cmp"
	"context"
	"slices"
)

// Widget is a screen-space rectangle tested by a UIBackend.
type Widget struct {
	Entity   Entity
	Name     string
	Viewport ViewportID
	Bounds   Rect
	// ZIndex orders overlapping widgets; higher is on top. Equal ZIndex
	// falls back to insertion order, later on top.
	ZIndex  int
	Visible bool
	// Blocking hides every lower hit, including world hits, when the widget
	// is under the pointer. New widgets block.
	Blocking bool
	// Parent links widgets for bubbling; nil for top-level widgets.
	Parent *Widget

	seq uint64
}

// UIHit is the Extra payload of hits reported by a UIBackend.
type UIHit struct {
	Widget *Widget
	Local  Vec2 // pointer position relative to Bounds' top-left
}

// UIBackend hit-tests screen-space widgets on LayerUI. Positions are used
// as-is; no camera is applied.
type UIBackend struct {
	name      string
	widgets   []*Widget
	byEntity  map[Entity]*Widget
	nextSeq   uint64
	sorted    bool
	onDespawn []func(Entity)
}

// NewUIBackend creates an empty UI backend.
func NewUIBackend(name string) *UIBackend {
	return &UIBackend{name: name, byEntity: make(map[Entity]*Widget), sorted: true}
}

// Name implements Backend.
func (u *UIBackend) Name() string { return u.name }

// Layer implements Backend.
func (u *UIBackend) Layer() Layer { return LayerUI }

// NewWidget creates a visible, blocking widget and adds it.
func (u *UIBackend) NewWidget(name string, viewport ViewportID, bounds Rect) *Widget {
	w := &Widget{
		Entity:   NewEntity(),
		Name:     name,
		Viewport: viewport,
		Bounds:   bounds,
		Visible:  true,
		Blocking: true,
	}
	u.Add(w)
	return w
}

// Add inserts w above every widget of the same ZIndex.
func (u *UIBackend) Add(w *Widget) {
	u.nextSeq++
	w.seq = u.nextSeq
	u.widgets = append(u.widgets, w)
	u.byEntity[w.Entity] = w
	u.sorted = false
}

// Remove drops w and reports its entity to the despawn callbacks. Children
// of w become top-level.
func (u *UIBackend) Remove(w *Widget) {
	i := slices.Index(u.widgets, w)
	if i < 0 {
		return
	}
	u.widgets = slices.Delete(u.widgets, i, i+1)
	delete(u.byEntity, w.Entity)
	for _, c := range u.widgets {
		if c.Parent == w {
			c.Parent = nil
		}
	}
	for _, fn := range u.onDespawn {
		fn(w.Entity)
	}
}

// Restack re-sorts the widgets. Call it after changing a ZIndex.
func (u *UIBackend) Restack() {
	u.sorted = false
}

// OnDespawn registers fn to be called with the entity of every removed widget.
func (u *UIBackend) OnDespawn(fn func(Entity)) {
	u.onDespawn = append(u.onDespawn, fn)
}

// Parent implements Hierarchy.
func (u *UIBackend) Parent(e Entity) (Entity, bool) {
	w, ok := u.byEntity[e]
	if !ok || w.Parent == nil {
		return NoEntity, false
	}
	return w.Parent.Entity, true
}

// Alive implements Liveness.
func (u *UIBackend) Alive(e Entity) bool {
	_, ok := u.byEntity[e]
	return ok
}

// HitTest implements Backend.
func (u *UIBackend) HitTest(_ context.Context, q Query) ([]HitData, error) {
	if !u.sorted {
		// Topmost first.
		slices.SortStableFunc(u.widgets, func(a, b *Widget) int {
			if c := cmp.Compare(b.ZIndex, a.ZIndex); c != 0 {
				return c
			}
			return cmp.Compare(b.seq, a.seq)
		})
		u.sorted = true
	}
	pos := q.Location.Position
	var hits []HitData
	for _, w := range u.widgets {
		if !w.Visible || w.Viewport != q.Location.Viewport || !w.Bounds.Contains(pos.X, pos.Y) {
			continue
		}
		hits = append(hits, HitData{
			Entity:   w.Entity,
			Depth:    float64(len(hits)),
			Position: &Vec3{X: pos.X, Y: pos.Y},
			Blocking: w.Blocking,
			Extra:    UIHit{Widget: w, Local: pos.Sub(Vec2{w.Bounds.X, w.Bounds.Y})},
		})
		if w.Blocking {
			break
		}
	}
	return hits, nil
}
