package picking

import (
	"context"

	"github.com/rs/zerolog"
)

// SpriteHit is the Extra payload of hits reported by a Scene.
type SpriteHit struct {
	Node  *Node
	Local Vec2 // pointer position in the node's local space
}

// Scene is the built-in sprite backend: a 2D node tree viewed through
// per-viewport cameras. Every node under the pointer is reported, topmost
// first, with depth equal to its rank (0 for the topmost).
//
// A Scene also implements Hierarchy and Liveness for its nodes. It must not
// be mutated while Picker.Update runs its hit-test phase.
type Scene struct {
	name      string
	layer     Layer
	root      *Node
	cameras   Cameras
	nodes     map[Entity]*Node
	onDespawn []func(Entity)
	hitBuf    []*Node
	logger    zerolog.Logger
	debug     bool
}

// NewScene creates a scene on LayerWorld with a pre-created root container.
// name identifies the backend in hits and in Config.BackendOrder.
func NewScene(name string) *Scene {
	s := &Scene{
		name:   name,
		layer:  LayerWorld,
		nodes:  make(map[Entity]*Node),
		logger: zerolog.Nop(),
	}
	root := NewContainer("root")
	s.root = root
	root.attach(s)
	return s
}

// Root returns the scene's root container node.
func (s *Scene) Root() *Node {
	return s.root
}

// Name implements Backend.
func (s *Scene) Name() string { return s.name }

// Layer implements Backend.
func (s *Scene) Layer() Layer { return s.layer }

// SetLayer changes the layer the scene reports its hits on.
func (s *Scene) SetLayer(l Layer) {
	s.layer = l
}

// Cameras returns the scene's viewport cameras.
func (s *Scene) Cameras() *Cameras {
	return &s.cameras
}

// NewCamera creates a camera for viewport id and adds it to the scene.
func (s *Scene) NewCamera(id ViewportID, viewport Rect) *Camera {
	c := NewCamera(id, viewport)
	s.cameras.Add(c)
	return c
}

// SetLogger sets the logger used for debug warnings.
func (s *Scene) SetLogger(logger zerolog.Logger) {
	s.logger = logger
}

// SetDebugMode enables or disables debug mode. When enabled, tree operations
// on disposed nodes panic and deep or wide trees log warnings.
func (s *Scene) SetDebugMode(enabled bool) {
	s.debug = enabled
}

// OnDespawn registers fn to be called with the entity of every disposed node,
// for instance Picker.Despawn.
func (s *Scene) OnDespawn(fn func(Entity)) {
	s.onDespawn = append(s.onDespawn, fn)
}

// Attach wires the scene into p as a backend, its despawn source and, when
// p has no other hierarchy, its bubbling hierarchy.
func (s *Scene) Attach(p *Picker) {
	p.AddBackend(s)
	s.OnDespawn(p.Despawn)
	if p.dispatcher.hierarchy == nil {
		p.SetHierarchy(s)
	}
}

// Node returns the attached node of e.
func (s *Scene) Node(e Entity) (*Node, bool) {
	n, ok := s.nodes[e]
	return n, ok
}

// Parent implements Hierarchy.
func (s *Scene) Parent(e Entity) (Entity, bool) {
	n, ok := s.nodes[e]
	if !ok || n.Parent == nil {
		return NoEntity, false
	}
	return n.Parent.Entity, true
}

// Alive implements Liveness: a node is alive while attached to the scene.
func (s *Scene) Alive(e Entity) bool {
	_, ok := s.nodes[e]
	return ok
}

// Update refreshes world transforms and advances camera follow and scroll
// animations by dt seconds.
func (s *Scene) Update(dt float32) {
	updateWorldTransform(s.root, identityTransform, false)
	s.cameras.update(dt)
}

// HitTest implements Backend.
func (s *Scene) HitTest(_ context.Context, q Query) ([]HitData, error) {
	world, ok := s.cameras.ToWorld(q.Location)
	if !ok {
		return nil, nil
	}
	updateWorldTransform(s.root, identityTransform, false)
	s.hitBuf = s.collectPickable(s.root, s.hitBuf[:0])

	var hits []HitData
	// Iterate backward (reverse painter order): topmost visual node first.
	for i := len(s.hitBuf) - 1; i >= 0; i-- {
		n := s.hitBuf[i]
		if !n.invertible {
			continue
		}
		lx, ly := n.WorldToLocal(world.X, world.Y)
		if !n.containsLocal(lx, ly) {
			continue
		}
		hits = append(hits, HitData{
			Entity:   n.Entity,
			Depth:    float64(len(hits)),
			Position: &Vec3{X: world.X, Y: world.Y},
			Blocking: n.Blocking,
			Extra:    SpriteHit{Node: n, Local: Vec2{lx, ly}},
		})
		if n.Blocking {
			break
		}
	}
	clear(s.hitBuf)
	return hits, nil
}

// collectPickable walks the tree in painter order (DFS, ZIndex-sorted),
// appending hit-testable nodes to buf. Skips Visible=false or Pickable=false
// subtrees.
func (s *Scene) collectPickable(n *Node, buf []*Node) []*Node {
	if !n.Visible || !n.Pickable {
		return buf
	}
	if n.hitTestable() {
		buf = append(buf, n)
	}
	if len(n.children) == 0 {
		return buf
	}
	if !n.childrenSorted {
		n.rebuildSortedChildren()
	}
	children := n.children
	if n.sortedChildren != nil {
		children = n.sortedChildren
	}
	for _, child := range children {
		buf = s.collectPickable(child, buf)
	}
	return buf
}

func (s *Scene) despawned(gone []Entity) {
	for _, e := range gone {
		for _, fn := range s.onDespawn {
			fn(e)
		}
	}
}
