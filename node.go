package picking

// Node is the element of a Scene's 2D tree. A single flat struct is used for
// containers and pickable sprites alike: a node with no HitShape and zero
// size is a pure container and is never hit itself.
type Node struct {
	// Identity
	Entity Entity
	Name   string

	// Hierarchy
	Parent   *Node
	children []*Node
	scene    *Scene

	// Transform (local)
	X, Y         float64
	ScaleX       float64
	ScaleY       float64
	Rotation     float64
	SkewX, SkewY float64
	PivotX       float64
	PivotY       float64

	// Width and Height are the local hit bounds, anchored at the origin, used
	// when HitShape is nil.
	Width, Height float64

	// Computed during traversal.
	worldTransform [6]float64
	invWorld       [6]float64
	invertible     bool
	transformDirty bool

	// Visible=false or Pickable=false removes the node and its subtree from
	// hit testing.
	Visible  bool
	Pickable bool
	// Blocking hides everything underneath from the pointer when this node is
	// hit.
	Blocking bool

	// ZIndex orders siblings; higher is drawn, and hit, first.
	ZIndex int

	// Metadata
	UserData any

	// HitShape overrides the Width/Height bounds.
	HitShape HitShape

	// Internal
	disposed       bool
	childrenSorted bool
	sortedChildren []*Node // reused buffer for ZIndex-sorted traversal order
}

// nodeDefaults sets the common default field values shared by all constructors.
func nodeDefaults(n *Node) {
	n.Entity = NewEntity()
	n.ScaleX = 1
	n.ScaleY = 1
	n.Visible = true
	n.Pickable = true
	n.transformDirty = true
	n.childrenSorted = true
}

// NewContainer creates a container node with no hit area of its own.
func NewContainer(name string) *Node {
	n := &Node{Name: name}
	nodeDefaults(n)
	return n
}

// NewSprite creates a node with a w×h hit rectangle at its origin.
func NewSprite(name string, w, h float64) *Node {
	n := &Node{Name: name, Width: w, Height: h}
	nodeDefaults(n)
	return n
}

// NewShape creates a node whose hit area is shape.
func NewShape(name string, shape HitShape) *Node {
	n := &Node{Name: name, HitShape: shape}
	nodeDefaults(n)
	return n
}

// Scene returns the scene the node is attached to, or nil.
func (n *Node) Scene() *Scene {
	return n.scene
}

// --- Tree manipulation ---

// AddChild appends child to this node's children.
// If child already has a parent, it is removed from that parent first.
// Panics if child is nil or child is an ancestor of this node (cycle).
func (n *Node) AddChild(child *Node) {
	if child == nil {
		panic("picking: cannot add nil child")
	}
	if n.debug() {
		debugCheckDisposed(n, "AddChild (parent)")
		debugCheckDisposed(child, "AddChild (child)")
	}
	if isAncestor(child, n) {
		panic("picking: adding child would create a cycle")
	}
	if child.Parent != nil {
		child.Parent.removeChildByPtr(child)
	}
	child.Parent = n
	n.children = append(n.children, child)
	n.childrenSorted = false
	child.attach(n.scene)
	markSubtreeDirty(child)
	if n.debug() {
		n.scene.debugCheckTreeDepth(child)
		n.scene.debugCheckChildCount(n)
	}
}

// AddChildAt inserts child at the given index.
// Same reparenting and cycle-check behavior as AddChild.
func (n *Node) AddChildAt(child *Node, index int) {
	if child == nil {
		panic("picking: cannot add nil child")
	}
	if n.debug() {
		debugCheckDisposed(n, "AddChildAt (parent)")
		debugCheckDisposed(child, "AddChildAt (child)")
	}
	if isAncestor(child, n) {
		panic("picking: adding child would create a cycle")
	}
	if child.Parent != nil {
		child.Parent.removeChildByPtr(child)
	}
	if index < 0 || index > len(n.children) {
		panic("picking: child index out of range")
	}
	child.Parent = n
	n.children = append(n.children, nil)
	copy(n.children[index+1:], n.children[index:])
	n.children[index] = child
	n.childrenSorted = false
	child.attach(n.scene)
	markSubtreeDirty(child)
}

// RemoveChild detaches child from this node. The child stays alive and may
// be attached again.
// Panics if child.Parent != n.
func (n *Node) RemoveChild(child *Node) {
	if n.debug() {
		debugCheckDisposed(n, "RemoveChild (parent)")
		debugCheckDisposed(child, "RemoveChild (child)")
	}
	if child.Parent != n {
		panic("picking: child's parent is not this node")
	}
	n.removeChildByPtr(child)
	child.Parent = nil
	n.childrenSorted = false
	child.attach(nil)
	markSubtreeDirty(child)
}

// RemoveFromParent detaches this node from its parent.
// No-op if this node has no parent.
func (n *Node) RemoveFromParent() {
	if n.Parent == nil {
		return
	}
	n.Parent.RemoveChild(n)
}

// Children returns the child list. The returned slice MUST NOT be mutated by the caller.
func (n *Node) Children() []*Node {
	return n.children
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int {
	return len(n.children)
}

// SetZIndex sets the node's ZIndex and marks the parent's children as unsorted.
func (n *Node) SetZIndex(z int) {
	if n.ZIndex == z {
		return
	}
	n.ZIndex = z
	if n.Parent != nil {
		n.Parent.childrenSorted = false
	}
}

// --- Disposal ---

// Dispose removes this node from its parent, marks it and every descendant
// as disposed, and reports each of their entities to the scene's despawn
// callbacks.
func (n *Node) Dispose() {
	if n.disposed {
		return
	}
	scene := n.scene
	n.RemoveFromParent()
	var gone []Entity
	n.dispose(&gone)
	if scene != nil {
		scene.despawned(gone)
	}
}

func (n *Node) dispose(gone *[]Entity) {
	n.disposed = true
	*gone = append(*gone, n.Entity)
	for _, child := range n.children {
		child.Parent = nil
		child.dispose(gone)
	}
	n.children = nil
	n.sortedChildren = nil
	n.Parent = nil
	n.scene = nil
	n.HitShape = nil
	n.UserData = nil
}

// IsDisposed returns true if this node has been disposed.
func (n *Node) IsDisposed() bool {
	return n.disposed
}

// --- Helpers ---

func (n *Node) debug() bool {
	return n.scene != nil && n.scene.debug
}

// attach moves the subtree rooted at n into scene (nil detaches it),
// keeping the scene's entity index current.
func (n *Node) attach(scene *Scene) {
	if n.scene == scene {
		return
	}
	if n.scene != nil {
		delete(n.scene.nodes, n.Entity)
	}
	n.scene = scene
	if scene != nil {
		scene.nodes[n.Entity] = n
	}
	for _, child := range n.children {
		child.attach(scene)
	}
}

// isAncestor reports whether candidate is an ancestor of node.
func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.Parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// removeChildByPtr removes child from n.children without clearing child.Parent.
// Uses copy+nil to avoid retaining a dangling pointer in the backing array.
func (n *Node) removeChildByPtr(child *Node) {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			return
		}
	}
}

// markSubtreeDirty sets transformDirty on node and all its descendants.
func markSubtreeDirty(node *Node) {
	node.transformDirty = true
	for _, child := range node.children {
		markSubtreeDirty(child)
	}
}

// rebuildSortedChildren rebuilds the ZIndex-sorted traversal order for a node.
// Stable insertion sort: zero allocations, O(n) when already sorted.
func (n *Node) rebuildSortedChildren() {
	nc := len(n.children)
	if cap(n.sortedChildren) < nc {
		n.sortedChildren = make([]*Node, nc)
	}
	n.sortedChildren = n.sortedChildren[:nc]
	copy(n.sortedChildren, n.children)
	for i := 1; i < nc; i++ {
		key := n.sortedChildren[i]
		j := i - 1
		for j >= 0 && n.sortedChildren[j].ZIndex > key.ZIndex {
			n.sortedChildren[j+1] = n.sortedChildren[j]
			j--
		}
		n.sortedChildren[j+1] = key
	}
	n.childrenSorted = true
}

// containsLocal tests whether (lx, ly) falls inside the node's hit region.
func (n *Node) containsLocal(lx, ly float64) bool {
	if n.HitShape != nil {
		return n.HitShape.Contains(lx, ly)
	}
	if n.Width == 0 && n.Height == 0 {
		return false
	}
	return lx >= 0 && lx <= n.Width && ly >= 0 && ly <= n.Height
}

// hitTestable reports whether the node can be hit itself.
func (n *Node) hitTestable() bool {
	return n.HitShape != nil || n.Width != 0 || n.Height != 0
}
