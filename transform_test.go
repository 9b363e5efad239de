package picking

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func assertNear(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > epsilon {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func assertMatrix(t *testing.T, name string, got, want [6]float64) {
	t.Helper()
	for i := range got {
		if math.Abs(got[i]-want[i]) > epsilon {
			t.Errorf("%s[%d] = %v, want %v (full: %v vs %v)", name, i, got[i], want[i], got, want)
		}
	}
}

// --- computeLocalTransform ---

func TestLocalTransform(t *testing.T) {
	tests := []struct {
		name  string
		setup func(n *Node)
		want  [6]float64
	}{
		{"identity", func(*Node) {}, [6]float64{1, 0, 0, 1, 0, 0}},
		{"translation", func(n *Node) { n.X, n.Y = 10, 20 }, [6]float64{1, 0, 0, 1, 10, 20}},
		{"scale", func(n *Node) { n.ScaleX, n.ScaleY = 2, 3 }, [6]float64{2, 0, 0, 3, 0, 0}},
		// cos(90)=0, sin(90)=1
		{"rot90", func(n *Node) { n.Rotation = math.Pi / 2 }, [6]float64{0, 1, -1, 0, 0, 0}},
		// T(100,200) * T(-16,-16)
		{"pivot", func(n *Node) { n.X, n.Y, n.PivotX, n.PivotY = 100, 200, 16, 16 }, [6]float64{1, 0, 0, 1, 84, 184}},
		{"skew", func(n *Node) { n.SkewX = math.Pi / 4 }, [6]float64{1, 0, 1, 1, 0, 0}},
		{"combined", func(n *Node) {
			n.X, n.Y = 50, 100
			n.ScaleX, n.ScaleY = 2, 2
			n.Rotation = math.Pi / 2
		}, [6]float64{0, 2, -2, 0, 50, 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewContainer("test")
			tt.setup(n)
			assertMatrix(t, tt.name, computeLocalTransform(n), tt.want)
		})
	}
}

// --- multiplyAffine / invertAffine ---

func TestMultiplyAffine(t *testing.T) {
	m := [6]float64{2, 1, 3, 4, 5, 6}
	assertMatrix(t, "id*m", multiplyAffine(identityTransform, m), m)
	assertMatrix(t, "m*id", multiplyAffine(m, identityTransform), m)

	a := [6]float64{1, 0, 0, 1, 10, 20}
	b := [6]float64{1, 0, 0, 1, 5, 3}
	assertMatrix(t, "translations", multiplyAffine(a, b), [6]float64{1, 0, 0, 1, 15, 23})
}

func TestInvertAffine(t *testing.T) {
	n := NewContainer("test")
	n.ScaleX = 2
	n.Rotation = math.Pi / 3
	n.X = 10
	for _, m := range [][6]float64{
		{2, 0, 0, 3, 10, 20},
		computeLocalTransform(n),
	} {
		inv, ok := invertAffine(m)
		if !ok {
			t.Fatalf("invertAffine(%v) reported singular", m)
		}
		assertMatrix(t, "m*inv", multiplyAffine(m, inv), identityTransform)
	}
}

func TestInvertAffineSingular(t *testing.T) {
	for _, m := range [][6]float64{
		{0, 0, 0, 1, 10, 20},
		{0, 0, 0, 0, 50, 100},
	} {
		inv, ok := invertAffine(m)
		if ok {
			t.Errorf("invertAffine(%v) should report singular", m)
		}
		assertMatrix(t, "singular", inv, identityTransform)
	}
}

// --- updateWorldTransform ---

func TestWorldTransformParentChild(t *testing.T) {
	parent := NewContainer("parent")
	child := NewContainer("child")
	parent.AddChild(child)
	parent.X = 100
	child.X = 10

	updateWorldTransform(parent, identityTransform, false)

	assertNear(t, "parent.tx", parent.worldTransform[4], 100)
	assertNear(t, "child.tx", child.worldTransform[4], 110)
	if !child.invertible {
		t.Error("child should be invertible")
	}
}

func TestDirtyFlagSkipsClean(t *testing.T) {
	parent := NewContainer("parent")
	child := NewContainer("child")
	parent.AddChild(child)
	parent.X = 100
	child.X = 10
	updateWorldTransform(parent, identityTransform, false)

	// A direct field write without a setter leaves the node clean.
	child.X = 999
	updateWorldTransform(parent, identityTransform, false)
	assertNear(t, "child.tx (stale)", child.worldTransform[4], 110)

	child.MarkDirty()
	updateWorldTransform(parent, identityTransform, false)
	assertNear(t, "child.tx (marked)", child.worldTransform[4], 1099)
}

func TestParentRecomputedPropagates(t *testing.T) {
	parent := NewContainer("parent")
	child := NewContainer("child")
	parent.AddChild(child)
	child.X = 10
	updateWorldTransform(parent, identityTransform, false)

	parent.SetPosition(200, 0)
	updateWorldTransform(parent, identityTransform, false)
	assertNear(t, "child.tx", child.worldTransform[4], 210)
}

func TestDeepHierarchy(t *testing.T) {
	nodes := make([]*Node, 10)
	for i := range nodes {
		nodes[i] = NewContainer("")
		nodes[i].X = 10
		if i > 0 {
			nodes[i-1].AddChild(nodes[i])
		}
	}
	updateWorldTransform(nodes[0], identityTransform, false)
	assertNear(t, "deep.tx", nodes[9].worldTransform[4], 100)
}

// --- WorldToLocal / LocalToWorld ---

func TestWorldToLocalRoundtrip(t *testing.T) {
	parent := NewContainer("parent")
	child := NewContainer("child")
	parent.AddChild(child)
	parent.SetPosition(100, 50)
	child.SetPosition(10, 20)
	child.SetScale(2, 3)
	child.SetRotation(math.Pi / 6)
	updateWorldTransform(parent, identityTransform, false)

	wx, wy := 150.0, 80.0
	lx, ly := child.WorldToLocal(wx, wy)
	wx2, wy2 := child.LocalToWorld(lx, ly)
	assertNear(t, "roundtrip.x", wx2, wx)
	assertNear(t, "roundtrip.y", wy2, wy)
}

func TestWorldToLocalZeroScale(t *testing.T) {
	n := NewContainer("test")
	n.SetScale(0, 0)
	updateWorldTransform(n, identityTransform, false)

	if n.invertible {
		t.Error("zero-scale node should not be invertible")
	}
	lx, ly := n.WorldToLocal(100, 200)
	assertNear(t, "lx", lx, 100)
	assertNear(t, "ly", ly, 200)
}

func TestSettersDirty(t *testing.T) {
	setters := map[string]func(n *Node){
		"SetPosition": func(n *Node) { n.SetPosition(1, 2) },
		"SetScale":    func(n *Node) { n.SetScale(2, 2) },
		"SetRotation": func(n *Node) { n.SetRotation(1) },
		"SetSkew":     func(n *Node) { n.SetSkew(0.1, 0.2) },
		"SetPivot":    func(n *Node) { n.SetPivot(5, 5) },
		"MarkDirty":   func(n *Node) { n.MarkDirty() },
	}
	for name, set := range setters {
		n := NewContainer("test")
		n.transformDirty = false
		set(n)
		if !n.transformDirty {
			t.Errorf("%s should set dirty", name)
		}
	}
}

// --- Benchmarks ---

func BenchmarkComputeLocalTransform(b *testing.B) {
	n := NewContainer("bench")
	n.X, n.Y = 100, 200
	n.ScaleX, n.ScaleY = 2, 3
	n.Rotation = 0.5
	n.PivotX, n.PivotY = 16, 16
	b.ReportAllocs()
	for b.Loop() {
		_ = computeLocalTransform(n)
	}
}

func BenchmarkUpdateWorldTransform10k(b *testing.B) {
	root := NewContainer("root")
	for i := range 100 {
		parent := NewContainer("")
		parent.X = float64(i)
		root.AddChild(parent)
		for j := range 100 {
			child := NewContainer("")
			child.X = float64(j)
			parent.AddChild(child)
		}
	}
	updateWorldTransform(root, identityTransform, true)

	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		root.transformDirty = true
		updateWorldTransform(root, identityTransform, false)
	}
}
