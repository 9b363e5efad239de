package picking

import (
	"context"
	"math"
	"slices"
	"testing"
)

func sceneHits(t *testing.T, s *Scene, loc Location) []*Node {
	t.Helper()
	hits, err := s.HitTest(context.Background(), Query{Pointer: mouse, Location: loc})
	if err != nil {
		t.Fatal(err)
	}
	var out []*Node
	for i, h := range hits {
		sh, ok := h.Extra.(SpriteHit)
		if !ok {
			t.Fatalf("hit %d Extra = %T", i, h.Extra)
		}
		if h.Entity != sh.Node.Entity || h.Depth != float64(i) {
			t.Errorf("hit %d: entity %v depth %v", i, h.Entity, h.Depth)
		}
		out = append(out, sh.Node)
	}
	return out
}

func TestSceneDefaults(t *testing.T) {
	s := NewScene("world")
	if s.Name() != "world" || s.Layer() != LayerWorld {
		t.Errorf("Name/Layer = %q/%v", s.Name(), s.Layer())
	}
	if s.Root() == nil || !s.Alive(s.Root().Entity) {
		t.Error("root should be attached")
	}
	s.SetLayer(LayerOverlay)
	if s.Layer() != LayerOverlay {
		t.Error("SetLayer ignored")
	}
}

func TestSceneHitTestTopmostFirst(t *testing.T) {
	s := NewScene("world")
	back := NewSprite("back", 100, 100)
	front := NewSprite("front", 50, 50)
	s.Root().AddChild(back)
	s.Root().AddChild(front)

	got := sceneHits(t, s, at(10, 10))
	if !slices.Equal(got, []*Node{front, back}) {
		t.Errorf("hits = %v", names(got))
	}
	if got := sceneHits(t, s, at(75, 75)); !slices.Equal(got, []*Node{back}) {
		t.Errorf("hits = %v", names(got))
	}
	if got := sceneHits(t, s, at(200, 200)); len(got) != 0 {
		t.Errorf("miss hit %v", names(got))
	}
}

func TestSceneHitTestZIndex(t *testing.T) {
	s := NewScene("world")
	a := NewSprite("a", 10, 10)
	b := NewSprite("b", 10, 10)
	s.Root().AddChild(a)
	s.Root().AddChild(b)
	a.SetZIndex(1)

	if got := sceneHits(t, s, at(5, 5)); !slices.Equal(got, []*Node{a, b}) {
		t.Errorf("hits = %v, want [a b]", names(got))
	}
}

func TestSceneHitTestSkipsHiddenSubtrees(t *testing.T) {
	s := NewScene("world")
	hidden := NewContainer("hidden")
	inert := NewContainer("inert")
	h, i := NewSprite("h", 10, 10), NewSprite("i", 10, 10)
	hidden.AddChild(h)
	inert.AddChild(i)
	s.Root().AddChild(hidden)
	s.Root().AddChild(inert)
	hidden.Visible = false
	inert.Pickable = false

	if got := sceneHits(t, s, at(5, 5)); len(got) != 0 {
		t.Errorf("hits = %v, want none", names(got))
	}
}

func TestSceneHitTestBlocking(t *testing.T) {
	s := NewScene("world")
	back := NewSprite("back", 10, 10)
	mid := NewSprite("mid", 10, 10)
	front := NewSprite("front", 10, 10)
	for _, n := range []*Node{back, mid, front} {
		s.Root().AddChild(n)
	}
	mid.Blocking = true

	hits, _ := s.HitTest(context.Background(), Query{Location: at(5, 5)})
	if len(hits) != 2 || !hits[1].Blocking {
		t.Errorf("hits = %+v, want [front mid(blocking)]", hits)
	}
}

func TestSceneHitTestTransforms(t *testing.T) {
	s := NewScene("world")
	group := NewContainer("group")
	group.SetPosition(100, 100)
	sprite := NewSprite("s", 20, 10)
	sprite.SetRotation(math.Pi / 2)
	group.AddChild(sprite)
	s.Root().AddChild(group)

	// Rotated 90° about its origin, the sprite covers x in [-10, 0] and y in
	// [0, 20] relative to the group.
	if got := sceneHits(t, s, at(95, 110)); !slices.Equal(got, []*Node{sprite}) {
		t.Fatalf("hits = %v", names(got))
	}
	if got := sceneHits(t, s, at(105, 105)); len(got) != 0 {
		t.Errorf("unrotated area hit %v", names(got))
	}

	hits, _ := s.HitTest(context.Background(), Query{Location: at(95, 110)})
	local := hits[0].Extra.(SpriteHit).Local
	if !approxEqual(local.X, 10, 1e-9) || !approxEqual(local.Y, 5, 1e-9) {
		t.Errorf("local = %v, want (10,5)", local)
	}
}

func TestSceneHitTestThroughCamera(t *testing.T) {
	s := NewScene("world")
	sprite := NewSprite("s", 10, 10)
	sprite.SetPosition(1000, 1000)
	s.Root().AddChild(sprite)
	cam := s.NewCamera(7, Rect{Width: 100, Height: 100})
	cam.X, cam.Y = 1000, 1000

	if got := sceneHits(t, s, Location{Viewport: 7, Position: Vec2{55, 55}}); !slices.Equal(got, []*Node{sprite}) {
		t.Errorf("camera hit = %v", names(got))
	}
	if got := sceneHits(t, s, Location{Viewport: 8, Position: Vec2{55, 55}}); len(got) != 0 {
		t.Error("viewport without a camera should see nothing")
	}
}

func TestSceneZeroScaleNodeNeverHit(t *testing.T) {
	s := NewScene("world")
	n := NewSprite("flat", 10, 10)
	n.SetScale(0, 1)
	s.Root().AddChild(n)
	if got := sceneHits(t, s, at(0, 5)); len(got) != 0 {
		t.Errorf("singular node hit: %v", names(got))
	}
}

func TestSceneAttach(t *testing.T) {
	p := NewPicker(DefaultConfig())
	rec := &recorder{}
	p.SetEntityStore(rec)
	s := NewScene("world")
	s.Attach(p)

	panel := NewContainer("panel")
	button := NewSprite("button", 40, 20)
	panel.AddChild(button)
	s.Root().AddChild(panel)

	var bubbled int
	p.Dispatcher().On(panel.Entity, EventClick, func(c *Context) {
		if c.Event.Target == button.Entity {
			bubbled++
		}
	})

	ctx := context.Background()
	p.Update(ctx, []PointerInput{added(mouse, 10, 10), pressed(mouse, ButtonPrimary)})
	p.Update(ctx, []PointerInput{released(mouse, ButtonPrimary)})
	if bubbled != 1 {
		t.Errorf("panel saw %d clicks, want 1", bubbled)
	}

	rec.reset()
	button.Dispose()
	p.Update(ctx, nil)
	assertKinds(t, rec.kinds(), EventOut, EventLeft)
}

func names(ns []*Node) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.Name
	}
	return out
}
