package picking

import (
	"testing"

	"github.com/tanema/gween/ease"
)

func TestSyntheticClick(t *testing.T) {
	id := NewCustomPointer()
	s := NewSynthetic(id, 2)
	s.SetButton(ButtonSecondary)
	s.Click(10, 20)

	if s.Pending() != 2 {
		t.Fatalf("Pending = %d, want 2", s.Pending())
	}
	press := s.Next()
	if len(press) != 2 || press[0].Kind != InputAdded || press[1].Kind != InputPressed {
		t.Fatalf("press frame = %v", press)
	}
	if press[0].Pointer != id || press[0].Location != (Location{Viewport: 2, Position: Vec2{10, 20}}) {
		t.Errorf("location = %+v", press[0])
	}
	if press[1].Button != ButtonSecondary {
		t.Errorf("button = %v", press[1].Button)
	}
	release := s.Next()
	if release[0].Kind != InputMoved || release[1].Kind != InputReleased {
		t.Errorf("release frame = %v", release)
	}
	if s.Next() != nil {
		t.Error("empty queue should return nil")
	}
}

func TestSyntheticDrag(t *testing.T) {
	s := NewSynthetic(MousePointer(), 0)
	s.Drag(Vec2{0, 0}, Vec2{30, 60}, 5)
	if s.Pending() != 5 {
		t.Fatalf("Pending = %d, want 5", s.Pending())
	}

	var xs, ys []float64
	for s.Pending() > 0 {
		batch := s.Next()
		xs = append(xs, batch[0].Location.Position.X)
		ys = append(ys, batch[0].Location.Position.Y)
	}
	wantX := []float64{0, 7.5, 15, 22.5, 30}
	for i := range wantX {
		if !approxEqual(xs[i], wantX[i], 1e-3) || !approxEqual(ys[i], 2*wantX[i], 1e-3) {
			t.Errorf("frame %d at (%v, %v), want (%v, %v)", i, xs[i], ys[i], wantX[i], 2*wantX[i])
		}
	}
}

func TestSyntheticDragMinFrames(t *testing.T) {
	s := NewSynthetic(MousePointer(), 0)
	s.Drag(Vec2{0, 0}, Vec2{100, 100}, 0)
	if s.Pending() != 2 {
		t.Errorf("Pending = %d, want 2", s.Pending())
	}
}

func TestSyntheticEasing(t *testing.T) {
	s := NewSynthetic(MousePointer(), 0)
	s.SetEasing(ease.InQuad)
	s.Drag(Vec2{0, 0}, Vec2{100, 0}, 4)
	s.Next()
	mid := s.Next()[0].Location.Position.X
	if mid >= 100.0/3 {
		t.Errorf("ease-in first step at %v, want below linear", mid)
	}
}

func TestSyntheticRemove(t *testing.T) {
	s := NewSynthetic(MousePointer(), 0)
	s.Remove()
	if s.Pending() != 0 {
		t.Error("removing a never-added pointer should queue nothing")
	}

	s.Move(1, 1)
	s.Leave()
	s.Wait(2)
	s.Remove()
	s.Move(2, 2)
	if s.Pending() != 5 {
		t.Fatalf("Pending = %d, want 5", s.Pending())
	}
	kinds := []InputKind{}
	for s.Pending() > 0 {
		for _, in := range s.Next() {
			kinds = append(kinds, in.Kind)
		}
	}
	want := []InputKind{InputAdded, InputLeft, InputRemoved}
	if len(kinds) != len(want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("kinds = %v, want %v", kinds, want)
		}
	}
}
