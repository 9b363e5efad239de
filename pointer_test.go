package picking

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func newTestRegistry() (*PointerRegistry, *anomalies) {
	an := newAnomalies(zerolog.Nop())
	return newPointerRegistry(an), an
}

func TestRegisterDuplicate(t *testing.T) {
	r, _ := newTestRegistry()
	if err := r.Register(mouse); err != nil {
		t.Fatal(err)
	}
	err := r.Register(mouse)
	if !errors.Is(err, ErrPointerExists) {
		t.Errorf("second Register = %v, want ErrPointerExists", err)
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d", r.Len())
	}
}

func TestUnregister(t *testing.T) {
	r, an := newTestRegistry()
	_ = r.Register(mouse)
	if !r.Unregister(mouse) {
		t.Fatal("Unregister(live) = false")
	}
	if r.Has(mouse) {
		t.Error("pointer still live")
	}
	if r.Unregister(mouse) {
		t.Error("Unregister(unknown) = true")
	}
	if an.total() != 1 {
		t.Errorf("anomalies = %d, want 1", an.total())
	}
	if got := r.takeRetired(); !slices.Equal(got, []PointerID{mouse}) {
		t.Errorf("retired = %v", got)
	}
	if got := r.takeRetired(); len(got) != 0 {
		t.Errorf("retired not cleared: %v", got)
	}
	if err := r.Register(mouse); err != nil {
		t.Errorf("re-register after unregister: %v", err)
	}
}

func TestAllYieldsLocatedInRegistrationOrder(t *testing.T) {
	r, _ := newTestRegistry()
	a, b, c := TouchPointer(2), TouchPointer(1), PenPointer(0)
	for _, id := range []PointerID{a, b, c} {
		_ = r.Register(id)
	}
	r.UpdateLocation(c, at(3, 3))
	r.UpdateLocation(a, at(1, 1))

	var got []PointerID
	for id, loc := range r.All() {
		got = append(got, id)
		if loc.Position.X == 0 {
			t.Errorf("%s has no position", id)
		}
	}
	if !slices.Equal(got, []PointerID{a, c}) {
		t.Errorf("All = %v, want [%s %s]", got, a, c)
	}
	if ids := slices.Collect(r.IDs()); !slices.Equal(ids, []PointerID{a, b, c}) {
		t.Errorf("IDs = %v", ids)
	}

	r.ClearLocation(a)
	if _, ok := r.Location(a); ok {
		t.Error("cleared pointer still located")
	}
}

func TestButtonEdges(t *testing.T) {
	r, an := newTestRegistry()
	_ = r.Register(mouse)

	r.Press(mouse, ButtonPrimary)
	r.Press(mouse, ButtonPrimary)
	r.Release(mouse, ButtonSecondary)
	r.Press(mouse, PointerButton(7))
	r.Release(mouse, ButtonPrimary)

	want := []buttonEdge{{ButtonPrimary, true}, {ButtonPrimary, false}}
	if got := r.edgesOf(mouse); !slices.Equal(got, want) {
		t.Errorf("edges = %v, want %v", got, want)
	}
	if an.total() != 3 {
		t.Errorf("anomalies = %d, want 3", an.total())
	}
	if r.Pressed(mouse, ButtonPrimary) {
		t.Error("primary should be up")
	}

	r.endFrame()
	if len(r.edgesOf(mouse)) != 0 {
		t.Error("endFrame should clear edges")
	}
}

func TestUnknownPointerOperations(t *testing.T) {
	r, an := newTestRegistry()
	ghost := TouchPointer(1)
	r.UpdateLocation(ghost, at(1, 1))
	r.ClearLocation(ghost)
	r.Press(ghost, ButtonPrimary)
	if an.total() != 3 {
		t.Errorf("anomalies = %d, want 3", an.total())
	}
	if r.Has(ghost) || r.Pressed(ghost, ButtonPrimary) {
		t.Error("ghost pointer must stay unknown")
	}
}

func TestPointerIDs(t *testing.T) {
	u := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	tests := []struct {
		id   PointerID
		want string
	}{
		{MousePointer(), "mouse"},
		{TouchPointer(3), "touch(3)"},
		{PenPointer(1), "pen(1)"},
		{CustomPointer(u), "custom(6ba7b810-9dad-11d1-80b4-00c04fd430c8)"},
	}
	for _, tt := range tests {
		if got := tt.id.String(); got != tt.want {
			t.Errorf("String = %q, want %q", got, tt.want)
		}
	}
	if NewCustomPointer() == NewCustomPointer() {
		t.Error("custom pointers should be unique")
	}
	if TouchPointer(1) == PenPointer(1) {
		t.Error("kinds must distinguish ids")
	}
}

func TestUpdateLocationRejectsNonFinite(t *testing.T) {
	r, an := newTestRegistry()
	if err := r.Register(mouse); err != nil {
		t.Fatal(err)
	}
	r.UpdateLocation(mouse, at(1, 2))
	for _, bad := range []Vec2{{math.NaN(), 0}, {0, math.Inf(-1)}, {math.Inf(1), math.NaN()}} {
		r.UpdateLocation(mouse, Location{Position: bad})
	}
	if an.total() != 3 {
		t.Errorf("anomalies = %d, want 3", an.total())
	}
	if loc, _ := r.Location(mouse); loc.Position != (Vec2{1, 2}) {
		t.Errorf("location = %v, want (1,2)", loc.Position)
	}
}
