package picking

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDebugMode_DisposedNodePanics(t *testing.T) {
	s := NewScene("world")
	s.SetDebugMode(true)

	parent := NewContainer("parent")
	s.Root().AddChild(parent)

	child := NewSprite("child", 10, 10)
	child.Dispose()

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic on AddChild with disposed node, got none")
		}
		if msg := fmt.Sprint(r); !strings.Contains(msg, "disposed") || !strings.Contains(msg, "child") {
			t.Errorf("panic message should name the disposed node, got: %s", msg)
		}
	}()

	parent.AddChild(child)
}

func TestDebugMode_OffDoesNotPanic(t *testing.T) {
	s := NewScene("world")
	child := NewSprite("child", 10, 10)
	child.Dispose()

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("unexpected panic without debug mode: %v", r)
		}
	}()
	s.Root().AddChild(child)
}

func TestDebugMode_TreeDepthWarning(t *testing.T) {
	var buf bytes.Buffer
	s := NewScene("world")
	s.SetLogger(zerolog.New(&buf))
	s.SetDebugMode(true)

	cur := s.Root()
	for i := range debugMaxTreeDepth {
		next := NewContainer(fmt.Sprintf("n%d", i))
		cur.AddChild(next)
		cur = next
	}
	if got := strings.Count(buf.String(), "scene tree depth exceeds threshold"); got != 1 {
		t.Errorf("got %d depth warnings, want 1:\n%s", got, buf.String())
	}
}

func TestDebugMode_ChildCountWarning(t *testing.T) {
	var buf bytes.Buffer
	s := NewScene("world")
	s.SetLogger(zerolog.New(&buf))
	s.SetDebugMode(true)

	for range debugMaxChildCount {
		s.Root().AddChild(NewContainer("c"))
	}
	if buf.Len() != 0 {
		t.Fatalf("warned before the threshold: %s", buf.String())
	}
	s.Root().AddChild(NewContainer("c"))
	if !strings.Contains(buf.String(), `"children":1001`) {
		t.Errorf("missing child count warning: %s", buf.String())
	}
}

func TestFrameStats(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.backend.set(mouse, entE, entF)

	f.frame(added(mouse, 1, 1))
	stats := f.p.LastFrameStats()
	if stats.Frame != 1 || stats.Pointers != 1 || stats.Hits != 2 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.Events != len(f.rec.events) {
		t.Errorf("Events = %d, store saw %d", stats.Events, len(f.rec.events))
	}
	if stats.Anomalies != 0 {
		t.Errorf("Anomalies = %d", stats.Anomalies)
	}
	sum := stats.InputTime + stats.HitTestTime + stats.AggregateTime + stats.InteractTime + stats.DispatchTime
	if stats.Total() != sum {
		t.Errorf("Total = %v, want %v", stats.Total(), sum)
	}

	f.frame(pressed(mouse, ButtonMiddle), pressed(mouse, ButtonMiddle))
	if got := f.p.LastFrameStats().Anomalies; got != 1 {
		t.Errorf("repeated press: Anomalies = %d, want 1", got)
	}
}

func TestDebugLog(t *testing.T) {
	var buf bytes.Buffer
	f := newFixture(t, DefaultConfig())
	f.p.SetLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))

	f.frame(added(mouse, 1, 1))
	if buf.Len() != 0 {
		t.Fatalf("logged without debug mode: %s", buf.String())
	}

	f.p.SetDebugMode(true)
	f.frame(moved(mouse, 2, 2))
	out := buf.String()
	for _, want := range []string{`"message":"picking frame"`, `"frame":2`, `"pointers":1`, `"total":`} {
		if !strings.Contains(out, want) {
			t.Errorf("debug log missing %s: %s", want, out)
		}
	}
}
