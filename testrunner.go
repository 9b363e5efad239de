package picking

import (
	"context"
	"encoding/json"
	"fmt"
)

// testStep represents a single action in a test script.
type testStep struct {
	Action string  `json:"action"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	FromX  float64 `json:"fromX,omitempty"`
	FromY  float64 `json:"fromY,omitempty"`
	ToX    float64 `json:"toX,omitempty"`
	ToY    float64 `json:"toY,omitempty"`
	Frames int     `json:"frames,omitempty"`
	Button string  `json:"button,omitempty"`
}

// testScript is the top-level JSON structure for a test script.
type testScript struct {
	Steps []testStep `json:"steps"`
}

func parseButton(s string) (PointerButton, error) {
	switch s {
	case "", "primary", "left":
		return ButtonPrimary, nil
	case "secondary", "right":
		return ButtonSecondary, nil
	case "middle":
		return ButtonMiddle, nil
	default:
		return 0, fmt.Errorf("unknown button %q", s)
	}
}

// TestRunner sequences scripted pointer actions across frames for automated
// interaction tests. It drives one Synthetic pointer.
type TestRunner struct {
	steps     []testStep
	synth     *Synthetic
	cursor    int
	waitCount int
	done      bool
}

// LoadTestScript parses a JSON test script and returns a TestRunner that
// drives synth:
//
//	{"steps": [
//	  {"action": "click", "x": 100, "y": 200},
//	  {"action": "drag", "fromX": 0, "fromY": 0, "toX": 50, "toY": 0, "frames": 10},
//	  {"action": "wait", "frames": 3}
//	]}
//
// Actions are move, press, release, click, drag, leave, remove and wait.
// press, release, click and drag accept an optional button.
func LoadTestScript(jsonData []byte, synth *Synthetic) (*TestRunner, error) {
	var script testScript
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("parse test script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("parse test script: no steps")
	}
	for i, st := range script.Steps {
		switch st.Action {
		case "move", "press", "release", "click", "drag", "leave", "remove", "wait":
		default:
			return nil, fmt.Errorf("parse test script: step %d: unknown action %q", i, st.Action)
		}
		if _, err := parseButton(st.Button); err != nil {
			return nil, fmt.Errorf("parse test script: step %d: %w", i, err)
		}
	}
	return &TestRunner{steps: script.Steps, synth: synth}, nil
}

// Done reports whether all steps in the test script have been executed.
func (r *TestRunner) Done() bool {
	return r.done
}

// Frame advances the runner by one frame and returns that frame's input.
func (r *TestRunner) Frame() []PointerInput {
	if r.done {
		return nil
	}
	// Drain queued frames before advancing.
	if r.synth.Pending() > 0 {
		batch := r.synth.Next()
		r.checkDone()
		return batch
	}
	if r.waitCount > 0 {
		r.waitCount--
		r.checkDone()
		return nil
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return nil
	}

	st := r.steps[r.cursor]
	r.cursor++

	b, _ := parseButton(st.Button)
	r.synth.SetButton(b)
	switch st.Action {
	case "move":
		r.synth.Move(st.X, st.Y)
	case "press":
		r.synth.Press(st.X, st.Y)
	case "release":
		r.synth.Release(st.X, st.Y)
	case "click":
		r.synth.Click(st.X, st.Y)
	case "drag":
		r.synth.Drag(Vec2{st.FromX, st.FromY}, Vec2{st.ToX, st.ToY}, st.Frames)
	case "leave":
		r.synth.Leave()
	case "remove":
		r.synth.Remove()
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	}

	batch := r.synth.Next()
	r.checkDone()
	return batch
}

func (r *TestRunner) checkDone() {
	if r.cursor >= len(r.steps) && r.waitCount == 0 && r.synth.Pending() == 0 {
		r.done = true
	}
}

// Run feeds the script into p one frame per Update until it is done. It
// fails if the script needs more than maxFrames frames.
func (r *TestRunner) Run(ctx context.Context, p *Picker, maxFrames int) error {
	for i := 0; i < maxFrames && !r.done; i++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("run test script: %w", err)
		}
		p.Update(ctx, r.Frame())
	}
	if !r.done {
		return fmt.Errorf("run test script: not done after %d frames", maxFrames)
	}
	return nil
}
