package rowan

import (
	"encoding/json"
	"fmt"
	"math"
)

// scriptStep represents a single action in a frame script.
type scriptStep struct {
	Action string  `json:"action"`
	Label  string  `json:"label,omitempty"`
	Value  float64 `json:"value,omitempty"`
	Frames int     `json:"frames,omitempty"`
}

// frameScript is the top-level JSON structure for a frame script.
type frameScript struct {
	Steps []scriptStep `json:"steps"`
}

// ScriptRunner sequences cell mutations and expectations across ticks for
// automated scheduler testing. Bind labeled cells, then call Step once per
// tick before Scheduler.Tick.
//
// Supported actions:
//   - "set":    set the bound root cell (label, value)
//   - "unset":  unset the bound root cell (label)
//   - "expect": record a failure unless the bound cell is ready and within
//     1e-6 of value (label, value)
//   - "wait":   idle for the given number of frames (frames)
type ScriptRunner struct {
	steps     []scriptStep
	cursor    int
	waitCount int
	done      bool

	cells    map[string]Value[float64]
	failures []string
}

// LoadScript parses a JSON frame script and returns a ScriptRunner.
func LoadScript(jsonData []byte) (*ScriptRunner, error) {
	var script frameScript
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("parse frame script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("parse frame script: no steps")
	}
	return &ScriptRunner{
		steps: script.Steps,
		cells: make(map[string]Value[float64]),
	}, nil
}

// Bind associates a label with a cell. "set" and "unset" require the cell
// to be a *Root[float64]; "expect" works with any float cell.
func (r *ScriptRunner) Bind(label string, cell Value[float64]) {
	r.cells[label] = cell
}

// Done reports whether all steps in the script have been executed.
func (r *ScriptRunner) Done() bool {
	return r.done
}

// Failures returns the expectation failures recorded so far.
func (r *ScriptRunner) Failures() []string {
	return r.failures
}

// Step advances the script by one frame.
func (r *ScriptRunner) Step() {
	if r.done {
		return
	}
	// Count down wait frames.
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++

	switch st.Action {
	case "set":
		if root, ok := r.cells[st.Label].(*Root[float64]); ok {
			root.Set(st.Value)
		} else {
			r.failf("step %d: %q is not a bound root cell", r.cursor, st.Label)
		}
	case "unset":
		if root, ok := r.cells[st.Label].(*Root[float64]); ok {
			root.Unset()
		} else {
			r.failf("step %d: %q is not a bound root cell", r.cursor, st.Label)
		}
	case "expect":
		cell, ok := r.cells[st.Label]
		switch {
		case !ok:
			r.failf("step %d: %q is not bound", r.cursor, st.Label)
		case !cell.Ready():
			r.failf("step %d: %q is not ready, want %g", r.cursor, st.Label, st.Value)
		default:
			if got := cell.Current(); math.Abs(got-st.Value) > 1e-6 {
				r.failf("step %d: %q = %g, want %g", r.cursor, st.Label, got, st.Value)
			}
		}
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	default:
		r.failf("step %d: unknown action %q", r.cursor, st.Action)
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 {
		r.done = true
	}
}

func (r *ScriptRunner) failf(format string, args ...any) {
	r.failures = append(r.failures, fmt.Sprintf(format, args...))
}
