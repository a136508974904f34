package canopy

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// ScriptStep is a single action in a tick script.
type ScriptStep struct {
	Action string  `yaml:"action"`
	Label  string  `yaml:"label,omitempty"`
	Frames int     `yaml:"frames,omitempty"`
	DT     float64 `yaml:"dt,omitempty"`
	Width  int     `yaml:"width,omitempty"`
	Height int     `yaml:"height,omitempty"`
	Path   string  `yaml:"path,omitempty"`
	Input  string  `yaml:"input,omitempty"`
}

// scriptFile is the top-level structure of a tick script.
type scriptFile struct {
	Steps []ScriptStep `yaml:"steps"`
}

// Script drives a SceneManager through a fixed sequence of ticks, resizes,
// frees, injected input and tree dumps. Scripts are YAML (JSON also parses):
//
//	steps:
//	  - {action: resize, width: 320, height: 240}
//	  - {action: tick, frames: 10}
//	  - {action: tap, input: jump}
//	  - {action: tick, frames: 2}
//	  - {action: free, path: /enemies/e1}
//	  - {action: dump, label: after-free}
type Script struct {
	Steps []ScriptStep
}

// LoadScript parses a tick script.
func LoadScript(data []byte) (*Script, error) {
	var f scriptFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if len(f.Steps) == 0 {
		return nil, fmt.Errorf("parse script: no steps")
	}
	for i, st := range f.Steps {
		if err := st.validate(); err != nil {
			return nil, fmt.Errorf("parse script: step %d: %w", i, err)
		}
	}
	return &Script{Steps: f.Steps}, nil
}

func (st ScriptStep) validate() error {
	switch st.Action {
	case "tick", "wait":
		if st.Frames < 0 {
			return fmt.Errorf("%s: negative frames", st.Action)
		}
	case "resize":
		if st.Width < 0 || st.Height < 0 {
			return fmt.Errorf("resize: negative size")
		}
	case "free":
		if st.Path == "" {
			return fmt.Errorf("free: missing path")
		}
	case "press", "release", "tap":
		if st.Input == "" {
			return fmt.Errorf("%s: missing input", st.Action)
		}
	case "dump":
	default:
		return fmt.Errorf("unknown action %q", st.Action)
	}
	return nil
}

// ScriptResult reports what a script run did.
type ScriptResult struct {
	Ticks int
	Steps int
}

// Run executes the script against sm. Tick steps default to one frame of
// sm.PhysicsStep seconds. Dumps are written to out, which may be nil.
func (s *Script) Run(sm *SceneManager, out io.Writer) (ScriptResult, error) {
	var res ScriptResult
	for i, st := range s.Steps {
		if err := s.runStep(sm, st, out, &res); err != nil {
			return res, fmt.Errorf("script step %d (%s): %w", i, st.Action, err)
		}
		res.Steps++
	}
	return res, nil
}

func (s *Script) runStep(sm *SceneManager, st ScriptStep, out io.Writer, res *ScriptResult) error {
	switch st.Action {
	case "tick", "wait":
		frames := max(st.Frames, 1)
		dt := st.DT
		if dt <= 0 {
			dt = sm.PhysicsStep()
		}
		for range frames {
			if err := sm.Tick(dt); err != nil {
				return err
			}
			res.Ticks++
		}
	case "resize":
		sm.Resize(st.Width, st.Height)
	case "free":
		root := sm.Scene()
		if root == nil {
			return fmt.Errorf("no scene")
		}
		n, err := root.GetNode(st.Path)
		if err != nil {
			return err
		}
		n.QueueFree()
	case "press", "release", "tap":
		in, err := GetSystem[*InputSystem](sm)
		if err != nil {
			return err
		}
		switch st.Action {
		case "press":
			in.InjectPress(st.Input)
		case "release":
			in.InjectRelease(st.Input)
		default:
			in.InjectTap(st.Input)
		}
	case "dump":
		if out == nil {
			return nil
		}
		if st.Label != "" {
			if _, err := fmt.Fprintf(out, "# %s\n", st.Label); err != nil {
				return err
			}
		}
		if root := sm.Scene(); root != nil {
			return DumpTree(out, root)
		}
	}
	return nil
}
