package canopy

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoadScript(t *testing.T) {
	data := []byte(`
steps:
  - {action: resize, width: 320, height: 240}
  - {action: tick, frames: 3}
  - {action: tap, input: jump}
  - {action: free, path: /enemies/e1}
  - {action: dump, label: after}
`)
	s, err := LoadScript(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Steps) != 5 {
		t.Fatalf("expected 5 steps, got %d", len(s.Steps))
	}
	if s.Steps[0].Action != "resize" || s.Steps[0].Width != 320 || s.Steps[0].Height != 240 {
		t.Error("step 0 mismatch")
	}
	if s.Steps[1].Frames != 3 || s.Steps[3].Path != "/enemies/e1" || s.Steps[4].Label != "after" {
		t.Error("step fields mismatch")
	}
}

func TestLoadScriptJSON(t *testing.T) {
	s, err := LoadScript([]byte(`{"steps": [{"action": "wait", "frames": 2}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if s.Steps[0].Action != "wait" || s.Steps[0].Frames != 2 {
		t.Errorf("step = %+v", s.Steps[0])
	}
}

func TestLoadScriptInvalid(t *testing.T) {
	tests := map[string]string{
		"syntax":         `steps: [`,
		"empty":          `steps: []`,
		"unknown action": `steps: [{action: click}]`,
		"free no path":   `steps: [{action: free}]`,
		"tap no input":   `steps: [{action: tap}]`,
		"negative":       `steps: [{action: tick, frames: -1}]`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadScript([]byte(data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestScriptRun(t *testing.T) {
	root := MustBuild("level", func(b *Builder) {
		b.Add("enemies", func(b *Builder) {
			b.Add("e1", nil, WithGroups("hostile"))
			b.Add("e2", nil, WithGroups("hostile"))
		})
	})
	m := NewInputMapper()
	m.Map("jump", Key("Space"))
	in := NewInputSystem(m, nil)
	sm := newTestScene(t, root)
	_ = sm.AddSystem(in)
	var jumps int
	in.OnAction.Connect(func(ev *InputEvent) {
		if ev.IsActionJustPressed("jump") {
			jumps++
		}
	})

	s, err := LoadScript([]byte(`
steps:
  - {action: resize, width: 320, height: 240}
  - {action: tick, frames: 2}
  - {action: tap, input: jump}
  - {action: tick, frames: 2}
  - {action: free, path: /enemies/e1}
  - {action: dump, label: after-free}
`))
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	res, err := s.Run(sm, &out)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Ticks != 4 || res.Steps != 6 {
		t.Errorf("result = %+v, want 4 ticks 6 steps", res)
	}
	if sm.Size.Get() != (Vec2{320, 240}) {
		t.Errorf("Size = %v", sm.Size.Get())
	}
	if jumps != 1 {
		t.Errorf("jumps = %d, want 1", jumps)
	}
	if root.MustGetNode("enemies").Child("e1") != nil {
		t.Error("e1 should be freed")
	}
	dump := out.String()
	if !strings.HasPrefix(dump, "# after-free\nlevel") || strings.Contains(dump, "e1") || !strings.Contains(dump, "e2") {
		t.Errorf("dump = %q", dump)
	}
}

func TestScriptRunErrors(t *testing.T) {
	sm := newTestScene(t, NewNode("root"))
	s, _ := LoadScript([]byte(`steps: [{action: free, path: /missing}]`))
	if _, err := s.Run(sm, nil); err == nil || !strings.Contains(err.Error(), "script step 0 (free)") {
		t.Errorf("err = %v", err)
	}

	s, _ = LoadScript([]byte(`steps: [{action: tap, input: jump}]`))
	if _, err := s.Run(sm, nil); err == nil {
		t.Error("tap without an input system should fail")
	}
}
