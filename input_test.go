package canopy

import (
	"slices"
	"testing"
)

// fakeSource reports the binds in pressed as held.
type fakeSource struct {
	pressed map[InputBind]bool
	mods    KeyModifiers
}

func (f *fakeSource) IsPressed(b InputBind) bool { return f.pressed[b] }
func (f *fakeSource) Modifiers() KeyModifiers { return f.mods }

// inputListener records events and optionally handles one action.
type inputListener struct {
	BaseBehavior
	log    *[]string
	handle string
}

func (l *inputListener) Input(n *Node, ev *InputEvent) {
	*l.log = append(*l.log, n.Name()+":"+ev.Action+":"+ev.State.String())
	if ev.Action == l.handle {
		ev.SetHandled()
	}
}

func listen(log *[]string, handle string) NodeOption {
	return WithBehavior(&inputListener{log: log, handle: handle})
}

func TestInputMapper(t *testing.T) {
	m := NewInputMapper()
	m.Map("jump", Key("Space"))
	m.Map("fire", MouseButton("left"))
	m.Map("jump", Key("W"))
	if !slices.Equal(m.Actions(), []string{"jump", "fire"}) {
		t.Errorf("Actions = %v", m.Actions())
	}
	if got := m.Binds("jump"); len(got) != 2 || got[1] != Key("W") {
		t.Errorf("Binds(jump) = %v", got)
	}

	clone := NewInputMapperFrom(m.Data())
	if !slices.Equal(clone.Actions(), m.Actions()) || len(clone.Binds("jump")) != 2 {
		t.Error("Data round trip lost mappings")
	}

	m.Unmap("jump")
	if !slices.Equal(m.Actions(), []string{"fire"}) || m.Binds("jump") != nil {
		t.Error("Unmap should remove the action")
	}
}

func TestInputStateTransitions(t *testing.T) {
	src := &fakeSource{pressed: map[InputBind]bool{}}
	m := NewInputMapper()
	m.Map("jump", Key("Space"))
	in := NewInputSystem(m, src)
	sm := newTestScene(t, NewNode("root"))
	_ = sm.AddSystem(in)

	var states []string
	in.OnAction.Connect(func(ev *InputEvent) { states = append(states, ev.State.String()) })

	_ = sm.Tick(0)
	src.pressed[Key("Space")] = true
	_ = sm.Tick(0)
	_ = sm.Tick(0)
	if !in.IsHeld("jump") {
		t.Error("IsHeld(jump) = false while pressed")
	}
	src.pressed[Key("Space")] = false
	_ = sm.Tick(0)
	_ = sm.Tick(0)

	want := []string{"just_pressed", "pressed", "just_released"}
	if !slices.Equal(states, want) {
		t.Errorf("states = %v, want %v", states, want)
	}
	if len(in.Events()) != 0 {
		t.Errorf("idle frame events = %v", in.Events())
	}
}

func TestInputDispatchParentFirstUntilHandled(t *testing.T) {
	var log []string
	root := MustBuild("root", func(b *Builder) {
		b.Add("ui", func(b *Builder) {
			b.Add("button", nil, WithKinds(KindInputListener), listen(&log, "fire"))
			b.Add("label", nil, WithKinds(KindInputListener), listen(&log, ""))
		}, WithKinds(KindInputListener), listen(&log, ""))
		b.Add("player", nil, WithKinds(KindInputListener), listen(&log, ""))
	})
	src := &fakeSource{pressed: map[InputBind]bool{Key("Space"): true, MouseButton("left"): true}}
	m := NewInputMapper()
	m.Map("jump", Key("Space"))
	m.Map("fire", MouseButton("left"))
	sm := newTestScene(t, root)
	_ = sm.AddSystem(NewInputSystem(m, src))

	_ = sm.Tick(0)

	want := []string{
		"ui:jump:just_pressed", "button:jump:just_pressed", "label:jump:just_pressed",
		"ui:fire:just_pressed", "button:fire:just_pressed",
		"player:jump:just_pressed",
	}
	if !slices.Equal(log, want) {
		t.Errorf("log = %v\nwant %v", log, want)
	}
}

func TestInputEventPredicates(t *testing.T) {
	ev := &InputEvent{Action: "jump", State: InputJustPressed, Modifiers: ModShift | ModCtrl}
	if !ev.IsActionPressed("jump") || !ev.IsActionJustPressed("jump") || ev.IsActionJustReleased("jump") {
		t.Error("just pressed predicates")
	}
	if ev.IsActionPressed("fire") {
		t.Error("predicates should check the action name")
	}
	ev.State = InputJustReleased
	if ev.IsActionPressed("jump") || !ev.IsActionJustReleased("jump") {
		t.Error("just released predicates")
	}
	if ev.Handled() {
		t.Error("fresh event handled")
	}
	ev.SetHandled()
	if !ev.Handled() {
		t.Error("SetHandled had no effect")
	}
	if ev.Modifiers&ModCtrl == 0 || ev.Modifiers&ModAlt != 0 {
		t.Errorf("Modifiers = %b", ev.Modifiers)
	}
	if InputState(9).String() != "unknown" {
		t.Error("unknown state name")
	}
}

func TestIsKnownBind(t *testing.T) {
	for _, b := range []InputBind{Key("a"), Key("Space"), Key("ArrowLeft"), MouseButton("Right")} {
		if !IsKnownBind(b) {
			t.Errorf("IsKnownBind(%v) = false", b)
		}
	}
	for _, b := range []InputBind{Key("F99"), MouseButton("side"), {Device: "pad", Code: "a"}} {
		if IsKnownBind(b) {
			t.Errorf("IsKnownBind(%v) = true", b)
		}
	}
}
