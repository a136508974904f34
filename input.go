package canopy

import (
	"slices"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
)

// InputState is the phase of an action within the current frame.
type InputState uint8

const (
	InputJustPressed  InputState = iota // pressed this frame
	InputPressed                        // held since an earlier frame
	InputJustReleased                   // released this frame
)

// String returns the state name.
func (s InputState) String() string {
	switch s {
	case InputJustPressed:
		return "just_pressed"
	case InputPressed:
		return "pressed"
	case InputJustReleased:
		return "just_released"
	default:
		return "unknown"
	}
}

// KeyModifiers is a bitmask of held modifier keys.
type KeyModifiers uint8

const (
	ModShift KeyModifiers = 1 << iota
	ModCtrl
	ModAlt
	ModMeta
)

// InputEvent reports one mapped action for the current frame. It is
// delivered to listener nodes parent first until a handler marks it handled.
type InputEvent struct {
	Action    string
	State     InputState
	Modifiers KeyModifiers
	handled   bool
}

// IsActionPressed reports whether the event is action being held or pressed.
func (e *InputEvent) IsActionPressed(action string) bool {
	return e.Action == action && (e.State == InputPressed || e.State == InputJustPressed)
}

// IsActionJustPressed reports whether action went down this frame.
func (e *InputEvent) IsActionJustPressed(action string) bool {
	return e.Action == action && e.State == InputJustPressed
}

// IsActionJustReleased reports whether action went up this frame.
func (e *InputEvent) IsActionJustReleased(action string) bool {
	return e.Action == action && e.State == InputJustReleased
}

// SetHandled stops further propagation of the event.
func (e *InputEvent) SetHandled() { e.handled = true }

// Handled reports whether a listener handled the event.
func (e *InputEvent) Handled() bool { return e.handled }

// InputHandler is implemented by behaviors of KindInputListener nodes that
// want input events.
type InputHandler interface {
	Input(n *Node, ev *InputEvent)
}

// InputBind is one physical trigger of an action.
type InputBind struct {
	// Device is "key" or "mouse".
	Device string `yaml:"device" json:"device"`
	// Code is a key name ("A", "Space", "ArrowLeft", ...) or mouse button
	// ("left", "right", "middle").
	Code string `yaml:"code" json:"code"`
}

// Key returns a keyboard bind.
func Key(code string) InputBind { return InputBind{Device: "key", Code: code} }

// MouseButton returns a mouse button bind.
func MouseButton(code string) InputBind { return InputBind{Device: "mouse", Code: code} }

// InputEntry maps one action to its binds.
type InputEntry struct {
	Name  string      `yaml:"name" json:"name"`
	Binds []InputBind `yaml:"binds" json:"binds"`
}

// InputData is the serializable form of an InputMapper.
type InputData struct {
	Mappings []InputEntry `yaml:"mappings" json:"mappings"`
}

// InputMapper maps named actions to physical binds.
type InputMapper struct {
	actions []string
	binds   map[string][]InputBind
}

// NewInputMapper returns an empty mapper.
func NewInputMapper() *InputMapper {
	return &InputMapper{binds: make(map[string][]InputBind)}
}

// NewInputMapperFrom builds a mapper from its serialized form.
func NewInputMapperFrom(d InputData) *InputMapper {
	m := NewInputMapper()
	for _, e := range d.Mappings {
		m.Map(e.Name, e.Binds...)
	}
	return m
}

// Map adds binds to action, creating the action if needed.
func (m *InputMapper) Map(action string, binds ...InputBind) {
	if _, ok := m.binds[action]; !ok {
		m.actions = append(m.actions, action)
	}
	m.binds[action] = append(m.binds[action], binds...)
}

// Unmap removes action.
func (m *InputMapper) Unmap(action string) {
	delete(m.binds, action)
	m.actions = slices.DeleteFunc(m.actions, func(a string) bool { return a == action })
}

// Actions returns the mapped actions in insertion order.
func (m *InputMapper) Actions() []string { return m.actions }

// Binds returns the binds of action.
func (m *InputMapper) Binds(action string) []InputBind { return m.binds[action] }

// Data returns the serializable form of the mapper.
func (m *InputMapper) Data() InputData {
	d := InputData{Mappings: make([]InputEntry, 0, len(m.actions))}
	for _, a := range m.actions {
		d.Mappings = append(d.Mappings, InputEntry{Name: a, Binds: slices.Clone(m.binds[a])})
	}
	return d
}

// InputSource reports the physical state of binds.
type InputSource interface {
	IsPressed(b InputBind) bool
	Modifiers() KeyModifiers
}

// InputSystem polls an InputSource once per frame, turns mapped actions
// into InputEvents and delivers them to KindInputListener nodes whose
// behavior implements InputHandler. Delivery starts at listeners whose
// parent is not a listener and continues into listener children, parents
// first, until a handler calls SetHandled.
type InputSystem struct {
	SystemBase

	mapper  *InputMapper
	source  InputSource
	held    map[string]bool
	forced  map[string]bool
	pending []syntheticAction
	events  []*InputEvent

	// OnAction fires for every event built this frame, before delivery.
	OnAction Signal[*InputEvent]
}

// NewInputSystem returns an input system. A nil source reads nothing, which
// is useful with injected actions only.
func NewInputSystem(mapper *InputMapper, source InputSource) *InputSystem {
	if mapper == nil {
		mapper = NewInputMapper()
	}
	return &InputSystem{
		SystemBase: NewSystemBase(SystemConfig{
			Name:     "input",
			Phase:    PhaseFramePre,
			Priority: -10,
			Requires: Kinds(KindInputListener),
		}),
		mapper: mapper,
		source: source,
		held:   make(map[string]bool),
		forced: make(map[string]bool),
	}
}

// Mapper returns the action mapper.
func (s *InputSystem) Mapper() *InputMapper { return s.mapper }

// Events returns the events built for the current frame.
func (s *InputSystem) Events() []*InputEvent { return s.events }

// IsHeld reports whether action is down as of the current frame.
func (s *InputSystem) IsHeld(action string) bool { return s.held[action] }

// BeforeProcess polls the source and builds this frame's events.
func (s *InputSystem) BeforeProcess(float64) error {
	s.consumeInjected()

	var mods KeyModifiers
	if s.source != nil {
		mods = s.source.Modifiers()
	}
	s.events = s.events[:0]
	for _, action := range s.mapper.actions {
		down := s.forced[action]
		if !down && s.source != nil {
			for _, b := range s.mapper.binds[action] {
				if s.source.IsPressed(b) {
					down = true
					break
				}
			}
		}
		was := s.held[action]
		s.held[action] = down
		var state InputState
		switch {
		case down && !was:
			state = InputJustPressed
		case down && was:
			state = InputPressed
		case !down && was:
			state = InputJustReleased
		default:
			continue
		}
		ev := &InputEvent{Action: action, State: state, Modifiers: mods}
		s.events = append(s.events, ev)
		s.OnAction.Emit(ev)
	}
	return nil
}

// ProcessNode delivers the frame's events into the listener subtree rooted
// at n. Listeners with a listener parent are reached through that parent.
func (s *InputSystem) ProcessNode(n *Node, _ float64) error {
	if p := n.parent; p != nil && p.kinds.Has(KindInputListener) {
		return nil
	}
	for _, ev := range s.events {
		dispatchInput(n, ev)
	}
	return nil
}

func dispatchInput(n *Node, ev *InputEvent) {
	if ev.handled || !n.inside {
		return
	}
	if h, ok := n.behavior.(InputHandler); ok {
		h.Input(n, ev)
	}
	for _, c := range n.children {
		if ev.handled {
			return
		}
		if c.kinds.Has(KindInputListener) {
			dispatchInput(c, ev)
		}
	}
}

// EbitenInput reads the keyboard and mouse through ebiten.
type EbitenInput struct{}

// IsPressed implements InputSource.
func (EbitenInput) IsPressed(b InputBind) bool {
	switch b.Device {
	case "key":
		k, ok := ebitenKeys[strings.ToLower(b.Code)]
		return ok && ebiten.IsKeyPressed(k)
	case "mouse":
		btn, ok := ebitenMouseButtons[strings.ToLower(b.Code)]
		return ok && ebiten.IsMouseButtonPressed(btn)
	}
	return false
}

// Modifiers implements InputSource.
func (EbitenInput) Modifiers() KeyModifiers {
	var m KeyModifiers
	if ebiten.IsKeyPressed(ebiten.KeyShift) || ebiten.IsKeyPressed(ebiten.KeyShiftLeft) || ebiten.IsKeyPressed(ebiten.KeyShiftRight) {
		m |= ModShift
	}
	if ebiten.IsKeyPressed(ebiten.KeyControl) || ebiten.IsKeyPressed(ebiten.KeyControlLeft) || ebiten.IsKeyPressed(ebiten.KeyControlRight) {
		m |= ModCtrl
	}
	if ebiten.IsKeyPressed(ebiten.KeyAlt) || ebiten.IsKeyPressed(ebiten.KeyAltLeft) || ebiten.IsKeyPressed(ebiten.KeyAltRight) {
		m |= ModAlt
	}
	if ebiten.IsKeyPressed(ebiten.KeyMeta) || ebiten.IsKeyPressed(ebiten.KeyMetaLeft) || ebiten.IsKeyPressed(ebiten.KeyMetaRight) {
		m |= ModMeta
	}
	return m
}

// IsKnownBind reports whether EbitenInput understands b.
func IsKnownBind(b InputBind) bool {
	code := strings.ToLower(b.Code)
	switch b.Device {
	case "key":
		_, ok := ebitenKeys[code]
		return ok
	case "mouse":
		_, ok := ebitenMouseButtons[code]
		return ok
	}
	return false
}

var ebitenMouseButtons = map[string]ebiten.MouseButton{
	"left":   ebiten.MouseButtonLeft,
	"right":  ebiten.MouseButtonRight,
	"middle": ebiten.MouseButtonMiddle,
}

var ebitenKeys = map[string]ebiten.Key{
	"a": ebiten.KeyA, "b": ebiten.KeyB, "c": ebiten.KeyC, "d": ebiten.KeyD,
	"e": ebiten.KeyE, "f": ebiten.KeyF, "g": ebiten.KeyG, "h": ebiten.KeyH,
	"i": ebiten.KeyI, "j": ebiten.KeyJ, "k": ebiten.KeyK, "l": ebiten.KeyL,
	"m": ebiten.KeyM, "n": ebiten.KeyN, "o": ebiten.KeyO, "p": ebiten.KeyP,
	"q": ebiten.KeyQ, "r": ebiten.KeyR, "s": ebiten.KeyS, "t": ebiten.KeyT,
	"u": ebiten.KeyU, "v": ebiten.KeyV, "w": ebiten.KeyW, "x": ebiten.KeyX,
	"y": ebiten.KeyY, "z": ebiten.KeyZ,

	"0": ebiten.KeyDigit0, "1": ebiten.KeyDigit1, "2": ebiten.KeyDigit2,
	"3": ebiten.KeyDigit3, "4": ebiten.KeyDigit4, "5": ebiten.KeyDigit5,
	"6": ebiten.KeyDigit6, "7": ebiten.KeyDigit7, "8": ebiten.KeyDigit8,
	"9": ebiten.KeyDigit9,

	"arrowup":    ebiten.KeyArrowUp,
	"arrowdown":  ebiten.KeyArrowDown,
	"arrowleft":  ebiten.KeyArrowLeft,
	"arrowright": ebiten.KeyArrowRight,
	"space":      ebiten.KeySpace,
	"enter":      ebiten.KeyEnter,
	"escape":     ebiten.KeyEscape,
	"tab":        ebiten.KeyTab,
	"backspace":  ebiten.KeyBackspace,
	"shift":      ebiten.KeyShift,
	"control":    ebiten.KeyControl,
	"alt":        ebiten.KeyAlt,
	"f12":        ebiten.KeyF12,
}
