package canopy

// syntheticAction is a single injected action transition.
type syntheticAction struct {
	action  string
	pressed bool
}

// InjectPress queues a press of action. The event is consumed on the next
// frame and the action stays held until InjectRelease.
func (s *InputSystem) InjectPress(action string) {
	s.pending = append(s.pending, syntheticAction{action: action, pressed: true})
}

// InjectRelease queues a release of action.
func (s *InputSystem) InjectRelease(action string) {
	s.pending = append(s.pending, syntheticAction{action: action, pressed: false})
}

// InjectTap is a convenience that queues a press followed by a release.
// Consumes two frames.
func (s *InputSystem) InjectTap(action string) {
	s.InjectPress(action)
	s.InjectRelease(action)
}

// InjectHold queues a press, frames-2 frames of holding, and a release. The
// total sequence consumes frames frames. Minimum frames is 2.
func (s *InputSystem) InjectHold(action string, frames int) {
	if frames < 2 {
		frames = 2
	}
	s.InjectPress(action)
	for i := 0; i < frames-2; i++ {
		s.InjectPress(action)
	}
	s.InjectRelease(action)
}

// PendingInjected returns the number of queued injected transitions.
func (s *InputSystem) PendingInjected() int { return len(s.pending) }

// consumeInjected pops one queued transition per frame.
func (s *InputSystem) consumeInjected() {
	if len(s.pending) == 0 {
		return
	}
	evt := s.pending[0]
	copy(s.pending, s.pending[1:])
	s.pending = s.pending[:len(s.pending)-1]
	if evt.pressed {
		s.forced[evt.action] = true
	} else {
		delete(s.forced, evt.action)
	}
}
