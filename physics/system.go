package physics

import (
	"cmp"
	"slices"

	"github.com/phanxgames/canopy"
)

// Token is the injector token the System provides itself under.
var Token = canopy.NewToken[*System]("physics")

// Contact is a pair of touching body nodes. A has the lower node ID.
type Contact struct {
	A, B *canopy.Node
}

// Other returns the body in c that is not n.
func (c Contact) Other(n *canopy.Node) *canopy.Node {
	if c.A == n {
		return c.B
	}
	return c.A
}

func makeContact(a, b *canopy.Node) Contact {
	if b.ID() < a.ID() {
		a, b = b, a
	}
	return Contact{A: a, B: b}
}

// System integrates body velocities once per physics step, keeps moving
// bodies out of static ones and reports overlapping bodies as contacts. It runs in PhasePhysicsPre and matches
// aggregate body nodes through their shapes.
type System struct {
	canopy.SystemBase

	// Gravity is added to every non-static body's velocity, scaled by its
	// GravityScale, each step.
	Gravity canopy.Vec2

	// ContactBegan and ContactEnded fire once per pair, after the per-body
	// signals.
	ContactBegan canopy.Signal[Contact]
	ContactEnded canopy.Signal[Contact]

	bodies   []*canopy.Node
	contacts map[Contact]struct{}
}

// NewSystem returns a physics system with the given gravity.
func NewSystem(gravity canopy.Vec2) *System {
	return &System{
		SystemBase: canopy.NewSystemBase(canopy.SystemConfig{
			Name:     "physics",
			Phase:    canopy.PhasePhysicsPre,
			Requires: canopy.Kinds(canopy.KindShape),
		}),
		Gravity:  gravity,
		contacts: make(map[Contact]struct{}),
	}
}

// OnRegister provides the system to the scene's Injector, if the scene has
// a registry holding one.
func (s *System) OnRegister(sm *canopy.SceneManager) {
	inj, ok := injectorOf(sm)
	if !ok {
		return
	}
	if err := canopy.ProvideValue(inj, Token, s); err != nil {
		s.Logger().Warn("physics system not provided", "event", "physics.provide", "error", err)
	}
}

// OnUnregister revokes the injector entry.
func (s *System) OnUnregister(sm *canopy.SceneManager) {
	if inj, ok := injectorOf(sm); ok {
		canopy.Revoke(inj, Token)
	}
}

func injectorOf(sm *canopy.SceneManager) (*canopy.Injector, bool) {
	r := sm.Registry()
	if r == nil {
		return nil, false
	}
	inj, err := canopy.Get[*canopy.Injector](r)
	return inj, err == nil
}

// OnNodeAdded starts simulating body nodes and takes their transform lock.
func (s *System) OnNodeAdded(n *canopy.Node) {
	b, ok := BodyOf(n)
	if !ok {
		return
	}
	lock, err := n.LockTransform("physics")
	if err != nil {
		s.Logger().Warn("body transform already locked",
			"event", "physics.lock",
			"node_path", n.Path(),
			"error", err)
	}
	b.lock = lock
	s.bodies = append(s.bodies, n)
}

// OnNodeRemoved stops simulating n, releases its transform and ends its
// contacts.
func (s *System) OnNodeRemoved(n *canopy.Node) {
	i := slices.Index(s.bodies, n)
	if i < 0 {
		return
	}
	s.bodies = slices.Delete(s.bodies, i, i+1)
	if b, ok := BodyOf(n); ok && b.lock != nil {
		b.lock.Release()
		b.lock = nil
	}
	for c := range s.contacts {
		if c.A == n || c.B == n {
			s.endContact(c)
		}
	}
}

// Bodies returns the simulated body nodes in registration order.
func (s *System) Bodies() []*canopy.Node { return s.bodies }

// ProcessNode advances one body by dt.
func (s *System) ProcessNode(n *canopy.Node, dt float64) error {
	b, ok := BodyOf(n)
	if !ok || b.Static || b.lock == nil {
		return nil
	}
	b.Velocity = b.Velocity.Add(s.Gravity.Scale(b.GravityScale * dt))
	b.lock.SetPosition(n.Position().Add(b.Velocity.Scale(dt)))
	if !b.Sensor {
		s.resolveStatic(n, b)
	}
	return nil
}

// resolveStatic pushes n out of every static body it overlaps along the axis
// of least penetration and cancels its velocity along that axis.
func (s *System) resolveStatic(n *canopy.Node, b *Body) {
	for _, o := range s.bodies {
		ob, _ := BodyOf(o)
		if o == n || !ob.Static || ob.Sensor {
			continue
		}
		for _, rs := range bodyBounds(o, nil) {
			for _, rd := range bodyBounds(n, nil) {
				d, ok := separation(rd, rs)
				if !ok {
					continue
				}
				b.lock.SetPosition(n.Position().Add(d))
				if d.X != 0 {
					b.Velocity.X = 0
				}
				if d.Y != 0 {
					b.Velocity.Y = 0
				}
			}
		}
	}
}

// separation returns the smallest translation moving a out of b, and false
// if they do not strictly overlap.
func separation(a, b canopy.Rect) (canopy.Vec2, bool) {
	ox := min(a.X+a.Width, b.X+b.Width) - max(a.X, b.X)
	oy := min(a.Y+a.Height, b.Y+b.Height) - max(a.Y, b.Y)
	if ox <= 0 || oy <= 0 {
		return canopy.Vec2{}, false
	}
	if oy <= ox {
		if a.Y+a.Height/2 < b.Y+b.Height/2 {
			return canopy.Vec2{Y: -oy}, true
		}
		return canopy.Vec2{Y: oy}, true
	}
	if a.X+a.Width/2 < b.X+b.Width/2 {
		return canopy.Vec2{X: -ox}, true
	}
	return canopy.Vec2{X: ox}, true
}

// AfterProcess finds the overlapping body pairs and emits contact changes.
func (s *System) AfterProcess(float64) error {
	bounds := make([][]canopy.Rect, len(s.bodies))
	for i, n := range s.bodies {
		bounds[i] = bodyBounds(n, nil)
	}

	current := make(map[Contact]struct{})
	for i, a := range s.bodies {
		ba, _ := BodyOf(a)
		for j := i + 1; j < len(s.bodies); j++ {
			b := s.bodies[j]
			bb, _ := BodyOf(b)
			if ba.Static && bb.Static {
				continue
			}
			if overlaps(bounds[i], bounds[j]) {
				current[makeContact(a, b)] = struct{}{}
			}
		}
	}

	for _, c := range sortedContacts(s.contacts) {
		if _, ok := current[c]; !ok {
			s.endContact(c)
		}
	}
	for _, c := range sortedContacts(current) {
		if _, ok := s.contacts[c]; ok {
			continue
		}
		s.contacts[c] = struct{}{}
		if b, ok := BodyOf(c.A); ok {
			b.OnContactBegin.Emit(c.B)
		}
		if b, ok := BodyOf(c.B); ok {
			b.OnContactBegin.Emit(c.A)
		}
		s.ContactBegan.Emit(c)
	}
	return nil
}

func (s *System) endContact(c Contact) {
	delete(s.contacts, c)
	if b, ok := BodyOf(c.A); ok {
		b.OnContactEnd.Emit(c.B)
	}
	if b, ok := BodyOf(c.B); ok {
		b.OnContactEnd.Emit(c.A)
	}
	s.ContactEnded.Emit(c)
}

// Contacts returns the pairs touching as of the last step, ordered by the
// IDs of A then B.
func (s *System) Contacts() []Contact { return sortedContacts(s.contacts) }

func sortedContacts(set map[Contact]struct{}) []Contact {
	out := make([]Contact, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	slices.SortFunc(out, func(x, y Contact) int {
		if c := cmp.Compare(x.A.ID(), y.A.ID()); c != 0 {
			return c
		}
		return cmp.Compare(x.B.ID(), y.B.ID())
	})
	return out
}

// InContact reports whether a and b touched as of the last step.
func (s *System) InContact(a, b *canopy.Node) bool {
	_, ok := s.contacts[makeContact(a, b)]
	return ok
}

// QueryPoint returns the bodies with a shape containing the world point p.
func (s *System) QueryPoint(p canopy.Vec2) []*canopy.Node {
	var out []*canopy.Node
	for _, n := range s.bodies {
		for _, r := range bodyBounds(n, nil) {
			if r.Contains(p.X, p.Y) {
				out = append(out, n)
				break
			}
		}
	}
	return out
}

// contactSlop widens shapes for contact detection so a body resting on a
// static one stays in contact.
const contactSlop = 0.01

func overlaps(a, b []canopy.Rect) bool {
	for _, ra := range a {
		ra = canopy.Rect{X: ra.X - contactSlop, Y: ra.Y - contactSlop, Width: ra.Width + 2*contactSlop, Height: ra.Height + 2*contactSlop}
		for _, rb := range b {
			if ra.Intersects(rb) {
				return true
			}
		}
	}
	return false
}
