// Package physics provides kinematic bodies with axis-aligned box shapes for
// canopy scenes.
//
// A body node carries a *Body component and is an aggregate, so the physics
// System (which requires KindShape) matches it through the shape nodes below
// it. Shapes may also sit on the body node itself.
//
//	player := physics.NewBody("player", &physics.Body{GravityScale: 1})
//	_ = player.AddChild(canopy.NewNode("hitbox", physics.WithShape(physics.Box(16, 32))))
package physics

import (
	"math"

	"github.com/phanxgames/canopy"
)

// Body is the physics state of a body node. While the node is registered
// with a System its transform is locked and only the System moves it.
type Body struct {
	Velocity     canopy.Vec2
	GravityScale float64
	// Static bodies never move but still report contacts with moving ones.
	Static bool
	// Sensor bodies report contacts but are never pushed out of, or push
	// other bodies out of, static bodies.
	Sensor bool

	// OnContactBegin fires with the other body node when a contact starts.
	OnContactBegin canopy.Signal[*canopy.Node]
	// OnContactEnd fires with the other body node when a contact ends or the
	// other body leaves the simulation.
	OnContactEnd canopy.Signal[*canopy.Node]

	lock *canopy.TransformLock
}

// Shape is an axis-aligned box centered on its node's origin plus Offset,
// in the node's local units.
type Shape struct {
	Offset canopy.Vec2
	Size   canopy.Vec2
}

// Box returns a shape of the given size centered on its node.
func Box(width, height float64) Shape {
	return Shape{Size: canopy.Vec2{X: width, Y: height}}
}

// WithBody attaches b to the node and makes it an aggregate.
func WithBody(b *Body) canopy.NodeOption {
	return func(n *canopy.Node) {
		canopy.AsAggregate()(n)
		n.SetComponent(canopy.KindBody, b)
	}
}

// WithShape attaches s to the node.
func WithShape(s Shape) canopy.NodeOption {
	return func(n *canopy.Node) {
		n.SetComponent(canopy.KindShape, &s)
	}
}

// NewBody returns a body node named name.
func NewBody(name string, b *Body, opts ...canopy.NodeOption) *canopy.Node {
	return canopy.NewNode(name, append(opts, WithBody(b))...)
}

// BodyOf returns the node's body, if any.
func BodyOf(n *canopy.Node) (*Body, bool) {
	return canopy.ComponentOf[*Body](n, canopy.KindBody)
}

// ShapeOf returns the node's shape, if any.
func ShapeOf(n *canopy.Node) (*Shape, bool) {
	return canopy.ComponentOf[*Shape](n, canopy.KindShape)
}

// Bounds returns the shape's world-space bounding box on node n. Rotation is
// ignored.
func (s *Shape) Bounds(n *canopy.Node) canopy.Rect {
	c := n.ToGlobal(s.Offset)
	sc := n.GlobalScale()
	w := s.Size.X * math.Abs(sc.X)
	h := s.Size.Y * math.Abs(sc.Y)
	return canopy.Rect{X: c.X - w/2, Y: c.Y - h/2, Width: w, Height: h}
}

// bodyBounds returns the world bounds of every shape owned by body node n.
// Shapes under a nested body belong to that body.
func bodyBounds(n *canopy.Node, dst []canopy.Rect) []canopy.Rect {
	if s, ok := ShapeOf(n); ok {
		dst = append(dst, s.Bounds(n))
	}
	for _, c := range n.Children() {
		if c.HasKind(canopy.KindBody) {
			continue
		}
		dst = bodyBounds(c, dst)
	}
	return dst
}

// Teleport moves node n to local position p and, if n is a body, stops it.
// It works whether or not a System holds the node's transform.
func Teleport(n *canopy.Node, p canopy.Vec2) error {
	b, ok := BodyOf(n)
	if !ok {
		return n.SetPosition(p.X, p.Y)
	}
	b.Velocity = canopy.Vec2{}
	if b.lock != nil {
		b.lock.SetPosition(p)
		return nil
	}
	return n.SetPosition(p.X, p.Y)
}
