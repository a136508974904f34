package canopy

import (
	"math"
	"math/bits"
	"strconv"
	"strings"
)

// Vec2 is a 2D vector used for positions, scales, velocities, and sizes
// throughout the API.
type Vec2 struct {
	X, Y float64
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Scale returns v multiplied by s.
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }

// Len returns the Euclidean length of v.
func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Intersects reports whether r and other overlap.
// Adjacent rectangles (sharing only an edge) are considered intersecting.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.X+other.Width &&
		r.X+r.Width >= other.X &&
		r.Y <= other.Y+other.Height &&
		r.Y+r.Height >= other.Y
}

// Translate returns r moved by d.
func (r Rect) Translate(d Vec2) Rect {
	return Rect{r.X + d.X, r.Y + d.Y, r.Width, r.Height}
}

// Kind is a capability tag carried by a node. Systems declare the kinds they
// are interested in and nodes are matched with a bitset test, so there are at
// most 64 kinds.
type Kind uint8

const (
	KindNode          Kind = iota // implied on every node; systems requiring it match all nodes
	KindBody                      // physics body (physics package)
	KindShape                     // collision shape owned by a body
	KindAnimated                  // carries an *Animator component
	KindInputListener             // receives InputEvents from the InputSystem
	KindCamera                    // camera / viewport anchor for renderers
	KindSprite                    // drawable for an external renderer

	// KindUser is the first kind available to applications.
	KindUser Kind = 32

	maxKind Kind = 63
)

var kindNames = [...]string{
	KindNode:          "node",
	KindBody:          "body",
	KindShape:         "shape",
	KindAnimated:      "animated",
	KindInputListener: "input_listener",
	KindCamera:        "camera",
	KindSprite:        "sprite",
}

// String returns the kind's name, or "user+N" for application kinds.
func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	if k >= KindUser {
		return "user+" + strconv.Itoa(int(k-KindUser))
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// KindSet is a bitset of Kinds.
type KindSet uint64

// Kinds builds a KindSet from the given kinds. Panics on a kind above 63.
func Kinds(kinds ...Kind) KindSet {
	var s KindSet
	for _, k := range kinds {
		if k > maxKind {
			panic("canopy: kind out of range")
		}
		s |= 1 << k
	}
	return s
}

// Has reports whether k is in the set.
func (s KindSet) Has(k Kind) bool { return s&(1<<k) != 0 }

// Intersects reports whether s and o share at least one kind.
func (s KindSet) Intersects(o KindSet) bool { return s&o != 0 }

// Each calls fn for every kind in the set in ascending order.
func (s KindSet) Each(fn func(Kind)) {
	for s != 0 {
		k := Kind(bits.TrailingZeros64(uint64(s)))
		fn(k)
		s &^= 1 << k
	}
}

// String lists the kinds in the set, e.g. "body|shape".
func (s KindSet) String() string {
	if s == 0 {
		return "none"
	}
	var b strings.Builder
	s.Each(func(k Kind) {
		if b.Len() > 0 {
			b.WriteByte('|')
		}
		b.WriteString(k.String())
	})
	return b.String()
}

// Phase is a scheduling bucket that orders system execution relative to the
// tree's update passes. Within a tick the order is:
//
//	PhasePhysicsPre -> tree physics update -> PhasePhysicsPost ->
//	PhaseFramePre -> tree update -> PhaseFramePost
type Phase uint8

const (
	PhasePhysicsPre  Phase = iota // before the fixed-step tree physics update
	PhasePhysicsPost              // after the fixed-step tree physics update
	PhaseFramePre                 // before the per-frame tree update
	PhaseFramePost                // after the per-frame tree update

	phaseCount
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhasePhysicsPre:
		return "physics_pre"
	case PhasePhysicsPost:
		return "physics_post"
	case PhaseFramePre:
		return "frame_pre"
	case PhaseFramePost:
		return "frame_post"
	default:
		return "unknown"
	}
}
