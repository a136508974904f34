package canopy

import (
	"fmt"
	"math"
)

// identityTransform is the identity affine matrix.
var identityTransform = [6]float64{1, 0, 0, 1, 0, 0}

// computeLocalTransform computes the local affine matrix from the node's
// transform properties. Returns [a, b, c, d, tx, ty].
//
// Composition order:
//
//	Scale -> Rotate -> Translate(X, Y)
func computeLocalTransform(n *Node) [6]float64 {
	sin, cos := math.Sincos(n.rotation)
	sx, sy := n.scale.X, n.scale.Y
	return [6]float64{cos * sx, sin * sx, -sin * sy, cos * sy, n.position.X, n.position.Y}
}

// multiplyAffine multiplies two 2D affine matrices: result = parent * child.
//
//	Matrix layout: [a, b, c, d, tx, ty]
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
func multiplyAffine(p, c [6]float64) [6]float64 {
	return [6]float64{
		p[0]*c[0] + p[2]*c[1],
		p[1]*c[0] + p[3]*c[1],
		p[0]*c[2] + p[2]*c[3],
		p[1]*c[2] + p[3]*c[3],
		p[0]*c[4] + p[2]*c[5] + p[4],
		p[1]*c[4] + p[3]*c[5] + p[5],
	}
}

// invertAffine computes the inverse of a 2D affine matrix.
// Returns the identity matrix if the matrix is singular.
func invertAffine(m [6]float64) [6]float64 {
	det := m[0]*m[3] - m[2]*m[1]
	if det > -1e-12 && det < 1e-12 {
		return identityTransform
	}
	invDet := 1.0 / det
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	return [6]float64{
		a, b, c, d,
		-(a*m[4] + c*m[5]),
		-(b*m[4] + d*m[5]),
	}
}

// transformPoint applies an affine matrix to a point.
func transformPoint(m [6]float64, x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// markSubtreeDirty invalidates the cached world transform of node and every
// descendant.
func markSubtreeDirty(node *Node) {
	node.transformDirty = true
	for _, c := range node.children {
		markSubtreeDirty(c)
	}
}

// WorldTransform returns the node's world affine matrix, recomputing it
// (and any dirty ancestors) on demand.
func (n *Node) WorldTransform() [6]float64 {
	if n.transformDirty {
		local := computeLocalTransform(n)
		if n.parent != nil {
			n.worldTransform = multiplyAffine(n.parent.WorldTransform(), local)
		} else {
			n.worldTransform = local
		}
		n.transformDirty = false
	}
	return n.worldTransform
}

// --- Local transform ---

// Position returns the node's local position.
func (n *Node) Position() Vec2 { return n.position }

// Scale returns the node's local scale.
func (n *Node) Scale() Vec2 { return n.scale }

// Rotation returns the node's local rotation in radians.
func (n *Node) Rotation() float64 { return n.rotation }

// SetPosition sets the node's local position and marks it dirty.
// Fails with ErrTransformLocked while a TransformLock is held.
func (n *Node) SetPosition(x, y float64) error {
	if n.lock != nil {
		return n.lockedErr()
	}
	n.setPosition(Vec2{x, y})
	return nil
}

// Translate moves the node's local position by d.
func (n *Node) Translate(d Vec2) error {
	return n.SetPosition(n.position.X+d.X, n.position.Y+d.Y)
}

// SetScale sets the node's local scale and marks it dirty.
func (n *Node) SetScale(sx, sy float64) error {
	if n.lock != nil {
		return n.lockedErr()
	}
	n.scale = Vec2{sx, sy}
	markSubtreeDirty(n)
	return nil
}

// SetRotation sets the node's rotation (in radians) and marks it dirty.
func (n *Node) SetRotation(r float64) error {
	if n.lock != nil {
		return n.lockedErr()
	}
	n.setRotation(r)
	return nil
}

func (n *Node) setPosition(p Vec2) {
	n.position = p
	markSubtreeDirty(n)
}

func (n *Node) setRotation(r float64) {
	n.rotation = r
	markSubtreeDirty(n)
}

func (n *Node) lockedErr() error {
	return fmt.Errorf("set transform of %q: %w (held by %s)", n.path, ErrTransformLocked, n.lock.owner)
}

// --- Global transform ---

// GlobalPosition returns the node's position in root space.
func (n *Node) GlobalPosition() Vec2 {
	m := n.WorldTransform()
	return Vec2{m[4], m[5]}
}

// GlobalRotation returns the node's accumulated rotation in radians.
func (n *Node) GlobalRotation() float64 {
	m := n.WorldTransform()
	return math.Atan2(m[1], m[0])
}

// GlobalScale returns the magnitude of the node's accumulated scale on each
// axis. Reflections are not distinguished.
func (n *Node) GlobalScale() Vec2 {
	m := n.WorldTransform()
	return Vec2{math.Hypot(m[0], m[1]), math.Hypot(m[2], m[3])}
}

// ToGlobal converts a point from this node's local coordinate space to root space.
func (n *Node) ToGlobal(p Vec2) Vec2 {
	x, y := transformPoint(n.WorldTransform(), p.X, p.Y)
	return Vec2{x, y}
}

// ToLocal converts a root-space point into this node's local coordinate space.
func (n *Node) ToLocal(p Vec2) Vec2 {
	x, y := transformPoint(invertAffine(n.WorldTransform()), p.X, p.Y)
	return Vec2{x, y}
}

// --- Locking ---

// TransformLock gives its holder exclusive write access to a node's local
// position and rotation. While held, the node's public setters fail with
// ErrTransformLocked.
type TransformLock struct {
	node  *Node
	owner string
}

// LockTransform hands transform ownership to owner (a short description used
// in error messages). Fails with ErrTransformLocked if already locked.
func (n *Node) LockTransform(owner string) (*TransformLock, error) {
	if n.lock != nil {
		return nil, n.lockedErr()
	}
	l := &TransformLock{node: n, owner: owner}
	n.lock = l
	return l, nil
}

// IsTransformLocked reports whether a TransformLock is held on the node.
func (n *Node) IsTransformLocked() bool { return n.lock != nil }

// Node returns the locked node.
func (l *TransformLock) Node() *Node { return l.node }

// SetPosition sets the locked node's local position.
func (l *TransformLock) SetPosition(p Vec2) {
	if l.node != nil {
		l.node.setPosition(p)
	}
}

// SetRotation sets the locked node's local rotation.
func (l *TransformLock) SetRotation(r float64) {
	if l.node != nil {
		l.node.setRotation(r)
	}
}

// Release returns transform ownership to the node. Safe to call twice.
func (l *TransformLock) Release() {
	if l.node != nil && l.node.lock == l {
		l.node.lock = nil
	}
	l.node = nil
}
