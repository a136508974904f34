package canopy

import "fmt"

// Behavior holds per-node logic. The node it is bound to is passed to every
// callback.
//
// Lifecycle order over a subtree: EnterTree top-down, Ready bottom-up,
// ExitTree top-down. Update and PhysicsUpdate run children first, then self.
//
// Implementations embed BaseBehavior, which binds an instance to at most one
// node.
type Behavior interface {
	EnterTree(n *Node)
	Ready(n *Node)
	ExitTree(n *Node)
	Update(n *Node, dt float64)
	PhysicsUpdate(n *Node, dt float64)

	bind(n *Node) error
	unbind()
}

// BaseBehavior provides no-op callbacks and exclusive binding. Embed it and
// override the callbacks you need.
type BaseBehavior struct {
	node *Node
}

// Node returns the node the behavior is bound to, or nil.
func (b *BaseBehavior) Node() *Node { return b.node }

func (b *BaseBehavior) bind(n *Node) error {
	if b.node != nil && b.node != n {
		return fmt.Errorf("bind behavior to %q: %w (bound to %q)", n.name, ErrBehaviorBound, b.node.name)
	}
	b.node = n
	return nil
}

func (b *BaseBehavior) unbind() { b.node = nil }

// EnterTree does nothing.
func (b *BaseBehavior) EnterTree(*Node) {}

// Ready does nothing.
func (b *BaseBehavior) Ready(*Node) {}

// ExitTree does nothing.
func (b *BaseBehavior) ExitTree(*Node) {}

// Update does nothing.
func (b *BaseBehavior) Update(*Node, float64) {}

// PhysicsUpdate does nothing.
func (b *BaseBehavior) PhysicsUpdate(*Node, float64) {}

// BehaviorFuncs is a Behavior assembled from optional callbacks. Nil fields
// are skipped.
type BehaviorFuncs struct {
	BaseBehavior

	OnEnterTree     func(n *Node)
	OnReady         func(n *Node)
	OnExitTree      func(n *Node)
	OnUpdate        func(n *Node, dt float64)
	OnPhysicsUpdate func(n *Node, dt float64)
}

// EnterTree calls OnEnterTree if set.
func (f *BehaviorFuncs) EnterTree(n *Node) {
	if f.OnEnterTree != nil {
		f.OnEnterTree(n)
	}
}

// Ready calls OnReady if set.
func (f *BehaviorFuncs) Ready(n *Node) {
	if f.OnReady != nil {
		f.OnReady(n)
	}
}

// ExitTree calls OnExitTree if set.
func (f *BehaviorFuncs) ExitTree(n *Node) {
	if f.OnExitTree != nil {
		f.OnExitTree(n)
	}
}

// Update calls OnUpdate if set.
func (f *BehaviorFuncs) Update(n *Node, dt float64) {
	if f.OnUpdate != nil {
		f.OnUpdate(n, dt)
	}
}

// PhysicsUpdate calls OnPhysicsUpdate if set.
func (f *BehaviorFuncs) PhysicsUpdate(n *Node, dt float64) {
	if f.OnPhysicsUpdate != nil {
		f.OnPhysicsUpdate(n, dt)
	}
}

// Behavior returns the node's behavior, or nil.
func (n *Node) Behavior() Behavior { return n.behavior }

// SetBehavior binds b to the node, replacing (and detaching) any previous
// behavior. If the node is already inside a built tree, b receives EnterTree
// and, when the node is ready, Ready. Passing nil detaches.
func (n *Node) SetBehavior(b Behavior) error {
	if b == nil {
		n.DetachBehavior()
		return nil
	}
	if b == n.behavior {
		return nil
	}
	if err := b.bind(n); err != nil {
		return err
	}
	n.DetachBehavior()
	n.behavior = b
	if n.inside {
		b.EnterTree(n)
		if n.readied {
			b.Ready(n)
		}
	}
	return nil
}

// DetachBehavior unbinds and returns the node's behavior. A node inside a
// built tree runs the behavior's ExitTree first.
func (n *Node) DetachBehavior() Behavior {
	b := n.behavior
	if b == nil {
		return nil
	}
	if n.inside {
		b.ExitTree(n)
	}
	n.behavior = nil
	b.unbind()
	return b
}

// BehaviorAs returns the node's behavior asserted to T.
func BehaviorAs[T Behavior](n *Node) (T, bool) {
	b, ok := n.behavior.(T)
	return b, ok
}
