package canopy

import (
	"errors"
	"fmt"
)

// Builder assembles a tree declaratively. It keeps a stack of open parents:
// nodes created inside an Add callback attach to the node that callback was
// opened for.
//
//	root, err := canopy.Build("level", func(b *canopy.Builder) {
//		b.Add("player", func(b *canopy.Builder) {
//			b.Add("sprite", nil, canopy.WithKinds(canopy.KindSprite))
//		}, canopy.WithPosition(10, 20))
//		b.Add("enemies", nil, canopy.WithGroups("hostile"))
//	})
//
// Errors (duplicate sibling names, cycles) are collected and returned from
// Build; construction continues past them so all problems are reported.
type Builder struct {
	stack []*Node
	errs  []error
}

// Build creates a detached root named name, runs fn with a Builder whose
// open node is that root, and returns the root. The tree receives no
// lifecycle callbacks until it is made a scene or attached to a built tree.
func Build(name string, fn func(b *Builder), opts ...NodeOption) (*Node, error) {
	root := NewNode(name, opts...)
	b := &Builder{stack: []*Node{root}}
	if fn != nil {
		fn(b)
	}
	if err := errors.Join(b.errs...); err != nil {
		return root, fmt.Errorf("build %q: %w", name, err)
	}
	return root, nil
}

// MustBuild is like Build but panics on error.
func MustBuild(name string, fn func(b *Builder), opts ...NodeOption) *Node {
	root, err := Build(name, fn, opts...)
	if err != nil {
		panic("canopy: " + err.Error())
	}
	return root
}

// Current returns the currently open node.
func (b *Builder) Current() *Node {
	return b.stack[len(b.stack)-1]
}

// Add creates a node named name under the open node and, if fn is non-nil,
// runs fn with the new node open. Returns the new node even when attaching it
// failed.
func (b *Builder) Add(name string, fn func(b *Builder), opts ...NodeOption) *Node {
	return b.Attach(NewNode(name, opts...), fn)
}

// Attach adds an existing node (e.g. one made by a collaborator constructor)
// under the open node and runs fn with it open.
func (b *Builder) Attach(n *Node, fn func(b *Builder)) *Node {
	if err := b.Current().AddChild(n); err != nil {
		b.errs = append(b.errs, err)
	}
	if fn != nil {
		b.stack = append(b.stack, n)
		fn(b)
		b.stack = b.stack[:len(b.stack)-1]
	}
	return n
}

// Errorf records a construction error from inside a builder callback.
func (b *Builder) Errorf(format string, args ...any) {
	b.errs = append(b.errs, fmt.Errorf(format, args...))
}

// Spawn builds a subtree detached and then attaches it to parent in a single
// AddChild, so a live parent dispatches EnterTree and Ready once over the
// finished subtree.
func Spawn(parent *Node, name string, fn func(b *Builder), opts ...NodeOption) (*Node, error) {
	n, err := Build(name, fn, opts...)
	if err != nil {
		return nil, err
	}
	if err := parent.AddChild(n); err != nil {
		return nil, err
	}
	return n, nil
}
