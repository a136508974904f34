package canopy

import (
	"fmt"
	"weak"
)

// NodeRef is a lazily resolved handle to a node. A direct ref holds the node
// weakly and never keeps it alive; a path ref resolves through the owner's
// GetNode each time it is used, so it follows whatever node currently sits
// at that path.
type NodeRef struct {
	ptr  weak.Pointer[Node]
	path string
}

// RefTo returns a direct reference to n.
func RefTo(n *Node) NodeRef {
	return NodeRef{ptr: weak.Make(n)}
}

// RefPath returns a reference resolved from path at use time.
func RefPath(path string) NodeRef {
	return NodeRef{path: path}
}

// IsPath reports whether the reference resolves by path.
func (r NodeRef) IsPath() bool { return r.path != "" }

// Path returns the path of a path reference, or "".
func (r NodeRef) Path() string { return r.path }

// Get resolves the reference. owner is the node path references are resolved
// from and is ignored for direct references.
func (r NodeRef) Get(owner *Node) (*Node, error) {
	if r.path != "" {
		if owner == nil {
			return nil, fmt.Errorf("resolve ref %q: %w", r.path, ErrNilNode)
		}
		return owner.GetNode(r.path)
	}
	n := r.ptr.Value()
	if n == nil || n.freed {
		return nil, ErrDanglingRef
	}
	return n, nil
}

// GetKind resolves the reference and checks that the node carries kind k.
func (r NodeRef) GetKind(owner *Node, k Kind) (*Node, error) {
	n, err := r.Get(owner)
	if err != nil {
		return nil, err
	}
	if !n.kinds.Has(k) {
		return nil, fmt.Errorf("resolve ref to %q: want %s, have %s: %w", n.path, k, n.kinds, ErrKindMismatch)
	}
	return n, nil
}

// MustGet is like Get but panics on error.
func (r NodeRef) MustGet(owner *Node) *Node {
	n, err := r.Get(owner)
	if err != nil {
		panic("canopy: " + err.Error())
	}
	return n
}
