package canopy

import (
	"fmt"
	"strings"
)

// GetNode resolves path relative to n.
//
// Segments are separated by '/'. "." is the current node, ".." its parent,
// and "$" the scene root. A path beginning with '/' or '$' is absolute and
// starts at the scene root; without a scene manager the topmost ancestor is
// used. Empty segments are ignored, so "a//b" equals "a/b".
func (n *Node) GetNode(path string) (*Node, error) {
	if path == "" {
		return nil, fmt.Errorf("get node from %q: empty path: %w", n.path, ErrNodeNotFound)
	}
	cur := n
	rest := path
	switch {
	case path[0] == '/':
		cur = n.sceneRoot()
	case path == "$" || strings.HasPrefix(path, "$/"):
		cur = n.sceneRoot()
		rest = path[1:]
	}
	for seg := range strings.SplitSeq(rest, "/") {
		switch seg {
		case "", ".":
		case "..":
			if cur.parent == nil {
				return nil, fmt.Errorf("get node %q from %q: %q has no parent: %w", path, n.path, cur.path, ErrNodeNotFound)
			}
			cur = cur.parent
		default:
			next := cur.byName[seg]
			if next == nil {
				return nil, fmt.Errorf("get node %q from %q: no child %q under %q: %w", path, n.path, seg, cur.path, ErrNodeNotFound)
			}
			cur = next
		}
	}
	return cur, nil
}

// GetNodeKind resolves path and checks that the node carries kind k.
func (n *Node) GetNodeKind(path string, k Kind) (*Node, error) {
	found, err := n.GetNode(path)
	if err != nil {
		return nil, err
	}
	if !found.kinds.Has(k) {
		return nil, fmt.Errorf("get node %q from %q: want %s, have %s: %w", path, n.path, k, found.kinds, ErrKindMismatch)
	}
	return found, nil
}

// MustGetNode is like GetNode but panics on error.
func (n *Node) MustGetNode(path string) *Node {
	found, err := n.GetNode(path)
	if err != nil {
		panic("canopy: " + err.Error())
	}
	return found
}

// sceneRoot returns the root of the node's scene, or the topmost ancestor
// when the node is not registered with a scene manager.
func (n *Node) sceneRoot() *Node {
	if n.scene != nil && n.scene.root != nil {
		return n.scene.root
	}
	return n.Root()
}
