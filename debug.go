package canopy

import (
	"fmt"
	"io"
	"strings"
)

// debugMaxTreeDepth is the depth above which AddChild logs a warning when
// Config.Debug is set.
const debugMaxTreeDepth = 32

func (sm *SceneManager) debugCheckTreeDepth(n *Node) {
	depth := 0
	for p := n; p != nil; p = p.parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		sm.logger.Warn("tree depth exceeds threshold",
			"event", "debug.tree_depth",
			"depth", depth,
			"threshold", debugMaxTreeDepth,
			"node_path", n.path)
	}
}

// debugMaxChildCount is the child count above which AddChild logs a warning
// when Config.Debug is set.
const debugMaxChildCount = 1000

func (sm *SceneManager) debugCheckChildCount(n *Node) {
	if len(n.children) > debugMaxChildCount {
		sm.logger.Warn("child count exceeds threshold",
			"event", "debug.child_count",
			"children", len(n.children),
			"threshold", debugMaxChildCount,
			"node_path", n.path)
	}
}

// WalkDepth calls fn for n and every descendant in depth-first pre-order
// with the depth relative to n.
func WalkDepth(n *Node, fn func(n *Node, depth int)) {
	walkDepth(n, 0, fn)
}

func walkDepth(n *Node, depth int, fn func(*Node, int)) {
	fn(n, depth)
	for _, c := range n.children {
		walkDepth(c, depth+1, fn)
	}
}

// DumpTree writes an indented listing of the subtree rooted at n, one node
// per line with its kinds, groups and lifecycle flags.
func DumpTree(w io.Writer, n *Node) error {
	var err error
	WalkDepth(n, func(n *Node, depth int) {
		if err != nil {
			return
		}
		_, err = fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), DescribeNode(n))
	})
	return err
}

// DescribeNode returns a one-line summary of n, e.g.
// "player [body|shape] groups=hero ready".
func DescribeNode(n *Node) string {
	var b strings.Builder
	b.WriteString(n.name)
	if n.kinds != 0 {
		b.WriteString(" [")
		b.WriteString(n.kinds.String())
		b.WriteString("]")
	}
	if len(n.groups) > 0 {
		b.WriteString(" groups=")
		b.WriteString(strings.Join(n.groups, ","))
	}
	switch {
	case n.freed:
		b.WriteString(" freed")
	case n.prefab:
		b.WriteString(" prefab")
	case n.readied:
		b.WriteString(" ready")
	case n.inside:
		b.WriteString(" inside")
	}
	if n.aggregate {
		b.WriteString(" aggregate")
	}
	return b.String()
}
