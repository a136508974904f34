package canopy

import (
	"fmt"
	"slices"
	"strings"
	"sync/atomic"
)

// nodeIDCounter hands out node IDs. Tree mutation is single-threaded but node
// construction may happen on loader goroutines.
var nodeIDCounter atomic.Uint32

func nextNodeID() uint32 {
	return nodeIDCounter.Add(1)
}

// Node is the scene graph entity. A single flat struct is used for every kind
// of node; capabilities are expressed with Kinds and per-kind components
// rather than with distinct Go types.
type Node struct {
	// Identity
	id   uint32
	name string
	path string

	// Hierarchy
	parent   *Node
	children []*Node
	byName   map[string]*Node

	// Transform (local)
	position Vec2
	scale    Vec2
	rotation float64

	// Computed
	worldTransform [6]float64
	transformDirty bool
	lock           *TransformLock

	// Capabilities
	kinds      KindSet
	components map[Kind]any
	aggregate  bool
	memberOf   []*SystemBase

	groups   []string
	behavior Behavior

	// Lifecycle
	prefab  bool
	inside  bool
	readied bool
	scene   *SceneManager
	queued  bool
	freed   bool

	// UserData is free for application use.
	UserData any
}

// NodeOption configures a node at construction time.
type NodeOption func(*Node)

// WithPosition sets the initial local position.
func WithPosition(x, y float64) NodeOption {
	return func(n *Node) { n.position = Vec2{x, y} }
}

// WithScale sets the initial local scale.
func WithScale(sx, sy float64) NodeOption {
	return func(n *Node) { n.scale = Vec2{sx, sy} }
}

// WithRotation sets the initial local rotation in radians.
func WithRotation(r float64) NodeOption {
	return func(n *Node) { n.rotation = r }
}

// WithGroups adds the node to the given groups.
func WithGroups(groups ...string) NodeOption {
	return func(n *Node) {
		for _, g := range groups {
			n.AddGroup(g)
		}
	}
}

// WithKinds tags the node with the given kinds.
func WithKinds(kinds ...Kind) NodeOption {
	return func(n *Node) { n.kinds |= Kinds(kinds...) }
}

// WithComponent attaches a component and tags the node with its kind.
func WithComponent(k Kind, v any) NodeOption {
	return func(n *Node) { n.SetComponent(k, v) }
}

// WithBehavior binds b to the node. Panics if b is already bound elsewhere.
func WithBehavior(b Behavior) NodeOption {
	return func(n *Node) {
		if err := n.SetBehavior(b); err != nil {
			panic("canopy: " + err.Error())
		}
	}
}

// WithUserData sets Node.UserData.
func WithUserData(v any) NodeOption {
	return func(n *Node) { n.UserData = v }
}

// AsPrefab marks the node as a prefab: it is linked into trees but receives
// no lifecycle callbacks until Instantiate is called.
func AsPrefab() NodeOption {
	return func(n *Node) { n.prefab = true }
}

// AsAggregate marks the node as an aggregate: systems match it on the union
// of its own kinds and the kinds of all its descendants.
func AsAggregate() NodeOption {
	return func(n *Node) { n.aggregate = true }
}

// NewNode creates a detached node. Panics if name is empty, contains a slash,
// or is one of the reserved path segments ".", ".." and "$".
func NewNode(name string, opts ...NodeOption) *Node {
	if err := validateName(name); err != nil {
		panic("canopy: " + err.Error())
	}
	n := &Node{
		id:             nextNodeID(),
		name:           name,
		path:           "/",
		scale:          Vec2{1, 1},
		transformDirty: true,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func validateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("invalid node name: empty")
	case name == "." || name == ".." || name == "$":
		return fmt.Errorf("invalid node name %q: reserved path segment", name)
	case strings.Contains(name, "/"):
		return fmt.Errorf("invalid node name %q: contains '/'", name)
	}
	return nil
}

// ID returns the node's process-unique identifier. Zero after Free.
func (n *Node) ID() uint32 { return n.id }

// Name returns the node's name.
func (n *Node) Name() string { return n.name }

// Path returns the node's path relative to the root of its tree, e.g. "/a/b".
// A root's path is "/".
func (n *Node) Path() string { return n.path }

// Parent returns the parent node, or nil for a root or detached node.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the child list in insertion order. The returned slice MUST
// NOT be mutated by the caller.
func (n *Node) Children() []*Node { return n.children }

// NumChildren returns the number of children.
func (n *Node) NumChildren() int { return len(n.children) }

// Child returns the direct child with the given name, or nil.
func (n *Node) Child(name string) *Node { return n.byName[name] }

// IsInsideTree reports whether the node has entered a built tree and not
// exited it since.
func (n *Node) IsInsideTree() bool { return n.inside }

// IsReady reports whether the ready callback has run for the node.
func (n *Node) IsReady() bool { return n.readied }

// IsPrefab reports whether lifecycle dispatch is suppressed for the node.
func (n *Node) IsPrefab() bool { return n.prefab }

// IsAggregate reports whether the node matches systems on its descendants' kinds.
func (n *Node) IsAggregate() bool { return n.aggregate }

// IsFreed reports whether the node has been freed.
func (n *Node) IsFreed() bool { return n.freed }

// Scene returns the scene manager the node is registered with, or nil.
func (n *Node) Scene() *SceneManager { return n.scene }

// --- Tree manipulation ---

// AddChild attaches child under n.
//
// It fails if child already has a parent, if a sibling with the same name
// exists, or if child is an ancestor of n. On success the child's paths are
// recomputed; when n belongs to a live scene the subtree is registered with
// its systems and groups, and when n is inside a built tree the child
// receives EnterTree then Ready (unless it is a prefab). The tree is left
// unchanged on failure.
func (n *Node) AddChild(child *Node) error {
	if err := n.link(child); err != nil {
		return err
	}
	if sm := n.scene; sm != nil {
		sm.registerSubtree(child)
		if sm.cfg.Debug {
			sm.debugCheckTreeDepth(child)
			sm.debugCheckChildCount(n)
		}
	}
	if n.inside && !child.prefab {
		child.enterTree()
		child.ready()
	}
	return nil
}

// link attaches child without running lifecycle callbacks or registration.
func (n *Node) link(child *Node) error {
	if child == nil {
		return fmt.Errorf("add child to %q: %w", n.name, ErrNilNode)
	}
	if n.freed || child.freed {
		return fmt.Errorf("add child %q to %q: %w", child.name, n.name, ErrFreed)
	}
	if child.parent != nil {
		return fmt.Errorf("add child %q to %q: %w (parent %q)", child.name, n.name, ErrHasParent, child.parent.name)
	}
	if isAncestor(child, n) {
		return fmt.Errorf("add child %q to %q: %w", child.name, n.name, ErrCycle)
	}
	if _, ok := n.byName[child.name]; ok {
		return fmt.Errorf("add child %q to %q: %w", child.name, n.name, ErrDuplicateName)
	}
	if child.scene != nil && child.scene.root == child {
		return fmt.Errorf("add child %q to %q: node is a scene root: %w", child.name, n.name, ErrHasParent)
	}
	if n.byName == nil {
		n.byName = make(map[string]*Node)
	}
	child.parent = n
	n.children = append(n.children, child)
	n.byName[child.name] = child
	recomputePaths(child)
	markSubtreeDirty(child)
	return nil
}

// RemoveChild detaches child from n. It fails if child is not a direct child.
//
// ExitTree runs over the subtree top-down, the subtree is unregistered from
// its scene's systems and groups, and then it is unlinked. Descendants stay
// attached to child so the subtree can be re-added elsewhere.
func (n *Node) RemoveChild(child *Node) error {
	if child == nil {
		return fmt.Errorf("remove child from %q: %w", n.name, ErrNilNode)
	}
	if child.parent != n {
		return fmt.Errorf("remove %q from %q: %w", child.name, n.name, ErrNotChild)
	}
	if child.inside {
		child.exitTree()
	}
	sm := child.scene
	if sm != nil {
		sm.unregisterSubtree(child)
	}
	n.unlink(child)
	if sm != nil {
		sm.refreshAggregateAncestors(n)
	}
	return nil
}

// RemoveChildPath resolves path relative to n and removes the resulting node
// from n. It fails if the path does not resolve or the node is not a direct
// child of n.
func (n *Node) RemoveChildPath(path string) error {
	child, err := n.GetNode(path)
	if err != nil {
		return err
	}
	return n.RemoveChild(child)
}

func (n *Node) unlink(child *Node) {
	i := slices.Index(n.children, child)
	// Copy before deleting so an in-flight traversal over the old slice
	// header keeps seeing a consistent list.
	n.children = slices.Delete(slices.Clone(n.children), i, i+1)
	delete(n.byName, child.name)
	child.parent = nil
	recomputePaths(child)
	markSubtreeDirty(child)
}

// Reparent moves child (a direct child of n) under newParent. Equivalent to
// RemoveChild followed by newParent.AddChild; if the second step fails the
// child is restored under n.
func (n *Node) Reparent(child, newParent *Node) error {
	if newParent == nil {
		return fmt.Errorf("reparent %q: %w", n.name, ErrNilNode)
	}
	if err := n.RemoveChild(child); err != nil {
		return err
	}
	if err := newParent.AddChild(child); err != nil {
		if restoreErr := n.AddChild(child); restoreErr != nil {
			return fmt.Errorf("reparent %q: %w (restore failed: %v)", child.name, err, restoreErr)
		}
		return fmt.Errorf("reparent %q: %w", child.name, err)
	}
	return nil
}

// HasChildKind reports whether any direct child carries kind k.
func (n *Node) HasChildKind(k Kind) bool {
	for _, c := range n.children {
		if c.kinds.Has(k) {
			return true
		}
	}
	return false
}

// Walk calls fn for n and every descendant in depth-first pre-order.
// Returning false from fn skips that node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// Root returns the topmost ancestor of n (n itself for a root).
func (n *Node) Root() *Node {
	r := n
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// --- Prefabs and freeing ---

// Instantiate activates a prefab in place. If the node sits under a parent
// that is inside a built tree, it receives EnterTree then Ready immediately.
func (n *Node) Instantiate() {
	if !n.prefab {
		return
	}
	n.prefab = false
	if n.parent != nil && n.parent.inside {
		n.enterTree()
		n.ready()
	}
}

// QueueFree detaches and frees the node. While its scene manager is inside
// Tick the removal is deferred to the end of that tick; otherwise it happens
// immediately.
func (n *Node) QueueFree() {
	if n.freed || n.queued {
		return
	}
	if sm := n.scene; sm != nil && sm.ticking {
		n.queued = true
		sm.freeQueue = append(sm.freeQueue, n)
		return
	}
	n.Free()
}

// Free detaches the node through the normal removal path and marks the node
// and all its descendants as freed. A freed scene root is cleared from its
// scene manager.
func (n *Node) Free() {
	if n.freed {
		return
	}
	switch {
	case n.parent != nil:
		_ = n.parent.RemoveChild(n)
	case n.scene != nil && n.scene.root == n:
		_ = n.scene.SetScene(nil)
	case n.inside:
		n.exitTree()
	}
	n.dispose()
}

func (n *Node) dispose() {
	n.freed = true
	n.queued = false
	n.id = 0
	for _, c := range n.children {
		c.parent = nil
		c.dispose()
	}
	n.children = nil
	n.byName = nil
	n.parent = nil
	n.scene = nil
	n.memberOf = nil
	n.components = nil
	n.lock = nil
	n.UserData = nil
	if n.behavior != nil {
		n.behavior.unbind()
		n.behavior = nil
	}
}

// BuildTree runs EnterTree (top-down) then Ready (bottom-up) over the subtree
// rooted at n. Used when a tree is built detached and later declared a root.
func (n *Node) BuildTree() {
	n.enterTree()
	n.ready()
}

// --- Lifecycle dispatch ---

func (n *Node) enterTree() {
	if n.prefab || n.inside {
		return
	}
	n.inside = true
	if n.behavior != nil {
		n.behavior.EnterTree(n)
	}
	for _, c := range n.children {
		c.enterTree()
	}
}

func (n *Node) ready() {
	if n.prefab || !n.inside || n.readied {
		return
	}
	for _, c := range n.children {
		c.ready()
	}
	n.readied = true
	if n.behavior != nil {
		n.behavior.Ready(n)
	}
}

func (n *Node) exitTree() {
	if !n.inside {
		return
	}
	if n.behavior != nil {
		n.behavior.ExitTree(n)
	}
	for _, c := range n.children {
		c.exitTree()
	}
	n.inside = false
	n.readied = false
}

// Update runs the per-frame callback over the subtree, children first then
// self. Nodes that are not inside a built tree are skipped.
func (n *Node) Update(dt float64) {
	if !n.inside {
		return
	}
	for _, c := range n.children {
		c.Update(dt)
	}
	if n.behavior != nil && n.inside {
		n.behavior.Update(n, dt)
	}
}

// PhysicsUpdate runs the fixed-step callback over the subtree, children
// first then self.
func (n *Node) PhysicsUpdate(dt float64) {
	if !n.inside {
		return
	}
	for _, c := range n.children {
		c.PhysicsUpdate(dt)
	}
	if n.behavior != nil && n.inside {
		n.behavior.PhysicsUpdate(n, dt)
	}
}

// --- Groups ---

// Groups returns the node's group tags. The returned slice MUST NOT be mutated.
func (n *Node) Groups() []string { return n.groups }

// InGroup reports whether the node carries the group tag.
func (n *Node) InGroup(group string) bool { return slices.Contains(n.groups, group) }

// AddGroup tags the node with group, mirroring it into the scene's group
// index when the node is live.
func (n *Node) AddGroup(group string) {
	if n.InGroup(group) {
		return
	}
	n.groups = append(n.groups, group)
	if n.scene != nil {
		n.scene.AddToGroup(group, n)
	}
}

// RemoveGroup removes the group tag from the node and from the scene's index.
func (n *Node) RemoveGroup(group string) error {
	i := slices.Index(n.groups, group)
	if i < 0 {
		return nil
	}
	n.groups = slices.Delete(n.groups, i, i+1)
	if n.scene != nil {
		return n.scene.RemoveFromGroup(group, n)
	}
	return nil
}

// --- Kinds and components ---

// Kinds returns the node's own capability tags.
func (n *Node) Kinds() KindSet { return n.kinds }

// HasKind reports whether the node carries kind k.
func (n *Node) HasKind(k Kind) bool { return n.kinds.Has(k) }

// AddKinds tags the node with more kinds and refreshes system membership.
func (n *Node) AddKinds(kinds ...Kind) {
	n.kinds |= Kinds(kinds...)
	n.refreshMembership()
}

// SetComponent attaches v under kind k and tags the node with k.
func (n *Node) SetComponent(k Kind, v any) {
	if n.components == nil {
		n.components = make(map[Kind]any)
	}
	n.components[k] = v
	n.kinds |= Kinds(k)
	n.refreshMembership()
}

// Component returns the component stored under k, or nil.
func (n *Node) Component(k Kind) any { return n.components[k] }

// RemoveComponent drops the component under k and clears the kind tag.
func (n *Node) RemoveComponent(k Kind) {
	delete(n.components, k)
	n.kinds &^= Kinds(k)
	n.refreshMembership()
}

// ComponentOf returns the component stored under k asserted to T.
func ComponentOf[T any](n *Node, k Kind) (T, bool) {
	v, ok := n.components[k].(T)
	return v, ok
}

func (n *Node) refreshMembership() {
	if n.scene == nil {
		return
	}
	n.scene.refreshNode(n)
	n.scene.refreshAggregateAncestors(n.parent)
}

// matchKinds returns the kinds systems match the node on: KindNode plus its
// own kinds, or for an aggregate node the union over its whole subtree.
func (n *Node) matchKinds() KindSet {
	if !n.aggregate {
		return n.kinds | Kinds(KindNode)
	}
	ks := Kinds(KindNode)
	n.Walk(func(d *Node) bool {
		ks |= d.kinds
		return true
	})
	return ks
}

// String returns "name(path)".
func (n *Node) String() string {
	return n.name + "(" + n.path + ")"
}

// --- Helpers ---

// isAncestor reports whether candidate is node or an ancestor of node.
func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// recomputePaths refreshes the cached path of node and its descendants.
func recomputePaths(node *Node) {
	switch {
	case node.parent == nil:
		node.path = "/"
	case node.parent.parent == nil:
		node.path = "/" + node.name
	default:
		node.path = node.parent.path + "/" + node.name
	}
	for _, c := range node.children {
		recomputePaths(c)
	}
}
