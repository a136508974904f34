package canopy

import (
	"errors"
	"slices"
	"testing"
)

// recorder is a Behavior that appends "<hook>:<name>" to a shared log.
type recorder struct {
	BaseBehavior
	log *[]string
}

func (r *recorder) EnterTree(n *Node) { *r.log = append(*r.log, "enter:"+n.Name()) }
func (r *recorder) Ready(n *Node) { *r.log = append(*r.log, "ready:"+n.Name()) }
func (r *recorder) ExitTree(n *Node) { *r.log = append(*r.log, "exit:"+n.Name()) }
func (r *recorder) Update(n *Node, _ float64) {
	*r.log = append(*r.log, "update:"+n.Name())
}
func (r *recorder) PhysicsUpdate(n *Node, _ float64) {
	*r.log = append(*r.log, "physics:"+n.Name())
}

func rec(log *[]string) NodeOption { return WithBehavior(&recorder{log: log}) }

// filterLog returns the entries of log with the given hook prefix, stripped.
func filterLog(log []string, hook string) []string {
	var out []string
	for _, e := range log {
		if len(e) > len(hook)+1 && e[:len(hook)+1] == hook+":" {
			out = append(out, e[len(hook)+1:])
		}
	}
	return out
}

// --- Constructor ---

func TestNewNodeDefaults(t *testing.T) {
	n := NewNode("test")
	if n.ID() == 0 {
		t.Error("ID should be non-zero")
	}
	if n.Name() != "test" {
		t.Errorf("Name = %q, want %q", n.Name(), "test")
	}
	if n.Path() != "/" {
		t.Errorf("Path = %q, want %q", n.Path(), "/")
	}
	if n.Scale() != (Vec2{1, 1}) {
		t.Errorf("Scale = %v, want (1, 1)", n.Scale())
	}
	if n.IsInsideTree() || n.IsReady() || n.IsPrefab() || n.IsFreed() {
		t.Error("fresh node should be detached, not ready, not prefab, not freed")
	}
	if !n.transformDirty {
		t.Error("transformDirty should be true")
	}
}

func TestNewNodeOptions(t *testing.T) {
	n := NewNode("n",
		WithPosition(1, 2),
		WithScale(3, 4),
		WithRotation(0.5),
		WithKinds(KindBody),
		WithGroups("a", "b"),
		WithUserData(42),
		AsAggregate(),
	)
	if n.Position() != (Vec2{1, 2}) {
		t.Errorf("Position = %v, want (1, 2)", n.Position())
	}
	if n.Scale() != (Vec2{3, 4}) {
		t.Errorf("Scale = %v, want (3, 4)", n.Scale())
	}
	if n.Rotation() != 0.5 {
		t.Errorf("Rotation = %v, want 0.5", n.Rotation())
	}
	if !n.HasKind(KindBody) {
		t.Error("node should carry KindBody")
	}
	if !slices.Equal(n.Groups(), []string{"a", "b"}) {
		t.Errorf("Groups = %v, want [a b]", n.Groups())
	}
	if n.UserData != 42 {
		t.Errorf("UserData = %v, want 42", n.UserData)
	}
	if !n.IsAggregate() {
		t.Error("node should be aggregate")
	}
}

func TestNewNodeInvalidNamePanics(t *testing.T) {
	for _, name := range []string{"", ".", "..", "$", "a/b"} {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("NewNode(%q) did not panic", name)
				}
			}()
			NewNode(name)
		})
	}
}

func TestUniqueIDs(t *testing.T) {
	seen := make(map[uint32]bool)
	for range 100 {
		id := NewNode("n").ID()
		if seen[id] {
			t.Fatalf("duplicate ID %d", id)
		}
		seen[id] = true
	}
}

// --- AddChild / RemoveChild ---

func TestAddChild(t *testing.T) {
	parent := NewNode("parent")
	child := NewNode("child")
	if err := parent.AddChild(child); err != nil {
		t.Fatalf("AddChild: %v", err)
	}
	if child.Parent() != parent {
		t.Error("child.Parent should be parent")
	}
	if parent.NumChildren() != 1 || parent.Children()[0] != child {
		t.Errorf("Children = %v, want [child]", parent.Children())
	}
	if parent.Child("child") != child {
		t.Error("Child(\"child\") should return child")
	}
	if child.Path() != "/child" {
		t.Errorf("Path = %q, want /child", child.Path())
	}
}

func TestAddChildErrors(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		if err := NewNode("p").AddChild(nil); !errors.Is(err, ErrNilNode) {
			t.Errorf("err = %v, want ErrNilNode", err)
		}
	})
	t.Run("has parent", func(t *testing.T) {
		a, b, c := NewNode("a"), NewNode("b"), NewNode("c")
		_ = a.AddChild(c)
		if err := b.AddChild(c); !errors.Is(err, ErrHasParent) {
			t.Errorf("err = %v, want ErrHasParent", err)
		}
		if c.Parent() != a {
			t.Error("child should stay under its original parent")
		}
	})
	t.Run("cycle", func(t *testing.T) {
		a, b := NewNode("a"), NewNode("b")
		_ = a.AddChild(b)
		if err := b.AddChild(a); !errors.Is(err, ErrCycle) {
			t.Errorf("err = %v, want ErrCycle", err)
		}
		if err := a.AddChild(a); !errors.Is(err, ErrCycle) {
			t.Errorf("self add err = %v, want ErrCycle", err)
		}
	})
	t.Run("freed", func(t *testing.T) {
		a, b := NewNode("a"), NewNode("b")
		b.Free()
		if err := a.AddChild(b); !errors.Is(err, ErrFreed) {
			t.Errorf("err = %v, want ErrFreed", err)
		}
	})
}

func TestAddChildDuplicateNameLeavesTreeUnchanged(t *testing.T) {
	var log []string
	root := NewNode("root")
	first := NewNode("x")
	_ = root.AddChild(first)
	sm := NewSceneManager()
	if err := sm.SetScene(root); err != nil {
		t.Fatal(err)
	}
	dup := NewNode("x", rec(&log), WithGroups("g"))

	err := root.AddChild(dup)
	if !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("err = %v, want ErrDuplicateName", err)
	}
	if root.NumChildren() != 1 || root.Child("x") != first {
		t.Error("tree changed after failed AddChild")
	}
	if dup.Parent() != nil || dup.Scene() != nil {
		t.Error("rejected child should stay detached")
	}
	if len(log) != 0 {
		t.Errorf("rejected child got callbacks: %v", log)
	}
	if len(sm.Group("g")) != 0 {
		t.Error("rejected child should not be indexed in groups")
	}
}

func TestRemoveChild(t *testing.T) {
	parent := NewNode("parent")
	a, b := NewNode("a"), NewNode("b")
	_ = parent.AddChild(a)
	_ = parent.AddChild(b)
	if err := parent.RemoveChild(a); err != nil {
		t.Fatalf("RemoveChild: %v", err)
	}
	if a.Parent() != nil {
		t.Error("removed child should have no parent")
	}
	if parent.Child("a") != nil {
		t.Error("removed child still indexed by name")
	}
	if len(parent.Children()) != 1 || parent.Children()[0] != b {
		t.Errorf("Children = %v, want [b]", parent.Children())
	}
	if a.Path() != "/" {
		t.Errorf("detached Path = %q, want /", a.Path())
	}
}

func TestRemoveChildNotChild(t *testing.T) {
	a, b := NewNode("a"), NewNode("b")
	if err := a.RemoveChild(b); !errors.Is(err, ErrNotChild) {
		t.Errorf("err = %v, want ErrNotChild", err)
	}
	grand := NewNode("grand")
	_ = b.AddChild(grand)
	_ = a.AddChild(b)
	if err := a.RemoveChild(grand); !errors.Is(err, ErrNotChild) {
		t.Errorf("grandchild err = %v, want ErrNotChild", err)
	}
}

func TestRemoveChildPath(t *testing.T) {
	root := MustBuild("root", func(b *Builder) {
		b.Add("a", func(b *Builder) { b.Add("b", nil) })
	})
	a := root.MustGetNode("a")
	if err := a.RemoveChildPath("b"); err != nil {
		t.Fatalf("RemoveChildPath: %v", err)
	}
	if a.NumChildren() != 0 {
		t.Error("b should have been removed")
	}
	if err := a.RemoveChildPath("missing"); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("err = %v, want ErrNodeNotFound", err)
	}
	if err := root.RemoveChildPath("a/.."); !errors.Is(err, ErrNotChild) {
		t.Errorf("err = %v, want ErrNotChild", err)
	}
}

func TestRemoveChildKeepsIterationSafe(t *testing.T) {
	root := NewNode("root")
	for _, name := range []string{"a", "b", "c"} {
		_ = root.AddChild(NewNode(name))
	}
	var seen []string
	for _, c := range root.Children() {
		seen = append(seen, c.Name())
		if c.Name() == "a" {
			_ = root.RemoveChild(root.Child("b"))
		}
	}
	if !slices.Equal(seen, []string{"a", "b", "c"}) {
		t.Errorf("iteration = %v, want [a b c]", seen)
	}
}

// --- Paths ---

func TestPathsRecomputed(t *testing.T) {
	root := MustBuild("root", func(b *Builder) {
		b.Add("a", func(b *Builder) {
			b.Add("b", func(b *Builder) { b.Add("c", nil) })
		})
		b.Add("x", nil)
	})
	c := root.MustGetNode("a/b/c")
	if c.Path() != "/a/b/c" {
		t.Errorf("Path = %q, want /a/b/c", c.Path())
	}
	b := root.MustGetNode("a/b")
	if err := root.MustGetNode("a").Reparent(b, root.MustGetNode("x")); err != nil {
		t.Fatal(err)
	}
	if c.Path() != "/x/b/c" {
		t.Errorf("Path after reparent = %q, want /x/b/c", c.Path())
	}
}

func TestGetNode(t *testing.T) {
	root := MustBuild("root", func(b *Builder) {
		b.Add("ui", nil, WithKinds(KindSprite))
		b.Add("world", func(b *Builder) {
			b.Add("player", func(b *Builder) {
				b.Add("gun", nil)
			})
			b.Add("enemy", nil)
		})
	})
	gun := root.MustGetNode("world/player/gun")

	tests := []struct {
		from string
		path string
		want string
	}{
		{"world/player/gun", ".", "/world/player/gun"},
		{"world/player/gun", "..", "/world/player"},
		{"world/player/gun", "../../enemy", "/world/enemy"},
		{"world/player/gun", "/ui", "/ui"},
		{"world/player/gun", "$/ui", "/ui"},
		{"world/player/gun", "$", "/"},
		{"world/player/gun", "/", "/"},
		{"world", "player//gun", "/world/player/gun"},
		{"world", "./player/./gun", "/world/player/gun"},
	}
	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.path, func(t *testing.T) {
			from := root.MustGetNode(tt.from)
			got, err := from.GetNode(tt.path)
			if err != nil {
				t.Fatalf("GetNode(%q): %v", tt.path, err)
			}
			if got.Path() != tt.want {
				t.Errorf("GetNode(%q) = %q, want %q", tt.path, got.Path(), tt.want)
			}
		})
	}

	for _, bad := range []string{"", "missing", "../../../..", "$/nope", "world/player/gun/x"} {
		if _, err := gun.GetNode(bad); !errors.Is(err, ErrNodeNotFound) {
			t.Errorf("GetNode(%q) err = %v, want ErrNodeNotFound", bad, err)
		}
	}
}

func TestGetNodeSceneRootFromDeepNode(t *testing.T) {
	root := MustBuild("root", func(b *Builder) {
		b.Add("external", nil)
		b.Add("l1", func(b *Builder) {
			b.Add("l2", func(b *Builder) {
				b.Add("l3", func(b *Builder) {
					b.Add("l4", nil)
				})
			})
		})
	})
	sm := NewSceneManager()
	if err := sm.SetScene(root); err != nil {
		t.Fatal(err)
	}
	want := root.Child("external")
	for _, from := range []string{"l1", "l1/l2", "l1/l2/l3/l4"} {
		got, err := root.MustGetNode(from).GetNode("$/external")
		if err != nil {
			t.Fatalf("from %s: %v", from, err)
		}
		if got != want {
			t.Errorf("from %s: got %v, want %v", from, got, want)
		}
	}
}

func TestGetNodeKind(t *testing.T) {
	root := MustBuild("root", func(b *Builder) {
		b.Add("body", nil, WithKinds(KindBody))
		b.Add("plain", nil)
	})
	if _, err := root.GetNodeKind("body", KindBody); err != nil {
		t.Errorf("GetNodeKind(body): %v", err)
	}
	if _, err := root.GetNodeKind("plain", KindBody); !errors.Is(err, ErrKindMismatch) {
		t.Errorf("err = %v, want ErrKindMismatch", err)
	}
	if _, err := root.GetNodeKind("none", KindBody); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("err = %v, want ErrNodeNotFound", err)
	}
}

// --- Lifecycle ---

func TestLifecycleOrder(t *testing.T) {
	var log []string
	root := MustBuild("root", func(b *Builder) {
		b.Add("A", nil, rec(&log))
		b.Add("B", func(b *Builder) {
			b.Add("C", nil, rec(&log))
		}, rec(&log))
	}, rec(&log))
	if len(log) != 0 {
		t.Fatalf("detached build dispatched callbacks: %v", log)
	}

	root.BuildTree()

	if got, want := filterLog(log, "enter"), []string{"root", "A", "B", "C"}; !slices.Equal(got, want) {
		t.Errorf("enter order = %v, want %v", got, want)
	}
	if got, want := filterLog(log, "ready"), []string{"A", "C", "B", "root"}; !slices.Equal(got, want) {
		t.Errorf("ready order = %v, want %v", got, want)
	}
	// Every enter precedes every ready.
	if i := slices.Index(log, "ready:A"); i != 4 {
		t.Errorf("first ready at %d, want 4 (after all enters): %v", i, log)
	}
}

func TestExitTreeTopDown(t *testing.T) {
	var log []string
	root := MustBuild("root", func(b *Builder) {
		b.Add("A", func(b *Builder) {
			b.Add("A1", nil, rec(&log))
			b.Add("A2", nil, rec(&log))
		}, rec(&log))
	}, rec(&log))
	root.BuildTree()
	log = nil

	if err := root.RemoveChild(root.Child("A")); err != nil {
		t.Fatal(err)
	}
	if got, want := filterLog(log, "exit"), []string{"A", "A1", "A2"}; !slices.Equal(got, want) {
		t.Errorf("exit order = %v, want %v", got, want)
	}
}

func TestRemovedSubtreeIsOutsideTree(t *testing.T) {
	root := MustBuild("root", func(b *Builder) {
		b.Add("A", func(b *Builder) { b.Add("A1", nil) })
	})
	root.BuildTree()
	a := root.Child("A")
	_ = root.RemoveChild(a)
	if a.IsInsideTree() || a.Child("A1").IsInsideTree() {
		t.Error("removed subtree should be outside the tree")
	}
	if a.IsReady() || a.Child("A1").IsReady() {
		t.Error("removed subtree should not be ready")
	}
	if a.Child("A1") == nil {
		t.Error("descendants should stay attached to the removed node")
	}
}

func TestAddChildToLiveTreeRunsLifecycle(t *testing.T) {
	var log []string
	root := NewNode("root")
	root.BuildTree()

	sub := MustBuild("sub", func(b *Builder) {
		b.Add("leaf", nil, rec(&log))
	}, rec(&log))
	if err := root.AddChild(sub); err != nil {
		t.Fatal(err)
	}
	want := []string{"enter:sub", "enter:leaf", "ready:leaf", "ready:sub"}
	if !slices.Equal(log, want) {
		t.Errorf("log = %v, want %v", log, want)
	}
	if !sub.IsInsideTree() || !sub.IsReady() {
		t.Error("sub should be inside and ready")
	}
}

func TestAddChildToDetachedTreeDefersLifecycle(t *testing.T) {
	var log []string
	root := NewNode("root")
	_ = root.AddChild(NewNode("child", rec(&log)))
	if len(log) != 0 {
		t.Errorf("detached AddChild dispatched callbacks: %v", log)
	}
}

func TestUpdateChildrenFirst(t *testing.T) {
	var log []string
	root := MustBuild("root", func(b *Builder) {
		b.Add("A", func(b *Builder) { b.Add("A1", nil, rec(&log)) }, rec(&log))
		b.Add("B", nil, rec(&log))
	}, rec(&log))
	root.BuildTree()
	log = nil

	root.Update(0.016)
	root.PhysicsUpdate(0.016)

	want := []string{"A1", "A", "B", "root"}
	if got := filterLog(log, "update"); !slices.Equal(got, want) {
		t.Errorf("update order = %v, want %v", got, want)
	}
	if got := filterLog(log, "physics"); !slices.Equal(got, want) {
		t.Errorf("physics order = %v, want %v", got, want)
	}
}

func TestUpdateSkipsDetached(t *testing.T) {
	var log []string
	n := NewNode("n", rec(&log))
	n.Update(1)
	if len(log) != 0 {
		t.Errorf("detached Update dispatched: %v", log)
	}
}

// --- Reparent ---

func TestReparentPreservesChildrenAndGroups(t *testing.T) {
	root := MustBuild("root", func(b *Builder) {
		b.Add("from", func(b *Builder) {
			b.Add("squad", func(b *Builder) {
				b.Add("m1", nil, WithGroups("hostile"))
				b.Add("m2", nil, WithGroups("hostile", "armored"))
			}, WithGroups("squads"))
		})
		b.Add("to", nil)
	})
	sm := NewSceneManager()
	if err := sm.SetScene(root); err != nil {
		t.Fatal(err)
	}
	squad := root.MustGetNode("from/squad")
	if err := root.Child("from").Reparent(squad, root.Child("to")); err != nil {
		t.Fatalf("Reparent: %v", err)
	}

	if squad.Parent() != root.Child("to") {
		t.Error("squad should be under to")
	}
	if squad.NumChildren() != 2 {
		t.Errorf("squad children = %d, want 2", squad.NumChildren())
	}
	if got := len(sm.Group("hostile")); got != 2 {
		t.Errorf("hostile group size = %d, want 2", got)
	}
	if got := sm.Group("armored"); len(got) != 1 || got[0].Path() != "/to/squad/m2" {
		t.Errorf("armored group = %v, want [/to/squad/m2]", got)
	}
	if got := sm.Group("squads"); len(got) != 1 || got[0] != squad {
		t.Errorf("squads group = %v, want [squad]", got)
	}
	if !squad.IsInsideTree() || !squad.Child("m1").IsReady() {
		t.Error("reparented subtree should be live again")
	}
}

func TestReparentRestoresOnFailure(t *testing.T) {
	root := MustBuild("root", func(b *Builder) {
		b.Add("a", func(b *Builder) { b.Add("x", nil) })
		b.Add("b", func(b *Builder) { b.Add("x", nil) })
	})
	x := root.MustGetNode("a/x")
	err := root.Child("a").Reparent(x, root.Child("b"))
	if !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("err = %v, want ErrDuplicateName", err)
	}
	if x.Parent() != root.Child("a") {
		t.Error("x should be restored under a")
	}
}

func TestReparentNotChild(t *testing.T) {
	a, b, c := NewNode("a"), NewNode("b"), NewNode("c")
	if err := a.Reparent(b, c); !errors.Is(err, ErrNotChild) {
		t.Errorf("err = %v, want ErrNotChild", err)
	}
	if err := a.Reparent(b, nil); !errors.Is(err, ErrNilNode) {
		t.Errorf("err = %v, want ErrNilNode", err)
	}
}

// --- Prefabs ---

func TestPrefabSuppressesLifecycle(t *testing.T) {
	var log []string
	root := NewNode("root")
	root.BuildTree()
	prefab := NewNode("prefab", AsPrefab(), rec(&log))
	_ = prefab.AddChild(NewNode("inner", rec(&log)))

	if err := root.AddChild(prefab); err != nil {
		t.Fatal(err)
	}
	if len(log) != 0 || prefab.IsInsideTree() {
		t.Errorf("prefab got callbacks: %v", log)
	}
	root.Update(1)
	if len(log) != 0 {
		t.Errorf("prefab got updates: %v", log)
	}

	prefab.Instantiate()
	want := []string{"enter:prefab", "enter:inner", "ready:inner", "ready:prefab"}
	if !slices.Equal(log, want) {
		t.Errorf("log = %v, want %v", log, want)
	}
	if prefab.IsPrefab() {
		t.Error("instantiated node should no longer be a prefab")
	}
}

// --- Freeing ---

func TestFree(t *testing.T) {
	var log []string
	root := MustBuild("root", func(b *Builder) {
		b.Add("a", func(b *Builder) { b.Add("a1", nil, rec(&log)) }, rec(&log))
	})
	root.BuildTree()
	a := root.Child("a")
	a1 := a.Child("a1")

	a.Free()

	if !a.IsFreed() || !a1.IsFreed() {
		t.Error("subtree should be freed")
	}
	if a.ID() != 0 || a1.ID() != 0 {
		t.Error("freed IDs should be zero")
	}
	if root.Child("a") != nil {
		t.Error("freed node should be detached")
	}
	if got, want := filterLog(log, "exit"), []string{"a", "a1"}; !slices.Equal(got, want) {
		t.Errorf("exit order = %v, want %v", got, want)
	}
	a.Free() // idempotent
}

func TestFreeUnbindsBehavior(t *testing.T) {
	b := &BehaviorFuncs{}
	n := NewNode("n", WithBehavior(b))
	n.Free()
	if b.Node() != nil {
		t.Error("behavior should be unbound after Free")
	}
	if err := NewNode("m").SetBehavior(b); err != nil {
		t.Errorf("rebinding freed behavior: %v", err)
	}
}

func TestQueueFreeOutsideTickIsImmediate(t *testing.T) {
	root := MustBuild("root", func(b *Builder) { b.Add("a", nil) })
	a := root.Child("a")
	a.QueueFree()
	if !a.IsFreed() || root.Child("a") != nil {
		t.Error("QueueFree outside Tick should free immediately")
	}
}

func TestFreeSceneRootClearsScene(t *testing.T) {
	sm := NewSceneManager()
	root := NewNode("root")
	_ = sm.SetScene(root)
	root.Free()
	if sm.Scene() != nil {
		t.Error("freeing the scene root should clear the scene")
	}
}

// --- Groups ---

func TestNodeGroups(t *testing.T) {
	n := NewNode("n")
	n.AddGroup("a")
	n.AddGroup("a")
	n.AddGroup("b")
	if !slices.Equal(n.Groups(), []string{"a", "b"}) {
		t.Errorf("Groups = %v, want [a b]", n.Groups())
	}
	if !n.InGroup("b") {
		t.Error("InGroup(b) = false")
	}
	if err := n.RemoveGroup("a"); err != nil {
		t.Fatal(err)
	}
	if n.InGroup("a") {
		t.Error("InGroup(a) after RemoveGroup = true")
	}
	if err := n.RemoveGroup("missing"); err != nil {
		t.Errorf("RemoveGroup(missing) on detached node: %v", err)
	}
}

// --- Kinds and components ---

type health struct{ hp int }

func TestComponents(t *testing.T) {
	n := NewNode("n", WithComponent(KindUser, &health{hp: 3}))
	if !n.HasKind(KindUser) {
		t.Error("WithComponent should tag the kind")
	}
	h, ok := ComponentOf[*health](n, KindUser)
	if !ok || h.hp != 3 {
		t.Errorf("ComponentOf = %v, %v", h, ok)
	}
	if _, ok := ComponentOf[string](n, KindUser); ok {
		t.Error("ComponentOf with wrong type should fail")
	}
	n.RemoveComponent(KindUser)
	if n.HasKind(KindUser) || n.Component(KindUser) != nil {
		t.Error("RemoveComponent should clear kind and value")
	}
}

func TestHasChildKind(t *testing.T) {
	root := MustBuild("root", func(b *Builder) {
		b.Add("shape", nil, WithKinds(KindShape))
	})
	if !root.HasChildKind(KindShape) {
		t.Error("HasChildKind(KindShape) = false")
	}
	if root.HasChildKind(KindBody) {
		t.Error("HasChildKind(KindBody) = true")
	}
}

func TestWalkSkip(t *testing.T) {
	root := MustBuild("root", func(b *Builder) {
		b.Add("a", func(b *Builder) { b.Add("a1", nil) })
		b.Add("b", nil)
	})
	var seen []string
	root.Walk(func(n *Node) bool {
		seen = append(seen, n.Name())
		return n.Name() != "a"
	})
	if want := []string{"root", "a", "b"}; !slices.Equal(seen, want) {
		t.Errorf("Walk = %v, want %v", seen, want)
	}
}

func TestRootAndString(t *testing.T) {
	root := MustBuild("root", func(b *Builder) {
		b.Add("a", func(b *Builder) { b.Add("b", nil) })
	})
	b := root.MustGetNode("a/b")
	if b.Root() != root {
		t.Error("Root should return the topmost ancestor")
	}
	if b.String() != "b(/a/b)" {
		t.Errorf("String = %q, want b(/a/b)", b.String())
	}
}
