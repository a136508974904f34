package canopy

import (
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"time"

	"github.com/kamstrup/intmap"
)

// physicsEpsilon absorbs floating point drift when comparing the physics
// accumulator against the step, so 2/60 of accumulated time yields two
// steps of 1/60.
const physicsEpsilon = 1e-9

type systemKey struct {
	typ  reflect.Type
	name string
}

// SceneManager owns the active scene tree, the registered systems and the
// group index, and drives the fixed-step / variable-step loop.
//
// A SceneManager is not safe for concurrent use; drive it from one goroutine.
type SceneManager struct {
	cfg      Config
	logger   *slog.Logger
	metrics  *Metrics
	registry *Registry

	root *Node

	// Systems
	phases  [phaseCount][]System
	systems map[systemKey]System
	byKind  *intmap.Map[Kind, []*SystemBase]
	stats   map[*SystemBase]*systemStatsInternal

	// Index
	nodes  *intmap.Map[uint32, *Node]
	groups map[string][]*Node

	// Scheduling
	step        float64
	accumulator float64
	frame       uint64
	ticking     bool
	freeQueue   []*Node

	// OnSceneReplaced fires with the new root (nil when cleared).
	OnSceneReplaced Signal[*Node]
	// OnResize fires with the new viewport width and height.
	OnResize Signal2[int, int]
	// OnNodeAdded fires for every node registered with the manager.
	OnNodeAdded Signal[*Node]
	// OnNodeRemoved fires for every node unregistered from the manager.
	OnNodeRemoved Signal[*Node]
	// Size holds the last viewport size passed to Resize.
	Size Value[Vec2]
}

// Option configures a SceneManager.
type Option func(*SceneManager)

// WithConfig sets the configuration. Invalid values are replaced with
// defaults; call Config.Validate first to reject them instead.
func WithConfig(cfg Config) Option {
	return func(sm *SceneManager) { sm.cfg = cfg }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(sm *SceneManager) {
		if l != nil {
			sm.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *Metrics) Option {
	return func(sm *SceneManager) { sm.metrics = m }
}

// WithRegistry gives the manager (and its systems) access to the manager
// registry.
func WithRegistry(r *Registry) Option {
	return func(sm *SceneManager) { sm.registry = r }
}

// NewSceneManager creates a scene manager with no scene and no systems.
func NewSceneManager(opts ...Option) *SceneManager {
	sm := &SceneManager{
		cfg:     DefaultConfig(),
		logger:  NopLogger(),
		systems: make(map[systemKey]System),
		byKind:  intmap.New[Kind, []*SystemBase](16),
		stats:   make(map[*SystemBase]*systemStatsInternal),
		nodes:   intmap.New[uint32, *Node](256),
		groups:  make(map[string][]*Node),
	}
	for _, opt := range opts {
		opt(sm)
	}
	def := DefaultConfig()
	if sm.cfg.PhysicsHz <= 0 {
		sm.cfg.PhysicsHz = def.PhysicsHz
	}
	if sm.cfg.MaxPhysicsSteps <= 0 {
		sm.cfg.MaxPhysicsSteps = def.MaxPhysicsSteps
	}
	sm.step = 1 / sm.cfg.PhysicsHz
	return sm
}

// Config returns the manager's configuration.
func (sm *SceneManager) Config() Config { return sm.cfg }

// Logger returns the manager's logger.
func (sm *SceneManager) Logger() *slog.Logger { return sm.logger }

// Registry returns the registry passed with WithRegistry, or nil.
func (sm *SceneManager) Registry() *Registry { return sm.registry }

// PhysicsStep returns the fixed physics step in seconds.
func (sm *SceneManager) PhysicsStep() float64 { return sm.step }

// Frame returns the number of ticks run so far.
func (sm *SceneManager) Frame() uint64 { return sm.frame }

// Setup implements Manager.
func (sm *SceneManager) Setup() error {
	sm.logger.Info("scene manager setup",
		"event", "scene_manager.setup",
		"physics_step", sm.step,
		"max_physics_steps", sm.cfg.MaxPhysicsSteps)
	return nil
}

// Teardown implements Manager. It clears the scene and removes every system.
func (sm *SceneManager) Teardown() error {
	sm.logger.Info("scene manager teardown", "event", "scene_manager.teardown")
	if err := sm.SetScene(nil); err != nil {
		return err
	}
	for _, s := range sm.Systems() {
		if err := sm.RemoveSystem(s); err != nil {
			return err
		}
	}
	return nil
}

// --- Scene ---

// Scene returns the current scene root, or nil.
func (sm *SceneManager) Scene() *Node { return sm.root }

// SetScene replaces the current scene. The old root exits the tree and is
// unregistered; OnSceneReplaced fires; the new root is registered and
// receives EnterTree then Ready. root may be nil to clear the scene.
func (sm *SceneManager) SetScene(root *Node) error {
	if root == sm.root {
		return nil
	}
	if root != nil {
		switch {
		case root.freed:
			return fmt.Errorf("set scene %q: %w", root.name, ErrFreed)
		case root.parent != nil:
			return fmt.Errorf("set scene %q: %w", root.name, ErrHasParent)
		case root.scene != nil:
			return fmt.Errorf("set scene %q: root of another scene manager: %w", root.name, ErrHasParent)
		}
	}

	old := sm.root
	sm.logger.Info("replacing scene",
		"event", "scene.replace",
		"old_scene", nodeName(old),
		"new_scene", nodeName(root))

	if old != nil {
		old.exitTree()
		sm.unregisterSubtree(old)
	}

	sm.root = root
	sm.OnSceneReplaced.Emit(root)

	if root != nil {
		sm.registerSubtree(root)
		root.BuildTree()
		sm.logger.Debug("scene built",
			"event", "scene.build_tree",
			"scene", root.name,
			"nodes", sm.nodes.Len())
	}
	return nil
}

// NodeByID returns the live node with the given ID.
func (sm *SceneManager) NodeByID(id uint32) (*Node, bool) {
	return sm.nodes.Get(id)
}

// NodeCount returns the number of nodes registered with the manager.
func (sm *SceneManager) NodeCount() int { return sm.nodes.Len() }

// Resize records the new viewport size and emits OnResize.
func (sm *SceneManager) Resize(width, height int) {
	sm.Size.Set(Vec2{float64(width), float64(height)})
	sm.OnResize.Emit(width, height)
	sm.logger.Debug("resize", "event", "scene.resize", "width", width, "height", height)
}

// --- Tick ---

// Tick advances the scene by delta seconds.
//
// Delta is added to the physics accumulator. While the accumulator holds a
// whole physics step, and at most Config.MaxPhysicsSteps times, a physics
// step runs: PhasePhysicsPre systems, the tree's PhysicsUpdate, then
// PhasePhysicsPost systems, each with the fixed step. Then PhaseFramePre
// systems, the tree's Update and PhaseFramePost systems run with delta.
// Nodes queued with QueueFree are freed last.
//
// The first system hook error aborts the tick and is returned.
func (sm *SceneManager) Tick(delta float64) error {
	if sm.root == nil {
		return nil
	}
	sm.ticking = true
	defer sm.endTick()
	sm.frame++

	sm.accumulator += delta
	steps := 0
	for sm.accumulator+physicsEpsilon >= sm.step && steps < sm.cfg.MaxPhysicsSteps {
		sm.accumulator = max(sm.accumulator-sm.step, 0)
		steps++
		if err := sm.runPhase(PhasePhysicsPre, sm.step); err != nil {
			return err
		}
		if sm.root != nil {
			sm.root.PhysicsUpdate(sm.step)
		}
		if err := sm.runPhase(PhasePhysicsPost, sm.step); err != nil {
			return err
		}
	}
	if steps == sm.cfg.MaxPhysicsSteps && sm.accumulator+physicsEpsilon >= sm.step {
		sm.logger.Debug("physics backlog carried over",
			"event", "tick.physics_backlog",
			"steps", steps,
			"backlog", sm.accumulator)
	}
	sm.metrics.observeTick(steps, sm.accumulator)

	if err := sm.runPhase(PhaseFramePre, delta); err != nil {
		return err
	}
	if sm.root != nil {
		sm.root.Update(delta)
	}
	return sm.runPhase(PhaseFramePost, delta)
}

func (sm *SceneManager) endTick() {
	sm.ticking = false
	queue := sm.freeQueue
	sm.freeQueue = nil
	for _, n := range queue {
		n.queued = false
		n.Free()
	}
}

func (sm *SceneManager) runPhase(p Phase, dt float64) error {
	for _, s := range sm.phases[p] {
		b := s.Base()
		start := time.Now()
		err := b.Tick(dt)
		d := time.Since(start)
		sm.recordStats(b, d)
		sm.metrics.observeSystem(b.name, p, d)
		if err != nil {
			return fmt.Errorf("tick %s: %w", p, err)
		}
	}
	return nil
}

// --- Systems ---

// AddSystem registers s. It fails with ErrSystemExists if a system of the
// same type and name is already registered. OnRegister runs once; if a scene
// is live its matching nodes are registered with s immediately.
func (sm *SceneManager) AddSystem(s System) error {
	b := s.Base()
	if b.scene != nil {
		return fmt.Errorf("add system %s: %w", b.name, ErrSystemExists)
	}
	b.bind(s)
	key := systemKey{reflect.TypeOf(s), b.name}
	if _, ok := sm.systems[key]; ok {
		return fmt.Errorf("add system %s: %w", b.name, ErrSystemExists)
	}
	sm.systems[key] = s

	// Stable insert after systems of equal priority.
	list := sm.phases[b.phase]
	i := len(list)
	for j, other := range list {
		if other.Base().priority > b.priority {
			i = j
			break
		}
	}
	sm.phases[b.phase] = slices.Insert(slices.Clone(list), i, s)

	b.requires.Each(func(k Kind) {
		bases, _ := sm.byKind.Get(k)
		sm.byKind.Put(k, append(bases, b))
	})
	b.scene = sm
	sm.stats[b] = newSystemStats(b)

	s.OnRegister(sm)
	sm.logger.Info("registered system",
		"event", "system.register",
		"system", b.name,
		"phase", b.phase.String(),
		"priority", b.priority,
		"requires", b.requires.String())

	if sm.root != nil {
		sm.root.Walk(func(n *Node) bool {
			b.Register(n)
			return true
		})
	}
	return nil
}

// RemoveSystem unregisters s and its matching nodes, then runs OnUnregister.
func (sm *SceneManager) RemoveSystem(s System) error {
	b := s.Base()
	key := systemKey{reflect.TypeOf(s), b.name}
	if cur, ok := sm.systems[key]; !ok || cur != s {
		return fmt.Errorf("remove system %s: %w", b.name, ErrSystemNotFound)
	}
	for _, n := range b.matching {
		b.Unregister(n)
	}
	delete(sm.systems, key)
	sm.phases[b.phase] = slices.DeleteFunc(slices.Clone(sm.phases[b.phase]), func(o System) bool { return o == s })
	b.requires.Each(func(k Kind) {
		bases, _ := sm.byKind.Get(k)
		bases = slices.DeleteFunc(slices.Clone(bases), func(o *SystemBase) bool { return o == b })
		if len(bases) == 0 {
			sm.byKind.Del(k)
		} else {
			sm.byKind.Put(k, bases)
		}
	})
	delete(sm.stats, b)

	s.OnUnregister(sm)
	b.scene = nil
	sm.logger.Info("unregistered system",
		"event", "system.unregister",
		"system", b.name,
		"phase", b.phase.String())
	return nil
}

// Systems returns every registered system in execution order.
func (sm *SceneManager) Systems() []System {
	var out []System
	for p := range phaseCount {
		out = append(out, sm.phases[p]...)
	}
	return out
}

// SystemsIn returns the systems of phase p in execution order.
func (sm *SceneManager) SystemsIn(p Phase) []System {
	if p >= phaseCount {
		return nil
	}
	return sm.phases[p]
}

// GetSystem returns the first registered system of type T in execution order.
func GetSystem[T System](sm *SceneManager) (T, error) {
	for _, s := range sm.Systems() {
		if t, ok := s.(T); ok {
			return t, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("get system %s: %w", reflect.TypeFor[T](), ErrSystemNotFound)
}

// MustSystem is like GetSystem but panics if no system of type T is registered.
func MustSystem[T System](sm *SceneManager) T {
	s, err := GetSystem[T](sm)
	if err != nil {
		panic("canopy: " + err.Error())
	}
	return s
}

// HasSystem reports whether a system of type T is registered.
func HasSystem[T System](sm *SceneManager) bool {
	_, err := GetSystem[T](sm)
	return err == nil
}

// --- Registration ---

// registerSubtree registers node and its descendants with the manager's
// index, groups and systems.
func (sm *SceneManager) registerSubtree(node *Node) {
	node.Walk(func(n *Node) bool {
		n.scene = sm
		sm.nodes.Put(n.id, n)
		for _, g := range n.groups {
			sm.indexGroup(g, n)
		}
		sm.registerNode(n)
		sm.metrics.nodeAdded()
		sm.OnNodeAdded.Emit(n)
		sm.logger.Debug("registered node", "event", "scene.register_node", "node_path", n.path)
		return true
	})
	sm.refreshAggregateAncestors(node.parent)
}

// unregisterSubtree reverses registerSubtree. The nodes keep their group
// tags so they are re-indexed if the subtree is attached again.
func (sm *SceneManager) unregisterSubtree(node *Node) {
	node.Walk(func(n *Node) bool {
		for _, b := range slices.Clone(n.memberOf) {
			b.Unregister(n)
		}
		for _, g := range n.groups {
			sm.unindexGroup(g, n)
		}
		sm.nodes.Del(n.id)
		n.scene = nil
		sm.metrics.nodeRemoved()
		sm.OnNodeRemoved.Emit(n)
		sm.logger.Debug("unregistered node", "event", "scene.unregister_node", "node_path", n.path)
		return true
	})
}

// registerNode registers n with every system interested in its kinds.
func (sm *SceneManager) registerNode(n *Node) {
	n.matchKinds().Each(func(k Kind) {
		bases, _ := sm.byKind.Get(k)
		for _, b := range bases {
			b.Register(n)
		}
	})
}

// refreshNode reconciles n's system membership with its current kinds.
func (sm *SceneManager) refreshNode(n *Node) {
	for _, b := range slices.Clone(n.memberOf) {
		if !b.Accepts(n) {
			b.Unregister(n)
		}
	}
	sm.registerNode(n)
}

// refreshAggregateAncestors re-evaluates every live aggregate node from p up
// to the root, since their match kinds depend on their descendants.
func (sm *SceneManager) refreshAggregateAncestors(p *Node) {
	for a := p; a != nil; a = a.parent {
		if a.aggregate && a.scene == sm {
			sm.refreshNode(a)
		}
	}
}

// --- Groups ---

// AddToGroup tags n with group, creating the group if needed. Nodes
// registered with the manager are indexed immediately.
func (sm *SceneManager) AddToGroup(group string, n *Node) {
	if !n.InGroup(group) {
		n.groups = append(n.groups, group)
	}
	if _, ok := sm.groups[group]; !ok {
		sm.groups[group] = nil
	}
	if n.scene == sm {
		sm.indexGroup(group, n)
	}
	sm.logger.Debug("added node to group", "event", "group.add", "group", group, "node_path", n.path)
}

// RemoveFromGroup removes the group tag from n. Fails with ErrGroupNotFound
// if the group was never created.
func (sm *SceneManager) RemoveFromGroup(group string, n *Node) error {
	if _, ok := sm.groups[group]; !ok {
		return fmt.Errorf("remove %q from group %q: %w", n.path, group, ErrGroupNotFound)
	}
	if i := slices.Index(n.groups, group); i >= 0 {
		n.groups = slices.Delete(n.groups, i, i+1)
	}
	sm.unindexGroup(group, n)
	sm.logger.Debug("removed node from group", "event", "group.remove", "group", group, "node_path", n.path)
	return nil
}

// SignalGroup calls fn for every node in group. Fails with ErrGroupNotFound
// if the group was never created.
func (sm *SceneManager) SignalGroup(group string, fn func(n *Node)) error {
	nodes, ok := sm.groups[group]
	if !ok {
		return fmt.Errorf("signal group %q: %w", group, ErrGroupNotFound)
	}
	sm.logger.Debug("signaling group", "event", "group.signal", "group", group, "count", len(nodes))
	for _, n := range nodes {
		fn(n)
	}
	return nil
}

// Group returns the live members of group in insertion order. The returned
// slice MUST NOT be mutated.
func (sm *SceneManager) Group(group string) []*Node { return sm.groups[group] }

// HasGroup reports whether group has been created.
func (sm *SceneManager) HasGroup(group string) bool {
	_, ok := sm.groups[group]
	return ok
}

// GroupNames returns the names of all groups, sorted.
func (sm *SceneManager) GroupNames() []string {
	names := make([]string, 0, len(sm.groups))
	for g := range sm.groups {
		names = append(names, g)
	}
	slices.Sort(names)
	return names
}

func (sm *SceneManager) indexGroup(group string, n *Node) {
	nodes := sm.groups[group]
	if slices.Contains(nodes, n) {
		return
	}
	sm.groups[group] = append(nodes, n)
}

func (sm *SceneManager) unindexGroup(group string, n *Node) {
	nodes, ok := sm.groups[group]
	if !ok {
		return
	}
	i := slices.Index(nodes, n)
	if i < 0 {
		return
	}
	sm.groups[group] = slices.Delete(slices.Clone(nodes), i, i+1)
}

func nodeName(n *Node) string {
	if n == nil {
		return ""
	}
	return n.name
}
