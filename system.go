package canopy

import (
	"fmt"
	"log/slog"
	"reflect"
	"slices"

	"github.com/kamstrup/intmap"
)

// System processes the nodes whose kinds intersect its required kinds,
// once per phase pass. Implementations embed SystemBase, which supplies
// no-op hooks, membership tracking and the Tick driver, and override the
// hooks they need:
//
//	type Gravity struct{ canopy.SystemBase }
//
//	func NewGravity() *Gravity {
//		return &Gravity{SystemBase: canopy.NewSystemBase(canopy.SystemConfig{
//			Phase:    canopy.PhasePhysicsPre,
//			Requires: canopy.Kinds(canopy.KindBody),
//		})}
//	}
//
//	func (g *Gravity) ProcessNode(n *canopy.Node, dt float64) error { ... }
type System interface {
	// Base returns the embedded SystemBase.
	Base() *SystemBase

	// OnRegister runs once when the system is added to a scene manager,
	// before any live nodes are registered with it.
	OnRegister(sm *SceneManager)
	// OnUnregister runs once when the system is removed, after its nodes
	// have been unregistered.
	OnUnregister(sm *SceneManager)
	// OnNodeAdded runs when a node starts matching the system.
	OnNodeAdded(n *Node)
	// OnNodeRemoved runs when a node stops matching the system.
	OnNodeRemoved(n *Node)

	BeforeProcess(dt float64) error
	ProcessNode(n *Node, dt float64) error
	AfterProcess(dt float64) error
}

// SystemConfig describes where and on what a system runs.
type SystemConfig struct {
	// Name identifies the system in logs, stats and metrics. Defaults to the
	// Go type name.
	Name string
	// Phase is the scheduling bucket the system runs in.
	Phase Phase
	// Priority orders systems within a phase; lower runs first.
	Priority int
	// Requires lists the kinds a node must carry (any of) to match.
	Requires KindSet
}

// SystemBase carries the scheduling data and matching-node set of a System.
type SystemBase struct {
	name     string
	phase    Phase
	priority int
	requires KindSet

	self     System
	scene    *SceneManager
	matching []*Node
	members  *intmap.Map[uint32, struct{}]
}

// NewSystemBase returns a SystemBase for embedding.
func NewSystemBase(cfg SystemConfig) SystemBase {
	return SystemBase{
		name:     cfg.Name,
		phase:    cfg.Phase,
		priority: cfg.Priority,
		requires: cfg.Requires,
	}
}

// Base returns b.
func (b *SystemBase) Base() *SystemBase { return b }

// Name returns the system's name.
func (b *SystemBase) Name() string { return b.name }

// Phase returns the phase the system runs in.
func (b *SystemBase) Phase() Phase { return b.phase }

// Priority returns the system's order within its phase.
func (b *SystemBase) Priority() int { return b.priority }

// Requires returns the kinds the system matches on.
func (b *SystemBase) Requires() KindSet { return b.requires }

// Scene returns the scene manager the system is registered with, or nil.
func (b *SystemBase) Scene() *SceneManager { return b.scene }

// Matching returns the matching nodes in registration order. The returned
// slice MUST NOT be mutated.
func (b *SystemBase) Matching() []*Node { return b.matching }

// Len returns the number of matching nodes.
func (b *SystemBase) Len() int { return len(b.matching) }

// Has reports whether n is currently matched by the system.
func (b *SystemBase) Has(n *Node) bool {
	return b.members != nil && b.members.Has(n.id)
}

// OnRegister does nothing.
func (b *SystemBase) OnRegister(*SceneManager) {}

// OnUnregister does nothing.
func (b *SystemBase) OnUnregister(*SceneManager) {}

// OnNodeAdded does nothing.
func (b *SystemBase) OnNodeAdded(*Node) {}

// OnNodeRemoved does nothing.
func (b *SystemBase) OnNodeRemoved(*Node) {}

// BeforeProcess does nothing.
func (b *SystemBase) BeforeProcess(float64) error { return nil }

// ProcessNode does nothing.
func (b *SystemBase) ProcessNode(*Node, float64) error { return nil }

// AfterProcess does nothing.
func (b *SystemBase) AfterProcess(float64) error { return nil }

// Accepts reports whether n matches the system's required kinds. Aggregate
// nodes match on the kinds of their whole subtree.
func (b *SystemBase) Accepts(n *Node) bool {
	return n.matchKinds().Intersects(b.requires)
}

// bind attaches the owning System so hooks dispatch to its overrides.
func (b *SystemBase) bind(self System) {
	b.self = self
	if b.name == "" {
		t := reflect.TypeOf(self)
		if t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		b.name = t.Name()
	}
	if b.members == nil {
		b.members = intmap.New[uint32, struct{}](64)
	}
}

// Register adds n to the matching set if it is accepted and not already a
// member, then runs OnNodeAdded. Reports whether n was added.
func (b *SystemBase) Register(n *Node) bool {
	if b.self == nil || n.id == 0 || b.Has(n) || !b.Accepts(n) {
		return false
	}
	b.matching = append(b.matching, n)
	b.members.Put(n.id, struct{}{})
	n.memberOf = append(n.memberOf, b)
	b.self.OnNodeAdded(n)
	return true
}

// Unregister removes n from the matching set and runs OnNodeRemoved.
func (b *SystemBase) Unregister(n *Node) {
	if !b.Has(n) {
		return
	}
	i := slices.Index(b.matching, n)
	// Copy so a Tick iterating the old slice is unaffected.
	b.matching = slices.Delete(slices.Clone(b.matching), i, i+1)
	b.members.Del(n.id)
	if j := slices.Index(n.memberOf, b); j >= 0 {
		n.memberOf = slices.Delete(n.memberOf, j, j+1)
	}
	b.self.OnNodeRemoved(n)
}

// Tick runs BeforeProcess, ProcessNode for every matching node, then
// AfterProcess. The first hook error aborts the tick and is returned.
func (b *SystemBase) Tick(dt float64) error {
	s := b.self
	if s == nil {
		return fmt.Errorf("tick system %q: %w", b.name, ErrSystemNotFound)
	}
	if err := s.BeforeProcess(dt); err != nil {
		return b.hookError("before_process", nil, err)
	}
	for _, n := range b.matching {
		if !b.Has(n) {
			continue
		}
		if err := s.ProcessNode(n, dt); err != nil {
			return b.hookError("process_node", n, err)
		}
	}
	if err := s.AfterProcess(dt); err != nil {
		return b.hookError("after_process", nil, err)
	}
	return nil
}

func (b *SystemBase) hookError(hook string, n *Node, err error) error {
	attrs := []any{
		"event", "system.hook_error",
		"system", b.name,
		"phase", b.phase.String(),
		"hook", hook,
		"error", err,
	}
	if n != nil {
		attrs = append(attrs, "node_path", n.path)
	}
	b.logger().Error("system hook failed", attrs...)
	if n != nil {
		return fmt.Errorf("system %s %s %s: %w", b.name, hook, n.path, err)
	}
	return fmt.Errorf("system %s %s: %w", b.name, hook, err)
}

// logger returns the scene manager's logger, or a no-op logger when the
// system is driven on its own.
func (b *SystemBase) logger() *slog.Logger {
	if b.scene != nil {
		return b.scene.logger
	}
	return NopLogger()
}

// Logger returns the logger systems should log through.
func (b *SystemBase) Logger() *slog.Logger { return b.logger() }

// FuncSystem is a System assembled from optional callbacks.
type FuncSystem struct {
	SystemBase

	Before  func(dt float64) error
	Process func(n *Node, dt float64) error
	After   func(dt float64) error
	Added   func(n *Node)
	Removed func(n *Node)
}

// NewFuncSystem returns a FuncSystem with the given configuration. Name
// should be set when more than one FuncSystem is added to a scene manager.
func NewFuncSystem(cfg SystemConfig) *FuncSystem {
	if cfg.Name == "" {
		cfg.Name = "FuncSystem"
	}
	return &FuncSystem{SystemBase: NewSystemBase(cfg)}
}

// BeforeProcess calls Before if set.
func (f *FuncSystem) BeforeProcess(dt float64) error {
	if f.Before != nil {
		return f.Before(dt)
	}
	return nil
}

// ProcessNode calls Process if set.
func (f *FuncSystem) ProcessNode(n *Node, dt float64) error {
	if f.Process != nil {
		return f.Process(n, dt)
	}
	return nil
}

// AfterProcess calls After if set.
func (f *FuncSystem) AfterProcess(dt float64) error {
	if f.After != nil {
		return f.After(dt)
	}
	return nil
}

// OnNodeAdded calls Added if set.
func (f *FuncSystem) OnNodeAdded(n *Node) {
	if f.Added != nil {
		f.Added(n)
	}
}

// OnNodeRemoved calls Removed if set.
func (f *FuncSystem) OnNodeRemoved(n *Node) {
	if f.Removed != nil {
		f.Removed(n)
	}
}
