package ecs

import (
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
	"github.com/yohamta/donburi/filter"

	"github.com/phanxgames/canopy"
)

// SceneEventKind classifies a SceneEvent.
type SceneEventKind uint8

const (
	NodeAdded SceneEventKind = iota
	NodeRemoved
	SceneReplaced
	Resized
)

var sceneEventKindNames = [...]string{
	NodeAdded:     "node_added",
	NodeRemoved:   "node_removed",
	SceneReplaced: "scene_replaced",
	Resized:       "resized",
}

// String returns the kind's name.
func (k SceneEventKind) String() string {
	if int(k) < len(sceneEventKindNames) {
		return sceneEventKindNames[k]
	}
	return "unknown"
}

// SceneEvent describes a change in the bridged scene.
type SceneEvent struct {
	Kind   SceneEventKind
	NodeID uint32
	Path   string
	Kinds  canopy.KindSet
	// Entity is the node's mirror entity for NodeAdded and NodeRemoved.
	Entity donburi.Entity
	// Width and Height are set for Resized.
	Width, Height int
}

// ActionEvent is an input action forwarded from a canopy InputSystem.
type ActionEvent struct {
	Action string
	State  canopy.InputState
}

// NodeData is the component stored on a node's mirror entity.
type NodeData struct {
	ID    uint32
	Name  string
	Path  string
	Kinds canopy.KindSet
}

var (
	// SceneEventType carries SceneEvents.
	SceneEventType = events.NewEventType[SceneEvent]()
	// ActionEventType carries ActionEvents.
	ActionEventType = events.NewEventType[ActionEvent]()
	// NodeComponent is attached to every mirror entity.
	NodeComponent = donburi.NewComponentType[NodeData]()
	// NodeQuery matches mirror entities.
	NodeQuery = donburi.NewQuery(filter.Contains(NodeComponent))
)

// Bridge mirrors a SceneManager into a donburi world.
type Bridge struct {
	sm       *canopy.SceneManager
	world    donburi.World
	entities map[uint32]donburi.Entity
	conns    []canopy.Connection
}

// NewBridge connects to sm and mirrors the nodes it already holds.
func NewBridge(sm *canopy.SceneManager, world donburi.World) *Bridge {
	b := &Bridge{sm: sm, world: world, entities: make(map[uint32]donburi.Entity)}
	if root := sm.Scene(); root != nil {
		root.Walk(func(n *canopy.Node) bool {
			b.nodeAdded(n)
			return true
		})
	}
	b.conns = append(b.conns,
		sm.OnNodeAdded.Connect(b.nodeAdded),
		sm.OnNodeRemoved.Connect(b.nodeRemoved),
		sm.OnSceneReplaced.Connect(b.sceneReplaced),
		sm.OnResize.Connect(b.resized),
	)
	return b
}

// ForwardInput publishes every action event of in as an ActionEvent until
// the bridge is closed.
func (b *Bridge) ForwardInput(in *canopy.InputSystem) {
	b.conns = append(b.conns, in.OnAction.Connect(func(ev *canopy.InputEvent) {
		ActionEventType.Publish(b.world, ActionEvent{Action: ev.Action, State: ev.State})
	}))
}

// World returns the bridged world.
func (b *Bridge) World() donburi.World { return b.world }

// Entity returns the mirror entity of n.
func (b *Bridge) Entity(n *canopy.Node) (donburi.Entity, bool) {
	e, ok := b.entities[n.ID()]
	return e, ok
}

// Close disconnects from the scene manager. Mirror entities stay in the
// world.
func (b *Bridge) Close() {
	for _, c := range b.conns {
		c.Disconnect()
	}
	b.conns = nil
}

func (b *Bridge) nodeAdded(n *canopy.Node) {
	if _, ok := b.entities[n.ID()]; ok {
		return
	}
	e := b.world.Create(NodeComponent)
	NodeComponent.SetValue(b.world.Entry(e), NodeData{
		ID:    n.ID(),
		Name:  n.Name(),
		Path:  n.Path(),
		Kinds: n.Kinds(),
	})
	b.entities[n.ID()] = e
	SceneEventType.Publish(b.world, SceneEvent{
		Kind:   NodeAdded,
		NodeID: n.ID(),
		Path:   n.Path(),
		Kinds:  n.Kinds(),
		Entity: e,
	})
}

func (b *Bridge) nodeRemoved(n *canopy.Node) {
	e, ok := b.entities[n.ID()]
	if !ok {
		return
	}
	delete(b.entities, n.ID())
	if b.world.Valid(e) {
		b.world.Remove(e)
	}
	SceneEventType.Publish(b.world, SceneEvent{
		Kind:   NodeRemoved,
		NodeID: n.ID(),
		Path:   n.Path(),
		Kinds:  n.Kinds(),
		Entity: e,
	})
}

func (b *Bridge) sceneReplaced(root *canopy.Node) {
	ev := SceneEvent{Kind: SceneReplaced}
	if root != nil {
		ev.NodeID = root.ID()
		ev.Path = root.Path()
	}
	SceneEventType.Publish(b.world, ev)
}

func (b *Bridge) resized(w, h int) {
	SceneEventType.Publish(b.world, SceneEvent{Kind: Resized, Width: w, Height: h})
}
