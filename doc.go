// Package canopy is a scene-graph runtime for 2D games built on [Ebitengine].
//
// Canopy provides the node tree, lifecycle callbacks, phase-scheduled tree
// systems, a fixed-step physics / variable-step frame loop, groups, signals
// and lazy node references. Rendering, physics, persistence and input are
// collaborators plugged in through the [System] and [Manager] contracts.
//
// # Quick start
//
// Build a tree with [Build], hand it to a [SceneManager] and tick it:
//
//	sm := canopy.NewSceneManager(canopy.WithLogger(canopy.NewLogger(slog.LevelInfo, nil)))
//	root, err := canopy.Build("level", func(b *canopy.Builder) {
//		b.Add("player", nil, canopy.WithPosition(100, 50), canopy.WithGroups("hero"))
//		b.Add("enemies", func(b *canopy.Builder) {
//			b.Add("e1", nil, canopy.WithGroups("hostile"))
//		})
//	})
//	if err != nil { ... }
//	if err := sm.SetScene(root); err != nil { ... }
//	for { _ = sm.Tick(1.0 / 60) }
//
// To open a window use [Run], which drives the scene manager from ebiten's
// update loop. Headless programs use [RunHeadless].
//
// # Scene graph
//
// Every entity is a [Node]. Children are name-indexed, so paths such as
// "../sibling", "/enemies/e1" and "$/ui" resolve with [Node.GetNode]. A
// node's capabilities are its [Kind] tags; per-kind payloads are attached
// with [Node.SetComponent].
//
// Lifecycle callbacks are delivered through a [Behavior]: EnterTree runs
// top-down and Ready bottom-up when a subtree joins a built tree, ExitTree
// runs top-down when it leaves, and Update / PhysicsUpdate run children
// first every frame / physics step.
//
// # Systems
//
// A [System] declares a [Phase], a priority and the kinds it requires. The
// scene manager keeps each system's set of matching nodes up to date as
// nodes join and leave the tree, and calls the system's hooks once per
// phase pass. Within a tick the order is physics-pre systems, the tree's
// physics update, physics-post systems (repeated per fixed step), then
// frame-pre systems, the tree's update and frame-post systems.
//
// Built-in systems: [AnimationSystem] (tweens via [gween]),
// [InputSystem] (action mapping), [CameraSystem] and [FrameStats]. The physics, save and
// ecs sub-packages add a kinematic physics system, a save manager and a
// [Donburi] event bridge.
//
// [Ebitengine]: https://ebitengine.org
// [gween]: https://github.com/tanema/gween
// [Donburi]: https://github.com/yohamta/donburi
package canopy
