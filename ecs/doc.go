// Package ecs bridges a canopy SceneManager into a [Donburi] world.
//
// A [Bridge] mirrors every registered node as an entity carrying a
// [NodeComponent] and publishes scene changes as [SceneEventType] events.
// Input actions can be forwarded too with [Bridge.ForwardInput]. Events are
// queued by donburi; call ProcessEvents from your ECS update to deliver them.
//
// Usage:
//
//	world := donburi.NewWorld()
//	bridge := ecs.NewBridge(sm, world)
//	defer bridge.Close()
//	ecs.SceneEventType.Subscribe(world, onSceneEvent)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
