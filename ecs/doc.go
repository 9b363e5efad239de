// Package ecs bridges the picking pipeline into a [Donburi] world.
//
// [NewDonburiStore] publishes every dispatched picking event to
// [InteractionEventType]; subscribe to it in your ECS systems. [Hierarchy]
// bubbles events along the [Parent] component, and [Liveness] retires
// interaction state of removed entities.
//
// Usage:
//
//	p.SetEntityStore(ecs.NewDonburiStore(world))
//	p.SetHierarchy(ecs.Hierarchy(world))
//	p.SetLiveness(ecs.Liveness(world))
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
