package ecs

import (
	"github.com/phanxgames/picking"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// InteractionEventType is the Donburi event type for picking events.
var InteractionEventType = events.NewEventType[picking.Event]()

// ParentData links an entity to its parent for event bubbling.
type ParentData struct {
	Entity donburi.Entity
}

// Parent is the component read by Hierarchy.
var Parent = donburi.NewComponentType[ParentData]()

// FromDonburi converts a Donburi entity into a picking entity. The
// conversion keeps the version bits, so a recycled id is a new entity.
func FromDonburi(e donburi.Entity) picking.Entity {
	return picking.Entity(e)
}

// ToDonburi converts a picking entity produced by FromDonburi back.
func ToDonburi(e picking.Entity) donburi.Entity {
	return donburi.Entity(e)
}

type donburiStore struct {
	world donburi.World
}

// NewDonburiStore creates an EntityStore backed by a Donburi world.
// Events are published to InteractionEventType and can be consumed with
// events.Subscribe and ProcessEvents.
func NewDonburiStore(world donburi.World) picking.EntityStore {
	return &donburiStore{world: world}
}

func (s *donburiStore) EmitEvent(event picking.Event) {
	InteractionEventType.Publish(s.world, event)
}

// Hierarchy returns the parent-of relation stored in the Parent component.
// Entities that are gone, have no Parent, or point at a gone parent are
// roots.
func Hierarchy(world donburi.World) picking.Hierarchy {
	return picking.HierarchyFunc(func(e picking.Entity) (picking.Entity, bool) {
		de := ToDonburi(e)
		if !world.Valid(de) {
			return picking.NoEntity, false
		}
		entry := world.Entry(de)
		if !entry.HasComponent(Parent) {
			return picking.NoEntity, false
		}
		p := Parent.Get(entry).Entity
		if p == donburi.Null || !world.Valid(p) {
			return picking.NoEntity, false
		}
		return FromDonburi(p), true
	})
}

// Liveness reports an entity alive while it is valid in world.
func Liveness(world donburi.World) picking.Liveness {
	return picking.LivenessFunc(func(e picking.Entity) bool {
		return world.Valid(ToDonburi(e))
	})
}

// SetParent sets or replaces the Parent component of child.
func SetParent(world donburi.World, child, parent donburi.Entity) {
	entry := world.Entry(child)
	if !entry.HasComponent(Parent) {
		entry.AddComponent(Parent)
	}
	Parent.SetValue(entry, ParentData{Entity: parent})
}
