package archetypes

import (
	"github.com/automoto/drsync/components"
	"github.com/automoto/drsync/tags"
	"github.com/leap-fish/necs/esync"
	"github.com/yohamta/donburi"
)

var (
	LocalEntity = newArchetype(
		tags.Local,
		esync.NetworkIdComponent,
		components.DeadReckoning,
	)
	RemoteEntity = newArchetype(
		tags.Remote,
		esync.NetworkIdComponent,
		components.DeadReckoning,
		components.Receive,
	)
)

type archetype struct {
	components []donburi.IComponentType
}

func newArchetype(cs ...donburi.IComponentType) *archetype {
	return &archetype{
		components: cs,
	}
}

func (a *archetype) Spawn(world donburi.World, cs ...donburi.IComponentType) *donburi.Entry {
	e := world.Entry(world.Create(
		append(a.components, cs...)...,
	))
	return e
}
