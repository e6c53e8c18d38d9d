package deadreckoning

import "github.com/automoto/drsync/shared/gamemath"

// DeadReckonable is the capability the registry needs from an entity.
type DeadReckonable interface {
	DeadReckoningState() *State
	ApplyExtrapolated(t Transform)
}

// TransformSink receives the displayed transform of an entity, typically a
// scene graph or physics proxy keyed by entity id.
type TransformSink[ID comparable] interface {
	ApplyTransform(id ID, position, orientation gamemath.Vec3)
}

// Actor composes a State with a TransformSink for hosts that keep their
// entity representations outside the entity itself.
type Actor[ID comparable] struct {
	ID    ID
	State *State
	Sink  TransformSink[ID]
}

func NewActor[ID comparable](id ID, state *State, sink TransformSink[ID]) *Actor[ID] {
	return &Actor[ID]{ID: id, State: state, Sink: sink}
}

func (a *Actor[ID]) DeadReckoningState() *State {
	return a.State
}

func (a *Actor[ID]) ApplyExtrapolated(t Transform) {
	if a.Sink == nil {
		return
	}
	a.Sink.ApplyTransform(a.ID, t.Position, t.Orientation)
}
