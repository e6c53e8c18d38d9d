package messages

import (
	"github.com/automoto/drsync/shared/deadreckoning"
	"github.com/automoto/drsync/shared/gamemath"
	"github.com/automoto/drsync/shared/netconfig"
	"github.com/leap-fish/necs/esync"
)

// EntityUpdate carries the kinematic state of one entity from its owning
// node to every other node. Fields says which of the value fields are set;
// absent ones must be ignored by the receiver.
type EntityUpdate struct {
	EntityID esync.NetworkId
	Origin   string // NodeID of the publishing node
	Sequence uint32 // Per-entity, incremented by the publisher

	Kind   netconfig.UpdateKind
	Fields netconfig.FieldMask

	Position        gamemath.Vec3
	Orientation     gamemath.Vec3
	Velocity        gamemath.Vec3
	Acceleration    gamemath.Vec3
	AngularVelocity gamemath.Vec3

	Algorithm   netconfig.Algorithm
	GroundClamp netconfig.GroundClamp

	// Profile names the tuning profile of the entity, set on full updates so
	// receivers can create the entity on first sight.
	Profile string
}

// NewEntityUpdate builds the message for a publish decision.
func NewEntityUpdate(id esync.NetworkId, seq uint32, live deadreckoning.Kinematics, d deadreckoning.Decision,
	alg netconfig.Algorithm, clamp netconfig.GroundClamp) EntityUpdate {
	u := EntityUpdate{
		EntityID: id,
		Sequence: seq,
		Kind:     d.Kind,
		Fields:   d.Fields,
	}
	if d.Fields.Has(netconfig.FieldPosition) {
		u.Position = live.Position
	}
	if d.Fields.Has(netconfig.FieldOrientation) {
		u.Orientation = gamemath.NormalizeEuler(live.Orientation)
	}
	if d.Fields.Has(netconfig.FieldVelocity) {
		u.Velocity = live.Velocity
	}
	if d.Fields.Has(netconfig.FieldAcceleration) {
		u.Acceleration = live.Acceleration
	}
	if d.Fields.Has(netconfig.FieldAngularVelocity) {
		u.AngularVelocity = live.AngularVelocity
	}
	if d.Fields.Has(netconfig.FieldAlgorithm) {
		u.Algorithm = alg
	}
	if d.Fields.Has(netconfig.FieldGroundClamp) {
		u.GroundClamp = clamp
	}
	return u
}

// Merge overlays the fields present in u on base.
func (u EntityUpdate) Merge(base deadreckoning.Kinematics) deadreckoning.Kinematics {
	if u.Fields.Has(netconfig.FieldPosition) {
		base.Position = u.Position
	}
	if u.Fields.Has(netconfig.FieldOrientation) {
		base.Orientation = u.Orientation
	}
	if u.Fields.Has(netconfig.FieldVelocity) {
		base.Velocity = u.Velocity
	}
	if u.Fields.Has(netconfig.FieldAcceleration) {
		base.Acceleration = u.Acceleration
	}
	if u.Fields.Has(netconfig.FieldAngularVelocity) {
		base.AngularVelocity = u.AngularVelocity
	}
	return base
}
