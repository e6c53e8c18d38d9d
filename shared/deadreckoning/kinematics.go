package deadreckoning

import "github.com/automoto/drsync/shared/gamemath"

// Kinematics is an authoritative kinematic snapshot of one entity.
// Orientation is heading, pitch, roll in degrees; AngularVelocity is degrees
// per second on the same axes.
type Kinematics struct {
	Position        gamemath.Vec3
	Orientation     gamemath.Vec3
	Velocity        gamemath.Vec3
	Acceleration    gamemath.Vec3
	AngularVelocity gamemath.Vec3
}

// IsFinite reports whether every field is free of NaN and ±Inf.
func (k Kinematics) IsFinite() bool {
	return k.Position.IsFinite() &&
		k.Orientation.IsFinite() &&
		k.Velocity.IsFinite() &&
		k.Acceleration.IsFinite() &&
		k.AngularVelocity.IsFinite()
}

// Normalized returns a copy with the orientation in [-180, 180).
func (k Kinematics) Normalized() Kinematics {
	k.Orientation = gamemath.NormalizeEuler(k.Orientation)
	return k
}

// Transform is a predicted or displayed pose.
type Transform struct {
	Position    gamemath.Vec3
	Orientation gamemath.Vec3
	Velocity    gamemath.Vec3
}

// TransformOf returns the pose described by a snapshot without projection.
func TransformOf(k Kinematics) Transform {
	return Transform{
		Position:    k.Position,
		Orientation: gamemath.NormalizeEuler(k.Orientation),
		Velocity:    k.Velocity,
	}
}
