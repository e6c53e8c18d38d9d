package deadreckoning

import (
	"math"

	"github.com/automoto/drsync/shared/gamemath"
	"github.com/automoto/drsync/shared/netconfig"
)

// Extrapolate projects k forward by dt seconds using alg.
//
// NONE and STATIC return the snapshot pose unchanged. VELOCITY_ONLY advances
// position by v·dt and orientation by ω·dt. VELOCITY_AND_ACCELERATION adds
// ½·a·dt² to the translation and a·dt to the velocity; rotation is the same
// as VELOCITY_ONLY since angular acceleration is not modelled.
//
// The result depends only on the arguments. Negative or non-finite dt is
// treated as zero.
func Extrapolate(k Kinematics, alg netconfig.Algorithm, dt float64) Transform {
	dt = sanitizeDt(dt)

	out := Transform{
		Position:    k.Position,
		Orientation: gamemath.NormalizeEuler(k.Orientation),
	}

	switch alg {
	case netconfig.AlgorithmVelocityOnly:
		out.Position = k.Position.Add(k.Velocity.Scale(dt))
		out.Orientation = advanceOrientation(k.Orientation, k.AngularVelocity, dt)
		out.Velocity = k.Velocity

	case netconfig.AlgorithmVelocityAndAcceleration:
		out.Position = k.Position.
			Add(k.Velocity.Scale(dt)).
			Add(k.Acceleration.Scale(0.5 * dt * dt))
		out.Orientation = advanceOrientation(k.Orientation, k.AngularVelocity, dt)
		out.Velocity = k.Velocity.Add(k.Acceleration.Scale(dt))
	}

	return out
}

// advanceOrientation applies a constant-rate rotation and re-normalizes.
func advanceOrientation(o, angular gamemath.Vec3, dt float64) gamemath.Vec3 {
	return gamemath.NormalizeEuler(o.Add(angular.Scale(dt)))
}

func sanitizeDt(dt float64) float64 {
	if !(dt > 0) || math.IsInf(dt, 1) {
		return 0
	}
	return dt
}
