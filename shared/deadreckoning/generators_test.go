package deadreckoning

import (
	"github.com/automoto/drsync/shared/gamemath"
	"github.com/automoto/drsync/shared/netconfig"
	"pgregory.net/rapid"
)

func vec3Gen(lo, hi float64) *rapid.Generator[gamemath.Vec3] {
	return rapid.Custom(func(t *rapid.T) gamemath.Vec3 {
		return gamemath.Vec3{
			X: rapid.Float64Range(lo, hi).Draw(t, "x"),
			Y: rapid.Float64Range(lo, hi).Draw(t, "y"),
			Z: rapid.Float64Range(lo, hi).Draw(t, "z"),
		}
	})
}

func orientationGen() *rapid.Generator[gamemath.Vec3] {
	return rapid.Custom(func(t *rapid.T) gamemath.Vec3 {
		return gamemath.NormalizeEuler(vec3Gen(-180, 180).Draw(t, "orientation"))
	})
}

func kinematicsGen() *rapid.Generator[Kinematics] {
	return rapid.Custom(func(t *rapid.T) Kinematics {
		return Kinematics{
			Position:        vec3Gen(-1e4, 1e4).Draw(t, "position"),
			Orientation:     orientationGen().Draw(t, "orientation"),
			Velocity:        vec3Gen(-500, 500).Draw(t, "velocity"),
			Acceleration:    vec3Gen(-50, 50).Draw(t, "acceleration"),
			AngularVelocity: vec3Gen(-360, 360).Draw(t, "angular"),
		}
	})
}

func algorithmGen() *rapid.Generator[netconfig.Algorithm] {
	return rapid.SampledFrom([]netconfig.Algorithm{
		netconfig.AlgorithmNone,
		netconfig.AlgorithmStatic,
		netconfig.AlgorithmVelocityOnly,
		netconfig.AlgorithmVelocityAndAcceleration,
	})
}
