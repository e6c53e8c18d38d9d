package deadreckoning

import (
	"math"
	"testing"

	"github.com/automoto/drsync/shared/gamemath"
	"github.com/automoto/drsync/shared/netconfig"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestExtrapolateIsDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		k := kinematicsGen().Draw(t, "k")
		alg := algorithmGen().Draw(t, "alg")
		dt := rapid.Float64Range(0, 30).Draw(t, "dt")

		first := Extrapolate(k, alg, dt)
		for i := 0; i < 3; i++ {
			if again := Extrapolate(k, alg, dt); again != first {
				t.Fatalf("call %d differs: %+v vs %+v", i, again, first)
			}
		}
	})
}

func TestExtrapolateZeroTimeReturnsSnapshot(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		k := kinematicsGen().Draw(t, "k")
		alg := algorithmGen().Draw(t, "alg")

		got := Extrapolate(k, alg, 0)
		if got.Position != k.Position {
			t.Fatalf("position %+v, want %+v", got.Position, k.Position)
		}
		if got.Orientation != k.Orientation {
			t.Fatalf("orientation %+v, want %+v", got.Orientation, k.Orientation)
		}
	})
}

func TestExtrapolateVelocityOnly(t *testing.T) {
	k := Kinematics{
		Position: gamemath.Vec3{X: 1, Y: 2, Z: 3},
		Velocity: gamemath.Vec3{X: 2},
	}

	got := Extrapolate(k, netconfig.AlgorithmVelocityOnly, 3.0)

	assert.Equal(t, gamemath.Vec3{X: 7, Y: 2, Z: 3}, got.Position)
	assert.Equal(t, k.Velocity, got.Velocity)
}

func TestExtrapolateVelocityOnlyIgnoresAcceleration(t *testing.T) {
	k := Kinematics{
		Velocity:     gamemath.Vec3{Y: 1},
		Acceleration: gamemath.Vec3{Y: 10},
	}

	got := Extrapolate(k, netconfig.AlgorithmVelocityOnly, 2)

	assert.Equal(t, gamemath.Vec3{Y: 2}, got.Position)
}

func TestExtrapolateVelocityAndAcceleration(t *testing.T) {
	k := Kinematics{
		Position:     gamemath.Vec3{Z: 100},
		Velocity:     gamemath.Vec3{X: 10},
		Acceleration: gamemath.Vec3{Z: -10},
	}

	got := Extrapolate(k, netconfig.AlgorithmVelocityAndAcceleration, 2)

	assert.Equal(t, gamemath.Vec3{X: 20, Z: 80}, got.Position)
	assert.Equal(t, gamemath.Vec3{X: 10, Z: -20}, got.Velocity)
}

func TestExtrapolateStaticAndNoneHoldPose(t *testing.T) {
	k := Kinematics{
		Position:        gamemath.Vec3{X: 5},
		Orientation:     gamemath.Vec3{X: 45},
		Velocity:        gamemath.Vec3{X: 100},
		AngularVelocity: gamemath.Vec3{X: 90},
	}

	for _, alg := range []netconfig.Algorithm{netconfig.AlgorithmNone, netconfig.AlgorithmStatic} {
		got := Extrapolate(k, alg, 10)
		assert.Equal(t, k.Position, got.Position, alg.String())
		assert.Equal(t, k.Orientation, got.Orientation, alg.String())
	}
}

func TestExtrapolateRotationWrapsToCanonicalRange(t *testing.T) {
	k := Kinematics{
		Orientation:     gamemath.Vec3{X: 170, Y: -170},
		AngularVelocity: gamemath.Vec3{X: 20, Y: -20},
	}

	got := Extrapolate(k, netconfig.AlgorithmVelocityOnly, 1)

	assert.InDelta(t, -170, got.Orientation.X, 1e-9)
	assert.InDelta(t, 170, got.Orientation.Y, 1e-9)
}

func TestExtrapolateTreatsBadDtAsZero(t *testing.T) {
	k := Kinematics{Position: gamemath.Vec3{X: 1}, Velocity: gamemath.Vec3{X: 1}}

	for _, dt := range []float64{-1, math.NaN(), math.Inf(1), math.Inf(-1)} {
		got := Extrapolate(k, netconfig.AlgorithmVelocityOnly, dt)
		assert.Equal(t, k.Position, got.Position, "dt=%v", dt)
	}
}
