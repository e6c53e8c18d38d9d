package simnode

import (
	"math"

	"github.com/automoto/drsync/config"
	"github.com/automoto/drsync/shared/deadreckoning"
	"github.com/automoto/drsync/shared/gamemath"
)

// Orbit parameters per entity kind: radius in world units, angular speed in
// radians per second.
var orbits = map[string]struct{ radius, speed float64 }{
	config.KindVehicle:  {radius: 20, speed: 0.3},
	config.KindPlayer:   {radius: 6, speed: 0.8},
	config.KindMunition: {radius: 60, speed: 1.5},
	config.KindStatic:   {radius: 0, speed: 0},
}

// Mover is a locally owned demo entity driving around a circle. Its height
// follows the ground when one is known.
type Mover struct {
	Kind  string
	state *deadreckoning.State

	center gamemath.Vec3
	radius float64
	speed  float64
	phase  float64
	t      float64
	ground deadreckoning.GroundQuery
}

// NewMover creates a mover of kind orbiting center, starting at phase
// radians.
func NewMover(kind string, center gamemath.Vec3, phase float64, ground deadreckoning.GroundQuery) *Mover {
	orbit, ok := orbits[kind]
	if !ok {
		orbit = orbits[config.KindVehicle]
	}
	m := &Mover{
		Kind:   kind,
		center: center,
		radius: orbit.radius,
		speed:  orbit.speed,
		phase:  phase,
		ground: ground,
	}
	m.state = config.ProfileFor(kind).NewState(m.kinematics())
	return m
}

func (m *Mover) DeadReckoningState() *deadreckoning.State {
	return m.state
}

// ApplyExtrapolated is a no-op: a local entity is shown where it is.
func (m *Mover) ApplyExtrapolated(deadreckoning.Transform) {}

// Step advances the mover by dt seconds and records its new kinematics.
func (m *Mover) Step(dt float64) error {
	m.t += dt
	return m.state.SetLastKnown(m.kinematics())
}

func (m *Mover) kinematics() deadreckoning.Kinematics {
	theta := m.phase + m.speed*m.t
	sin, cos := math.Sincos(theta)

	k := deadreckoning.Kinematics{
		Position: m.center.Add(gamemath.Vec3{X: m.radius * cos, Y: m.radius * sin}),
		Velocity: gamemath.Vec3{X: -m.radius * m.speed * sin, Y: m.radius * m.speed * cos},
		Acceleration: gamemath.Vec3{
			X: -m.radius * m.speed * m.speed * cos,
			Y: -m.radius * m.speed * m.speed * sin,
		},
	}
	if m.radius > 0 && m.speed != 0 {
		k.Orientation.X = gamemath.NormalizeDegrees(gamemath.RadToDeg(theta) + 90)
		k.AngularVelocity.X = gamemath.RadToDeg(m.speed)
	}

	if m.ground != nil {
		if height, _, err := m.ground.Query(k.Position); err == nil {
			k.Position.Z = height
		}
	}
	return k
}
