package deadreckoning

import (
	"github.com/automoto/drsync/shared/gamemath"
	"github.com/automoto/drsync/shared/netconfig"
)

// PublishPolicy holds the cadence tunables of the publish decision.
type PublishPolicy struct {
	// FullUpdateEvery makes every Nth threshold-triggered publish a full one.
	// Zero disables the cadence.
	FullUpdateEvery int
	// HeartbeatInterval forces a full update once this many seconds passed
	// since the last one. Zero disables the heartbeat.
	HeartbeatInterval float64
	// MinPublishInterval suppresses threshold-triggered publishes that come
	// sooner than this after the previous one.
	MinPublishInterval float64

	PublishLinearVelocity  bool
	PublishAngularVelocity bool

	// UseVelocityInDecision compares live state against the baseline
	// extrapolated with the transmitted algorithm, which is what remote
	// nodes predict.
	UseVelocityInDecision bool
}

// Baseline is what was last transmitted for a locally owned entity, i.e.
// the snapshot and algorithm receivers extrapolate from. Thresholds are
// stored squared.
type Baseline struct {
	Position        gamemath.Vec3
	Orientation     gamemath.Vec3
	Velocity        gamemath.Vec3
	Acceleration    gamemath.Vec3
	AngularVelocity gamemath.Vec3
	Algorithm       netconfig.Algorithm

	MaxTranslationError2 float64
	MaxRotationError2    float64

	TimeSincePublish  float64
	TimeSinceFull     float64
	PartialsSinceFull int

	forceFull bool
	sent      bool
}

// NewBaseline creates a baseline at k extrapolated with alg, with
// thresholds given as plain distances (units and degrees). Negative or
// non-finite thresholds are clamped to 0, which publishes on any change.
func NewBaseline(k Kinematics, alg netconfig.Algorithm, maxTranslationError, maxRotationError float64) *Baseline {
	b := &Baseline{
		Algorithm:            alg,
		MaxTranslationError2: squaredThreshold("max translation error", maxTranslationError),
		MaxRotationError2:    squaredThreshold("max rotation error", maxRotationError),
	}
	b.capture(k.Normalized(), netconfig.FieldsAll)
	return b
}

func squaredThreshold(name string, v float64) float64 {
	if !gamemath.IsFinite(v) || v < 0 {
		logger.Warn("invalid publish threshold, clamped to 0", "field", name, "value", v)
		return 0
	}
	return v * v
}

// capture overwrites the fields in mask only; the others keep what
// receivers still hold from earlier updates.
func (b *Baseline) capture(k Kinematics, mask netconfig.FieldMask) {
	if mask.Has(netconfig.FieldPosition) {
		b.Position = k.Position
	}
	if mask.Has(netconfig.FieldOrientation) {
		b.Orientation = k.Orientation
	}
	if mask.Has(netconfig.FieldVelocity) {
		b.Velocity = k.Velocity
	}
	if mask.Has(netconfig.FieldAcceleration) {
		b.Acceleration = k.Acceleration
	}
	if mask.Has(netconfig.FieldAngularVelocity) {
		b.AngularVelocity = k.AngularVelocity
	}
}

func (b *Baseline) kinematics() Kinematics {
	return Kinematics{
		Position:        b.Position,
		Orientation:     b.Orientation,
		Velocity:        b.Velocity,
		Acceleration:    b.Acceleration,
		AngularVelocity: b.AngularVelocity,
	}
}

// ForceFull requests a full update on the next decision, e.g. after a
// discrete state change that the thresholds cannot see.
func (b *Baseline) ForceFull() {
	b.forceFull = true
}

// FullPending reports whether a forced full update is pending.
func (b *Baseline) FullPending() bool {
	return b.forceFull
}

// Advance accumulates the publish timers.
func (b *Baseline) Advance(dt float64) {
	dt = sanitizeDt(dt)
	b.TimeSincePublish += dt
	b.TimeSinceFull += dt
}

// Reset records the fields of d as just published from live. alg is the
// algorithm tag sent with it, recorded when d carries one.
func (b *Baseline) Reset(live Kinematics, d Decision, alg netconfig.Algorithm) {
	if d.Kind == netconfig.UpdateNone {
		return
	}
	b.capture(live.Normalized(), d.Fields)
	if d.Fields.Has(netconfig.FieldAlgorithm) {
		b.Algorithm = alg
	}
	b.TimeSincePublish = 0
	b.sent = true

	if d.Kind == netconfig.UpdateFull {
		b.TimeSinceFull = 0
		b.PartialsSinceFull = 0
		b.forceFull = false
		return
	}
	b.PartialsSinceFull++
}

// Divergence returns the squared translation error and the squared
// rotation error (sum of per-axis shortest-path deltas, degrees²) of live
// against the baseline. Ground clamping is not part of the projection.
func (b *Baseline) Divergence(live Kinematics, p PublishPolicy) (translation2, rotation2 float64) {
	expectedPos := b.Position
	expectedRot := b.Orientation
	if p.UseVelocityInDecision {
		predicted := Extrapolate(b.kinematics(), b.Algorithm, b.TimeSincePublish)
		expectedPos = predicted.Position
		expectedRot = predicted.Orientation
	}

	translation2 = live.Position.Sub(expectedPos).LengthSq()
	rotation2 = gamemath.EulerDelta(expectedRot, live.Orientation).LengthSq()
	return translation2, rotation2
}

// Decision is the outcome of ShouldPublish.
type Decision struct {
	Kind   netconfig.UpdateKind
	Fields netconfig.FieldMask
}

// Publish reports whether anything is to be sent.
func (d Decision) Publish() bool {
	return d.Kind != netconfig.UpdateNone
}

// ShouldPublish decides whether live has diverged enough from b to send an
// update, and which kind.
//
// A pending forced update or an expired heartbeat always yields full.
// Otherwise nothing is sent unless a squared error strictly exceeds its
// threshold. A triggered publish is full when it is the FullUpdateEvery-th
// since the last full one, partial otherwise.
func ShouldPublish(live Kinematics, b *Baseline, p PublishPolicy) Decision {
	if b.forceFull || (p.HeartbeatInterval > 0 && b.TimeSinceFull >= p.HeartbeatInterval) {
		return Decision{Kind: netconfig.UpdateFull, Fields: netconfig.FieldsAll}
	}

	if b.sent && p.MinPublishInterval > 0 && b.TimeSincePublish < p.MinPublishInterval {
		return Decision{}
	}

	translation2, rotation2 := b.Divergence(live, p)
	if translation2 <= b.MaxTranslationError2 && rotation2 <= b.MaxRotationError2 {
		return Decision{}
	}

	if p.FullUpdateEvery > 0 && b.PartialsSinceFull+1 >= p.FullUpdateEvery {
		return Decision{Kind: netconfig.UpdateFull, Fields: netconfig.FieldsAll}
	}

	fields := netconfig.FieldPosition | netconfig.FieldOrientation
	if p.PublishLinearVelocity {
		fields |= netconfig.FieldVelocity
	}
	if p.PublishAngularVelocity {
		fields |= netconfig.FieldAngularVelocity
	}
	return Decision{Kind: netconfig.UpdatePartial, Fields: fields}
}
