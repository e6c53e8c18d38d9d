package deadreckoning

import (
	"fmt"

	"github.com/automoto/drsync/shared/gamemath"
	"github.com/automoto/drsync/shared/netconfig"
	"github.com/tanema/gween/ease"
)

// StateOptions configures a State. Zero rates select the package defaults.
type StateOptions struct {
	Algorithm                   netconfig.Algorithm
	GroundClamp                 netconfig.GroundClamp
	MaxTranslationSmoothingTime float64
	MaxRotationSmoothingTime    float64
	UseFixedSmoothingTime       bool
	UseCubicSplineBlend         bool
	BlendEase                   string
	TranslationSmoothingRate    float64
	RotationSmoothingRate       float64
}

// State is the dead-reckoning record of one entity. It is owned by the
// entity; the registry only holds a reference to it.
//
// A State is not safe for concurrent use. Local physics and remote
// extrapolation never touch the same State within a tick.
type State struct {
	lastKnown       Kinematics
	timeSinceUpdate float64

	algorithm   netconfig.Algorithm
	groundClamp netconfig.GroundClamp

	maxTranslationSmoothing float64
	maxRotationSmoothing    float64
	fixedSmoothing          bool
	cubicBlend              bool
	easeName                string
	ease                    ease.TweenFunc
	translationRate         float64
	rotationRate            float64

	correction   Correction
	displayed    Transform
	hasDisplayed bool
	recapture    bool
}

// NewState creates a State at the given snapshot. Invalid options are
// clamped to safe values and logged.
func NewState(initial Kinematics, opts StateOptions) *State {
	if !initial.IsFinite() {
		logger.Error("initial kinematics not finite, starting at origin")
		initial = Kinematics{}
	}

	s := &State{
		lastKnown:               initial.Normalized(),
		algorithm:               validAlgorithm(opts.Algorithm),
		groundClamp:             validGroundClamp(opts.GroundClamp),
		maxTranslationSmoothing: sanitizeSeconds("max translation smoothing time", opts.MaxTranslationSmoothingTime),
		maxRotationSmoothing:    sanitizeSeconds("max rotation smoothing time", opts.MaxRotationSmoothingTime),
		fixedSmoothing:          opts.UseFixedSmoothingTime,
		cubicBlend:              opts.UseCubicSplineBlend,
		translationRate:         sanitizeRate(opts.TranslationSmoothingRate, DefaultTranslationSmoothingRate),
		rotationRate:            sanitizeRate(opts.RotationSmoothingRate, DefaultRotationSmoothingRate),
	}
	s.easeName, s.ease = lookupEase(opts.BlendEase)

	return s
}

func (s *State) LastKnown() Kinematics                { return s.lastKnown }
func (s *State) TimeSinceUpdate() float64             { return s.timeSinceUpdate }
func (s *State) Algorithm() netconfig.Algorithm       { return s.algorithm }
func (s *State) GroundClamp() netconfig.GroundClamp   { return s.groundClamp }
func (s *State) MaxTranslationSmoothingTime() float64 { return s.maxTranslationSmoothing }
func (s *State) MaxRotationSmoothingTime() float64    { return s.maxRotationSmoothing }
func (s *State) UseFixedSmoothingTime() bool          { return s.fixedSmoothing }
func (s *State) UseCubicSplineBlend() bool            { return s.cubicBlend }
func (s *State) BlendEase() string                    { return s.easeName }
func (s *State) Correction() Correction               { return s.correction }

// Displayed returns the transform produced by the last Tick and whether
// there has been one.
func (s *State) Displayed() (Transform, bool) {
	return s.displayed, s.hasDisplayed
}

func (s *State) curve() Curve {
	return Curve{Cubic: s.cubicBlend, Ease: s.ease}
}

// SetAlgorithm switches the extrapolation model. The next Tick blends from
// the displayed transform to the prediction of the new model.
func (s *State) SetAlgorithm(alg netconfig.Algorithm) {
	alg = validAlgorithm(alg)
	if alg == s.algorithm {
		return
	}
	s.reconfigure(func() { s.algorithm = alg })
	s.recapture = true
}

// SetGroundClamp switches the ground clamp mode, blending like SetAlgorithm.
func (s *State) SetGroundClamp(mode netconfig.GroundClamp) {
	mode = validGroundClamp(mode)
	if mode == s.groundClamp {
		return
	}
	s.reconfigure(func() { s.groundClamp = mode })
	s.recapture = true
}

func (s *State) SetMaxTranslationSmoothingTime(seconds float64) {
	seconds = sanitizeSeconds("max translation smoothing time", seconds)
	s.reconfigure(func() { s.maxTranslationSmoothing = seconds })
}

func (s *State) SetMaxRotationSmoothingTime(seconds float64) {
	seconds = sanitizeSeconds("max rotation smoothing time", seconds)
	s.reconfigure(func() { s.maxRotationSmoothing = seconds })
}

func (s *State) SetUseFixedSmoothingTime(fixed bool) {
	s.reconfigure(func() { s.fixedSmoothing = fixed })
}

func (s *State) SetUseCubicSplineBlend(cubic bool) {
	s.reconfigure(func() { s.cubicBlend = cubic })
}

// SetBlendEase selects a named curve from EaseCurves; an empty or unknown
// name falls back to the linear/cubic curve.
func (s *State) SetBlendEase(name string) {
	s.reconfigure(func() { s.easeName, s.ease = lookupEase(name) })
}

// reconfigure applies a parameter change without a visible jump: the offset
// currently applied becomes the new correction, timed under the new
// parameters.
func (s *State) reconfigure(apply func()) {
	active := s.correction.Active()
	translation, rotation := s.correction.Applied(s.curve())

	apply()

	if !active {
		s.correction = Correction{}
		return
	}
	s.startCorrection(translation, rotation)
}

func (s *State) startCorrection(translation, rotation gamemath.Vec3) {
	c := Correction{
		Translation: translation,
		Rotation:    rotation,
		TranslationTime: SmoothingTime(translation.Length(), s.maxTranslationSmoothing,
			s.translationRate, s.fixedSmoothing),
		RotationTime: SmoothingTime(rotation.Length(), s.maxRotationSmoothing,
			s.rotationRate, s.fixedSmoothing),
	}
	if c.TranslationTime <= 0 {
		c.Translation = gamemath.Vec3{}
	}
	if c.RotationTime <= 0 {
		c.Rotation = gamemath.Vec3{}
	}
	s.correction = c
}

// captureFrom starts a correction that makes the blended output equal the
// displayed transform against the given raw prediction.
func (s *State) captureFrom(raw Transform) {
	s.startCorrection(
		s.displayed.Position.Sub(raw.Position),
		gamemath.EulerDelta(raw.Orientation, s.displayed.Orientation),
	)
}

// ApplyAuthoritativeUpdate replaces the last known snapshot with k and
// starts smoothing away the difference to what was on screen. Non-finite
// input is rejected and the previous snapshot kept.
func (s *State) ApplyAuthoritativeUpdate(k Kinematics, q GroundQuery) error {
	if !k.IsFinite() {
		return fmt.Errorf("authoritative update: %w", ErrNonFinite)
	}

	s.lastKnown = k.Normalized()
	s.timeSinceUpdate = 0
	s.recapture = false

	if !s.hasDisplayed {
		s.correction = Correction{}
		return nil
	}
	s.captureFrom(s.Predict(q))
	return nil
}

// SetLastKnown records the owner's live kinematics for a locally simulated
// entity. No smoothing is involved.
func (s *State) SetLastKnown(k Kinematics) error {
	if !k.IsFinite() {
		return fmt.Errorf("local kinematics: %w", ErrNonFinite)
	}
	s.lastKnown = k.Normalized()
	s.timeSinceUpdate = 0
	s.correction = Correction{}
	s.recapture = false
	s.displayed = TransformOf(s.lastKnown)
	s.hasDisplayed = true
	return nil
}

// Predict returns the raw prediction at TimeSinceUpdate, ground clamped.
// A terrain failure skips clamping for this call only.
func (s *State) Predict(q GroundQuery) Transform {
	raw := Extrapolate(s.lastKnown, s.algorithm, s.timeSinceUpdate)
	if s.groundClamp == netconfig.GroundClampNone {
		return raw
	}

	clamped, err := ClampToGround(raw, s.groundClamp, q)
	if err != nil {
		logger.Debug("ground clamp skipped", "mode", s.groundClamp, "err", err)
		return raw
	}
	return clamped
}

// Tick advances the state by dt and returns the transform to display.
func (s *State) Tick(dt float64, q GroundQuery) Transform {
	dt = sanitizeDt(dt)
	s.timeSinceUpdate += dt

	raw := s.Predict(q)

	switch {
	case s.recapture && s.hasDisplayed:
		s.captureFrom(raw)
	case s.correction.Active():
		s.correction.Elapsed += dt
	}
	s.recapture = false

	out := Blend(raw, s.correction, s.curve())
	if !s.correction.Active() {
		s.correction = Correction{}
	}

	s.displayed = out
	s.hasDisplayed = true
	return out
}

func validAlgorithm(a netconfig.Algorithm) netconfig.Algorithm {
	if !a.Valid() {
		logger.Warn("unknown dead-reckoning algorithm, using NONE", "algorithm", uint8(a))
		return netconfig.AlgorithmNone
	}
	return a
}

func validGroundClamp(g netconfig.GroundClamp) netconfig.GroundClamp {
	if !g.Valid() {
		logger.Warn("unknown ground clamp mode, using NONE", "mode", uint8(g))
		return netconfig.GroundClampNone
	}
	return g
}

func sanitizeSeconds(name string, v float64) float64 {
	if !gamemath.IsFinite(v) || v < 0 {
		logger.Warn("invalid duration, clamped to 0", "field", name, "value", v)
		return 0
	}
	return v
}

func sanitizeRate(v, fallback float64) float64 {
	if !gamemath.IsFinite(v) || v <= 0 {
		return fallback
	}
	return v
}

func lookupEase(name string) (string, ease.TweenFunc) {
	if name == "" {
		return "", nil
	}
	fn, ok := EaseCurves[name]
	if !ok {
		logger.Warn("unknown blend ease curve, using default curve", "ease", name)
		return "", nil
	}
	return name, fn
}
