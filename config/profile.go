package config

import (
	"sort"

	"github.com/automoto/drsync/shared/deadreckoning"
	"github.com/automoto/drsync/shared/gamemath"
	"github.com/automoto/drsync/shared/netconfig"
	"github.com/charmbracelet/log"
)

var logger = log.WithPrefix("config")

// Fallbacks for publish thresholds that are missing or invalid
const (
	fallbackTranslationError = 0.5
	fallbackRotationError    = 3.0
)

// ProfileFor returns the sanitized profile of kind, or of the default kind
// when kind is unknown.
func ProfileFor(kind string) Profile {
	p, ok := DeadReckoning.Profiles[kind]
	if !ok {
		logger.Warn("unknown entity kind, using default profile", "kind", kind, "default", DeadReckoning.DefaultKind)
		p = DeadReckoning.Profiles[DeadReckoning.DefaultKind]
	}
	return p.Sanitize()
}

// Kinds returns the configured entity kinds, sorted.
func Kinds() []string {
	kinds := make([]string, 0, len(DeadReckoning.Profiles))
	for kind := range DeadReckoning.Profiles {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// Sanitize returns a copy of p that is safe to use: unknown tags become
// NONE, negative or non-finite durations become 0, and missing or invalid
// error thresholds take their fallback. Every change is logged.
func (p Profile) Sanitize() Profile {
	if _, err := netconfig.ParseAlgorithm(p.Algorithm); err != nil {
		logger.Warn("invalid algorithm, using NONE", "value", p.Algorithm)
		p.Algorithm = netconfig.AlgorithmNone.String()
	}
	if _, err := netconfig.ParseGroundClamp(p.GroundClamp); err != nil {
		logger.Warn("invalid ground clamp, using NONE", "value", p.GroundClamp)
		p.GroundClamp = netconfig.GroundClampNone.String()
	}
	if p.BlendEase != "" {
		if _, ok := deadreckoning.EaseCurves[p.BlendEase]; !ok {
			logger.Warn("unknown blend ease, using default curve", "value", p.BlendEase)
			p.BlendEase = ""
		}
	}

	p.MaxTranslationSmoothingTime = nonNegative("maxTranslationSmoothingTime", p.MaxTranslationSmoothingTime, 0)
	p.MaxRotationSmoothingTime = nonNegative("maxRotationSmoothingTime", p.MaxRotationSmoothingTime, 0)
	p.TranslationSmoothingRate = nonNegative("translationSmoothingRate", p.TranslationSmoothingRate, 0)
	p.RotationSmoothingRate = nonNegative("rotationSmoothingRate", p.RotationSmoothingRate, 0)
	p.HeartbeatInterval = nonNegative("heartbeatInterval", p.HeartbeatInterval, 0)
	p.MinPublishInterval = nonNegative("minPublishInterval", p.MinPublishInterval, 0)

	p.MaxTranslationError = nonNegative("maxTranslationError", p.MaxTranslationError, fallbackTranslationError)
	p.MaxRotationError = nonNegative("maxRotationError", p.MaxRotationError, fallbackRotationError)

	if p.FullUpdateEvery < 0 {
		logger.Warn("invalid value, clamped", "field", "fullUpdateEvery", "value", p.FullUpdateEvery, "to", 0)
		p.FullUpdateEvery = 0
	}
	return p
}

func nonNegative(field string, v, fallback float64) float64 {
	if gamemath.IsFinite(v) && v >= 0 {
		return v
	}
	logger.Warn("invalid value, clamped", "field", field, "value", v, "to", fallback)
	return fallback
}

// AlgorithmTag returns the parsed algorithm; invalid names give NONE.
func (p Profile) AlgorithmTag() netconfig.Algorithm {
	alg, err := netconfig.ParseAlgorithm(p.Algorithm)
	if err != nil {
		return netconfig.AlgorithmNone
	}
	return alg
}

// GroundClampTag returns the parsed ground clamp; invalid names give NONE.
func (p Profile) GroundClampTag() netconfig.GroundClamp {
	mode, err := netconfig.ParseGroundClamp(p.GroundClamp)
	if err != nil {
		return netconfig.GroundClampNone
	}
	return mode
}

func (p Profile) StateOptions() deadreckoning.StateOptions {
	return deadreckoning.StateOptions{
		Algorithm:                   p.AlgorithmTag(),
		GroundClamp:                 p.GroundClampTag(),
		MaxTranslationSmoothingTime: p.MaxTranslationSmoothingTime,
		MaxRotationSmoothingTime:    p.MaxRotationSmoothingTime,
		UseFixedSmoothingTime:       p.UseFixedSmoothingTime,
		UseCubicSplineBlend:         p.UseCubicSplineBlend,
		BlendEase:                   p.BlendEase,
		TranslationSmoothingRate:    p.TranslationSmoothingRate,
		RotationSmoothingRate:       p.RotationSmoothingRate,
	}
}

func (p Profile) Policy() deadreckoning.PublishPolicy {
	return deadreckoning.PublishPolicy{
		FullUpdateEvery:        p.FullUpdateEvery,
		HeartbeatInterval:      p.HeartbeatInterval,
		MinPublishInterval:     p.MinPublishInterval,
		PublishLinearVelocity:  p.PublishLinearVelocity,
		PublishAngularVelocity: p.PublishAngularVelocity,
		UseVelocityInDecision:  p.UseVelocityInDecision,
	}
}

// NewBaseline creates a publish baseline at k with this profile's
// algorithm and thresholds.
func (p Profile) NewBaseline(k deadreckoning.Kinematics) *deadreckoning.Baseline {
	return deadreckoning.NewBaseline(k, p.AlgorithmTag(), p.MaxTranslationError, p.MaxRotationError)
}

// NewState creates a dead-reckoning state at k with this profile.
func (p Profile) NewState(k deadreckoning.Kinematics) *deadreckoning.State {
	return deadreckoning.NewState(k, p.StateOptions())
}
