package config

import "github.com/automoto/drsync/shared/netconfig"

// Entity kinds with a built-in profile
const (
	KindVehicle  = "vehicle"
	KindMunition = "munition"
	KindPlayer   = "player"
	KindStatic   = "static"
)

// Profile contains the dead-reckoning and publish tuning of one kind of
// entity. Durations are in seconds, errors in world units and degrees.
type Profile struct {
	// Extrapolation
	Algorithm   string `json:"algorithm"`
	GroundClamp string `json:"groundClamp"`

	// Smoothing
	MaxTranslationSmoothingTime float64 `json:"maxTranslationSmoothingTime"`
	MaxRotationSmoothingTime    float64 `json:"maxRotationSmoothingTime"`
	UseFixedSmoothingTime       bool    `json:"useFixedSmoothingTime"`
	UseCubicSplineBlend         bool    `json:"useCubicSplineBlend"`
	BlendEase                   string  `json:"blendEase,omitempty"`
	TranslationSmoothingRate    float64 `json:"translationSmoothingRate"` // Seconds per unit of offset
	RotationSmoothingRate       float64 `json:"rotationSmoothingRate"`    // Seconds per degree of offset

	// Publishing
	MaxTranslationError    float64 `json:"maxTranslationError"`
	MaxRotationError       float64 `json:"maxRotationError"`
	FullUpdateEvery        int     `json:"fullUpdateEvery"`
	HeartbeatInterval      float64 `json:"heartbeatInterval"`
	MinPublishInterval     float64 `json:"minPublishInterval"`
	PublishLinearVelocity  bool    `json:"publishLinearVelocity"`
	PublishAngularVelocity bool    `json:"publishAngularVelocity"`
	UseVelocityInDecision  bool    `json:"useVelocityInDecision"`
}

// DeadReckoningConfig holds the profile of every entity kind.
type DeadReckoningConfig struct {
	Profiles    map[string]Profile
	DefaultKind string
}

// DeadReckoning is the global dead-reckoning configuration
var DeadReckoning DeadReckoningConfig

func init() {
	DeadReckoning = DeadReckoningConfig{
		DefaultKind: KindVehicle,
		Profiles: map[string]Profile{
			KindVehicle: {
				Algorithm:                   netconfig.AlgorithmVelocityAndAcceleration.String(),
				GroundClamp:                 netconfig.GroundClampFull.String(),
				MaxTranslationSmoothingTime: 0.5,
				MaxRotationSmoothingTime:    0.5,
				TranslationSmoothingRate:    0.5,
				RotationSmoothingRate:       1.0 / 90.0,
				MaxTranslationError:         0.5,
				MaxRotationError:            3,
				FullUpdateEvery:             10,
				HeartbeatInterval:           5,
				MinPublishInterval:          1.0 / 30.0,
				PublishLinearVelocity:       true,
				PublishAngularVelocity:      true,
				UseVelocityInDecision:       true,
			},
			KindMunition: {
				Algorithm:                   netconfig.AlgorithmVelocityAndAcceleration.String(),
				GroundClamp:                 netconfig.GroundClampNone.String(),
				MaxTranslationSmoothingTime: 0.1,
				MaxRotationSmoothingTime:    0.1,
				UseFixedSmoothingTime:       true,
				MaxTranslationError:         1,
				MaxRotationError:            10,
				FullUpdateEvery:             10,
				HeartbeatInterval:           2,
				PublishLinearVelocity:       true,
				UseVelocityInDecision:       true,
			},
			KindPlayer: {
				Algorithm:                   netconfig.AlgorithmVelocityOnly.String(),
				GroundClamp:                 netconfig.GroundClampKeepAbove.String(),
				MaxTranslationSmoothingTime: 0.25,
				MaxRotationSmoothingTime:    0.25,
				UseCubicSplineBlend:         true,
				TranslationSmoothingRate:    0.5,
				RotationSmoothingRate:       1.0 / 90.0,
				MaxTranslationError:         0.25,
				MaxRotationError:            5,
				FullUpdateEvery:             10,
				HeartbeatInterval:           3,
				MinPublishInterval:          1.0 / 60.0,
				PublishLinearVelocity:       true,
				UseVelocityInDecision:       true,
			},
			KindStatic: {
				Algorithm:           netconfig.AlgorithmStatic.String(),
				GroundClamp:         netconfig.GroundClampNone.String(),
				MaxTranslationError: 0.01,
				MaxRotationError:    1,
				FullUpdateEvery:     1,
				HeartbeatInterval:   10,
			},
		},
	}
}
