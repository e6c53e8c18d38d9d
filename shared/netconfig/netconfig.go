// Package netconfig defines lightweight tags shared between the
// dead-reckoning core and the network layer. It must have zero dependencies
// on the ECS or transport packages so it can be decoded anywhere.
package netconfig

import (
	"fmt"
	"strings"
)

// Algorithm selects which kinematic fields extrapolation consults.
type Algorithm uint8

const (
	AlgorithmNone Algorithm = iota
	AlgorithmStatic
	AlgorithmVelocityOnly
	AlgorithmVelocityAndAcceleration
)

// AlgorithmNames maps each Algorithm to its configuration / wire name.
var AlgorithmNames = map[Algorithm]string{
	AlgorithmNone:                    "NONE",
	AlgorithmStatic:                  "STATIC",
	AlgorithmVelocityOnly:            "VELOCITY_ONLY",
	AlgorithmVelocityAndAcceleration: "VELOCITY_AND_ACCELERATION",
}

func (a Algorithm) String() string {
	if name, ok := AlgorithmNames[a]; ok {
		return name
	}
	return "unknown"
}

func (a Algorithm) Valid() bool {
	_, ok := AlgorithmNames[a]
	return ok
}

// ParseAlgorithm is the inverse of Algorithm.String. Matching ignores case.
func ParseAlgorithm(name string) (Algorithm, error) {
	for a, n := range AlgorithmNames {
		if strings.EqualFold(n, name) {
			return a, nil
		}
	}
	return AlgorithmNone, fmt.Errorf("unknown dead-reckoning algorithm %q", name)
}

// GroundClamp governs how the extrapolated height is corrected against terrain.
type GroundClamp uint8

const (
	GroundClampNone GroundClamp = iota
	GroundClampKeepAbove
	GroundClampFull
)

var GroundClampNames = map[GroundClamp]string{
	GroundClampNone:      "NONE",
	GroundClampKeepAbove: "KEEP_ABOVE",
	GroundClampFull:      "FULL",
}

func (g GroundClamp) String() string {
	if name, ok := GroundClampNames[g]; ok {
		return name
	}
	return "unknown"
}

func (g GroundClamp) Valid() bool {
	_, ok := GroundClampNames[g]
	return ok
}

func ParseGroundClamp(name string) (GroundClamp, error) {
	for g, n := range GroundClampNames {
		if strings.EqualFold(n, name) {
			return g, nil
		}
	}
	return GroundClampNone, fmt.Errorf("unknown ground clamp mode %q", name)
}

// UpdateKind is the outcome of a publish decision.
type UpdateKind uint8

const (
	UpdateNone UpdateKind = iota
	UpdatePartial
	UpdateFull
)

var UpdateKindNames = map[UpdateKind]string{
	UpdateNone:    "none",
	UpdatePartial: "partial",
	UpdateFull:    "full",
}

func (k UpdateKind) String() string {
	if name, ok := UpdateKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// FieldMask flags which kinematic fields an update carries.
type FieldMask uint16

const (
	FieldPosition FieldMask = 1 << iota
	FieldOrientation
	FieldVelocity
	FieldAcceleration
	FieldAngularVelocity
	FieldAlgorithm
	FieldGroundClamp
)

// FieldsAll is the field set of a full update.
const FieldsAll = FieldPosition | FieldOrientation | FieldVelocity | FieldAcceleration |
	FieldAngularVelocity | FieldAlgorithm | FieldGroundClamp

func (m FieldMask) Has(f FieldMask) bool {
	return m&f == f
}
