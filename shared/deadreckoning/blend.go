package deadreckoning

import (
	"math"
	"sort"

	"github.com/automoto/drsync/shared/gamemath"
	"github.com/tanema/gween/ease"
)

// Default proportional smoothing rates used when a state does not set its own.
const (
	DefaultTranslationSmoothingRate = 0.5      // seconds per unit of offset
	DefaultRotationSmoothingRate    = 1.0 / 90 // seconds per degree of offset
)

// EaseCurves lists the named easing curves a translation blend may use in
// place of the linear or cubic curve. Only curves that stay within [0, 1]
// and never turn back are listed, so the blend still converges monotonically.
var EaseCurves = map[string]ease.TweenFunc{
	"Linear":     ease.Linear,
	"InQuad":     ease.InQuad,
	"OutQuad":    ease.OutQuad,
	"InOutQuad":  ease.InOutQuad,
	"InCubic":    ease.InCubic,
	"OutCubic":   ease.OutCubic,
	"InOutCubic": ease.InOutCubic,
	"InSine":     ease.InSine,
	"OutSine":    ease.OutSine,
	"InOutSine":  ease.InOutSine,
}

// EaseCurveNames returns the keys of EaseCurves in sorted order.
func EaseCurveNames() []string {
	names := make([]string, 0, len(EaseCurves))
	for name := range EaseCurves {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Curve selects the shape of the translation blend.
type Curve struct {
	Cubic bool
	Ease  ease.TweenFunc // overrides Cubic when set
}

// Weight returns the share of a correction offset still applied after
// elapsed seconds of a blend lasting duration seconds.
//
// With f = elapsed/duration clamped to [0, 1], the linear weight is 1-f and
// the cubic weight is (1-f)²(1+2f), the complement of smoothstep. Both are 1
// at f=0 and exactly 0 once elapsed reaches duration. A non-positive duration
// means no smoothing and yields 0.
func Weight(elapsed, duration float64, c Curve) float64 {
	if !(duration > 0) || elapsed >= duration {
		return 0
	}
	f := gamemath.ClampFloat(elapsed/duration, 0, 1)

	switch {
	case c.Ease != nil:
		eased := float64(c.Ease(float32(f), 0, 1, 1))
		return gamemath.ClampFloat(1-eased, 0, 1)
	case c.Cubic:
		r := 1 - f
		return r * r * (1 + 2*f)
	default:
		return 1 - f
	}
}

// SmoothingTime maps an offset magnitude to a blend duration.
//
// A non-positive max disables smoothing. With fixed set the blend always
// lasts max; otherwise it lasts rate·magnitude capped at max.
func SmoothingTime(magnitude, max, rate float64, fixed bool) float64 {
	if !(max > 0) || magnitude == 0 {
		return 0
	}
	if fixed {
		return max
	}
	return math.Min(max, rate*magnitude)
}

// Correction is an offset being blended away after a discontinuity.
// Translation and Rotation are the offsets at Elapsed=0, expressed as the
// amount added to the raw prediction.
type Correction struct {
	Translation     gamemath.Vec3
	Rotation        gamemath.Vec3
	Elapsed         float64
	TranslationTime float64
	RotationTime    float64
}

// Active reports whether either part of the correction is still blending.
func (c Correction) Active() bool {
	return c.Elapsed < c.TranslationTime || c.Elapsed < c.RotationTime
}

// Applied returns the offsets currently added to the raw prediction.
// Rotation always blends linearly.
func (c Correction) Applied(curve Curve) (translation, rotation gamemath.Vec3) {
	tw := Weight(c.Elapsed, c.TranslationTime, curve)
	rw := Weight(c.Elapsed, c.RotationTime, Curve{})
	return c.Translation.Scale(tw), c.Rotation.Scale(rw)
}

// Blend combines a raw prediction with the still-applied part of c.
func Blend(raw Transform, c Correction, curve Curve) Transform {
	translation, rotation := c.Applied(curve)
	out := raw
	out.Position = raw.Position.Add(translation)
	out.Orientation = gamemath.NormalizeEuler(raw.Orientation.Add(rotation))
	return out
}
