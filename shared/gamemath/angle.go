package gamemath

import "math"

// NormalizeDegrees maps an angle into the canonical range [-180, 180).
func NormalizeDegrees(deg float64) float64 {
	if deg >= -180 && deg < 180 {
		return deg
	}
	r := math.Mod(deg+180, 360)
	if r < 0 {
		r += 360
	}
	return r - 180
}

// NormalizeEuler normalizes heading, pitch and roll independently.
func NormalizeEuler(o Vec3) Vec3 {
	return Vec3{NormalizeDegrees(o.X), NormalizeDegrees(o.Y), NormalizeDegrees(o.Z)}
}

// AngleDelta returns the shortest signed rotation from `from` to `to`, in [-180, 180).
func AngleDelta(from, to float64) float64 {
	return NormalizeDegrees(to - from)
}

// EulerDelta is AngleDelta applied per axis.
func EulerDelta(from, to Vec3) Vec3 {
	return Vec3{AngleDelta(from.X, to.X), AngleDelta(from.Y, to.Y), AngleDelta(from.Z, to.Z)}
}

func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func RadToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
