package gamemath

// RampHeight returns the surface height at offset along a ramp of the given
// extent that rises by rise from base. Offsets outside [0, extent] are clamped
// to the ramp ends.
func RampHeight(offset, extent, base, rise float64) float64 {
	if extent <= 0 {
		return base
	}
	t := ClampFloat(offset, 0, extent) / extent
	return base + rise*t
}

// RampNormal returns the unit normal of a plane rising by rise over extent
// along the horizontal unit direction (dirX, dirY).
func RampNormal(dirX, dirY, extent, rise float64) Vec3 {
	if extent <= 0 || rise == 0 {
		return Vec3{Z: 1}
	}
	g := rise / extent
	return Vec3{X: -g * dirX, Y: -g * dirY, Z: 1}.Normalize()
}
