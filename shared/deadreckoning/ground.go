package deadreckoning

import (
	"fmt"
	"math"

	"github.com/automoto/drsync/shared/gamemath"
	"github.com/automoto/drsync/shared/netconfig"
)

// GroundQuery samples terrain under a position.
type GroundQuery interface {
	Query(pos gamemath.Vec3) (height float64, normal gamemath.Vec3, err error)
}

// GroundQueryFunc adapts a function to GroundQuery.
type GroundQueryFunc func(pos gamemath.Vec3) (float64, gamemath.Vec3, error)

func (f GroundQueryFunc) Query(pos gamemath.Vec3) (float64, gamemath.Vec3, error) {
	return f(pos)
}

// ClampToGround corrects t against the terrain according to mode.
//
// KEEP_ABOVE raises the position to the terrain height when it is below it.
// FULL places the position on the terrain and tilts pitch and roll to the
// terrain normal, keeping the heading.
//
// On failure t is returned unchanged together with the error.
func ClampToGround(t Transform, mode netconfig.GroundClamp, q GroundQuery) (Transform, error) {
	if mode == netconfig.GroundClampNone {
		return t, nil
	}
	if q == nil {
		return t, ErrTerrainUnavailable
	}

	height, normal, err := q.Query(t.Position)
	if err != nil {
		return t, fmt.Errorf("query terrain at (%.2f, %.2f): %w", t.Position.X, t.Position.Y, err)
	}
	if !gamemath.IsFinite(height) {
		return t, ErrBadTerrainSample
	}

	switch mode {
	case netconfig.GroundClampKeepAbove:
		t.Position.Z = math.Max(t.Position.Z, height)

	case netconfig.GroundClampFull:
		if !normal.IsFinite() || normal.Z <= 0 {
			return t, ErrBadTerrainSample
		}
		t.Position.Z = height
		t.Orientation = alignToNormal(t.Orientation, normal.Normalize())
	}

	return t, nil
}

// alignToNormal returns an orientation with the heading of o whose pitch
// follows the surface slope along the heading (nose up positive) and whose
// roll follows the slope across it (right side down positive).
func alignToNormal(o, n gamemath.Vec3) gamemath.Vec3 {
	h := gamemath.DegToRad(o.X)
	fx, fy := math.Cos(h), math.Sin(h)
	rx, ry := math.Sin(h), -math.Cos(h)

	pitch := math.Atan2(-(n.X*fx + n.Y*fy), n.Z)
	roll := math.Atan2(n.X*rx+n.Y*ry, n.Z)

	return gamemath.NormalizeEuler(gamemath.Vec3{
		X: o.X,
		Y: gamemath.RadToDeg(pitch),
		Z: gamemath.RadToDeg(roll),
	})
}
