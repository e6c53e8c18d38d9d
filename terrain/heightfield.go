// Package terrain answers ground queries for dead-reckoning clamps.
package terrain

import (
	"errors"
	"fmt"
	"math"

	"github.com/automoto/drsync/shared/gamemath"
	"github.com/automoto/drsync/shared/leveldata"
	"github.com/automoto/drsync/tags"
	"github.com/solarlune/resolv"
)

var (
	ErrOutOfBounds = errors.New("position outside terrain")
	ErrNoGround    = errors.New("no ground under position")
)

const probeTag = "probe"

// cell is the surface description stored in each resolv object's Data.
type cell struct {
	base       float64
	rise       float64
	dirX, dirY float64
}

// HeightField samples height and normal from terrain cells kept in a
// resolv.Space. A single probe object is moved to each queried position,
// so a HeightField must not be queried concurrently.
type HeightField struct {
	space         *resolv.Space
	probe         *resolv.Object
	width, height float64
}

// NewHeightField builds a height field from parsed terrain. cellSize is
// the resolv spatial hash cell size; 0 selects 16.
func NewHeightField(data *leveldata.TerrainData, cellSize int) *HeightField {
	if cellSize <= 0 {
		cellSize = 16
	}
	space := resolv.NewSpace(int(math.Ceil(data.Width)), int(math.Ceil(data.Height)), cellSize, cellSize)

	for _, c := range data.Cells {
		var obj *resolv.Object
		dirX, dirY, ok := rampDirection(c.Ramp)
		if ok && c.Rise != 0 {
			obj = resolv.NewObject(c.X, c.Y, c.W, c.H, tags.ResolvRamp, c.Ramp)
		} else {
			obj = resolv.NewObject(c.X, c.Y, c.W, c.H, tags.ResolvGround)
			dirX, dirY = 0, 0
		}
		obj.SetShape(resolv.NewRectangle(0, 0, c.W, c.H))
		obj.Data = &cell{base: c.Base, rise: c.Rise, dirX: dirX, dirY: dirY}
		space.Add(obj)
	}

	probe := resolv.NewObject(0, 0, 1, 1, probeTag)
	space.Add(probe)

	return &HeightField{
		space:  space,
		probe:  probe,
		width:  data.Width,
		height: data.Height,
	}
}

func rampDirection(name string) (dx, dy float64, ok bool) {
	switch name {
	case tags.RampUpEast:
		return 1, 0, true
	case tags.RampUpWest:
		return -1, 0, true
	case tags.RampUpNorth:
		return 0, 1, true
	case tags.RampUpSouth:
		return 0, -1, true
	}
	return 0, 0, false
}

// Query returns the terrain height and surface normal under pos. Where
// cells overlap the highest surface wins.
func (h *HeightField) Query(pos gamemath.Vec3) (float64, gamemath.Vec3, error) {
	if !pos.IsFinite() || pos.X < 0 || pos.Y < 0 || pos.X >= h.width || pos.Y >= h.height {
		return 0, gamemath.Vec3{}, fmt.Errorf("(%.2f, %.2f): %w", pos.X, pos.Y, ErrOutOfBounds)
	}

	h.probe.X = pos.X
	h.probe.Y = pos.Y
	h.probe.Update()

	check := h.probe.Check(0, 0, tags.ResolvGround, tags.ResolvRamp)
	if check == nil {
		return 0, gamemath.Vec3{}, fmt.Errorf("(%.2f, %.2f): %w", pos.X, pos.Y, ErrNoGround)
	}

	found := false
	best := math.Inf(-1)
	var normal gamemath.Vec3
	for _, obj := range check.ObjectsByTags(tags.ResolvGround, tags.ResolvRamp) {
		if pos.X < obj.X || pos.X >= obj.X+obj.W || pos.Y < obj.Y || pos.Y >= obj.Y+obj.H {
			continue
		}
		c, ok := obj.Data.(*cell)
		if !ok {
			continue
		}
		height, n := c.sample(obj, pos)
		if height > best {
			best, normal, found = height, n, true
		}
	}
	if !found {
		return 0, gamemath.Vec3{}, fmt.Errorf("(%.2f, %.2f): %w", pos.X, pos.Y, ErrNoGround)
	}
	return best, normal, nil
}

func (c *cell) sample(obj *resolv.Object, pos gamemath.Vec3) (float64, gamemath.Vec3) {
	var offset, extent float64
	switch {
	case c.dirX > 0:
		offset, extent = pos.X-obj.X, obj.W
	case c.dirX < 0:
		offset, extent = obj.X+obj.W-pos.X, obj.W
	case c.dirY > 0:
		offset, extent = pos.Y-obj.Y, obj.H
	case c.dirY < 0:
		offset, extent = obj.Y+obj.H-pos.Y, obj.H
	default:
		return c.base, gamemath.Vec3{Z: 1}
	}
	return gamemath.RampHeight(offset, extent, c.base, c.rise),
		gamemath.RampNormal(c.dirX, c.dirY, extent, c.rise)
}

// Flat is terrain at a constant height everywhere.
type Flat float64

func (f Flat) Query(gamemath.Vec3) (float64, gamemath.Vec3, error) {
	return float64(f), gamemath.Vec3{Z: 1}, nil
}
