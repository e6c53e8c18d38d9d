// Package leveldata parses TMX terrain. Pure data only: it has no
// dependencies on donburi or resolv.
package leveldata

// TerrainData holds the terrain cells and spawn points of one map.
type TerrainData struct {
	Cells  []TerrainCell
	Spawns []SpawnPoint
	Width  float64
	Height float64
}

// TerrainCell is one ground tile. Ramp cells rise by Rise across the cell
// toward Ramp ("up_east", "up_west", "up_north", "up_south").
type TerrainCell struct {
	X, Y, W, H float64
	Base       float64
	Rise       float64
	Ramp       string
}

// SpawnPoint is where a demo entity of Kind enters the simulation.
type SpawnPoint struct {
	X, Y  float64
	Index int
	Kind  string
}
