package tags

import "github.com/yohamta/donburi"

var (
	Local  = donburi.NewTag().SetName("Local")
	Remote = donburi.NewTag().SetName("Remote")
)

// Resolv tags for terrain cells
const (
	ResolvGround = "ground"
	ResolvRamp   = "ramp"

	// Ramp direction tags, named after the direction the ground rises toward
	RampUpEast  = "up_east"
	RampUpWest  = "up_west"
	RampUpNorth = "up_north"
	RampUpSouth = "up_south"
)
