package components

import (
	"github.com/automoto/drsync/shared/gamemath"
	"github.com/yohamta/donburi"
)

// ReceiveData tracks what a remote entity last received.
type ReceiveData struct {
	LastSequence    uint32
	Updates         int
	Rejected        int
	PredictionError float64 // Distance between prediction and the last authoritative position
	LastPredicted   gamemath.Vec3
}

var Receive = donburi.NewComponentType[ReceiveData]()
