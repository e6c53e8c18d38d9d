package components

import (
	"github.com/automoto/drsync/shared/deadreckoning"
	"github.com/yohamta/donburi"
)

// PublishData is the sender-side bookkeeping of a locally owned entity.
type PublishData struct {
	Baseline *deadreckoning.Baseline
	Policy   deadreckoning.PublishPolicy
	Profile  string
	Sequence uint32 // Sequence of the last message sent
	Failures int    // Consecutive failed publishes
}

var Publish = donburi.NewComponentType[PublishData]()
