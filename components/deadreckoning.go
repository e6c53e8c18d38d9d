package components

import (
	"github.com/automoto/drsync/shared/deadreckoning"
	"github.com/yohamta/donburi"
)

// DeadReckoningData links a registry entry to the entity it synchronizes.
// The entity owns its State; the entry only references it. The network id
// lives in esync.NetworkIdComponent next to it.
type DeadReckoningData struct {
	Entity deadreckoning.DeadReckonable
}

var DeadReckoning = donburi.NewComponentType[DeadReckoningData]()
