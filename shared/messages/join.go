package messages

import "github.com/leap-fish/necs/esync"

// PeerHello is sent by a node right after it connects to a peer.
type PeerHello struct {
	NodeID   string
	NodeName string
	TickRate int
}

// EntityLeft tells peers that an entity left the simulation and its
// registry entry should be removed.
type EntityLeft struct {
	EntityID esync.NetworkId
	Origin   string
}
