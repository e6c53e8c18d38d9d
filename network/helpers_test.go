package network

import "github.com/leap-fish/necs/esync"

func esyncID(id uint) esync.NetworkId {
	return esync.NetworkId(id)
}
