package simnode

import (
	"sync"

	"github.com/automoto/drsync/shared/gamemath"
	"github.com/leap-fish/necs/esync"
)

// Pose is what a node shows of a remote entity.
type Pose struct {
	Position    gamemath.Vec3
	Orientation gamemath.Vec3
}

// Scene stands in for a renderer: it keeps the displayed pose of every
// remote entity. Reads may come from other goroutines than the tick.
type Scene struct {
	mu    sync.RWMutex
	poses map[esync.NetworkId]Pose
}

func NewScene() *Scene {
	return &Scene{poses: make(map[esync.NetworkId]Pose)}
}

func (s *Scene) ApplyTransform(id esync.NetworkId, position, orientation gamemath.Vec3) {
	s.mu.Lock()
	s.poses[id] = Pose{Position: position, Orientation: orientation}
	s.mu.Unlock()
}

func (s *Scene) Pose(id esync.NetworkId) (Pose, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.poses[id]
	return p, ok
}

func (s *Scene) Remove(id esync.NetworkId) {
	s.mu.Lock()
	delete(s.poses, id)
	s.mu.Unlock()
}

func (s *Scene) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.poses)
}
