package network

import (
	"sync/atomic"

	"github.com/automoto/drsync/shared/messages"
	"github.com/charmbracelet/log"
	"github.com/leap-fish/necs/esync"
	"github.com/leap-fish/necs/router"
)

const defaultInboxSize = 256

// Inbox queues updates arriving on transport goroutines until the node
// drains them at the start of a tick. Push never blocks: when the queue is
// full the update is dropped, and the owner's next publish supersedes it.
type Inbox struct {
	updates chan messages.EntityUpdate
	left    chan messages.EntityLeft
	dropped atomic.Int64

	// Owned by the draining goroutine
	lastSeq map[esync.NetworkId]uint32
	stale   int64

	logger *log.Logger
}

func NewInbox(size int, logger *log.Logger) *Inbox {
	if size <= 0 {
		size = defaultInboxSize
	}
	if logger == nil {
		logger = log.WithPrefix("inbox")
	}
	return &Inbox{
		updates: make(chan messages.EntityUpdate, size),
		left:    make(chan messages.EntityLeft, size),
		lastSeq: make(map[esync.NetworkId]uint32),
		logger:  logger,
	}
}

// Attach registers the inbox's router handlers. Handlers are global to the
// necs router, so a process should attach a single inbox.
func (i *Inbox) Attach() {
	router.On(func(_ *router.NetworkClient, msg messages.EntityUpdate) {
		i.Push(msg)
	})
	router.On(func(_ *router.NetworkClient, msg messages.EntityLeft) {
		i.PushLeft(msg)
	})
}

// Push queues an update. Safe for concurrent use.
func (i *Inbox) Push(msg messages.EntityUpdate) {
	select {
	case i.updates <- msg:
	default:
		i.dropped.Add(1)
	}
}

// PushLeft queues a departure. Safe for concurrent use.
func (i *Inbox) PushLeft(msg messages.EntityLeft) {
	select {
	case i.left <- msg:
	default:
		i.dropped.Add(1)
	}
}

// Drain returns the queued updates in arrival order, without those older
// than an update already drained for the same entity.
func (i *Inbox) Drain() []messages.EntityUpdate {
	updates := drainChan(i.updates)
	out := updates[:0]
	for _, msg := range updates {
		last, seen := i.lastSeq[msg.EntityID]
		if seen && !seqNewer(msg.Sequence, last) {
			i.stale++
			i.logger.Debug("stale update dropped", "id", msg.EntityID, "seq", msg.Sequence, "last", last)
			continue
		}
		i.lastSeq[msg.EntityID] = msg.Sequence
		out = append(out, msg)
	}
	return out
}

// DrainLeft returns the queued departures and forgets their sequences.
func (i *Inbox) DrainLeft() []messages.EntityLeft {
	left := drainChan(i.left)
	for _, msg := range left {
		i.Forget(msg.EntityID)
	}
	return left
}

// Forget resets the sequence tracking of id, e.g. when it is unregistered.
// Must be called from the draining goroutine.
func (i *Inbox) Forget(id esync.NetworkId) {
	delete(i.lastSeq, id)
}

// Dropped returns how many messages were dropped because the queue was full.
func (i *Inbox) Dropped() int64 {
	return i.dropped.Load()
}

// Stale returns how many updates were dropped as out of order.
func (i *Inbox) Stale() int64 {
	return i.stale
}

// seqNewer reports whether a is after b, allowing for wrap-around.
func seqNewer(a, b uint32) bool {
	return int32(a-b) > 0
}

func drainChan[T any](ch chan T) []T {
	var out []T
	for {
		select {
		case v := <-ch:
			out = append(out, v)
		default:
			return out
		}
	}
}
