package simnode

import (
	"testing"
	"time"

	"github.com/automoto/drsync/network"
	"github.com/automoto/drsync/shared/messages"
	"github.com/automoto/drsync/terrain"
	"github.com/google/uuid"
	"github.com/leap-fish/necs/esync"
)

const tick = time.Second / 30

// loopback delivers everything published straight into the inboxes of the
// other test nodes.
type loopback struct {
	nodeID  string
	targets []*network.Inbox
	left    []esync.NetworkId
	closed  bool
}

func (l *loopback) Publish(msg messages.EntityUpdate) error {
	msg.Origin = l.nodeID
	for _, in := range l.targets {
		in.Push(msg)
	}
	return nil
}

func (l *loopback) PublishLeft(id esync.NetworkId) error {
	l.left = append(l.left, id)
	for _, in := range l.targets {
		in.PushLeft(messages.EntityLeft{EntityID: id, Origin: l.nodeID})
	}
	return nil
}

func (l *loopback) Close() {
	l.closed = true
}

type testNode struct {
	*Node
	inbox *network.Inbox
	link  *loopback
}

func newTestNode(t *testing.T) *testNode {
	t.Helper()
	id := uuid.New()
	inbox := network.NewInbox(64, nil)
	link := &loopback{nodeID: id.String()}
	return &testNode{
		Node:  New(id, t.Name(), terrain.Flat(0), inbox, link, nil),
		inbox: inbox,
		link:  link,
	}
}

// connect links a and b both ways.
func connect(a, b *testNode) {
	a.link.targets = append(a.link.targets, b.inbox)
	b.link.targets = append(b.link.targets, a.inbox)
}

func tickAll(nodes ...*testNode) {
	for _, n := range nodes {
		n.Tick(tick)
	}
}
