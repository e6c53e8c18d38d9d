package network

import (
	"errors"
	"fmt"
	"time"

	"github.com/automoto/drsync/shared/messages"
	"github.com/charmbracelet/log"
	"github.com/leap-fish/necs/esync"
	"github.com/nats-io/nats.go"
	"github.com/vmihailenco/msgpack/v5"
)

// NatsBus publishes updates on NATS subjects instead of a peer mesh. Every
// node subscribes to the same subjects and ignores its own messages.
type NatsBus struct {
	conn   *nats.Conn
	owned  bool
	subs   []*nats.Subscription
	prefix string
	nodeID string
	inbox  *Inbox
	logger *log.Logger
}

// DialNats connects to the NATS server at url and starts a bus on it.
func DialNats(url, prefix, nodeID string, inbox *Inbox, logger *log.Logger) (*NatsBus, error) {
	nc, err := nats.Connect(url,
		nats.Name("drsync-"+nodeID),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats %s: %w", url, err)
	}

	bus, err := NewNatsBus(nc, prefix, nodeID, inbox, logger)
	if err != nil {
		nc.Close()
		return nil, err
	}
	bus.owned = true
	return bus, nil
}

// NewNatsBus starts a bus on an existing connection, subscribing to
// <prefix>.update and <prefix>.left.
func NewNatsBus(nc *nats.Conn, prefix, nodeID string, inbox *Inbox, logger *log.Logger) (*NatsBus, error) {
	if logger == nil {
		logger = log.WithPrefix("nats")
	}
	b := &NatsBus{
		conn:   nc,
		prefix: prefix,
		nodeID: nodeID,
		inbox:  inbox,
		logger: logger,
	}
	if nc == nil {
		return b, nil
	}

	for subject, handler := range map[string]nats.MsgHandler{
		b.updateSubject(): b.handleUpdate,
		b.leftSubject():   b.handleLeft,
	} {
		sub, err := nc.Subscribe(subject, handler)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("subscribe %s: %w", subject, err)
		}
		b.subs = append(b.subs, sub)
	}

	logger.Info("nats bus ready", "prefix", prefix)
	return b, nil
}

func (b *NatsBus) updateSubject() string { return b.prefix + ".update" }
func (b *NatsBus) leftSubject() string   { return b.prefix + ".left" }

// Publish sends an update to every node on the bus.
func (b *NatsBus) Publish(msg messages.EntityUpdate) error {
	msg.Origin = b.nodeID
	return b.send(b.updateSubject(), &msg)
}

// PublishLeft tells every node on the bus that id left.
func (b *NatsBus) PublishLeft(id esync.NetworkId) error {
	return b.send(b.leftSubject(), &messages.EntityLeft{EntityID: id, Origin: b.nodeID})
}

func (b *NatsBus) send(subject string, v any) error {
	if b.conn == nil {
		return errors.New("nats bus not connected")
	}
	data, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", subject, err)
	}
	return b.conn.Publish(subject, data)
}

func (b *NatsBus) handleUpdate(m *nats.Msg) {
	var msg messages.EntityUpdate
	if err := msgpack.Unmarshal(m.Data, &msg); err != nil {
		b.logger.Warn("bad update payload", "subject", m.Subject, "err", err)
		return
	}
	if msg.Origin == b.nodeID {
		return
	}
	b.inbox.Push(msg)
}

func (b *NatsBus) handleLeft(m *nats.Msg) {
	var msg messages.EntityLeft
	if err := msgpack.Unmarshal(m.Data, &msg); err != nil {
		b.logger.Warn("bad departure payload", "subject", m.Subject, "err", err)
		return
	}
	if msg.Origin == b.nodeID {
		return
	}
	b.inbox.PushLeft(msg)
}

// Close unsubscribes, and closes the connection when the bus dialed it.
func (b *NatsBus) Close() {
	for _, sub := range b.subs {
		_ = sub.Unsubscribe()
	}
	b.subs = nil
	if b.owned && b.conn != nil {
		b.conn.Close()
	}
}
