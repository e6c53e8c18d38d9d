package simnode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/automoto/drsync/config"
	"github.com/automoto/drsync/network"
	"github.com/automoto/drsync/shared/deadreckoning"
	"github.com/automoto/drsync/shared/gamemath"
	"github.com/automoto/drsync/shared/messages"
	"github.com/automoto/drsync/shared/netconfig"
	"github.com/automoto/drsync/systems"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/leap-fish/necs/esync"
)

// Transport carries this node's updates to the other nodes. Incoming
// traffic is delivered to the node's inbox by the transport itself.
type Transport interface {
	systems.Publisher
	PublishLeft(id esync.NetworkId) error
	Close()
}

// Node is one participant of the simulation: it owns a set of demo
// entities, publishes them and shows the entities of every other node.
type Node struct {
	ID   string
	Name string

	registry    *systems.Registry
	publish     *systems.PublishSystem
	inbox       *network.Inbox
	transport   Transport
	predictions *network.PredictionLog
	scene       *Scene

	movers      map[esync.NetworkId]*Mover
	idBase      esync.NetworkId
	nextID      esync.NetworkId
	sinceStatus time.Duration
	status      time.Duration

	logger *log.Logger
}

// NewNodeID returns a random node identity.
func NewNodeID() uuid.UUID {
	return uuid.New()
}

// New creates a node named name. ground may be nil for a map without
// terrain.
func New(id uuid.UUID, name string, ground deadreckoning.GroundQuery, inbox *network.Inbox, transport Transport, logger *log.Logger) *Node {
	if logger == nil {
		logger = log.WithPrefix("node")
	}

	n := &Node{
		ID:          id.String(),
		Name:        name,
		registry:    systems.NewRegistry(nil, ground, logger.WithPrefix("registry")),
		inbox:       inbox,
		transport:   transport,
		predictions: &network.PredictionLog{},
		scene:       NewScene(),
		movers:      make(map[esync.NetworkId]*Mover),
		idBase:      entityIDBase(id),
		status:      config.Node.StatusInterval,
		logger:      logger,
	}
	n.registry.SetPredictionRecorder(n.predictions)

	def := config.ProfileFor(config.DeadReckoning.DefaultKind)
	n.publish = systems.NewPublishSystem(n.registry, transport, publishSettings(config.DeadReckoning.DefaultKind, def), logger.WithPrefix("publish"))
	return n
}

// entityIDBase derives the first entity id of a node from its identity.
// Ids stay unique across nodes while each node spawns fewer than 65536
// entities.
func entityIDBase(id uuid.UUID) esync.NetworkId {
	return esync.NetworkId(binary.BigEndian.Uint32(id[:4])) << 16
}

func publishSettings(kind string, p config.Profile) systems.PublishSettings {
	return systems.PublishSettings{
		Profile:             kind,
		Policy:              p.Policy(),
		MaxTranslationError: p.MaxTranslationError,
		MaxRotationError:    p.MaxRotationError,
	}
}

func (n *Node) Registry() *systems.Registry         { return n.registry }
func (n *Node) Scene() *Scene                       { return n.scene }
func (n *Node) Predictions() *network.PredictionLog { return n.predictions }
func (n *Node) Mover(id esync.NetworkId) (*Mover, bool) {
	m, ok := n.movers[id]
	return m, ok
}

// Spawn adds a locally owned mover of kind and returns its id.
func (n *Node) Spawn(kind string, center gamemath.Vec3, phase float64) (esync.NetworkId, error) {
	n.nextID++
	id := n.idBase + n.nextID

	m := NewMover(kind, center, phase, n.registry.Ground())
	if err := n.registry.RegisterLocal(id, m); err != nil {
		return 0, err
	}
	if err := n.publish.Configure(id, publishSettings(kind, config.ProfileFor(kind))); err != nil {
		n.registry.Unregister(id)
		return 0, err
	}
	n.movers[id] = m

	n.logger.Info("entity spawned", "id", id, "kind", kind, "at", center)
	return id, nil
}

// Despawn removes a local mover and tells the other nodes.
func (n *Node) Despawn(id esync.NetworkId) error {
	if _, ok := n.movers[id]; !ok {
		return fmt.Errorf("despawn %d: %w", id, systems.ErrNotRegistered)
	}
	delete(n.movers, id)
	n.registry.Unregister(id)
	return n.transport.PublishLeft(id)
}

// Tick runs one simulation step: incoming updates are applied, local
// movers advance and publish, and remote entities are extrapolated.
func (n *Node) Tick(dt time.Duration) {
	seconds := dt.Seconds()

	for _, left := range n.inbox.DrainLeft() {
		n.removeRemote(left)
	}
	for _, msg := range n.inbox.Drain() {
		n.receive(msg)
	}

	for id, m := range n.movers {
		if err := m.Step(seconds); err != nil {
			n.logger.Error("mover step failed", "id", id, "err", err)
		}
	}
	n.publish.Update(seconds)
	n.registry.UpdateAll(seconds)

	n.sinceStatus += dt
	if n.status > 0 && n.sinceStatus >= n.status {
		n.sinceStatus = 0
		n.logStatus()
	}
}

// receive applies msg, creating the remote entity when a full update
// announces one this node has not seen.
func (n *Node) receive(msg messages.EntityUpdate) {
	if !n.registry.IsRegistered(msg.EntityID) && msg.Kind == netconfig.UpdateFull {
		if err := n.addRemote(msg); err != nil {
			n.logger.Warn("remote entity not created", "id", msg.EntityID, "origin", msg.Origin, "err", err)
			return
		}
	}

	err := n.registry.ApplyUpdate(msg)
	if err != nil && !errors.Is(err, systems.ErrNotRegistered) {
		n.logger.Debug("update not applied", "id", msg.EntityID, "err", err)
	}
}

func (n *Node) addRemote(msg messages.EntityUpdate) error {
	kind := msg.Profile
	if kind == "" {
		kind = config.DeadReckoning.DefaultKind
	}

	k := msg.Merge(deadreckoning.Kinematics{})
	if !k.IsFinite() {
		return deadreckoning.ErrNonFinite
	}
	state := config.ProfileFor(kind).NewState(k)
	actor := deadreckoning.NewActor[esync.NetworkId](msg.EntityID, state, n.scene)
	if err := n.registry.RegisterRemote(msg.EntityID, actor); err != nil {
		return err
	}

	n.logger.Info("remote entity joined", "id", msg.EntityID, "kind", kind, "origin", msg.Origin)
	return nil
}

func (n *Node) removeRemote(left messages.EntityLeft) {
	if !n.registry.IsRemote(left.EntityID) {
		return
	}
	n.registry.Unregister(left.EntityID)
	n.scene.Remove(left.EntityID)
	n.logger.Info("remote entity left", "id", left.EntityID, "origin", left.Origin)
}

func (n *Node) logStatus() {
	stats := n.predictions.Stats()
	n.logger.Info("status",
		"local", len(n.movers),
		"remote", n.registry.Count()-len(n.movers),
		"updates", stats.Count,
		"meanError", fmt.Sprintf("%.3f", stats.Mean),
		"maxError", fmt.Sprintf("%.3f", stats.Max),
		"inboxDropped", n.inbox.Dropped(),
		"stale", n.inbox.Stale(),
	)
}

// Close announces that every local mover left and closes the transport.
func (n *Node) Close() {
	for id := range n.movers {
		if err := n.Despawn(id); err != nil {
			n.logger.Debug("leave not delivered", "id", id, "err", err)
		}
	}
	n.transport.Close()
}
