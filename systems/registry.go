package systems

import (
	"errors"
	"fmt"

	"github.com/automoto/drsync/archetypes"
	"github.com/automoto/drsync/components"
	"github.com/automoto/drsync/shared/deadreckoning"
	"github.com/automoto/drsync/shared/gamemath"
	"github.com/automoto/drsync/shared/messages"
	"github.com/automoto/drsync/shared/netconfig"
	"github.com/automoto/drsync/tags"
	"github.com/charmbracelet/log"
	"github.com/leap-fish/necs/esync"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/filter"
)

var (
	localQuery  = donburi.NewQuery(filter.Contains(tags.Local, components.DeadReckoning))
	remoteQuery = donburi.NewQuery(filter.Contains(tags.Remote, components.DeadReckoning))
)

var (
	ErrAlreadyRegistered = errors.New("entity id already registered")
	ErrNilEntity         = errors.New("nil entity")
	ErrNotRegistered     = errors.New("entity id not registered")
	ErrNotRemote         = errors.New("entity is locally owned")
	ErrNotLocal          = errors.New("entity is owned by another node")
)

// PredictionRecorder receives the predicted and authoritative position of
// every accepted update.
type PredictionRecorder interface {
	Record(id esync.NetworkId, predicted, authoritative gamemath.Vec3)
}

// Registry tracks the dead-reckoned entities of one node. Locally owned
// entities are published by PublishSystem; remote ones are extrapolated by
// UpdateAll and corrected by ApplyUpdate.
//
// The registry holds references only. An entity must be unregistered before
// its State is discarded.
type Registry struct {
	world    donburi.World
	entries  map[esync.NetworkId]donburi.Entity
	ground   deadreckoning.GroundQuery
	recorder PredictionRecorder
	logger   *log.Logger
}

// NewRegistry creates a registry on world, or on a new world when nil.
// ground may be nil when no entity uses a ground clamp.
func NewRegistry(world donburi.World, ground deadreckoning.GroundQuery, logger *log.Logger) *Registry {
	if world == nil {
		world = donburi.NewWorld()
	}
	if logger == nil {
		logger = log.WithPrefix("registry")
	}
	return &Registry{
		world:   world,
		entries: make(map[esync.NetworkId]donburi.Entity),
		ground:  ground,
		logger:  logger,
	}
}

func (r *Registry) World() donburi.World {
	return r.world
}

func (r *Registry) Ground() deadreckoning.GroundQuery {
	return r.ground
}

func (r *Registry) SetGround(q deadreckoning.GroundQuery) {
	r.ground = q
}

func (r *Registry) SetPredictionRecorder(rec PredictionRecorder) {
	r.recorder = rec
}

// RegisterLocal adds an entity owned by this node.
func (r *Registry) RegisterLocal(id esync.NetworkId, e deadreckoning.DeadReckonable) error {
	return r.register(id, e, archetypes.LocalEntity.Spawn)
}

// RegisterRemote adds an entity owned by another node.
func (r *Registry) RegisterRemote(id esync.NetworkId, e deadreckoning.DeadReckonable) error {
	return r.register(id, e, archetypes.RemoteEntity.Spawn)
}

func (r *Registry) register(id esync.NetworkId, e deadreckoning.DeadReckonable,
	spawn func(donburi.World, ...donburi.IComponentType) *donburi.Entry) error {
	if e == nil || e.DeadReckoningState() == nil {
		return fmt.Errorf("register %d: %w", id, ErrNilEntity)
	}
	if _, exists := r.entries[id]; exists {
		return fmt.Errorf("register %d: %w", id, ErrAlreadyRegistered)
	}

	entry := spawn(r.world)
	esync.NetworkIdComponent.SetValue(entry, id)
	components.DeadReckoning.SetValue(entry, components.DeadReckoningData{Entity: e})
	r.entries[id] = entry.Entity()

	r.logger.Debug("entity registered", "id", id, "remote", entry.HasComponent(tags.Remote))
	return nil
}

// Unregister removes id. Unknown ids are ignored.
func (r *Registry) Unregister(id esync.NetworkId) {
	entity, ok := r.entries[id]
	if !ok {
		return
	}
	delete(r.entries, id)
	if r.world.Valid(entity) {
		r.world.Remove(entity)
	}
	r.logger.Debug("entity unregistered", "id", id)
}

func (r *Registry) IsRegistered(id esync.NetworkId) bool {
	_, ok := r.entries[id]
	return ok
}

func (r *Registry) IsRemote(id esync.NetworkId) bool {
	entry, ok := r.entry(id)
	return ok && entry.HasComponent(tags.Remote)
}

func (r *Registry) Count() int {
	return len(r.entries)
}

// Lookup returns the entity registered under id.
func (r *Registry) Lookup(id esync.NetworkId) (deadreckoning.DeadReckonable, bool) {
	entry, ok := r.entry(id)
	if !ok {
		return nil, false
	}
	return components.DeadReckoning.Get(entry).Entity, true
}

func (r *Registry) entry(id esync.NetworkId) (*donburi.Entry, bool) {
	entity, ok := r.entries[id]
	if !ok || !r.world.Valid(entity) {
		return nil, false
	}
	return r.world.Entry(entity), true
}

// snapshot collects the entities matched by q so callbacks may register or
// unregister entities, or run another pass, while the caller iterates.
func (r *Registry) snapshot(q *donburi.Query) []donburi.Entity {
	batch := make([]donburi.Entity, 0, len(r.entries))
	q.Each(r.world, func(entry *donburi.Entry) {
		batch = append(batch, entry.Entity())
	})
	return batch
}

// UpdateAll advances every remote entity by dt and hands the displayed
// transform to the entity. Entities unregistered during the pass are
// skipped.
func (r *Registry) UpdateAll(dt float64) {
	for _, entity := range r.snapshot(remoteQuery) {
		if !r.world.Valid(entity) {
			continue
		}
		e := components.DeadReckoning.Get(r.world.Entry(entity)).Entity
		e.ApplyExtrapolated(e.DeadReckoningState().Tick(dt, r.ground))
	}
}

// ApplyUpdate applies an update received from the entity's owner. Updates
// for unknown or locally owned entities are dropped, as is non-finite
// input.
func (r *Registry) ApplyUpdate(msg messages.EntityUpdate) error {
	entry, ok := r.entry(msg.EntityID)
	if !ok {
		r.logger.Warn("update for unknown entity dropped", "id", msg.EntityID, "origin", msg.Origin)
		return fmt.Errorf("apply update %d: %w", msg.EntityID, ErrNotRegistered)
	}
	if !entry.HasComponent(tags.Remote) {
		r.logger.Warn("update for locally owned entity dropped", "id", msg.EntityID, "origin", msg.Origin)
		return fmt.Errorf("apply update %d: %w", msg.EntityID, ErrNotRemote)
	}

	rx := components.Receive.Get(entry)
	state := components.DeadReckoning.Get(entry).Entity.DeadReckoningState()

	k := msg.Merge(state.LastKnown())
	if !k.IsFinite() {
		rx.Rejected++
		r.logger.Error("non-finite update rejected", "id", msg.EntityID, "origin", msg.Origin, "seq", msg.Sequence)
		return fmt.Errorf("apply update %d: %w", msg.EntityID, deadreckoning.ErrNonFinite)
	}

	predicted := state.Predict(r.ground).Position

	if msg.Fields.Has(netconfig.FieldAlgorithm) {
		state.SetAlgorithm(msg.Algorithm)
	}
	if msg.Fields.Has(netconfig.FieldGroundClamp) {
		state.SetGroundClamp(msg.GroundClamp)
	}
	if err := state.ApplyAuthoritativeUpdate(k, r.ground); err != nil {
		rx.Rejected++
		return fmt.Errorf("apply update %d: %w", msg.EntityID, err)
	}

	rx.LastSequence = msg.Sequence
	rx.Updates++
	rx.LastPredicted = predicted
	rx.PredictionError = predicted.Sub(k.Position).Length()
	if r.recorder != nil {
		r.recorder.Record(msg.EntityID, predicted, k.Position)
	}
	return nil
}

// Received returns the receive bookkeeping of a remote entity.
func (r *Registry) Received(id esync.NetworkId) (components.ReceiveData, bool) {
	entry, ok := r.entry(id)
	if !ok || !entry.HasComponent(components.Receive) {
		return components.ReceiveData{}, false
	}
	return *components.Receive.Get(entry), true
}
