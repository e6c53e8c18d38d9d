package systems

import (
	"errors"
	"fmt"

	"github.com/automoto/drsync/components"
	"github.com/automoto/drsync/shared/deadreckoning"
	"github.com/automoto/drsync/shared/messages"
	"github.com/automoto/drsync/shared/netconfig"
	"github.com/automoto/drsync/tags"
	"github.com/charmbracelet/log"
	"github.com/leap-fish/necs/esync"
	"github.com/yohamta/donburi"
)

// ErrNoRecipients is returned, possibly wrapped, by a Publisher that has
// nobody to deliver to yet.
var ErrNoRecipients = errors.New("no recipients")

// Publisher delivers an update to the other nodes.
type Publisher interface {
	Publish(msg messages.EntityUpdate) error
}

// LiveKinematicsProvider is implemented by locally owned entities whose
// simulation state lives outside their dead-reckoning State. Entities that
// don't implement it are published from State.LastKnown.
type LiveKinematicsProvider interface {
	LiveKinematics() deadreckoning.Kinematics
}

// PublishSettings are the per-entity publish parameters.
type PublishSettings struct {
	Profile             string // Announced on full updates
	Policy              deadreckoning.PublishPolicy
	MaxTranslationError float64
	MaxRotationError    float64
}

// PublishSystem decides, every tick, which local entities have drifted far
// enough from what the other nodes predict to be worth an update.
type PublishSystem struct {
	registry  *Registry
	publisher Publisher
	defaults  PublishSettings
	logger    *log.Logger
}

func NewPublishSystem(registry *Registry, publisher Publisher, defaults PublishSettings, logger *log.Logger) *PublishSystem {
	if logger == nil {
		logger = log.WithPrefix("publish")
	}
	return &PublishSystem{
		registry:  registry,
		publisher: publisher,
		defaults:  defaults,
		logger:    logger,
	}
}

// Configure replaces the publish settings of a local entity. The baseline
// is re-captured from the entity's current state and a full update is
// scheduled.
func (p *PublishSystem) Configure(id esync.NetworkId, settings PublishSettings) error {
	entry, err := p.localEntry(id)
	if err != nil {
		return err
	}
	p.track(entry, settings)
	return nil
}

// ForceFull schedules a full update of a local entity on the next Update,
// for discrete changes such as a new algorithm or ground clamp mode.
func (p *PublishSystem) ForceFull(id esync.NetworkId) error {
	entry, err := p.localEntry(id)
	if err != nil {
		return err
	}
	if !entry.HasComponent(components.Publish) {
		// Untracked entities get a full update on their first Update anyway.
		return nil
	}
	components.Publish.Get(entry).Baseline.ForceFull()
	return nil
}

// Sequence returns the sequence number of the last update sent for id.
func (p *PublishSystem) Sequence(id esync.NetworkId) (uint32, bool) {
	entry, err := p.localEntry(id)
	if err != nil || !entry.HasComponent(components.Publish) {
		return 0, false
	}
	return components.Publish.Get(entry).Sequence, true
}

func (p *PublishSystem) localEntry(id esync.NetworkId) (*donburi.Entry, error) {
	entry, ok := p.registry.entry(id)
	if !ok {
		return nil, fmt.Errorf("publish %d: %w", id, ErrNotRegistered)
	}
	if !entry.HasComponent(tags.Local) {
		return nil, fmt.Errorf("publish %d: %w", id, ErrNotLocal)
	}
	return entry, nil
}

// track attaches publish bookkeeping to a local entry. The new baseline
// announces the entity with a full update.
func (p *PublishSystem) track(entry *donburi.Entry, settings PublishSettings) {
	e := components.DeadReckoning.Get(entry).Entity
	live := liveKinematics(e)
	if !live.IsFinite() {
		live = deadreckoning.Kinematics{}
	}

	alg := e.DeadReckoningState().Algorithm()
	baseline := deadreckoning.NewBaseline(live.Normalized(), alg, settings.MaxTranslationError, settings.MaxRotationError)
	baseline.ForceFull()

	var seq uint32
	if entry.HasComponent(components.Publish) {
		seq = components.Publish.Get(entry).Sequence
	} else {
		entry.AddComponent(components.Publish)
	}
	components.Publish.SetValue(entry, components.PublishData{
		Baseline: baseline,
		Policy:   settings.Policy,
		Profile:  settings.Profile,
		Sequence: seq,
	})
}

// Update runs the publish decision for every local entity.
func (p *PublishSystem) Update(dt float64) {
	for _, entity := range p.registry.snapshot(localQuery) {
		if !p.registry.world.Valid(entity) {
			continue
		}
		entry := p.registry.world.Entry(entity)
		if !entry.HasComponent(components.Publish) {
			p.track(entry, p.defaults)
		}
		p.publishEntry(entry, dt)
	}
}

func (p *PublishSystem) publishEntry(entry *donburi.Entry, dt float64) {
	id := esync.NetworkIdComponent.GetValue(entry)
	e := components.DeadReckoning.Get(entry).Entity
	pub := components.Publish.Get(entry)

	pub.Baseline.Advance(dt)

	live := liveKinematics(e)
	if !live.IsFinite() {
		p.logger.Error("non-finite live kinematics, not published", "id", id)
		return
	}
	live = live.Normalized()

	d := deadreckoning.ShouldPublish(live, pub.Baseline, pub.Policy)
	if !d.Publish() {
		return
	}

	state := e.DeadReckoningState()
	msg := messages.NewEntityUpdate(id, pub.Sequence+1, live, d, state.Algorithm(), state.GroundClamp())
	if d.Kind == netconfig.UpdateFull {
		msg.Profile = pub.Profile
	}
	if err := p.publisher.Publish(msg); err != nil {
		pub.Failures++
		if errors.Is(err, ErrNoRecipients) {
			p.logger.Debug("nobody to publish to", "id", id, "kind", d.Kind)
			return
		}
		p.logger.Warn("publish failed, retrying next tick", "id", id, "kind", d.Kind, "failures", pub.Failures, "err", err)
		return
	}

	pub.Sequence = msg.Sequence
	pub.Failures = 0
	pub.Baseline.Reset(live, d, state.Algorithm())
	p.logger.Debug("published", "id", id, "seq", msg.Sequence, "kind", d.Kind)
}

func liveKinematics(e deadreckoning.DeadReckonable) deadreckoning.Kinematics {
	if provider, ok := e.(LiveKinematicsProvider); ok {
		return provider.LiveKinematics()
	}
	return e.DeadReckoningState().LastKnown()
}
