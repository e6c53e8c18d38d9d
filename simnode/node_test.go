package simnode

import (
	"testing"

	"github.com/automoto/drsync/config"
	"github.com/automoto/drsync/shared/gamemath"
	"github.com/automoto/drsync/shared/messages"
	"github.com/automoto/drsync/shared/netconfig"
	"github.com/automoto/drsync/systems"
	"github.com/google/uuid"
	"github.com/leap-fish/necs/esync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpawnRegistersLocalEntity(t *testing.T) {
	n := newTestNode(t)

	id, err := n.Spawn(config.KindVehicle, gamemath.Vec3{}, 0)
	require.NoError(t, err)

	assert.Equal(t, n.idBase+1, id)
	assert.True(t, n.Registry().IsRegistered(id))
	assert.False(t, n.Registry().IsRemote(id))
	_, ok := n.Mover(id)
	assert.True(t, ok)
}

func TestEntityIDsDifferAcrossNodes(t *testing.T) {
	a := entityIDBase(uuid.MustParse("00000001-0000-0000-0000-000000000000"))
	b := entityIDBase(uuid.MustParse("00000002-0000-0000-0000-000000000000"))

	assert.Equal(t, esync.NetworkId(1)<<16, a)
	assert.Equal(t, esync.NetworkId(2)<<16, b)
}

func TestRemoteEntityCreatedFromFullUpdate(t *testing.T) {
	a, b := newTestNode(t), newTestNode(t)
	connect(a, b)

	id, err := a.Spawn(config.KindVehicle, gamemath.Vec3{}, 0)
	require.NoError(t, err)

	tickAll(a, b)

	require.True(t, b.Registry().IsRemote(id))
	pose, ok := b.Scene().Pose(id)
	require.True(t, ok)

	m, _ := a.Mover(id)
	owner := m.DeadReckoningState().LastKnown().Position
	assert.InDelta(t, owner.X, pose.Position.X, 0.5)
	assert.InDelta(t, owner.Y, pose.Position.Y, 0.5)
	assert.InDelta(t, 0, pose.Position.Z, 1e-9)

	e, _ := b.Registry().Lookup(id)
	assert.Equal(t, netconfig.AlgorithmVelocityAndAcceleration, e.DeadReckoningState().Algorithm())
	assert.Equal(t, netconfig.GroundClampFull, e.DeadReckoningState().GroundClamp())
}

func TestRemoteEntityUsesAnnouncedProfile(t *testing.T) {
	a, b := newTestNode(t), newTestNode(t)
	connect(a, b)

	id, err := a.Spawn(config.KindPlayer, gamemath.Vec3{}, 0)
	require.NoError(t, err)
	tickAll(a, b)

	e, ok := b.Registry().Lookup(id)
	require.True(t, ok)
	state := e.DeadReckoningState()
	assert.True(t, state.UseCubicSplineBlend())
	assert.Equal(t, netconfig.AlgorithmVelocityOnly, state.Algorithm())
}

func TestRemoteFollowsOwner(t *testing.T) {
	a, b := newTestNode(t), newTestNode(t)
	connect(a, b)

	id, err := a.Spawn(config.KindVehicle, gamemath.Vec3{X: 5, Y: -5}, 0)
	require.NoError(t, err)
	m, _ := a.Mover(id)

	for i := 0; i < 300; i++ {
		tickAll(a, b)

		pose, ok := b.Scene().Pose(id)
		require.True(t, ok)
		owner := m.DeadReckoningState().LastKnown().Position
		require.Less(t, pose.Position.Sub(owner).Length(), 2.0, "tick %d", i)
	}

	stats := b.Predictions().Stats()
	assert.Positive(t, stats.Count)
	assert.Less(t, stats.Max, 2.0)
}

func TestPartialUpdateForUnknownEntityDropped(t *testing.T) {
	n := newTestNode(t)

	n.inbox.Push(messages.EntityUpdate{
		EntityID: 99,
		Sequence: 1,
		Kind:     netconfig.UpdatePartial,
		Fields:   netconfig.FieldPosition,
		Position: gamemath.Vec3{X: 1},
	})
	n.Tick(tick)

	assert.False(t, n.Registry().IsRegistered(99))
	assert.Zero(t, n.Scene().Len())
}

func TestUpdateForLocalEntityIgnored(t *testing.T) {
	n := newTestNode(t)
	id, err := n.Spawn(config.KindStatic, gamemath.Vec3{X: 3}, 0)
	require.NoError(t, err)

	n.inbox.Push(messages.EntityUpdate{
		EntityID: id,
		Sequence: 1,
		Kind:     netconfig.UpdateFull,
		Fields:   netconfig.FieldsAll,
		Position: gamemath.Vec3{X: 100},
	})
	n.Tick(tick)

	e, _ := n.Registry().Lookup(id)
	assert.InDelta(t, 3, e.DeadReckoningState().LastKnown().Position.X, 1e-9)
	assert.False(t, n.Registry().IsRemote(id))
}

func TestDespawnRemovesRemoteEverywhere(t *testing.T) {
	a, b := newTestNode(t), newTestNode(t)
	connect(a, b)

	id, err := a.Spawn(config.KindVehicle, gamemath.Vec3{}, 0)
	require.NoError(t, err)
	tickAll(a, b)
	require.True(t, b.Registry().IsRemote(id))

	require.NoError(t, a.Despawn(id))
	tickAll(a, b)

	assert.False(t, a.Registry().IsRegistered(id))
	assert.False(t, b.Registry().IsRegistered(id))
	_, ok := b.Scene().Pose(id)
	assert.False(t, ok)
}

func TestDespawnUnknown(t *testing.T) {
	n := newTestNode(t)
	assert.ErrorIs(t, n.Despawn(42), systems.ErrNotRegistered)
}

func TestCloseAnnouncesLeave(t *testing.T) {
	n := newTestNode(t)
	first, err := n.Spawn(config.KindVehicle, gamemath.Vec3{}, 0)
	require.NoError(t, err)
	second, err := n.Spawn(config.KindPlayer, gamemath.Vec3{}, 1)
	require.NoError(t, err)

	n.Close()

	assert.ElementsMatch(t, []esync.NetworkId{first, second}, n.link.left)
	assert.True(t, n.link.closed)
	assert.Zero(t, n.Registry().Count())
}

func TestSpawnDemoUsesSpawnPoints(t *testing.T) {
	cfg := config.Node
	cfg.Terrain = "../shared/leveldata/testdata/ramp.tmx"
	ground, spawns, err := LoadGround(cfg)
	require.NoError(t, err)
	require.Len(t, spawns, 2)

	n := New(uuid.New(), "terrain", ground, nil, &loopback{}, nil)
	require.NoError(t, SpawnDemo(n, 2, spawns))

	kinds := map[string]int{}
	for _, m := range n.movers {
		kinds[m.Kind]++
	}
	assert.Equal(t, map[string]int{config.KindVehicle: 1, config.KindMunition: 1}, kinds)
}

func TestSpawnDemoWithoutSpawnPoints(t *testing.T) {
	n := newTestNode(t)
	require.NoError(t, SpawnDemo(n.Node, 4, nil))

	kinds := map[string]int{}
	for _, m := range n.movers {
		kinds[m.Kind]++
	}
	assert.Equal(t, map[string]int{config.KindVehicle: 2, config.KindPlayer: 1, config.KindMunition: 1}, kinds)
}

func TestLoadGroundFlat(t *testing.T) {
	cfg := config.Node
	cfg.Terrain = ""
	cfg.FlatHeight = 4

	ground, spawns, err := LoadGround(cfg)
	require.NoError(t, err)
	assert.Empty(t, spawns)

	height, _, err := ground.Query(gamemath.Vec3{X: 1000})
	require.NoError(t, err)
	assert.InDelta(t, 4, height, 1e-9)
}

func TestLoadGroundMissingFile(t *testing.T) {
	cfg := config.Node
	cfg.Terrain = "testdata/missing.tmx"

	_, _, err := LoadGround(cfg)
	assert.Error(t, err)
}
