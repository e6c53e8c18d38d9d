package systems

import (
	"math"
	"testing"

	"github.com/automoto/drsync/shared/deadreckoning"
	"github.com/automoto/drsync/shared/gamemath"
	"github.com/automoto/drsync/shared/messages"
	"github.com/automoto/drsync/shared/netconfig"
	"github.com/leap-fish/necs/esync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry(nil, nil, nil)
	e := newMovingEntity()

	require.NoError(t, r.RegisterRemote(1, e))
	assert.True(t, r.IsRegistered(1))
	assert.True(t, r.IsRemote(1))
	assert.Equal(t, 1, r.Count())

	got, ok := r.Lookup(1)
	require.True(t, ok)
	assert.Same(t, e, got)

	err := r.RegisterLocal(1, newMovingEntity())
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
	assert.True(t, r.IsRemote(1), "failed registration must not replace the entry")

	r.Unregister(1)
	r.Unregister(1)
	assert.False(t, r.IsRegistered(1))
	assert.Equal(t, 0, r.Count())

	err = r.ApplyUpdate(messages.EntityUpdate{
		EntityID: 1,
		Kind:     netconfig.UpdateFull,
		Fields:   netconfig.FieldPosition,
	})
	assert.ErrorIs(t, err, ErrNotRegistered)
	assert.False(t, r.IsRegistered(1), "update must not create an entry")
	assert.Equal(t, 0, r.Count())
}

func TestRegisterRejectsNilEntity(t *testing.T) {
	r := NewRegistry(nil, nil, nil)

	assert.ErrorIs(t, r.RegisterRemote(1, nil), ErrNilEntity)
	assert.ErrorIs(t, r.RegisterLocal(2, &testEntity{}), ErrNilEntity)
	assert.Equal(t, 0, r.Count())
}

func TestLocalEntityIsNotRemote(t *testing.T) {
	r := NewRegistry(nil, nil, nil)
	require.NoError(t, r.RegisterLocal(3, newMovingEntity()))

	assert.True(t, r.IsRegistered(3))
	assert.False(t, r.IsRemote(3))
	assert.False(t, r.IsRemote(4))
}

func TestUpdateAllExtrapolatesRemoteEntities(t *testing.T) {
	r := NewRegistry(nil, nil, nil)
	remote := newMovingEntity()
	local := newMovingEntity()
	require.NoError(t, r.RegisterRemote(1, remote))
	require.NoError(t, r.RegisterLocal(2, local))

	r.UpdateAll(0.5)
	r.UpdateAll(0.5)

	require.Len(t, remote.applied, 2)
	assert.Equal(t, gamemath.Vec3{X: 1}, remote.last().Position)
	assert.Empty(t, local.applied, "local entities are driven by their owner")
}

func TestUnregisterDuringUpdateAll(t *testing.T) {
	r := NewRegistry(nil, nil, nil)
	a := newMovingEntity()
	b := newMovingEntity()
	a.onApply = func() { r.Unregister(2) }
	b.onApply = func() { r.Unregister(1) }
	require.NoError(t, r.RegisterRemote(1, a))
	require.NoError(t, r.RegisterRemote(2, b))

	r.UpdateAll(0.1)

	assert.Equal(t, 1, len(a.applied)+len(b.applied), "the removed entity must be skipped")
	assert.Equal(t, 1, r.Count())
}

func TestRegisterDuringUpdateAll(t *testing.T) {
	r := NewRegistry(nil, nil, nil)
	late := newMovingEntity()
	a := newMovingEntity()
	a.onApply = func() {
		if !r.IsRegistered(9) {
			require.NoError(t, r.RegisterRemote(9, late))
		}
	}
	require.NoError(t, r.RegisterRemote(1, a))

	r.UpdateAll(0.1)
	assert.Empty(t, late.applied, "entities joining mid-pass start next tick")

	r.UpdateAll(0.1)
	assert.Len(t, late.applied, 1)
}

func TestNestedPassDuringUpdateAll(t *testing.T) {
	r := NewRegistry(nil, nil, nil)
	ps := NewPublishSystem(r, &recordingPublisher{}, testSettings, nil)

	l1, l2 := newMovingEntity(), newMovingEntity()
	require.NoError(t, r.RegisterLocal(10, l1))
	require.NoError(t, r.RegisterLocal(11, l2))

	a, b := newMovingEntity(), newMovingEntity()
	require.NoError(t, r.RegisterRemote(1, a))
	require.NoError(t, r.RegisterRemote(2, b))

	nested := false
	publishOnce := func() {
		if !nested {
			nested = true
			ps.Update(0.1)
		}
	}
	a.onApply = publishOnce
	b.onApply = publishOnce

	r.UpdateAll(0.1)

	assert.True(t, nested)
	assert.Len(t, a.applied, 1)
	assert.Len(t, b.applied, 1)
	assert.Empty(t, l1.applied, "local entities are never extrapolated")
	assert.Empty(t, l2.applied)
}

func TestApplyUpdateForLocalEntityIsDropped(t *testing.T) {
	r := NewRegistry(nil, nil, nil)
	e := newMovingEntity()
	require.NoError(t, r.RegisterLocal(5, e))

	err := r.ApplyUpdate(messages.EntityUpdate{
		EntityID: 5,
		Kind:     netconfig.UpdateFull,
		Fields:   netconfig.FieldPosition,
		Position: gamemath.Vec3{X: 40},
	})

	assert.ErrorIs(t, err, ErrNotRemote)
	assert.Equal(t, gamemath.Vec3{}, e.state.LastKnown().Position)
}

func TestApplyUpdateRejectsNonFinite(t *testing.T) {
	r := NewRegistry(nil, nil, nil)
	e := newMovingEntity()
	require.NoError(t, r.RegisterRemote(1, e))

	err := r.ApplyUpdate(messages.EntityUpdate{
		EntityID:  1,
		Kind:      netconfig.UpdatePartial,
		Fields:    netconfig.FieldPosition | netconfig.FieldAlgorithm,
		Position:  gamemath.Vec3{X: math.NaN()},
		Algorithm: netconfig.AlgorithmStatic,
	})

	assert.ErrorIs(t, err, deadreckoning.ErrNonFinite)
	assert.Equal(t, gamemath.Vec3{}, e.state.LastKnown().Position)
	assert.Equal(t, netconfig.AlgorithmVelocityOnly, e.state.Algorithm(), "rejected update must not change tags")

	rx, ok := r.Received(1)
	require.True(t, ok)
	assert.Equal(t, 1, rx.Rejected)
	assert.Equal(t, 0, rx.Updates)
}

func TestSmoothedCorrectionThroughRegistry(t *testing.T) {
	r := NewRegistry(nil, nil, nil)
	rec := recordingRecorder{}
	r.SetPredictionRecorder(rec)
	e := newMovingEntity()
	require.NoError(t, r.RegisterRemote(1, e))

	r.UpdateAll(1.0)
	r.UpdateAll(1.0)
	assert.Equal(t, gamemath.Vec3{X: 2}, e.last().Position)

	require.NoError(t, r.ApplyUpdate(messages.EntityUpdate{
		EntityID: 1,
		Sequence: 1,
		Kind:     netconfig.UpdatePartial,
		Fields:   netconfig.FieldPosition | netconfig.FieldOrientation,
		Position: gamemath.Vec3{X: 2, Y: 5},
	}))

	r.UpdateAll(0.5)
	assertVecNear(t, gamemath.Vec3{X: 2.5, Y: 2.5}, e.last().Position)

	r.UpdateAll(0.5)
	assert.Equal(t, gamemath.Vec3{X: 3, Y: 5}, e.last().Position)

	rx, ok := r.Received(1)
	require.True(t, ok)
	assert.Equal(t, uint32(1), rx.LastSequence)
	assert.Equal(t, 1, rx.Updates)
	assert.InDelta(t, 5.0, rx.PredictionError, 1e-9)

	require.Contains(t, rec, esync.NetworkId(1))
	assert.Equal(t, gamemath.Vec3{X: 2}, rec[1].predicted)
	assert.Equal(t, gamemath.Vec3{X: 2, Y: 5}, rec[1].authoritative)
}

func TestPartialUpdateKeepsVelocity(t *testing.T) {
	r := NewRegistry(nil, nil, nil)
	e := newMovingEntity()
	require.NoError(t, r.RegisterRemote(1, e))

	require.NoError(t, r.ApplyUpdate(messages.EntityUpdate{
		EntityID: 1,
		Kind:     netconfig.UpdatePartial,
		Fields:   netconfig.FieldPosition,
		Position: gamemath.Vec3{X: 10},
	}))

	assert.Equal(t, gamemath.Vec3{X: 1}, e.state.LastKnown().Velocity)
}

func TestFullUpdateAppliesAlgorithmAndClamp(t *testing.T) {
	r := NewRegistry(nil, nil, nil)
	e := newMovingEntity()
	require.NoError(t, r.RegisterRemote(1, e))

	require.NoError(t, r.ApplyUpdate(messages.EntityUpdate{
		EntityID:     1,
		Kind:         netconfig.UpdateFull,
		Fields:       netconfig.FieldsAll,
		Acceleration: gamemath.Vec3{Y: 2},
		Algorithm:    netconfig.AlgorithmVelocityAndAcceleration,
		GroundClamp:  netconfig.GroundClampKeepAbove,
	}))

	assert.Equal(t, netconfig.AlgorithmVelocityAndAcceleration, e.state.Algorithm())
	assert.Equal(t, netconfig.GroundClampKeepAbove, e.state.GroundClamp())
	assert.Equal(t, gamemath.Vec3{Y: 2}, e.state.LastKnown().Acceleration)
}

func TestGroundClampUsesRegistryTerrain(t *testing.T) {
	flat := deadreckoning.GroundQueryFunc(func(gamemath.Vec3) (float64, gamemath.Vec3, error) {
		return 3, gamemath.Vec3{Z: 1}, nil
	})
	r := NewRegistry(nil, flat, nil)
	e := newTestEntity(deadreckoning.Kinematics{}, deadreckoning.StateOptions{
		Algorithm:   netconfig.AlgorithmStatic,
		GroundClamp: netconfig.GroundClampKeepAbove,
	})
	require.NoError(t, r.RegisterRemote(1, e))

	r.UpdateAll(0.1)

	assert.Equal(t, 3.0, e.last().Position.Z)
}
