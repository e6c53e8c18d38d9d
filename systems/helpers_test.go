package systems

import (
	"errors"
	"testing"

	"github.com/automoto/drsync/shared/deadreckoning"
	"github.com/automoto/drsync/shared/gamemath"
	"github.com/automoto/drsync/shared/messages"
	"github.com/automoto/drsync/shared/netconfig"
	"github.com/leap-fish/necs/esync"
	"github.com/stretchr/testify/assert"
)

type testEntity struct {
	state   *deadreckoning.State
	applied []deadreckoning.Transform
	onApply func()
}

func newTestEntity(k deadreckoning.Kinematics, opts deadreckoning.StateOptions) *testEntity {
	return &testEntity{state: deadreckoning.NewState(k, opts)}
}

func newMovingEntity() *testEntity {
	return newTestEntity(
		deadreckoning.Kinematics{Velocity: gamemath.Vec3{X: 1}},
		deadreckoning.StateOptions{
			Algorithm:                   netconfig.AlgorithmVelocityOnly,
			MaxTranslationSmoothingTime: 1.0,
			UseFixedSmoothingTime:       true,
		},
	)
}

func (e *testEntity) DeadReckoningState() *deadreckoning.State {
	return e.state
}

func (e *testEntity) ApplyExtrapolated(t deadreckoning.Transform) {
	e.applied = append(e.applied, t)
	if e.onApply != nil {
		e.onApply()
	}
}

func (e *testEntity) last() deadreckoning.Transform {
	if len(e.applied) == 0 {
		return deadreckoning.Transform{}
	}
	return e.applied[len(e.applied)-1]
}

type providerEntity struct {
	*testEntity
	live deadreckoning.Kinematics
}

func (e *providerEntity) LiveKinematics() deadreckoning.Kinematics {
	return e.live
}

var errSendFailed = errors.New("send failed")

type recordingPublisher struct {
	sent []messages.EntityUpdate
	fail bool
	err  error
}

func (p *recordingPublisher) Publish(msg messages.EntityUpdate) error {
	if p.err != nil {
		return p.err
	}
	if p.fail {
		return errSendFailed
	}
	p.sent = append(p.sent, msg)
	return nil
}

type recordedPrediction struct {
	predicted, authoritative gamemath.Vec3
}

type recordingRecorder map[esync.NetworkId]recordedPrediction

func (r recordingRecorder) Record(id esync.NetworkId, predicted, authoritative gamemath.Vec3) {
	r[id] = recordedPrediction{predicted: predicted, authoritative: authoritative}
}

func assertVecNear(t *testing.T, want, got gamemath.Vec3) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-9, "x")
	assert.InDelta(t, want.Y, got.Y, 1e-9, "y")
	assert.InDelta(t, want.Z, got.Z, 1e-9, "z")
}
