package network

import (
	"math"

	"github.com/automoto/drsync/shared/gamemath"
	"github.com/leap-fish/necs/esync"
)

const predictionLogSize = 64

// PredictionRecord is one accepted update: where the entity was predicted
// to be and where its owner said it was.
type PredictionRecord struct {
	EntityID      esync.NetworkId
	Predicted     gamemath.Vec3
	Authoritative gamemath.Vec3
	Error         float64
}

// PredictionStats summarizes every record since the log was created.
type PredictionStats struct {
	Count int
	Mean  float64
	Max   float64
}

// PredictionLog is a ring buffer of recent prediction errors, for tuning
// publish thresholds. It is used from the tick goroutine only.
type PredictionLog struct {
	history [predictionLogSize]PredictionRecord
	next    int
	size    int

	count int
	total float64
	max   float64
}

// Record stores a prediction and the authoritative position that replaced it.
func (l *PredictionLog) Record(id esync.NetworkId, predicted, authoritative gamemath.Vec3) {
	rec := PredictionRecord{
		EntityID:      id,
		Predicted:     predicted,
		Authoritative: authoritative,
		Error:         predicted.Sub(authoritative).Length(),
	}
	l.history[l.next] = rec
	l.next = (l.next + 1) % predictionLogSize
	if l.size < predictionLogSize {
		l.size++
	}

	l.count++
	l.total += rec.Error
	l.max = math.Max(l.max, rec.Error)
}

// Recent returns the retained records, oldest first.
func (l *PredictionLog) Recent() []PredictionRecord {
	out := make([]PredictionRecord, 0, l.size)
	start := (l.next - l.size + predictionLogSize) % predictionLogSize
	for i := 0; i < l.size; i++ {
		out = append(out, l.history[(start+i)%predictionLogSize])
	}
	return out
}

// ForEntity returns the retained records of id, oldest first.
func (l *PredictionLog) ForEntity(id esync.NetworkId) []PredictionRecord {
	var out []PredictionRecord
	for _, rec := range l.Recent() {
		if rec.EntityID == id {
			out = append(out, rec)
		}
	}
	return out
}

func (l *PredictionLog) Stats() PredictionStats {
	if l.count == 0 {
		return PredictionStats{}
	}
	return PredictionStats{
		Count: l.count,
		Mean:  l.total / float64(l.count),
		Max:   l.max,
	}
}
