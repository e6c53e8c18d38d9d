package deadreckoning

import "errors"

var (
	// ErrNonFinite rejects kinematic input containing NaN or ±Inf.
	ErrNonFinite = errors.New("non-finite kinematic input")
	// ErrTerrainUnavailable is returned when clamping is requested without a terrain source.
	ErrTerrainUnavailable = errors.New("terrain query unavailable")
	// ErrBadTerrainSample is returned when the terrain answers with a non-finite height or a degenerate normal.
	ErrBadTerrainSample = errors.New("invalid terrain sample")
)
