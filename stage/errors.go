package stage

import "errors"

var (
	// ErrInvalidConfig indicates a stage definition or stage sequence violates
	// the ordering, window or cap rules.
	ErrInvalidConfig = errors.New("stage: invalid stage config")

	// ErrInvalidIndex indicates a stage index outside the configured sequence.
	ErrInvalidIndex = errors.New("stage: invalid stage index")

	// ErrNotActive indicates the named stage is not open at the given time.
	ErrNotActive = errors.New("stage: stage not active")
)
