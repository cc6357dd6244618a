package stage

import (
	"fmt"
	"math"
)

// EffectiveEnd returns the exclusive end of stage i: its explicit EndTime,
// otherwise the start of the next non-concurrent stage, otherwise
// math.MaxInt64.
func EffectiveEnd(stages []Config, i int) int64 {
	if stages[i].HasEnd() {
		return stages[i].EndTime
	}
	for j := i + 1; j < len(stages); j++ {
		if !stages[j].Concurrent {
			return stages[j].StartTime
		}
	}
	return math.MaxInt64
}

// IsOpenAt reports whether now falls in [StartTime, EffectiveEnd) of stage i.
func IsOpenAt(stages []Config, i int, now int64) bool {
	return now >= stages[i].StartTime && now < EffectiveEnd(stages, i)
}

// Started reports whether the stage's start time has been reached.
func Started(cfg Config, now int64) bool {
	return now >= cfg.StartTime
}

// ResolveActive returns the lowest-indexed stage open at now. When
// concurrent tiers overlap, that stage is the authoritative active stage.
func ResolveActive(stages []Config, now int64) (Config, bool) {
	for i := range stages {
		if IsOpenAt(stages, i, now) {
			return stages[i], true
		}
	}
	return Config{}, false
}

// CheckOpen confirms that the stage named by index is open at now.
func CheckOpen(stages []Config, index uint32, now int64) error {
	if uint64(index) >= uint64(len(stages)) {
		return fmt.Errorf("%w: %d (have %d stages)", ErrInvalidIndex, index, len(stages))
	}
	i := int(index)
	if !IsOpenAt(stages, i, now) {
		end := EffectiveEnd(stages, i)
		if end == math.MaxInt64 {
			return fmt.Errorf("%w: stage %d opens at %d, now %d", ErrNotActive, index, stages[i].StartTime, now)
		}
		return fmt.Errorf("%w: stage %d window [%d, %d), now %d",
			ErrNotActive, index, stages[i].StartTime, end, now)
	}
	return nil
}
