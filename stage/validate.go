package stage

import (
	"fmt"
	"math/bits"
)

// ValidateConfig checks a single stage definition in isolation: window,
// supply cap and eligibility tag.
func ValidateConfig(cfg Config) error {
	if cfg.StartTime < 0 {
		return fmt.Errorf("%w: stage %d start time %d is negative", ErrInvalidConfig, cfg.Index, cfg.StartTime)
	}
	if cfg.HasEnd() && cfg.EndTime <= cfg.StartTime {
		return fmt.Errorf("%w: stage %d ends at %d, not after start %d",
			ErrInvalidConfig, cfg.Index, cfg.EndTime, cfg.StartTime)
	}
	if cfg.SupplyCap == 0 {
		return fmt.Errorf("%w: stage %d supply cap must be > 0", ErrInvalidConfig, cfg.Index)
	}
	if cfg.PerWalletCap > cfg.SupplyCap {
		return fmt.Errorf("%w: stage %d per-wallet cap %d exceeds stage supply cap %d",
			ErrInvalidConfig, cfg.Index, cfg.PerWalletCap, cfg.SupplyCap)
	}

	var zero [RootSize]byte
	switch cfg.Eligibility.Kind {
	case KindOpen:
		if cfg.Eligibility.Root != zero {
			return fmt.Errorf("%w: stage %d is open but carries a root", ErrInvalidConfig, cfg.Index)
		}
	case KindAllowlist:
		if cfg.Eligibility.Root == zero {
			return fmt.Errorf("%w: stage %d allowlist root is empty", ErrInvalidConfig, cfg.Index)
		}
	default:
		return fmt.Errorf("%w: stage %d has unknown eligibility kind %d",
			ErrInvalidConfig, cfg.Index, cfg.Eligibility.Kind)
	}
	return nil
}

// ValidateAppend checks that cfg may be appended to existing, which is
// assumed to already satisfy ValidateSequence.
//
// Checks run in this order: index position, the stage on its own, its window
// against earlier stages, then cumulative supply caps against totalSupplyCap.
func ValidateAppend(existing []Config, cfg Config, totalSupplyCap uint64) error {
	if int(cfg.Index) != len(existing) {
		return fmt.Errorf("%w: stage index %d, expected %d", ErrInvalidConfig, cfg.Index, len(existing))
	}
	next := make([]Config, 0, len(existing)+1)
	next = append(next, existing...)
	next = append(next, cfg)
	return ValidateSequence(next, totalSupplyCap)
}

// ValidateSequence checks every ordering invariant of a full stage sequence:
//
//	stages[i].Index == i
//	start[i] <= end[i] <= start[i+1] for non-concurrent neighbours
//	SupplyCap <= totalSupplyCap for every stage
//	sum(SupplyCap) <= totalSupplyCap over non-concurrent stages
func ValidateSequence(stages []Config, totalSupplyCap uint64) error {
	var total uint64
	for i := range stages {
		cfg := stages[i]
		if int(cfg.Index) != i {
			return fmt.Errorf("%w: stage at position %d has index %d", ErrInvalidConfig, i, cfg.Index)
		}
		if err := ValidateConfig(cfg); err != nil {
			return err
		}
		if err := checkOrder(stages[:i], cfg); err != nil {
			return err
		}

		if cfg.SupplyCap > totalSupplyCap {
			return fmt.Errorf("%w: stage %d supply cap %d exceeds collection supply %d",
				ErrInvalidConfig, cfg.Index, cfg.SupplyCap, totalSupplyCap)
		}
		// Concurrent tiers draw on the same global supply as the stages they
		// overlap, so only sequential stages count toward the cumulative cap.
		if cfg.Concurrent {
			continue
		}
		var carry uint64
		total, carry = bits.Add64(total, cfg.SupplyCap, 0)
		if carry != 0 || total > totalSupplyCap {
			return fmt.Errorf("%w: cumulative stage supply exceeds collection supply %d",
				ErrInvalidConfig, totalSupplyCap)
		}
	}
	return nil
}

// checkOrder validates cfg's window against the stages before it.
func checkOrder(prior []Config, cfg Config) error {
	if len(prior) == 0 {
		return nil
	}
	prev := prior[len(prior)-1]

	if cfg.Concurrent {
		if cfg.StartTime < prev.StartTime {
			return fmt.Errorf("%w: concurrent stage %d starts at %d before stage %d at %d",
				ErrInvalidConfig, cfg.Index, cfg.StartTime, prev.Index, prev.StartTime)
		}
		return nil
	}

	if cfg.StartTime <= prev.StartTime {
		return fmt.Errorf("%w: stage %d starts at %d, not after stage %d at %d",
			ErrInvalidConfig, cfg.Index, cfg.StartTime, prev.Index, prev.StartTime)
	}
	for _, p := range prior {
		if p.HasEnd() && cfg.StartTime < p.EndTime {
			return fmt.Errorf("%w: stage %d starts at %d before stage %d ends at %d",
				ErrInvalidConfig, cfg.Index, cfg.StartTime, p.Index, p.EndTime)
		}
	}
	return nil
}

// ValidateFrozen checks that replacing prev with next leaves every stage that
// has started at now untouched: same definition and same effective end. next
// may append stages but not drop them.
func ValidateFrozen(prev, next []Config, now int64) error {
	if len(next) < len(prev) {
		return fmt.Errorf("%w: %d stages would become %d", ErrInvalidConfig, len(prev), len(next))
	}
	for i := range prev {
		if !Started(prev[i], now) {
			continue
		}
		if next[i] != prev[i] {
			return fmt.Errorf("%w: stage %d started at %d and cannot change",
				ErrInvalidConfig, prev[i].Index, prev[i].StartTime)
		}
		if before, after := EffectiveEnd(prev, i), EffectiveEnd(next, i); before != after {
			return fmt.Errorf("%w: stage %d started at %d, its end would move from %d to %d",
				ErrInvalidConfig, prev[i].Index, prev[i].StartTime, before, after)
		}
	}
	return nil
}

// ValidateNotStarted checks that cfg starts strictly after now.
func ValidateNotStarted(cfg Config, now int64) error {
	if Started(cfg, now) {
		return fmt.Errorf("%w: stage %d starts at %d, not after now %d",
			ErrInvalidConfig, cfg.Index, cfg.StartTime, now)
	}
	return nil
}
