package engine

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/bitfsorg/nftstages-go/collection"
	"github.com/bitfsorg/nftstages-go/identity"
	"github.com/bitfsorg/nftstages-go/stage"
	"github.com/bitfsorg/nftstages-go/store"
)

// MaxNameLen bounds a collection name in bytes.
const MaxNameLen = 64

// MaxBaseURILen bounds a collection base URI in bytes.
const MaxBaseURILen = 512

// Initialize creates a collection owned by authority and returns its ID. The
// ID is derived from (authority, name), so initializing twice fails with
// ErrAlreadyInitialized.
func (e *Engine) Initialize(authority identity.Identity, name, baseURI string, totalSupplyCap uint64) (collection.ID, error) {
	id := collection.DeriveID(authority, name)
	err := e.initialize(id, authority, name, baseURI, totalSupplyCap)
	e.observer.ObserveAdmin("initialize", err)
	if err != nil {
		return collection.ID{}, err
	}
	e.log.Info().
		Str("collection", id.String()).
		Str("authority", authority.String()).
		Str("name", name).
		Uint64("total_supply_cap", totalSupplyCap).
		Msg("collection_initialized")
	return id, nil
}

func (e *Engine) initialize(id collection.ID, authority identity.Identity, name, baseURI string, totalSupplyCap uint64) error {
	switch {
	case authority.IsZero():
		return fmt.Errorf("%w: authority is empty", ErrInvalidCollectionConfig)
	case name == "" || len(name) > MaxNameLen || !utf8.ValidString(name):
		return fmt.Errorf("%w: name must be 1-%d bytes of UTF-8", ErrInvalidCollectionConfig, MaxNameLen)
	case len(baseURI) > MaxBaseURILen:
		return fmt.Errorf("%w: base URI longer than %d bytes", ErrInvalidCollectionConfig, MaxBaseURILen)
	case totalSupplyCap == 0:
		return fmt.Errorf("%w: total supply cap must be > 0", ErrInvalidCollectionConfig)
	}

	return e.store.Update(func(tx store.Tx) error {
		_, err := tx.Collection(id)
		if err == nil {
			return fmt.Errorf("%w: %s", ErrAlreadyInitialized, id)
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		return tx.PutCollection(&collection.State{
			Version:        collection.CurrentLayout,
			ID:             id,
			Authority:      authority,
			Name:           name,
			BaseURI:        baseURI,
			TotalSupplyCap: totalSupplyCap,
			CreatedAt:      e.Now(),
			Stages:         []collection.StageEntry{},
		})
	})
}

// AddStage appends cfg to the collection's stage sequence and returns the new
// stage count. Checks run in order: authority, finalization, then index,
// ordering and cap rules, then time. cfg must start after now and must not
// move the end of a stage that is already running.
func (e *Engine) AddStage(caller identity.Identity, id collection.ID, cfg stage.Config) (int, error) {
	var count int
	err := e.adminUpdate(caller, id, func(tx store.Tx, st *collection.State) error {
		prev := st.StageConfigs()
		if err := stage.ValidateAppend(prev, cfg, st.TotalSupplyCap); err != nil {
			return err
		}
		now := e.Now()
		if err := stage.ValidateNotStarted(cfg, now); err != nil {
			return err
		}
		if err := stage.ValidateFrozen(prev, append(prev[:len(prev):len(prev)], cfg), now); err != nil {
			return err
		}
		st.Stages = append(st.Stages, collection.StageEntry{Config: cfg})
		count = len(st.Stages)
		return tx.PutCollection(st)
	})
	e.observer.ObserveAdmin("add_stage", err)
	if err != nil {
		return 0, err
	}
	e.log.Info().
		Str("collection", id.String()).
		Uint32("stage", cfg.Index).
		Str("eligibility", cfg.Eligibility.Kind.String()).
		Int64("start", cfg.StartTime).
		Int64("end", cfg.EndTime).
		Uint64("price", cfg.Price).
		Uint64("supply_cap", cfg.SupplyCap).
		Msg("stage_added")
	return count, nil
}

// UpdateStage replaces the definition of a stage that has not started yet.
// The new definition must also start after now, and no running stage may
// have its end moved by the change.
func (e *Engine) UpdateStage(caller identity.Identity, id collection.ID, cfg stage.Config) error {
	err := e.adminUpdate(caller, id, func(tx store.Tx, st *collection.State) error {
		entry := st.Stage(cfg.Index)
		if entry == nil {
			return fmt.Errorf("%w: %d (have %d stages)", ErrInvalidStageIndex, cfg.Index, len(st.Stages))
		}
		now := e.Now()
		if stage.Started(entry.Config, now) {
			return fmt.Errorf("%w: stage %d started at %d, now %d",
				ErrInvalidStageConfig, cfg.Index, entry.Config.StartTime, now)
		}
		prev := st.StageConfigs()
		next := st.StageConfigs()
		next[cfg.Index] = cfg
		if err := stage.ValidateSequence(next, st.TotalSupplyCap); err != nil {
			return err
		}
		if err := stage.ValidateNotStarted(cfg, now); err != nil {
			return err
		}
		if err := stage.ValidateFrozen(prev, next, now); err != nil {
			return err
		}
		entry.Config = cfg
		return tx.PutCollection(st)
	})
	e.observer.ObserveAdmin("update_stage", err)
	if err != nil {
		return err
	}
	e.log.Info().
		Str("collection", id.String()).
		Uint32("stage", cfg.Index).
		Msg("stage_updated")
	return nil
}

// SetPaused pauses or resumes minting.
func (e *Engine) SetPaused(caller identity.Identity, id collection.ID, paused bool) error {
	err := e.store.Update(func(tx store.Tx) error {
		st, err := loadCollection(tx, id)
		if err != nil {
			return err
		}
		if caller != st.Authority {
			return fmt.Errorf("%w: %s is not the collection authority", ErrUnauthorized, caller)
		}
		st.Paused = paused
		return tx.PutCollection(st)
	})
	e.observer.ObserveAdmin("set_paused", err)
	if err != nil {
		return err
	}
	e.log.Info().Str("collection", id.String()).Bool("paused", paused).Msg("pause_changed")
	return nil
}

// adminUpdate runs a stage-sequence mutation after the shared authority and
// finalization checks.
func (e *Engine) adminUpdate(caller identity.Identity, id collection.ID, fn func(store.Tx, *collection.State) error) error {
	return e.store.Update(func(tx store.Tx) error {
		st, err := loadCollection(tx, id)
		if err != nil {
			return err
		}
		if caller != st.Authority {
			return fmt.Errorf("%w: %s is not the collection authority", ErrUnauthorized, caller)
		}
		if st.Finalized {
			return fmt.Errorf("%w: %d units already minted", ErrCollectionFinalized, st.TotalMinted)
		}
		return fn(tx, st)
	})
}

func loadCollection(tx store.Tx, id collection.ID) (*collection.State, error) {
	st, err := tx.Collection(id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, id)
	}
	return st, err
}
