package engine

import (
	"errors"
	"fmt"

	"github.com/bitfsorg/nftstages-go/collection"
	"github.com/bitfsorg/nftstages-go/identity"
	"github.com/bitfsorg/nftstages-go/stage"
	"github.com/bitfsorg/nftstages-go/store"
)

// Collection returns the current state of a collection.
func (e *Engine) Collection(id collection.ID) (*collection.State, error) {
	var st *collection.State
	err := e.store.View(func(tx store.Tx) error {
		var err error
		st, err = loadCollection(tx, id)
		return err
	})
	return st, err
}

// MintRecord returns how many units who has minted in a stage. An identity
// that never minted gets a zero record.
func (e *Engine) MintRecord(id collection.ID, who identity.Identity, stageIndex uint32) (*collection.MintRecord, error) {
	var rec *collection.MintRecord
	err := e.store.View(func(tx store.Tx) error {
		st, err := loadCollection(tx, id)
		if err != nil {
			return err
		}
		if st.Stage(stageIndex) == nil {
			return fmt.Errorf("%w: %d (have %d stages)", ErrInvalidStageIndex, stageIndex, len(st.Stages))
		}
		rec, err = tx.MintRecord(id, stageIndex, who)
		if errors.Is(err, store.ErrNotFound) {
			rec = &collection.MintRecord{
				Version:      collection.CurrentLayout,
				CollectionID: id,
				StageIndex:   stageIndex,
				Identity:     who,
			}
			return nil
		}
		return err
	})
	return rec, err
}

// ActiveStage returns the stage open at the unix time at. ok is false when
// no stage is open.
func (e *Engine) ActiveStage(id collection.ID, at int64) (entry collection.StageEntry, ok bool, err error) {
	err = e.store.View(func(tx store.Tx) error {
		st, err := loadCollection(tx, id)
		if err != nil {
			return err
		}
		cfg, found := stage.ResolveActive(st.StageConfigs(), at)
		if found {
			entry, ok = st.Stages[cfg.Index], true
		}
		return nil
	})
	return entry, ok, err
}

// Token returns one minted token.
func (e *Engine) Token(id collection.ID, tokenID uint64) (*collection.Token, error) {
	var tok *collection.Token
	err := e.store.View(func(tx store.Tx) error {
		if _, err := loadCollection(tx, id); err != nil {
			return err
		}
		var err error
		tok, err = tx.Token(id, tokenID)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: %d in %s", ErrTokenNotFound, tokenID, id)
		}
		return err
	})
	return tok, err
}

// Tokens returns every token of a collection in token ID order.
func (e *Engine) Tokens(id collection.ID) ([]*collection.Token, error) {
	var toks []*collection.Token
	err := e.store.View(func(tx store.Tx) error {
		if _, err := loadCollection(tx, id); err != nil {
			return err
		}
		var err error
		toks, err = tx.Tokens(id)
		return err
	})
	return toks, err
}
