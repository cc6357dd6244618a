package engine

import (
	"errors"
	"fmt"

	"github.com/bitfsorg/nftstages-go/collection"
	"github.com/bitfsorg/nftstages-go/identity"
	"github.com/bitfsorg/nftstages-go/store"
)

// LevelUp raises a token's level by one and rewrites its metadata URI. A
// token already at collection.MaxLevel is returned unchanged. Only the owner
// may level up a token.
func (e *Engine) LevelUp(caller identity.Identity, id collection.ID, tokenID uint64) (*collection.Token, error) {
	var tok *collection.Token
	changed := false
	err := e.store.Update(func(tx store.Tx) error {
		if _, err := loadCollection(tx, id); err != nil {
			return err
		}
		var err error
		tok, err = tx.Token(id, tokenID)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: %d in %s", ErrTokenNotFound, tokenID, id)
		}
		if err != nil {
			return err
		}
		if tok.Owner != caller {
			return fmt.Errorf("%w: %s does not own token %d", ErrUnauthorized, caller, tokenID)
		}
		if tok.AtMaxLevel() {
			return nil
		}
		tok.SetLevel(tok.Level + 1)
		changed = true
		return tx.PutToken(tok)
	})
	e.observer.ObserveAdmin("level_up", err)
	if err != nil {
		return nil, err
	}

	if changed {
		e.log.Info().
			Str("collection", id.String()).
			Uint64("token", tokenID).
			Uint8("level", tok.Level).
			Msg("token_leveled_up")
	} else {
		e.log.Debug().
			Str("collection", id.String()).
			Uint64("token", tokenID).
			Msg("token_at_max_level")
	}
	return tok, nil
}
