package engine

import (
	"errors"
	"fmt"

	"github.com/bitfsorg/nftstages-go/allowlist"
	"github.com/bitfsorg/nftstages-go/collection"
	"github.com/bitfsorg/nftstages-go/identity"
	"github.com/bitfsorg/nftstages-go/payment"
	"github.com/bitfsorg/nftstages-go/stage"
	"github.com/bitfsorg/nftstages-go/store"
)

// MaxUnitsPerMint bounds one mint. Each unit becomes a token record written in
// the same transaction.
const MaxUnitsPerMint = 1000

// MintRequest asks to mint Units tokens from one named stage.
type MintRequest struct {
	CollectionID collection.ID
	Identity     identity.Identity
	StageIndex   uint32
	Units        uint64
	Proof        allowlist.Proof // empty for open stages
	Payment      payment.Payment
}

// Mint validates req against the collection and, if every check passes,
// commits the mint in one store transaction. Price, caps and eligibility come
// from the stage named by req.StageIndex, even when a lower-indexed concurrent
// tier is the active stage. Checks run in this order and the first failure is
// returned:
//
//  1. collection paused, then malformed request (units, identity)
//  2. stage index out of range
//  3. stage not open now
//  4. identity not eligible
//  5. per-wallet cap
//  6. stage supply cap
//  7. global supply cap
//  8. payment amount, then payment reference reuse
//
// On failure nothing is written.
func (e *Engine) Mint(req MintRequest) (*Receipt, error) {
	var receipt *Receipt
	err := e.store.Update(func(tx store.Tx) error {
		var err error
		receipt, err = e.mint(tx, req)
		return err
	})
	e.observer.ObserveMint(req.StageIndex, req.Units, err)

	if err != nil {
		code, _, _ := CodeOf(err)
		e.log.Debug().
			Err(err).
			Uint32("code", uint32(code)).
			Str("collection", req.CollectionID.String()).
			Str("identity", req.Identity.String()).
			Uint32("stage", req.StageIndex).
			Uint64("units", req.Units).
			Msg("mint_rejected")
		return nil, err
	}

	e.log.Info().
		Str("receipt", receipt.ID.String()).
		Str("collection", req.CollectionID.String()).
		Str("identity", req.Identity.String()).
		Uint32("stage", req.StageIndex).
		Uint64("units", req.Units).
		Uint64("charged", receipt.Charged).
		Uint64("total_minted", receipt.TotalMinted).
		Msg("minted")
	return receipt, nil
}

func validateRequest(req MintRequest) error {
	if req.Units == 0 {
		return fmt.Errorf("%w: units must be > 0", ErrInvalidMintRequest)
	}
	if req.Units > MaxUnitsPerMint {
		return fmt.Errorf("%w: %d units, at most %d per mint", ErrInvalidMintRequest, req.Units, MaxUnitsPerMint)
	}
	if req.Identity.IsZero() {
		return fmt.Errorf("%w: identity is empty", ErrInvalidMintRequest)
	}
	return nil
}

func (e *Engine) mint(tx store.Tx, req MintRequest) (*Receipt, error) {
	now := e.Now()

	st, err := loadCollection(tx, req.CollectionID)
	if err != nil {
		return nil, err
	}

	// 1. Paused.
	if st.Paused {
		return nil, fmt.Errorf("%w: %s", ErrCollectionPaused, st.ID)
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	// 2. Stage index.
	entry := st.Stage(req.StageIndex)
	if entry == nil {
		return nil, fmt.Errorf("%w: %d (have %d stages)", ErrInvalidStageIndex, req.StageIndex, len(st.Stages))
	}
	cfg := entry.Config

	// Persisted stages must still satisfy every ordering rule before funds move.
	stages := st.StageConfigs()
	if err := stage.ValidateSequence(stages, st.TotalSupplyCap); err != nil {
		return nil, fmt.Errorf("corrupted collection state: %w", err)
	}

	// 3. Stage window.
	if err := stage.CheckOpen(stages, req.StageIndex, now); err != nil {
		return nil, err
	}

	// 4. Eligibility.
	if !allowlist.Verify(req.Identity, cfg.Eligibility, req.Proof) {
		return nil, fmt.Errorf("%w: %s in stage %d", ErrNotEligible, req.Identity, req.StageIndex)
	}

	// 5. Per-wallet cap.
	record, err := tx.MintRecord(st.ID, req.StageIndex, req.Identity)
	switch {
	case errors.Is(err, store.ErrNotFound):
		record = &collection.MintRecord{
			Version:      collection.CurrentLayout,
			CollectionID: st.ID,
			StageIndex:   req.StageIndex,
			Identity:     req.Identity,
		}
	case err != nil:
		return nil, err
	}
	if cfg.PerWalletCap > 0 && exceeds(record.UnitsMinted, req.Units, cfg.PerWalletCap) {
		return nil, fmt.Errorf("%w: %d minted + %d requested > cap %d",
			ErrPerWalletCapExceeded, record.UnitsMinted, req.Units, cfg.PerWalletCap)
	}

	// 6. Stage supply.
	if exceeds(entry.Minted, req.Units, cfg.SupplyCap) {
		return nil, fmt.Errorf("%w: %d minted + %d requested > cap %d",
			ErrStageSupplyExceeded, entry.Minted, req.Units, cfg.SupplyCap)
	}

	// 7. Global supply.
	if exceeds(st.TotalMinted, req.Units, st.TotalSupplyCap) {
		return nil, fmt.Errorf("%w: %d minted + %d requested > cap %d",
			ErrGlobalSupplyExceeded, st.TotalMinted, req.Units, st.TotalSupplyCap)
	}

	// 8. Payment.
	charged, ok := payment.Total(cfg.Price, req.Units)
	if !ok {
		return nil, fmt.Errorf("%w: price %d * %d units overflows", ErrInsufficientPayment, cfg.Price, req.Units)
	}
	if req.Payment.Amount < charged {
		return nil, fmt.Errorf("%w: paid %d, need %d", ErrInsufficientPayment, req.Payment.Amount, charged)
	}
	if charged > 0 && req.Payment.Ref.IsZero() {
		return nil, fmt.Errorf("%w: payment reference required", ErrInsufficientPayment)
	}
	if !req.Payment.Ref.IsZero() {
		_, err := tx.Payment(req.Payment.Ref)
		if err == nil {
			return nil, fmt.Errorf("%w: %s", ErrPaymentReused, req.Payment.Ref)
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		if err := tx.PutPayment(&payment.Entry{
			Version:      collection.CurrentLayout,
			Ref:          req.Payment.Ref,
			CollectionID: st.ID,
			Payer:        req.Identity,
			Amount:       req.Payment.Amount,
			Charged:      charged,
			At:           now,
		}); err != nil {
			return nil, err
		}
	}

	// All checks passed: assign tokens and apply the transition.
	tokenIDs, err := e.minter.Assign(st, req.Units)
	if err != nil {
		return nil, err
	}
	if uint64(len(tokenIDs)) != req.Units {
		return nil, fmt.Errorf("token minter assigned %d IDs for %d units", len(tokenIDs), req.Units)
	}
	for _, tokenID := range tokenIDs {
		if _, err := tx.Token(st.ID, tokenID); err == nil {
			return nil, fmt.Errorf("token minter reassigned token %d", tokenID)
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		if err := tx.PutToken(&collection.Token{
			Version:      collection.CurrentLayout,
			CollectionID: st.ID,
			TokenID:      tokenID,
			Owner:        req.Identity,
			StageIndex:   req.StageIndex,
			Level:        1,
			URI:          collection.TokenURI(st.BaseURI, tokenID, 1),
			MintedAt:     now,
		}); err != nil {
			return nil, err
		}
	}

	record.UnitsMinted += req.Units
	record.UpdatedAt = now
	if err := tx.PutMintRecord(record); err != nil {
		return nil, err
	}

	entry.Minted += req.Units
	st.TotalMinted += req.Units
	st.Proceeds += charged
	st.Finalized = true
	if err := tx.PutCollection(st); err != nil {
		return nil, err
	}

	return newReceipt(req, tokenIDs, charged, record.UnitsMinted, entry.Minted, st.TotalMinted, now), nil
}

// exceeds reports whether minted+units > limit without overflowing.
func exceeds(minted, units, limit uint64) bool {
	return minted > limit || units > limit-minted
}
