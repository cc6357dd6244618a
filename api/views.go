package api

import (
	"math"

	"github.com/bitfsorg/nftstages-go/collection"
	"github.com/bitfsorg/nftstages-go/identity"
	"github.com/bitfsorg/nftstages-go/stage"
)

// StageView is the JSON form of one stage.
type StageView struct {
	Index        uint32 `json:"index"`
	StartTime    int64  `json:"start_time"`
	EndTime      int64  `json:"end_time,omitempty"`
	EffectiveEnd int64  `json:"effective_end,omitempty"` // omitted when open-ended
	Price        uint64 `json:"price"`
	Eligibility  string `json:"eligibility"`
	Root         string `json:"root,omitempty"`
	PerWalletCap uint64 `json:"per_wallet_cap"`
	SupplyCap    uint64 `json:"supply_cap"`
	Minted       uint64 `json:"minted"`
	Remaining    uint64 `json:"remaining"`
	Concurrent   bool   `json:"concurrent,omitempty"`
	Open         bool   `json:"open"`
}

// CollectionView is the JSON form of a collection at a point in time.
type CollectionView struct {
	ID             collection.ID     `json:"id"`
	Authority      identity.Identity `json:"authority"`
	Name           string            `json:"name"`
	BaseURI        string            `json:"base_uri"`
	TotalSupplyCap uint64            `json:"total_supply_cap"`
	TotalMinted    uint64            `json:"total_minted"`
	Remaining      uint64            `json:"remaining"`
	Paused         bool              `json:"paused"`
	Finalized      bool              `json:"finalized"`
	Proceeds       uint64            `json:"proceeds"`
	CreatedAt      int64             `json:"created_at"`
	ActiveStage    *uint32           `json:"active_stage"`
	Stages         []StageView       `json:"stages"`
}

// RecordView is the JSON form of a mint record.
type RecordView struct {
	CollectionID collection.ID     `json:"collection_id"`
	StageIndex   uint32            `json:"stage_index"`
	Identity     identity.Identity `json:"identity"`
	UnitsMinted  uint64            `json:"units_minted"`
	UpdatedAt    int64             `json:"updated_at,omitempty"`
}

// TokenView is the JSON form of a token.
type TokenView struct {
	CollectionID collection.ID     `json:"collection_id"`
	TokenID      uint64            `json:"token_id"`
	Owner        identity.Identity `json:"owner"`
	StageIndex   uint32            `json:"stage_index"`
	Level        uint8             `json:"level"`
	URI          string            `json:"uri"`
	MintedAt     int64             `json:"minted_at"`
}

// NewStageView renders stage i of st as seen at now.
func NewStageView(st *collection.State, i int, now int64) StageView {
	cfgs := st.StageConfigs()
	e := st.Stages[i]
	v := StageView{
		Index:        e.Config.Index,
		StartTime:    e.Config.StartTime,
		EndTime:      e.Config.EndTime,
		Price:        e.Config.Price,
		Eligibility:  e.Config.Eligibility.Kind.String(),
		Root:         e.Config.Eligibility.RootHex(),
		PerWalletCap: e.Config.PerWalletCap,
		SupplyCap:    e.Config.SupplyCap,
		Minted:       e.Minted,
		Concurrent:   e.Config.Concurrent,
		Open:         stage.IsOpenAt(cfgs, i, now),
	}
	if end := stage.EffectiveEnd(cfgs, i); end != math.MaxInt64 {
		v.EffectiveEnd = end
	}
	if e.Minted < e.Config.SupplyCap {
		v.Remaining = e.Config.SupplyCap - e.Minted
	}
	return v
}

// NewCollectionView renders st as seen at now.
func NewCollectionView(st *collection.State, now int64) CollectionView {
	v := CollectionView{
		ID:             st.ID,
		Authority:      st.Authority,
		Name:           st.Name,
		BaseURI:        st.BaseURI,
		TotalSupplyCap: st.TotalSupplyCap,
		TotalMinted:    st.TotalMinted,
		Remaining:      st.RemainingSupply(),
		Paused:         st.Paused,
		Finalized:      st.Finalized,
		Proceeds:       st.Proceeds,
		CreatedAt:      st.CreatedAt,
		Stages:         make([]StageView, len(st.Stages)),
	}
	for i := range st.Stages {
		v.Stages[i] = NewStageView(st, i, now)
	}
	if active, ok := stage.ResolveActive(st.StageConfigs(), now); ok {
		idx := active.Index
		v.ActiveStage = &idx
	}
	return v
}

// NewRecordView renders a mint record.
func NewRecordView(r *collection.MintRecord) RecordView {
	return RecordView{
		CollectionID: r.CollectionID,
		StageIndex:   r.StageIndex,
		Identity:     r.Identity,
		UnitsMinted:  r.UnitsMinted,
		UpdatedAt:    r.UpdatedAt,
	}
}

// NewTokenView renders a token.
func NewTokenView(t *collection.Token) TokenView {
	return TokenView{
		CollectionID: t.CollectionID,
		TokenID:      t.TokenID,
		Owner:        t.Owner,
		StageIndex:   t.StageIndex,
		Level:        t.Level,
		URI:          t.URI,
		MintedAt:     t.MintedAt,
	}
}
