package engine

import (
	"encoding/binary"

	"github.com/google/uuid"

	"github.com/bitfsorg/nftstages-go/collection"
	"github.com/bitfsorg/nftstages-go/identity"
	"github.com/bitfsorg/nftstages-go/payment"
)

// receiptNamespace scopes receipt UUIDs.
var receiptNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("nftstages:receipt"))

// Receipt describes a committed mint.
type Receipt struct {
	ID                 uuid.UUID         `json:"id"`
	CollectionID       collection.ID     `json:"collection_id"`
	StageIndex         uint32            `json:"stage_index"`
	Identity           identity.Identity `json:"identity"`
	Units              uint64            `json:"units"`
	TokenIDs           []uint64          `json:"token_ids"`
	Charged            uint64            `json:"charged"`
	Change             uint64            `json:"change"`
	PaymentRef         payment.Ref       `json:"payment_ref"`
	UnitsMintedInStage uint64            `json:"units_minted_in_stage"`
	StageMinted        uint64            `json:"stage_minted"`
	TotalMinted        uint64            `json:"total_minted"`
	MintedAt           int64             `json:"minted_at"`
}

func newReceipt(req MintRequest, tokenIDs []uint64, charged, unitsInStage, stageMinted, totalMinted uint64, now int64) *Receipt {
	// Token IDs are unique per collection, so (collection, first token) names
	// the mint.
	name := make([]byte, 0, collection.IDSize+8)
	name = append(name, req.CollectionID[:]...)
	name = binary.BigEndian.AppendUint64(name, tokenIDs[0])

	return &Receipt{
		ID:                 uuid.NewSHA1(receiptNamespace, name),
		CollectionID:       req.CollectionID,
		StageIndex:         req.StageIndex,
		Identity:           req.Identity,
		Units:              req.Units,
		TokenIDs:           tokenIDs,
		Charged:            charged,
		Change:             req.Payment.Amount - charged,
		PaymentRef:         req.Payment.Ref,
		UnitsMintedInStage: unitsInStage,
		StageMinted:        stageMinted,
		TotalMinted:        totalMinted,
		MintedAt:           now,
	}
}
