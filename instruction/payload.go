package instruction

import (
	"encoding/binary"
	"fmt"

	"github.com/bitfsorg/nftstages-go/allowlist"
	"github.com/bitfsorg/nftstages-go/engine"
	"github.com/bitfsorg/nftstages-go/payment"
	"github.com/bitfsorg/nftstages-go/stage"
)

// InitializePayload creates a collection.
type InitializePayload struct {
	Name           string
	BaseURI        string
	TotalSupplyCap uint64
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (p *InitializePayload) MarshalBinary() ([]byte, error) {
	buf, err := appendString(nil, p.Name)
	if err != nil {
		return nil, err
	}
	if buf, err = appendString(buf, p.BaseURI); err != nil {
		return nil, err
	}
	return binary.BigEndian.AppendUint64(buf, p.TotalSupplyCap), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (p *InitializePayload) UnmarshalBinary(data []byte) error {
	r := newReader(data)
	p.Name = r.str()
	p.BaseURI = r.str()
	p.TotalSupplyCap = r.u64()
	if !r.done() {
		return fmt.Errorf("%w: initialize", ErrInvalidPayload)
	}
	return nil
}

// StagePayload carries a stage definition for add or update.
type StagePayload struct {
	Config stage.Config
}

// stagePayloadSize is index(4) + start(8) + end(8) + price(8) + kind(1) +
// root(32) + per_wallet_cap(8) + supply_cap(8) + concurrent(1).
const stagePayloadSize = 78

// MarshalBinary implements encoding.BinaryMarshaler.
func (p *StagePayload) MarshalBinary() ([]byte, error) {
	c := p.Config
	buf := make([]byte, 0, stagePayloadSize)
	buf = binary.BigEndian.AppendUint32(buf, c.Index)
	buf = binary.BigEndian.AppendUint64(buf, uint64(c.StartTime))
	buf = binary.BigEndian.AppendUint64(buf, uint64(c.EndTime))
	buf = binary.BigEndian.AppendUint64(buf, c.Price)
	buf = append(buf, uint8(c.Eligibility.Kind))
	buf = append(buf, c.Eligibility.Root[:]...)
	buf = binary.BigEndian.AppendUint64(buf, c.PerWalletCap)
	buf = binary.BigEndian.AppendUint64(buf, c.SupplyCap)
	if c.Concurrent {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	return buf, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (p *StagePayload) UnmarshalBinary(data []byte) error {
	if len(data) != stagePayloadSize {
		return fmt.Errorf("%w: stage payload is %d bytes, want %d", ErrInvalidPayload, len(data), stagePayloadSize)
	}
	r := newReader(data)
	c := &p.Config
	c.Index = r.u32()
	c.StartTime = int64(r.u64())
	c.EndTime = int64(r.u64())
	c.Price = r.u64()
	c.Eligibility.Kind = stage.Kind(r.u8())
	r.fill(c.Eligibility.Root[:])
	c.PerWalletCap = r.u64()
	c.SupplyCap = r.u64()
	c.Concurrent = r.u8() != 0
	return nil
}

// PausePayload pauses or resumes minting.
type PausePayload struct {
	Paused bool
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (p *PausePayload) MarshalBinary() ([]byte, error) {
	if p.Paused {
		return []byte{1}, nil
	}
	return []byte{0}, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (p *PausePayload) UnmarshalBinary(data []byte) error {
	if len(data) != 1 || data[0] > 1 {
		return fmt.Errorf("%w: pause flag", ErrInvalidPayload)
	}
	p.Paused = data[0] == 1
	return nil
}

// PaymentKind selects how a mint is funded.
type PaymentKind uint8

const (
	PaymentNone   PaymentKind = iota // free stages
	PaymentDirect                    // pre-settled reference and amount, attested by the authority
	PaymentRawTx                     // BSV transaction paying the treasury
)

// PaymentSpec describes the funding attached to a mint instruction.
type PaymentSpec struct {
	Kind        PaymentKind
	Ref         payment.Ref // PaymentDirect
	Amount      uint64      // PaymentDirect
	Attestation []byte      // PaymentDirect, see AttestPayment
	RawTx       []byte      // PaymentRawTx
}

// MintPayload requests a mint from a named stage.
type MintPayload struct {
	StageIndex uint32
	Units      uint64
	Proof      allowlist.Proof
	Payment    PaymentSpec
}

// MarshalBinary implements encoding.BinaryMarshaler.
//
//	stage_index(4) units(8) proof_len(1) proof(32*n) payment_kind(1)
//	[ref(32) amount(8) attestation_len(1) attestation] | [raw_tx_len(4) raw_tx]
func (p *MintPayload) MarshalBinary() ([]byte, error) {
	if p.Units > engine.MaxUnitsPerMint {
		return nil, fmt.Errorf("%w: %d units, at most %d", ErrInvalidPayload, p.Units, engine.MaxUnitsPerMint)
	}
	if len(p.Proof) > allowlist.MaxProofDepth {
		return nil, fmt.Errorf("%w: proof depth %d", ErrInvalidPayload, len(p.Proof))
	}
	if len(p.Payment.Attestation) > MaxAttestationSize {
		return nil, fmt.Errorf("%w: attestation of %d bytes", ErrInvalidPayload, len(p.Payment.Attestation))
	}
	buf := make([]byte, 0, 14+allowlist.HashSize*len(p.Proof)+46+len(p.Payment.Attestation)+len(p.Payment.RawTx))
	buf = binary.BigEndian.AppendUint32(buf, p.StageIndex)
	buf = binary.BigEndian.AppendUint64(buf, p.Units)
	buf = append(buf, uint8(len(p.Proof)))
	for _, node := range p.Proof {
		buf = append(buf, node[:]...)
	}

	buf = append(buf, uint8(p.Payment.Kind))
	switch p.Payment.Kind {
	case PaymentNone:
	case PaymentDirect:
		buf = append(buf, p.Payment.Ref[:]...)
		buf = binary.BigEndian.AppendUint64(buf, p.Payment.Amount)
		buf = append(buf, uint8(len(p.Payment.Attestation)))
		buf = append(buf, p.Payment.Attestation...)
	case PaymentRawTx:
		var err error
		if buf, err = appendBytes32(buf, p.Payment.RawTx); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: payment kind %d", ErrInvalidPayload, p.Payment.Kind)
	}
	return buf, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (p *MintPayload) UnmarshalBinary(data []byte) error {
	r := newReader(data)
	p.StageIndex = r.u32()
	p.Units = r.u64()
	if p.Units > engine.MaxUnitsPerMint {
		return fmt.Errorf("%w: %d units, at most %d", ErrInvalidPayload, p.Units, engine.MaxUnitsPerMint)
	}

	depth := int(r.u8())
	if depth > allowlist.MaxProofDepth {
		return fmt.Errorf("%w: proof depth %d", ErrInvalidPayload, depth)
	}
	p.Proof = make(allowlist.Proof, depth)
	for i := range p.Proof {
		r.fill(p.Proof[i][:])
	}

	p.Payment = PaymentSpec{Kind: PaymentKind(r.u8())}
	switch p.Payment.Kind {
	case PaymentNone:
	case PaymentDirect:
		r.fill(p.Payment.Ref[:])
		p.Payment.Amount = r.u64()
		n := int(r.u8())
		if n > MaxAttestationSize {
			return fmt.Errorf("%w: attestation of %d bytes", ErrInvalidPayload, n)
		}
		if n > 0 {
			p.Payment.Attestation = make([]byte, n)
			r.fill(p.Payment.Attestation)
		}
	case PaymentRawTx:
		p.Payment.RawTx = r.blob32()
	default:
		return fmt.Errorf("%w: payment kind %d", ErrInvalidPayload, p.Payment.Kind)
	}
	if !r.done() {
		return fmt.Errorf("%w: mint", ErrInvalidPayload)
	}
	return nil
}

// LevelUpPayload names the token to level up.
type LevelUpPayload struct {
	TokenID uint64
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (p *LevelUpPayload) MarshalBinary() ([]byte, error) {
	return binary.BigEndian.AppendUint64(nil, p.TokenID), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (p *LevelUpPayload) UnmarshalBinary(data []byte) error {
	if len(data) != 8 {
		return fmt.Errorf("%w: level-up payload is %d bytes", ErrInvalidPayload, len(data))
	}
	p.TokenID = binary.BigEndian.Uint64(data)
	return nil
}
