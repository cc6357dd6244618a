// Package instruction carries engine calls as signed, versioned binary
// envelopes. The signer of an envelope becomes the caller identity of the
// engine operation it encodes.
package instruction

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	bsvhash "github.com/bsv-blockchain/go-sdk/primitives/hash"

	"github.com/bitfsorg/nftstages-go/collection"
	"github.com/bitfsorg/nftstages-go/identity"
)

// EnvelopeV1 is the current envelope layout.
const EnvelopeV1 uint8 = 1

// MaxPayloadSize bounds a payload. A raw payment transaction is the largest
// thing a payload carries.
const MaxPayloadSize = 1 << 20

// Kind selects the engine operation.
type Kind uint8

const (
	KindInitialize Kind = iota + 1
	KindAddStage
	KindUpdateStage
	KindSetPaused
	KindMint
	KindLevelUp
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindInitialize:
		return "initialize"
	case KindAddStage:
		return "add_stage"
	case KindUpdateStage:
		return "update_stage"
	case KindSetPaused:
		return "set_paused"
	case KindMint:
		return "mint"
	case KindLevelUp:
		return "level_up"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Envelope is one signed engine call.
type Envelope struct {
	Version      uint8
	Kind         Kind
	CollectionID collection.ID // zero for KindInitialize
	Signer       identity.Identity
	IssuedAt     int64 // unix seconds
	Payload      []byte
	Signature    []byte // DER ECDSA over Digest()
}

// envelopeHeaderSize is version(1) + kind(1) + collection_id(32) + signer(33)
// + issued_at(8) + payload_len(4).
const envelopeHeaderSize = 79

// signingBytes is the envelope encoding without the signature.
func (e *Envelope) signingBytes() []byte {
	buf := make([]byte, 0, envelopeHeaderSize+len(e.Payload))
	buf = append(buf, e.Version, uint8(e.Kind))
	buf = append(buf, e.CollectionID[:]...)
	buf = append(buf, e.Signer[:]...)
	buf = binary.BigEndian.AppendUint64(buf, uint64(e.IssuedAt))
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(e.Payload)))
	return append(buf, e.Payload...)
}

// Digest returns SHA256d of the envelope without its signature.
func (e *Envelope) Digest() []byte {
	return bsvhash.Sha256d(e.signingBytes())
}

// Sign sets Signer to priv's identity and signs the envelope.
func (e *Envelope) Sign(priv *ec.PrivateKey) error {
	if priv == nil {
		return fmt.Errorf("%w: private key", ErrNilParam)
	}
	signer, err := identity.FromPublicKey(priv.PubKey())
	if err != nil {
		return err
	}
	e.Signer = signer
	sig, err := priv.Sign(e.Digest())
	if err != nil {
		return fmt.Errorf("instruction: sign: %w", err)
	}
	e.Signature = sig.Serialize()
	return nil
}

// VerifySignature checks Signature against Signer.
func (e *Envelope) VerifySignature() error {
	if len(e.Signature) == 0 {
		return fmt.Errorf("%w: unsigned", ErrBadSignature)
	}
	pub, err := e.Signer.PublicKey()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBadSignature, err)
	}
	sig, err := ec.ParseDERSignature(e.Signature)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBadSignature, err)
	}
	if !sig.Verify(e.Digest(), pub) {
		return fmt.Errorf("%w: signature does not match signer %s", ErrBadSignature, e.Signer)
	}
	return nil
}

// Encode serializes the envelope:
//
//	version(1) kind(1) collection_id(32) signer(33) issued_at(8)
//	payload_len(4) payload sig_len(2) signature
func (e *Envelope) Encode() ([]byte, error) {
	if len(e.Payload) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: payload of %d bytes", ErrInvalidEnvelope, len(e.Payload))
	}
	if len(e.Signature) > math.MaxUint16 {
		return nil, fmt.Errorf("%w: signature of %d bytes", ErrInvalidEnvelope, len(e.Signature))
	}
	buf := e.signingBytes()
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(e.Signature)))
	return append(buf, e.Signature...), nil
}

// EncodeHex returns the hex encoding of Encode.
func (e *Envelope) EncodeHex() (string, error) {
	b, err := e.Encode()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Decode parses an encoded envelope. The signature is not verified.
func Decode(data []byte) (*Envelope, error) {
	if len(data) < envelopeHeaderSize+2 {
		return nil, fmt.Errorf("%w: too short (%d bytes)", ErrInvalidEnvelope, len(data))
	}
	r := newReader(data)
	e := &Envelope{Version: r.u8(), Kind: Kind(r.u8())}
	if e.Version != EnvelopeV1 {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidEnvelope, e.Version)
	}
	r.fill(e.CollectionID[:])
	r.fill(e.Signer[:])
	e.IssuedAt = int64(r.u64())

	n := r.u32()
	if n > MaxPayloadSize {
		return nil, fmt.Errorf("%w: payload of %d bytes", ErrInvalidEnvelope, n)
	}
	e.Payload = append([]byte(nil), r.take(int(n))...)
	e.Signature = append([]byte(nil), r.take(int(r.u16()))...)
	if !r.done() {
		return nil, fmt.Errorf("%w: truncated or trailing bytes", ErrInvalidEnvelope)
	}
	return e, nil
}

// DecodeHex parses a hex-encoded envelope.
func DecodeHex(s string) (*Envelope, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	return Decode(b)
}
