package instruction

import (
	"encoding/binary"
	"fmt"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	bsvhash "github.com/bsv-blockchain/go-sdk/primitives/hash"

	"github.com/bitfsorg/nftstages-go/collection"
	"github.com/bitfsorg/nftstages-go/identity"
	"github.com/bitfsorg/nftstages-go/payment"
)

// MaxAttestationSize bounds a DER signature.
const MaxAttestationSize = 72

var attestationTag = []byte("nftstages:payment")

// attestationDigest is SHA256d(tag || collection_id || buyer || ref || amount).
func attestationDigest(id collection.ID, buyer identity.Identity, ref payment.Ref, amount uint64) []byte {
	buf := make([]byte, 0, len(attestationTag)+collection.IDSize+identity.Size+payment.RefSize+8)
	buf = append(buf, attestationTag...)
	buf = append(buf, id[:]...)
	buf = append(buf, buyer[:]...)
	buf = append(buf, ref[:]...)
	buf = binary.BigEndian.AppendUint64(buf, amount)
	return bsvhash.Sha256d(buf)
}

// AttestPayment signs a pre-settled payment of amount under ref for buyer in
// collection id. The processor accepts a direct payment only with an
// attestation from the collection authority.
func AttestPayment(id collection.ID, buyer identity.Identity, ref payment.Ref, amount uint64, priv *ec.PrivateKey) ([]byte, error) {
	if priv == nil {
		return nil, fmt.Errorf("%w: private key", ErrNilParam)
	}
	sig, err := priv.Sign(attestationDigest(id, buyer, ref, amount))
	if err != nil {
		return nil, fmt.Errorf("instruction: attest: %w", err)
	}
	return sig.Serialize(), nil
}

// VerifyAttestation checks that attestation is attester's signature over the
// direct payment (ref, amount) for buyer in collection id.
func VerifyAttestation(attester identity.Identity, id collection.ID, buyer identity.Identity, ref payment.Ref, amount uint64, attestation []byte) error {
	if len(attestation) == 0 {
		return fmt.Errorf("%w: missing", ErrUnattestedPayment)
	}
	pub, err := attester.PublicKey()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnattestedPayment, err)
	}
	sig, err := ec.ParseDERSignature(attestation)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnattestedPayment, err)
	}
	if !sig.Verify(attestationDigest(id, buyer, ref, amount), pub) {
		return fmt.Errorf("%w: not signed by %s", ErrUnattestedPayment, attester)
	}
	return nil
}
