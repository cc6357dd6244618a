package payment

import (
	"bytes"
	"fmt"
	"math/bits"

	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
)

// FromRawTx builds a Payment from a serialized BSV transaction. The amount is
// the sum of all P2PKH outputs paying treasuryAddr and the reference is the
// txid.
//
// Input signatures are not checked. Whoever accepts the payment must make sure
// the transaction is accepted by the network.
func FromRawTx(rawTx []byte, treasuryAddr string) (Payment, error) {
	if len(rawTx) == 0 {
		return Payment{}, fmt.Errorf("%w: empty raw transaction", ErrInvalidTx)
	}
	tx, err := transaction.NewTransactionFromBytes(rawTx)
	if err != nil {
		return Payment{}, fmt.Errorf("%w: %w", ErrInvalidTx, err)
	}

	addr, err := script.NewAddressFromString(treasuryAddr)
	if err != nil {
		return Payment{}, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	treasuryPKH := []byte(addr.PublicKeyHash)
	if len(treasuryPKH) == 0 {
		return Payment{}, fmt.Errorf("%w: empty public key hash", ErrInvalidAddress)
	}

	var total uint64
	matched := false
	for _, output := range tx.Outputs {
		if output.LockingScript == nil || !output.LockingScript.IsP2PKH() {
			continue
		}
		pkh, err := output.LockingScript.PublicKeyHash()
		if err != nil || !bytes.Equal(pkh, treasuryPKH) {
			continue
		}
		var carry uint64
		total, carry = bits.Add64(total, output.Satoshis, 0)
		if carry != 0 {
			return Payment{}, fmt.Errorf("%w: output total overflows", ErrInvalidTx)
		}
		matched = true
	}
	if !matched {
		return Payment{}, ErrNoMatchingOutput
	}

	var ref Ref
	copy(ref[:], tx.TxID()[:])
	return Payment{Ref: ref, Amount: total}, nil
}
