// Package store persists collections, mint records, tokens and the payment
// ledger. Every read and write happens inside a transaction; an Update either
// commits all of its writes or none of them.
package store

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/bitfsorg/nftstages-go/collection"
	"github.com/bitfsorg/nftstages-go/identity"
	"github.com/bitfsorg/nftstages-go/payment"
)

var (
	bucketCollections = []byte("collections")
	bucketRecords     = []byte("mint_records")
	bucketTokens      = []byte("tokens")
	bucketPayments    = []byte("payments")
)

var allBuckets = [][]byte{bucketCollections, bucketRecords, bucketTokens, bucketPayments}

// Store runs transactions over persisted collection state.
type Store interface {
	// View runs fn in a read-only transaction.
	View(fn func(Tx) error) error

	// Update runs fn in a read-write transaction. If fn returns an error no
	// write made through the Tx is kept.
	Update(fn func(Tx) error) error

	// Close releases the store.
	Close() error
}

// Tx is the typed view of one transaction.
type Tx interface {
	Collection(id collection.ID) (*collection.State, error)
	PutCollection(s *collection.State) error

	// MintRecord returns ErrNotFound if the identity never minted in the stage.
	MintRecord(id collection.ID, stageIndex uint32, who identity.Identity) (*collection.MintRecord, error)
	PutMintRecord(r *collection.MintRecord) error

	Token(id collection.ID, tokenID uint64) (*collection.Token, error)
	PutToken(t *collection.Token) error
	// Tokens returns the collection's tokens in token ID order.
	Tokens(id collection.ID) ([]*collection.Token, error)

	Payment(ref payment.Ref) (*payment.Entry, error)
	PutPayment(e *payment.Entry) error
}

// kv is the raw bucket access a backend provides.
type kv interface {
	get(bucket, key []byte) []byte
	put(bucket, key, value []byte) error
	scan(bucket, prefix []byte, fn func(k, v []byte) error) error
}

// txn implements Tx over any kv backend.
type txn struct {
	kv kv
}

var _ Tx = txn{}

func (t txn) Collection(id collection.ID) (*collection.State, error) {
	data := t.kv.get(bucketCollections, id[:])
	if data == nil {
		return nil, fmt.Errorf("%w: collection %s", ErrNotFound, id)
	}
	return collection.DeserializeState(data)
}

func (t txn) PutCollection(s *collection.State) error {
	if s == nil {
		return fmt.Errorf("%w: collection state", ErrNilParam)
	}
	data, err := collection.SerializeState(s)
	if err != nil {
		return err
	}
	return t.kv.put(bucketCollections, s.ID[:], data)
}

func (t txn) MintRecord(id collection.ID, stageIndex uint32, who identity.Identity) (*collection.MintRecord, error) {
	data := t.kv.get(bucketRecords, collection.RecordKey(id, stageIndex, who))
	if data == nil {
		return nil, fmt.Errorf("%w: mint record", ErrNotFound)
	}
	return collection.DeserializeMintRecord(data)
}

func (t txn) PutMintRecord(r *collection.MintRecord) error {
	if r == nil {
		return fmt.Errorf("%w: mint record", ErrNilParam)
	}
	key := collection.RecordKey(r.CollectionID, r.StageIndex, r.Identity)
	return t.kv.put(bucketRecords, key, collection.SerializeMintRecord(r))
}

func (t txn) Token(id collection.ID, tokenID uint64) (*collection.Token, error) {
	data := t.kv.get(bucketTokens, collection.TokenKey(id, tokenID))
	if data == nil {
		return nil, fmt.Errorf("%w: token %d", ErrNotFound, tokenID)
	}
	return collection.DeserializeToken(data)
}

func (t txn) PutToken(tok *collection.Token) error {
	if tok == nil {
		return fmt.Errorf("%w: token", ErrNilParam)
	}
	data, err := collection.SerializeToken(tok)
	if err != nil {
		return err
	}
	return t.kv.put(bucketTokens, collection.TokenKey(tok.CollectionID, tok.TokenID), data)
}

func (t txn) Tokens(id collection.ID) ([]*collection.Token, error) {
	var out []*collection.Token
	err := t.kv.scan(bucketTokens, id[:], func(_, v []byte) error {
		tok, err := collection.DeserializeToken(v)
		if err != nil {
			return err
		}
		out = append(out, tok)
		return nil
	})
	return out, err
}

func (t txn) Payment(ref payment.Ref) (*payment.Entry, error) {
	data := t.kv.get(bucketPayments, ref[:])
	if data == nil {
		return nil, fmt.Errorf("%w: payment %s", ErrNotFound, ref)
	}
	return payment.DeserializeEntry(data)
}

func (t txn) PutPayment(e *payment.Entry) error {
	if e == nil {
		return fmt.Errorf("%w: payment entry", ErrNilParam)
	}
	return t.kv.put(bucketPayments, e.Ref[:], payment.SerializeEntry(e))
}

// IsNotFound reports whether err is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func hasPrefix(k, prefix []byte) bool {
	return bytes.HasPrefix(k, prefix)
}
