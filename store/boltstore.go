package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

// BoltStore is a Store backed by a bbolt database. bbolt serialises writers
// and rolls back a transaction whose closure returns an error.
type BoltStore struct {
	db *bbolt.DB
}

// Compile-time interface check.
var _ Store = (*BoltStore)(nil)

// OpenBoltStore opens or creates the bbolt database at dbPath.
// The parent directory is created if it does not exist.
func OpenBoltStore(dbPath string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("store: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("store: create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

// Path returns the database file path.
func (s *BoltStore) Path() string { return s.db.Path() }

// Close closes the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

// View runs fn in a read-only bbolt transaction.
func (s *BoltStore) View(fn func(Tx) error) error {
	if fn == nil {
		return fmt.Errorf("%w: transaction func", ErrNilParam)
	}
	return s.db.View(func(tx *bbolt.Tx) error {
		return fn(txn{kv: boltKV{tx: tx}})
	})
}

// Update runs fn in a read-write bbolt transaction.
func (s *BoltStore) Update(fn func(Tx) error) error {
	if fn == nil {
		return fmt.Errorf("%w: transaction func", ErrNilParam)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return fn(txn{kv: boltKV{tx: tx}})
	})
}

type boltKV struct {
	tx *bbolt.Tx
}

// get copies the value out, since bbolt memory is only valid during the tx.
func (b boltKV) get(bucket, key []byte) []byte {
	v := b.tx.Bucket(bucket).Get(key)
	if v == nil {
		return nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out
}

func (b boltKV) put(bucket, key, value []byte) error {
	if !b.tx.Writable() {
		return ErrReadOnly
	}
	if err := b.tx.Bucket(bucket).Put(key, value); err != nil {
		return fmt.Errorf("store: put %s: %w", bucket, err)
	}
	return nil
}

func (b boltKV) scan(bucket, prefix []byte, fn func(k, v []byte) error) error {
	c := b.tx.Bucket(bucket).Cursor()
	for k, v := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = c.Next() {
		if err := fn(k, v); err != nil {
			return err
		}
	}
	return nil
}
