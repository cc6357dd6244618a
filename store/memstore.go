package store

import (
	"fmt"
	"sort"
	"sync"
)

// MemStore is an in-memory Store. Writers are serialised; the writes of an
// Update are staged and applied only when its closure returns nil.
type MemStore struct {
	mu      sync.RWMutex
	buckets map[string]map[string][]byte
	closed  bool
}

// Compile-time interface check.
var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	s := &MemStore{buckets: make(map[string]map[string][]byte)}
	for _, name := range allBuckets {
		s.buckets[string(name)] = make(map[string][]byte)
	}
	return s
}

// View runs fn against the committed state.
func (s *MemStore) View(fn func(Tx) error) error {
	if fn == nil {
		return fmt.Errorf("%w: transaction func", ErrNilParam)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return fn(txn{kv: &memKV{base: s.buckets}})
}

// Update runs fn with staged writes and commits them if fn returns nil.
func (s *MemStore) Update(fn func(Tx) error) error {
	if fn == nil {
		return fmt.Errorf("%w: transaction func", ErrNilParam)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	m := &memKV{base: s.buckets, staged: make(map[string]map[string][]byte)}
	if err := fn(txn{kv: m}); err != nil {
		return err
	}
	for bucket, writes := range m.staged {
		for k, v := range writes {
			s.buckets[bucket][k] = v
		}
	}
	return nil
}

// Close marks the store closed. Later transactions fail with ErrClosed.
func (s *MemStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// memKV reads staged writes first, then the committed buckets. A nil staged
// map marks a read-only transaction.
type memKV struct {
	base   map[string]map[string][]byte
	staged map[string]map[string][]byte
}

func (m *memKV) get(bucket, key []byte) []byte {
	if v, ok := m.staged[string(bucket)][string(key)]; ok {
		return clone(v)
	}
	if v, ok := m.base[string(bucket)][string(key)]; ok {
		return clone(v)
	}
	return nil
}

func (m *memKV) put(bucket, key, value []byte) error {
	if m.staged == nil {
		return ErrReadOnly
	}
	b, ok := m.staged[string(bucket)]
	if !ok {
		b = make(map[string][]byte)
		m.staged[string(bucket)] = b
	}
	b[string(key)] = clone(value)
	return nil
}

func (m *memKV) scan(bucket, prefix []byte, fn func(k, v []byte) error) error {
	seen := make(map[string]struct{})
	var keys []string
	for _, src := range []map[string][]byte{m.staged[string(bucket)], m.base[string(bucket)]} {
		for k := range src {
			if _, dup := seen[k]; dup || !hasPrefix([]byte(k), prefix) {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := fn([]byte(k), m.get(bucket, []byte(k))); err != nil {
			return err
		}
	}
	return nil
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
