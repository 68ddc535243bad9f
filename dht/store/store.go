// Package store implements the bounded in-memory key/value mapping
// every node serves reads and writes from: a byte-accounted map with
// explicit capacity enforcement, grounded on the original's
// handle_put/handle_get/handle_delete/handle_wipe (original_source's
// dht/src/server/data/mod.rs), with the overwrite-accounting fix
// spec.md §9 requires (the original always adds the new value's full
// size to its usage counter on overwrite, never subtracting the old
// one first).
package store

import (
	"sync"

	"github.com/DFriend01/dht-go/dht/wire"
)

// DefaultMaxValueBytes is MAX_VALUE_BYTES from the wire contract.
const DefaultMaxValueBytes = 10 * 1024

// Store is a mutex-protected map[key]value with an explicit running
// byte total, used exclusively by the single node dispatch loop.
type Store struct {
	mu            sync.Mutex
	data          map[string][]byte
	used          uint64
	maxMemBytes   uint64
	maxValueBytes uint64
}

// New creates an empty store bounded by maxMemBytes.
func New(maxMemBytes uint64) *Store {
	return &Store{
		data:          make(map[string][]byte),
		maxMemBytes:   maxMemBytes,
		maxValueBytes: DefaultMaxValueBytes,
	}
}

// Put inserts or overwrites key -> value, enforcing both the
// per-value size cap and the node's total memory budget. On overwrite,
// used reflects the net delta between the old and new value sizes,
// not a blind addition of the new size.
func (s *Store) Put(key, value []byte) wire.Status {
	if key == nil {
		return wire.StatusMissingKey
	}
	if value == nil {
		return wire.StatusMissingValue
	}
	if uint64(len(value)) > s.maxValueBytes {
		return wire.StatusInvalidValueSize
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	newEntrySize := uint64(len(key)) + uint64(len(value))
	var oldEntrySize uint64
	if old, exists := s.data[string(key)]; exists {
		oldEntrySize = uint64(len(key)) + uint64(len(old))
	}

	projectedUsed := s.used - oldEntrySize + newEntrySize
	if projectedUsed > s.maxMemBytes {
		return wire.StatusOutOfMemory
	}

	s.data[string(key)] = append([]byte(nil), value...)
	s.used = projectedUsed
	return wire.StatusSuccess
}

// Get returns the value stored for key.
func (s *Store) Get(key []byte) ([]byte, wire.Status) {
	if key == nil {
		return nil, wire.StatusMissingKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.data[string(key)]
	if !ok {
		return nil, wire.StatusKeyNotFound
	}
	return append([]byte(nil), v...), wire.StatusSuccess
}

// Delete removes key, returning the value that was stored there.
func (s *Store) Delete(key []byte) ([]byte, wire.Status) {
	if key == nil {
		return nil, wire.StatusMissingKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.data[string(key)]
	if !ok {
		return nil, wire.StatusKeyNotFound
	}
	delete(s.data, string(key))
	s.used -= uint64(len(key)) + uint64(len(v))
	return v, wire.StatusSuccess
}

// Wipe clears every entry and resets the usage counter to zero.
func (s *Store) Wipe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string][]byte)
	s.used = 0
}

// Used returns the current byte total across all stored entries.
func (s *Store) Used() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.used
}

// MaxMemBytes returns the configured capacity.
func (s *Store) MaxMemBytes() uint64 {
	return s.maxMemBytes
}
