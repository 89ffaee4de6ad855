package messages

import (
	"sync"
)

// Store is the reconciled in-memory collection of pre-signed exit messages,
// keyed by validator index. Mutated only by the reconciliation cycle; read
// concurrently by the orchestrator and the monitoring endpoints under the
// read lock. At most one live message exists per validator index.
type Store struct {
	lock      sync.RWMutex
	messages  map[uint64]*StoredMessage
	checksums map[string]uint64
	touched   map[uint64]bool
	invalid   map[string]string
}

// NewStore returns an empty message store.
func NewStore() *Store {
	return &Store{
		messages:  make(map[uint64]*StoredMessage),
		checksums: make(map[string]uint64),
		touched:   make(map[uint64]bool),
		invalid:   make(map[string]string),
	}
}

// BeginCycle resets the per cycle bookkeeping. Store content is untouched.
func (s *Store) BeginCycle() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.touched = make(map[uint64]bool)
	s.invalid = make(map[string]string)
}

// PruneForkMismatch drops entries validated under a different fork version
// and forgets their checksums, so re-encountered files get re-validated
// under the new fork.
func (s *Store) PruneForkMismatch(current [4]byte) int {
	s.lock.Lock()
	defer s.lock.Unlock()
	var pruned int
	for index, m := range s.messages {
		if m.ForkVersion != current {
			delete(s.messages, index)
			delete(s.checksums, m.Checksum)
			pruned++
		}
	}
	return pruned
}

// TouchChecksum marks the entry loaded from content with this checksum as
// seen in the current cycle. Returns true when the checksum is already known
// and parsing can be skipped.
func (s *Store) TouchChecksum(checksum string) bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	index, ok := s.checksums[checksum]
	if !ok {
		return false
	}
	s.touched[index] = true
	return true
}

// Put inserts or replaces the message for its validator index and marks it
// touched. Reports whether the index is new to the store.
func (s *Store) Put(m *StoredMessage) bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	index := m.Message.ValidatorIndex
	_, exists := s.messages[index]
	if exists {
		delete(s.checksums, s.messages[index].Checksum)
	}
	s.messages[index] = m
	s.checksums[m.Checksum] = index
	s.touched[index] = true
	return !exists
}

// RemoveUntouched drops every entry not seen in the current cycle. Its source
// disappeared or changed incompatibly.
func (s *Store) RemoveUntouched() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	var removed int
	for index, m := range s.messages {
		if !s.touched[index] {
			delete(s.messages, index)
			delete(s.checksums, m.Checksum)
			removed++
		}
	}
	return removed
}

// RecordInvalid notes a source entry that could not be loaded, keyed by its
// source id for operator visibility.
func (s *Store) RecordInvalid(sourceID, reason string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.invalid[sourceID] = reason
}

// Get returns the live message for a validator index.
func (s *Store) Get(validatorIndex uint64) (*StoredMessage, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	m, ok := s.messages[validatorIndex]
	return m, ok
}

// Count returns the number of live messages.
func (s *Store) Count() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.messages)
}

// Invalid returns a copy of the source entries rejected in the last cycle.
func (s *Store) Invalid() map[string]string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	out := make(map[string]string, len(s.invalid))
	for k, v := range s.invalid {
		out[k] = v
	}
	return out
}
