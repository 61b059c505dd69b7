package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"talentpass/storage"
)

var (
	// ErrTxnClosed is returned when a transaction is used after Commit or
	// Discard.
	ErrTxnClosed = errors.New("state: transaction closed")
)

// Manager coordinates units of work over a key-value store. Every public
// settlement operation runs inside exactly one transaction: reads observe
// committed state plus the transaction's own buffered writes, and nothing is
// visible to other transactions until Commit. A single-writer lock serializes
// commits, which is what turns the engines' compare-and-transition checks into
// a race-free discipline.
type Manager struct {
	mu sync.Mutex
	db storage.Database
}

// NewManager creates a manager backed by the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

// Begin opens a transaction and takes the writer lock. The caller must finish
// with Commit or Discard.
func (m *Manager) Begin() *Txn {
	m.mu.Lock()
	return &Txn{m: m, writes: make(map[string][]byte)}
}

// View runs fn inside a transaction that is always discarded. Intended for
// read-only queries.
func (m *Manager) View(fn func(*Txn) error) error {
	txn := m.Begin()
	defer txn.Discard()
	return fn(txn)
}

// Update runs fn inside a transaction and commits when fn succeeds. Any error
// discards every buffered write, so the operation has no partial effect.
func (m *Manager) Update(fn func(*Txn) error) error {
	txn := m.Begin()
	if err := fn(txn); err != nil {
		txn.Discard()
		return err
	}
	return txn.Commit()
}

// Txn is a buffered unit of work. All entity and ledger mutations performed
// through a Txn commit together or not at all.
type Txn struct {
	m      *Manager
	writes map[string][]byte
	closed bool
}

// KVGet decodes the value stored under key into out and reports whether the
// key was present.
func (t *Txn) KVGet(key []byte, out interface{}) (bool, error) {
	raw, ok, err := t.rawGet(key)
	if err != nil || !ok {
		return false, err
	}
	if out == nil {
		return true, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("state: decode %q: %w", key, err)
	}
	return true, nil
}

// KVPut encodes value and buffers it under key.
func (t *Txn) KVPut(key []byte, value interface{}) error {
	if t.closed {
		return ErrTxnClosed
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("state: encode %q: %w", key, err)
	}
	t.writes[string(key)] = raw
	return nil
}

// KVHas reports whether key has a value, considering buffered writes.
func (t *Txn) KVHas(key []byte) (bool, error) {
	_, ok, err := t.rawGet(key)
	return ok, err
}

func (t *Txn) rawGet(key []byte) ([]byte, bool, error) {
	if t.closed {
		return nil, false, ErrTxnClosed
	}
	if raw, ok := t.writes[string(key)]; ok {
		return raw, true, nil
	}
	raw, err := t.m.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

// Commit writes every buffered mutation to the underlying store atomically
// and releases the writer lock.
func (t *Txn) Commit() error {
	if t.closed {
		return ErrTxnClosed
	}
	t.closed = true
	defer t.m.mu.Unlock()
	if len(t.writes) == 0 {
		return nil
	}
	keys := make([]string, 0, len(t.writes))
	for k := range t.writes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	entries := make([]storage.KV, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, storage.KV{Key: []byte(k), Value: t.writes[k]})
	}
	return t.m.db.WriteBatch(entries)
}

// Discard drops every buffered mutation and releases the writer lock. Safe to
// call after Commit.
func (t *Txn) Discard() {
	if t.closed {
		return
	}
	t.closed = true
	t.m.mu.Unlock()
}
