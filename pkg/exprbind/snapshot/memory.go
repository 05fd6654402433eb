package snapshot

import (
	"sync"
	"time"
)

// MemoryStore keeps snapshots in memory. Data is lost when the process
// exits.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]stored // sessionID -> snapshots by sequence
	closed   bool
}

type stored struct {
	info Info
	data []byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]stored)}
}

// Append implements Store.
func (m *MemoryStore) Append(sessionID string, data []byte) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrStoreClosed
	}

	list := m.sessions[sessionID]
	seq := int64(1)
	if n := len(list); n > 0 {
		seq = list[n-1].info.Sequence + 1
	}

	// Copy data to avoid retaining caller's slice
	cp := append([]byte(nil), data...)
	m.sessions[sessionID] = append(list, stored{
		info: Info{
			SessionID: sessionID,
			Sequence:  seq,
			Timestamp: time.Now().UTC(),
			Size:      int64(len(cp)),
		},
		data: cp,
	})
	return seq, nil
}

// Load implements Store.
func (m *MemoryStore) Load(sessionID string, seq int64) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}
	for _, s := range m.sessions[sessionID] {
		if s.info.Sequence == seq {
			return append([]byte(nil), s.data...), nil
		}
	}
	return nil, ErrNotFound
}

// Latest implements Store.
func (m *MemoryStore) Latest(sessionID string) ([]byte, Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, Info{}, ErrStoreClosed
	}
	list := m.sessions[sessionID]
	if len(list) == 0 {
		return nil, Info{}, ErrNotFound
	}
	last := list[len(list)-1]
	return append([]byte(nil), last.data...), last.info, nil
}

// List implements Store.
func (m *MemoryStore) List(sessionID string) ([]Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}
	list := m.sessions[sessionID]
	infos := make([]Info, len(list))
	for i, s := range list {
		infos[i] = s.info
	}
	return infos, nil
}

// Prune implements Store.
func (m *MemoryStore) Prune(sessionID string, keep int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrStoreClosed
	}
	list := m.sessions[sessionID]
	if keep < 0 {
		keep = 0
	}
	if len(list) <= keep {
		return 0, nil
	}
	drop := len(list) - keep
	m.sessions[sessionID] = append([]stored(nil), list[drop:]...)
	return drop, nil
}

// DeleteSession implements Store.
func (m *MemoryStore) DeleteSession(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	delete(m.sessions, sessionID)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.sessions = nil
	return nil
}

// Len returns the total number of snapshots across all sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, list := range m.sessions {
		n += len(list)
	}
	return n
}
