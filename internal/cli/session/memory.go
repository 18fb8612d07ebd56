// Package session holds the console's authentication state.
package session

import "sync"

// MemoryStore keeps the session in process memory.
//
// Values are kept per key, the way browser storage holds them, so a
// partially written triple is representable and reads as absent.
type MemoryStore struct {
	mu     sync.RWMutex
	fields map[string]string
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{fields: make(map[string]string, 3)}
}

// Establish implements Store.
func (m *MemoryStore) Establish(s Session) error {
	if !s.Complete() {
		return ErrIncomplete
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.fields[KeyToken] = s.Token
	m.fields[KeyUserID] = s.UserID
	m.fields[KeyUserEmail] = s.UserEmail
	return nil
}

// Clear implements Store.
func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.fields, KeyToken)
	delete(m.fields, KeyUserID)
	delete(m.fields, KeyUserEmail)
	return nil
}

// Read implements Store.
func (m *MemoryStore) Read() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return fromFields(m.fields)
}
