package identity

import (
	"net/http"
	"sync"
)

// CookieStore persists name/value cookies for the client.
type CookieStore interface {
	Get(name string) (string, bool)
	Set(cookie *http.Cookie) error
}

// MemoryStore keeps cookies for the lifetime of the process.
type MemoryStore struct {
	mu      sync.RWMutex
	cookies map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cookies: make(map[string]string)}
}

// Get returns the value stored under name.
func (m *MemoryStore) Get(name string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.cookies[name]
	return value, ok
}

// Set stores the cookie value, replacing any previous one.
func (m *MemoryStore) Set(cookie *http.Cookie) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cookies[cookie.Name] = cookie.Value
	return nil
}
