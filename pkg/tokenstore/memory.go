package tokenstore

import (
	"sync"
	"time"
)

// Memory is an in-process Store used by tests and the local dev stack.
type Memory struct {
	mu      sync.Mutex
	token   string
	expires time.Time
	now     func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{now: time.Now}
}

// Set replaces the current token.
func (m *Memory) Set(token string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.expires = m.now().Add(ttl)
	return nil
}

// Get returns the current token unless it expired.
func (m *Memory) Get() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" || m.now().After(m.expires) {
		return "", false
	}
	return m.token, true
}

// Remove deletes the token.
func (m *Memory) Remove() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.expires = time.Time{}
	return nil
}
