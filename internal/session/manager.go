package session

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
)

// ErrSessionNotFound is returned when no session has the requested ID.
var ErrSessionNotFound = errors.New("session not found")

// Manager keeps independent sessions, one per connected user. Sessions never
// share canvas or cursor state.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	defaults Config
}

// NewManager creates a Manager. defaults is used by CreateDefault.
func NewManager(defaults Config) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		defaults: defaults,
	}
}

// Defaults returns the configuration used by CreateDefault.
func (m *Manager) Defaults() Config {
	return m.defaults
}

// Create starts a new session with cfg and registers it.
func (m *Manager) Create(cfg Config) (*Session, error) {
	s, err := New(cfg)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()

	return s, nil
}

// CreateDefault starts a session from the manager defaults.
func (m *Manager) CreateDefault() (*Session, error) {
	return m.Create(m.defaults)
}

// Get returns the session with the given ID.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Delete closes and removes a session.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s.Close()
}

// List returns all sessions, oldest first.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	list := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		list = append(list, s)
	}
	m.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt().Equal(list[j].CreatedAt()) {
			return list[i].ID() < list[j].ID()
		}
		return list[i].CreatedAt().Before(list[j].CreatedAt())
	})
	return list
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CloseAll closes and removes every session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for id, s := range sessions {
		if err := s.Close(); err != nil {
			log.Printf("Error closing session %s: %v", id, err)
		}
	}
}
