package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wricardo/shiproute/routing/planner"
	"github.com/wricardo/shiproute/routing/service"
)

var (
	ErrSearchNotFound = errors.New("search not found")
	ErrInvalidSearch  = errors.New("invalid search")
)

// Manager handles the lifecycle of step-driven searches
type Manager struct {
	sessions map[string]*service.Session
	mu       sync.RWMutex
}

// NewManager creates a new search manager
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*service.Session),
	}
}

// Create registers a search under a new random ID. cancel, when set, is
// called once the search is removed.
func (m *Manager) Create(scenarioID string, search *planner.Search, cancel context.CancelFunc) (*service.Session, error) {
	if search == nil {
		return nil, ErrInvalidSearch
	}

	now := time.Now()
	session := &service.Session{
		ID:             uuid.NewString(),
		ScenarioID:     scenarioID,
		Search:         search,
		CreatedAt:      now,
		LastAccessedAt: now,
		Cancel:         cancel,
	}

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()

	return session, nil
}

// Get retrieves a search by ID (case-insensitive)
func (m *Manager) Get(id string) (*service.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		return nil, ErrSearchNotFound
	}
	return session, nil
}

// List returns all active searches
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

// Delete removes a search and cancels it
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(id)
	session, exists := m.sessions[key]
	if !exists {
		return ErrSearchNotFound
	}
	delete(m.sessions, key)
	stop(session)
	return nil
}

// UpdateLastAccessed updates the last accessed time for a search
func (m *Manager) UpdateLastAccessed(id string) error {
	session, err := m.Get(id)
	if err != nil {
		return err
	}

	session.Lock()
	session.LastAccessedAt = time.Now()
	session.Unlock()
	return nil
}

// CleanupExpiredSessions removes and cancels searches that haven't been
// accessed in the given duration
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for id, session := range m.sessions {
		session.Lock()
		expired := session.LastAccessedAt.Before(cutoff)
		session.Unlock()

		if expired {
			delete(m.sessions, id)
			stop(session)
			removed++
		}
	}

	return removed
}

// Count returns the number of active searches
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func stop(session *service.Session) {
	if session.Cancel != nil {
		session.Cancel()
	}
}
