package session

import (
	"sort"
	"sync"

	"wealth-planner/internal/config"
)

// Manager is the registry of live sessions. It is safe for concurrent use.
type Manager struct {
	opts Options

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(opts Options) *Manager {
	return &Manager{opts: opts, sessions: make(map[string]*Session)}
}

// Options returns the options new sessions are created with.
func (m *Manager) Options() Options { return m.opts }

// Create builds and registers a session for plan.
func (m *Manager) Create(plan config.PlanConfig) (*Session, error) {
	return m.CreateWithOptions(plan, m.opts)
}

// CreateWithOptions is Create with per-session options.
func (m *Manager) CreateWithOptions(plan config.PlanConfig, opts Options) (*Session, error) {
	s, err := New(plan, opts)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s, nil
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Delete closes and unregisters the session. It reports whether it existed.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.Close()
	}
	return ok
}

// IDs lists live sessions, oldest first.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	list := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		list = append(list, s)
	}
	m.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	ids := make([]string, len(list))
	for i, s := range list {
		ids[i] = s.ID
	}
	return ids
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close closes every session.
func (m *Manager) Close() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range all {
		s.Close()
	}
}
