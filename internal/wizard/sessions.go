package wizard

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/harborpt/booking-platform/pkg/logging"
)

// Session pairs a wizard with its id and device token. Callers must hold
// the mutex while driving the wizard; each session is effectively
// single-threaded, matching the event-driven model of the original client.
type Session struct {
	ID          string
	DeviceToken string

	Mu     sync.Mutex
	Wizard *Wizard

	touched time.Time
}

// Manager owns the live wizard sessions. Sessions idle longer than the TTL
// are dropped, which is how navigating away discards a draft.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	logger   *logging.Logger
	now      func() time.Time
}

// NewManager creates a session manager. ttl <= 0 defaults to 30 minutes.
func NewManager(ttl time.Duration, logger *logging.Logger) *Manager {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
}

// Create registers a new session for the given wizard.
func (m *Manager) Create(w *Wizard, deviceToken string) *Session {
	s := &Session{
		ID:          uuid.NewString(),
		DeviceToken: deviceToken,
		Wizard:      w,
		touched:     m.now(),
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// Get returns a live session and refreshes its idle timer.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	m.mu.Lock()
	s.touched = m.now()
	m.mu.Unlock()
	return s, true
}

// Delete drops a session immediately.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep removes idle sessions and returns how many were dropped.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.ttl)
	m.mu.Lock()
	defer m.mu.Unlock()

	dropped := 0
	for id, s := range m.sessions {
		if s.touched.Before(cutoff) {
			delete(m.sessions, id)
			dropped++
		}
	}
	if dropped > 0 {
		m.logger.Debug("swept idle wizard sessions", "dropped", dropped, "live", len(m.sessions))
	}
	return dropped
}

// Run sweeps periodically until the context is cancelled.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
