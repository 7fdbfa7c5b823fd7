package session

import (
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
)

// Manager keeps the in-memory session registry. One logical user per
// session; access is serialized with a mutex only because the sweep job
// runs beside request handling.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]Session
	timeout  time.Duration

	// OnExpire is called with the old submission id whenever a session
	// times out, so the owner can remove the scratch directory.
	OnExpire func(submissionID string)

	scheduler *gocron.Scheduler
}

// NewManager creates a session manager with the given inactivity window.
func NewManager(timeout time.Duration) *Manager {
	return &Manager{
		sessions: make(map[string]Session),
		timeout:  timeout,
	}
}

// Touch loads (or mints) the session for sessionID and advances it to
// now. A first contact gets a fresh session id and derived submission id.
// When the inactivity window has lapsed, the old submission's scratch
// state is released here too; the sweeper only covers sessions with no
// further requests.
func (m *Manager) Touch(sessionID string, now time.Time) Session {
	m.mu.Lock()
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	s, ok := m.sessions[sessionID]
	if !ok {
		s = Session{
			SessionID:    sessionID,
			SubmissionID: DeriveSubmissionID(now, sessionID),
		}
	}

	old := s.SubmissionID
	s, expired := Advance(s, now, m.timeout)
	m.sessions[sessionID] = s
	m.mu.Unlock()

	if expired {
		log.Printf("session %s timed out, recycled to %s", sessionID, s.SubmissionID)
		if m.OnExpire != nil {
			m.OnExpire(old)
		}
	}
	return s
}

// Update stores a mutated session value (new submission id or thread id).
func (m *Manager) Update(s Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.SessionID] = s
}

// ResetAll drops every working session. Part of the administrative
// full reset; the long-lived session ids are re-minted on next contact.
func (m *Manager) ResetAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = make(map[string]Session)
}

// StartSweeper runs a periodic job that expires idle sessions even when
// no request arrives, releasing their scratch directories.
func (m *Manager) StartSweeper() {
	m.scheduler = gocron.NewScheduler(time.UTC)
	m.scheduler.Every(1).Minute().Do(m.sweep)
	m.scheduler.StartAsync()
}

// StopSweeper halts the eviction job.
func (m *Manager) StopSweeper() {
	if m.scheduler != nil {
		m.scheduler.Stop()
	}
}

func (m *Manager) sweep() {
	now := time.Now()

	m.mu.Lock()
	var evicted []string
	for id, s := range m.sessions {
		next, expired := Advance(s, now, m.timeout)
		if !expired {
			continue
		}
		evicted = append(evicted, s.SubmissionID)
		m.sessions[id] = next
	}
	m.mu.Unlock()

	for _, submissionID := range evicted {
		log.Printf("sweeping expired session state for %s", submissionID)
		if m.OnExpire != nil {
			m.OnExpire(submissionID)
		}
	}
}
