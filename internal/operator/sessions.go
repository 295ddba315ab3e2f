package operator

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/joelkehle/infringement-console/internal/console"
)

var activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "infringement_console_active_sessions",
	Help: "Console sessions currently held in memory",
})

// Session is one browser's analysis page. Its saved-pair set lives and dies
// with it; nothing is persisted.
type Session struct {
	Token     string
	CreatedAt time.Time
	View      *console.AnalysisView

	lastSeen time.Time
}

type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	newView  func() *console.AnalysisView
	idle     time.Duration
	clock    func() time.Time
}

func NewSessionStore(newView func() *console.AnalysisView, idle time.Duration, clock func() time.Time) *SessionStore {
	if clock == nil {
		clock = time.Now
	}
	return &SessionStore{
		sessions: make(map[string]*Session),
		newView:  newView,
		idle:     idle,
		clock:    clock,
	}
}

func generateToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func (s *SessionStore) Create() *Session {
	now := s.clock()
	sess := &Session{
		Token:     generateToken(),
		CreatedAt: now,
		View:      s.newView(),
		lastSeen:  now,
	}
	s.mu.Lock()
	s.sessions[sess.Token] = sess
	s.mu.Unlock()
	activeSessions.Inc()
	return sess
}

// Get returns the session for token and marks it as used.
func (s *SessionStore) Get(token string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessions[token]
	if sess != nil {
		sess.lastSeen = s.clock()
	}
	return sess
}

func (s *SessionStore) touch(sess *Session) {
	s.mu.Lock()
	sess.lastSeen = s.clock()
	s.mu.Unlock()
}

// Close ends a session, invalidating its in-flight work.
func (s *SessionStore) Close(token string) bool {
	s.mu.Lock()
	sess, ok := s.sessions[token]
	delete(s.sessions, token)
	s.mu.Unlock()
	if !ok {
		return false
	}
	sess.View.Close()
	activeSessions.Dec()
	return true
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep closes sessions idle for longer than the store's timeout. A session
// with an analysis or save still running is never idle.
func (s *SessionStore) Sweep() int {
	cutoff := s.clock().Add(-s.idle)
	var expired []*Session
	s.mu.Lock()
	for token, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) && !sess.View.Busy() {
			expired = append(expired, sess)
			delete(s.sessions, token)
		}
	}
	s.mu.Unlock()
	for _, sess := range expired {
		sess.View.Close()
		activeSessions.Dec()
	}
	return len(expired)
}

// CloseAll ends every session. Used on shutdown.
func (s *SessionStore) CloseAll() {
	s.mu.Lock()
	all := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()
	for _, sess := range all {
		sess.View.Close()
		activeSessions.Dec()
	}
}

func (s *SessionStore) SweepLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				log.Printf("expired idle sessions count=%d", n)
			}
		}
	}
}
