package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/kozaktomas/landmark-studio/internal/landmark"
	"github.com/kozaktomas/landmark-studio/internal/session"
)

// sessionTTL is how long an idle editing session is kept before eviction.
const sessionTTL = 2 * time.Hour

// sessionEntry pairs an editing session with its last access time and the
// lock that serializes engine calls. The session itself is single-threaded
// by contract; concurrent requests for the same ID must queue here.
type sessionEntry struct {
	sess     *session.EditSession
	mu       sync.Mutex
	lastSeen time.Time
}

// SessionRegistry keeps active editing sessions in memory, keyed by session ID.
// Idle sessions are evicted by a background janitor.
type SessionRegistry struct {
	mu        sync.Mutex
	reg       *landmark.Registry
	threshold float64
	sessions  map[string]*sessionEntry
	stop      chan struct{}
	stopOnce  sync.Once
}

// NewSessionRegistry creates a session registry and starts its cleanup
// goroutine. New sessions start with the given movement threshold.
func NewSessionRegistry(reg *landmark.Registry, movementThreshold float64) *SessionRegistry {
	r := &SessionRegistry{
		reg:       reg,
		threshold: movementThreshold,
		sessions:  make(map[string]*sessionEntry),
		stop:      make(chan struct{}),
	}
	go r.janitor()
	return r
}

// Create starts a new editing session and returns it.
func (r *SessionRegistry) Create() *session.EditSession {
	sess := session.New(r.reg)
	sess.SetMovementThreshold(r.threshold)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sess.ID] = &sessionEntry{sess: sess, lastSeen: time.Now()}
	return sess
}

// Get returns the session with the given ID, refreshing its idle timer.
// The session is not locked; use Acquire before calling anything on it.
func (r *SessionRegistry) Get(id string) (*session.EditSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	entry.lastSeen = time.Now()
	return entry.sess, true
}

// Acquire returns the session locked for exclusive use, together with the
// release function the caller must invoke when done with it.
func (r *SessionRegistry) Acquire(id string) (*session.EditSession, func(), bool) {
	r.mu.Lock()
	entry, ok := r.sessions[id]
	if !ok {
		r.mu.Unlock()
		return nil, nil, false
	}
	entry.lastSeen = time.Now()
	r.mu.Unlock()

	entry.mu.Lock()
	return entry.sess, entry.mu.Unlock, true
}

// Delete removes a session from the registry.
func (r *SessionRegistry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	return true
}

// Len returns the number of active sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Stop terminates the cleanup goroutine.
func (r *SessionRegistry) Stop() {
	r.stopOnce.Do(func() {
		close(r.stop)
	})
}

func (r *SessionRegistry) janitor() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.evictIdle(time.Now())
		}
	}
}

func (r *SessionRegistry) evictIdle(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, entry := range r.sessions {
		if now.Sub(entry.lastSeen) > sessionTTL {
			delete(r.sessions, id)
		}
	}
}

// sessionID extracts the session ID from the X-Session-ID header,
// falling back to the session_id query parameter.
func sessionID(r *http.Request) string {
	if id := r.Header.Get("X-Session-ID"); id != "" {
		return id
	}
	return r.URL.Query().Get("session_id")
}

// requireSession resolves and locks the request's editing session, or writes
// a JSON error. On success the caller must defer the returned release.
func requireSession(w http.ResponseWriter, r *http.Request, registry *SessionRegistry) (*session.EditSession, func()) {
	id := sessionID(r)
	if id == "" {
		respondError(w, http.StatusBadRequest, "session ID is required")
		return nil, nil
	}
	sess, release, ok := registry.Acquire(id)
	if !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return nil, nil
	}
	return sess, release
}
