package handlers

import (
	"testing"
	"time"

	"github.com/kozaktomas/landmark-studio/internal/landmark"
	"github.com/kozaktomas/landmark-studio/internal/session"
)

func TestSessionRegistry_CreateGetDelete(t *testing.T) {
	sessions := testSessions(t)

	sess := sessions.Create()
	if sess.ID == "" {
		t.Fatal("expected a session ID")
	}

	got, ok := sessions.Get(sess.ID)
	if !ok {
		t.Fatal("expected to find the session")
	}
	if got != sess {
		t.Error("expected the same session instance")
	}

	if _, ok := sessions.Get("nope"); ok {
		t.Error("expected miss for unknown ID")
	}

	if !sessions.Delete(sess.ID) {
		t.Error("expected delete to succeed")
	}
	if sessions.Delete(sess.ID) {
		t.Error("expected second delete to fail")
	}
	if sessions.Len() != 0 {
		t.Errorf("expected empty registry, got %d sessions", sessions.Len())
	}
}

func TestSessionRegistry_CreateAppliesConfiguredThreshold(t *testing.T) {
	reg, err := landmark.NewRegistry(landmark.DefaultDefinitions())
	if err != nil {
		t.Fatalf("failed to build registry: %v", err)
	}

	sessions := NewSessionRegistry(reg, 12.5)
	t.Cleanup(sessions.Stop)
	if got := sessions.Create().MovementThreshold(); got != 12.5 {
		t.Errorf("expected configured threshold 12.5, got %v", got)
	}

	// Out-of-range configuration is clamped the same way the API is.
	clamped := NewSessionRegistry(reg, 50)
	t.Cleanup(clamped.Stop)
	if got := clamped.Create().MovementThreshold(); got != session.MaxMovementThreshold {
		t.Errorf("expected threshold clamped to %v, got %v", session.MaxMovementThreshold, got)
	}
}

func TestSessionRegistry_AcquireSerializes(t *testing.T) {
	sessions := testSessions(t)
	sess := sessions.Create()

	_, release, ok := sessions.Acquire(sess.ID)
	if !ok {
		t.Fatal("expected to acquire the session")
	}

	acquired := make(chan struct{})
	go func() {
		_, secondRelease, ok := sessions.Acquire(sess.ID)
		if ok {
			secondRelease()
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire must block until the first release")
	case <-time.After(50 * time.Millisecond):
	}

	release()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second acquire never completed after release")
	}

	if _, _, ok := sessions.Acquire("missing"); ok {
		t.Error("expected acquire to miss for unknown ID")
	}
}

func TestSessionRegistry_EvictIdle(t *testing.T) {
	sessions := testSessions(t)

	stale := sessions.Create()
	fresh := sessions.Create()

	// Age the stale session past the TTL, then run one janitor sweep.
	sessions.mu.Lock()
	sessions.sessions[stale.ID].lastSeen = time.Now().Add(-3 * time.Hour)
	sessions.mu.Unlock()

	sessions.evictIdle(time.Now())

	if _, ok := sessions.Get(stale.ID); ok {
		t.Error("expected idle session to be evicted")
	}
	if _, ok := sessions.Get(fresh.ID); !ok {
		t.Error("expected fresh session to survive")
	}
}
