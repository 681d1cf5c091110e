// Package session holds the mutable state of one editing session: the manual
// coordinate overrides layered over a detection result, the bounded undo/redo
// history, and the change-detection rules that decide when an incoming edit
// actually counts.
package session

import (
	"fmt"

	"github.com/kozaktomas/landmark-studio/internal/landmark"
)

// State is a snapshot of the manual overrides: at most one model-space
// coordinate per group.
type State map[landmark.Group]landmark.Point

// Clone returns a deep copy; snapshots in history must never alias live state.
func (s State) Clone() State {
	c := make(State, len(s))
	for g, p := range s {
		c[g] = p
	}
	return c
}

// Equal reports structural equality of two override states.
func (s State) Equal(other State) bool {
	if len(s) != len(other) {
		return false
	}
	for g, p := range s {
		if op, ok := other[g]; !ok || op != p {
			return false
		}
	}
	return true
}

// Store holds the current manual overrides. It never touches I/O or
// rendering; callers decide when to refresh presentation.
type Store struct {
	reg       *landmark.Registry
	overrides State
}

// NewStore creates an empty override store bound to a group registry.
func NewStore(reg *landmark.Registry) *Store {
	return &Store{reg: reg, overrides: make(State)}
}

// Apply inserts or overwrites the override for one group. Applying to a
// group outside the configured registry is a caller error.
func (s *Store) Apply(g landmark.Group, p landmark.Point) error {
	if _, ok := s.reg.Lookup(g); !ok {
		return fmt.Errorf("apply override for %q: %w", g, landmark.ErrUnknownGroup)
	}
	s.overrides[g] = p
	return nil
}

// Get returns the override for a group, if present.
func (s *Store) Get(g landmark.Group) (landmark.Point, bool) {
	p, ok := s.overrides[g]
	return p, ok
}

// Clear drops every override.
func (s *Store) Clear() {
	s.overrides = make(State)
}

// Len returns the number of active overrides.
func (s *Store) Len() int {
	return len(s.overrides)
}

// Snapshot returns a deep copy of the current override state.
func (s *Store) Snapshot() State {
	return s.overrides.Clone()
}

// Restore replaces the current overrides with a copy of the given state.
func (s *Store) Restore(state State) {
	s.overrides = state.Clone()
}

// Merge returns a copy of base with every overridden group replaced by its
// override. Overrides for groups missing from base are still included, so
// the override always wins.
func (s *Store) Merge(base map[landmark.Group]landmark.Point) map[landmark.Group]landmark.Point {
	merged := make(map[landmark.Group]landmark.Point, len(base)+len(s.overrides))
	for g, p := range base {
		merged[g] = p
	}
	for g, p := range s.overrides {
		merged[g] = p
	}
	return merged
}
