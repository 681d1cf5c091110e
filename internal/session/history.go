package session

import "errors"

// MaxHistorySize bounds both the undo and redo stacks. Oldest snapshots are
// evicted first once the bound is hit.
const MaxHistorySize = 20

var (
	// ErrNoHistory means undo was called with nothing to undo. Expected and
	// non-exceptional; front ends just disable the button.
	ErrNoHistory = errors.New("no adjustment history")
	// ErrNoRedo means redo was called with an empty redo stack.
	ErrNoRedo = errors.New("nothing to redo")
)

// History keeps bounded undo/redo stacks of override snapshots. Snapshot
// must be called before a forward edit mutates the store, so the top of the
// undo stack is always the state before the pending edit.
type History struct {
	undo []State
	redo []State
}

// NewHistory returns an empty history.
func NewHistory() *History {
	return &History{}
}

func push(stack []State, state State) []State {
	stack = append(stack, state.Clone())
	if len(stack) > MaxHistorySize {
		stack = stack[1:]
	}
	return stack
}

// Snapshot records the current state onto the undo stack. Pushing a state
// structurally equal to the current top is a no-op, so jitter cannot pile up
// duplicate entries.
func (h *History) Snapshot(current State) {
	if len(h.undo) > 0 && h.undo[len(h.undo)-1].Equal(current) {
		return
	}
	h.undo = push(h.undo, current)
}

// InvalidateRedo clears the redo stack. Called for every fresh forward edit:
// redo history only survives undo/redo traffic, never new edits.
func (h *History) InvalidateRedo() {
	h.redo = nil
}

// Undo saves the current state for redo and returns the previous snapshot.
func (h *History) Undo(current State) (State, error) {
	if len(h.undo) == 0 {
		return nil, ErrNoHistory
	}
	h.redo = push(h.redo, current)
	prev := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	return prev, nil
}

// Redo is the mirror of Undo: the current state goes back onto the undo
// stack and the most recently undone snapshot is returned.
func (h *History) Redo(current State) (State, error) {
	if len(h.redo) == 0 {
		return nil, ErrNoRedo
	}
	h.undo = push(h.undo, current)
	next := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	return next, nil
}

// Reset clears both stacks.
func (h *History) Reset() {
	h.undo = nil
	h.redo = nil
}

// CanUndo reports whether an undo snapshot is available.
func (h *History) CanUndo() bool {
	return len(h.undo) > 0
}

// CanRedo reports whether a redo snapshot is available.
func (h *History) CanRedo() bool {
	return len(h.redo) > 0
}

// UndoDepth returns the number of retained undo snapshots.
func (h *History) UndoDepth() int {
	return len(h.undo)
}

// RedoDepth returns the number of retained redo snapshots.
func (h *History) RedoDepth() int {
	return len(h.redo)
}
