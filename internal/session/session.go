package session

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/kozaktomas/landmark-studio/internal/landmark"
)

// Movement threshold limits, in display pixels. Drags below the threshold
// are jitter and never reach the store or the history.
const (
	DefaultMovementThreshold = 5.0
	MinMovementThreshold     = 1.0
	MaxMovementThreshold     = 20.0
)

// applyDedupTolerance is the model-space distance under which a new override
// is considered identical to the existing one and dropped.
const applyDedupTolerance = 0.5

// ErrNoDetection is returned when an edit arrives before any image has been
// loaded into the session.
var ErrNoDetection = errors.New("no detection loaded")

// ErrGroupUnresolved is returned when an operation needs an effective
// position for a group whose raw indices never resolved in this detection.
var ErrGroupUnresolved = errors.New("group has no resolved position")

// EditSession owns the full editing state for one loaded image: the fixed
// detection result, the override store and the undo/redo history. It is the
// explicit replacement for ambient framework session state; the owning front
// end passes it into every call and serializes access on its event loop.
type EditSession struct {
	ID        string
	reg       *landmark.Registry
	threshold float64

	imageHash   string
	shape       landmark.ImageShape
	raw         landmark.RawLandmarkSet
	base        map[landmark.Group]landmark.Point
	displaySize landmark.Size

	store   *Store
	history *History
}

// New creates an empty session with the default movement threshold.
func New(reg *landmark.Registry) *EditSession {
	return &EditSession{
		ID:        uuid.NewString(),
		reg:       reg,
		threshold: DefaultMovementThreshold,
		store:     NewStore(reg),
		history:   NewHistory(),
	}
}

// SetMovementThreshold updates the drag-commit threshold, clamped to the
// supported range.
func (s *EditSession) SetMovementThreshold(px float64) {
	s.threshold = math.Max(MinMovementThreshold, math.Min(MaxMovementThreshold, px))
}

// MovementThreshold returns the active drag-commit threshold.
func (s *EditSession) MovementThreshold() float64 {
	return s.threshold
}

// SetImage installs a new detection result. When the content hash differs
// from the current image, overrides and history are cleared together before
// the new detection becomes visible, so a reader never observes half-reset
// state. Returns true when the image changed.
func (s *EditSession) SetImage(hash string, shape landmark.ImageShape, raw landmark.RawLandmarkSet) (bool, error) {
	displaySize, err := landmark.FitDisplay(shape)
	if err != nil {
		return false, fmt.Errorf("sizing display for image: %w", err)
	}

	changed := s.imageHash != "" && s.imageHash != hash
	if changed {
		s.store.Clear()
		s.history.Reset()
	}

	s.imageHash = hash
	s.shape = shape
	s.raw = raw
	s.base = landmark.AggregateAll(raw, s.reg, shape)
	s.displaySize = displaySize
	return changed, nil
}

// ImageHash returns the content hash of the loaded image, if any.
func (s *EditSession) ImageHash() string {
	return s.imageHash
}

// Shape returns the loaded image dimensions.
func (s *EditSession) Shape() landmark.ImageShape {
	return s.shape
}

// Raw returns the immutable detection result.
func (s *EditSession) Raw() landmark.RawLandmarkSet {
	return s.raw
}

// DisplaySize returns the aspect-fitted display surface for the image.
func (s *EditSession) DisplaySize() landmark.Size {
	return s.displaySize
}

// Registry returns the group registry the session was built with.
func (s *EditSession) Registry() *landmark.Registry {
	return s.reg
}

// Effective returns the final coordinates: detector-derived base positions
// with manual overrides merged on top.
func (s *EditSession) Effective() map[landmark.Group]landmark.Point {
	return s.store.Merge(s.base)
}

// Base returns the unedited detector-derived positions.
func (s *EditSession) Base() map[landmark.Group]landmark.Point {
	base := make(map[landmark.Group]landmark.Point, len(s.base))
	for g, p := range s.base {
		base[g] = p
	}
	return base
}

// Overridden reports which groups currently carry a manual override.
func (s *EditSession) Overridden() map[landmark.Group]bool {
	adjusted := make(map[landmark.Group]bool, s.store.Len())
	for _, g := range landmark.KnownGroups() {
		if _, ok := s.store.Get(g); ok {
			adjusted[g] = true
		}
	}
	return adjusted
}

// ApplyDisplayEdit commits a drag in display space. The delta against the
// group's current effective display position is gated by the movement
// threshold; a committed edit is converted to model space, deduplicated
// against the existing override at half-pixel tolerance, snapshotted and
// applied. Returns whether state actually changed so the caller can decide
// about refreshing the presentation.
func (s *EditSession) ApplyDisplayEdit(g landmark.Group, displayPoint landmark.Point) (bool, error) {
	if s.imageHash == "" {
		return false, ErrNoDetection
	}
	if _, ok := s.reg.Lookup(g); !ok {
		return false, fmt.Errorf("display edit for %q: %w", g, landmark.ErrUnknownGroup)
	}

	modelSize := landmark.SizeOf(s.shape)

	current, ok := s.Effective()[g]
	if ok {
		currentDisplay, err := landmark.ToDisplay(current, modelSize, s.displaySize)
		if err != nil {
			return false, fmt.Errorf("projecting current position: %w", err)
		}
		moved := math.Hypot(displayPoint.X-currentDisplay.X, displayPoint.Y-currentDisplay.Y)
		if moved < s.threshold {
			return false, nil
		}
	}

	modelPoint, err := landmark.ToModel(displayPoint, modelSize, s.displaySize)
	if err != nil {
		return false, fmt.Errorf("converting edit to model space: %w", err)
	}

	if existing, ok := s.store.Get(g); ok {
		if math.Abs(existing.X-modelPoint.X) <= applyDedupTolerance &&
			math.Abs(existing.Y-modelPoint.Y) <= applyDedupTolerance {
			return false, nil
		}
	}

	s.history.Snapshot(s.store.Snapshot())
	s.history.InvalidateRedo()
	if err := s.store.Apply(g, modelPoint); err != nil {
		return false, err
	}
	return true, nil
}

// ApplyOffset nudges a group by a model-space delta, the precision-slider
// path. Offsets skip the movement threshold: they are deliberate by nature.
func (s *EditSession) ApplyOffset(g landmark.Group, dx, dy float64) (bool, error) {
	if s.imageHash == "" {
		return false, ErrNoDetection
	}
	if dx == 0 && dy == 0 {
		return false, nil
	}

	if _, ok := s.reg.Lookup(g); !ok {
		return false, fmt.Errorf("offset for %q: %w", g, landmark.ErrUnknownGroup)
	}
	current, ok := s.Effective()[g]
	if !ok {
		return false, fmt.Errorf("offset for %q: %w", g, ErrGroupUnresolved)
	}

	s.history.Snapshot(s.store.Snapshot())
	s.history.InvalidateRedo()
	if err := s.store.Apply(g, landmark.Point{X: current.X + dx, Y: current.Y + dy}); err != nil {
		return false, err
	}
	return true, nil
}

// Undo restores the previous override state.
func (s *EditSession) Undo() error {
	prev, err := s.history.Undo(s.store.Snapshot())
	if err != nil {
		return err
	}
	s.store.Restore(prev)
	return nil
}

// Redo re-applies the most recently undone override state.
func (s *EditSession) Redo() error {
	next, err := s.history.Redo(s.store.Snapshot())
	if err != nil {
		return err
	}
	s.store.Restore(next)
	return nil
}

// CanUndo reports whether undo is currently possible.
func (s *EditSession) CanUndo() bool {
	return s.history.CanUndo()
}

// CanRedo reports whether redo is currently possible.
func (s *EditSession) CanRedo() bool {
	return s.history.CanRedo()
}

// Reset drops all overrides and the entire history.
func (s *EditSession) Reset() {
	s.store.Clear()
	s.history.Reset()
}

// OverrideCount returns the number of groups with manual overrides.
func (s *EditSession) OverrideCount() int {
	return s.store.Len()
}

// RestoreOverrides replaces the current overrides with a saved state,
// recording the previous state in history so the load is undoable.
func (s *EditSession) RestoreOverrides(state State) error {
	for g := range state {
		if _, ok := s.reg.Lookup(g); !ok {
			return fmt.Errorf("restore overrides: %q: %w", g, landmark.ErrUnknownGroup)
		}
	}
	s.history.Snapshot(s.store.Snapshot())
	s.history.InvalidateRedo()
	s.store.Restore(state)
	return nil
}

// Overrides returns a copy of the current override state.
func (s *EditSession) Overrides() State {
	return s.store.Snapshot()
}

// Validate runs the anatomical plausibility checks over the effective
// coordinates.
func (s *EditSession) Validate() landmark.ValidationResult {
	return landmark.Validate(s.Effective())
}

// ConfidenceReport scores every configured group on the loaded detection.
func (s *EditSession) ConfidenceReport() []landmark.Confidence {
	return landmark.AssessAll(s.raw, s.reg, s.shape)
}

// VerifyTransform probes the model/display round trip for this session's
// geometry. A false result is a precision warning, not a failure.
func (s *EditSession) VerifyTransform() (bool, error) {
	if s.imageHash == "" {
		return false, ErrNoDetection
	}
	probe := landmark.Point{X: 100.0, Y: 100.0}
	return landmark.VerifyRoundTrip(probe, landmark.SizeOf(s.shape), s.displaySize)
}

// Export builds the JSON-serializable result document.
func (s *EditSession) Export() landmark.Result {
	return landmark.BuildResult(s.raw, s.reg, s.shape, s.Effective(), s.Overridden(), s.imageHash)
}
