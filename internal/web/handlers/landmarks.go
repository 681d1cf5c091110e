package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kozaktomas/landmark-studio/internal/landmark"
	"github.com/kozaktomas/landmark-studio/internal/session"
)

// defaultHitRadius is the click tolerance for hit testing in display pixels.
const defaultHitRadius = 10.0

// landmarkView is the per-group wire representation of an aggregated landmark.
type landmarkView struct {
	Group    string         `json:"group"`
	Label    string         `json:"label"`
	Color    string         `json:"color"`
	Radius   int            `json:"radius"`
	Model    landmark.Point `json:"model"`
	Display  landmark.Point `json:"display"`
	Adjusted bool           `json:"adjusted"`
}

// landmarkState is the full editor state returned after every mutation.
type landmarkState struct {
	Landmarks     []landmarkView `json:"landmarks"`
	DisplaySize   landmark.Size  `json:"display_size"`
	CanUndo       bool           `json:"can_undo"`
	CanRedo       bool           `json:"can_redo"`
	OverrideCount int            `json:"override_count"`
	Threshold     float64        `json:"movement_threshold"`
}

// landmarkPayload renders the current state of an editing session.
func landmarkPayload(sess *session.EditSession) landmarkState {
	modelSize := landmark.SizeOf(sess.Shape())
	displaySize := sess.DisplaySize()
	effective := sess.Effective()
	adjusted := sess.Overridden()

	views := make([]landmarkView, 0, len(effective))
	for _, def := range sess.Registry().Definitions() {
		model, ok := effective[def.Group]
		if !ok {
			continue
		}
		display, err := landmark.ToDisplay(model, modelSize, displaySize)
		if err != nil {
			continue
		}
		views = append(views, landmarkView{
			Group:    string(def.Group),
			Label:    def.Label,
			Color:    def.Color,
			Radius:   def.Radius,
			Model:    model,
			Display:  display,
			Adjusted: adjusted[def.Group],
		})
	}

	return landmarkState{
		Landmarks:     views,
		DisplaySize:   displaySize,
		CanUndo:       sess.CanUndo(),
		CanRedo:       sess.CanRedo(),
		OverrideCount: sess.OverrideCount(),
		Threshold:     sess.MovementThreshold(),
	}
}

// displayPositions returns effective landmark positions in display space.
func displayPositions(sess *session.EditSession) map[landmark.Group]landmark.Point {
	modelSize := landmark.SizeOf(sess.Shape())
	displaySize := sess.DisplaySize()

	positions := make(map[landmark.Group]landmark.Point)
	for g, model := range sess.Effective() {
		display, err := landmark.ToDisplay(model, modelSize, displaySize)
		if err != nil {
			continue
		}
		positions[g] = display
	}
	return positions
}

// LandmarksHandler handles landmark state and adjustment endpoints.
type LandmarksHandler struct {
	sessions *SessionRegistry
}

// NewLandmarksHandler creates a new landmarks handler.
func NewLandmarksHandler(sessions *SessionRegistry) *LandmarksHandler {
	return &LandmarksHandler{sessions: sessions}
}

// requireLoaded resolves and locks the session and checks that an image is
// loaded. On success the caller must defer the returned release.
func (h *LandmarksHandler) requireLoaded(w http.ResponseWriter, r *http.Request) (*session.EditSession, func()) {
	sess, release := requireSession(w, r, h.sessions)
	if sess == nil {
		return nil, nil
	}
	if sess.ImageHash() == "" {
		release()
		respondError(w, http.StatusConflict, "no image loaded in session")
		return nil, nil
	}
	return sess, release
}

// Get returns the current landmark state of the session.
func (h *LandmarksHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, release := h.requireLoaded(w, r)
	if sess == nil {
		return
	}
	defer release()
	respondJSON(w, http.StatusOK, landmarkPayload(sess))
}

// Adjust commits a drag of one landmark group to a new display position.
func (h *LandmarksHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	sess, release := h.requireLoaded(w, r)
	if sess == nil {
		return
	}
	defer release()

	var req struct {
		Group string  `json:"group"`
		X     float64 `json:"x"`
		Y     float64 `json:"y"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	group := landmark.Group(req.Group)
	if !group.Valid() {
		respondError(w, http.StatusBadRequest, "unknown landmark group")
		return
	}

	changed, err := sess.ApplyDisplayEdit(group, landmark.Point{X: req.X, Y: req.Y})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"changed": changed,
		"state":   landmarkPayload(sess),
	})
}

// Offset nudges one landmark group by a model-space delta.
func (h *LandmarksHandler) Offset(w http.ResponseWriter, r *http.Request) {
	sess, release := h.requireLoaded(w, r)
	if sess == nil {
		return
	}
	defer release()

	var req struct {
		Group string  `json:"group"`
		DX    float64 `json:"dx"`
		DY    float64 `json:"dy"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	group := landmark.Group(req.Group)
	if !group.Valid() {
		respondError(w, http.StatusBadRequest, "unknown landmark group")
		return
	}

	changed, err := sess.ApplyOffset(group, req.DX, req.DY)
	if err != nil {
		if errors.Is(err, session.ErrGroupUnresolved) {
			respondError(w, http.StatusConflict, "group has no resolved position in this detection")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"changed": changed,
		"state":   landmarkPayload(sess),
	})
}

// Hit resolves a display-space click to the nearest landmark group.
func (h *LandmarksHandler) Hit(w http.ResponseWriter, r *http.Request) {
	sess, release := h.requireLoaded(w, r)
	if sess == nil {
		return
	}
	defer release()

	var req struct {
		X      float64 `json:"x"`
		Y      float64 `json:"y"`
		Radius float64 `json:"radius"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Radius <= 0 {
		req.Radius = defaultHitRadius
	}

	group, found := landmark.NearestGroup(displayPositions(sess), landmark.Point{X: req.X, Y: req.Y}, req.Radius)
	respondJSON(w, http.StatusOK, map[string]any{
		"group": string(group),
		"found": found,
	})
}

// Undo reverts the most recent adjustment.
func (h *LandmarksHandler) Undo(w http.ResponseWriter, r *http.Request) {
	sess, release := h.requireLoaded(w, r)
	if sess == nil {
		return
	}
	defer release()

	if err := sess.Undo(); err != nil {
		if errors.Is(err, session.ErrNoHistory) {
			respondError(w, http.StatusConflict, "nothing to undo")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, landmarkPayload(sess))
}

// Redo re-applies the most recently undone adjustment.
func (h *LandmarksHandler) Redo(w http.ResponseWriter, r *http.Request) {
	sess, release := h.requireLoaded(w, r)
	if sess == nil {
		return
	}
	defer release()

	if err := sess.Redo(); err != nil {
		if errors.Is(err, session.ErrNoRedo) {
			respondError(w, http.StatusConflict, "nothing to redo")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, landmarkPayload(sess))
}

// Reset discards all adjustments and history, returning to detected positions.
func (h *LandmarksHandler) Reset(w http.ResponseWriter, r *http.Request) {
	sess, release := h.requireLoaded(w, r)
	if sess == nil {
		return
	}
	defer release()

	sess.Reset()
	respondJSON(w, http.StatusOK, landmarkPayload(sess))
}

// SetThreshold updates the session's drag-commit movement threshold.
func (h *LandmarksHandler) SetThreshold(w http.ResponseWriter, r *http.Request) {
	sess, release := requireSession(w, r, h.sessions)
	if sess == nil {
		return
	}
	defer release()

	var req struct {
		Threshold float64 `json:"threshold"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	sess.SetMovementThreshold(req.Threshold)
	respondJSON(w, http.StatusOK, map[string]any{
		"movement_threshold": sess.MovementThreshold(),
	})
}

// Validation runs anatomical plausibility checks on the current positions.
func (h *LandmarksHandler) Validation(w http.ResponseWriter, r *http.Request) {
	sess, release := h.requireLoaded(w, r)
	if sess == nil {
		return
	}
	defer release()
	respondJSON(w, http.StatusOK, sess.Validate())
}

// Confidence reports per-group detection confidence for the loaded image.
func (h *LandmarksHandler) Confidence(w http.ResponseWriter, r *http.Request) {
	sess, release := h.requireLoaded(w, r)
	if sess == nil {
		return
	}
	defer release()
	respondJSON(w, http.StatusOK, map[string]any{
		"groups": sess.ConfidenceReport(),
	})
}

// Export returns the full result document for the session.
func (h *LandmarksHandler) Export(w http.ResponseWriter, r *http.Request) {
	sess, release := h.requireLoaded(w, r)
	if sess == nil {
		return
	}
	defer release()
	respondJSON(w, http.StatusOK, sess.Export())
}
