package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/landmark-studio/internal/database"
)

// snapshotView is the wire representation of a stored adjustment set.
type snapshotView struct {
	ID            string    `json:"id"`
	ImageHash     string    `json:"image_hash"`
	Name          string    `json:"name"`
	OverrideCount int       `json:"override_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toSnapshotView(set *database.StoredAdjustmentSet) snapshotView {
	return snapshotView{
		ID:            set.ID,
		ImageHash:     set.ImageHash,
		Name:          set.Name,
		OverrideCount: len(set.Overrides),
		CreatedAt:     set.CreatedAt,
		UpdatedAt:     set.UpdatedAt,
	}
}

// SnapshotsHandler persists and restores named adjustment sets. The store is
// nil when no database is configured; every endpoint then reports 503.
type SnapshotsHandler struct {
	sessions *SessionRegistry
	store    database.AdjustmentStore
}

// NewSnapshotsHandler creates a new snapshots handler.
func NewSnapshotsHandler(sessions *SessionRegistry, store database.AdjustmentStore) *SnapshotsHandler {
	return &SnapshotsHandler{
		sessions: sessions,
		store:    store,
	}
}

func (h *SnapshotsHandler) requireStore(w http.ResponseWriter) bool {
	if h.store == nil {
		respondError(w, http.StatusServiceUnavailable, "persistence is not configured")
		return false
	}
	return true
}

// Save stores the session's current overrides under a name. Saving the same
// name for the same image replaces the previous snapshot.
func (h *SnapshotsHandler) Save(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	sess, release := requireSession(w, r, h.sessions)
	if sess == nil {
		return
	}
	defer release()
	if sess.ImageHash() == "" {
		respondError(w, http.StatusConflict, "no image loaded in session")
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	set := &database.StoredAdjustmentSet{
		ImageHash: sess.ImageHash(),
		Name:      req.Name,
		Overrides: sess.Overrides(),
		ImageSize: sess.Shape(),
	}
	if err := h.store.Save(r.Context(), set); err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to save snapshot: %v", err))
		return
	}

	respondJSON(w, http.StatusOK, toSnapshotView(set))
}

// List returns the snapshots saved for the session's image.
func (h *SnapshotsHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	sess, release := requireSession(w, r, h.sessions)
	if sess == nil {
		return
	}
	defer release()

	imageHash := r.URL.Query().Get("image_hash")
	if imageHash == "" {
		imageHash = sess.ImageHash()
	}
	if imageHash == "" {
		respondError(w, http.StatusConflict, "no image loaded in session")
		return
	}

	sets, err := h.store.ListByImage(r.Context(), imageHash)
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list snapshots: %v", err))
		return
	}

	views := make([]snapshotView, 0, len(sets))
	for i := range sets {
		views = append(views, toSnapshotView(&sets[i]))
	}
	respondJSON(w, http.StatusOK, map[string]any{"snapshots": views})
}

// Apply restores a stored snapshot into the session as a single undoable step.
func (h *SnapshotsHandler) Apply(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	sess, release := requireSession(w, r, h.sessions)
	if sess == nil {
		return
	}
	defer release()
	if sess.ImageHash() == "" {
		respondError(w, http.StatusConflict, "no image loaded in session")
		return
	}

	id := chi.URLParam(r, "id")
	set, err := h.store.Get(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load snapshot: %v", err))
		return
	}
	if set == nil {
		respondError(w, http.StatusNotFound, "snapshot not found")
		return
	}
	if set.ImageHash != sess.ImageHash() {
		respondError(w, http.StatusConflict, "snapshot belongs to a different image")
		return
	}

	if err := sess.RestoreOverrides(set.Overrides); err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to apply snapshot: %v", err))
		return
	}

	respondJSON(w, http.StatusOK, landmarkPayload(sess))
}

// Delete removes a stored snapshot.
func (h *SnapshotsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.store.Delete(r.Context(), id); err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to delete snapshot: %v", err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
