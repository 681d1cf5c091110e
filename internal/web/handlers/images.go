package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/kozaktomas/landmark-studio/internal/detector"
)

// maxUploadBytes limits how large an uploaded image may be.
const maxUploadBytes = 50 << 20 // 50 MB

// ImagesHandler handles image upload and detection endpoints.
type ImagesHandler struct {
	sessions *SessionRegistry
	detector *detector.Client
}

// NewImagesHandler creates a new images handler.
func NewImagesHandler(sessions *SessionRegistry, det *detector.Client) *ImagesHandler {
	return &ImagesHandler{
		sessions: sessions,
		detector: det,
	}
}

// Upload accepts a multipart image, runs face detection on it and loads the
// result into an editing session. An existing session can be reused by sending
// its ID; otherwise a fresh session is created.
func (h *ImagesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read uploaded file")
		return
	}
	if len(data) > maxUploadBytes {
		respondError(w, http.StatusRequestEntityTooLarge, "image exceeds maximum upload size")
		return
	}

	info, err := detector.InspectImage(data)
	if err != nil {
		respondError(w, http.StatusBadRequest, "unsupported or corrupt image")
		return
	}

	detection, err := h.detector.Detect(r.Context(), data)
	if err != nil {
		switch {
		case errors.Is(err, detector.ErrNoFaceDetected):
			respondError(w, http.StatusUnprocessableEntity, "no face detected in image")
		case errors.Is(err, detector.ErrMultipleFacesDetected):
			respondError(w, http.StatusUnprocessableEntity, "multiple faces detected, use an image with a single face")
		default:
			respondError(w, http.StatusBadGateway, fmt.Sprintf("face detection failed: %v", err))
		}
		return
	}

	sess, release, ok := h.sessions.Acquire(sessionID(r))
	if !ok {
		created := h.sessions.Create()
		sess, release, ok = h.sessions.Acquire(created.ID)
		if !ok {
			respondError(w, http.StatusInternalServerError, "failed to create session")
			return
		}
	}
	defer release()

	changed, err := sess.SetImage(info.Hash, info.Shape, detection.Landmarks)
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load detection: %v", err))
		return
	}

	transformOK, _ := sess.VerifyTransform()

	respondJSON(w, http.StatusOK, map[string]any{
		"session_id":    sess.ID,
		"image_changed": changed,
		"transform_ok":  transformOK,
		"image": map[string]any{
			"width":  info.Shape.Width,
			"height": info.Shape.Height,
			"format": info.Format,
			"hash":   info.Hash,
		},
		"detection": map[string]any{
			"score": detection.Score,
			"model": detection.Model,
		},
		"landmarks": landmarkPayload(sess),
	})
}

// DeleteSession removes an editing session.
func (h *ImagesHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	if id == "" {
		respondError(w, http.StatusBadRequest, "session ID is required")
		return
	}
	if !h.sessions.Delete(id) {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
