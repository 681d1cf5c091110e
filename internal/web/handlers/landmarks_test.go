package handlers

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/kozaktomas/landmark-studio/internal/landmark"
)

func TestLandmarksHandler_GetRequiresSession(t *testing.T) {
	handler := NewLandmarksHandler(testSessions(t))

	rec := httptest.NewRecorder()
	handler.Get(rec, newJSONRequest(t, http.MethodGet, "/api/v1/landmarks", "", nil))
	assertStatusCode(t, rec, http.StatusBadRequest)
	assertJSONError(t, rec, "session ID is required")

	rec = httptest.NewRecorder()
	handler.Get(rec, newJSONRequest(t, http.MethodGet, "/api/v1/landmarks", "missing", nil))
	assertStatusCode(t, rec, http.StatusNotFound)
	assertJSONError(t, rec, "session not found")
}

func TestLandmarksHandler_GetRequiresImage(t *testing.T) {
	sessions := testSessions(t)
	handler := NewLandmarksHandler(sessions)
	sess := sessions.Create()

	rec := httptest.NewRecorder()
	handler.Get(rec, newJSONRequest(t, http.MethodGet, "/api/v1/landmarks", sess.ID, nil))
	assertStatusCode(t, rec, http.StatusConflict)
	assertJSONError(t, rec, "no image loaded in session")
}

func TestLandmarksHandler_SessionIDFromQueryParam(t *testing.T) {
	sessions := testSessions(t)
	handler := NewLandmarksHandler(sessions)
	sess := loadedSession(t, sessions)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/landmarks?session_id="+sess.ID, nil)
	rec := httptest.NewRecorder()
	handler.Get(rec, req)
	assertStatusCode(t, rec, http.StatusOK)
}

func TestLandmarksHandler_Adjust(t *testing.T) {
	sessions := testSessions(t)
	handler := NewLandmarksHandler(sessions)
	sess := loadedSession(t, sessions)

	// Nose tip starts at display (300,200); a 20px drag passes the threshold.
	body := map[string]any{"group": "nose_tip", "x": 320.0, "y": 200.0}
	rec := httptest.NewRecorder()
	handler.Adjust(rec, newJSONRequest(t, http.MethodPost, "/api/v1/adjustments", sess.ID, body))

	assertStatusCode(t, rec, http.StatusOK)

	var resp struct {
		Changed bool          `json:"changed"`
		State   landmarkState `json:"state"`
	}
	parseJSONResponse(t, rec, &resp)

	if !resp.Changed {
		t.Fatal("expected the adjustment to commit")
	}
	if !resp.State.CanUndo {
		t.Error("expected can_undo after an adjustment")
	}
	if resp.State.OverrideCount != 1 {
		t.Errorf("expected 1 override, got %d", resp.State.OverrideCount)
	}
	for _, lm := range resp.State.Landmarks {
		if lm.Group != "nose_tip" {
			continue
		}
		if !lm.Adjusted {
			t.Error("nose_tip should be flagged adjusted")
		}
		if lm.Display.X != 320 || lm.Display.Y != 200 {
			t.Errorf("unexpected display position: %+v", lm.Display)
		}
		if lm.Model.X != 640 || lm.Model.Y != 400 {
			t.Errorf("unexpected model position: %+v", lm.Model)
		}
	}
}

func TestLandmarksHandler_AdjustBelowThreshold(t *testing.T) {
	sessions := testSessions(t)
	handler := NewLandmarksHandler(sessions)
	sess := loadedSession(t, sessions)

	// 3px is under the default 5px movement threshold.
	body := map[string]any{"group": "nose_tip", "x": 303.0, "y": 200.0}
	rec := httptest.NewRecorder()
	handler.Adjust(rec, newJSONRequest(t, http.MethodPost, "/api/v1/adjustments", sess.ID, body))

	assertStatusCode(t, rec, http.StatusOK)

	var resp struct {
		Changed bool          `json:"changed"`
		State   landmarkState `json:"state"`
	}
	parseJSONResponse(t, rec, &resp)

	if resp.Changed {
		t.Error("a drag below the threshold must not commit")
	}
	if resp.State.CanUndo {
		t.Error("ignored drag must not create history")
	}
}

func TestLandmarksHandler_AdjustUnknownGroup(t *testing.T) {
	sessions := testSessions(t)
	handler := NewLandmarksHandler(sessions)
	sess := loadedSession(t, sessions)

	body := map[string]any{"group": "chin", "x": 320.0, "y": 200.0}
	rec := httptest.NewRecorder()
	handler.Adjust(rec, newJSONRequest(t, http.MethodPost, "/api/v1/adjustments", sess.ID, body))

	assertStatusCode(t, rec, http.StatusBadRequest)
	assertJSONError(t, rec, "unknown landmark group")
}

func TestLandmarksHandler_Offset(t *testing.T) {
	sessions := testSessions(t)
	handler := NewLandmarksHandler(sessions)
	sess := loadedSession(t, sessions)

	body := map[string]any{"group": "nose_bridge", "dx": 10.0, "dy": -4.0}
	rec := httptest.NewRecorder()
	handler.Offset(rec, newJSONRequest(t, http.MethodPost, "/api/v1/adjustments/offset", sess.ID, body))

	assertStatusCode(t, rec, http.StatusOK)

	var resp struct {
		Changed bool          `json:"changed"`
		State   landmarkState `json:"state"`
	}
	parseJSONResponse(t, rec, &resp)

	if !resp.Changed {
		t.Fatal("expected the offset to commit")
	}
	for _, lm := range resp.State.Landmarks {
		if lm.Group != "nose_bridge" {
			continue
		}
		if lm.Model.X != 610 || lm.Model.Y != 396 {
			t.Errorf("unexpected model position after offset: %+v", lm.Model)
		}
	}
}

func TestLandmarksHandler_Hit(t *testing.T) {
	sessions := testSessions(t)
	handler := NewLandmarksHandler(sessions)
	sess := loadedSession(t, sessions)

	// All groups sit at display (300,200); a click nearby resolves, a
	// click far away does not.
	rec := httptest.NewRecorder()
	handler.Hit(rec, newJSONRequest(t, http.MethodPost, "/api/v1/landmarks/hit", sess.ID,
		map[string]any{"x": 304.0, "y": 201.0}))
	assertStatusCode(t, rec, http.StatusOK)

	var resp struct {
		Group string `json:"group"`
		Found bool   `json:"found"`
	}
	parseJSONResponse(t, rec, &resp)
	if !resp.Found {
		t.Error("expected a hit near the landmark cluster")
	}
	if !landmark.Group(resp.Group).Valid() {
		t.Errorf("expected a known group, got %q", resp.Group)
	}

	rec = httptest.NewRecorder()
	handler.Hit(rec, newJSONRequest(t, http.MethodPost, "/api/v1/landmarks/hit", sess.ID,
		map[string]any{"x": 50.0, "y": 50.0}))
	parseJSONResponse(t, rec, &resp)
	if resp.Found {
		t.Error("expected no hit far from every landmark")
	}
}

func TestLandmarksHandler_UndoRedoFlow(t *testing.T) {
	sessions := testSessions(t)
	handler := NewLandmarksHandler(sessions)
	sess := loadedSession(t, sessions)

	// Nothing to undo yet.
	rec := httptest.NewRecorder()
	handler.Undo(rec, newJSONRequest(t, http.MethodPost, "/api/v1/undo", sess.ID, nil))
	assertStatusCode(t, rec, http.StatusConflict)
	assertJSONError(t, rec, "nothing to undo")

	// Commit an adjustment, then undo it.
	rec = httptest.NewRecorder()
	handler.Adjust(rec, newJSONRequest(t, http.MethodPost, "/api/v1/adjustments", sess.ID,
		map[string]any{"group": "nose_tip", "x": 330.0, "y": 210.0}))
	assertStatusCode(t, rec, http.StatusOK)

	rec = httptest.NewRecorder()
	handler.Undo(rec, newJSONRequest(t, http.MethodPost, "/api/v1/undo", sess.ID, nil))
	assertStatusCode(t, rec, http.StatusOK)

	var state landmarkState
	parseJSONResponse(t, rec, &state)
	if state.OverrideCount != 0 {
		t.Errorf("expected no overrides after undo, got %d", state.OverrideCount)
	}
	if !state.CanRedo {
		t.Error("expected can_redo after undo")
	}

	// Redo restores the override.
	rec = httptest.NewRecorder()
	handler.Redo(rec, newJSONRequest(t, http.MethodPost, "/api/v1/redo", sess.ID, nil))
	assertStatusCode(t, rec, http.StatusOK)
	parseJSONResponse(t, rec, &state)
	if state.OverrideCount != 1 {
		t.Errorf("expected 1 override after redo, got %d", state.OverrideCount)
	}

	// Redo again has nothing left.
	rec = httptest.NewRecorder()
	handler.Redo(rec, newJSONRequest(t, http.MethodPost, "/api/v1/redo", sess.ID, nil))
	assertStatusCode(t, rec, http.StatusConflict)
	assertJSONError(t, rec, "nothing to redo")
}

func TestLandmarksHandler_ConcurrentAdjusts(t *testing.T) {
	sessions := testSessions(t)
	handler := NewLandmarksHandler(sessions)
	sess := loadedSession(t, sessions)

	// Rapid canvas drags arrive as overlapping requests for one session;
	// each must observe the engine exclusively.
	const workers = 4
	const requests = 50

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < requests; i++ {
				x := 320.0 + float64((w*requests+i)%40)*2.0
				body := map[string]any{"group": "nose_tip", "x": x, "y": 210.0}
				rec := httptest.NewRecorder()
				handler.Adjust(rec, newJSONRequest(t, http.MethodPost, "/api/v1/adjustments", sess.ID, body))
				if rec.Code != http.StatusOK {
					t.Errorf("adjust returned status %d", rec.Code)
				}
			}
		}(w)
	}
	wg.Wait()

	rec := httptest.NewRecorder()
	handler.Get(rec, newJSONRequest(t, http.MethodGet, "/api/v1/landmarks", sess.ID, nil))
	assertStatusCode(t, rec, http.StatusOK)

	var state landmarkState
	parseJSONResponse(t, rec, &state)
	if state.OverrideCount != 1 {
		t.Errorf("expected 1 override after concurrent drags, got %d", state.OverrideCount)
	}
	if !state.CanUndo {
		t.Error("expected undo history after concurrent drags")
	}
}

func TestLandmarksHandler_OffsetUnresolvedGroup(t *testing.T) {
	sessions := testSessions(t)
	handler := NewLandmarksHandler(sessions)
	sess := sessions.Create()

	// A 10-point detection resolves no group at all.
	raw := make(landmark.RawLandmarkSet, 10)
	for i := range raw {
		raw[i] = landmark.NormalizedPoint{X: 0.5, Y: 0.5}
	}
	if _, err := sess.SetImage("tiny", landmark.ImageShape{Width: 100, Height: 100}, raw); err != nil {
		t.Fatalf("SetImage: %v", err)
	}

	body := map[string]any{"group": "nose_tip", "dx": 1.0, "dy": 1.0}
	rec := httptest.NewRecorder()
	handler.Offset(rec, newJSONRequest(t, http.MethodPost, "/api/v1/adjustments/offset", sess.ID, body))

	assertStatusCode(t, rec, http.StatusConflict)
	assertJSONError(t, rec, "group has no resolved position in this detection")
}

func TestLandmarksHandler_Reset(t *testing.T) {
	sessions := testSessions(t)
	handler := NewLandmarksHandler(sessions)
	sess := loadedSession(t, sessions)

	rec := httptest.NewRecorder()
	handler.Adjust(rec, newJSONRequest(t, http.MethodPost, "/api/v1/adjustments", sess.ID,
		map[string]any{"group": "nose_tip", "x": 330.0, "y": 210.0}))
	assertStatusCode(t, rec, http.StatusOK)

	rec = httptest.NewRecorder()
	handler.Reset(rec, newJSONRequest(t, http.MethodPost, "/api/v1/reset", sess.ID, nil))
	assertStatusCode(t, rec, http.StatusOK)

	var state landmarkState
	parseJSONResponse(t, rec, &state)
	if state.OverrideCount != 0 {
		t.Errorf("expected no overrides after reset, got %d", state.OverrideCount)
	}
	if state.CanUndo || state.CanRedo {
		t.Error("reset must clear history")
	}
}

func TestLandmarksHandler_SetThreshold(t *testing.T) {
	sessions := testSessions(t)
	handler := NewLandmarksHandler(sessions)
	sess := sessions.Create()

	rec := httptest.NewRecorder()
	handler.SetThreshold(rec, newJSONRequest(t, http.MethodPut, "/api/v1/threshold", sess.ID,
		map[string]any{"threshold": 25.0}))
	assertStatusCode(t, rec, http.StatusOK)

	var resp struct {
		Threshold float64 `json:"movement_threshold"`
	}
	parseJSONResponse(t, rec, &resp)
	if resp.Threshold != 20 {
		t.Errorf("expected threshold clamped to 20, got %v", resp.Threshold)
	}
}

func TestLandmarksHandler_Validation(t *testing.T) {
	sessions := testSessions(t)
	handler := NewLandmarksHandler(sessions)
	sess := loadedSession(t, sessions)

	// All groups coincide, so the nose is degenerate and warnings fire.
	rec := httptest.NewRecorder()
	handler.Validation(rec, newJSONRequest(t, http.MethodGet, "/api/v1/validation", sess.ID, nil))
	assertStatusCode(t, rec, http.StatusOK)

	var result landmark.ValidationResult
	parseJSONResponse(t, rec, &result)
	if result.IsValid {
		t.Error("coincident landmarks should fail validation")
	}
	if len(result.Warnings) == 0 {
		t.Error("expected warnings for a degenerate nose")
	}
}

func TestLandmarksHandler_Confidence(t *testing.T) {
	sessions := testSessions(t)
	handler := NewLandmarksHandler(sessions)
	sess := loadedSession(t, sessions)

	rec := httptest.NewRecorder()
	handler.Confidence(rec, newJSONRequest(t, http.MethodGet, "/api/v1/confidence", sess.ID, nil))
	assertStatusCode(t, rec, http.StatusOK)

	var resp struct {
		Groups []landmark.Confidence `json:"groups"`
	}
	parseJSONResponse(t, rec, &resp)
	if len(resp.Groups) != 6 {
		t.Errorf("expected 6 confidence entries, got %d", len(resp.Groups))
	}
}

func TestLandmarksHandler_Export(t *testing.T) {
	sessions := testSessions(t)
	handler := NewLandmarksHandler(sessions)
	sess := loadedSession(t, sessions)

	rec := httptest.NewRecorder()
	handler.Adjust(rec, newJSONRequest(t, http.MethodPost, "/api/v1/adjustments", sess.ID,
		map[string]any{"group": "nose_tip", "x": 330.0, "y": 210.0}))
	assertStatusCode(t, rec, http.StatusOK)

	rec = httptest.NewRecorder()
	handler.Export(rec, newJSONRequest(t, http.MethodGet, "/api/v1/export", sess.ID, nil))
	assertStatusCode(t, rec, http.StatusOK)

	var result landmark.Result
	parseJSONResponse(t, rec, &result)
	if result.ImageHash != sess.ImageHash() {
		t.Errorf("unexpected image hash in export: %q", result.ImageHash)
	}
	if len(result.Groups) != 6 {
		t.Errorf("expected 6 exported groups, got %d", len(result.Groups))
	}
}
