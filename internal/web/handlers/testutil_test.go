package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/landmark-studio/internal/landmark"
	"github.com/kozaktomas/landmark-studio/internal/session"
)

// testSessions creates a session registry over the default group definitions.
func testSessions(t *testing.T) *SessionRegistry {
	t.Helper()
	reg, err := landmark.NewRegistry(landmark.DefaultDefinitions())
	if err != nil {
		t.Fatalf("failed to build registry: %v", err)
	}
	sessions := NewSessionRegistry(reg, session.DefaultMovementThreshold)
	t.Cleanup(sessions.Stop)
	return sessions
}

// fakeLandmarks returns a full face mesh with every point at the image center.
func fakeLandmarks() landmark.RawLandmarkSet {
	raw := make(landmark.RawLandmarkSet, 478)
	for i := range raw {
		raw[i] = landmark.NormalizedPoint{X: 0.5, Y: 0.5, Z: -0.01}
	}
	return raw
}

// loadedSession creates a session with a 1200x800 detection loaded.
// Every group lands at model (600,400), display (300,200).
func loadedSession(t *testing.T, sessions *SessionRegistry) *session.EditSession {
	t.Helper()
	sess := sessions.Create()
	shape := landmark.ImageShape{Width: 1200, Height: 800}
	if _, err := sess.SetImage("hash-1200x800", shape, fakeLandmarks()); err != nil {
		t.Fatalf("failed to load session image: %v", err)
	}
	return sess
}

// pngImage encodes a blank PNG of the given dimensions.
func pngImage(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))); err != nil {
		t.Fatalf("failed to encode PNG: %v", err)
	}
	return buf.Bytes()
}

// newUploadRequest builds a multipart POST request with the image under "file".
func newUploadRequest(t *testing.T, imageData []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "face.png")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write(imageData); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/images", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

// newJSONRequest builds a request with a JSON body and the session ID header.
func newJSONRequest(t *testing.T, method, path, sessionID string, body any) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set("X-Session-ID", sessionID)
	}
	return req
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}
