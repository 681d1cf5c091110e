package detector

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// setupMockDetector serves a canned face-mesh response.
func setupMockDetector(t *testing.T, response any, status int) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/detect/face-mesh", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if _, _, err := r.FormFile("file"); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(response)
	})

	return httptest.NewServer(mux)
}

func fakeFace(count int) map[string]any {
	landmarks := make([]map[string]float64, 478)
	for i := range landmarks {
		landmarks[i] = map[string]float64{"x": 0.5, "y": 0.5, "z": -0.01}
	}
	faces := make([]map[string]any, count)
	for i := range faces {
		faces[i] = map[string]any{"landmarks": landmarks, "score": 0.93}
	}
	return map[string]any{
		"faces_count": count,
		"faces":       faces,
		"model":       "face_mesh",
	}
}

func TestClient_Detect(t *testing.T) {
	server := setupMockDetector(t, fakeFace(1), http.StatusOK)
	defer server.Close()

	client := NewClient(server.URL)
	det, err := client.Detect(context.Background(), []byte("fake-image-bytes"))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}

	if len(det.Landmarks) != 478 {
		t.Errorf("landmarks = %d, want 478", len(det.Landmarks))
	}
	if det.Landmarks[0].X != 0.5 || det.Landmarks[0].Z != -0.01 {
		t.Errorf("unexpected landmark payload: %+v", det.Landmarks[0])
	}
	if det.Score != 0.93 {
		t.Errorf("score = %v, want 0.93", det.Score)
	}
	if det.Model != "face_mesh" {
		t.Errorf("model = %q, want face_mesh", det.Model)
	}
}

func TestClient_DetectNoFace(t *testing.T) {
	server := setupMockDetector(t, fakeFace(0), http.StatusOK)
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Detect(context.Background(), []byte("fake"))
	if !errors.Is(err, ErrNoFaceDetected) {
		t.Errorf("expected ErrNoFaceDetected, got %v", err)
	}
}

func TestClient_DetectMultipleFaces(t *testing.T) {
	server := setupMockDetector(t, fakeFace(2), http.StatusOK)
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Detect(context.Background(), []byte("fake"))
	if !errors.Is(err, ErrMultipleFacesDetected) {
		t.Errorf("expected ErrMultipleFacesDetected, got %v", err)
	}
}

func TestClient_DetectServerError(t *testing.T) {
	server := setupMockDetector(t, map[string]string{"error": "model not loaded"}, http.StatusInternalServerError)
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Detect(context.Background(), []byte("fake"))
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if errors.Is(err, ErrNoFaceDetected) || errors.Is(err, ErrMultipleFacesDetected) {
		t.Errorf("server failure must not map to a detection outcome: %v", err)
	}
}

func TestClient_DetectPassesParameters(t *testing.T) {
	var gotMaxFaces, gotMinConfidence string
	mux := http.NewServeMux()
	mux.HandleFunc("/detect/face-mesh", func(w http.ResponseWriter, r *http.Request) {
		gotMaxFaces = r.URL.Query().Get("max_faces")
		gotMinConfidence = r.URL.Query().Get("min_confidence")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(fakeFace(1))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.Detect(context.Background(), []byte("fake")); err != nil {
		t.Fatalf("Detect: %v", err)
	}

	if gotMaxFaces != "2" {
		t.Errorf("max_faces = %q, want 2", gotMaxFaces)
	}
	if gotMinConfidence != "0.5" {
		t.Errorf("min_confidence = %q, want 0.5", gotMinConfidence)
	}
}

func TestNewClient_DefaultURL(t *testing.T) {
	client := NewClient("")
	if client.baseURL != defaultDetectorURL {
		t.Errorf("baseURL = %q, want %q", client.baseURL, defaultDetectorURL)
	}

	client = NewClient("http://example.com/")
	if client.baseURL != "http://example.com" {
		t.Errorf("trailing slash not trimmed: %q", client.baseURL)
	}
}
