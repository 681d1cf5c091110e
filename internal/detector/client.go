// Package detector talks to the external face-mesh detection service and
// prepares its output for the landmark engine. The service is a black box:
// given an image it returns a dense ordered landmark cloud per detected face.
package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/kozaktomas/landmark-studio/internal/landmark"
)

const (
	defaultDetectorURL = "http://localhost:8500"

	// Detection parameters passed through to the service, matching the
	// reference MediaPipe face-mesh configuration.
	maxFaces               = 2
	minDetectionConfidence = 0.5
)

var (
	// ErrNoFaceDetected means the service found no face in the image. Surfaced
	// to the user as guidance, never mutates engine state.
	ErrNoFaceDetected = errors.New("no face detected")
	// ErrMultipleFacesDetected means more than one candidate face was found.
	// Callers must treat this as an error, not silently pick the first.
	ErrMultipleFacesDetected = errors.New("multiple faces detected")
)

// faceResult is one face in the service response.
type faceResult struct {
	Landmarks []struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
		Z float64 `json:"z"`
	} `json:"landmarks"`
	Score float64 `json:"score"`
}

// detectResponse is the JSON body returned by the detection service.
type detectResponse struct {
	FacesCount int          `json:"faces_count"`
	Faces      []faceResult `json:"faces"`
	Model      string       `json:"model"`
}

// Client is a reusable handle to the detection service. Construct it once
// and call it sequentially; it keeps no per-call state beyond the HTTP
// connection pool.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a detection service client.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultDetectorURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{},
	}
}

// postMultipartImage uploads the image as a multipart form and returns the
// raw response body.
func (c *Client) postMultipartImage(ctx context.Context, endpoint string, imageData []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "image.jpg")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	q := req.URL.Query()
	q.Set("max_faces", fmt.Sprintf("%d", maxFaces))
	q.Set("min_confidence", fmt.Sprintf("%g", minDetectionConfidence))
	req.URL.RawQuery = q.Encode()

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("detector error (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// Detect runs face-mesh detection on one image and returns the landmark
// cloud of the single detected face.
func (c *Client) Detect(ctx context.Context, imageData []byte) (Detection, error) {
	body, err := c.postMultipartImage(ctx, "/detect/face-mesh", imageData)
	if err != nil {
		return Detection{}, err
	}

	var detResp detectResponse
	if err := json.Unmarshal(body, &detResp); err != nil {
		return Detection{}, fmt.Errorf("failed to parse response: %w", err)
	}

	switch {
	case detResp.FacesCount == 0 || len(detResp.Faces) == 0:
		return Detection{}, ErrNoFaceDetected
	case detResp.FacesCount > 1 || len(detResp.Faces) > 1:
		return Detection{}, ErrMultipleFacesDetected
	}

	face := detResp.Faces[0]
	raw := make(landmark.RawLandmarkSet, len(face.Landmarks))
	for i, lm := range face.Landmarks {
		raw[i] = landmark.NormalizedPoint{X: lm.X, Y: lm.Y, Z: lm.Z}
	}

	return Detection{
		Landmarks: raw,
		Score:     face.Score,
		Model:     detResp.Model,
	}, nil
}

// Detection is the parsed result for the single detected face.
type Detection struct {
	Landmarks landmark.RawLandmarkSet
	Score     float64
	Model     string
}
