package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/landmark-studio/internal/database"
	"github.com/kozaktomas/landmark-studio/internal/detector"
	"github.com/kozaktomas/landmark-studio/internal/web/handlers"
)

func (s *Server) setupRoutes(det *detector.Client, store database.AdjustmentStore) {
	imagesHandler := handlers.NewImagesHandler(s.sessions, det)
	landmarksHandler := handlers.NewLandmarksHandler(s.sessions)
	snapshotsHandler := handlers.NewSnapshotsHandler(s.sessions, store)
	configHandler := handlers.NewConfigHandler(s.config)

	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/config", configHandler.Get)

		// Images and sessions
		r.Post("/images", imagesHandler.Upload)
		r.Delete("/sessions", imagesHandler.DeleteSession)

		// Landmark state and adjustments
		r.Get("/landmarks", landmarksHandler.Get)
		r.Post("/landmarks/hit", landmarksHandler.Hit)
		r.Post("/adjustments", landmarksHandler.Adjust)
		r.Post("/adjustments/offset", landmarksHandler.Offset)
		r.Post("/undo", landmarksHandler.Undo)
		r.Post("/redo", landmarksHandler.Redo)
		r.Post("/reset", landmarksHandler.Reset)
		r.Put("/threshold", landmarksHandler.SetThreshold)

		// Reports
		r.Get("/validation", landmarksHandler.Validation)
		r.Get("/confidence", landmarksHandler.Confidence)
		r.Get("/export", landmarksHandler.Export)

		// Saved adjustment snapshots
		r.Post("/snapshots", snapshotsHandler.Save)
		r.Get("/snapshots", snapshotsHandler.List)
		r.Post("/snapshots/{id}/apply", snapshotsHandler.Apply)
		r.Delete("/snapshots/{id}", snapshotsHandler.Delete)
	})

	s.router.Get("/", s.serveIndex)
}

// serveIndex returns a placeholder page pointing at the API. The canvas
// frontend is served separately during development.
func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`<!DOCTYPE html>
<html>
<head>
    <title>Landmark Studio</title>
    <style>
        body { font-family: system-ui, sans-serif; display: flex; justify-content: center; align-items: center; height: 100vh; margin: 0; background: #1a1a2e; color: #eee; }
        .container { text-align: center; }
        h1 { color: #00d9ff; }
        p { color: #aaa; }
        a { color: #00d9ff; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Landmark Studio</h1>
        <p>API is available at <a href="/api/v1/health">/api/v1/health</a></p>
    </div>
</body>
</html>`))
}
