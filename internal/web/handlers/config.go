package handlers

import (
	"net/http"

	"github.com/kozaktomas/landmark-studio/internal/config"
	"github.com/kozaktomas/landmark-studio/internal/session"
)

// ConfigHandler exposes read-only editor configuration to the frontend.
type ConfigHandler struct {
	config *config.Config
}

// NewConfigHandler creates a new config handler.
func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{config: cfg}
}

// Get returns the group definitions and editor defaults.
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"groups": h.config.Groups.Groups,
		"editor": map[string]any{
			"movement_threshold": h.config.Editor.MovementThreshold,
			"threshold_min":      session.MinMovementThreshold,
			"threshold_max":      session.MaxMovementThreshold,
		},
		"persistence_enabled": h.config.Database.URL != "",
	})
}
