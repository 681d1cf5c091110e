package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/kozaktomas/landmark-studio/internal/landmark"
)

//go:embed groups.yaml
var groupsYAML []byte

type Config struct {
	Detector DetectorConfig
	Editor   EditorConfig
	Database DatabaseConfig
	Groups   GroupsConfig
}

type DetectorConfig struct {
	URL string // defaults to http://localhost:8500
}

type EditorConfig struct {
	MovementThreshold float64 // display pixels a drag must cover to commit (default 5.0)
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL; empty disables persistence
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type GroupsConfig struct {
	Groups []landmark.Definition `yaml:"groups"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

func Load() *Config {
	var groups GroupsConfig
	if err := yaml.Unmarshal(groupsYAML, &groups); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded groups.yaml: " + err.Error())
	}

	return &Config{
		Detector: DetectorConfig{
			URL: os.Getenv("DETECTOR_URL"),
		},
		Editor: EditorConfig{
			MovementThreshold: envFloat("MOVEMENT_THRESHOLD", 5.0),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Groups: groups,
	}
}

// Registry validates the configured group definitions and builds the
// process-wide registry. A broken groups.yaml is a startup error.
func (c *Config) Registry() (*landmark.Registry, error) {
	reg, err := landmark.NewRegistry(c.Groups.Groups)
	if err != nil {
		return nil, fmt.Errorf("invalid group configuration: %w", err)
	}
	return reg, nil
}
