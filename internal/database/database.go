// Package database defines the storage contracts for saved adjustment sets.
// Persistence is optional: without a configured database the application
// runs fully in memory and these interfaces are simply never wired.
package database

import (
	"context"
	"time"

	"github.com/kozaktomas/landmark-studio/internal/landmark"
	"github.com/kozaktomas/landmark-studio/internal/session"
)

// StoredAdjustmentSet is a named snapshot of manual overrides for one image,
// keyed by the image's content hash so a reloaded image can pick up where
// the user left off.
type StoredAdjustmentSet struct {
	ID        string
	ImageHash string
	Name      string
	Overrides session.State
	ImageSize landmark.ImageShape
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AdjustmentWriter persists adjustment sets.
type AdjustmentWriter interface {
	Save(ctx context.Context, set *StoredAdjustmentSet) error
	Delete(ctx context.Context, id string) error
}

// AdjustmentReader loads adjustment sets.
type AdjustmentReader interface {
	Get(ctx context.Context, id string) (*StoredAdjustmentSet, error)
	ListByImage(ctx context.Context, imageHash string) ([]StoredAdjustmentSet, error)
}

// AdjustmentStore combines read and write access.
type AdjustmentStore interface {
	AdjustmentReader
	AdjustmentWriter
}
