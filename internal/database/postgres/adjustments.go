package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/landmark-studio/internal/database"
	"github.com/kozaktomas/landmark-studio/internal/session"
)

// AdjustmentRepository provides PostgreSQL-backed storage of named
// adjustment sets.
type AdjustmentRepository struct {
	pool *Pool
}

// NewAdjustmentRepository creates a new PostgreSQL adjustment repository.
func NewAdjustmentRepository(pool *Pool) *AdjustmentRepository {
	return &AdjustmentRepository{pool: pool}
}

// Save stores an adjustment set, inserting or updating by (image_hash, name).
// A missing ID is filled in before the write.
func (r *AdjustmentRepository) Save(ctx context.Context, set *database.StoredAdjustmentSet) error {
	if set.ID == "" {
		set.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if set.CreatedAt.IsZero() {
		set.CreatedAt = now
	}
	set.UpdatedAt = now

	overrides, err := json.Marshal(set.Overrides)
	if err != nil {
		return fmt.Errorf("marshal overrides: %w", err)
	}

	query := `
		INSERT INTO adjustment_sets (id, image_hash, name, overrides, image_width, image_height, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (image_hash, name) DO UPDATE SET
			overrides = EXCLUDED.overrides,
			image_width = EXCLUDED.image_width,
			image_height = EXCLUDED.image_height,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.pool.Exec(ctx, query,
		set.ID, set.ImageHash, set.Name, overrides,
		set.ImageSize.Width, set.ImageSize.Height,
		set.CreatedAt, set.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save adjustment set: %w", err)
	}
	return nil
}

// Get retrieves an adjustment set by ID, returns nil if not found.
func (r *AdjustmentRepository) Get(ctx context.Context, id string) (*database.StoredAdjustmentSet, error) {
	query := `
		SELECT id, image_hash, name, overrides, image_width, image_height, created_at, updated_at
		FROM adjustment_sets
		WHERE id = $1
	`

	set, err := scanAdjustmentSet(r.pool.QueryRow(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get adjustment set: %w", err)
	}
	return set, nil
}

// ListByImage returns all saved sets for one image, newest first.
func (r *AdjustmentRepository) ListByImage(ctx context.Context, imageHash string) ([]database.StoredAdjustmentSet, error) {
	query := `
		SELECT id, image_hash, name, overrides, image_width, image_height, created_at, updated_at
		FROM adjustment_sets
		WHERE image_hash = $1
		ORDER BY updated_at DESC
	`

	rows, err := r.pool.Query(ctx, query, imageHash)
	if err != nil {
		return nil, fmt.Errorf("list adjustment sets: %w", err)
	}
	defer rows.Close()

	var sets []database.StoredAdjustmentSet
	for rows.Next() {
		set, err := scanAdjustmentSet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan adjustment set: %w", err)
		}
		sets = append(sets, *set)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate adjustment sets: %w", err)
	}
	return sets, nil
}

// Delete removes an adjustment set.
func (r *AdjustmentRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM adjustment_sets WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete adjustment set: %w", err)
	}
	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAdjustmentSet(row rowScanner) (*database.StoredAdjustmentSet, error) {
	var set database.StoredAdjustmentSet
	var overrides []byte

	err := row.Scan(
		&set.ID,
		&set.ImageHash,
		&set.Name,
		&overrides,
		&set.ImageSize.Width,
		&set.ImageSize.Height,
		&set.CreatedAt,
		&set.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	set.Overrides = make(session.State)
	if err := json.Unmarshal(overrides, &set.Overrides); err != nil {
		return nil, fmt.Errorf("unmarshal overrides: %w", err)
	}
	return &set, nil
}
