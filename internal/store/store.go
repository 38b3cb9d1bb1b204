// Package store persists shape path revisions in PostgreSQL.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inamate/inamate/pathedit/internal/document"
	"github.com/inamate/inamate/pathedit/internal/typeid"
)

var ErrNotFound = errors.New("revision not found")

const schema = `
CREATE TABLE IF NOT EXISTS path_revisions (
	id         TEXT PRIMARY KEY,
	shape_id   TEXT NOT NULL,
	version    INTEGER NOT NULL,
	path       TEXT NOT NULL,
	transform  JSONB NOT NULL,
	author_id  TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (shape_id, version)
)`

// Revision is one saved state of a shape's path data.
type Revision struct {
	ID        string             `json:"id"`
	ShapeID   string             `json:"shapeId"`
	Version   int32              `json:"version"`
	Path      string             `json:"path"`
	Transform document.Transform `json:"transform"`
	AuthorID  string             `json:"authorId,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
}

type Store struct {
	pool *pgxpool.Pool
}

// Open connects to the database and makes sure the schema exists.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// LatestRevision returns the newest revision of a shape, or ErrNotFound.
func (s *Store) LatestRevision(ctx context.Context, shapeID string) (*Revision, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, shape_id, version, path, transform, author_id, created_at
		FROM path_revisions
		WHERE shape_id = $1
		ORDER BY version DESC
		LIMIT 1`, shapeID)

	var rev Revision
	var transform []byte
	err := row.Scan(&rev.ID, &rev.ShapeID, &rev.Version, &rev.Path, &transform, &rev.AuthorID, &rev.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get latest revision: %w", err)
	}
	if err := json.Unmarshal(transform, &rev.Transform); err != nil {
		return nil, fmt.Errorf("decode transform: %w", err)
	}
	return &rev, nil
}

// SaveRevision stores the shape's current path and placement as its next
// version.
func (s *Store) SaveRevision(ctx context.Context, shape document.Shape, authorID string) (*Revision, error) {
	transform, err := json.Marshal(shape.Transform)
	if err != nil {
		return nil, fmt.Errorf("marshal transform: %w", err)
	}

	rev := Revision{
		ID:        typeid.NewRevisionID(),
		ShapeID:   shape.ID,
		Path:      shape.Path,
		Transform: shape.Transform,
		AuthorID:  authorID,
	}
	err = s.pool.QueryRow(ctx, `
		INSERT INTO path_revisions (id, shape_id, version, path, transform, author_id)
		SELECT $1, $2, COALESCE(MAX(version), 0) + 1, $3, $4, $5
		FROM path_revisions
		WHERE shape_id = $2
		RETURNING version, created_at`,
		rev.ID, rev.ShapeID, rev.Path, transform, rev.AuthorID,
	).Scan(&rev.Version, &rev.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert revision: %w", err)
	}
	return &rev, nil
}

// LoadShape returns the shape as of its latest revision, or nil when the
// shape was never saved.
func (s *Store) LoadShape(ctx context.Context, shapeID string) (*document.Shape, error) {
	rev, err := s.LatestRevision(ctx, shapeID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &document.Shape{
		ID:        rev.ShapeID,
		Path:      rev.Path,
		Transform: rev.Transform,
		Visible:   true,
	}, nil
}

// SaveShape stores a new revision of the shape.
func (s *Store) SaveShape(ctx context.Context, shape document.Shape, authorID string) error {
	_, err := s.SaveRevision(ctx, shape, authorID)
	return err
}
