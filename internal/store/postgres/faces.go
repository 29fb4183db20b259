package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/veriface/veriface/internal/index"
)

// FaceStore persists enrollments in the user_faces table.
type FaceStore struct {
	pool *Pool
}

// NewFaceStore creates a face store backed by the given connection pool.
func NewFaceStore(pool *Pool) *FaceStore {
	return &FaceStore{pool: pool}
}

// Append inserts a single enrollment row.
func (s *FaceStore) Append(ctx context.Context, name string, embedding []float32) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO user_faces (id, name, embedding)
		VALUES ($1, $2, $3)
	`, uuid.New(), name, pgvector.NewVector(embedding))
	if err != nil {
		return fmt.Errorf("inserting enrollment for %q: %w", name, err)
	}
	return nil
}

// LoadSnapshot returns all enrollments in insertion order, so that
// rebuilding the in-memory index preserves tie-break behavior across
// restarts.
func (s *FaceStore) LoadSnapshot(ctx context.Context) ([]index.Enrollment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT name, embedding
		FROM user_faces
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("loading enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []index.Enrollment
	for rows.Next() {
		var name string
		var vec pgvector.Vector
		if err := rows.Scan(&name, &vec); err != nil {
			return nil, fmt.Errorf("scanning enrollment row: %w", err)
		}
		enrollments = append(enrollments, index.Enrollment{
			Name:      name,
			Embedding: vec.Slice(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating enrollment rows: %w", err)
	}
	return enrollments, nil
}
