//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/veriface/veriface/internal/config"
)

func setupTestContainer(t *testing.T) (*Pool, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}
	if container == nil {
		t.Skip("Docker not available, skipping integration test")
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	dbURL := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	cfg := &config.DatabaseConfig{
		URL:          dbURL,
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	}

	pool, err := NewPool(cfg)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to create pool: %v", err)
	}

	// Run migrations
	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		pool.Close()
		container.Terminate(ctx)
	}

	return pool, cleanup
}

func makeEmbedding(seed float32) []float32 {
	embedding := make([]float32, 128)
	for i := range embedding {
		embedding[i] = seed + float32(i)/128.0
	}
	return embedding
}

func TestFaceStore(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	store := NewFaceStore(pool)

	t.Run("EmptySnapshot", func(t *testing.T) {
		enrollments, err := store.LoadSnapshot(ctx)
		if err != nil {
			t.Fatalf("Failed to load snapshot: %v", err)
		}
		if len(enrollments) != 0 {
			t.Errorf("Expected empty snapshot, got %d enrollments", len(enrollments))
		}
	})

	t.Run("AppendAndLoad", func(t *testing.T) {
		if err := store.Append(ctx, "alice", makeEmbedding(0.1)); err != nil {
			t.Fatalf("Failed to append enrollment: %v", err)
		}
		if err := store.Append(ctx, "bob", makeEmbedding(0.2)); err != nil {
			t.Fatalf("Failed to append enrollment: %v", err)
		}
		if err := store.Append(ctx, "alice", makeEmbedding(0.3)); err != nil {
			t.Fatalf("Failed to append enrollment: %v", err)
		}

		enrollments, err := store.LoadSnapshot(ctx)
		if err != nil {
			t.Fatalf("Failed to load snapshot: %v", err)
		}
		if len(enrollments) != 3 {
			t.Fatalf("Expected 3 enrollments, got %d", len(enrollments))
		}

		// Insertion order must survive the round trip.
		wantNames := []string{"alice", "bob", "alice"}
		for i, want := range wantNames {
			if enrollments[i].Name != want {
				t.Errorf("Enrollment %d: expected name %q, got %q", i, want, enrollments[i].Name)
			}
			if len(enrollments[i].Embedding) != 128 {
				t.Errorf("Enrollment %d: expected 128 dimensions, got %d", i, len(enrollments[i].Embedding))
			}
		}

		if enrollments[0].Embedding[0] != 0.1 {
			t.Errorf("Expected first embedding to start with 0.1, got %f", enrollments[0].Embedding[0])
		}
		if enrollments[2].Embedding[0] != 0.3 {
			t.Errorf("Expected last embedding to start with 0.3, got %f", enrollments[2].Embedding[0])
		}
	})

	t.Run("MigrationsIdempotent", func(t *testing.T) {
		if err := pool.Migrate(ctx); err != nil {
			t.Fatalf("Second migration run failed: %v", err)
		}
	})
}
