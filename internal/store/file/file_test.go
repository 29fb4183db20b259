package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "face_database.json"))
}

func TestLoadSnapshotMissingFile(t *testing.T) {
	s := tempStore(t)

	_, err := s.LoadSnapshot(context.Background())
	if !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error for missing snapshot, got %v", err)
	}
}

func TestLoadSnapshotCorruptFile(t *testing.T) {
	s := tempStore(t)
	if err := os.WriteFile(s.path, []byte("{truncated"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := s.LoadSnapshot(context.Background())
	if err == nil {
		t.Fatal("expected error for corrupt snapshot")
	}
}

func TestAppendAfterNullSnapshot(t *testing.T) {
	// `null` is valid JSON that unmarshals into a nil map; an append must
	// treat it as an empty document, not crash writing into it.
	s := tempStore(t)
	ctx := context.Background()
	if err := os.WriteFile(s.path, []byte("null"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := s.Append(ctx, "alice", []float32{1, 0}); err != nil {
		t.Fatalf("append over null snapshot failed: %v", err)
	}

	enrollments, err := s.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("load after append failed: %v", err)
	}
	if len(enrollments) != 1 || enrollments[0].Name != "alice" {
		t.Fatalf("expected single alice enrollment, got %+v", enrollments)
	}
}

func TestLoadSnapshotNullDocument(t *testing.T) {
	s := tempStore(t)
	if err := os.WriteFile(s.path, []byte("null"), 0o644); err != nil {
		t.Fatal(err)
	}

	enrollments, err := s.LoadSnapshot(context.Background())
	if err != nil {
		t.Fatalf("expected null snapshot to read as empty, got error: %v", err)
	}
	if len(enrollments) != 0 {
		t.Fatalf("expected no enrollments, got %d", len(enrollments))
	}
}

func TestAppendAndLoadRoundTrip(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	if err := s.Append(ctx, "bob", []float32{0.1, 0.2, 0.3}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := s.Append(ctx, "alice", []float32{1, 0, 0}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := s.Append(ctx, "bob", []float32{0.4, 0.5, 0.6}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	enrollments, err := s.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}

	if len(enrollments) != 3 {
		t.Fatalf("expected 3 enrollments, got %d", len(enrollments))
	}

	// Identities come back sorted by name; vectors keep append order.
	if enrollments[0].Name != "alice" {
		t.Errorf("expected alice first, got %q", enrollments[0].Name)
	}
	if enrollments[1].Name != "bob" || enrollments[2].Name != "bob" {
		t.Errorf("expected bob's two vectors after alice, got %q, %q",
			enrollments[1].Name, enrollments[2].Name)
	}
	if enrollments[1].Embedding[0] != 0.1 {
		t.Errorf("bob's vectors out of order: first component %v", enrollments[1].Embedding[0])
	}
	if enrollments[2].Embedding[0] != 0.4 {
		t.Errorf("bob's vectors out of order: first component %v", enrollments[2].Embedding[0])
	}
}

func TestAppendAccumulatesForSameName(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := s.Append(ctx, "carol", []float32{float32(i)}); err != nil {
			t.Fatalf("Append %d failed: %v", i, err)
		}
	}

	enrollments, err := s.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if len(enrollments) != 5 {
		t.Errorf("expected 5 accumulated vectors, got %d", len(enrollments))
	}
}

func TestAppendLeavesNoTempFiles(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	if err := s.Append(ctx, "dave", []float32{1}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	entries, err := os.ReadDir(filepath.Dir(s.path))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
	if len(entries) != 1 {
		t.Errorf("expected only the snapshot file, found %d entries", len(entries))
	}
}

func TestSnapshotStaysValidJSONAfterEveryAppend(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := s.Append(ctx, "erin", []float32{float32(i), float32(i)}); err != nil {
			t.Fatalf("Append %d failed: %v", i, err)
		}
		if _, err := s.LoadSnapshot(ctx); err != nil {
			t.Fatalf("snapshot unreadable after append %d: %v", i, err)
		}
	}
}
