// Package file implements the snapshot store as a single local JSON
// document mapping each identity name to its ordered list of embeddings.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/veriface/veriface/internal/index"
)

// Store persists enrollments in one JSON file. Every append rewrites the
// whole document through a temp-file-and-rename so a crash mid-write can
// never leave a corrupt snapshot behind.
type Store struct {
	path string
	mu   sync.Mutex
}

// snapshot is the on-disk shape: identity name -> ordered vector list.
type snapshot map[string][][]float32

// New creates a file store at the given snapshot path. The file does not
// need to exist yet; the first append creates it.
func New(path string) *Store {
	return &Store{path: path}
}

// LoadSnapshot reads the snapshot document. Identities are returned
// sorted by name so a reloaded index scans in a stable order; vectors
// within an identity keep their stored order.
func (s *Store) LoadSnapshot(ctx context.Context) ([]index.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(doc))
	for name := range doc {
		names = append(names, name)
	}
	sort.Strings(names)

	var enrollments []index.Enrollment
	for _, name := range names {
		for _, vec := range doc[name] {
			enrollments = append(enrollments, index.Enrollment{Name: name, Embedding: vec})
		}
	}
	return enrollments, nil
}

// Append adds one enrollment and rewrites the snapshot atomically.
func (s *Store) Append(ctx context.Context, name string, embedding []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if os.IsNotExist(err) {
		doc = snapshot{}
	} else if err != nil {
		return err
	}

	doc[name] = append(doc[name], embedding)
	return s.write(doc)
}

// read parses the snapshot file. A missing file surfaces os.ErrNotExist
// for the caller to decide; corrupt JSON is an error.
func (s *Store) read() (snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		return nil, fmt.Errorf("reading snapshot %s: %w", s.path, err)
	}

	var doc snapshot
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", s.path, err)
	}
	if doc == nil {
		// A literal `null` document unmarshals into a nil map without
		// error; treat it as an empty snapshot so appends can proceed.
		doc = snapshot{}
	}
	return doc, nil
}

// write replaces the snapshot file atomically: write a sibling temp file,
// sync it, then rename over the old snapshot.
func (s *Store) write(doc snapshot) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp snapshot: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing snapshot %s: %w", s.path, err)
	}
	return nil
}
