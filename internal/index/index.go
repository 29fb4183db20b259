// Package index holds the in-memory identity index and the nearest-match
// similarity search over enrolled face embeddings.
package index

import "sync"

// UnknownName is reported when no enrolled vector beats the match threshold.
const UnknownName = "Unknown"

// MatchResult is the outcome of a single probe against the index.
type MatchResult struct {
	Name    string  `json:"name"`
	Score   float64 `json:"score"`
	Matched bool    `json:"match"`
}

// Enrollment is one (identity, embedding) pair in insertion order.
// Snapshot loads and store appends both speak this shape.
type Enrollment struct {
	Name      string
	Embedding []float32
}

// Index is the in-memory mapping from identity name to its enrolled
// embedding vectors. It is the single authoritative state for matching
// during the process lifetime and is safe for concurrent use.
//
// Identity order and per-identity vector order are both insertion order.
// Match scans in that order with a strict greater-than update, so the
// first-enrolled vector wins ties deterministically.
type Index struct {
	mu      sync.RWMutex
	names   []string // identity insertion order
	vectors map[string][][]float32
}

// New creates an empty identity index.
func New() *Index {
	return &Index{
		vectors: make(map[string][][]float32),
	}
}

// Enroll appends the embedding to the identity's vector collection,
// creating the identity if it is new. Repeated enrollments accumulate;
// nothing is ever overwritten or deduplicated.
func (ix *Index) Enroll(name string, embedding []float32) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if _, ok := ix.vectors[name]; !ok {
		ix.names = append(ix.names, name)
	}
	ix.vectors[name] = append(ix.vectors[name], embedding)
}

// Match scans every enrolled vector and returns the best cosine match.
// The threshold comparison is strict: a score exactly equal to the
// threshold is a non-match. An empty index yields {Unknown, -1.0, false}.
func (ix *Index) Match(probe []float32, threshold float64) MatchResult {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	bestScore := -1.0
	bestName := UnknownName

	for _, name := range ix.names {
		for _, vec := range ix.vectors[name] {
			score := CosineSimilarity(probe, vec)
			if score > bestScore {
				bestScore = score
				bestName = name
			}
		}
	}

	return MatchResult{
		Name:    bestName,
		Score:   bestScore,
		Matched: bestScore > threshold,
	}
}

// Replace discards the current contents and repopulates the index from an
// ordered snapshot. Used once at startup after a successful store load.
func (ix *Index) Replace(snapshot []Enrollment) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.names = nil
	ix.vectors = make(map[string][][]float32, len(snapshot))
	for _, e := range snapshot {
		if _, ok := ix.vectors[e.Name]; !ok {
			ix.names = append(ix.names, e.Name)
		}
		ix.vectors[e.Name] = append(ix.vectors[e.Name], e.Embedding)
	}
}

// Identities returns the number of distinct enrolled identities.
func (ix *Index) Identities() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.names)
}

// Vectors returns the total number of enrolled embedding vectors.
func (ix *Index) Vectors() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	total := 0
	for _, vecs := range ix.vectors {
		total += len(vecs)
	}
	return total
}

// VectorsFor returns the number of vectors enrolled for a single identity.
func (ix *Index) VectorsFor(name string) int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.vectors[name])
}
