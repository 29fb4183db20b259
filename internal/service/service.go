// Package service implements the enrollment and verification flows on
// top of the liveness gate, the embedding extractor and the identity index.
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/veriface/veriface/internal/config"
	"github.com/veriface/veriface/internal/encoder"
	"github.com/veriface/veriface/internal/index"
	"github.com/veriface/veriface/internal/liveness"
	"github.com/veriface/veriface/internal/store"
)

// Sentinel names reported to callers instead of an identity.
const (
	SpoofName = "Spoof Suspected"
	ErrorName = "Error"
)

// Extractor turns raw image bytes into a face embedding.
type Extractor interface {
	Extract(ctx context.Context, imageData []byte) ([]float32, error)
	Ready(ctx context.Context) error
}

// RegisterResult is the outcome of an enrollment request.
type RegisterResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// VerifyResult is the outcome of a verification request.
type VerifyResult struct {
	Match bool    `json:"match"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
	Error string  `json:"error,omitempty"`
}

// Service wires the pipeline together. All dependencies are injected;
// the service holds no state of its own beyond them.
type Service struct {
	cfg       *config.Config
	log       *zap.Logger
	gate      *liveness.Gate
	extractor Extractor
	index     *index.Index
	store     store.Store
}

// New creates a service from its dependencies.
func New(cfg *config.Config, log *zap.Logger, gate *liveness.Gate, extractor Extractor, idx *index.Index, st store.Store) *Service {
	return &Service{
		cfg:       cfg,
		log:       log,
		gate:      gate,
		extractor: extractor,
		index:     idx,
		store:     st,
	}
}

// Register enrolls one face image under the given name. The in-memory
// index is the source of truth for the response; the durable store is
// updated best-effort and a write failure only degrades persistence,
// never the enrollment itself.
func (s *Service) Register(ctx context.Context, name string, image []byte) RegisterResult {
	if name == "" {
		return RegisterResult{Status: "error", Message: "name is required"}
	}

	if err := s.extractor.Ready(ctx); err != nil {
		s.log.Warn("encoder not ready", zap.Error(err))
		return RegisterResult{Status: "error", Message: "model not ready"}
	}

	embedding, err := s.extract(ctx, image)
	if err != nil {
		s.log.Warn("embedding extraction failed",
			zap.String("name", name),
			zap.Error(err))
		return RegisterResult{Status: "error", Message: fmt.Sprintf("could not extract embedding: %v", err)}
	}

	s.index.Enroll(name, embedding)

	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Store.Timeout)
	defer cancel()
	if err := s.store.Append(storeCtx, name, embedding); err != nil {
		// Cache-only degradation: the enrollment stays live in memory.
		s.log.Warn("store append failed, continuing with in-memory enrollment only",
			zap.String("name", name),
			zap.Error(err))
	}

	return RegisterResult{Status: "success", Message: fmt.Sprintf("face registered for %s", name)}
}

// Verify runs the full pipeline on one probe image: liveness gate,
// embedding extraction, nearest-identity match. The gate runs before the
// extractor so spoofed frames never reach the encoder.
func (s *Service) Verify(ctx context.Context, image []byte) VerifyResult {
	if err := s.extractor.Ready(ctx); err != nil {
		s.log.Warn("encoder not ready", zap.Error(err))
		return VerifyResult{Match: false, Name: ErrorName, Score: -1.0, Error: "model not ready"}
	}

	verdict := s.gate.Evaluate(image)
	if !verdict.Passed {
		s.log.Info("liveness gate rejected probe",
			zap.Float64("sharpness", verdict.Score),
			zap.Float64("threshold", s.gate.Threshold))
		return VerifyResult{Match: false, Name: SpoofName, Score: -1.0, Error: "liveness check failed"}
	}

	embedding, err := s.extract(ctx, image)
	if err != nil {
		s.log.Warn("embedding extraction failed during verify", zap.Error(err))
		if errors.Is(err, encoder.ErrModelUnavailable) {
			return VerifyResult{Match: false, Name: ErrorName, Score: -1.0, Error: "model not ready"}
		}
		return VerifyResult{Match: false, Name: ErrorName, Score: -1.0, Error: fmt.Sprintf("could not extract embedding: %v", err)}
	}

	result := s.index.Match(embedding, s.cfg.Match.Threshold)
	return VerifyResult{Match: result.Matched, Name: result.Name, Score: result.Score}
}

// Identities reports the number of distinct enrolled identities.
func (s *Service) Identities() int {
	return s.index.Identities()
}

// extract calls the encoder with its own timeout so a stuck inference
// service cannot pin a request forever.
func (s *Service) extract(ctx context.Context, image []byte) ([]float32, error) {
	s.log.Debug("extracting embedding", zap.Int("image_bytes", len(image)))
	extractCtx, cancel := context.WithTimeout(ctx, s.cfg.Encoder.Timeout)
	defer cancel()
	return s.extractor.Extract(extractCtx, image)
}
