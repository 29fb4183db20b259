package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/veriface/veriface/internal/service"
)

// FaceService is the slice of the service layer the handlers need.
type FaceService interface {
	Register(ctx context.Context, name string, image []byte) service.RegisterResult
	Verify(ctx context.Context, image []byte) service.VerifyResult
	Identities() int
}

// FacesHandler handles enrollment and verification endpoints.
type FacesHandler struct {
	service FaceService
	log     *zap.Logger
}

// NewFacesHandler creates a new faces handler.
func NewFacesHandler(svc FaceService, log *zap.Logger) *FacesHandler {
	return &FacesHandler{
		service: svc,
		log:     log,
	}
}

// Register handles POST /register: multipart form with `name` and `file`.
func (h *FacesHandler) Register(w http.ResponseWriter, r *http.Request) {
	image, err := readImageFile(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	name := r.FormValue("name")
	if name == "" {
		respondError(w, http.StatusBadRequest, "missing name field")
		return
	}

	result := h.service.Register(r.Context(), name, image)
	if result.Status != "success" {
		h.log.Warn("registration rejected",
			zap.String("name", sanitizeForLog(name)),
			zap.String("reason", result.Message))
		respondJSON(w, http.StatusUnprocessableEntity, result)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Verify handles POST /verify: multipart form with `file`. The response
// is always a well-formed verification payload; pipeline failures are
// reported inside it rather than as transport errors.
func (h *FacesHandler) Verify(w http.ResponseWriter, r *http.Request) {
	image, err := readImageFile(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := h.service.Verify(r.Context(), image)
	respondJSON(w, http.StatusOK, result)
}

// Health handles GET /health.
func (h *FacesHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"identities": h.service.Identities(),
	})
}
