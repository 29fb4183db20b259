// Package handlers contains the HTTP handlers of the verification API.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxUploadSize bounds a single multipart upload.
const maxUploadSize = 10 << 20 // 10 MB

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// readImageFile extracts the uploaded image bytes from a multipart form.
func readImageFile(r *http.Request) ([]byte, error) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return nil, errors.New("invalid multipart form")
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, errors.New("missing file field")
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		return nil, fmt.Errorf("file too large: %d bytes", header.Size)
	}

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
	if err != nil {
		return nil, errors.New("failed to read uploaded file")
	}
	if len(data) == 0 {
		return nil, errors.New("uploaded file is empty")
	}
	if len(data) > maxUploadSize {
		return nil, errors.New("file too large")
	}
	return data, nil
}
