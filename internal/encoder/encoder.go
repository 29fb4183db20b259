// Package encoder talks to the external face-encoder inference service.
// The service owns the model weights; this client owns preprocessing and
// the wire contract: preprocessed image in, fixed-length unit-normalized
// embedding out.
package encoder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "http://localhost:8100"
	defaultTimeout = 10 * time.Second

	embedEndpoint  = "/embed/face"
	healthEndpoint = "/healthz"
)

// ErrModelUnavailable indicates the encoder service cannot be reached or
// has no model loaded. Requests surface it as a structured "model not
// ready" error; the process keeps serving.
var ErrModelUnavailable = errors.New("encoder model unavailable")

// Client computes face embeddings using the encoder service.
type Client struct {
	baseURL string
	dim     int
	client  *http.Client
}

// NewClient creates an encoder client. dim is the embedding dimension the
// service is expected to produce; responses with any other dimension are a
// contract breach and rejected.
func NewClient(baseURL string, dim int, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		dim:     dim,
		client:  &http.Client{Timeout: timeout},
	}
}

// embedResponse represents the response from the encoder service.
type embedResponse struct {
	Dim       int       `json:"dim"`
	Embedding []float32 `json:"embedding"`
}

// Extract preprocesses the raw image and posts it to the encoder,
// returning the embedding vector. Connection failures and encoder 5xx
// responses map to ErrModelUnavailable; undecodable input surfaces the
// preprocessing error.
func (c *Client) Extract(ctx context.Context, imageData []byte) ([]float32, error) {
	prepared, err := Preprocess(imageData)
	if err != nil {
		return nil, err
	}

	body, err := c.postMultipartImage(ctx, embedEndpoint, prepared)
	if err != nil {
		return nil, err
	}

	var resp embedResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse encoder response: %w", err)
	}

	if len(resp.Embedding) != c.dim {
		return nil, fmt.Errorf("encoder returned %d-dim embedding, expected %d", len(resp.Embedding), c.dim)
	}

	return resp.Embedding, nil
}

// Ready probes the encoder health endpoint. A non-nil error means the
// model is not ready to serve.
func (c *Client) Ready(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthEndpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health check returned status %d", ErrModelUnavailable, resp.StatusCode)
	}
	return nil
}

// postMultipartImage constructs a multipart form with the image data and
// posts it to the given endpoint.
func (c *Client) postMultipartImage(ctx context.Context, endpoint string, imageData []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "face.jpg")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: encoder returned status %d: %s", ErrModelUnavailable, resp.StatusCode, string(body))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("encoder error (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}
