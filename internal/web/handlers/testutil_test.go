package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/veriface/veriface/internal/service"
)

// fakeFaceService is a scripted FaceService for handler tests.
type fakeFaceService struct {
	registerResult service.RegisterResult
	verifyResult   service.VerifyResult
	identities     int

	lastName  string
	lastImage []byte
}

func (f *fakeFaceService) Register(ctx context.Context, name string, image []byte) service.RegisterResult {
	f.lastName = name
	f.lastImage = image
	return f.registerResult
}

func (f *fakeFaceService) Verify(ctx context.Context, image []byte) service.VerifyResult {
	f.lastImage = image
	return f.verifyResult
}

func (f *fakeFaceService) Identities() int {
	return f.identities
}

// multipartRequest builds a multipart request with an optional name field
// and an optional file payload.
func multipartRequest(t *testing.T, path, name string, file []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if name != "" {
		if err := writer.WriteField("name", name); err != nil {
			t.Fatalf("failed to write name field: %v", err)
		}
	}
	if file != nil {
		part, err := writer.CreateFormFile("file", "probe.jpg")
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		if _, err := io.Copy(part, bytes.NewReader(file)); err != nil {
			t.Fatalf("failed to write file content: %v", err)
		}
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}
