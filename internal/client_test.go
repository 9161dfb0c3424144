package internal

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// fakeFilesAPI serves the resumable upload and file status endpoints
type fakeFilesAPI struct {
	t *testing.T

	mu       sync.Mutex
	body     []byte
	meta     string
	headers  http.Header
	statuses []string
	gets     int
}

func (f *fakeFilesAPI) handler(serverURL *string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload/v1beta/files", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "test-key" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = io.WriteString(w, `{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`)
			return
		}
		raw, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.meta = string(raw)
		f.headers = r.Header.Clone()
		f.mu.Unlock()
		w.Header().Set("X-Goog-Upload-URL", *serverURL+"/resumable/session-1")
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /resumable/session-1", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Goog-Upload-Command"); got != "upload, finalize" {
			f.t.Errorf("upload command = %q, want upload, finalize", got)
		}
		raw, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.body = raw
		f.mu.Unlock()
		_, _ = io.WriteString(w, `{"file":{"name":"files/abc123","displayName":"report.pdf","mimeType":"application/pdf",
			"sizeBytes":"4","uri":"https://generativelanguage.googleapis.com/v1beta/files/abc123",
			"state":"PROCESSING","expirationTime":"2026-06-03T00:00:00Z"}}`)
	})
	mux.HandleFunc("GET /v1beta/files/abc123", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		state := "ACTIVE"
		if f.gets < len(f.statuses) {
			state = f.statuses[f.gets]
		}
		f.gets++
		f.mu.Unlock()
		body := `{"name":"files/abc123","state":"` + state + `"`
		if state == "FAILED" {
			body += `,"error":{"code":400,"message":"could not process"}`
		}
		_, _ = io.WriteString(w, body+"}")
	})
	return mux
}

func newTestGeminiClient(t *testing.T, api *fakeFilesAPI, key string) *GeminiClient {
	t.Helper()
	var serverURL string
	server := httptest.NewServer(api.handler(&serverURL))
	t.Cleanup(server.Close)
	serverURL = server.URL

	client, err := NewGeminiClient(GeminiClientConfig{APIKey: key, BaseURL: server.URL + "/", HTTPClient: server.Client()})
	if err != nil {
		t.Fatalf("NewGeminiClient() error = %v", err)
	}
	return client
}

func TestGeminiClientCreateAndUpload(t *testing.T) {
	api := &fakeFilesAPI{t: t}
	client := newTestGeminiClient(t, api, "test-key")

	ref, err := client.CreateAndUpload(context.Background(), []byte("%PDF"), "report.pdf", "application/pdf")
	if err != nil {
		t.Fatalf("CreateAndUpload() error = %v", err)
	}
	if ref.Name != "files/abc123" || ref.State != FileStateProcessing || ref.SizeBytes != 4 {
		t.Errorf("CreateAndUpload() = %+v", ref)
	}
	if ref.ExpiresAt == nil || ref.ExpiresAt.Year() != 2026 {
		t.Errorf("CreateAndUpload().ExpiresAt = %v, want the expiration time", ref.ExpiresAt)
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	if string(api.body) != "%PDF" {
		t.Errorf("uploaded body = %q, want %%PDF", api.body)
	}
	if !strings.Contains(api.meta, `"display_name":"report.pdf"`) {
		t.Errorf("start metadata = %s, want the display name", api.meta)
	}
	for header, want := range map[string]string{
		"X-Goog-Upload-Protocol":              "resumable",
		"X-Goog-Upload-Command":               "start",
		"X-Goog-Upload-Header-Content-Length": "4",
		"X-Goog-Upload-Header-Content-Type":   "application/pdf",
	} {
		if got := api.headers.Get(header); got != want {
			t.Errorf("start header %s = %q, want %q", header, got, want)
		}
	}
}

func TestGeminiClientFetchByName(t *testing.T) {
	api := &fakeFilesAPI{t: t, statuses: []string{"PROCESSING", "FAILED"}}
	client := newTestGeminiClient(t, api, "test-key")

	tests := []struct {
		name      string
		wantState FileState
		wantError string
	}{
		{"files/abc123", FileStateProcessing, ""},
		{"abc123", FileStateFailed, "could not process"},
		{"files/abc123", FileStateActive, ""},
	}
	for _, tt := range tests {
		ref, err := client.FetchByName(context.Background(), tt.name)
		if err != nil {
			t.Fatalf("FetchByName(%q) error = %v", tt.name, err)
		}
		if ref.State != tt.wantState || ref.Error != tt.wantError {
			t.Errorf("FetchByName(%q) = (%v, %q), want (%v, %q)", tt.name, ref.State, ref.Error, tt.wantState, tt.wantError)
		}
	}
}

func TestGeminiClientAPIError(t *testing.T) {
	api := &fakeFilesAPI{t: t}
	client := newTestGeminiClient(t, api, "wrong-key")

	_, err := client.CreateAndUpload(context.Background(), []byte("x"), "x.txt", "text/plain")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("CreateAndUpload() error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusForbidden || apiErr.Message != "API key not valid" {
		t.Errorf("APIError = %+v, want 403 with the service message", apiErr)
	}
}

func TestGeminiClientNotFound(t *testing.T) {
	api := &fakeFilesAPI{t: t}
	client := newTestGeminiClient(t, api, "test-key")

	_, err := client.FetchByName(context.Background(), "files/missing")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("FetchByName() error = %v, want a 404 *APIError", err)
	}
}

func TestNewGeminiClient(t *testing.T) {
	if _, err := NewGeminiClient(GeminiClientConfig{}); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("NewGeminiClient() without key error = %v, want ErrMissingAPIKey", err)
	}

	client, err := NewGeminiClient(GeminiClientConfig{APIKey: "k", Proxy: "::not a url"})
	if err != nil {
		t.Fatalf("NewGeminiClient() with a bad proxy error = %v, want it ignored", err)
	}
	if client.baseURL != DefaultBaseURL || client.apiVersion != DefaultAPIVersion {
		t.Errorf("NewGeminiClient() defaults = (%q, %q)", client.baseURL, client.apiVersion)
	}
}

func TestHandleFromRef(t *testing.T) {
	ref := RemoteObjectRef{Name: "files/a", URI: "https://x/files/a", MimeType: "image/png", State: FileStateActive}
	handle := (&GeminiClient{}).HandleForCachedRef(ref)
	if handle != (FileHandle{Name: "files/a", URI: "https://x/files/a", MimeType: "image/png"}) {
		t.Errorf("HandleForCachedRef() = %+v", handle)
	}
}
