package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultBaseURL    = "https://generativelanguage.googleapis.com"
	DefaultAPIVersion = "v1beta"
	defaultTimeout    = 60 * time.Second
)

// FileHandle is what request construction needs to reference a remote object
type FileHandle struct {
	Name     string `json:"name" yaml:"name"`
	URI      string `json:"uri" yaml:"uri"`
	MimeType string `json:"mime_type" yaml:"mime_type"`
}

// RemoteClient is the subset of the remote file API the pipeline uses
type RemoteClient interface {
	// CreateAndUpload submits data and returns the pending object
	CreateAndUpload(ctx context.Context, data []byte, displayName, contentType string) (RemoteObjectRef, error)
	// FetchByName returns the current metadata of an object
	FetchByName(ctx context.Context, name string) (RemoteObjectRef, error)
	// HandleForCachedRef turns a cached reference into a usable handle
	HandleForCachedRef(ref RemoteObjectRef) FileHandle
}

// GeminiClientConfig configures GeminiClient
type GeminiClientConfig struct {
	APIKey     string
	BaseURL    string
	APIVersion string
	Proxy      string
	Timeout    time.Duration
	// HTTPClient replaces the default instrumented client when set
	HTTPClient *http.Client
}

// GeminiClient talks to the Gemini Files API
type GeminiClient struct {
	apiKey     string
	baseURL    string
	apiVersion string
	http       *http.Client
}

// NewGeminiClient creates a new GeminiClient
func NewGeminiClient(cfg GeminiClientConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if cfg.Proxy != "" {
			if proxyURL, err := url.Parse(cfg.Proxy); err != nil || proxyURL.Host == "" {
				LogError("Invalid proxy URL %q, ignoring it", cfg.Proxy)
			} else {
				transport.Proxy = http.ProxyURL(proxyURL)
			}
		}
		httpClient = &http.Client{
			Transport: otelhttp.NewTransport(transport),
			Timeout:   cfg.Timeout,
		}
	}

	return &GeminiClient{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiVersion: cfg.APIVersion,
		http:       httpClient,
	}, nil
}

// apiFile is the File resource as returned by the service
type apiFile struct {
	Name           string     `json:"name"`
	DisplayName    string     `json:"displayName,omitempty"`
	MimeType       string     `json:"mimeType,omitempty"`
	SizeBytes      int64      `json:"sizeBytes,string,omitempty"`
	URI            string     `json:"uri,omitempty"`
	State          FileState  `json:"state,omitempty"`
	ExpirationTime *time.Time `json:"expirationTime,omitempty"`
	Error          *apiStatus `json:"error,omitempty"`
}

type apiStatus struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Status  string `json:"status,omitempty"`
}

func (f apiFile) toRef() RemoteObjectRef {
	ref := RemoteObjectRef{
		Name:        f.Name,
		DisplayName: f.DisplayName,
		URI:         f.URI,
		MimeType:    f.MimeType,
		SizeBytes:   f.SizeBytes,
		State:       f.State,
		ExpiresAt:   f.ExpirationTime,
	}
	if ref.State == "" {
		ref.State = FileStateUnspecified
	}
	if f.Error != nil {
		ref.Error = f.Error.Message
	}
	return ref
}

// CreateAndUpload runs the resumable upload protocol: a start request that
// carries the metadata, then a single upload-and-finalize request with the bytes.
func (c *GeminiClient) CreateAndUpload(ctx context.Context, data []byte, displayName, contentType string) (RemoteObjectRef, error) {
	meta, err := json.Marshal(map[string]any{"file": map[string]string{"display_name": displayName}})
	if err != nil {
		return RemoteObjectRef{}, fmt.Errorf("failed to marshal file metadata: %w", err)
	}

	startURL := fmt.Sprintf("%s/upload/%s/files", c.baseURL, c.apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, startURL, bytes.NewReader(meta))
	if err != nil {
		return RemoteObjectRef{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Upload-Protocol", "resumable")
	req.Header.Set("X-Goog-Upload-Command", "start")
	req.Header.Set("X-Goog-Upload-Header-Content-Length", strconv.Itoa(len(data)))
	req.Header.Set("X-Goog-Upload-Header-Content-Type", contentType)

	resp, err := c.do(req)
	if err != nil {
		return RemoteObjectRef{}, fmt.Errorf("upload start failed: %w", err)
	}
	uploadURL := resp.Header.Get("X-Goog-Upload-URL")
	_ = resp.Body.Close()
	if uploadURL == "" {
		return RemoteObjectRef{}, fmt.Errorf("upload start failed: response carried no upload URL")
	}

	req, err = http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, bytes.NewReader(data))
	if err != nil {
		return RemoteObjectRef{}, err
	}
	req.ContentLength = int64(len(data))
	req.Header.Set("X-Goog-Upload-Offset", "0")
	req.Header.Set("X-Goog-Upload-Command", "upload, finalize")

	resp, err = c.do(req)
	if err != nil {
		return RemoteObjectRef{}, fmt.Errorf("upload finalize failed: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		File apiFile `json:"file"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return RemoteObjectRef{}, fmt.Errorf("failed to decode upload response: %w", err)
	}
	if body.File.Name == "" {
		return RemoteObjectRef{}, fmt.Errorf("upload response carried no file name")
	}
	return body.File.toRef(), nil
}

// FetchByName returns the current metadata of the named file ("files/abc")
func (c *GeminiClient) FetchByName(ctx context.Context, name string) (RemoteObjectRef, error) {
	if !strings.HasPrefix(name, "files/") {
		name = "files/" + name
	}
	getURL := fmt.Sprintf("%s/%s/%s", c.baseURL, c.apiVersion, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, getURL, nil)
	if err != nil {
		return RemoteObjectRef{}, err
	}

	resp, err := c.do(req)
	if err != nil {
		return RemoteObjectRef{}, err
	}
	defer resp.Body.Close()

	var file apiFile
	if err := json.NewDecoder(resp.Body).Decode(&file); err != nil {
		return RemoteObjectRef{}, fmt.Errorf("failed to decode file %s: %w", name, err)
	}
	return file.toRef(), nil
}

// HandleForCachedRef builds a handle without any network I/O
func (c *GeminiClient) HandleForCachedRef(ref RemoteObjectRef) FileHandle {
	return HandleFromRef(ref)
}

// HandleFromRef builds a FileHandle from a reference
func HandleFromRef(ref RemoteObjectRef) FileHandle {
	return FileHandle{Name: ref.Name, URI: ref.URI, MimeType: ref.MimeType}
}

// do sends req with the API key and turns non-2xx responses into *APIError.
// The caller closes the body of successful responses.
func (c *GeminiClient) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("x-goog-api-key", c.apiKey)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	apiErr := &APIError{StatusCode: resp.StatusCode, Status: resp.Status}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Error apiStatus `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Error.Message != "" {
		apiErr.Message = body.Error.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	return nil, apiErr
}
