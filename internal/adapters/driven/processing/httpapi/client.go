// Package httpapi provides the processing service adapter over HTTP.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docflow/internal/core/domain"
	"github.com/custodia-labs/docflow/internal/core/ports/driven"
	"github.com/custodia-labs/docflow/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.ProcessingService = (*Client)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:8000"
	DefaultTimeout = 60 * time.Second

	// HeaderRequestID correlates client requests with service logs.
	HeaderRequestID = "X-Request-ID"

	// maxErrorBody bounds how much of an error response is kept.
	maxErrorBody = 64 << 10
)

// Config holds configuration for the HTTP processing service client.
type Config struct {
	// BaseURL is the service root (default: http://localhost:8000).
	BaseURL string

	// Collection is the route prefix (default: jobs).
	Collection domain.Collection

	// Timeout is the per-request timeout (default: 60s).
	Timeout time.Duration

	// RateLimit is the maximum requests per second. Zero disables limiting.
	RateLimit float64

	// HTTPClient overrides the default client. Timeout is ignored when set.
	HTTPClient *http.Client
}

// ConfigFromSettings builds a Config from client settings.
func ConfigFromSettings(s domain.ServerSettings) Config {
	return Config{
		BaseURL:    s.BaseURL,
		Collection: s.Collection,
		Timeout:    s.Timeout,
		RateLimit:  s.RateLimit,
	}
}

// Client talks to the processing service. It never retries.
type Client struct {
	client  *http.Client
	root    string
	limiter *RateLimiter
}

// NewClient creates a new processing service client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Collection == "" {
		cfg.Collection = domain.CollectionJobs
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		client:  httpClient,
		root:    strings.TrimRight(cfg.BaseURL, "/") + "/" + url.PathEscape(cfg.Collection.String()),
		limiter: NewRateLimiter(cfg.RateLimit),
	}
}

// Submit uploads a file as the multipart field "file".
func (c *Client) Submit(ctx context.Context, file domain.FileUpload) (*domain.JobSnapshot, error) {
	body, contentType, err := multipartBody(file)
	if err != nil {
		return nil, fmt.Errorf("encode upload: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/parse", body, contentType)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload jobPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}
	snap := payload.snapshot()
	if snap.DisplayName == "" {
		snap.DisplayName = file.Name
	}
	return &snap, nil
}

// ListAll returns every job the service holds.
func (c *Client) ListAll(ctx context.Context) ([]domain.JobSnapshot, error) {
	resp, err := c.do(ctx, http.MethodGet, "/all", nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read job list: %w", err)
	}
	snapshots, err := decodeSnapshots(data)
	if err != nil {
		return nil, fmt.Errorf("decode job list: %w", err)
	}
	return snapshots, nil
}

// FetchText returns the extracted text of a job.
func (c *Client) FetchText(ctx context.Context, id string) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/"+url.PathEscape(id)+"/text", nil, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var payload textPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode text response: %w", err)
	}
	return payload.Text, nil
}

// Remove deletes a job. A 404 means it is already gone.
func (c *Client) Remove(ctx context.Context, id string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/"+url.PathEscape(id), nil, "")
	if IsNotFound(err) {
		logger.Debug("delete %s: already gone", id)
		return nil
	}
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// FetchArtifact streams the original upload or the converted PDF.
func (c *Client) FetchArtifact(ctx context.Context, id string, kind domain.ArtifactKind) (io.ReadCloser, error) {
	var suffix string
	switch kind {
	case domain.ArtifactOriginal:
		suffix = "/original"
	case domain.ArtifactConverted:
		suffix = "/pdf"
	default:
		return nil, fmt.Errorf("%w: unknown artifact %q", domain.ErrInvalidInput, kind)
	}

	resp, err := c.do(ctx, http.MethodGet, "/"+url.PathEscape(id)+suffix, nil, "")
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// do sends one request. Non-2xx responses are returned as *APIError with
// the body already consumed.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.root+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	requestID := uuid.NewString()
	req.Header.Set(HeaderRequestID, requestID)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, req.URL.Path, err)
	}
	logger.Debug("%s %s -> %d (%s, request %s)", method, req.URL.Path, resp.StatusCode, time.Since(start).Round(time.Millisecond), requestID)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(data),
			URL:        req.URL.String(),
		}
	}
	return resp, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// multipartBody encodes the file with its declared content type; the
// service decides PDF versus DOCX handling from that header.
func multipartBody(file domain.FileUpload) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(file.Name)))
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
