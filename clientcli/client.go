package clientcli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout is the default HTTP client timeout.
const DefaultTimeout = 30 * time.Second

// Client performs operations against a lockbox server.
type Client struct {
	config     *Config
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// New creates a new Client with the given config and options.
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}

	cfg = cfg.WithDefaults()

	c := &Client{
		config: &Config{
			Endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
			Password: cfg.Password,
		},
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// password picks the explicit password, falling back to the configured one.
func (c *Client) password(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if c.config.Password != "" {
		return c.config.Password, nil
	}
	return "", ErrPasswordRequired
}

// Upload uploads each file as one item named after its base name.
// Continues on error, collecting results for all paths.
func (c *Client) Upload(ctx context.Context, opts UploadOptions) ([]UploadResult, error) {
	if len(opts.Paths) == 0 {
		return nil, ErrNoPaths
	}
	if opts.Name != "" && len(opts.Paths) > 1 {
		return nil, ErrNameWithMany
	}

	password, err := c.password(opts.Password)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}

	results := make([]UploadResult, 0, len(opts.Paths))
	for _, path := range opts.Paths {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		name := opts.Name
		if name == "" {
			name = filepath.Base(path)
		}

		result, uploadErr := c.uploadSingle(ctx, path, name, password)
		if uploadErr != nil {
			result = UploadResult{LocalPath: path, Filename: name, Err: uploadErr}
		}
		results = append(results, result)
	}

	return results, nil
}

func (c *Client) uploadSingle(ctx context.Context, localPath, name, password string) (UploadResult, error) {
	content, err := os.ReadFile(localPath) //#nosec G304 -- localPath is user-provided input
	if err != nil {
		return UploadResult{}, fmt.Errorf("read file: %w", err)
	}

	resp, err := c.UploadContent(ctx, name, string(content), password)
	if err != nil {
		return UploadResult{}, err
	}

	resp.LocalPath = localPath
	resp.Size = int64(len(content))
	return resp, nil
}

// UploadContent stores content under name.
func (c *Client) UploadContent(ctx context.Context, name, content, password string) (UploadResult, error) {
	if name == "" {
		return UploadResult{}, fmt.Errorf("upload: %w", ErrEmptyFilename)
	}

	password, err := c.password(password)
	if err != nil {
		return UploadResult{}, fmt.Errorf("upload: %w", err)
	}

	payload, err := json.Marshal(map[string]string{
		"filename": name,
		"content":  content,
		"password": password,
	})
	if err != nil {
		return UploadResult{}, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint+"/api/upload", bytes.NewReader(payload))
	if err != nil {
		return UploadResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out serverUploadResponse
	if err := c.doJSON(req, &out); err != nil {
		return UploadResult{}, err
	}

	return UploadResult{
		Filename: out.Filename,
		FileLink: out.FileLink,
		Size:     int64(len(content)),
	}, nil
}

// Read fetches the content of one item.
func (c *Client) Read(ctx context.Context, filename, password string) (*ReadResult, error) {
	if filename == "" {
		return nil, fmt.Errorf("read: %w", ErrEmptyFilename)
	}

	password, err := c.password(password)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	query := url.Values{}
	query.Set("filename", filename)
	query.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.Endpoint+"/api/read?"+query.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	var out serverReadResponse
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}

	return &ReadResult{
		Filename: filename,
		Content:  out.Content,
		FileLink: out.FileLink,
	}, nil
}

// Search lists every stored filename.
func (c *Client) Search(ctx context.Context) (*SearchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint+"/api/search", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	names := make([]string, 0)
	if err := c.doJSON(req, &names); err != nil {
		return nil, err
	}

	return &SearchResult{Filenames: names}, nil
}

// Download downloads one item.
// If opts.LocalPath is "-", the content is returned via the io.ReadCloser and must be closed by the caller.
// Otherwise, the content is written to the file and the io.ReadCloser is nil.
func (c *Client) Download(ctx context.Context, opts DownloadOptions) (*DownloadResult, io.ReadCloser, error) {
	if opts.Filename == "" {
		return nil, nil, fmt.Errorf("download: %w", ErrEmptyFilename)
	}

	password, err := c.password(opts.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("download: %w", err)
	}

	target := c.config.Endpoint + "/download/" + url.PathEscape(opts.Filename) + "?" + url.Values{"password": {password}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, nil, parseServerError(resp.StatusCode, body)
	}

	result := &DownloadResult{
		Filename:    opts.Filename,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
	}

	// If stdout requested, return the body for the caller to handle
	if opts.LocalPath == "-" {
		result.LocalPath = "-"
		return result, resp.Body, nil
	}

	localPath := opts.LocalPath
	if localPath == "" {
		localPath = filepath.Base(opts.Filename)
	}
	result.LocalPath = localPath

	dir := filepath.Dir(localPath)
	if dir != "" && dir != "." {
		if mkdirErr := os.MkdirAll(dir, 0o750); mkdirErr != nil {
			_ = resp.Body.Close()
			return nil, nil, fmt.Errorf("create directory: %w", mkdirErr)
		}
	}

	file, createErr := os.Create(localPath) //#nosec G304 -- localPath is user-provided input
	if createErr != nil {
		_ = resp.Body.Close()
		return nil, nil, fmt.Errorf("create file: %w", createErr)
	}

	written, copyErr := io.Copy(file, resp.Body)
	_ = resp.Body.Close()
	if copyErr != nil {
		_ = file.Close()
		return nil, nil, fmt.Errorf("write file: %w", copyErr)
	}

	if closeErr := file.Close(); closeErr != nil {
		return nil, nil, fmt.Errorf("close file: %w", closeErr)
	}

	result.Size = written
	return result, nil, nil
}

// HasUploadErrors returns true if any upload failed.
func HasUploadErrors(results []UploadResult) bool {
	for _, r := range results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

// doJSON executes req and decodes a 200 JSON body into out.
func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return parseServerError(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// parseServerError extracts error message from server response.
func parseServerError(statusCode int, body []byte) error {
	apiErr := &APIError{
		StatusCode: statusCode,
		Body:       string(body),
	}

	var se serverError
	if json.Unmarshal(body, &se) == nil {
		apiErr.Code = se.Code
		apiErr.Message = se.Error
	}
	return apiErr
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	detail := e.Message
	if detail == "" {
		detail = e.Body
	}
	return "server error: " + strconv.Itoa(e.StatusCode) + " - " + detail
}

// Is reports whether target matches this error.
// It matches if target is an *APIError with the same StatusCode.
func (e *APIError) Is(target error) bool {
	var t *APIError
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return t.StatusCode == e.StatusCode
}

// IsNotFound returns true if the error is a 404.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Sentinel errors for common API error conditions.
// Use errors.Is() to check for these conditions.
var (
	// ErrNotFound is returned when no item has the filename (404).
	ErrNotFound = &APIError{StatusCode: http.StatusNotFound}

	// ErrUnauthorized is returned when the server asks for a session (401).
	ErrUnauthorized = &APIError{StatusCode: http.StatusUnauthorized}

	// ErrForbidden is returned when the password does not match (403).
	ErrForbidden = &APIError{StatusCode: http.StatusForbidden}

	// ErrBadRequest is returned when a required field is missing (400).
	ErrBadRequest = &APIError{StatusCode: http.StatusBadRequest}
)
