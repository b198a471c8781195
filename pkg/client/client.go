package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/autodoc-cli/autodoc/pkg/domain"
)

const (
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 1 << 20 // 1 MB
)

// maxPDFSize caps a generated PDF. Larger responses are rejected rather
// than truncated.
var maxPDFSize int64 = 64 << 20 // 64 MB

// TokenSource supplies the bearer token attached to protected requests.
// An empty token means no session.
type TokenSource interface {
	Token() string
}

// Client is the documentation backend API client.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	log        *slog.Logger
	// limiter spaces out requests; nil means unlimited.
	limiter *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithRateLimit caps outgoing requests at r per second with the given
// burst. A request waits for its turn or fails when its context ends.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(c *Client) {
		if r > 0 && burst > 0 {
			c.limiter = rate.NewLimiter(r, burst)
		}
	}
}

// New creates a new API client. tokens may be nil for a client that only
// talks to public endpoints.
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		log: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (*domain.LoginResponse, error) {
	var resp domain.LoginResponse
	if err := c.doRequest(ctx, call{method: http.MethodPost, path: "/api/login/", body: creds}, &resp); err != nil {
		return nil, fmt.Errorf("client.Login: %w", err)
	}
	return &resp, nil
}

// Signup registers a new account. Any 2xx is a confirmation.
func (c *Client) Signup(ctx context.Context, req domain.SignupRequest) error {
	if err := c.doRequest(ctx, call{method: http.MethodPost, path: "/api/signup/", body: req}, nil); err != nil {
		return fmt.Errorf("client.Signup: %w", err)
	}
	return nil
}

// Dashboard returns the authenticated user's profile. It fails with
// ErrNoToken without touching the network when there is no session.
func (c *Client) Dashboard(ctx context.Context) (*domain.Profile, error) {
	var p domain.Profile
	if err := c.doRequest(ctx, call{method: http.MethodGet, path: "/api/dashboard/", auth: true, requireAuth: true}, &p); err != nil {
		return nil, fmt.Errorf("client.Dashboard: %w", err)
	}
	return &p, nil
}

// UploadFile uploads the file at path and returns the generated documentation.
func (c *Client) UploadFile(ctx context.Context, path string) (*domain.Documentation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("client.UploadFile: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only

	doc, err := c.Upload(ctx, filepath.Base(path), f)
	if err != nil {
		return nil, fmt.Errorf("client.UploadFile: %w", err)
	}
	return doc, nil
}

// Upload sends r as the multipart field "file" and returns the generated
// documentation.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (*domain.Documentation, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("client.Upload: create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("client.Upload: read file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("client.Upload: close multipart: %w", err)
	}

	var doc domain.Documentation
	err = c.doRequest(ctx, call{
		method:      http.MethodPost,
		path:        "/api/upload/",
		raw:         &buf,
		contentType: mw.FormDataContentType(),
		auth:        true,
	}, &doc)
	if err != nil {
		return nil, fmt.Errorf("client.Upload: %w", err)
	}
	return &doc, nil
}

// GeneratePDF renders documentation into a PDF and returns its bytes.
func (c *Client) GeneratePDF(ctx context.Context, doc domain.Documentation) ([]byte, error) {
	resp, err := c.send(ctx, call{method: http.MethodPost, path: "/api/generate-pdf/", body: doc, auth: true})
	if err != nil {
		return nil, fmt.Errorf("client.GeneratePDF: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPDFSize+1))
	if err != nil {
		return nil, fmt.Errorf("client.GeneratePDF: read body: %w", err)
	}
	switch {
	case len(data) == 0:
		return nil, fmt.Errorf("client.GeneratePDF: %w", ErrEmptyPDF)
	case int64(len(data)) > maxPDFSize:
		return nil, fmt.Errorf("client.GeneratePDF: %w", ErrPDFTooLarge)
	}
	return data, nil
}

// call describes one request. body is JSON-encoded; raw is sent as-is with
// contentType.
type call struct {
	method      string
	path        string
	body        any
	raw         io.Reader
	contentType string
	auth        bool
	requireAuth bool
}

func (c *Client) doRequest(ctx context.Context, cl call, out any) error {
	resp, err := c.send(ctx, cl)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// send issues the request and returns the response for 2xx/3xx statuses.
// The caller owns the body.
func (c *Client) send(ctx context.Context, cl call) (*http.Response, error) {
	token := ""
	if cl.auth && c.tokens != nil {
		token = c.tokens.Token()
	}
	if cl.requireAuth && token == "" {
		return nil, ErrNoToken
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	reqBody := cl.raw
	contentType := cl.contentType
	if cl.body != nil {
		data, err := json.Marshal(cl.body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	log := c.log.With(
		slog.String("method", cl.method),
		slog.String("path", cl.path),
		slog.String("request_id", requestID),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn("request failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("do request: %w", err)
	}
	log.Debug("request completed",
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode >= 400 {
		defer resp.Body.Close() //nolint:errcheck // best-effort close
		return nil, readHTTPError(resp)
	}
	return resp, nil
}

func readHTTPError(resp *http.Response) error {
	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if readErr != nil {
		return &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", readErr)}
	}
	var apiErr struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
		return &HTTPError{StatusCode: resp.StatusCode, Message: apiErr.Error, FromBackend: true}
	}
	msg := strings.TrimSpace(string(respBody))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &HTTPError{StatusCode: resp.StatusCode, Message: msg}
}
