package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nhle/voicenote/internal/logging"
)

// TokenFunc returns the bearer token for the current user. An empty token
// (or an error) sends the request unauthenticated.
type TokenFunc func(ctx context.Context) (string, error)

// maxErrorText bounds how much of a plain-text error body is surfaced.
const maxErrorText = 300

// Client is a thin HTTP client for the voicenote backend. It handles
// Bearer token authentication, JSON and multipart encoding, request
// validation and error normalization. It never retries; retry policy
// belongs to the query cache.
type Client struct {
	baseURL    string
	token      TokenFunc
	httpClient *http.Client
	validate   *validator.Validate
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// Config holds the connection settings of a Client.
type Config struct {
	// BaseURL is the root URL of the API (e.g., http://localhost:8000);
	// endpoint paths start with /api.
	BaseURL string

	// Timeout bounds one request. Zero means 60 seconds.
	Timeout time.Duration
}

// NewClient creates a new backend client.
func NewClient(cfg Config, token TokenFunc, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root this client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// FilePart is a file sent in a multipart/form-data body.
type FilePart struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// request describes one API call.
type request struct {
	method   string
	path     string
	query    url.Values
	body     interface{}
	file     *FilePart
	fields   map[string]string
	fallback string
}

// Get performs an HTTP GET request and unmarshals the JSON response.
func (c *Client) Get(
	ctx context.Context,
	path string,
	query url.Values,
	fallback string,
	result interface{},
) error {
	return c.do(ctx, request{
		method: http.MethodGet, path: path, query: query, fallback: fallback,
	}, result)
}

// Post performs an HTTP POST request with a JSON body and unmarshals
// the JSON response.
func (c *Client) Post(
	ctx context.Context,
	path string,
	body interface{},
	fallback string,
	result interface{},
) error {
	return c.do(ctx, request{
		method: http.MethodPost, path: path, body: body, fallback: fallback,
	}, result)
}

// Put performs an HTTP PUT request with a JSON body.
func (c *Client) Put(
	ctx context.Context,
	path string,
	body interface{},
	fallback string,
	result interface{},
) error {
	return c.do(ctx, request{
		method: http.MethodPut, path: path, body: body, fallback: fallback,
	}, result)
}

// Delete performs an HTTP DELETE request.
func (c *Client) Delete(
	ctx context.Context,
	path string,
	fallback string,
	result interface{},
) error {
	return c.do(ctx, request{
		method: http.MethodDelete, path: path, fallback: fallback,
	}, result)
}

// PostMultipart uploads file together with extra form fields.
func (c *Client) PostMultipart(
	ctx context.Context,
	path string,
	file FilePart,
	fields map[string]string,
	fallback string,
	result interface{},
) error {
	return c.do(ctx, request{
		method:   http.MethodPost,
		path:     path,
		file:     &file,
		fields:   fields,
		fallback: fallback,
	}, result)
}

// Validate checks v's validate tags and converts failures into a
// ValidationError carrying a readable message.
func (c *Client) Validate(v interface{}) error {
	err := c.validate.Struct(v)
	if err == nil {
		return nil
	}
	return &ValidationError{Message: validationMessage(err), Err: err}
}

// do is the core HTTP method that builds the request, handles auth,
// encodes the body and normalizes failures.
func (c *Client) do(ctx context.Context, r request, result interface{}) error {
	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	bodyReader, contentType, err := encodeBody(r)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := c.bearerToken(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			zap.String(logging.FieldMethod, r.method),
			zap.String(logging.FieldPath, r.path),
			zap.Error(err),
		)
		return &TransportError{
			Method:  r.method,
			Path:    r.path,
			Message: transportMessage(err, r.fallback),
			Err:     err,
		}
	}

	respBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()

	c.logger.Debug("request",
		zap.String(logging.FieldMethod, r.method),
		zap.String(logging.FieldPath, r.path),
		zap.Int(logging.FieldStatus, resp.StatusCode),
		zap.Duration(logging.FieldDuration, time.Since(start)),
	)

	if readErr != nil {
		return &TransportError{
			Method:  r.method,
			Path:    r.path,
			Message: transportMessage(readErr, r.fallback),
			Err:     fmt.Errorf("reading response body: %w", readErr),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			Status:  resp.StatusCode,
			Method:  r.method,
			Path:    r.path,
			Message: errorMessage(respBody, resp.StatusCode, r.fallback),
		}
	}

	// No content to parse (e.g. 204).
	if result == nil || resp.StatusCode == http.StatusNoContent || len(respBody) == 0 {
		return nil
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf(
			"unmarshaling response from %s %s: %w",
			r.method, r.path, err,
		)
	}

	return nil
}

// bearerToken asks the token getter for a token, treating failures as
// "no token".
func (c *Client) bearerToken(ctx context.Context) string {
	if c.token == nil {
		return ""
	}
	token, err := c.token(ctx)
	if err != nil {
		c.logger.Debug("no auth token", zap.Error(err))
		return ""
	}
	return strings.TrimSpace(token)
}

// encodeBody serializes a JSON or multipart body.
func encodeBody(r request) (io.Reader, string, error) {
	if r.file != nil {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		for name, value := range r.fields {
			if err := w.WriteField(name, value); err != nil {
				return nil, "", fmt.Errorf("writing form field %s: %w", name, err)
			}
		}

		field := r.file.Field
		if field == "" {
			field = "file"
		}
		ct := r.file.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(
			`form-data; name="%s"; filename="%s"`,
			escapeQuotes(field), escapeQuotes(r.file.Filename),
		))
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("creating file part: %w", err)
		}
		if _, err := part.Write(r.file.Data); err != nil {
			return nil, "", fmt.Errorf("writing file part: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, "", fmt.Errorf("closing multipart body: %w", err)
		}
		return &buf, w.FormDataContentType(), nil
	}

	if r.body == nil {
		return nil, "", nil
	}
	data, err := json.Marshal(r.body)
	if err != nil {
		return nil, "", fmt.Errorf("marshaling request body: %w", err)
	}
	return bytes.NewReader(data), "application/json", nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// errorMessage extracts a human-readable message from an error body.
func errorMessage(body []byte, status int, fallback string) string {
	var payload map[string]interface{}
	if json.Unmarshal(body, &payload) == nil {
		for _, field := range []string{"error", "detail", "message"} {
			if s, ok := payload[field].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}

	text := strings.TrimSpace(string(body))
	if text != "" && !strings.HasPrefix(text, "{") && !strings.HasPrefix(text, "<") {
		if len(text) > maxErrorText {
			text = text[:maxErrorText] + "…"
		}
		return text
	}

	if fallback != "" {
		return fallback
	}
	return fmt.Sprintf("Request failed with status %d", status)
}

// transportMessage describes a network failure.
func transportMessage(err error, fallback string) string {
	if errors.Is(err, context.Canceled) {
		return "Request cancelled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "Request timed out"
	}
	if fallback != "" {
		return fallback + ": network error"
	}
	return "Network error"
}

// validationMessage turns validator field errors into one sentence.
func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err.Error()
	}

	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "min", "gt", "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max", "lt", "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must match %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
