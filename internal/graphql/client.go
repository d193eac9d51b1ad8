package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jamesprial/catalog-admin/internal/config"
)

const defaultTimeout = 30 * time.Second

// Compile-time interface checks.
var (
	_ Client   = (*HTTPClient)(nil)
	_ Uploader = (*HTTPClient)(nil)
)

// HTTPClient sends GraphQL requests over HTTP and attaches a bearer token
// obtained from its TokenSource.
type HTTPClient struct {
	httpClient *http.Client
	graphqlURL string
	tokens     TokenSource
	logger     *zap.Logger
}

// Option customises an HTTPClient.
type Option func(*HTTPClient)

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *HTTPClient) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTokenSource overrides the credential source derived from the config.
func WithTokenSource(ts TokenSource) Option {
	return func(c *HTTPClient) {
		c.tokens = ts
	}
}

// NewHTTPClient constructs an HTTPClient from the provided GraphQLConfig.
// It returns an error if cfg.URL is empty. When cfg.Timeout is zero or
// negative, a default timeout of 30 seconds is used.
//
// Credentials are resolved in order: a static cfg.Token, then a Session
// logging in with cfg.Email and cfg.Password. With neither, requests are
// sent without an Authorization header.
func NewHTTPClient(cfg config.GraphQLConfig, opts ...Option) (*HTTPClient, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("graphql: URL is required")
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if cfg.Timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &HTTPClient{
		httpClient: &http.Client{Timeout: timeout},
		graphqlURL: normalizeURL(cfg.URL),
		logger:     zap.NewNop(),
	}

	switch {
	case cfg.Token != "":
		c.tokens = StaticToken(cfg.Token)
	case cfg.Email != "":
		anonymous := &HTTPClient{graphqlURL: c.graphqlURL}
		c.tokens = NewSession(anonymous, cfg.Email, cfg.Password)
		defer func() {
			anonymous.httpClient = c.httpClient
			anonymous.logger = c.logger
		}()
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// normalizeURL trims trailing slashes from rawURL, appends /graphql when the
// path does not already end with it, and terminates the result with a single
// slash as the backend expects.
func normalizeURL(rawURL string) string {
	u := strings.TrimRight(strings.TrimSpace(rawURL), "/")
	if !strings.HasSuffix(u, "/graphql") {
		u += "/graphql"
	}
	return u + "/"
}

// Authenticate forces the token source to produce a token. It is a no-op for
// clients without credentials.
func (c *HTTPClient) Authenticate(ctx context.Context) error {
	if c.tokens == nil {
		return nil
	}
	_, err := c.tokens.Token(ctx)
	return err
}

// graphqlRequest is the JSON body shape for a GraphQL HTTP request.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphqlResponse is the JSON body shape for a GraphQL HTTP response.
type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

// Execute sends a GraphQL document to the configured endpoint and returns the
// raw JSON bytes of the "data" field on success. Variables may be nil, in
// which case the "variables" key is omitted from the request body.
//
// Execute returns an error if:
//   - a token cannot be obtained
//   - the HTTP request cannot be created or sent
//   - the server responds with 401 (ErrUnauthorized)
//   - the server responds with any other non-2xx status (*ResponseError)
//   - the response body cannot be decoded as JSON
//   - the GraphQL response contains one or more errors (*ResponseError)
func (c *HTTPClient) Execute(ctx context.Context, query string, variables map[string]any) ([]byte, error) {
	bodyBytes, err := json.Marshal(graphqlRequest{
		Query:     query,
		Variables: variables,
	})
	if err != nil {
		return nil, fmt.Errorf("graphql: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("graphql: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(ctx, req)
}

// Upload sends a multipart GraphQL request: an "operations" field holding the
// JSON request with null placeholders, a "map" field binding numbered file
// parts to variable paths, and the file parts themselves. Only top-level
// variable paths ("variables.<name>") are supported.
func (c *HTTPClient) Upload(ctx context.Context, query string, variables map[string]any, files map[string]File) ([]byte, error) {
	if len(files) == 0 {
		return c.Execute(ctx, query, variables)
	}

	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	vars := make(map[string]any, len(variables)+len(files))
	for k, v := range variables {
		vars[k] = v
	}
	fileMap := make(map[string][]string, len(paths))
	for i, p := range paths {
		name, ok := strings.CutPrefix(p, "variables.")
		if !ok || name == "" || strings.Contains(name, ".") {
			return nil, fmt.Errorf("graphql: unsupported upload path %q", p)
		}
		vars[name] = nil
		fileMap[strconv.Itoa(i)] = []string{p}
	}

	operations, err := json.Marshal(graphqlRequest{Query: query, Variables: vars})
	if err != nil {
		return nil, fmt.Errorf("graphql: marshal operations: %w", err)
	}
	mapJSON, err := json.Marshal(fileMap)
	if err != nil {
		return nil, fmt.Errorf("graphql: marshal map: %w", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("operations", string(operations)); err != nil {
		return nil, fmt.Errorf("graphql: write operations: %w", err)
	}
	if err := mw.WriteField("map", string(mapJSON)); err != nil {
		return nil, fmt.Errorf("graphql: write map: %w", err)
	}
	for i, p := range paths {
		f := files[p]
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%d"; filename=%q`, i, f.Name))
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, fmt.Errorf("graphql: create file part: %w", err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, fmt.Errorf("graphql: write file part: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("graphql: close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, &buf)
	if err != nil {
		return nil, fmt.Errorf("graphql: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return c.do(ctx, req)
}

func (c *HTTPClient) do(ctx context.Context, req *http.Request) ([]byte, error) {
	req.Header.Set("Accept", "application/json")
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("graphql: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("graphql: read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.logger.Debug("graphql unauthorized", zap.ByteString("body", raw))
		return nil, ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Debug("graphql http error", zap.Int("status", resp.StatusCode), zap.ByteString("body", raw))
		respErr := &ResponseError{StatusCode: resp.StatusCode, Body: string(raw)}
		var gqlResp graphqlResponse
		if json.Unmarshal(raw, &gqlResp) == nil {
			respErr.Errors = gqlResp.Errors
		}
		return nil, respErr
	}

	var gqlResp graphqlResponse
	if err := json.Unmarshal(raw, &gqlResp); err != nil {
		return nil, fmt.Errorf("graphql: decode response: %w", err)
	}
	if len(gqlResp.Errors) > 0 {
		c.logger.Debug("graphql errors", zap.ByteString("body", raw))
		return nil, &ResponseError{
			StatusCode: resp.StatusCode,
			Errors:     gqlResp.Errors,
			Body:       string(raw),
			Data:       gqlResp.Data,
		}
	}

	return []byte(gqlResp.Data), nil
}
