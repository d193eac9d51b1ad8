// Package media attaches remote images to products that have none.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jamesprial/catalog-admin/internal/catalog"
	"github.com/jamesprial/catalog-admin/internal/config"
	"github.com/jamesprial/catalog-admin/internal/graphql"
	"github.com/jamesprial/catalog-admin/internal/logging"
	"github.com/jamesprial/catalog-admin/internal/safety"
)

// maxImageBytes caps a single download.
const maxImageBytes = 20 << 20

// Status is the outcome for one target.
type Status string

const (
	StatusAttached Status = "attached"
	StatusSkipped  Status = "skipped"
	StatusNotFound Status = "not_found"
	StatusBlocked  Status = "blocked"
	StatusFailed   Status = "failed"
)

// Target pairs a product slug with the image to attach. Alt defaults to
// "Image for <slug>".
type Target struct {
	Slug string `yaml:"slug" json:"slug"`
	URL  string `yaml:"url" json:"url"`
	Alt  string `yaml:"alt,omitempty" json:"alt,omitempty"`
}

// Result is the outcome of one target.
type Result struct {
	Slug    string `json:"slug"`
	Status  Status `json:"status"`
	MediaID string `json:"media_id,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// Report holds one result per target, in target order.
type Report struct {
	Results []Result `json:"results"`
}

// Count returns the number of results with status s.
func (r *Report) Count(s Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == s {
			n++
		}
	}
	return n
}

// DownloadError reports an image that could not be fetched.
type DownloadError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *DownloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("download %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("download %s: status %d", e.URL, e.StatusCode)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// Attacher uploads images to products without media.
type Attacher struct {
	repo            catalog.ProductRepository
	httpClient      *http.Client
	channel         string
	concurrency     int
	downloadTimeout time.Duration
	filter          *safety.Filter
	audit           *safety.AuditLogger
	logger          *zap.Logger
}

// Option configures an Attacher.
type Option func(*Attacher)

// WithHTTPClient sets the client used for downloads.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Attacher) { a.httpClient = c }
}

// WithChannel sets the channel products are looked up in.
func WithChannel(channel string) Option {
	return func(a *Attacher) { a.channel = channel }
}

// WithFilter restricts which products may be changed.
func WithFilter(f *safety.Filter) Option {
	return func(a *Attacher) { a.filter = f }
}

// WithAudit records every upload.
func WithAudit(l *safety.AuditLogger) Option {
	return func(a *Attacher) { a.audit = l }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Attacher) { a.logger = logging.OrNop(l) }
}

// NewAttacher returns an Attacher. A concurrency below one runs targets
// sequentially in order.
func NewAttacher(repo catalog.ProductRepository, cfg config.MediaConfig, opts ...Option) *Attacher {
	a := &Attacher{
		repo:            repo,
		httpClient:      http.DefaultClient,
		concurrency:     max(cfg.Concurrency, 1),
		downloadTimeout: time.Duration(cfg.DownloadTimeout) * time.Second,
		logger:          zap.NewNop(),
	}
	if a.downloadTimeout <= 0 {
		a.downloadTimeout = 60 * time.Second
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Attach processes every target. Download failures only mark the target as
// failed; lookup and upload errors are also returned, joined.
func (a *Attacher) Attach(ctx context.Context, targets []Target) (*Report, error) {
	report := &Report{Results: make([]Result, len(targets))}
	errs := make([]error, len(targets))

	var g errgroup.Group
	g.SetLimit(a.concurrency)
	for i, t := range targets {
		g.Go(func() error {
			report.Results[i], errs[i] = a.attachOne(ctx, t)
			return nil
		})
	}
	_ = g.Wait()

	a.logger.Info("media attach finished",
		zap.Int("targets", len(targets)),
		zap.Int("attached", report.Count(StatusAttached)),
		zap.Int("skipped", report.Count(StatusSkipped)),
		zap.Int("failed", report.Count(StatusFailed)),
	)
	return report, errors.Join(errs...)
}

func (a *Attacher) attachOne(ctx context.Context, t Target) (Result, error) {
	res := Result{Slug: t.Slug}
	log := a.logger.With(zap.String("slug", t.Slug))

	if err := a.filter.Check("product", t.Slug); err != nil {
		res.Status, res.Reason = StatusBlocked, err.Error()
		log.Warn("product blocked")
		return res, nil
	}

	p, err := a.repo.ProductBySlug(ctx, t.Slug, a.channel)
	if err != nil {
		res.Status, res.Reason = StatusFailed, err.Error()
		return res, fmt.Errorf("%s: %w", t.Slug, err)
	}
	if p == nil {
		res.Status, res.Reason = StatusNotFound, "product not found"
		log.Info("product not found")
		return res, nil
	}
	if len(p.Media) > 0 {
		res.Status, res.Reason = StatusSkipped, fmt.Sprintf("already has %d media", len(p.Media))
		log.Info("media already exists, skipping")
		return res, nil
	}

	file, err := a.download(ctx, t.URL)
	if err != nil {
		res.Status, res.Reason = StatusFailed, err.Error()
		log.Warn("image download failed", zap.Error(err))
		return res, nil
	}

	alt := t.Alt
	if alt == "" {
		alt = "Image for " + t.Slug
	}
	start := time.Now()
	m, err := a.repo.CreateProductMedia(ctx, p.ID, alt, file)
	a.audit.Record("media.productMediaCreate", t.Slug, map[string]any{"url": t.URL, "bytes": len(file.Data)}, start, err)
	if err != nil {
		res.Status, res.Reason = StatusFailed, err.Error()
		return res, fmt.Errorf("%s: %w", t.Slug, err)
	}
	res.Status, res.MediaID = StatusAttached, m.ID
	log.Info("image attached", zap.String("media_id", m.ID), zap.Int("bytes", len(file.Data)))
	return res, nil
}

func (a *Attacher) download(ctx context.Context, rawURL string) (graphql.File, error) {
	ctx, cancel := context.WithTimeout(ctx, a.downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return graphql.File{}, &DownloadError{URL: rawURL, Err: err}
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return graphql.File{}, &DownloadError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return graphql.File{}, &DownloadError{URL: rawURL, StatusCode: resp.StatusCode}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return graphql.File{}, &DownloadError{URL: rawURL, StatusCode: resp.StatusCode, Err: err}
	}
	if len(data) > maxImageBytes {
		return graphql.File{}, &DownloadError{URL: rawURL, StatusCode: resp.StatusCode, Err: fmt.Errorf("image exceeds %d bytes", maxImageBytes)}
	}
	if len(data) == 0 {
		return graphql.File{}, &DownloadError{URL: rawURL, StatusCode: resp.StatusCode, Err: errors.New("empty body")}
	}

	contentType := resp.Header.Get("Content-Type")
	if mt, _, err := mime.ParseMediaType(contentType); err != nil || mt == "" {
		contentType = http.DetectContentType(data)
	}
	return graphql.File{Name: fileName(rawURL, contentType), ContentType: contentType, Data: data}, nil
}

// fileName derives an upload name from the URL path, falling back to
// "image" plus an extension for the content type.
func fileName(rawURL, contentType string) string {
	if u, err := url.Parse(rawURL); err == nil {
		if base := path.Base(u.Path); base != "." && base != "/" && path.Ext(base) != "" {
			return base
		}
	}
	mt, _, _ := mime.ParseMediaType(contentType)
	switch mt {
	case "image/png":
		return "image.png"
	case "image/webp":
		return "image.webp"
	case "image/gif":
		return "image.gif"
	}
	return "image.jpg"
}
