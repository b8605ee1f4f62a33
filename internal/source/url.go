// SPDX-License-Identifier: MPL-2.0

package source

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

	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-retryablehttp"
)

const (
	defaultRetryMax     = 3
	defaultRetryWaitMin = 1 * time.Second
	defaultRetryWaitMax = 30 * time.Second
	userAgent           = "gpudrv"
)

var (
	// ErrHTTPStatus is returned when the server answers with a non-2xx status.
	ErrHTTPStatus = errors.New("unexpected HTTP status")
	// ErrFetch is returned when no response arrived after all retries.
	ErrFetch = errors.New("download failed")
)

type (
	// URL is a Source fetched over HTTP(S) with retries.
	URL struct {
		raw    string
		client *retryablehttp.Client
		// served is the file name announced by the last response, if any.
		served string
	}

	// URLOption configures a URL source.
	URLOption func(*retryablehttp.Client)

	// leveledLogger adapts a charmbracelet logger to retryablehttp.
	leveledLogger struct {
		l *log.Logger
	}
)

// WithLogger routes retry diagnostics to logger.
func WithLogger(logger *log.Logger) URLOption {
	return func(c *retryablehttp.Client) {
		if logger != nil {
			c.Logger = leveledLogger{l: logger}
		}
	}
}

// WithRetry overrides the retry policy.
func WithRetry(maxRetries int, waitMin, waitMax time.Duration) URLOption {
	return func(c *retryablehttp.Client) {
		c.RetryMax = maxRetries
		c.RetryWaitMin = waitMin
		c.RetryWaitMax = waitMax
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) URLOption {
	return func(c *retryablehttp.Client) {
		c.HTTPClient = hc
	}
}

// NewURL returns a Source for rawURL. Only http and https are accepted.
func NewURL(rawURL string, opts ...URLOption) (*URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}

	client := retryablehttp.NewClient()
	client.RetryMax = defaultRetryMax
	client.RetryWaitMin = defaultRetryWaitMin
	client.RetryWaitMax = defaultRetryWaitMax
	client.Logger = nil
	for _, opt := range opts {
		opt(client)
	}
	return &URL{raw: rawURL, client: client}, nil
}

// Open issues a GET request and returns the response body.
func (s *URL) Open(ctx context.Context) (io.ReadCloser, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, s.raw, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, s.raw, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close() // body is not consumed on error
		return nil, fmt.Errorf("%w %d fetching %s", ErrHTTPStatus, resp.StatusCode, s.raw)
	}

	if name := attachmentName(resp.Header.Get("Content-Disposition")); name != "" {
		s.served = name
	}
	return resp.Body, nil
}

// DisplayName returns the file name from the last response's
// Content-Disposition header, or else the last segment of the URL path.
func (s *URL) DisplayName() string {
	if s.served != "" {
		return s.served
	}
	u, err := url.Parse(s.raw)
	if err != nil {
		return ""
	}
	return cleanName(u.Path)
}

func attachmentName(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return cleanName(params["filename"])
}

// cleanName reduces a served or path-derived name to a usable base name.
func cleanName(name string) string {
	if name == "" {
		return ""
	}
	switch base := path.Base(name); base {
	case ".", "..", "/":
		return ""
	default:
		return base
	}
}

func (l leveledLogger) Error(msg string, keysAndValues ...any) { l.l.Error(msg, keysAndValues...) }
func (l leveledLogger) Warn(msg string, keysAndValues ...any)  { l.l.Warn(msg, keysAndValues...) }
func (l leveledLogger) Info(msg string, keysAndValues ...any)  { l.l.Debug(msg, keysAndValues...) }
func (l leveledLogger) Debug(msg string, keysAndValues ...any) { l.l.Debug(msg, keysAndValues...) }
