package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// RetryPolicy bounds retries of transient fetch failures
type RetryPolicy struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if p.InitialBackoff > 0 {
		b.InitialInterval = p.InitialBackoff
	}
	if p.MaxBackoff > 0 {
		b.MaxInterval = p.MaxBackoff
	}
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(max(p.MaxRetries, 0))), ctx)
}

// StatusError is returned for non-2xx responses
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.StatusCode)
}

// permanent reports statuses that retrying cannot fix
func (e *StatusError) permanent() bool {
	switch e.StatusCode {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusGone:
		return true
	}
	return false
}

// NewHTTPClient returns a client whose requests are traced
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// fetcher performs GETs with retry and a response size limit
type fetcher struct {
	client   *http.Client
	retry    RetryPolicy
	maxBytes int64
}

func (f fetcher) get(ctx context.Context, rawURL, credential string) ([]byte, error) {
	var data []byte
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		if credential != "" {
			req.Header.Set("Authorization", "Bearer "+credential)
		}
		resp, err := f.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			serr := &StatusError{StatusCode: resp.StatusCode, URL: redact(rawURL)}
			if serr.permanent() {
				return backoff.Permanent(serr)
			}
			return serr
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
		if err != nil {
			return err
		}
		if int64(len(body)) > f.maxBytes {
			return backoff.Permanent(fmt.Errorf("asset exceeds %d bytes", f.maxBytes))
		}
		data = body
		return nil
	}

	if err := backoff.Retry(op, f.retry.backOff(ctx)); err != nil {
		return nil, err
	}
	return data, nil
}

// redact drops the query string so tokens never reach logs
func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid url>"
	}
	u.RawQuery = ""
	return u.String()
}

var driveFileID = regexp.MustCompile(`^[A-Za-z0-9_-]{8,}$`)

// DriveSource fetches files by id from a drive-style REST API:
// GET {base}/files/{id}?alt=media with a bearer credential.
type DriveSource struct {
	baseURL string
	fetcher fetcher
}

// NewDriveSource creates a drive source rooted at baseURL
func NewDriveSource(baseURL string, client *http.Client, retry RetryPolicy, maxBytes int64) *DriveSource {
	return &DriveSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		fetcher: fetcher{client: client, retry: retry, maxBytes: maxBytes},
	}
}

func (s *DriveSource) Name() string { return "drive" }

func (s *DriveSource) Match(ref string) bool { return driveFileID.MatchString(ref) }

func (s *DriveSource) Cacheable() bool    { return true }
func (s *DriveSource) Credentialed() bool { return true }

// Fetch implements Source
func (s *DriveSource) Fetch(ctx context.Context, ref, credential string) ([]byte, error) {
	if credential == "" {
		return nil, errors.New("drive asset requires a credential")
	}
	u := fmt.Sprintf("%s/files/%s?alt=media", s.baseURL, url.PathEscape(ref))
	return s.fetcher.get(ctx, u, credential)
}

// HTTPSource fetches absolute http(s) URLs. The credential is only sent to
// hosts listed in trustedHosts.
type HTTPSource struct {
	fetcher      fetcher
	trustedHosts map[string]struct{}
}

// NewHTTPSource creates a source for absolute URLs
func NewHTTPSource(client *http.Client, retry RetryPolicy, maxBytes int64, trustedHosts ...string) *HTTPSource {
	hosts := make(map[string]struct{}, len(trustedHosts))
	for _, h := range trustedHosts {
		if h != "" {
			hosts[strings.ToLower(h)] = struct{}{}
		}
	}
	return &HTTPSource{
		fetcher:      fetcher{client: client, retry: retry, maxBytes: maxBytes},
		trustedHosts: hosts,
	}
}

func (s *HTTPSource) Name() string { return "http" }

func (s *HTTPSource) Match(ref string) bool {
	return strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "http://")
}

func (s *HTTPSource) Cacheable() bool    { return true }
func (s *HTTPSource) Credentialed() bool { return len(s.trustedHosts) > 0 }

// Fetch implements Source
func (s *HTTPSource) Fetch(ctx context.Context, ref, credential string) ([]byte, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("parse asset URL: %w", err)
	}
	if _, ok := s.trustedHosts[strings.ToLower(u.Hostname())]; !ok {
		credential = ""
	}
	return s.fetcher.get(ctx, ref, credential)
}

// HostOf returns the host name of rawURL, or "" when it does not parse
func HostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
