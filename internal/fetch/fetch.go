// Package fetch implements the rate-limited, retrying HTTP fetcher (C1):
// a token bucket shared across the process, exponential backoff on
// transient failures, and multi-encoding decoding, per spec §4.1.
package fetch

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"newsingest/internal/observability/metrics"
	"newsingest/internal/resilience/retry"
)

// Config configures a Fetcher.
type Config struct {
	// RequestsPerSecond is the shared token-bucket rate, spec §4.1.
	RequestsPerSecond float64
	// MaxRetries is the retry ceiling for retryable statuses, default 3.
	MaxRetries int
	// Timeout is the per-request HTTP timeout, spec §5: 30s.
	Timeout time.Duration
	// Transport overrides the client's http.RoundTripper. Nil uses
	// http.DefaultTransport. Exposed so tests can redirect requests to a
	// local httptest server without weakening the SSRF checks in
	// internal/canon, which run against the untouched request URL.
	Transport http.RoundTripper
}

// DefaultConfig returns the spec-default fetcher configuration.
func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 2.0,
		MaxRetries:        3,
		Timeout:           30 * time.Second,
	}
}

// Fetcher is a process-wide rate-limited HTTP GET client, created once
// during bootstrap(config) per spec §9 ("process-scoped, explicit
// init/teardown — nothing is a static singleton").
type Fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	cfg     Config
}

// New creates a Fetcher bound to cfg's shared token bucket.
func New(cfg Config) *Fetcher {
	// A burst of one lets the first request through at once and spaces
	// every later one 1/RequestsPerSecond apart.
	burst := 1
	return &Fetcher{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
		cfg:     cfg,
	}
}

// Fetch performs a rate-limited, retrying GET of url, returning the
// response body decoded to a UTF-8 string. sectionHint synthesizes a
// plausible Referer (spec §4.1). Fetch suspends on the shared rate
// limiter's token acquisition before every attempt, including retries.
func (f *Fetcher) Fetch(ctx context.Context, url string, sectionHint int) (string, error) {
	start := time.Now()
	body, err := f.fetchWithRetry(ctx, url, sectionHint)
	metrics.RecordFetch(outcomeLabel(err), time.Since(start))
	return body, err
}

func outcomeLabel(err error) string {
	if err == nil {
		return "success"
	}
	var serverErr *ServerError
	switch {
	case errors.As(err, &serverErr):
		return "server_error"
	case errors.Is(err, ErrRateLimit):
		return "rate_limit"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrMaxRetriesExceeded):
		return "max_retries"
	default:
		var decodeErr *DecodeError
		if errors.As(err, &decodeErr) {
			return "decode_error"
		}
		return "http_error"
	}
}

func (f *Fetcher) fetchWithRetry(ctx context.Context, url string, sectionHint int) (string, error) {
	cfg := retry.FetchConfig()
	if f.cfg.MaxRetries > 0 {
		cfg.MaxAttempts = f.cfg.MaxRetries + 1
	}

	var body string
	err := retry.WithBackoff(ctx, cfg, func() error {
		waitStart := time.Now()
		if err := f.limiter.Wait(ctx); err != nil {
			return err
		}
		metrics.RateLimiterWaitDuration.Observe(time.Since(waitStart).Seconds())

		b, err := f.doOnce(ctx, url, sectionHint)
		if err != nil {
			return err
		}
		body = b
		return nil
	})

	if err != nil {
		var serverErr *ServerError
		if errors.As(err, &serverErr) {
			return "", err
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return "", ErrMaxRetriesExceeded
	}
	return body, nil
}

func (f *Fetcher) doOnce(ctx context.Context, url string, sectionHint int) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", errors.Join(ErrInvalidURL, err)
	}
	setRequestHeaders(req, sectionHint)

	resp, err := f.client.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return "", ErrTimeout
		}
		return "", errors.Join(ErrHTTP, err)
	}
	defer resp.Body.Close()

	status := resp.StatusCode
	if terminalStatus(status) {
		return "", &ServerError{Status: status}
	}
	if status < 200 || status >= 300 {
		if retryableStatus(status) {
			return "", &retry.HTTPError{StatusCode: status, Message: resp.Status}
		}
		return "", &ServerError{Status: status}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Join(ErrHTTP, err)
	}

	text, err := decodeBody(raw, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", err
	}
	return text, nil
}
