package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/campaign-pulse/tui/internal/logging"
	"github.com/campaign-pulse/tui/internal/metrics"
)

const (
	defaultMaxRetries        = 3
	defaultRetryAfter        = 1 * time.Second
	maxErrorBodyBytes        = 64 << 10
	fallbackErrorMessageTmpl = "request failed with status %d"
)

// Doer is the subset of *http.Client the fetch layer needs.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher performs one-shot requests, retrying rate-limited responses and
// transport failures under a single attempt budget.
type Fetcher struct {
	httpc             Doer
	maxRetries        int
	defaultRetryAfter time.Duration
	wait              func(ctx context.Context, d time.Duration) error
	log               zerolog.Logger
}

// FetcherOption customises a Fetcher.
type FetcherOption func(*Fetcher)

// WithMaxRetries sets how many extra attempts follow the first request.
func WithMaxRetries(n int) FetcherOption {
	return func(f *Fetcher) {
		if n >= 0 {
			f.maxRetries = n
		}
	}
}

// WithDefaultRetryAfter sets the wait used when a 429 carries no usable hint.
func WithDefaultRetryAfter(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if d >= 0 {
			f.defaultRetryAfter = d
		}
	}
}

// NewFetcher wraps httpc. A nil httpc uses a client with a 10s timeout.
func NewFetcher(httpc Doer, opts ...FetcherOption) *Fetcher {
	if httpc == nil {
		httpc = &http.Client{Timeout: 10 * time.Second}
	}
	f := &Fetcher{
		httpc:             httpc,
		maxRetries:        defaultMaxRetries,
		defaultRetryAfter: defaultRetryAfter,
		wait:              sleepCtx,
		log:               logging.With("fetch"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchWithRetry issues the request and returns the first response that is
// not a 429, whatever its status. A 429 waits for the server-advised
// retry_after (body, then Retry-After header, then the default) and tries
// again. A transport failure tries again immediately. Once maxRetries extra
// attempts are spent it fails with *RetryExhaustedError or *NetworkError,
// depending on how the last attempt failed.
func (f *Fetcher) FetchWithRetry(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	attempts := f.maxRetries + 1
	var lastWait time.Duration

	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var rd io.Reader = http.NoBody
		if body != nil {
			rd = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, rd)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := f.httpc.Do(req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			metrics.FetchRequests.WithLabelValues(metrics.FetchNetworkError).Inc()
			f.log.Warn().Err(err).Str("url", url).Int("attempt", attempt+1).Int("max_attempts", attempts).Msg("request failed")
			if attempt == attempts-1 {
				return nil, &NetworkError{URL: url, Attempts: attempts, Err: err}
			}
			continue
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			metrics.FetchRequests.WithLabelValues(metrics.FetchResponse).Inc()
			return resp, nil
		}

		metrics.FetchRequests.WithLabelValues(metrics.FetchRateLimited).Inc()
		lastWait = f.retryAfter(resp)
		if attempt == attempts-1 {
			break
		}

		f.log.Warn().Str("url", url).Dur("retry_after", lastWait).Int("attempt", attempt+1).Int("max_attempts", attempts).Msg("rate limited, retrying")
		metrics.RecordRateLimitWait(lastWait)
		if err := f.wait(ctx, lastWait); err != nil {
			return nil, err
		}
	}

	return nil, &RetryExhaustedError{URL: url, Attempts: attempts, RetryAfter: lastWait}
}

// retryAfter consumes and closes the body of a 429 response.
func (f *Fetcher) retryAfter(resp *http.Response) time.Duration {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	_ = resp.Body.Close()
	if d, ok := advisedWait(raw, resp.Header); ok {
		return d
	}
	return f.defaultRetryAfter
}

// advisedWait reads retry_after (seconds) from a JSON error body, falling
// back to the Retry-After header in either delta-seconds or HTTP-date form.
func advisedWait(raw []byte, h http.Header) (time.Duration, bool) {
	var eb errorBody
	if json.Unmarshal(raw, &eb) == nil {
		if secs, ok := eb.retryAfter(); ok {
			return time.Duration(secs * float64(time.Second)), true
		}
	}

	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second, true
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d, true
		}
		return 0, true
	}
	return 0, false
}

// ParseResponse decodes a 2xx body into T, or turns anything else into an
// *APIError. The body is always closed.
func ParseResponse[T any](resp *http.Response) (T, error) {
	var zero T
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var out T
		if err := json.Unmarshal(raw, &out); err != nil {
			return zero, fmt.Errorf("decode response: %w", err)
		}
		return out, nil
	}

	apiErr := &APIError{
		Status:  resp.StatusCode,
		Message: errorMessage(raw, resp.StatusCode),
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		if d, ok := advisedWait(raw, resp.Header); ok {
			apiErr.RetryAfter = d
		}
	}
	return zero, apiErr
}

// errorMessage picks message, then error, then the raw text, then a generic
// fallback.
func errorMessage(raw []byte, status int) string {
	var eb errorBody
	if err := json.Unmarshal(raw, &eb); err == nil {
		if eb.Message != "" {
			return eb.Message
		}
		if eb.Error != "" {
			return eb.Error
		}
		return fmt.Sprintf(fallbackErrorMessageTmpl, status)
	}

	var s string
	if json.Unmarshal(raw, &s) == nil && s != "" {
		return s
	}
	if text := strings.TrimSpace(string(raw)); text != "" {
		return text
	}
	return fmt.Sprintf(fallbackErrorMessageTmpl, status)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
