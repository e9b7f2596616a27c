package rffm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/riskibarqy/federation-scraper/internal/platform/logging"
	"github.com/riskibarqy/federation-scraper/internal/usecase"
)

const DefaultRateLimitBackoff = 100 * time.Millisecond

// StatusError is a non-2xx, non-429 response. It matches usecase.ErrFetch.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("get %s: status=%d body=%s", e.URL, e.StatusCode, e.Body)
}

func (e *StatusError) Is(target error) bool {
	return target == usecase.ErrFetch
}

// PageFetcher performs GETs and waits out rate limiting. A 429 is retried after a
// fixed backoff for as long as it keeps coming back; there is no ceiling and no
// growth. Only context cancellation ends the wait early.
type PageFetcher struct {
	transport Transport
	backoff   time.Duration
	logger    *logging.Logger
	attempts  atomic.Int64
	throttled atomic.Int64
}

func NewPageFetcher(transport Transport, backoff time.Duration, logger *logging.Logger) *PageFetcher {
	if transport == nil {
		transport = NewNetHTTPTransport(nil, 0, "")
	}
	if backoff <= 0 {
		backoff = DefaultRateLimitBackoff
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PageFetcher{
		transport: transport,
		backoff:   backoff,
		logger:    logger,
	}
}

// Fetch returns the body of the first non-429 response, unmodified.
func (f *PageFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	for {
		f.attempts.Add(1)
		resp, err := f.transport.Get(ctx, url)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("%w: get %s: %w", usecase.ErrFetch, url, err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			f.throttled.Add(1)
			f.logger.WarnContext(ctx, "rate limited, retrying", "url", url, "backoff", f.backoff)
			if err := f.wait(ctx); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &StatusError{URL: url, StatusCode: resp.StatusCode, Body: abbreviateBody(resp.Body)}
		}
		return resp.Body, nil
	}
}

// Attempts counts every request sent, retries included.
func (f *PageFetcher) Attempts() int64 {
	return f.attempts.Load()
}

// Throttled counts 429 responses seen.
func (f *PageFetcher) Throttled() int64 {
	return f.throttled.Load()
}

func (f *PageFetcher) wait(ctx context.Context) error {
	timer := time.NewTimer(f.backoff)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
