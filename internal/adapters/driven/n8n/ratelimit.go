package n8n

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/flowsync/internal/core/domain"
)

const (
	// ProactiveRate is the default steady request rate (requests/second).
	// A handful of bindings polled every few seconds stays well below it.
	ProactiveRate = 5.0

	// ProactiveBurst is the default token bucket size.
	ProactiveBurst = 5

	// DefaultRetryAfter is used when a 429 carries no usable Retry-After.
	DefaultRetryAfter = 30 * time.Second

	// HeaderRetryAfter is the retry-after header (seconds or HTTP date).
	HeaderRetryAfter = "Retry-After"
)

// RateLimiter combines proactive token-bucket throttling with reactive
// back-off after the server answers 429.
type RateLimiter struct {
	mu           sync.Mutex
	blockedUntil time.Time     // From Retry-After
	bucket       *rate.Limiter // Proactive throttling
	now          func() time.Time
}

// NewRateLimiter creates a rate limiter. Non-positive values use the defaults.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	if perSecond <= 0 {
		perSecond = ProactiveRate
	}
	if burst <= 0 {
		burst = ProactiveBurst
	}
	return &RateLimiter{
		bucket: rate.NewLimiter(rate.Limit(perSecond), burst),
		now:    time.Now,
	}
}

// Wait blocks until the token bucket allows a request.
// While a server-imposed back-off is active it fails fast with a
// *RateLimitError instead of sleeping; the next trigger retries.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if until := r.BlockedUntil(); r.now().Before(until) {
		return &RateLimitError{ResetAt: until}
	}

	return r.bucket.Wait(ctx)
}

// CheckRateLimit inspects a response. It returns a *RateLimitError and
// starts a back-off period if the server answered 429.
func (r *RateLimiter) CheckRateLimit(resp *http.Response) error {
	if resp == nil || resp.StatusCode != http.StatusTooManyRequests {
		return nil
	}

	resetAt := r.now().Add(parseRetryAfter(resp.Header.Get(HeaderRetryAfter), r.now()))

	r.mu.Lock()
	if resetAt.After(r.blockedUntil) {
		r.blockedUntil = resetAt
	}
	r.mu.Unlock()

	return &RateLimitError{ResetAt: resetAt}
}

// BlockedUntil returns the end of the current back-off period, if any.
func (r *RateLimiter) BlockedUntil() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.blockedUntil
}

func parseRetryAfter(value string, now time.Time) time.Duration {
	if value == "" {
		return DefaultRetryAfter
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
		return 0
	}
	return DefaultRetryAfter
}

// RateLimitError is returned while the server asks the client to back off.
type RateLimitError struct {
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("n8n rate limit exceeded, retry after %s", e.ResetAt.UTC().Format(time.RFC3339))
}

// Unwrap lets callers match domain.ErrRateLimited.
func (e *RateLimitError) Unwrap() error {
	return domain.ErrRateLimited
}
