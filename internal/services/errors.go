package services

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/likecast/internal/shared"
)

var errNotAuthenticated = fmt.Errorf("%w: call OAuthenticate first", shared.ErrNotAuthenticated)

// RateLimitError is returned when the platform answers 429.
//
// Reset is zero when the response did not carry it. HasRetryAfter distinguishes "Retry-After: 0" from a missing
// header.
type RateLimitError struct {
	StatusCode    int
	RetryAfter    time.Duration // From the Retry-After header
	HasRetryAfter bool
	Reset         time.Time // From the x-rate-limit-reset header
	Detail        string
}

func (e *RateLimitError) Error() string {
	var parts []string
	if e.HasRetryAfter || e.RetryAfter > 0 {
		parts = append(parts, "retry after "+e.RetryAfter.String())
	}
	if !e.Reset.IsZero() {
		parts = append(parts, "resets at "+e.Reset.UTC().Format(time.RFC3339))
	}
	if e.Detail != "" {
		parts = append(parts, e.Detail)
	}
	if len(parts) == 0 {
		return fmt.Sprintf("%v: status %d", shared.ErrRateLimited, e.StatusCode)
	}
	return fmt.Sprintf("%v: status %d: %s", shared.ErrRateLimited, e.StatusCode, strings.Join(parts, ", "))
}

// Unwrap makes errors.Is(err, shared.ErrRateLimited) hold.
func (e *RateLimitError) Unwrap() error {
	return shared.ErrRateLimited
}

// parseRateLimit reads Retry-After (delta seconds or HTTP date) and x-rate-limit-reset (unix seconds).
func parseRateLimit(h http.Header, now time.Time) *RateLimitError {
	rle := &RateLimitError{StatusCode: http.StatusTooManyRequests}

	if v := strings.TrimSpace(h.Get("Retry-After")); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			rle.RetryAfter = time.Duration(secs) * time.Second
			rle.HasRetryAfter = true
		} else if at, err := http.ParseTime(v); err == nil {
			rle.RetryAfter = max(0, at.Sub(now))
			rle.HasRetryAfter = true
		}
	}

	if v := strings.TrimSpace(h.Get("x-rate-limit-reset")); v != "" {
		if epoch, err := strconv.ParseInt(v, 10, 64); err == nil && epoch > 0 {
			rle.Reset = time.Unix(epoch, 0)
		}
	}

	return rle
}
