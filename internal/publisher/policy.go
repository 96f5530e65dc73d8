package publisher

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/desertthunder/likecast/internal/services"
)

const (
	// DefaultMaxRetries is the number of submissions made before a rate-limited item is abandoned.
	DefaultMaxRetries = 5

	backoffBase   = 60 * time.Second
	backoffCap    = 300 * time.Second
	backoffJitter = 10 * time.Second
	minJitter     = 1 * time.Second
	jitterSpan    = 2 * time.Second
)

// RetryPolicy computes how long to wait after a rate-limit response.
//
// Rand returns a value in [0, 1) and Now returns the current time; both default to the real ones.
type RetryPolicy struct {
	MaxRetries int
	Rand       func() float64
	Now        func() time.Time
}

// DefaultRetryPolicy returns a policy with [DefaultMaxRetries], [rand.Float64] and [time.Now].
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: DefaultMaxRetries, Rand: rand.Float64, Now: time.Now}
}

func (p RetryPolicy) maxRetries() int {
	if p.MaxRetries <= 0 {
		return DefaultMaxRetries
	}
	return p.MaxRetries
}

func (p RetryPolicy) random() float64 {
	if p.Rand == nil {
		return rand.Float64()
	}
	return p.Rand()
}

func (p RetryPolicy) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

// jitter returns a uniform duration in [1s, 3s).
func (p RetryPolicy) jitter() time.Duration {
	return minJitter + time.Duration(p.random()*float64(jitterSpan))
}

// Wait returns the delay before retrying after the attempt-th (0-based) submission was rate limited.
//
// In priority order: the Retry-After duration plus jitter, the time until Reset plus jitter, or exponential
// backoff of 60*2^attempt seconds plus up to 10s, capped at 300s.
func (p RetryPolicy) Wait(attempt int, rle *services.RateLimitError) time.Duration {
	if rle != nil {
		if rle.HasRetryAfter || rle.RetryAfter > 0 {
			return rle.RetryAfter + p.jitter()
		}
		if !rle.Reset.IsZero() {
			return max(0, rle.Reset.Sub(p.now())) + p.jitter()
		}
	}

	if attempt < 0 {
		attempt = 0
	}
	// keep the product inside time.Duration
	exp := math.Pow(2, float64(min(attempt, 16)))
	wait := time.Duration(exp*float64(backoffBase)) + time.Duration(p.random()*float64(backoffJitter))
	return min(wait, backoffCap)
}
