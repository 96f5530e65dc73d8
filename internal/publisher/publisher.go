// package publisher submits one saved item to a [services.Poster], retrying on rate limits
package publisher

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/likecast/internal/formatter"
	"github.com/desertthunder/likecast/internal/models"
	"github.com/desertthunder/likecast/internal/services"
	"github.com/desertthunder/likecast/internal/shared"
)

// Publisher formats items and submits them one at a time.
type Publisher struct {
	poster    services.Poster
	formatter *formatter.Formatter
	policy    RetryPolicy
	sleeper   Sleeper
	logger    *log.Logger
}

// Option configures a [Publisher].
type Option func(*Publisher)

// WithFormatter sets the post text formatter.
func WithFormatter(f *formatter.Formatter) Option {
	return func(p *Publisher) { p.formatter = f }
}

// WithRetryPolicy sets the retry policy.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(p *Publisher) { p.policy = policy }
}

// WithSleeper sets the sleeper used for retry waits.
func WithSleeper(s Sleeper) Option {
	return func(p *Publisher) { p.sleeper = s }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(p *Publisher) { p.logger = l }
}

// New creates a [Publisher] for poster.
func New(poster services.Poster, opts ...Option) *Publisher {
	p := &Publisher{
		poster:    poster,
		formatter: formatter.New(formatter.HashtagASCII),
		policy:    DefaultRetryPolicy(),
		sleeper:   TimerSleeper{},
		logger:    shared.NewLogger(nil),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Text returns the post text for item.
func (p *Publisher) Text(item models.SavedItem) string {
	return p.formatter.FormatPost(item)
}

// Publish submits item and returns its terminal outcome.
//
// Rate-limited submissions are retried up to MaxRetries times in total; on the last attempt the item is abandoned.
// Forbidden and any other errors end the item on the first occurrence.
func (p *Publisher) Publish(ctx context.Context, item models.SavedItem) models.PostResult {
	text := p.Text(item)
	result := models.PostResult{Item: item, Text: text}
	logger := shared.WithLogger(p.logger, "item", item.ID)

	if n := formatter.Length(text); n > formatter.MaxPostLength {
		logger.Warn("post text exceeds platform limit", "length", n, "limit", formatter.MaxPostLength)
	}

	maxRetries := p.policy.maxRetries()
	for attempt := range maxRetries {
		result.Attempts = attempt + 1

		resp, err := p.poster.CreatePost(ctx, text)
		if err == nil {
			result.Outcome = models.OutcomeSucceeded
			if resp != nil {
				result.PostID = resp.ID
			}
			logger.Info("posted", "title", item.Title, "post_id", result.PostID, "attempts", result.Attempts)
			return result
		}

		rle, limited := rateLimit(err)
		switch {
		case limited && attempt == maxRetries-1:
			result.Outcome = models.OutcomeAbandoned
			result.Err = fmt.Errorf("%w after %d attempts: %w", shared.ErrAbandoned, result.Attempts, err)
			logger.Error("giving up on rate-limited post", "title", item.Title, "attempts", result.Attempts, "error", err)
			return result
		case limited:
			wait := p.policy.Wait(attempt, rle)
			logger.Warn("rate limited, waiting", "attempt", result.Attempts, "wait", wait, "error", err)
			if serr := p.sleeper.Sleep(ctx, wait); serr != nil {
				result.Outcome = models.OutcomeFailed
				result.Err = fmt.Errorf("interrupted while waiting to retry: %w", serr)
				logger.Error("retry wait interrupted", "error", serr)
				return result
			}
		case errors.Is(err, shared.ErrForbidden):
			result.Outcome = models.OutcomeForbidden
			result.Err = err
			logger.Warn("post rejected, skipping", "title", item.Title, "error", err)
			return result
		default:
			result.Outcome = models.OutcomeFailed
			result.Err = err
			logger.Error("post failed, skipping", "title", item.Title, "error", err)
			return result
		}
	}

	return result
}

// rateLimit reports whether err is a rate-limit signal and returns its metadata, if any.
func rateLimit(err error) (*services.RateLimitError, bool) {
	var rle *services.RateLimitError
	if errors.As(err, &rle) {
		return rle, true
	}
	return nil, errors.Is(err, shared.ErrRateLimited)
}
