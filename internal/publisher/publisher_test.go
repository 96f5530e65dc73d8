package publisher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/likecast/internal/formatter"
	"github.com/desertthunder/likecast/internal/models"
	"github.com/desertthunder/likecast/internal/services"
	"github.com/desertthunder/likecast/internal/shared"
	tu "github.com/desertthunder/likecast/internal/testing"
)

func newTestPublisher(poster services.Poster, sleeper Sleeper, maxRetries int) *Publisher {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return New(poster,
		WithSleeper(sleeper),
		WithLogger(shared.NewLogger(io.Discard)),
		WithRetryPolicy(RetryPolicy{MaxRetries: maxRetries, Rand: tu.FixedRand(0), Now: tu.FixedClock(now)}),
	)
}

func rateLimited(retryAfter time.Duration) error {
	return &services.RateLimitError{StatusCode: 429, RetryAfter: retryAfter}
}

func TestPublish(t *testing.T) {
	item := models.SavedItem{
		ID:          "t1",
		Title:       "Hoppípolla",
		ArtistNames: []string{"Sigur Rós"},
		URL:         "https://open.spotify.com/track/t1",
	}

	t.Run("Succeeds on first attempt", func(t *testing.T) {
		poster := &tu.ScriptedPoster{}
		sleeper := &tu.RecordingSleeper{}

		result := newTestPublisher(poster, sleeper, 5).Publish(t.Context(), item)

		if !result.OK() {
			t.Fatalf("expected success, got %v (%v)", result.Outcome, result.Err)
		}
		if result.Attempts != 1 {
			t.Errorf("expected 1 attempt, got %d", result.Attempts)
		}
		if result.PostID != "post-1" {
			t.Errorf("expected post id post-1, got %s", result.PostID)
		}
		if len(sleeper.Durations()) != 0 {
			t.Errorf("expected no waits, got %v", sleeper.Durations())
		}

		want := `Liked on Spotify: "Hoppípolla" by Sigur Rós https://open.spotify.com/track/t1 #sigurrs`
		if texts := poster.Texts(); len(texts) != 1 || texts[0] != want {
			t.Errorf("unexpected text %q", texts)
		}
		if result.Text != want {
			t.Errorf("expected result text to match post, got %q", result.Text)
		}
	})

	t.Run("Retries after rate limit", func(t *testing.T) {
		poster := &tu.ScriptedPoster{Errors: []error{rateLimited(5 * time.Second), rateLimited(0)}}
		sleeper := &tu.RecordingSleeper{}

		result := newTestPublisher(poster, sleeper, 5).Publish(t.Context(), item)

		if result.Outcome != models.OutcomeSucceeded {
			t.Fatalf("expected success, got %v", result.Outcome)
		}
		if result.Attempts != 3 {
			t.Errorf("expected 3 attempts, got %d", result.Attempts)
		}

		waits := sleeper.Durations()
		if len(waits) != 2 {
			t.Fatalf("expected 2 waits, got %v", waits)
		}
		if waits[0] != 6*time.Second {
			t.Errorf("expected retry-after wait of 6s, got %v", waits[0])
		}
		if waits[1] != 120*time.Second {
			t.Errorf("expected backoff wait of 120s on attempt 1, got %v", waits[1])
		}
	})

	t.Run("Wrapped rate limit is detected", func(t *testing.T) {
		poster := &tu.ScriptedPoster{Errors: []error{fmt.Errorf("submit: %w", rateLimited(2*time.Second))}}
		sleeper := &tu.RecordingSleeper{}

		result := newTestPublisher(poster, sleeper, 5).Publish(t.Context(), item)

		if !result.OK() || result.Attempts != 2 {
			t.Errorf("expected success on second attempt, got %v after %d", result.Outcome, result.Attempts)
		}
	})

	t.Run("Abandons after max retries", func(t *testing.T) {
		errs := make([]error, 5)
		for i := range errs {
			errs[i] = rateLimited(time.Second)
		}
		poster := &tu.ScriptedPoster{Errors: errs}
		sleeper := &tu.RecordingSleeper{}

		result := newTestPublisher(poster, sleeper, 5).Publish(t.Context(), item)

		if result.Outcome != models.OutcomeAbandoned {
			t.Fatalf("expected abandoned, got %v", result.Outcome)
		}
		if result.Attempts != 5 || poster.Calls() != 5 {
			t.Errorf("expected 5 attempts, got %d (%d calls)", result.Attempts, poster.Calls())
		}
		if len(sleeper.Durations()) != 4 {
			t.Errorf("expected 4 waits, got %d", len(sleeper.Durations()))
		}
		if !errors.Is(result.Err, shared.ErrAbandoned) {
			t.Errorf("expected ErrAbandoned, got %v", result.Err)
		}

		var rle *services.RateLimitError
		if !errors.As(result.Err, &rle) {
			t.Errorf("expected the last rate-limit error to be kept, got %v", result.Err)
		}
	})

	t.Run("Single attempt policy abandons immediately", func(t *testing.T) {
		poster := &tu.ScriptedPoster{Errors: []error{rateLimited(time.Second)}}
		sleeper := &tu.RecordingSleeper{}

		result := newTestPublisher(poster, sleeper, 1).Publish(t.Context(), item)

		if result.Outcome != models.OutcomeAbandoned || len(sleeper.Durations()) != 0 {
			t.Errorf("expected immediate abandon, got %v with waits %v", result.Outcome, sleeper.Durations())
		}
	})

	t.Run("Forbidden is not retried", func(t *testing.T) {
		poster := &tu.ScriptedPoster{Errors: []error{fmt.Errorf("%w: duplicate content", shared.ErrForbidden)}}
		sleeper := &tu.RecordingSleeper{}

		result := newTestPublisher(poster, sleeper, 5).Publish(t.Context(), item)

		if result.Outcome != models.OutcomeForbidden {
			t.Errorf("expected forbidden, got %v", result.Outcome)
		}
		if poster.Calls() != 1 || len(sleeper.Durations()) != 0 {
			t.Errorf("expected a single call and no waits, got %d calls, %v", poster.Calls(), sleeper.Durations())
		}
		if !strings.Contains(result.Err.Error(), "duplicate content") {
			t.Errorf("expected platform detail in error, got %v", result.Err)
		}
	})

	t.Run("Other errors are not retried", func(t *testing.T) {
		poster := &tu.ScriptedPoster{Errors: []error{errors.New("connection reset")}}
		sleeper := &tu.RecordingSleeper{}

		result := newTestPublisher(poster, sleeper, 5).Publish(t.Context(), item)

		if result.Outcome != models.OutcomeFailed {
			t.Errorf("expected failed, got %v", result.Outcome)
		}
		if poster.Calls() != 1 {
			t.Errorf("expected a single call, got %d", poster.Calls())
		}
	})

	t.Run("Cancelled wait ends the item", func(t *testing.T) {
		poster := &tu.ScriptedPoster{Errors: []error{rateLimited(time.Second)}}
		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		result := newTestPublisher(poster, &tu.RecordingSleeper{}, 5).Publish(ctx, item)

		if result.Outcome != models.OutcomeFailed {
			t.Errorf("expected failed, got %v", result.Outcome)
		}
		if !errors.Is(result.Err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", result.Err)
		}
	})

	t.Run("Unicode hashtags", func(t *testing.T) {
		poster := &tu.ScriptedPoster{}
		pub := New(poster,
			WithFormatter(formatter.New(formatter.HashtagUnicode)),
			WithSleeper(&tu.RecordingSleeper{}),
			WithLogger(shared.NewLogger(io.Discard)),
		)

		result := pub.Publish(t.Context(), item)
		if !strings.HasSuffix(result.Text, " #sigurrós") {
			t.Errorf("expected unicode hashtag, got %q", result.Text)
		}
	})
}
