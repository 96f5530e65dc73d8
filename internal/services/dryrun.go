package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
)

// DryRunPoster implements [Poster] by logging the text instead of publishing it.
type DryRunPoster struct {
	logger *log.Logger

	mu    sync.Mutex
	posts []string
}

// NewDryRunPoster creates a [DryRunPoster] that logs to logger.
func NewDryRunPoster(logger *log.Logger) *DryRunPoster {
	return &DryRunPoster{logger: logger}
}

func (d *DryRunPoster) Name() string {
	return "dry-run"
}

// CreatePost records and logs text, and always succeeds.
func (d *DryRunPoster) CreatePost(ctx context.Context, text string) (*PostResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.posts = append(d.posts, text)
	id := fmt.Sprintf("dry-run-%d", len(d.posts))
	d.mu.Unlock()

	if d.logger != nil {
		d.logger.Info("dry run, not posting", "id", id, "text", text)
	}
	return &PostResponse{ID: id, Text: text}, nil
}

// Posts returns the texts received so far.
func (d *DryRunPoster) Posts() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.posts...)
}
