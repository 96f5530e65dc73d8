// package tasks implements the sync run: fetch saved tracks, post the new ones, remember what was seen.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/likecast/internal/models"
	"github.com/desertthunder/likecast/internal/publisher"
	"github.com/desertthunder/likecast/internal/services"
	"github.com/desertthunder/likecast/internal/shared"
	"github.com/desertthunder/likecast/internal/snapshot"
)

const (
	// DefaultPageSize is the number of saved tracks fetched per run.
	DefaultPageSize = services.SpotifyMaxPageSize
	// DefaultPostDelay is the pause between two posts.
	DefaultPostDelay = 60 * time.Second
)

// OutcomeRecorder persists per-item results (implemented by repositories.PostRepository).
type OutcomeRecorder interface {
	RecordOutcome(runID string, result models.PostResult) error
}

// Options configures a [SyncEngine].
type Options struct {
	PageSize      int           // Saved tracks fetched per run
	PostDelay     time.Duration // Pause after every non-final post
	SkipBootstrap bool          // Record without posting when no snapshot existed

	Sleeper  publisher.Sleeper // Used for the pause between posts
	Recorder OutcomeRecorder   // Optional
	Logger   *log.Logger
}

// RunResult contains all data from a sync run.
type RunResult struct {
	RunID       string
	Fetched     int                 // Tracks returned by the library
	New         int                 // Tracks absent from the previous snapshot
	Bootstrap   bool                // New tracks were recorded without posting
	Results     []models.PostResult // One per new track, in posting order
	Posted      int
	Forbidden   int
	Abandoned   int
	Failed      int
	Skipped     int
	Interrupted error // Why posting stopped early, if it did
}

func (r *RunResult) add(result models.PostResult) {
	r.Results = append(r.Results, result)
	switch result.Outcome {
	case models.OutcomeSucceeded:
		r.Posted++
	case models.OutcomeForbidden:
		r.Forbidden++
	case models.OutcomeAbandoned:
		r.Abandoned++
	case models.OutcomeSkipped:
		r.Skipped++
	default:
		r.Failed++
	}
}

// PreviewItem is a track the next run would post.
type PreviewItem struct {
	Item models.SavedItem
	Text string
}

// PreviewResult lists what the next run would do.
type PreviewResult struct {
	Fetched   int
	Bootstrap bool // The next run would record without posting
	Items     []PreviewItem
}

// SyncEngine runs the fetch, compare, post and save cycle.
type SyncEngine struct {
	library   services.Library
	store     snapshot.Store
	publisher *publisher.Publisher
	opts      Options
	logger    *log.Logger
}

// NewSyncEngine creates a [SyncEngine]. Zero options fall back to [DefaultPageSize], a real sleeper and a stderr
// logger; a zero PostDelay means no pause.
func NewSyncEngine(library services.Library, store snapshot.Store, pub *publisher.Publisher, opts Options) *SyncEngine {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Sleeper == nil {
		opts.Sleeper = publisher.TimerSleeper{}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &SyncEngine{
		library:   library,
		store:     store,
		publisher: pub,
		opts:      opts,
		logger:    opts.Logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *SyncEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func (e *SyncEngine) storePath() string {
	if fs, ok := e.store.(*snapshot.FileStore); ok {
		return fs.Path()
	}
	return "store"
}

// load reads the previous snapshot and fetches the current one.
func (e *SyncEngine) load(ctx context.Context, progress chan<- ProgressUpdate) (previous, current models.Snapshot, existed bool, err error) {
	if e.library == nil {
		return previous, current, false, fmt.Errorf("%w: library not initialized", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, loadSnapshotUpdate(e.storePath()))
	existed = e.store.Exists()
	previous, err = e.store.Load(ctx)
	if err != nil {
		return previous, current, existed, err
	}

	e.sendProgress(progress, fetchLibraryUpdate(e.library.Name(), e.opts.PageSize))
	items, err := e.library.SavedItems(ctx, e.opts.PageSize)
	if err != nil {
		return previous, current, existed, fmt.Errorf("%w: %s: %w", shared.ErrFetchFailed, e.library.Name(), err)
	}

	if items == nil {
		items = []models.SavedItem{}
	}
	current = models.Snapshot{Items: items}
	return previous, current, existed, nil
}

// Run performs one sync.
//
// Errors are returned only when the snapshot cannot be loaded or saved, or the fetch fails. Per-item failures are
// reported in the [RunResult].
func (e *SyncEngine) Run(ctx context.Context, progress chan<- ProgressUpdate) (res *RunResult, err error) {
	if e.publisher == nil {
		return nil, fmt.Errorf("%w: publisher not initialized", shared.ErrServiceUnavailable)
	}

	result := &RunResult{RunID: shared.GenerateID()}
	logger := shared.WithLogger(e.logger, "run_id", result.RunID)

	previous, current, existed, err := e.load(ctx, progress)
	if err != nil {
		logger.Error("sync aborted", "error", err)
		return nil, err
	}
	result.Fetched = current.Len()

	defer func() {
		if r := recover(); r != nil {
			result.Interrupted = fmt.Errorf("posting panicked: %v", r)
			logger.Error("posting interrupted", "panic", r)
		}

		e.sendProgress(progress, saveSnapshotUpdate(current.Len()))
		// the snapshot is written even when ctx was cancelled
		if serr := e.store.Save(context.WithoutCancel(ctx), current); serr != nil {
			logger.Error("failed to save snapshot", "error", serr)
			err = errors.Join(err, serr)
		}

		logger.Info("sync finished",
			"fetched", result.Fetched, "new", result.New, "posted", result.Posted,
			"forbidden", result.Forbidden, "abandoned", result.Abandoned, "failed", result.Failed,
			"skipped", result.Skipped)
		res = result
	}()

	fresh := snapshot.Diff(previous, current)
	result.New = len(fresh)

	if e.opts.SkipBootstrap && !existed {
		result.Bootstrap = true
		e.sendProgress(progress, bootstrapUpdate(len(fresh)))
		logger.Info("no previous snapshot, skipping posts", "count", len(fresh))
		for _, item := range fresh {
			r := models.PostResult{Item: item, Text: e.publisher.Text(item), Outcome: models.OutcomeSkipped}
			result.add(r)
			e.record(logger, result.RunID, r)
		}
		return result, nil
	}

	e.sendProgress(progress, compareUpdate(result.Fetched, len(fresh)))
	e.post(ctx, progress, logger, result, fresh)
	return result, nil
}

// post publishes fresh in order, pausing between items. It stops early when ctx is done.
func (e *SyncEngine) post(ctx context.Context, progress chan<- ProgressUpdate, logger *log.Logger, result *RunResult, fresh []models.SavedItem) {
	total := len(fresh)
	for i, item := range fresh {
		if err := ctx.Err(); err != nil {
			result.Interrupted = err
			logger.Warn("sync cancelled", "remaining", total-i)
			return
		}

		e.sendProgress(progress, publishItemUpdate(i+1, total, item))
		r := e.publisher.Publish(ctx, item)
		result.add(r)
		e.record(logger, result.RunID, r)
		e.sendProgress(progress, publishedItemUpdate(i+1, total, r))

		if i == total-1 || e.opts.PostDelay <= 0 {
			continue
		}

		e.sendProgress(progress, pauseUpdate(i+1, total, e.opts.PostDelay))
		if err := e.opts.Sleeper.Sleep(ctx, e.opts.PostDelay); err != nil {
			result.Interrupted = err
			logger.Warn("sync cancelled", "remaining", total-i-1)
			return
		}
	}
}

func (e *SyncEngine) record(logger *log.Logger, runID string, r models.PostResult) {
	if e.opts.Recorder == nil {
		return
	}
	if err := e.opts.Recorder.RecordOutcome(runID, r); err != nil {
		logger.Warn("failed to record outcome", "item", r.Item.ID, "error", err)
	}
}

// Preview returns the tracks the next run would post, with their text. Nothing is posted or saved.
func (e *SyncEngine) Preview(ctx context.Context, progress chan<- ProgressUpdate) (*PreviewResult, error) {
	if e.publisher == nil {
		return nil, fmt.Errorf("%w: publisher not initialized", shared.ErrServiceUnavailable)
	}

	previous, current, existed, err := e.load(ctx, progress)
	if err != nil {
		return nil, err
	}

	fresh := snapshot.Diff(previous, current)
	e.sendProgress(progress, compareUpdate(current.Len(), len(fresh)))

	result := &PreviewResult{
		Fetched:   current.Len(),
		Bootstrap: e.opts.SkipBootstrap && !existed,
		Items:     make([]PreviewItem, 0, len(fresh)),
	}
	for _, item := range fresh {
		result.Items = append(result.Items, PreviewItem{Item: item, Text: e.publisher.Text(item)})
	}
	return result, nil
}
