package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/likecast/internal/shared"
	"github.com/desertthunder/likecast/internal/tasks"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v3"
)

// Run performs one sync: fetch, diff, post, save.
//
// Only fetch, snapshot and config failures are returned; per-item failures are printed in the summary.
func (r *Runner) Run(ctx context.Context, cmd *cli.Command) error {
	if err := r.configure(cmd); err != nil {
		return err
	}

	opts := engineOpts{
		dryRun:        cmd.Bool("dry-run"),
		skipBootstrap: cmd.Bool("skip-bootstrap"),
		needPoster:    true,
	}

	if cmd.Bool("json") {
		result, err := r.syncOnce(ctx, opts, nil)
		if result != nil {
			if werr := r.writeJSON(runSummary(result), true); werr != nil {
				return errors.Join(err, werr)
			}
		}
		return err
	}

	progress, stop := r.progressPrinter()
	result, err := r.syncOnce(ctx, opts, progress)
	stop()

	if result != nil {
		r.printRunResult(result)
	}
	return err
}

// syncOnce builds an engine and runs it.
func (r *Runner) syncOnce(ctx context.Context, opts engineOpts, progress chan<- tasks.ProgressUpdate) (*tasks.RunResult, error) {
	engine, cleanup, err := r.buildEngine(ctx, opts)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	r.logger.Info("starting sync", "dry_run", opts.dryRun)
	return engine.Run(ctx, progress)
}

func (r *Runner) printRunResult(result *tasks.RunResult) {
	r.writePlainHeader("Sync Complete")
	r.writePlain("Run: %s\n", result.RunID)
	r.writePlain("Fetched: %d, new: %d\n", result.Fetched, result.New)

	if result.Bootstrap {
		r.writePlain("%s\n", r.palette.Help("No previous snapshot: recorded without posting"))
	}

	r.writePlain("Posted: %s  Forbidden: %d  Abandoned: %d  Failed: %d  Skipped: %d\n",
		r.palette.OK(fmt.Sprint(result.Posted)), result.Forbidden, result.Abandoned, result.Failed, result.Skipped)

	problems := 0
	for _, res := range result.Results {
		if res.OK() || res.Err == nil {
			continue
		}
		if problems == 0 {
			r.writePlain("\nNot posted:\n")
		}
		problems++
		r.writePlain("  %s %s: %v\n", r.palette.Outcome(res.Outcome), res.Item.Title, res.Err)
	}

	if result.Interrupted != nil {
		r.writePlainln("%s", r.palette.Warn(fmt.Sprintf("⚠ Posting stopped early: %v", result.Interrupted)))
	}
}

type runItemJSON struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Text     string `json:"text"`
	Outcome  string `json:"outcome"`
	Attempts int    `json:"attempts"`
	PostID   string `json:"post_id,omitempty"`
	Error    string `json:"error,omitempty"`
}

type runJSON struct {
	RunID       string        `json:"run_id"`
	Fetched     int           `json:"fetched"`
	New         int           `json:"new"`
	Bootstrap   bool          `json:"bootstrap"`
	Posted      int           `json:"posted"`
	Forbidden   int           `json:"forbidden"`
	Abandoned   int           `json:"abandoned"`
	Failed      int           `json:"failed"`
	Skipped     int           `json:"skipped"`
	Interrupted string        `json:"interrupted,omitempty"`
	Items       []runItemJSON `json:"items"`
}

func runSummary(result *tasks.RunResult) runJSON {
	out := runJSON{
		RunID:     result.RunID,
		Fetched:   result.Fetched,
		New:       result.New,
		Bootstrap: result.Bootstrap,
		Posted:    result.Posted,
		Forbidden: result.Forbidden,
		Abandoned: result.Abandoned,
		Failed:    result.Failed,
		Skipped:   result.Skipped,
		Items:     make([]runItemJSON, 0, len(result.Results)),
	}
	if result.Interrupted != nil {
		out.Interrupted = result.Interrupted.Error()
	}

	for _, res := range result.Results {
		item := runItemJSON{
			ID:       res.Item.ID,
			Title:    res.Item.Title,
			Text:     res.Text,
			Outcome:  res.Outcome.String(),
			Attempts: res.Attempts,
			PostID:   res.PostID,
		}
		if res.Err != nil {
			item.Error = res.Err.Error()
		}
		out.Items = append(out.Items, item)
	}
	return out
}

// cronLogger adapts [log.Logger] to [cron.Logger].
type cronLogger struct {
	l *log.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error(msg, append(keysAndValues, "error", err)...)
}

// Watch runs the sync on a cron schedule. Overlapping runs are skipped. It returns when ctx is cancelled.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	if err := r.configure(cmd); err != nil {
		return err
	}

	schedule := strings.TrimSpace(cmd.String("schedule"))
	if schedule == "" {
		schedule = strings.TrimSpace(r.config.Sync.Schedule)
	}
	if schedule == "" {
		return fmt.Errorf("%w: no schedule given (--schedule or sync.schedule)", shared.ErrInvalidConfig)
	}

	opts := engineOpts{
		dryRun:        cmd.Bool("dry-run"),
		skipBootstrap: cmd.Bool("skip-bootstrap"),
		needPoster:    true,
	}

	// fail before scheduling when credentials are missing
	if err := r.config.Validate(!opts.dryRun); err != nil {
		return err
	}

	job := func() {
		result, err := r.syncOnce(ctx, opts, nil)
		if err != nil {
			r.logger.Error("scheduled sync failed", "error", err)
			return
		}
		r.logger.Info("scheduled sync done", "run_id", result.RunID, "new", result.New, "posted", result.Posted)
	}

	logger := cronLogger{l: r.logger}
	c := cron.New(
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		cron.WithLogger(logger),
	)

	if _, err := c.AddFunc(schedule, job); err != nil {
		return fmt.Errorf("%w: schedule %q: %v", shared.ErrInvalidArgument, schedule, err)
	}

	r.writePlain("Watching with schedule %s (Ctrl-C to stop)\n", r.palette.Title(schedule))
	if cmd.Bool("now") {
		job()
	}

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()

	r.logger.Info("watch stopped")
	return nil
}

// Diff prints the tracks the next run would post.
func (r *Runner) Diff(ctx context.Context, cmd *cli.Command) error {
	if err := r.configure(cmd); err != nil {
		return err
	}

	engine, cleanup, err := r.buildEngine(ctx, engineOpts{})
	if err != nil {
		return err
	}
	defer cleanup()

	preview, err := engine.Preview(ctx, nil)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		type item struct {
			ID    string `json:"id"`
			Title string `json:"title"`
			Text  string `json:"text"`
		}
		items := make([]item, 0, len(preview.Items))
		for _, p := range preview.Items {
			items = append(items, item{ID: p.Item.ID, Title: p.Item.Title, Text: p.Text})
		}
		return r.writeJSON(map[string]any{
			"fetched":   preview.Fetched,
			"bootstrap": preview.Bootstrap,
			"items":     items,
		}, cmd.Bool("pretty"))
	}

	r.writePlain("Fetched %d tracks, %d new\n", preview.Fetched, len(preview.Items))
	if preview.Bootstrap {
		r.writePlain("%s\n", r.palette.Help("No previous snapshot: the next run records these without posting"))
	}
	if len(preview.Items) == 0 {
		return r.writePlain("Nothing to post.\n")
	}

	r.writePlain("\n")
	for i, p := range preview.Items {
		r.writePlain("%d. %s\n   %s\n", i+1, r.palette.Title(p.Item.Title), p.Text)
	}
	return nil
}
