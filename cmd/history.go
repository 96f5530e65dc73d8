package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/likecast/internal/models"
	"github.com/desertthunder/likecast/internal/repositories"
	"github.com/desertthunder/likecast/internal/snapshot"
	"github.com/urfave/cli/v3"
)

// History prints recorded post outcomes, newest first, with per-outcome totals.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	if err := r.configure(cmd); err != nil {
		return err
	}

	db, err := r.openHistory()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewPostRepository(db)

	var records []*models.PostRecord
	if runID := cmd.String("run"); runID != "" {
		records, err = repo.ByRun(runID)
	} else {
		records, err = repo.Recent(cmd.Int("limit"))
	}
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(records, true)
	}

	if len(records) == 0 {
		return r.writePlain("No posts recorded yet.\n")
	}

	r.writePlainHeader("Post History")
	for _, rec := range records {
		r.writePlain("#%-4d %s  %s  %s\n",
			rec.Sequence, rec.CreatedAt.Local().Format("2006-01-02 15:04"), r.palette.Outcome(rec.Outcome), rec.Title)
		if rec.Error != "" {
			r.writePlain("      %s\n", r.palette.Help(rec.Error))
		}
	}

	counts, err := repo.CountByOutcome()
	if err != nil {
		return err
	}

	parts := make([]string, 0, len(counts))
	for _, o := range []models.Outcome{
		models.OutcomeSucceeded, models.OutcomeForbidden, models.OutcomeAbandoned, models.OutcomeFailed, models.OutcomeSkipped,
	} {
		if n := counts[o]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", o, n))
		}
	}
	return r.writePlainln("Totals: %s", strings.Join(parts, ", "))
}

// SnapshotShow prints the stored snapshot.
func (r *Runner) SnapshotShow(ctx context.Context, cmd *cli.Command) error {
	if err := r.configure(cmd); err != nil {
		return err
	}

	store := snapshot.NewFileStore(r.config.Sync.SnapshotPath)
	if !store.Exists() {
		return r.writePlain("No snapshot at %s yet.\n", store.Path())
	}

	snap, err := store.Load(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(snap, true)
	}

	r.writePlainHeader(fmt.Sprintf("Snapshot: %s (%d tracks)", store.Path(), snap.Len()))
	for i, item := range snap.Items {
		r.writePlain("%3d. %s - %s\n", i+1, strings.Join(item.ArtistNames, ", "), item.Title)
	}
	return nil
}
