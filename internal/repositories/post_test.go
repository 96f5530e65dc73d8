package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/likecast/internal/models"
	"github.com/desertthunder/likecast/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func result(id string, outcome models.Outcome, err error) models.PostResult {
	return models.PostResult{
		Item:     models.SavedItem{ID: id, Title: "Track " + id},
		Text:     "Liked on Spotify: " + id,
		Outcome:  outcome,
		Attempts: 1,
		Err:      err,
	}
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(db, "posts")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != want {
			t.Errorf("expected sequence %d, got %d", want, got)
		}
	}

	if _, err := NextSequence(db, "missing"); err == nil {
		t.Error("expected error for unknown sequence table")
	}
}

func TestPostRepository(t *testing.T) {
	t.Run("RecordOutcome", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewPostRepository(db)
		fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		repo.now = func() time.Time { return fixed }

		posted := result("a", models.OutcomeSucceeded, nil)
		posted.PostID = "1790000000000000000"
		posted.Attempts = 2

		if err := repo.RecordOutcome("run-1", posted); err != nil {
			t.Fatalf("failed to record outcome: %v", err)
		}

		records, err := repo.Recent(10)
		if err != nil {
			t.Fatalf("failed to list records: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("expected 1 record, got %d", len(records))
		}

		rec := records[0]
		if rec.ID == "" || rec.Sequence != 1 {
			t.Errorf("expected generated id and sequence 1, got %q / %d", rec.ID, rec.Sequence)
		}
		if rec.RunID != "run-1" || rec.ItemID != "a" || rec.Title != "Track a" {
			t.Errorf("unexpected record %+v", rec)
		}
		if rec.Outcome != models.OutcomeSucceeded || rec.Attempts != 2 || rec.PostID != "1790000000000000000" {
			t.Errorf("unexpected outcome fields %+v", rec)
		}
		if !rec.CreatedAt.Equal(fixed) {
			t.Errorf("expected created_at %v, got %v", fixed, rec.CreatedAt)
		}
	})

	t.Run("stores error text", func(t *testing.T) {
		repo := NewPostRepository(setupTestDB(t))

		if err := repo.RecordOutcome("run-1", result("a", models.OutcomeForbidden, errors.New("duplicate content"))); err != nil {
			t.Fatalf("failed to record outcome: %v", err)
		}

		records, _ := repo.Recent(1)
		if records[0].Error != "duplicate content" || records[0].Outcome != models.OutcomeForbidden {
			t.Errorf("unexpected record %+v", records[0])
		}
	})

	t.Run("validates input", func(t *testing.T) {
		repo := NewPostRepository(setupTestDB(t))

		if err := repo.RecordOutcome("", result("a", models.OutcomeSucceeded, nil)); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for missing run id, got %v", err)
		}
		if err := repo.RecordOutcome("run", result("", models.OutcomeSucceeded, nil)); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for missing item id, got %v", err)
		}
	})

	t.Run("Recent", func(t *testing.T) {
		repo := NewPostRepository(setupTestDB(t))
		for _, id := range []string{"a", "b", "c"} {
			if err := repo.RecordOutcome("run-1", result(id, models.OutcomeSucceeded, nil)); err != nil {
				t.Fatalf("failed to record %s: %v", id, err)
			}
		}

		records, err := repo.Recent(2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(records) != 2 || records[0].ItemID != "c" || records[1].ItemID != "b" {
			t.Errorf("expected newest first (c, b), got %d records", len(records))
		}

		all, _ := repo.Recent(0)
		if len(all) != 3 {
			t.Errorf("expected default limit to return all 3, got %d", len(all))
		}
	})

	t.Run("ByRun", func(t *testing.T) {
		repo := NewPostRepository(setupTestDB(t))
		repo.RecordOutcome("run-1", result("a", models.OutcomeSucceeded, nil))
		repo.RecordOutcome("run-2", result("b", models.OutcomeFailed, errors.New("boom")))
		repo.RecordOutcome("run-1", result("c", models.OutcomeAbandoned, errors.New("rate limited")))

		records, err := repo.ByRun("run-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(records) != 2 || records[0].ItemID != "a" || records[1].ItemID != "c" {
			t.Errorf("unexpected run records %v", records)
		}

		none, err := repo.ByRun("run-3")
		if err != nil || len(none) != 0 {
			t.Errorf("expected no records, got %v (%v)", none, err)
		}
	})

	t.Run("CountByOutcome", func(t *testing.T) {
		repo := NewPostRepository(setupTestDB(t))
		outcomes := []models.Outcome{
			models.OutcomeSucceeded,
			models.OutcomeSucceeded,
			models.OutcomeForbidden,
			models.OutcomeAbandoned,
			models.OutcomeSkipped,
		}
		for i, o := range outcomes {
			if err := repo.RecordOutcome("run", result(string(rune('a'+i)), o, nil)); err != nil {
				t.Fatalf("failed to record: %v", err)
			}
		}

		counts, err := repo.CountByOutcome()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := map[models.Outcome]int{
			models.OutcomeSucceeded: 2,
			models.OutcomeForbidden: 1,
			models.OutcomeAbandoned: 1,
			models.OutcomeSkipped:   1,
		}
		for outcome, n := range want {
			if counts[outcome] != n {
				t.Errorf("expected %d %s, got %d", n, outcome, counts[outcome])
			}
		}
		if counts[models.OutcomeFailed] != 0 {
			t.Errorf("expected no failed posts, got %d", counts[models.OutcomeFailed])
		}
	})
}
