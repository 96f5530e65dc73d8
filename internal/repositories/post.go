package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/likecast/internal/models"
	"github.com/desertthunder/likecast/internal/shared"
)

// PostRepository stores [models.PostResult] values as [models.PostRecord] rows.
//
// It satisfies tasks.OutcomeRecorder.
type PostRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostRepository creates a new PostRepository with the given database connection
func NewPostRepository(db *sql.DB) *PostRepository {
	return &PostRepository{db: db, now: time.Now}
}

// RecordOutcome inserts result for the run identified by runID.
func (r *PostRepository) RecordOutcome(runID string, result models.PostResult) error {
	if runID == "" || result.Item.ID == "" {
		return fmt.Errorf("%w: run id and item id are required", shared.ErrInvalidArgument)
	}

	sequence, err := NextSequence(r.db, "posts")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	var errText string
	if result.Err != nil {
		errText = result.Err.Error()
	}

	query := `
		INSERT INTO posts (id, sequence, run_id, item_id, title, text, outcome, attempts, post_id, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		shared.GenerateID(),
		sequence,
		runID,
		result.Item.ID,
		result.Item.Title,
		result.Text,
		result.Outcome.String(),
		result.Attempts,
		result.PostID,
		errText,
		r.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}

	return nil
}

// Recent returns up to limit records, newest first.
func (r *PostRepository) Recent(limit int) ([]*models.PostRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, sequence, run_id, item_id, title, text, outcome, attempts, post_id, error, created_at
		FROM posts
		ORDER BY sequence DESC
		LIMIT ?
	`
	return r.list(query, limit)
}

// ByRun returns the records of one run in the order they were recorded.
func (r *PostRepository) ByRun(runID string) ([]*models.PostRecord, error) {
	query := `
		SELECT id, sequence, run_id, item_id, title, text, outcome, attempts, post_id, error, created_at
		FROM posts
		WHERE run_id = ?
		ORDER BY sequence ASC
	`
	return r.list(query, runID)
}

// CountByOutcome returns the number of records per outcome.
func (r *PostRepository) CountByOutcome() (map[models.Outcome]int, error) {
	rows, err := r.db.Query(`SELECT outcome, COUNT(*) FROM posts GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Outcome]int)
	for rows.Next() {
		var (
			outcome string
			count   int
		)
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[models.ParseOutcome(outcome)] += count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return counts, nil
}

func (r *PostRepository) list(query string, args ...any) ([]*models.PostRecord, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	var records []*models.PostRecord
	for rows.Next() {
		record, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// scanRow scans a row from [sql.Rows] into a [models.PostRecord]
func (r *PostRepository) scanRow(rows *sql.Rows) (*models.PostRecord, error) {
	var (
		record  models.PostRecord
		outcome string
	)

	err := rows.Scan(
		&record.ID,
		&record.Sequence,
		&record.RunID,
		&record.ItemID,
		&record.Title,
		&record.Text,
		&outcome,
		&record.Attempts,
		&record.PostID,
		&record.Error,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan post: %w", err)
	}

	record.Outcome = models.ParseOutcome(outcome)
	return &record, nil
}
