package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/wlx/internal/models"
	"github.com/desertthunder/wlx/internal/shared"
)

const runColumns = `id, sequence, playlist_id, requested_count, deleted_count, settings_json, dry_run, completed,
	error_message, started_at, finished_at, created_at, updated_at`

// RunRepository stores deletion runs.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a run with a generated ID and sequence
func (r *RunRepository) Create(run *models.Run) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	now := time.Now().UTC()
	run.ID = shared.GenerateID()
	run.Sequence = sequence
	run.CreatedAt = now
	run.UpdatedAt = now
	if run.SettingsJSON == "" {
		run.SettingsJSON = "{}"
	}

	query := `INSERT INTO runs (` + runColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.Exec(query,
		run.ID,
		run.Sequence,
		run.PlaylistID,
		run.RequestedCount,
		run.DeletedCount,
		run.SettingsJSON,
		run.DryRun,
		run.Completed,
		nullString(run.ErrorMessage),
		run.StartedAt,
		nullTime(run.FinishedAt),
		run.CreatedAt,
		run.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// Update writes the outcome fields of an existing run
func (r *RunRepository) Update(run *models.Run) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	run.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE runs
		SET deleted_count = ?, completed = ?, error_message = ?, finished_at = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		run.DeletedCount,
		run.Completed,
		nullString(run.ErrorMessage),
		nullTime(run.FinishedAt),
		run.UpdatedAt,
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("run not found: %s", run.ID)
	}
	return nil
}

// Finish marks a run as finished with its final counts.
func (r *RunRepository) Finish(run *models.Run, deleted int, completed bool, runErr error, finishedAt time.Time) error {
	run.DeletedCount = deleted
	run.Completed = completed
	run.ErrorMessage = ""
	if runErr != nil {
		run.ErrorMessage = runErr.Error()
	}
	finished := finishedAt.UTC()
	run.FinishedAt = &finished
	return r.Update(run)
}

// Get retrieves a run by ID
func (r *RunRepository) Get(id string) (*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = ?`
	return r.scanOne(r.db.QueryRow(query, id))
}

// GetBySequence retrieves a run by its sequence number
func (r *RunRepository) GetBySequence(sequence int) (*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE sequence = ?`
	return r.scanOne(r.db.QueryRow(query, sequence))
}

// List returns the most recent runs first. A limit of zero or less returns every run.
func (r *RunRepository) List(playlistID string, limit int) ([]*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	args := []any{}

	if playlistID != "" {
		query += " WHERE playlist_id = ?"
		args = append(args, playlistID)
	}

	query += " ORDER BY sequence DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return runs, nil
}

// Delete removes a run along with its deleted entries and snapshots
func (r *RunRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("run not found: %s", id)
	}
	return nil
}

func (r *RunRepository) scanOne(row *sql.Row) (*models.Run, error) {
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found")
	}
	return run, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*models.Run, error) {
	var (
		run          models.Run
		errorMessage sql.NullString
		finishedAt   sql.NullTime
	)

	err := row.Scan(
		&run.ID,
		&run.Sequence,
		&run.PlaylistID,
		&run.RequestedCount,
		&run.DeletedCount,
		&run.SettingsJSON,
		&run.DryRun,
		&run.Completed,
		&errorMessage,
		&run.StartedAt,
		&finishedAt,
		&run.CreatedAt,
		&run.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run.ErrorMessage = errorMessage.String
	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}
	return &run, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func nullInt(i *int) any {
	if i == nil {
		return nil
	}
	return *i
}
