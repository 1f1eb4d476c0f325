package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/wlx/internal/models"
	"github.com/desertthunder/wlx/internal/shared"
)

// SnapshotRepository records scan exports written to disk.
type SnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository creates a new SnapshotRepository with the given database connection
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Create inserts a snapshot. RunID may be empty for standalone exports.
func (r *SnapshotRepository) Create(snap *models.Snapshot) error {
	if snap.PlaylistID == "" {
		return fmt.Errorf("validation failed: playlist id is required")
	}

	snap.ID = shared.GenerateID()
	snap.CreatedAt = time.Now().UTC()

	_, err := r.db.Exec(`
		INSERT INTO snapshots (id, run_id, playlist_id, pages_fetched, unique_entries, reported_video_count, file_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		snap.ID,
		nullString(snap.RunID),
		snap.PlaylistID,
		snap.PagesFetched,
		snap.UniqueEntries,
		nullInt(snap.ReportedVideoCount),
		snap.FilePath,
		snap.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return nil
}

// ListByRun returns the snapshots attached to a run, oldest first.
func (r *SnapshotRepository) ListByRun(runID string) ([]*models.Snapshot, error) {
	return r.query(`
		SELECT id, run_id, playlist_id, pages_fetched, unique_entries, reported_video_count, file_path, created_at
		FROM snapshots
		WHERE run_id = ?
		ORDER BY created_at ASC
	`, runID)
}

// List returns the most recent snapshots first.
func (r *SnapshotRepository) List(limit int) ([]*models.Snapshot, error) {
	query := `
		SELECT id, run_id, playlist_id, pages_fetched, unique_entries, reported_video_count, file_path, created_at
		FROM snapshots
		ORDER BY created_at DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return r.query(query, args...)
}

func (r *SnapshotRepository) query(query string, args ...any) ([]*models.Snapshot, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*models.Snapshot
	for rows.Next() {
		var (
			snap     models.Snapshot
			runID    sql.NullString
			reported sql.NullInt64
		)
		err := rows.Scan(&snap.ID, &runID, &snap.PlaylistID, &snap.PagesFetched, &snap.UniqueEntries, &reported, &snap.FilePath, &snap.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snap.RunID = runID.String
		if reported.Valid {
			n := int(reported.Int64)
			snap.ReportedVideoCount = &n
		}
		snapshots = append(snapshots, &snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return snapshots, nil
}
