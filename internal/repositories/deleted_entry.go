package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/wlx/internal/models"
	"github.com/desertthunder/wlx/internal/shared"
)

// DeletedEntryRepository stores the audit trail of a run.
type DeletedEntryRepository struct {
	db *sql.DB
}

// NewDeletedEntryRepository creates a new DeletedEntryRepository with the given database connection
func NewDeletedEntryRepository(db *sql.DB) *DeletedEntryRepository {
	return &DeletedEntryRepository{db: db}
}

// AddAll inserts records for runID in one transaction. Either every record is stored or none is.
func (r *DeletedEntryRepository) AddAll(runID string, records []models.AuditRecord) error {
	if runID == "" {
		return fmt.Errorf("%w: run id is required", shared.ErrMissingArgument)
	}
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO deleted_entries (
			id, run_id, sequence_number, deleted_at, order_index_at_scan, set_video_id,
			video_id, title, channel_name, published_time_text, length_text
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		_, err := stmt.Exec(
			shared.GenerateID(),
			runID,
			rec.SequenceNumber,
			rec.Timestamp.UTC(),
			nullInt(rec.OrderIndexAtScan),
			rec.SetVideoID,
			rec.VideoID,
			rec.Title,
			rec.ChannelName,
			rec.PublishedTimeText,
			rec.LengthText,
		)
		if err != nil {
			return fmt.Errorf("failed to insert deleted entry %d: %w", rec.SequenceNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit deleted entries: %w", err)
	}
	return nil
}

// ListByRun returns the records of a run in sequence order.
func (r *DeletedEntryRepository) ListByRun(runID string) ([]models.AuditRecord, error) {
	return r.query(`
		SELECT sequence_number, deleted_at, order_index_at_scan, set_video_id, video_id, title, channel_name,
			published_time_text, length_text
		FROM deleted_entries
		WHERE run_id = ?
		ORDER BY sequence_number ASC
	`, runID)
}

// FindByVideoID returns every recorded removal of a video across runs, oldest first.
func (r *DeletedEntryRepository) FindByVideoID(videoID string) ([]models.AuditRecord, error) {
	if videoID == "" {
		return nil, fmt.Errorf("%w: video id is required", shared.ErrMissingArgument)
	}
	return r.query(`
		SELECT sequence_number, deleted_at, order_index_at_scan, set_video_id, video_id, title, channel_name,
			published_time_text, length_text
		FROM deleted_entries
		WHERE video_id = ?
		ORDER BY deleted_at ASC
	`, videoID)
}

func (r *DeletedEntryRepository) query(query string, args ...any) ([]models.AuditRecord, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query deleted entries: %w", err)
	}
	defer rows.Close()

	records := []models.AuditRecord{}
	for rows.Next() {
		var (
			rec        models.AuditRecord
			orderIndex sql.NullInt64
		)
		err := rows.Scan(
			&rec.SequenceNumber,
			&rec.Timestamp,
			&orderIndex,
			&rec.SetVideoID,
			&rec.VideoID,
			&rec.Title,
			&rec.ChannelName,
			&rec.PublishedTimeText,
			&rec.LengthText,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deleted entry: %w", err)
		}
		if orderIndex.Valid {
			i := int(orderIndex.Int64)
			rec.OrderIndexAtScan = &i
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return records, nil
}
