package main

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/wlx/internal/models"
	"github.com/desertthunder/wlx/internal/repositories"
	"github.com/desertthunder/wlx/internal/shared"
	"github.com/desertthunder/wlx/internal/tasks"
)

// historyStore records runs when history is enabled. A nil store records nothing.
type historyStore struct {
	db        *sql.DB
	runs      *repositories.RunRepository
	entries   *repositories.DeletedEntryRepository
	snapshots *repositories.SnapshotRepository
}

func (r *Runner) openHistoryDB() (*historyStore, error) {
	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, err
	}
	return &historyStore{
		db:        db,
		runs:      repositories.NewRunRepository(db),
		entries:   repositories.NewDeletedEntryRepository(db),
		snapshots: repositories.NewSnapshotRepository(db),
	}, nil
}

// recordingHistory opens the store for a run. Failures are logged and recording is skipped.
func (r *Runner) recordingHistory() *historyStore {
	if !r.config.Database.RecordHistory {
		return nil
	}
	h, err := r.openHistoryDB()
	if err != nil {
		r.logger.Warn("run history disabled for this run", "error", err)
		return nil
	}
	return h
}

func (h *historyStore) Close() {
	if h != nil {
		h.db.Close()
	}
}

func (h *historyStore) startRun(run *models.Run) error {
	if h == nil {
		return nil
	}
	return h.runs.Create(run)
}

func (h *historyStore) recordSnapshot(snap *models.Snapshot) error {
	if h == nil {
		return nil
	}
	return h.snapshots.Create(snap)
}

// finishRun stores the audit trail and outcome. Entries are written before the run row is updated.
func (h *historyStore) finishRun(run *models.Run, result *tasks.PruneResult, runErr error, finishedAt time.Time) error {
	if h == nil || run.ID == "" {
		return nil
	}

	var deleted []models.AuditRecord
	completed := false
	if result != nil {
		deleted = result.Deleted
		completed = result.Completed
	}

	if err := h.entries.AddAll(run.ID, deleted); err != nil {
		return err
	}
	return h.runs.Finish(run, len(deleted), completed, runErr, finishedAt)
}

func (r *Runner) historyForRead() (*historyStore, error) {
	h, err := r.openHistoryDB()
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	return h, nil
}

// findRun accepts a run UUID or a sequence number, optionally prefixed with '#'.
func (h *historyStore) findRun(ref string) (*models.Run, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: run id or #sequence", shared.ErrMissingArgument)
	}
	if seq, err := strconv.Atoi(strings.TrimPrefix(ref, "#")); err == nil {
		return h.runs.GetBySequence(seq)
	}
	return h.runs.Get(ref)
}

// HistoryList prints recent runs, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	h, err := r.historyForRead()
	if err != nil {
		return err
	}
	defer h.Close()

	runs, err := h.runs.List("", cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(runs, true)
	}

	if len(runs) == 0 {
		return r.writePlain("No runs recorded yet.\n")
	}

	r.writePlainHeader("Run History")
	for _, run := range runs {
		r.writePlain("#%-4d %s  %-9s  playlist=%s  removed %d/%d\n",
			run.Sequence,
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			run.Status(),
			run.PlaylistID,
			run.DeletedCount,
			run.RequestedCount,
		)
	}
	return nil
}

type runDetail struct {
	Run       *models.Run          `json:"run"`
	Deleted   []models.AuditRecord `json:"deletedEntries"`
	Snapshots []*models.Snapshot   `json:"snapshots"`
}

// HistoryShow prints one run with its removed entries and snapshots.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	h, err := r.historyForRead()
	if err != nil {
		return err
	}
	defer h.Close()

	run, err := h.findRun(cmd.StringArg("id"))
	if err != nil {
		return err
	}

	deleted, err := h.entries.ListByRun(run.ID)
	if err != nil {
		return err
	}
	snapshots, err := h.snapshots.ListByRun(run.ID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(runDetail{Run: run, Deleted: deleted, Snapshots: snapshots}, true)
	}

	r.writePlainHeader(fmt.Sprintf("Run #%d (%s)", run.Sequence, run.Status()))
	r.writePlain("ID: %s\n", run.ID)
	r.writePlain("Playlist: %s\n", run.PlaylistID)
	r.writePlain("Started: %s\n", run.StartedAt.Local().Format(time.RFC3339))
	if run.FinishedAt != nil {
		r.writePlain("Finished: %s\n", run.FinishedAt.Local().Format(time.RFC3339))
	}
	r.writePlain("Removed: %d/%d\n", run.DeletedCount, run.RequestedCount)
	r.writePlain("Settings: %s\n", run.SettingsJSON)
	if run.ErrorMessage != "" {
		r.writePlain("Error: %s\n", run.ErrorMessage)
	}

	for _, snap := range snapshots {
		r.writePlain("Snapshot: %s (%d entries)\n", snap.FilePath, snap.UniqueEntries)
	}

	if len(deleted) > 0 {
		r.writePlainln("Removed entries:")
		for _, rec := range deleted {
			r.writePlain("  %d. %s - %s (%s)\n", rec.SequenceNumber, rec.Title, rec.ChannelName, rec.VideoID)
		}
	}
	return nil
}

// HistoryFind lists every recorded removal of a video.
func (r *Runner) HistoryFind(ctx context.Context, cmd *cli.Command) error {
	h, err := r.historyForRead()
	if err != nil {
		return err
	}
	defer h.Close()

	records, err := h.entries.FindByVideoID(cmd.StringArg("video-id"))
	if err != nil {
		return err
	}

	if len(records) == 0 {
		return r.writePlain("No removals recorded for that video.\n")
	}
	for _, rec := range records {
		r.writePlain("%s  %s - %s\n", rec.Timestamp.Local().Format("2006-01-02 15:04"), rec.Title, rec.ChannelName)
	}
	return nil
}
