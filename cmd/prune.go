package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/wlx/internal/formatter"
	"github.com/desertthunder/wlx/internal/models"
	"github.com/desertthunder/wlx/internal/shared"
	"github.com/desertthunder/wlx/internal/tasks"
	"github.com/desertthunder/wlx/internal/ui"
)

const tuiLogPath = "./tmp/wlx-tui.log"

// pruneJob carries one prune invocation from flags to history and audit output.
type pruneJob struct {
	r         *Runner
	logger    *log.Logger
	engine    *tasks.PruneEngine
	handle    *tasks.RunHandle
	history   *historyStore
	playlist  string
	sourceRef string
	format    formatter.Format

	opts         tasks.PruneOptions
	exportBefore bool
	saveDeleted  bool

	run       *models.Run
	auditPath string
}

// Prune forces oldest-first order and removes the oldest --count entries.
func (r *Runner) Prune(ctx context.Context, cmd *cli.Command) error {
	count := cmd.Int("count")
	if count < 1 {
		return fmt.Errorf("%w: --count must be at least 1", shared.ErrInvalidFlag)
	}

	format, err := r.exportFormat(cmd)
	if err != nil {
		return err
	}

	svc, err := r.playlistService()
	if err != nil {
		return err
	}
	ref := r.playlistRef(ctx, svc)

	useTUI := cmd.Bool("tui")
	logger := r.logger
	var progress chan tasks.ProgressUpdate
	if useTUI {
		// The TUI owns the terminal; logs go to a file.
		if logger, err = shared.NewFileLogger(tuiLogPath); err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		progress = make(chan tasks.ProgressUpdate, 64)
	}

	history := r.recordingHistory()
	defer history.Close()

	job := &pruneJob{
		r:         r,
		logger:    logger,
		engine:    tasks.NewPruneEngine(svc, ref, logger, progress),
		handle:    r.beginRun(),
		history:   history,
		playlist:  ref.ID,
		sourceRef: formatter.SourceRef(r.origin(), ref.ID),
		format:    format,
		opts: tasks.PruneOptions{
			Count:      count,
			DryRun:     cmd.Bool("dry-run"),
			Settings:   r.settingsFrom(cmd),
			IncludeRaw: cmd.Bool("include-raw"),
		},
		exportBefore: cmd.Bool("export-before"),
		saveDeleted:  cmd.Bool("save-deleted"),
	}
	defer r.endRun()

	if job.exportBefore {
		job.opts.BeforeDelete = job.beforeDelete
	}

	var result *tasks.PruneResult
	if useTUI {
		model := ui.NewModel(ctx, ui.Options{
			PlaylistID:  ref.ID,
			Count:       count,
			DryRun:      job.opts.DryRun,
			SkipConfirm: cmd.Bool("yes"),
		}, job.handle, progress, job.execute)

		if _, err := tea.NewProgram(model, tea.WithContext(ctx)).Run(); err != nil {
			return fmt.Errorf("error running TUI: %w", err)
		}
		result, err = model.Result()
		if result == nil && err == nil {
			return r.writePlain("Cancelled. Nothing was changed.\n")
		}
	} else {
		result, err = job.execute(ctx)
	}

	job.printSummary(result, err)
	return err
}

// execute runs the engine and records the outcome. It may run on the TUI's goroutine.
func (j *pruneJob) execute(ctx context.Context) (*tasks.PruneResult, error) {
	settingsJSON, err := shared.MarshalJSON(j.opts.Settings.Sanitize(), false)
	if err != nil {
		return nil, fmt.Errorf("failed to encode settings: %w", err)
	}

	j.run = &models.Run{
		PlaylistID:     j.playlist,
		RequestedCount: j.opts.Count,
		SettingsJSON:   string(settingsJSON),
		DryRun:         j.opts.DryRun,
		StartedAt:      j.r.now().UTC(),
	}
	if err := j.history.startRun(j.run); err != nil {
		j.logger.Warn("failed to record run start", "error", err)
		j.history = nil
	}

	result, runErr := j.engine.Prune(ctx, j.handle, j.opts)

	finishedAt := j.r.now()
	if result != nil {
		finishedAt = result.FinishedAt
	}
	if err := j.history.finishRun(j.run, result, runErr, finishedAt); err != nil {
		j.logger.Error("failed to record run outcome", "error", err)
	}

	if j.saveDeleted && result != nil && !result.DryRun {
		if err := j.writeAudit(result); err != nil {
			j.logger.Error("failed to write audit", "error", err)
			if runErr == nil {
				runErr = err
			}
		}
	}

	return result, runErr
}

// beforeDelete writes the pre-delete snapshot. Returning an error aborts the run before anything is removed.
func (j *pruneJob) beforeDelete(scan *models.ScanResult) error {
	path, err := j.r.writeSnapshot(scan, j.playlist, j.sourceRef, formatter.PrefixPreDelete, "", j.format, j.logger)
	if err != nil {
		return err
	}

	if err := j.history.recordSnapshot(snapshotRecord(scan, j.run.ID, j.playlist, path)); err != nil {
		j.logger.Warn("failed to record snapshot", "error", err)
	}
	return nil
}

func (j *pruneJob) writeAudit(result *tasks.PruneResult) error {
	summary := formatter.NewRunSummary(
		result.StartedAt,
		result.FinishedAt,
		result.RequestedCount,
		result.Settings,
		len(result.Deleted),
		result.Completed,
		result.Err,
	)
	now := j.r.now()
	audit := formatter.BuildAudit(summary, result.Deleted, j.playlist, j.sourceRef, now)

	path := filepath.Join(shared.ExpandPath(j.r.config.Export.Dir), formatter.FileName(formatter.PrefixDeleted, j.format, now))
	written, err := formatter.WriteAuditFile(path, audit, j.format)
	if err != nil {
		return err
	}
	j.auditPath = written
	j.logger.Info("audit written", "path", written, "entries", len(result.Deleted))
	return nil
}

func (j *pruneJob) printSummary(result *tasks.PruneResult, err error) {
	r := j.r
	switch {
	case errors.Is(err, shared.ErrStopped):
		r.writePlainHeader("Prune Stopped")
	case err != nil:
		r.writePlainHeader("Prune Failed")
	case j.opts.DryRun:
		r.writePlainHeader("Dry Run Complete")
	default:
		r.writePlainHeader("Prune Complete")
	}

	if j.run != nil && j.run.Sequence > 0 {
		r.writePlain("Run: #%d\n", j.run.Sequence)
	}
	r.writePlain("Requested: %d\n", j.opts.Count)
	if result == nil {
		return
	}
	if result.Scan != nil {
		r.writePlain("Playlist size: %d\n", len(result.Scan.Entries))
	}

	if result.DryRun {
		r.writePlain("Would remove: %d\n", len(result.Targets))
		for _, t := range result.Targets {
			r.writePlain("  %d. %s - %s (%s)\n", t.OrderIndexAtScan, t.Entry.Title, t.Entry.ChannelName, t.Entry.SetVideoID)
		}
		return
	}

	r.writePlain("Removed: %d/%d\n", len(result.Deleted), len(result.Targets))
	if j.auditPath != "" {
		r.writePlain("Audit: %s\n", j.auditPath)
	}
	if err != nil {
		r.writePlain("Error: %v\n", err)
	}
}

func (r *Runner) exportFormat(cmd *cli.Command) (formatter.Format, error) {
	value := r.config.Export.Format
	if cmd.IsSet("format") {
		value = cmd.String("format")
	}
	return formatter.ParseFormat(value)
}

// writeSnapshot writes scan to output, or to a timestamped file in the export dir when output is empty.
func (r *Runner) writeSnapshot(scan *models.ScanResult, playlistID, sourceRef, prefix, output string, format formatter.Format, logger *log.Logger) (string, error) {
	now := r.now()
	snap := formatter.BuildSnapshot(scan, playlistID, sourceRef, now)

	if output == "" {
		output = filepath.Join(shared.ExpandPath(r.config.Export.Dir), formatter.FileName(prefix, format, now))
	}

	result, err := formatter.WriteSnapshotFile(output, snap, format)
	if err != nil {
		return "", err
	}

	logger.Info("snapshot written", "path", result.File, "entries", len(snap.Entries))
	if result.MetadataFile != "" {
		logger.Info("snapshot metadata written", "path", result.MetadataFile)
	}
	if note, ok := formatter.ReportedCountNote(snap); ok {
		logger.Warn(note)
	}
	return result.File, nil
}

func snapshotRecord(scan *models.ScanResult, runID, playlistID, path string) *models.Snapshot {
	snap := &models.Snapshot{
		RunID:         runID,
		PlaylistID:    playlistID,
		PagesFetched:  scan.Scan.PagesFetched,
		UniqueEntries: len(scan.Entries),
		FilePath:      path,
	}
	if scan.PlaylistMetadata != nil {
		snap.ReportedVideoCount = scan.PlaylistMetadata.ReportedVideoCount
	}
	return snap
}
