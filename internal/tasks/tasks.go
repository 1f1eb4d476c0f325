// package tasks implements the Watch Later pruning operations.
//
// The core abstraction is PruneEngine, which verifies sort order, scans, and deletes the oldest entries.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/wlx/internal/models"
	"github.com/desertthunder/wlx/internal/services"
	"github.com/desertthunder/wlx/internal/shared"
)

// PruneOptions configures a deletion run.
type PruneOptions struct {
	Count      int
	DryRun     bool
	Settings   shared.Settings
	IncludeRaw bool
	// BeforeDelete receives the scan before anything is removed. An error aborts the run.
	BeforeDelete func(*models.ScanResult) error
}

// PruneResult contains everything needed to write the audit and history for a run, whether or not it finished.
type PruneResult struct {
	StartedAt      time.Time
	FinishedAt     time.Time
	RequestedCount int
	Settings       shared.Settings
	BatchSize      int
	DryRun         bool
	SortState      *models.SortState
	Scan           *models.ScanResult
	Targets        []models.DeletionTarget
	Deleted        []models.AuditRecord
	Completed      bool
	Err            error
}

// PruneEngine runs one operation at a time against a playlist.
type PruneEngine struct {
	svc      services.PlaylistService
	ref      PlaylistRef
	logger   *log.Logger
	progress chan<- ProgressUpdate
	running  atomic.Bool

	scanner  *Scanner
	sorter   *SortEnforcer
	deletion *DeletionEngine
}

// NewPruneEngine creates an engine. A nil logger discards output; progress may be nil.
func NewPruneEngine(svc services.PlaylistService, ref PlaylistRef, logger *log.Logger, progress chan<- ProgressUpdate) *PruneEngine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	scanner := NewScanner(svc, ref, logger, progress)
	return &PruneEngine{
		svc:      svc,
		ref:      ref,
		logger:   logger,
		progress: progress,
		scanner:  scanner,
		sorter:   NewSortEnforcer(svc, ref, logger, progress),
		deletion: NewDeletionEngine(svc, ref, scanner, logger, progress),
	}
}

func (e *PruneEngine) acquire() error {
	if !e.running.CompareAndSwap(false, true) {
		return shared.ErrAlreadyRunning
	}
	return nil
}

func (e *PruneEngine) release() { e.running.Store(false) }

// Running reports whether an operation is in progress.
func (e *PruneEngine) Running() bool { return e.running.Load() }

// Prune forces oldest-first order, scans the playlist, and removes the first Count entries.
//
// The returned result is non-nil whenever the run started, including on error, and carries the audit of whatever
// was removed.
func (e *PruneEngine) Prune(ctx context.Context, h *RunHandle, opts PruneOptions) (*PruneResult, error) {
	if opts.Count < 1 {
		return nil, fmt.Errorf("%w: count must be a positive number", shared.ErrInvalidArgument)
	}
	if err := e.acquire(); err != nil {
		return nil, err
	}
	defer e.release()

	settings := opts.Settings.Sanitize()
	result := &PruneResult{
		StartedAt:      time.Now().UTC(),
		RequestedCount: opts.Count,
		Settings:       settings,
		DryRun:         opts.DryRun,
		Deleted:        []models.AuditRecord{},
	}

	err := e.prune(ctx, h, opts, settings, result)
	result.FinishedAt = time.Now().UTC()
	result.Err = err
	result.Completed = err == nil

	sendProgress(e.progress, finishedUpdate(len(result.Deleted), len(result.Targets), err))
	return result, err
}

func (e *PruneEngine) prune(ctx context.Context, h *RunHandle, opts PruneOptions, settings shared.Settings, result *PruneResult) error {
	e.logger.Info("settings",
		"scanDelay", settings.ScanPageThrottle(),
		"deleteDelay", settings.DeleteThrottle(),
		"sortAttempts", settings.SortVerifyMaxAttempts,
		"sortPoll", settings.SortVerifyPoll(),
		"batch", settings.BatchDeleteCount,
	)

	e.logger.Info("forcing oldest-first sort", "playlistVideoOrder", services.OrderOldestFirst)
	sortState, err := e.sorter.EnsureOrder(ctx, h, services.OrderOldestFirst, settings.SortVerifyMaxAttempts, settings.SortVerifyPoll())
	if err != nil {
		return err
	}
	result.SortState = sortState

	order := services.OrderOldestFirst
	scan, err := e.scanner.FetchAll(ctx, h, ScanOptions{
		PageThrottle:     settings.ScanPageThrottle(),
		RequireSortOrder: &order,
		IncludeRaw:       opts.IncludeRaw,
	})
	if err != nil {
		return err
	}
	result.Scan = scan

	if len(scan.Entries) == 0 {
		return shared.ErrNoEntries
	}

	if opts.BeforeDelete != nil {
		if err := opts.BeforeDelete(scan); err != nil {
			return fmt.Errorf("pre-delete export failed: %w", err)
		}
	}

	targets := models.NewDeletionTargets(scan.Entries, opts.Count)
	result.Targets = targets
	result.BatchSize = min(settings.BatchDeleteCount, max(1, len(targets)))

	e.logger.Info("targets selected", "size", len(scan.Entries), "selected", len(targets), "batch", result.BatchSize)
	sendProgress(e.progress, selectTargetsUpdate(len(targets), len(scan.Entries)))

	if opts.DryRun {
		e.logger.Info("dry run, nothing deleted",
			"first", formatEntry(targets[0].Entry),
			"last", formatEntry(targets[len(targets)-1].Entry),
		)
		return nil
	}

	records, err := e.deletion.Run(ctx, h, targets, DeleteOptions{
		BatchSize:      result.BatchSize,
		BatchDelay:     settings.DeleteThrottle(),
		RescanThrottle: settings.ScanPageThrottle(),
		SortOrder:      services.OrderOldestFirst,
	})
	result.Deleted = records
	if err != nil {
		return err
	}

	e.logger.Info("done", "removed", len(records))
	return nil
}

// Export scans the playlist in its current order.
func (e *PruneEngine) Export(ctx context.Context, h *RunHandle, includeRaw bool, pageThrottle time.Duration) (*models.ScanResult, error) {
	if err := e.acquire(); err != nil {
		return nil, err
	}
	defer e.release()

	return e.scanner.FetchAll(ctx, h, ScanOptions{PageThrottle: pageThrottle, IncludeRaw: includeRaw})
}

// EnsureSort forces and verifies oldest-first order without scanning or deleting.
func (e *PruneEngine) EnsureSort(ctx context.Context, h *RunHandle, settings shared.Settings) (*models.SortState, error) {
	if err := e.acquire(); err != nil {
		return nil, err
	}
	defer e.release()

	settings = settings.Sanitize()
	return e.sorter.EnsureOrder(ctx, h, services.OrderOldestFirst, settings.SortVerifyMaxAttempts, settings.SortVerifyPoll())
}
