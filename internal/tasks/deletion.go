package tasks

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/wlx/internal/models"
	"github.com/desertthunder/wlx/internal/services"
	"github.com/desertthunder/wlx/internal/shared"
)

const (
	modeBatch  = "batch"
	modeSingle = "single"
)

// DeleteOptions controls a deletion run.
type DeleteOptions struct {
	BatchSize  int
	BatchDelay time.Duration
	// RescanThrottle and SortOrder apply to reconciliation rescans.
	RescanThrottle time.Duration
	SortOrder      int
}

// DeletionEngine removes targets oldest first, in batches, recovering once per item from stale setVideoIds.
type DeletionEngine struct {
	svc      services.PlaylistService
	ref      PlaylistRef
	scanner  *Scanner
	logger   *log.Logger
	progress chan<- ProgressUpdate
	sleep    sleepFunc
	now      func() time.Time
}

// NewDeletionEngine creates an engine that rescans through scanner when reconciling.
func NewDeletionEngine(svc services.PlaylistService, ref PlaylistRef, scanner *Scanner, logger *log.Logger, progress chan<- ProgressUpdate) *DeletionEngine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &DeletionEngine{
		svc:      svc,
		ref:      ref,
		scanner:  scanner,
		logger:   logger,
		progress: progress,
		sleep:    wait,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type deletionRun struct {
	*DeletionEngine
	ctx     context.Context
	h       *RunHandle
	opts    DeleteOptions
	total   int
	records []models.AuditRecord
}

// Run deletes targets and returns one audit record per confirmed removal. Records are returned on failure too,
// so a partial run can still be written out.
func (d *DeletionEngine) Run(ctx context.Context, h *RunHandle, targets []models.DeletionTarget, opts DeleteOptions) ([]models.AuditRecord, error) {
	opts.BatchSize = shared.ClampInt(opts.BatchSize, shared.MinBatchDeleteCount, shared.MaxBatchDeleteCount)
	opts.BatchDelay = shared.Millis(shared.ClampInt(int(opts.BatchDelay/time.Millisecond), 0, shared.MaxThrottleMs))
	if opts.SortOrder == 0 {
		opts.SortOrder = services.OrderOldestFirst
	}

	run := &deletionRun{DeletionEngine: d, ctx: ctx, h: h, opts: opts, total: len(targets), records: []models.AuditRecord{}}
	err := run.execute(targets)
	return run.records, err
}

func (r *deletionRun) execute(targets []models.DeletionTarget) error {
	size := r.opts.BatchSize
	for cursor := 0; cursor < len(targets); cursor += size {
		if err := checkStop(r.ctx, r.h); err != nil {
			return err
		}

		batch := targets[cursor:min(cursor+size, len(targets))]
		if len(batch) > 1 {
			if err := r.removeBatch(batch); err != nil {
				return err
			}
		} else if err := r.removeOne(batch[0]); err != nil {
			return err
		}

		if cursor+size < len(targets) && r.opts.BatchDelay > 0 {
			if err := r.sleep(r.ctx, r.opts.BatchDelay); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *deletionRun) edit(ids ...string) error {
	resp, err := r.svc.EditPlaylist(r.ctx, services.EditRequest{
		PlaylistID: r.ref.ID,
		Actions:    services.RemoveActions(ids...),
		Params:     r.ref.EditParams,
	})
	if err != nil {
		return asStopped(r.ctx, err)
	}
	return services.CheckEditStatus(services.PathEdit, "remove video", resp)
}

func (r *deletionRun) removeBatch(batch []models.DeletionTarget) error {
	ids := make([]string, len(batch))
	for i, t := range batch {
		ids[i] = t.Entry.SetVideoID
	}

	err := r.edit(ids...)
	if err == nil {
		for _, t := range batch {
			r.record(t, t.Entry, modeBatch)
		}
		return nil
	}
	if errors.Is(err, shared.ErrStopped) {
		return err
	}

	r.logger.Warn("batch delete failed, falling back to single removals", "items", len(batch), "error", err)
	for _, t := range batch {
		if err := checkStop(r.ctx, r.h); err != nil {
			return err
		}
		if err := r.removeOne(t); err != nil {
			return err
		}
	}
	return nil
}

func (r *deletionRun) removeOne(target models.DeletionTarget) error {
	err := r.edit(target.Entry.SetVideoID)
	if err == nil {
		r.record(target, target.Entry, modeSingle)
		return nil
	}
	if !services.IsTransient(err) {
		return err
	}

	r.logger.Warn("delete failed, rescanning to refresh setVideoId", "target", formatEntry(target.Entry), "error", err)
	sendProgress(r.progress, reconcileUpdate(len(r.records), r.total, target))

	order := r.opts.SortOrder
	fresh, scanErr := r.scanner.FetchAll(r.ctx, r.h, ScanOptions{
		PageThrottle:     r.opts.RescanThrottle,
		RequireSortOrder: &order,
		Quiet:            true,
	})
	if scanErr != nil {
		return scanErr
	}

	replacement, matchErr := FindReplacement(fresh.Entries, target)
	if matchErr != nil {
		var rec *ReconciliationError
		if errors.As(matchErr, &rec) {
			rec.Cause = err
		}
		return matchErr
	}

	if err := r.edit(replacement.SetVideoID); err != nil {
		return err
	}
	r.logger.Info("recovered with refreshed setVideoId", "videoId", replacement.VideoID, "setVideoId", replacement.SetVideoID)
	r.record(target, *replacement, modeSingle)
	return nil
}

// record appends the audit entry. The scan-time position always comes from the original target.
func (r *deletionRun) record(target models.DeletionTarget, removed models.Entry, mode string) {
	var orderIndex *int
	if target.OrderIndexAtScan > 0 {
		idx := target.OrderIndexAtScan
		orderIndex = &idx
	}

	rec := models.AuditRecord{
		SequenceNumber:    len(r.records) + 1,
		Timestamp:         r.now(),
		OrderIndexAtScan:  orderIndex,
		SetVideoID:        removed.SetVideoID,
		VideoID:           removed.VideoID,
		Title:             shared.NormalizeText(removed.Title),
		ChannelName:       shared.NormalizeText(removed.ChannelName),
		PublishedTimeText: shared.NormalizeText(removed.PublishedTimeText),
		LengthText:        shared.NormalizeText(removed.LengthText),
	}
	r.records = append(r.records, rec)

	r.logger.Info("removed", "n", rec.SequenceNumber, "total", r.total, "mode", mode, "videoId", rec.VideoID, "title", rec.Title, "setVideoId", rec.SetVideoID)
	sendProgress(r.progress, deletedUpdate(rec.SequenceNumber, r.total, mode, rec))
}
