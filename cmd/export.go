package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/wlx/internal/formatter"
	"github.com/desertthunder/wlx/internal/services"
	"github.com/desertthunder/wlx/internal/shared"
	"github.com/desertthunder/wlx/internal/tasks"
)

// Export scans the playlist in its current order and writes a snapshot. Nothing is modified.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	format, err := r.exportFormat(cmd)
	if err != nil {
		return err
	}

	svc, err := r.playlistService()
	if err != nil {
		return err
	}
	ref := r.playlistRef(ctx, svc)
	settings := r.settingsFrom(cmd)

	engine := tasks.NewPruneEngine(svc, ref, r.logger, nil)
	h := r.beginRun()
	defer r.endRun()

	scan, err := engine.Export(ctx, h, cmd.Bool("include-raw"), settings.ScanPageThrottle())
	if err != nil {
		return err
	}

	sourceRef := formatter.SourceRef(r.origin(), ref.ID)
	path, err := r.writeSnapshot(scan, ref.ID, sourceRef, formatter.PrefixBackup, cmd.String("output"), format, r.logger)
	if err != nil {
		return err
	}

	history := r.recordingHistory()
	if err := history.recordSnapshot(snapshotRecord(scan, "", ref.ID, path)); err != nil {
		r.logger.Warn("failed to record snapshot", "error", err)
	}
	history.Close()

	r.writePlain("✓ Exported %d entries (%d pages) to %s\n", len(scan.Entries), scan.Scan.PagesFetched, path)
	if scan.SortState != nil {
		r.writePlain("Current sort: %s\n", scan.SortState.SelectedTitle)
	}
	return nil
}

// Sort forces oldest-first order and verifies it without scanning or deleting.
func (r *Runner) Sort(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.playlistService()
	if err != nil {
		return err
	}
	ref := r.playlistRef(ctx, svc)
	settings := r.settingsFrom(cmd)

	engine := tasks.NewPruneEngine(svc, ref, r.logger, nil)
	h := r.beginRun()
	defer r.endRun()

	state, err := engine.EnsureSort(ctx, h, settings)
	if err != nil {
		return err
	}
	if !state.HasOrder(services.OrderOldestFirst) {
		return fmt.Errorf("%w: unexpected sort state after verification", shared.ErrSortUnverifiable)
	}

	title := state.SelectedTitle
	if title == "" {
		title = "oldest first"
	}
	return r.writePlain("✓ Sort verified: %s (order=%d)\n", title, *state.SelectedOrder)
}
