package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/desertthunder/wlx/internal/models"
	"github.com/desertthunder/wlx/internal/services"
	"github.com/desertthunder/wlx/internal/shared"
	tu "github.com/desertthunder/wlx/internal/testing"
)

func fastSettings() shared.Settings {
	return shared.Settings{
		ScanPageThrottleMs:    0,
		DeleteThrottleMs:      0,
		SortVerifyMaxAttempts: 6,
		SortVerifyPollMs:      0,
		BatchDeleteCount:      1,
	}
}

func TestPruneEngine(t *testing.T) {
	ctx := context.Background()

	t.Run("removes oldest entries", func(t *testing.T) {
		fake := tu.NewFakePlaylist(8)
		fake.Order = 1
		engine := NewPruneEngine(fake, WatchLater(), nil, nil)

		result, err := engine.Prune(ctx, NewRunHandle(), PruneOptions{Count: 3, Settings: fastSettings()})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Completed || result.Err != nil {
			t.Errorf("expected completed run, got %+v", result)
		}
		if len(result.Deleted) != 3 {
			t.Fatalf("expected 3 deletions, got %d", len(result.Deleted))
		}
		for i, want := range []string{"s1", "s2", "s3"} {
			if result.Deleted[i].SetVideoID != want {
				t.Errorf("deletion %d: expected %s, got %s", i, want, result.Deleted[i].SetVideoID)
			}
		}
		if !result.SortState.HasOrder(services.OrderOldestFirst) {
			t.Errorf("expected verified sort state, got %+v", result.SortState)
		}
		if result.FinishedAt.Before(result.StartedAt) {
			t.Error("expected finish after start")
		}
		if engine.Running() {
			t.Error("expected guard released")
		}
	})

	t.Run("more requested than available", func(t *testing.T) {
		fake := tu.NewFakePlaylist(5)
		engine := NewPruneEngine(fake, WatchLater(), nil, nil)

		settings := fastSettings()
		settings.BatchDeleteCount = 50
		result, err := engine.Prune(ctx, nil, PruneOptions{Count: 10, Settings: settings})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Deleted) != 5 || fake.Len() != 0 {
			t.Errorf("expected exactly 5 removed, got %d (%d left)", len(result.Deleted), fake.Len())
		}
		if result.BatchSize != 5 {
			t.Errorf("expected batch size capped at 5, got %d", result.BatchSize)
		}
		if result.RequestedCount != 10 {
			t.Errorf("expected requested count 10, got %d", result.RequestedCount)
		}
	})

	t.Run("dry run", func(t *testing.T) {
		fake := tu.NewFakePlaylist(5)
		engine := NewPruneEngine(fake, WatchLater(), nil, nil)

		result, err := engine.Prune(ctx, nil, PruneOptions{Count: 2, DryRun: true, Settings: fastSettings()})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Targets) != 2 || len(result.Deleted) != 0 {
			t.Errorf("expected 2 targets and no deletions, got %d / %d", len(result.Targets), len(result.Deleted))
		}
		if fake.Len() != 5 || fake.EditCalls != fake.SetOrderCalls {
			t.Errorf("expected only sort edits, got %d edits", fake.EditCalls)
		}
	})

	t.Run("invalid count", func(t *testing.T) {
		engine := NewPruneEngine(tu.NewFakePlaylist(1), WatchLater(), nil, nil)
		result, err := engine.Prune(ctx, nil, PruneOptions{Count: 0})
		if result != nil || !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("empty playlist", func(t *testing.T) {
		engine := NewPruneEngine(tu.NewFakePlaylist(0), WatchLater(), nil, nil)
		result, err := engine.Prune(ctx, nil, PruneOptions{Count: 1, Settings: fastSettings()})
		if !errors.Is(err, shared.ErrNoEntries) {
			t.Fatalf("expected ErrNoEntries, got %v", err)
		}
		if result == nil || result.Completed {
			t.Errorf("expected incomplete result, got %+v", result)
		}
	})

	t.Run("sort never verified", func(t *testing.T) {
		fake := tu.NewFakePlaylist(5)
		fake.Order = 1
		fake.SetOrderLag = 100
		engine := NewPruneEngine(fake, WatchLater(), nil, nil)

		settings := fastSettings()
		settings.SortVerifyMaxAttempts = 2
		_, err := engine.Prune(ctx, nil, PruneOptions{Count: 1, Settings: settings})
		if !errors.Is(err, shared.ErrSortUnverifiable) {
			t.Fatalf("expected ErrSortUnverifiable, got %v", err)
		}
		if fake.Len() != 5 {
			t.Error("expected nothing removed")
		}
	})

	t.Run("drift between verify and scan", func(t *testing.T) {
		fake := tu.NewFakePlaylist(5)
		fake.EchoSortOnEdit = true
		fake.OnBrowse = func(call int) {
			if call == 1 {
				fake.Order = 1
			}
		}
		engine := NewPruneEngine(fake, WatchLater(), nil, nil)

		_, err := engine.Prune(ctx, nil, PruneOptions{Count: 1, Settings: fastSettings()})
		if !errors.Is(err, shared.ErrSortDrift) {
			t.Fatalf("expected ErrSortDrift, got %v", err)
		}
		if fake.Len() != 5 {
			t.Error("expected nothing removed")
		}
	})

	t.Run("before delete hook", func(t *testing.T) {
		fake := tu.NewFakePlaylist(4)
		engine := NewPruneEngine(fake, WatchLater(), nil, nil)

		var seen *models.ScanResult
		result, err := engine.Prune(ctx, nil, PruneOptions{
			Count:        2,
			Settings:     fastSettings(),
			IncludeRaw:   true,
			BeforeDelete: func(s *models.ScanResult) error { seen = s; return nil },
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if seen == nil || len(seen.Entries) != 4 || seen.Entries[0].RawRenderer == nil {
			t.Errorf("expected full scan with raw renderers passed to hook, got %+v", seen)
		}
		if seen != result.Scan {
			t.Error("expected hook to receive the run's scan")
		}
	})

	t.Run("before delete failure aborts", func(t *testing.T) {
		fake := tu.NewFakePlaylist(4)
		engine := NewPruneEngine(fake, WatchLater(), nil, nil)

		hookErr := errors.New("disk full")
		_, err := engine.Prune(ctx, nil, PruneOptions{
			Count:        2,
			Settings:     fastSettings(),
			BeforeDelete: func(*models.ScanResult) error { return hookErr },
		})
		if !errors.Is(err, hookErr) {
			t.Fatalf("expected hook error, got %v", err)
		}
		if fake.Len() != 4 {
			t.Error("expected nothing removed")
		}
	})

	t.Run("stopped run keeps partial audit", func(t *testing.T) {
		fake := tu.NewFakePlaylist(5)
		h := NewRunHandle()
		fake.RemoveErr = func(string, int) error {
			h.Stop()
			return nil
		}
		engine := NewPruneEngine(fake, WatchLater(), nil, nil)

		result, err := engine.Prune(ctx, h, PruneOptions{Count: 3, Settings: fastSettings()})
		if !errors.Is(err, shared.ErrStopped) {
			t.Fatalf("expected ErrStopped, got %v", err)
		}
		if result == nil || len(result.Deleted) != 1 || result.Completed {
			t.Errorf("expected partial incomplete result, got %+v", result)
		}
		if !errors.Is(result.Err, shared.ErrStopped) {
			t.Errorf("expected result error to be stop, got %v", result.Err)
		}
	})

	t.Run("reentrancy guard", func(t *testing.T) {
		fake := tu.NewFakePlaylist(5)
		fake.EchoSortOnEdit = true

		entered := make(chan struct{})
		release := make(chan struct{})
		var once sync.Once
		fake.OnBrowse = func(int) {
			once.Do(func() {
				close(entered)
				<-release
			})
		}
		engine := NewPruneEngine(fake, WatchLater(), nil, nil)

		done := make(chan error, 1)
		go func() {
			_, err := engine.Prune(ctx, nil, PruneOptions{Count: 1, Settings: fastSettings()})
			done <- err
		}()

		<-entered
		if _, err := engine.Export(ctx, nil, false, 0); !errors.Is(err, shared.ErrAlreadyRunning) {
			t.Errorf("expected ErrAlreadyRunning from Export, got %v", err)
		}
		if _, err := engine.Prune(ctx, nil, PruneOptions{Count: 1, Settings: fastSettings()}); !errors.Is(err, shared.ErrAlreadyRunning) {
			t.Errorf("expected ErrAlreadyRunning from Prune, got %v", err)
		}
		if _, err := engine.EnsureSort(ctx, nil, fastSettings()); !errors.Is(err, shared.ErrAlreadyRunning) {
			t.Errorf("expected ErrAlreadyRunning from EnsureSort, got %v", err)
		}
		close(release)

		if err := <-done; err != nil {
			t.Fatalf("first run failed: %v", err)
		}
		if _, err := engine.Export(ctx, nil, false, 0); err != nil {
			t.Errorf("expected export after release to succeed, got %v", err)
		}
	})

	t.Run("export keeps current order", func(t *testing.T) {
		fake := tu.NewFakePlaylist(3)
		fake.Order = 1
		engine := NewPruneEngine(fake, WatchLater(), nil, nil)

		scan, err := engine.Export(ctx, nil, false, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if scan.Entries[0].SetVideoID != "s3" {
			t.Errorf("expected newest-first order preserved, got %s first", scan.Entries[0].SetVideoID)
		}
		if fake.EditCalls != 0 {
			t.Error("export must not edit the playlist")
		}
	})

	t.Run("ensure sort", func(t *testing.T) {
		fake := tu.NewFakePlaylist(3)
		fake.Order = 1
		engine := NewPruneEngine(fake, WatchLater(), nil, nil)

		state, err := engine.EnsureSort(ctx, nil, fastSettings())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !state.HasOrder(services.OrderOldestFirst) || fake.Order != services.OrderOldestFirst {
			t.Errorf("expected oldest-first, got %+v", state)
		}
	})

	t.Run("progress", func(t *testing.T) {
		fake := tu.NewFakePlaylist(3)
		progress := make(chan ProgressUpdate, 64)
		engine := NewPruneEngine(fake, WatchLater(), nil, progress)

		if _, err := engine.Prune(ctx, nil, PruneOptions{Count: 2, Settings: fastSettings()}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		close(progress)

		phases := make(map[Phase]int)
		for u := range progress {
			phases[u.Phase]++
		}
		if phases[SortVerify] == 0 || phases[ScanPages] == 0 || phases[SelectTargets] != 1 || phases[DeleteEntries] != 2 || phases[Finished] != 1 {
			t.Errorf("unexpected phase counts %v", phases)
		}
	})
}

func TestRunHandle(t *testing.T) {
	var nilHandle *RunHandle
	if nilHandle.Stopped() {
		t.Error("nil handle must not be stopped")
	}
	nilHandle.Stop()

	h := NewRunHandle()
	if h.Stopped() {
		t.Error("new handle must not be stopped")
	}
	h.Stop()
	if !h.Stopped() {
		t.Error("expected stopped handle")
	}
	if err := checkStop(context.Background(), h); !errors.Is(err, shared.ErrStopped) {
		t.Errorf("expected ErrStopped, got %v", err)
	}
}

func TestPhaseString(t *testing.T) {
	tc := map[Phase]string{
		SortVerify:    "sort_verify",
		ScanPages:     "scan_pages",
		SelectTargets: "select_targets",
		DeleteEntries: "delete_entries",
		Reconcile:     "reconcile",
		Finished:      "finished",
		Phase(42):     "",
	}
	for p, want := range tc {
		if got := p.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}
