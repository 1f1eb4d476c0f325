package tasks

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/wlx/internal/services"
	"github.com/desertthunder/wlx/internal/shared"
	tu "github.com/desertthunder/wlx/internal/testing"
)

func TestScannerFetchAll(t *testing.T) {
	t.Run("250 entries across pages", func(t *testing.T) {
		fake := tu.NewFakePlaylist(250)
		scanner, _ := quietSettingsScanner(fake)

		result, err := scanner.FetchAll(context.Background(), NewRunHandle(), ScanOptions{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(result.Entries) != 250 || result.Scan.UniqueEntries != 250 {
			t.Fatalf("expected 250 entries, got %d", len(result.Entries))
		}
		if result.Scan.PagesFetched < 3 {
			t.Errorf("expected at least 3 pages, got %d", result.Scan.PagesFetched)
		}

		seen := make(map[string]bool)
		for i, e := range result.Entries {
			if seen[e.SetVideoID] {
				t.Fatalf("duplicate setVideoId %s", e.SetVideoID)
			}
			seen[e.SetVideoID] = true
			if e.OrderIndex != i+1 {
				t.Errorf("entry %d has orderIndex %d", i, e.OrderIndex)
			}
		}

		if result.PlaylistMetadata == nil || result.PlaylistMetadata.ReportedVideoCount == nil || *result.PlaylistMetadata.ReportedVideoCount != 250 {
			t.Errorf("unexpected metadata %+v", result.PlaylistMetadata)
		}
		if !result.SortState.HasOrder(services.OrderOldestFirst) {
			t.Errorf("expected oldest-first sort state, got %+v", result.SortState)
		}
		if result.Scan.TokensConsumed != 2 {
			t.Errorf("expected 2 tokens consumed, got %d", result.Scan.TokensConsumed)
		}
	})

	t.Run("duplicates and repeated tokens", func(t *testing.T) {
		first := listPage([]tu.FakeVideo{video("1"), video("2")}, "A", "B")
		first["header"] = tu.SortMenu(services.OrderOldestFirst)
		svc := &pagedService{pages: map[string]map[string]any{
			"":  first,
			"A": listPage([]tu.FakeVideo{video("2"), video("3")}, "B"),
			"B": listPage([]tu.FakeVideo{video("4"), video("1")}, "A"),
		}}
		scanner, _ := quietSettingsScanner(svc)

		result, err := scanner.FetchAll(context.Background(), nil, ScanOptions{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []string{"s1", "s2", "s3", "s4"}
		if len(result.Entries) != len(want) {
			t.Fatalf("expected %d entries, got %d", len(want), len(result.Entries))
		}
		for i, id := range want {
			if result.Entries[i].SetVideoID != id || result.Entries[i].OrderIndex != i+1 {
				t.Errorf("position %d: got %s/%d", i, result.Entries[i].SetVideoID, result.Entries[i].OrderIndex)
			}
		}

		if got := strings.Join(svc.calls, ","); got != ",A,B" {
			t.Errorf("expected FIFO token order [,A,B], got [%s]", got)
		}
		if result.Scan.PagesFetched != 3 || result.Scan.TokensConsumed != 2 {
			t.Errorf("unexpected stats %+v", result.Scan)
		}
	})

	t.Run("sort drift", func(t *testing.T) {
		fake := tu.NewFakePlaylist(3)
		fake.Order = 1
		scanner, _ := quietSettingsScanner(fake)

		_, err := scanner.FetchAll(context.Background(), nil, ScanOptions{RequireSortOrder: intPtr(services.OrderOldestFirst)})
		if !errors.Is(err, shared.ErrSortDrift) {
			t.Fatalf("expected ErrSortDrift, got %v", err)
		}
		var drift *SortDriftError
		if !errors.As(err, &drift) || drift.ObservedOrder == nil || *drift.ObservedOrder != 1 {
			t.Errorf("expected observed order 1, got %+v", drift)
		}
	})

	t.Run("missing sort menu is drift", func(t *testing.T) {
		svc := &pagedService{pages: map[string]map[string]any{"": listPage([]tu.FakeVideo{video("1")})}}
		scanner, _ := quietSettingsScanner(svc)

		_, err := scanner.FetchAll(context.Background(), nil, ScanOptions{RequireSortOrder: intPtr(services.OrderOldestFirst)})
		if !errors.Is(err, shared.ErrSortDrift) {
			t.Errorf("expected ErrSortDrift, got %v", err)
		}
	})

	t.Run("stopped before start", func(t *testing.T) {
		fake := tu.NewFakePlaylist(10)
		scanner, _ := quietSettingsScanner(fake)
		h := NewRunHandle()
		h.Stop()

		if _, err := scanner.FetchAll(context.Background(), h, ScanOptions{}); !errors.Is(err, shared.ErrStopped) {
			t.Fatalf("expected ErrStopped, got %v", err)
		}
		if fake.BrowseCalls != 0 {
			t.Errorf("expected no browse calls, got %d", fake.BrowseCalls)
		}
	})

	t.Run("stopped between pages", func(t *testing.T) {
		fake := tu.NewFakePlaylist(250)
		h := NewRunHandle()
		fake.OnBrowse = func(call int) {
			if call == 1 {
				h.Stop()
			}
		}
		scanner, _ := quietSettingsScanner(fake)

		if _, err := scanner.FetchAll(context.Background(), h, ScanOptions{}); !errors.Is(err, shared.ErrStopped) {
			t.Fatalf("expected ErrStopped, got %v", err)
		}
		if fake.BrowseCalls != 1 {
			t.Errorf("expected the in-flight page to finish and no more, got %d calls", fake.BrowseCalls)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		fake := tu.NewFakePlaylist(10)
		scanner, _ := quietSettingsScanner(fake)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := scanner.FetchAll(ctx, nil, ScanOptions{}); !errors.Is(err, shared.ErrStopped) {
			t.Errorf("expected ErrStopped, got %v", err)
		}
	})

	t.Run("throttle only while tokens remain", func(t *testing.T) {
		fake := tu.NewFakePlaylist(250)
		scanner, rec := quietSettingsScanner(fake)

		if _, err := scanner.FetchAll(context.Background(), nil, ScanOptions{PageThrottle: 25 * time.Millisecond}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.count() != 1 {
			t.Errorf("expected 1 throttle wait, got %d", rec.count())
		}
		if rec.calls[0] != 25*time.Millisecond {
			t.Errorf("unexpected wait %v", rec.calls[0])
		}
	})

	t.Run("single large page warning", func(t *testing.T) {
		fake := tu.NewFakePlaylist(150)
		fake.PageSize = 200

		var buf bytes.Buffer
		scanner := NewScanner(fake, WatchLater(), log.New(&buf), nil)
		result, err := scanner.FetchAll(context.Background(), nil, ScanOptions{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Scan.PagesFetched != 1 {
			t.Fatalf("expected 1 page, got %d", result.Scan.PagesFetched)
		}
		if !strings.Contains(buf.String(), "only one page") {
			t.Errorf("expected single page warning, got %q", buf.String())
		}
	})

	t.Run("raw renderer", func(t *testing.T) {
		fake := tu.NewFakePlaylist(2)
		scanner, _ := quietSettingsScanner(fake)

		result, err := scanner.FetchAll(context.Background(), nil, ScanOptions{IncludeRaw: true})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Entries[0].RawRenderer == nil {
			t.Error("expected raw renderer")
		}
	})

	t.Run("progress updates", func(t *testing.T) {
		fake := tu.NewFakePlaylist(250)
		progress := make(chan ProgressUpdate, 10)
		scanner := NewScanner(fake, WatchLater(), nil, progress)
		scanner.sleep = (&sleepRecorder{}).sleep

		if _, err := scanner.FetchAll(context.Background(), nil, ScanOptions{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		close(progress)

		var pages int
		for u := range progress {
			if u.Phase == ScanPages {
				pages++
			}
		}
		if pages != 3 {
			t.Errorf("expected 3 page updates, got %d", pages)
		}
	})

	t.Run("empty playlist", func(t *testing.T) {
		fake := tu.NewFakePlaylist(0)
		scanner, _ := quietSettingsScanner(fake)

		result, err := scanner.FetchAll(context.Background(), nil, ScanOptions{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Entries == nil || len(result.Entries) != 0 {
			t.Errorf("expected empty non-nil entries, got %v", result.Entries)
		}
	})

	t.Run("browse failure", func(t *testing.T) {
		svc := &pagedService{pages: map[string]map[string]any{
			"": listPage([]tu.FakeVideo{video("1")}, "missing"),
		}}
		scanner, _ := quietSettingsScanner(svc)

		_, err := scanner.FetchAll(context.Background(), nil, ScanOptions{})
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}

func TestScannerCancelledDuringRequest(t *testing.T) {
	transport := tu.NewBlockingRoundTripper()
	client := services.NewInnertubeClient(services.InnertubeConfig{}, services.StaticHeaders{}, &http.Client{Transport: transport})
	scanner, _ := quietSettingsScanner(client)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-transport.Started
		cancel()
	}()

	result, err := scanner.FetchAll(ctx, NewRunHandle(), ScanOptions{})
	if result != nil {
		t.Errorf("expected no result, got %+v", result)
	}
	tu.AssertErrorIs(t, err, shared.ErrStopped)
	if errors.Is(err, shared.ErrAPIRequest) {
		t.Errorf("cancellation should not surface as an API failure: %v", err)
	}
}
