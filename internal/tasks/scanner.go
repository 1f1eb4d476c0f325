package tasks

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/wlx/internal/models"
	"github.com/desertthunder/wlx/internal/payload"
	"github.com/desertthunder/wlx/internal/services"
	"github.com/desertthunder/wlx/internal/shared"
)

const singlePageWarnThreshold = 100

// PlaylistRef identifies the playlist and the opaque params used to browse and edit it.
type PlaylistRef struct {
	ID           string
	BrowseParams string
	EditParams   string
}

// WatchLater is the default target.
func WatchLater() PlaylistRef {
	return PlaylistRef{ID: "WL", EditParams: services.DefaultEditParams}
}

func (r PlaylistRef) firstPage() services.BrowseRequest {
	return services.BrowseRequest{BrowseID: services.BrowseIDFor(r.ID), Params: r.BrowseParams}
}

// ScanOptions controls a full scan.
type ScanOptions struct {
	PageThrottle     time.Duration
	RequireSortOrder *int
	IncludeRaw       bool
	// Quiet suppresses per-page logging, used for reconciliation rescans.
	Quiet bool
}

// Scanner reads every page of a playlist.
type Scanner struct {
	svc      services.PlaylistService
	ref      PlaylistRef
	logger   *log.Logger
	progress chan<- ProgressUpdate
	sleep    sleepFunc
}

// NewScanner creates a scanner. A nil logger discards output; progress may be nil.
func NewScanner(svc services.PlaylistService, ref PlaylistRef, logger *log.Logger, progress chan<- ProgressUpdate) *Scanner {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Scanner{svc: svc, ref: ref, logger: logger, progress: progress, sleep: wait}
}

// FetchAll walks the playlist from the first page through every continuation token, returning entries unique by
// setVideoId with 1-based order indexes in first-seen order.
func (s *Scanner) FetchAll(ctx context.Context, h *RunHandle, opts ScanOptions) (*models.ScanResult, error) {
	if err := checkStop(ctx, h); err != nil {
		return nil, err
	}

	startedAt := time.Now().UTC()
	throttle := shared.Millis(shared.ClampInt(int(opts.PageThrottle/time.Millisecond), 0, shared.MaxThrottleMs))

	first, err := s.svc.Browse(ctx, s.ref.firstPage())
	if err != nil {
		return nil, asStopped(ctx, err)
	}

	metadata := payload.ExtractMetadata(first, s.ref.ID)
	sortState := payload.ExtractSortState(first)

	if opts.RequireSortOrder != nil && !sortState.HasOrder(*opts.RequireSortOrder) {
		drift := &SortDriftError{Expected: *opts.RequireSortOrder}
		if sortState != nil {
			drift.ObservedOrder = sortState.SelectedOrder
			drift.ObservedTitle = sortState.SelectedTitle
		}
		return nil, drift
	}

	var (
		entries    []models.Entry
		seenSetIDs = make(map[string]struct{})
		seenTokens = make(map[string]struct{})
		queue      []string
		pages      int
	)

	add := func(page payload.Page) int {
		added := 0
		for _, e := range page.Entries {
			if e.SetVideoID == "" {
				continue
			}
			if _, dup := seenSetIDs[e.SetVideoID]; dup {
				continue
			}
			seenSetIDs[e.SetVideoID] = struct{}{}
			entries = append(entries, e)
			added++
		}
		for _, t := range page.Tokens {
			if _, used := seenTokens[t]; !used {
				queue = append(queue, t)
			}
		}
		return added
	}

	page := payload.ExtractPage(first, opts.IncludeRaw)
	added := add(page)
	pages++
	s.report(opts.Quiet, ScanProgress{Page: pages, PageEntries: len(page.Entries), UniqueTotal: len(entries), Added: added, QueuedTokens: len(queue)})

	for len(queue) > 0 {
		if err := checkStop(ctx, h); err != nil {
			return nil, err
		}

		token := queue[0]
		queue = queue[1:]
		if _, used := seenTokens[token]; used {
			continue
		}
		seenTokens[token] = struct{}{}

		node, err := s.svc.Browse(ctx, services.BrowseRequest{Continuation: token})
		if err != nil {
			return nil, asStopped(ctx, err)
		}

		page := payload.ExtractPage(node, opts.IncludeRaw)
		added := add(page)
		pages++
		s.report(opts.Quiet, ScanProgress{Page: pages, PageEntries: len(page.Entries), UniqueTotal: len(entries), Added: added, QueuedTokens: len(queue)})

		if throttle > 0 && len(queue) > 0 {
			if err := s.sleep(ctx, throttle); err != nil {
				return nil, err
			}
		}
	}

	if !opts.Quiet && pages == 1 && len(entries) >= singlePageWarnThreshold {
		s.logger.Warn("only one page fetched and no continuation token was usable", "entries", len(entries))
	}

	for i := range entries {
		entries[i].OrderIndex = i + 1
	}
	if entries == nil {
		entries = []models.Entry{}
	}

	return &models.ScanResult{
		Entries:          entries,
		PlaylistMetadata: metadata,
		SortState:        sortState,
		Scan: models.ScanStats{
			StartedAt:      startedAt,
			FinishedAt:     time.Now().UTC(),
			PagesFetched:   pages,
			UniqueEntries:  len(entries),
			TokensConsumed: len(seenTokens),
		},
	}, nil
}

func (s *Scanner) report(quiet bool, p ScanProgress) {
	if quiet {
		return
	}
	s.logger.Info("fetched page", "page", p.Page, "entries", p.PageEntries, "unique", p.UniqueTotal, "added", p.Added, "queued", p.QueuedTokens)
	sendProgress(s.progress, scanPageUpdate(p))
}
