package tasks

import (
	"fmt"

	"github.com/desertthunder/wlx/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase, 0 when unknown
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	SortVerify Phase = iota
	ScanPages
	SelectTargets
	DeleteEntries
	Reconcile
	Finished
)

func (p Phase) String() string {
	switch p {
	case SortVerify:
		return "sort_verify"
	case ScanPages:
		return "scan_pages"
	case SelectTargets:
		return "select_targets"
	case DeleteEntries:
		return "delete_entries"
	case Reconcile:
		return "reconcile"
	case Finished:
		return "finished"
	default:
		return ""
	}
}

// ScanProgress is attached to [ScanPages] updates.
type ScanProgress struct {
	Page         int
	PageEntries  int
	UniqueTotal  int
	Added        int
	QueuedTokens int
}

func sortAttemptUpdate(attempt, total int, state VerifyState, observed *models.SortState) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SortVerify,
		Step:    attempt,
		Total:   total,
		Message: fmt.Sprintf("Sort verify attempt %d/%d: %s (%s)", attempt, total, describeSort(observed), state),
		Data:    state,
	}
}

func sortVerifiedUpdate(attempt, total int, observed *models.SortState) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SortVerify,
		Step:    attempt,
		Total:   total,
		Message: fmt.Sprintf("Sort verified: %s", describeSort(observed)),
		Data:    Verified,
	}
}

func scanPageUpdate(p ScanProgress) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ScanPages,
		Step:    p.Page,
		Message: fmt.Sprintf("Fetched page %d, found %d entries (%d unique total, +%d unique)", p.Page, p.PageEntries, p.UniqueTotal, p.Added),
		Data:    p,
	}
}

func selectTargetsUpdate(selected, size int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SelectTargets,
		Step:    selected,
		Total:   size,
		Message: fmt.Sprintf("Playlist size detected: %d. Oldest %d entries selected.", size, selected),
	}
}

func deletedUpdate(step, total int, mode string, rec models.AuditRecord) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DeleteEntries,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] removed (%s): %s", step, total, mode, rec.Title),
		Data:    rec,
	}
}

func reconcileUpdate(step, total int, target models.DeletionTarget) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Reconcile,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Rescanning to refresh setVideoId for %s", formatEntry(target.Entry)),
	}
}

func finishedUpdate(deleted, total int, err error) ProgressUpdate {
	msg := fmt.Sprintf("Done. Removed %d/%d", deleted, total)
	if err != nil {
		msg = fmt.Sprintf("Stopped after removing %d/%d: %v", deleted, total, err)
	}
	return ProgressUpdate{Phase: Finished, Step: deleted, Total: total, Message: msg}
}

func describeSort(s *models.SortState) string {
	if s == nil {
		return "sort menu not found"
	}
	title := s.SelectedTitle
	if title == "" {
		title = "unknown"
	}
	if s.SelectedOrder == nil {
		return fmt.Sprintf("%q (order=unknown)", title)
	}
	return fmt.Sprintf("%q (order=%d)", title, *s.SelectedOrder)
}

func formatEntry(e models.Entry) string {
	videoID := e.VideoID
	if videoID == "" {
		videoID = "unknown"
	}
	title := e.Title
	if title == "" {
		title = "unknown"
	}
	return fmt.Sprintf("setVideoId=%s, videoId=%s, title=%q", e.SetVideoID, videoID, title)
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
