package tasks

import (
	"fmt"

	"github.com/desertthunder/wlx/internal/models"
	"github.com/desertthunder/wlx/internal/shared"
)

// SortDriftError reports that the first scan page showed a different order than the one just verified.
type SortDriftError struct {
	Expected      int
	ObservedOrder *int
	ObservedTitle string
}

func (e *SortDriftError) Error() string {
	observed := "unknown"
	if e.ObservedOrder != nil {
		observed = fmt.Sprintf("%d", *e.ObservedOrder)
	}
	title := e.ObservedTitle
	if title == "" {
		title = "unknown"
	}
	return fmt.Sprintf("%v while scanning: expected order=%d but got order=%s (%s)", shared.ErrSortDrift, e.Expected, observed, title)
}

func (e *SortDriftError) Unwrap() error { return shared.ErrSortDrift }

// SortUnverifiableError reports that the target order was not observed within the allowed attempts.
type SortUnverifiableError struct {
	Target   int
	Attempts int
	Last     *models.SortState
}

func (e *SortUnverifiableError) Error() string {
	return fmt.Sprintf("%v after %d attempts (last seen %s); stop playlist changes from other devices and retry",
		shared.ErrSortUnverifiable, e.Attempts, describeSort(e.Last))
}

func (e *SortUnverifiableError) Unwrap() error { return shared.ErrSortUnverifiable }

// ReconciliationError reports that a stale target could not be uniquely re-identified after a rescan.
type ReconciliationError struct {
	Target     models.DeletionTarget
	Ambiguous  bool
	Candidates int
	Cause      error
}

func (e *ReconciliationError) Error() string {
	reason := shared.ErrReconciliationNotFound
	if e.Ambiguous {
		reason = shared.ErrReconciliationAmbiguous
	}
	msg := fmt.Sprintf("%v for %s (%d candidates); avoid changing the playlist while a run is active", reason, formatEntry(e.Target.Entry), e.Candidates)
	if e.Cause != nil {
		msg += fmt.Sprintf(": delete failed with %v", e.Cause)
	}
	return msg
}

func (e *ReconciliationError) Unwrap() error {
	if e.Ambiguous {
		return shared.ErrReconciliationAmbiguous
	}
	return shared.ErrReconciliationNotFound
}
