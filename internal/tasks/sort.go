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

// VerifyState is the sort enforcer state.
type VerifyState int

const (
	Unverified VerifyState = iota
	VerifyViaEdit
	VerifyViaBrowse
	Verified
	Failed
)

func (s VerifyState) String() string {
	switch s {
	case Unverified:
		return "unverified"
	case VerifyViaEdit:
		return "verify_via_edit"
	case VerifyViaBrowse:
		return "verify_via_browse"
	case Verified:
		return "verified"
	case Failed:
		return "failed"
	default:
		return ""
	}
}

// SortEnforcer forces a playlist sort order and confirms the server reports it.
type SortEnforcer struct {
	svc      services.PlaylistService
	ref      PlaylistRef
	logger   *log.Logger
	progress chan<- ProgressUpdate
	sleep    sleepFunc
	state    VerifyState
}

// NewSortEnforcer creates an enforcer in the [Unverified] state.
func NewSortEnforcer(svc services.PlaylistService, ref PlaylistRef, logger *log.Logger, progress chan<- ProgressUpdate) *SortEnforcer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &SortEnforcer{svc: svc, ref: ref, logger: logger, progress: progress, sleep: wait}
}

// State returns the state reached by the last EnsureOrder call.
func (s *SortEnforcer) State() VerifyState { return s.state }

// EnsureOrder sets the target order and confirms it, first from the edit response and then from a fresh first
// page. It returns the observed state once it matches, or a [SortUnverifiableError] after maxAttempts.
func (s *SortEnforcer) EnsureOrder(ctx context.Context, h *RunHandle, target, maxAttempts int, poll time.Duration) (*models.SortState, error) {
	maxAttempts = shared.ClampInt(maxAttempts, shared.MinSortAttempts, shared.MaxSortAttempts)
	poll = shared.Millis(shared.ClampInt(int(poll/time.Millisecond), 0, shared.MaxThrottleMs))
	s.state = Unverified

	var last *models.SortState
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := checkStop(ctx, h); err != nil {
			return nil, err
		}

		s.state = VerifyViaEdit
		resp, err := s.svc.EditPlaylist(ctx, services.EditRequest{
			PlaylistID: s.ref.ID,
			Actions:    []services.EditAction{services.SetOrderAction(target)},
			Params:     s.ref.EditParams,
		})
		if err != nil {
			s.state = Failed
			return nil, asStopped(ctx, err)
		}
		if err := services.CheckEditStatus(services.PathEdit, "set playlist order", resp); err != nil {
			s.state = Failed
			return nil, err
		}

		editState := payload.ExtractSortState(resp.Raw)
		if editState.HasOrder(target) {
			return s.verified(attempt, maxAttempts, editState), nil
		}

		s.state = VerifyViaBrowse
		page, err := s.svc.Browse(ctx, s.ref.firstPage())
		if err != nil {
			s.state = Failed
			return nil, asStopped(ctx, err)
		}

		browseState := payload.ExtractSortState(page)
		if browseState.HasOrder(target) {
			return s.verified(attempt, maxAttempts, browseState), nil
		}

		last = browseState
		if last == nil {
			last = editState
		}

		sendProgress(s.progress, sortAttemptUpdate(attempt, maxAttempts, s.state, last))
		if attempt < maxAttempts {
			s.logger.Info("sort not yet applied, retrying", "attempt", attempt, "max", maxAttempts, "observed", describeSort(last))
			if err := s.sleep(ctx, poll); err != nil {
				s.state = Failed
				return nil, err
			}
		}
	}

	s.state = Failed
	return nil, &SortUnverifiableError{Target: target, Attempts: maxAttempts, Last: last}
}

func (s *SortEnforcer) verified(attempt, maxAttempts int, observed *models.SortState) *models.SortState {
	via := s.state
	s.state = Verified
	s.logger.Info("sort verified", "attempt", attempt, "via", via, "observed", describeSort(observed))
	sendProgress(s.progress, sortVerifiedUpdate(attempt, maxAttempts, observed))
	return observed
}
