package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/desertthunder/wlx/internal/shared"
)

// RunHandle is the cooperative stop signal for one run. It is polled between remote calls, never during one.
//
// A nil handle is never stopped. Context cancellation is reported as a stop as well.
type RunHandle struct {
	stop atomic.Bool
}

// NewRunHandle returns a handle in the running state.
func NewRunHandle() *RunHandle {
	return &RunHandle{}
}

// Stop requests that the run halt at the next loop boundary.
func (h *RunHandle) Stop() {
	if h != nil {
		h.stop.Store(true)
	}
}

// Stopped reports whether Stop has been called.
func (h *RunHandle) Stopped() bool {
	return h != nil && h.stop.Load()
}

// checkStop returns a stopped error when the handle was stopped or ctx is done.
func checkStop(ctx context.Context, h *RunHandle) error {
	if h.Stopped() {
		return shared.ErrStopped
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStopped, err)
	}
	return nil
}

// asStopped turns a context error from an in-flight call into a stopped error.
func asStopped(ctx context.Context, err error) error {
	if err == nil || errors.Is(err, shared.ErrStopped) {
		return err
	}
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return fmt.Errorf("%w: %v", shared.ErrStopped, err)
	}
	return err
}

type sleepFunc func(ctx context.Context, d time.Duration) error

// wait blocks for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", shared.ErrStopped, ctx.Err())
	case <-timer.C:
		return nil
	}
}
