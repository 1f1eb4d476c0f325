package main

import (
	"context"
	"os"
)

// handleInterrupts turns the first interrupt into a cooperative stop of the active run and the next one into a
// context cancellation. With no active run the first interrupt cancels immediately.
func (r *Runner) handleInterrupts(ctx context.Context, cancel context.CancelFunc, sigs <-chan os.Signal) {
	stopped := false
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigs:
			if !stopped {
				if h := r.active.Load(); h != nil {
					stopped = true
					h.Stop()
					r.logger.Warn("stop requested, finishing the current request (interrupt again to abort)", "signal", sig)
					continue
				}
			}
			r.logger.Warn("aborting", "signal", sig)
			cancel()
			return
		}
	}
}
