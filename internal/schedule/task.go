// Package schedule runs cancellable fixed-interval tasks.
package schedule

import (
	"context"
	"time"
)

// Task fires a callback on a fixed interval until stopped
type Task struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// Every starts a task that calls fire every interval until parent is done or Stop
// is called. fire runs on the task's own goroutine; callers that own single-threaded
// state should post from fire and check Stopped on their side.
func Every(parent context.Context, interval time.Duration, fire func()) *Task {
	ctx, cancel := context.WithCancel(parent)
	t := &Task{ctx: ctx, cancel: cancel}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if ctx.Err() != nil {
					return
				}
				fire()
			}
		}
	}()
	return t
}

// Stop cancels the task. Safe on a nil task and safe to call twice.
func (t *Task) Stop() {
	if t == nil {
		return
	}
	t.cancel()
}

// Stopped reports whether the task has been cancelled
func (t *Task) Stopped() bool {
	return t == nil || t.ctx.Err() != nil
}
