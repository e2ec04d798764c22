// Package poller runs repeating background tasks with an explicit stop
// contract: a task ends when its Run reports done, when the attempt limit is
// exhausted, when the context is cancelled, or when Stop is called.
package poller

import (
	"context"
	"sync"
	"time"

	"lead-activity-feed/internal/platform/errreport"
	"lead-activity-feed/internal/platform/logger"
)

// Task describes one repeating job. Run returns done=true to stop the task;
// errors are logged and counted against MaxAttempts but do not stop it early.
type Task struct {
	Name     string
	Interval time.Duration

	// MaxAttempts caps the number of Run calls. Zero means unlimited.
	MaxAttempts int

	Run func(ctx context.Context) (done bool, err error)

	Log logger.Logger
}

// Poller is a started task. Stop is safe to call more than once and from a
// different goroutine than the one that started it.
type Poller struct {
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// Start begins running the task on its interval. The first attempt happens
// immediately, not one interval in.
func Start(ctx context.Context, task Task) *Poller {
	if task.Log == nil {
		task.Log = logger.Nop()
	}
	if task.Interval <= 0 {
		task.Interval = time.Minute
	}

	ctx, cancel := context.WithCancel(ctx)
	p := &Poller{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(p.done)
		defer errreport.Recover()

		ticker := time.NewTicker(task.Interval)
		defer ticker.Stop()

		attempts := 0
		for {
			attempts++
			done, err := task.Run(ctx)
			if err != nil {
				task.Log.Warn("poll attempt failed", map[string]any{
					"task":    task.Name,
					"attempt": attempts,
					"error":   err.Error(),
				})
			}
			if done {
				task.Log.Debug("poll task finished", map[string]any{"task": task.Name, "attempt": attempts})
				return
			}
			if task.MaxAttempts > 0 && attempts >= task.MaxAttempts {
				task.Log.Warn("poll task gave up", map[string]any{"task": task.Name, "attempts": attempts})
				return
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return p
}

// Stop cancels the task and waits for its goroutine to exit.
func (p *Poller) Stop() {
	p.stopOnce.Do(p.cancel)
	<-p.done
}

// Done reports task completion without stopping it.
func (p *Poller) Done() <-chan struct{} {
	return p.done
}
