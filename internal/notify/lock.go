package notify

import "context"

// Task names for the periodic passes.
const (
	TaskQueueDrain   = "notification_queue_drain"
	TaskReminders = "event_reminder_pass"
)

// RunExclusively runs body under the durable task lock shared by all
// replicas. Holding contention is a normal overlap-avoidance outcome: log
// and return nil. A panic inside body is caught and logged so one bad run
// cannot take the scheduler down, and the lock is released either way.
func (e *Engine) RunExclusively(ctx context.Context, taskName string, body func(ctx context.Context) error) error {
	acquired, err := e.store.AcquireTaskLock(ctx, taskName)
	if err != nil {
		return err
	}
	if !acquired {
		e.log.Infow("task already running, skipping", "task", taskName)
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			e.log.Errorw("task panicked", "task", taskName, "panic", r)
		}
		if err := e.store.ReleaseTaskLock(ctx, taskName); err != nil {
			e.log.Errorw("release task lock", "task", taskName, "error", err)
		}
	}()

	if err := body(ctx); err != nil {
		e.log.Errorw("task run failed", "task", taskName, "error", err)
	}
	return nil
}

// ForceUnlockAll clears every task lock, best effort. Called on shutdown.
func (e *Engine) ForceUnlockAll(ctx context.Context) {
	if err := e.store.ForceReleaseAllLocks(ctx); err != nil {
		e.log.Errorw("force-release task locks", "error", err)
	}
}
