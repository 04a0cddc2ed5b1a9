package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/leomorpho/bonfire-sub000/internal/model"
)

// Enqueue is the only write entrypoint other subsystems use to request a
// notification. Empty object ids is a bug in the caller.
func (e *Engine) Enqueue(ctx context.Context, objectType, actingUserID, eventID string, objectIDs []string) error {
	if len(objectIDs) == 0 {
		return ErrEmptyObjectIDs
	}
	if _, ok := registry[objectType]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownObjectType, objectType)
	}
	ids := model.UnionIDs(objectIDs)
	return e.store.CreateQueueEntry(ctx, &model.QueueEntry{
		ID:          uuid.NewString(),
		UserID:      actingUserID,
		EventID:     eventID,
		ObjectType:  objectType,
		ObjectIDs:   model.EncodeLegacyIDs(ids),
		ObjectIDSet: ids,
		CreatedAt:   e.now(),
	})
}

// RunQueueDrainPass drains pending queue entries under the shared task lock.
// Safe to invoke on a timer regardless of whether anything is pending; a
// concurrent run elsewhere makes this a no-op.
func (e *Engine) RunQueueDrainPass(ctx context.Context) error {
	return e.RunExclusively(ctx, TaskQueueDrain, e.drainQueue)
}

// drainQueue processes entries sequentially. Sequential processing within a
// pass keeps merges of the same (user, event, type) bucket race-free. A
// failed entry stays unsent and is retried on the next poll.
func (e *Engine) drainQueue(ctx context.Context) error {
	entries, err := e.store.PendingQueueEntries(ctx, e.opts.BatchSize)
	if err != nil {
		return fmt.Errorf("fetch pending queue entries: %w", err)
	}
	for i := range entries {
		entry := &entries[i]
		if err := e.processEntry(ctx, entry); err != nil {
			e.log.Errorw("process queue entry failed",
				"entry_id", entry.ID, "object_type", entry.ObjectType, "error", err)
		}
	}
	return nil
}

// processEntry walks one entry through its state machine:
// PENDING -> INVALID (deleted) or PENDING -> PROCESSED (sent).
func (e *Engine) processEntry(ctx context.Context, entry *model.QueueEntry) error {
	// The fetch excludes sent entries; re-check anyway.
	if entry.SentAt != nil || entry.Sent {
		return nil
	}

	validIDs, err := e.ValidateObjectIDs(ctx, entry.ObjectType, entry.ReferencedIDs())
	if err != nil {
		return fmt.Errorf("validate object ids: %w", err)
	}
	if len(validIDs) == 0 {
		// Every referenced object is gone; the entry can never become
		// valid. Terminal, not an error.
		e.log.Infow("queue entry references no valid objects, deleting",
			"entry_id", entry.ID, "object_type", entry.ObjectType)
		return e.store.DeleteQueueEntry(ctx, entry.ID)
	}

	drafts, err := e.BuildDrafts(ctx, entry.ObjectType, entry.UserID, entry.EventID, validIDs)
	if err != nil {
		return fmt.Errorf("build drafts: %w", err)
	}

	persisted := e.Persist(ctx, drafts)
	e.Deliver(ctx, persisted)

	if err := e.store.MarkQueueEntrySent(ctx, entry.ID, e.now()); err != nil {
		return fmt.Errorf("mark queue entry sent: %w", err)
	}
	return nil
}

// RunReminderPass notifies attendees of events starting within the lead
// window. Same lock, fetch, process, mark shape as the queue drain.
func (e *Engine) RunReminderPass(ctx context.Context) error {
	return e.RunExclusively(ctx, TaskReminders, func(ctx context.Context) error {
		now := e.now()
		events, err := e.store.EventsNeedingReminder(ctx, now, now.Add(e.opts.ReminderLead))
		if err != nil {
			return fmt.Errorf("fetch events needing reminder: %w", err)
		}
		for _, event := range events {
			if err := e.remindEvent(ctx, event); err != nil {
				e.log.Errorw("reminder pass failed for event",
					"event_id", event.ID, "error", err)
			}
		}
		return nil
	})
}

func (e *Engine) remindEvent(ctx context.Context, event model.Event) error {
	granted, _, err := e.EligibleAttendees(ctx, event.ID,
		[]string{StatusGoing, StatusMaybe}, nil, CategoryEventReminders)
	if err != nil {
		return err
	}
	eventID := event.ID
	drafts := make([]Draft, 0, len(granted))
	for _, userID := range granted {
		drafts = append(drafts, Draft{
			UserID:             userID,
			EventID:            &eventID,
			ObjectType:         TypeEventReminder,
			ObjectIDs:          []string{event.ID},
			Message:            eventReminderMessage(event.Title),
			EventTitle:         event.Title,
			RequiredPermission: CategoryEventReminders,
		})
	}
	persisted := e.Persist(ctx, drafts)
	e.Deliver(ctx, persisted)
	return e.store.MarkEventReminderSent(ctx, event.ID, e.now())
}

// UnreadCount returns the user's unread notification count, served from the
// cache when warm.
func (e *Engine) UnreadCount(ctx context.Context, userID string) (int64, error) {
	if count, err := e.store.GetCachedUnreadCount(ctx, userID); err == nil {
		return count, nil
	}
	count, err := e.store.UnreadCount(ctx, userID)
	if err != nil {
		return 0, err
	}
	if err := e.store.CacheUnreadCount(ctx, userID, count); err != nil {
		e.log.Warnw("cache unread count", "user_id", userID, "error", err)
	}
	return count, nil
}
