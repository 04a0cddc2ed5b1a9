package notify

import (
	"context"
	"fmt"
)

type builderFunc func(ctx context.Context, e *Engine, actorID, eventID string, ids []string) ([]Draft, error)

// builders is the per-type dispatch table for draft construction. Every
// builder takes the already-validated object ids and returns zero or more
// drafts; it never persists anything.
var builders = map[string]builderFunc{
	TypeAnnouncement:    buildAnnouncement,
	TypeFiles:           buildFiles,
	TypeAttendees:       buildAttendees,
	TypeTempAttendees:   buildTempAttendees,
	TypeAdminAdded:      buildAdminAdded,
	TypeNewMessage:      buildNewMessage,
	TypeEventInvitation: buildRecipientList(TypeEventInvitation, eventInvitationMessage),
	TypeEventCancelled:  buildRecipientList(TypeEventCancelled, eventCancelledMessage),
	TypeEventDeleted:    buildRecipientList(TypeEventDeleted, eventDeletedMessage),
}

// BuildDrafts runs the registered builder for the entry's type.
func (e *Engine) BuildDrafts(ctx context.Context, objectType, actorID, eventID string, validIDs []string) ([]Draft, error) {
	build, ok := builders[objectType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownObjectType, objectType)
	}
	return build(ctx, e, actorID, eventID, validIDs)
}

func buildAnnouncement(ctx context.Context, e *Engine, actorID, eventID string, ids []string) ([]Draft, error) {
	event, err := e.store.EventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	granted, _, err := e.EligibleAttendees(ctx, eventID,
		[]string{StatusGoing, StatusMaybe},
		[]string{event.CreatorID, actorID},
		CategoryEventActivity)
	if err != nil {
		return nil, err
	}
	message := announcementMessage(len(ids), event.Title)
	drafts := make([]Draft, 0, len(granted))
	for _, userID := range granted {
		drafts = append(drafts, Draft{
			UserID:             userID,
			EventID:            &eventID,
			ObjectType:         TypeAnnouncement,
			ObjectIDs:          ids,
			Message:            message,
			EventTitle:         event.Title,
			RequiredPermission: CategoryEventActivity,
		})
	}
	return drafts, nil
}

func buildFiles(ctx context.Context, e *Engine, actorID, eventID string, ids []string) ([]Draft, error) {
	event, err := e.store.EventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	files, err := e.store.EventFilesByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	uploaderByFile := make(map[string]string, len(files))
	for _, f := range files {
		uploaderByFile[f.ID] = f.UploaderID
	}
	granted, _, err := e.EligibleAttendees(ctx, eventID,
		[]string{StatusGoing, StatusMaybe}, nil, CategoryEventActivity)
	if err != nil {
		return nil, err
	}
	var drafts []Draft
	for _, userID := range granted {
		// Nobody hears about their own uploads.
		var visible []string
		for _, id := range ids {
			if uploaderByFile[id] == userID {
				continue
			}
			visible = append(visible, id)
		}
		if len(visible) == 0 {
			continue
		}
		drafts = append(drafts, Draft{
			UserID:             userID,
			EventID:            &eventID,
			ObjectType:         TypeFiles,
			ObjectIDs:          visible,
			Message:            filesMessage(len(visible), event.Title),
			EventTitle:         event.Title,
			RequiredPermission: CategoryEventActivity,
		})
	}
	return drafts, nil
}

func buildAttendees(ctx context.Context, e *Engine, actorID, eventID string, ids []string) ([]Draft, error) {
	return buildCreatorCount(ctx, e, eventID, ids, TypeAttendees, attendeesMessage)
}

func buildTempAttendees(ctx context.Context, e *Engine, actorID, eventID string, ids []string) ([]Draft, error) {
	return buildCreatorCount(ctx, e, eventID, ids, TypeTempAttendees, tempAttendeesMessage)
}

// buildCreatorCount targets the event creator with a count-based message.
func buildCreatorCount(ctx context.Context, e *Engine, eventID string, ids []string, objectType string, render func(int, string) string) ([]Draft, error) {
	event, err := e.store.EventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return []Draft{{
		UserID:             event.CreatorID,
		EventID:            &eventID,
		ObjectType:         objectType,
		ObjectIDs:          ids,
		Message:            render(len(ids), event.Title),
		EventTitle:         event.Title,
		RequiredPermission: CategoryEventActivity,
	}}, nil
}

func buildAdminAdded(ctx context.Context, e *Engine, actorID, eventID string, ids []string) ([]Draft, error) {
	event, err := e.store.EventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	drafts := make([]Draft, 0, len(ids))
	for _, adminID := range ids {
		drafts = append(drafts, Draft{
			UserID:             adminID,
			EventID:            &eventID,
			ObjectType:         TypeAdminAdded,
			ObjectIDs:          []string{adminID},
			Message:            adminAddedMessage(event.Title),
			EventTitle:         event.Title,
			RequiredPermission: CategoryEventActivity,
		})
	}
	return drafts, nil
}

func buildNewMessage(ctx context.Context, e *Engine, actorID, eventID string, ids []string) ([]Draft, error) {
	// A message event references exactly one message; anything else is a
	// bug in the enqueuing code, not a runtime condition.
	if len(ids) != 1 {
		return nil, fmt.Errorf("%w: got %d ids", ErrInvalidMessageCount, len(ids))
	}
	msg, err := e.store.ChatMessageByID(ctx, ids[0])
	if err != nil {
		return nil, err
	}
	event, err := e.store.EventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	seenIDs, err := e.store.MessageSeenUserIDs(ctx, ids[0])
	if err != nil {
		return nil, err
	}
	exclude := append([]string{msg.SenderID, actorID}, seenIDs...)
	granted, _, err := e.EligibleAttendees(ctx, eventID,
		[]string{StatusGoing, StatusMaybe}, exclude, CategoryEventMessages)
	if err != nil {
		return nil, err
	}
	drafts := make([]Draft, 0, len(granted))
	for _, userID := range granted {
		drafts = append(drafts, Draft{
			UserID:             userID,
			EventID:            &eventID,
			ObjectType:         TypeNewMessage,
			ObjectIDs:          ids,
			Message:            newMessageMessage(),
			EventTitle:         event.Title,
			RequiredPermission: CategoryEventMessages,
		})
	}
	return drafts, nil
}

// buildRecipientList handles types whose object ids are an explicit,
// caller-resolved recipient list.
func buildRecipientList(objectType string, render func(string) string) builderFunc {
	return func(ctx context.Context, e *Engine, actorID, eventID string, ids []string) ([]Draft, error) {
		event, err := e.store.EventByID(ctx, eventID)
		if err != nil {
			return nil, err
		}
		var drafts []Draft
		for _, userID := range ids {
			if userID == actorID {
				continue
			}
			drafts = append(drafts, Draft{
				UserID:             userID,
				EventID:            &eventID,
				ObjectType:         objectType,
				ObjectIDs:          []string{userID},
				Message:            render(event.Title),
				EventTitle:         event.Title,
				RequiredPermission: CategoryEventActivity,
			})
		}
		return drafts, nil
	}
}
