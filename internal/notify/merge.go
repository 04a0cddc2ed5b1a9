package notify

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leomorpho/bonfire-sub000/internal/model"
)

// Persist writes drafts to the store, merging flattenable drafts into any
// existing unread notification of the same (user, event, type) bucket. The
// returned slice is what the delivery router should route: freshly inserted
// rows always, merged rows only when the deliver-on-merge policy is on, and
// in-app-only drafts never. A failure on one draft is logged and does not
// abort the rest.
func (e *Engine) Persist(ctx context.Context, drafts []Draft) []model.Notification {
	var deliverable []model.Notification
	var bulk []*model.Notification
	var bulkInAppOnly []bool
	affected := make(map[string]struct{})

	for _, draft := range drafts {
		tc := registry[draft.ObjectType]
		if !tc.flattenable {
			bulk = append(bulk, e.newRow(draft))
			bulkInAppOnly = append(bulkInAppOnly, draft.InAppOnly)
			continue
		}
		row, merged, err := e.mergeDraft(ctx, draft, tc)
		if err != nil {
			e.log.Errorw("merge notification failed",
				"user_id", draft.UserID, "object_type", draft.ObjectType, "error", err)
			continue
		}
		affected[draft.UserID] = struct{}{}
		if draft.InAppOnly {
			continue
		}
		if !merged || e.opts.DeliverOnMerge {
			deliverable = append(deliverable, *row)
		}
	}

	if len(bulk) > 0 {
		if err := e.store.BulkCreateNotifications(ctx, bulk); err != nil {
			e.log.Errorw("bulk insert notifications failed", "count", len(bulk), "error", err)
		} else {
			for i, n := range bulk {
				affected[n.UserID] = struct{}{}
				if !bulkInAppOnly[i] {
					deliverable = append(deliverable, *n)
				}
			}
		}
	}

	e.refreshUnreadCounts(ctx, affected)
	return deliverable
}

// mergeDraft folds the draft into the unread bucket inside one transaction:
// union all unread rows' id sets with the draft's, re-render the message
// with the merged total, drop the old rows, insert one fresh row. Normally
// there is at most one unread row, but earlier races may have produced more;
// all of them collapse here. Rows whose seen_at flipped since the caller
// looked are left alone — never merge into a seen notification.
func (e *Engine) mergeDraft(ctx context.Context, draft Draft, tc typeConfig) (*model.Notification, bool, error) {
	var out *model.Notification
	merged := false
	err := e.store.DB(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := e.store.UnreadNotifications(ctx, tx, draft.UserID, draft.EventID, draft.ObjectType)
		if err != nil {
			return err
		}
		idLists := [][]string{draft.ObjectIDs}
		var staleIDs []string
		numPushSent := 0
		for _, n := range existing {
			if n.SeenAt != nil {
				continue
			}
			idLists = append([][]string{n.ReferencedIDs()}, idLists...)
			staleIDs = append(staleIDs, n.ID)
			if n.NumPushSent > numPushSent {
				numPushSent = n.NumPushSent
			}
		}

		row := e.newRow(draft)
		if len(staleIDs) > 0 {
			merged = true
			mergedIDs := model.UnionIDs(idLists...)
			row.ObjectIDSet = mergedIDs
			row.ObjectIDs = model.EncodeLegacyIDs(mergedIDs)
			if tc.mergeMessage != nil {
				row.Message = tc.mergeMessage(len(mergedIDs), draft.EventTitle)
			}
			row.NumPushSent = numPushSent
			if e.opts.DeliverOnMerge && !draft.InAppOnly {
				row.NumPushSent++
			}
			if err := e.store.DeleteNotifications(ctx, tx, staleIDs); err != nil {
				return err
			}
		}
		if err := e.store.CreateNotification(ctx, tx, row); err != nil {
			return err
		}
		out = row
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, merged, nil
}

// newRow materializes a draft as a persistable notification.
func (e *Engine) newRow(draft Draft) *model.Notification {
	ids := model.UnionIDs(draft.ObjectIDs)
	return &model.Notification{
		ID:          uuid.NewString(),
		EventID:     draft.EventID,
		UserID:      draft.UserID,
		Message:     draft.Message,
		ObjectType:  draft.ObjectType,
		ObjectIDs:   model.EncodeLegacyIDs(ids),
		ObjectIDSet: ids,
		CreatedAt:   e.now(),
		NumPushSent: 1,
	}
}

// refreshUnreadCounts rewrites the cached per-user unread counters for
// everyone this batch touched. Cache trouble is a warning, never a failure.
func (e *Engine) refreshUnreadCounts(ctx context.Context, userIDs map[string]struct{}) {
	for userID := range userIDs {
		count, err := e.store.UnreadCount(ctx, userID)
		if err != nil {
			e.log.Warnw("count unread notifications", "user_id", userID, "error", err)
			continue
		}
		if err := e.store.CacheUnreadCount(ctx, userID, count); err != nil {
			e.log.Warnw("cache unread count", "user_id", userID, "error", err)
		}
	}
}
