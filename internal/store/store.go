package store

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/leomorpho/bonfire-sub000/internal/model"
)

// Interface restricts Store methods so the engine can be tested against
// a mock.
type Interface interface {
	DB(ctx context.Context) *gorm.DB

	CreateQueueEntry(ctx context.Context, entry *model.QueueEntry) error
	PendingQueueEntries(ctx context.Context, limit int) ([]model.QueueEntry, error)
	MarkQueueEntrySent(ctx context.Context, id string, at time.Time) error
	DeleteQueueEntry(ctx context.Context, id string) error
	PendingQueueCount(ctx context.Context) (int64, error)

	ExistingIDs(ctx context.Context, table string, ids []string) ([]string, error)

	EventByID(ctx context.Context, id string) (*model.Event, error)
	AttendeesByStatus(ctx context.Context, eventID string, statuses []string) ([]model.Attendee, error)
	UsersByID(ctx context.Context, ids []string) (map[string]model.User, error)
	EventFilesByID(ctx context.Context, ids []string) ([]model.EventFile, error)
	ChatMessageByID(ctx context.Context, id string) (*model.ChatMessage, error)
	MessageSeenUserIDs(ctx context.Context, messageID string) ([]string, error)

	PermissionSettings(ctx context.Context, userIDs []string, category, eventID string) (map[string][]model.PermissionSetting, error)
	DeliveryPermissions(ctx context.Context, userIDs, categories []string) (map[string]map[string]bool, error)

	UnreadNotifications(ctx context.Context, tx *gorm.DB, userID string, eventID *string, objectType string) ([]model.Notification, error)
	DeleteNotifications(ctx context.Context, tx *gorm.DB, ids []string) error
	CreateNotification(ctx context.Context, tx *gorm.DB, n *model.Notification) error
	BulkCreateNotifications(ctx context.Context, ns []*model.Notification) error
	UnreadCount(ctx context.Context, userID string) (int64, error)

	EventsNeedingReminder(ctx context.Context, from, until time.Time) ([]model.Event, error)
	MarkEventReminderSent(ctx context.Context, eventID string, at time.Time) error

	AcquireTaskLock(ctx context.Context, taskName string) (bool, error)
	ReleaseTaskLock(ctx context.Context, taskName string) error
	ForceReleaseAllLocks(ctx context.Context) error

	CacheUnreadCount(ctx context.Context, userID string, count int64) error
	GetCachedUnreadCount(ctx context.Context, userID string) (int64, error)

	CreateDeliveryAudit(ctx context.Context, a *model.DeliveryAudit) error
	CreateUnsubscribeToken(ctx context.Context, t *model.UnsubscribeToken) error
}

// Store implements Interface on gorm + redis.
type Store struct {
	db  *gorm.DB
	rdb *redis.Client
	log *zap.SugaredLogger
}

// New constructs the store.
func New(db *gorm.DB, rdb *redis.Client, logger *zap.SugaredLogger) *Store {
	return &Store{db: db, rdb: rdb, log: logger}
}

// DB returns the underlying *gorm.DB.
func (s *Store) DB(ctx context.Context) *gorm.DB { return s.db.WithContext(ctx) }

// CreateQueueEntry inserts a pending entry.
func (s *Store) CreateQueueEntry(ctx context.Context, entry *model.QueueEntry) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

// PendingQueueEntries pulls unsent entries in creation order.
func (s *Store) PendingQueueEntries(ctx context.Context, limit int) ([]model.QueueEntry, error) {
	var entries []model.QueueEntry
	err := s.db.WithContext(ctx).
		Where("sent = ?", false).
		Order("created_at").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

// MarkQueueEntrySent flips the entry to its terminal processed state.
func (s *Store) MarkQueueEntrySent(ctx context.Context, id string, at time.Time) error {
	return s.db.WithContext(ctx).Model(&model.QueueEntry{}).Where("id = ?", id).
		Updates(map[string]interface{}{"sent": true, "sent_at": &at}).Error
}

// DeleteQueueEntry removes an entry whose referenced objects are all gone.
func (s *Store) DeleteQueueEntry(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&model.QueueEntry{}, "id = ?", id).Error
}

// PendingQueueCount counts unsent entries.
func (s *Store) PendingQueueCount(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.QueueEntry{}).Where("sent = ?", false).Count(&n).Error
	return n, err
}

// ExistingIDs returns the subset of ids present in the given table.
// Ordering is whatever the database returns; callers reorder.
func (s *Store) ExistingIDs(ctx context.Context, table string, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []string
	err := s.db.WithContext(ctx).Table(table).Where("id IN ?", ids).Pluck("id", &out).Error
	return out, err
}

// EventByID fetches one event.
func (s *Store) EventByID(ctx context.Context, id string) (*model.Event, error) {
	var ev model.Event
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&ev).Error; err != nil {
		return nil, err
	}
	return &ev, nil
}

// AttendeesByStatus fetches attendees of an event with any of the statuses.
func (s *Store) AttendeesByStatus(ctx context.Context, eventID string, statuses []string) ([]model.Attendee, error) {
	var attendees []model.Attendee
	err := s.db.WithContext(ctx).
		Where("event_id = ? AND status IN ?", eventID, statuses).
		Find(&attendees).Error
	return attendees, err
}

// UsersByID bulk-fetches users into a lookup map.
func (s *Store) UsersByID(ctx context.Context, ids []string) (map[string]model.User, error) {
	out := make(map[string]model.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []model.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// EventFilesByID fetches file rows for the given ids.
func (s *Store) EventFilesByID(ctx context.Context, ids []string) ([]model.EventFile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var files []model.EventFile
	err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&files).Error
	return files, err
}

// ChatMessageByID fetches one chat message.
func (s *Store) ChatMessageByID(ctx context.Context, id string) (*model.ChatMessage, error) {
	var msg model.ChatMessage
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// MessageSeenUserIDs lists users who already saw the message.
func (s *Store) MessageSeenUserIDs(ctx context.Context, messageID string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&model.MessageSeen{}).
		Where("message_id = ?", messageID).
		Pluck("user_id", &ids).Error
	return ids, err
}

// PermissionSettings bulk-fetches, for each user, the global and the
// event-scoped rows of one category in a single query.
func (s *Store) PermissionSettings(ctx context.Context, userIDs []string, category, eventID string) (map[string][]model.PermissionSetting, error) {
	out := make(map[string][]model.PermissionSetting, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var settings []model.PermissionSetting
	err := s.db.WithContext(ctx).
		Where("user_id IN ? AND category = ? AND (event_id IS NULL OR event_id = ?)", userIDs, category, eventID).
		Find(&settings).Error
	if err != nil {
		return nil, err
	}
	for _, st := range settings {
		out[st.UserID] = append(out[st.UserID], st)
	}
	return out, nil
}

// DeliveryPermissions bulk-fetches global channel grants, keyed by user then
// category. Delivery channels have no per-event override.
func (s *Store) DeliveryPermissions(ctx context.Context, userIDs, categories []string) (map[string]map[string]bool, error) {
	out := make(map[string]map[string]bool, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var settings []model.PermissionSetting
	err := s.db.WithContext(ctx).
		Where("user_id IN ? AND category IN ? AND event_id IS NULL", userIDs, categories).
		Find(&settings).Error
	if err != nil {
		return nil, err
	}
	for _, st := range settings {
		if out[st.UserID] == nil {
			out[st.UserID] = make(map[string]bool, len(categories))
		}
		out[st.UserID][st.Category] = st.Granted
	}
	return out, nil
}

// UnreadNotifications fetches merge candidates for one
// (user, event, objectType) bucket. Runs on tx so the merge can re-check
// seen_at inside its transaction.
func (s *Store) UnreadNotifications(ctx context.Context, tx *gorm.DB, userID string, eventID *string, objectType string) ([]model.Notification, error) {
	var ns []model.Notification
	q := tx.WithContext(ctx).Where("user_id = ? AND object_type = ? AND seen_at IS NULL", userID, objectType)
	if eventID != nil {
		q = q.Where("event_id = ?", *eventID)
	} else {
		q = q.Where("event_id IS NULL")
	}
	err := q.Find(&ns).Error
	return ns, err
}

// DeleteNotifications removes superseded rows during a merge.
func (s *Store) DeleteNotifications(ctx context.Context, tx *gorm.DB, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Delete(&model.Notification{}, "id IN ?", ids).Error
}

// CreateNotification inserts one row inside a merge transaction.
func (s *Store) CreateNotification(ctx context.Context, tx *gorm.DB, n *model.Notification) error {
	return tx.WithContext(ctx).Create(n).Error
}

// BulkCreateNotifications inserts non-merged rows in one statement.
func (s *Store) BulkCreateNotifications(ctx context.Context, ns []*model.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(ns).Error
}

// UnreadCount counts a user's unread notifications in the database.
func (s *Store) UnreadCount(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ? AND seen_at IS NULL", userID).
		Count(&n).Error
	return n, err
}

// EventsNeedingReminder finds events starting inside the window that have
// not had their reminder sent.
func (s *Store) EventsNeedingReminder(ctx context.Context, from, until time.Time) ([]model.Event, error) {
	var events []model.Event
	err := s.db.WithContext(ctx).
		Where("starts_at > ? AND starts_at <= ? AND reminder_sent_at IS NULL", from, until).
		Find(&events).Error
	return events, err
}

// MarkEventReminderSent stamps the event so the next pass skips it.
func (s *Store) MarkEventReminderSent(ctx context.Context, eventID string, at time.Time) error {
	return s.db.WithContext(ctx).Model(&model.Event{}).Where("id = ?", eventID).
		Update("reminder_sent_at", &at).Error
}

// CacheUnreadCount writes the per-user unread counter to redis, best effort.
func (s *Store) CacheUnreadCount(ctx context.Context, userID string, count int64) error {
	if s.rdb == nil {
		return nil
	}
	return s.rdb.Set(ctx, unreadCountKey(userID), count, 10*time.Minute).Err()
}

// GetCachedUnreadCount reads the cached counter.
func (s *Store) GetCachedUnreadCount(ctx context.Context, userID string) (int64, error) {
	if s.rdb == nil {
		return 0, redis.Nil
	}
	return s.rdb.Get(ctx, unreadCountKey(userID)).Int64()
}

func unreadCountKey(userID string) string { return fmt.Sprintf("unread:%s", userID) }

// CreateDeliveryAudit records one outbound send attempt.
func (s *Store) CreateDeliveryAudit(ctx context.Context, a *model.DeliveryAudit) error {
	return s.db.WithContext(ctx).Create(a).Error
}

// CreateUnsubscribeToken records a minted opt-out token.
func (s *Store) CreateUnsubscribeToken(ctx context.Context, t *model.UnsubscribeToken) error {
	return s.db.WithContext(ctx).Create(t).Error
}
