package model

import "time"

// Notification is a persisted, user-visible notification. seen_at null means
// unread; unread rows of a flattenable type are merge targets.
type Notification struct {
	ID           string     `gorm:"primaryKey;size:36"`
	EventID      *string    `gorm:"size:36;index:idx_notification_bucket"`
	UserID       string     `gorm:"size:36;not null;index:idx_notification_bucket"`
	Message      string     `gorm:"type:text;not null"`
	ObjectType   string     `gorm:"size:64;not null;index:idx_notification_bucket"`
	ObjectIDs    string     `gorm:"column:object_ids;type:text"`
	ObjectIDSet  []string   `gorm:"column:object_id_set;serializer:json"`
	CreatedAt    time.Time  `gorm:"autoCreateTime"`
	SeenAt       *time.Time `gorm:"index"`
	NumPushSent  int        `gorm:"column:num_push_notifications_sent;not null;default:1"`
}

func (Notification) TableName() string { return "notification" }

// ReferencedIDs unions the legacy mirror with the native id set.
func (n *Notification) ReferencedIDs() []string {
	return UnionIDs(DecodeLegacyIDs(n.ObjectIDs), n.ObjectIDSet)
}
