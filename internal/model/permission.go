package model

import "time"

// PermissionSetting is a per (user, category, event?) grant. A null event id
// is the user's global default; an event-scoped row overrides it. The
// notifier only ever reads these rows.
type PermissionSetting struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"size:36;not null;index:idx_permission_lookup"`
	Category  string    `gorm:"size:64;not null;index:idx_permission_lookup"`
	EventID   *string   `gorm:"size:36;index:idx_permission_lookup"`
	Granted   bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (PermissionSetting) TableName() string { return "permission_setting" }
