package model

import "time"

// DeliveryAudit is one row per outbound SMS or email send attempt.
type DeliveryAudit struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"size:36;not null;index"`
	Channel   string    `gorm:"size:16;not null"`
	Category  string    `gorm:"size:64;not null"`
	Recipient string    `gorm:"size:255;not null"`
	MessageID string    `gorm:"size:64"`
	Succeeded bool      `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (DeliveryAudit) TableName() string { return "delivery_audit" }

// UnsubscribeToken is minted per outbound email so the recipient can opt out
// of the category without being signed in.
type UnsubscribeToken struct {
	Token     string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"size:36;not null;index"`
	Category  string    `gorm:"size:64;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (UnsubscribeToken) TableName() string { return "unsubscribe_token" }
