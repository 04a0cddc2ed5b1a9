package model

import "time"

// The tables below belong to the wider application; the notifier reads them
// to validate referenced objects and resolve recipients, and only ever
// writes Event.ReminderSentAt.

type Event struct {
	ID             string     `gorm:"primaryKey;size:36"`
	Title          string     `gorm:"size:255;not null"`
	CreatorID      string     `gorm:"size:36;not null"`
	StartsAt       time.Time  `gorm:"index"`
	ReminderSentAt *time.Time `gorm:"index"`
	CreatedAt      time.Time  `gorm:"autoCreateTime"`
}

func (Event) TableName() string { return "event" }

type User struct {
	ID          string    `gorm:"primaryKey;size:36"`
	Name        string    `gorm:"size:255"`
	Email       string    `gorm:"size:255"`
	PhoneNumber string    `gorm:"size:32"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (User) TableName() string { return "app_user" }

// Attendee links a user to an event with an attendance status. One row per
// (event, user) pair is an upstream invariant.
type Attendee struct {
	ID        string    `gorm:"primaryKey;size:36"`
	EventID   string    `gorm:"size:36;not null;index"`
	UserID    string    `gorm:"size:36;not null"`
	Status    string    `gorm:"size:32;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Attendee) TableName() string { return "attendee" }

// TempAttendee is an attendee joined through a temporary account.
type TempAttendee struct {
	ID        string    `gorm:"primaryKey;size:36"`
	EventID   string    `gorm:"size:36;not null;index"`
	Name      string    `gorm:"size:255"`
	Status    string    `gorm:"size:32;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (TempAttendee) TableName() string { return "temp_attendee" }

type Announcement struct {
	ID        string    `gorm:"primaryKey;size:36"`
	EventID   string    `gorm:"size:36;not null;index"`
	AuthorID  string    `gorm:"size:36;not null"`
	Content   string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Announcement) TableName() string { return "announcement" }

type EventFile struct {
	ID         string    `gorm:"primaryKey;size:36"`
	EventID    string    `gorm:"size:36;not null;index"`
	UploaderID string    `gorm:"size:36;not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (EventFile) TableName() string { return "event_file" }

type ChatMessage struct {
	ID        string    `gorm:"primaryKey;size:36"`
	EventID   string    `gorm:"size:36;not null;index"`
	SenderID  string    `gorm:"size:36;not null"`
	Content   string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (ChatMessage) TableName() string { return "chat_message" }

// MessageSeen records that a user has already seen a chat message; such
// users are excluded from NEW_MESSAGE fan-out.
type MessageSeen struct {
	ID        string    `gorm:"primaryKey;size:36"`
	MessageID string    `gorm:"size:36;not null;index"`
	UserID    string    `gorm:"size:36;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (MessageSeen) TableName() string { return "chat_message_seen" }
