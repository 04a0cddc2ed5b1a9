package model

import "time"

// TaskLock is the durable mutual-exclusion record shared across replicas.
// Acquisition is a conditional update on locked=false; the shared store is
// the arbiter, not an in-memory mutex.
type TaskLock struct {
	TaskName  string    `gorm:"primaryKey;size:64"`
	Locked    bool      `gorm:"not null;default:false"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (TaskLock) TableName() string { return "task_lock" }
