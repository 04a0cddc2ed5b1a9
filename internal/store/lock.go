package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/leomorpho/bonfire-sub000/internal/model"
)

// AcquireTaskLock attempts to take the named lock. The conditional update on
// locked=false is the check-and-set; RowsAffected tells us whether we won.
// Returns false without error when another replica holds the lock.
func (s *Store) AcquireTaskLock(ctx context.Context, taskName string) (bool, error) {
	// Make sure the row exists; concurrent first-acquires collapse onto it.
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.TaskLock{TaskName: taskName}).Error
	if err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		return false, err
	}

	res := s.db.WithContext(ctx).Model(&model.TaskLock{}).
		Where("task_name = ? AND locked = ?", taskName, false).
		Updates(map[string]interface{}{"locked": true, "updated_at": time.Now()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ReleaseTaskLock drops the named lock unconditionally.
func (s *Store) ReleaseTaskLock(ctx context.Context, taskName string) error {
	return s.db.WithContext(ctx).Model(&model.TaskLock{}).
		Where("task_name = ?", taskName).
		Updates(map[string]interface{}{"locked": false, "updated_at": time.Now()}).Error
}

// ForceReleaseAllLocks clears every lock row. Called on shutdown so a killed
// replica cannot wedge the schedulers of the survivors.
func (s *Store) ForceReleaseAllLocks(ctx context.Context) error {
	return s.db.WithContext(ctx).Model(&model.TaskLock{}).
		Where("locked = ?", true).
		Updates(map[string]interface{}{"locked": false, "updated_at": time.Now()}).Error
}
