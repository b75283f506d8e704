package scheduling

import (
	"context"
	"fmt"
	"time"

	"workshop-backend/services/task"

	"gorm.io/gorm"
)

// CommitmentRepository narrows existing time slots down to the ones that
// might collide with a candidate interval. It filters by resource identity
// and a coarse time bound only; exact overlap is decided by the detector so
// the store never needs to understand duration-implied end times.
type CommitmentRepository interface {
	FindCandidateSlots(ctx context.Context, kind ResourceKind, resourceID string, before time.Time, excludeTaskID, excludeSlotID string) ([]task.TimeSlot, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository returns a gorm backed CommitmentRepository implementation.
func NewRepository(db *gorm.DB) CommitmentRepository {
	return &gormRepository{db: db}
}

// FindCandidateSlots returns slots whose owning task is linked to resourceID
// via the column matching kind and whose stored start precedes the
// candidate's end. ExcludeTaskID omits a whole task's slots, excludeSlotID a
// single slot; both filters intersect when given together.
func (r *gormRepository) FindCandidateSlots(ctx context.Context, kind ResourceKind, resourceID string, before time.Time, excludeTaskID, excludeSlotID string) ([]task.TimeSlot, error) {
	if r == nil || r.db == nil {
		return nil, gorm.ErrInvalidDB
	}

	tx := r.db.WithContext(ctx).
		Model(&task.TimeSlot{}).
		Joins("JOIN tasks ON tasks.id = time_slots.task_id").
		Where(fmt.Sprintf("tasks.%s = ?", kind.Column()), resourceID).
		Where("time_slots.start_at < ?", before)

	if excludeTaskID != "" {
		tx = tx.Where("time_slots.task_id <> ?", excludeTaskID)
	}
	if excludeSlotID != "" {
		tx = tx.Where("time_slots.id <> ?", excludeSlotID)
	}

	var slots []task.TimeSlot
	if err := tx.Preload("Task").Order("time_slots.start_at").Find(&slots).Error; err != nil {
		return nil, err
	}
	return slots, nil
}
