package task

import (
	"time"

	"gorm.io/datatypes"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusScheduled  Status = "SCHEDULED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

func (s Status) String() string {
	return string(s)
}

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition reports whether the task lifecycle allows moving to next.
// PENDING->SCHEDULED happens only through the scheduling operation, which
// bypasses this check deliberately; CANCELLED is reachable from any
// non-terminal state.
func (s Status) CanTransition(next Status) bool {
	if s.Terminal() {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	switch s {
	case StatusScheduled:
		return next == StatusInProgress
	case StatusInProgress:
		return next == StatusCompleted
	default:
		return false
	}
}

// Task is one unit of work, optionally tied to an item and assigned to a
// machine and/or operator. Its schedule lives in TimeSlots.
type Task struct {
	ID         string         `gorm:"column:id;primaryKey" json:"id"`
	Title      string         `gorm:"column:title;type:varchar(200);not null" json:"title"`
	Status     Status         `gorm:"column:status;type:varchar(20);default:'PENDING';index" json:"status"`
	ItemID     *string        `gorm:"column:item_id;index" json:"itemId"`
	ProjectID  *string        `gorm:"column:project_id;index" json:"projectId"`
	MachineID  *string        `gorm:"column:machine_id;index" json:"machineId"`
	OperatorID *string        `gorm:"column:operator_id;index" json:"operatorId"`
	Metadata   datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	TimeSlots  []TimeSlot     `gorm:"foreignKey:TaskID" json:"timeSlots"`
}

// TimeSlot is one scheduled interval owned by a task. DurationMin is the
// source of truth for length; EndAt, when stored, must equal
// StartAt + DurationMin and is kept consistent by writers.
type TimeSlot struct {
	ID          string     `gorm:"column:id;primaryKey" json:"id"`
	TaskID      string     `gorm:"column:task_id;index;not null" json:"taskId"`
	StartAt     time.Time  `gorm:"column:start_at;index;not null" json:"startDateTime"`
	EndAt       *time.Time `gorm:"column:end_at" json:"endDateTime,omitempty"`
	DurationMin int        `gorm:"column:duration_min;not null" json:"durationMin"`
	IsPrimary   bool       `gorm:"column:is_primary;default:false" json:"isPrimary"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	Task        *Task      `gorm:"foreignKey:TaskID" json:"-"`
}

// EffectiveEnd resolves the slot's end instant: the stored EndAt when
// present, otherwise StartAt plus the duration. A slot is never open-ended.
func (s TimeSlot) EffectiveEnd() time.Time {
	if s.EndAt != nil {
		return *s.EndAt
	}
	return s.StartAt.Add(time.Duration(s.DurationMin) * time.Minute)
}
