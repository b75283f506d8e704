package scheduling

import (
	"time"

	"workshop-backend/services/task"
)

// ResourceKind selects which resource link on a task a conflict check runs
// against. It carries the column selector so the machine and operator paths
// share one query implementation.
type ResourceKind string

const (
	KindMachine  ResourceKind = "machine"
	KindOperator ResourceKind = "operator"
)

func (k ResourceKind) String() string {
	return string(k)
}

// Column returns the tasks column holding the resource link for this kind.
func (k ResourceKind) Column() string {
	if k == KindOperator {
		return "operator_id"
	}
	return "machine_id"
}

// Label is the capitalized resource name used in user-facing messages.
func (k ResourceKind) Label() string {
	if k == KindOperator {
		return "Operator"
	}
	return "Machine"
}

// Candidate is one proposed (resource, interval) assignment to validate.
// Exclusions support edit flows: ExcludeTaskID drops every slot of a task
// being rescheduled, ExcludeSlotID drops a single slot being edited; both may
// apply at once.
type Candidate struct {
	ScheduledAt   time.Time
	DurationMin   int
	MachineID     *string
	OperatorID    *string
	ExcludeTaskID string
	ExcludeSlotID string
}

// Interval is the candidate's effective interval.
func (c Candidate) Interval() Interval {
	return NewInterval(c.ScheduledAt, c.DurationMin)
}

// ConflictSlot describes the committed slot a candidate collided with, with
// the end already resolved.
type ConflictSlot struct {
	ID          string    `json:"id"`
	StartAt     time.Time `json:"startDateTime"`
	EndAt       time.Time `json:"endDateTime"`
	DurationMin int       `json:"durationMin"`
}

// Conflict names the offending task and slot precisely enough for a caller
// to resolve the collision. Never persisted.
type Conflict struct {
	TaskID     string       `json:"taskId"`
	Title      string       `json:"title"`
	Slot       ConflictSlot `json:"timeSlot"`
	ResourceID string       `json:"resourceId"`
}

// ConflictResult is the outcome of a conflict check. Kind is set only when
// HasConflict is true.
type ConflictResult struct {
	HasConflict bool         `json:"hasConflict"`
	Kind        ResourceKind `json:"conflictType,omitempty"`
	Conflict    *Conflict    `json:"conflictData,omitempty"`
}

func conflictFrom(kind ResourceKind, resourceID string, slot task.TimeSlot) ConflictResult {
	title := ""
	if slot.Task != nil {
		title = slot.Task.Title
	}
	return ConflictResult{
		HasConflict: true,
		Kind:        kind,
		Conflict: &Conflict{
			TaskID:     slot.TaskID,
			Title:      title,
			ResourceID: resourceID,
			Slot: ConflictSlot{
				ID:          slot.ID,
				StartAt:     slot.StartAt,
				EndAt:       slot.EffectiveEnd(),
				DurationMin: slot.DurationMin,
			},
		},
	}
}
