package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"workshop-backend/pkg/db/option"
	"workshop-backend/pkg/errutil"
	"workshop-backend/pkg/repository"
	"workshop-backend/services/task"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ScheduleRequest asks to commit one (resource, interval) assignment for a
// task. Nil resource ids unassign that resource. ItemID and ProjectID are
// passed through to the task record when given; they play no part in
// conflict detection.
type ScheduleRequest struct {
	TaskID      string
	ItemID      *string
	ProjectID   *string
	MachineID   *string
	OperatorID  *string
	ScheduledAt time.Time
	DurationMin int
}

type Service struct {
	db       *gorm.DB
	node     *snowflake.Node
	tasks    repository.Repository[task.Task]
	detector *Detector
}

type ServiceParams struct {
	fx.In
	DB   *gorm.DB
	Node *snowflake.Node
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:       p.DB,
		node:     p.Node,
		tasks:    repository.ProvideStore[task.Task](p.DB),
		detector: NewDetector(NewRepository(p.DB)),
	}
}

// CheckConflicts runs a read-only conflict check outside any transaction.
func (s *Service) CheckConflicts(ctx context.Context, c Candidate) (ConflictResult, error) {
	return s.detector.CheckConflicts(ctx, c)
}

func (r ScheduleRequest) validate() error {
	details := make([]errutil.Detail, 0)
	if r.TaskID == "" {
		details = append(details, errutil.Detail{Field: "taskId", Message: "is required"})
	}
	if r.ScheduledAt.IsZero() {
		details = append(details, errutil.Detail{Field: "scheduledAt", Message: "is required"})
	}
	if r.DurationMin <= 0 {
		details = append(details, errutil.Detail{Field: "durationMin", Message: "must be a positive integer"})
	}
	if len(details) > 0 {
		return errutil.ValidationFailed("invalid schedule request", errutil.WithDetails(details...))
	}
	return nil
}

// ScheduleTask validates the candidate against existing commitments and, when
// clear, replaces the task's slot set and resource links in one transaction.
// The conflict read and the replace write share the transaction, and on
// postgres the task row is locked first, so two writers rescheduling the same
// task serialize instead of racing check-then-write.
func (s *Service) ScheduleTask(ctx context.Context, req ScheduleRequest) (*task.Task, error) {
	fields := []zap.Field{zap.String("task_id", req.TaskID)}
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		fields = append(fields, zap.String("trace_id", sc.TraceID().String()))
	}
	zapLog := zap.L().With(fields...)

	if err := req.validate(); err != nil {
		return nil, err
	}

	var scheduled *task.Task
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		if tx.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var t task.Task
		if err := q.Where("id = ?", req.TaskID).First(&t).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errutil.NotFound("task not found")
			}
			return errutil.Internal("failed to load task", errutil.WithErr(err))
		}

		if hasID(req.MachineID) || hasID(req.OperatorID) {
			detector := NewDetector(NewRepository(tx))
			result, err := detector.CheckConflicts(ctx, Candidate{
				ScheduledAt:   req.ScheduledAt,
				DurationMin:   req.DurationMin,
				MachineID:     req.MachineID,
				OperatorID:    req.OperatorID,
				ExcludeTaskID: t.ID,
			})
			if err != nil {
				return errutil.Internal("failed to check conflicts", errutil.WithErr(err))
			}
			if result.HasConflict {
				return errutil.Conflict(
					fmt.Sprintf("%s scheduling conflict detected", result.Kind.Label()),
					errutil.WithPayload(result),
				)
			}
		}

		// Replace, not patch: the current schedule is always exactly the
		// slot set written here.
		if err := tx.Where("task_id = ?", t.ID).Delete(&task.TimeSlot{}).Error; err != nil {
			return errutil.Internal("failed to clear existing slots", errutil.WithErr(err))
		}

		end := req.ScheduledAt.Add(time.Duration(req.DurationMin) * time.Minute)
		slot := task.TimeSlot{
			ID:          s.node.Generate().String(),
			TaskID:      t.ID,
			StartAt:     req.ScheduledAt,
			EndAt:       &end,
			DurationMin: req.DurationMin,
			IsPrimary:   true,
		}
		if err := tx.Create(&slot).Error; err != nil {
			return errutil.Internal("failed to create time slot", errutil.WithErr(err))
		}

		updates := map[string]any{
			"machine_id":  req.MachineID,
			"operator_id": req.OperatorID,
			"status":      task.StatusScheduled,
		}
		if req.ItemID != nil {
			updates["item_id"] = req.ItemID
		}
		if req.ProjectID != nil {
			updates["project_id"] = req.ProjectID
		}
		if err := tx.Model(&task.Task{}).Where("id = ?", t.ID).Updates(updates).Error; err != nil {
			return errutil.Internal("failed to update task", errutil.WithErr(err))
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	scheduled, err = s.tasks.FindOne(ctx, &task.Task{ID: req.TaskID}, option.WithPreload("TimeSlots"))
	if err != nil {
		return nil, errutil.Internal("failed to reload task", errutil.WithErr(err))
	}

	zapLog.Info("task scheduled",
		zap.Time("scheduled_at", req.ScheduledAt),
		zap.Int("duration_min", req.DurationMin),
	)

	return scheduled, nil
}

// Unschedule clears a task's slots and resource links and returns it to
// PENDING.
func (s *Service) Unschedule(ctx context.Context, taskID string) (*task.Task, error) {
	if taskID == "" {
		return nil, errutil.ValidationFailed("invalid unschedule request",
			errutil.WithDetails(errutil.Detail{Field: "taskId", Message: "is required"}))
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t task.Task
		if err := tx.Where("id = ?", taskID).First(&t).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errutil.NotFound("task not found")
			}
			return errutil.Internal("failed to load task", errutil.WithErr(err))
		}

		if err := tx.Where("task_id = ?", t.ID).Delete(&task.TimeSlot{}).Error; err != nil {
			return errutil.Internal("failed to clear existing slots", errutil.WithErr(err))
		}

		updates := map[string]any{
			"machine_id":  nil,
			"operator_id": nil,
			"status":      task.StatusPending,
		}
		if err := tx.Model(&task.Task{}).Where("id = ?", t.ID).Updates(updates).Error; err != nil {
			return errutil.Internal("failed to update task", errutil.WithErr(err))
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.tasks.FindOne(ctx, &task.Task{ID: taskID}, option.WithPreload("TimeSlots"))
}

func hasID(id *string) bool {
	return id != nil && *id != ""
}
