package task

import (
	"context"
	"errors"
	"fmt"

	"workshop-backend/pkg/db/option"
	"workshop-backend/pkg/db/pagination"
	"workshop-backend/pkg/errutil"
	"workshop-backend/pkg/repository"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service struct {
	db   *gorm.DB
	node *snowflake.Node
	repo repository.Repository[Task]
}

type ServiceParams struct {
	fx.In
	DB   *gorm.DB
	Node *snowflake.Node
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:   p.DB,
		node: p.Node,
		repo: repository.ProvideStore[Task](p.DB),
	}
}

type CreateRequest struct {
	Title    string         `json:"title"`
	ItemID   *string        `json:"itemId"`
	Metadata datatypes.JSON `json:"metadata"`
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*Task, error) {
	if req.Title == "" {
		return nil, errutil.ValidationFailed("invalid task",
			errutil.WithDetails(errutil.Detail{Field: "title", Message: "is required"}))
	}

	t := &Task{
		ID:       s.node.Generate().String(),
		Title:    req.Title,
		Status:   StatusPending,
		ItemID:   req.ItemID,
		Metadata: req.Metadata,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		zap.L().Error("failed to create task", zap.Error(err))
		return nil, errutil.Internal("failed to create task", errutil.WithErr(err))
	}

	return t, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Task, error) {
	if id == "" {
		return nil, errutil.ValidationFailed("task id is required")
	}

	t, err := s.repo.FindOne(ctx, &Task{ID: id}, option.WithPreload("TimeSlots"))
	if err != nil {
		zap.L().Error("failed to get task", zap.Error(err), zap.String("task_id", id))
		return nil, errutil.Internal("failed to get task", errutil.WithErr(err))
	}
	if t == nil {
		return nil, errutil.NotFound("task not found")
	}

	return t, nil
}

type Filter struct {
	Status     string `form:"status"`
	MachineID  string `form:"machineId"`
	OperatorID string `form:"operatorId"`
	ItemID     string `form:"itemId"`
	pagination.Pagination
}

func (s *Service) List(ctx context.Context, f Filter) ([]*Task, *pagination.PageInfo, error) {
	zapLog := zap.L()
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		zapLog = zapLog.With(zap.String("trace_id", sc.TraceID().String()))
	}

	query := &Task{Status: Status(f.Status)}
	if f.MachineID != "" {
		query.MachineID = &f.MachineID
	}
	if f.OperatorID != "" {
		query.OperatorID = &f.OperatorID
	}
	if f.ItemID != "" {
		query.ItemID = &f.ItemID
	}

	limit := f.Limit
	if limit <= 0 || limit > 250 {
		limit = 50
	}

	opts := []option.QueryOption{
		option.WithPreload("TimeSlots"),
		option.WithOrder("created_at DESC, id DESC"),
		option.WithLimit(limit + 1),
	}
	if f.Cursor != "" {
		cursor, err := pagination.DecodeCursor(f.Cursor)
		if err != nil {
			return nil, nil, errutil.BadRequest("invalid cursor", errutil.WithErr(err))
		}
		opts = append(opts, option.WithWhere(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		))
	}

	tasks, err := s.repo.Find(ctx, query, opts...)
	if err != nil {
		zapLog.Error("failed to list tasks", zap.Error(err))
		return nil, nil, errutil.Internal("failed to list tasks", errutil.WithErr(err))
	}

	tasks, info := pagination.Trim(tasks, limit, func(t *Task) pagination.Cursor {
		return pagination.Cursor{CreatedAt: t.CreatedAt.UTC().Format("2006-01-02 15:04:05.999999"), ID: t.ID}
	})

	return tasks, info, nil
}

type UpdateRequest struct {
	Title    *string        `json:"title"`
	ItemID   *string        `json:"itemId"`
	Metadata datatypes.JSON `json:"metadata"`
}

func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*Task, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.Title != nil {
		if *req.Title == "" {
			return nil, errutil.ValidationFailed("invalid task",
				errutil.WithDetails(errutil.Detail{Field: "title", Message: "must not be empty"}))
		}
		updates["title"] = *req.Title
	}
	if req.ItemID != nil {
		updates["item_id"] = *req.ItemID
	}
	if req.Metadata != nil {
		updates["metadata"] = req.Metadata
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			zap.L().Error("failed to update task", zap.Error(err), zap.String("task_id", id))
			return nil, errutil.Internal("failed to update task", errutil.WithErr(err))
		}
	}

	return s.Get(ctx, id)
}

// Transition moves the task to next per the lifecycle rules. SCHEDULED is
// not reachable here; scheduling owns that transition because it must pass
// the conflict check.
func (s *Service) Transition(ctx context.Context, id string, next Status) (*Task, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if next == StatusScheduled {
		return nil, errutil.ValidationFailed("tasks are scheduled via the scheduling endpoint")
	}
	if !t.Status.CanTransition(next) {
		return nil, errutil.Conflict(
			fmt.Sprintf("cannot transition task from %s to %s", t.Status, next))
	}

	if err := s.repo.Update(ctx, id, map[string]any{"status": next}); err != nil {
		zap.L().Error("failed to transition task", zap.Error(err), zap.String("task_id", id))
		return nil, errutil.Internal("failed to transition task", errutil.WithErr(err))
	}

	return s.Get(ctx, id)
}

// Delete removes the task and its slots together.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&TimeSlot{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&Task{}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errutil.NotFound("task not found")
		}
		zap.L().Error("failed to delete task", zap.Error(err), zap.String("task_id", id))
		return errutil.Internal("failed to delete task", errutil.WithErr(err))
	}

	return nil
}
