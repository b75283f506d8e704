package operator

import (
	"context"

	"workshop-backend/pkg/errutil"
	"workshop-backend/pkg/repository"
	"workshop-backend/services/task"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db   *gorm.DB
	node *snowflake.Node
	repo repository.Repository[Operator]
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
		repo: repository.ProvideStore[Operator](p.DB),
	}
}

type CreateRequest struct {
	Name  string `json:"name"`
	Shift Shift  `json:"shift"`
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*Operator, error) {
	if req.Name == "" {
		return nil, errutil.ValidationFailed("invalid operator",
			errutil.WithDetails(errutil.Detail{Field: "name", Message: "is required"}))
	}

	shift := req.Shift
	if shift == "" {
		shift = ShiftDay
	}

	o := &Operator{
		ID:     s.node.Generate().String(),
		Name:   req.Name,
		Status: StatusAvailable,
		Shift:  shift,
	}
	if err := s.repo.Create(ctx, o); err != nil {
		zap.L().Error("failed to create operator", zap.Error(err))
		return nil, errutil.Internal("failed to create operator", errutil.WithErr(err))
	}

	return o, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Operator, error) {
	o, err := s.repo.FindOne(ctx, &Operator{ID: id})
	if err != nil {
		return nil, errutil.Internal("failed to get operator", errutil.WithErr(err))
	}
	if o == nil {
		return nil, errutil.NotFound("operator not found")
	}
	return o, nil
}

func (s *Service) List(ctx context.Context) ([]*Operator, error) {
	operators, err := s.repo.Find(ctx, nil)
	if err != nil {
		zap.L().Error("failed to list operators", zap.Error(err))
		return nil, errutil.Internal("failed to list operators", errutil.WithErr(err))
	}
	return operators, nil
}

type UpdateRequest struct {
	Name   *string `json:"name"`
	Status *Status `json:"status"`
	Shift  *Shift  `json:"shift"`
}

func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*Operator, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.Shift != nil {
		updates["shift"] = *req.Shift
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			zap.L().Error("failed to update operator", zap.Error(err), zap.String("operator_id", id))
			return nil, errutil.Internal("failed to update operator", errutil.WithErr(err))
		}
	}

	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	var n int64
	err := s.db.WithContext(ctx).
		Model(&task.Task{}).
		Where("operator_id = ? AND status IN ?", id, []task.Status{task.StatusScheduled, task.StatusInProgress}).
		Count(&n).Error
	if err != nil {
		return errutil.Internal("failed to check operator usage", errutil.WithErr(err))
	}
	if n > 0 {
		return errutil.Conflict("operator is assigned to active tasks")
	}

	if err := s.repo.Delete(ctx, &Operator{ID: id}); err != nil {
		zap.L().Error("failed to delete operator", zap.Error(err), zap.String("operator_id", id))
		return errutil.Internal("failed to delete operator", errutil.WithErr(err))
	}

	return nil
}
