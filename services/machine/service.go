package machine

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
	repo repository.Repository[Machine]
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
		repo: repository.ProvideStore[Machine](p.DB),
	}
}

type CreateRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*Machine, error) {
	if req.Name == "" {
		return nil, errutil.ValidationFailed("invalid machine",
			errutil.WithDetails(errutil.Detail{Field: "name", Message: "is required"}))
	}

	existing, err := s.repo.FindOne(ctx, &Machine{Name: req.Name})
	if err != nil {
		return nil, errutil.Internal("failed to check machine name", errutil.WithErr(err))
	}
	if existing != nil {
		return nil, errutil.Conflict("machine name already in use")
	}

	m := &Machine{
		ID:       s.node.Generate().String(),
		Name:     req.Name,
		Status:   StatusActive,
		Location: req.Location,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		zap.L().Error("failed to create machine", zap.Error(err))
		return nil, errutil.Internal("failed to create machine", errutil.WithErr(err))
	}

	return m, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Machine, error) {
	m, err := s.repo.FindOne(ctx, &Machine{ID: id})
	if err != nil {
		return nil, errutil.Internal("failed to get machine", errutil.WithErr(err))
	}
	if m == nil {
		return nil, errutil.NotFound("machine not found")
	}
	return m, nil
}

func (s *Service) List(ctx context.Context) ([]*Machine, error) {
	machines, err := s.repo.Find(ctx, nil)
	if err != nil {
		zap.L().Error("failed to list machines", zap.Error(err))
		return nil, errutil.Internal("failed to list machines", errutil.WithErr(err))
	}
	return machines, nil
}

type UpdateRequest struct {
	Name     *string `json:"name"`
	Status   *Status `json:"status"`
	Location *string `json:"location"`
}

func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*Machine, error) {
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
	if req.Location != nil {
		updates["location"] = *req.Location
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			zap.L().Error("failed to update machine", zap.Error(err), zap.String("machine_id", id))
			return nil, errutil.Internal("failed to update machine", errutil.WithErr(err))
		}
	}

	return s.Get(ctx, id)
}

// Delete refuses while any active task still holds the machine; callers must
// unschedule or finish those tasks first.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	var n int64
	err := s.db.WithContext(ctx).
		Model(&task.Task{}).
		Where("machine_id = ? AND status IN ?", id, []task.Status{task.StatusScheduled, task.StatusInProgress}).
		Count(&n).Error
	if err != nil {
		return errutil.Internal("failed to check machine usage", errutil.WithErr(err))
	}
	if n > 0 {
		return errutil.Conflict("machine is assigned to active tasks")
	}

	if err := s.repo.Delete(ctx, &Machine{ID: id}); err != nil {
		zap.L().Error("failed to delete machine", zap.Error(err), zap.String("machine_id", id))
		return errutil.Internal("failed to delete machine", errutil.WithErr(err))
	}

	return nil
}
