package project

import (
	"context"

	"workshop-backend/pkg/db/option"
	"workshop-backend/pkg/errutil"
	"workshop-backend/pkg/repository"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	node  *snowflake.Node
	repo  repository.Repository[Project]
	items repository.Repository[Item]
}

type ServiceParams struct {
	fx.In
	DB   *gorm.DB
	Node *snowflake.Node
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:    p.DB,
		node:  p.Node,
		repo:  repository.ProvideStore[Project](p.DB),
		items: repository.ProvideStore[Item](p.DB),
	}
}

type CreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*Project, error) {
	if req.Name == "" {
		return nil, errutil.ValidationFailed("invalid project",
			errutil.WithDetails(errutil.Detail{Field: "name", Message: "is required"}))
	}

	p := &Project{
		ID:          s.node.Generate().String(),
		Name:        req.Name,
		Description: req.Description,
		Status:      StatusOpen,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		zap.L().Error("failed to create project", zap.Error(err))
		return nil, errutil.Internal("failed to create project", errutil.WithErr(err))
	}

	return p, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Project, error) {
	p, err := s.repo.FindOne(ctx, &Project{ID: id}, option.WithPreload("Items"))
	if err != nil {
		return nil, errutil.Internal("failed to get project", errutil.WithErr(err))
	}
	if p == nil {
		return nil, errutil.NotFound("project not found")
	}
	return p, nil
}

func (s *Service) List(ctx context.Context) ([]*Project, error) {
	projects, err := s.repo.Find(ctx, nil, option.WithOrder("created_at DESC"))
	if err != nil {
		zap.L().Error("failed to list projects", zap.Error(err))
		return nil, errutil.Internal("failed to list projects", errutil.WithErr(err))
	}
	return projects, nil
}

type UpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *Status `json:"status"`
}

func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*Project, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			zap.L().Error("failed to update project", zap.Error(err), zap.String("project_id", id))
			return nil, errutil.Internal("failed to update project", errutil.WithErr(err))
		}
	}

	return s.Get(ctx, id)
}

// Delete refuses while the project still has items.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	n, err := s.items.Count(ctx, &Item{ProjectID: id})
	if err != nil {
		return errutil.Internal("failed to check project items", errutil.WithErr(err))
	}
	if n > 0 {
		return errutil.Conflict("project still has items")
	}

	if err := s.repo.Delete(ctx, &Project{ID: id}); err != nil {
		zap.L().Error("failed to delete project", zap.Error(err), zap.String("project_id", id))
		return errutil.Internal("failed to delete project", errutil.WithErr(err))
	}

	return nil
}

type CreateItemRequest struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

func (s *Service) CreateItem(ctx context.Context, projectID string, req CreateItemRequest) (*Item, error) {
	if _, err := s.Get(ctx, projectID); err != nil {
		return nil, err
	}
	if req.Name == "" {
		return nil, errutil.ValidationFailed("invalid item",
			errutil.WithDetails(errutil.Detail{Field: "name", Message: "is required"}))
	}

	qty := req.Quantity
	if qty <= 0 {
		qty = 1
	}

	item := &Item{
		ID:        s.node.Generate().String(),
		ProjectID: projectID,
		Name:      req.Name,
		Quantity:  qty,
	}
	if err := s.items.Create(ctx, item); err != nil {
		zap.L().Error("failed to create item", zap.Error(err), zap.String("project_id", projectID))
		return nil, errutil.Internal("failed to create item", errutil.WithErr(err))
	}

	return item, nil
}

func (s *Service) DeleteItem(ctx context.Context, projectID, itemID string) error {
	item, err := s.items.FindOne(ctx, &Item{ID: itemID, ProjectID: projectID})
	if err != nil {
		return errutil.Internal("failed to get item", errutil.WithErr(err))
	}
	if item == nil {
		return errutil.NotFound("item not found")
	}

	if err := s.items.Delete(ctx, &Item{ID: itemID}); err != nil {
		zap.L().Error("failed to delete item", zap.Error(err), zap.String("item_id", itemID))
		return errutil.Internal("failed to delete item", errutil.WithErr(err))
	}

	return nil
}
