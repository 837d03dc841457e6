package service

import (
	"context"
	"errors"
	"fmt"

	"backend/internal/model"
	"backend/internal/workflow"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreateEntityDTO struct {
	Name string `json:"name" binding:"required"`
	Code string `json:"code" binding:"required"`
}

type CreateApprovalGroupDTO struct {
	Name      string `json:"name" binding:"required"`
	MinAmount string `json:"min_amount" binding:"required"`
	MaxAmount string `json:"max_amount" binding:"required"`
	Level     int    `json:"level" binding:"required,min=1"`
	Scope     string `json:"scope" binding:"required"`
	EntityID  string `json:"entity_id"`
}

// OrgService manages entities and approval groups, the static routing
// configuration the validation stage depends on.
type OrgService interface {
	ListEntities(ctx context.Context) ([]model.Entity, error)
	CreateEntity(ctx context.Context, req CreateEntityDTO) (*model.Entity, error)
	DeleteEntity(ctx context.Context, id string) error
	ListApprovalGroups(ctx context.Context) ([]model.ApprovalGroup, error)
	CreateApprovalGroup(ctx context.Context, req CreateApprovalGroupDTO) (*model.ApprovalGroup, error)
	DeleteApprovalGroup(ctx context.Context, id string) error
}

type orgService struct {
	db *gorm.DB
}

func NewOrgService(db *gorm.DB) OrgService {
	return &orgService{db: db}
}

func (s *orgService) ListEntities(ctx context.Context) ([]model.Entity, error) {
	var entities []model.Entity
	if err := s.db.WithContext(ctx).Order("name").Find(&entities).Error; err != nil {
		return nil, err
	}
	return entities, nil
}

func (s *orgService) CreateEntity(ctx context.Context, req CreateEntityDTO) (*model.Entity, error) {
	entity := model.Entity{Name: req.Name, Code: req.Code}
	if err := s.db.WithContext(ctx).Create(&entity).Error; err != nil {
		return nil, fmt.Errorf("failed to create entity: %w", err)
	}
	return &entity, nil
}

func (s *orgService) DeleteEntity(ctx context.Context, id string) error {
	entityID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid entity id: %w", err)
	}

	var users int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).Where("entity_id = ?", entityID).Count(&users).Error; err != nil {
		return err
	}
	if users > 0 {
		return errors.New("entity still has assigned users")
	}

	return s.db.WithContext(ctx).Delete(&model.Entity{}, "id = ?", entityID).Error
}

func (s *orgService) ListApprovalGroups(ctx context.Context) ([]model.ApprovalGroup, error) {
	var groups []model.ApprovalGroup
	err := s.db.WithContext(ctx).Preload("Entity").Order("level ASC, name").Find(&groups).Error
	if err != nil {
		return nil, err
	}
	return groups, nil
}

func (s *orgService) CreateApprovalGroup(ctx context.Context, req CreateApprovalGroupDTO) (*model.ApprovalGroup, error) {
	minAmount, err := decimal.NewFromString(req.MinAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid min_amount %q: %w", req.MinAmount, err)
	}
	maxAmount, err := decimal.NewFromString(req.MaxAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid max_amount %q: %w", req.MaxAmount, err)
	}
	if maxAmount.LessThan(minAmount) {
		return nil, errors.New("max_amount must be greater than or equal to min_amount")
	}

	scope := workflow.GroupScope(req.Scope)
	if scope != workflow.ScopeGlobal && scope != workflow.ScopeEntity {
		return nil, errors.New("scope must be GLOBAL or ENTITY")
	}

	group := model.ApprovalGroup{
		Name:      req.Name,
		MinAmount: minAmount,
		MaxAmount: maxAmount,
		Level:     req.Level,
		Scope:     scope,
	}

	if scope == workflow.ScopeEntity {
		if req.EntityID == "" {
			return nil, errors.New("entity_id is required for ENTITY scope")
		}
		entityID, err := uuid.Parse(req.EntityID)
		if err != nil {
			return nil, fmt.Errorf("invalid entity_id: %w", err)
		}
		group.EntityID = &entityID
	}

	if err := s.db.WithContext(ctx).Create(&group).Error; err != nil {
		return nil, fmt.Errorf("failed to create approval group: %w", err)
	}
	return &group, nil
}

func (s *orgService) DeleteApprovalGroup(ctx context.Context, id string) error {
	groupID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid approval group id: %w", err)
	}

	var pending int64
	err = s.db.WithContext(ctx).Model(&model.RequestApproval{}).
		Where("approval_group_id = ? AND status = ?", groupID, workflow.StatusPending).
		Count(&pending).Error
	if err != nil {
		return err
	}
	if pending > 0 {
		return errors.New("approval group still has pending validations")
	}

	return s.db.WithContext(ctx).Delete(&model.ApprovalGroup{}, "id = ?", groupID).Error
}
