package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AnalyticalRepository serves the four levels of the budget-code hierarchy.
// Each level is filterable by its parent so the cascade selector fetches one
// option set per level.
type AnalyticalRepository interface {
	ListCatalogs(ctx context.Context) ([]model.AnalyticalCatalog, error)
	ListProjects(ctx context.Context, catalogID *uuid.UUID) ([]model.AnalyticalProject, error)
	ListActivities(ctx context.Context, projectID *uuid.UUID) ([]model.AnalyticalActivity, error)
	ListCodes(ctx context.Context, activityID *uuid.UUID) ([]model.AnalyticalCode, error)
	// GetCodeWithChain loads a terminal code with its full ancestor chain.
	GetCodeWithChain(ctx context.Context, id uuid.UUID) (*model.AnalyticalCode, error)
	CreateCatalog(ctx context.Context, c *model.AnalyticalCatalog) error
	CreateProject(ctx context.Context, p *model.AnalyticalProject) error
	CreateActivity(ctx context.Context, a *model.AnalyticalActivity) error
	CreateCode(ctx context.Context, c *model.AnalyticalCode) error
}

type analyticalRepository struct {
	db *gorm.DB
}

func NewAnalyticalRepository(db *gorm.DB) AnalyticalRepository {
	return &analyticalRepository{db: db}
}

func (r *analyticalRepository) ListCatalogs(ctx context.Context) ([]model.AnalyticalCatalog, error) {
	var out []model.AnalyticalCatalog
	if err := GetDB(ctx, r.db).Order("name").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *analyticalRepository) ListProjects(ctx context.Context, catalogID *uuid.UUID) ([]model.AnalyticalProject, error) {
	db := GetDB(ctx, r.db)
	if catalogID != nil {
		db = db.Where("catalog_id = ?", *catalogID)
	}
	var out []model.AnalyticalProject
	if err := db.Order("name").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *analyticalRepository) ListActivities(ctx context.Context, projectID *uuid.UUID) ([]model.AnalyticalActivity, error) {
	db := GetDB(ctx, r.db)
	if projectID != nil {
		db = db.Where("project_id = ?", *projectID)
	}
	var out []model.AnalyticalActivity
	if err := db.Order("name").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *analyticalRepository) ListCodes(ctx context.Context, activityID *uuid.UUID) ([]model.AnalyticalCode, error) {
	db := GetDB(ctx, r.db)
	if activityID != nil {
		db = db.Where("activity_id = ?", *activityID)
	}
	var out []model.AnalyticalCode
	if err := db.Order("code").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *analyticalRepository) GetCodeWithChain(ctx context.Context, id uuid.UUID) (*model.AnalyticalCode, error) {
	var code model.AnalyticalCode
	err := GetDB(ctx, r.db).
		Preload("Activity.Project.Catalog").
		First(&code, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &code, nil
}

func (r *analyticalRepository) CreateCatalog(ctx context.Context, c *model.AnalyticalCatalog) error {
	return GetDB(ctx, r.db).Create(c).Error
}

func (r *analyticalRepository) CreateProject(ctx context.Context, p *model.AnalyticalProject) error {
	return GetDB(ctx, r.db).Create(p).Error
}

func (r *analyticalRepository) CreateActivity(ctx context.Context, a *model.AnalyticalActivity) error {
	return GetDB(ctx, r.db).Create(a).Error
}

func (r *analyticalRepository) CreateCode(ctx context.Context, c *model.AnalyticalCode) error {
	return GetDB(ctx, r.db).Create(c).Error
}
