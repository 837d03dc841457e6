package service

import (
	"context"
	"fmt"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/workflow"

	"github.com/google/uuid"
)

// CodeChain is the resolved ancestry of a terminal analytical code, one id
// per cascade level. Clients seed their cascade selector from it.
type CodeChain struct {
	CatalogID  string `json:"catalog_id"`
	ProjectID  string `json:"project_id"`
	ActivityID string `json:"activity_id"`
	CodeID     string `json:"code_id"`
	Code       string `json:"code"`
	Label      string `json:"label"`
}

type CreateCatalogDTO struct {
	Name string `json:"name" binding:"required"`
}

type CreateProjectDTO struct {
	CatalogID string `json:"catalog_id" binding:"required"`
	Name      string `json:"name" binding:"required"`
}

type CreateActivityDTO struct {
	ProjectID string `json:"project_id" binding:"required"`
	Name      string `json:"name" binding:"required"`
}

type CreateCodeDTO struct {
	ActivityID string `json:"activity_id" binding:"required"`
	Code       string `json:"code" binding:"required"`
	Label      string `json:"label" binding:"required"`
}

type AnalyticalService interface {
	Catalogs(ctx context.Context) ([]model.AnalyticalCatalog, error)
	Projects(ctx context.Context, catalogID string) ([]model.AnalyticalProject, error)
	Activities(ctx context.Context, projectID string) ([]model.AnalyticalActivity, error)
	Codes(ctx context.Context, activityID string) ([]model.AnalyticalCode, error)
	// ResolveChain returns the full ancestry of a terminal code.
	ResolveChain(ctx context.Context, codeID string) (*CodeChain, error)
	CreateCatalog(ctx context.Context, req CreateCatalogDTO) (*model.AnalyticalCatalog, error)
	CreateProject(ctx context.Context, req CreateProjectDTO) (*model.AnalyticalProject, error)
	CreateActivity(ctx context.Context, req CreateActivityDTO) (*model.AnalyticalActivity, error)
	CreateCode(ctx context.Context, req CreateCodeDTO) (*model.AnalyticalCode, error)
}

type analyticalService struct {
	repo repository.AnalyticalRepository
}

func NewAnalyticalService(repo repository.AnalyticalRepository) AnalyticalService {
	return &analyticalService{repo: repo}
}

func (s *analyticalService) Catalogs(ctx context.Context) ([]model.AnalyticalCatalog, error) {
	return s.repo.ListCatalogs(ctx)
}

func (s *analyticalService) Projects(ctx context.Context, catalogID string) ([]model.AnalyticalProject, error) {
	parent, err := parseOptionalID(catalogID, "catalog_id")
	if err != nil {
		return nil, err
	}
	return s.repo.ListProjects(ctx, parent)
}

func (s *analyticalService) Activities(ctx context.Context, projectID string) ([]model.AnalyticalActivity, error) {
	parent, err := parseOptionalID(projectID, "project_id")
	if err != nil {
		return nil, err
	}
	return s.repo.ListActivities(ctx, parent)
}

func (s *analyticalService) Codes(ctx context.Context, activityID string) ([]model.AnalyticalCode, error) {
	parent, err := parseOptionalID(activityID, "activity_id")
	if err != nil {
		return nil, err
	}
	return s.repo.ListCodes(ctx, parent)
}

func (s *analyticalService) ResolveChain(ctx context.Context, codeID string) (*CodeChain, error) {
	id, err := uuid.Parse(codeID)
	if err != nil {
		return nil, fmt.Errorf("invalid code id: %w", err)
	}

	code, err := s.repo.GetCodeWithChain(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("analytical code not found: %w", err)
	}
	if code.Activity == nil || code.Activity.Project == nil || code.Activity.Project.Catalog == nil {
		return nil, fmt.Errorf("analytical code %s has a broken ancestor chain", id)
	}

	selection := workflow.CascadeFromChain(
		code.Activity.Project.Catalog.ID,
		code.Activity.Project.ID,
		code.Activity.ID,
		code.ID,
	)

	return &CodeChain{
		CatalogID:  selection.Get(workflow.LevelCatalog).String(),
		ProjectID:  selection.Get(workflow.LevelProject).String(),
		ActivityID: selection.Get(workflow.LevelActivity).String(),
		CodeID:     selection.Get(workflow.LevelCode).String(),
		Code:       code.Code,
		Label:      code.Label,
	}, nil
}

func (s *analyticalService) CreateCatalog(ctx context.Context, req CreateCatalogDTO) (*model.AnalyticalCatalog, error) {
	catalog := model.AnalyticalCatalog{Name: req.Name}
	if err := s.repo.CreateCatalog(ctx, &catalog); err != nil {
		return nil, fmt.Errorf("failed to create catalog: %w", err)
	}
	return &catalog, nil
}

func (s *analyticalService) CreateProject(ctx context.Context, req CreateProjectDTO) (*model.AnalyticalProject, error) {
	catalogID, err := uuid.Parse(req.CatalogID)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog_id: %w", err)
	}
	project := model.AnalyticalProject{CatalogID: catalogID, Name: req.Name}
	if err := s.repo.CreateProject(ctx, &project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return &project, nil
}

func (s *analyticalService) CreateActivity(ctx context.Context, req CreateActivityDTO) (*model.AnalyticalActivity, error) {
	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("invalid project_id: %w", err)
	}
	activity := model.AnalyticalActivity{ProjectID: projectID, Name: req.Name}
	if err := s.repo.CreateActivity(ctx, &activity); err != nil {
		return nil, fmt.Errorf("failed to create activity: %w", err)
	}
	return &activity, nil
}

func (s *analyticalService) CreateCode(ctx context.Context, req CreateCodeDTO) (*model.AnalyticalCode, error) {
	activityID, err := uuid.Parse(req.ActivityID)
	if err != nil {
		return nil, fmt.Errorf("invalid activity_id: %w", err)
	}
	code := model.AnalyticalCode{ActivityID: activityID, Code: req.Code, Label: req.Label}
	if err := s.repo.CreateCode(ctx, &code); err != nil {
		return nil, fmt.Errorf("failed to create code: %w", err)
	}
	return &code, nil
}

func parseOptionalID(raw, field string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", field, err)
	}
	return &id, nil
}
