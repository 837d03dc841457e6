package service

import (
	"context"
	"testing"

	"backend/internal/repository"
)

func TestAnalyticalCascade(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewAnalyticalService(repository.NewAnalyticalRepository(db))
	ctx := context.Background()

	catalog, err := svc.CreateCatalog(ctx, CreateCatalogDTO{Name: "Informatique"})
	if err != nil {
		t.Fatalf("create catalog: %v", err)
	}
	project, err := svc.CreateProject(ctx, CreateProjectDTO{CatalogID: catalog.ID.String(), Name: "Refonte SI"})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	activity, err := svc.CreateActivity(ctx, CreateActivityDTO{ProjectID: project.ID.String(), Name: "Matériel"})
	if err != nil {
		t.Fatalf("create activity: %v", err)
	}
	code, err := svc.CreateCode(ctx, CreateCodeDTO{ActivityID: activity.ID.String(), Code: "INF-042", Label: "Postes de travail"})
	if err != nil {
		t.Fatalf("create code: %v", err)
	}

	t.Run("level listings filter by parent", func(t *testing.T) {
		projects, err := svc.Projects(ctx, catalog.ID.String())
		if err != nil {
			t.Fatalf("list projects: %v", err)
		}
		if len(projects) != 1 || projects[0].ID != project.ID {
			t.Fatalf("projects under catalog = %v", projects)
		}

		// An unrelated catalog id yields an empty slice, not an error.
		other, err := svc.CreateCatalog(ctx, CreateCatalogDTO{Name: "Travaux"})
		if err != nil {
			t.Fatalf("create second catalog: %v", err)
		}
		projects, err = svc.Projects(ctx, other.ID.String())
		if err != nil {
			t.Fatalf("list projects (empty catalog): %v", err)
		}
		if len(projects) != 0 {
			t.Fatalf("unrelated catalog should have no projects, got %d", len(projects))
		}
	})

	t.Run("resolve chain walks back to the catalog", func(t *testing.T) {
		chain, err := svc.ResolveChain(ctx, code.ID.String())
		if err != nil {
			t.Fatalf("resolve chain: %v", err)
		}
		if chain.CatalogID != catalog.ID.String() ||
			chain.ProjectID != project.ID.String() ||
			chain.ActivityID != activity.ID.String() ||
			chain.CodeID != code.ID.String() {
			t.Fatalf("chain ids do not match ancestry: %+v", chain)
		}
		if chain.Code != "INF-042" || chain.Label != "Postes de travail" {
			t.Fatalf("chain display fields: %+v", chain)
		}
	})

	t.Run("invalid ids are rejected", func(t *testing.T) {
		if _, err := svc.ResolveChain(ctx, "not-a-uuid"); err == nil {
			t.Error("malformed code id should be refused")
		}
		if _, err := svc.Projects(ctx, "nope"); err == nil {
			t.Error("malformed catalog filter should be refused")
		}
	})
}
