package workflow

import (
	"testing"

	"github.com/google/uuid"
)

func TestCascade_ResetLaw(t *testing.T) {
	catalog, project, activity, code := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	sel := CascadeFromChain(catalog, project, activity, code)

	if sel.Terminal() == nil || *sel.Terminal() != code {
		t.Fatal("chain should pre-select the terminal code")
	}

	// Changing the project must clear activity and code and report a nil
	// terminal selection.
	newProject := uuid.New()
	terminal, err := sel.Set(LevelProject, &newProject)
	if err != nil {
		t.Fatalf("set project: %v", err)
	}
	if terminal != nil {
		t.Error("terminal selection must be nil after an ancestor change")
	}
	if sel.Get(LevelActivity) != nil || sel.Get(LevelCode) != nil {
		t.Error("descendant levels must be cleared")
	}
	if sel.Get(LevelCatalog) == nil || *sel.Get(LevelCatalog) != catalog {
		t.Error("ancestor levels must be untouched")
	}
}

func TestCascade_ClearCascades(t *testing.T) {
	sel := CascadeFromChain(uuid.New(), uuid.New(), uuid.New(), uuid.New())

	if _, err := sel.Set(LevelCatalog, nil); err != nil {
		t.Fatalf("clear catalog: %v", err)
	}
	for _, level := range []CascadeLevel{LevelCatalog, LevelProject, LevelActivity, LevelCode} {
		if sel.Get(level) != nil {
			t.Errorf("level %d should be empty after clearing the catalog", level)
		}
	}
}

func TestCascade_ParentRequired(t *testing.T) {
	sel := NewCascadeSelection()

	id := uuid.New()
	if _, err := sel.Set(LevelActivity, &id); err != ErrParentNotSelected {
		t.Errorf("expected ErrParentNotSelected, got %v", err)
	}

	catalog := uuid.New()
	if _, err := sel.Set(LevelCatalog, &catalog); err != nil {
		t.Fatalf("set catalog: %v", err)
	}
	project := uuid.New()
	if _, err := sel.Set(LevelProject, &project); err != nil {
		t.Fatalf("set project: %v", err)
	}
	if _, err := sel.Set(LevelActivity, &id); err != nil {
		t.Errorf("activity should be settable under a selected project: %v", err)
	}
}

func TestCascade_FromChainScenario(t *testing.T) {
	// A request reopened with an existing terminal code pre-selects all four
	// levels without any manual interaction.
	catalog := uuid.New()
	project := uuid.New()
	activity := uuid.New()
	code := uuid.New()

	sel := CascadeFromChain(catalog, project, activity, code)

	want := map[CascadeLevel]uuid.UUID{
		LevelCatalog:  catalog,
		LevelProject:  project,
		LevelActivity: activity,
		LevelCode:     code,
	}
	for level, id := range want {
		got := sel.Get(level)
		if got == nil || *got != id {
			t.Errorf("level %d not pre-selected", level)
		}
	}
}
