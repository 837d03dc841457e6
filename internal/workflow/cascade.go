package workflow

import (
	"errors"

	"github.com/google/uuid"
)

// CascadeLevel identifies one level of the analytical code hierarchy.
type CascadeLevel int

const (
	LevelCatalog CascadeLevel = iota
	LevelProject
	LevelActivity
	LevelCode

	cascadeLevels = 4
)

// ErrParentNotSelected is returned when a level is set while one of its
// ancestors is still empty.
var ErrParentNotSelected = errors.New("parent level is not selected")

// CascadeSelection tracks the four dependent selections of the analytical
// code picker (catalog -> project -> activity -> code). A non-empty selection
// at a level implies non-empty selections at every level above it; changing
// any level clears everything below it.
type CascadeSelection struct {
	levels [cascadeLevels]*uuid.UUID
}

// NewCascadeSelection returns an empty selection.
func NewCascadeSelection() *CascadeSelection {
	return &CascadeSelection{}
}

// CascadeFromChain pre-populates all four levels from a resolved ancestor
// chain, as when reopening a request that already carries a terminal code.
func CascadeFromChain(catalogID, projectID, activityID, codeID uuid.UUID) *CascadeSelection {
	s := &CascadeSelection{}
	s.levels[LevelCatalog] = &catalogID
	s.levels[LevelProject] = &projectID
	s.levels[LevelActivity] = &activityID
	s.levels[LevelCode] = &codeID
	return s
}

// Get returns the selected id at the level, or nil.
func (s *CascadeSelection) Get(level CascadeLevel) *uuid.UUID {
	if level < 0 || level >= cascadeLevels {
		return nil
	}
	return s.levels[level]
}

// Terminal returns the selected terminal code id, or nil when the selection
// is incomplete.
func (s *CascadeSelection) Terminal() *uuid.UUID {
	return s.levels[LevelCode]
}

// Set changes the selection at the level and clears every level below it.
// Passing nil clears the level itself as well. It returns the terminal code
// id after the change (always nil unless level is LevelCode), so the caller
// learns immediately that the terminal selection was invalidated.
func (s *CascadeSelection) Set(level CascadeLevel, id *uuid.UUID) (*uuid.UUID, error) {
	if level < 0 || level >= cascadeLevels {
		return s.Terminal(), errors.New("unknown cascade level")
	}
	if id != nil && level > LevelCatalog && s.levels[level-1] == nil {
		return s.Terminal(), ErrParentNotSelected
	}
	s.levels[level] = id
	for l := level + 1; l < cascadeLevels; l++ {
		s.levels[l] = nil
	}
	return s.Terminal(), nil
}
