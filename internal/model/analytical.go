package model

import (
	"time"

	"github.com/google/uuid"
)

// The analytical hierarchy classifies spend across four dependent levels:
// Catalog -> Project -> Activity -> Code. Each level's option set depends on
// the parent selection.

type AnalyticalCatalog struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type AnalyticalProject struct {
	ID        uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	CatalogID uuid.UUID          `gorm:"type:uuid;not null;index" json:"catalog_id"`
	Catalog   *AnalyticalCatalog `gorm:"foreignKey:CatalogID" json:"catalog,omitempty"`
	Name      string             `gorm:"type:varchar(255);not null" json:"name"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

type AnalyticalActivity struct {
	ID        uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID          `gorm:"type:uuid;not null;index" json:"project_id"`
	Project   *AnalyticalProject `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Name      string             `gorm:"type:varchar(255);not null" json:"name"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// AnalyticalCode is the terminal budget code a request is charged to. The
// embedded parent references let the cascade selector rebuild the full
// ancestor chain from the code alone.
type AnalyticalCode struct {
	ID         uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	ActivityID uuid.UUID           `gorm:"type:uuid;not null;index" json:"activity_id"`
	Activity   *AnalyticalActivity `gorm:"foreignKey:ActivityID" json:"activity,omitempty"`
	Code       string              `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Label      string              `gorm:"type:varchar(255);not null" json:"label"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}
