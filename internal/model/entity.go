package model

import (
	"time"

	"backend/internal/workflow"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Entity is an organizational unit (department, subsidiary) requests are
// raised under.
type Entity struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Code      string    `gorm:"type:varchar(30);uniqueIndex;not null" json:"code"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ApprovalGroup is one validation tier. The server routes a finalized request
// to every group whose amount band contains the request total and whose scope
// matches the requester's entity.
type ApprovalGroup struct {
	ID        uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string              `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	MinAmount decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0" json:"min_amount"`
	MaxAmount decimal.Decimal     `gorm:"type:decimal(18,2);not null" json:"max_amount"`
	Level     int                 `gorm:"not null;default:1" json:"level"` // Ordering of tiers, lowest validates first
	Scope     workflow.GroupScope `gorm:"type:varchar(10);not null;default:'GLOBAL'" json:"scope"`
	EntityID  *uuid.UUID          `gorm:"type:uuid;index" json:"entity_id"` // Required when scope = ENTITY
	Entity    *Entity             `gorm:"foreignKey:EntityID" json:"entity,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}
