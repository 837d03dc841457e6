package model

import (
	"time"

	"backend/internal/workflow"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a procurement actor: requester, approver, buyer or
// accountant depending on the role.
type User struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Username        string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	Email           string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password        string         `gorm:"type:varchar(255);not null" json:"-"` // Omit password from JSON requests/responses
	Role            workflow.Role  `gorm:"type:varchar(20);not null;index" json:"role"`
	EntityID        *uuid.UUID     `gorm:"type:uuid;index" json:"entity_id"` // Department / organizational unit
	Entity          *Entity        `gorm:"foreignKey:EntityID" json:"entity,omitempty"`
	ApprovalGroupID *uuid.UUID     `gorm:"type:uuid;index" json:"approval_group_id"` // Validation tier this user approves for
	ApprovalGroup   *ApprovalGroup `gorm:"foreignKey:ApprovalGroupID" json:"approval_group,omitempty"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"` // GORM soft delete
}

// RefreshToken stores long-lived tokens allowing users to request new access tokens
type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Token     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
