package model

import (
	"time"

	"backend/internal/workflow"

	"github.com/google/uuid"
)

// RequestApproval is one required validation on a finalized request, one row
// per approval group routed by amount band and entity scope. Rows are created
// once by the server when the request enters validation; clients only read
// them.
type RequestApproval struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	RequestID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"request_id"`
	ApprovalGroupID uuid.UUID       `gorm:"type:uuid;not null;index" json:"approval_group_id"`
	ApprovalGroup   *ApprovalGroup  `gorm:"foreignKey:ApprovalGroupID" json:"approval_group,omitempty"`
	Status          workflow.Status `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	ApproverID      *uuid.UUID      `gorm:"type:uuid" json:"approver_id"`
	Approver        *User           `gorm:"foreignKey:ApproverID" json:"approver,omitempty"`
	Reason          string          `gorm:"type:text" json:"reason"` // Mandatory on rejection
	DecidedAt       *time.Time      `json:"decided_at"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
