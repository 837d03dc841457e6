package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateRequest        = "CREATE_REQUEST"
	ActionUpdateItems          = "UPDATE_ITEMS"
	ActionCreateQuote          = "CREATE_QUOTE"
	ActionDeleteQuote          = "DELETE_QUOTE"
	ActionPublishQuotes        = "PUBLISH_QUOTES"
	ActionSelectQuote          = "SELECT_QUOTE"
	ActionFinalizeRequest      = "FINALIZE_REQUEST"
	ActionProcessRequest       = "PROCESS_REQUEST"
	ActionApproveRequest       = "APPROVE_REQUEST"
	ActionRejectRequest        = "REJECT_REQUEST"
	ActionUploadInvoice        = "UPLOAD_INVOICE"
	ActionConfirmPayment       = "CONFIRM_PAYMENT"
	ActionUpdateAnalyticalCode = "UPDATE_ANALYTICAL_CODE"
)

// AuditLog tracks Who, What, and When for every workflow transition. The log
// is append-only; rows are never updated or deleted.
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated job
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/code)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

// Notification is an in-app message for a single user, produced by workflow
// transitions and the payment reminder job.
type Notification struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	RequestID *uuid.UUID `gorm:"type:uuid;index" json:"request_id"`
	Type      string     `gorm:"type:varchar(50);not null" json:"type"`
	Message   string     `gorm:"type:varchar(500);not null" json:"message"`
	Read      bool       `gorm:"not null;default:false;index" json:"read"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
}
