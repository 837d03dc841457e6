package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Quote is a supplier proposal attached to a request. Quotes are created and
// deleted while the request is still pending/rejected and no quote has been
// selected; a selected quote becomes read-only.
type Quote struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	RequestID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"request_id"`
	SupplierName string          `gorm:"type:varchar(255);not null" json:"supplier_name"`
	Amount       decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	FilePath     string          `gorm:"type:varchar(500)" json:"file_path"` // Uploaded proposal document
	FileURL      string          `gorm:"-" json:"file_url,omitempty"`        // Resolved by the file store
	UploadedBy   *uuid.UUID      `gorm:"type:uuid" json:"uploaded_by"`
	Items        []QuoteItem     `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// QuoteItem is one line of a supplier proposal.
type QuoteItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	QuoteID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"quote_id"`
	Description string          `gorm:"type:varchar(500);not null" json:"description"`
	Quantity    int             `gorm:"not null;default:1" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"unit_price"`
}

// Attachment is any supporting document uploaded on a request.
type Attachment struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	RequestID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"request_id"`
	FileName   string     `gorm:"type:varchar(255);not null" json:"file_name"`
	FilePath   string     `gorm:"type:varchar(500);not null" json:"file_path"`
	FileURL    string     `gorm:"-" json:"file_url,omitempty"`
	UploadedBy *uuid.UUID `gorm:"type:uuid" json:"uploaded_by"`
	CreatedAt  time.Time  `json:"created_at"`
}
