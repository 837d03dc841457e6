package model

import (
	"time"

	"backend/internal/workflow"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseRequest is the central entity of the procurement flow. It is never
// hard-deleted; a finished request persists as an audit trail.
type PurchaseRequest struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title    string    `gorm:"type:varchar(255);not null" json:"title"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"` // Requester, immutable after creation
	User     *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	EntityID *uuid.UUID `gorm:"type:uuid;index" json:"entity_id"` // Requester's entity at creation time
	Entity   *Entity    `gorm:"foreignKey:EntityID" json:"entity,omitempty"`

	Status workflow.Status `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	Stage  workflow.Stage  `gorm:"type:varchar(20);not null;default:'NEED';index" json:"stage"`

	TotalEstimatedAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total_estimated_amount"`

	QuotesPublished bool       `gorm:"not null;default:false" json:"quotes_published"`
	SelectedQuoteID *uuid.UUID `gorm:"type:uuid" json:"selected_quote_id"` // One-shot: immutable once set
	SelectedQuote   *Quote     `gorm:"foreignKey:SelectedQuoteID" json:"selected_quote,omitempty"`

	PONumber string `gorm:"type:varchar(30);index" json:"po_number"` // Assigned at finalize
	POPath   string `gorm:"type:varchar(500)" json:"po_path"`        // Rendered purchase-order document
	POURL    string `gorm:"-" json:"po_url,omitempty"`

	InvoiceNumber     string     `gorm:"type:varchar(100)" json:"invoice_number"`
	InvoiceFilePath   string     `gorm:"type:varchar(500)" json:"invoice_file_path"`
	InvoiceFileURL    string     `gorm:"-" json:"invoice_file_url,omitempty"`
	InvoiceReceivedAt *time.Time `json:"invoice_received_at"`
	PaymentDueAt      *time.Time `json:"payment_due_at"`
	PaidAt            *time.Time `json:"paid_at"`

	AnalyticalCodeID *uuid.UUID      `gorm:"type:uuid;index" json:"analytical_code_id"` // Budget classification
	AnalyticalCode   *AnalyticalCode `gorm:"foreignKey:AnalyticalCodeID" json:"analytical_code,omitempty"`

	Items       []RequestItem     `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Quotes      []Quote           `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE" json:"quotes,omitempty"`
	Approvals   []RequestApproval `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE" json:"approvals,omitempty"`
	Attachments []Attachment      `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE" json:"attachments,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot projects the request into the view the workflow guard matrix
// evaluates. Approvals must be loaded for the duplicate-approver rule.
func (r *PurchaseRequest) Snapshot() workflow.Snapshot {
	snap := workflow.Snapshot{
		OwnerID:         r.UserID,
		Stage:           r.Stage,
		Status:          r.Status,
		QuotesPublished: r.QuotesPublished,
		QuoteCount:      len(r.Quotes),
		SelectedQuoteID: r.SelectedQuoteID,
	}
	for _, a := range r.Approvals {
		if a.ApproverID != nil {
			snap.DecidedBy = append(snap.DecidedBy, *a.ApproverID)
		}
	}
	return snap
}

// RequestItem is one line of the expressed need. Items are mutable only while
// stage=NEED and status=PENDING.
type RequestItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	RequestID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"request_id"`
	Description string          `gorm:"type:varchar(500);not null" json:"description"`
	Quantity    int             `gorm:"not null;default:1" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"unit_price"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Total returns quantity x unit price for the line.
func (i RequestItem) Total() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
