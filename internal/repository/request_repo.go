package repository

import (
	"context"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RequestFilter narrows the purchase-request listing.
type RequestFilter struct {
	Status string
	Stage  string
	UserID *uuid.UUID // Restrict to a requester ("my requests")
	Page   int
	Limit  int
}

// RequestRepository defines data access for purchase requests and their
// dependent rows.
type RequestRepository interface {
	Create(ctx context.Context, req *model.PurchaseRequest) error
	// FindByID loads the request with every nested association the detail
	// view and the guard matrix need.
	FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseRequest, error)
	// FindByIDForUpdate locks the request row for the enclosing transaction.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.PurchaseRequest, error)
	List(ctx context.Context, filter RequestFilter) ([]model.PurchaseRequest, int64, error)
	Save(ctx context.Context, req *model.PurchaseRequest) error
	ReplaceItems(ctx context.Context, requestID uuid.UUID, items []model.RequestItem) error
	FindQuote(ctx context.Context, id uuid.UUID) (*model.Quote, error)
	DeleteQuote(ctx context.Context, id uuid.UUID) error
	ListDuePayments(ctx context.Context) ([]model.PurchaseRequest, error)
}

type requestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, req *model.PurchaseRequest) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *requestRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseRequest, error) {
	var req model.PurchaseRequest
	err := GetDB(ctx, r.db).
		Preload("User").
		Preload("Entity").
		Preload("Items").
		Preload("Quotes.Items").
		Preload("SelectedQuote").
		Preload("Approvals.ApprovalGroup").
		Preload("Approvals.Approver").
		Preload("Attachments").
		Preload("AnalyticalCode.Activity.Project.Catalog").
		First(&req, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.PurchaseRequest, error) {
	var req model.PurchaseRequest
	db := GetDB(ctx, r.db)
	if db.Dialector.Name() == "postgres" {
		// sqlite has no row locks; its transactions serialize writers anyway.
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := db.First(&req, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	// Associations are loaded outside the locking clause; gorm would try to
	// lock the joined rows otherwise.
	err = GetDB(ctx, r.db).
		Preload("Quotes").
		Preload("Approvals").
		First(&req, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) List(ctx context.Context, filter RequestFilter) ([]model.PurchaseRequest, int64, error) {
	db := GetDB(ctx, r.db)

	query := db.Model(&model.PurchaseRequest{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Stage != "" {
		query = query.Where("stage = ?", filter.Stage)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	var requests []model.PurchaseRequest
	err := query.
		Preload("User").
		Preload("Entity").
		Order("created_at DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&requests).Error
	if err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

func (r *requestRepository) Save(ctx context.Context, req *model.PurchaseRequest) error {
	return GetDB(ctx, r.db).Save(req).Error
}

// ReplaceItems swaps the full item set of a request.
func (r *requestRepository) ReplaceItems(ctx context.Context, requestID uuid.UUID, items []model.RequestItem) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("request_id = ?", requestID).Delete(&model.RequestItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].RequestID = requestID
	}
	return db.Create(&items).Error
}

func (r *requestRepository) FindQuote(ctx context.Context, id uuid.UUID) (*model.Quote, error) {
	var quote model.Quote
	if err := GetDB(ctx, r.db).Preload("Items").First(&quote, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &quote, nil
}

func (r *requestRepository) DeleteQuote(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Quote{}).Error
}

// ListDuePayments returns requests awaiting payment whose due date has
// passed, for the daily reminder scan.
func (r *requestRepository) ListDuePayments(ctx context.Context) ([]model.PurchaseRequest, error) {
	var requests []model.PurchaseRequest
	err := GetDB(ctx, r.db).
		Where("stage = ? AND payment_due_at IS NOT NULL AND payment_due_at < ?", "PENDING_PAYMENT", time.Now()).
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}
