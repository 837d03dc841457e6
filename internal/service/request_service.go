package service

import (
	"context"
	"errors"
	"fmt"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/workflow"
	"backend/pkg/filestore"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type RequestItemDTO struct {
	Description string `json:"description" binding:"required"`
	Quantity    int    `json:"quantity" binding:"required,min=1"`
	UnitPrice   string `json:"unit_price" binding:"required"`
}

type CreateRequestDTO struct {
	Title            string           `json:"title" binding:"required"`
	Items            []RequestItemDTO `json:"items" binding:"required,min=1,dive"`
	AnalyticalCodeID string           `json:"analytical_code_id"`
}

type UpdateItemsDTO struct {
	Items []RequestItemDTO `json:"items" binding:"required,min=1,dive"`
}

type UpdateAnalyticalCodeDTO struct {
	AnalyticalCodeID *string `json:"analytical_code_id"`
}

type RequestListFilter struct {
	Status string
	Stage  string
	Mine   bool
	Page   int
	Limit  int
}

// RequestSummary is the list projection of a purchase request.
type RequestSummary struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Requester    string  `json:"requester"`
	Entity       string  `json:"entity,omitempty"`
	Status       string  `json:"status"`
	StatusLabel  string  `json:"status_label"`
	Stage        string  `json:"stage"`
	StageLabel   string  `json:"stage_label"`
	Total        string  `json:"total_estimated_amount"`
	TotalDisplay string  `json:"total_display"`
	PONumber     string  `json:"po_number,omitempty"`
	CreatedAt    string  `json:"created_at"`
}

// RequestDetail decorates the full entity with display labels and the
// actions the calling user may perform right now.
type RequestDetail struct {
	*model.PurchaseRequest
	StatusLabel    string            `json:"status_label"`
	StageLabel     string            `json:"stage_label"`
	TotalDisplay   string            `json:"total_display"`
	AllowedActions []workflow.Action `json:"allowed_actions"`
}

// --- Interface ---

type RequestService interface {
	Create(ctx context.Context, actor workflow.Actor, req CreateRequestDTO) (*RequestDetail, error)
	Get(ctx context.Context, actor workflow.Actor, id string) (*RequestDetail, error)
	List(ctx context.Context, actor workflow.Actor, filter RequestListFilter) ([]RequestSummary, int64, error)
	UpdateItems(ctx context.Context, actor workflow.Actor, id string, req UpdateItemsDTO) (*RequestDetail, error)
	UpdateAnalyticalCode(ctx context.Context, actor workflow.Actor, id string, req UpdateAnalyticalCodeDTO) (*RequestDetail, error)
}

type requestService struct {
	db    *gorm.DB
	repo  repository.RequestRepository
	txm   repository.TransactionManager
	store *filestore.Store
}

func NewRequestService(db *gorm.DB, repo repository.RequestRepository, txm repository.TransactionManager, store *filestore.Store) RequestService {
	return &requestService{db: db, repo: repo, txm: txm, store: store}
}

// --- Implementation ---

func (s *requestService) Create(ctx context.Context, actor workflow.Actor, req CreateRequestDTO) (*RequestDetail, error) {
	if actor.Role == workflow.RoleAdmin {
		return nil, errors.New("administrators do not raise purchase requests")
	}

	items, total, err := parseItems(req.Items)
	if err != nil {
		return nil, err
	}

	var requester model.User
	if err := s.db.WithContext(ctx).First(&requester, "id = ?", actor.ID).Error; err != nil {
		return nil, fmt.Errorf("requester not found: %w", err)
	}

	request := model.PurchaseRequest{
		Title:                req.Title,
		UserID:               actor.ID,
		EntityID:             requester.EntityID,
		Status:               workflow.StatusPending,
		Stage:                workflow.StageNeed,
		TotalEstimatedAmount: total,
		Items:                items,
	}

	if req.AnalyticalCodeID != "" {
		codeID, err := uuid.Parse(req.AnalyticalCodeID)
		if err != nil {
			return nil, fmt.Errorf("invalid analytical_code_id: %w", err)
		}
		request.AnalyticalCodeID = &codeID
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, &request); err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		return writeAudit(repository.GetDB(txCtx, s.db), &actor.ID, model.ActionCreateRequest,
			request.ID.String(), request.Title, map[string]interface{}{
				"total": total.StringFixed(2),
				"items": len(items),
			})
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, actor, request.ID.String())
}

func (s *requestService) Get(ctx context.Context, actor workflow.Actor, id string) (*RequestDetail, error) {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid request id: %w", err)
	}

	request, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("request not found: %w", err)
	}

	return s.decorate(request, actor), nil
}

func (s *requestService) List(ctx context.Context, actor workflow.Actor, filter RequestListFilter) ([]RequestSummary, int64, error) {
	repoFilter := repository.RequestFilter{
		Status: filter.Status,
		Stage:  filter.Stage,
		Page:   filter.Page,
		Limit:  filter.Limit,
	}
	if filter.Mine {
		repoFilter.UserID = &actor.ID
	}

	requests, total, err := s.repo.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list requests: %w", err)
	}

	summaries := make([]RequestSummary, 0, len(requests))
	for _, r := range requests {
		summary := RequestSummary{
			ID:           r.ID.String(),
			Title:        r.Title,
			Status:       string(r.Status),
			StatusLabel:  r.Status.Label(),
			Stage:        string(r.Stage),
			StageLabel:   r.Stage.Label(),
			Total:        r.TotalEstimatedAmount.StringFixed(2),
			TotalDisplay: workflow.FormatEUR(r.TotalEstimatedAmount),
			PONumber:     r.PONumber,
			CreatedAt:    r.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
		if r.User != nil {
			summary.Requester = r.User.Username
		}
		if r.Entity != nil {
			summary.Entity = r.Entity.Name
		}
		summaries = append(summaries, summary)
	}

	return summaries, total, nil
}

func (s *requestService) UpdateItems(ctx context.Context, actor workflow.Actor, id string, req UpdateItemsDTO) (*RequestDetail, error) {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid request id: %w", err)
	}

	items, total, err := parseItems(req.Items)
	if err != nil {
		return nil, err
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		request, err := s.repo.FindByIDForUpdate(txCtx, requestID)
		if err != nil {
			return fmt.Errorf("request not found: %w", err)
		}

		if err := request.Snapshot().Authorize(actor, workflow.ActionEditItems); err != nil {
			return err
		}

		if err := s.repo.ReplaceItems(txCtx, requestID, items); err != nil {
			return fmt.Errorf("failed to replace items: %w", err)
		}

		request.TotalEstimatedAmount = total
		if err := s.repo.Save(txCtx, request); err != nil {
			return fmt.Errorf("failed to update request total: %w", err)
		}

		return writeAudit(repository.GetDB(txCtx, s.db), &actor.ID, model.ActionUpdateItems,
			request.ID.String(), request.Title, map[string]interface{}{
				"total": total.StringFixed(2),
				"items": len(items),
			})
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, actor, id)
}

func (s *requestService) UpdateAnalyticalCode(ctx context.Context, actor workflow.Actor, id string, req UpdateAnalyticalCodeDTO) (*RequestDetail, error) {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid request id: %w", err)
	}

	var codeID *uuid.UUID
	if req.AnalyticalCodeID != nil && *req.AnalyticalCodeID != "" {
		parsed, err := uuid.Parse(*req.AnalyticalCodeID)
		if err != nil {
			return nil, fmt.Errorf("invalid analytical_code_id: %w", err)
		}
		codeID = &parsed
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		request, err := s.repo.FindByIDForUpdate(txCtx, requestID)
		if err != nil {
			return fmt.Errorf("request not found: %w", err)
		}

		if err := request.Snapshot().Authorize(actor, workflow.ActionEditAnalyticalCode); err != nil {
			return err
		}

		if codeID != nil {
			var code model.AnalyticalCode
			if err := repository.GetDB(txCtx, s.db).First(&code, "id = ?", *codeID).Error; err != nil {
				return fmt.Errorf("analytical code not found: %w", err)
			}
		}

		request.AnalyticalCodeID = codeID
		if err := s.repo.Save(txCtx, request); err != nil {
			return fmt.Errorf("failed to update analytical code: %w", err)
		}

		details := map[string]interface{}{"analytical_code_id": nil}
		if codeID != nil {
			details["analytical_code_id"] = codeID.String()
		}
		return writeAudit(repository.GetDB(txCtx, s.db), &actor.ID, model.ActionUpdateAnalyticalCode,
			request.ID.String(), request.Title, details)
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, actor, id)
}

// --- Helpers ---

func parseItems(dtos []RequestItemDTO) ([]model.RequestItem, decimal.Decimal, error) {
	items := make([]model.RequestItem, 0, len(dtos))
	total := decimal.Zero
	for _, dto := range dtos {
		price, err := decimal.NewFromString(dto.UnitPrice)
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("invalid unit_price %q: %w", dto.UnitPrice, err)
		}
		if price.IsNegative() {
			return nil, decimal.Zero, fmt.Errorf("unit_price %q must not be negative", dto.UnitPrice)
		}
		item := model.RequestItem{
			Description: dto.Description,
			Quantity:    dto.Quantity,
			UnitPrice:   price,
		}
		items = append(items, item)
		total = total.Add(item.Total())
	}
	return items, total, nil
}

// decorate resolves file URLs and computes labels plus the caller's
// permitted actions on the loaded request.
func (s *requestService) decorate(request *model.PurchaseRequest, actor workflow.Actor) *RequestDetail {
	if s.store != nil {
		request.InvoiceFileURL = s.store.URL(request.InvoiceFilePath)
		request.POURL = s.store.URL(request.POPath)
		for i := range request.Quotes {
			request.Quotes[i].FileURL = s.store.URL(request.Quotes[i].FilePath)
		}
		for i := range request.Attachments {
			request.Attachments[i].FileURL = s.store.URL(request.Attachments[i].FilePath)
		}
	}

	return &RequestDetail{
		PurchaseRequest: request,
		StatusLabel:     request.Status.Label(),
		StageLabel:      request.Stage.Label(),
		TotalDisplay:    workflow.FormatEUR(request.TotalEstimatedAmount),
		AllowedActions:  request.Snapshot().PermittedActions(actor),
	}
}
