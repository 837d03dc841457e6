package service

import (
	"context"
	"fmt"
	"mime/multipart"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/workflow"
	"backend/pkg/filestore"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type QuoteItemDTO struct {
	Description string `json:"description" binding:"required"`
	Quantity    int    `json:"quantity" binding:"required,min=1"`
	UnitPrice   string `json:"unit_price" binding:"required"`
}

// CreateQuoteDTO arrives as multipart form fields next to the optional
// proposal document.
type CreateQuoteDTO struct {
	SupplierName string `form:"supplier_name" binding:"required"`
	Amount       string `form:"amount" binding:"required"`
	Items        []QuoteItemDTO
}

type QuoteService interface {
	Create(ctx context.Context, actor workflow.Actor, requestID string, req CreateQuoteDTO, file *multipart.FileHeader) (*model.Quote, error)
	Delete(ctx context.Context, actor workflow.Actor, quoteID string) error
	Publish(ctx context.Context, actor workflow.Actor, requestID string) error
	Select(ctx context.Context, actor workflow.Actor, requestID, quoteID string) error
}

type quoteService struct {
	db            *gorm.DB
	repo          repository.RequestRepository
	txm           repository.TransactionManager
	store         *filestore.Store
	notifications NotificationService
}

func NewQuoteService(db *gorm.DB, repo repository.RequestRepository, txm repository.TransactionManager, store *filestore.Store, notifications NotificationService) QuoteService {
	return &quoteService{db: db, repo: repo, txm: txm, store: store, notifications: notifications}
}

// Create attaches a supplier quote to a request. The first quote moves the
// request from the need stage into sourcing.
func (s *quoteService) Create(ctx context.Context, actor workflow.Actor, requestID string, req CreateQuoteDTO, file *multipart.FileHeader) (*model.Quote, error) {
	reqID, err := uuid.Parse(requestID)
	if err != nil {
		return nil, fmt.Errorf("invalid request id: %w", err)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", req.Amount, err)
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("amount %q must not be negative", req.Amount)
	}

	items := make([]model.QuoteItem, 0, len(req.Items))
	for _, dto := range req.Items {
		price, err := decimal.NewFromString(dto.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("invalid unit_price %q: %w", dto.UnitPrice, err)
		}
		items = append(items, model.QuoteItem{
			Description: dto.Description,
			Quantity:    dto.Quantity,
			UnitPrice:   price,
		})
	}

	var filePath string
	if file != nil {
		filePath, err = s.store.Save(file, "quotes")
		if err != nil {
			return nil, fmt.Errorf("failed to store quote document: %w", err)
		}
	}

	quote := model.Quote{
		RequestID:    reqID,
		SupplierName: req.SupplierName,
		Amount:       amount,
		FilePath:     filePath,
		UploadedBy:   &actor.ID,
		Items:        items,
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		request, err := s.repo.FindByIDForUpdate(txCtx, reqID)
		if err != nil {
			return fmt.Errorf("request not found: %w", err)
		}

		if err := request.Snapshot().Authorize(actor, workflow.ActionCreateQuote); err != nil {
			return err
		}

		tx := repository.GetDB(txCtx, s.db)
		if err := tx.Create(&quote).Error; err != nil {
			return fmt.Errorf("failed to create quote: %w", err)
		}

		// First quote opens the sourcing stage.
		if request.Stage == workflow.StageNeed {
			request.Stage = workflow.StageSourcing
			if err := s.repo.Save(txCtx, request); err != nil {
				return fmt.Errorf("failed to advance stage: %w", err)
			}
		}

		return writeAudit(tx, &actor.ID, model.ActionCreateQuote,
			request.ID.String(), request.Title, map[string]interface{}{
				"supplier": req.SupplierName,
				"amount":   amount.StringFixed(2),
			})
	})
	if err != nil {
		return nil, err
	}

	quote.FileURL = s.store.URL(quote.FilePath)
	return &quote, nil
}

func (s *quoteService) Delete(ctx context.Context, actor workflow.Actor, quoteID string) error {
	qID, err := uuid.Parse(quoteID)
	if err != nil {
		return fmt.Errorf("invalid quote id: %w", err)
	}

	var filePath string
	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		quote, err := s.repo.FindQuote(txCtx, qID)
		if err != nil {
			return fmt.Errorf("quote not found: %w", err)
		}

		request, err := s.repo.FindByIDForUpdate(txCtx, quote.RequestID)
		if err != nil {
			return fmt.Errorf("request not found: %w", err)
		}

		if err := request.Snapshot().Authorize(actor, workflow.ActionDeleteQuote); err != nil {
			return err
		}

		if err := s.repo.DeleteQuote(txCtx, qID); err != nil {
			return fmt.Errorf("failed to delete quote: %w", err)
		}
		filePath = quote.FilePath

		return writeAudit(repository.GetDB(txCtx, s.db), &actor.ID, model.ActionDeleteQuote,
			request.ID.String(), request.Title, map[string]interface{}{
				"quote_id": qID.String(),
				"supplier": quote.SupplierName,
			})
	})
	if err != nil {
		return err
	}

	// Best effort; the row is already gone.
	_ = s.store.Remove(filePath)
	return nil
}

// Publish freezes the quote set and makes it visible to the requester.
func (s *quoteService) Publish(ctx context.Context, actor workflow.Actor, requestID string) error {
	reqID, err := uuid.Parse(requestID)
	if err != nil {
		return fmt.Errorf("invalid request id: %w", err)
	}

	var ownerID uuid.UUID
	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		request, err := s.repo.FindByIDForUpdate(txCtx, reqID)
		if err != nil {
			return fmt.Errorf("request not found: %w", err)
		}

		if err := request.Snapshot().Authorize(actor, workflow.ActionPublishQuotes); err != nil {
			return err
		}

		request.QuotesPublished = true
		if err := s.repo.Save(txCtx, request); err != nil {
			return fmt.Errorf("failed to publish quotes: %w", err)
		}
		ownerID = request.UserID

		return writeAudit(repository.GetDB(txCtx, s.db), &actor.ID, model.ActionPublishQuotes,
			request.ID.String(), request.Title, map[string]interface{}{
				"quotes": len(request.Quotes),
			})
	})
	if err != nil {
		return err
	}

	s.notifications.Notify(ctx, ownerID, &reqID, "QUOTES_PUBLISHED",
		"Les devis de votre demande sont disponibles pour sélection.")
	return nil
}

// Select records the requester's choice. The selection is final and snaps the
// request total to the chosen quote's amount.
func (s *quoteService) Select(ctx context.Context, actor workflow.Actor, requestID, quoteID string) error {
	reqID, err := uuid.Parse(requestID)
	if err != nil {
		return fmt.Errorf("invalid request id: %w", err)
	}
	qID, err := uuid.Parse(quoteID)
	if err != nil {
		return fmt.Errorf("invalid quote id: %w", err)
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		request, err := s.repo.FindByIDForUpdate(txCtx, reqID)
		if err != nil {
			return fmt.Errorf("request not found: %w", err)
		}

		if err := request.Snapshot().Authorize(actor, workflow.ActionSelectQuote); err != nil {
			return err
		}

		quote, err := s.repo.FindQuote(txCtx, qID)
		if err != nil {
			return fmt.Errorf("quote not found: %w", err)
		}
		if quote.RequestID != reqID {
			return fmt.Errorf("quote %s does not belong to request %s", qID, reqID)
		}

		request.SelectedQuoteID = &qID
		request.TotalEstimatedAmount = quote.Amount
		if err := s.repo.Save(txCtx, request); err != nil {
			return fmt.Errorf("failed to select quote: %w", err)
		}

		return writeAudit(repository.GetDB(txCtx, s.db), &actor.ID, model.ActionSelectQuote,
			request.ID.String(), request.Title, map[string]interface{}{
				"quote_id": qID.String(),
				"supplier": quote.SupplierName,
				"amount":   quote.Amount.StringFixed(2),
			})
	})
	if err != nil {
		return err
	}

	s.notifications.NotifyRole(ctx, workflow.RoleBuyer, &reqID, "QUOTE_SELECTED",
		"Un devis a été sélectionné, la demande peut être finalisée.")
	return nil
}
