package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"time"

	"backend/internal/config"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/workflow"
	"backend/pkg/filestore"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UploadInvoiceDTO arrives as multipart form fields next to the invoice file.
type UploadInvoiceDTO struct {
	InvoiceNumber     string `form:"invoice_number" binding:"required"`
	InvoiceReceivedAt string `form:"invoice_received_at"` // Defaults to now
	PaymentDueAt      string `form:"payment_due_at"`      // RFC 3339 or YYYY-MM-DD, optional
}

type InvoiceService interface {
	Upload(ctx context.Context, actor workflow.Actor, requestID string, req UploadInvoiceDTO, file *multipart.FileHeader) error
	ConfirmPayment(ctx context.Context, actor workflow.Actor, requestID string) error
}

type invoiceService struct {
	db            *gorm.DB
	repo          repository.RequestRepository
	txm           repository.TransactionManager
	store         *filestore.Store
	notifications NotificationService
	policy        config.WorkflowConfig
}

func NewInvoiceService(db *gorm.DB, repo repository.RequestRepository, txm repository.TransactionManager, store *filestore.Store, notifications NotificationService, policy config.WorkflowConfig) InvoiceService {
	return &invoiceService{db: db, repo: repo, txm: txm, store: store, notifications: notifications, policy: policy}
}

// Upload records the supplier invoice on an approved request. Depending on
// policy the request then awaits an explicit payment confirmation or is
// closed immediately.
func (s *invoiceService) Upload(ctx context.Context, actor workflow.Actor, requestID string, req UploadInvoiceDTO, file *multipart.FileHeader) error {
	reqID, err := uuid.Parse(requestID)
	if err != nil {
		return fmt.Errorf("invalid request id: %w", err)
	}
	if file == nil {
		return fmt.Errorf("invoice file is required")
	}

	dueAt, err := parseOptionalDate(req.PaymentDueAt, "payment_due_at")
	if err != nil {
		return err
	}
	receivedAt, err := parseOptionalDate(req.InvoiceReceivedAt, "invoice_received_at")
	if err != nil {
		return err
	}

	filePath, err := s.store.Save(file, "invoices")
	if err != nil {
		return fmt.Errorf("failed to store invoice: %w", err)
	}

	var ownerID uuid.UUID
	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		request, err := s.repo.FindByIDForUpdate(txCtx, reqID)
		if err != nil {
			return fmt.Errorf("request not found: %w", err)
		}

		if err := request.Snapshot().Authorize(actor, workflow.ActionUploadInvoice); err != nil {
			return err
		}

		now := time.Now()
		request.InvoiceNumber = req.InvoiceNumber
		request.InvoiceFilePath = filePath
		request.InvoiceReceivedAt = receivedAt
		if receivedAt == nil {
			request.InvoiceReceivedAt = &now
		}
		request.PaymentDueAt = dueAt

		if s.policy.PaymentConfirmationRequired {
			request.Stage = workflow.StagePendingPayment
		} else {
			request.Stage = workflow.StageInvoiced
			request.PaidAt = &now
		}

		if err := s.repo.Save(txCtx, request); err != nil {
			return fmt.Errorf("failed to record invoice: %w", err)
		}
		ownerID = request.UserID

		return writeAudit(repository.GetDB(txCtx, s.db), &actor.ID, model.ActionUploadInvoice,
			request.ID.String(), request.Title, map[string]interface{}{
				"invoice_number": req.InvoiceNumber,
				"stage":          string(request.Stage),
			})
	})
	if err != nil {
		// The request was not updated; drop the orphaned file.
		_ = s.store.Remove(filePath)
		return err
	}

	if s.policy.PaymentConfirmationRequired {
		s.notifications.NotifyRole(ctx, workflow.RoleAccountant, &reqID, "INVOICE_RECEIVED",
			"Une facture a été enregistrée et attend son paiement.")
	} else {
		s.notifications.Notify(ctx, ownerID, &reqID, "REQUEST_CLOSED",
			"Votre demande d'achat est facturée et clôturée.")
	}
	return nil
}

// ConfirmPayment closes the request after the invoice has been paid.
func (s *invoiceService) ConfirmPayment(ctx context.Context, actor workflow.Actor, requestID string) error {
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

		if err := request.Snapshot().Authorize(actor, workflow.ActionConfirmPayment); err != nil {
			return err
		}

		now := time.Now()
		request.Stage = workflow.StageInvoiced
		request.PaidAt = &now
		if err := s.repo.Save(txCtx, request); err != nil {
			return fmt.Errorf("failed to confirm payment: %w", err)
		}
		ownerID = request.UserID

		return writeAudit(repository.GetDB(txCtx, s.db), &actor.ID, model.ActionConfirmPayment,
			request.ID.String(), request.Title, nil)
	})
	if err != nil {
		return err
	}

	s.notifications.Notify(ctx, ownerID, &reqID, "PAYMENT_CONFIRMED",
		"Le paiement de votre demande d'achat est confirmé.")
	return nil
}

func parseOptionalDate(raw, field string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		parsed, err = time.Parse("2006-01-02", raw)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", field, raw, err)
	}
	return &parsed, nil
}
