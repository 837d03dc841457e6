package service

import (
	"context"
	"fmt"
	"time"

	"backend/internal/document"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/workflow"
	"backend/pkg/filestore"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RejectDTO struct {
	Reason string `json:"reason" binding:"required"`
}

type ApprovalService interface {
	// Finalize closes the sourcing stage: assigns a PO number, renders the
	// purchase order, routes the request to its approval groups and moves it
	// into validation.
	Finalize(ctx context.Context, actor workflow.Actor, requestID string) error
	Process(ctx context.Context, actor workflow.Actor, requestID string) error
	Approve(ctx context.Context, actor workflow.Actor, requestID string) error
	Reject(ctx context.Context, actor workflow.Actor, requestID string, req RejectDTO) error
}

type approvalService struct {
	db            *gorm.DB
	repo          repository.RequestRepository
	txm           repository.TransactionManager
	store         *filestore.Store
	notifications NotificationService
}

func NewApprovalService(db *gorm.DB, repo repository.RequestRepository, txm repository.TransactionManager, store *filestore.Store, notifications NotificationService) ApprovalService {
	return &approvalService{db: db, repo: repo, txm: txm, store: store, notifications: notifications}
}

func (s *approvalService) Finalize(ctx context.Context, actor workflow.Actor, requestID string) error {
	reqID, err := uuid.Parse(requestID)
	if err != nil {
		return fmt.Errorf("invalid request id: %w", err)
	}

	var approverIDs []uuid.UUID
	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		request, err := s.repo.FindByIDForUpdate(txCtx, reqID)
		if err != nil {
			return fmt.Errorf("request not found: %w", err)
		}

		if err := request.Snapshot().Authorize(actor, workflow.ActionFinalize); err != nil {
			return err
		}

		tx := repository.GetDB(txCtx, s.db)

		groups, err := matchApprovalGroups(tx, request)
		if err != nil {
			return err
		}
		if len(groups) == 0 {
			return fmt.Errorf("no approval group covers amount %s for this entity: approval routing is not configured", request.TotalEstimatedAmount.StringFixed(2))
		}

		poNumber, err := nextPONumber(tx)
		if err != nil {
			return fmt.Errorf("failed to allocate PO number: %w", err)
		}
		request.PONumber = poNumber

		quote, err := s.repo.FindQuote(txCtx, *request.SelectedQuoteID)
		if err != nil {
			return fmt.Errorf("selected quote not found: %w", err)
		}

		pdf, err := document.RenderPurchaseOrder(request, quote)
		if err != nil {
			return fmt.Errorf("failed to render purchase order: %w", err)
		}
		poPath, err := s.store.SaveBytes(pdf, "purchase-orders", poNumber+".pdf")
		if err != nil {
			return fmt.Errorf("failed to store purchase order: %w", err)
		}
		request.POPath = poPath

		for _, group := range groups {
			approval := model.RequestApproval{
				RequestID:       request.ID,
				ApprovalGroupID: group.ID,
				Status:          workflow.StatusPending,
			}
			if err := tx.Create(&approval).Error; err != nil {
				return fmt.Errorf("failed to create approval row: %w", err)
			}

			var members []model.User
			if err := tx.Where("approval_group_id = ? AND role = ?", group.ID, workflow.RoleManager).Find(&members).Error; err != nil {
				return fmt.Errorf("failed to load group members: %w", err)
			}
			for _, m := range members {
				approverIDs = append(approverIDs, m.ID)
			}
		}

		request.Stage = workflow.StageValidation
		request.Status = workflow.StatusPending
		if err := s.repo.Save(txCtx, request); err != nil {
			return fmt.Errorf("failed to finalize request: %w", err)
		}

		return writeAudit(tx, &actor.ID, model.ActionFinalizeRequest,
			request.ID.String(), request.Title, map[string]interface{}{
				"po_number": poNumber,
				"groups":    len(groups),
				"total":     request.TotalEstimatedAmount.StringFixed(2),
			})
	})
	if err != nil {
		return err
	}

	for _, approverID := range approverIDs {
		s.notifications.Notify(ctx, approverID, &reqID, "VALIDATION_REQUESTED",
			"Une demande d'achat attend votre validation.")
	}
	return nil
}

// Process marks a pending request as being reviewed.
func (s *approvalService) Process(ctx context.Context, actor workflow.Actor, requestID string) error {
	reqID, err := uuid.Parse(requestID)
	if err != nil {
		return fmt.Errorf("invalid request id: %w", err)
	}

	return s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		request, err := s.repo.FindByIDForUpdate(txCtx, reqID)
		if err != nil {
			return fmt.Errorf("request not found: %w", err)
		}

		if err := request.Snapshot().Authorize(actor, workflow.ActionProcess); err != nil {
			return err
		}

		request.Status = workflow.StatusProcessing
		if err := s.repo.Save(txCtx, request); err != nil {
			return fmt.Errorf("failed to update request: %w", err)
		}

		return writeAudit(repository.GetDB(txCtx, s.db), &actor.ID, model.ActionProcessRequest,
			request.ID.String(), request.Title, nil)
	})
}

func (s *approvalService) Approve(ctx context.Context, actor workflow.Actor, requestID string) error {
	reqID, err := uuid.Parse(requestID)
	if err != nil {
		return fmt.Errorf("invalid request id: %w", err)
	}

	var (
		ownerID     uuid.UUID
		allApproved bool
	)
	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		request, err := s.repo.FindByIDForUpdate(txCtx, reqID)
		if err != nil {
			return fmt.Errorf("request not found: %w", err)
		}

		if err := request.Snapshot().Authorize(actor, workflow.ActionApprove); err != nil {
			return err
		}

		tx := repository.GetDB(txCtx, s.db)

		approval, err := pendingApprovalFor(tx, request.ID, actor.ID)
		if err != nil {
			return err
		}

		now := time.Now()
		approval.Status = workflow.StatusApproved
		approval.ApproverID = &actor.ID
		approval.DecidedAt = &now
		if err := tx.Save(approval).Error; err != nil {
			return fmt.Errorf("failed to record approval: %w", err)
		}

		var remaining int64
		if err := tx.Model(&model.RequestApproval{}).
			Where("request_id = ? AND status = ?", request.ID, workflow.StatusPending).
			Count(&remaining).Error; err != nil {
			return fmt.Errorf("failed to count pending approvals: %w", err)
		}

		if remaining == 0 {
			request.Status = workflow.StatusApproved
			allApproved = true
		}
		if err := s.repo.Save(txCtx, request); err != nil {
			return fmt.Errorf("failed to update request: %w", err)
		}
		ownerID = request.UserID

		return writeAudit(tx, &actor.ID, model.ActionApproveRequest,
			request.ID.String(), request.Title, map[string]interface{}{
				"remaining_approvals": remaining,
			})
	})
	if err != nil {
		return err
	}

	if allApproved {
		s.notifications.Notify(ctx, ownerID, &reqID, "REQUEST_APPROVED",
			"Votre demande d'achat a été approuvée.")
		s.notifications.NotifyRole(ctx, workflow.RoleBuyer, &reqID, "REQUEST_APPROVED",
			"Une demande approuvée attend sa facture.")
	}
	return nil
}

func (s *approvalService) Reject(ctx context.Context, actor workflow.Actor, requestID string, req RejectDTO) error {
	reqID, err := uuid.Parse(requestID)
	if err != nil {
		return fmt.Errorf("invalid request id: %w", err)
	}
	if err := workflow.ValidateRejectReason(req.Reason); err != nil {
		return err
	}

	var ownerID uuid.UUID
	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		request, err := s.repo.FindByIDForUpdate(txCtx, reqID)
		if err != nil {
			return fmt.Errorf("request not found: %w", err)
		}

		if err := request.Snapshot().Authorize(actor, workflow.ActionReject); err != nil {
			return err
		}

		tx := repository.GetDB(txCtx, s.db)

		approval, err := pendingApprovalFor(tx, request.ID, actor.ID)
		if err != nil {
			return err
		}

		now := time.Now()
		approval.Status = workflow.StatusRejected
		approval.ApproverID = &actor.ID
		approval.Reason = req.Reason
		approval.DecidedAt = &now
		if err := tx.Save(approval).Error; err != nil {
			return fmt.Errorf("failed to record rejection: %w", err)
		}

		// One rejection settles the whole request.
		request.Status = workflow.StatusRejected
		if err := s.repo.Save(txCtx, request); err != nil {
			return fmt.Errorf("failed to update request: %w", err)
		}
		ownerID = request.UserID

		return writeAudit(tx, &actor.ID, model.ActionRejectRequest,
			request.ID.String(), request.Title, map[string]interface{}{
				"reason": req.Reason,
			})
	})
	if err != nil {
		return err
	}

	s.notifications.Notify(ctx, ownerID, &reqID, "REQUEST_REJECTED",
		fmt.Sprintf("Votre demande d'achat a été rejetée : %s", req.Reason))
	return nil
}

// matchApprovalGroups returns the validation tiers a request must pass,
// lowest level first. A group matches when its amount band contains the
// request total and its scope is global or bound to the requester's entity.
func matchApprovalGroups(tx *gorm.DB, request *model.PurchaseRequest) ([]model.ApprovalGroup, error) {
	var groups []model.ApprovalGroup
	query := tx.
		Where("min_amount <= ? AND max_amount >= ?", request.TotalEstimatedAmount, request.TotalEstimatedAmount).
		Order("level ASC")
	if request.EntityID != nil {
		query = query.Where("scope = ? OR (scope = ? AND entity_id = ?)",
			workflow.ScopeGlobal, workflow.ScopeEntity, *request.EntityID)
	} else {
		query = query.Where("scope = ?", workflow.ScopeGlobal)
	}
	if err := query.Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("failed to match approval groups: %w", err)
	}
	return groups, nil
}

// pendingApprovalFor resolves the open approval row the actor may decide:
// the row of the actor's own approval group when pending, falling back to
// the lowest-level pending row for managers without a group binding.
func pendingApprovalFor(tx *gorm.DB, requestID, actorID uuid.UUID) (*model.RequestApproval, error) {
	var actorUser model.User
	if err := tx.First(&actorUser, "id = ?", actorID).Error; err != nil {
		return nil, fmt.Errorf("approver not found: %w", err)
	}

	var approvals []model.RequestApproval
	err := tx.
		Joins("JOIN approval_groups ON approval_groups.id = request_approvals.approval_group_id").
		Where("request_approvals.request_id = ? AND request_approvals.status = ?", requestID, workflow.StatusPending).
		Order("approval_groups.level ASC").
		Find(&approvals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load approvals: %w", err)
	}
	if len(approvals) == 0 {
		return nil, fmt.Errorf("no pending approval remains on this request")
	}

	if actorUser.ApprovalGroupID != nil {
		for i := range approvals {
			if approvals[i].ApprovalGroupID == *actorUser.ApprovalGroupID {
				return &approvals[i], nil
			}
		}
		return nil, fmt.Errorf("no pending approval is assigned to your approval group")
	}
	return &approvals[0], nil
}

// nextPONumber allocates the next sequential purchase-order number for the
// day, PO-YYYYMMDD-NNNNN. On postgres an advisory lock serializes concurrent
// allocations; other dialects (tests) rely on the surrounding transaction.
func nextPONumber(tx *gorm.DB) (string, error) {
	prefix := "PO-" + time.Now().Format("20060102")

	if tx.Dialector.Name() == "postgres" {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", prefix).Error; err != nil {
			return "", err
		}
	}

	var count int64
	err := tx.Model(&model.PurchaseRequest{}).
		Where("po_number LIKE ?", prefix+"-%").
		Count(&count).Error
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s-%05d", prefix, count+1), nil
}
