package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"backend/internal/config"
	"backend/internal/database"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/workflow"
	"backend/pkg/filestore"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type testOrg struct {
	entity     model.Entity
	group      model.ApprovalGroup
	employee   workflow.Actor
	manager    workflow.Actor
	managerTwo workflow.Actor
	buyer      workflow.Actor
	accountant workflow.Actor
}

func seedOrg(t *testing.T, db *gorm.DB) testOrg {
	t.Helper()

	entity := model.Entity{Name: "Filiale Lyon", Code: "LYO"}
	if err := db.Create(&entity).Error; err != nil {
		t.Fatalf("create entity: %v", err)
	}

	group := model.ApprovalGroup{
		Name:      "Validation niveau 1",
		MinAmount: decimal.Zero,
		MaxAmount: decimal.NewFromInt(100000),
		Level:     1,
		Scope:     workflow.ScopeGlobal,
	}
	if err := db.Create(&group).Error; err != nil {
		t.Fatalf("create approval group: %v", err)
	}

	mkUser := func(name string, role workflow.Role, groupID *uuid.UUID) workflow.Actor {
		u := model.User{
			Username:        name,
			Email:           name + "@example.com",
			Password:        "x",
			Role:            role,
			EntityID:        &entity.ID,
			ApprovalGroupID: groupID,
		}
		if err := db.Create(&u).Error; err != nil {
			t.Fatalf("create user %s: %v", name, err)
		}
		return workflow.Actor{ID: u.ID, Role: role}
	}

	return testOrg{
		entity:     entity,
		group:      group,
		employee:   mkUser("alice", workflow.RoleEmployee, nil),
		manager:    mkUser("marc", workflow.RoleManager, &group.ID),
		managerTwo: mkUser("nadia", workflow.RoleManager, &group.ID),
		buyer:      mkUser("bruno", workflow.RoleBuyer, nil),
		accountant: mkUser("claire", workflow.RoleAccountant, nil),
	}
}

type testServices struct {
	db            *gorm.DB
	requests      RequestService
	quotes        QuoteService
	approvals     ApprovalService
	invoices      InvoiceService
	notifications NotificationService
}

func newTestServices(t *testing.T, db *gorm.DB, confirmPayment bool) testServices {
	t.Helper()

	store, err := filestore.New(t.TempDir(), "/files", 1<<20)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	txm := repository.NewTransactionManager(db)
	repo := repository.NewRequestRepository(db)
	notifications := NewNotificationService(db, nil)

	return testServices{
		db:            db,
		requests:      NewRequestService(db, repo, txm, store),
		quotes:        NewQuoteService(db, repo, txm, store, notifications),
		approvals:     NewApprovalService(db, repo, txm, store, notifications),
		invoices:      NewInvoiceService(db, repo, txm, store, notifications, config.WorkflowConfig{PaymentConfirmationRequired: confirmPayment}),
		notifications: notifications,
	}
}

func invoiceFixture(t *testing.T, name string) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fw, err := w.CreateFormFile("file", name)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte("%PDF-1.4 test")); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	w.Close()

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if err := req.ParseMultipartForm(1 << 20); err != nil {
		t.Fatalf("parse multipart: %v", err)
	}
	return req.MultipartForm.File["file"][0]
}

func createPendingRequest(t *testing.T, svc testServices, org testOrg) *RequestDetail {
	t.Helper()
	detail, err := svc.requests.Create(context.Background(), org.employee, CreateRequestDTO{
		Title: "Postes de travail",
		Items: []RequestItemDTO{
			{Description: "Laptop", Quantity: 2, UnitPrice: "1200.00"},
			{Description: "Dock", Quantity: 2, UnitPrice: "150.50"},
		},
	})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	return detail
}

func TestRequestLifecycle_FullFlow(t *testing.T) {
	db := setupServiceDB(t)
	org := seedOrg(t, db)
	svc := newTestServices(t, db, true)
	ctx := context.Background()

	detail := createPendingRequest(t, svc, org)
	if detail.Stage != workflow.StageNeed || detail.Status != workflow.StatusPending {
		t.Fatalf("new request at %s/%s, want NEED/PENDING", detail.Stage, detail.Status)
	}
	if got := detail.TotalEstimatedAmount.StringFixed(2); got != "2701.00" {
		t.Fatalf("total = %s, want 2701.00", got)
	}
	id := detail.ID.String()

	// First supplier quote opens sourcing.
	quote, err := svc.quotes.Create(ctx, org.buyer, id, CreateQuoteDTO{
		SupplierName: "Dell France", Amount: "2500.00",
	}, nil)
	if err != nil {
		t.Fatalf("create quote: %v", err)
	}
	detail, _ = svc.requests.Get(ctx, org.employee, id)
	if detail.Stage != workflow.StageSourcing {
		t.Fatalf("stage after first quote = %s, want SOURCING", detail.Stage)
	}

	// Selection before publication is refused with a guard error.
	err = svc.quotes.Select(ctx, org.employee, id, quote.ID.String())
	var guardErr *workflow.GuardError
	if !errors.As(err, &guardErr) {
		t.Fatalf("select before publish: got %v, want GuardError", err)
	}

	if err := svc.quotes.Publish(ctx, org.buyer, id); err != nil {
		t.Fatalf("publish quotes: %v", err)
	}
	if err := svc.quotes.Select(ctx, org.employee, id, quote.ID.String()); err != nil {
		t.Fatalf("select quote: %v", err)
	}
	detail, _ = svc.requests.Get(ctx, org.employee, id)
	if got := detail.TotalEstimatedAmount.StringFixed(2); got != "2500.00" {
		t.Fatalf("total after selection = %s, want the quote amount 2500.00", got)
	}

	// Selection is final.
	if err := svc.quotes.Select(ctx, org.employee, id, quote.ID.String()); err == nil {
		t.Fatal("second selection should be refused")
	}

	if err := svc.approvals.Finalize(ctx, org.buyer, id); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	detail, _ = svc.requests.Get(ctx, org.employee, id)
	if detail.Stage != workflow.StageValidation {
		t.Fatalf("stage after finalize = %s, want VALIDATION", detail.Stage)
	}
	wantPrefix := "PO-" + time.Now().Format("20060102") + "-"
	if !strings.HasPrefix(detail.PONumber, wantPrefix) {
		t.Fatalf("po number %q, want prefix %q", detail.PONumber, wantPrefix)
	}
	if detail.POPath == "" {
		t.Fatal("purchase order document was not stored")
	}
	if len(detail.Approvals) != 1 {
		t.Fatalf("approval rows = %d, want 1", len(detail.Approvals))
	}

	if err := svc.approvals.Process(ctx, org.manager, id); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := svc.approvals.Approve(ctx, org.manager, id); err != nil {
		t.Fatalf("approve: %v", err)
	}
	detail, _ = svc.requests.Get(ctx, org.employee, id)
	if detail.Status != workflow.StatusApproved {
		t.Fatalf("status after approval = %s, want APPROVED", detail.Status)
	}

	// A second decision by the same manager is refused.
	if err := svc.approvals.Approve(ctx, org.manager, id); err == nil {
		t.Fatal("duplicate approval should be refused")
	}

	err = svc.invoices.Upload(ctx, org.buyer, id, UploadInvoiceDTO{
		InvoiceNumber: "FAC-2026-042",
		PaymentDueAt:  "2026-10-01",
	}, invoiceFixture(t, "facture.pdf"))
	if err != nil {
		t.Fatalf("upload invoice: %v", err)
	}
	detail, _ = svc.requests.Get(ctx, org.employee, id)
	if detail.Stage != workflow.StagePendingPayment {
		t.Fatalf("stage after invoice = %s, want PENDING_PAYMENT", detail.Stage)
	}
	if detail.InvoiceNumber != "FAC-2026-042" || detail.InvoiceFilePath == "" {
		t.Fatalf("invoice not recorded: %+v", detail.PurchaseRequest)
	}

	if err := svc.invoices.ConfirmPayment(ctx, org.accountant, id); err != nil {
		t.Fatalf("confirm payment: %v", err)
	}
	detail, _ = svc.requests.Get(ctx, org.employee, id)
	if detail.Stage != workflow.StageInvoiced {
		t.Fatalf("final stage = %s, want INVOICED", detail.Stage)
	}
	if detail.PaidAt == nil {
		t.Fatal("paid_at not set")
	}

	// The trail recorded every transition.
	var auditCount int64
	db.Model(&model.AuditLog{}).Where("entity_id = ?", id).Count(&auditCount)
	if auditCount < 8 {
		t.Fatalf("audit rows = %d, want at least 8", auditCount)
	}

	// The requester was notified along the way.
	feed, err := svc.notifications.List(ctx, org.employee.ID.String(), 0)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if feed.UnreadCount == 0 {
		t.Fatal("requester never got notified")
	}
}

func TestInvoiceWithoutConfirmationPolicy(t *testing.T) {
	db := setupServiceDB(t)
	org := seedOrg(t, db)
	svc := newTestServices(t, db, false)
	ctx := context.Background()

	detail := createPendingRequest(t, svc, org)
	id := detail.ID.String()

	quote, err := svc.quotes.Create(ctx, org.buyer, id, CreateQuoteDTO{SupplierName: "HP", Amount: "900.00"}, nil)
	if err != nil {
		t.Fatalf("create quote: %v", err)
	}
	if err := svc.quotes.Publish(ctx, org.buyer, id); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := svc.quotes.Select(ctx, org.employee, id, quote.ID.String()); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := svc.approvals.Finalize(ctx, org.buyer, id); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if err := svc.approvals.Process(ctx, org.manager, id); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := svc.approvals.Approve(ctx, org.manager, id); err != nil {
		t.Fatalf("approve: %v", err)
	}

	err = svc.invoices.Upload(ctx, org.buyer, id, UploadInvoiceDTO{InvoiceNumber: "FAC-1"}, invoiceFixture(t, "f.pdf"))
	if err != nil {
		t.Fatalf("upload invoice: %v", err)
	}

	detail, _ = svc.requests.Get(ctx, org.employee, id)
	if detail.Stage != workflow.StageInvoiced {
		t.Fatalf("stage = %s, want INVOICED when confirmation is not required", detail.Stage)
	}
	if detail.PaidAt == nil {
		t.Fatal("paid_at should be set when the invoice closes the request")
	}
}

func TestReject_SettlesRequestWithReason(t *testing.T) {
	db := setupServiceDB(t)
	org := seedOrg(t, db)
	svc := newTestServices(t, db, true)
	ctx := context.Background()

	detail := createPendingRequest(t, svc, org)
	id := detail.ID.String()

	quote, _ := svc.quotes.Create(ctx, org.buyer, id, CreateQuoteDTO{SupplierName: "Lenovo", Amount: "4000.00"}, nil)
	_ = svc.quotes.Publish(ctx, org.buyer, id)
	_ = svc.quotes.Select(ctx, org.employee, id, quote.ID.String())
	if err := svc.approvals.Finalize(ctx, org.buyer, id); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if err := svc.approvals.Process(ctx, org.manager, id); err != nil {
		t.Fatalf("process: %v", err)
	}

	// A blank reason is refused before anything changes.
	if err := svc.approvals.Reject(ctx, org.manager, id, RejectDTO{Reason: "   "}); err == nil {
		t.Fatal("blank rejection reason should be refused")
	}

	if err := svc.approvals.Reject(ctx, org.manager, id, RejectDTO{Reason: "Budget insuffisant"}); err != nil {
		t.Fatalf("reject: %v", err)
	}

	detail, _ = svc.requests.Get(ctx, org.employee, id)
	if detail.Status != workflow.StatusRejected {
		t.Fatalf("status = %s, want REJECTED", detail.Status)
	}
	if len(detail.Approvals) != 1 || detail.Approvals[0].Reason != "Budget insuffisant" {
		t.Fatalf("rejection reason not recorded: %+v", detail.Approvals)
	}

	// One rejection settles the request; the second manager has nothing left.
	if err := svc.approvals.Approve(ctx, org.managerTwo, id); err == nil {
		t.Fatal("approval after rejection should be refused")
	}
}

func TestFinalize_NoMatchingGroupIsConfigurationError(t *testing.T) {
	db := setupServiceDB(t)
	org := seedOrg(t, db)
	svc := newTestServices(t, db, true)
	ctx := context.Background()

	detail := createPendingRequest(t, svc, org)
	id := detail.ID.String()

	// Quote far above every group's band.
	quote, _ := svc.quotes.Create(ctx, org.buyer, id, CreateQuoteDTO{SupplierName: "Airbus", Amount: "900000.00"}, nil)
	_ = svc.quotes.Publish(ctx, org.buyer, id)
	_ = svc.quotes.Select(ctx, org.employee, id, quote.ID.String())

	err := svc.approvals.Finalize(ctx, org.buyer, id)
	if err == nil || !strings.Contains(err.Error(), "approval routing is not configured") {
		t.Fatalf("finalize without covering group: got %v", err)
	}

	// Nothing moved.
	detail, _ = svc.requests.Get(ctx, org.employee, id)
	if detail.Stage != workflow.StageSourcing || detail.PONumber != "" {
		t.Fatalf("failed finalize must not change the request: stage=%s po=%q", detail.Stage, detail.PONumber)
	}
}

func TestUpdateItems_GuardAndTotal(t *testing.T) {
	db := setupServiceDB(t)
	org := seedOrg(t, db)
	svc := newTestServices(t, db, true)
	ctx := context.Background()

	detail := createPendingRequest(t, svc, org)
	id := detail.ID.String()

	updated, err := svc.requests.UpdateItems(ctx, org.employee, id, UpdateItemsDTO{
		Items: []RequestItemDTO{{Description: "Écran", Quantity: 3, UnitPrice: "199.99"}},
	})
	if err != nil {
		t.Fatalf("update items: %v", err)
	}
	if got := updated.TotalEstimatedAmount.StringFixed(2); got != "599.97" {
		t.Fatalf("total = %s, want 599.97", got)
	}
	if len(updated.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(updated.Items))
	}

	// Someone else's request is off limits.
	other := workflow.Actor{ID: org.buyer.ID, Role: workflow.RoleEmployee}
	if _, err := svc.requests.UpdateItems(ctx, other, id, UpdateItemsDTO{
		Items: []RequestItemDTO{{Description: "x", Quantity: 1, UnitPrice: "1.00"}},
	}); err == nil {
		t.Fatal("non-owner edit should be refused")
	}

	// Items freeze once sourcing starts.
	if _, err := svc.quotes.Create(ctx, org.buyer, id, CreateQuoteDTO{SupplierName: "X", Amount: "10.00"}, nil); err != nil {
		t.Fatalf("create quote: %v", err)
	}
	var guardErr *workflow.GuardError
	_, err = svc.requests.UpdateItems(ctx, org.employee, id, UpdateItemsDTO{
		Items: []RequestItemDTO{{Description: "y", Quantity: 1, UnitPrice: "1.00"}},
	})
	if !errors.As(err, &guardErr) {
		t.Fatalf("edit after sourcing opened: got %v, want GuardError", err)
	}
}

func TestNotifications_MarkAllReadIsIdempotent(t *testing.T) {
	db := setupServiceDB(t)
	org := seedOrg(t, db)
	svc := newTestServices(t, db, true)
	ctx := context.Background()

	svc.notifications.Notify(ctx, org.employee.ID, nil, "TEST", "premier message")
	svc.notifications.Notify(ctx, org.employee.ID, nil, "TEST", "second message")

	feed, err := svc.notifications.List(ctx, org.employee.ID.String(), 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if feed.UnreadCount != 2 {
		t.Fatalf("unread = %d, want 2", feed.UnreadCount)
	}

	for i := 0; i < 2; i++ {
		if err := svc.notifications.MarkAllRead(ctx, org.employee.ID.String()); err != nil {
			t.Fatalf("mark all read (pass %d): %v", i+1, err)
		}
	}

	feed, _ = svc.notifications.List(ctx, org.employee.ID.String(), 0)
	if feed.UnreadCount != 0 {
		t.Fatalf("unread after mark-all-read = %d, want 0", feed.UnreadCount)
	}
	if len(feed.Notifications) != 2 {
		t.Fatalf("history lost: %d rows, want 2", len(feed.Notifications))
	}
}
