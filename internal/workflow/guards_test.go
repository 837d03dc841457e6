package workflow

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func ptr(id uuid.UUID) *uuid.UUID { return &id }

func TestCanAdvance_Monotonic(t *testing.T) {
	for i, from := range Stages {
		for j, to := range Stages {
			got := CanAdvance(from, to)
			want := j >= i
			if got != want {
				t.Errorf("CanAdvance(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
	if CanAdvance(Stage("BOGUS"), StageNeed) {
		t.Error("unknown stage should never advance")
	}
}

func TestEditItems_OwnerOnly(t *testing.T) {
	owner := uuid.New()
	snap := Snapshot{OwnerID: owner, Stage: StageNeed, Status: StatusPending}

	if !snap.Permitted(Actor{ID: owner, Role: RoleEmployee}, ActionEditItems) {
		t.Error("owner employee should be able to edit items on a pending NEED request")
	}
	if snap.Permitted(Actor{ID: uuid.New(), Role: RoleEmployee}, ActionEditItems) {
		t.Error("a different employee must not edit someone else's items")
	}

	frozen := snap
	frozen.Stage = StageSourcing
	if frozen.Permitted(Actor{ID: owner, Role: RoleEmployee}, ActionEditItems) {
		t.Error("items must be frozen once sourcing has started")
	}
}

func TestApprove_NoSelfApproval(t *testing.T) {
	owner := uuid.New()
	snap := Snapshot{OwnerID: owner, Stage: StageValidation, Status: StatusProcessing}
	self := Actor{ID: owner, Role: RoleManager}

	for _, action := range []Action{ActionProcess, ActionApprove, ActionReject} {
		if snap.Permitted(self, action) {
			t.Errorf("%s must never be permitted for the requester", action)
		}
	}
}

func TestApprove_NoDuplicateDecision(t *testing.T) {
	owner := uuid.New()
	decided := uuid.New()
	snap := Snapshot{
		OwnerID:   owner,
		Stage:     StageValidation,
		Status:    StatusProcessing,
		DecidedBy: []uuid.UUID{decided},
	}

	already := Actor{ID: decided, Role: RoleManager}
	if snap.Permitted(already, ActionApprove) || snap.Permitted(already, ActionReject) {
		t.Error("a manager who already decided must not decide again")
	}

	fresh := Actor{ID: uuid.New(), Role: RoleManager}
	if !snap.Permitted(fresh, ActionApprove) {
		t.Error("a manager without a prior decision should be able to approve")
	}
	if !snap.Permitted(fresh, ActionReject) {
		t.Error("a manager without a prior decision should be able to reject")
	}
}

func TestProcess_PendingOnly(t *testing.T) {
	snap := Snapshot{OwnerID: uuid.New(), Stage: StageValidation, Status: StatusPending}
	mgr := Actor{ID: uuid.New(), Role: RoleManager}

	if !snap.Permitted(mgr, ActionProcess) {
		t.Error("manager should take a PENDING request for validation")
	}
	snap.Status = StatusProcessing
	if snap.Permitted(mgr, ActionProcess) {
		t.Error("PROCESS only applies to PENDING requests")
	}
}

func TestSelectQuote_RequiresPublication(t *testing.T) {
	owner := uuid.New()
	snap := Snapshot{
		OwnerID:    owner,
		Stage:      StageSourcing,
		Status:     StatusPending,
		QuoteCount: 2,
	}
	requester := Actor{ID: owner, Role: RoleEmployee}

	err := snap.Authorize(requester, ActionSelectQuote)
	if err == nil {
		t.Fatal("selection must be denied before quotes are published")
	}
	var guard *GuardError
	if !errors.As(err, &guard) {
		t.Fatalf("expected *GuardError, got %T", err)
	}
	if guard.Reason != "quotes have not been published yet" {
		t.Errorf("unexpected reason: %q", guard.Reason)
	}

	snap.QuotesPublished = true
	if !snap.Permitted(requester, ActionSelectQuote) {
		t.Error("selection should be permitted once quotes are published")
	}
}

func TestSelectQuote_OneShot(t *testing.T) {
	owner := uuid.New()
	snap := Snapshot{
		OwnerID:         owner,
		Stage:           StageSourcing,
		Status:          StatusPending,
		QuotesPublished: true,
		QuoteCount:      2,
		SelectedQuoteID: ptr(uuid.New()),
	}

	actors := []Actor{
		{ID: owner, Role: RoleEmployee},
		{ID: uuid.New(), Role: RoleBuyer},
		{ID: uuid.New(), Role: RoleAdmin},
	}
	for _, a := range actors {
		if snap.Permitted(a, ActionSelectQuote) {
			t.Errorf("selection must stay final for actor role %s", a.Role)
		}
	}
}

func TestQuoteLifecycleGuards(t *testing.T) {
	buyer := Actor{ID: uuid.New(), Role: RoleBuyer}
	base := Snapshot{OwnerID: uuid.New(), Stage: StageSourcing, Status: StatusPending, QuoteCount: 1}

	tests := []struct {
		name   string
		mutate func(*Snapshot)
		action Action
		want   bool
	}{
		{"create while sourcing", func(*Snapshot) {}, ActionCreateQuote, true},
		{"create after rejection", func(s *Snapshot) { s.Status = StatusRejected }, ActionCreateQuote, true},
		{"create once processing", func(s *Snapshot) { s.Status = StatusProcessing }, ActionCreateQuote, false},
		{"create after validation", func(s *Snapshot) { s.Stage = StageValidation }, ActionCreateQuote, false},
		{"create after selection", func(s *Snapshot) { s.SelectedQuoteID = ptr(uuid.New()) }, ActionCreateQuote, false},
		{"publish with quotes", func(*Snapshot) {}, ActionPublishQuotes, true},
		{"publish without quotes", func(s *Snapshot) { s.QuoteCount = 0 }, ActionPublishQuotes, false},
		{"publish twice", func(s *Snapshot) { s.QuotesPublished = true }, ActionPublishQuotes, false},
		{"delete unselected", func(*Snapshot) {}, ActionDeleteQuote, true},
		{"delete after selection", func(s *Snapshot) { s.SelectedQuoteID = ptr(uuid.New()) }, ActionDeleteQuote, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			snap := base
			tc.mutate(&snap)
			if got := snap.Permitted(buyer, tc.action); got != tc.want {
				t.Errorf("%s: got %v, want %v", tc.action, got, tc.want)
			}
		})
	}

	if base.Permitted(Actor{ID: uuid.New(), Role: RoleEmployee}, ActionCreateQuote) {
		t.Error("non-buyers must not create quotes")
	}
}

func TestFinalize_RequiresSelection(t *testing.T) {
	buyer := Actor{ID: uuid.New(), Role: RoleBuyer}
	snap := Snapshot{OwnerID: uuid.New(), Stage: StageSourcing, Status: StatusPending, QuotesPublished: true, QuoteCount: 1}

	if snap.Permitted(buyer, ActionFinalize) {
		t.Error("finalize must require a selected quote")
	}
	snap.SelectedQuoteID = ptr(uuid.New())
	if !snap.Permitted(buyer, ActionFinalize) {
		t.Error("finalize should be permitted once a quote is selected")
	}
	snap.Stage = StageValidation
	if snap.Permitted(buyer, ActionFinalize) {
		t.Error("finalize must not run twice")
	}
}

func TestInvoiceAndPaymentGuards(t *testing.T) {
	buyer := Actor{ID: uuid.New(), Role: RoleBuyer}
	accountant := Actor{ID: uuid.New(), Role: RoleAccountant}

	snap := Snapshot{OwnerID: uuid.New(), Stage: StageValidation, Status: StatusApproved, SelectedQuoteID: ptr(uuid.New())}
	if !snap.Permitted(buyer, ActionUploadInvoice) {
		t.Error("buyer should record the invoice on an approved request")
	}
	if snap.Permitted(accountant, ActionUploadInvoice) {
		t.Error("accountants do not record supplier invoices")
	}

	snap.Stage = StagePendingPayment
	if snap.Permitted(buyer, ActionUploadInvoice) {
		t.Error("invoice must not be recorded twice")
	}
	if !snap.Permitted(accountant, ActionConfirmPayment) || !snap.Permitted(buyer, ActionConfirmPayment) {
		t.Error("accountants and buyers confirm payment on PENDING_PAYMENT")
	}
	if snap.Permitted(Actor{ID: uuid.New(), Role: RoleManager}, ActionConfirmPayment) {
		t.Error("managers do not confirm payments")
	}

	snap.Stage = StageInvoiced
	if snap.Permitted(accountant, ActionConfirmPayment) {
		t.Error("nothing left to confirm once invoiced")
	}
}

func TestEditAnalyticalCode_AnyStage(t *testing.T) {
	owner := uuid.New()
	for _, stage := range Stages {
		for _, status := range Statuses {
			snap := Snapshot{OwnerID: owner, Stage: stage, Status: status}
			for _, actor := range []Actor{
				{ID: uuid.New(), Role: RoleAccountant},
				{ID: uuid.New(), Role: RoleBuyer},
				{ID: uuid.New(), Role: RoleManager},
				{ID: owner, Role: RoleEmployee},
			} {
				if !snap.Permitted(actor, ActionEditAnalyticalCode) {
					t.Errorf("stage=%s status=%s role=%s: analytical code edit should be allowed", stage, status, actor.Role)
				}
			}
			if snap.Permitted(Actor{ID: uuid.New(), Role: RoleEmployee}, ActionEditAnalyticalCode) {
				t.Errorf("stage=%s: unrelated employee must not edit the analytical code", stage)
			}
		}
	}
}

func TestValidateRejectReason(t *testing.T) {
	if err := ValidateRejectReason(""); err == nil {
		t.Error("empty reason must be refused")
	}
	if err := ValidateRejectReason("   \t"); err == nil {
		t.Error("whitespace-only reason must be refused")
	}
	if err := ValidateRejectReason("Budget insuffisant"); err != nil {
		t.Errorf("valid reason refused: %v", err)
	}
}

func TestPermittedActions_Order(t *testing.T) {
	owner := uuid.New()
	snap := Snapshot{OwnerID: owner, Stage: StageSourcing, Status: StatusPending, QuoteCount: 1}
	buyer := Actor{ID: uuid.New(), Role: RoleBuyer}

	got := snap.PermittedActions(buyer)
	want := []Action{ActionCreateQuote, ActionPublishQuotes, ActionDeleteQuote, ActionEditAnalyticalCode}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
