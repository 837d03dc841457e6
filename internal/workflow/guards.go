package workflow

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Action is a transition or mutation a user may attempt on a purchase request.
type Action string

const (
	ActionCreateQuote        Action = "CREATE_QUOTE"
	ActionPublishQuotes      Action = "PUBLISH_QUOTES"
	ActionSelectQuote        Action = "SELECT_QUOTE"
	ActionDeleteQuote        Action = "DELETE_QUOTE"
	ActionFinalize           Action = "FINALIZE"
	ActionProcess            Action = "PROCESS"
	ActionApprove            Action = "APPROVE"
	ActionReject             Action = "REJECT"
	ActionEditItems          Action = "EDIT_ITEMS"
	ActionUploadInvoice      Action = "UPLOAD_INVOICE"
	ActionConfirmPayment     Action = "CONFIRM_PAYMENT"
	ActionEditAnalyticalCode Action = "EDIT_ANALYTICAL_CODE"
)

// Actions lists every gated action.
var Actions = []Action{
	ActionCreateQuote, ActionPublishQuotes, ActionSelectQuote, ActionDeleteQuote,
	ActionFinalize, ActionProcess, ActionApprove, ActionReject, ActionEditItems,
	ActionUploadInvoice, ActionConfirmPayment, ActionEditAnalyticalCode,
}

// GuardError reports why an action is not currently allowed. Guard failures
// are surfaced to the caller before any mutation happens.
type GuardError struct {
	Action Action
	Reason string
}

func (e *GuardError) Error() string {
	return fmt.Sprintf("%s not allowed: %s", e.Action, e.Reason)
}

func deny(action Action, reason string) *GuardError {
	return &GuardError{Action: action, Reason: reason}
}

// Actor is the user attempting an action.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// Snapshot is the minimal view of a purchase request the guard matrix needs.
type Snapshot struct {
	OwnerID         uuid.UUID
	Stage           Stage
	Status          Status
	QuotesPublished bool
	QuoteCount      int
	SelectedQuoteID *uuid.UUID
	// DecidedBy holds the users who already settled an approval row on this
	// request, across all required groups.
	DecidedBy []uuid.UUID
}

// sourcingOpen reports whether the request is still before validation, the
// window during which quotes and items can change.
func (s Snapshot) sourcingOpen() bool {
	switch s.Stage {
	case StageValidation, StagePendingPayment, StageInvoiced:
		return false
	}
	return true
}

// reworkable reports whether the status allows the requester/buyer side of
// the flow to keep working (initial submission or after a rejection).
func (s Snapshot) reworkable() bool {
	return s.Status == StatusPending || s.Status == StatusRejected
}

func (s Snapshot) hasDecided(userID uuid.UUID) bool {
	for _, id := range s.DecidedBy {
		if id == userID {
			return true
		}
	}
	return false
}

// Authorize returns nil when the actor may perform the action on the request
// snapshot, or a *GuardError naming the first violated precondition.
func (s Snapshot) Authorize(actor Actor, action Action) error {
	switch action {
	case ActionCreateQuote:
		if actor.Role != RoleBuyer {
			return deny(action, "only buyers can add supplier quotes")
		}
		if !s.reworkable() {
			return deny(action, "quotes can only be added while the request is pending or rejected")
		}
		if !s.sourcingOpen() {
			return deny(action, "the sourcing window is closed")
		}
		if s.SelectedQuoteID != nil {
			return deny(action, "a quote has already been selected")
		}

	case ActionPublishQuotes:
		if actor.Role != RoleBuyer {
			return deny(action, "only buyers can publish quotes")
		}
		if s.QuoteCount == 0 {
			return deny(action, "there is no quote to publish")
		}
		if s.QuotesPublished {
			return deny(action, "quotes are already published")
		}
		if s.SelectedQuoteID != nil {
			return deny(action, "a quote has already been selected")
		}

	case ActionSelectQuote:
		if actor.ID != s.OwnerID {
			return deny(action, "only the requester can select a quote")
		}
		if !s.reworkable() {
			return deny(action, "a quote can only be selected while the request is pending or rejected")
		}
		if !s.sourcingOpen() {
			return deny(action, "the sourcing window is closed")
		}
		if s.SelectedQuoteID != nil {
			return deny(action, "selection is final: a quote has already been selected")
		}
		if !s.QuotesPublished {
			return deny(action, "quotes have not been published yet")
		}

	case ActionDeleteQuote:
		if actor.Role != RoleBuyer {
			return deny(action, "only buyers can delete quotes")
		}
		if s.SelectedQuoteID != nil {
			return deny(action, "a quote has already been selected")
		}
		if !s.reworkable() {
			return deny(action, "quotes can only be deleted while the request is pending or rejected")
		}

	case ActionFinalize:
		if actor.Role != RoleBuyer {
			return deny(action, "only buyers can finalize a request")
		}
		if !s.reworkable() {
			return deny(action, "the request can only be finalized while pending or rejected")
		}
		if !s.sourcingOpen() {
			return deny(action, "the request has already been finalized")
		}
		if s.SelectedQuoteID == nil {
			return deny(action, "a quote must be selected before finalizing")
		}

	case ActionProcess:
		if actor.Role != RoleManager {
			return deny(action, "only managers can take a request for validation")
		}
		if s.Status != StatusPending {
			return deny(action, "the request is not pending validation")
		}
		if actor.ID == s.OwnerID {
			return deny(action, "requesters cannot validate their own request")
		}

	case ActionApprove, ActionReject:
		if actor.Role != RoleManager {
			return deny(action, "only managers can approve or reject")
		}
		if s.Status != StatusProcessing {
			return deny(action, "the request is not under validation")
		}
		if actor.ID == s.OwnerID {
			return deny(action, "requesters cannot validate their own request")
		}
		if s.hasDecided(actor.ID) {
			return deny(action, "already approved: a manager can only decide once per request")
		}

	case ActionEditItems:
		if actor.Role != RoleEmployee {
			return deny(action, "only employees can edit request items")
		}
		if actor.ID != s.OwnerID {
			return deny(action, "only the requester can edit the items")
		}
		if s.Status != StatusPending {
			return deny(action, "items can only be edited while the request is pending")
		}
		if s.Stage != StageNeed {
			return deny(action, "items are frozen once sourcing has started")
		}

	case ActionUploadInvoice:
		if actor.Role != RoleBuyer {
			return deny(action, "only buyers can record the supplier invoice")
		}
		if s.Status != StatusApproved {
			return deny(action, "the request has not been approved")
		}
		if s.Stage == StageInvoiced || s.Stage == StagePendingPayment {
			return deny(action, "an invoice has already been recorded")
		}

	case ActionConfirmPayment:
		if actor.Role != RoleAccountant && actor.Role != RoleBuyer {
			return deny(action, "only accountants and buyers can confirm payment")
		}
		if s.Stage != StagePendingPayment {
			return deny(action, "the request is not awaiting payment")
		}

	case ActionEditAnalyticalCode:
		if actor.Role != RoleAccountant && actor.Role != RoleBuyer &&
			actor.Role != RoleManager && actor.ID != s.OwnerID {
			return deny(action, "not allowed to change the analytical code")
		}

	default:
		return deny(action, "unknown action")
	}

	return nil
}

// Permitted reports whether the actor may perform the action right now.
func (s Snapshot) Permitted(actor Actor, action Action) bool {
	return s.Authorize(actor, action) == nil
}

// PermittedActions returns every action the actor may currently perform, in
// the declaration order of Actions.
func (s Snapshot) PermittedActions(actor Actor) []Action {
	var out []Action
	for _, a := range Actions {
		if s.Permitted(actor, a) {
			out = append(out, a)
		}
	}
	return out
}

// ValidateRejectReason enforces the mandatory free-text reason on rejection.
func ValidateRejectReason(reason string) error {
	if strings.TrimSpace(reason) == "" {
		return deny(ActionReject, "a rejection reason is required")
	}
	return nil
}
