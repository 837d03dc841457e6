package workflow

// Stage is the procurement phase of a purchase request. Stages only move
// forward: NEED -> SOURCING -> VALIDATION -> PENDING_PAYMENT -> INVOICED.
type Stage string

const (
	StageNeed           Stage = "NEED"
	StageSourcing       Stage = "SOURCING"
	StageValidation     Stage = "VALIDATION"
	StagePendingPayment Stage = "PENDING_PAYMENT"
	StageInvoiced       Stage = "INVOICED"
)

// Stages lists every stage in lifecycle order.
var Stages = []Stage{StageNeed, StageSourcing, StageValidation, StagePendingPayment, StageInvoiced}

// Rank returns the position of the stage in the lifecycle, or -1 for an
// unknown value.
func (s Stage) Rank() int {
	switch s {
	case StageNeed:
		return 0
	case StageSourcing:
		return 1
	case StageValidation:
		return 2
	case StagePendingPayment:
		return 3
	case StageInvoiced:
		return 4
	}
	return -1
}

func (s Stage) Valid() bool {
	return s.Rank() >= 0
}

// CanAdvance reports whether moving from one stage to another respects
// stage monotonicity. Staying on the same stage is always allowed.
func CanAdvance(from, to Stage) bool {
	return from.Valid() && to.Valid() && to.Rank() >= from.Rank()
}

// Status is the approval status of a purchase request. PENDING, PROCESSING
// and REJECTED form the approval loop; APPROVED is terminal for approval
// purposes but the stage keeps progressing afterwards.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusApproved   Status = "APPROVED"
	StatusRejected   Status = "REJECTED"
)

// Statuses lists every request status.
var Statuses = []Status{StatusPending, StatusProcessing, StatusApproved, StatusRejected}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Role is the function a user holds in the procurement process.
type Role string

const (
	RoleEmployee   Role = "EMPLOYEE"
	RoleManager    Role = "MANAGER"
	RoleBuyer      Role = "BUYER"
	RoleAccountant Role = "ACCOUNTANT"
	RoleAdmin      Role = "ADMIN"
)

// Roles lists every assignable role.
var Roles = []Role{RoleEmployee, RoleManager, RoleBuyer, RoleAccountant, RoleAdmin}

func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleManager, RoleBuyer, RoleAccountant, RoleAdmin:
		return true
	}
	return false
}

// GroupScope restricts which requests an approval group covers.
type GroupScope string

const (
	ScopeEntity GroupScope = "ENTITY"
	ScopeGlobal GroupScope = "GLOBAL"
)
