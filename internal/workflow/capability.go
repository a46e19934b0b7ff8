package workflow

import "github.com/zenithmed/procureflow/internal/models"

// NamedApprovers binds the two distinguished approver identities. Both hold
// the Approver role; the engine additionally requires the matching name for
// chairman-class and auditor-class stages, a two-officer control.
type NamedApprovers struct {
	Chairman string
	Auditor  string
}

// DefaultApprovers matches the production profile names.
var DefaultApprovers = NamedApprovers{Chairman: "Chairman", Auditor: "Auditor"}

// capability is the requirement an actor must satisfy to approve, query, or
// reject a requisition in a given status. An empty approverClass means any
// actor holding the role qualifies.
type capability struct {
	role          models.Role
	approverClass approverClass
}

type approverClass int

const (
	anyApprover approverClass = iota
	chairmanClass
	auditorClass
)

// reviewCapabilities maps each pending status to the capability required to
// act on it. Kept declarative so the double gate is auditable in one place.
var reviewCapabilities = map[models.RequisitionStatus]capability{
	models.StatusPendingApproval:         {role: models.RoleApprover, approverClass: anyApprover},
	models.StatusPendingChairmanReview:   {role: models.RoleApprover, approverClass: chairmanClass},
	models.StatusPendingFinalApproval:    {role: models.RoleApprover, approverClass: chairmanClass},
	models.StatusPendingChairmanApproval: {role: models.RoleApprover, approverClass: chairmanClass},
	models.StatusPendingAuditorReview:    {role: models.RoleApprover, approverClass: auditorClass},
	models.StatusPendingAuditorApproval:  {role: models.RoleApprover, approverClass: auditorClass},
	models.StatusPendingStorePricing:     {role: models.RolePharmacyAdmin},
}

// Authorized reports whether the actor may act on a requisition currently in
// the given status. The check combines role membership with the named
// identity binding for chairman/auditor stages.
func (n NamedApprovers) Authorized(actor *models.User, status models.RequisitionStatus) bool {
	c, ok := reviewCapabilities[status]
	if !ok || actor == nil {
		return false
	}
	if actor.Role != c.role {
		return false
	}
	switch c.approverClass {
	case chairmanClass:
		return actor.Name == n.Chairman
	case auditorClass:
		return actor.Name == n.Auditor
	default:
		return true
	}
}
