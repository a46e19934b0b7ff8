package workflow

import "github.com/zenithmed/procureflow/internal/models"

// approveNext maps, per requisition type, the current status to the status an
// approval advances to. A status absent from its type's table cannot be
// approved.
var approveNext = map[models.RequisitionType]map[models.RequisitionStatus]models.RequisitionStatus{
	models.TypeStandard: {
		models.StatusPendingApproval: models.StatusApproved,
	},
	models.TypePurchaseOrder: {
		models.StatusPendingChairmanReview: models.StatusPendingStorePricing,
		models.StatusPendingAuditorReview:  models.StatusPendingFinalApproval,
		models.StatusPendingFinalApproval:  models.StatusPOCompleted,
	},
	models.TypeHistologyPayment: {
		models.StatusPendingAuditorApproval:  models.StatusPendingChairmanApproval,
		models.StatusPendingChairmanApproval: models.StatusHistologyApproved,
	},
}

var pendingStatuses = map[models.RequisitionStatus]bool{
	models.StatusPendingApproval:         true,
	models.StatusPendingChairmanReview:   true,
	models.StatusPendingStorePricing:     true,
	models.StatusPendingAuditorReview:    true,
	models.StatusPendingFinalApproval:    true,
	models.StatusPendingAuditorApproval:  true,
	models.StatusPendingChairmanApproval: true,
}

// payableStatuses is the set the payment ledger operates on.
var payableStatuses = map[models.RequisitionStatus]bool{
	models.StatusApproved:          true,
	models.StatusPOCompleted:       true,
	models.StatusHistologyApproved: true,
	models.StatusPaymentProcessing: true,
}

// NextOnApprove returns the status an approval advances to, or false if the
// current status admits no approval for the given type.
func NextOnApprove(t models.RequisitionType, s models.RequisitionStatus) (models.RequisitionStatus, bool) {
	next, ok := approveNext[t][s]
	return next, ok
}

// IsPending reports whether the status is one of the PENDING_* states, the
// only states from which Queried and Rejected are reachable.
func IsPending(s models.RequisitionStatus) bool {
	return pendingStatuses[s]
}

// IsPayable reports whether the payment ledger may operate on the status.
func IsPayable(s models.RequisitionStatus) bool {
	return payableStatuses[s]
}

// InitialStatus derives the state a newly created (or restarted) requisition
// enters, from its type and originating department. Pharmacy purchase orders
// skip chairman review and store pricing because prices are known up front.
func InitialStatus(t models.RequisitionType, dept models.Department) models.RequisitionStatus {
	switch t {
	case models.TypePurchaseOrder:
		if dept == models.DepartmentPharmacy {
			return models.StatusPendingAuditorReview
		}
		return models.StatusPendingChairmanReview
	case models.TypeHistologyPayment:
		return models.StatusPendingAuditorApproval
	default:
		return models.StatusPendingApproval
	}
}
