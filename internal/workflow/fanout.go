package workflow

import (
	"fmt"

	"github.com/zenithmed/procureflow/internal/models"
)

// Recipient selects who a notification goes to: every holder of a role, the
// distinguished approver identified by name, or one specific user.
type Recipient struct {
	Role   models.Role
	Name   string
	UserID string
}

func toRole(r models.Role) Recipient { return Recipient{Role: r} }
func toName(name string) Recipient   { return Recipient{Name: name} }
func toUser(id string) Recipient     { return Recipient{UserID: id} }

// NotificationRequest is one fan-out instruction produced by a transition.
type NotificationRequest struct {
	Recipient     Recipient
	Message       string
	RequisitionID string
}

// FanOutOnStatus returns the notification requests for a requisition that
// just entered the given status. It is a pure function of (type, resulting
// status) plus the requester for the queried/rejected paths.
func (n NamedApprovers) FanOutOnStatus(req *models.Requisition, status models.RequisitionStatus) []NotificationRequest {
	id := req.ID

	if status == models.StatusQueried || status == models.StatusRejected {
		return []NotificationRequest{{
			Recipient:     toUser(req.RequesterID),
			Message:       fmt.Sprintf("Your requisition %s was %s.", id, statusVerb(status)),
			RequisitionID: id,
		}}
	}

	switch req.Type {
	case models.TypePurchaseOrder:
		switch status {
		case models.StatusPendingStorePricing:
			return notify(toRole(models.RolePharmacyAdmin), fmt.Sprintf("PO %s is ready for pricing.", id), id)
		case models.StatusPendingAuditorReview:
			return notify(toName(n.Auditor), fmt.Sprintf("PO %s requires review.", id), id)
		case models.StatusPendingFinalApproval:
			return notify(toName(n.Chairman), fmt.Sprintf("PO %s requires final approval.", id), id)
		case models.StatusPOCompleted:
			return notify(toRole(models.RoleAccounts), fmt.Sprintf("PO %s is complete and ready for payment processing.", id), id)
		}
	case models.TypeHistologyPayment:
		switch status {
		case models.StatusPendingChairmanApproval:
			return notify(toName(n.Chairman), fmt.Sprintf("Histology request %s requires approval.", id), id)
		case models.StatusHistologyApproved:
			return notify(toRole(models.RoleAccounts), fmt.Sprintf("Histology request %s is approved and ready for payment.", id), id)
		}
	case models.TypeStandard:
		if status == models.StatusApproved {
			return notify(toRole(models.RoleAccounts), fmt.Sprintf("Standard requisition %s is approved and ready for payment.", id), id)
		}
	}
	return nil
}

// FanOutOnSubmit returns the notification requests for a freshly submitted
// requisition. Purchase orders name the supplier group in the message.
func (n NamedApprovers) FanOutOnSubmit(req *models.Requisition, supplier string) []NotificationRequest {
	id := req.ID
	switch req.Type {
	case models.TypeStandard:
		msg := fmt.Sprintf("New standard requisition %s needs approval.", id)
		return []NotificationRequest{
			{Recipient: toName(n.Chairman), Message: msg, RequisitionID: id},
			{Recipient: toName(n.Auditor), Message: msg, RequisitionID: id},
		}
	case models.TypePurchaseOrder:
		if req.Status == models.StatusPendingAuditorReview {
			return notify(toName(n.Auditor),
				fmt.Sprintf("New PO %s from Pharmacy (Supplier: %s) requires review.", id, supplier), id)
		}
		return notify(toName(n.Chairman),
			fmt.Sprintf("New PO %s from Lab (Supplier: %s) requires review.", id, supplier), id)
	case models.TypeHistologyPayment:
		return notify(toName(n.Auditor), fmt.Sprintf("New Histology Payment request %s requires approval.", id), id)
	}
	return nil
}

// FanOutOnResubmit notifies the gatekeepers of the status a resubmission
// restored the requisition to.
func (n NamedApprovers) FanOutOnResubmit(req *models.Requisition, restored models.RequisitionStatus) []NotificationRequest {
	id := req.ID
	msg := fmt.Sprintf("Requisition %s has been resubmitted and requires your attention.", id)
	switch restored {
	case models.StatusPendingChairmanReview, models.StatusPendingFinalApproval, models.StatusPendingChairmanApproval:
		return notify(toName(n.Chairman), msg, id)
	case models.StatusPendingAuditorReview, models.StatusPendingAuditorApproval:
		return notify(toName(n.Auditor), msg, id)
	case models.StatusPendingApproval:
		return []NotificationRequest{
			{Recipient: toName(n.Chairman), Message: msg, RequisitionID: id},
			{Recipient: toName(n.Auditor), Message: msg, RequisitionID: id},
		}
	case models.StatusPendingStorePricing:
		return notify(toRole(models.RolePharmacyAdmin), msg, id)
	}
	return nil
}

func notify(r Recipient, msg, reqID string) []NotificationRequest {
	return []NotificationRequest{{Recipient: r, Message: msg, RequisitionID: reqID}}
}

func statusVerb(s models.RequisitionStatus) string {
	if s == models.StatusQueried {
		return "queried"
	}
	return "rejected"
}
