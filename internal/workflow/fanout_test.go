package workflow

import (
	"testing"

	"github.com/zenithmed/procureflow/internal/models"
)

var testApprovers = NamedApprovers{Chairman: "Chairman", Auditor: "Auditor"}

func TestFanOutOnStatus(t *testing.T) {
	tests := []struct {
		name      string
		reqType   models.RequisitionType
		status    models.RequisitionStatus
		wantCount int
		wantFirst Recipient
	}{
		{"po to store pricing", models.TypePurchaseOrder, models.StatusPendingStorePricing, 1, Recipient{Role: models.RolePharmacyAdmin}},
		{"po to auditor review", models.TypePurchaseOrder, models.StatusPendingAuditorReview, 1, Recipient{Name: "Auditor"}},
		{"po to final approval", models.TypePurchaseOrder, models.StatusPendingFinalApproval, 1, Recipient{Name: "Chairman"}},
		{"po completed", models.TypePurchaseOrder, models.StatusPOCompleted, 1, Recipient{Role: models.RoleAccounts}},
		{"histology to chairman", models.TypeHistologyPayment, models.StatusPendingChairmanApproval, 1, Recipient{Name: "Chairman"}},
		{"histology approved", models.TypeHistologyPayment, models.StatusHistologyApproved, 1, Recipient{Role: models.RoleAccounts}},
		{"standard approved", models.TypeStandard, models.StatusApproved, 1, Recipient{Role: models.RoleAccounts}},
		{"standard paid is silent", models.TypeStandard, models.StatusPaid, 0, Recipient{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &models.Requisition{ID: "req-1", Type: tt.reqType, RequesterID: "u-req"}
			got := testApprovers.FanOutOnStatus(req, tt.status)
			if len(got) != tt.wantCount {
				t.Fatalf("FanOutOnStatus() produced %d requests, want %d", len(got), tt.wantCount)
			}
			if tt.wantCount > 0 && got[0].Recipient != tt.wantFirst {
				t.Errorf("recipient = %+v, want %+v", got[0].Recipient, tt.wantFirst)
			}
		})
	}
}

func TestFanOutOnStatusNotifiesRequesterOnQueryAndReject(t *testing.T) {
	req := &models.Requisition{ID: "req-2", Type: models.TypePurchaseOrder, RequesterID: "u-req"}

	for _, status := range []models.RequisitionStatus{models.StatusQueried, models.StatusRejected} {
		got := testApprovers.FanOutOnStatus(req, status)
		if len(got) != 1 {
			t.Fatalf("FanOutOnStatus(%q) produced %d requests, want 1", status, len(got))
		}
		if got[0].Recipient.UserID != "u-req" {
			t.Errorf("FanOutOnStatus(%q) recipient = %+v, want requester", status, got[0].Recipient)
		}
	}
}

func TestFanOutOnSubmit(t *testing.T) {
	t.Run("standard notifies both named approvers", func(t *testing.T) {
		req := &models.Requisition{ID: "req-3", Type: models.TypeStandard}
		got := testApprovers.FanOutOnSubmit(req, "")
		if len(got) != 2 {
			t.Fatalf("got %d requests, want 2", len(got))
		}
		if got[0].Recipient.Name != "Chairman" || got[1].Recipient.Name != "Auditor" {
			t.Errorf("recipients = %+v", got)
		}
	})

	t.Run("lab po notifies chairman with supplier", func(t *testing.T) {
		req := &models.Requisition{ID: "req-4", Type: models.TypePurchaseOrder, Status: models.StatusPendingChairmanReview}
		got := testApprovers.FanOutOnSubmit(req, "acme supplies")
		if len(got) != 1 || got[0].Recipient.Name != "Chairman" {
			t.Fatalf("got %+v", got)
		}
	})

	t.Run("pharmacy po notifies auditor", func(t *testing.T) {
		req := &models.Requisition{ID: "req-5", Type: models.TypePurchaseOrder, Status: models.StatusPendingAuditorReview}
		got := testApprovers.FanOutOnSubmit(req, "acme supplies")
		if len(got) != 1 || got[0].Recipient.Name != "Auditor" {
			t.Fatalf("got %+v", got)
		}
	})

	t.Run("histology notifies auditor", func(t *testing.T) {
		req := &models.Requisition{ID: "req-6", Type: models.TypeHistologyPayment}
		got := testApprovers.FanOutOnSubmit(req, "")
		if len(got) != 1 || got[0].Recipient.Name != "Auditor" {
			t.Fatalf("got %+v", got)
		}
	})
}

func TestFanOutOnResubmit(t *testing.T) {
	req := &models.Requisition{ID: "req-7", Type: models.TypePurchaseOrder, RequesterID: "u-req"}

	tests := []struct {
		restored  models.RequisitionStatus
		wantCount int
		want      Recipient
	}{
		{models.StatusPendingChairmanReview, 1, Recipient{Name: "Chairman"}},
		{models.StatusPendingFinalApproval, 1, Recipient{Name: "Chairman"}},
		{models.StatusPendingChairmanApproval, 1, Recipient{Name: "Chairman"}},
		{models.StatusPendingAuditorReview, 1, Recipient{Name: "Auditor"}},
		{models.StatusPendingAuditorApproval, 1, Recipient{Name: "Auditor"}},
		{models.StatusPendingStorePricing, 1, Recipient{Role: models.RolePharmacyAdmin}},
	}
	for _, tt := range tests {
		t.Run(string(tt.restored), func(t *testing.T) {
			got := testApprovers.FanOutOnResubmit(req, tt.restored)
			if len(got) != tt.wantCount {
				t.Fatalf("got %d requests, want %d", len(got), tt.wantCount)
			}
			if got[0].Recipient != tt.want {
				t.Errorf("recipient = %+v, want %+v", got[0].Recipient, tt.want)
			}
		})
	}

	t.Run("pending approval notifies both", func(t *testing.T) {
		got := testApprovers.FanOutOnResubmit(req, models.StatusPendingApproval)
		if len(got) != 2 {
			t.Fatalf("got %d requests, want 2", len(got))
		}
	})
}
