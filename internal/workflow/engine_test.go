package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zenithmed/procureflow/internal/models"
)

var (
	labAdmin      = &models.User{ID: "u-lab", Name: "Lab Tech", Role: models.RoleLabAdmin, Department: models.DepartmentLab}
	pharmacyAdmin = &models.User{ID: "u-pharm", Name: "Pharm. Eze", Role: models.RolePharmacyAdmin, Department: models.DepartmentPharmacy}
	chairman      = &models.User{ID: "u-chair", Name: "Chairman", Role: models.RoleApprover, Department: models.DepartmentManagement}
	auditor       = &models.User{ID: "u-audit", Name: "Auditor", Role: models.RoleApprover, Department: models.DepartmentFinance}
	plainApprover = &models.User{ID: "u-appr", Name: "Mr. Bello", Role: models.RoleApprover, Department: models.DepartmentManagement}
)

func standardItems() []*models.Item {
	return []*models.Item{
		{Name: "Gloves", Quantity: 10, EstimatedUnitCost: 5},
		{Name: "Reagent", Quantity: 2, EstimatedUnitCost: 200},
	}
}

func TestSubmitStandard(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	req, err := env.engine.SubmitStandard(ctx, labAdmin, standardItems())
	require.NoError(t, err)

	assert.Equal(t, models.TypeStandard, req.Type)
	assert.Equal(t, models.StatusPendingApproval, req.Status)
	assert.Equal(t, 450.0, req.TotalCost)
	assert.Equal(t, models.DepartmentLab, req.Department)
	assert.Equal(t, labAdmin.ID, req.RequesterID)
	for _, it := range req.Items {
		assert.NotEmpty(t, it.ID)
		assert.Equal(t, req.ID, it.RequisitionID)
	}

	assert.Equal(t, models.ActionSubmitted, env.log.lastAction())
	require.Len(t, env.notifier.dispatched, 2)
	assert.Equal(t, "Chairman", env.notifier.dispatched[0].Recipient.Name)
	assert.Equal(t, "Auditor", env.notifier.dispatched[1].Recipient.Name)
}

func TestSubmitStandardValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.engine.SubmitStandard(ctx, chairman, standardItems())
	assert.ErrorIs(t, err, ErrNotAuthorized)

	_, err = env.engine.SubmitStandard(ctx, labAdmin, nil)
	assert.ErrorIs(t, err, ErrNoItems)

	_, err = env.engine.SubmitStandard(ctx, labAdmin, []*models.Item{{Name: "Gloves", Quantity: 0}})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestSubmitHistologyRollsBackHeaderOnItemFailure(t *testing.T) {
	env := newTestEnv()
	env.histology.insertErr = errors.New("disk full")

	_, err := env.engine.SubmitHistology(context.Background(), labAdmin, []*models.HistologyItem{
		{PatientName: "A. Patient", OutsourceBills: 100, InternalCharge: 50},
	}, nil)
	require.Error(t, err)
	assert.Len(t, env.requisitions.deleted, 1)
	assert.Empty(t, env.requisitions.reqs)
}

func TestSubmitHistologyTotals(t *testing.T) {
	env := newTestEnv()

	req, err := env.engine.SubmitHistology(context.Background(), labAdmin, []*models.HistologyItem{
		{PatientName: "A. Patient", OutsourceBills: 100, InternalCharge: 50},
		{PatientName: "B. Patient", OutsourceBills: 30, InternalCharge: 20},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingAuditorApproval, req.Status)
	assert.Equal(t, 200.0, req.TotalCost)
}

// Full purchase-order chain: chairman review, store pricing, auditor review,
// final approval.
func TestApprovePurchaseOrderChain(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	created, err := env.engine.SubmitPurchaseOrder(ctx, labAdmin, []*models.Item{
		{Name: "Gloves", Quantity: 10, Supplier: "Acme"},
		{Name: "Syringes", Quantity: 40, Supplier: "Acme"},
	}, &models.SignatureSet{
		PreparedBy:       &models.Signature{Name: "Lab Tech"},
		LevelConfirmedBy: &models.Signature{Name: "Lab Head"},
	})
	require.NoError(t, err)
	require.Len(t, created, 1)
	req := created[0]
	assert.Equal(t, models.StatusPendingChairmanReview, req.Status)
	assert.Equal(t, 0.0, req.TotalCost)

	// Chairman forwards to store pricing.
	req, err = env.engine.Approve(ctx, chairman, req.ID, "sig", "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingStorePricing, req.Status)

	// Store prices every item; total becomes 10*5 + 40*10 = 450.
	prices := map[string]float64{}
	for _, it := range env.items.items[req.ID] {
		if it.Name == "Gloves" {
			prices[it.ID] = 5
		} else {
			prices[it.ID] = 10
		}
	}
	req, err = env.engine.PriceAndSubmit(ctx, pharmacyAdmin, req.ID, prices, "sig")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingAuditorReview, req.Status)
	assert.Equal(t, 450.0, req.TotalCost)

	req, err = env.engine.Approve(ctx, auditor, req.ID, "sig", "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingFinalApproval, req.Status)

	req, err = env.engine.Approve(ctx, chairman, req.ID, "sig", "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPOCompleted, req.Status)
}

func TestApproveRequiresNamedIdentity(t *testing.T) {
	env := newTestEnv()
	env.seed(&models.Requisition{
		ID:          "po-1",
		Type:        models.TypePurchaseOrder,
		Department:  models.DepartmentLab,
		RequesterID: labAdmin.ID,
		Status:      models.StatusPendingChairmanReview,
	})

	// The auditor holds the Approver role but is not the chairman.
	_, err := env.engine.Approve(context.Background(), auditor, "po-1", "", "")
	assert.ErrorIs(t, err, ErrNotAuthorized)

	_, err = env.engine.Approve(context.Background(), plainApprover, "po-1", "", "")
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestApproveInvalidStates(t *testing.T) {
	env := newTestEnv()
	env.seed(&models.Requisition{ID: "r-q", Type: models.TypeStandard, Status: models.StatusQueried})
	env.seed(&models.Requisition{ID: "r-done", Type: models.TypeStandard, Status: models.StatusApproved})

	_, err := env.engine.Approve(context.Background(), plainApprover, "r-q", "", "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = env.engine.Approve(context.Background(), plainApprover, "r-done", "", "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = env.engine.Approve(context.Background(), plainApprover, "missing", "", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApproveConcurrentConflict(t *testing.T) {
	env := newTestEnv()
	env.seed(&models.Requisition{ID: "r-1", Type: models.TypeStandard, Status: models.StatusPendingApproval})
	env.requisitions.conflict = true

	_, err := env.engine.Approve(context.Background(), plainApprover, "r-1", "", "")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestApproveSurvivesLogAppendFailure(t *testing.T) {
	env := newTestEnv()
	env.seed(&models.Requisition{ID: "r-1", Type: models.TypeStandard, Status: models.StatusPendingApproval})
	env.log.appendErr = errors.New("log table locked")

	req, err := env.engine.Approve(context.Background(), plainApprover, "r-1", "", "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, req.Status)
	assert.Equal(t, models.StatusApproved, env.requisitions.reqs["r-1"].Status)
}

func TestQueryRecordsReturnPath(t *testing.T) {
	env := newTestEnv()
	env.seed(&models.Requisition{
		ID:          "po-1",
		Type:        models.TypePurchaseOrder,
		Department:  models.DepartmentLab,
		RequesterID: labAdmin.ID,
		Status:      models.StatusPendingAuditorReview,
	})

	err := env.engine.Query(context.Background(), auditor, "po-1", models.DepartmentLab, "sig", "unit cost looks wrong")
	require.NoError(t, err)

	stored := env.requisitions.reqs["po-1"]
	assert.Equal(t, models.StatusQueried, stored.Status)
	require.NotNil(t, stored.QueriedTo)
	assert.Equal(t, models.DepartmentLab, *stored.QueriedTo)
	require.NotNil(t, stored.PreviousStatusOnQuery)
	assert.Equal(t, models.StatusPendingAuditorReview, *stored.PreviousStatusOnQuery)

	// Requester is told.
	last := env.notifier.dispatched[len(env.notifier.dispatched)-1]
	assert.Equal(t, labAdmin.ID, last.Recipient.UserID)
}

func TestQueryValidation(t *testing.T) {
	env := newTestEnv()
	env.seed(&models.Requisition{ID: "po-1", Type: models.TypePurchaseOrder, Status: models.StatusPendingAuditorReview})
	ctx := context.Background()

	err := env.engine.Query(ctx, auditor, "po-1", models.DepartmentLab, "", "")
	assert.ErrorIs(t, err, ErrCommentRequired)

	err = env.engine.Query(ctx, auditor, "po-1", models.DepartmentManagement, "", "why")
	assert.ErrorIs(t, err, ErrQueryTargetRequired)

	err = env.engine.Query(ctx, chairman, "po-1", models.DepartmentLab, "", "why")
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestResubmitAfterQueryRestoresPreviousStatus(t *testing.T) {
	env := newTestEnv()
	prev := models.StatusPendingAuditorReview
	target := models.DepartmentLab
	env.seed(&models.Requisition{
		ID:                    "po-1",
		Type:                  models.TypePurchaseOrder,
		Department:            models.DepartmentLab,
		RequesterID:           labAdmin.ID,
		Status:                models.StatusQueried,
		QueriedTo:             &target,
		PreviousStatusOnQuery: &prev,
	})

	req, err := env.engine.Resubmit(context.Background(), labAdmin, "po-1", ResubmitInput{
		Items: []*models.Item{{Name: "Gloves", Quantity: 10, UnitPrice: 5}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingAuditorReview, req.Status)
	assert.Equal(t, 50.0, req.TotalCost)
	assert.Nil(t, req.QueriedTo)
	assert.Nil(t, req.PreviousStatusOnQuery)

	stored := env.requisitions.reqs["po-1"]
	assert.Nil(t, stored.QueriedTo)
	assert.Nil(t, stored.PreviousStatusOnQuery)
}

func TestResubmitAfterRejectRestartsWorkflow(t *testing.T) {
	env := newTestEnv()
	env.seed(&models.Requisition{
		ID:          "po-2",
		Type:        models.TypePurchaseOrder,
		Department:  models.DepartmentPharmacy,
		RequesterID: pharmacyAdmin.ID,
		Status:      models.StatusRejected,
	})

	// The restart state comes from the requisition's own department, not the
	// resubmitting actor's.
	req, err := env.engine.Resubmit(context.Background(), pharmacyAdmin, "po-2", ResubmitInput{
		Items: []*models.Item{{Name: "Bandages", Quantity: 3, UnitPrice: 20}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingAuditorReview, req.Status)
	assert.Equal(t, 60.0, req.TotalCost)
}

func TestResubmitOnlyByRequester(t *testing.T) {
	env := newTestEnv()
	env.seed(&models.Requisition{
		ID:          "r-1",
		Type:        models.TypeStandard,
		Department:  models.DepartmentLab,
		RequesterID: labAdmin.ID,
		Status:      models.StatusRejected,
	})

	_, err := env.engine.Resubmit(context.Background(), pharmacyAdmin, "r-1", ResubmitInput{
		Items: []*models.Item{{Name: "Gloves", Quantity: 1, EstimatedUnitCost: 5}},
	})
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestResubmitRequiresRecoverableState(t *testing.T) {
	env := newTestEnv()
	env.seed(&models.Requisition{
		ID:          "r-1",
		Type:        models.TypeStandard,
		RequesterID: labAdmin.ID,
		Status:      models.StatusPendingApproval,
	})

	_, err := env.engine.Resubmit(context.Background(), labAdmin, "r-1", ResubmitInput{
		Items: []*models.Item{{Name: "Gloves", Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestPriceAndSubmitValidation(t *testing.T) {
	env := newTestEnv()
	env.seed(&models.Requisition{ID: "po-1", Type: models.TypePurchaseOrder, Status: models.StatusPendingStorePricing})
	env.items.items["po-1"] = []*models.Item{
		{ID: "it-1", RequisitionID: "po-1", Name: "Gloves", Quantity: 10},
		{ID: "it-2", RequisitionID: "po-1", Name: "Syringes", Quantity: 5},
	}
	ctx := context.Background()

	// Every item needs a positive price.
	_, err := env.engine.PriceAndSubmit(ctx, pharmacyAdmin, "po-1", map[string]float64{"it-1": 5}, "")
	assert.ErrorIs(t, err, ErrMissingPrices)

	_, err = env.engine.PriceAndSubmit(ctx, pharmacyAdmin, "po-1", map[string]float64{"it-1": 5, "it-2": 0}, "")
	assert.ErrorIs(t, err, ErrMissingPrices)

	_, err = env.engine.PriceAndSubmit(ctx, labAdmin, "po-1", map[string]float64{"it-1": 5, "it-2": 2}, "")
	assert.ErrorIs(t, err, ErrNotAuthorized)

	env.seed(&models.Requisition{ID: "po-2", Type: models.TypePurchaseOrder, Status: models.StatusPendingAuditorReview})
	_, err = env.engine.PriceAndSubmit(ctx, pharmacyAdmin, "po-2", nil, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestAddMessageNotifiesRequester(t *testing.T) {
	env := newTestEnv()
	env.seed(&models.Requisition{ID: "r-1", Type: models.TypeStandard, RequesterID: labAdmin.ID, Status: models.StatusPendingApproval})
	ctx := context.Background()

	require.NoError(t, env.engine.AddMessage(ctx, auditor, "r-1", "please clarify quantities"))
	require.Len(t, env.notifier.dispatched, 1)
	assert.Equal(t, labAdmin.ID, env.notifier.dispatched[0].Recipient.UserID)

	// The requester messaging their own thread does not self-notify.
	require.NoError(t, env.engine.AddMessage(ctx, labAdmin, "r-1", "updated below"))
	assert.Len(t, env.notifier.dispatched, 1)
	assert.Len(t, env.messages.msgs, 2)
}
