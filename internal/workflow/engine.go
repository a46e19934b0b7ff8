package workflow

import (
	"context"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/zenithmed/procureflow/internal/models"
	"go.uber.org/zap"
)

// Engine validates and executes workflow transitions. It is stateless
// between calls; all durable state lives in the stores.
type Engine struct {
	requisitions RequisitionStore
	items        ItemStore
	histology    HistologyStore
	log          LogStore
	messages     MessageStore
	notifier     Notifier
	approvers    NamedApprovers
	logger       *zap.Logger
}

// NewEngine creates a workflow engine.
func NewEngine(
	requisitions RequisitionStore,
	items ItemStore,
	histology HistologyStore,
	log LogStore,
	messages MessageStore,
	notifier Notifier,
	approvers NamedApprovers,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		requisitions: requisitions,
		items:        items,
		histology:    histology,
		log:          log,
		messages:     messages,
		notifier:     notifier,
		approvers:    approvers,
		logger:       logger,
	}
}

// SubmitStandard creates a standard requisition in Pending Approval.
func (e *Engine) SubmitStandard(ctx context.Context, actor *models.User, items []*models.Item) (*models.Requisition, error) {
	if err := canCreate(actor); err != nil {
		return nil, err
	}
	if err := validateItems(items); err != nil {
		return nil, err
	}

	total := 0.0
	for _, it := range items {
		total += float64(it.Quantity) * it.EstimatedUnitCost
	}

	req, err := e.createWithItems(ctx, actor, models.TypeStandard, models.StatusPendingApproval, total, items, nil)
	if err != nil {
		return nil, err
	}

	e.appendLog(ctx, req.ID, actor.ID, models.ActionSubmitted, "", "")
	e.notifier.Dispatch(ctx, e.approvers.FanOutOnSubmit(req, ""))
	return req, nil
}

// SubmitHistology creates a histology payment requisition in Pending Auditor
// Approval.
func (e *Engine) SubmitHistology(ctx context.Context, actor *models.User, items []*models.HistologyItem, sigs *models.SignatureSet) (*models.Requisition, error) {
	if err := canCreate(actor); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	total := 0.0
	for _, it := range items {
		total += it.OutsourceBills + it.InternalCharge
	}

	req := e.newRequisition(actor, models.TypeHistologyPayment, models.StatusPendingAuditorApproval, total, sigs)
	if err := e.requisitions.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create requisition: %w", err)
	}
	for _, it := range items {
		it.ID = newID()
		it.RequisitionID = req.ID
	}
	if err := e.histology.Insert(ctx, items); err != nil {
		e.rollbackHeader(ctx, req.ID)
		return nil, fmt.Errorf("failed to save histology items: %w", err)
	}
	req.HistologyItems = items

	e.appendLog(ctx, req.ID, actor.ID, models.ActionSubmitted, "", "")
	e.notifier.Dispatch(ctx, e.approvers.FanOutOnSubmit(req, ""))
	return req, nil
}

// Approve advances the requisition one step along its type's chain. The
// acting identity must hold the capability for the current status, including
// the named chairman/auditor binding.
func (e *Engine) Approve(ctx context.Context, actor *models.User, reqID, signature, comment string) (*models.Requisition, error) {
	req, err := e.load(ctx, reqID)
	if err != nil {
		return nil, err
	}

	next, ok := NextOnApprove(req.Type, req.Status)
	if !ok {
		return nil, fmt.Errorf("%w: cannot approve %s requisition in status %q", ErrInvalidTransition, req.Type, req.Status)
	}
	if !e.approvers.Authorized(actor, req.Status) {
		return nil, fmt.Errorf("%w: %s may not approve a requisition in status %q", ErrNotAuthorized, actor.Name, req.Status)
	}

	if err := e.transition(ctx, req, RequisitionUpdate{Status: next}); err != nil {
		return nil, err
	}
	e.appendLog(ctx, req.ID, actor.ID, models.ActionApproved, comment, signature)
	e.notifier.Dispatch(ctx, e.approvers.FanOutOnStatus(req, next))

	req.Status = next
	return req, nil
}

// Query detours the requisition to Queried, recording the department that
// must respond and the status to restore on resubmission. A comment is
// mandatory; the queried department needs something to answer.
func (e *Engine) Query(ctx context.Context, actor *models.User, reqID string, target models.Department, signature, comment string) error {
	req, err := e.load(ctx, reqID)
	if err != nil {
		return err
	}
	if !IsPending(req.Status) {
		return fmt.Errorf("%w: cannot query a requisition in status %q", ErrInvalidTransition, req.Status)
	}
	if !e.approvers.Authorized(actor, req.Status) {
		return fmt.Errorf("%w: %s may not query a requisition in status %q", ErrNotAuthorized, actor.Name, req.Status)
	}
	if comment == "" {
		return ErrCommentRequired
	}
	if target != models.DepartmentLab && target != models.DepartmentPharmacy {
		return ErrQueryTargetRequired
	}

	prev := req.Status
	upd := RequisitionUpdate{Status: models.StatusQueried, QueriedTo: &target, PrevStatus: &prev}
	if err := e.transition(ctx, req, upd); err != nil {
		return err
	}
	e.appendLog(ctx, req.ID, actor.ID, models.ActionQueried, comment, signature)
	e.notifier.Dispatch(ctx, e.approvers.FanOutOnStatus(req, models.StatusQueried))
	return nil
}

// Reject moves the requisition to Rejected. No previous status is recorded;
// a later resubmission restarts the workflow from the type's initial state.
func (e *Engine) Reject(ctx context.Context, actor *models.User, reqID, signature, comment string) error {
	req, err := e.load(ctx, reqID)
	if err != nil {
		return err
	}
	if !IsPending(req.Status) {
		return fmt.Errorf("%w: cannot reject a requisition in status %q", ErrInvalidTransition, req.Status)
	}
	if !e.approvers.Authorized(actor, req.Status) {
		return fmt.Errorf("%w: %s may not reject a requisition in status %q", ErrNotAuthorized, actor.Name, req.Status)
	}

	if err := e.transition(ctx, req, RequisitionUpdate{Status: models.StatusRejected}); err != nil {
		return err
	}
	e.appendLog(ctx, req.ID, actor.ID, models.ActionRejected, comment, signature)
	e.notifier.Dispatch(ctx, e.approvers.FanOutOnStatus(req, models.StatusRejected))
	return nil
}

// PriceAndSubmit records a unit price for every item of a purchase order in
// Pending Store Pricing, recomputes the total from quantity x unit price, and
// advances to Pending Auditor Review.
func (e *Engine) PriceAndSubmit(ctx context.Context, actor *models.User, reqID string, prices map[string]float64, signature string) (*models.Requisition, error) {
	req, err := e.load(ctx, reqID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.StatusPendingStorePricing {
		return nil, fmt.Errorf("%w: pricing requires status %q, requisition is %q", ErrInvalidTransition, models.StatusPendingStorePricing, req.Status)
	}
	if !e.approvers.Authorized(actor, req.Status) {
		return nil, fmt.Errorf("%w: pricing is restricted to the %s role", ErrNotAuthorized, models.RolePharmacyAdmin)
	}

	items, err := e.items.ListByRequisition(ctx, req.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}

	total := 0.0
	for _, it := range items {
		price, ok := prices[it.ID]
		if !ok || price <= 0 {
			return nil, fmt.Errorf("%w: item %q has no unit price", ErrMissingPrices, it.Name)
		}
		total += float64(it.Quantity) * price
	}
	for _, it := range items {
		if err := e.items.SetUnitPrice(ctx, it.ID, prices[it.ID]); err != nil {
			return nil, fmt.Errorf("failed to update item price: %w", err)
		}
		it.UnitPrice = prices[it.ID]
	}

	upd := RequisitionUpdate{Status: models.StatusPendingAuditorReview, TotalCost: &total}
	if err := e.transition(ctx, req, upd); err != nil {
		return nil, err
	}
	e.appendLog(ctx, req.ID, actor.ID, models.ActionPriced, "", signature)
	e.notifier.Dispatch(ctx, e.approvers.FanOutOnStatus(req, models.StatusPendingAuditorReview))

	req.Status = models.StatusPendingAuditorReview
	req.TotalCost = total
	req.Items = items
	return req, nil
}

// ResubmitInput is the replacement item collection supplied by the requester.
// Exactly one of Items / HistologyItems applies, chosen by requisition type.
type ResubmitInput struct {
	Items          []*models.Item
	HistologyItems []*models.HistologyItem
}

// Resubmit recovers a queried or rejected requisition. A queried requisition
// with a recorded previous status resumes there; otherwise the workflow
// restarts from the type's initial pending state, re-derived from the
// requisition's own department. The item collection is replaced and the
// total recomputed.
func (e *Engine) Resubmit(ctx context.Context, actor *models.User, reqID string, input ResubmitInput) (*models.Requisition, error) {
	req, err := e.load(ctx, reqID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.StatusQueried && req.Status != models.StatusRejected {
		return nil, fmt.Errorf("%w: only queried or rejected requisitions can be resubmitted", ErrInvalidTransition)
	}
	if actor.ID != req.RequesterID {
		return nil, fmt.Errorf("%w: only the requester may resubmit", ErrNotAuthorized)
	}

	var restored models.RequisitionStatus
	if req.Status == models.StatusQueried && req.PreviousStatusOnQuery != nil {
		restored = *req.PreviousStatusOnQuery
	} else {
		restored = InitialStatus(req.Type, req.Department)
	}

	total := req.TotalCost
	switch req.Type {
	case models.TypeHistologyPayment:
		if len(input.HistologyItems) == 0 {
			return nil, ErrNoItems
		}
		total = 0
		for _, it := range input.HistologyItems {
			it.ID = newID()
			it.RequisitionID = req.ID
			total += it.OutsourceBills + it.InternalCharge
		}
		if err := e.histology.Replace(ctx, req.ID, input.HistologyItems); err != nil {
			return nil, fmt.Errorf("failed to replace histology items: %w", err)
		}
		req.HistologyItems = input.HistologyItems
	default:
		if err := validateItems(input.Items); err != nil {
			return nil, err
		}
		total = 0
		for _, it := range input.Items {
			it.ID = newID()
			it.RequisitionID = req.ID
			unit := it.EstimatedUnitCost
			if unit == 0 {
				unit = it.UnitPrice
			}
			total += float64(it.Quantity) * unit
		}
		if err := e.items.Replace(ctx, req.ID, input.Items); err != nil {
			return nil, fmt.Errorf("failed to replace items: %w", err)
		}
		req.Items = input.Items
	}

	upd := RequisitionUpdate{Status: restored, TotalCost: &total, ClearQuery: true}
	if err := e.transition(ctx, req, upd); err != nil {
		return nil, err
	}
	e.appendLog(ctx, req.ID, actor.ID, models.ActionResubmitted, "", "")
	e.notifier.Dispatch(ctx, e.approvers.FanOutOnResubmit(req, restored))

	req.Status = restored
	req.TotalCost = total
	req.QueriedTo = nil
	req.PreviousStatusOnQuery = nil
	return req, nil
}

// AddMessage appends to the requisition's discussion thread and notifies the
// requester unless they sent it.
func (e *Engine) AddMessage(ctx context.Context, actor *models.User, reqID, text string) error {
	req, err := e.load(ctx, reqID)
	if err != nil {
		return err
	}
	msg := &models.Message{RequisitionID: req.ID, SenderID: actor.ID, Text: text, CreatedAt: time.Now()}
	if err := e.messages.Insert(ctx, msg); err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}
	if req.RequesterID != actor.ID {
		e.notifier.Dispatch(ctx, []NotificationRequest{{
			Recipient:     Recipient{UserID: req.RequesterID},
			Message:       fmt.Sprintf("%s sent a message on requisition %s.", actor.Name, req.ID),
			RequisitionID: req.ID,
		}})
	}
	return nil
}

// load fetches the requisition header or maps absence to ErrNotFound.
func (e *Engine) load(ctx context.Context, id string) (*models.Requisition, error) {
	req, err := e.requisitions.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load requisition: %w", err)
	}
	if req == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return req, nil
}

// transition applies the guarded status update. A concurrent change between
// our read and the write surfaces as ErrConflict, never last-writer-wins.
func (e *Engine) transition(ctx context.Context, req *models.Requisition, upd RequisitionUpdate) error {
	applied, err := e.requisitions.ApplyTransition(ctx, req.ID, req.Status, upd)
	if err != nil {
		return fmt.Errorf("failed to update requisition: %w", err)
	}
	if !applied {
		return fmt.Errorf("%w: %s", ErrConflict, req.ID)
	}
	return nil
}

// appendLog writes an audit entry. The status update is already committed
// and authoritative, so an append failure is surfaced as a log line only.
func (e *Engine) appendLog(ctx context.Context, reqID, userID string, action models.LogAction, comment, signature string) {
	entry := &models.ApprovalLog{
		RequisitionID: reqID,
		UserID:        userID,
		Action:        action,
		Comment:       comment,
		Signature:     signature,
		CreatedAt:     time.Now(),
	}
	if err := e.log.Append(ctx, entry); err != nil {
		e.logger.Error("Failed to append approval log entry",
			zap.String("requisition_id", reqID),
			zap.String("action", string(action)),
			zap.Error(err))
	}
}

func (e *Engine) newRequisition(actor *models.User, t models.RequisitionType, status models.RequisitionStatus, total float64, sigs *models.SignatureSet) *models.Requisition {
	now := time.Now()
	return &models.Requisition{
		ID:          newID(),
		Type:        t,
		Department:  actor.Department,
		RequesterID: actor.ID,
		Status:      status,
		TotalCost:   total,
		Signatures:  sigs,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// createWithItems persists a header and its items, deleting the header when
// the items cannot be saved so no half-created requisition is ever visible.
func (e *Engine) createWithItems(ctx context.Context, actor *models.User, t models.RequisitionType, status models.RequisitionStatus, total float64, items []*models.Item, sigs *models.SignatureSet) (*models.Requisition, error) {
	req := e.newRequisition(actor, t, status, total, sigs)
	if err := e.requisitions.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create requisition: %w", err)
	}
	for _, it := range items {
		it.ID = newID()
		it.RequisitionID = req.ID
	}
	if err := e.items.Insert(ctx, items); err != nil {
		e.rollbackHeader(ctx, req.ID)
		return nil, fmt.Errorf("failed to save items: %w", err)
	}
	req.Items = items
	return req, nil
}

func (e *Engine) rollbackHeader(ctx context.Context, reqID string) {
	if err := e.requisitions.Delete(ctx, reqID); err != nil {
		e.logger.Error("Failed to roll back orphaned requisition",
			zap.String("requisition_id", reqID),
			zap.Error(err))
	}
}

func canCreate(actor *models.User) error {
	if actor.Role != models.RoleLabAdmin && actor.Role != models.RolePharmacyAdmin {
		return fmt.Errorf("%w: only Lab Admin and Pharmacy Admin create requisitions", ErrNotAuthorized)
	}
	return nil
}

func validateItems(items []*models.Item) error {
	if len(items) == 0 {
		return ErrNoItems
	}
	for _, it := range items {
		if it.Quantity <= 0 {
			return fmt.Errorf("%w: %q", ErrInvalidQuantity, it.Name)
		}
	}
	return nil
}

func newID() string {
	id, err := gonanoid.New(12)
	if err != nil {
		// crypto/rand failure; nothing sensible to do but stop
		panic(err)
	}
	return id
}
