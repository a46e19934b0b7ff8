package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/zenithmed/procureflow/internal/models"
	"github.com/zenithmed/procureflow/internal/workflow"
	"go.uber.org/zap"
)

var (
	// ErrNotPayable is returned when the requisition is not in a payable
	// status.
	ErrNotPayable = errors.New("requisition is not in a payable status")

	// ErrInvalidAmount is returned for zero or negative payment amounts.
	ErrInvalidAmount = errors.New("payment amount must be positive")

	// ErrOverpayment is returned when a payment would exceed the
	// outstanding balance. This invariant is never relaxed.
	ErrOverpayment = errors.New("payment exceeds outstanding balance")

	// ErrBalanceOutstanding is returned when mark-as-paid is attempted
	// before the balance reaches zero.
	ErrBalanceOutstanding = errors.New("outstanding balance must be zero to mark as paid")

	// ErrAlreadyPaid is returned when the requisition is already Paid.
	ErrAlreadyPaid = errors.New("requisition is already marked as paid")
)

// Store persists payment rows and answers the running total.
type Store interface {
	Insert(ctx context.Context, p *models.Payment) error
	SumByRequisition(ctx context.Context, requisitionID string) (float64, error)
}

// Ledger tracks partial payments against an approved requisition's total and
// derives the fully-paid terminal state. All operations are restricted to
// the Accounts role.
type Ledger struct {
	requisitions workflow.RequisitionStore
	payments     Store
	log          workflow.LogStore
	logger       *zap.Logger
}

// NewLedger creates a payment ledger.
func NewLedger(requisitions workflow.RequisitionStore, payments Store, log workflow.LogStore, logger *zap.Logger) *Ledger {
	return &Ledger{requisitions: requisitions, payments: payments, log: log, logger: logger}
}

// AddPayment records a partial payment. The amount must be positive and must
// not exceed the outstanding balance. On success the payment row is
// persisted with the optional proof reference, a "Payment Added" entry is
// appended, and the requisition moves to Payment Processing (a no-op if
// already there).
func (l *Ledger) AddPayment(ctx context.Context, actor *models.User, reqID string, amount float64, date string, proofPath string) (*models.Payment, error) {
	if actor.Role != models.RoleAccounts {
		return nil, fmt.Errorf("%w: payments are restricted to the %s role", workflow.ErrNotAuthorized, models.RoleAccounts)
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	req, err := l.load(ctx, reqID)
	if err != nil {
		return nil, err
	}
	if !workflow.IsPayable(req.Status) {
		return nil, fmt.Errorf("%w: status is %q", ErrNotPayable, req.Status)
	}

	paid, err := l.payments.SumByRequisition(ctx, req.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum payments: %w", err)
	}
	outstanding := req.TotalCost - paid
	if amount > outstanding {
		return nil, fmt.Errorf("%w: amount %.2f, outstanding %.2f", ErrOverpayment, amount, outstanding)
	}

	id, err := gonanoid.New(12)
	if err != nil {
		return nil, fmt.Errorf("failed to generate payment id: %w", err)
	}
	p := &models.Payment{
		ID:            id,
		RequisitionID: req.ID,
		Amount:        amount,
		Date:          date,
		ProofPath:     proofPath,
		RecordedByID:  actor.ID,
		CreatedAt:     time.Now(),
	}
	if err := l.payments.Insert(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save payment: %w", err)
	}

	if req.Status != models.StatusPaymentProcessing {
		applied, err := l.requisitions.ApplyTransition(ctx, req.ID, req.Status,
			workflow.RequisitionUpdate{Status: models.StatusPaymentProcessing})
		if err != nil {
			return nil, fmt.Errorf("payment saved, but failed to update requisition status: %w", err)
		}
		if !applied {
			return nil, fmt.Errorf("payment saved, but %w", workflow.ErrConflict)
		}
	}

	l.appendLog(ctx, req.ID, actor.ID, models.ActionPaymentAdded, fmt.Sprintf("NGN %.2f", amount))
	return p, nil
}

// MarkAsPaid sets the terminal Paid status. It is permitted only when the
// outstanding balance is exactly zero and the requisition is not already
// Paid.
func (l *Ledger) MarkAsPaid(ctx context.Context, actor *models.User, reqID string) error {
	if actor.Role != models.RoleAccounts {
		return fmt.Errorf("%w: payments are restricted to the %s role", workflow.ErrNotAuthorized, models.RoleAccounts)
	}

	req, err := l.load(ctx, reqID)
	if err != nil {
		return err
	}
	if req.Status == models.StatusPaid {
		return ErrAlreadyPaid
	}
	if !workflow.IsPayable(req.Status) {
		return fmt.Errorf("%w: status is %q", ErrNotPayable, req.Status)
	}

	paid, err := l.payments.SumByRequisition(ctx, req.ID)
	if err != nil {
		return fmt.Errorf("failed to sum payments: %w", err)
	}
	if outstanding := req.TotalCost - paid; outstanding != 0 {
		return fmt.Errorf("%w: %.2f remaining", ErrBalanceOutstanding, outstanding)
	}

	applied, err := l.requisitions.ApplyTransition(ctx, req.ID, req.Status,
		workflow.RequisitionUpdate{Status: models.StatusPaid})
	if err != nil {
		return fmt.Errorf("failed to update status to Paid: %w", err)
	}
	if !applied {
		return fmt.Errorf("mark as paid: %w", workflow.ErrConflict)
	}

	l.appendLog(ctx, req.ID, actor.ID, models.ActionMarkedAsPaid, "")
	return nil
}

// Outstanding returns total cost minus the sum of recorded payments.
func (l *Ledger) Outstanding(ctx context.Context, reqID string) (float64, error) {
	req, err := l.load(ctx, reqID)
	if err != nil {
		return 0, err
	}
	paid, err := l.payments.SumByRequisition(ctx, req.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to sum payments: %w", err)
	}
	return req.TotalCost - paid, nil
}

func (l *Ledger) load(ctx context.Context, id string) (*models.Requisition, error) {
	req, err := l.requisitions.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load requisition: %w", err)
	}
	if req == nil {
		return nil, fmt.Errorf("%w: %s", workflow.ErrNotFound, id)
	}
	return req, nil
}

// appendLog failure is soft; the primary mutation is already committed.
func (l *Ledger) appendLog(ctx context.Context, reqID, userID string, action models.LogAction, comment string) {
	entry := &models.ApprovalLog{
		RequisitionID: reqID,
		UserID:        userID,
		Action:        action,
		Comment:       comment,
		CreatedAt:     time.Now(),
	}
	if err := l.log.Append(ctx, entry); err != nil {
		l.logger.Error("Failed to append payment log entry",
			zap.String("requisition_id", reqID),
			zap.String("action", string(action)),
			zap.Error(err))
	}
}
