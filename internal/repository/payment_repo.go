package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zenithmed/procureflow/internal/models"
	"go.uber.org/zap"
)

// PaymentRepository handles payment database operations.
type PaymentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPaymentRepository creates a new payment repository.
func NewPaymentRepository(db *sql.DB, logger *zap.Logger) *PaymentRepository {
	return &PaymentRepository{db: db, logger: logger}
}

// Insert saves a payment row.
func (r *PaymentRepository) Insert(ctx context.Context, p *models.Payment) error {
	query := `
		INSERT INTO payments (id, requisition_id, amount, pay_date, proof_path, recorded_by_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.RequisitionID,
		p.Amount,
		p.Date,
		p.ProofPath,
		p.RecordedByID,
		p.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to insert payment",
			zap.String("requisition_id", p.RequisitionID),
			zap.Float64("amount", p.Amount),
			zap.Error(err))
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

// SumByRequisition returns the total amount already paid.
func (r *PaymentRepository) SumByRequisition(ctx context.Context, requisitionID string) (float64, error) {
	var sum float64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE requisition_id = ?`,
		requisitionID,
	).Scan(&sum)
	if err != nil {
		r.logger.Error("Failed to sum payments", zap.String("requisition_id", requisitionID), zap.Error(err))
		return 0, fmt.Errorf("failed to sum payments: %w", err)
	}
	return sum, nil
}

// ListByRequisition returns a requisition's payments in recording order.
func (r *PaymentRepository) ListByRequisition(ctx context.Context, requisitionID string) ([]*models.Payment, error) {
	query := `
		SELECT y.id, y.requisition_id, y.amount, y.pay_date, y.proof_path,
			y.recorded_by_id, p.name, y.created_at
		FROM payments y
		LEFT JOIN profiles p ON p.id = y.recorded_by_id
		WHERE y.requisition_id = ?
		ORDER BY y.created_at, y.id
	`
	rows, err := r.db.QueryContext(ctx, query, requisitionID)
	if err != nil {
		r.logger.Error("Failed to list payments", zap.String("requisition_id", requisitionID), zap.Error(err))
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		var p models.Payment
		var recordedBy sql.NullString
		err := rows.Scan(
			&p.ID,
			&p.RequisitionID,
			&p.Amount,
			&p.Date,
			&p.ProofPath,
			&p.RecordedByID,
			&recordedBy,
			&p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		p.RecordedByName = recordedBy.String
		payments = append(payments, &p)
	}
	return payments, rows.Err()
}
