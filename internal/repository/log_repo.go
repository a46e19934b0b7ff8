package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zenithmed/procureflow/internal/models"
	"go.uber.org/zap"
)

// ApprovalLogRepository handles audit trail database operations. The trail
// is append-only: this repository exposes no update or delete.
type ApprovalLogRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewApprovalLogRepository creates a new approval log repository.
func NewApprovalLogRepository(db *sql.DB, logger *zap.Logger) *ApprovalLogRepository {
	return &ApprovalLogRepository{db: db, logger: logger}
}

// Append writes one audit entry.
func (r *ApprovalLogRepository) Append(ctx context.Context, entry *models.ApprovalLog) error {
	query := `
		INSERT INTO approval_logs (requisition_id, user_id, action, comment, signature, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		entry.RequisitionID,
		entry.UserID,
		entry.Action,
		entry.Comment,
		entry.Signature,
		entry.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to append approval log",
			zap.String("requisition_id", entry.RequisitionID),
			zap.String("action", string(entry.Action)),
			zap.Error(err))
		return fmt.Errorf("failed to append approval log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	entry.ID = id
	return nil
}

// ListByRequisition returns the audit trail in timestamp order.
func (r *ApprovalLogRepository) ListByRequisition(ctx context.Context, requisitionID string) ([]*models.ApprovalLog, error) {
	query := `
		SELECT l.id, l.requisition_id, l.user_id, p.name, l.action,
			l.comment, l.signature, l.created_at
		FROM approval_logs l
		LEFT JOIN profiles p ON p.id = l.user_id
		WHERE l.requisition_id = ?
		ORDER BY l.created_at, l.id
	`
	rows, err := r.db.QueryContext(ctx, query, requisitionID)
	if err != nil {
		r.logger.Error("Failed to list approval log", zap.String("requisition_id", requisitionID), zap.Error(err))
		return nil, fmt.Errorf("failed to list approval log: %w", err)
	}
	defer rows.Close()

	var entries []*models.ApprovalLog
	for rows.Next() {
		var e models.ApprovalLog
		var userName sql.NullString
		err := rows.Scan(
			&e.ID,
			&e.RequisitionID,
			&e.UserID,
			&userName,
			&e.Action,
			&e.Comment,
			&e.Signature,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval log entry: %w", err)
		}
		e.UserName = userName.String
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
