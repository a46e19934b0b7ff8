package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zenithmed/procureflow/internal/models"
	"go.uber.org/zap"
)

// MessageRepository handles discussion thread database operations.
type MessageRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMessageRepository creates a new message repository.
func NewMessageRepository(db *sql.DB, logger *zap.Logger) *MessageRepository {
	return &MessageRepository{db: db, logger: logger}
}

// Insert saves a message.
func (r *MessageRepository) Insert(ctx context.Context, msg *models.Message) error {
	query := `
		INSERT INTO messages (requisition_id, sender_id, text, created_at)
		VALUES (?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query, msg.RequisitionID, msg.SenderID, msg.Text, msg.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert message", zap.String("requisition_id", msg.RequisitionID), zap.Error(err))
		return fmt.Errorf("failed to insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	msg.ID = id
	return nil
}

// ListByRequisition returns the thread in chronological order.
func (r *MessageRepository) ListByRequisition(ctx context.Context, requisitionID string) ([]*models.Message, error) {
	query := `
		SELECT m.id, m.requisition_id, m.sender_id, p.name, m.text, m.created_at
		FROM messages m
		LEFT JOIN profiles p ON p.id = m.sender_id
		WHERE m.requisition_id = ?
		ORDER BY m.created_at, m.id
	`
	rows, err := r.db.QueryContext(ctx, query, requisitionID)
	if err != nil {
		r.logger.Error("Failed to list messages", zap.String("requisition_id", requisitionID), zap.Error(err))
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var msgs []*models.Message
	for rows.Next() {
		var m models.Message
		var senderName sql.NullString
		if err := rows.Scan(&m.ID, &m.RequisitionID, &m.SenderID, &senderName, &m.Text, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.SenderName = senderName.String
		msgs = append(msgs, &m)
	}
	return msgs, rows.Err()
}
