package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/zenithmed/procureflow/internal/models"
	"github.com/zenithmed/procureflow/internal/workflow"
	"go.uber.org/zap"
)

// RequisitionRepository handles requisition header database operations.
type RequisitionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRequisitionRepository creates a new requisition repository.
func NewRequisitionRepository(db *sql.DB, logger *zap.Logger) *RequisitionRepository {
	return &RequisitionRepository{db: db, logger: logger}
}

// Create inserts a new requisition header.
func (r *RequisitionRepository) Create(ctx context.Context, req *models.Requisition) error {
	sigs, err := marshalSignatures(req.Signatures)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO requisitions (
			id, type, department, requester_id, status, total_cost,
			queried_to, previous_status_on_query, signatures, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		req.ID,
		req.Type,
		req.Department,
		req.RequesterID,
		req.Status,
		req.TotalCost,
		nullableDept(req.QueriedTo),
		nullableStatus(req.PreviousStatusOnQuery),
		sigs,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create requisition", zap.String("id", req.ID), zap.Error(err))
		return fmt.Errorf("failed to create requisition: %w", err)
	}
	return nil
}

// Get retrieves a requisition header by id. Returns (nil, nil) when absent.
func (r *RequisitionRepository) Get(ctx context.Context, id string) (*models.Requisition, error) {
	query := `
		SELECT r.id, r.type, r.department, r.requester_id, p.name, r.status,
			r.total_cost, r.queried_to, r.previous_status_on_query,
			r.signatures, r.created_at, r.updated_at
		FROM requisitions r
		LEFT JOIN profiles p ON p.id = r.requester_id
		WHERE r.id = ?
	`
	req, err := scanRequisition(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get requisition", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get requisition: %w", err)
	}
	return req, nil
}

// Delete removes a requisition header. Used only to roll back a creation
// whose items could not be persisted.
func (r *RequisitionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM requisitions WHERE id = ?`, id); err != nil {
		r.logger.Error("Failed to delete requisition", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete requisition: %w", err)
	}
	return nil
}

// ApplyTransition updates status, updated_at, and the optional transition
// fields, guarded by the expected current status. Returns false when the
// requisition no longer holds that status (a concurrent writer won).
func (r *RequisitionRepository) ApplyTransition(ctx context.Context, id string, expected models.RequisitionStatus, upd workflow.RequisitionUpdate) (bool, error) {
	query := `UPDATE requisitions SET status = ?, updated_at = ?`
	args := []interface{}{upd.Status, time.Now()}

	if upd.TotalCost != nil {
		query += `, total_cost = ?`
		args = append(args, *upd.TotalCost)
	}
	if upd.QueriedTo != nil || upd.PrevStatus != nil {
		query += `, queried_to = ?, previous_status_on_query = ?`
		args = append(args, nullableDept(upd.QueriedTo), nullableStatus(upd.PrevStatus))
	} else if upd.ClearQuery {
		query += `, queried_to = NULL, previous_status_on_query = NULL`
	}

	query += ` WHERE id = ? AND status = ?`
	args = append(args, id, expected)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to apply transition",
			zap.String("id", id),
			zap.String("to", string(upd.Status)),
			zap.Error(err))
		return false, fmt.Errorf("failed to apply transition: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected == 1, nil
}

// List retrieves requisition headers ordered by creation time descending.
func (r *RequisitionRepository) List(ctx context.Context, limit, offset int) ([]*models.Requisition, error) {
	query := `
		SELECT r.id, r.type, r.department, r.requester_id, p.name, r.status,
			r.total_cost, r.queried_to, r.previous_status_on_query,
			r.signatures, r.created_at, r.updated_at
		FROM requisitions r
		LEFT JOIN profiles p ON p.id = r.requester_id
		ORDER BY r.created_at DESC
		LIMIT ? OFFSET ?
	`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list requisitions", zap.Error(err))
		return nil, fmt.Errorf("failed to list requisitions: %w", err)
	}
	defer rows.Close()

	var reqs []*models.Requisition
	for rows.Next() {
		req, err := scanRequisition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan requisition: %w", err)
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRequisition(row rowScanner) (*models.Requisition, error) {
	var req models.Requisition
	var requesterName, queriedTo, prevStatus, sigs sql.NullString

	err := row.Scan(
		&req.ID,
		&req.Type,
		&req.Department,
		&req.RequesterID,
		&requesterName,
		&req.Status,
		&req.TotalCost,
		&queriedTo,
		&prevStatus,
		&sigs,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	req.RequesterName = requesterName.String
	if queriedTo.Valid {
		d := models.Department(queriedTo.String)
		req.QueriedTo = &d
	}
	if prevStatus.Valid {
		s := models.RequisitionStatus(prevStatus.String)
		req.PreviousStatusOnQuery = &s
	}
	if sigs.Valid && sigs.String != "" {
		var set models.SignatureSet
		if err := json.Unmarshal([]byte(sigs.String), &set); err != nil {
			return nil, fmt.Errorf("failed to decode signatures: %w", err)
		}
		req.Signatures = &set
	}
	return &req, nil
}

func marshalSignatures(set *models.SignatureSet) (sql.NullString, error) {
	if set == nil {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(set)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode signatures: %w", err)
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func nullableDept(d *models.Department) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*d), Valid: true}
}

func nullableStatus(s *models.RequisitionStatus) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*s), Valid: true}
}
