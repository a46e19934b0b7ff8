package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zenithmed/procureflow/internal/models"
	"go.uber.org/zap"
)

// HistologyRepository handles histology item database operations.
type HistologyRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHistologyRepository creates a new histology repository.
func NewHistologyRepository(db *sql.DB, logger *zap.Logger) *HistologyRepository {
	return &HistologyRepository{db: db, logger: logger}
}

// Insert saves the histology items for a requisition.
func (r *HistologyRepository) Insert(ctx context.Context, items []*models.HistologyItem) error {
	query := `
		INSERT INTO histology_items (
			id, requisition_id, service_date, patient_name, hospital_no,
			lab_no, receipt_no, outsource_service, outsource_bills,
			internal_charge, retainership
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, it := range items {
		_, err := r.db.ExecContext(ctx, query,
			it.ID,
			it.RequisitionID,
			it.ServiceDate,
			it.PatientName,
			it.HospitalNo,
			it.LabNo,
			it.ReceiptNo,
			it.OutsourceService,
			it.OutsourceBills,
			it.InternalCharge,
			it.Retainership,
		)
		if err != nil {
			r.logger.Error("Failed to insert histology item",
				zap.String("requisition_id", it.RequisitionID),
				zap.Error(err))
			return fmt.Errorf("failed to insert histology item: %w", err)
		}
	}
	return nil
}

// Replace removes a requisition's histology items and inserts the
// replacement set.
func (r *HistologyRepository) Replace(ctx context.Context, requisitionID string, items []*models.HistologyItem) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM histology_items WHERE requisition_id = ?`, requisitionID); err != nil {
		r.logger.Error("Failed to clear histology items", zap.String("requisition_id", requisitionID), zap.Error(err))
		return fmt.Errorf("failed to clear histology items: %w", err)
	}
	return r.Insert(ctx, items)
}

// ListByRequisition returns a requisition's histology items.
func (r *HistologyRepository) ListByRequisition(ctx context.Context, requisitionID string) ([]*models.HistologyItem, error) {
	query := `
		SELECT id, requisition_id, service_date, patient_name, hospital_no,
			lab_no, receipt_no, outsource_service, outsource_bills,
			internal_charge, retainership
		FROM histology_items
		WHERE requisition_id = ?
		ORDER BY rowid
	`
	rows, err := r.db.QueryContext(ctx, query, requisitionID)
	if err != nil {
		r.logger.Error("Failed to list histology items", zap.String("requisition_id", requisitionID), zap.Error(err))
		return nil, fmt.Errorf("failed to list histology items: %w", err)
	}
	defer rows.Close()

	var items []*models.HistologyItem
	for rows.Next() {
		var it models.HistologyItem
		err := rows.Scan(
			&it.ID,
			&it.RequisitionID,
			&it.ServiceDate,
			&it.PatientName,
			&it.HospitalNo,
			&it.LabNo,
			&it.ReceiptNo,
			&it.OutsourceService,
			&it.OutsourceBills,
			&it.InternalCharge,
			&it.Retainership,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan histology item: %w", err)
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}
