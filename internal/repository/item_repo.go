package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zenithmed/procureflow/internal/models"
	"go.uber.org/zap"
)

// ItemRepository handles line item database operations.
type ItemRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewItemRepository creates a new item repository.
func NewItemRepository(db *sql.DB, logger *zap.Logger) *ItemRepository {
	return &ItemRepository{db: db, logger: logger}
}

// Insert saves the items for a requisition.
func (r *ItemRepository) Insert(ctx context.Context, items []*models.Item) error {
	query := `
		INSERT INTO requisition_items (
			id, requisition_id, name, quantity, description, supplier,
			estimated_unit_cost, stock_level, unit_price
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, it := range items {
		_, err := r.db.ExecContext(ctx, query,
			it.ID,
			it.RequisitionID,
			it.Name,
			it.Quantity,
			it.Description,
			it.Supplier,
			it.EstimatedUnitCost,
			it.StockLevel,
			it.UnitPrice,
		)
		if err != nil {
			r.logger.Error("Failed to insert item",
				zap.String("requisition_id", it.RequisitionID),
				zap.String("name", it.Name),
				zap.Error(err))
			return fmt.Errorf("failed to insert item %q: %w", it.Name, err)
		}
	}
	return nil
}

// Replace removes a requisition's items and inserts the replacement set.
func (r *ItemRepository) Replace(ctx context.Context, requisitionID string, items []*models.Item) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM requisition_items WHERE requisition_id = ?`, requisitionID); err != nil {
		r.logger.Error("Failed to clear items", zap.String("requisition_id", requisitionID), zap.Error(err))
		return fmt.Errorf("failed to clear items: %w", err)
	}
	return r.Insert(ctx, items)
}

// SetUnitPrice records the store-supplied unit price for one item.
func (r *ItemRepository) SetUnitPrice(ctx context.Context, itemID string, price float64) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE requisition_items SET unit_price = ? WHERE id = ?`, price, itemID); err != nil {
		r.logger.Error("Failed to set unit price", zap.String("item_id", itemID), zap.Error(err))
		return fmt.Errorf("failed to set unit price: %w", err)
	}
	return nil
}

// ListByRequisition returns a requisition's items in insertion order.
func (r *ItemRepository) ListByRequisition(ctx context.Context, requisitionID string) ([]*models.Item, error) {
	query := `
		SELECT id, requisition_id, name, quantity, description, supplier,
			estimated_unit_cost, stock_level, unit_price
		FROM requisition_items
		WHERE requisition_id = ?
		ORDER BY rowid
	`
	rows, err := r.db.QueryContext(ctx, query, requisitionID)
	if err != nil {
		r.logger.Error("Failed to list items", zap.String("requisition_id", requisitionID), zap.Error(err))
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []*models.Item
	for rows.Next() {
		var it models.Item
		err := rows.Scan(
			&it.ID,
			&it.RequisitionID,
			&it.Name,
			&it.Quantity,
			&it.Description,
			&it.Supplier,
			&it.EstimatedUnitCost,
			&it.StockLevel,
			&it.UnitPrice,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}
