package workflow

import (
	"context"

	"github.com/zenithmed/procureflow/internal/models"
)

// RequisitionUpdate carries the fields a transition writes. The store applies
// it together with updated_at, guarded by the expected current status.
type RequisitionUpdate struct {
	Status     models.RequisitionStatus
	TotalCost  *float64
	QueriedTo  *models.Department
	PrevStatus *models.RequisitionStatus
	ClearQuery bool
}

// RequisitionStore is the persistence the engine needs for requisition
// headers. Get returns (nil, nil) when the id is unknown. ApplyTransition
// must be atomic and return false when the requisition no longer holds the
// expected status.
type RequisitionStore interface {
	Get(ctx context.Context, id string) (*models.Requisition, error)
	Create(ctx context.Context, req *models.Requisition) error
	Delete(ctx context.Context, id string) error
	ApplyTransition(ctx context.Context, id string, expected models.RequisitionStatus, upd RequisitionUpdate) (bool, error)
}

// ItemStore persists purchase-order and standard line items.
type ItemStore interface {
	Insert(ctx context.Context, items []*models.Item) error
	Replace(ctx context.Context, requisitionID string, items []*models.Item) error
	SetUnitPrice(ctx context.Context, itemID string, price float64) error
	ListByRequisition(ctx context.Context, requisitionID string) ([]*models.Item, error)
}

// HistologyStore persists histology payment items.
type HistologyStore interface {
	Insert(ctx context.Context, items []*models.HistologyItem) error
	Replace(ctx context.Context, requisitionID string, items []*models.HistologyItem) error
}

// LogStore appends to the immutable audit trail. There is deliberately no
// update or delete.
type LogStore interface {
	Append(ctx context.Context, entry *models.ApprovalLog) error
}

// MessageStore persists the discussion thread.
type MessageStore interface {
	Insert(ctx context.Context, msg *models.Message) error
}

// Notifier receives fan-out requests. Dispatch is fire-and-forget: failures
// are the dispatcher's to log and must never fail a committed transition.
type Notifier interface {
	Dispatch(ctx context.Context, requests []NotificationRequest)
}
