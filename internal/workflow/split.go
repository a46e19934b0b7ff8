package workflow

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/zenithmed/procureflow/internal/models"
)

// MiscellaneousSupplier is the shared bucket for items without a supplier.
const MiscellaneousSupplier = "miscellaneous supplier"

// GroupFailure records one supplier group that could not be created.
type GroupFailure struct {
	Supplier string
	Err      error
}

// SplitError reports the supplier groups that failed during a multi-supplier
// purchase order submission. Groups already committed stand.
type SplitError struct {
	Failures []GroupFailure
}

func (e *SplitError) Error() string {
	names := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		names[i] = f.Supplier
	}
	return fmt.Sprintf("failed to create purchase order for supplier group(s): %s", strings.Join(names, ", "))
}

// SubmitPurchaseOrder partitions the items by supplier (trimmed,
// case-insensitive; items without one share the miscellaneous bucket) and
// creates one independent requisition per group, each with its own id,
// initial status, total, Submitted log entry, and fan-out. Each group
// succeeds or fails on its own; item persistence failure rolls back that
// group's header only.
func (e *Engine) SubmitPurchaseOrder(ctx context.Context, actor *models.User, items []*models.Item, sigs *models.SignatureSet) ([]*models.Requisition, error) {
	if err := canCreate(actor); err != nil {
		return nil, err
	}
	if err := validateItems(items); err != nil {
		return nil, err
	}
	if actor.Department == models.DepartmentLab {
		if sigs == nil || sigs.PreparedBy == nil || sigs.LevelConfirmedBy == nil {
			return nil, fmt.Errorf("%w: Lab purchase orders need preparedBy and levelConfirmedBy", ErrSignatureRequired)
		}
	}

	groups := partitionBySupplier(items)
	suppliers := make([]string, 0, len(groups))
	for s := range groups {
		suppliers = append(suppliers, s)
	}
	sort.Strings(suppliers)

	initial := InitialStatus(models.TypePurchaseOrder, actor.Department)

	var created []*models.Requisition
	var failures []GroupFailure
	for _, supplier := range suppliers {
		group := groups[supplier]

		// Pharmacy knows prices at creation; Lab totals stay zero until the
		// store prices the order.
		total := 0.0
		if actor.Department == models.DepartmentPharmacy {
			for _, it := range group {
				total += float64(it.Quantity) * it.UnitPrice
			}
		}

		if supplier != MiscellaneousSupplier {
			for _, it := range group {
				it.Supplier = supplier
			}
		}

		req, err := e.createWithItems(ctx, actor, models.TypePurchaseOrder, initial, total, group, sigs)
		if err != nil {
			failures = append(failures, GroupFailure{Supplier: supplier, Err: err})
			continue
		}
		created = append(created, req)

		e.appendLog(ctx, req.ID, actor.ID, models.ActionSubmitted, "", "")
		e.notifier.Dispatch(ctx, e.approvers.FanOutOnSubmit(req, supplier))
	}

	if len(failures) > 0 {
		return created, &SplitError{Failures: failures}
	}
	return created, nil
}

// partitionBySupplier groups items by normalized supplier name.
func partitionBySupplier(items []*models.Item) map[string][]*models.Item {
	groups := make(map[string][]*models.Item)
	for _, it := range items {
		key := strings.ToLower(strings.TrimSpace(it.Supplier))
		if key == "" {
			key = MiscellaneousSupplier
		}
		groups[key] = append(groups[key], it)
	}
	return groups
}
