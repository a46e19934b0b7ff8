package workflow

import "errors"

var (
	// ErrNotFound is returned when the target requisition does not exist.
	ErrNotFound = errors.New("requisition not found")

	// ErrInvalidTransition is returned when the requested action is not
	// legal from the requisition's current status.
	ErrInvalidTransition = errors.New("invalid transition for current status")

	// ErrNotAuthorized is returned when the acting identity's role, or the
	// named-approver binding for the current stage, does not permit the
	// action.
	ErrNotAuthorized = errors.New("actor not authorized for this action")

	// ErrConflict is returned when the requisition changed concurrently
	// between read and write.
	ErrConflict = errors.New("requisition was modified concurrently")

	// ErrNoItems is returned when a submission carries no line items.
	ErrNoItems = errors.New("at least one item is required")

	// ErrInvalidQuantity is returned when a line item quantity is not a
	// positive integer.
	ErrInvalidQuantity = errors.New("item quantity must be a positive integer")

	// ErrSignatureRequired is returned when a submission is missing a
	// mandatory signature slot.
	ErrSignatureRequired = errors.New("signature required before submission")

	// ErrCommentRequired is returned when an action that needs a reason is
	// attempted without one.
	ErrCommentRequired = errors.New("comment required for this action")

	// ErrQueryTargetRequired is returned when a query names no department
	// to respond.
	ErrQueryTargetRequired = errors.New("query must name the department to respond")

	// ErrMissingPrices is returned when pricing leaves an item without a
	// unit price.
	ErrMissingPrices = errors.New("every item must be given a unit price")
)
