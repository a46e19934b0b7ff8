package models

import "time"

// Notification is a durable in-app notification. Delivery over an external
// transport is best-effort and separate from the record itself.
type Notification struct {
	ID            int64     `json:"id"`
	RecipientID   string    `json:"recipient_id"`
	Message       string    `json:"message"`
	RequisitionID string    `json:"requisition_id"`
	Read          bool      `json:"read"`
	CreatedAt     time.Time `json:"created_at"`
}
