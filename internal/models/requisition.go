package models

import "time"

// RequisitionType is fixed at creation and never changes.
type RequisitionType string

const (
	TypeStandard         RequisitionType = "STANDARD"
	TypePurchaseOrder    RequisitionType = "PURCHASE_ORDER"
	TypeHistologyPayment RequisitionType = "HISTOLOGY_PAYMENT"
)

// RequisitionStatus is a lifecycle state. The reachable states depend on the
// requisition type; see the workflow package for the transition tables.
type RequisitionStatus string

const (
	// Standard flow
	StatusPendingApproval RequisitionStatus = "Pending Approval"
	StatusApproved        RequisitionStatus = "Approved"

	// Purchase order flow
	StatusPendingChairmanReview RequisitionStatus = "Pending Chairman Review"
	StatusPendingStorePricing   RequisitionStatus = "Pending Store Pricing"
	StatusPendingAuditorReview  RequisitionStatus = "Pending Auditor Review"
	StatusPendingFinalApproval  RequisitionStatus = "Pending Final Approval"
	StatusPOCompleted           RequisitionStatus = "Purchase Order Completed"

	// Histology flow
	StatusPendingAuditorApproval  RequisitionStatus = "Pending Auditor Approval"
	StatusPendingChairmanApproval RequisitionStatus = "Pending Chairman Approval"
	StatusHistologyApproved       RequisitionStatus = "Histology Approved"

	// Payment flow
	StatusPaymentProcessing RequisitionStatus = "Payment Processing"
	StatusPaid              RequisitionStatus = "Paid"

	// Common
	StatusQueried  RequisitionStatus = "Queried"
	StatusRejected RequisitionStatus = "Rejected"

	// Deprecated: legacy terminal state on old standard requisitions. No
	// transition produces it; StatusPaid is the sole payment terminal.
	StatusProcessed RequisitionStatus = "Processed"
)

// LogAction tags an approval log entry.
type LogAction string

const (
	ActionSubmitted    LogAction = "Submitted"
	ActionApproved     LogAction = "Approved"
	ActionQueried      LogAction = "Queried"
	ActionRejected     LogAction = "Rejected"
	ActionPriced       LogAction = "Priced"
	ActionReviewed     LogAction = "Reviewed"
	ActionPaymentAdded LogAction = "Payment Added"
	ActionMarkedAsPaid LogAction = "Marked as Paid"
	ActionResubmitted  LogAction = "Resubmitted"
)

// Signature is one immutable named signature slot entry.
type Signature struct {
	Name      string    `json:"name"`
	Signature string    `json:"signature"` // base64 data URL
	Timestamp time.Time `json:"timestamp"`
}

// SignatureSet holds the optional named slots on a requisition. Each slot is
// set at most once.
type SignatureSet struct {
	PreparedBy       *Signature `json:"preparedBy,omitempty"`
	LevelConfirmedBy *Signature `json:"levelConfirmedBy,omitempty"`
	CheckedBy        *Signature `json:"checkedBy,omitempty"`
}

// Requisition is the central tracked entity. It is mutated only through
// workflow engine transitions.
type Requisition struct {
	ID                    string             `json:"id"`
	Type                  RequisitionType    `json:"type"`
	Department            Department         `json:"department"`
	RequesterID           string             `json:"requester_id"`
	RequesterName         string             `json:"requester_name,omitempty"`
	Status                RequisitionStatus  `json:"status"`
	TotalCost             float64            `json:"total_cost"`
	QueriedTo             *Department        `json:"queried_to,omitempty"`
	PreviousStatusOnQuery *RequisitionStatus `json:"previous_status_on_query,omitempty"`
	Signatures            *SignatureSet      `json:"signatures,omitempty"`
	CreatedAt             time.Time          `json:"created_at"`
	UpdatedAt             time.Time          `json:"updated_at"`

	// Relational data, loaded on demand.
	Items          []*Item          `json:"items,omitempty"`
	HistologyItems []*HistologyItem `json:"histology_items,omitempty"`
	Log            []*ApprovalLog   `json:"log,omitempty"`
	Messages       []*Message       `json:"messages,omitempty"`
	Payments       []*Payment       `json:"payments,omitempty"`
}

// Item is a line item on a standard requisition or purchase order.
type Item struct {
	ID                string  `json:"id"`
	RequisitionID     string  `json:"requisition_id"`
	Name              string  `json:"name"`
	Quantity          int     `json:"quantity"`
	Description       string  `json:"description"`
	Supplier          string  `json:"supplier,omitempty"`
	EstimatedUnitCost float64 `json:"estimated_unit_cost,omitempty"` // standard requisitions
	StockLevel        int     `json:"stock_level,omitempty"`         // purchase orders
	UnitPrice         float64 `json:"unit_price,omitempty"`          // purchase orders, set by store
}

// HistologyItem is a line item on a histology payment requisition.
type HistologyItem struct {
	ID               string  `json:"id"`
	RequisitionID    string  `json:"requisition_id"`
	ServiceDate      string  `json:"service_date"`
	PatientName      string  `json:"patient_name"`
	HospitalNo       string  `json:"hospital_no"`
	LabNo            string  `json:"lab_no"`
	ReceiptNo        string  `json:"receipt_no"`
	OutsourceService string  `json:"outsource_service"`
	OutsourceBills   float64 `json:"outsource_bills"`
	InternalCharge   float64 `json:"internal_charge"`
	Retainership     string  `json:"retainership"`
}

// ApprovalLog is one immutable audit trail entry. The log repository exposes
// append and list only; entries are never updated or removed.
type ApprovalLog struct {
	ID            int64     `json:"id"`
	RequisitionID string    `json:"requisition_id"`
	UserID        string    `json:"user_id"`
	UserName      string    `json:"user_name,omitempty"`
	Action        LogAction `json:"action"`
	Comment       string    `json:"comment,omitempty"`
	Signature     string    `json:"signature,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Message is one entry in a requisition's discussion thread.
type Message struct {
	ID            int64     `json:"id"`
	RequisitionID string    `json:"requisition_id"`
	SenderID      string    `json:"sender_id"`
	SenderName    string    `json:"sender_name,omitempty"`
	Text          string    `json:"text"`
	CreatedAt     time.Time `json:"created_at"`
}

// Payment is a partial payment recorded against an approved requisition.
type Payment struct {
	ID             string    `json:"id"`
	RequisitionID  string    `json:"requisition_id"`
	Amount         float64   `json:"amount"`
	Date           string    `json:"date"`
	ProofPath      string    `json:"proof_path,omitempty"`
	RecordedByID   string    `json:"recorded_by_id"`
	RecordedByName string    `json:"recorded_by_name,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
