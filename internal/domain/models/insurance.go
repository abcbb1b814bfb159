package models

import "time"

// InsuranceStatus is the replacement workflow state machine.
type InsuranceStatus string

const (
	InsurancePending          InsuranceStatus = "PENDING"
	InsurancePreparing        InsuranceStatus = "PREPARING"
	InsuranceAwaitingHandover InsuranceStatus = "AWAITING_HANDOVER"
	InsuranceCompleted        InsuranceStatus = "COMPLETED"
	InsuranceRejected         InsuranceStatus = "REJECTED"
	InsuranceCancelled        InsuranceStatus = "CANCELLED"
)

// InsuranceRequest tracks a warranty replacement: a previously exported unit
// failed under warranty and the customer is owed a replacement. The
// replacement is swappable until handover; ReturnOriginal records whether the
// original unit is recalled to the farm on completion.
type InsuranceRequest struct {
	ID                string          `bson:"_id"`
	OriginalUnitID    string          `bson:"originalUnitId"`
	ReplacementUnitID string          `bson:"replacementUnitId,omitempty"`
	ExportDetailID    string          `bson:"exportDetailId,omitempty"`
	Status            InsuranceStatus `bson:"status"`
	Reason            string          `bson:"reason,omitempty"`
	ReturnOriginal    bool            `bson:"returnOriginal"`
	RequestedBy       string          `bson:"requestedBy,omitempty"`
	HandoverDate      *time.Time      `bson:"handoverDate,omitempty"`
	CreatedAt         time.Time       `bson:"createdAt"`
	UpdatedAt         time.Time       `bson:"updatedAt"`
}

// Open reports whether the request can still change state.
func (r InsuranceRequest) Open() bool {
	switch r.Status {
	case InsuranceCompleted, InsuranceRejected, InsuranceCancelled:
		return false
	}
	return true
}
