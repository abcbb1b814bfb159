package models

import "time"

// ExportBatchStatus is the container-level status of a customer allocation.
type ExportBatchStatus string

const (
	ExportBatchAwaitingHandover ExportBatchStatus = "AWAITING_HANDOVER"
	ExportBatchHandedOver       ExportBatchStatus = "HANDED_OVER"
)

// ExportDetailStatus is the per-unit membership status inside an export batch.
type ExportDetailStatus string

const (
	ExportDetailAwaitingHandover ExportDetailStatus = "AWAITING_HANDOVER"
	ExportDetailHandedOver       ExportDetailStatus = "HANDED_OVER"
	ExportDetailCancelled        ExportDetailStatus = "CANCELLED"
)

// ExportBatch is a named customer's allocation under a procurement package.
// Remaining counts still-unassigned slots: it is decremented as units are
// assigned and incremented when they are removed, and never goes negative.
type ExportBatch struct {
	ID           string            `bson:"_id"`
	PackageID    string            `bson:"packageId"`
	SpeciesID    string            `bson:"speciesId"`
	CustomerName string            `bson:"customerName"`
	Total        int               `bson:"total"`
	Remaining    int               `bson:"remaining"`
	Status       ExportBatchStatus `bson:"status"`
	HandoverDate *time.Time        `bson:"handoverDate,omitempty"`
	CreatedAt    time.Time         `bson:"createdAt"`
	UpdatedAt    time.Time         `bson:"updatedAt"`
}

// ExportDetail links one unit into an export batch.
type ExportDetail struct {
	ID                  string             `bson:"_id"`
	BatchID             string             `bson:"batchId"`
	UnitID              string             `bson:"unitId"`
	Status              ExportDetailStatus `bson:"status"`
	HandoverDate        *time.Time         `bson:"handoverDate,omitempty"`
	ExportDate          *time.Time         `bson:"exportDate,omitempty"`
	InsuranceExpiryDate *time.Time         `bson:"insuranceExpiryDate,omitempty"`
	CreatedAt           time.Time          `bson:"createdAt"`
	UpdatedAt           time.Time          `bson:"updatedAt"`
}

// Active reports whether the detail still occupies a slot of its batch.
func (d ExportDetail) Active() bool {
	return d.Status != ExportDetailCancelled
}
