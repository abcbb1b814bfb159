package models

import "time"

// ImportBatchStatus is the container-level status of an import batch.
type ImportBatchStatus string

const (
	ImportBatchAwaiting  ImportBatchStatus = "AWAITING_IMPORT"
	ImportBatchImporting ImportBatchStatus = "IMPORTING"
	ImportBatchCompleted ImportBatchStatus = "COMPLETED"
	ImportBatchCancelled ImportBatchStatus = "CANCELLED"
)

// ImportDetailStatus is the per-unit membership status inside an import batch.
// It deliberately mirrors only a subset of the batch states.
type ImportDetailStatus string

const (
	ImportDetailAwaiting  ImportDetailStatus = "AWAITING_IMPORT"
	ImportDetailImported  ImportDetailStatus = "IMPORTED"
	ImportDetailCancelled ImportDetailStatus = "CANCELLED"
)

// ImportBatch groups livestock units arriving from one supplier intake.
type ImportBatch struct {
	ID                 string            `bson:"_id"`
	SpeciesID          string            `bson:"speciesId"`
	EstimatedQuantity  int               `bson:"estimatedQuantity"`
	Status             ImportBatchStatus `bson:"status"`
	ExpectedCompletion *time.Time        `bson:"expectedCompletion,omitempty"`
	CompletionDate     *time.Time        `bson:"completionDate,omitempty"`
	CreatedBy          string            `bson:"createdBy,omitempty"`
	CreatedAt          time.Time         `bson:"createdAt"`
	UpdatedAt          time.Time         `bson:"updatedAt"`
}

// ImportDetail links one unit into an import batch. A unit may belong to at
// most one non-cancelled import detail at a time.
type ImportDetail struct {
	ID           string             `bson:"_id"`
	BatchID      string             `bson:"batchId"`
	UnitID       string             `bson:"unitId"`
	Status       ImportDetailStatus `bson:"status"`
	ImportedDate *time.Time         `bson:"importedDate,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

// Active reports whether the detail still binds its unit to the batch.
func (d ImportDetail) Active() bool {
	return d.Status != ImportDetailCancelled
}
