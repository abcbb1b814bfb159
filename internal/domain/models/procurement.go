package models

import "time"

// PackageStatus is the contract-level status of a procurement package.
type PackageStatus string

const (
	PackageBidding           PackageStatus = "BIDDING"
	PackageAwaitingSelection PackageStatus = "AWAITING_SELECTION"
	PackageAwaitingHandover  PackageStatus = "AWAITING_HANDOVER"
	PackageHandingOver       PackageStatus = "HANDING_OVER"
	PackageCompleted         PackageStatus = "COMPLETED"
	PackageCancelled         PackageStatus = "CANCELLED"
)

// ProcurementPackage is a contract-level aggregate. Export batches are
// created under it, and Σ(ExportBatch.Total) may never exceed
// Σ(ProcurementDetail.RequiredQuantity).
type ProcurementPackage struct {
	ID             string        `bson:"_id"`
	Code           string        `bson:"code,omitempty"`
	CustomerName   string        `bson:"customerName,omitempty"`
	Status         PackageStatus `bson:"status"`
	CompletionDate *time.Time    `bson:"completionDate,omitempty"`
	CreatedAt      time.Time     `bson:"createdAt"`
	UpdatedAt      time.Time     `bson:"updatedAt"`
}

// ProcurementDetail is the per-species requirement line of a package:
// quantity plus the admission windows and diseases the units must satisfy.
type ProcurementDetail struct {
	ID                string   `bson:"_id"`
	PackageID         string   `bson:"packageId"`
	SpeciesID         string   `bson:"speciesId"`
	RequiredQuantity  int      `bson:"requiredQuantity"`
	MinAgeDays        *int     `bson:"minAgeDays,omitempty"`
	MaxAgeDays        *int     `bson:"maxAgeDays,omitempty"`
	MinWeightKg       *float64 `bson:"minWeightKg,omitempty"`
	MaxWeightKg       *float64 `bson:"maxWeightKg,omitempty"`
	DiseaseIDs        []string `bson:"diseaseIds,omitempty"`
	InsuranceMonths   int      `bson:"insuranceMonths,omitempty"`
}

// Requirement converts the detail into the evaluator's slot shape.
func (d ProcurementDetail) Requirement() Requirement {
	return Requirement{
		SpeciesID:   d.SpeciesID,
		MinAgeDays:  d.MinAgeDays,
		MaxAgeDays:  d.MaxAgeDays,
		MinWeightKg: d.MinWeightKg,
		MaxWeightKg: d.MaxWeightKg,
		DiseaseIDs:  d.DiseaseIDs,
	}
}

// Requirement is the admission window a unit must satisfy before joining a
// slot. A nil bound is unconstrained; all bounds are inclusive.
type Requirement struct {
	SpeciesID   string
	MinAgeDays  *int
	MaxAgeDays  *int
	MinWeightKg *float64
	MaxWeightKg *float64
	DiseaseIDs  []string
}
