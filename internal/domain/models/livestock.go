package models

import "time"

// UnitStatus is the coarse lifecycle status of a single tracked animal.
// Exactly one status holds at a time; transitions are event-driven and
// validated by the lifecycle service.
type UnitStatus string

const (
	UnitEmptySlot       UnitStatus = "EMPTY_SLOT"
	UnitAwaitingImport  UnitStatus = "AWAITING_IMPORT"
	UnitAwaitingIdent   UnitStatus = "AWAITING_IDENTIFICATION"
	UnitHealthy         UnitStatus = "HEALTHY"
	UnitSick            UnitStatus = "SICK"
	UnitAwaitingExport  UnitStatus = "AWAITING_EXPORT"
	UnitExported        UnitStatus = "EXPORTED"
	UnitSoldForMeat     UnitStatus = "SOLD_FOR_MEAT"
	UnitDead            UnitStatus = "DEAD"
)

// Valid reports whether s is one of the known unit statuses.
func (s UnitStatus) Valid() bool {
	switch s {
	case UnitEmptySlot, UnitAwaitingImport, UnitAwaitingIdent, UnitHealthy,
		UnitSick, UnitAwaitingExport, UnitExported, UnitSoldForMeat, UnitDead:
		return true
	}
	return false
}

// Terminal reports whether the status permanently removes the unit from the
// normal allocation path. Exported units can still re-enter through the
// insurance recall step, but never through assignment.
func (s UnitStatus) Terminal() bool {
	return s == UnitDead || s == UnitSoldForMeat || s == UnitExported
}

// LivestockUnit is one tracked animal. Records are created either as empty
// QR-tagged placeholders or directly with import data, and are never deleted
// once they carry transition history.
type LivestockUnit struct {
	ID             string     `bson:"_id"`
	SpeciesID      string     `bson:"speciesId"`
	InspectionCode string     `bson:"inspectionCode,omitempty"` // unique per species once assigned
	DateOfBirth    *time.Time `bson:"dateOfBirth,omitempty"`
	OriginWeightKg float64    `bson:"originWeightKg,omitempty"`
	WeightEstimate float64    `bson:"weightEstimateKg,omitempty"`
	ExportWeightKg float64    `bson:"exportWeightKg,omitempty"`
	Color          string     `bson:"color,omitempty"`
	BarnID         string     `bson:"barnId,omitempty"`
	Status         UnitStatus `bson:"status"`
	DeadAt         *time.Time `bson:"deadAt,omitempty"`
	CreatedAt      time.Time  `bson:"createdAt"`
	UpdatedAt      time.Time  `bson:"updatedAt"`
}

// AgeInDays returns the whole number of days since birth at the given moment,
// or -1 when the date of birth is unknown.
func (u LivestockUnit) AgeInDays(now time.Time) int {
	if u.DateOfBirth == nil {
		return -1
	}
	return int(now.Sub(*u.DateOfBirth).Hours() / 24)
}

// EffectiveWeightKg returns the current weight estimate, falling back to the
// origin weight when no estimate has been recorded.
func (u LivestockUnit) EffectiveWeightKg() float64 {
	if u.WeightEstimate > 0 {
		return u.WeightEstimate
	}
	return u.OriginWeightKg
}
