package models

import "time"

// BatchVaccinationStatus tracks a herd-wide vaccination campaign.
type BatchVaccinationStatus string

const (
	BatchVaccinationPlanned   BatchVaccinationStatus = "PLANNED"
	BatchVaccinationCompleted BatchVaccinationStatus = "COMPLETED"
	BatchVaccinationCancelled BatchVaccinationStatus = "CANCELLED"
)

// BatchVaccination is a campaign administered to many units at once. Its
// coverage only counts once the batch is completed and a conduct date is set.
type BatchVaccination struct {
	ID          string                 `bson:"_id"`
	MedicineIDs []string               `bson:"medicineIds"`
	Status      BatchVaccinationStatus `bson:"status"`
	ConductDate *time.Time             `bson:"conductDate,omitempty"`
	CreatedBy   string                 `bson:"createdBy,omitempty"`
	CreatedAt   time.Time              `bson:"createdAt"`
	UpdatedAt   time.Time              `bson:"updatedAt"`
}

// LivestockVaccination joins one unit into a batch vaccination.
type LivestockVaccination struct {
	ID                 string    `bson:"_id"`
	BatchVaccinationID string    `bson:"batchVaccinationId"`
	UnitID             string    `bson:"unitId"`
	CreatedAt          time.Time `bson:"createdAt"`
}

// SingleVaccination is an individually administered dose. It counts toward
// coverage immediately on record creation.
type SingleVaccination struct {
	ID          string    `bson:"_id"`
	UnitID      string    `bson:"unitId"`
	MedicineIDs []string  `bson:"medicineIds"`
	GivenDate   time.Time `bson:"givenDate"`
	CreatedBy   string    `bson:"createdBy,omitempty"`
	CreatedAt   time.Time `bson:"createdAt"`
}

// Medicine maps a product to the diseases it protects against.
type Medicine struct {
	ID         string   `bson:"_id"`
	Name       string   `bson:"name"`
	DiseaseIDs []string `bson:"diseaseIds"`
}
