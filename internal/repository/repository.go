// Package repository declares the storage contracts consumed by the service
// layer. MongoDB adapters implement them for production; in-memory adapters
// back the service tests.
package repository

import (
	"context"
	"time"

	"github.com/mamadbah2/livestock/internal/domain/models"
)

// TxRunner executes fn inside one atomic unit of work. Every write cascade of
// a business operation runs under a single call so a failure rolls back all
// counter and status changes together.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// UnitRepository stores livestock units.
type UnitRepository interface {
	Get(ctx context.Context, id string) (models.LivestockUnit, error)
	Insert(ctx context.Context, unit models.LivestockUnit) error
	Update(ctx context.Context, unit models.LivestockUnit) error
	// FindBySpeciesAndStatus returns units of the species currently in one of
	// the given statuses, ordered by id.
	FindBySpeciesAndStatus(ctx context.Context, speciesID string, statuses []models.UnitStatus) ([]models.LivestockUnit, error)
	CountByStatus(ctx context.Context) (map[models.UnitStatus]int, error)
	CountDeadBetween(ctx context.Context, from, to time.Time) (int, error)
}

// ImportRepository stores import batches and their details.
type ImportRepository interface {
	GetBatch(ctx context.Context, id string) (models.ImportBatch, error)
	InsertBatch(ctx context.Context, batch models.ImportBatch) error
	UpdateBatch(ctx context.Context, batch models.ImportBatch) error
	CountOpenBatches(ctx context.Context) (int, error)

	GetDetail(ctx context.Context, id string) (models.ImportDetail, error)
	InsertDetail(ctx context.Context, detail models.ImportDetail) error
	UpdateDetail(ctx context.Context, detail models.ImportDetail) error
	ListDetailsByBatch(ctx context.Context, batchID string) ([]models.ImportDetail, error)
	// FindActiveDetailByUnit returns the unit's current non-cancelled detail.
	FindActiveDetailByUnit(ctx context.Context, unitID string) (models.ImportDetail, bool, error)
}

// ExportRepository stores export batches and their details.
type ExportRepository interface {
	GetBatch(ctx context.Context, id string) (models.ExportBatch, error)
	InsertBatch(ctx context.Context, batch models.ExportBatch) error
	UpdateBatch(ctx context.Context, batch models.ExportBatch) error
	ListBatchesByPackage(ctx context.Context, packageID string) ([]models.ExportBatch, error)
	// DecrementRemaining atomically decrements the batch's remaining counter,
	// matching only documents with remaining > 0. A miss reports
	// liferr.ErrCapacityExceeded so a stale read can never oversell a batch.
	DecrementRemaining(ctx context.Context, batchID string) error
	IncrementRemaining(ctx context.Context, batchID string) error

	GetDetail(ctx context.Context, id string) (models.ExportDetail, error)
	InsertDetail(ctx context.Context, detail models.ExportDetail) error
	UpdateDetail(ctx context.Context, detail models.ExportDetail) error
	ListDetailsByBatch(ctx context.Context, batchID string) ([]models.ExportDetail, error)
	FindActiveDetailByUnit(ctx context.Context, unitID string) (models.ExportDetail, bool, error)
	CountHandoversBetween(ctx context.Context, from, to time.Time) (int, error)
}

// ProcurementRepository stores procurement packages and their detail lines.
type ProcurementRepository interface {
	GetPackage(ctx context.Context, id string) (models.ProcurementPackage, error)
	InsertPackage(ctx context.Context, pkg models.ProcurementPackage) error
	UpdatePackage(ctx context.Context, pkg models.ProcurementPackage) error

	GetDetail(ctx context.Context, id string) (models.ProcurementDetail, error)
	InsertDetail(ctx context.Context, detail models.ProcurementDetail) error
	ListDetailsByPackage(ctx context.Context, packageID string) ([]models.ProcurementDetail, error)
	// FindDetailBySpecies returns the package's requirement line for a species.
	FindDetailBySpecies(ctx context.Context, packageID, speciesID string) (models.ProcurementDetail, bool, error)
}

// OrderRepository stores retail orders, requirement lines and details.
type OrderRepository interface {
	GetOrder(ctx context.Context, id string) (models.Order, error)
	InsertOrder(ctx context.Context, order models.Order) error
	UpdateOrder(ctx context.Context, order models.Order) error

	GetRequirement(ctx context.Context, id string) (models.OrderRequirement, error)
	InsertRequirement(ctx context.Context, req models.OrderRequirement) error
	ListRequirementsByOrder(ctx context.Context, orderID string) ([]models.OrderRequirement, error)

	GetDetail(ctx context.Context, id string) (models.OrderDetail, error)
	InsertDetail(ctx context.Context, detail models.OrderDetail) error
	UpdateDetail(ctx context.Context, detail models.OrderDetail) error
	ListDetailsByOrder(ctx context.Context, orderID string) ([]models.OrderDetail, error)
	ListDetailsByRequirement(ctx context.Context, requirementID string) ([]models.OrderDetail, error)
	FindActiveDetailByUnit(ctx context.Context, unitID string) (models.OrderDetail, bool, error)
}

// VaccinationRepository stores both vaccination record sources and the
// medicine catalogue used to resolve diseases.
type VaccinationRepository interface {
	GetBatch(ctx context.Context, id string) (models.BatchVaccination, error)
	InsertBatch(ctx context.Context, batch models.BatchVaccination) error
	UpdateBatch(ctx context.Context, batch models.BatchVaccination) error
	InsertMember(ctx context.Context, member models.LivestockVaccination) error
	ListMembershipsByUnit(ctx context.Context, unitID string) ([]models.LivestockVaccination, error)

	InsertSingle(ctx context.Context, record models.SingleVaccination) error
	ListSinglesByUnit(ctx context.Context, unitID string) ([]models.SingleVaccination, error)

	GetMedicines(ctx context.Context, ids []string) ([]models.Medicine, error)
}

// InsuranceRepository stores replacement requests.
type InsuranceRepository interface {
	Get(ctx context.Context, id string) (models.InsuranceRequest, error)
	Insert(ctx context.Context, req models.InsuranceRequest) error
	Update(ctx context.Context, req models.InsuranceRequest) error
	FindOpenByOriginalUnit(ctx context.Context, unitID string) (models.InsuranceRequest, bool, error)
	CountOpen(ctx context.Context) (int, error)
}

// SummaryRepository persists daily herd summaries.
type SummaryRepository interface {
	SaveDailySummary(ctx context.Context, summary models.DailySummary) error
}
