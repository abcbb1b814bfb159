// Package exporting manages procurement packages, their customer export
// batches and the handover of units to contract customers.
package exporting

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/livestock/internal/domain/ids"
	"github.com/mamadbah2/livestock/internal/domain/liferr"
	"github.com/mamadbah2/livestock/internal/domain/models"
	"github.com/mamadbah2/livestock/internal/repository"
	"github.com/mamadbah2/livestock/internal/service/batches"
	"github.com/mamadbah2/livestock/internal/service/eligibility"
	"github.com/mamadbah2/livestock/internal/service/lifecycle"
	"github.com/mamadbah2/livestock/pkg/clients/notify"
)

// packageTransitions is the procurement package machine. Cancellation from
// any non-completed status is handled separately.
var packageTransitions = map[models.PackageStatus]models.PackageStatus{
	models.PackageBidding:           models.PackageAwaitingSelection,
	models.PackageAwaitingSelection: models.PackageAwaitingHandover,
	models.PackageAwaitingHandover:  models.PackageHandingOver,
}

// Service implements the procurement and export operations.
type Service struct {
	units       repository.UnitRepository
	exports     repository.ExportRepository
	procurement repository.ProcurementRepository
	orders      repository.OrderRepository
	tx          repository.TxRunner
	evaluator   *eligibility.Evaluator
	propagator  *batches.Propagator
	notifier    notify.Client
	logger      *zap.Logger
	now         func() time.Time
}

// NewService wires the exporting service. The notifier may be nil when no
// webhook is configured.
func NewService(
	units repository.UnitRepository,
	exports repository.ExportRepository,
	procurement repository.ProcurementRepository,
	orders repository.OrderRepository,
	tx repository.TxRunner,
	evaluator *eligibility.Evaluator,
	propagator *batches.Propagator,
	notifier notify.Client,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		units:       units,
		exports:     exports,
		procurement: procurement,
		orders:      orders,
		tx:          tx,
		evaluator:   evaluator,
		propagator:  propagator,
		notifier:    notifier,
		logger:      logger,
		now:         time.Now,
	}
}

// CreatePackage opens a procurement package in bidding state.
func (s *Service) CreatePackage(ctx context.Context, code, customerName string) (models.ProcurementPackage, error) {
	now := s.now()
	pkg := models.ProcurementPackage{
		ID:           ids.New(),
		Code:         code,
		CustomerName: customerName,
		Status:       models.PackageBidding,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.procurement.InsertPackage(ctx, pkg); err != nil {
		return models.ProcurementPackage{}, err
	}
	s.logger.Info("procurement package created", zap.String("package_id", pkg.ID))
	return pkg, nil
}

// AdvancePackage moves the package one step along its machine:
// bidding → awaiting-selection → awaiting-handover → handing-over.
func (s *Service) AdvancePackage(ctx context.Context, packageID string) (models.ProcurementPackage, error) {
	pkg, err := s.procurement.GetPackage(ctx, packageID)
	if err != nil {
		return models.ProcurementPackage{}, err
	}
	next, ok := packageTransitions[pkg.Status]
	if !ok {
		return models.ProcurementPackage{}, liferr.InvalidTransition("ADVANCE_PACKAGE", pkg.Status, "?")
	}
	pkg.Status = next
	pkg.UpdatedAt = s.now()
	if err := s.procurement.UpdatePackage(ctx, pkg); err != nil {
		return models.ProcurementPackage{}, err
	}
	return pkg, nil
}

// CancelPackage cancels any non-completed package.
func (s *Service) CancelPackage(ctx context.Context, packageID string) (models.ProcurementPackage, error) {
	pkg, err := s.procurement.GetPackage(ctx, packageID)
	if err != nil {
		return models.ProcurementPackage{}, err
	}
	if pkg.Status == models.PackageCompleted || pkg.Status == models.PackageCancelled {
		return models.ProcurementPackage{}, liferr.InvalidTransition("CANCEL_PACKAGE", pkg.Status, models.PackageCancelled)
	}
	pkg.Status = models.PackageCancelled
	pkg.UpdatedAt = s.now()
	if err := s.procurement.UpdatePackage(ctx, pkg); err != nil {
		return models.ProcurementPackage{}, err
	}
	return pkg, nil
}

// PackageDetailInput is one per-species requirement line.
type PackageDetailInput struct {
	SpeciesID       string
	RequiredQty     int
	MinAgeDays      *int
	MaxAgeDays      *int
	MinWeightKg     *float64
	MaxWeightKg     *float64
	DiseaseIDs      []string
	InsuranceMonths int
}

// AddPackageDetail attaches a requirement line to a bidding package.
func (s *Service) AddPackageDetail(ctx context.Context, packageID string, in PackageDetailInput) (models.ProcurementDetail, error) {
	if in.SpeciesID == "" {
		return models.ProcurementDetail{}, liferr.Validation("speciesId is required")
	}
	if in.RequiredQty <= 0 {
		return models.ProcurementDetail{}, liferr.Validation("requiredQuantity must be positive, got %d", in.RequiredQty)
	}
	detail := models.ProcurementDetail{
		ID:               ids.New(),
		PackageID:        packageID,
		SpeciesID:        in.SpeciesID,
		RequiredQuantity: in.RequiredQty,
		MinAgeDays:       in.MinAgeDays,
		MaxAgeDays:       in.MaxAgeDays,
		MinWeightKg:      in.MinWeightKg,
		MaxWeightKg:      in.MaxWeightKg,
		DiseaseIDs:       in.DiseaseIDs,
		InsuranceMonths:  in.InsuranceMonths,
	}
	if err := eligibility.WindowCheck(detail.Requirement()); err != nil {
		return models.ProcurementDetail{}, err
	}
	if _, err := s.procurement.GetPackage(ctx, packageID); err != nil {
		return models.ProcurementDetail{}, err
	}
	if err := s.procurement.InsertDetail(ctx, detail); err != nil {
		return models.ProcurementDetail{}, err
	}
	return detail, nil
}

// CreateExportBatch opens a customer allocation under the package. The sum of
// batch totals across the package may never exceed the sum of required
// quantities of its requirement lines.
func (s *Service) CreateExportBatch(ctx context.Context, packageID, speciesID, customerName string, total int) (models.ExportBatch, error) {
	if total <= 0 {
		return models.ExportBatch{}, liferr.Validation("total must be positive, got %d", total)
	}

	var batch models.ExportBatch
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		pkg, err := s.procurement.GetPackage(ctx, packageID)
		if err != nil {
			return err
		}
		if pkg.Status != models.PackageAwaitingHandover && pkg.Status != models.PackageHandingOver {
			return liferr.InvalidTransition("CREATE_EXPORT_BATCH", pkg.Status, pkg.Status)
		}
		if _, ok, err := s.procurement.FindDetailBySpecies(ctx, packageID, speciesID); err != nil {
			return err
		} else if !ok {
			return liferr.Validation("package %s has no requirement line for species %s", packageID, speciesID)
		}

		details, err := s.procurement.ListDetailsByPackage(ctx, packageID)
		if err != nil {
			return err
		}
		required := 0
		for _, d := range details {
			required += d.RequiredQuantity
		}
		existing, err := s.exports.ListBatchesByPackage(ctx, packageID)
		if err != nil {
			return err
		}
		allocated := 0
		for _, b := range existing {
			allocated += b.Total
		}
		if allocated+total > required {
			return liferr.CapacityExceeded("procurement package", packageID)
		}

		now := s.now()
		batch = models.ExportBatch{
			ID:           ids.New(),
			PackageID:    packageID,
			SpeciesID:    speciesID,
			CustomerName: customerName,
			Total:        total,
			Remaining:    total,
			Status:       models.ExportBatchAwaitingHandover,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return s.exports.InsertBatch(ctx, batch)
	})
	if err != nil {
		return models.ExportBatch{}, err
	}
	s.logger.Info("export batch created",
		zap.String("batch_id", batch.ID),
		zap.String("package_id", packageID),
		zap.Int("total", total))
	return batch, nil
}

// AssignUnit selects a unit into the export batch. The unit must pass the
// requirement windows of the package's species line, including vaccination
// coverage. Remaining is decremented through a conditional update, so a
// concurrent assignment against the last slot loses with CapacityExceeded.
func (s *Service) AssignUnit(ctx context.Context, batchID, unitID, actor string) (models.ExportBatch, error) {
	var snapshot models.ExportBatch
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		batch, err := s.exports.GetBatch(ctx, batchID)
		if err != nil {
			return err
		}
		if batch.Status != models.ExportBatchAwaitingHandover {
			return liferr.InvalidTransition("ASSIGN_EXPORT_UNIT", batch.Status, batch.Status)
		}

		req, ok, err := s.procurement.FindDetailBySpecies(ctx, batch.PackageID, batch.SpeciesID)
		if err != nil {
			return err
		}
		if !ok {
			return liferr.NotFound("procurement detail for species", batch.SpeciesID)
		}

		unit, err := s.units.Get(ctx, unitID)
		if err != nil {
			return err
		}
		if err := lifecycle.GuardAllocatable(unit); err != nil {
			return err
		}
		if err := s.guardNotAllocated(ctx, unitID); err != nil {
			return err
		}
		if err := s.evaluator.Check(ctx, unit, req.Requirement(), s.now()); err != nil {
			return err
		}

		if err := s.exports.DecrementRemaining(ctx, batchID); err != nil {
			return err
		}

		now := s.now()
		if err := lifecycle.Apply(lifecycle.EventSelectExport, &unit, now); err != nil {
			return err
		}
		if err := s.units.Update(ctx, unit); err != nil {
			return err
		}

		detail := models.ExportDetail{
			ID:        ids.New(),
			BatchID:   batchID,
			UnitID:    unitID,
			Status:    models.ExportDetailAwaitingHandover,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.exports.InsertDetail(ctx, detail); err != nil {
			return err
		}

		snapshot, err = s.exports.GetBatch(ctx, batchID)
		return err
	})
	if err != nil {
		return models.ExportBatch{}, err
	}
	s.logger.Info("unit assigned to export batch",
		zap.String("batch_id", batchID),
		zap.String("unit_id", unitID),
		zap.String("actor", actor))
	return snapshot, nil
}

// RemoveUnit cancels a not-yet-handed-over detail, restoring the slot and
// reverting the unit to healthy.
func (s *Service) RemoveUnit(ctx context.Context, batchID, unitID string) (models.ExportBatch, error) {
	var snapshot models.ExportBatch
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		detail, ok, err := s.exports.FindActiveDetailByUnit(ctx, unitID)
		if err != nil {
			return err
		}
		if !ok || detail.BatchID != batchID {
			return liferr.NotFound("export detail for unit", unitID)
		}
		if detail.Status != models.ExportDetailAwaitingHandover {
			return liferr.InvalidTransition("REMOVE_EXPORT_UNIT", detail.Status, models.ExportDetailCancelled)
		}

		now := s.now()
		detail.Status = models.ExportDetailCancelled
		detail.UpdatedAt = now
		if err := s.exports.UpdateDetail(ctx, detail); err != nil {
			return err
		}
		if err := s.exports.IncrementRemaining(ctx, batchID); err != nil {
			return err
		}

		unit, err := s.units.Get(ctx, unitID)
		if err != nil {
			return err
		}
		if unit.Status == models.UnitAwaitingExport {
			if err := lifecycle.Apply(lifecycle.EventReleaseExport, &unit, now); err != nil {
				return err
			}
			if err := s.units.Update(ctx, unit); err != nil {
				return err
			}
		}

		snapshot, err = s.exports.GetBatch(ctx, batchID)
		return err
	})
	if err != nil {
		return models.ExportBatch{}, err
	}
	return snapshot, nil
}

// ConfirmHandover hands one unit over to the customer: the detail reaches
// handed-over, the unit becomes exported with its export weight and insurance
// expiry stamped, and completion propagates up to the batch and package in
// the same transaction.
func (s *Service) ConfirmHandover(ctx context.Context, detailID, actor string) error {
	var batchHandedOver, packageCompleted bool
	var batchID, packageID string
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		detail, err := s.exports.GetDetail(ctx, detailID)
		if err != nil {
			return err
		}
		if detail.Status != models.ExportDetailAwaitingHandover {
			return liferr.InvalidTransition("CONFIRM_HANDOVER", detail.Status, models.ExportDetailHandedOver)
		}

		batch, err := s.exports.GetBatch(ctx, detail.BatchID)
		if err != nil {
			return err
		}
		req, ok, err := s.procurement.FindDetailBySpecies(ctx, batch.PackageID, batch.SpeciesID)
		if err != nil {
			return err
		}

		unit, err := s.units.Get(ctx, detail.UnitID)
		if err != nil {
			return err
		}
		now := s.now()
		if err := lifecycle.Apply(lifecycle.EventConfirmHandover, &unit, now); err != nil {
			return err
		}
		unit.ExportWeightKg = unit.EffectiveWeightKg()
		if err := s.units.Update(ctx, unit); err != nil {
			return err
		}

		detail.Status = models.ExportDetailHandedOver
		detail.HandoverDate = &now
		detail.ExportDate = &now
		if ok && req.InsuranceMonths > 0 {
			expiry := now.AddDate(0, req.InsuranceMonths, 0)
			detail.InsuranceExpiryDate = &expiry
		}
		detail.UpdatedAt = now
		if err := s.exports.UpdateDetail(ctx, detail); err != nil {
			return err
		}

		// First handover moves the package into handing-over.
		pkg, err := s.procurement.GetPackage(ctx, batch.PackageID)
		if err != nil {
			return err
		}
		if pkg.Status == models.PackageAwaitingHandover {
			pkg.Status = models.PackageHandingOver
			pkg.UpdatedAt = now
			if err := s.procurement.UpdatePackage(ctx, pkg); err != nil {
				return err
			}
		}

		if err := s.propagator.OnExportDetailTerminal(ctx, detail.BatchID); err != nil {
			return err
		}

		batchID, packageID = batch.ID, batch.PackageID
		after, err := s.exports.GetBatch(ctx, batch.ID)
		if err != nil {
			return err
		}
		batchHandedOver = after.Status == models.ExportBatchHandedOver
		pkg, err = s.procurement.GetPackage(ctx, batch.PackageID)
		if err != nil {
			return err
		}
		packageCompleted = pkg.Status == models.PackageCompleted
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("handover confirmed",
		zap.String("detail_id", detailID),
		zap.String("actor", actor))
	if batchHandedOver {
		notify.Emit(ctx, s.notifier, s.logger, notify.Event{
			Kind:       notify.KindExportCompleted,
			EntityID:   batchID,
			Message:    fmt.Sprintf("Export batch %s fully handed over", batchID),
			OccurredAt: s.now(),
		})
	}
	if packageCompleted {
		notify.Emit(ctx, s.notifier, s.logger, notify.Event{
			Kind:       notify.KindPackageCompleted,
			EntityID:   packageID,
			Message:    fmt.Sprintf("Procurement package %s completed", packageID),
			OccurredAt: s.now(),
		})
	}
	return nil
}

// guardNotAllocated rejects a unit already active in another export or order
// detail.
func (s *Service) guardNotAllocated(ctx context.Context, unitID string) error {
	if _, ok, err := s.exports.FindActiveDetailByUnit(ctx, unitID); err != nil {
		return err
	} else if ok {
		return liferr.DuplicateAssignment(unitID, "export batch")
	}
	if _, ok, err := s.orders.FindActiveDetailByUnit(ctx, unitID); err != nil {
		return err
	} else if ok {
		return liferr.DuplicateAssignment(unitID, "order")
	}
	return nil
}
