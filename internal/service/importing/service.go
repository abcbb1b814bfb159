// Package importing manages import batches: supplier intakes that bring new
// units into the herd.
package importing

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
	"github.com/mamadbah2/livestock/internal/service/lifecycle"
	"github.com/mamadbah2/livestock/pkg/clients/notify"
)

// Service implements the import batch operations.
type Service struct {
	units      repository.UnitRepository
	imports    repository.ImportRepository
	tx         repository.TxRunner
	recon      *batches.Reconciler
	propagator *batches.Propagator
	notifier   notify.Client
	logger     *zap.Logger
	now        func() time.Time
}

// NewService wires the importing service. The notifier may be nil when no
// webhook is configured.
func NewService(
	units repository.UnitRepository,
	imports repository.ImportRepository,
	tx repository.TxRunner,
	recon *batches.Reconciler,
	propagator *batches.Propagator,
	notifier notify.Client,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		units:      units,
		imports:    imports,
		tx:         tx,
		recon:      recon,
		propagator: propagator,
		notifier:   notifier,
		logger:     logger,
		now:        time.Now,
	}
}

// CreateBatch opens a new import batch for the given species and estimated
// head count.
func (s *Service) CreateBatch(ctx context.Context, speciesID string, estimatedQuantity int, expectedCompletion *time.Time, actor string) (models.ImportBatch, error) {
	if speciesID == "" {
		return models.ImportBatch{}, liferr.Validation("speciesId is required")
	}
	if estimatedQuantity <= 0 {
		return models.ImportBatch{}, liferr.Validation("estimatedQuantity must be positive, got %d", estimatedQuantity)
	}

	now := s.now()
	batch := models.ImportBatch{
		ID:                 ids.New(),
		SpeciesID:          speciesID,
		EstimatedQuantity:  estimatedQuantity,
		Status:             models.ImportBatchAwaiting,
		ExpectedCompletion: expectedCompletion,
		CreatedBy:          actor,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.imports.InsertBatch(ctx, batch); err != nil {
		return models.ImportBatch{}, err
	}
	s.logger.Info("import batch created",
		zap.String("batch_id", batch.ID),
		zap.Int("estimated_quantity", estimatedQuantity))
	return batch, nil
}

// AssignUnit places an empty-slot unit into the batch. The whole cascade
// (detail insert, unit transition, batch allocation status) commits or rolls
// back as one.
func (s *Service) AssignUnit(ctx context.Context, batchID, unitID, actor string) (models.ImportBatch, error) {
	var snapshot models.ImportBatch
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		batch, err := s.imports.GetBatch(ctx, batchID)
		if err != nil {
			return err
		}
		if batch.Status != models.ImportBatchAwaiting && batch.Status != models.ImportBatchImporting {
			return liferr.InvalidTransition("ASSIGN_IMPORT_UNIT", batch.Status, batch.Status)
		}

		unit, err := s.units.Get(ctx, unitID)
		if err != nil {
			return err
		}
		if err := lifecycle.GuardAllocatable(unit); err != nil {
			return err
		}
		if unit.SpeciesID != batch.SpeciesID {
			return liferr.NotEligible(unitID, liferr.ConstraintSpecies,
				"unit species "+unit.SpeciesID+" does not match batch species "+batch.SpeciesID)
		}
		if _, ok, err := s.imports.FindActiveDetailByUnit(ctx, unitID); err != nil {
			return err
		} else if ok {
			return liferr.DuplicateAssignment(unitID, "import batch")
		}

		remaining, err := s.recon.ImportRemaining(ctx, batch)
		if err != nil {
			return err
		}
		if remaining <= 0 {
			return liferr.CapacityExceeded("import batch", batchID)
		}

		now := s.now()
		if err := lifecycle.Apply(lifecycle.EventAssignImport, &unit, now); err != nil {
			return err
		}
		if err := s.units.Update(ctx, unit); err != nil {
			return err
		}

		detail := models.ImportDetail{
			ID:        ids.New(),
			BatchID:   batchID,
			UnitID:    unitID,
			Status:    models.ImportDetailAwaiting,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.imports.InsertDetail(ctx, detail); err != nil {
			return err
		}

		snapshot, err = s.recon.ReconcileImportAllocation(ctx, batchID)
		return err
	})
	if err != nil {
		return models.ImportBatch{}, err
	}
	s.logger.Info("unit assigned to import batch",
		zap.String("batch_id", batchID),
		zap.String("unit_id", unitID),
		zap.String("actor", actor))
	return snapshot, nil
}

// RemoveUnit cancels the unit's detail while it has not reached a terminal
// status, releasing the unit back to its empty slot and regressing the batch
// allocation status if it had advanced.
func (s *Service) RemoveUnit(ctx context.Context, batchID, unitID string) (models.ImportBatch, error) {
	var snapshot models.ImportBatch
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		detail, ok, err := s.imports.FindActiveDetailByUnit(ctx, unitID)
		if err != nil {
			return err
		}
		if !ok || detail.BatchID != batchID {
			return liferr.NotFound("import detail for unit", unitID)
		}
		if detail.Status != models.ImportDetailAwaiting {
			return liferr.InvalidTransition("REMOVE_IMPORT_UNIT", detail.Status, models.ImportDetailCancelled)
		}

		now := s.now()
		detail.Status = models.ImportDetailCancelled
		detail.UpdatedAt = now
		if err := s.imports.UpdateDetail(ctx, detail); err != nil {
			return err
		}

		unit, err := s.units.Get(ctx, unitID)
		if err != nil {
			return err
		}
		if unit.Status == models.UnitAwaitingImport {
			if err := lifecycle.Apply(lifecycle.EventReleaseImport, &unit, now); err != nil {
				return err
			}
			if err := s.units.Update(ctx, unit); err != nil {
				return err
			}
		}

		snapshot, err = s.recon.ReconcileImportAllocation(ctx, batchID)
		return err
	})
	if err != nil {
		return models.ImportBatch{}, err
	}
	return snapshot, nil
}

// ConfirmUnit marks a single detail as imported ahead of the batch-level
// confirmation and stamps its imported date.
func (s *Service) ConfirmUnit(ctx context.Context, batchID, unitID string, in ConfirmUnitInput) error {
	var completed bool
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		detail, ok, err := s.imports.FindActiveDetailByUnit(ctx, unitID)
		if err != nil {
			return err
		}
		if !ok || detail.BatchID != batchID {
			return liferr.NotFound("import detail for unit", unitID)
		}
		if detail.Status != models.ImportDetailAwaiting {
			return liferr.InvalidTransition("CONFIRM_IMPORT_UNIT", detail.Status, models.ImportDetailImported)
		}

		unit, err := s.units.Get(ctx, unitID)
		if err != nil {
			return err
		}
		now := s.now()
		if err := s.confirmUnitRecord(&unit, in, now); err != nil {
			return err
		}
		if err := s.units.Update(ctx, unit); err != nil {
			return err
		}

		detail.Status = models.ImportDetailImported
		detail.ImportedDate = &now
		detail.UpdatedAt = now
		if err := s.imports.UpdateDetail(ctx, detail); err != nil {
			return err
		}

		if err := s.propagator.OnImportDetailTerminal(ctx, batchID); err != nil {
			return err
		}
		batch, err := s.imports.GetBatch(ctx, batchID)
		if err != nil {
			return err
		}
		completed = batch.Status == models.ImportBatchCompleted
		return nil
	})
	if err != nil {
		return err
	}
	if completed {
		s.notifyCompleted(ctx, batchID)
	}
	return nil
}

// ConfirmUnitInput carries the intake measurements captured at arrival.
type ConfirmUnitInput struct {
	InspectionCode string
	DateOfBirth    *time.Time
	OriginWeightKg float64
	Color          string
	BarnID         string
}

// ConfirmImport confirms every still-awaiting detail of the batch. Units
// alive at confirmation become healthy (or awaiting identification when no
// inspection code was recorded); a unit separately marked dead resolves to
// sold-for-meat when its detail had been individually confirmed before the
// death, and stays dead otherwise. Re-confirming a completed batch is a
// no-op error.
func (s *Service) ConfirmImport(ctx context.Context, batchID, actor string) (models.ImportBatch, error) {
	var snapshot models.ImportBatch
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		batch, err := s.imports.GetBatch(ctx, batchID)
		if err != nil {
			return err
		}
		if batch.Status == models.ImportBatchCompleted || batch.Status == models.ImportBatchCancelled {
			return liferr.InvalidTransition("CONFIRM_IMPORT", batch.Status, models.ImportBatchCompleted)
		}

		details, err := s.imports.ListDetailsByBatch(ctx, batchID)
		if err != nil {
			return err
		}

		now := s.now()
		for _, detail := range details {
			if !detail.Active() {
				continue
			}
			unit, err := s.units.Get(ctx, detail.UnitID)
			if err != nil {
				return err
			}

			if unit.Status == models.UnitDead {
				// Confirmed before death: the carcass was sold for meat
				// rather than written off.
				if detail.Status == models.ImportDetailImported && unit.DeadAt != nil &&
					detail.ImportedDate != nil && unit.DeadAt.After(*detail.ImportedDate) {
					unit.Status = models.UnitSoldForMeat
					unit.UpdatedAt = now
					if err := s.units.Update(ctx, unit); err != nil {
						return err
					}
				}
				continue
			}

			if detail.Status == models.ImportDetailAwaiting {
				if err := s.confirmUnitRecord(&unit, ConfirmUnitInput{}, now); err != nil {
					return err
				}
				if err := s.units.Update(ctx, unit); err != nil {
					return err
				}
				detail.Status = models.ImportDetailImported
				detail.ImportedDate = &now
				detail.UpdatedAt = now
				if err := s.imports.UpdateDetail(ctx, detail); err != nil {
					return err
				}
			}
		}

		completed, _, err := s.recon.CheckImportCompletion(ctx, batchID)
		if err != nil {
			return err
		}
		snapshot = completed
		return nil
	})
	if err != nil {
		return models.ImportBatch{}, err
	}
	s.logger.Info("import batch confirmed",
		zap.String("batch_id", batchID),
		zap.String("actor", actor),
		zap.String("status", string(snapshot.Status)))
	if snapshot.Status == models.ImportBatchCompleted {
		s.notifyCompleted(ctx, batchID)
	}
	return snapshot, nil
}

// notifyCompleted announces a completed batch to the webhook, outside the
// transaction that completed it.
func (s *Service) notifyCompleted(ctx context.Context, batchID string) {
	notify.Emit(ctx, s.notifier, s.logger, notify.Event{
		Kind:       notify.KindImportCompleted,
		EntityID:   batchID,
		Message:    fmt.Sprintf("Import batch %s completed", batchID),
		OccurredAt: s.now(),
	})
}

// CancelBatch cancels an open batch and releases its awaiting units.
func (s *Service) CancelBatch(ctx context.Context, batchID string) (models.ImportBatch, error) {
	var snapshot models.ImportBatch
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		batch, err := s.imports.GetBatch(ctx, batchID)
		if err != nil {
			return err
		}
		if batch.Status == models.ImportBatchCompleted || batch.Status == models.ImportBatchCancelled {
			return liferr.InvalidTransition("CANCEL_IMPORT", batch.Status, models.ImportBatchCancelled)
		}

		details, err := s.imports.ListDetailsByBatch(ctx, batchID)
		if err != nil {
			return err
		}
		now := s.now()
		for _, detail := range details {
			if detail.Status != models.ImportDetailAwaiting {
				continue
			}
			detail.Status = models.ImportDetailCancelled
			detail.UpdatedAt = now
			if err := s.imports.UpdateDetail(ctx, detail); err != nil {
				return err
			}
			unit, err := s.units.Get(ctx, detail.UnitID)
			if err != nil {
				return err
			}
			if unit.Status == models.UnitAwaitingImport {
				if err := lifecycle.Apply(lifecycle.EventReleaseImport, &unit, now); err != nil {
					return err
				}
				if err := s.units.Update(ctx, unit); err != nil {
					return err
				}
			}
		}

		batch.Status = models.ImportBatchCancelled
		batch.UpdatedAt = now
		if err := s.imports.UpdateBatch(ctx, batch); err != nil {
			return err
		}
		snapshot = batch
		return nil
	})
	if err != nil {
		return models.ImportBatch{}, err
	}
	return snapshot, nil
}

// confirmUnitRecord applies the intake data and the import confirmation
// transition to the unit.
func (s *Service) confirmUnitRecord(unit *models.LivestockUnit, in ConfirmUnitInput, now time.Time) error {
	if in.InspectionCode != "" {
		unit.InspectionCode = in.InspectionCode
	}
	if in.DateOfBirth != nil {
		unit.DateOfBirth = in.DateOfBirth
	}
	if in.OriginWeightKg > 0 {
		unit.OriginWeightKg = in.OriginWeightKg
	}
	if in.Color != "" {
		unit.Color = in.Color
	}
	if in.BarnID != "" {
		unit.BarnID = in.BarnID
	}

	if err := lifecycle.Apply(lifecycle.EventConfirmImport, unit, now); err != nil {
		return err
	}
	if unit.InspectionCode == "" {
		unit.Status = models.UnitAwaitingIdent
	}
	return nil
}
