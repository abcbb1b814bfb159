// Package vaccination records vaccination events from two independent
// channels and aggregates them into a single coverage view per unit.
package vaccination

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/livestock/internal/domain/ids"
	"github.com/mamadbah2/livestock/internal/domain/liferr"
	"github.com/mamadbah2/livestock/internal/domain/models"
	"github.com/mamadbah2/livestock/internal/repository"
)

// Service exposes vaccination record commands.
type Service struct {
	repo   repository.VaccinationRepository
	units  repository.UnitRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a vaccination service instance.
func NewService(repo repository.VaccinationRepository, units repository.UnitRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, units: units, logger: logger, now: time.Now}
}

// RecordBatchVaccination opens a campaign over the given units. Coverage from
// the campaign does not count until CompleteBatchVaccination stamps a conduct
// date.
func (s *Service) RecordBatchVaccination(ctx context.Context, medicineIDs, unitIDs []string, actor string) (models.BatchVaccination, error) {
	if len(medicineIDs) == 0 {
		return models.BatchVaccination{}, liferr.Validation("at least one medicine is required")
	}
	if len(unitIDs) == 0 {
		return models.BatchVaccination{}, liferr.Validation("at least one unit is required")
	}

	now := s.now()
	batch := models.BatchVaccination{
		ID:          ids.New(),
		MedicineIDs: medicineIDs,
		Status:      models.BatchVaccinationPlanned,
		CreatedBy:   actor,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	for _, unitID := range unitIDs {
		if _, err := s.units.Get(ctx, unitID); err != nil {
			return models.BatchVaccination{}, err
		}
	}

	if err := s.repo.InsertBatch(ctx, batch); err != nil {
		return models.BatchVaccination{}, err
	}
	for _, unitID := range unitIDs {
		member := models.LivestockVaccination{
			ID:                 ids.New(),
			BatchVaccinationID: batch.ID,
			UnitID:             unitID,
			CreatedAt:          now,
		}
		if err := s.repo.InsertMember(ctx, member); err != nil {
			return models.BatchVaccination{}, err
		}
	}

	s.logger.Info("batch vaccination recorded",
		zap.String("batch_id", batch.ID),
		zap.Int("units", len(unitIDs)))
	return batch, nil
}

// CompleteBatchVaccination marks the campaign as conducted. Only after this
// call do its doses count toward coverage.
func (s *Service) CompleteBatchVaccination(ctx context.Context, batchID string, conductDate time.Time) (models.BatchVaccination, error) {
	batch, err := s.repo.GetBatch(ctx, batchID)
	if err != nil {
		return models.BatchVaccination{}, err
	}
	if batch.Status != models.BatchVaccinationPlanned {
		return models.BatchVaccination{}, liferr.InvalidTransition("COMPLETE_VACCINATION", batch.Status, models.BatchVaccinationCompleted)
	}

	batch.Status = models.BatchVaccinationCompleted
	batch.ConductDate = &conductDate
	batch.UpdatedAt = s.now()
	if err := s.repo.UpdateBatch(ctx, batch); err != nil {
		return models.BatchVaccination{}, err
	}
	return batch, nil
}

// RecordSingleVaccination stores an individually administered dose, which
// counts toward coverage immediately.
func (s *Service) RecordSingleVaccination(ctx context.Context, unitID string, medicineIDs []string, givenDate time.Time, actor string) (models.SingleVaccination, error) {
	if len(medicineIDs) == 0 {
		return models.SingleVaccination{}, liferr.Validation("at least one medicine is required")
	}
	if _, err := s.units.Get(ctx, unitID); err != nil {
		return models.SingleVaccination{}, err
	}

	record := models.SingleVaccination{
		ID:          ids.New(),
		UnitID:      unitID,
		MedicineIDs: medicineIDs,
		GivenDate:   givenDate,
		CreatedBy:   actor,
		CreatedAt:   s.now(),
	}
	if err := s.repo.InsertSingle(ctx, record); err != nil {
		return models.SingleVaccination{}, err
	}
	return record, nil
}
