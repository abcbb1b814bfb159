// Package herd exposes unit-level commands: placeholder creation,
// identification, health status flips and death recording.
package herd

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/livestock/internal/domain/ids"
	"github.com/mamadbah2/livestock/internal/domain/liferr"
	"github.com/mamadbah2/livestock/internal/domain/models"
	"github.com/mamadbah2/livestock/internal/repository"
	"github.com/mamadbah2/livestock/internal/service/batches"
	"github.com/mamadbah2/livestock/internal/service/eligibility"
	"github.com/mamadbah2/livestock/internal/service/lifecycle"
)

// newWindowEvaluator builds an evaluator without a coverage source. The
// candidate query never carries disease requirements, so none is needed.
func newWindowEvaluator() *eligibility.Evaluator {
	return eligibility.NewEvaluator(nil, nil)
}

// Service implements unit lifecycle commands and the candidate query.
type Service struct {
	units      repository.UnitRepository
	imports    repository.ImportRepository
	exports    repository.ExportRepository
	orders     repository.OrderRepository
	tx         repository.TxRunner
	propagator *batches.Propagator
	logger     *zap.Logger
	now        func() time.Time
}

// NewService wires the herd service.
func NewService(
	units repository.UnitRepository,
	imports repository.ImportRepository,
	exports repository.ExportRepository,
	orders repository.OrderRepository,
	tx repository.TxRunner,
	propagator *batches.Propagator,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		units:      units,
		imports:    imports,
		exports:    exports,
		orders:     orders,
		tx:         tx,
		propagator: propagator,
		logger:     logger,
		now:        time.Now,
	}
}

// CreateUnitInput carries the optional import data of a new unit. A unit
// created without it starts as an empty QR-tagged slot.
type CreateUnitInput struct {
	SpeciesID      string
	InspectionCode string
	DateOfBirth    *time.Time
	OriginWeightKg float64
	Color          string
	BarnID         string
}

// CreateUnit stores a new livestock unit. With import data the unit starts
// healthy; without it the record is an empty slot waiting for assignment.
func (s *Service) CreateUnit(ctx context.Context, in CreateUnitInput) (models.LivestockUnit, error) {
	if in.SpeciesID == "" {
		return models.LivestockUnit{}, liferr.Validation("speciesId is required")
	}

	now := s.now()
	unit := models.LivestockUnit{
		ID:             ids.New(),
		SpeciesID:      in.SpeciesID,
		InspectionCode: in.InspectionCode,
		DateOfBirth:    in.DateOfBirth,
		OriginWeightKg: in.OriginWeightKg,
		Color:          in.Color,
		BarnID:         in.BarnID,
		Status:         models.UnitEmptySlot,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if in.DateOfBirth != nil || in.OriginWeightKg > 0 {
		unit.Status = models.UnitHealthy
		if in.InspectionCode == "" {
			unit.Status = models.UnitAwaitingIdent
		}
	}

	if err := s.units.Insert(ctx, unit); err != nil {
		return models.LivestockUnit{}, err
	}
	s.logger.Info("unit created",
		zap.String("unit_id", unit.ID),
		zap.String("status", string(unit.Status)))
	return unit, nil
}

// Identify assigns the inspection code of an awaiting-identification unit and
// moves it to healthy. Codes are unique per species once assigned.
func (s *Service) Identify(ctx context.Context, unitID, inspectionCode string) (models.LivestockUnit, error) {
	if inspectionCode == "" {
		return models.LivestockUnit{}, liferr.Validation("inspectionCode is required")
	}

	unit, err := s.units.Get(ctx, unitID)
	if err != nil {
		return models.LivestockUnit{}, err
	}
	if err := lifecycle.Apply(lifecycle.EventIdentify, &unit, s.now()); err != nil {
		return models.LivestockUnit{}, err
	}
	unit.InspectionCode = inspectionCode
	if err := s.units.Update(ctx, unit); err != nil {
		return models.LivestockUnit{}, err
	}
	return unit, nil
}

// MarkSick flips a healthy unit to sick. Disease history itself is recorded
// by an external collaborator; only the coarse status lives here.
func (s *Service) MarkSick(ctx context.Context, unitID string) (models.LivestockUnit, error) {
	return s.applyEvent(ctx, unitID, lifecycle.EventMarkSick)
}

// MarkRecovered flips a sick unit back to healthy.
func (s *Service) MarkRecovered(ctx context.Context, unitID string) (models.LivestockUnit, error) {
	return s.applyEvent(ctx, unitID, lifecycle.EventRecover)
}

// MarkDead records a death. Allowed from any non-terminal status except
// exported. The owning containers re-evaluate their completion in the same
// transaction because a death changes their denominators.
func (s *Service) MarkDead(ctx context.Context, unitID string) (models.LivestockUnit, error) {
	var unit models.LivestockUnit
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		unit, err = s.units.Get(ctx, unitID)
		if err != nil {
			return err
		}
		if err := lifecycle.Apply(lifecycle.EventMarkDead, &unit, s.now()); err != nil {
			return err
		}
		if err := s.units.Update(ctx, unit); err != nil {
			return err
		}

		if detail, ok, err := s.imports.FindActiveDetailByUnit(ctx, unitID); err != nil {
			return err
		} else if ok {
			if err := s.propagator.OnImportDetailTerminal(ctx, detail.BatchID); err != nil {
				return err
			}
		}
		if detail, ok, err := s.exports.FindActiveDetailByUnit(ctx, unitID); err != nil {
			return err
		} else if ok {
			if err := s.propagator.OnExportDetailTerminal(ctx, detail.BatchID); err != nil {
				return err
			}
		}
		if detail, ok, err := s.orders.FindActiveDetailByUnit(ctx, unitID); err != nil {
			return err
		} else if ok {
			if err := s.propagator.OnOrderDetailTerminal(ctx, detail.OrderID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.LivestockUnit{}, err
	}
	s.logger.Info("unit marked dead", zap.String("unit_id", unitID))
	return unit, nil
}

// FindEligibleUnits suggests candidate units for a requirement slot,
// filtered by species, age and weight only. Vaccination coverage is checked
// separately per unit at assignment time.
func (s *Service) FindEligibleUnits(ctx context.Context, req models.Requirement) ([]models.LivestockUnit, error) {
	candidates, err := s.units.FindBySpeciesAndStatus(ctx, req.SpeciesID,
		[]models.UnitStatus{models.UnitHealthy, models.UnitSick})
	if err != nil {
		return nil, err
	}

	now := s.now()
	windowOnly := models.Requirement{
		SpeciesID:   req.SpeciesID,
		MinAgeDays:  req.MinAgeDays,
		MaxAgeDays:  req.MaxAgeDays,
		MinWeightKg: req.MinWeightKg,
		MaxWeightKg: req.MaxWeightKg,
	}
	evaluator := newWindowEvaluator()

	var eligible []models.LivestockUnit
	for _, unit := range candidates {
		if err := evaluator.Check(ctx, unit, windowOnly, now); err != nil {
			continue
		}
		eligible = append(eligible, unit)
	}
	return eligible, nil
}

func (s *Service) applyEvent(ctx context.Context, unitID string, event lifecycle.Event) (models.LivestockUnit, error) {
	unit, err := s.units.Get(ctx, unitID)
	if err != nil {
		return models.LivestockUnit{}, err
	}
	if err := lifecycle.Apply(event, &unit, s.now()); err != nil {
		return models.LivestockUnit{}, err
	}
	if err := s.units.Update(ctx, unit); err != nil {
		return models.LivestockUnit{}, err
	}
	return unit, nil
}
