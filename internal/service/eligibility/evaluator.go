// Package eligibility decides whether a unit may join a requirement slot.
// Checks run in a fixed order so the first violated constraint is
// deterministic and can be shown to the user as-is.
package eligibility

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/livestock/internal/domain/liferr"
	"github.com/mamadbah2/livestock/internal/domain/models"
	"github.com/mamadbah2/livestock/internal/service/vaccination"
)

// CoverageChecker answers whether a unit currently covers the required
// diseases. The vaccination aggregator is the production implementation.
type CoverageChecker interface {
	Coverage(ctx context.Context, unitID string, required []string, now time.Time) (vaccination.CoverageReport, error)
}

// Evaluator runs the admission checks for a unit against a slot.
type Evaluator struct {
	coverage CoverageChecker
	logger   *zap.Logger
}

// NewEvaluator wires an evaluator. The coverage checker may be nil when no
// slot carries disease requirements (retail orders without coverage lines).
func NewEvaluator(coverage CoverageChecker, logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{coverage: coverage, logger: logger}
}

// Check validates the unit against the slot. The order is fixed: species,
// age-min, age-max, weight-min, weight-max, vaccination. All bounds are
// inclusive; a nil bound is unconstrained. The first violation is returned
// as a NotEligible error; nil means the unit may join.
func (e *Evaluator) Check(ctx context.Context, unit models.LivestockUnit, req models.Requirement, now time.Time) error {
	if req.SpeciesID != "" && unit.SpeciesID != req.SpeciesID {
		return liferr.NotEligible(unit.ID, liferr.ConstraintSpecies,
			fmt.Sprintf("unit species %s, slot requires %s", unit.SpeciesID, req.SpeciesID))
	}

	age := unit.AgeInDays(now)
	if req.MinAgeDays != nil && age < *req.MinAgeDays {
		return liferr.NotEligible(unit.ID, liferr.ConstraintAgeMin,
			fmt.Sprintf("age %d days, minimum %d", age, *req.MinAgeDays))
	}
	if req.MaxAgeDays != nil && age > *req.MaxAgeDays {
		return liferr.NotEligible(unit.ID, liferr.ConstraintAgeMax,
			fmt.Sprintf("age %d days, maximum %d", age, *req.MaxAgeDays))
	}

	weight := decimal.NewFromFloat(unit.EffectiveWeightKg())
	if req.MinWeightKg != nil && weight.Cmp(decimal.NewFromFloat(*req.MinWeightKg)) < 0 {
		return liferr.NotEligible(unit.ID, liferr.ConstraintWeightMin,
			fmt.Sprintf("weight %s kg, minimum %v", weight, *req.MinWeightKg))
	}
	if req.MaxWeightKg != nil && weight.Cmp(decimal.NewFromFloat(*req.MaxWeightKg)) > 0 {
		return liferr.NotEligible(unit.ID, liferr.ConstraintWeightMax,
			fmt.Sprintf("weight %s kg, maximum %v", weight, *req.MaxWeightKg))
	}

	if len(req.DiseaseIDs) > 0 {
		if e.coverage == nil {
			return liferr.NotEligible(unit.ID, liferr.ConstraintVaccination, "no coverage source configured")
		}
		report, err := e.coverage.Coverage(ctx, unit.ID, req.DiseaseIDs, now)
		if err != nil {
			return err
		}
		if missing := report.Missing(); len(missing) > 0 {
			return liferr.NotEligible(unit.ID, liferr.ConstraintVaccination,
				"missing coverage for "+strings.Join(missing, ", "))
		}
	}

	return nil
}

// WindowCheck validates the slot itself: an inverted window is a caller
// mistake surfaced as a ValidationError before any detail is created.
func WindowCheck(req models.Requirement) error {
	if req.MinAgeDays != nil && req.MaxAgeDays != nil && *req.MinAgeDays > *req.MaxAgeDays {
		return liferr.Validation("age window inverted: min %d > max %d", *req.MinAgeDays, *req.MaxAgeDays)
	}
	if req.MinWeightKg != nil && req.MaxWeightKg != nil && *req.MinWeightKg > *req.MaxWeightKg {
		return liferr.Validation("weight window inverted: min %v > max %v", *req.MinWeightKg, *req.MaxWeightKg)
	}
	return nil
}
