package eligibility

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/livestock/internal/domain/liferr"
	"github.com/mamadbah2/livestock/internal/domain/models"
	"github.com/mamadbah2/livestock/internal/service/vaccination"
)

type stubCoverage struct {
	covered map[string]bool
}

func (s *stubCoverage) Coverage(_ context.Context, _ string, required []string, _ time.Time) (vaccination.CoverageReport, error) {
	report := vaccination.CoverageReport{Required: required, Done: make(map[string]bool, len(required))}
	for _, id := range required {
		report.Done[id] = s.covered[id]
	}
	return report, nil
}

func intPtr(v int) *int             { return &v }
func floatPtr(v float64) *float64   { return &v }
func datePtr(t time.Time) *time.Time { return &t }

func TestCheckConstraintOrder(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	born := func(days int) *time.Time { return datePtr(now.AddDate(0, 0, -days)) }

	req := models.Requirement{
		SpeciesID:   "goat",
		MinAgeDays:  intPtr(90),
		MaxAgeDays:  intPtr(150),
		MinWeightKg: floatPtr(20),
		MaxWeightKg: floatPtr(40),
		DiseaseIDs:  []string{"fmd"},
	}

	cases := []struct {
		name string
		unit models.LivestockUnit
		want liferr.Constraint
	}{
		{
			name: "wrong species wins over everything",
			unit: models.LivestockUnit{ID: "u1", SpeciesID: "cow", DateOfBirth: born(80), WeightEstimate: 10},
			want: liferr.ConstraintSpecies,
		},
		{
			name: "too young reported before underweight",
			unit: models.LivestockUnit{ID: "u2", SpeciesID: "goat", DateOfBirth: born(80), WeightEstimate: 10},
			want: liferr.ConstraintAgeMin,
		},
		{
			name: "too old",
			unit: models.LivestockUnit{ID: "u3", SpeciesID: "goat", DateOfBirth: born(200), WeightEstimate: 30},
			want: liferr.ConstraintAgeMax,
		},
		{
			name: "underweight",
			unit: models.LivestockUnit{ID: "u4", SpeciesID: "goat", DateOfBirth: born(100), WeightEstimate: 19.9},
			want: liferr.ConstraintWeightMin,
		},
		{
			name: "overweight",
			unit: models.LivestockUnit{ID: "u5", SpeciesID: "goat", DateOfBirth: born(100), WeightEstimate: 40.1},
			want: liferr.ConstraintWeightMax,
		},
		{
			name: "uncovered disease checked last",
			unit: models.LivestockUnit{ID: "u6", SpeciesID: "goat", DateOfBirth: born(100), WeightEstimate: 30},
			want: liferr.ConstraintVaccination,
		},
	}

	evaluator := NewEvaluator(&stubCoverage{covered: map[string]bool{}}, nil)

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := evaluator.Check(context.Background(), tc.unit, req, now)
			var elig *liferr.EligibilityError
			require.ErrorAs(t, err, &elig)
			assert.Equal(t, tc.want, elig.Constraint)
			assert.Equal(t, tc.unit.ID, elig.UnitID)
		})
	}
}

func TestCheckPasses(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	evaluator := NewEvaluator(&stubCoverage{covered: map[string]bool{"fmd": true}}, nil)

	unit := models.LivestockUnit{
		ID:             "u1",
		SpeciesID:      "goat",
		DateOfBirth:    datePtr(now.AddDate(0, 0, -120)),
		WeightEstimate: 30,
	}
	req := models.Requirement{
		SpeciesID:   "goat",
		MinAgeDays:  intPtr(90),
		MaxAgeDays:  intPtr(150),
		MinWeightKg: floatPtr(20),
		MaxWeightKg: floatPtr(40),
		DiseaseIDs:  []string{"fmd"},
	}

	assert.NoError(t, evaluator.Check(context.Background(), unit, req, now))
}

func TestCheckInclusiveBounds(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	evaluator := NewEvaluator(nil, nil)

	unit := models.LivestockUnit{
		ID:             "u1",
		SpeciesID:      "goat",
		DateOfBirth:    datePtr(now.AddDate(0, 0, -90)),
		WeightEstimate: 40,
	}
	req := models.Requirement{
		SpeciesID:   "goat",
		MinAgeDays:  intPtr(90),
		MaxAgeDays:  intPtr(150),
		MinWeightKg: floatPtr(20),
		MaxWeightKg: floatPtr(40),
	}

	assert.NoError(t, evaluator.Check(context.Background(), unit, req, now))
}

func TestCheckWeightFallsBackToOrigin(t *testing.T) {
	now := time.Now()
	evaluator := NewEvaluator(nil, nil)

	unit := models.LivestockUnit{ID: "u1", SpeciesID: "goat", OriginWeightKg: 25}
	req := models.Requirement{SpeciesID: "goat", MinWeightKg: floatPtr(20)}

	assert.NoError(t, evaluator.Check(context.Background(), unit, req, now))
}

func TestCheckNilBoundsUnconstrained(t *testing.T) {
	evaluator := NewEvaluator(nil, nil)

	// No date of birth and zero weight pass when the slot has no window.
	unit := models.LivestockUnit{ID: "u1", SpeciesID: "goat"}
	assert.NoError(t, evaluator.Check(context.Background(), unit, models.Requirement{SpeciesID: "goat"}, time.Now()))
}

func TestWindowCheck(t *testing.T) {
	assert.NoError(t, WindowCheck(models.Requirement{MinAgeDays: intPtr(10), MaxAgeDays: intPtr(20)}))

	err := WindowCheck(models.Requirement{MinAgeDays: intPtr(30), MaxAgeDays: intPtr(20)})
	assert.ErrorIs(t, err, liferr.ErrValidation)

	err = WindowCheck(models.Requirement{MinWeightKg: floatPtr(50), MaxWeightKg: floatPtr(40)})
	assert.ErrorIs(t, err, liferr.ErrValidation)
}
