package vaccination

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/livestock/internal/domain/models"
	"github.com/mamadbah2/livestock/internal/repository/memory"
)

func seedRepo(t *testing.T) *memory.VaccinationRepository {
	t.Helper()
	repo := memory.NewVaccinationRepository()
	repo.SeedMedicine(models.Medicine{ID: "med-fmd", Name: "FMD vaccine", DiseaseIDs: []string{"fmd"}})
	repo.SeedMedicine(models.Medicine{ID: "med-combo", Name: "Combo", DiseaseIDs: []string{"fmd", "ppr"}})
	return repo
}

func TestSingleSourceCountsImmediately(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	repo := seedRepo(t)

	require.NoError(t, repo.InsertSingle(ctx, models.SingleVaccination{
		ID:          "sv1",
		UnitID:      "u1",
		MedicineIDs: []string{"med-fmd"},
		GivenDate:   now.AddDate(0, 0, -10),
	}))

	agg := NewAggregator(NewSingleSource(repo))
	report, err := agg.Coverage(ctx, "u1", []string{"fmd"}, now)
	require.NoError(t, err)

	assert.True(t, report.FullyCovered())
	assert.Empty(t, report.Missing())
}

func TestSingleSourceOutsideLookback(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	repo := seedRepo(t)

	require.NoError(t, repo.InsertSingle(ctx, models.SingleVaccination{
		ID:          "sv1",
		UnitID:      "u1",
		MedicineIDs: []string{"med-fmd"},
		GivenDate:   now.AddDate(0, 0, -22),
	}))

	agg := NewAggregator(NewSingleSource(repo))
	report, err := agg.Coverage(ctx, "u1", []string{"fmd"}, now)
	require.NoError(t, err)

	assert.False(t, report.FullyCovered())
	assert.Equal(t, []string{"fmd"}, report.Missing())
}

func TestBatchSourceRequiresCompletion(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	repo := seedRepo(t)

	conduct := now.AddDate(0, 0, -5)
	require.NoError(t, repo.InsertBatch(ctx, models.BatchVaccination{
		ID:          "bv1",
		MedicineIDs: []string{"med-fmd"},
		Status:      models.BatchVaccinationPlanned,
		ConductDate: &conduct,
	}))
	require.NoError(t, repo.InsertMember(ctx, models.LivestockVaccination{
		ID: "m1", BatchVaccinationID: "bv1", UnitID: "u1",
	}))

	agg := NewAggregator(NewBatchSource(repo))

	// Planned batches do not count even with a conduct date.
	report, err := agg.Coverage(ctx, "u1", []string{"fmd"}, now)
	require.NoError(t, err)
	assert.False(t, report.FullyCovered())

	batch, err := repo.GetBatch(ctx, "bv1")
	require.NoError(t, err)
	batch.Status = models.BatchVaccinationCompleted
	require.NoError(t, repo.UpdateBatch(ctx, batch))

	report, err = agg.Coverage(ctx, "u1", []string{"fmd"}, now)
	require.NoError(t, err)
	assert.True(t, report.FullyCovered())
}

func TestAggregatorUnionsSources(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	repo := seedRepo(t)

	conduct := now.AddDate(0, 0, -3)
	require.NoError(t, repo.InsertBatch(ctx, models.BatchVaccination{
		ID:          "bv1",
		MedicineIDs: []string{"med-fmd"},
		Status:      models.BatchVaccinationCompleted,
		ConductDate: &conduct,
	}))
	require.NoError(t, repo.InsertMember(ctx, models.LivestockVaccination{
		ID: "m1", BatchVaccinationID: "bv1", UnitID: "u1",
	}))
	require.NoError(t, repo.InsertSingle(ctx, models.SingleVaccination{
		ID:          "sv1",
		UnitID:      "u1",
		MedicineIDs: []string{"med-combo"},
		GivenDate:   now.AddDate(0, 0, -1),
	}))

	agg := NewAggregator(NewBatchSource(repo), NewSingleSource(repo))
	report, err := agg.Coverage(ctx, "u1", []string{"fmd", "ppr"}, now)
	require.NoError(t, err)

	assert.True(t, report.FullyCovered())
	assert.True(t, report.Done["fmd"])
	assert.True(t, report.Done["ppr"])
}

func TestCoverageReportMissingSorted(t *testing.T) {
	report := CoverageReport{
		Required: []string{"ppr", "fmd", "anthrax"},
		Done:     map[string]bool{"fmd": true},
	}

	assert.Equal(t, []string{"anthrax", "ppr"}, report.Missing())
	assert.False(t, report.FullyCovered())
}
