package reporting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/livestock/internal/domain/models"
	"github.com/mamadbah2/livestock/internal/repository/memory"
)

var reportAt = time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)

type sheetSpy struct {
	rows [][]interface{}
	err  error
}

func (s *sheetSpy) WriteRow(_ context.Context, _ string, values []interface{}) error {
	if s.err != nil {
		return s.err
	}
	s.rows = append(s.rows, values)
	return nil
}

type fixture struct {
	units     *memory.UnitRepository
	imports   *memory.ImportRepository
	exports   *memory.ExportRepository
	insurance *memory.InsuranceRepository
	summaries *memory.SummaryRepository
	sheet     *sheetSpy
	svc       *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		units:     memory.NewUnitRepository(),
		imports:   memory.NewImportRepository(),
		exports:   memory.NewExportRepository(),
		insurance: memory.NewInsuranceRepository(),
		summaries: memory.NewSummaryRepository(),
		sheet:     &sheetSpy{},
	}
	f.svc = NewService(f.units, f.imports, f.exports, f.insurance, f.summaries, f.sheet, nil)
	return f
}

func (f *fixture) seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	for i, status := range []models.UnitStatus{
		models.UnitHealthy, models.UnitHealthy, models.UnitSick, models.UnitAwaitingExport,
	} {
		require.NoError(t, f.units.Insert(ctx, models.LivestockUnit{
			ID: string(rune('a' + i)), SpeciesID: "goat", Status: status,
		}))
	}

	// One death inside the report day, one the day before.
	diedToday := reportAt.Add(-2 * time.Hour)
	diedBefore := reportAt.Add(-30 * time.Hour)
	require.NoError(t, f.units.Insert(ctx, models.LivestockUnit{
		ID: "dead-1", SpeciesID: "goat", Status: models.UnitDead, DeadAt: &diedToday,
	}))
	require.NoError(t, f.units.Insert(ctx, models.LivestockUnit{
		ID: "dead-2", SpeciesID: "goat", Status: models.UnitDead, DeadAt: &diedBefore,
	}))

	handedOver := reportAt.Add(-1 * time.Hour)
	require.NoError(t, f.exports.InsertDetail(ctx, models.ExportDetail{
		ID: "ed-1", BatchID: "eb-1", UnitID: "a",
		Status: models.ExportDetailHandedOver, HandoverDate: &handedOver,
	}))

	require.NoError(t, f.imports.InsertBatch(ctx, models.ImportBatch{
		ID: "ib-1", SpeciesID: "goat", EstimatedQuantity: 5, Status: models.ImportBatchAwaiting,
	}))
	require.NoError(t, f.imports.InsertBatch(ctx, models.ImportBatch{
		ID: "ib-2", SpeciesID: "goat", EstimatedQuantity: 5, Status: models.ImportBatchCompleted,
	}))

	require.NoError(t, f.insurance.Insert(ctx, models.InsuranceRequest{
		ID: "ir-1", OriginalUnitID: "a", Status: models.InsurancePending,
	}))
}

func TestBuildDailySummary(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	summary, err := f.svc.BuildDailySummary(context.Background(), reportAt)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.StatusCounts[models.UnitHealthy])
	assert.Equal(t, 1, summary.StatusCounts[models.UnitSick])
	assert.Equal(t, 1, summary.DeathsToday)
	assert.Equal(t, 1, summary.HandoversToday)
	assert.Equal(t, 1, summary.OpenImportBatches)
	assert.Equal(t, 1, summary.OpenInsurance)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), summary.Date)
}

func TestPublishDailySummaryStoresAndExports(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	summary, err := f.svc.PublishDailySummary(context.Background(), reportAt)
	require.NoError(t, err)

	require.Len(t, f.summaries.Saved(), 1)
	require.Len(t, f.sheet.rows, 1)
	assert.Equal(t, "2025-06-01", f.sheet.rows[0][0])

	text := f.svc.FormatSummary(summary)
	assert.Contains(t, text, "Herd summary 2025-06-01")
	assert.Contains(t, text, "Deaths today: 1")
}

func TestPublishDailySummarySheetFailureIsBestEffort(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	f.sheet.err = errors.New("quota exceeded")

	_, err := f.svc.PublishDailySummary(context.Background(), reportAt)
	require.NoError(t, err)
	assert.Len(t, f.summaries.Saved(), 1)
}
