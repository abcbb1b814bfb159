package insurance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/livestock/internal/domain/liferr"
	"github.com/mamadbah2/livestock/internal/domain/models"
	"github.com/mamadbah2/livestock/internal/repository/memory"
)

type fixture struct {
	units    *memory.UnitRepository
	requests *memory.InsuranceRepository
	exports  *memory.ExportRepository
	svc      *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		units:    memory.NewUnitRepository(),
		requests: memory.NewInsuranceRepository(),
		exports:  memory.NewExportRepository(),
	}
	f.svc = NewService(f.units, f.requests, f.exports, memory.NewTxRunner(), nil)
	return f
}

func (f *fixture) seedUnit(t *testing.T, id string, status models.UnitStatus) {
	t.Helper()
	require.NoError(t, f.units.Insert(context.Background(), models.LivestockUnit{
		ID: id, SpeciesID: "goat", Status: status, WeightEstimate: 30,
	}))
}

// seedExportedUnit seeds an exported unit with an active export detail whose
// insurance expires at the given moment.
func (f *fixture) seedExportedUnit(t *testing.T, id string, expiry time.Time) {
	t.Helper()
	f.seedUnit(t, id, models.UnitExported)
	require.NoError(t, f.exports.InsertDetail(context.Background(), models.ExportDetail{
		ID: "ed-" + id, BatchID: "eb1", UnitID: id,
		Status: models.ExportDetailHandedOver, InsuranceExpiryDate: &expiry,
	}))
}

func TestRequestValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// Only exported units qualify.
	f.seedUnit(t, "grazing", models.UnitHealthy)
	_, err := f.svc.Request(ctx, "grazing", "lame leg", false, "tester")
	assert.ErrorIs(t, err, liferr.ErrValidation)

	// Expired cover is rejected.
	f.seedExportedUnit(t, "expired", time.Now().AddDate(0, -1, 0))
	_, err = f.svc.Request(ctx, "expired", "lame leg", false, "tester")
	assert.ErrorIs(t, err, liferr.ErrValidation)
}

func TestRequestDuplicateOpenRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedExportedUnit(t, "x", time.Now().AddDate(0, 6, 0))

	_, err := f.svc.Request(ctx, "x", "lame leg", false, "tester")
	require.NoError(t, err)

	_, err = f.svc.Request(ctx, "x", "still lame", false, "tester")
	assert.ErrorIs(t, err, liferr.ErrDuplicateAssignment)
}

func TestReplacementSwapRevertsPrevious(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedExportedUnit(t, "orig", time.Now().AddDate(0, 6, 0))
	f.seedUnit(t, "x", models.UnitHealthy)
	f.seedUnit(t, "y", models.UnitHealthy)

	req, err := f.svc.Request(ctx, "orig", "lame leg", false, "tester")
	require.NoError(t, err)
	req, err = f.svc.Approve(ctx, req.ID)
	require.NoError(t, err)
	require.Equal(t, models.InsurancePreparing, req.Status)

	req, err = f.svc.AssignReplacement(ctx, req.ID, "x")
	require.NoError(t, err)
	assert.Equal(t, models.InsuranceAwaitingHandover, req.Status)

	// Swapping to y releases x back to healthy.
	req, err = f.svc.AssignReplacement(ctx, req.ID, "y")
	require.NoError(t, err)
	assert.Equal(t, "y", req.ReplacementUnitID)

	x, err := f.units.Get(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, models.UnitHealthy, x.Status)

	y, err := f.units.Get(ctx, "y")
	require.NoError(t, err)
	assert.Equal(t, models.UnitAwaitingExport, y.Status)

	// Re-assigning the current replacement is a no-op error.
	_, err = f.svc.AssignReplacement(ctx, req.ID, "y")
	assert.ErrorIs(t, err, liferr.ErrDuplicateAssignment)
}

func TestCompleteWithReturnRecallsOriginal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedExportedUnit(t, "orig", time.Now().AddDate(0, 6, 0))
	f.seedUnit(t, "repl", models.UnitHealthy)

	req, err := f.svc.Request(ctx, "orig", "lame leg", true, "tester")
	require.NoError(t, err)
	req, err = f.svc.Approve(ctx, req.ID)
	require.NoError(t, err)
	req, err = f.svc.AssignReplacement(ctx, req.ID, "repl")
	require.NoError(t, err)

	req, err = f.svc.Complete(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InsuranceCompleted, req.Status)
	require.NotNil(t, req.HandoverDate)

	repl, err := f.units.Get(ctx, "repl")
	require.NoError(t, err)
	assert.Equal(t, models.UnitExported, repl.Status)

	// The returned original goes back into the herd for treatment.
	orig, err := f.units.Get(ctx, "orig")
	require.NoError(t, err)
	assert.Equal(t, models.UnitSick, orig.Status)
}

func TestCompleteWithoutReturnLeavesOriginal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedExportedUnit(t, "orig", time.Now().AddDate(0, 6, 0))
	f.seedUnit(t, "repl", models.UnitHealthy)

	req, err := f.svc.Request(ctx, "orig", "lame leg", false, "tester")
	require.NoError(t, err)
	req, err = f.svc.Approve(ctx, req.ID)
	require.NoError(t, err)
	req, err = f.svc.AssignReplacement(ctx, req.ID, "repl")
	require.NoError(t, err)

	_, err = f.svc.Complete(ctx, req.ID)
	require.NoError(t, err)

	orig, err := f.units.Get(ctx, "orig")
	require.NoError(t, err)
	assert.Equal(t, models.UnitExported, orig.Status)
}

func TestCompleteWithoutReplacementRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedExportedUnit(t, "orig", time.Now().AddDate(0, 6, 0))

	req, err := f.svc.Request(ctx, "orig", "lame leg", false, "tester")
	require.NoError(t, err)
	req, err = f.svc.Approve(ctx, req.ID)
	require.NoError(t, err)

	_, err = f.svc.Complete(ctx, req.ID)
	assert.ErrorIs(t, err, liferr.ErrInvalidTransition)
}

func TestRejectOnlyBeforeHandoverPrep(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedExportedUnit(t, "orig", time.Now().AddDate(0, 6, 0))
	f.seedUnit(t, "repl", models.UnitHealthy)

	req, err := f.svc.Request(ctx, "orig", "lame leg", false, "tester")
	require.NoError(t, err)
	req, err = f.svc.Approve(ctx, req.ID)
	require.NoError(t, err)
	req, err = f.svc.AssignReplacement(ctx, req.ID, "repl")
	require.NoError(t, err)

	_, err = f.svc.Reject(ctx, req.ID, "changed mind")
	assert.ErrorIs(t, err, liferr.ErrInvalidTransition)
}

func TestCancelReleasesReplacement(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedExportedUnit(t, "orig", time.Now().AddDate(0, 6, 0))
	f.seedUnit(t, "repl", models.UnitHealthy)

	req, err := f.svc.Request(ctx, "orig", "lame leg", false, "tester")
	require.NoError(t, err)
	req, err = f.svc.Approve(ctx, req.ID)
	require.NoError(t, err)
	req, err = f.svc.AssignReplacement(ctx, req.ID, "repl")
	require.NoError(t, err)

	req, err = f.svc.Cancel(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InsuranceCancelled, req.Status)

	repl, err := f.units.Get(ctx, "repl")
	require.NoError(t, err)
	assert.Equal(t, models.UnitHealthy, repl.Status)

	// A cancelled request frees the unit for a fresh one.
	_, err = f.svc.Request(ctx, "orig", "lame leg", false, "tester")
	assert.NoError(t, err)
}
