package batches

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/livestock/internal/domain/models"
	"github.com/mamadbah2/livestock/internal/repository/memory"
)

type fixture struct {
	units       *memory.UnitRepository
	imports     *memory.ImportRepository
	exports     *memory.ExportRepository
	procurement *memory.ProcurementRepository
	orders      *memory.OrderRepository
	recon       *Reconciler
	prop        *Propagator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		units:       memory.NewUnitRepository(),
		imports:     memory.NewImportRepository(),
		exports:     memory.NewExportRepository(),
		procurement: memory.NewProcurementRepository(),
		orders:      memory.NewOrderRepository(),
	}
	f.recon = NewReconciler(f.units, f.imports, f.exports, f.procurement, f.orders, nil)
	f.prop = NewPropagator(f.recon, nil)
	return f
}

func (f *fixture) seedUnit(t *testing.T, id string, status models.UnitStatus) {
	t.Helper()
	require.NoError(t, f.units.Insert(context.Background(), models.LivestockUnit{
		ID: id, SpeciesID: "goat", Status: status,
	}))
}

func (f *fixture) seedImportBatch(t *testing.T, id string, quantity int) {
	t.Helper()
	require.NoError(t, f.imports.InsertBatch(context.Background(), models.ImportBatch{
		ID: id, SpeciesID: "goat", EstimatedQuantity: quantity, Status: models.ImportBatchAwaiting,
	}))
}

func (f *fixture) seedImportDetail(t *testing.T, batchID, unitID string, status models.ImportDetailStatus) {
	t.Helper()
	require.NoError(t, f.imports.InsertDetail(context.Background(), models.ImportDetail{
		ID: fmt.Sprintf("d-%s-%s", batchID, unitID), BatchID: batchID, UnitID: unitID, Status: status,
	}))
}

func TestImportRemainingDerivedFromDetails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedImportBatch(t, "b1", 3)

	for i := 1; i <= 3; i++ {
		unitID := fmt.Sprintf("u%d", i)
		f.seedUnit(t, unitID, models.UnitAwaitingImport)
		f.seedImportDetail(t, "b1", unitID, models.ImportDetailAwaiting)

		batch, err := f.imports.GetBatch(ctx, "b1")
		require.NoError(t, err)
		remaining, err := f.recon.ImportRemaining(ctx, batch)
		require.NoError(t, err)
		assert.Equal(t, 3-i, remaining)
	}
}

func TestReconcileImportAllocation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedImportBatch(t, "b1", 2)

	f.seedUnit(t, "u1", models.UnitAwaitingImport)
	f.seedUnit(t, "u2", models.UnitAwaitingImport)
	f.seedImportDetail(t, "b1", "u1", models.ImportDetailAwaiting)
	f.seedImportDetail(t, "b1", "u2", models.ImportDetailAwaiting)

	batch, err := f.recon.ReconcileImportAllocation(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, models.ImportBatchImporting, batch.Status)

	// Cancelling a detail frees a slot and regresses the batch.
	detail, err := f.imports.GetDetail(ctx, "d-b1-u2")
	require.NoError(t, err)
	detail.Status = models.ImportDetailCancelled
	require.NoError(t, f.imports.UpdateDetail(ctx, detail))

	batch, err = f.recon.ReconcileImportAllocation(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, models.ImportBatchAwaiting, batch.Status)
}

func TestCheckImportCompletion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedImportBatch(t, "b1", 2)

	f.seedUnit(t, "u1", models.UnitHealthy)
	f.seedUnit(t, "u2", models.UnitAwaitingImport)
	f.seedImportDetail(t, "b1", "u1", models.ImportDetailImported)
	f.seedImportDetail(t, "b1", "u2", models.ImportDetailAwaiting)

	_, changed, err := f.recon.CheckImportCompletion(ctx, "b1")
	require.NoError(t, err)
	assert.False(t, changed)

	detail, err := f.imports.GetDetail(ctx, "d-b1-u2")
	require.NoError(t, err)
	detail.Status = models.ImportDetailImported
	require.NoError(t, f.imports.UpdateDetail(ctx, detail))

	batch, changed, err := f.recon.CheckImportCompletion(ctx, "b1")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.ImportBatchCompleted, batch.Status)
	assert.NotNil(t, batch.CompletionDate)

	// Re-running the check on a completed batch is a no-op.
	_, changed, err = f.recon.CheckImportCompletion(ctx, "b1")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestCheckImportCompletionExcludesDeadUnits(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedImportBatch(t, "b1", 2)

	f.seedUnit(t, "u1", models.UnitHealthy)
	f.seedUnit(t, "u2", models.UnitDead)
	f.seedImportDetail(t, "b1", "u1", models.ImportDetailImported)
	f.seedImportDetail(t, "b1", "u2", models.ImportDetailAwaiting)

	// The dead unit drops out of the denominator, so one imported detail
	// completes the batch.
	batch, changed, err := f.recon.CheckImportCompletion(ctx, "b1")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.ImportBatchCompleted, batch.Status)
}

func TestCheckImportCompletionAllDeadDoesNotComplete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedImportBatch(t, "b1", 1)

	f.seedUnit(t, "u1", models.UnitDead)
	f.seedImportDetail(t, "b1", "u1", models.ImportDetailAwaiting)

	_, changed, err := f.recon.CheckImportCompletion(ctx, "b1")
	require.NoError(t, err)
	assert.False(t, changed)
}

func seedExportFixture(t *testing.T, f *fixture, remaining int, detailStatuses ...models.ExportDetailStatus) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, f.procurement.InsertPackage(ctx, models.ProcurementPackage{
		ID: "p1", Status: models.PackageHandingOver,
	}))
	require.NoError(t, f.exports.InsertBatch(ctx, models.ExportBatch{
		ID: "eb1", PackageID: "p1", SpeciesID: "goat",
		Total: len(detailStatuses), Remaining: remaining,
		Status: models.ExportBatchAwaitingHandover,
	}))
	for i, status := range detailStatuses {
		unitID := fmt.Sprintf("u%d", i+1)
		unitStatus := models.UnitAwaitingExport
		if status == models.ExportDetailHandedOver {
			unitStatus = models.UnitExported
		}
		f.seedUnit(t, unitID, unitStatus)
		require.NoError(t, f.exports.InsertDetail(ctx, models.ExportDetail{
			ID: fmt.Sprintf("ed%d", i+1), BatchID: "eb1", UnitID: unitID, Status: status,
		}))
	}
}

func TestCheckExportCompletion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	seedExportFixture(t, f, 0, models.ExportDetailHandedOver, models.ExportDetailHandedOver)

	batch, changed, err := f.recon.CheckExportCompletion(ctx, "eb1")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.ExportBatchHandedOver, batch.Status)
	assert.NotNil(t, batch.HandoverDate)
}

func TestCheckExportCompletionBlockedByOpenSlots(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	// One slot still unassigned: handing over every detail must not complete
	// the batch.
	seedExportFixture(t, f, 1, models.ExportDetailHandedOver)

	_, changed, err := f.recon.CheckExportCompletion(ctx, "eb1")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestPropagatorCompletesPackage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	seedExportFixture(t, f, 0, models.ExportDetailHandedOver, models.ExportDetailHandedOver)

	require.NoError(t, f.prop.OnExportDetailTerminal(ctx, "eb1"))

	pkg, err := f.procurement.GetPackage(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, models.PackageCompleted, pkg.Status)
	assert.NotNil(t, pkg.CompletionDate)
}

func TestPropagatorLeavesPackageWithOpenBatches(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	seedExportFixture(t, f, 0, models.ExportDetailHandedOver)

	// A second batch of the same package is still open.
	require.NoError(t, f.exports.InsertBatch(ctx, models.ExportBatch{
		ID: "eb2", PackageID: "p1", SpeciesID: "goat",
		Total: 1, Remaining: 1, Status: models.ExportBatchAwaitingHandover,
	}))

	require.NoError(t, f.prop.OnExportDetailTerminal(ctx, "eb1"))

	pkg, err := f.procurement.GetPackage(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, models.PackageHandingOver, pkg.Status)
}

func TestCheckOrderCompletion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.orders.InsertOrder(ctx, models.Order{
		ID: "o1", CustomerName: "acme", Status: models.OrderAwaitingHandover,
	}))
	require.NoError(t, f.orders.InsertRequirement(ctx, models.OrderRequirement{
		ID: "r1", OrderID: "o1", SpeciesID: "goat", Quantity: 2,
	}))

	f.seedUnit(t, "u1", models.UnitExported)
	f.seedUnit(t, "u2", models.UnitAwaitingExport)
	require.NoError(t, f.orders.InsertDetail(ctx, models.OrderDetail{
		ID: "od1", OrderID: "o1", RequirementID: "r1", UnitID: "u1", Status: models.OrderDetailExported,
	}))
	require.NoError(t, f.orders.InsertDetail(ctx, models.OrderDetail{
		ID: "od2", OrderID: "o1", RequirementID: "r1", UnitID: "u2", Status: models.OrderDetailAwaitingExport,
	}))

	_, changed, err := f.recon.CheckOrderCompletion(ctx, "o1")
	require.NoError(t, err)
	assert.False(t, changed)

	detail, err := f.orders.GetDetail(ctx, "od2")
	require.NoError(t, err)
	detail.Status = models.OrderDetailExported
	require.NoError(t, f.orders.UpdateDetail(ctx, detail))

	order, changed, err := f.recon.CheckOrderCompletion(ctx, "o1")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.OrderCompleted, order.Status)
}
