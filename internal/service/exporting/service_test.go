package exporting

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/livestock/internal/domain/liferr"
	"github.com/mamadbah2/livestock/internal/domain/models"
	"github.com/mamadbah2/livestock/internal/repository/memory"
	"github.com/mamadbah2/livestock/internal/service/batches"
	"github.com/mamadbah2/livestock/internal/service/eligibility"
	"github.com/mamadbah2/livestock/internal/service/vaccination"
	"github.com/mamadbah2/livestock/pkg/clients/notify"
)

type eventRecorder struct {
	events []notify.Event
}

func (r *eventRecorder) SendEvent(_ context.Context, event notify.Event) error {
	r.events = append(r.events, event)
	return nil
}

type fixture struct {
	units       *memory.UnitRepository
	exports     *memory.ExportRepository
	procurement *memory.ProcurementRepository
	orders      *memory.OrderRepository
	vacc        *memory.VaccinationRepository
	notifier    *eventRecorder
	svc         *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		units:       memory.NewUnitRepository(),
		exports:     memory.NewExportRepository(),
		procurement: memory.NewProcurementRepository(),
		orders:      memory.NewOrderRepository(),
		vacc:        memory.NewVaccinationRepository(),
		notifier:    &eventRecorder{},
	}
	recon := batches.NewReconciler(f.units, memory.NewImportRepository(), f.exports, f.procurement, f.orders, nil)
	aggregator := vaccination.NewAggregator(vaccination.NewBatchSource(f.vacc), vaccination.NewSingleSource(f.vacc))
	evaluator := eligibility.NewEvaluator(aggregator, nil)
	f.svc = NewService(f.units, f.exports, f.procurement, f.orders, memory.NewTxRunner(), evaluator, batches.NewPropagator(recon, nil), f.notifier, nil)
	return f
}

func (f *fixture) seedHealthyUnit(t *testing.T, id string, weight float64) {
	t.Helper()
	require.NoError(t, f.units.Insert(context.Background(), models.LivestockUnit{
		ID: id, SpeciesID: "goat", Status: models.UnitHealthy, WeightEstimate: weight,
	}))
}

// readyPackage creates a package with one goat requirement line and advances
// it to awaiting-handover so export batches can be created.
func (f *fixture) readyPackage(t *testing.T, in PackageDetailInput) models.ProcurementPackage {
	t.Helper()
	ctx := context.Background()

	pkg, err := f.svc.CreatePackage(ctx, "PKG-1", "acme")
	require.NoError(t, err)
	_, err = f.svc.AddPackageDetail(ctx, pkg.ID, in)
	require.NoError(t, err)

	pkg, err = f.svc.AdvancePackage(ctx, pkg.ID)
	require.NoError(t, err)
	require.Equal(t, models.PackageAwaitingSelection, pkg.Status)
	pkg, err = f.svc.AdvancePackage(ctx, pkg.ID)
	require.NoError(t, err)
	require.Equal(t, models.PackageAwaitingHandover, pkg.Status)
	return pkg
}

func goatLine(qty int) PackageDetailInput {
	return PackageDetailInput{SpeciesID: "goat", RequiredQty: qty}
}

func TestAdvancePackageStopsAtHandingOver(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pkg := f.readyPackage(t, goatLine(1))

	pkg, err := f.svc.AdvancePackage(ctx, pkg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PackageHandingOver, pkg.Status)

	_, err = f.svc.AdvancePackage(ctx, pkg.ID)
	assert.ErrorIs(t, err, liferr.ErrInvalidTransition)
}

func TestAddPackageDetailInvertedWindow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pkg, err := f.svc.CreatePackage(ctx, "PKG-1", "acme")
	require.NoError(t, err)

	minW, maxW := 50.0, 40.0
	_, err = f.svc.AddPackageDetail(ctx, pkg.ID, PackageDetailInput{
		SpeciesID: "goat", RequiredQty: 1, MinWeightKg: &minW, MaxWeightKg: &maxW,
	})
	assert.ErrorIs(t, err, liferr.ErrValidation)
}

func TestCreateExportBatchCappedByRequirement(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pkg := f.readyPackage(t, goatLine(5))

	_, err := f.svc.CreateExportBatch(ctx, pkg.ID, "goat", "north", 3)
	require.NoError(t, err)
	_, err = f.svc.CreateExportBatch(ctx, pkg.ID, "goat", "south", 2)
	require.NoError(t, err)

	// Σ(totals) may not exceed Σ(required quantities).
	_, err = f.svc.CreateExportBatch(ctx, pkg.ID, "goat", "east", 1)
	assert.ErrorIs(t, err, liferr.ErrCapacityExceeded)
}

func TestCreateExportBatchUnknownSpecies(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pkg := f.readyPackage(t, goatLine(2))

	_, err := f.svc.CreateExportBatch(ctx, pkg.ID, "cow", "acme", 1)
	assert.ErrorIs(t, err, liferr.ErrValidation)
}

func TestAssignUnitConsumesRemaining(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pkg := f.readyPackage(t, goatLine(2))
	batch, err := f.svc.CreateExportBatch(ctx, pkg.ID, "goat", "acme", 2)
	require.NoError(t, err)

	f.seedHealthyUnit(t, "u1", 30)
	got, err := f.svc.AssignUnit(ctx, batch.ID, "u1", "tester")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Remaining)

	unit, err := f.units.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.UnitAwaitingExport, unit.Status)
}

func TestAssignUnitLastSlotRace(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pkg := f.readyPackage(t, goatLine(1))
	batch, err := f.svc.CreateExportBatch(ctx, pkg.ID, "goat", "acme", 1)
	require.NoError(t, err)

	f.seedHealthyUnit(t, "u1", 30)
	f.seedHealthyUnit(t, "u2", 30)

	_, err = f.svc.AssignUnit(ctx, batch.ID, "u1", "tester")
	require.NoError(t, err)

	// The second contender for the single slot loses on the conditional
	// decrement.
	_, err = f.svc.AssignUnit(ctx, batch.ID, "u2", "tester")
	assert.ErrorIs(t, err, liferr.ErrCapacityExceeded)

	unit, err := f.units.Get(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, models.UnitHealthy, unit.Status)
}

func TestAssignUnitVaccinationGate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.vacc.SeedMedicine(models.Medicine{ID: "med-fmd", DiseaseIDs: []string{"fmd"}})

	pkg := f.readyPackage(t, PackageDetailInput{
		SpeciesID: "goat", RequiredQty: 1, DiseaseIDs: []string{"fmd"},
	})
	batch, err := f.svc.CreateExportBatch(ctx, pkg.ID, "goat", "acme", 1)
	require.NoError(t, err)

	f.seedHealthyUnit(t, "u1", 30)

	_, err = f.svc.AssignUnit(ctx, batch.ID, "u1", "tester")
	var elig *liferr.EligibilityError
	require.ErrorAs(t, err, &elig)
	assert.Equal(t, liferr.ConstraintVaccination, elig.Constraint)

	require.NoError(t, f.vacc.InsertSingle(ctx, models.SingleVaccination{
		ID: "sv1", UnitID: "u1", MedicineIDs: []string{"med-fmd"}, GivenDate: time.Now().AddDate(0, 0, -5),
	}))

	_, err = f.svc.AssignUnit(ctx, batch.ID, "u1", "tester")
	assert.NoError(t, err)
}

func TestAssignUnitDuplicateAcrossBatches(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pkg := f.readyPackage(t, goatLine(4))
	first, err := f.svc.CreateExportBatch(ctx, pkg.ID, "goat", "north", 2)
	require.NoError(t, err)
	second, err := f.svc.CreateExportBatch(ctx, pkg.ID, "goat", "south", 2)
	require.NoError(t, err)

	f.seedHealthyUnit(t, "u1", 30)
	_, err = f.svc.AssignUnit(ctx, first.ID, "u1", "tester")
	require.NoError(t, err)

	_, err = f.svc.AssignUnit(ctx, second.ID, "u1", "tester")
	assert.ErrorIs(t, err, liferr.ErrDuplicateAssignment)
}

func TestRemoveUnitRestoresSlot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pkg := f.readyPackage(t, goatLine(1))
	batch, err := f.svc.CreateExportBatch(ctx, pkg.ID, "goat", "acme", 1)
	require.NoError(t, err)

	f.seedHealthyUnit(t, "u1", 30)
	_, err = f.svc.AssignUnit(ctx, batch.ID, "u1", "tester")
	require.NoError(t, err)

	got, err := f.svc.RemoveUnit(ctx, batch.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Remaining)

	unit, err := f.units.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.UnitHealthy, unit.Status)
}

func TestConfirmHandoverCompletesChain(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pkg := f.readyPackage(t, PackageDetailInput{
		SpeciesID: "goat", RequiredQty: 1, InsuranceMonths: 6,
	})
	batch, err := f.svc.CreateExportBatch(ctx, pkg.ID, "goat", "acme", 1)
	require.NoError(t, err)

	f.seedHealthyUnit(t, "u1", 32.5)
	_, err = f.svc.AssignUnit(ctx, batch.ID, "u1", "tester")
	require.NoError(t, err)

	details, err := f.exports.ListDetailsByBatch(ctx, batch.ID)
	require.NoError(t, err)
	require.Len(t, details, 1)

	require.NoError(t, f.svc.ConfirmHandover(ctx, details[0].ID, "tester"))

	unit, err := f.units.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.UnitExported, unit.Status)
	assert.Equal(t, 32.5, unit.ExportWeightKg)

	detail, err := f.exports.GetDetail(ctx, details[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExportDetailHandedOver, detail.Status)
	require.NotNil(t, detail.InsuranceExpiryDate)
	require.NotNil(t, detail.HandoverDate)
	assert.Equal(t, detail.HandoverDate.AddDate(0, 6, 0), *detail.InsuranceExpiryDate)

	// The single-batch package completes through the propagation chain.
	gotBatch, err := f.exports.GetBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExportBatchHandedOver, gotBatch.Status)

	gotPkg, err := f.procurement.GetPackage(ctx, pkg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PackageCompleted, gotPkg.Status)

	// Batch and package completion each announce themselves to the webhook.
	require.Len(t, f.notifier.events, 2)
	assert.Equal(t, notify.KindExportCompleted, f.notifier.events[0].Kind)
	assert.Equal(t, batch.ID, f.notifier.events[0].EntityID)
	assert.Equal(t, notify.KindPackageCompleted, f.notifier.events[1].Kind)
	assert.Equal(t, pkg.ID, f.notifier.events[1].EntityID)

	// A handed-over detail cannot be handed over again.
	err = f.svc.ConfirmHandover(ctx, details[0].ID, "tester")
	assert.ErrorIs(t, err, liferr.ErrInvalidTransition)
	assert.Len(t, f.notifier.events, 2)
}
