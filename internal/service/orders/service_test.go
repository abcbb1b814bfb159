package orders

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/livestock/internal/domain/liferr"
	"github.com/mamadbah2/livestock/internal/domain/models"
	"github.com/mamadbah2/livestock/internal/repository/memory"
	"github.com/mamadbah2/livestock/internal/service/batches"
	"github.com/mamadbah2/livestock/internal/service/eligibility"
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
	units    *memory.UnitRepository
	orders   *memory.OrderRepository
	notifier *eventRecorder
	svc      *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		units:    memory.NewUnitRepository(),
		orders:   memory.NewOrderRepository(),
		notifier: &eventRecorder{},
	}
	exports := memory.NewExportRepository()
	recon := batches.NewReconciler(f.units, memory.NewImportRepository(), exports, memory.NewProcurementRepository(), f.orders, nil)
	f.svc = NewService(f.units, f.orders, exports, memory.NewTxRunner(), eligibility.NewEvaluator(nil, nil), batches.NewPropagator(recon, nil), f.notifier, nil)
	return f
}

func (f *fixture) seedHealthyUnit(t *testing.T, id string, weight float64) {
	t.Helper()
	require.NoError(t, f.units.Insert(context.Background(), models.LivestockUnit{
		ID: id, SpeciesID: "goat", Status: models.UnitHealthy, WeightEstimate: weight,
	}))
}

func floatPtr(v float64) *float64 { return &v }

func TestCreateOrderComputesTotal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	order, err := f.svc.CreateOrder(ctx, "acme", []RequirementInput{
		{SpeciesID: "goat", Quantity: 2, UnitPrice: "150.50"},
		{SpeciesID: "cow", Quantity: 1, UnitPrice: "1200"},
	})
	require.NoError(t, err)

	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, "1501", order.TotalAmount)

	requirements, err := f.orders.ListRequirementsByOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, requirements, 2)
}

func TestCreateOrderValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.CreateOrder(ctx, "", []RequirementInput{{SpeciesID: "goat", Quantity: 1, UnitPrice: "10"}})
	assert.ErrorIs(t, err, liferr.ErrValidation)

	_, err = f.svc.CreateOrder(ctx, "acme", nil)
	assert.ErrorIs(t, err, liferr.ErrValidation)

	_, err = f.svc.CreateOrder(ctx, "acme", []RequirementInput{{SpeciesID: "goat", Quantity: 1, UnitPrice: "not-a-number"}})
	assert.ErrorIs(t, err, liferr.ErrValidation)

	_, err = f.svc.CreateOrder(ctx, "acme", []RequirementInput{
		{SpeciesID: "goat", Quantity: 1, UnitPrice: "10", MinWeightKg: floatPtr(50), MaxWeightKg: floatPtr(40)},
	})
	assert.ErrorIs(t, err, liferr.ErrValidation)
}

func TestAssignUnitTracksAllocation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	order, err := f.svc.CreateOrder(ctx, "acme", []RequirementInput{
		{SpeciesID: "goat", Quantity: 2, UnitPrice: "100"},
	})
	require.NoError(t, err)
	requirements, err := f.orders.ListRequirementsByOrder(ctx, order.ID)
	require.NoError(t, err)
	reqID := requirements[0].ID

	f.seedHealthyUnit(t, "u1", 30)
	f.seedHealthyUnit(t, "u2", 30)

	got, err := f.svc.AssignUnit(ctx, reqID, "u1", "tester")
	require.NoError(t, err)
	assert.Equal(t, models.OrderAllocating, got.Status)

	got, err = f.svc.AssignUnit(ctx, reqID, "u2", "tester")
	require.NoError(t, err)
	assert.Equal(t, models.OrderAwaitingHandover, got.Status)

	// The line is full; a third unit is over capacity and stays untouched.
	f.seedHealthyUnit(t, "u3", 30)
	_, err = f.svc.AssignUnit(ctx, reqID, "u3", "tester")
	assert.ErrorIs(t, err, liferr.ErrCapacityExceeded)

	unit, err := f.units.Get(ctx, "u3")
	require.NoError(t, err)
	assert.Equal(t, models.UnitHealthy, unit.Status)
}

func TestAssignUnitRejectedForClosedOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	order, err := f.svc.CreateOrder(ctx, "acme", []RequirementInput{
		{SpeciesID: "goat", Quantity: 1, UnitPrice: "100"},
	})
	require.NoError(t, err)
	requirements, err := f.orders.ListRequirementsByOrder(ctx, order.ID)
	require.NoError(t, err)
	reqID := requirements[0].ID

	f.seedHealthyUnit(t, "u1", 30)
	_, err = f.svc.AssignUnit(ctx, reqID, "u1", "tester")
	require.NoError(t, err)

	details, err := f.orders.ListDetailsByOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, details, 1)
	require.NoError(t, f.svc.ConfirmDelivery(ctx, details[0].ID, "tester"))

	f.seedHealthyUnit(t, "u2", 30)
	_, err = f.svc.AssignUnit(ctx, reqID, "u2", "tester")
	assert.ErrorIs(t, err, liferr.ErrInvalidTransition)
}

func TestAssignUnitWeightWindow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	order, err := f.svc.CreateOrder(ctx, "acme", []RequirementInput{
		{SpeciesID: "goat", Quantity: 1, UnitPrice: "100", MinWeightKg: floatPtr(25), MaxWeightKg: floatPtr(35)},
	})
	require.NoError(t, err)
	requirements, err := f.orders.ListRequirementsByOrder(ctx, order.ID)
	require.NoError(t, err)
	reqID := requirements[0].ID

	f.seedHealthyUnit(t, "light", 20)

	_, err = f.svc.AssignUnit(ctx, reqID, "light", "tester")
	var elig *liferr.EligibilityError
	require.ErrorAs(t, err, &elig)
	assert.Equal(t, liferr.ConstraintWeightMin, elig.Constraint)
}

func TestRemoveUnitRegressesOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	order, err := f.svc.CreateOrder(ctx, "acme", []RequirementInput{
		{SpeciesID: "goat", Quantity: 1, UnitPrice: "100"},
	})
	require.NoError(t, err)
	requirements, err := f.orders.ListRequirementsByOrder(ctx, order.ID)
	require.NoError(t, err)

	f.seedHealthyUnit(t, "u1", 30)
	got, err := f.svc.AssignUnit(ctx, requirements[0].ID, "u1", "tester")
	require.NoError(t, err)
	require.Equal(t, models.OrderAwaitingHandover, got.Status)

	got, err = f.svc.RemoveUnit(ctx, order.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, got.Status)

	unit, err := f.units.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.UnitHealthy, unit.Status)
}

func TestConfirmDeliveryCompletesOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	order, err := f.svc.CreateOrder(ctx, "acme", []RequirementInput{
		{SpeciesID: "goat", Quantity: 1, UnitPrice: "100"},
	})
	require.NoError(t, err)
	requirements, err := f.orders.ListRequirementsByOrder(ctx, order.ID)
	require.NoError(t, err)

	f.seedHealthyUnit(t, "u1", 30)
	_, err = f.svc.AssignUnit(ctx, requirements[0].ID, "u1", "tester")
	require.NoError(t, err)

	details, err := f.orders.ListDetailsByOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, details, 1)

	require.NoError(t, f.svc.ConfirmDelivery(ctx, details[0].ID, "tester"))

	unit, err := f.units.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.UnitExported, unit.Status)

	got, err := f.orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCompleted, got.Status)
	assert.NotNil(t, got.CompletionDate)

	// Completion announces itself to the webhook exactly once.
	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, notify.KindOrderCompleted, f.notifier.events[0].Kind)
	assert.Equal(t, order.ID, f.notifier.events[0].EntityID)

	err = f.svc.ConfirmDelivery(ctx, details[0].ID, "tester")
	assert.ErrorIs(t, err, liferr.ErrInvalidTransition)
	assert.Len(t, f.notifier.events, 1)
}
