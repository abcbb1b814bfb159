// Package orders manages retail sales: an order with per-species requirement
// lines, unit assignments gated by the weight window, and delivery.
package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/livestock/internal/domain/ids"
	"github.com/mamadbah2/livestock/internal/domain/liferr"
	"github.com/mamadbah2/livestock/internal/domain/models"
	"github.com/mamadbah2/livestock/internal/repository"
	"github.com/mamadbah2/livestock/internal/service/batches"
	"github.com/mamadbah2/livestock/internal/service/eligibility"
	"github.com/mamadbah2/livestock/internal/service/lifecycle"
	"github.com/mamadbah2/livestock/pkg/clients/notify"
)

// Service implements the retail order operations.
type Service struct {
	units      repository.UnitRepository
	orders     repository.OrderRepository
	exports    repository.ExportRepository
	tx         repository.TxRunner
	evaluator  *eligibility.Evaluator
	propagator *batches.Propagator
	notifier   notify.Client
	logger     *zap.Logger
	now        func() time.Time
}

// NewService wires the orders service. The notifier may be nil when no
// webhook is configured.
func NewService(
	units repository.UnitRepository,
	orderRepo repository.OrderRepository,
	exports repository.ExportRepository,
	tx repository.TxRunner,
	evaluator *eligibility.Evaluator,
	propagator *batches.Propagator,
	notifier notify.Client,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		units:      units,
		orders:     orderRepo,
		exports:    exports,
		tx:         tx,
		evaluator:  evaluator,
		propagator: propagator,
		notifier:   notifier,
		logger:     logger,
		now:        time.Now,
	}
}

// RequirementInput is one species line of a new order.
type RequirementInput struct {
	SpeciesID   string
	Quantity    int
	MinWeightKg *float64
	MaxWeightKg *float64
	UnitPrice   string
}

// CreateOrder stores a new order with its requirement lines and computes the
// total amount from the agreed unit prices.
func (s *Service) CreateOrder(ctx context.Context, customerName string, lines []RequirementInput) (models.Order, error) {
	if customerName == "" {
		return models.Order{}, liferr.Validation("customerName is required")
	}
	if len(lines) == 0 {
		return models.Order{}, liferr.Validation("at least one requirement line is required")
	}

	now := s.now()
	order := models.Order{
		ID:           ids.New(),
		CustomerName: customerName,
		Status:       models.OrderPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	total := decimal.Zero
	requirements := make([]models.OrderRequirement, 0, len(lines))
	for _, line := range lines {
		if line.SpeciesID == "" {
			return models.Order{}, liferr.Validation("speciesId is required on every line")
		}
		if line.Quantity <= 0 {
			return models.Order{}, liferr.Validation("quantity must be positive, got %d", line.Quantity)
		}
		req := models.OrderRequirement{
			ID:          ids.New(),
			OrderID:     order.ID,
			SpeciesID:   line.SpeciesID,
			Quantity:    line.Quantity,
			MinWeightKg: line.MinWeightKg,
			MaxWeightKg: line.MaxWeightKg,
			UnitPrice:   line.UnitPrice,
		}
		if err := eligibility.WindowCheck(req.Requirement()); err != nil {
			return models.Order{}, err
		}
		lineTotal, err := req.LineTotal()
		if err != nil {
			return models.Order{}, liferr.Validation("invalid unit price %q", line.UnitPrice)
		}
		total = total.Add(lineTotal)
		requirements = append(requirements, req)
	}
	order.TotalAmount = total.String()

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.orders.InsertOrder(ctx, order); err != nil {
			return err
		}
		for _, req := range requirements {
			if err := s.orders.InsertRequirement(ctx, req); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.Order{}, err
	}
	s.logger.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("total", order.TotalAmount))
	return order, nil
}

// AssignUnit selects a unit into an order requirement line, gated by the
// line's weight window. The line's quantity is the capacity.
func (s *Service) AssignUnit(ctx context.Context, requirementID, unitID, actor string) (models.Order, error) {
	var snapshot models.Order
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		req, err := s.orders.GetRequirement(ctx, requirementID)
		if err != nil {
			return err
		}
		order, err := s.orders.GetOrder(ctx, req.OrderID)
		if err != nil {
			return err
		}
		// Awaiting-handover orders still pass through: the per-line capacity
		// check below turns an over-assignment into CapacityExceeded.
		if order.Status == models.OrderCompleted || order.Status == models.OrderCancelled {
			return liferr.InvalidTransition("ASSIGN_ORDER_UNIT", order.Status, models.OrderAllocating)
		}

		unit, err := s.units.Get(ctx, unitID)
		if err != nil {
			return err
		}
		if err := lifecycle.GuardAllocatable(unit); err != nil {
			return err
		}
		if err := s.guardNotAllocated(ctx, unitID); err != nil {
			return err
		}
		if err := s.evaluator.Check(ctx, unit, req.Requirement(), s.now()); err != nil {
			return err
		}

		details, err := s.orders.ListDetailsByRequirement(ctx, requirementID)
		if err != nil {
			return err
		}
		activeCount := 0
		for _, d := range details {
			if d.Active() {
				activeCount++
			}
		}
		if activeCount >= req.Quantity {
			return liferr.CapacityExceeded("order requirement", requirementID)
		}

		now := s.now()
		if err := lifecycle.Apply(lifecycle.EventSelectExport, &unit, now); err != nil {
			return err
		}
		if err := s.units.Update(ctx, unit); err != nil {
			return err
		}

		detail := models.OrderDetail{
			ID:            ids.New(),
			OrderID:       order.ID,
			RequirementID: requirementID,
			UnitID:        unitID,
			Status:        models.OrderDetailAwaitingExport,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.orders.InsertDetail(ctx, detail); err != nil {
			return err
		}

		snapshot, err = s.reconcileAllocation(ctx, order)
		return err
	})
	if err != nil {
		return models.Order{}, err
	}
	s.logger.Info("unit assigned to order",
		zap.String("requirement_id", requirementID),
		zap.String("unit_id", unitID),
		zap.String("actor", actor))
	return snapshot, nil
}

// RemoveUnit cancels a not-yet-exported detail and reverts the unit.
func (s *Service) RemoveUnit(ctx context.Context, orderID, unitID string) (models.Order, error) {
	var snapshot models.Order
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		detail, ok, err := s.orders.FindActiveDetailByUnit(ctx, unitID)
		if err != nil {
			return err
		}
		if !ok || detail.OrderID != orderID {
			return liferr.NotFound("order detail for unit", unitID)
		}
		if detail.Status != models.OrderDetailAwaitingExport {
			return liferr.InvalidTransition("REMOVE_ORDER_UNIT", detail.Status, models.OrderDetailCancelled)
		}

		now := s.now()
		detail.Status = models.OrderDetailCancelled
		detail.UpdatedAt = now
		if err := s.orders.UpdateDetail(ctx, detail); err != nil {
			return err
		}

		unit, err := s.units.Get(ctx, unitID)
		if err != nil {
			return err
		}
		if unit.Status == models.UnitAwaitingExport {
			if err := lifecycle.Apply(lifecycle.EventReleaseExport, &unit, now); err != nil {
				return err
			}
			if err := s.units.Update(ctx, unit); err != nil {
				return err
			}
		}

		order, err := s.orders.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		snapshot, err = s.reconcileAllocation(ctx, order)
		return err
	})
	if err != nil {
		return models.Order{}, err
	}
	return snapshot, nil
}

// ConfirmDelivery exports one assigned unit to the customer and re-runs the
// order completion check in the same transaction.
func (s *Service) ConfirmDelivery(ctx context.Context, detailID, actor string) error {
	var completed bool
	var orderID string
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		detail, err := s.orders.GetDetail(ctx, detailID)
		if err != nil {
			return err
		}
		if detail.Status != models.OrderDetailAwaitingExport {
			return liferr.InvalidTransition("CONFIRM_DELIVERY", detail.Status, models.OrderDetailExported)
		}

		unit, err := s.units.Get(ctx, detail.UnitID)
		if err != nil {
			return err
		}
		now := s.now()
		if err := lifecycle.Apply(lifecycle.EventConfirmHandover, &unit, now); err != nil {
			return err
		}
		unit.ExportWeightKg = unit.EffectiveWeightKg()
		if err := s.units.Update(ctx, unit); err != nil {
			return err
		}

		detail.Status = models.OrderDetailExported
		detail.ExportedDate = &now
		detail.UpdatedAt = now
		if err := s.orders.UpdateDetail(ctx, detail); err != nil {
			return err
		}

		if err := s.propagator.OnOrderDetailTerminal(ctx, detail.OrderID); err != nil {
			return err
		}
		orderID = detail.OrderID
		order, err := s.orders.GetOrder(ctx, detail.OrderID)
		if err != nil {
			return err
		}
		completed = order.Status == models.OrderCompleted
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("order delivery confirmed",
		zap.String("detail_id", detailID),
		zap.String("actor", actor))
	if completed {
		notify.Emit(ctx, s.notifier, s.logger, notify.Event{
			Kind:       notify.KindOrderCompleted,
			EntityID:   orderID,
			Message:    fmt.Sprintf("Order %s completed", orderID),
			OccurredAt: s.now(),
		})
	}
	return nil
}

// reconcileAllocation recomputes the order's allocation status from its
// requirement lines: pending with no assignments, allocating while partially
// filled, awaiting-handover once every line is fully assigned.
func (s *Service) reconcileAllocation(ctx context.Context, order models.Order) (models.Order, error) {
	requirements, err := s.orders.ListRequirementsByOrder(ctx, order.ID)
	if err != nil {
		return models.Order{}, err
	}

	totalActive := 0
	allFull := true
	for _, req := range requirements {
		details, err := s.orders.ListDetailsByRequirement(ctx, req.ID)
		if err != nil {
			return models.Order{}, err
		}
		active := 0
		for _, d := range details {
			if d.Active() {
				active++
			}
		}
		totalActive += active
		if active < req.Quantity {
			allFull = false
		}
	}

	want := models.OrderPending
	switch {
	case allFull:
		want = models.OrderAwaitingHandover
	case totalActive > 0:
		want = models.OrderAllocating
	}
	if order.Status == want {
		return order, nil
	}
	order.Status = want
	order.UpdatedAt = s.now()
	if err := s.orders.UpdateOrder(ctx, order); err != nil {
		return models.Order{}, err
	}
	return order, nil
}

// guardNotAllocated rejects a unit already active in another order or export
// detail.
func (s *Service) guardNotAllocated(ctx context.Context, unitID string) error {
	if _, ok, err := s.orders.FindActiveDetailByUnit(ctx, unitID); err != nil {
		return err
	} else if ok {
		return liferr.DuplicateAssignment(unitID, "order")
	}
	if _, ok, err := s.exports.FindActiveDetailByUnit(ctx, unitID); err != nil {
		return err
	} else if ok {
		return liferr.DuplicateAssignment(unitID, "export batch")
	}
	return nil
}
