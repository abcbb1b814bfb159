// Package batches keeps container counters consistent with their member
// details and propagates completion upward through the aggregate levels.
// Counters are always recomputed from detail rows inside the transaction of
// the triggering write; cached fields are a read optimization only.
package batches

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/livestock/internal/domain/models"
	"github.com/mamadbah2/livestock/internal/repository"
)

// Reconciler recomputes container counters and statuses from their details.
type Reconciler struct {
	units       repository.UnitRepository
	imports     repository.ImportRepository
	exports     repository.ExportRepository
	procurement repository.ProcurementRepository
	orders      repository.OrderRepository
	logger      *zap.Logger
	now         func() time.Time
}

// NewReconciler wires a reconciler over the container repositories.
func NewReconciler(
	units repository.UnitRepository,
	imports repository.ImportRepository,
	exports repository.ExportRepository,
	procurement repository.ProcurementRepository,
	orders repository.OrderRepository,
	logger *zap.Logger,
) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		units:       units,
		imports:     imports,
		exports:     exports,
		procurement: procurement,
		orders:      orders,
		logger:      logger,
		now:         time.Now,
	}
}

// completionCounts walks the details of one container and returns how many
// count toward the denominator and how many are done. A detail whose unit
// died before the detail reached its done status is excluded from the
// denominator; the same rule applies to import and export alike.
func completionCounts[D any](details []D, active func(D) bool, done func(D) bool, diedBeforeDone func(D) bool) (denominator, doneCount int) {
	for _, d := range details {
		if !active(d) {
			continue
		}
		if done(d) {
			doneCount++
			denominator++
			continue
		}
		if diedBeforeDone(d) {
			continue
		}
		denominator++
	}
	return denominator, doneCount
}

// ImportRemaining derives the free capacity of an import batch from its
// detail rows.
func (r *Reconciler) ImportRemaining(ctx context.Context, batch models.ImportBatch) (int, error) {
	details, err := r.imports.ListDetailsByBatch(ctx, batch.ID)
	if err != nil {
		return 0, err
	}
	activeCount := 0
	for _, d := range details {
		if d.Active() {
			activeCount++
		}
	}
	return batch.EstimatedQuantity - activeCount, nil
}

// ReconcileImportAllocation advances or regresses the import batch between
// awaiting-import and importing based on its derived remaining capacity.
func (r *Reconciler) ReconcileImportAllocation(ctx context.Context, batchID string) (models.ImportBatch, error) {
	batch, err := r.imports.GetBatch(ctx, batchID)
	if err != nil {
		return models.ImportBatch{}, err
	}
	if batch.Status == models.ImportBatchCompleted || batch.Status == models.ImportBatchCancelled {
		return batch, nil
	}

	remaining, err := r.ImportRemaining(ctx, batch)
	if err != nil {
		return models.ImportBatch{}, err
	}

	want := models.ImportBatchAwaiting
	if remaining <= 0 {
		want = models.ImportBatchImporting
	}
	if batch.Status == want {
		return batch, nil
	}

	batch.Status = want
	batch.UpdatedAt = r.now()
	if err := r.imports.UpdateBatch(ctx, batch); err != nil {
		return models.ImportBatch{}, err
	}
	r.logger.Debug("import batch allocation reconciled",
		zap.String("batch_id", batch.ID),
		zap.String("status", string(batch.Status)),
		zap.Int("remaining", remaining))
	return batch, nil
}

// CheckImportCompletion recomputes the done count over the batch's details
// and completes the batch when every counted detail is imported.
func (r *Reconciler) CheckImportCompletion(ctx context.Context, batchID string) (models.ImportBatch, bool, error) {
	batch, err := r.imports.GetBatch(ctx, batchID)
	if err != nil {
		return models.ImportBatch{}, false, err
	}
	if batch.Status == models.ImportBatchCompleted || batch.Status == models.ImportBatchCancelled {
		return batch, false, nil
	}

	details, err := r.imports.ListDetailsByBatch(ctx, batchID)
	if err != nil {
		return models.ImportBatch{}, false, err
	}

	dead, err := r.deadUnits(ctx, detailUnitIDs(details, func(d models.ImportDetail) string { return d.UnitID }))
	if err != nil {
		return models.ImportBatch{}, false, err
	}

	denominator, doneCount := completionCounts(details,
		models.ImportDetail.Active,
		func(d models.ImportDetail) bool { return d.Status == models.ImportDetailImported },
		func(d models.ImportDetail) bool { return dead[d.UnitID] },
	)
	if denominator == 0 || doneCount < denominator {
		return batch, false, nil
	}

	now := r.now()
	batch.Status = models.ImportBatchCompleted
	batch.CompletionDate = &now
	batch.UpdatedAt = now
	if err := r.imports.UpdateBatch(ctx, batch); err != nil {
		return models.ImportBatch{}, false, err
	}
	r.logger.Info("import batch completed",
		zap.String("batch_id", batch.ID),
		zap.Int("done", doneCount))
	return batch, true, nil
}

// CheckExportCompletion marks an export batch handed-over once every counted
// detail reached its handed-over status.
func (r *Reconciler) CheckExportCompletion(ctx context.Context, batchID string) (models.ExportBatch, bool, error) {
	batch, err := r.exports.GetBatch(ctx, batchID)
	if err != nil {
		return models.ExportBatch{}, false, err
	}
	if batch.Status == models.ExportBatchHandedOver {
		return batch, false, nil
	}

	details, err := r.exports.ListDetailsByBatch(ctx, batchID)
	if err != nil {
		return models.ExportBatch{}, false, err
	}

	dead, err := r.deadUnits(ctx, detailUnitIDs(details, func(d models.ExportDetail) string { return d.UnitID }))
	if err != nil {
		return models.ExportBatch{}, false, err
	}

	denominator, doneCount := completionCounts(details,
		models.ExportDetail.Active,
		func(d models.ExportDetail) bool { return d.Status == models.ExportDetailHandedOver },
		func(d models.ExportDetail) bool { return dead[d.UnitID] },
	)
	// The batch must also be fully allocated: open slots mean more units are
	// still owed to the customer.
	if denominator == 0 || doneCount < denominator || batch.Remaining > 0 {
		return batch, false, nil
	}

	now := r.now()
	batch.Status = models.ExportBatchHandedOver
	batch.HandoverDate = &now
	batch.UpdatedAt = now
	if err := r.exports.UpdateBatch(ctx, batch); err != nil {
		return models.ExportBatch{}, false, err
	}
	r.logger.Info("export batch handed over",
		zap.String("batch_id", batch.ID),
		zap.Int("done", doneCount))
	return batch, true, nil
}

// CheckOrderCompletion completes an order once every requirement quantity is
// satisfied by exported details.
func (r *Reconciler) CheckOrderCompletion(ctx context.Context, orderID string) (models.Order, bool, error) {
	order, err := r.orders.GetOrder(ctx, orderID)
	if err != nil {
		return models.Order{}, false, err
	}
	if order.Status == models.OrderCompleted || order.Status == models.OrderCancelled {
		return order, false, nil
	}

	requirements, err := r.orders.ListRequirementsByOrder(ctx, orderID)
	if err != nil {
		return models.Order{}, false, err
	}

	for _, req := range requirements {
		details, err := r.orders.ListDetailsByRequirement(ctx, req.ID)
		if err != nil {
			return models.Order{}, false, err
		}
		dead, err := r.deadUnits(ctx, detailUnitIDs(details, func(d models.OrderDetail) string { return d.UnitID }))
		if err != nil {
			return models.Order{}, false, err
		}
		denominator, doneCount := completionCounts(details,
			models.OrderDetail.Active,
			func(d models.OrderDetail) bool { return d.Status == models.OrderDetailExported },
			func(d models.OrderDetail) bool { return dead[d.UnitID] },
		)
		if denominator < req.Quantity || doneCount < denominator {
			return order, false, nil
		}
	}

	now := r.now()
	order.Status = models.OrderCompleted
	order.CompletionDate = &now
	order.UpdatedAt = now
	if err := r.orders.UpdateOrder(ctx, order); err != nil {
		return models.Order{}, false, err
	}
	r.logger.Info("order completed", zap.String("order_id", order.ID))
	return order, true, nil
}

func (r *Reconciler) deadUnits(ctx context.Context, unitIDs []string) (map[string]bool, error) {
	dead := make(map[string]bool, len(unitIDs))
	for _, unitID := range unitIDs {
		unit, err := r.units.Get(ctx, unitID)
		if err != nil {
			return nil, err
		}
		if unit.Status == models.UnitDead {
			dead[unitID] = true
		}
	}
	return dead, nil
}

func detailUnitIDs[D any](details []D, unitID func(D) string) []string {
	out := make([]string, 0, len(details))
	for _, d := range details {
		out = append(out, unitID(d))
	}
	return out
}
