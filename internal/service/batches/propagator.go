package batches

import (
	"context"

	"go.uber.org/zap"

	"github.com/mamadbah2/livestock/internal/domain/models"
)

// Propagator cascades completion from a terminal detail event up through the
// aggregate levels: detail → batch → package/order. Each level has exactly
// one parent, so this is a plain upward fold. It must run inside the same
// transaction as the triggering write; there is no background job to repair
// a stale parent later.
type Propagator struct {
	recon  *Reconciler
	logger *zap.Logger
}

// NewPropagator wires a propagator over the reconciler.
func NewPropagator(recon *Reconciler, logger *zap.Logger) *Propagator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Propagator{recon: recon, logger: logger}
}

// OnImportDetailTerminal re-runs the import batch completion check. Import
// batches have no parent aggregate, so the fold stops there.
func (p *Propagator) OnImportDetailTerminal(ctx context.Context, batchID string) error {
	_, _, err := p.recon.CheckImportCompletion(ctx, batchID)
	return err
}

// OnExportDetailTerminal re-runs the export batch check and, when the batch
// hands over, folds one level up into its procurement package.
func (p *Propagator) OnExportDetailTerminal(ctx context.Context, batchID string) error {
	batch, changed, err := p.recon.CheckExportCompletion(ctx, batchID)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return p.reconcilePackage(ctx, batch.PackageID)
}

// OnOrderDetailTerminal re-runs the order completion check.
func (p *Propagator) OnOrderDetailTerminal(ctx context.Context, orderID string) error {
	_, _, err := p.recon.CheckOrderCompletion(ctx, orderID)
	return err
}

// reconcilePackage completes the package only when every one of its export
// batches has been handed over.
func (p *Propagator) reconcilePackage(ctx context.Context, packageID string) error {
	pkg, err := p.recon.procurement.GetPackage(ctx, packageID)
	if err != nil {
		return err
	}
	if pkg.Status == models.PackageCompleted || pkg.Status == models.PackageCancelled {
		return nil
	}

	exportBatches, err := p.recon.exports.ListBatchesByPackage(ctx, packageID)
	if err != nil {
		return err
	}
	if len(exportBatches) == 0 {
		return nil
	}
	for _, b := range exportBatches {
		if b.Status != models.ExportBatchHandedOver {
			return nil
		}
	}

	now := p.recon.now()
	pkg.Status = models.PackageCompleted
	pkg.CompletionDate = &now
	pkg.UpdatedAt = now
	if err := p.recon.procurement.UpdatePackage(ctx, pkg); err != nil {
		return err
	}
	p.logger.Info("procurement package completed", zap.String("package_id", pkg.ID))
	return nil
}
