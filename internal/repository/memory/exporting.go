package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mamadbah2/livestock/internal/domain/liferr"
	"github.com/mamadbah2/livestock/internal/domain/models"
	"github.com/mamadbah2/livestock/internal/repository"
)

// ExportRepository stores export batches and details in maps. The remaining
// decrement is a guarded compare-and-set, mirroring the conditional update
// of the MongoDB adapter.
type ExportRepository struct {
	mu      sync.RWMutex
	batches map[string]models.ExportBatch
	details map[string]models.ExportDetail
}

var _ repository.ExportRepository = (*ExportRepository)(nil)

// NewExportRepository builds an empty in-memory export store.
func NewExportRepository() *ExportRepository {
	return &ExportRepository{
		batches: make(map[string]models.ExportBatch),
		details: make(map[string]models.ExportDetail),
	}
}

func (r *ExportRepository) GetBatch(_ context.Context, id string) (models.ExportBatch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	batch, ok := r.batches[id]
	if !ok {
		return models.ExportBatch{}, liferr.NotFound("export batch", id)
	}
	return batch, nil
}

func (r *ExportRepository) InsertBatch(_ context.Context, batch models.ExportBatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches[batch.ID] = batch
	return nil
}

func (r *ExportRepository) UpdateBatch(_ context.Context, batch models.ExportBatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.batches[batch.ID]; !ok {
		return liferr.NotFound("export batch", batch.ID)
	}
	r.batches[batch.ID] = batch
	return nil
}

func (r *ExportRepository) ListBatchesByPackage(_ context.Context, packageID string) ([]models.ExportBatch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.ExportBatch
	for _, batch := range r.batches {
		if batch.PackageID == packageID {
			out = append(out, batch)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *ExportRepository) DecrementRemaining(_ context.Context, batchID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch, ok := r.batches[batchID]
	if !ok {
		return liferr.NotFound("export batch", batchID)
	}
	if batch.Remaining <= 0 {
		return liferr.CapacityExceeded("export batch", batchID)
	}
	batch.Remaining--
	r.batches[batchID] = batch
	return nil
}

func (r *ExportRepository) IncrementRemaining(_ context.Context, batchID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch, ok := r.batches[batchID]
	if !ok {
		return liferr.NotFound("export batch", batchID)
	}
	batch.Remaining++
	r.batches[batchID] = batch
	return nil
}

func (r *ExportRepository) GetDetail(_ context.Context, id string) (models.ExportDetail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	detail, ok := r.details[id]
	if !ok {
		return models.ExportDetail{}, liferr.NotFound("export detail", id)
	}
	return detail, nil
}

func (r *ExportRepository) InsertDetail(_ context.Context, detail models.ExportDetail) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.details[detail.ID] = detail
	return nil
}

func (r *ExportRepository) UpdateDetail(_ context.Context, detail models.ExportDetail) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.details[detail.ID]; !ok {
		return liferr.NotFound("export detail", detail.ID)
	}
	r.details[detail.ID] = detail
	return nil
}

func (r *ExportRepository) ListDetailsByBatch(_ context.Context, batchID string) ([]models.ExportDetail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.ExportDetail
	for _, detail := range r.details {
		if detail.BatchID == batchID {
			out = append(out, detail)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *ExportRepository) FindActiveDetailByUnit(_ context.Context, unitID string) (models.ExportDetail, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, detail := range r.details {
		if detail.UnitID == unitID && detail.Active() {
			return detail, true, nil
		}
	}
	return models.ExportDetail{}, false, nil
}

func (r *ExportRepository) CountHandoversBetween(_ context.Context, from, to time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, detail := range r.details {
		if detail.HandoverDate == nil {
			continue
		}
		if !detail.HandoverDate.Before(from) && detail.HandoverDate.Before(to) {
			count++
		}
	}
	return count, nil
}
