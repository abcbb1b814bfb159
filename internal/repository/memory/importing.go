package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mamadbah2/livestock/internal/domain/liferr"
	"github.com/mamadbah2/livestock/internal/domain/models"
	"github.com/mamadbah2/livestock/internal/repository"
)

// ImportRepository stores import batches and details in maps.
type ImportRepository struct {
	mu      sync.RWMutex
	batches map[string]models.ImportBatch
	details map[string]models.ImportDetail
}

var _ repository.ImportRepository = (*ImportRepository)(nil)

// NewImportRepository builds an empty in-memory import store.
func NewImportRepository() *ImportRepository {
	return &ImportRepository{
		batches: make(map[string]models.ImportBatch),
		details: make(map[string]models.ImportDetail),
	}
}

func (r *ImportRepository) GetBatch(_ context.Context, id string) (models.ImportBatch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	batch, ok := r.batches[id]
	if !ok {
		return models.ImportBatch{}, liferr.NotFound("import batch", id)
	}
	return batch, nil
}

func (r *ImportRepository) InsertBatch(_ context.Context, batch models.ImportBatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches[batch.ID] = batch
	return nil
}

func (r *ImportRepository) UpdateBatch(_ context.Context, batch models.ImportBatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.batches[batch.ID]; !ok {
		return liferr.NotFound("import batch", batch.ID)
	}
	r.batches[batch.ID] = batch
	return nil
}

func (r *ImportRepository) CountOpenBatches(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, batch := range r.batches {
		if batch.Status == models.ImportBatchAwaiting || batch.Status == models.ImportBatchImporting {
			count++
		}
	}
	return count, nil
}

func (r *ImportRepository) GetDetail(_ context.Context, id string) (models.ImportDetail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	detail, ok := r.details[id]
	if !ok {
		return models.ImportDetail{}, liferr.NotFound("import detail", id)
	}
	return detail, nil
}

func (r *ImportRepository) InsertDetail(_ context.Context, detail models.ImportDetail) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.details[detail.ID] = detail
	return nil
}

func (r *ImportRepository) UpdateDetail(_ context.Context, detail models.ImportDetail) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.details[detail.ID]; !ok {
		return liferr.NotFound("import detail", detail.ID)
	}
	r.details[detail.ID] = detail
	return nil
}

func (r *ImportRepository) ListDetailsByBatch(_ context.Context, batchID string) ([]models.ImportDetail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.ImportDetail
	for _, detail := range r.details {
		if detail.BatchID == batchID {
			out = append(out, detail)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *ImportRepository) FindActiveDetailByUnit(_ context.Context, unitID string) (models.ImportDetail, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, detail := range r.details {
		if detail.UnitID == unitID && detail.Active() {
			return detail, true, nil
		}
	}
	return models.ImportDetail{}, false, nil
}
