package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mamadbah2/livestock/internal/domain/liferr"
	"github.com/mamadbah2/livestock/internal/domain/models"
	"github.com/mamadbah2/livestock/internal/repository"
)

// ProcurementRepository stores packages and their requirement lines in maps.
type ProcurementRepository struct {
	mu       sync.RWMutex
	packages map[string]models.ProcurementPackage
	details  map[string]models.ProcurementDetail
}

var _ repository.ProcurementRepository = (*ProcurementRepository)(nil)

// NewProcurementRepository builds an empty in-memory procurement store.
func NewProcurementRepository() *ProcurementRepository {
	return &ProcurementRepository{
		packages: make(map[string]models.ProcurementPackage),
		details:  make(map[string]models.ProcurementDetail),
	}
}

func (r *ProcurementRepository) GetPackage(_ context.Context, id string) (models.ProcurementPackage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pkg, ok := r.packages[id]
	if !ok {
		return models.ProcurementPackage{}, liferr.NotFound("procurement package", id)
	}
	return pkg, nil
}

func (r *ProcurementRepository) InsertPackage(_ context.Context, pkg models.ProcurementPackage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.packages[pkg.ID] = pkg
	return nil
}

func (r *ProcurementRepository) UpdatePackage(_ context.Context, pkg models.ProcurementPackage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.packages[pkg.ID]; !ok {
		return liferr.NotFound("procurement package", pkg.ID)
	}
	r.packages[pkg.ID] = pkg
	return nil
}

func (r *ProcurementRepository) GetDetail(_ context.Context, id string) (models.ProcurementDetail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	detail, ok := r.details[id]
	if !ok {
		return models.ProcurementDetail{}, liferr.NotFound("procurement detail", id)
	}
	return detail, nil
}

func (r *ProcurementRepository) InsertDetail(_ context.Context, detail models.ProcurementDetail) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.details[detail.ID] = detail
	return nil
}

func (r *ProcurementRepository) ListDetailsByPackage(_ context.Context, packageID string) ([]models.ProcurementDetail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.ProcurementDetail
	for _, detail := range r.details {
		if detail.PackageID == packageID {
			out = append(out, detail)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *ProcurementRepository) FindDetailBySpecies(_ context.Context, packageID, speciesID string) (models.ProcurementDetail, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, detail := range r.details {
		if detail.PackageID == packageID && detail.SpeciesID == speciesID {
			return detail, true, nil
		}
	}
	return models.ProcurementDetail{}, false, nil
}
