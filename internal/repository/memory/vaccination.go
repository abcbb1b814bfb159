package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mamadbah2/livestock/internal/domain/liferr"
	"github.com/mamadbah2/livestock/internal/domain/models"
	"github.com/mamadbah2/livestock/internal/repository"
)

// VaccinationRepository stores both vaccination sources and the medicine
// catalogue in maps.
type VaccinationRepository struct {
	mu        sync.RWMutex
	batches   map[string]models.BatchVaccination
	members   map[string]models.LivestockVaccination
	singles   map[string]models.SingleVaccination
	medicines map[string]models.Medicine
}

var _ repository.VaccinationRepository = (*VaccinationRepository)(nil)

// NewVaccinationRepository builds an empty in-memory vaccination store.
func NewVaccinationRepository() *VaccinationRepository {
	return &VaccinationRepository{
		batches:   make(map[string]models.BatchVaccination),
		members:   make(map[string]models.LivestockVaccination),
		singles:   make(map[string]models.SingleVaccination),
		medicines: make(map[string]models.Medicine),
	}
}

// SeedMedicine loads a medicine into the catalogue.
func (r *VaccinationRepository) SeedMedicine(med models.Medicine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.medicines[med.ID] = med
}

func (r *VaccinationRepository) GetBatch(_ context.Context, id string) (models.BatchVaccination, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	batch, ok := r.batches[id]
	if !ok {
		return models.BatchVaccination{}, liferr.NotFound("batch vaccination", id)
	}
	return batch, nil
}

func (r *VaccinationRepository) InsertBatch(_ context.Context, batch models.BatchVaccination) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches[batch.ID] = batch
	return nil
}

func (r *VaccinationRepository) UpdateBatch(_ context.Context, batch models.BatchVaccination) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.batches[batch.ID]; !ok {
		return liferr.NotFound("batch vaccination", batch.ID)
	}
	r.batches[batch.ID] = batch
	return nil
}

func (r *VaccinationRepository) InsertMember(_ context.Context, member models.LivestockVaccination) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[member.ID] = member
	return nil
}

func (r *VaccinationRepository) ListMembershipsByUnit(_ context.Context, unitID string) ([]models.LivestockVaccination, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.LivestockVaccination
	for _, member := range r.members {
		if member.UnitID == unitID {
			out = append(out, member)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *VaccinationRepository) InsertSingle(_ context.Context, record models.SingleVaccination) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.singles[record.ID] = record
	return nil
}

func (r *VaccinationRepository) ListSinglesByUnit(_ context.Context, unitID string) ([]models.SingleVaccination, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.SingleVaccination
	for _, record := range r.singles {
		if record.UnitID == unitID {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *VaccinationRepository) GetMedicines(_ context.Context, ids []string) ([]models.Medicine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Medicine
	for _, id := range ids {
		if med, ok := r.medicines[id]; ok {
			out = append(out, med)
		}
	}
	return out, nil
}
