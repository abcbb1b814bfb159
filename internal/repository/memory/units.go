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

// UnitRepository stores livestock units in a map.
type UnitRepository struct {
	mu    sync.RWMutex
	units map[string]models.LivestockUnit
}

var _ repository.UnitRepository = (*UnitRepository)(nil)

// NewUnitRepository builds an empty in-memory unit store.
func NewUnitRepository() *UnitRepository {
	return &UnitRepository{units: make(map[string]models.LivestockUnit)}
}

func (r *UnitRepository) Get(_ context.Context, id string) (models.LivestockUnit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	unit, ok := r.units[id]
	if !ok {
		return models.LivestockUnit{}, liferr.NotFound("livestock unit", id)
	}
	return unit, nil
}

func (r *UnitRepository) Insert(_ context.Context, unit models.LivestockUnit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.units[unit.ID] = unit
	return nil
}

func (r *UnitRepository) Update(_ context.Context, unit models.LivestockUnit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.units[unit.ID]; !ok {
		return liferr.NotFound("livestock unit", unit.ID)
	}
	r.units[unit.ID] = unit
	return nil
}

func (r *UnitRepository) FindBySpeciesAndStatus(_ context.Context, speciesID string, statuses []models.UnitStatus) ([]models.LivestockUnit, error) {
	wanted := make(map[models.UnitStatus]bool, len(statuses))
	for _, s := range statuses {
		wanted[s] = true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.LivestockUnit
	for _, unit := range r.units {
		if unit.SpeciesID == speciesID && wanted[unit.Status] {
			out = append(out, unit)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *UnitRepository) CountByStatus(_ context.Context) (map[models.UnitStatus]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[models.UnitStatus]int)
	for _, unit := range r.units {
		counts[unit.Status]++
	}
	return counts, nil
}

func (r *UnitRepository) CountDeadBetween(_ context.Context, from, to time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, unit := range r.units {
		if unit.DeadAt == nil {
			continue
		}
		if !unit.DeadAt.Before(from) && unit.DeadAt.Before(to) {
			count++
		}
	}
	return count, nil
}
