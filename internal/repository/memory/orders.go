package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mamadbah2/livestock/internal/domain/liferr"
	"github.com/mamadbah2/livestock/internal/domain/models"
	"github.com/mamadbah2/livestock/internal/repository"
)

// OrderRepository stores orders, requirement lines and details in maps.
type OrderRepository struct {
	mu           sync.RWMutex
	orders       map[string]models.Order
	requirements map[string]models.OrderRequirement
	details      map[string]models.OrderDetail
}

var _ repository.OrderRepository = (*OrderRepository)(nil)

// NewOrderRepository builds an empty in-memory order store.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders:       make(map[string]models.Order),
		requirements: make(map[string]models.OrderRequirement),
		details:      make(map[string]models.OrderDetail),
	}
}

func (r *OrderRepository) GetOrder(_ context.Context, id string) (models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[id]
	if !ok {
		return models.Order{}, liferr.NotFound("order", id)
	}
	return order, nil
}

func (r *OrderRepository) InsertOrder(_ context.Context, order models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = order
	return nil
}

func (r *OrderRepository) UpdateOrder(_ context.Context, order models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[order.ID]; !ok {
		return liferr.NotFound("order", order.ID)
	}
	r.orders[order.ID] = order
	return nil
}

func (r *OrderRepository) GetRequirement(_ context.Context, id string) (models.OrderRequirement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.requirements[id]
	if !ok {
		return models.OrderRequirement{}, liferr.NotFound("order requirement", id)
	}
	return req, nil
}

func (r *OrderRepository) InsertRequirement(_ context.Context, req models.OrderRequirement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requirements[req.ID] = req
	return nil
}

func (r *OrderRepository) ListRequirementsByOrder(_ context.Context, orderID string) ([]models.OrderRequirement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.OrderRequirement
	for _, req := range r.requirements {
		if req.OrderID == orderID {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *OrderRepository) GetDetail(_ context.Context, id string) (models.OrderDetail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	detail, ok := r.details[id]
	if !ok {
		return models.OrderDetail{}, liferr.NotFound("order detail", id)
	}
	return detail, nil
}

func (r *OrderRepository) InsertDetail(_ context.Context, detail models.OrderDetail) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.details[detail.ID] = detail
	return nil
}

func (r *OrderRepository) UpdateDetail(_ context.Context, detail models.OrderDetail) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.details[detail.ID]; !ok {
		return liferr.NotFound("order detail", detail.ID)
	}
	r.details[detail.ID] = detail
	return nil
}

func (r *OrderRepository) ListDetailsByOrder(_ context.Context, orderID string) ([]models.OrderDetail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.OrderDetail
	for _, detail := range r.details {
		if detail.OrderID == orderID {
			out = append(out, detail)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *OrderRepository) ListDetailsByRequirement(_ context.Context, requirementID string) ([]models.OrderDetail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.OrderDetail
	for _, detail := range r.details {
		if detail.RequirementID == requirementID {
			out = append(out, detail)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *OrderRepository) FindActiveDetailByUnit(_ context.Context, unitID string) (models.OrderDetail, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, detail := range r.details {
		if detail.UnitID == unitID && detail.Active() {
			return detail, true, nil
		}
	}
	return models.OrderDetail{}, false, nil
}
