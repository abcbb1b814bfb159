package memory

import (
	"context"
	"sync"

	"github.com/mamadbah2/livestock/internal/domain/liferr"
	"github.com/mamadbah2/livestock/internal/domain/models"
	"github.com/mamadbah2/livestock/internal/repository"
)

// InsuranceRepository stores replacement requests in a map.
type InsuranceRepository struct {
	mu       sync.RWMutex
	requests map[string]models.InsuranceRequest
}

var _ repository.InsuranceRepository = (*InsuranceRepository)(nil)

// NewInsuranceRepository builds an empty in-memory insurance store.
func NewInsuranceRepository() *InsuranceRepository {
	return &InsuranceRepository{requests: make(map[string]models.InsuranceRequest)}
}

func (r *InsuranceRepository) Get(_ context.Context, id string) (models.InsuranceRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.requests[id]
	if !ok {
		return models.InsuranceRequest{}, liferr.NotFound("insurance request", id)
	}
	return req, nil
}

func (r *InsuranceRepository) Insert(_ context.Context, req models.InsuranceRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests[req.ID] = req
	return nil
}

func (r *InsuranceRepository) Update(_ context.Context, req models.InsuranceRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.requests[req.ID]; !ok {
		return liferr.NotFound("insurance request", req.ID)
	}
	r.requests[req.ID] = req
	return nil
}

func (r *InsuranceRepository) FindOpenByOriginalUnit(_ context.Context, unitID string) (models.InsuranceRequest, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, req := range r.requests {
		if req.OriginalUnitID == unitID && req.Open() {
			return req, true, nil
		}
	}
	return models.InsuranceRequest{}, false, nil
}

func (r *InsuranceRepository) CountOpen(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, req := range r.requests {
		if req.Open() {
			count++
		}
	}
	return count, nil
}

// SummaryRepository stores daily summaries in a slice.
type SummaryRepository struct {
	mu        sync.Mutex
	summaries []models.DailySummary
}

var _ repository.SummaryRepository = (*SummaryRepository)(nil)

// NewSummaryRepository builds an empty in-memory summary store.
func NewSummaryRepository() *SummaryRepository {
	return &SummaryRepository{}
}

func (r *SummaryRepository) SaveDailySummary(_ context.Context, summary models.DailySummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summaries = append(r.summaries, summary)
	return nil
}

// Saved returns the stored summaries.
func (r *SummaryRepository) Saved() []models.DailySummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.DailySummary, len(r.summaries))
	copy(out, r.summaries)
	return out
}
