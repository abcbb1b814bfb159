package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mamadbah2/livestock/internal/domain/liferr"
	"github.com/mamadbah2/livestock/internal/domain/models"
	"github.com/mamadbah2/livestock/internal/repository"
)

var openStatuses = bson.A{
	models.InsurancePending,
	models.InsurancePreparing,
	models.InsuranceAwaitingHandover,
}

// InsuranceRepository persists replacement requests.
type InsuranceRepository struct {
	coll *mongo.Collection
}

var _ repository.InsuranceRepository = (*InsuranceRepository)(nil)

// NewInsuranceRepository builds the insurance adapter over the store.
func NewInsuranceRepository(store *Store) *InsuranceRepository {
	return &InsuranceRepository{coll: store.db.Collection(collInsuranceRequests)}
}

func (r *InsuranceRepository) Get(ctx context.Context, id string) (models.InsuranceRequest, error) {
	var req models.InsuranceRequest
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.InsuranceRequest{}, liferr.NotFound("insurance request", id)
	}
	if err != nil {
		return models.InsuranceRequest{}, fmt.Errorf("find insurance request %s: %w", id, err)
	}
	return req, nil
}

func (r *InsuranceRepository) Insert(ctx context.Context, req models.InsuranceRequest) error {
	if _, err := r.coll.InsertOne(ctx, req); err != nil {
		return fmt.Errorf("insert insurance request %s: %w", req.ID, err)
	}
	return nil
}

func (r *InsuranceRepository) Update(ctx context.Context, req models.InsuranceRequest) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": req.ID}, req)
	if err != nil {
		return fmt.Errorf("update insurance request %s: %w", req.ID, err)
	}
	if res.MatchedCount == 0 {
		return liferr.NotFound("insurance request", req.ID)
	}
	return nil
}

func (r *InsuranceRepository) FindOpenByOriginalUnit(ctx context.Context, unitID string) (models.InsuranceRequest, bool, error) {
	var req models.InsuranceRequest
	err := r.coll.FindOne(ctx, bson.M{
		"originalUnitId": unitID,
		"status":         bson.M{"$in": openStatuses},
	}).Decode(&req)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.InsuranceRequest{}, false, nil
	}
	if err != nil {
		return models.InsuranceRequest{}, false, fmt.Errorf("find open insurance request of unit %s: %w", unitID, err)
	}
	return req, true, nil
}

func (r *InsuranceRepository) CountOpen(ctx context.Context) (int, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{"status": bson.M{"$in": openStatuses}})
	if err != nil {
		return 0, fmt.Errorf("count open insurance requests: %w", err)
	}
	return int(count), nil
}

// SummaryRepository persists daily summaries.
type SummaryRepository struct {
	coll *mongo.Collection
}

var _ repository.SummaryRepository = (*SummaryRepository)(nil)

// NewSummaryRepository builds the summary adapter over the store.
func NewSummaryRepository(store *Store) *SummaryRepository {
	return &SummaryRepository{coll: store.db.Collection(collDailySummaries)}
}

func (r *SummaryRepository) SaveDailySummary(ctx context.Context, summary models.DailySummary) error {
	if _, err := r.coll.InsertOne(ctx, summary); err != nil {
		return fmt.Errorf("insert daily summary: %w", err)
	}
	return nil
}
