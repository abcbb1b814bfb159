package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/livestock/internal/domain/liferr"
	"github.com/mamadbah2/livestock/internal/domain/models"
	"github.com/mamadbah2/livestock/internal/repository"
)

// ImportRepository persists import batches and details.
type ImportRepository struct {
	batches *mongo.Collection
	details *mongo.Collection
}

var _ repository.ImportRepository = (*ImportRepository)(nil)

// NewImportRepository builds the import adapter over the store.
func NewImportRepository(store *Store) *ImportRepository {
	return &ImportRepository{
		batches: store.db.Collection(collImportBatches),
		details: store.db.Collection(collImportDetails),
	}
}

func (r *ImportRepository) GetBatch(ctx context.Context, id string) (models.ImportBatch, error) {
	var batch models.ImportBatch
	err := r.batches.FindOne(ctx, bson.M{"_id": id}).Decode(&batch)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ImportBatch{}, liferr.NotFound("import batch", id)
	}
	if err != nil {
		return models.ImportBatch{}, fmt.Errorf("find import batch %s: %w", id, err)
	}
	return batch, nil
}

func (r *ImportRepository) InsertBatch(ctx context.Context, batch models.ImportBatch) error {
	if _, err := r.batches.InsertOne(ctx, batch); err != nil {
		return fmt.Errorf("insert import batch %s: %w", batch.ID, err)
	}
	return nil
}

func (r *ImportRepository) UpdateBatch(ctx context.Context, batch models.ImportBatch) error {
	res, err := r.batches.ReplaceOne(ctx, bson.M{"_id": batch.ID}, batch)
	if err != nil {
		return fmt.Errorf("update import batch %s: %w", batch.ID, err)
	}
	if res.MatchedCount == 0 {
		return liferr.NotFound("import batch", batch.ID)
	}
	return nil
}

func (r *ImportRepository) CountOpenBatches(ctx context.Context) (int, error) {
	count, err := r.batches.CountDocuments(ctx, bson.M{
		"status": bson.M{"$in": bson.A{models.ImportBatchAwaiting, models.ImportBatchImporting}},
	})
	if err != nil {
		return 0, fmt.Errorf("count open import batches: %w", err)
	}
	return int(count), nil
}

func (r *ImportRepository) GetDetail(ctx context.Context, id string) (models.ImportDetail, error) {
	var detail models.ImportDetail
	err := r.details.FindOne(ctx, bson.M{"_id": id}).Decode(&detail)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ImportDetail{}, liferr.NotFound("import detail", id)
	}
	if err != nil {
		return models.ImportDetail{}, fmt.Errorf("find import detail %s: %w", id, err)
	}
	return detail, nil
}

func (r *ImportRepository) InsertDetail(ctx context.Context, detail models.ImportDetail) error {
	if _, err := r.details.InsertOne(ctx, detail); err != nil {
		return fmt.Errorf("insert import detail %s: %w", detail.ID, err)
	}
	return nil
}

func (r *ImportRepository) UpdateDetail(ctx context.Context, detail models.ImportDetail) error {
	res, err := r.details.ReplaceOne(ctx, bson.M{"_id": detail.ID}, detail)
	if err != nil {
		return fmt.Errorf("update import detail %s: %w", detail.ID, err)
	}
	if res.MatchedCount == 0 {
		return liferr.NotFound("import detail", detail.ID)
	}
	return nil
}

func (r *ImportRepository) ListDetailsByBatch(ctx context.Context, batchID string) ([]models.ImportDetail, error) {
	cursor, err := r.details.Find(ctx, bson.M{"batchId": batchID}, options.Find().SetSort(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("find details of import batch %s: %w", batchID, err)
	}
	var details []models.ImportDetail
	if err := cursor.All(ctx, &details); err != nil {
		return nil, fmt.Errorf("decode import details: %w", err)
	}
	return details, nil
}

func (r *ImportRepository) FindActiveDetailByUnit(ctx context.Context, unitID string) (models.ImportDetail, bool, error) {
	var detail models.ImportDetail
	err := r.details.FindOne(ctx, bson.M{
		"unitId": unitID,
		"status": bson.M{"$ne": models.ImportDetailCancelled},
	}).Decode(&detail)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ImportDetail{}, false, nil
	}
	if err != nil {
		return models.ImportDetail{}, false, fmt.Errorf("find active import detail of unit %s: %w", unitID, err)
	}
	return detail, true, nil
}
