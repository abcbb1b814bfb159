package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/livestock/internal/domain/liferr"
	"github.com/mamadbah2/livestock/internal/domain/models"
	"github.com/mamadbah2/livestock/internal/repository"
)

// ExportRepository persists export batches and details.
type ExportRepository struct {
	batches *mongo.Collection
	details *mongo.Collection
}

var _ repository.ExportRepository = (*ExportRepository)(nil)

// NewExportRepository builds the export adapter over the store.
func NewExportRepository(store *Store) *ExportRepository {
	return &ExportRepository{
		batches: store.db.Collection(collExportBatches),
		details: store.db.Collection(collExportDetails),
	}
}

func (r *ExportRepository) GetBatch(ctx context.Context, id string) (models.ExportBatch, error) {
	var batch models.ExportBatch
	err := r.batches.FindOne(ctx, bson.M{"_id": id}).Decode(&batch)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ExportBatch{}, liferr.NotFound("export batch", id)
	}
	if err != nil {
		return models.ExportBatch{}, fmt.Errorf("find export batch %s: %w", id, err)
	}
	return batch, nil
}

func (r *ExportRepository) InsertBatch(ctx context.Context, batch models.ExportBatch) error {
	if _, err := r.batches.InsertOne(ctx, batch); err != nil {
		return fmt.Errorf("insert export batch %s: %w", batch.ID, err)
	}
	return nil
}

func (r *ExportRepository) UpdateBatch(ctx context.Context, batch models.ExportBatch) error {
	res, err := r.batches.ReplaceOne(ctx, bson.M{"_id": batch.ID}, batch)
	if err != nil {
		return fmt.Errorf("update export batch %s: %w", batch.ID, err)
	}
	if res.MatchedCount == 0 {
		return liferr.NotFound("export batch", batch.ID)
	}
	return nil
}

func (r *ExportRepository) ListBatchesByPackage(ctx context.Context, packageID string) ([]models.ExportBatch, error) {
	cursor, err := r.batches.Find(ctx, bson.M{"packageId": packageID}, options.Find().SetSort(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("find batches of package %s: %w", packageID, err)
	}
	var batches []models.ExportBatch
	if err := cursor.All(ctx, &batches); err != nil {
		return nil, fmt.Errorf("decode export batches: %w", err)
	}
	return batches, nil
}

// DecrementRemaining only matches a document with remaining > 0, so two
// racing assignments against the last slot cannot both succeed: the loser
// matches nothing and gets CapacityExceeded.
func (r *ExportRepository) DecrementRemaining(ctx context.Context, batchID string) error {
	res, err := r.batches.UpdateOne(ctx,
		bson.M{"_id": batchID, "remaining": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"remaining": -1}},
	)
	if err != nil {
		return fmt.Errorf("decrement remaining of batch %s: %w", batchID, err)
	}
	if res.MatchedCount == 0 {
		// Distinguish a missing batch from a full one.
		count, err := r.batches.CountDocuments(ctx, bson.M{"_id": batchID})
		if err != nil {
			return fmt.Errorf("check batch %s: %w", batchID, err)
		}
		if count == 0 {
			return liferr.NotFound("export batch", batchID)
		}
		return liferr.CapacityExceeded("export batch", batchID)
	}
	return nil
}

func (r *ExportRepository) IncrementRemaining(ctx context.Context, batchID string) error {
	res, err := r.batches.UpdateOne(ctx,
		bson.M{"_id": batchID},
		bson.M{"$inc": bson.M{"remaining": 1}},
	)
	if err != nil {
		return fmt.Errorf("increment remaining of batch %s: %w", batchID, err)
	}
	if res.MatchedCount == 0 {
		return liferr.NotFound("export batch", batchID)
	}
	return nil
}

func (r *ExportRepository) GetDetail(ctx context.Context, id string) (models.ExportDetail, error) {
	var detail models.ExportDetail
	err := r.details.FindOne(ctx, bson.M{"_id": id}).Decode(&detail)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ExportDetail{}, liferr.NotFound("export detail", id)
	}
	if err != nil {
		return models.ExportDetail{}, fmt.Errorf("find export detail %s: %w", id, err)
	}
	return detail, nil
}

func (r *ExportRepository) InsertDetail(ctx context.Context, detail models.ExportDetail) error {
	if _, err := r.details.InsertOne(ctx, detail); err != nil {
		return fmt.Errorf("insert export detail %s: %w", detail.ID, err)
	}
	return nil
}

func (r *ExportRepository) UpdateDetail(ctx context.Context, detail models.ExportDetail) error {
	res, err := r.details.ReplaceOne(ctx, bson.M{"_id": detail.ID}, detail)
	if err != nil {
		return fmt.Errorf("update export detail %s: %w", detail.ID, err)
	}
	if res.MatchedCount == 0 {
		return liferr.NotFound("export detail", detail.ID)
	}
	return nil
}

func (r *ExportRepository) ListDetailsByBatch(ctx context.Context, batchID string) ([]models.ExportDetail, error) {
	cursor, err := r.details.Find(ctx, bson.M{"batchId": batchID}, options.Find().SetSort(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("find details of export batch %s: %w", batchID, err)
	}
	var details []models.ExportDetail
	if err := cursor.All(ctx, &details); err != nil {
		return nil, fmt.Errorf("decode export details: %w", err)
	}
	return details, nil
}

func (r *ExportRepository) FindActiveDetailByUnit(ctx context.Context, unitID string) (models.ExportDetail, bool, error) {
	var detail models.ExportDetail
	err := r.details.FindOne(ctx, bson.M{
		"unitId": unitID,
		"status": bson.M{"$ne": models.ExportDetailCancelled},
	}).Decode(&detail)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ExportDetail{}, false, nil
	}
	if err != nil {
		return models.ExportDetail{}, false, fmt.Errorf("find active export detail of unit %s: %w", unitID, err)
	}
	return detail, true, nil
}

func (r *ExportRepository) CountHandoversBetween(ctx context.Context, from, to time.Time) (int, error) {
	count, err := r.details.CountDocuments(ctx, bson.M{
		"handoverDate": bson.M{"$gte": from, "$lt": to},
	})
	if err != nil {
		return 0, fmt.Errorf("count handovers: %w", err)
	}
	return int(count), nil
}
