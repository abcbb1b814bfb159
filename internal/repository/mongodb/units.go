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

// UnitRepository persists livestock units.
type UnitRepository struct {
	coll *mongo.Collection
}

var _ repository.UnitRepository = (*UnitRepository)(nil)

// NewUnitRepository builds the unit adapter over the store.
func NewUnitRepository(store *Store) *UnitRepository {
	return &UnitRepository{coll: store.db.Collection(collUnits)}
}

func (r *UnitRepository) Get(ctx context.Context, id string) (models.LivestockUnit, error) {
	var unit models.LivestockUnit
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&unit)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.LivestockUnit{}, liferr.NotFound("livestock unit", id)
	}
	if err != nil {
		return models.LivestockUnit{}, fmt.Errorf("find unit %s: %w", id, err)
	}
	return unit, nil
}

func (r *UnitRepository) Insert(ctx context.Context, unit models.LivestockUnit) error {
	if _, err := r.coll.InsertOne(ctx, unit); err != nil {
		return fmt.Errorf("insert unit %s: %w", unit.ID, err)
	}
	return nil
}

func (r *UnitRepository) Update(ctx context.Context, unit models.LivestockUnit) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": unit.ID}, unit)
	if err != nil {
		return fmt.Errorf("update unit %s: %w", unit.ID, err)
	}
	if res.MatchedCount == 0 {
		return liferr.NotFound("livestock unit", unit.ID)
	}
	return nil
}

func (r *UnitRepository) FindBySpeciesAndStatus(ctx context.Context, speciesID string, statuses []models.UnitStatus) ([]models.LivestockUnit, error) {
	filter := bson.M{
		"speciesId": speciesID,
		"status":    bson.M{"$in": statuses},
	}
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("find units by species %s: %w", speciesID, err)
	}
	var units []models.LivestockUnit
	if err := cursor.All(ctx, &units); err != nil {
		return nil, fmt.Errorf("decode units: %w", err)
	}
	return units, nil
}

func (r *UnitRepository) CountByStatus(ctx context.Context) (map[models.UnitStatus]int, error) {
	cursor, err := r.coll.Aggregate(ctx, mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate unit statuses: %w", err)
	}
	var rows []struct {
		Status models.UnitStatus `bson:"_id"`
		Count  int               `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode status counts: %w", err)
	}
	counts := make(map[models.UnitStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *UnitRepository) CountDeadBetween(ctx context.Context, from, to time.Time) (int, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{
		"deadAt": bson.M{"$gte": from, "$lt": to},
	})
	if err != nil {
		return 0, fmt.Errorf("count deaths: %w", err)
	}
	return int(count), nil
}
