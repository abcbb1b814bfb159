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

// VaccinationRepository persists both vaccination sources and the medicine
// catalogue.
type VaccinationRepository struct {
	batches   *mongo.Collection
	members   *mongo.Collection
	singles   *mongo.Collection
	medicines *mongo.Collection
}

var _ repository.VaccinationRepository = (*VaccinationRepository)(nil)

// NewVaccinationRepository builds the vaccination adapter over the store.
func NewVaccinationRepository(store *Store) *VaccinationRepository {
	return &VaccinationRepository{
		batches:   store.db.Collection(collBatchVaccinations),
		members:   store.db.Collection(collLivestockVaccinations),
		singles:   store.db.Collection(collSingleVaccinations),
		medicines: store.db.Collection(collMedicines),
	}
}

func (r *VaccinationRepository) GetBatch(ctx context.Context, id string) (models.BatchVaccination, error) {
	var batch models.BatchVaccination
	err := r.batches.FindOne(ctx, bson.M{"_id": id}).Decode(&batch)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.BatchVaccination{}, liferr.NotFound("batch vaccination", id)
	}
	if err != nil {
		return models.BatchVaccination{}, fmt.Errorf("find batch vaccination %s: %w", id, err)
	}
	return batch, nil
}

func (r *VaccinationRepository) InsertBatch(ctx context.Context, batch models.BatchVaccination) error {
	if _, err := r.batches.InsertOne(ctx, batch); err != nil {
		return fmt.Errorf("insert batch vaccination %s: %w", batch.ID, err)
	}
	return nil
}

func (r *VaccinationRepository) UpdateBatch(ctx context.Context, batch models.BatchVaccination) error {
	res, err := r.batches.ReplaceOne(ctx, bson.M{"_id": batch.ID}, batch)
	if err != nil {
		return fmt.Errorf("update batch vaccination %s: %w", batch.ID, err)
	}
	if res.MatchedCount == 0 {
		return liferr.NotFound("batch vaccination", batch.ID)
	}
	return nil
}

func (r *VaccinationRepository) InsertMember(ctx context.Context, member models.LivestockVaccination) error {
	if _, err := r.members.InsertOne(ctx, member); err != nil {
		return fmt.Errorf("insert vaccination membership %s: %w", member.ID, err)
	}
	return nil
}

func (r *VaccinationRepository) ListMembershipsByUnit(ctx context.Context, unitID string) ([]models.LivestockVaccination, error) {
	cursor, err := r.members.Find(ctx, bson.M{"unitId": unitID}, options.Find().SetSort(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("find memberships of unit %s: %w", unitID, err)
	}
	var members []models.LivestockVaccination
	if err := cursor.All(ctx, &members); err != nil {
		return nil, fmt.Errorf("decode vaccination memberships: %w", err)
	}
	return members, nil
}

func (r *VaccinationRepository) InsertSingle(ctx context.Context, record models.SingleVaccination) error {
	if _, err := r.singles.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("insert single vaccination %s: %w", record.ID, err)
	}
	return nil
}

func (r *VaccinationRepository) ListSinglesByUnit(ctx context.Context, unitID string) ([]models.SingleVaccination, error) {
	cursor, err := r.singles.Find(ctx, bson.M{"unitId": unitID}, options.Find().SetSort(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("find single vaccinations of unit %s: %w", unitID, err)
	}
	var records []models.SingleVaccination
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode single vaccinations: %w", err)
	}
	return records, nil
}

func (r *VaccinationRepository) GetMedicines(ctx context.Context, ids []string) ([]models.Medicine, error) {
	cursor, err := r.medicines.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find medicines: %w", err)
	}
	var medicines []models.Medicine
	if err := cursor.All(ctx, &medicines); err != nil {
		return nil, fmt.Errorf("decode medicines: %w", err)
	}
	return medicines, nil
}
