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

// ProcurementRepository persists packages and their requirement lines.
type ProcurementRepository struct {
	packages *mongo.Collection
	details  *mongo.Collection
}

var _ repository.ProcurementRepository = (*ProcurementRepository)(nil)

// NewProcurementRepository builds the procurement adapter over the store.
func NewProcurementRepository(store *Store) *ProcurementRepository {
	return &ProcurementRepository{
		packages: store.db.Collection(collPackages),
		details:  store.db.Collection(collProcurementDetails),
	}
}

func (r *ProcurementRepository) GetPackage(ctx context.Context, id string) (models.ProcurementPackage, error) {
	var pkg models.ProcurementPackage
	err := r.packages.FindOne(ctx, bson.M{"_id": id}).Decode(&pkg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ProcurementPackage{}, liferr.NotFound("procurement package", id)
	}
	if err != nil {
		return models.ProcurementPackage{}, fmt.Errorf("find package %s: %w", id, err)
	}
	return pkg, nil
}

func (r *ProcurementRepository) InsertPackage(ctx context.Context, pkg models.ProcurementPackage) error {
	if _, err := r.packages.InsertOne(ctx, pkg); err != nil {
		return fmt.Errorf("insert package %s: %w", pkg.ID, err)
	}
	return nil
}

func (r *ProcurementRepository) UpdatePackage(ctx context.Context, pkg models.ProcurementPackage) error {
	res, err := r.packages.ReplaceOne(ctx, bson.M{"_id": pkg.ID}, pkg)
	if err != nil {
		return fmt.Errorf("update package %s: %w", pkg.ID, err)
	}
	if res.MatchedCount == 0 {
		return liferr.NotFound("procurement package", pkg.ID)
	}
	return nil
}

func (r *ProcurementRepository) GetDetail(ctx context.Context, id string) (models.ProcurementDetail, error) {
	var detail models.ProcurementDetail
	err := r.details.FindOne(ctx, bson.M{"_id": id}).Decode(&detail)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ProcurementDetail{}, liferr.NotFound("procurement detail", id)
	}
	if err != nil {
		return models.ProcurementDetail{}, fmt.Errorf("find procurement detail %s: %w", id, err)
	}
	return detail, nil
}

func (r *ProcurementRepository) InsertDetail(ctx context.Context, detail models.ProcurementDetail) error {
	if _, err := r.details.InsertOne(ctx, detail); err != nil {
		return fmt.Errorf("insert procurement detail %s: %w", detail.ID, err)
	}
	return nil
}

func (r *ProcurementRepository) ListDetailsByPackage(ctx context.Context, packageID string) ([]models.ProcurementDetail, error) {
	cursor, err := r.details.Find(ctx, bson.M{"packageId": packageID}, options.Find().SetSort(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("find details of package %s: %w", packageID, err)
	}
	var details []models.ProcurementDetail
	if err := cursor.All(ctx, &details); err != nil {
		return nil, fmt.Errorf("decode procurement details: %w", err)
	}
	return details, nil
}

func (r *ProcurementRepository) FindDetailBySpecies(ctx context.Context, packageID, speciesID string) (models.ProcurementDetail, bool, error) {
	var detail models.ProcurementDetail
	err := r.details.FindOne(ctx, bson.M{"packageId": packageID, "speciesId": speciesID}).Decode(&detail)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ProcurementDetail{}, false, nil
	}
	if err != nil {
		return models.ProcurementDetail{}, false, fmt.Errorf("find procurement detail for species %s: %w", speciesID, err)
	}
	return detail, true, nil
}
