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

// OrderRepository persists orders, requirement lines and details.
type OrderRepository struct {
	orders       *mongo.Collection
	requirements *mongo.Collection
	details      *mongo.Collection
}

var _ repository.OrderRepository = (*OrderRepository)(nil)

// NewOrderRepository builds the order adapter over the store.
func NewOrderRepository(store *Store) *OrderRepository {
	return &OrderRepository{
		orders:       store.db.Collection(collOrders),
		requirements: store.db.Collection(collOrderRequirements),
		details:      store.db.Collection(collOrderDetails),
	}
}

func (r *OrderRepository) GetOrder(ctx context.Context, id string) (models.Order, error) {
	var order models.Order
	err := r.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Order{}, liferr.NotFound("order", id)
	}
	if err != nil {
		return models.Order{}, fmt.Errorf("find order %s: %w", id, err)
	}
	return order, nil
}

func (r *OrderRepository) InsertOrder(ctx context.Context, order models.Order) error {
	if _, err := r.orders.InsertOne(ctx, order); err != nil {
		return fmt.Errorf("insert order %s: %w", order.ID, err)
	}
	return nil
}

func (r *OrderRepository) UpdateOrder(ctx context.Context, order models.Order) error {
	res, err := r.orders.ReplaceOne(ctx, bson.M{"_id": order.ID}, order)
	if err != nil {
		return fmt.Errorf("update order %s: %w", order.ID, err)
	}
	if res.MatchedCount == 0 {
		return liferr.NotFound("order", order.ID)
	}
	return nil
}

func (r *OrderRepository) GetRequirement(ctx context.Context, id string) (models.OrderRequirement, error) {
	var req models.OrderRequirement
	err := r.requirements.FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.OrderRequirement{}, liferr.NotFound("order requirement", id)
	}
	if err != nil {
		return models.OrderRequirement{}, fmt.Errorf("find order requirement %s: %w", id, err)
	}
	return req, nil
}

func (r *OrderRepository) InsertRequirement(ctx context.Context, req models.OrderRequirement) error {
	if _, err := r.requirements.InsertOne(ctx, req); err != nil {
		return fmt.Errorf("insert order requirement %s: %w", req.ID, err)
	}
	return nil
}

func (r *OrderRepository) ListRequirementsByOrder(ctx context.Context, orderID string) ([]models.OrderRequirement, error) {
	cursor, err := r.requirements.Find(ctx, bson.M{"orderId": orderID}, options.Find().SetSort(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("find requirements of order %s: %w", orderID, err)
	}
	var requirements []models.OrderRequirement
	if err := cursor.All(ctx, &requirements); err != nil {
		return nil, fmt.Errorf("decode order requirements: %w", err)
	}
	return requirements, nil
}

func (r *OrderRepository) GetDetail(ctx context.Context, id string) (models.OrderDetail, error) {
	var detail models.OrderDetail
	err := r.details.FindOne(ctx, bson.M{"_id": id}).Decode(&detail)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.OrderDetail{}, liferr.NotFound("order detail", id)
	}
	if err != nil {
		return models.OrderDetail{}, fmt.Errorf("find order detail %s: %w", id, err)
	}
	return detail, nil
}

func (r *OrderRepository) InsertDetail(ctx context.Context, detail models.OrderDetail) error {
	if _, err := r.details.InsertOne(ctx, detail); err != nil {
		return fmt.Errorf("insert order detail %s: %w", detail.ID, err)
	}
	return nil
}

func (r *OrderRepository) UpdateDetail(ctx context.Context, detail models.OrderDetail) error {
	res, err := r.details.ReplaceOne(ctx, bson.M{"_id": detail.ID}, detail)
	if err != nil {
		return fmt.Errorf("update order detail %s: %w", detail.ID, err)
	}
	if res.MatchedCount == 0 {
		return liferr.NotFound("order detail", detail.ID)
	}
	return nil
}

func (r *OrderRepository) ListDetailsByOrder(ctx context.Context, orderID string) ([]models.OrderDetail, error) {
	cursor, err := r.details.Find(ctx, bson.M{"orderId": orderID}, options.Find().SetSort(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("find details of order %s: %w", orderID, err)
	}
	var details []models.OrderDetail
	if err := cursor.All(ctx, &details); err != nil {
		return nil, fmt.Errorf("decode order details: %w", err)
	}
	return details, nil
}

func (r *OrderRepository) ListDetailsByRequirement(ctx context.Context, requirementID string) ([]models.OrderDetail, error) {
	cursor, err := r.details.Find(ctx, bson.M{"requirementId": requirementID}, options.Find().SetSort(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("find details of requirement %s: %w", requirementID, err)
	}
	var details []models.OrderDetail
	if err := cursor.All(ctx, &details); err != nil {
		return nil, fmt.Errorf("decode order details: %w", err)
	}
	return details, nil
}

func (r *OrderRepository) FindActiveDetailByUnit(ctx context.Context, unitID string) (models.OrderDetail, bool, error) {
	var detail models.OrderDetail
	err := r.details.FindOne(ctx, bson.M{
		"unitId": unitID,
		"status": bson.M{"$ne": models.OrderDetailCancelled},
	}).Decode(&detail)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.OrderDetail{}, false, nil
	}
	if err != nil {
		return models.OrderDetail{}, false, fmt.Errorf("find active order detail of unit %s: %w", unitID, err)
	}
	return detail, true, nil
}
