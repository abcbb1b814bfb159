// Package mongodb implements the storage contracts on MongoDB. One
// collection per aggregate; business operations run their write cascades
// inside a session transaction so a failed cascade rolls back whole.
package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

const (
	collUnits                 = "livestock_units"
	collImportBatches         = "import_batches"
	collImportDetails         = "import_details"
	collExportBatches         = "export_batches"
	collExportDetails         = "export_details"
	collPackages              = "procurement_packages"
	collProcurementDetails    = "procurement_details"
	collOrders                = "orders"
	collOrderRequirements     = "order_requirements"
	collOrderDetails          = "order_details"
	collBatchVaccinations     = "batch_vaccinations"
	collLivestockVaccinations = "livestock_vaccinations"
	collSingleVaccinations    = "single_vaccinations"
	collMedicines             = "medicines"
	collInsuranceRequests     = "insurance_requests"
	collDailySummaries        = "daily_summaries"
)

// Store owns the MongoDB connection shared by the adapters.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewStore connects to MongoDB and verifies the connection.
func NewStore(ctx context.Context, uri, dbName string) (*Store, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &Store{client: client, db: client.Database(dbName)}, nil
}

// WithinTx runs fn inside a majority-committed session transaction. Any
// error aborts the transaction, rolling back every cascaded write of the
// operation.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	txnOptions := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	}, txnOptions)
	return err
}

// Close disconnects from MongoDB.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
