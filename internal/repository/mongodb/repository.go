package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/farmer-market/internal/repository"
)

const (
	layoutsCollection     = "farm_layouts"
	positionsCollection   = "tree_positions"
	treeTypesCollection   = "trees"
	nodeTypesCollection   = "custom_node_types"
	careLogsCollection    = "tree_care_logs"
	vegetablesCollection  = "vegetables"
	ordersCollection      = "orders"
	prebookingsCollection = "vegetable_prebookings"
	usersCollection       = "users"
)

// Store owns the MongoDB connection shared by every repository.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewStore connects to MongoDB and verifies the connection.
func NewStore(ctx context.Context, uri string, dbName string) (*Store, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &Store{
		client: client,
		db:     client.Database(dbName),
	}, nil
}

// Database exposes the database handle repositories are built from.
func (s *Store) Database() *mongo.Database { return s.db }

// EnsureIndexes creates the indexes the repositories rely on, including the
// unique cell constraints for tree positions and node-type overrides.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	cellKey := bson.D{
		{Key: "layout_id", Value: 1},
		{Key: "block_index", Value: 1},
		{Key: "grid_x", Value: 1},
		{Key: "grid_y", Value: 1},
	}

	indexes := map[string][]mongo.IndexModel{
		positionsCollection: {
			{Keys: cellKey, Options: options.Index().SetUnique(true).SetName("uniq_cell")},
		},
		nodeTypesCollection: {
			{Keys: cellKey, Options: options.Index().SetUnique(true).SetName("uniq_cell")},
		},
		layoutsCollection: {
			{Keys: bson.D{{Key: "farm_id", Value: 1}, {Key: "is_active", Value: 1}}},
		},
		treeTypesCollection: {
			{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		careLogsCollection: {
			{Keys: bson.D{{Key: "position_id", Value: 1}, {Key: "performed_at", Value: -1}}},
		},
		vegetablesCollection: {
			{Keys: bson.D{{Key: "seller_id", Value: 1}}},
		},
		ordersCollection: {
			{Keys: bson.D{{Key: "buyer_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "seller_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "created_at", Value: 1}}},
		},
		prebookingsCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "seller_id", Value: 1}, {Key: "name_key", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}}},
		},
		usersCollection: {
			{Keys: bson.D{{Key: "phone", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}

	for coll, models := range indexes {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

// Close closes the MongoDB connection.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// translate maps driver errors onto the shared repository errors.
func translate(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w", op, repository.ErrDuplicate)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter any, opts ...*options.FindOptions) ([]T, error) {
	cur, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
