package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// StoreError wraps any failure coming out of the document store. The
// adapter never retries and never distinguishes transient from permanent
// failures; callers treat every StoreError as fatal for the request.
type StoreError struct {
	Op         string
	Collection string
	Err        error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s on %s: %v", e.Op, e.Collection, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Mongo is a thin adapter over a MongoDB database. It owns identifier
// translation (ObjectID -> hex string) and nothing else; connection
// lifecycle belongs to the caller that constructed the client.
type Mongo struct {
	db *mongo.Database
}

func NewMongo(client *mongo.Client, dbName string) *Mongo {
	return &Mongo{db: client.Database(dbName)}
}

// Insert persists one document and returns the store-generated id as a
// hex string.
func (m *Mongo) Insert(ctx context.Context, collection string, doc interface{}) (string, error) {
	res, err := m.db.Collection(collection).InsertOne(ctx, doc)
	if err != nil {
		return "", &StoreError{Op: "insert", Collection: collection, Err: err}
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex(), nil
	}
	return fmt.Sprintf("%v", res.InsertedID), nil
}

// Find returns documents matching filter in the store's natural order.
// A limit <= 0 means unlimited: the query is issued with no limit at all,
// no artificial safety ceiling is applied.
func (m *Mongo) Find(ctx context.Context, collection string, filter bson.M, limit int64) ([]bson.M, error) {
	if filter == nil {
		filter = bson.M{}
	}
	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := m.db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, &StoreError{Op: "find", Collection: collection, Err: err}
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, &StoreError{Op: "find", Collection: collection, Err: err}
	}
	return docs, nil
}

// Aggregate runs a pipeline and returns the raw result documents.
func (m *Mongo) Aggregate(ctx context.Context, collection string, pipeline interface{}) ([]bson.M, error) {
	cursor, err := m.db.Collection(collection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, &StoreError{Op: "aggregate", Collection: collection, Err: err}
	}
	defer cursor.Close(ctx)

	var results []bson.M
	if err := cursor.All(ctx, &results); err != nil {
		return nil, &StoreError{Op: "aggregate", Collection: collection, Err: err}
	}
	return results, nil
}

// Name returns the underlying database name, used by diagnostics.
func (m *Mongo) Name() string {
	return m.db.Name()
}

// Collections lists collection names for the diagnostics endpoint.
func (m *Mongo) Collections(ctx context.Context) ([]string, error) {
	names, err := m.db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return nil, &StoreError{Op: "list_collections", Collection: "", Err: err}
	}
	return names, nil
}
