package config

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func ConnectMongoDB(cfg *Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %v", err)
	}

	// Test connection
	err = client.Ping(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %v", err)
	}

	// Create indexes
	err = createIndexes(client, cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to create indexes: %v", err)
	}

	return client, nil
}

func createIndexes(client *mongo.Client, dbName string) error {
	db := client.Database(dbName)

	// Samples are filtered by scenario and ordered by collection time.
	samplesCollection := db.Collection("watersample")
	sampleIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "scenario", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "collected_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "scenario", Value: 1}, {Key: "collected_at", Value: -1}},
		},
	}
	_, err := samplesCollection.Indexes().CreateMany(context.Background(), sampleIndexes)
	if err != nil {
		return err
	}

	return nil
}
