// internal/common/database/mongo.go
package database

import (
	"context"
	"fmt"
	"time"

	"hrms-dispatch/internal/common/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoClient wraps the document-store connection. It is created once at
// process start and injected into every component that reads or writes
// collections; application code never reaches for a package-level client.
type MongoClient struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// NewMongo creates a new MongoDB client and selects the configured database.
func NewMongo(ctx context.Context, cfg config.MongoConfig) (*MongoClient, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	return &MongoClient{
		Client:   client,
		Database: client.Database(cfg.Database),
	}, nil
}

// Ping tests the document-store connection
func (c *MongoClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return c.Client.Ping(ctx, readpref.Primary())
}

// Collection returns a handle for the named collection.
func (c *MongoClient) Collection(name string) *mongo.Collection {
	return c.Database.Collection(name)
}

// Close disconnects the client.
func (c *MongoClient) Close(ctx context.Context) error {
	if c.Client != nil {
		return c.Client.Disconnect(ctx)
	}
	return nil
}
