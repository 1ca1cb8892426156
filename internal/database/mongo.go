// Package database opens and verifies the backing stores before the server
// starts taking traffic.
package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const mongoConnectTimeout = 15 * time.Second

// ConnectMongo opens a client, pings the primary, and returns the named
// database. The client is returned too so main can disconnect it during
// shutdown.
func ConnectMongo(uri, dbName string, logger *zap.Logger) (*mongo.Database, *mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	logger.Info("mongodb ready", zap.String("database", dbName))
	return client.Database(dbName), client, nil
}
