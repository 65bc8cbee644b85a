package storage

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultMongoDatabase = "nivara"

// ConnectMongo connects and pings. The database name comes from the URI path
// when present, otherwise "nivara". Mongo only backs the assistant
// conversation history; the health and account stores never touch it.
func ConnectMongo(mongoURI string) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(mongoURI)
	clientOptions.SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, nil, err
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer pingCancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}

	return client, client.Database(mongoDatabaseName(mongoURI)), nil
}

func mongoDatabaseName(mongoURI string) string {
	// mongodb://host:port/dbname?opts — take the last path segment.
	trimmed := mongoURI
	if idx := strings.Index(trimmed, "?"); idx != -1 {
		trimmed = trimmed[:idx]
	}
	parts := strings.Split(trimmed, "/")
	if len(parts) > 3 && parts[len(parts)-1] != "" {
		return parts[len(parts)-1]
	}
	return defaultMongoDatabase
}
