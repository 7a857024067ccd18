// Package storage holds the durable group stores behind domain.GroupStore.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/qepting91/reddit-grid/internal/config"
	"github.com/qepting91/reddit-grid/internal/domain"
)

// NewStorage creates a new group store based on configuration.
func NewStorage(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (domain.GroupStore, error) {
	switch cfg.Type {
	case config.StorageSQLite, "":
		return NewSQLiteStore(cfg.DatabasePath)
	case config.StoragePostgres:
		return NewPostgresStore(cfg.PostgresURI)
	case config.StorageMongoDB:
		return NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case config.StorageDynamoDB:
		return NewDynamoDBStore(cfg)
	case config.StorageJSONL:
		return NewJSONLStore(cfg.JSONLDir, logger)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

func encodePost(p domain.Post) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to marshal post %s: %w", p.ID, err)
	}
	return string(data), nil
}

func decodePost(data string) (domain.Post, error) {
	var p domain.Post
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return domain.Post{}, fmt.Errorf("failed to unmarshal post: %w", err)
	}
	return p, nil
}
