package database

import (
	"context"
	"fmt"
	"time"

	"github.com/hepascope/platform/pkg/common/config"
	"github.com/hepascope/platform/pkg/common/logger"
	"github.com/redis/go-redis/v9"
)

// NewRedis dials redis from config. Connectivity problems are logged, not
// fatal: every consumer of the client degrades gracefully without it.
func NewRedis(cfg *config.Config) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Log.WithError(err).Error("Failed to connect to Redis")
	} else {
		logger.Log.Info("Connected to Redis")
	}

	return client
}

func CloseRedis(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
