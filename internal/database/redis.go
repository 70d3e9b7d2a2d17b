package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const connectTimeout = 5 * time.Second

// ConnectRedis configures the Redis client backing the session store and verifies it answers.
func ConnectRedis(url string) (*redis.Client, error) {
	if url == "" {
		return nil, fmt.Errorf("redis url must not be empty")
	}

	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(options)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := PingRedis(client)(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

// PingRedis returns a probe that checks the session store is reachable.
func PingRedis(client *redis.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("unable to connect to redis: %w", err)
		}
		return nil
	}
}

// PingDatabase returns a probe that checks the relational store is reachable.
func PingDatabase(db *gorm.DB) func(context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("database handle unavailable: %w", err)
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("unable to reach database: %w", err)
		}
		return nil
	}
}
