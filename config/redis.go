package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	redisClient *redis.Client
	redisOnce   sync.Once
)

// redisOptionsFromEnv builds client options from REDIS_ADDR, REDIS_PASS and REDIS_DB.
func redisOptionsFromEnv() *redis.Options {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	dbNum := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if v, err := strconv.Atoi(dbStr); err == nil {
			dbNum = v
		}
	}
	return &redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASS"),
		DB:       dbNum,
	}
}

// ConnectRedis initializes a singleton Redis client based on environment variables.
// Returns the client (or nil) and an error if connection/ping failed.
// Sessions, rate limiting and the redis notifier all degrade gracefully when it is nil.
func ConnectRedis() (*redis.Client, error) {
	var err error
	redisOnce.Do(func() {
		cfg := LoadConfig()
		if cfg != nil && cfg.AppEnv == "test" {
			return
		}

		opts := redisOptionsFromEnv()
		rdb := redis.NewClient(opts)

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err = rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			redisClient = nil
			err = fmt.Errorf("redis ping failed: %w", err)
			return
		}

		redisClient = rdb
		log.Printf("Connected to Redis at %s", opts.Addr)
	})
	return redisClient, err
}

// GetRedisClient returns the initialized Redis client (may be nil if ConnectRedis failed or not called).
func GetRedisClient() *redis.Client {
	return redisClient
}
