package config

import (
	"sync"

	"github.com/redis/go-redis/v9"
)

// Hooks for tests in other packages that need to swap the Redis singleton,
// typically for a redismock client. Not for production use.

// SetRedisClientForTesting injects client without going through ConnectRedis.
func SetRedisClientForTesting(client *redis.Client) {
	redisClient = client
}

// ResetRedisClientForTest drops the singleton so the next ConnectRedis runs again.
func ResetRedisClientForTest() {
	redisClient = nil
	redisOnce = sync.Once{}
}
