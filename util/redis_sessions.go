package util

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ariebrainware/medlink/config"
	"github.com/redis/go-redis/v9"
)

// ErrSessionNotCached is returned by LookupSession when Redis has no entry
// for the token or Redis is not configured. Callers fall back to the DB.
var ErrSessionNotCached = errors.New("session not cached")

// SessionKey is the Redis key holding "<user_id>:<role_id>" for token.
func SessionKey(token string) string {
	return "session:" + token
}

func userSetKey(userID uint) string {
	return fmt.Sprintf("user_sessions:%d", userID)
}

// CacheSession stores the session principal for ttl and indexes the token
// under the user so InvalidateUserSessions can find it.
func CacheSession(ctx context.Context, token string, userID uint, roleID uint32, ttl time.Duration) error {
	rdb := config.GetRedisClient()
	if rdb == nil {
		return nil
	}
	if err := rdb.Set(ctx, SessionKey(token), fmt.Sprintf("%d:%d", userID, roleID), ttl).Err(); err != nil {
		return err
	}
	return AddSessionToUserSet(ctx, userID, token)
}

// LookupSession returns the cached principal for token.
func LookupSession(ctx context.Context, token string) (userID uint, roleID uint32, err error) {
	rdb := config.GetRedisClient()
	if rdb == nil {
		return 0, 0, ErrSessionNotCached
	}
	val, err := rdb.Get(ctx, SessionKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, 0, ErrSessionNotCached
	}
	if err != nil {
		return 0, 0, err
	}
	return parseSessionValue(val)
}

func parseSessionValue(val string) (uint, uint32, error) {
	parts := strings.SplitN(val, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed session value %q", val)
	}
	uid, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed session user id: %w", err)
	}
	rid, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed session role id: %w", err)
	}
	return uint(uid), uint32(rid), nil
}

// DropSession removes one cached session.
func DropSession(ctx context.Context, token string, userID uint) error {
	rdb := config.GetRedisClient()
	if rdb == nil {
		return nil
	}
	if err := rdb.Del(ctx, SessionKey(token)).Err(); err != nil {
		return err
	}
	return RemoveSessionTokenFromUserSet(ctx, userID, token)
}

// AddSessionToUserSet adds the session token to the per-user Redis set.
// The set has no TTL and relies on explicit cleanup.
func AddSessionToUserSet(ctx context.Context, userID uint, token string) error {
	rdb := config.GetRedisClient()
	if rdb == nil {
		return nil
	}
	key := userSetKey(userID)
	if err := rdb.SAdd(ctx, key, token).Err(); err != nil {
		return err
	}
	return rdb.Persist(ctx, key).Err()
}

// removeTokenScript deletes the set once its last member is gone.
var removeTokenScript = redis.NewScript(`
local removed = redis.call('SREM', KEYS[1], ARGV[1])
if removed > 0 and redis.call('SCARD', KEYS[1]) == 0 then
	redis.call('DEL', KEYS[1])
end
return removed
`)

// RemoveSessionTokenFromUserSet removes a single session token from the per-user set.
func RemoveSessionTokenFromUserSet(ctx context.Context, userID uint, token string) error {
	rdb := config.GetRedisClient()
	if rdb == nil {
		return nil
	}
	return removeTokenScript.Run(ctx, rdb, []string{userSetKey(userID)}, token).Err()
}

// InvalidateUserSessions deletes every cached session of the user, e.g. when
// a doctor account is removed.
func InvalidateUserSessions(ctx context.Context, userID uint) error {
	rdb := config.GetRedisClient()
	if rdb == nil {
		return nil
	}
	key := userSetKey(userID)
	members, err := rdb.SMembers(ctx, key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	for _, tok := range members {
		_ = rdb.Del(ctx, SessionKey(tok)).Err()
	}
	return rdb.Del(ctx, key).Err()
}
