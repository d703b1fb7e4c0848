package users

import (
	"context"

	"stock-admin/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// DestroyUserSessions deletes every session of userID and its session index set.
func DestroyUserSessions(ctx context.Context, rdb *redis.Client, userID string) error {
	if rdb == nil || userID == "" {
		return nil
	}
	key := middleware.UserSessionsPrefix + userID
	ids, err := rdb.SMembers(ctx, key).Result()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(ids)+1)
	for _, sid := range ids {
		keys = append(keys, middleware.SessionRedisPrefix+sid)
	}
	keys = append(keys, key)
	return rdb.Del(ctx, keys...).Err()
}
