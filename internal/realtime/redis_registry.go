package realtime

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	userKeyPrefix = "live:user:"
	connKeyPrefix = "live:conn:"
)

// detachScript deletes the connection key and, only if the user still points at
// this connection, the user key.
var detachScript = redis.NewScript(`
local user = redis.call('GET', KEYS[1])
if not user then
  return 0
end
redis.call('DEL', KEYS[1])
local userKey = ARGV[1] .. user
if redis.call('GET', userKey) == ARGV[2] then
  redis.call('DEL', userKey)
end
return 1
`)

// RedisRegistry shares the registry between server instances through Redis.
type RedisRegistry struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRegistry returns a registry whose entries expire after ttl, or never when ttl is 0.
func NewRedisRegistry(client *redis.Client, ttl time.Duration) *RedisRegistry {
	return &RedisRegistry{client: client, ttl: ttl}
}

func (r *RedisRegistry) Attach(ctx context.Context, userID, connID string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, userKeyPrefix+userID, connID, r.ttl)
		pipe.Set(ctx, connKeyPrefix+connID, userID, r.ttl)
		return nil
	})
	return err
}

func (r *RedisRegistry) Detach(ctx context.Context, connID string) error {
	return detachScript.Run(ctx, r.client, []string{connKeyPrefix + connID}, userKeyPrefix, connID).Err()
}

func (r *RedisRegistry) Resolve(ctx context.Context, userID string) (string, bool, error) {
	connID, err := r.client.Get(ctx, userKeyPrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return connID, true, nil
}
