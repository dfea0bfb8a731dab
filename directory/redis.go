package directory

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/primus/primacron/errors"
)

// RedisClient implements Client over a shared redis.Client, the same
// directory backing used by the listen-party and chat-gateway services this
// pattern is grounded on.
type RedisClient struct {
	rdb *redis.Client
	log *zap.SugaredLogger
}

// NewRedisClient wraps an already-configured *redis.Client.
func NewRedisClient(rdb *redis.Client, log *zap.SugaredLogger) *RedisClient {
	return &RedisClient{rdb: rdb, log: log}
}

func (c *RedisClient) Put(ctx context.Context, key string, ttl time.Duration, value string) error {
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return errors.WithKind(errors.Wrapf(err, "directory put %s", key), errors.KindDirectoryWrite)
	}
	return nil
}

func (c *RedisClient) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "directory get %s", key)
	}
	return value, true, nil
}

func (c *RedisClient) Delete(ctx context.Context, key string) error {
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		return errors.WithKind(errors.Wrapf(err, "directory delete %s", key), errors.KindDirectoryWrite)
	}
	return nil
}

func (c *RedisClient) Add(ctx context.Context, setKey string, member string) error {
	if err := c.rdb.SAdd(ctx, setKey, member).Err(); err != nil {
		return errors.WithKind(errors.Wrapf(err, "directory add %s", setKey), errors.KindDirectoryWrite)
	}
	return nil
}

func (c *RedisClient) Members(ctx context.Context, setKey string) ([]string, error) {
	members, err := c.rdb.SMembers(ctx, setKey).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "directory members %s", setKey)
	}
	return members, nil
}

// PutAndMembers runs SET key value EX ttl and SMEMBERS setKey inside a
// single MULTI/EXEC transaction. If setKey was just created by a concurrent
// AddTailgator racing this call, the new member may or may not be visible in
// the returned snapshot — callers must tolerate that (see the tailgator
// lifecycle note).
func (c *RedisClient) PutAndMembers(ctx context.Context, key string, ttl time.Duration, value string, setKey string) ([]string, error) {
	var smembersCmd *redis.StringSliceCmd

	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, value, ttl)
		smembersCmd = pipe.SMembers(ctx, setKey)
		return nil
	})
	if err != nil {
		return nil, errors.WithKind(errors.Wrapf(err, "directory put-and-members %s", key), errors.KindDirectoryWrite)
	}

	members, err := smembersCmd.Result()
	if err != nil && err != redis.Nil {
		return nil, errors.Wrapf(err, "directory put-and-members %s: read members", key)
	}
	return members, nil
}
