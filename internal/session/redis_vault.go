package session

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisVault stores credentials as plain redis keys namespaced by profile.
type RedisVault struct {
	client  *redis.Client
	profile string
}

// NewRedisVault creates a RedisVault over an existing client
func NewRedisVault(client *redis.Client, profile string) *RedisVault {
	if profile == "" {
		profile = "default"
	}
	return &RedisVault{client: client, profile: profile}
}

func (v *RedisVault) key(name string) string {
	return "feedclient:" + v.profile + ":" + name
}

func (v *RedisVault) Get(ctx context.Context, name string) (string, bool, error) {
	val, err := v.client.Get(ctx, v.key(name)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (v *RedisVault) Set(ctx context.Context, name, value string) error {
	return v.client.Set(ctx, v.key(name), value, 0).Err()
}

func (v *RedisVault) Delete(ctx context.Context, name string) error {
	return v.client.Del(ctx, v.key(name)).Err()
}
