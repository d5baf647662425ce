package storage

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores each key as a Redis string under Prefix. QuotaBytes, when
// positive, is enforced over every key sharing the prefix.
type RedisBackend struct {
	Client     *redis.Client
	Prefix     string
	QuotaBytes int64
}

func (r *RedisBackend) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.Client.Get(ctx, r.Prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *RedisBackend) Set(ctx context.Context, key, value string) error {
	if r.QuotaBytes > 0 {
		used, err := r.usedExcept(ctx, key)
		if err != nil {
			return err
		}
		if used+entrySize(key, value) > r.QuotaBytes {
			return ErrQuotaExceeded
		}
	}
	if err := r.Client.Set(ctx, r.Prefix+key, value, 0).Err(); err != nil {
		if strings.HasPrefix(err.Error(), "OOM") {
			return ErrQuotaExceeded
		}
		return err
	}
	return nil
}

func (r *RedisBackend) Remove(ctx context.Context, key string) error {
	return r.Client.Del(ctx, r.Prefix+key).Err()
}

func (r *RedisBackend) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := r.Client.Scan(ctx, 0, r.Prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), r.Prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

func (r *RedisBackend) Ping(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}

func (r *RedisBackend) usedExcept(ctx context.Context, skip string) (int64, error) {
	keys, err := r.Keys(ctx)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, k := range keys {
		if k == skip {
			continue
		}
		n, err := r.Client.StrLen(ctx, r.Prefix+k).Result()
		if err != nil {
			return 0, err
		}
		total += int64(len(k)) + n
	}
	return total, nil
}
