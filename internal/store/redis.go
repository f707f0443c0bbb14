package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	jobKeyPrefix = "courier:job:"
	jobIndexKey  = "courier:jobs"
)

// RedisCache is a Redis-backed job cache: one JSON value per jid plus
// a sorted-set index scored by start time for newest-first listing.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to Redis and verifies connectivity.
func NewRedisCache(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultJobTTL
	}
	return &RedisCache{client: client, ttl: ttl}, nil
}

func (c *RedisCache) Close() error { return c.client.Close() }

func (c *RedisCache) SaveStart(ctx context.Context, rec *JobRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	pipe := c.client.Pipeline()
	pipe.Set(ctx, jobKeyPrefix+rec.JID, data, c.ttl)
	pipe.ZAdd(ctx, jobIndexKey, redis.Z{
		Score:  float64(rec.StartedAt.UnixMicro()),
		Member: rec.JID,
	})
	_, err = pipe.Exec(ctx)
	return err
}

func (c *RedisCache) SaveResult(ctx context.Context, jid string, status JobStatus, ret any, errMsg string) error {
	rec, err := c.Get(ctx, jid)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	rec.Status = status
	rec.Return = ret
	rec.Error = errMsg
	rec.CompletedAt = &now

	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, jobKeyPrefix+jid, data, c.ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, jid string) (*JobRecord, error) {
	data, err := c.client.Get(ctx, jobKeyPrefix+jid).Bytes()
	if err == redis.Nil {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	var rec JobRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *RedisCache) List(ctx context.Context, limit int) ([]*JobRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	jids, err := c.client.ZRevRange(ctx, jobIndexKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	records := make([]*JobRecord, 0, len(jids))
	for _, jid := range jids {
		rec, err := c.Get(ctx, jid)
		if err == ErrJobNotFound {
			// Record expired out from under the index.
			continue
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
