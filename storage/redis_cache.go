package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"unitcost/models"
)

const (
	unitsKey = "unitcost:units:last"
	rateKey  = "unitcost:rate:last"
	// rateHistoryKey holds parallel quotes scored by unix time, used to find
	// the quote from 24h earlier.
	rateHistoryKey = "unitcost:rate:history"
)

// ErrCacheMiss is returned when no last-known value is cached.
var ErrCacheMiss = errors.New("cache miss")

// RedisCache keeps the last successfully fetched units and exchange rate so a
// caller can explicitly choose to proceed on them when a live fetch fails.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(addr, password string, db int, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", addr, err)
	}
	return &RedisCache{client: client, ttl: ttl}, nil
}

// SaveUnits stores units as the last-known set.
func (c *RedisCache) SaveUnits(ctx context.Context, units []models.Unit) error {
	data, err := json.Marshal(units)
	if err != nil {
		return fmt.Errorf("redis: encode units: %w", err)
	}
	if err := c.client.Set(ctx, unitsKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis: save units: %w", err)
	}
	return nil
}

// LoadUnits returns the last-known unit set or ErrCacheMiss.
func (c *RedisCache) LoadUnits(ctx context.Context) ([]models.Unit, error) {
	data, err := c.client.Get(ctx, unitsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis: load units: %w", err)
	}
	var units []models.Unit
	if err := json.Unmarshal(data, &units); err != nil {
		return nil, fmt.Errorf("redis: decode units: %w", err)
	}
	return units, nil
}

// SaveRate stores rate as the last-known quote and appends its parallel
// quote to the history, trimming entries older than two days.
func (c *RedisCache) SaveRate(ctx context.Context, rate models.ExchangeRate) error {
	data, err := json.Marshal(rate)
	if err != nil {
		return fmt.Errorf("redis: encode rate: %w", err)
	}

	ts := rate.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	cutoff := ts.Add(-48 * time.Hour).Unix()

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, rateKey, data, c.ttl)
	pipe.ZAdd(ctx, rateHistoryKey, redis.Z{
		Score:  float64(ts.Unix()),
		Member: fmt.Sprintf("%d:%g", ts.Unix(), rate.Parallel),
	})
	pipe.ZRemRangeByScore(ctx, rateHistoryKey, "-inf", fmt.Sprintf("(%d", cutoff))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: save rate: %w", err)
	}
	return nil
}

// LoadRate returns the last-known exchange rate or ErrCacheMiss.
func (c *RedisCache) LoadRate(ctx context.Context) (models.ExchangeRate, error) {
	data, err := c.client.Get(ctx, rateKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.ExchangeRate{}, ErrCacheMiss
	}
	if err != nil {
		return models.ExchangeRate{}, fmt.Errorf("redis: load rate: %w", err)
	}
	var rate models.ExchangeRate
	if err := json.Unmarshal(data, &rate); err != nil {
		return models.ExchangeRate{}, fmt.Errorf("redis: decode rate: %w", err)
	}
	return rate, nil
}

// ParallelAt returns the latest parallel quote recorded at or before at, or
// zero when none is known.
func (c *RedisCache) ParallelAt(ctx context.Context, at time.Time) (float64, error) {
	members, err := c.client.ZRevRangeByScore(ctx, rateHistoryKey, &redis.ZRangeBy{
		Max:   fmt.Sprintf("%d", at.Unix()),
		Min:   "-inf",
		Count: 1,
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("redis: rate history: %w", err)
	}
	if len(members) == 0 {
		return 0, nil
	}
	return parseHistoryMember(members[0])
}

func parseHistoryMember(member string) (float64, error) {
	var ts int64
	var parallel float64
	if _, err := fmt.Sscanf(member, "%d:%g", &ts, &parallel); err != nil {
		return 0, fmt.Errorf("redis: bad rate history entry %q: %w", member, err)
	}
	return parallel, nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
