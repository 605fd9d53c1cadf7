package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dakshgarg/flightdesk/config"
	"github.com/dakshgarg/flightdesk/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	flightsListKey    = "cache:flights"
	flightsKeyPattern = "cache:flights*"
)

type RedisCache struct {
	client     *redis.Client
	flightsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, flightsTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:     redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		flightsTTL: flightsTTL,
	}
}

func (c *RedisCache) GetFlights(ctx context.Context) ([]domain.Flight, error) {
	return c.getFlights(ctx, flightsListKey)
}

func (c *RedisCache) SetFlights(ctx context.Context, flights []domain.Flight) error {
	return c.setFlights(ctx, flightsListKey, flights)
}

func (c *RedisCache) GetSearch(ctx context.Context, src, dst int64, day time.Time) ([]domain.Flight, error) {
	return c.getFlights(ctx, searchKey(src, dst, day))
}

func (c *RedisCache) SetSearch(ctx context.Context, src, dst int64, day time.Time, flights []domain.Flight) error {
	return c.setFlights(ctx, searchKey(src, dst, day), flights)
}

// InvalidateFlights drops the list key and every cached search result. Called
// after any write that changes availability or the flight set.
func (c *RedisCache) InvalidateFlights(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, flightsKeyPattern, 0).Iterator()
	keys := make([]string, 0, 16)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *RedisCache) getFlights(ctx context.Context, key string) ([]domain.Flight, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var flights []domain.Flight
	if err := json.Unmarshal(data, &flights); err != nil {
		return nil, err
	}
	return flights, nil
}

func (c *RedisCache) setFlights(ctx context.Context, key string, flights []domain.Flight) error {
	payload, err := json.Marshal(flights)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, c.flightsTTL).Err()
}

func searchKey(src, dst int64, day time.Time) string {
	return fmt.Sprintf("cache:flights:search:%d:%d:%s", src, dst, day.Format("2006-01-02"))
}
