package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const listingsKey = "rocketbot:listings"

// Redis persists announced listings in a Redis hash keyed by contract name,
// for deployments where several bot instances share one dedup store.
type Redis struct {
	rdb *redis.Client
}

func OpenRedis(addr, password string, db int) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect redis store: %w", err)
	}
	return &Redis{rdb: rdb}, nil
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}

func (r *Redis) Seen(ctx context.Context, contract string) (bool, error) {
	seen, err := r.rdb.HExists(ctx, listingsKey, contract).Result()
	if err != nil {
		return false, fmt.Errorf("store read: %w", err)
	}
	return seen, nil
}

func (r *Redis) MarkSeen(ctx context.Context, listing Listing) error {
	seen := listing.FirstSeen
	if seen.IsZero() {
		seen = time.Now().UTC()
	}
	value := listing.Symbol + "|" + strconv.FormatInt(seen.Unix(), 10)
	if err := r.rdb.HSetNX(ctx, listingsKey, listing.Contract, value).Err(); err != nil {
		return fmt.Errorf("store write: %w", err)
	}
	return nil
}

func (r *Redis) Known(ctx context.Context) ([]Listing, error) {
	entries, err := r.rdb.HGetAll(ctx, listingsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("store read: %w", err)
	}
	out := make([]Listing, 0, len(entries))
	for contract, value := range entries {
		listing := Listing{Contract: contract, Symbol: value}
		for i := len(value) - 1; i >= 0; i-- {
			if value[i] == '|' {
				listing.Symbol = value[:i]
				if unix, err := strconv.ParseInt(value[i+1:], 10, 64); err == nil {
					listing.FirstSeen = time.Unix(unix, 0).UTC()
				}
				break
			}
		}
		out = append(out, listing)
	}
	return out, nil
}
