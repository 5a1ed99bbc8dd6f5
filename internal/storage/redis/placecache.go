// Package redis implements the optional hot cache in front of the persistent
// geocoding store.
package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/velstadt/foodcart/internal/domain/geo"
)

const keyPrefix = "place:"

// cachedPlace is the JSON shape stored in Redis.
type cachedPlace struct {
	Lng       float64   `json:"lng"`
	Lat       float64   `json:"lat"`
	Resolved  bool      `json:"resolved"`
	UpdatedAt time.Time `json:"updated_at"`
}

var _ geo.Cache = (*PlaceCache)(nil)

// PlaceCache caches resolved places in Redis with a TTL. A concurrent
// double-fill is a benign last-write-wins: geocoding is idempotent for a
// given address.
type PlaceCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPlaceCache creates a PlaceCache with the given TTL.
func NewPlaceCache(client *redis.Client, ttl time.Duration) *PlaceCache {
	return &PlaceCache{client: client, ttl: ttl}
}

// Get returns the cached place for address, with ok=false on a cache miss.
func (c *PlaceCache) Get(ctx context.Context, address string) (*geo.Place, bool, error) {
	data, err := c.client.Get(ctx, keyPrefix+address).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, "redis get")
	}

	var cached cachedPlace
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false, errors.Wrap(err, "decode cached place")
	}
	return &geo.Place{
		Address:   address,
		Coord:     geo.Coordinate{Lng: cached.Lng, Lat: cached.Lat},
		Resolved:  cached.Resolved,
		UpdatedAt: cached.UpdatedAt,
	}, true, nil
}

// Set stores the place under its address key.
func (c *PlaceCache) Set(ctx context.Context, p geo.Place) error {
	data, err := json.Marshal(cachedPlace{
		Lng:       p.Coord.Lng,
		Lat:       p.Coord.Lat,
		Resolved:  p.Resolved,
		UpdatedAt: p.UpdatedAt,
	})
	if err != nil {
		return errors.Wrap(err, "encode place")
	}
	return c.client.Set(ctx, keyPrefix+p.Address, data, c.ttl).Err()
}
