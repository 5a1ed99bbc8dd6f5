package geo

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// StoreConfig tunes Store behaviour.
type StoreConfig struct {
	// TrimAddresses trims surrounding whitespace before an address is used as
	// a cache key. Off by default: byte-identical addresses share one record,
	// whitespace variants are distinct keys.
	TrimAddresses bool
}

// Store memoizes geocoding results. Lookup order: hot cache (optional), then
// the persistent repository, then one external call. Concurrent misses for
// the same address are collapsed into a single provider call.
type Store struct {
	cfg      StoreConfig
	places   Repository
	cache    Cache // may be nil
	geocoder Geocoder
	group    singleflight.Group
	now      func() time.Time
}

// NewStore creates a Store. cache may be nil to disable the hot cache.
func NewStore(cfg StoreConfig, places Repository, cache Cache, geocoder Geocoder) *Store {
	return &Store{
		cfg:      cfg,
		places:   places,
		cache:    cache,
		geocoder: geocoder,
		now:      time.Now,
	}
}

// Resolve returns the coordinate for address. A cached provider miss yields
// ErrUnresolved without contacting the provider again. Provider failures
// propagate unwrapped into the caller's request and are not retried here.
func (s *Store) Resolve(ctx context.Context, address string) (Coordinate, error) {
	key := s.key(address)

	if s.cache != nil {
		p, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			zctx.From(ctx).Warn("Hot cache read failed", zap.Error(err))
		} else if ok {
			return placeCoord(p)
		}
	}

	p, err := s.places.Get(ctx, key)
	switch {
	case err == nil:
		s.fillCache(ctx, *p)
		return placeCoord(p)
	case errors.Is(err, ErrNotCached):
		// fall through to the provider
	default:
		return Coordinate{}, errors.Wrap(err, "read place")
	}

	return s.fetch(ctx, key)
}

// Refresh re-queries the provider for address, overwriting any cached record,
// including a cached miss.
func (s *Store) Refresh(ctx context.Context, address string) (Coordinate, error) {
	return s.fetch(ctx, s.key(address))
}

// fetch performs the external geocoding call for key, persisting the outcome.
// Concurrent callers for the same key share one call and one write.
func (s *Store) fetch(ctx context.Context, key string) (Coordinate, error) {
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		coord, found, err := s.geocoder.Geocode(ctx, key)
		if err != nil {
			return nil, errors.Wrap(err, "geocode")
		}

		p := Place{
			Address:   key,
			Coord:     coord,
			Resolved:  found,
			UpdatedAt: s.now(),
		}
		if err := s.places.Upsert(ctx, p); err != nil {
			return nil, errors.Wrap(err, "store place")
		}
		s.fillCache(ctx, p)
		return p, nil
	})
	if err != nil {
		return Coordinate{}, err
	}
	p := v.(Place)
	return placeCoord(&p)
}

func (s *Store) fillCache(ctx context.Context, p Place) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, p); err != nil {
		zctx.From(ctx).Warn("Hot cache write failed", zap.Error(err))
	}
}

func (s *Store) key(address string) string {
	if s.cfg.TrimAddresses {
		return strings.TrimSpace(address)
	}
	return address
}

func placeCoord(p *Place) (Coordinate, error) {
	if !p.Resolved {
		return Coordinate{}, ErrUnresolved
	}
	return p.Coord, nil
}
