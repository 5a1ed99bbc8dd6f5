// Package geo resolves postal addresses to coordinates and ranks restaurants
// by great-circle distance to an order's address.
package geo

import (
	"context"
	"math"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrUnresolved means the geocoding provider knows no coordinate for the
	// address. It is a degraded outcome, not a provider failure: the miss is
	// cached and reused until Refresh is called for that address.
	ErrUnresolved = errors.New("address could not be geocoded")

	// ErrNotCached is returned by Repository.Get for an address that has
	// never been resolved.
	ErrNotCached = errors.New("address not cached")
)

// Coordinate is a (longitude, latitude) pair in decimal degrees.
type Coordinate struct {
	Lng float64
	Lat float64
}

// Place is a persisted geocoding result for one address string.
// Resolved=false records a provider miss so the address is not re-fetched.
type Place struct {
	Address   string
	Coord     Coordinate
	Resolved  bool
	UpdatedAt time.Time
}

// Repository persists Address -> Place records. The cache is unbounded and
// entries live until explicitly overwritten.
type Repository interface {
	Get(ctx context.Context, address string) (*Place, error)
	Upsert(ctx context.Context, p Place) error
}

// Cache is an optional hot cache in front of the Repository. Implementations
// are best-effort: a concurrent double-fill is a benign last-write-wins.
type Cache interface {
	Get(ctx context.Context, address string) (*Place, bool, error)
	Set(ctx context.Context, p Place) error
}

// Geocoder resolves an address via an external provider. found=false means
// the provider returned zero candidate places; err is reserved for transport
// or protocol failures.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (c Coordinate, found bool, err error)
}

const earthRadiusKm = 6371.0088

// Distance returns the great-circle distance between two coordinates in
// kilometers (haversine formula), at full float64 precision.
func Distance(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// RoundKm rounds a distance to 2 decimal places for display. Sorting always
// uses the full-precision value.
func RoundKm(km float64) float64 {
	return math.Round(km*100) / 100
}
