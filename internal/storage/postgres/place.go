package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/velstadt/foodcart/internal/domain/geo"
)

const (
	getPlaceSQL = `SELECT address, lng, lat, resolved, updated_at
		FROM places WHERE address = $1`

	upsertPlaceSQL = `INSERT INTO places (address, lng, lat, resolved, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (address) DO UPDATE
		SET lng = EXCLUDED.lng,
			lat = EXCLUDED.lat,
			resolved = EXCLUDED.resolved,
			updated_at = EXCLUDED.updated_at`
)

var _ geo.Repository = (*PlaceRepository)(nil)

// PlaceRepository implements geo.Repository backed by PostgreSQL. Entries are
// never evicted; re-resolution overwrites in place.
type PlaceRepository struct {
	pool *pgxpool.Pool
}

// NewPlaceRepository returns a PlaceRepository that uses the given pool.
func NewPlaceRepository(pool *pgxpool.Pool) *PlaceRepository {
	return &PlaceRepository{pool: pool}
}

// Get returns the cached place for the exact address string.
func (r *PlaceRepository) Get(ctx context.Context, address string) (*geo.Place, error) {
	var p geo.Place
	err := r.pool.QueryRow(ctx, getPlaceSQL, address).Scan(
		&p.Address, &p.Coord.Lng, &p.Coord.Lat, &p.Resolved, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, geo.ErrNotCached
		}
		return nil, fmt.Errorf("getting place %q: %w", address, err)
	}
	return &p, nil
}

// Upsert stores or overwrites the place record for its address.
func (r *PlaceRepository) Upsert(ctx context.Context, p geo.Place) error {
	_, err := r.pool.Exec(ctx, upsertPlaceSQL,
		p.Address, p.Coord.Lng, p.Coord.Lat, p.Resolved, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting place %q: %w", p.Address, err)
	}
	return nil
}
