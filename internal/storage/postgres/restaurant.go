package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/velstadt/foodcart/internal/domain/restaurant"
)

const (
	listRestaurantsSQL = `SELECT id, name, address, contact_phone
		FROM restaurants ORDER BY name, id`

	getRestaurantByIDSQL = `SELECT id, name, address, contact_phone
		FROM restaurants WHERE id = $1`

	listMenuSQL = `SELECT restaurant_id, product_id, available
		FROM restaurant_menu_items`
)

var _ restaurant.Repository = (*RestaurantRepository)(nil)

// RestaurantRepository implements restaurant.Repository backed by PostgreSQL.
type RestaurantRepository struct {
	pool *pgxpool.Pool
}

// NewRestaurantRepository returns a RestaurantRepository that uses the given pool.
func NewRestaurantRepository(pool *pgxpool.Pool) *RestaurantRepository {
	return &RestaurantRepository{pool: pool}
}

// List returns all restaurants ordered by name.
func (r *RestaurantRepository) List(ctx context.Context) ([]restaurant.Restaurant, error) {
	rows, err := r.pool.Query(ctx, listRestaurantsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing restaurants: %w", err)
	}
	return pgx.CollectRows(rows, scanRestaurant)
}

// GetByID returns a single restaurant by its identifier.
func (r *RestaurantRepository) GetByID(ctx context.Context, id string) (*restaurant.Restaurant, error) {
	rows, err := r.pool.Query(ctx, getRestaurantByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting restaurant %q: %w", id, err)
	}

	rest, err := pgx.CollectExactlyOneRow(rows, scanRestaurant)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, restaurant.ErrNotFound
		}
		return nil, fmt.Errorf("getting restaurant %q: %w", id, err)
	}
	return &rest, nil
}

// Menu returns every availability fact across all restaurants.
func (r *RestaurantRepository) Menu(ctx context.Context) ([]restaurant.MenuItem, error) {
	rows, err := r.pool.Query(ctx, listMenuSQL)
	if err != nil {
		return nil, fmt.Errorf("listing menu items: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (restaurant.MenuItem, error) {
		var item restaurant.MenuItem
		err := row.Scan(&item.RestaurantID, &item.ProductID, &item.Available)
		return item, err
	})
}

func scanRestaurant(row pgx.CollectableRow) (restaurant.Restaurant, error) {
	var rest restaurant.Restaurant
	err := row.Scan(&rest.ID, &rest.Name, &rest.Address, &rest.ContactPhone)
	return rest, err
}
