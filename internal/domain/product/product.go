package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item customers can order.
type Product struct {
	ID          string
	Name        string
	Price       decimal.Decimal
	Category    string
	Image       string
	Special     bool
	Description string
}

// Repository defines read operations for the product catalog.
type Repository interface {
	// List returns the whole catalog, including products no restaurant
	// currently offers.
	List(ctx context.Context) ([]Product, error)
	// ListAvailable returns products offered by at least one restaurant.
	ListAvailable(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
}
