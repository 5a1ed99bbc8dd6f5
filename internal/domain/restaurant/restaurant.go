package restaurant

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested restaurant does not exist.
var ErrNotFound = errors.New("restaurant not found")

// Restaurant is a point of sale with a postal address and a menu.
type Restaurant struct {
	ID           string
	Name         string
	Address      string
	ContactPhone string
}

// MenuItem is an availability fact: whether a restaurant currently offers a
// product for sale. At most one fact exists per (restaurant, product) pair.
type MenuItem struct {
	RestaurantID string
	ProductID    string
	Available    bool
}

// Repository defines read operations over restaurants and their menus.
type Repository interface {
	List(ctx context.Context) ([]Restaurant, error)
	GetByID(ctx context.Context, id string) (*Restaurant, error)
	// Menu returns every availability fact across all restaurants.
	Menu(ctx context.Context) ([]MenuItem, error)
}
