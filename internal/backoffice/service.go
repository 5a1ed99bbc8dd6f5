// Package backoffice implements the restaurateur views: orders with their
// fulfilling restaurants ranked by distance to the customer, the restaurant
// list, and the per-restaurant product availability matrix.
package backoffice

import (
	"context"
	"sort"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/velstadt/foodcart/internal/domain/geo"
	"github.com/velstadt/foodcart/internal/domain/order"
	"github.com/velstadt/foodcart/internal/domain/product"
	"github.com/velstadt/foodcart/internal/domain/restaurant"
)

// CoordinateResolver resolves an address to a coordinate, memoizing results.
// geo.ErrUnresolved marks an address the provider does not know; any other
// error is a provider failure and aborts the whole listing.
type CoordinateResolver interface {
	Resolve(ctx context.Context, address string) (geo.Coordinate, error)
}

// RankedRestaurant is a fulfilling restaurant with its distance to the order
// address. HasDistance=false means the order or restaurant address never
// geocoded; such entries rank last.
type RankedRestaurant struct {
	Restaurant  restaurant.Restaurant
	DistanceKm  float64
	HasDistance bool
}

// OrderSummary is one order in the back-office list. Restaurants is empty
// when no single restaurant covers every line item; that is a normal outcome,
// not an error.
type OrderSummary struct {
	Order           order.Order
	Total           decimal.Decimal
	AddressResolved bool
	Restaurants     []RankedRestaurant
	Assigned        *restaurant.Restaurant
}

// Service builds back-office order views and applies operator actions.
type Service struct {
	orders      order.Repository
	restaurants restaurant.Repository
	products    product.Repository
	coords      CoordinateResolver
}

// NewService creates a back-office Service.
func NewService(orders order.Repository, restaurants restaurant.Repository, products product.Repository, coords CoordinateResolver) *Service {
	return &Service{
		orders:      orders,
		restaurants: restaurants,
		products:    products,
		coords:      coords,
	}
}

// ListOrders returns every order with its total price and fulfilling
// restaurants ranked by ascending distance from the order address. The
// listing is all-or-nothing: a geocoding provider failure fails the request,
// there is no partial-results mode.
func (s *Service) ListOrders(ctx context.Context) ([]OrderSummary, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}

	restaurants, err := s.restaurants.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list restaurants")
	}
	restByID := make(map[string]restaurant.Restaurant, len(restaurants))
	for _, r := range restaurants {
		restByID[r.ID] = r
	}

	menu, err := s.restaurants.Menu(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load menu")
	}
	matcher := restaurant.NewMatcher(menu)

	// Resolve each restaurant address once for the whole listing.
	restCoords := make(map[string]geo.Candidate, len(restaurants))
	for _, r := range restaurants {
		coord, err := s.coords.Resolve(ctx, r.Address)
		switch {
		case err == nil:
			restCoords[r.ID] = geo.Candidate{ID: r.ID, Coord: coord, Resolved: true}
		case errors.Is(err, geo.ErrUnresolved):
			restCoords[r.ID] = geo.Candidate{ID: r.ID}
		default:
			return nil, errors.Wrapf(err, "resolve restaurant %s address", r.ID)
		}
	}

	out := make([]OrderSummary, 0, len(orders))
	for _, o := range orders {
		summary := OrderSummary{
			Order: o,
			Total: o.Total(),
		}
		if o.RestaurantID != "" {
			if r, ok := restByID[o.RestaurantID]; ok {
				assigned := r
				summary.Assigned = &assigned
			}
		}

		candidateIDs := matcher.FulfillingRestaurants(o.ProductIDs())

		orderCoord, err := s.coords.Resolve(ctx, o.Address)
		switch {
		case err == nil:
			summary.AddressResolved = true
		case errors.Is(err, geo.ErrUnresolved):
			// Degraded: candidates are listed without distances.
		default:
			return nil, errors.Wrapf(err, "resolve order %s address", o.ID)
		}

		candidates := make([]geo.Candidate, 0, len(candidateIDs))
		for _, id := range candidateIDs {
			c := restCoords[id]
			if !summary.AddressResolved {
				c.Resolved = false
			}
			candidates = append(candidates, c)
		}

		for _, ranked := range geo.Rank(orderCoord, candidates) {
			summary.Restaurants = append(summary.Restaurants, RankedRestaurant{
				Restaurant:  restByID[ranked.ID],
				DistanceKm:  ranked.Distance,
				HasDistance: ranked.Resolved,
			})
		}
		out = append(out, summary)
	}
	return out, nil
}

// ProductAvailability is one catalog product with a per-restaurant
// availability flag, index-aligned with the restaurant slice returned by
// AvailabilityMatrix.
type ProductAvailability struct {
	Product   product.Product
	Available []bool
}

// ListRestaurants returns every restaurant ordered by name.
func (s *Service) ListRestaurants(ctx context.Context) ([]restaurant.Restaurant, error) {
	restaurants, err := s.restaurants.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list restaurants")
	}
	sort.Slice(restaurants, func(i, j int) bool {
		return restaurants[i].Name < restaurants[j].Name
	})
	return restaurants, nil
}

// AvailabilityMatrix returns restaurants ordered by name and, for every
// catalog product, whether each restaurant currently offers it. Pairs without
// a menu record count as unavailable.
func (s *Service) AvailabilityMatrix(ctx context.Context) ([]restaurant.Restaurant, []ProductAvailability, error) {
	restaurants, err := s.ListRestaurants(ctx)
	if err != nil {
		return nil, nil, err
	}

	products, err := s.products.List(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "list products")
	}

	menu, err := s.restaurants.Menu(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "load menu")
	}
	available := make(map[string]map[string]bool, len(restaurants))
	for _, item := range menu {
		byProduct, ok := available[item.RestaurantID]
		if !ok {
			byProduct = make(map[string]bool)
			available[item.RestaurantID] = byProduct
		}
		byProduct[item.ProductID] = item.Available
	}

	matrix := make([]ProductAvailability, 0, len(products))
	for _, p := range products {
		row := ProductAvailability{
			Product:   p,
			Available: make([]bool, len(restaurants)),
		}
		for i, r := range restaurants {
			row.Available[i] = available[r.ID][p.ID]
		}
		matrix = append(matrix, row)
	}
	return restaurants, matrix, nil
}

// AssignRestaurant assigns a fulfilling restaurant to an order and marks the
// order processed.
func (s *Service) AssignRestaurant(ctx context.Context, orderID, restaurantID string) error {
	if _, err := s.orders.GetByID(ctx, orderID); err != nil {
		return errors.Wrap(err, "get order")
	}
	if _, err := s.restaurants.GetByID(ctx, restaurantID); err != nil {
		return errors.Wrap(err, "get restaurant")
	}
	if err := s.orders.AssignRestaurant(ctx, orderID, restaurantID); err != nil {
		return errors.Wrap(err, "assign restaurant")
	}

	processed := order.StatusProcessed
	if err := s.orders.Update(ctx, orderID, order.Update{Status: &processed}); err != nil {
		return errors.Wrap(err, "mark processed")
	}
	return nil
}

// UpdateOrder applies operator mutations (status, payment, call/delivery
// timestamps) to an order.
func (s *Service) UpdateOrder(ctx context.Context, orderID string, upd order.Update) error {
	if _, err := s.orders.GetByID(ctx, orderID); err != nil {
		return errors.Wrap(err, "get order")
	}
	if err := s.orders.Update(ctx, orderID, upd); err != nil {
		return errors.Wrap(err, "update order")
	}
	return nil
}
