package restaurant

import "github.com/velstadt/foodcart/pkg/set"

// Matcher computes which restaurants can fulfill an order from a snapshot of
// menu availability facts. It is a pure in-memory index: build one per request
// from Repository.Menu and discard it afterwards.
type Matcher struct {
	// byProduct maps a product ID to the set of restaurants that currently
	// offer it. Facts with Available=false do not contribute.
	byProduct map[string]set.Set[string]
}

// NewMatcher builds a Matcher from menu availability facts.
func NewMatcher(menu []MenuItem) *Matcher {
	byProduct := make(map[string]set.Set[string])
	for _, item := range menu {
		if !item.Available {
			continue
		}
		s, ok := byProduct[item.ProductID]
		if !ok {
			s = set.New[string](4)
			byProduct[item.ProductID] = s
		}
		s.Add(item.RestaurantID)
	}
	return &Matcher{byProduct: byProduct}
}

// AvailableFor returns the restaurants offering the given product.
func (m *Matcher) AvailableFor(productID string) set.Set[string] {
	if s, ok := m.byProduct[productID]; ok {
		return s
	}
	return set.New[string](0)
}

// FulfillingRestaurants returns the IDs of restaurants whose menu covers every
// given product, sorted by restaurant ID. Line-item order and duplicates do
// not affect the result. An empty result is a normal outcome meaning no single
// restaurant can fulfill the order.
func (m *Matcher) FulfillingRestaurants(productIDs []string) []string {
	if len(productIDs) == 0 {
		return nil
	}

	result := m.AvailableFor(productIDs[0])
	for _, id := range productIDs[1:] {
		if result.Len() == 0 {
			break
		}
		result = result.Intersect(m.AvailableFor(id))
	}
	return result.Sorted()
}
