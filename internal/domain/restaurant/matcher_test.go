package restaurant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testMenu() []MenuItem {
	return []MenuItem{
		{RestaurantID: "rx", ProductID: "pa", Available: true},
		{RestaurantID: "rx", ProductID: "pb", Available: false},
		{RestaurantID: "ry", ProductID: "pa", Available: true},
		{RestaurantID: "ry", ProductID: "pb", Available: true},
		{RestaurantID: "rz", ProductID: "pc", Available: true},
	}
}

func TestFulfillingRestaurants_Intersection(t *testing.T) {
	m := NewMatcher(testMenu())

	// rx offers pa but not pb; only ry covers both.
	got := m.FulfillingRestaurants([]string{"pa", "pb"})
	assert.Equal(t, []string{"ry"}, got)
}

func TestFulfillingRestaurants_SingleProduct(t *testing.T) {
	m := NewMatcher(testMenu())

	got := m.FulfillingRestaurants([]string{"pa"})
	assert.Equal(t, []string{"rx", "ry"}, got)
}

func TestFulfillingRestaurants_UnavailableProduct(t *testing.T) {
	m := NewMatcher(testMenu())

	// pd is on no menu, so nothing can fulfill the order.
	assert.Empty(t, m.FulfillingRestaurants([]string{"pa", "pd"}))
}

func TestFulfillingRestaurants_OrderIndependent(t *testing.T) {
	m := NewMatcher(testMenu())

	forward := m.FulfillingRestaurants([]string{"pa", "pb", "pa"})
	backward := m.FulfillingRestaurants([]string{"pb", "pa"})
	assert.Equal(t, forward, backward)
}

func TestFulfillingRestaurants_DisjointMenus(t *testing.T) {
	m := NewMatcher(testMenu())

	// pa and pc are only sold by different restaurants.
	assert.Empty(t, m.FulfillingRestaurants([]string{"pa", "pc"}))
}

func TestAvailableFor_IgnoresUnavailableFacts(t *testing.T) {
	m := NewMatcher(testMenu())

	assert.Equal(t, []string{"ry"}, m.AvailableFor("pb").Sorted())
	assert.Zero(t, m.AvailableFor("missing").Len())
}
