package handler

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velstadt/foodcart/internal/backoffice"
	"github.com/velstadt/foodcart/internal/domain/auth"
	"github.com/velstadt/foodcart/internal/domain/geo"
	"github.com/velstadt/foodcart/internal/domain/order"
	"github.com/velstadt/foodcart/internal/domain/product"
	"github.com/velstadt/foodcart/internal/domain/restaurant"
)

// --- Mock implementations ---

type mockProductRepo struct {
	products []product.Product
}

func (m *mockProductRepo) List(_ context.Context) ([]product.Product, error) {
	return m.products, nil
}

func (m *mockProductRepo) ListAvailable(_ context.Context) ([]product.Product, error) {
	return m.products, nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	for i := range m.products {
		if m.products[i].ID == id {
			return &m.products[i], nil
		}
	}
	return nil, product.ErrNotFound
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	var out []product.Product
	for _, id := range ids {
		p, err := m.GetByID(context.Background(), id)
		if err != nil {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

type mockOrderRepo struct {
	orders   []order.Order
	assigned map[string]string
	updated  map[string]order.Update
}

func (m *mockOrderRepo) Create(_ context.Context, o *order.Order) error {
	m.orders = append(m.orders, *o)
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id string) (*order.Order, error) {
	for i := range m.orders {
		if m.orders[i].ID == id {
			return &m.orders[i], nil
		}
	}
	return nil, order.ErrNotFound
}

func (m *mockOrderRepo) List(_ context.Context) ([]order.Order, error) {
	return m.orders, nil
}

func (m *mockOrderRepo) AssignRestaurant(_ context.Context, orderID, restaurantID string) error {
	if _, err := m.GetByID(context.Background(), orderID); err != nil {
		return err
	}
	if m.assigned == nil {
		m.assigned = make(map[string]string)
	}
	m.assigned[orderID] = restaurantID
	return nil
}

func (m *mockOrderRepo) Update(_ context.Context, orderID string, upd order.Update) error {
	if _, err := m.GetByID(context.Background(), orderID); err != nil {
		return err
	}
	if m.updated == nil {
		m.updated = make(map[string]order.Update)
	}
	m.updated[orderID] = upd
	return nil
}

type mockRestaurantRepo struct {
	restaurants []restaurant.Restaurant
	menu        []restaurant.MenuItem
}

func (m *mockRestaurantRepo) List(_ context.Context) ([]restaurant.Restaurant, error) {
	return m.restaurants, nil
}

func (m *mockRestaurantRepo) GetByID(_ context.Context, id string) (*restaurant.Restaurant, error) {
	for i := range m.restaurants {
		if m.restaurants[i].ID == id {
			return &m.restaurants[i], nil
		}
	}
	return nil, restaurant.ErrNotFound
}

func (m *mockRestaurantRepo) Menu(_ context.Context) ([]restaurant.MenuItem, error) {
	return m.menu, nil
}

type mockAPIKeyRepo struct {
	info *auth.Key
}

func (m *mockAPIKeyRepo) FindByHash(_ context.Context, hash string) (*auth.Key, error) {
	if m.info == nil || m.info.KeyHash != hash {
		return nil, errors.New("not found")
	}
	return m.info, nil
}

// stubResolver resolves addresses from a fixed map. Unknown addresses behave
// like the geocoding provider returned no candidates.
type stubResolver struct {
	coords map[string]geo.Coordinate
}

func (s *stubResolver) Resolve(_ context.Context, address string) (geo.Coordinate, error) {
	c, ok := s.coords[address]
	if !ok {
		return geo.Coordinate{}, geo.ErrUnresolved
	}
	return c, nil
}

// --- Helpers ---

const (
	testAPIKey = "test-api-key"
	testPepper = "test-pepper"
)

type testEnv struct {
	server      *httptest.Server
	products    *mockProductRepo
	orders      *mockOrderRepo
	restaurants *mockRestaurantRepo
	apikeys     *mockAPIKeyRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	products := &mockProductRepo{products: []product.Product{
		{ID: "p1", Name: "Burger", Price: decimal.NewFromInt(10), Category: "mains", Image: "/media/burger.jpg"},
		{ID: "p2", Name: "Fries", Price: decimal.NewFromFloat(3.5), Category: "sides", Image: "/media/fries.jpg"},
	}}
	orders := &mockOrderRepo{}
	restaurants := &mockRestaurantRepo{
		restaurants: []restaurant.Restaurant{
			{ID: "r1", Name: "Near", Address: "near st"},
			{ID: "r2", Name: "Lost", Address: "unknown st"},
		},
		menu: []restaurant.MenuItem{
			{RestaurantID: "r1", ProductID: "p1", Available: true},
			{RestaurantID: "r1", ProductID: "p2", Available: true},
			{RestaurantID: "r2", ProductID: "p1", Available: true},
			{RestaurantID: "r2", ProductID: "p2", Available: true},
		},
	}
	resolver := &stubResolver{coords: map[string]geo.Coordinate{
		"customer ave": {Lng: 37.6, Lat: 55.75},
		"near st":      {Lng: 37.6, Lat: 55.76},
	}}

	mac := hmac.New(sha256.New, []byte(testPepper))
	mac.Write([]byte(testAPIKey))
	apikeys := &mockAPIKeyRepo{info: &auth.Key{
		ID:      "k1",
		KeyHash: hex.EncodeToString(mac.Sum(nil)),
		Name:    "test",
		Scopes:  []string{auth.ScopeBackoffice},
	}}

	orderSvc := order.NewService(order.ServiceConfig{PhoneRegion: "RU"}, products, orders, nil)
	boSvc := backoffice.NewService(orders, restaurants, products, resolver)

	h := New(Config{ImageBaseURL: "https://cdn.example.com"}, products, orderSvc, boSvc, apikeys, []byte(testPepper))
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)

	return &testEnv{
		server:      srv,
		products:    products,
		orders:      orders,
		restaurants: restaurants,
		apikeys:     apikeys,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, apiKey string) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	require.NoError(t, err)
	if apiKey != "" {
		req.Header.Set(apiKeyHeader, apiKey)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func validOrderBody() map[string]any {
	return map[string]any{
		"firstname":   "Ivan",
		"lastname":    "Petrov",
		"phonenumber": "8 999 123-45-67",
		"address":     "customer ave",
		"payment":     "cash",
		"products": []map[string]any{
			{"product": "p1", "quantity": 2},
		},
	}
}

// --- Tests ---

func TestListProducts(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/products/", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	products := decodeBody[[]productResponse](t, resp)
	require.Len(t, products, 2)
	assert.Equal(t, "p1", products[0].ID)
	assert.Equal(t, "Burger", products[0].Name)
	assert.InDelta(t, 10.0, products[0].Price, 1e-9)
	assert.Equal(t, "https://cdn.example.com/media/burger.jpg", products[0].Image)
}

func TestListBanners(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/banners/", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	banners := decodeBody[[]bannerResponse](t, resp)
	require.Len(t, banners, 3)
	assert.Equal(t, "https://cdn.example.com/media/burger.jpg", banners[0].Src)
}

func TestPlaceOrder(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/order/", validOrderBody(), "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	created := decodeBody[orderResponse](t, resp)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Ivan", created.Firstname)
	assert.Equal(t, string(order.StatusNotProcessed), created.Status)
	require.Len(t, created.Items, 1)
	assert.Equal(t, "p1", created.Items[0].Product)
	assert.Equal(t, 2, created.Items[0].Quantity)
	assert.InDelta(t, 10.0, created.Items[0].UnitPrice, 1e-9)
	assert.InDelta(t, 20.0, created.Total, 1e-9)

	require.Len(t, env.orders.orders, 1)
	assert.Equal(t, created.ID, env.orders.orders[0].ID)
}

func TestPlaceOrder_MalformedBody(t *testing.T) {
	env := newTestEnv(t)

	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/api/order/", bytes.NewBufferString("{not json"))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPlaceOrder_ValidationError(t *testing.T) {
	env := newTestEnv(t)

	body := validOrderBody()
	body["firstname"] = ""
	resp := env.do(t, http.MethodPost, "/api/order/", body, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	errBody := decodeBody[errorResponse](t, resp)
	assert.Equal(t, http.StatusBadRequest, errBody.Code)
	assert.Contains(t, errBody.Message, "firstname")
}

func TestPlaceOrder_UnknownProduct(t *testing.T) {
	env := newTestEnv(t)

	body := validOrderBody()
	body["products"] = []map[string]any{{"product": "ghost", "quantity": 1}}
	resp := env.do(t, http.MethodPost, "/api/order/", body, "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestBackoffice_RequiresAPIKey(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/restaurateur/orders/", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/restaurateur/orders/", nil, "wrong-key")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/restaurateur/orders/", nil, testAPIKey)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestBackoffice_RequiresScope(t *testing.T) {
	env := newTestEnv(t)
	env.apikeys.info.Scopes = nil

	resp := env.do(t, http.MethodGet, "/api/restaurateur/orders/", nil, testAPIKey)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestBackofficeListRestaurants(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/restaurateur/restaurants/", nil, testAPIKey)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	restaurants := decodeBody[[]backofficeRestaurantResponse](t, resp)
	require.Len(t, restaurants, 2)
	assert.Equal(t, "Lost", restaurants[0].Name)
	assert.Equal(t, "Near", restaurants[1].Name)
}

func TestBackofficeAvailabilityMatrix(t *testing.T) {
	env := newTestEnv(t)
	// Lost stopped selling fries.
	env.restaurants.menu[3].Available = false

	resp := env.do(t, http.MethodGet, "/api/restaurateur/products/", nil, testAPIKey)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decodeBody[availabilityResponse](t, resp)
	require.Len(t, out.Restaurants, 2)
	assert.Equal(t, "Lost", out.Restaurants[0].Name)
	require.Len(t, out.Products, 2)
	assert.Equal(t, "p1", out.Products[0].ID)
	assert.Equal(t, []bool{true, true}, out.Products[0].Available)
	assert.Equal(t, []bool{false, true}, out.Products[1].Available)
}

func TestListOrders_RanksRestaurants(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/order/", validOrderBody(), "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/restaurateur/orders/", nil, testAPIKey)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	listing := decodeBody[[]backofficeOrderResponse](t, resp)
	require.Len(t, listing, 1)

	o := listing[0]
	assert.True(t, o.AddressResolved)
	assert.InDelta(t, 20.0, o.TotalPrice, 1e-9)
	assert.Nil(t, o.Assigned)
	require.Len(t, o.Restaurants, 2)

	// Restaurant with a geocoded address ranks first; the one that never
	// resolved has a null distance and ranks last.
	assert.Equal(t, "r1", o.Restaurants[0].ID)
	require.NotNil(t, o.Restaurants[0].DistanceKm)
	assert.Greater(t, *o.Restaurants[0].DistanceKm, 0.0)
	assert.Equal(t, "r2", o.Restaurants[1].ID)
	assert.Nil(t, o.Restaurants[1].DistanceKm)
}

func TestAssignRestaurant(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/order/", validOrderBody(), "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[orderResponse](t, resp)

	resp = env.do(t, http.MethodPost, "/api/restaurateur/orders/"+created.ID+"/assign",
		map[string]any{"restaurant": "r1"}, testAPIKey)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "r1", env.orders.assigned[created.ID])
}

func TestAssignRestaurant_Missing(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/restaurateur/orders/o-unknown/assign",
		map[string]any{"restaurant": "r1"}, testAPIKey)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/restaurateur/orders/o-unknown/assign",
		map[string]any{"restaurant": ""}, testAPIKey)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateOrder(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/order/", validOrderBody(), "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[orderResponse](t, resp)

	resp = env.do(t, http.MethodPost, "/api/restaurateur/orders/"+created.ID+"/status",
		map[string]any{"status": "processed"}, testAPIKey)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	upd, ok := env.orders.updated[created.ID]
	require.True(t, ok)
	require.NotNil(t, upd.Status)
	assert.Equal(t, order.StatusProcessed, *upd.Status)
}

func TestUpdateOrder_InvalidEnum(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/restaurateur/orders/any/status",
		map[string]any{"status": "teleported"}, testAPIKey)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/restaurateur/orders/any/status",
		map[string]any{"payment": "barter"}, testAPIKey)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
