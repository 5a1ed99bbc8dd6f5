// Package handler exposes the public ordering API and the restaurateur
// back-office API over HTTP.
package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/velstadt/foodcart/internal/backoffice"
	"github.com/velstadt/foodcart/internal/domain/auth"
	"github.com/velstadt/foodcart/internal/domain/order"
	"github.com/velstadt/foodcart/internal/domain/product"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in product responses.
	// When empty, image paths are returned as stored in the database.
	ImageBaseURL string
}

// Handler wires HTTP routes to the domain services.
type Handler struct {
	cfg        Config
	products   product.Repository
	orders     *order.Service
	backoffice *backoffice.Service
	apikeys    auth.Repository
	pepper     []byte
}

// New constructs a Handler with the required domain dependencies.
func New(
	cfg Config,
	products product.Repository,
	orders *order.Service,
	bo *backoffice.Service,
	apikeys auth.Repository,
	pepper []byte,
) *Handler {
	return &Handler{
		cfg:        cfg,
		products:   products,
		orders:     orders,
		backoffice: bo,
		apikeys:    apikeys,
		pepper:     pepper,
	}
}

// Router builds the API route tree. Back-office routes require a valid API key.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/products/", h.listProducts).Methods(http.MethodGet)
	api.HandleFunc("/banners/", h.listBanners).Methods(http.MethodGet)
	api.HandleFunc("/order/", h.placeOrder).Methods(http.MethodPost)

	bo := api.PathPrefix("/restaurateur").Subrouter()
	bo.Use(h.requireAPIKey)
	bo.HandleFunc("/orders/", h.listOrders).Methods(http.MethodGet)
	bo.HandleFunc("/restaurants/", h.listRestaurants).Methods(http.MethodGet)
	bo.HandleFunc("/products/", h.listAvailability).Methods(http.MethodGet)
	bo.HandleFunc("/orders/{id}/assign", h.assignRestaurant).Methods(http.MethodPost)
	bo.HandleFunc("/orders/{id}/status", h.updateOrder).Methods(http.MethodPost)

	return r
}
