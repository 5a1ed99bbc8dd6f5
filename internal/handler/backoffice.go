package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/velstadt/foodcart/internal/domain/geo"
	"github.com/velstadt/foodcart/internal/domain/order"
)

type backofficeOrderResponse struct {
	ID              string             `json:"id"`
	Status          string             `json:"status"`
	Payment         string             `json:"payment"`
	TotalPrice      float64            `json:"total_price"`
	Firstname       string             `json:"firstname"`
	Lastname        string             `json:"lastname"`
	Phone           string             `json:"phonenumber"`
	Address         string             `json:"address"`
	AddressResolved bool               `json:"address_resolved"`
	Comment         string             `json:"comment,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	Assigned        *rankedRestaurant  `json:"assigned_restaurant"`
	Restaurants     []rankedRestaurant `json:"restaurants"`
}

type rankedRestaurant struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	// DistanceKm is rounded to 2 decimal places for display; ranking uses the
	// full-precision value. It is null when the address never geocoded.
	DistanceKm *float64 `json:"distance_km"`
}

// listOrders returns every order with fulfilling restaurants ranked by
// distance to the order address.
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.backoffice.ListOrders(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	out := make([]backofficeOrderResponse, len(summaries))
	for i, s := range summaries {
		resp := backofficeOrderResponse{
			ID:              s.Order.ID,
			Status:          string(s.Order.Status),
			Payment:         string(s.Order.Payment),
			TotalPrice:      s.Total.InexactFloat64(),
			Firstname:       s.Order.Firstname,
			Lastname:        s.Order.Lastname,
			Phone:           s.Order.Phone,
			Address:         s.Order.Address,
			AddressResolved: s.AddressResolved,
			Comment:         s.Order.Comment,
			CreatedAt:       s.Order.CreatedAt,
			Restaurants:     make([]rankedRestaurant, 0, len(s.Restaurants)),
		}
		if s.Assigned != nil {
			resp.Assigned = &rankedRestaurant{
				ID:      s.Assigned.ID,
				Name:    s.Assigned.Name,
				Address: s.Assigned.Address,
			}
		}
		for _, rr := range s.Restaurants {
			entry := rankedRestaurant{
				ID:      rr.Restaurant.ID,
				Name:    rr.Restaurant.Name,
				Address: rr.Restaurant.Address,
			}
			if rr.HasDistance {
				km := geo.RoundKm(rr.DistanceKm)
				entry.DistanceKm = &km
			}
			resp.Restaurants = append(resp.Restaurants, entry)
		}
		out[i] = resp
	}
	respondJSON(w, http.StatusOK, out)
}

type backofficeRestaurantResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Address      string `json:"address"`
	ContactPhone string `json:"contact_phone,omitempty"`
}

// listRestaurants returns every restaurant ordered by name.
func (h *Handler) listRestaurants(w http.ResponseWriter, r *http.Request) {
	restaurants, err := h.backoffice.ListRestaurants(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	out := make([]backofficeRestaurantResponse, len(restaurants))
	for i, rest := range restaurants {
		out[i] = backofficeRestaurantResponse{
			ID:           rest.ID,
			Name:         rest.Name,
			Address:      rest.Address,
			ContactPhone: rest.ContactPhone,
		}
	}
	respondJSON(w, http.StatusOK, out)
}

type availabilityResponse struct {
	Restaurants []backofficeRestaurantResponse `json:"restaurants"`
	Products    []productAvailabilityResponse  `json:"products"`
}

type productAvailabilityResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Available is index-aligned with the top-level restaurants list.
	Available []bool `json:"available"`
}

// listAvailability returns the per-restaurant product availability matrix.
func (h *Handler) listAvailability(w http.ResponseWriter, r *http.Request) {
	restaurants, matrix, err := h.backoffice.AvailabilityMatrix(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	out := availabilityResponse{
		Restaurants: make([]backofficeRestaurantResponse, len(restaurants)),
		Products:    make([]productAvailabilityResponse, len(matrix)),
	}
	for i, rest := range restaurants {
		out.Restaurants[i] = backofficeRestaurantResponse{
			ID:      rest.ID,
			Name:    rest.Name,
			Address: rest.Address,
		}
	}
	for i, row := range matrix {
		out.Products[i] = productAvailabilityResponse{
			ID:        row.Product.ID,
			Name:      row.Product.Name,
			Available: row.Available,
		}
	}
	respondJSON(w, http.StatusOK, out)
}

type assignRequest struct {
	Restaurant string `json:"restaurant"`
}

// assignRestaurant assigns a restaurant to an order and marks it processed.
func (h *Handler) assignRestaurant(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}
	if req.Restaurant == "" {
		respondError(w, http.StatusBadRequest, "restaurant is required")
		return
	}

	orderID := mux.Vars(r)["id"]
	if err := h.backoffice.AssignRestaurant(r.Context(), orderID, req.Restaurant); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type updateOrderRequest struct {
	Status      *string    `json:"status"`
	Payment     *string    `json:"payment"`
	CalledAt    *time.Time `json:"called_at"`
	DeliveredAt *time.Time `json:"delivered_at"`
}

// updateOrder applies operator mutations to an order.
func (h *Handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	var req updateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}

	upd := order.Update{
		CalledAt:    req.CalledAt,
		DeliveredAt: req.DeliveredAt,
	}
	if req.Status != nil {
		status := order.Status(*req.Status)
		switch status {
		case order.StatusNotProcessed, order.StatusProcessed:
		default:
			respondError(w, http.StatusBadRequest, "unknown status")
			return
		}
		upd.Status = &status
	}
	if req.Payment != nil {
		payment := order.Payment(*req.Payment)
		switch payment {
		case order.PaymentCash, order.PaymentCard, order.PaymentNotSelected:
		default:
			respondError(w, http.StatusBadRequest, "unknown payment method")
			return
		}
		upd.Payment = &payment
	}

	orderID := mux.Vars(r)["id"]
	if err := h.backoffice.UpdateOrder(r.Context(), orderID, upd); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
