package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/velstadt/foodcart/internal/domain/order"
)

type orderRequest struct {
	Firstname string             `json:"firstname"`
	Lastname  string             `json:"lastname"`
	Phone     string             `json:"phonenumber"`
	Address   string             `json:"address"`
	Comment   string             `json:"comment"`
	Payment   string             `json:"payment"`
	Products  []orderItemRequest `json:"products"`
}

type orderItemRequest struct {
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}

type orderResponse struct {
	ID        string              `json:"id"`
	Firstname string              `json:"firstname"`
	Lastname  string              `json:"lastname"`
	Phone     string              `json:"phonenumber"`
	Address   string              `json:"address"`
	Comment   string              `json:"comment,omitempty"`
	Status    string              `json:"status"`
	Payment   string              `json:"payment"`
	Total     float64             `json:"total"`
	Items     []orderItemResponse `json:"items"`
	CreatedAt time.Time           `json:"created_at"`
}

type orderItemResponse struct {
	Product   string  `json:"product"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// placeOrder registers a new customer order.
func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}

	items := make([]order.LineItemRequest, len(req.Products))
	for i, item := range req.Products {
		items[i] = order.LineItemRequest{
			ProductID: item.Product,
			Quantity:  item.Quantity,
		}
	}

	o, err := h.orders.PlaceOrder(r.Context(), order.PlaceOrderRequest{
		Firstname: req.Firstname,
		Lastname:  req.Lastname,
		Phone:     req.Phone,
		Address:   req.Address,
		Comment:   req.Comment,
		Payment:   order.Payment(req.Payment),
		Items:     items,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, toOrderResponse(o))
}

func toOrderResponse(o *order.Order) orderResponse {
	items := make([]orderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = orderItemResponse{
			Product:   item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.InexactFloat64(),
		}
	}
	return orderResponse{
		ID:        o.ID,
		Firstname: o.Firstname,
		Lastname:  o.Lastname,
		Phone:     o.Phone,
		Address:   o.Address,
		Comment:   o.Comment,
		Status:    string(o.Status),
		Payment:   string(o.Payment),
		Total:     o.Total().InexactFloat64(),
		Items:     items,
		CreatedAt: o.CreatedAt,
	}
}
