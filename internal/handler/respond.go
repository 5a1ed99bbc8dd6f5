package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/velstadt/foodcart/internal/domain/order"
	"github.com/velstadt/foodcart/internal/domain/restaurant"
)

// errorResponse is the JSON body for all error replies.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Code: status, Message: message})
}

// respondDomainError maps domain errors to HTTP replies. Unrecognized errors
// are logged and become opaque 500s.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *order.ValidationError
	if errors.As(err, &vErr) {
		respondError(w, http.StatusBadRequest, vErr.Error())
		return
	}

	var pnfErr *order.ProductNotFoundError
	if errors.As(err, &pnfErr) {
		respondError(w, http.StatusUnprocessableEntity, pnfErr.Error())
		return
	}

	switch {
	case errors.Is(err, order.ErrNotFound):
		respondError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, restaurant.ErrNotFound):
		respondError(w, http.StatusNotFound, "restaurant not found")
	default:
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
