package order

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
	"go.uber.org/zap"

	"github.com/velstadt/foodcart/internal/domain/product"
)

// Quantity bounds for a single line item.
const (
	MinQuantity = 1
	MaxQuantity = 10
)

// ValidationError reports a malformed order submission. It is recovered at
// the request boundary and surfaced as a structured rejection.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ProductNotFoundError indicates a line item references an unknown product.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// Publisher emits order lifecycle events. Implementations must not block
// order placement on delivery guarantees.
type Publisher interface {
	PublishOrderCreated(ctx context.Context, o *Order) error
}

// PlaceOrderRequest holds the input for registering an order.
type PlaceOrderRequest struct {
	Firstname string
	Lastname  string
	Phone     string
	Address   string
	Comment   string
	Payment   Payment
	Items     []LineItemRequest
}

// LineItemRequest is one requested product; the unit price is filled in from
// the catalog by the service, never by the caller.
type LineItemRequest struct {
	ProductID string
	Quantity  int
}

// ServiceConfig holds non-dependency settings for the order service.
type ServiceConfig struct {
	// PhoneRegion is the default region for parsing phone numbers without an
	// international prefix (e.g. "RU"). Empty requires the +CC prefix.
	PhoneRegion string
}

// Service encapsulates order registration business logic.
type Service struct {
	cfg      ServiceConfig
	products product.Repository
	orders   Repository
	events   Publisher // may be nil
}

// NewService creates an order Service. events may be nil to disable
// order-created notifications.
func NewService(cfg ServiceConfig, products product.Repository, orders Repository, events Publisher) *Service {
	return &Service{
		cfg:      cfg,
		products: products,
		orders:   orders,
		events:   events,
	}
}

// PlaceOrder validates the submission, captures current catalog prices into
// the line items, persists the order, and emits an order-created event.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Order, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	ids := make([]string, len(req.Items))
	for i, item := range req.Items {
		ids[i] = item.ProductID
	}

	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	byID := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	items := make([]LineItem, len(req.Items))
	for i, item := range req.Items {
		p, ok := byID[item.ProductID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: item.ProductID}
		}
		items[i] = LineItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: p.Price,
		}
	}

	payment := req.Payment
	if payment == "" {
		payment = PaymentNotSelected
	}

	o := &Order{
		ID:        uuid.New().String(),
		Firstname: strings.TrimSpace(req.Firstname),
		Lastname:  strings.TrimSpace(req.Lastname),
		Phone:     req.Phone,
		Address:   req.Address,
		Comment:   req.Comment,
		Status:    StatusNotProcessed,
		Payment:   payment,
		Items:     items,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	if s.events != nil {
		if err := s.events.PublishOrderCreated(ctx, o); err != nil {
			// Events are best-effort; the order is already committed.
			zctx.From(ctx).Warn("Publish order created failed",
				zap.String("order_id", o.ID),
				zap.Error(err),
			)
		}
	}

	return o, nil
}

func (s *Service) validate(req PlaceOrderRequest) error {
	if strings.TrimSpace(req.Firstname) == "" {
		return &ValidationError{Field: "firstname", Reason: "must not be empty"}
	}
	if strings.TrimSpace(req.Lastname) == "" {
		return &ValidationError{Field: "lastname", Reason: "must not be empty"}
	}
	if strings.TrimSpace(req.Address) == "" {
		return &ValidationError{Field: "address", Reason: "must not be empty"}
	}
	if len(req.Items) == 0 {
		return &ValidationError{Field: "products", Reason: "at least one item required"}
	}
	for _, item := range req.Items {
		if item.ProductID == "" {
			return &ValidationError{Field: "products", Reason: "product id must not be empty"}
		}
		if item.Quantity < MinQuantity || item.Quantity > MaxQuantity {
			return &ValidationError{
				Field:  "products",
				Reason: fmt.Sprintf("quantity must be between %d and %d", MinQuantity, MaxQuantity),
			}
		}
	}
	if req.Payment != "" {
		switch req.Payment {
		case PaymentCash, PaymentCard, PaymentNotSelected:
		default:
			return &ValidationError{Field: "payment", Reason: "unknown payment method"}
		}
	}

	num, err := phonenumbers.Parse(req.Phone, s.cfg.PhoneRegion)
	if err != nil {
		return &ValidationError{Field: "phonenumber", Reason: "not a parseable phone number"}
	}
	if !phonenumbers.IsValidNumber(num) {
		return &ValidationError{Field: "phonenumber", Reason: "not a valid phone number"}
	}
	return nil
}
