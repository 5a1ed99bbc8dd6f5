package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested order does not exist.
var ErrNotFound = errors.New("order not found")

// Status tracks back-office processing of an order.
type Status string

const (
	StatusNotProcessed Status = "not_processed"
	StatusProcessed    Status = "processed"
)

// Payment is the payment method chosen by the customer.
type Payment string

const (
	PaymentCash        Payment = "cash"
	PaymentCard        Payment = "card"
	PaymentNotSelected Payment = "not_selected"
)

// Order is a customer order. The address is immutable after creation; status,
// payment, timestamps and the assigned restaurant are mutated by back-office
// actions.
type Order struct {
	ID           string
	Firstname    string
	Lastname     string
	Phone        string
	Address      string
	Comment      string
	Status       Status
	Payment      Payment
	RestaurantID string // assigned restaurant, empty until back-office picks one
	Items        []LineItem
	CreatedAt    time.Time
	CalledAt     *time.Time
	DeliveredAt  *time.Time
}

// LineItem is one ordered product. UnitPrice is captured from the catalog at
// order creation and never re-derived, so later price changes do not alter
// historical orders.
type LineItem struct {
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Total returns the order total, rounded to 2 decimal places.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total.Round(2)
}

// ProductIDs returns the distinct product IDs referenced by the order's line
// items, in line-item order.
func (o *Order) ProductIDs() []string {
	seen := make(map[string]struct{}, len(o.Items))
	ids := make([]string, 0, len(o.Items))
	for _, item := range o.Items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}

// Update carries back-office mutations; nil fields are left unchanged.
type Update struct {
	Status      *Status
	Payment     *Payment
	CalledAt    *time.Time
	DeliveredAt *time.Time
}

// Repository defines persistence operations for orders. Orders own their line
// items: deleting an order cascades to them.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	// List returns all orders with their line items, newest first.
	List(ctx context.Context) ([]Order, error)
	AssignRestaurant(ctx context.Context, orderID, restaurantID string) error
	Update(ctx context.Context, orderID string, upd Update) error
}
