package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/velstadt/foodcart/internal/domain/order"
)

const (
	insertOrderSQL = `INSERT INTO orders (id, firstname, lastname, phone, address, comment, status, payment)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	insertOrderItemSQL = `INSERT INTO order_items (order_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4)`

	getOrderSQL = `SELECT id, firstname, lastname, phone, address, comment, status, payment,
			COALESCE(restaurant_id, ''), created_at, called_at, delivered_at
		FROM orders WHERE id = $1`

	listOrdersSQL = `SELECT id, firstname, lastname, phone, address, comment, status, payment,
			COALESCE(restaurant_id, ''), created_at, called_at, delivered_at
		FROM orders ORDER BY created_at DESC, id`

	listOrderItemsSQL = `SELECT order_id, product_id, quantity, unit_price
		FROM order_items ORDER BY id`

	getOrderItemsSQL = `SELECT order_id, product_id, quantity, unit_price
		FROM order_items WHERE order_id = $1 ORDER BY id`

	assignRestaurantSQL = `UPDATE orders SET restaurant_id = $2 WHERE id = $1`

	updateOrderSQL = `UPDATE orders SET
			status = COALESCE($2, status),
			payment = COALESCE($3, payment),
			called_at = COALESCE($4, called_at),
			delivered_at = COALESCE($5, delivered_at)
		WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order and its line items in one transaction.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, insertOrderSQL,
			o.ID, o.Firstname, o.Lastname, o.Phone, o.Address, o.Comment,
			string(o.Status), string(o.Payment),
		).Scan(&o.CreatedAt)
		if err != nil {
			return err
		}

		for _, item := range o.Items {
			if _, err := tx.Exec(ctx, insertOrderItemSQL,
				o.ID, item.ProductID, item.Quantity, item.UnitPrice,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// GetByID returns an order with its line items.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	itemRows, err := r.pool.Query(ctx, getOrderItemsSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q items: %w", id, err)
	}
	items, err := pgx.CollectRows(itemRows, scanOrderItem)
	if err != nil {
		return nil, fmt.Errorf("getting order %q items: %w", id, err)
	}
	for _, it := range items {
		o.Items = append(o.Items, it.item)
	}
	return &o, nil
}

// List returns all orders with their line items, newest first.
func (r *OrderRepository) List(ctx context.Context) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}

	itemRows, err := r.pool.Query(ctx, listOrderItemsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing order items: %w", err)
	}
	items, err := pgx.CollectRows(itemRows, scanOrderItem)
	if err != nil {
		return nil, fmt.Errorf("listing order items: %w", err)
	}

	byOrder := make(map[string][]order.LineItem, len(orders))
	for _, it := range items {
		byOrder[it.orderID] = append(byOrder[it.orderID], it.item)
	}
	for i := range orders {
		orders[i].Items = byOrder[orders[i].ID]
	}
	return orders, nil
}

// AssignRestaurant sets the restaurant responsible for the order.
func (r *OrderRepository) AssignRestaurant(ctx context.Context, orderID, restaurantID string) error {
	tag, err := r.pool.Exec(ctx, assignRestaurantSQL, orderID, restaurantID)
	if err != nil {
		return fmt.Errorf("assigning restaurant to order %q: %w", orderID, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// Update applies the non-nil fields of upd to the order row.
func (r *OrderRepository) Update(ctx context.Context, orderID string, upd order.Update) error {
	var status, payment *string
	if upd.Status != nil {
		s := string(*upd.Status)
		status = &s
	}
	if upd.Payment != nil {
		p := string(*upd.Payment)
		payment = &p
	}

	tag, err := r.pool.Exec(ctx, updateOrderSQL,
		orderID, status, payment, upd.CalledAt, upd.DeliveredAt,
	)
	if err != nil {
		return fmt.Errorf("updating order %q: %w", orderID, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// orderItemRow pairs a line item with its owning order ID for in-memory joins.
type orderItemRow struct {
	orderID string
	item    order.LineItem
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o               order.Order
		status, payment string
	)
	err := row.Scan(
		&o.ID, &o.Firstname, &o.Lastname, &o.Phone, &o.Address, &o.Comment,
		&status, &payment, &o.RestaurantID, &o.CreatedAt, &o.CalledAt, &o.DeliveredAt,
	)
	o.Status = order.Status(status)
	o.Payment = order.Payment(payment)
	return o, err
}

func scanOrderItem(row pgx.CollectableRow) (orderItemRow, error) {
	var it orderItemRow
	err := row.Scan(&it.orderID, &it.item.ProductID, &it.item.Quantity, &it.item.UnitPrice)
	return it, err
}
