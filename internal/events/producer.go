// Package events publishes order lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/velstadt/foodcart/internal/domain/order"
)

// Topic is the Kafka topic order lifecycle events are published to.
const Topic = "order-events"

// OrderCreated is the payload emitted when a customer order is registered.
type OrderCreated struct {
	EventID   string      `json:"event_id"`
	OrderID   string      `json:"order_id"`
	Address   string      `json:"address"`
	Total     string      `json:"total"`
	Items     []EventItem `json:"items"`
	Status    string      `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
}

// EventItem is one order line item in an event payload.
type EventItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

// Producer publishes order events via a kafka-go writer.
type Producer struct {
	writer *kafka.Writer
}

var _ order.Publisher = (*Producer)(nil)

// NewProducer creates a Producer writing to Topic on the given brokers.
func NewProducer(brokers []string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

// PublishOrderCreated emits an order.created event keyed by order ID.
func (p *Producer) PublishOrderCreated(ctx context.Context, o *order.Order) error {
	items := make([]EventItem, len(o.Items))
	for i, item := range o.Items {
		items[i] = EventItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.String(),
		}
	}

	payload, err := json.Marshal(OrderCreated{
		EventID:   uuid.New().String(),
		OrderID:   o.ID,
		Address:   o.Address,
		Total:     o.Total().String(),
		Items:     items,
		Status:    string(o.Status),
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(o.ID),
		Value: payload,
	})
	if err != nil {
		return errors.Wrap(err, "write message")
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
