// Package events defines the order event envelope and carries it over Kafka.
package events

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"growmart/internal/core"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TopicOrderPlaced = "order.placed"
	EventOrderPlaced = "OrderPlaced"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

type OrderItem struct {
	ProductID int             `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type OrderPlacedPayload struct {
	OrderID     int             `json:"order_id"`
	CustomerID  int             `json:"customer_id"`
	OrderDate   string          `json:"order_date"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Items       []OrderItem     `json:"items"`
}

// NewOrderPlaced wraps a committed order in a versioned envelope.
func NewOrderPlaced(producer string, o *core.Order) (Envelope, error) {
	p := OrderPlacedPayload{
		OrderID:     o.ID,
		CustomerID:  o.CustomerID,
		OrderDate:   o.OrderDate,
		TotalAmount: o.TotalAmount,
		Items:       make([]OrderItem, 0, len(o.Lines)),
	}
	for _, l := range o.Lines {
		p.Items = append(p.Items, OrderItem{ProductID: l.ProductID, Quantity: l.Quantity, Subtotal: l.Subtotal})
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode order placed payload: %w", err)
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventOrderPlaced,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		CorrelationID: strconv.Itoa(o.ID),
		Payload:       raw,
	}, nil
}

// PartitionKey keeps all events of one order on one partition.
func PartitionKey(orderID int) []byte { return []byte(strconv.Itoa(orderID)) }

// UnwrapPayload decodes an envelope payload into its concrete type.
func UnwrapPayload[T any](payload json.RawMessage) (T, error) {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return t, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}
