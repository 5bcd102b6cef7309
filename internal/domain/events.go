package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderEventType string

const (
	OrderPlaced    OrderEventType = "order.placed"
	OrderCancelled OrderEventType = "order.cancelled"
)

type OrderEvent struct {
	Type        OrderEventType  `json:"type"`
	OrderID     string          `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	UserID      string          `json:"user_id"`
	Email       string          `json:"email"`
	FirstName   string          `json:"first_name"`
	Items       []OrderItem     `json:"items"`
	Total       decimal.Decimal `json:"total"`
	Timestamp   time.Time       `json:"timestamp"`
}

func NewOrderEvent(t OrderEventType, o *Order, at time.Time) OrderEvent {
	return OrderEvent{
		Type:        t,
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		UserID:      o.UserID,
		Email:       o.ShippingAddress.Email,
		FirstName:   o.ShippingAddress.FirstName,
		Items:       o.Items,
		Total:       o.Total,
		Timestamp:   at,
	}
}

func (e OrderEvent) EventType() string {
	return string(e.Type)
}
