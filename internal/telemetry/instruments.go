package telemetry

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Instruments holds the business counters. A nil *Instruments records nothing.
type Instruments struct {
	ordersPlaced    metric.Int64Counter
	ordersCancelled metric.Int64Counter
	revenue         metric.Float64Counter
	reviewsWritten  metric.Int64Counter
}

// NewInstruments registers the counters on the global meter provider.
func NewInstruments() (*Instruments, error) {
	meter := otel.Meter("github.com/joao-fontenele/bookstore-api")

	ordersPlaced, err := meter.Int64Counter("bookstore.orders.placed",
		metric.WithDescription("Orders placed at checkout"))
	if err != nil {
		return nil, err
	}
	ordersCancelled, err := meter.Int64Counter("bookstore.orders.cancelled",
		metric.WithDescription("Orders cancelled by customers or admins"))
	if err != nil {
		return nil, err
	}
	revenue, err := meter.Float64Counter("bookstore.revenue",
		metric.WithDescription("Order totals at checkout"),
		metric.WithUnit("USD"))
	if err != nil {
		return nil, err
	}
	reviewsWritten, err := meter.Int64Counter("bookstore.reviews.written",
		metric.WithDescription("Reviews created"))
	if err != nil {
		return nil, err
	}

	return &Instruments{
		ordersPlaced:    ordersPlaced,
		ordersCancelled: ordersCancelled,
		revenue:         revenue,
		reviewsWritten:  reviewsWritten,
	}, nil
}

func (i *Instruments) OrderPlaced(ctx context.Context, paymentMethod string, total decimal.Decimal) {
	if i == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("payment_method", paymentMethod))
	i.ordersPlaced.Add(ctx, 1, attrs)
	i.revenue.Add(ctx, total.InexactFloat64(), attrs)
}

func (i *Instruments) OrderCancelled(ctx context.Context, by string) {
	if i == nil {
		return
	}
	i.ordersCancelled.Add(ctx, 1, metric.WithAttributes(attribute.String("cancelled_by", by)))
}

func (i *Instruments) ReviewWritten(ctx context.Context, rating int) {
	if i == nil {
		return
	}
	i.reviewsWritten.Add(ctx, 1, metric.WithAttributes(attribute.Int("rating", rating)))
}
