package orders

import (
	"context"
	"strings"
	"time"

	"github.com/joao-fontenele/bookstore-api/internal/domain"
	"github.com/joao-fontenele/bookstore-api/internal/httpx"
	"github.com/joao-fontenele/bookstore-api/internal/telemetry"
)

// Tx is the unit of work used by checkout and cancellation. Every call on it
// runs in the same database transaction.
type Tx interface {
	CartLines(ctx context.Context, userID string) ([]domain.CartLine, error)
	InsertOrder(ctx context.Context, o *domain.Order) error
	// DecrementStock removes quantity from a book only when enough is left,
	// reporting false otherwise.
	DecrementStock(ctx context.Context, bookID string, quantity int) (bool, error)
	IncrementStock(ctx context.Context, bookID string, quantity int) error
	ClearCart(ctx context.Context, userID string) error
	LockOrder(ctx context.Context, id string) (*domain.Order, error)
	SetStatus(ctx context.Context, o *domain.Order) error
}

type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, f domain.OrderFilter) ([]domain.Order, int, error)
	Stats(ctx context.Context, userID string) (domain.OrderStats, error)
}

// Publisher emits order events after commit.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

type Service struct {
	store     Store
	publisher Publisher
	metrics   *telemetry.Instruments
	now       func() time.Time
}

// NewService wires the order workflows. publisher and metrics may be nil.
func NewService(store Store, publisher Publisher, metrics *telemetry.Instruments) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		metrics:   metrics,
		now:       time.Now,
	}
}

type PlaceOrderInput struct {
	domain.ShippingAddress
	PaymentMethod domain.PaymentMethod `json:"paymentMethod"`
}

func (in *PlaceOrderInput) validate() error {
	in.Normalize()
	in.PaymentMethod = domain.PaymentMethod(strings.ToLower(strings.TrimSpace(string(in.PaymentMethod))))
	if in.PaymentMethod == "" {
		in.PaymentMethod = domain.PaymentCashOnDelivery
	}

	err := in.Validate()
	v, _ := err.(*domain.ValidationError)
	if v == nil {
		v = &domain.ValidationError{}
	}
	switch in.PaymentMethod {
	case domain.PaymentCashOnDelivery:
	case domain.PaymentOnline:
		v.Add("paymentMethod", "Online payment is currently unavailable")
	default:
		v.Add("paymentMethod", "Payment method must be cod or online")
	}
	return v.Err()
}

// PlaceOrder turns the user's cart into a pending order. The order insert,
// the stock decrements and the cart clear commit together or not at all.
func (s *Service) PlaceOrder(ctx context.Context, userID string, in PlaceOrderInput) (*domain.Order, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var order *domain.Order
	err := s.store.WithTx(ctx, func(tx Tx) error {
		lines, err := tx.CartLines(ctx, userID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return domain.ErrEmptyCart
		}

		items := make([]domain.OrderItem, 0, len(lines))
		for _, line := range lines {
			if line.Book.Stock < line.Quantity {
				return &domain.InsufficientStockError{Title: line.Book.Title}
			}
			items = append(items, domain.OrderItem{
				BookID:   line.BookID,
				Title:    line.Book.Title,
				Author:   line.Book.Author,
				Image:    line.Book.Image,
				Price:    line.Book.Price,
				Quantity: line.Quantity,
			})
		}

		totals := Price(items)
		now := s.now().UTC()
		order = &domain.Order{
			OrderNumber:     NewOrderNumber(now),
			UserID:          userID,
			Items:           items,
			ShippingAddress: in.ShippingAddress,
			PaymentMethod:   in.PaymentMethod,
			PaymentStatus:   domain.PaymentStatusPending,
			Subtotal:        totals.Subtotal,
			Shipping:        totals.Shipping,
			Tax:             totals.Tax,
			Total:           totals.Total,
			Status:          domain.OrderStatusPending,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := tx.InsertOrder(ctx, order); err != nil {
			return err
		}

		for _, line := range lines {
			ok, err := tx.DecrementStock(ctx, line.BookID, line.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return &domain.InsufficientStockError{Title: line.Book.Title}
			}
		}
		return tx.ClearCart(ctx, userID)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.OrderPlaced(ctx, string(order.PaymentMethod), order.Total)
	s.publish(ctx, domain.OrderPlaced, order)
	return order, nil
}

// Cancel cancels one of the user's own orders and puts its items back in stock.
func (s *Service) Cancel(ctx context.Context, orderID, userID string) (*domain.Order, error) {
	order, err := s.cancel(ctx, orderID, func(o *domain.Order) error {
		if o.UserID != userID {
			return domain.ErrForbidden
		}
		return nil
	}, nil)
	if err != nil {
		return nil, err
	}
	s.metrics.OrderCancelled(ctx, "customer")
	return order, nil
}

func (s *Service) cancel(ctx context.Context, orderID string, authorize func(*domain.Order) error, payment *domain.PaymentStatus) (*domain.Order, error) {
	var order *domain.Order
	err := s.store.WithTx(ctx, func(tx Tx) error {
		o, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if o == nil {
			return domain.NewNotFound("order")
		}
		if err := authorize(o); err != nil {
			return err
		}
		if o.Status.Terminal() {
			return &domain.TransitionError{From: o.Status, To: domain.OrderStatusCancelled}
		}

		o.Status = domain.OrderStatusCancelled
		if payment != nil {
			o.PaymentStatus = *payment
		}
		o.UpdatedAt = s.now().UTC()
		if err := tx.SetStatus(ctx, o); err != nil {
			return err
		}
		for _, item := range o.Items {
			if err := tx.IncrementStock(ctx, item.BookID, item.Quantity); err != nil {
				return err
			}
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, domain.OrderCancelled, order)
	return order, nil
}

type StatusUpdate struct {
	Status        *domain.OrderStatus   `json:"status"`
	PaymentStatus *domain.PaymentStatus `json:"paymentStatus"`
}

func (u StatusUpdate) validate() error {
	v := &domain.ValidationError{}
	if u.Status != nil && !u.Status.Valid() {
		v.Add("status", "Invalid order status")
	}
	if u.PaymentStatus != nil && !u.PaymentStatus.Valid() {
		v.Add("paymentStatus", "Invalid payment status")
	}
	return v.Err()
}

// UpdateStatus is the admin status change. Moving an order to cancelled goes
// through cancellation so stock is restored; delivered and cancelled orders
// cannot move to another status.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, u StatusUpdate) (*domain.Order, error) {
	if err := u.validate(); err != nil {
		return nil, err
	}

	current, err := s.store.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, domain.NewNotFound("order")
	}
	if u.Status != nil && *u.Status == domain.OrderStatusCancelled && current.Status != domain.OrderStatusCancelled {
		order, err := s.cancel(ctx, orderID, func(*domain.Order) error { return nil }, u.PaymentStatus)
		if err != nil {
			return nil, err
		}
		s.metrics.OrderCancelled(ctx, "admin")
		return order, nil
	}

	var order *domain.Order
	err = s.store.WithTx(ctx, func(tx Tx) error {
		o, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if o == nil {
			return domain.NewNotFound("order")
		}
		if u.Status != nil && *u.Status != o.Status {
			if o.Status.Terminal() {
				return &domain.TransitionError{From: o.Status, To: *u.Status}
			}
			o.Status = *u.Status
		}
		if u.PaymentStatus != nil {
			o.PaymentStatus = *u.PaymentStatus
		}
		o.UpdatedAt = s.now().UTC()
		order = o
		return tx.SetStatus(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Get returns an order owned by userID.
func (s *Service) Get(ctx context.Context, orderID, userID string) (*domain.Order, error) {
	order, err := s.GetAny(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return order, nil
}

func (s *Service) GetAny(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.store.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.NewNotFound("order")
	}
	return order, nil
}

func (s *Service) List(ctx context.Context, f domain.OrderFilter) ([]domain.Order, int, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, domain.Invalid("status", "Invalid order status")
	}
	return s.store.List(ctx, f)
}

func (s *Service) Stats(ctx context.Context, userID string) (domain.OrderStats, error) {
	return s.store.Stats(ctx, userID)
}

func (s *Service) publish(ctx context.Context, t domain.OrderEventType, o *domain.Order) {
	if s.publisher == nil {
		return
	}
	event := domain.NewOrderEvent(t, o, s.now().UTC())
	if err := s.publisher.Publish(ctx, o.ID, event); err != nil {
		httpx.Logger(ctx).Error("failed to publish order event", "error", err, "order_id", o.ID, "type", t)
	}
}
