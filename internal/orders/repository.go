package orders

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/bookstore-api/internal/cart"
	"github.com/joao-fontenele/bookstore-api/internal/domain"
	"github.com/joao-fontenele/bookstore-api/internal/pgutil"
)

const orderColumns = `o.id, o.order_number, o.user_id, o.ship_first_name, o.ship_last_name, o.ship_email,
	o.ship_phone, o.ship_address, o.ship_city, o.ship_postal_code, o.payment_method, o.payment_status,
	o.subtotal, o.shipping, o.tax, o.total, o.status, o.created_at, o.updated_at,
	u.first_name, u.last_name, u.email`

const orderFrom = " FROM orders o LEFT JOIN users u ON u.id = o.user_id"

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	return pgutil.InTx(ctx, r.db, func(tx *sql.Tx) error {
		return fn(&txStore{tx: tx})
	})
}

func scanOrder(row interface{ Scan(...any) error }) (*domain.Order, error) {
	var (
		o                  domain.Order
		first, last, email sql.NullString
	)
	a := &o.ShippingAddress
	err := row.Scan(&o.ID, &o.OrderNumber, &o.UserID, &a.FirstName, &a.LastName, &a.Email,
		&a.Phone, &a.Address, &a.City, &a.PostalCode, &o.PaymentMethod, &o.PaymentStatus,
		&o.Subtotal, &o.Shipping, &o.Tax, &o.Total, &o.Status, &o.CreatedAt, &o.UpdatedAt,
		&first, &last, &email)
	if err != nil {
		return nil, err
	}
	if first.Valid {
		o.Customer = &domain.UserSummary{
			ID:        o.UserID,
			FirstName: first.String,
			LastName:  last.String,
			Email:     email.String,
		}
	}
	return &o, nil
}

func getOrder(ctx context.Context, q pgutil.Querier, id string, lock bool) (*domain.Order, error) {
	query := "SELECT " + orderColumns + orderFrom + " WHERE o.id = $1"
	if lock {
		query += " FOR UPDATE OF o"
	}
	order, err := scanOrder(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	orders := []*domain.Order{order}
	if err := loadItems(ctx, q, orders); err != nil {
		return nil, err
	}
	return order, nil
}

// loadItems fills the item snapshots of every order with one query.
func loadItems(ctx context.Context, q pgutil.Querier, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[string]*domain.Order, len(orders))
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		o.Items = []domain.OrderItem{}
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT order_id, book_id, title, author, image, price, quantity
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, position
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("query order items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			orderID string
			item    domain.OrderItem
		)
		if err := rows.Scan(&orderID, &item.BookID, &item.Title, &item.Author, &item.Image, &item.Price, &item.Quantity); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		o := byID[orderID]
		o.Items = append(o.Items, item)
	}
	return rows.Err()
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return getOrder(ctx, r.db, id, false)
}

// List returns a page of orders, newest first. An empty UserID lists every
// customer's orders.
func (r *OrderRepository) List(ctx context.Context, f domain.OrderFilter) ([]domain.Order, int, error) {
	var (
		where []string
		args  []any
	)
	if f.UserID != "" {
		args = append(args, f.UserID)
		where = append(where, fmt.Sprintf("o.user_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("o.status = $%d", len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders o"+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	args = append(args, f.Page.Limit, f.Page.Offset())
	query := fmt.Sprintf("SELECT %s%s%s ORDER BY o.created_at DESC, o.id LIMIT $%d OFFSET $%d",
		orderColumns, orderFrom, clause, len(args)-1, len(args))
	orders, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// Recent returns the latest orders across all customers.
func (r *OrderRepository) Recent(ctx context.Context, limit int) ([]domain.Order, error) {
	return r.query(ctx, "SELECT "+orderColumns+orderFrom+" ORDER BY o.created_at DESC, o.id LIMIT $1", limit)
}

func (r *OrderRepository) query(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ptrs []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		ptrs = append(ptrs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := loadItems(ctx, r.db, ptrs); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(ptrs))
	for _, o := range ptrs {
		orders = append(orders, *o)
	}
	return orders, nil
}

func (r *OrderRepository) Stats(ctx context.Context, userID string) (domain.OrderStats, error) {
	var stats domain.OrderStats
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(total), 0),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'delivered')
		FROM orders
		WHERE user_id = $1
	`, userID).Scan(&stats.TotalOrders, &stats.TotalSpent, &stats.PendingOrders, &stats.CompletedOrders)
	if err != nil {
		return stats, fmt.Errorf("order stats: %w", err)
	}
	return stats, nil
}

func (r *OrderRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders").Scan(&n); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return n, nil
}

// Revenue sums the totals of every order that was not cancelled.
func (r *OrderRepository) Revenue(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(total), 0) FROM orders WHERE status <> 'cancelled'
	`).Scan(&total)
	if err != nil {
		return total, fmt.Errorf("order revenue: %w", err)
	}
	return total, nil
}

func (r *OrderRepository) CountByStatus(ctx context.Context) ([]domain.StatusCount, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM orders GROUP BY status ORDER BY status")
	if err != nil {
		return nil, fmt.Errorf("count orders by status: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := []domain.StatusCount{}
	for rows.Next() {
		var c domain.StatusCount
		if err := rows.Scan(&c.Status, &c.Count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

type txStore struct {
	tx *sql.Tx
}

func (s *txStore) CartLines(ctx context.Context, userID string) ([]domain.CartLine, error) {
	return cart.LinesTx(ctx, s.tx, userID)
}

func (s *txStore) InsertOrder(ctx context.Context, o *domain.Order) error {
	o.ID = uuid.NewString()
	a := o.ShippingAddress
	_, err := s.tx.ExecContext(ctx, `
		INSERT INTO orders (id, order_number, user_id, ship_first_name, ship_last_name, ship_email,
			ship_phone, ship_address, ship_city, ship_postal_code, payment_method, payment_status,
			subtotal, shipping, tax, total, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`, o.ID, o.OrderNumber, o.UserID, a.FirstName, a.LastName, a.Email, a.Phone, a.Address, a.City,
		a.PostalCode, o.PaymentMethod, o.PaymentStatus, o.Subtotal, o.Shipping, o.Tax, o.Total,
		o.Status, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i, item := range o.Items {
		_, err = s.tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, position, book_id, title, author, image, price, quantity)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, uuid.NewString(), o.ID, i, item.BookID, item.Title, item.Author, item.Image, item.Price, item.Quantity)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

func (s *txStore) DecrementStock(ctx context.Context, bookID string, quantity int) (bool, error) {
	result, err := s.tx.ExecContext(ctx, `
		UPDATE books SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2
	`, bookID, quantity)
	if err != nil {
		return false, fmt.Errorf("decrement stock: %w", err)
	}
	n, err := pgutil.RowsAffected(result)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// IncrementStock is a no-op for books deleted since the order was placed.
func (s *txStore) IncrementStock(ctx context.Context, bookID string, quantity int) error {
	_, err := s.tx.ExecContext(ctx, `
		UPDATE books SET stock = stock + $2, updated_at = NOW() WHERE id = $1
	`, bookID, quantity)
	if err != nil {
		return fmt.Errorf("increment stock: %w", err)
	}
	return nil
}

func (s *txStore) ClearCart(ctx context.Context, userID string) error {
	return cart.ClearTx(ctx, s.tx, userID)
}

func (s *txStore) LockOrder(ctx context.Context, id string) (*domain.Order, error) {
	return getOrder(ctx, s.tx, id, true)
}

func (s *txStore) SetStatus(ctx context.Context, o *domain.Order) error {
	_, err := s.tx.ExecContext(ctx, `
		UPDATE orders SET status = $2, payment_status = $3, updated_at = $4 WHERE id = $1
	`, o.ID, o.Status, o.PaymentStatus, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	return nil
}
