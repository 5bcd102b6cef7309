package cart

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/joao-fontenele/bookstore-api/internal/catalog"
	"github.com/joao-fontenele/bookstore-api/internal/domain"
	"github.com/joao-fontenele/bookstore-api/internal/pgutil"
)

// Repository stores carts as cart_items rows keyed by (user_id, book_id).
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Lines returns the user's cart with each book resolved, oldest line first.
func (r *Repository) Lines(ctx context.Context, userID string) ([]domain.CartLine, error) {
	return LinesTx(ctx, r.db, userID)
}

// LinesTx reads the cart through q so checkout can load it inside its own
// transaction.
func LinesTx(ctx context.Context, q pgutil.Querier, userID string) ([]domain.CartLine, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+catalog.Columns("b")+`, ci.quantity, ci.added_at
		FROM cart_items ci
		JOIN books b ON b.id = ci.book_id
		WHERE ci.user_id = $1
		ORDER BY ci.added_at, ci.book_id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query cart: %w", err)
	}
	defer func() { _ = rows.Close() }()

	lines := []domain.CartLine{}
	for rows.Next() {
		line := domain.CartLine{UserID: userID}
		book, err := catalog.ScanBook(rows, &line.Quantity, &line.AddedAt)
		if err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		line.BookID = book.ID
		line.Book = *book
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// Add inserts a line or, when the book is already in the cart, increments it.
func (r *Repository) Add(ctx context.Context, userID, bookID string, quantity int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cart_items (user_id, book_id, quantity, added_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, book_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
	`, userID, bookID, quantity)
	if err != nil {
		return fmt.Errorf("add cart item: %w", err)
	}
	return nil
}

// SetQuantity reports false when the book is not in the cart.
func (r *Repository) SetQuantity(ctx context.Context, userID, bookID string, quantity int) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE cart_items SET quantity = $3 WHERE user_id = $1 AND book_id = $2
	`, userID, bookID, quantity)
	if err != nil {
		return false, fmt.Errorf("update cart item: %w", err)
	}
	n, err := pgutil.RowsAffected(result)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *Repository) Remove(ctx context.Context, userID, bookID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM cart_items WHERE user_id = $1 AND book_id = $2", userID, bookID)
	if err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	return nil
}

func (r *Repository) Clear(ctx context.Context, userID string) error {
	return ClearTx(ctx, r.db, userID)
}

func ClearTx(ctx context.Context, q pgutil.Querier, userID string) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM cart_items WHERE user_id = $1", userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
