package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joao-fontenele/bookstore-api/internal/domain"
	"github.com/joao-fontenele/bookstore-api/internal/pgutil"
)

const bookColumns = `id, isbn, title, author, publisher, category, description, price, original_price,
	stock, image, rating, review_count, published_date, pages, language, is_active, created_at, updated_at`

var sortClauses = map[domain.BookSort]string{
	domain.SortTitle:     "title ASC",
	domain.SortPriceLow:  "price ASC",
	domain.SortPriceHigh: "price DESC",
	domain.SortRating:    "rating DESC",
	domain.SortNewest:    "created_at DESC",
}

type BookRepository struct {
	db *sql.DB
}

func NewBookRepository(db *sql.DB) *BookRepository {
	return &BookRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// Columns returns the book select list qualified with a table alias, for
// repositories that join books into their own rows.
func Columns(alias string) string {
	fields := strings.Split(bookColumns, ",")
	for i, f := range fields {
		fields[i] = alias + "." + strings.TrimSpace(f)
	}
	return strings.Join(fields, ", ")
}

// ScanBook reads a row selected with Columns; extra destinations are scanned
// after the book columns.
func ScanBook(row rowScanner, extra ...any) (*domain.Book, error) {
	var (
		b         domain.Book
		published sql.NullTime
	)
	dest := []any{&b.ID, &b.ISBN, &b.Title, &b.Author, &b.Publisher, &b.Category, &b.Description,
		&b.Price, &b.OriginalPrice, &b.Stock, &b.Image, &b.Rating, &b.ReviewCount, &published,
		&b.Pages, &b.Language, &b.IsActive, &b.CreatedAt, &b.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if published.Valid {
		t := published.Time
		b.PublishedDate = &t
	}
	return &b, nil
}

func (r *BookRepository) List(ctx context.Context, f domain.BookFilter) ([]domain.Book, int, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.ActiveOnly {
		where = append(where, "is_active")
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		p := arg(pgutil.ContainsPattern(s))
		cond := fmt.Sprintf("title ILIKE %[1]s OR author ILIKE %[1]s OR description ILIKE %[1]s", p)
		if f.MatchISBN {
			cond = fmt.Sprintf("title ILIKE %[1]s OR author ILIKE %[1]s OR isbn ILIKE %[1]s", p)
		}
		where = append(where, "("+cond+")")
	}
	if c := strings.TrimSpace(f.Category); c != "" && c != "all" {
		where = append(where, "category = "+arg(c))
	}
	if a := strings.TrimSpace(f.Author); a != "" {
		where = append(where, "author ILIKE "+arg(pgutil.ContainsPattern(a)))
	}
	if p := strings.TrimSpace(f.Publisher); p != "" {
		where = append(where, "publisher ILIKE "+arg(pgutil.ContainsPattern(p)))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM books"+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}

	order, ok := sortClauses[f.Sort]
	if !ok {
		order = sortClauses[domain.SortTitle]
	}
	if f.Sort == "" && f.MatchISBN {
		order = sortClauses[domain.SortNewest]
	}

	query := "SELECT " + bookColumns + " FROM books" + clause +
		" ORDER BY " + order + ", id" +
		" LIMIT " + arg(f.Page.Limit) + " OFFSET " + arg(f.Page.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list books: %w", err)
	}
	defer func() { _ = rows.Close() }()

	books := []domain.Book{}
	for rows.Next() {
		b, err := ScanBook(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return books, total, nil
}

func (r *BookRepository) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	return r.getOne(ctx, r.db, "SELECT "+bookColumns+" FROM books WHERE id = $1", id)
}

func (r *BookRepository) GetByISBN(ctx context.Context, isbn string) (*domain.Book, error) {
	return r.getOne(ctx, r.db, "SELECT "+bookColumns+" FROM books WHERE isbn = $1", isbn)
}

func (r *BookRepository) getOne(ctx context.Context, q pgutil.Querier, query string, args ...any) (*domain.Book, error) {
	b, err := ScanBook(q.QueryRowContext(ctx, query, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	return b, nil
}

// Create inserts the book and bumps its category's bookCount in one transaction.
func (r *BookRepository) Create(ctx context.Context, b *domain.Book) error {
	now := time.Now().UTC()
	b.ID = uuid.NewString()
	b.CreatedAt, b.UpdatedAt = now, now

	return pgutil.InTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO books (`+bookColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $18)
		`, b.ID, b.ISBN, b.Title, b.Author, b.Publisher, b.Category, b.Description, b.Price, b.OriginalPrice,
			b.Stock, b.Image, b.Rating, b.ReviewCount, b.PublishedDate, b.Pages, b.Language, b.IsActive, now)
		if err != nil {
			if pgutil.IsUniqueViolation(err, "") {
				return domain.Conflict("Book with this ISBN already exists")
			}
			return fmt.Errorf("insert book: %w", err)
		}
		return adjustCategoryCount(ctx, tx, b.Category, 1)
	})
}

// Update applies patch to the book identified by isbn. It returns (nil, nil)
// when no such book exists.
func (r *BookRepository) Update(ctx context.Context, isbn string, patch domain.BookPatch) (*domain.Book, error) {
	var updated *domain.Book
	err := pgutil.InTx(ctx, r.db, func(tx *sql.Tx) error {
		b, err := r.getOne(ctx, tx, "SELECT "+bookColumns+" FROM books WHERE isbn = $1 FOR UPDATE", isbn)
		if err != nil || b == nil {
			return err
		}
		previousCategory := b.Category
		patch.Apply(b)
		if err := b.Validate(); err != nil {
			return err
		}
		b.UpdatedAt = time.Now().UTC()

		_, err = tx.ExecContext(ctx, `
			UPDATE books SET title = $2, author = $3, publisher = $4, category = $5, description = $6,
				price = $7, original_price = $8, stock = $9, image = $10, published_date = $11,
				pages = $12, language = $13, is_active = $14, updated_at = $15
			WHERE id = $1
		`, b.ID, b.Title, b.Author, b.Publisher, b.Category, b.Description, b.Price, b.OriginalPrice,
			b.Stock, b.Image, b.PublishedDate, b.Pages, b.Language, b.IsActive, b.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update book: %w", err)
		}

		if previousCategory != b.Category {
			if err := adjustCategoryCount(ctx, tx, previousCategory, -1); err != nil {
				return err
			}
			if err := adjustCategoryCount(ctx, tx, b.Category, 1); err != nil {
				return err
			}
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the book and decrements its category's bookCount. It
// returns (nil, nil) when no such book exists.
func (r *BookRepository) Delete(ctx context.Context, isbn string) (*domain.Book, error) {
	var deleted *domain.Book
	err := pgutil.InTx(ctx, r.db, func(tx *sql.Tx) error {
		b, err := r.getOne(ctx, tx, "DELETE FROM books WHERE isbn = $1 RETURNING "+bookColumns, isbn)
		if err != nil || b == nil {
			return err
		}
		deleted = b
		return adjustCategoryCount(ctx, tx, b.Category, -1)
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// RecomputeRating rewrites a book's rating and reviewCount from its reviews
// using q, which callers pass as the transaction that mutated those reviews.
// The book row is locked first so concurrent review writers apply in order.
func RecomputeRating(ctx context.Context, q pgutil.Querier, bookID string) error {
	if _, err := q.ExecContext(ctx, "SELECT 1 FROM books WHERE id = $1 FOR UPDATE", bookID); err != nil {
		return fmt.Errorf("lock book: %w", err)
	}

	var s domain.RatingSummary
	err := q.QueryRowContext(ctx, `
		SELECT COALESCE(AVG(rating), 0)::float8, COUNT(*) FROM reviews WHERE book_id = $1
	`, bookID).Scan(&s.Average, &s.Count)
	if err != nil {
		return fmt.Errorf("summarize reviews: %w", err)
	}

	_, err = q.ExecContext(ctx, `
		UPDATE books SET rating = $2, review_count = $3, updated_at = NOW()
		WHERE id = $1
	`, bookID, s.Rating(), s.Count)
	if err != nil {
		return fmt.Errorf("set book rating: %w", err)
	}
	return nil
}

func (r *BookRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM books").Scan(&n); err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return n, nil
}

// TopReviewed returns the most reviewed books, best rated first on ties.
func (r *BookRepository) TopReviewed(ctx context.Context, limit int) ([]domain.Book, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+bookColumns+` FROM books
		ORDER BY review_count DESC, rating DESC, id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("top books: %w", err)
	}
	defer func() { _ = rows.Close() }()

	books := []domain.Book{}
	for rows.Next() {
		b, err := ScanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, *b)
	}
	return books, rows.Err()
}

// Distinct lists the distinct values of the author or publisher column.
func (r *BookRepository) Distinct(ctx context.Context, column string) ([]string, error) {
	if column != "author" && column != "publisher" {
		return nil, fmt.Errorf("distinct: unsupported column %q", column)
	}
	rows, err := r.db.QueryContext(ctx, "SELECT DISTINCT "+column+" FROM books ORDER BY "+column)
	if err != nil {
		return nil, fmt.Errorf("distinct %s: %w", column, err)
	}
	defer func() { _ = rows.Close() }()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// Taxonomy groups books by author or publisher with their stock totals.
func (r *BookRepository) Taxonomy(ctx context.Context, column string) ([]domain.TaxonomyEntry, error) {
	if column != "author" && column != "publisher" {
		return nil, fmt.Errorf("taxonomy: unsupported column %q", column)
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+column+`, COUNT(*), COALESCE(SUM(stock), 0)
		FROM books
		GROUP BY `+column+`
		ORDER BY `+column)
	if err != nil {
		return nil, fmt.Errorf("taxonomy %s: %w", column, err)
	}
	defer func() { _ = rows.Close() }()

	entries := []domain.TaxonomyEntry{}
	for rows.Next() {
		var e domain.TaxonomyEntry
		if err := rows.Scan(&e.Name, &e.BookCount, &e.TotalStock); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
