package reviews

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/joao-fontenele/bookstore-api/internal/catalog"
	"github.com/joao-fontenele/bookstore-api/internal/domain"
	"github.com/joao-fontenele/bookstore-api/internal/pgutil"
)

const reviewSelect = `
	SELECT r.id, r.book_id, r.user_id, r.rating, r.comment, r.created_at, r.updated_at,
		u.first_name, u.last_name, u.avatar, b.title, b.author, b.image
	FROM reviews r
	LEFT JOIN users u ON u.id = r.user_id
	LEFT JOIN books b ON b.id = r.book_id`

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func scanReview(row interface{ Scan(...any) error }) (*domain.Review, error) {
	var (
		rv                   domain.Review
		first, last, avatar  sql.NullString
		title, author, image sql.NullString
	)
	err := row.Scan(&rv.ID, &rv.BookID, &rv.UserID, &rv.Rating, &rv.Comment, &rv.CreatedAt, &rv.UpdatedAt,
		&first, &last, &avatar, &title, &author, &image)
	if err != nil {
		return nil, err
	}
	if first.Valid {
		rv.Reviewer = &domain.UserSummary{ID: rv.UserID, FirstName: first.String, LastName: last.String, Avatar: avatar.String}
	}
	if title.Valid {
		rv.BookInfo = &domain.BookSummary{ID: rv.BookID, Title: title.String, Author: author.String, Image: image.String}
	}
	return &rv, nil
}

func (r *Repository) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	return pgutil.InTx(ctx, r.db, func(tx *sql.Tx) error {
		return fn(&txStore{tx: tx})
	})
}

type txStore struct {
	tx *sql.Tx
}

func (s *txStore) Create(ctx context.Context, rv *domain.Review) error {
	now := time.Now().UTC()
	rv.ID = uuid.NewString()
	rv.CreatedAt, rv.UpdatedAt = now, now

	_, err := s.tx.ExecContext(ctx, `
		INSERT INTO reviews (id, book_id, user_id, rating, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
	`, rv.ID, rv.BookID, rv.UserID, rv.Rating, rv.Comment, now)
	if err != nil {
		if pgutil.IsUniqueViolation(err, "") {
			return domain.ErrDuplicateReview
		}
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	rv, err := scanReview(r.db.QueryRowContext(ctx, reviewSelect+" WHERE r.id = $1", id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return rv, nil
}

// Exists reports whether userID already reviewed bookID.
func (r *Repository) Exists(ctx context.Context, bookID, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM reviews WHERE book_id = $1 AND user_id = $2)
	`, bookID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check review: %w", err)
	}
	return exists, nil
}

func (s *txStore) Update(ctx context.Context, rv *domain.Review) error {
	rv.UpdatedAt = time.Now().UTC()
	_, err := s.tx.ExecContext(ctx, `
		UPDATE reviews SET rating = $2, comment = $3, updated_at = $4 WHERE id = $1
	`, rv.ID, rv.Rating, rv.Comment, rv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	return nil
}

func (s *txStore) Delete(ctx context.Context, id string) error {
	if _, err := s.tx.ExecContext(ctx, "DELETE FROM reviews WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	return nil
}

func (s *txStore) RecomputeRating(ctx context.Context, bookID string) error {
	return catalog.RecomputeRating(ctx, s.tx, bookID)
}

func (r *Repository) ByBook(ctx context.Context, bookID string) ([]domain.Review, error) {
	return r.query(ctx, reviewSelect+" WHERE r.book_id = $1 ORDER BY r.created_at DESC, r.id", bookID)
}

func (r *Repository) ByUser(ctx context.Context, userID string) ([]domain.Review, error) {
	return r.query(ctx, reviewSelect+" WHERE r.user_id = $1 ORDER BY r.created_at DESC, r.id", userID)
}

func (r *Repository) List(ctx context.Context, page domain.Page) ([]domain.Review, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reviews").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}
	reviews, err := r.query(ctx, reviewSelect+" ORDER BY r.created_at DESC, r.id LIMIT $1 OFFSET $2",
		page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

func (r *Repository) query(ctx context.Context, query string, args ...any) ([]domain.Review, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer func() { _ = rows.Close() }()

	reviews := []domain.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, *rv)
	}
	return reviews, rows.Err()
}
