package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/joao-fontenele/bookstore-api/internal/domain"
	"github.com/joao-fontenele/bookstore-api/internal/pgutil"
)

const categoryColumns = "id, name, slug, description, book_count, created_at, updated_at"

type CategoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func scanCategory(row rowScanner) (*domain.Category, error) {
	var c domain.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.BookCount, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CategoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+categoryColumns+" FROM categories ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	categories := []domain.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

func (r *CategoryRepository) Create(ctx context.Context, c *domain.Category) error {
	now := time.Now().UTC()
	c.ID = uuid.NewString()
	c.CreatedAt, c.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (`+categoryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
	`, c.ID, c.Name, c.Slug, c.Description, c.BookCount, now)
	if err != nil {
		if pgutil.IsUniqueViolation(err, "") {
			return domain.Conflict("Category with this name or slug already exists")
		}
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

// Update replaces name/description of the category with the given slug. A
// blank name keeps the current one. Returns (nil, nil) when absent.
func (r *CategoryRepository) Update(ctx context.Context, slug string, name, description *string) (*domain.Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx, `
		UPDATE categories
		SET name = COALESCE(NULLIF($2, ''), name),
			description = COALESCE($3, description),
			updated_at = NOW()
		WHERE slug = $1
		RETURNING `+categoryColumns,
		slug, derefOrEmpty(name), description))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		if pgutil.IsUniqueViolation(err, "") {
			return nil, domain.Conflict("Category with this name already exists")
		}
		return nil, fmt.Errorf("update category: %w", err)
	}
	return c, nil
}

// Delete removes the category with the given slug; books keep their slug.
func (r *CategoryRepository) Delete(ctx context.Context, slug string) (bool, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM categories WHERE slug = $1", slug)
	if err != nil {
		return false, fmt.Errorf("delete category: %w", err)
	}
	n, err := pgutil.RowsAffected(result)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func adjustCategoryCount(ctx context.Context, q pgutil.Querier, slug string, delta int) error {
	_, err := q.ExecContext(ctx, `
		UPDATE categories SET book_count = GREATEST(book_count + $2, 0), updated_at = NOW()
		WHERE slug = $1
	`, slug, delta)
	if err != nil {
		return fmt.Errorf("adjust category count: %w", err)
	}
	return nil
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
