package auth

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joao-fontenele/bookstore-api/internal/catalog"
	"github.com/joao-fontenele/bookstore-api/internal/domain"
	"github.com/joao-fontenele/bookstore-api/internal/pgutil"
)

const userColumns = `id, email, password_hash, first_name, last_name, phone, address_street, address_city,
	address_postal_code, role, avatar, is_active, created_at, updated_at`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Phone,
		&u.Address.Street, &u.Address.City, &u.Address.PostalCode, &u.Role, &u.Avatar, &u.IsActive,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	now := time.Now().UTC()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt, u.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
	`, u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Phone, u.Address.Street,
		u.Address.City, u.Address.PostalCode, u.Role, u.Avatar, u.IsActive, now)
	if err != nil {
		if pgutil.IsUniqueViolation(err, "") {
			return domain.Conflict("User with this email already exists")
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE email = $1", email)
}

func (r *UserRepository) getOne(ctx context.Context, query string, args ...any) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// UpdateProfile persists the editable profile fields of u.
func (r *UserRepository) UpdateProfile(ctx context.Context, u *domain.User) error {
	u.UpdatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET first_name = $2, last_name = $3, phone = $4, address_street = $5,
			address_city = $6, address_postal_code = $7, avatar = $8, updated_at = $9
		WHERE id = $1
	`, u.ID, u.FirstName, u.LastName, u.Phone, u.Address.Street, u.Address.City,
		u.Address.PostalCode, u.Avatar, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1
	`, id, hash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// UpdateAccess changes role and/or active flag; nil leaves a field as is.
// Returns (nil, nil) when the user does not exist.
func (r *UserRepository) UpdateAccess(ctx context.Context, id string, role *domain.Role, isActive *bool) (*domain.User, error) {
	var roleArg *string
	if role != nil {
		s := string(*role)
		roleArg = &s
	}
	u, err := scanUser(r.db.QueryRowContext(ctx, `
		UPDATE users SET role = COALESCE($2, role), is_active = COALESCE($3, is_active), updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns, id, roleArg, isActive))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("update user access: %w", err)
	}
	return u, nil
}

// Delete removes a user together with their cart and reviews, and recomputes
// the rating of every book they had reviewed in the same transaction.
func (r *UserRepository) Delete(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := pgutil.InTx(ctx, r.db, func(tx *sql.Tx) error {
		bookIDs, err := reviewedBooks(ctx, tx, id)
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		n, err := pgutil.RowsAffected(result)
		if err != nil || n == 0 {
			return err
		}

		for _, bookID := range bookIDs {
			if err := catalog.RecomputeRating(ctx, tx, bookID); err != nil {
				return err
			}
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// reviewedBooks lists the books userID reviewed, ordered so that book rows
// are always locked in the same order.
func reviewedBooks(ctx context.Context, q pgutil.Querier, userID string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT DISTINCT book_id FROM reviews WHERE user_id = $1 ORDER BY book_id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query reviewed books: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan reviewed book: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *UserRepository) List(ctx context.Context, f domain.UserFilter) ([]domain.User, int, error) {
	clause := ""
	args := []any{}
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, pgutil.ContainsPattern(s))
		clause = " WHERE first_name ILIKE $1 OR last_name ILIKE $1 OR email ILIKE $1"
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users"+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	args = append(args, f.Page.Limit, f.Page.Offset())
	query := fmt.Sprintf("SELECT %s FROM users%s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d",
		userColumns, clause, len(args)-1, len(args))
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	users := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *UserRepository) CountByRole(ctx context.Context, role domain.Role) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE role = $1", role).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}
