package seed

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/bookstore-api/internal/auth"
	"github.com/joao-fontenele/bookstore-api/internal/domain"
)

type memBooks map[string]*domain.Book

func (m memBooks) GetByISBN(_ context.Context, isbn string) (*domain.Book, error) {
	return m[isbn], nil
}

func (m memBooks) Create(_ context.Context, b *domain.Book) error {
	m[b.ISBN] = b
	return nil
}

type memCategories map[string]*domain.Category

func (m memCategories) Create(_ context.Context, c *domain.Category) error {
	if _, ok := m[c.Slug]; ok {
		return domain.Conflict("Category with this name or slug already exists")
	}
	m[c.Slug] = c
	return nil
}

type memUsers map[string]*domain.User

func (m memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return m[email], nil
}

func (m memUsers) Create(_ context.Context, u *domain.User) error {
	m[u.Email] = u
	return nil
}

func newSeeder() (*Seeder, memBooks, memCategories, memUsers) {
	books, categories, users := memBooks{}, memCategories{}, memUsers{}
	return NewSeeder(books, categories, users, slog.New(slog.NewTextHandler(io.Discard, nil))), books, categories, users
}

func TestSeeder_Run(t *testing.T) {
	s, books, categories, users := newSeeder()

	res, err := s.Run(context.Background(), "s3cret-pass")
	require.NoError(t, err)

	assert.Equal(t, 15, res.Categories)
	assert.Equal(t, 10, res.Books)
	assert.True(t, res.Admin)
	assert.Len(t, categories, 15)

	dune := books["978-0-441-01394-0"]
	require.NotNil(t, dune)
	assert.Equal(t, "16.99", dune.Price.StringFixed(2))
	assert.Equal(t, 15, dune.DiscountPercentage())
	assert.True(t, dune.IsActive)
	require.NotNil(t, dune.PublishedDate)
	assert.Equal(t, 1965, dune.PublishedDate.Year())

	gatsby := books["978-0-7432-7357-2"]
	require.NotNil(t, gatsby)
	assert.Equal(t, domain.DefaultBookImage, gatsby.Image)

	admin := users["admin@bookstore.com"]
	require.NotNil(t, admin)
	assert.Equal(t, domain.RoleAdmin, admin.Role)
	assert.True(t, auth.CheckPassword("s3cret-pass", admin.PasswordHash))
}

func TestSeeder_RunIsIdempotent(t *testing.T) {
	s, books, _, _ := newSeeder()
	ctx := context.Background()

	_, err := s.Run(ctx, "s3cret-pass")
	require.NoError(t, err)
	books["978-0-441-01394-0"].Stock = 1

	res, err := s.Run(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
	assert.Equal(t, 1, books["978-0-441-01394-0"].Stock)
}

func TestSeeder_RunRejectsShortAdminPassword(t *testing.T) {
	s, _, _, users := newSeeder()

	_, err := s.Run(context.Background(), "123")
	require.Error(t, err)
	assert.Empty(t, users)
}
