package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/joao-fontenele/bookstore-api/internal/auth"
	"github.com/joao-fontenele/bookstore-api/internal/domain"
)

//go:embed data.yaml
var sampleData []byte

type bookRecord struct {
	ISBN          string `yaml:"isbn"`
	Title         string `yaml:"title"`
	Author        string `yaml:"author"`
	Publisher     string `yaml:"publisher"`
	Category      string `yaml:"category"`
	Description   string `yaml:"description"`
	Price         string `yaml:"price"`
	OriginalPrice string `yaml:"originalPrice"`
	Stock         int    `yaml:"stock"`
	Image         string `yaml:"image"`
	PublishedDate string `yaml:"publishedDate"`
	Pages         int    `yaml:"pages"`
}

type adminRecord struct {
	FirstName string `yaml:"firstName"`
	LastName  string `yaml:"lastName"`
	Email     string `yaml:"email"`
	Phone     string `yaml:"phone"`
}

type dataset struct {
	Categories []domain.Category `yaml:"categories"`
	Books      []bookRecord      `yaml:"books"`
	Admin      adminRecord       `yaml:"admin"`
}

func (r bookRecord) book() (domain.Book, error) {
	price, err := decimal.NewFromString(r.Price)
	if err != nil {
		return domain.Book{}, fmt.Errorf("book %s price: %w", r.ISBN, err)
	}
	original := decimal.Zero
	if r.OriginalPrice != "" {
		if original, err = decimal.NewFromString(r.OriginalPrice); err != nil {
			return domain.Book{}, fmt.Errorf("book %s original price: %w", r.ISBN, err)
		}
	}
	b := domain.Book{
		ISBN:          r.ISBN,
		Title:         r.Title,
		Author:        r.Author,
		Publisher:     r.Publisher,
		Category:      r.Category,
		Description:   r.Description,
		Price:         price,
		OriginalPrice: original,
		Stock:         r.Stock,
		Image:         r.Image,
		Pages:         r.Pages,
		IsActive:      true,
	}
	if r.PublishedDate != "" {
		published, err := time.Parse(time.DateOnly, r.PublishedDate)
		if err != nil {
			return domain.Book{}, fmt.Errorf("book %s published date: %w", r.ISBN, err)
		}
		b.PublishedDate = &published
	}
	b.ApplyDefaults()
	return b, b.Validate()
}

type BookStore interface {
	GetByISBN(ctx context.Context, isbn string) (*domain.Book, error)
	Create(ctx context.Context, b *domain.Book) error
}

type CategoryStore interface {
	Create(ctx context.Context, c *domain.Category) error
}

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
}

// Result counts the rows a run inserted.
type Result struct {
	Categories int
	Books      int
	Admin      bool
}

type Seeder struct {
	books      BookStore
	categories CategoryStore
	users      UserStore
	logger     *slog.Logger
}

func NewSeeder(books BookStore, categories CategoryStore, users UserStore, logger *slog.Logger) *Seeder {
	return &Seeder{books: books, categories: categories, users: users, logger: logger}
}

// Run inserts the sample catalog and an admin account. Rows that already
// exist (same slug, isbn or email) are left alone, so Run can be repeated.
func (s *Seeder) Run(ctx context.Context, adminPassword string) (Result, error) {
	var res Result
	var data dataset
	if err := yaml.Unmarshal(sampleData, &data); err != nil {
		return res, fmt.Errorf("parse sample data: %w", err)
	}

	for _, c := range data.Categories {
		c.Normalize()
		err := s.categories.Create(ctx, &c)
		if errors.Is(err, domain.ErrAlreadyExists) {
			continue
		}
		if err != nil {
			return res, fmt.Errorf("seed category %s: %w", c.Slug, err)
		}
		res.Categories++
	}

	for _, rec := range data.Books {
		book, err := rec.book()
		if err != nil {
			return res, err
		}
		existing, err := s.books.GetByISBN(ctx, book.ISBN)
		if err != nil {
			return res, fmt.Errorf("look up book %s: %w", book.ISBN, err)
		}
		if existing != nil {
			continue
		}
		if err := s.books.Create(ctx, &book); err != nil {
			return res, fmt.Errorf("seed book %s: %w", book.ISBN, err)
		}
		res.Books++
	}

	created, err := s.seedAdmin(ctx, data.Admin, adminPassword)
	if err != nil {
		return res, err
	}
	res.Admin = created

	s.logger.Info("seed complete", "categories", res.Categories, "books", res.Books, "admin_created", res.Admin)
	return res, nil
}

func (s *Seeder) seedAdmin(ctx context.Context, rec adminRecord, password string) (bool, error) {
	email := domain.NormalizeEmail(rec.Email)
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return false, fmt.Errorf("look up admin: %w", err)
	}
	if existing != nil {
		return false, nil
	}
	if len(password) < domain.MinPasswordLength {
		return false, fmt.Errorf("admin password must be at least %d characters", domain.MinPasswordLength)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, err
	}
	admin := &domain.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    rec.FirstName,
		LastName:     rec.LastName,
		Phone:        rec.Phone,
		Avatar:       domain.AvatarFor(rec.FirstName, rec.LastName),
		Role:         domain.RoleAdmin,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}
	return true, nil
}
