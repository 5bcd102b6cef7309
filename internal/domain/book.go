package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultBookImage = "https://images.unsplash.com/photo-1544716278-ca5e3f4abd8c?w=300&h=400&fit=crop"
	DefaultLanguage  = "English"
)

type Book struct {
	ID            string          `json:"id"`
	ISBN          string          `json:"isbn"`
	Title         string          `json:"title"`
	Author        string          `json:"author"`
	Publisher     string          `json:"publisher"`
	Category      string          `json:"category"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"originalPrice"`
	Stock         int             `json:"stock"`
	Image         string          `json:"image"`
	Rating        float64         `json:"rating"`
	ReviewCount   int             `json:"reviewCount"`
	PublishedDate *time.Time      `json:"publishedDate,omitempty"`
	Pages         int             `json:"pages,omitempty"`
	Language      string          `json:"language"`
	IsActive      bool            `json:"isActive"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// DiscountPercentage is the rounded markdown from OriginalPrice, or 0 when the
// book is not discounted.
func (b Book) DiscountPercentage() int {
	if !b.OriginalPrice.IsPositive() || !b.OriginalPrice.GreaterThan(b.Price) {
		return 0
	}
	pct := b.OriginalPrice.Sub(b.Price).Div(b.OriginalPrice).Mul(decimal.NewFromInt(100))
	return int(pct.Round(0).IntPart())
}

func (b Book) MarshalJSON() ([]byte, error) {
	type alias Book
	return json.Marshal(struct {
		alias
		DiscountPercentage int `json:"discountPercentage"`
	}{alias(b), b.DiscountPercentage()})
}

// ApplyDefaults fills the optional fields a freshly created book falls back to.
func (b *Book) ApplyDefaults() {
	b.ISBN = strings.TrimSpace(b.ISBN)
	b.Title = strings.TrimSpace(b.Title)
	b.Author = strings.TrimSpace(b.Author)
	b.Publisher = strings.TrimSpace(b.Publisher)
	b.Category = strings.TrimSpace(b.Category)
	if b.Image == "" {
		b.Image = DefaultBookImage
	}
	if b.Language == "" {
		b.Language = DefaultLanguage
	}
}

func (b Book) Validate() error {
	v := &ValidationError{}
	if b.ISBN == "" {
		v.Add("isbn", "ISBN is required")
	}
	if b.Title == "" {
		v.Add("title", "Title is required")
	}
	if b.Author == "" {
		v.Add("author", "Author is required")
	}
	if b.Publisher == "" {
		v.Add("publisher", "Publisher is required")
	}
	if b.Category == "" {
		v.Add("category", "Category is required")
	}
	if strings.TrimSpace(b.Description) == "" {
		v.Add("description", "Description is required")
	}
	if b.Price.IsNegative() {
		v.Add("price", "Price must not be negative")
	}
	if b.OriginalPrice.IsNegative() {
		v.Add("originalPrice", "Original price must not be negative")
	}
	if b.Stock < 0 {
		v.Add("stock", "Stock must not be negative")
	}
	if b.Pages < 0 {
		v.Add("pages", "Pages must not be negative")
	}
	return v.Err()
}

// BookSort selects the catalog ordering.
type BookSort string

const (
	SortTitle     BookSort = "title"
	SortPriceLow  BookSort = "price-low"
	SortPriceHigh BookSort = "price-high"
	SortRating    BookSort = "rating"
	SortNewest    BookSort = "newest"
)

type BookFilter struct {
	Search     string
	Category   string
	Author     string
	Publisher  string
	Sort       BookSort
	ActiveOnly bool
	// MatchISBN widens Search to the isbn column (admin listing).
	MatchISBN bool
	Page      Page
}

// BookPatch carries the fields an admin update may change; nil means keep.
type BookPatch struct {
	Title         *string          `json:"title"`
	Author        *string          `json:"author"`
	Publisher     *string          `json:"publisher"`
	Category      *string          `json:"category"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	OriginalPrice *decimal.Decimal `json:"originalPrice"`
	Stock         *int             `json:"stock"`
	Image         *string          `json:"image"`
	PublishedDate *time.Time       `json:"publishedDate"`
	Pages         *int             `json:"pages"`
	Language      *string          `json:"language"`
	IsActive      *bool            `json:"isActive"`
}

func (p BookPatch) Apply(b *Book) {
	setString(&b.Title, p.Title)
	setString(&b.Author, p.Author)
	setString(&b.Publisher, p.Publisher)
	setString(&b.Category, p.Category)
	setString(&b.Description, p.Description)
	setString(&b.Image, p.Image)
	setString(&b.Language, p.Language)
	if p.Price != nil {
		b.Price = *p.Price
	}
	if p.OriginalPrice != nil {
		b.OriginalPrice = *p.OriginalPrice
	}
	if p.Stock != nil {
		b.Stock = *p.Stock
	}
	if p.PublishedDate != nil {
		b.PublishedDate = p.PublishedDate
	}
	if p.Pages != nil {
		b.Pages = *p.Pages
	}
	if p.IsActive != nil {
		b.IsActive = *p.IsActive
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}
