package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is one (book, quantity) pairing in a user's cart, with the book
// resolved at read time.
type CartLine struct {
	UserID   string
	BookID   string
	Quantity int
	AddedAt  time.Time
	Book     Book
}

type CartItemView struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Author   string          `json:"author"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
	Quantity int             `json:"quantity"`
	Stock    int             `json:"stock"`
}

func (l CartLine) View() CartItemView {
	return CartItemView{
		ID:       l.BookID,
		Title:    l.Book.Title,
		Author:   l.Book.Author,
		Price:    l.Book.Price,
		Image:    l.Book.Image,
		Quantity: l.Quantity,
		Stock:    l.Book.Stock,
	}
}

func CartView(lines []CartLine) []CartItemView {
	out := make([]CartItemView, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.View())
	}
	return out
}
