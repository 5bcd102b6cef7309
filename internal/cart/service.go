package cart

import (
	"context"
	"slices"

	"github.com/joao-fontenele/bookstore-api/internal/domain"
)

type Store interface {
	Lines(ctx context.Context, userID string) ([]domain.CartLine, error)
	Add(ctx context.Context, userID, bookID string, quantity int) error
	SetQuantity(ctx context.Context, userID, bookID string, quantity int) (bool, error)
	Remove(ctx context.Context, userID, bookID string) error
	Clear(ctx context.Context, userID string) error
}

type BookFinder interface {
	GetByID(ctx context.Context, id string) (*domain.Book, error)
}

var errItemNotInCart = &domain.NotFoundError{Entity: "item", Scope: "cart"}

// Service implements the cart operations of the authenticated user.
type Service struct {
	store Store
	books BookFinder
}

func NewService(store Store, books BookFinder) *Service {
	return &Service{
		store: store,
		books: books,
	}
}

func (s *Service) Get(ctx context.Context, userID string) ([]domain.CartLine, error) {
	return s.store.Lines(ctx, userID)
}

// AddItem puts quantity copies of a book in the cart, merging with an
// existing line for the same book.
func (s *Service) AddItem(ctx context.Context, userID, bookID string, quantity int) ([]domain.CartLine, error) {
	if quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}
	book, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, domain.NewNotFound("book")
	}
	if book.Stock < quantity {
		return nil, &domain.InsufficientStockError{}
	}

	if err := s.store.Add(ctx, userID, bookID, quantity); err != nil {
		return nil, err
	}
	return s.store.Lines(ctx, userID)
}

func (s *Service) UpdateQuantity(ctx context.Context, userID, bookID string, quantity int) ([]domain.CartLine, error) {
	if quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}
	lines, err := s.store.Lines(ctx, userID)
	if err != nil {
		return nil, err
	}
	idx := slices.IndexFunc(lines, func(l domain.CartLine) bool { return l.BookID == bookID })
	if idx < 0 {
		return nil, errItemNotInCart
	}
	if lines[idx].Book.Stock < quantity {
		return nil, &domain.InsufficientStockError{}
	}

	found, err := s.store.SetQuantity(ctx, userID, bookID, quantity)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errItemNotInCart
	}
	lines[idx].Quantity = quantity
	return lines, nil
}

// RemoveItem succeeds whether or not the book was in the cart.
func (s *Service) RemoveItem(ctx context.Context, userID, bookID string) error {
	return s.store.Remove(ctx, userID, bookID)
}

func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.store.Clear(ctx, userID)
}
