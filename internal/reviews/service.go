package reviews

import (
	"context"
	"strings"

	"github.com/joao-fontenele/bookstore-api/internal/domain"
	"github.com/joao-fontenele/bookstore-api/internal/telemetry"
)

// Tx is the unit of work of one review mutation. The write and the rating
// recomputation it triggers commit together.
type Tx interface {
	Create(ctx context.Context, rv *domain.Review) error
	Update(ctx context.Context, rv *domain.Review) error
	Delete(ctx context.Context, id string) error
	RecomputeRating(ctx context.Context, bookID string) error
}

type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	GetByID(ctx context.Context, id string) (*domain.Review, error)
	Exists(ctx context.Context, bookID, userID string) (bool, error)
	ByBook(ctx context.Context, bookID string) ([]domain.Review, error)
	ByUser(ctx context.Context, userID string) ([]domain.Review, error)
	List(ctx context.Context, page domain.Page) ([]domain.Review, int, error)
}

type BookStore interface {
	GetByID(ctx context.Context, id string) (*domain.Book, error)
}

type Service struct {
	reviews Store
	books   BookStore
	metrics *telemetry.Instruments
}

func NewService(reviews Store, books BookStore, metrics *telemetry.Instruments) *Service {
	return &Service{
		reviews: reviews,
		books:   books,
		metrics: metrics,
	}
}

type CreateInput struct {
	BookID  string `json:"book_id"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// Create adds the user's single review of a book.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*domain.Review, error) {
	in.Comment = strings.TrimSpace(in.Comment)
	if err := domain.ValidateReview(in.Rating, in.Comment); err != nil {
		return nil, err
	}

	book, err := s.books.GetByID(ctx, in.BookID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, domain.NewNotFound("book")
	}
	exists, err := s.reviews.Exists(ctx, in.BookID, userID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrDuplicateReview
	}

	review := &domain.Review{
		BookID:  in.BookID,
		UserID:  userID,
		Rating:  in.Rating,
		Comment: in.Comment,
	}
	err = s.mutate(ctx, review.BookID, func(tx Tx) error {
		return tx.Create(ctx, review)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ReviewWritten(ctx, review.Rating)
	return s.reload(ctx, review)
}

type UpdateInput struct {
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
}

// Update changes the provided fields of the user's own review.
func (s *Service) Update(ctx context.Context, reviewID, userID string, in UpdateInput) (*domain.Review, error) {
	review, err := s.owned(ctx, reviewID, userID)
	if err != nil {
		return nil, err
	}

	if in.Rating != nil {
		review.Rating = *in.Rating
	}
	if in.Comment != nil {
		review.Comment = strings.TrimSpace(*in.Comment)
	}
	if err := domain.ValidateReview(review.Rating, review.Comment); err != nil {
		return nil, err
	}

	err = s.mutate(ctx, review.BookID, func(tx Tx) error {
		return tx.Update(ctx, review)
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, review)
}

// Delete removes the user's own review.
func (s *Service) Delete(ctx context.Context, reviewID, userID string) error {
	review, err := s.owned(ctx, reviewID, userID)
	if err != nil {
		return err
	}
	return s.remove(ctx, review)
}

// DeleteAny removes a review regardless of its author.
func (s *Service) DeleteAny(ctx context.Context, reviewID string) error {
	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return err
	}
	if review == nil {
		return domain.NewNotFound("review")
	}
	return s.remove(ctx, review)
}

func (s *Service) remove(ctx context.Context, review *domain.Review) error {
	return s.mutate(ctx, review.BookID, func(tx Tx) error {
		return tx.Delete(ctx, review.ID)
	})
}

// mutate runs write and then recomputes bookID's rating and reviewCount in
// the same transaction.
func (s *Service) mutate(ctx context.Context, bookID string, write func(tx Tx) error) error {
	return s.reviews.WithTx(ctx, func(tx Tx) error {
		if err := write(tx); err != nil {
			return err
		}
		return tx.RecomputeRating(ctx, bookID)
	})
}

func (s *Service) owned(ctx context.Context, reviewID, userID string) (*domain.Review, error) {
	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review == nil {
		return nil, domain.NewNotFound("review")
	}
	if review.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return review, nil
}

// reload fetches the stored review with its reviewer and book summaries.
func (s *Service) reload(ctx context.Context, review *domain.Review) (*domain.Review, error) {
	stored, err := s.reviews.GetByID(ctx, review.ID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return review, nil
	}
	return stored, nil
}

func (s *Service) ByBook(ctx context.Context, bookID string) ([]domain.Review, error) {
	return s.reviews.ByBook(ctx, bookID)
}

func (s *Service) ByUser(ctx context.Context, userID string) ([]domain.Review, error) {
	return s.reviews.ByUser(ctx, userID)
}

func (s *Service) List(ctx context.Context, page domain.Page) ([]domain.Review, int, error) {
	return s.reviews.List(ctx, page)
}
