package domain

import (
	"math"
	"strings"
	"time"
)

type Review struct {
	ID        string       `json:"id"`
	BookID    string       `json:"book"`
	UserID    string       `json:"user"`
	Rating    int          `json:"rating"`
	Comment   string       `json:"comment"`
	Reviewer  *UserSummary `json:"reviewer,omitempty"`
	BookInfo  *BookSummary `json:"bookInfo,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

type BookSummary struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Image  string `json:"image,omitempty"`
}

func ValidateReview(rating int, comment string) error {
	v := &ValidationError{}
	if rating < 1 || rating > 5 {
		v.Add("rating", "Rating must be between 1 and 5")
	}
	if strings.TrimSpace(comment) == "" {
		v.Add("comment", "Comment is required")
	}
	return v.Err()
}

// RatingSummary is the raw aggregate over every review of one book.
type RatingSummary struct {
	Average float64
	Count   int
}

// Rating is the mean rounded to one decimal place; 0 when there are no reviews.
func (s RatingSummary) Rating() float64 {
	if s.Count == 0 {
		return 0
	}
	return math.Round(s.Average*10) / 10
}
