package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("access denied")
	ErrUnauthorized       = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidTransition  = errors.New("invalid order status transition")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrDuplicateReview    = errors.New("you have already reviewed this book")
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrAlreadyExists      = errors.New("already exists")
	ErrValidation         = errors.New("validation failed")
)

// NotFoundError names the missing entity, e.g. "book not found" or, with a
// scope, "item not found in cart".
type NotFoundError struct {
	Entity string
	Scope  string
}

func NewNotFound(entity string) *NotFoundError {
	return &NotFoundError{Entity: entity}
}

func (e *NotFoundError) Error() string {
	if e.Scope != "" {
		return e.Entity + " not found in " + e.Scope
	}
	return e.Entity + " not found"
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// ConflictError reports a uniqueness violation with a caller-facing message.
type ConflictError struct {
	Message string
}

func Conflict(message string) *ConflictError {
	return &ConflictError{Message: message}
}

func (e *ConflictError) Error() string {
	return e.Message
}

func (e *ConflictError) Unwrap() error {
	return ErrAlreadyExists
}

// UnauthorizedError is an authentication failure with a specific message,
// e.g. "Invalid token".
type UnauthorizedError struct {
	Message string
}

func Unauthorized(message string) *UnauthorizedError {
	return &UnauthorizedError{Message: message}
}

func (e *UnauthorizedError) Error() string {
	return e.Message
}

func (e *UnauthorizedError) Unwrap() error {
	return ErrUnauthorized
}

// InsufficientStockError is returned when a book cannot cover a requested quantity.
type InsufficientStockError struct {
	Title string
}

func (e *InsufficientStockError) Error() string {
	if e.Title == "" {
		return "Insufficient stock"
	}
	return "Insufficient stock for " + e.Title
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// TransitionError rejects a status change out of a terminal order status.
type TransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *TransitionError) Error() string {
	if e.To == OrderStatusCancelled {
		return "Order cannot be cancelled"
	}
	return fmt.Sprintf("Order status cannot change from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every malformed field of a request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Err returns nil when no field failed, so callers can `return v.Err()`.
func (e *ValidationError) Err() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		return e.Fields[0].Message
	}
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(msgs, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Invalid builds a single-field validation error.
func Invalid(field, message string) error {
	v := &ValidationError{}
	v.Add(field, message)
	return v
}
