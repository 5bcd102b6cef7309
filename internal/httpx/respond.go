package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/bookstore-api/internal/domain"
)

const maxBodyBytes = 1 << 20

// Envelope is the `{success, ...}` response body shared by every endpoint.
type Envelope map[string]any

func WriteJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		Logger(r.Context()).Error("failed to encode response", "error", err)
	}
}

// OK writes a success envelope; fields are merged next to "success": true.
func OK(w http.ResponseWriter, r *http.Request, status int, fields Envelope) {
	body := Envelope{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	WriteJSON(w, r, status, body)
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, message string) {
	WriteJSON(w, r, status, Envelope{"success": false, "error": message})
}

// Fail maps err onto the error taxonomy. Unknown errors are logged and
// reported as `fallback` with a 500.
func Fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var validation *domain.ValidationError
	if errors.As(err, &validation) {
		WriteJSON(w, r, http.StatusBadRequest, Envelope{
			"success": false,
			"error":   validation.Error(),
			"errors":  validation.Fields,
		})
		return
	}

	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		Logger(r.Context()).Error(fallback, "error", err, "method", r.Method, "path", r.URL.Path)
		WriteError(w, r, status, fallback)
		return
	}
	WriteError(w, r, status, publicMessage(err))
}

func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrDuplicateReview),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// publicMessage returns the caller-facing text of a known error, capitalised
// the way the storefront displays it.
func publicMessage(err error) string {
	var notFound *domain.NotFoundError
	if errors.As(err, &notFound) {
		return capitalize(notFound.Error())
	}
	var stock *domain.InsufficientStockError
	if errors.As(err, &stock) {
		return stock.Error()
	}
	var conflict *domain.ConflictError
	if errors.As(err, &conflict) {
		return conflict.Error()
	}
	var unauthorized *domain.UnauthorizedError
	if errors.As(err, &unauthorized) {
		return unauthorized.Error()
	}
	var transition *domain.TransitionError
	if errors.As(err, &transition) {
		return transition.Error()
	}
	for _, known := range []error{
		domain.ErrForbidden, domain.ErrUnauthorized, domain.ErrInvalidCredentials,
		domain.ErrInvalidTransition, domain.ErrInsufficientStock, domain.ErrDuplicateReview,
		domain.ErrInvalidQuantity, domain.ErrEmptyCart, domain.ErrNotFound,
	} {
		if errors.Is(err, known) {
			return capitalize(known.Error())
		}
	}
	return capitalize(err.Error())
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

// Decode reads a JSON body into dst. An empty body leaves dst untouched.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return domain.Invalid("body", "invalid request body")
	}
	return nil
}

// Logger returns the request-scoped logger stored by WithRequestID, falling
// back to the default logger.
func Logger(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerCtxKey).(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}
