package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/bookstore-api/internal/domain"
	"github.com/joao-fontenele/bookstore-api/internal/messaging"
)

func newEvent(t *testing.T, typ domain.OrderEventType) messaging.Message {
	t.Helper()
	event := domain.OrderEvent{
		Type:        typ,
		OrderID:     "o1",
		OrderNumber: "BK-20261016-ABCDEF12",
		Email:       "ada@example.com",
		FirstName:   "Ada",
		Items: []domain.OrderItem{
			{Title: "Dune", Price: decimal.RequireFromString("20.00"), Quantity: 2},
		},
		Total:     decimal.RequireFromString("43.19"),
		Timestamp: time.Now(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return messaging.Message{Key: "o1", EventType: string(typ), Payload: data}
}

func newTestHandler(url string) *Handler {
	return NewHandler(url, &http.Client{Timeout: time.Second}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHandler_Handle(t *testing.T) {
	t.Run("sends confirmation for placed orders", func(t *testing.T) {
		var got mail
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/send" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			_ = json.NewDecoder(r.Body).Decode(&got)
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		if err := newTestHandler(srv.URL).Handle(context.Background(), newEvent(t, domain.OrderPlaced)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.To != "ada@example.com" || !strings.Contains(got.Subject, "Order Confirmation") {
			t.Errorf("unexpected mail: %+v", got)
		}
		if !strings.Contains(got.Body, "2 x Dune  40.00") || !strings.Contains(got.Body, "Total: 43.19") {
			t.Errorf("unexpected body: %q", got.Body)
		}
	})

	t.Run("sends cancellation notice", func(t *testing.T) {
		var got mail
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&got)
		}))
		defer srv.Close()

		if err := newTestHandler(srv.URL).Handle(context.Background(), newEvent(t, domain.OrderCancelled)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.HasPrefix(got.Subject, "Order Cancelled") {
			t.Errorf("unexpected subject %q", got.Subject)
		}
	})

	t.Run("malformed payload is permanent", func(t *testing.T) {
		err := newTestHandler("http://unused").Handle(context.Background(), messaging.Message{Payload: []byte("{")})
		if !errors.Is(err, messaging.ErrPermanent) {
			t.Errorf("expected permanent error, got %v", err)
		}
	})

	t.Run("unknown event types are ignored", func(t *testing.T) {
		err := newTestHandler("http://unused").Handle(context.Background(), messaging.Message{Payload: []byte(`{"type":"order.shipped"}`)})
		if err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	t.Run("server errors are retried", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		err := newTestHandler(srv.URL).Handle(context.Background(), newEvent(t, domain.OrderPlaced))
		if err == nil || errors.Is(err, messaging.ErrPermanent) {
			t.Errorf("expected transient error, got %v", err)
		}
	})

	t.Run("rejected mail is permanent", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer srv.Close()

		err := newTestHandler(srv.URL).Handle(context.Background(), newEvent(t, domain.OrderPlaced))
		if !errors.Is(err, messaging.ErrPermanent) {
			t.Errorf("expected permanent error, got %v", err)
		}
	})
}
