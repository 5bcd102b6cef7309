package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/joao-fontenele/bookstore-api/internal/domain"
	"github.com/joao-fontenele/bookstore-api/internal/messaging"
)

type mail struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Handler turns order events into customer emails sent through the email
// service.
type Handler struct {
	emailServiceURL string
	httpClient      *http.Client
	logger          *slog.Logger
}

func NewHandler(emailServiceURL string, client *http.Client, logger *slog.Logger) *Handler {
	return &Handler{
		emailServiceURL: strings.TrimRight(emailServiceURL, "/"),
		httpClient:      client,
		logger:          logger,
	}
}

func (h *Handler) Handle(ctx context.Context, msg messaging.Message) error {
	var event domain.OrderEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return fmt.Errorf("unmarshal order event: %v: %w", err, messaging.ErrPermanent)
	}
	if event.Type == "" {
		event.Type = domain.OrderEventType(msg.EventType)
	}

	m, ok := compose(event)
	if !ok {
		h.logger.Debug("ignoring event", "type", event.Type, "order_id", event.OrderID)
		return nil
	}
	if m.To == "" {
		h.logger.Warn("order event without recipient", "order_id", event.OrderID)
		return nil
	}

	h.logger.Info("processing order event", "type", event.Type, "order_id", event.OrderID)
	if err := h.send(ctx, m); err != nil {
		h.logger.Error("failed to send email", "error", err, "order_id", event.OrderID)
		return fmt.Errorf("send %s email: %w", event.Type, err)
	}

	h.logger.Info("email dispatched", "type", event.Type, "order_id", event.OrderID)
	return nil
}

func compose(event domain.OrderEvent) (mail, bool) {
	name := event.FirstName
	if name == "" {
		name = "there"
	}

	switch event.Type {
	case domain.OrderPlaced:
		var b strings.Builder
		fmt.Fprintf(&b, "Hi %s,\n\nThanks for your order %s.\n\n", name, event.OrderNumber)
		for _, item := range event.Items {
			fmt.Fprintf(&b, "  %d x %s  %s\n", item.Quantity, item.Title, item.LineTotal().StringFixed(2))
		}
		fmt.Fprintf(&b, "\nTotal: %s (cash on delivery)\n", event.Total.StringFixed(2))
		return mail{
			To:      event.Email,
			Subject: "Order Confirmation: " + event.OrderNumber,
			Body:    b.String(),
		}, true
	case domain.OrderCancelled:
		return mail{
			To:      event.Email,
			Subject: "Order Cancelled: " + event.OrderNumber,
			Body:    fmt.Sprintf("Hi %s,\n\nYour order %s has been cancelled.\n", name, event.OrderNumber),
		}, true
	}
	return mail{}, false
}

// send posts to the email service. A 4xx response will not improve on
// retry and is reported as permanent.
func (h *Handler) send(ctx context.Context, m mail) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.emailServiceURL+"/send", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return fmt.Errorf("email service returned status %d: %w", resp.StatusCode, messaging.ErrPermanent)
	default:
		return fmt.Errorf("email service returned status %d", resp.StatusCode)
	}
}
