package email

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/joao-fontenele/bookstore-api/internal/domain"
	"github.com/joao-fontenele/bookstore-api/internal/httpx"
)

// Message is the body of POST /send.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (m Message) Validate() error {
	v := &domain.ValidationError{}
	if !domain.ValidEmail(strings.TrimSpace(m.To)) {
		v.Add("to", "A valid recipient is required")
	}
	if strings.TrimSpace(m.Subject) == "" {
		v.Add("subject", "Subject is required")
	}
	if strings.TrimSpace(m.Body) == "" {
		v.Add("body", "Body is required")
	}
	return v.Err()
}

// Handler is a relay stub: accepted mail is logged, not delivered.
type Handler struct {
	logger *slog.Logger
}

func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{logger: logger}
}

func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	var msg Message
	if err := httpx.Decode(r, &msg); err != nil {
		httpx.Fail(w, r, err, "Error sending email")
		return
	}
	if err := msg.Validate(); err != nil {
		httpx.Fail(w, r, err, "Error sending email")
		return
	}

	h.logger.Info("email sent", "to", msg.To, "subject", msg.Subject, "request_id", httpx.RequestID(r.Context()))
	httpx.OK(w, r, http.StatusOK, httpx.Envelope{"status": "sent"})
}

func (h *Handler) Register(mux *http.ServeMux, wrap func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("POST /send", wrap(h.HandleSend))
}
