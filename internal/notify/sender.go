package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/doctrack/internal/routing"
)

// LogSender writes notifications to the structured log. It is the sender used
// when no webhook is configured.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(ctx context.Context, n routing.Notification) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger.InfoContext(ctx, "notification",
		"event", n.Event,
		"office_id", n.OfficeID,
		"document_no", n.DocumentNo,
		"transaction_no", n.TransactionNo,
		"message", n.Message,
	)

	return nil
}

type WebhookSender struct {
	url    string
	secret string
	client *http.Client
}

func NewWebhookSender(url, secret string, timeout time.Duration) *WebhookSender {
	return &WebhookSender{
		url:    url,
		secret: secret,
		client: &http.Client{Timeout: timeout},
	}
}

type webhookPayload struct {
	Event         string    `json:"event"`
	OfficeID      string    `json:"office_id"`
	DocumentNo    string    `json:"document_no"`
	TransactionNo string    `json:"transaction_no,omitempty"`
	Subject       string    `json:"subject"`
	Message       string    `json:"message"`
	ActorOffice   string    `json:"actor_office,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Send posts the notification as JSON. Any non-2xx response is an error.
func (s *WebhookSender) Send(ctx context.Context, n routing.Notification) error {
	data, err := json.Marshal(webhookPayload{
		Event:         string(n.Event),
		OfficeID:      n.OfficeID,
		DocumentNo:    n.DocumentNo,
		TransactionNo: n.TransactionNo,
		Subject:       n.Subject,
		Message:       n.Message,
		ActorOffice:   n.ActorOffice,
		CreatedAt:     n.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("encoding notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Doctrack-Event", string(n.Event))

	if strings.TrimSpace(s.secret) != "" {
		req.Header.Set("X-Doctrack-Secret", s.secret)
	}

	res, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting notification: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return fmt.Errorf("webhook status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	return nil
}
