package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// Notification is the payload the email dispatch service expects. One call per
// state transition, always to the non-acting party, always best-effort.
type Notification struct {
	SenderName     string `json:"senderName"`
	RecipientName  string `json:"recipientName"`
	RecipientEmail string `json:"recipientEmail"`
	MessageText    string `json:"messageText"`
	ReplyLink      string `json:"replyLink"`
}

type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// EmailNotifier posts notifications to the email dispatch service over HTTP.
type EmailNotifier struct {
	baseURL string
	client  *http.Client
}

func NewEmailNotifier() *EmailNotifier {
	return &EmailNotifier{
		baseURL: os.Getenv("EMAIL_SERVICE_URL"),
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (e *EmailNotifier) Send(ctx context.Context, n Notification) error {
	if e.baseURL == "" {
		return fmt.Errorf("EMAIL_SERVICE_URL not configured")
	}
	if n.RecipientEmail == "" {
		return fmt.Errorf("notification has no recipient email")
	}

	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("email service returned %d", resp.StatusCode)
	}
	return nil
}
