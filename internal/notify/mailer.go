package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

type DispatchEmail struct {
	ProductName    string
	TrackingNumber string
}

type OrderEmail struct {
	ProductName string
	Amount      float64
}

// Mailer is the notification channel. It may fail independently of the
// store; callers must commit their durable write before invoking it.
type Mailer interface {
	SendDispatch(ctx context.Context, to string, e DispatchEmail) error
	SendOrderConfirmation(ctx context.Context, to string, e OrderEmail) error
}

// HTTPMailer posts to a Resend-shaped JSON API.
type HTTPMailer struct {
	URL    string
	APIKey string
	From   string
	Client *http.Client
}

func NewHTTPMailer(url, apiKey, from string) *HTTPMailer {
	return &HTTPMailer{
		URL:    url,
		APIKey: apiKey,
		From:   from,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (m *HTTPMailer) SendDispatch(ctx context.Context, to string, e DispatchEmail) error {
	subject := "Your order is on its way"
	html := fmt.Sprintf("<p>%s has been dispatched.</p><p>Tracking number: <strong>%s</strong></p>",
		e.ProductName, e.TrackingNumber)
	return m.send(ctx, to, subject, html)
}

func (m *HTTPMailer) SendOrderConfirmation(ctx context.Context, to string, e OrderEmail) error {
	subject := "Order confirmed"
	html := fmt.Sprintf("<p>We have secured %s for you (€%.2f).</p>", e.ProductName, e.Amount)
	return m.send(ctx, to, subject, html)
}

func (m *HTTPMailer) send(ctx context.Context, to, subject, html string) error {
	body, _ := json.Marshal(map[string]any{
		"from":    m.From,
		"to":      []string{to},
		"subject": subject,
		"html":    html,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+m.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("mail api: status %d", resp.StatusCode)
	}
	return nil
}

// LogMailer is the fallback when no mail API key is configured.
type LogMailer struct{}

func (LogMailer) SendDispatch(ctx context.Context, to string, e DispatchEmail) error {
	log.Printf("[mail] dispatch to=%s product=%q tracking=%s", to, e.ProductName, e.TrackingNumber)
	return nil
}

func (LogMailer) SendOrderConfirmation(ctx context.Context, to string, e OrderEmail) error {
	log.Printf("[mail] order confirmation to=%s product=%q", to, e.ProductName)
	return nil
}
