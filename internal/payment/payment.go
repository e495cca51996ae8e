package payment

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Provider is the payment service, seen only through the operations the
// core needs. Checkout-session creation lives upstream.
type Provider interface {
	// Refund returns the money for the payment session behind ref.
	Refund(ctx context.Context, ref string) error
}

// HTTPProvider talks to a form-encoded provider API (Stripe-shaped).
type HTTPProvider struct {
	URL    string
	APIKey string
	Client *http.Client
}

func NewHTTPProvider(apiURL, apiKey string) *HTTPProvider {
	return &HTTPProvider{
		URL:    apiURL,
		APIKey: apiKey,
		Client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *HTTPProvider) Refund(ctx context.Context, ref string) error {
	form := url.Values{"payment_session": {ref}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL+"/refunds",
		strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.APIKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("payment api: status %d", resp.StatusCode)
	}
	return nil
}

// LogProvider is the fallback when no payment API is configured.
type LogProvider struct{}

func (LogProvider) Refund(ctx context.Context, ref string) error {
	log.Printf("[payment] refund ref=%s", ref)
	return nil
}
