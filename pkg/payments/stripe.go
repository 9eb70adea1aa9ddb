// Package payments contains HTTP clients for the hosted checkout providers.
// The providers are invoked, never re-implemented: each client builds a
// checkout session and returns the provider's hosted redirect URL unmodified.
package payments

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// CheckoutParams describes one payment session request.
type CheckoutParams struct {
	AmountCents int64
	Currency    string // ISO code, e.g. "CAD"
	Description string
	SuccessURL  string
	CancelURL   string
}

// StripeClient creates Stripe Checkout sessions.
type StripeClient struct {
	apiURL    string
	secretKey string
	client    *http.Client
	logger    *logrus.Logger
}

// StripeConfig holds Stripe API configuration
type StripeConfig struct {
	APIURL    string
	SecretKey string
}

// NewStripeClient creates a new Stripe API client
func NewStripeClient(config StripeConfig, logger *logrus.Logger) *StripeClient {
	apiURL := strings.TrimRight(config.APIURL, "/")
	if apiURL == "" {
		apiURL = "https://api.stripe.com"
	}

	return &StripeClient{
		apiURL:    apiURL,
		secretKey: config.SecretKey,
		logger:    logger,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type stripeSessionResponse struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// CreateSession creates a hosted Stripe Checkout session and returns its URL.
func (c *StripeClient) CreateSession(params CheckoutParams) (string, error) {
	if c.secretKey == "" {
		return "", fmt.Errorf("stripe not configured: missing secret key")
	}
	if params.AmountCents <= 0 {
		return "", fmt.Errorf("stripe checkout requires a positive amount")
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", params.SuccessURL)
	form.Set("cancel_url", params.CancelURL)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", strings.ToLower(params.Currency))
	form.Set("line_items[0][price_data][product_data][name]", params.Description)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(params.AmountCents, 10))

	req, err := http.NewRequest(http.MethodPost, c.apiURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build stripe request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("stripe request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read stripe response: %w", err)
	}

	var parsed stripeSessionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse stripe response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := string(body)
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return "", fmt.Errorf("stripe checkout failed: %d %s", resp.StatusCode, msg)
	}

	if parsed.URL == "" {
		return "", fmt.Errorf("stripe checkout succeeded but returned no URL")
	}

	c.logger.WithFields(logrus.Fields{
		"session_id": parsed.ID,
		"amount":     params.AmountCents,
		"currency":   params.Currency,
	}).Info("Stripe checkout session created")

	return parsed.URL, nil
}

// GetName returns the provider name
func (c *StripeClient) GetName() string {
	return "stripe"
}
