package payments

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// PayPalClient creates PayPal Orders (v2) and returns the approval URL.
type PayPalClient struct {
	apiBase  string
	clientID string
	secret   string
	client   *http.Client
	logger   *logrus.Logger
}

// PayPalConfig holds PayPal API configuration
type PayPalConfig struct {
	APIBase  string
	ClientID string
	Secret   string
}

// NewPayPalClient creates a new PayPal API client
func NewPayPalClient(config PayPalConfig, logger *logrus.Logger) *PayPalClient {
	apiBase := strings.TrimRight(config.APIBase, "/")
	if apiBase == "" {
		apiBase = "https://api-m.paypal.com"
	}

	return &PayPalClient{
		apiBase:  apiBase,
		clientID: config.ClientID,
		secret:   config.Secret,
		logger:   logger,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type paypalTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Error       string `json:"error,omitempty"`
	ErrorDesc   string `json:"error_description,omitempty"`
}

type paypalOrderRequest struct {
	Intent             string               `json:"intent"`
	PurchaseUnits      []paypalPurchaseUnit `json:"purchase_units"`
	ApplicationContext paypalAppContext     `json:"application_context"`
}

type paypalPurchaseUnit struct {
	Amount      paypalAmount `json:"amount"`
	Description string       `json:"description,omitempty"`
}

type paypalAmount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type paypalAppContext struct {
	ReturnURL string `json:"return_url"`
	CancelURL string `json:"cancel_url"`
}

type paypalOrderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Links  []struct {
		Href string `json:"href"`
		Rel  string `json:"rel"`
	} `json:"links"`
	Message string `json:"message,omitempty"`
}

// getAccessToken exchanges client credentials for a bearer token
func (c *PayPalClient) getAccessToken() (string, error) {
	req, err := http.NewRequest(http.MethodPost, c.apiBase+"/v1/oauth2/token",
		strings.NewReader("grant_type=client_credentials"))
	if err != nil {
		return "", fmt.Errorf("failed to build paypal token request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("paypal token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read paypal token response: %w", err)
	}

	var parsed paypalTokenResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse paypal token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || parsed.AccessToken == "" {
		msg := parsed.ErrorDesc
		if msg == "" {
			msg = string(body)
		}
		return "", fmt.Errorf("paypal authentication failed: %d %s", resp.StatusCode, msg)
	}

	return parsed.AccessToken, nil
}

// CreateSession creates a CAPTURE order and returns the buyer approval URL.
func (c *PayPalClient) CreateSession(params CheckoutParams) (string, error) {
	if c.clientID == "" || c.secret == "" {
		return "", fmt.Errorf("paypal not configured: missing client credentials")
	}
	if params.AmountCents <= 0 {
		return "", fmt.Errorf("paypal order requires a positive amount")
	}

	token, err := c.getAccessToken()
	if err != nil {
		return "", err
	}

	orderReq := paypalOrderRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []paypalPurchaseUnit{{
			Amount: paypalAmount{
				CurrencyCode: strings.ToUpper(params.Currency),
				Value:        fmt.Sprintf("%.2f", float64(params.AmountCents)/100),
			},
			Description: params.Description,
		}},
		ApplicationContext: paypalAppContext{
			ReturnURL: params.SuccessURL,
			CancelURL: params.CancelURL,
		},
	}

	body, err := json.Marshal(orderReq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal paypal order: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.apiBase+"/v2/checkout/orders", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build paypal order request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("paypal order request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read paypal order response: %w", err)
	}

	var parsed paypalOrderResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse paypal order response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := parsed.Message
		if msg == "" {
			msg = string(respBody)
		}
		return "", fmt.Errorf("paypal order failed: %d %s", resp.StatusCode, msg)
	}

	for _, link := range parsed.Links {
		if link.Rel == "approve" {
			c.logger.WithFields(logrus.Fields{
				"order_id": parsed.ID,
				"amount":   params.AmountCents,
				"currency": params.Currency,
			}).Info("PayPal order created")
			return link.Href, nil
		}
	}

	return "", fmt.Errorf("paypal order succeeded but returned no approval link")
}

// GetName returns the provider name
func (c *PayPalClient) GetName() string {
	return "paypal"
}
