package mail

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ResendGateway sends email via the Resend HTTP API.
type ResendGateway struct {
	apiURL   string
	apiKey   string
	from     string
	fromName string
	client   *http.Client
}

// ResendConfig holds configuration for the Resend gateway
type ResendConfig struct {
	APIURL   string
	APIKey   string
	From     string // verified sender address
	FromName string
}

// NewResendGateway creates a new Resend mail gateway client
func NewResendGateway(config ResendConfig) *ResendGateway {
	apiURL := strings.TrimRight(config.APIURL, "/")
	if apiURL == "" {
		apiURL = "https://api.resend.com"
	}

	return &ResendGateway{
		apiURL:   apiURL,
		apiKey:   config.APIKey,
		from:     config.From,
		fromName: config.FromName,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// sendRequest is the Resend /emails request body
type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text,omitempty"`
	HTML    string   `json:"html,omitempty"`
}

// sendResponse is the Resend /emails response body
type sendResponse struct {
	ID    string `json:"id"`
	Error *struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Send delivers a message through the Resend API
func (g *ResendGateway) Send(msg Message) error {
	to := make([]string, 0, len(msg.To))
	for _, addr := range msg.To {
		if strings.TrimSpace(addr) != "" {
			to = append(to, strings.TrimSpace(addr))
		}
	}
	if len(to) == 0 {
		return fmt.Errorf("missing recipient")
	}

	if g.apiKey == "" {
		return fmt.Errorf("mail gateway not configured: missing API key")
	}

	from := g.from
	if g.fromName != "" {
		from = fmt.Sprintf("%s <%s>", g.fromName, g.from)
	}

	body, err := json.Marshal(sendRequest{
		From:    from,
		To:      to,
		Subject: msg.Subject,
		Text:    msg.Text,
		HTML:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal mail request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, g.apiURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("mail send failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("mail send failed: %d %s", resp.StatusCode, string(respBody))
	}

	var parsed sendResponse
	if err := json.Unmarshal(respBody, &parsed); err == nil && parsed.Error != nil {
		return fmt.Errorf("mail send failed: %s", parsed.Error.Message)
	}

	return nil
}

// GetName returns the gateway name
func (g *ResendGateway) GetName() string {
	return "resend"
}
