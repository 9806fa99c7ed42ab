package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client initiates mobile-money charges against the external gateway. The
// gateway pushes an STK prompt to the subscriber's phone and later confirms
// the outcome through the signed webhook.
type Client struct {
	httpClient *http.Client
	gatewayURL string
}

type initiateRequest struct {
	Amount int64  `json:"amount"`
	Phone  string `json:"phone"`
}

type initiateResponse struct {
	Status    string `json:"status"`
	Reference string `json:"reference"`
	Message   string `json:"message"`
}

func NewClient(gatewayURL string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		gatewayURL: gatewayURL,
	}
}

// InitiateCharge starts a charge and returns the gateway's order reference.
// The reference keys the payment intent until the webhook consumes it.
func (c *Client) InitiateCharge(ctx context.Context, phone string, amount int64) (string, error) {
	body, err := json.Marshal(initiateRequest{Amount: amount, Phone: phone})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gatewayURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out initiateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode gateway response: %w", err)
	}
	if out.Status != "success" || out.Reference == "" {
		if out.Message != "" {
			return "", fmt.Errorf("gateway rejected charge: %s", out.Message)
		}
		return "", fmt.Errorf("gateway rejected charge: status %q", out.Status)
	}
	return out.Reference, nil
}
