// Package payment implements the outbound HTTP client for the payment
// provider's API.
package payment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"storefront/internal/models"

	"github.com/google/uuid"
)

// Config holds the provider credentials and endpoint.
type Config struct {
	ShopID    string
	SecretKey string
	BaseURL   string // e.g. https://api.yookassa.ru/v3
	Currency  string
}

// Client talks to the payment provider over HTTP. Every request carries a
// fresh Idempotence-Key header so the provider can deduplicate retries.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a new provider client.
func NewClient(cfg Config) *Client {
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type createPaymentRequest struct {
	Amount       models.PaymentAmount       `json:"amount"`
	Confirmation models.PaymentConfirmation `json:"confirmation"`
	Description  string                     `json:"description"`
}

// CreatePayment registers a new payment for the given amount in integer
// currency units. The description is echoed back in webhook events and is the
// only channel carrying the order reference.
func (c *Client) CreatePayment(amount int, description, returnURL string) (*models.Payment, error) {
	req := createPaymentRequest{
		Amount: models.PaymentAmount{
			Value:    fmt.Sprintf("%d.00", amount),
			Currency: c.cfg.Currency,
		},
		Confirmation: models.PaymentConfirmation{
			Type:      "redirect",
			ReturnURL: returnURL,
		},
		Description: description,
	}
	return c.post("/payments", req)
}

// CapturePayment confirms a payment awaiting capture. The provider treats a
// capture of an already captured payment as a no-op.
func (c *Client) CapturePayment(paymentID string) (*models.Payment, error) {
	return c.post("/payments/"+paymentID+"/capture", struct{}{})
}

func (c *Client) post(path string, payload interface{}) (*models.Payment, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal provider request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build provider request: %w", err)
	}
	req.SetBasicAuth(c.cfg.ShopID, c.cfg.SecretKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotence-Key", uuid.New().String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("payment provider returned status %d", resp.StatusCode)
	}

	var payment models.Payment
	if err := json.NewDecoder(resp.Body).Decode(&payment); err != nil {
		return nil, fmt.Errorf("failed to decode provider response: %w", err)
	}
	return &payment, nil
}
