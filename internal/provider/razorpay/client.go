package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"registration-service/config"
	"registration-service/pkg/xerrors"
)

// Order is the gateway's view of a created order.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"` // minor unit
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Client talks to the payment gateway's REST API. Every call carries the
// configured timeout; a timeout is a retryable failure, never a success.
type Client struct {
	keyID     string
	keySecret string
	baseURL   string
	httpc     *http.Client
	logger    *zap.Logger
}

func NewClient(cfg config.RazorpayConfig, logger *zap.Logger) *Client {
	return &Client{
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		baseURL:   cfg.BaseURL,
		httpc:     &http.Client{Timeout: cfg.Timeout},
		logger:    logger,
	}
}

// KeyID is handed to browser checkout along with the order id.
func (c *Client) KeyID() string { return c.keyID }

// CreateOrder registers an order for the exact minor-unit amount.
func (c *Client) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (*Order, error) {
	payload, err := json.Marshal(map[string]any{
		"amount":   amountMinor,
		"currency": currency,
		"receipt":  receipt,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpc.Do(req)
	if err != nil {
		// Timeouts land here too; the caller sees a retryable failure and
		// the account stays unpaid.
		c.logger.Error("gateway order request failed", zap.Error(err))
		return nil, xerrors.ErrGatewayUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error("gateway rejected order",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body))
		return nil, fmt.Errorf("gateway returned %d: %w", resp.StatusCode, xerrors.ErrGatewayUnavailable)
	}

	var order Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("decoding order response: %w", err)
	}
	if order.ID == "" {
		return nil, fmt.Errorf("gateway returned order without id: %w", xerrors.ErrGatewayUnavailable)
	}
	return &order, nil
}

// VerifySignature recomputes the callback HMAC over "orderID|paymentID" and
// compares it byte for byte with the supplied hex signature.
func (c *Client) VerifySignature(orderID, paymentID, signature string) bool {
	return VerifySignature(c.keySecret, orderID, paymentID, signature)
}
