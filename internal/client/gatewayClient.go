package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"sportzone/internal/config"
	"sportzone/internal/model"
)

// GatewayCredentials authenticate one shop against the payment gateway.
type GatewayCredentials struct {
	ShopID    string
	SecretKey string
}

type GatewayClient interface {
	CreatePayment(ctx context.Context, creds GatewayCredentials, req *model.GatewayPaymentRequest, idempotenceKey string) (*model.GatewayPayment, error)
	GetPayment(ctx context.Context, creds GatewayCredentials, paymentID string) (*model.GatewayPayment, error)
}

type gatewayClientImpl struct {
	httpClient *http.Client
	baseApiURL string
}

func NewGatewayClient(cfg *config.Gateway) GatewayClient {
	return &gatewayClientImpl{
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		baseApiURL: cfg.BaseApiURL,
	}
}

func (c *gatewayClientImpl) CreatePayment(ctx context.Context, creds GatewayCredentials, payload *model.GatewayPaymentRequest, idempotenceKey string) (*model.GatewayPayment, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal req payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseApiURL+"/payments", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.SetBasicAuth(creds.ShopID, creds.SecretKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotence-Key", idempotenceKey)

	var payment model.GatewayPayment
	if err := c.do(req, &payment); err != nil {
		return nil, err
	}
	if payment.Confirmation.ConfirmationURL == "" {
		return nil, fmt.Errorf("gateway payment %s has no confirmation url", payment.ID)
	}
	return &payment, nil
}

func (c *gatewayClientImpl) GetPayment(ctx context.Context, creds GatewayCredentials, paymentID string) (*model.GatewayPayment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseApiURL+"/payments/"+paymentID, nil)
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.SetBasicAuth(creds.ShopID, creds.SecretKey)

	var payment model.GatewayPayment
	if err := c.do(req, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

func (c *gatewayClientImpl) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		var gerr model.GatewayError
		if json.Unmarshal(b, &gerr) == nil && gerr.Description != "" {
			return fmt.Errorf("gateway error %d (%s): %s", resp.StatusCode, gerr.Code, gerr.Description)
		}
		return fmt.Errorf("gateway error %d: %s", resp.StatusCode, string(b))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gateway response: %w", err)
	}
	return nil
}
