package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sportzone/internal/config"
	"sportzone/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T, h http.HandlerFunc) GatewayClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewGatewayClient(&config.Gateway{BaseApiURL: srv.URL, RequestTimeout: 5 * time.Second})
}

func TestGatewayClient_CreatePayment(t *testing.T) {
	var got model.GatewayPaymentRequest
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/payments", r.URL.Path)
		assert.Equal(t, "idem-1", r.Header.Get("Idempotence-Key"))
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "shop", user)
		assert.Equal(t, "secret", pass)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_ = json.NewEncoder(w).Encode(model.GatewayPayment{
			ID:     "pay-1",
			Status: model.GatewayPaymentPending,
			Confirmation: model.GatewayConfirmation{
				Type:            "redirect",
				ConfirmationURL: "https://pay.example/confirm/pay-1",
			},
		})
	})

	req := &model.GatewayPaymentRequest{
		Amount:       model.GatewayAmount{Value: "250.00", Currency: "RUB"},
		Confirmation: model.GatewayConfirmation{Type: "redirect", ReturnURL: "https://shop/return"},
		Capture:      true,
		Description:  "order 5",
		Metadata:     map[string]string{"order_id": "5"},
	}
	payment, err := gw.CreatePayment(context.Background(), GatewayCredentials{ShopID: "shop", SecretKey: "secret"}, req, "idem-1")

	require.NoError(t, err)
	assert.Equal(t, "pay-1", payment.ID)
	assert.Equal(t, "https://pay.example/confirm/pay-1", payment.Confirmation.ConfirmationURL)
	assert.Equal(t, "250.00", got.Amount.Value)
	assert.True(t, got.Capture)
	assert.Equal(t, "5", got.Metadata["order_id"])
}

func TestGatewayClient_CreatePaymentErrorBody(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(model.GatewayError{Type: "error", Code: "invalid_credentials", Description: "bad key"})
	})

	_, err := gw.CreatePayment(context.Background(), GatewayCredentials{ShopID: "s", SecretKey: "k"}, &model.GatewayPaymentRequest{}, "x")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_credentials")
	assert.Contains(t, err.Error(), "bad key")
}

func TestGatewayClient_CreatePaymentWithoutConfirmationURL(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(model.GatewayPayment{ID: "pay-2"})
	})

	_, err := gw.CreatePayment(context.Background(), GatewayCredentials{}, &model.GatewayPaymentRequest{}, "x")

	assert.Error(t, err)
}

func TestGatewayClient_GetPayment(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/payments/pay-9", r.URL.Path)
		_ = json.NewEncoder(w).Encode(model.GatewayPayment{ID: "pay-9", Status: model.GatewayPaymentSucceeded, Paid: true})
	})

	payment, err := gw.GetPayment(context.Background(), GatewayCredentials{ShopID: "s", SecretKey: "k"}, "pay-9")

	require.NoError(t, err)
	assert.True(t, payment.Paid)
	assert.Equal(t, model.GatewayPaymentSucceeded, payment.Status)
}
