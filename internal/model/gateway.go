package model

// Wire types for the redirect-based payment gateway (YooKassa v3 API shape).

type GatewayAmount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type GatewayConfirmation struct {
	Type            string `json:"type"`
	ReturnURL       string `json:"return_url,omitempty"`
	ConfirmationURL string `json:"confirmation_url,omitempty"`
}

type GatewayPaymentRequest struct {
	Amount       GatewayAmount       `json:"amount"`
	Confirmation GatewayConfirmation `json:"confirmation"`
	Capture      bool                `json:"capture"`
	Description  string              `json:"description"`
	Metadata     map[string]string   `json:"metadata,omitempty"`
}

type GatewayPayment struct {
	ID           string              `json:"id"`
	Status       string              `json:"status"`
	Paid         bool                `json:"paid"`
	Amount       GatewayAmount       `json:"amount"`
	Confirmation GatewayConfirmation `json:"confirmation"`
	Metadata     map[string]string   `json:"metadata"`
}

const (
	GatewayPaymentPending   = "pending"
	GatewayPaymentSucceeded = "succeeded"
	GatewayPaymentCanceled  = "canceled"
)

// GatewayNotification is the body of a server-to-server gateway callback.
type GatewayNotification struct {
	Type   string         `json:"type"`
	Event  string         `json:"event"`
	Object GatewayPayment `json:"object"`
}

type GatewayError struct {
	Type        string `json:"type"`
	ID          string `json:"id"`
	Code        string `json:"code"`
	Description string `json:"description"`
}
