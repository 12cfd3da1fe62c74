package dto

import "time"

type AddToCartRequest struct {
	VariantID uint `json:"variant_id" form:"variant_id"`
	Quantity  int  `json:"quantity" form:"quantity"`
}

type CartLineView struct {
	VariantID   uint   `json:"variant_id"`
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name"`
	WeightGrams int    `json:"weight"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	LineTotal   string `json:"line_total"`
}

type CartResponse struct {
	Items []CartLineView `json:"items"`
	Total string         `json:"total"`
}

type CheckoutRequest struct {
	FullName        string `json:"full_name" form:"full_name"`
	Address         string `json:"address" form:"address"`
	PaymentMethodID uint   `json:"payment_method_id" form:"payment_method_id"`
	IdempotencyKey  string `json:"idempotency_key" form:"idempotency_key"`
}

type OrderItemView struct {
	VariantID   uint   `json:"variant_id"`
	ProductName string `json:"product_name,omitempty"`
	WeightGrams int    `json:"weight,omitempty"`
	Quantity    int    `json:"quantity"`
	Price       string `json:"price"`
	LineTotal   string `json:"line_total"`
}

type OrderView struct {
	ID            uint            `json:"id"`
	Username      string          `json:"username,omitempty"`
	Status        string          `json:"status"`
	TotalPrice    string          `json:"total_price"`
	FullName      string          `json:"full_name"`
	Address       string          `json:"address"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	IsCompleted   bool            `json:"is_completed"`
	CreatedAt     time.Time       `json:"created_at"`
	Items         []OrderItemView `json:"items,omitempty"`
}

// Checkout next steps.
const (
	NextPayment      = "payment"
	NextInstructions = "instructions"
	NextConfirmation = "confirmation"
)

type PaymentInstructions struct {
	OrderID     uint   `json:"order_id"`
	Amount      string `json:"amount"`
	Method      string `json:"method"`
	Description string `json:"description"`
	BankAccount string `json:"bank_account"`
}

type CheckoutResponse struct {
	Order        OrderView            `json:"order"`
	Next         string               `json:"next"`
	RedirectURL  string               `json:"redirect_url,omitempty"`
	Instructions *PaymentInstructions `json:"instructions,omitempty"`
}

type PaymentMethodView struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
}

type CheckoutFormResponse struct {
	Cart           CartResponse        `json:"cart"`
	PaymentMethods []PaymentMethodView `json:"payment_methods"`
}
