package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	UserID          uint            `gorm:"index;not null;uniqueIndex:idx_order_user_key,priority:1" json:"user_id"`
	User            User            `json:"user"`
	TotalPrice      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_price"`
	Status          OrderStatus     `gorm:"size:20;index;not null" json:"status"`
	PaymentMethodID *uint           `json:"payment_method_id"`
	PaymentMethod   *PaymentMethod  `gorm:"constraint:OnDelete:SET NULL" json:"payment_method,omitempty"`
	FullName        string          `gorm:"size:200;not null" json:"full_name"`
	Address         string          `gorm:"type:text;not null" json:"address"`
	IsCompleted     bool            `gorm:"not null" json:"is_completed"`
	IdempotencyKey  *string         `gorm:"size:64;uniqueIndex:idx_order_user_key,priority:2" json:"-"`
	Items           []OrderItem     `gorm:"constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt       time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderItem freezes the unit price at purchase time.
type OrderItem struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	OrderID          uint            `gorm:"index;not null" json:"order_id"`
	ProductVariantID uint            `gorm:"index;not null" json:"product_variant_id"`
	ProductVariant   *ProductVariant `json:"product_variant,omitempty"`
	Quantity         int             `gorm:"not null" json:"quantity"`
	Price            decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type PaymentMethod struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	Name        string            `gorm:"size:100;not null" json:"name"`
	Description string            `gorm:"type:text" json:"description"`
	Kind        PaymentMethodKind `gorm:"size:20;not null" json:"kind"`
	IsActive    bool              `gorm:"not null" json:"is_active"`
	ShopID      string            `gorm:"size:100" json:"-"`
	SecretKey   string            `gorm:"size:100" json:"-"`
	BankAccount string            `gorm:"size:200" json:"bank_account,omitempty"`
}

// HasGatewayCredentials reports whether a remote payment can be requested.
func (m *PaymentMethod) HasGatewayCredentials() bool {
	return m.ShopID != "" && m.SecretKey != ""
}

// PaymentAttempt records the gateway payment created for an order. Once a
// confirmation URL is stored the order never triggers another gateway call.
type PaymentAttempt struct {
	ID               uint      `gorm:"primaryKey"`
	OrderID          uint      `gorm:"uniqueIndex;not null"`
	GatewayPaymentID string    `gorm:"size:64;index"`
	ConfirmationURL  string    `gorm:"size:512;not null"`
	IdempotenceKey   string    `gorm:"size:64;not null"`
	Status           string    `gorm:"size:32;not null"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// WebhookEvent marks a processed gateway notification.
type WebhookEvent struct {
	EventID     string `gorm:"primaryKey;size:128;not null"`
	EventType   string `gorm:"size:64;index"`
	ProcessedAt time.Time
	CreatedAt   time.Time
}
