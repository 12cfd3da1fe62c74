package model

type OrderStatus string

const (
	OrderStatusPendingPayment OrderStatus = "pending_payment"
	OrderStatusProcessing     OrderStatus = "processing"
	OrderStatusShipped        OrderStatus = "shipped"
	OrderStatusDelivered      OrderStatus = "delivered"
)

// OrderStatuses lists the declared statuses in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderStatusPendingPayment,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
}

func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

type DiscountScope string

const (
	DiscountScopeProduct  DiscountScope = "product"
	DiscountScopeCategory DiscountScope = "category"
	DiscountScopeAll      DiscountScope = "all"
)

func (s DiscountScope) Valid() bool {
	switch s {
	case DiscountScopeProduct, DiscountScopeCategory, DiscountScopeAll:
		return true
	}
	return false
}

// PaymentMethodKind is fixed when a payment method is entered so checkout never
// branches on display names.
type PaymentMethodKind string

const (
	// PaymentKindGateway issues a remote payment request and redirects the buyer.
	PaymentKindGateway PaymentMethodKind = "gateway"
	// PaymentKindReference shows bank details; the buyer confirms manually.
	PaymentKindReference PaymentMethodKind = "reference"
	// PaymentKindOffline places the order without payment confirmation.
	PaymentKindOffline PaymentMethodKind = "offline"
)

func (k PaymentMethodKind) Valid() bool {
	switch k {
	case PaymentKindGateway, PaymentKindReference, PaymentKindOffline:
		return true
	}
	return false
}
