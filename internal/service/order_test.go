package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"sportzone/internal/apperr"
	"sportzone/internal/cart"
	"sportzone/internal/dto"
	"sportzone/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type checkoutFixture struct {
	env     *testEnv
	user    *model.User
	sess    cart.Session
	variant *model.ProductVariant
}

// newCheckout puts two units of a 125.00 variant in the buyer's cart.
func newCheckout(t *testing.T) *checkoutFixture {
	env := newTestEnv(t)
	user := env.fx.User("buyer")
	cat := env.fx.Category("Nuts")
	product := env.fx.Product("Almonds", cat.ID, "125.00")

	sess := cart.Session{ID: "sess-" + user.Username}
	_, err := env.cart.Add(context.Background(), sess, product.Variants[0].ID, 2)
	require.NoError(t, err)

	return &checkoutFixture{env: env, user: user, sess: sess, variant: &product.Variants[0]}
}

func (f *checkoutFixture) request(methodID uint) dto.CheckoutRequest {
	return dto.CheckoutRequest{FullName: "Ivan Petrov", Address: "Lenina 1", PaymentMethodID: methodID}
}

func (f *checkoutFixture) cartItems(t *testing.T) cart.Cart {
	items, err := f.env.cart.Items(context.Background(), f.sess)
	require.NoError(t, err)
	return items
}

func countOrders(t *testing.T, env *testEnv) int64 {
	var n int64
	require.NoError(t, env.db.Model(&model.Order{}).Count(&n).Error)
	return n
}

func TestCheckout_Gateway(t *testing.T) {
	f := newCheckout(t)
	ctx := context.Background()
	method := f.env.gatewayMethod(t)

	resp, err := f.env.orders.Checkout(ctx, f.user.ID, f.sess, f.request(method.ID))
	require.NoError(t, err)

	assert.Equal(t, dto.NextPayment, resp.Next)
	assert.Equal(t, "https://gateway.test/confirm/pay-1", resp.RedirectURL)
	assert.Equal(t, "250.00", resp.Order.TotalPrice)
	assert.Equal(t, string(model.OrderStatusPendingPayment), resp.Order.Status)

	order := f.env.order(t, resp.Order.ID)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.True(t, order.Items[0].Price.Equal(decimal.RequireFromString("125.00")))
	assert.False(t, order.IsCompleted)

	requests, keys := f.env.gateway.received()
	require.Len(t, requests, 1)
	req := requests[0]
	assert.Equal(t, "250.00", req.Amount.Value)
	assert.Equal(t, "RUB", req.Amount.Currency)
	assert.True(t, req.Capture)
	assert.Equal(t, "redirect", req.Confirmation.Type)
	assert.True(t, strings.HasPrefix(req.Confirmation.ReturnURL, "https://shop.test/payment-success/"))
	assert.Contains(t, req.Confirmation.ReturnURL, "?token=")
	assert.Contains(t, req.Description, "SportZone")
	assert.NotEmpty(t, keys[0])

	attempt, err := f.env.attemptRepo.FindByOrderID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "pay-1", attempt.GatewayPaymentID)

	// only the gateway confirmation clears the cart
	assert.Equal(t, cart.Cart{f.variant.ID: 2}, f.cartItems(t))
}

func TestCheckout_ReferenceKeepsCart(t *testing.T) {
	f := newCheckout(t)
	method := f.env.fx.PaymentMethod("Bank transfer", model.PaymentKindReference)
	require.NoError(t, f.env.db.Model(method).Update("bank_account", "40817810099910004312").Error)

	resp, err := f.env.orders.Checkout(context.Background(), f.user.ID, f.sess, f.request(method.ID))
	require.NoError(t, err)

	assert.Equal(t, dto.NextInstructions, resp.Next)
	require.NotNil(t, resp.Instructions)
	assert.Equal(t, "40817810099910004312", resp.Instructions.BankAccount)
	assert.Equal(t, "250.00", resp.Instructions.Amount)
	assert.Equal(t, string(model.OrderStatusPendingPayment), resp.Order.Status)
	assert.Equal(t, cart.Cart{f.variant.ID: 2}, f.cartItems(t))
	assert.Zero(t, f.env.gateway.createdCount())
}

func TestCheckout_OfflineClearsCart(t *testing.T) {
	f := newCheckout(t)
	method := f.env.fx.PaymentMethod("Cash on delivery", model.PaymentKindOffline)

	resp, err := f.env.orders.Checkout(context.Background(), f.user.ID, f.sess, f.request(method.ID))
	require.NoError(t, err)

	assert.Equal(t, dto.NextConfirmation, resp.Next)
	assert.Equal(t, string(model.OrderStatusPendingPayment), resp.Order.Status)
	assert.True(t, f.cartItems(t).Empty())
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := newCheckout(t)
	method := f.env.fx.PaymentMethod("Cash", model.PaymentKindOffline)
	require.NoError(t, f.env.cart.Clear(context.Background(), f.sess))

	_, err := f.env.orders.Checkout(context.Background(), f.user.ID, f.sess, f.request(method.ID))

	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "cart", verr.Field)
	assert.Zero(t, countOrders(t, f.env))
}

func TestCheckout_MissingVariantWritesNothing(t *testing.T) {
	f := newCheckout(t)
	method := f.env.fx.PaymentMethod("Cash", model.PaymentKindOffline)
	_, err := f.env.cart.Add(context.Background(), f.sess, f.variant.ID, 1)
	require.NoError(t, err)
	require.NoError(t, f.env.db.Delete(&model.ProductVariant{}, f.variant.ID).Error)

	_, err = f.env.orders.Checkout(context.Background(), f.user.ID, f.sess, f.request(method.ID))

	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Zero(t, countOrders(t, f.env))
	var items int64
	require.NoError(t, f.env.db.Model(&model.OrderItem{}).Count(&items).Error)
	assert.Zero(t, items)
}

func TestCheckout_FormValidation(t *testing.T) {
	f := newCheckout(t)
	method := f.env.fx.PaymentMethod("Cash", model.PaymentKindOffline)
	inactive := f.env.fx.PaymentMethod("Old", model.PaymentKindOffline)
	require.NoError(t, f.env.db.Model(inactive).Update("is_active", false).Error)

	tests := []struct {
		name  string
		req   dto.CheckoutRequest
		field string
	}{
		{"blank name", dto.CheckoutRequest{FullName: "  ", Address: "a", PaymentMethodID: method.ID}, "full_name"},
		{"blank address", dto.CheckoutRequest{FullName: "a", PaymentMethodID: method.ID}, "address"},
		{"no method", dto.CheckoutRequest{FullName: "a", Address: "b"}, "payment_method_id"},
		{"unknown method", dto.CheckoutRequest{FullName: "a", Address: "b", PaymentMethodID: 999}, "payment_method_id"},
		{"inactive method", dto.CheckoutRequest{FullName: "a", Address: "b", PaymentMethodID: inactive.ID}, "payment_method_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.env.orders.Checkout(context.Background(), f.user.ID, f.sess, tt.req)
			var verr *apperr.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
	assert.Zero(t, countOrders(t, f.env))
	assert.Equal(t, cart.Cart{f.variant.ID: 2}, f.cartItems(t))
}

func TestCheckout_IdempotencyKey(t *testing.T) {
	f := newCheckout(t)
	ctx := context.Background()
	method := f.env.gatewayMethod(t)
	req := f.request(method.ID)
	req.IdempotencyKey = "form-123"

	first, err := f.env.orders.Checkout(ctx, f.user.ID, f.sess, req)
	require.NoError(t, err)
	second, err := f.env.orders.Checkout(ctx, f.user.ID, f.sess, req)
	require.NoError(t, err)

	assert.Equal(t, first.Order.ID, second.Order.ID)
	assert.Equal(t, first.RedirectURL, second.RedirectURL)
	assert.Equal(t, int64(1), countOrders(t, f.env))
	assert.Equal(t, 1, f.env.gateway.createdCount())
}

func TestCheckout_FrozenPrices(t *testing.T) {
	f := newCheckout(t)
	ctx := context.Background()
	method := f.env.fx.PaymentMethod("Cash", model.PaymentKindOffline)

	resp, err := f.env.orders.Checkout(ctx, f.user.ID, f.sess, f.request(method.ID))
	require.NoError(t, err)
	require.NoError(t, f.env.db.Model(f.variant).Update("price", decimal.RequireFromString("999.00")).Error)

	view, err := f.env.orders.OrderDetail(ctx, f.user.ID, resp.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, "250.00", view.TotalPrice)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "125.00", view.Items[0].Price)
}

func TestCheckout_GatewayWithoutCredentials(t *testing.T) {
	f := newCheckout(t)
	method := f.env.fx.PaymentMethod("Card", model.PaymentKindGateway)

	_, err := f.env.orders.Checkout(context.Background(), f.user.ID, f.sess, f.request(method.ID))

	var perr *apperr.PaymentError
	require.ErrorAs(t, err, &perr)
	assert.ErrorIs(t, err, apperr.ErrGatewayUnavailable)
	assert.Equal(t, model.OrderStatusPendingPayment, f.env.order(t, perr.OrderID).Status)
	assert.Zero(t, f.env.gateway.createdCount())
}

func TestCheckout_GatewayFailureThenResume(t *testing.T) {
	f := newCheckout(t)
	ctx := context.Background()
	method := f.env.gatewayMethod(t)
	f.env.gateway.setFail(true)

	_, err := f.env.orders.Checkout(ctx, f.user.ID, f.sess, f.request(method.ID))
	var perr *apperr.PaymentError
	require.ErrorAs(t, err, &perr)
	assert.ErrorIs(t, err, apperr.ErrPaymentFailed)

	f.env.gateway.setFail(false)
	url, err := f.env.payment.ResumePayment(ctx, f.user.ID, perr.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "https://gateway.test/confirm/pay-1", url)

	again, err := f.env.payment.ResumePayment(ctx, f.user.ID, perr.OrderID)
	require.NoError(t, err)
	assert.Equal(t, url, again)
	assert.Equal(t, 1, f.env.gateway.createdCount())
}

func TestConfirmPayment(t *testing.T) {
	f := newCheckout(t)
	ctx := context.Background()
	method := f.env.fx.PaymentMethod("Bank transfer", model.PaymentKindReference)

	resp, err := f.env.orders.Checkout(ctx, f.user.ID, f.sess, f.request(method.ID))
	require.NoError(t, err)

	view, err := f.env.orders.ConfirmPayment(ctx, f.user.ID, f.sess, resp.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, string(model.OrderStatusProcessing), view.Status)
	assert.True(t, f.cartItems(t).Empty())

	_, err = f.env.orders.ConfirmPayment(ctx, f.user.ID, f.sess, resp.Order.ID)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, model.OrderStatusProcessing, f.env.order(t, resp.Order.ID).Status)

	_, err = f.env.orders.PaymentInstructions(ctx, f.user.ID, resp.Order.ID)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestConfirmPayment_OnlyReferenceOrders(t *testing.T) {
	f := newCheckout(t)
	ctx := context.Background()

	gateway, err := f.env.orders.Checkout(ctx, f.user.ID, f.sess, f.request(f.env.gatewayMethod(t).ID))
	require.NoError(t, err)
	_, err = f.env.orders.ConfirmPayment(ctx, f.user.ID, f.sess, gateway.Order.ID)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, model.OrderStatusPendingPayment, f.env.order(t, gateway.Order.ID).Status)
	assert.False(t, f.cartItems(t).Empty())

	offline, err := f.env.orders.Checkout(ctx, f.user.ID, f.sess, f.request(f.env.fx.PaymentMethod("Cash", model.PaymentKindOffline).ID))
	require.NoError(t, err)
	_, err = f.env.orders.ConfirmPayment(ctx, f.user.ID, f.sess, offline.Order.ID)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, model.OrderStatusPendingPayment, f.env.order(t, offline.Order.ID).Status)
}

func TestOrders_OwnershipAndHistory(t *testing.T) {
	f := newCheckout(t)
	ctx := context.Background()
	other := f.env.fx.User("other")
	method := f.env.fx.PaymentMethod("Cash", model.PaymentKindOffline)

	resp, err := f.env.orders.Checkout(ctx, f.user.ID, f.sess, f.request(method.ID))
	require.NoError(t, err)

	_, err = f.env.orders.OrderDetail(ctx, other.ID, resp.Order.ID)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
	_, err = f.env.orders.ConfirmPayment(ctx, other.ID, cart.Session{ID: "x"}, resp.Order.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	history, err := f.env.orders.UserOrders(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Cash", history[0].PaymentMethod)

	none, err := f.env.orders.UserOrders(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCheckoutForm(t *testing.T) {
	f := newCheckout(t)
	f.env.fx.PaymentMethod("Cash", model.PaymentKindOffline)

	form, err := f.env.orders.CheckoutForm(context.Background(), f.sess)
	require.NoError(t, err)

	assert.Equal(t, "250.00", form.Cart.Total)
	require.Len(t, form.Cart.Items, 1)
	assert.Equal(t, "Almonds", form.Cart.Items[0].ProductName)
	require.Len(t, form.PaymentMethods, 1)
	assert.Equal(t, string(model.PaymentKindOffline), form.PaymentMethods[0].Kind)
}
