package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"sportzone/internal/apperr"
	"sportzone/internal/cache"
	"sportzone/internal/cart"
	"sportzone/internal/client"
	"sportzone/internal/config"
	"sportzone/internal/dto"
	sessionmw "sportzone/internal/middleware"
	"sportzone/internal/model"
	"sportzone/internal/repository"
	"sportzone/internal/service"
	"sportzone/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testApp struct {
	db      *gorm.DB
	fx      *testutil.Fixture
	srv     *Server
	url     string
	gateway *stubGateway
}

// stubGateway records payment requests and reports whatever status the test
// sets for a payment.
type stubGateway struct {
	mu         sync.Mutex
	returnURLs []string
	statuses   map[string]string
}

func (g *stubGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	defer g.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/payments":
		var req model.GatewayPaymentRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		g.returnURLs = append(g.returnURLs, req.Confirmation.ReturnURL)
		id := fmt.Sprintf("pay-%d", len(g.returnURLs))
		g.statuses[id] = model.GatewayPaymentPending
		_ = json.NewEncoder(w).Encode(model.GatewayPayment{
			ID:     id,
			Status: model.GatewayPaymentPending,
			Amount: req.Amount,
			Confirmation: model.GatewayConfirmation{
				Type:            "redirect",
				ConfirmationURL: "https://gateway.test/confirm/" + id,
			},
		})
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/payments/"):
		id := strings.TrimPrefix(r.URL.Path, "/payments/")
		status, ok := g.statuses[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(model.GatewayPayment{ID: id, Status: status})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (g *stubGateway) setStatus(id, status string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statuses[id] = status
}

func (g *stubGateway) lastReturnURL() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.returnURLs) == 0 {
		return ""
	}
	return g.returnURLs[len(g.returnURLs)-1]
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.NewDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	gw := &stubGateway{statuses: map[string]string{}}
	gwServer := httptest.NewServer(gw)
	t.Cleanup(gwServer.Close)

	gatewayCfg := config.Gateway{
		BaseApiURL:     gwServer.URL,
		Currency:       "RUB",
		SiteDomain:     "https://shop.test",
		ShopName:       "SportZone",
		RequestTimeout: time.Second,
		ReturnSecret:   "server-test-secret",
		ReturnTokenTTL: time.Hour,
	}
	logger := zap.NewNop()

	productRepo := repository.NewProductRepository(db)
	variantRepo := repository.NewVariantRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	discountRepo := repository.NewDiscountRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	methodRepo := repository.NewPaymentMethodRepository(db)
	userRepo := repository.NewUserRepository(db)

	cartService := cart.NewService(cart.NewRedisStore(rdb, time.Hour), variantRepo)
	reviewService := service.NewReviewService(reviewRepo, orderRepo, productRepo, logger)
	catalogService := service.NewCatalogService(productRepo, categoryRepo, discountRepo, reviewRepo,
		repository.NewSiteSettingsRepository(db), reviewService, cache.NewRedisCache(rdb, time.Hour), logger)
	paymentService := service.NewPaymentService(db, client.NewGatewayClient(&gatewayCfg), gatewayCfg, orderRepo,
		repository.NewPaymentAttemptRepository(db), repository.NewWebhookEventRepository(db), cartService, logger)
	accountService := service.NewAccountService(userRepo, orderRepo, discountRepo, reviewService, logger)

	sessions := sessionmw.NewSessions(
		sessionmw.NewCookieStore(config.Session{Secret: "server-test-session", MaxAge: 3600}),
		"sportzone_session", accountService, logger,
	)
	srv := NewServer(Services{
		Cart:    cartService,
		Catalog: catalogService,
		Review:  reviewService,
		Orders:  service.NewOrderService(db, orderRepo, methodRepo, variantRepo, cartService, paymentService, logger),
		Payment: paymentService,
		Account: accountService,
		Panel: service.NewPanelService(db, productRepo, variantRepo, categoryRepo, discountRepo, userRepo, orderRepo,
			methodRepo, catalogService, logger),
	}, sessions, logger)

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	return &testApp{db: db, fx: testutil.NewFixture(t, db), srv: srv, url: ts.URL, gateway: gw}
}

// browser keeps cookies between requests like a real user agent.
type browser struct {
	t      *testing.T
	app    *testApp
	client *http.Client
}

func (a *testApp) browser(t *testing.T) *browser {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &browser{t: t, app: a, client: &http.Client{Jar: jar}}
}

func (b *browser) do(method, path string, body any, out any) int {
	b.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(b.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, b.app.url+path, reader)
	require.NoError(b.t, err)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}

	resp, err := b.client.Do(req)
	require.NoError(b.t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(b.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (b *browser) signup(username string) dto.UserView {
	b.t.Helper()
	var user dto.UserView
	status := b.do(http.MethodPost, "/api/signup", dto.SignupRequest{
		Username:  username,
		Email:     username + "@mail.test",
		Password1: "s3cret-pass",
		Password2: "s3cret-pass",
	}, &user)
	require.Equal(b.t, http.StatusCreated, status)
	return user
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)
	assert.Equal(t, http.StatusOK, app.browser(t).do(http.MethodGet, "/health", nil, nil))
}

func TestCheckoutFlow(t *testing.T) {
	app := newTestApp(t)
	cat := app.fx.Category("Nuts")
	p := app.fx.Product("Almonds", cat.ID, "125.00")
	cash := app.fx.PaymentMethod("Cash", model.PaymentKindOffline)
	b := app.browser(t)

	var cartResp dto.CartResponse
	require.Equal(t, http.StatusOK, b.do(http.MethodPost, "/api/cart",
		dto.AddToCartRequest{VariantID: p.Variants[0].ID, Quantity: 2}, &cartResp))
	assert.Equal(t, "250.00", cartResp.Total)

	assert.Equal(t, http.StatusUnauthorized, b.do(http.MethodPost, "/api/checkout", dto.CheckoutRequest{}, nil))

	// the anonymous cart survives signing in
	b.signup("anna")
	require.Equal(t, http.StatusOK, b.do(http.MethodGet, "/api/cart", nil, &cartResp))
	require.Len(t, cartResp.Items, 1)

	var verr errorResponse
	require.Equal(t, http.StatusBadRequest, b.do(http.MethodPost, "/api/checkout",
		dto.CheckoutRequest{Address: "Main st 1", PaymentMethodID: cash.ID}, &verr))
	assert.Equal(t, "full_name", verr.Field)

	var checkout dto.CheckoutResponse
	require.Equal(t, http.StatusCreated, b.do(http.MethodPost, "/api/checkout", dto.CheckoutRequest{
		FullName: "Anna K", Address: "Main st 1", PaymentMethodID: cash.ID,
	}, &checkout))
	assert.Equal(t, "confirmation", checkout.Next)
	assert.Equal(t, "250.00", checkout.Order.TotalPrice)

	require.Equal(t, http.StatusOK, b.do(http.MethodGet, "/api/cart", nil, &cartResp))
	assert.Empty(t, cartResp.Items)

	var orders []dto.OrderView
	require.Equal(t, http.StatusOK, b.do(http.MethodGet, "/api/orders", nil, &orders))
	require.Len(t, orders, 1)
	assert.Equal(t, http.StatusOK, b.do(http.MethodGet, fmt.Sprintf("/api/orders/%d", checkout.Order.ID), nil, nil))

	other := app.browser(t)
	other.signup("boris")
	assert.Equal(t, http.StatusNotFound, other.do(http.MethodGet, fmt.Sprintf("/api/orders/%d", checkout.Order.ID), nil, nil))
	assert.Equal(t, http.StatusNotFound, other.do(http.MethodGet, "/api/orders/abc", nil, nil))
}

func TestGatewayReturn_FollowsReturnURL(t *testing.T) {
	app := newTestApp(t)
	cat := app.fx.Category("Nuts")
	p := app.fx.Product("Almonds", cat.ID, "125.00")
	card := &model.PaymentMethod{Name: "Card", Kind: model.PaymentKindGateway, IsActive: true, ShopID: "shop", SecretKey: "secret"}
	require.NoError(t, app.db.Create(card).Error)
	b := app.browser(t)
	b.signup("irina")

	require.Equal(t, http.StatusOK, b.do(http.MethodPost, "/api/cart",
		dto.AddToCartRequest{VariantID: p.Variants[0].ID, Quantity: 1}, nil))

	var checkout dto.CheckoutResponse
	require.Equal(t, http.StatusCreated, b.do(http.MethodPost, "/api/checkout", dto.CheckoutRequest{
		FullName: "Irina S", Address: "Main st 2", PaymentMethodID: card.ID,
	}, &checkout))
	assert.Equal(t, "payment", checkout.Next)
	assert.Equal(t, "https://gateway.test/confirm/pay-1", checkout.RedirectURL)

	returnURL, err := url.Parse(app.gateway.lastReturnURL())
	require.NoError(t, err)
	assert.Equal(t, "shop.test", returnURL.Host)
	assert.Equal(t, fmt.Sprintf("/payment-success/%d", checkout.Order.ID), returnURL.Path)

	// back from the gateway before the payment went through
	var order dto.OrderView
	require.Equal(t, http.StatusOK, b.do(http.MethodGet, returnURL.RequestURI(), nil, &order))
	assert.Equal(t, string(model.OrderStatusPendingPayment), order.Status)

	var cartResp dto.CartResponse
	require.Equal(t, http.StatusOK, b.do(http.MethodGet, "/api/cart", nil, &cartResp))
	assert.Len(t, cartResp.Items, 1)

	app.gateway.setStatus("pay-1", model.GatewayPaymentSucceeded)
	require.Equal(t, http.StatusOK, b.do(http.MethodGet, returnURL.RequestURI(), nil, &order))
	assert.Equal(t, string(model.OrderStatusProcessing), order.Status)

	require.Equal(t, http.StatusOK, b.do(http.MethodGet, "/api/cart", nil, &cartResp))
	assert.Empty(t, cartResp.Items)

	anonymous := app.browser(t)
	assert.Equal(t, http.StatusUnauthorized, anonymous.do(http.MethodGet, returnURL.RequestURI(), nil, nil))
}

func TestLogout_StartsFreshCart(t *testing.T) {
	app := newTestApp(t)
	cat := app.fx.Category("Nuts")
	p := app.fx.Product("Almonds", cat.ID, "125.00")
	b := app.browser(t)
	b.signup("vera")

	require.Equal(t, http.StatusOK, b.do(http.MethodPost, "/api/cart", dto.AddToCartRequest{VariantID: p.Variants[0].ID, Quantity: 1}, nil))
	require.Equal(t, http.StatusNoContent, b.do(http.MethodPost, "/api/logout", nil, nil))

	var cartResp dto.CartResponse
	require.Equal(t, http.StatusOK, b.do(http.MethodGet, "/api/cart", nil, &cartResp))
	assert.Empty(t, cartResp.Items)
	assert.Equal(t, http.StatusUnauthorized, b.do(http.MethodGet, "/api/me", nil, nil))
}

func TestLogin(t *testing.T) {
	app := newTestApp(t)
	app.browser(t).signup("gleb")
	b := app.browser(t)

	assert.Equal(t, http.StatusUnauthorized, b.do(http.MethodPost, "/api/login",
		dto.LoginRequest{Username: "gleb", Password: "wrong"}, nil))
	require.Equal(t, http.StatusOK, b.do(http.MethodPost, "/api/login",
		dto.LoginRequest{Username: "gleb", Password: "s3cret-pass"}, nil))

	var me dto.UserView
	require.Equal(t, http.StatusOK, b.do(http.MethodGet, "/api/me", nil, &me))
	assert.Equal(t, "gleb", me.Username)
}

func TestDeactivatedUser_IsSignedOut(t *testing.T) {
	app := newTestApp(t)
	b := app.browser(t)
	user := b.signup("dina")

	require.NoError(t, app.db.Table("users").Where("id = ?", user.ID).Update("is_active", false).Error)
	assert.Equal(t, http.StatusUnauthorized, b.do(http.MethodGet, "/api/me", nil, nil))
}

func TestPanel_StaffOnly(t *testing.T) {
	app := newTestApp(t)
	b := app.browser(t)

	assert.Equal(t, http.StatusNotFound, b.do(http.MethodGet, "/api/panel", nil, nil))

	user := b.signup("olga")
	assert.Equal(t, http.StatusNotFound, b.do(http.MethodGet, "/api/panel", nil, nil))

	require.NoError(t, app.db.Table("users").Where("id = ?", user.ID).Update("is_staff", true).Error)

	var dashboard dto.DashboardResponse
	require.Equal(t, http.StatusOK, b.do(http.MethodGet, "/api/panel", nil, &dashboard))

	var category model.Category
	require.Equal(t, http.StatusCreated, b.do(http.MethodPost, "/api/panel/categories", dto.CategoryInput{Name: "Seeds"}, &category))

	var categories []*model.Category
	require.Equal(t, http.StatusOK, b.do(http.MethodGet, "/api/categories", nil, &categories))
	require.Len(t, categories, 1)
	assert.Equal(t, "Seeds", categories[0].Name)
}

func TestNotification_RejectsMalformedBody(t *testing.T) {
	app := newTestApp(t)
	b := app.browser(t)

	req, err := http.NewRequest(http.MethodPost, app.url+"/api/payments/notifications", bytes.NewReader([]byte("{")))
	require.NoError(t, err)
	resp, err := b.client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	assert.Equal(t, http.StatusOK, b.do(http.MethodPost, "/api/payments/notifications", model.GatewayNotification{
		Type:   "notification",
		Event:  "payment.succeeded",
		Object: model.GatewayPayment{ID: "unknown"},
	}, nil))
}

func TestErrorStatus(t *testing.T) {
	app := newTestApp(t)
	e := echo.New()

	tests := []struct {
		name    string
		err     error
		status  int
		field   string
		orderID uint
	}{
		{"validation", apperr.Validation("email", "bad email"), http.StatusBadRequest, "email", 0},
		{"not found", apperr.NotFound("order"), http.StatusNotFound, "", 0},
		{"forbidden", apperr.Forbidden("not yours"), http.StatusNotFound, "", 0},
		{"unauthenticated", apperr.ErrUnauthenticated, http.StatusUnauthorized, "", 0},
		{"payment", &apperr.PaymentError{OrderID: 7, Err: apperr.ErrGatewayUnavailable}, http.StatusBadGateway, "", 7},
		{"wrapped gateway", fmt.Errorf("start: %w", apperr.ErrPaymentFailed), http.StatusBadGateway, "", 0},
		{"echo", echo.NewHTTPError(http.StatusMethodNotAllowed, "nope"), http.StatusMethodNotAllowed, "", 0},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
			status, body := app.srv.errorStatus(tt.err, c)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.field, body.Field)
			assert.Equal(t, tt.orderID, body.OrderID)
		})
	}
}
