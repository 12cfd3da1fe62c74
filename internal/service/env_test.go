package service

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"sportzone/internal/cache"
	"sportzone/internal/cart"
	"sportzone/internal/client"
	"sportzone/internal/config"
	"sportzone/internal/model"
	"sportzone/internal/repository"
	"sportzone/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testReturnSecret = "test-return-secret"

// fakeGateway is an in-process stand-in for the payment gateway API.
type fakeGateway struct {
	mu       sync.Mutex
	created  int
	statuses map[string]string
	requests []model.GatewayPaymentRequest
	keys     []string
	fail     bool
}

func (g *fakeGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	defer g.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/payments":
		if g.fail {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(model.GatewayError{Type: "error", Code: "internal_server_error", Description: "try later"})
			return
		}
		var req model.GatewayPaymentRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		g.requests = append(g.requests, req)
		g.keys = append(g.keys, r.Header.Get("Idempotence-Key"))
		g.created++
		id := fmt.Sprintf("pay-%d", g.created)
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
		_ = json.NewEncoder(w).Encode(model.GatewayPayment{
			ID:     id,
			Status: status,
			Paid:   status == model.GatewayPaymentSucceeded,
		})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (g *fakeGateway) setStatus(id, status string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statuses[id] = status
}

func (g *fakeGateway) setFail(fail bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fail = fail
}

func (g *fakeGateway) received() ([]model.GatewayPaymentRequest, []string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]model.GatewayPaymentRequest(nil), g.requests...), append([]string(nil), g.keys...)
}

func (g *fakeGateway) createdCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.created
}

type testEnv struct {
	db      *gorm.DB
	fx      *testutil.Fixture
	redis   *miniredis.Miniredis
	gateway *fakeGateway
	cfg     config.Gateway

	orderRepo   repository.OrderRepository
	attemptRepo repository.PaymentAttemptRepository

	cart    cart.Service
	catalog CatalogService
	review  ReviewService
	payment PaymentService
	orders  OrderService
	account AccountService
	panel   PanelService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	gw := &fakeGateway{statuses: map[string]string{}}
	srv := httptest.NewServer(gw)
	t.Cleanup(srv.Close)

	cfg := config.Gateway{
		BaseApiURL:     srv.URL,
		Currency:       "RUB",
		SiteDomain:     "https://shop.test",
		ShopName:       "SportZone",
		RequestTimeout: 5 * time.Second,
		ReturnSecret:   testReturnSecret,
		ReturnTokenTTL: time.Hour,
	}
	logger := zap.NewNop()

	productRepo := repository.NewProductRepository(db)
	variantRepo := repository.NewVariantRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	discountRepo := repository.NewDiscountRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	settingsRepo := repository.NewSiteSettingsRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	methodRepo := repository.NewPaymentMethodRepository(db)
	attemptRepo := repository.NewPaymentAttemptRepository(db)
	webhookRepo := repository.NewWebhookEventRepository(db)
	userRepo := repository.NewUserRepository(db)

	cartService := cart.NewService(cart.NewRedisStore(rdb, time.Hour), variantRepo)
	reviewService := NewReviewService(reviewRepo, orderRepo, productRepo, logger)
	catalogService := NewCatalogService(productRepo, categoryRepo, discountRepo, reviewRepo, settingsRepo,
		reviewService, cache.NewRedisCache(rdb, time.Hour), logger)
	paymentService := NewPaymentService(db, client.NewGatewayClient(&cfg), cfg, orderRepo, attemptRepo, webhookRepo, cartService, logger)

	return &testEnv{
		db:          db,
		fx:          testutil.NewFixture(t, db),
		redis:       mr,
		gateway:     gw,
		cfg:         cfg,
		orderRepo:   orderRepo,
		attemptRepo: attemptRepo,
		cart:        cartService,
		catalog:     catalogService,
		review:      reviewService,
		payment:     paymentService,
		orders:      NewOrderService(db, orderRepo, methodRepo, variantRepo, cartService, paymentService, logger),
		account:     NewAccountService(userRepo, orderRepo, discountRepo, reviewService, logger),
		panel: NewPanelService(db, productRepo, variantRepo, categoryRepo, discountRepo, userRepo, orderRepo,
			methodRepo, catalogService, logger),
	}
}

func (e *testEnv) gatewayMethod(t *testing.T) *model.PaymentMethod {
	t.Helper()
	m := &model.PaymentMethod{Name: "Card", Kind: model.PaymentKindGateway, IsActive: true, ShopID: "shop", SecretKey: "secret"}
	assert.NoError(t, e.db.Create(m).Error)
	return m
}

func (e *testEnv) order(t *testing.T, id uint) *model.Order {
	t.Helper()
	var o model.Order
	assert.NoError(t, e.db.Preload("Items").First(&o, id).Error)
	return &o
}

func uintString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
