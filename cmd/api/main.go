package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"sportzone/internal/cache"
	"sportzone/internal/cart"
	"sportzone/internal/client"
	"sportzone/internal/config"
	"sportzone/internal/logger"
	"sportzone/internal/middleware"
	"sportzone/internal/repository"
	"sportzone/internal/server"
	"sportzone/internal/service"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Printf("Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx := context.Background()

	db, err := client.InitDBClient(cfg.Database)
	if err != nil {
		return err
	}
	rdb, err := client.InitRedisClient(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()

	gatewayClient := client.NewGatewayClient(&cfg.Gateway)

	productRepo := repository.NewProductRepository(db)
	variantRepo := repository.NewVariantRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	discountRepo := repository.NewDiscountRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	settingsRepo := repository.NewSiteSettingsRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	methodRepo := repository.NewPaymentMethodRepository(db)
	attemptRepo := repository.NewPaymentAttemptRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)
	userRepo := repository.NewUserRepository(db)

	cartService := cart.NewService(cart.NewRedisStore(rdb, cfg.Redis.CartTTL), variantRepo)
	reviewService := service.NewReviewService(reviewRepo, orderRepo, productRepo, log)
	catalogService := service.NewCatalogService(
		productRepo, categoryRepo, discountRepo, reviewRepo, settingsRepo,
		reviewService,
		cache.NewRedisCache(rdb, cfg.Cache.CategoryTTL),
		log,
	)
	paymentService := service.NewPaymentService(
		db, gatewayClient, cfg.Gateway,
		orderRepo,
		attemptRepo,
		webhookEventRepo,
		cartService,
		log,
	)
	orderService := service.NewOrderService(db, orderRepo, methodRepo, variantRepo, cartService, paymentService, log)
	accountService := service.NewAccountService(userRepo, orderRepo, discountRepo, reviewService, log)
	panelService := service.NewPanelService(
		db,
		productRepo, variantRepo, categoryRepo, discountRepo,
		userRepo, orderRepo, methodRepo,
		catalogService,
		log,
	)

	sessions := middleware.NewSessions(
		middleware.NewCookieStore(cfg.Session),
		cfg.Session.CookieName,
		accountService,
		log,
	)

	// Init HTTP server
	srv := server.NewServer(server.Services{
		Cart:    cartService,
		Catalog: catalogService,
		Review:  reviewService,
		Orders:  orderService,
		Payment: paymentService,
		Account: accountService,
		Panel:   panelService,
	}, sessions, log)

	serverAddr := cfg.HTTP.Address()
	errCh := make(chan error, 1)

	log.Info("starting HTTP server", zap.String("addr", serverAddr), zap.String("env", cfg.Environment.Name))
	go func() {
		if err := srv.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-sigChan:
		log.Info("signal received, starting graceful shutdown", zap.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
