package server

import (
	"context"
	"errors"
	"net/http"

	"sportzone/internal/apperr"
	"sportzone/internal/cart"
	"sportzone/internal/handler"
	sessionmw "sportzone/internal/middleware"
	"sportzone/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Services bundles everything the HTTP layer calls into.
type Services struct {
	Cart    cart.Service
	Catalog service.CatalogService
	Review  service.ReviewService
	Orders  service.OrderService
	Payment service.PaymentService
	Account service.AccountService
	Panel   service.PanelService
}

type Server struct {
	echo     *echo.Echo
	sessions *sessionmw.Sessions
	logger   *zap.Logger

	catalogHandler *handler.CatalogHandler
	cartHandler    *handler.CartHandler
	orderHandler   *handler.OrderHandler
	paymentHandler *handler.PaymentHandler
	accountHandler *handler.AccountHandler
	panelHandler   *handler.PanelHandler
}

func NewServer(services Services, sessions *sessionmw.Sessions, logger *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:     e,
		sessions: sessions,
		logger:   logger,

		catalogHandler: handler.NewCatalogHandler(services.Catalog, services.Review),
		cartHandler:    handler.NewCartHandler(services.Cart, services.Orders),
		orderHandler:   handler.NewOrderHandler(services.Orders, services.Payment),
		paymentHandler: handler.NewPaymentHandler(services.Payment),
		accountHandler: handler.NewAccountHandler(services.Account, sessions),
		panelHandler:   handler.NewPanelHandler(services.Panel),
	}

	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// gateway callbacks carry no session
	s.echo.POST("/api/payments/notifications", s.paymentHandler.Notification)

	login := sessionmw.RequireLogin()

	// the gateway sends the buyer back here, see PaymentService.StartPayment
	s.echo.GET("/payment-success/:id", s.paymentHandler.HandleReturn, s.sessions.Load(), login)

	api := s.echo.Group("/api", s.sessions.Load())

	// -------- catalog --------
	api.GET("/home", s.catalogHandler.Home)
	api.GET("/categories", s.catalogHandler.Categories)
	api.GET("/products", s.catalogHandler.ListProducts)
	api.GET("/products/:id", s.catalogHandler.ProductDetail)
	api.POST("/products/:id/reviews", s.catalogHandler.SubmitReview, login)

	// -------- cart --------
	api.GET("/cart", s.cartHandler.Get)
	api.POST("/cart", s.cartHandler.Add)
	api.DELETE("/cart/:variantID", s.cartHandler.Remove)

	// -------- orders --------
	api.GET("/checkout", s.orderHandler.CheckoutForm, login)
	api.POST("/checkout", s.orderHandler.Checkout, login)
	api.GET("/orders", s.orderHandler.ListOrders, login)
	api.GET("/orders/:id", s.orderHandler.GetOrder, login)
	api.GET("/orders/:id/instructions", s.orderHandler.Instructions, login)
	api.POST("/orders/:id/confirm", s.orderHandler.ConfirmPayment, login)
	api.POST("/orders/:id/pay", s.orderHandler.ResumePayment, login)

	// -------- account --------
	api.POST("/signup", s.accountHandler.Signup)
	api.POST("/login", s.accountHandler.Login)
	api.POST("/logout", s.accountHandler.Logout)
	api.GET("/me", s.accountHandler.Me, login)
	api.GET("/profile", s.accountHandler.Profile, login)
	api.PUT("/profile", s.accountHandler.UpdateProfile, login)
	api.POST("/profile/password", s.accountHandler.ChangePassword, login)

	// -------- panel --------
	panel := api.Group("/panel", sessionmw.RequireStaff())
	panel.GET("", s.panelHandler.Dashboard)

	panel.GET("/products", s.panelHandler.Products)
	panel.POST("/products", s.panelHandler.CreateProduct)
	panel.GET("/products/:id", s.panelHandler.Product)
	panel.PUT("/products/:id", s.panelHandler.UpdateProduct)
	panel.DELETE("/products/:id", s.panelHandler.DeleteProduct)
	panel.POST("/products/:id/variants", s.panelHandler.AddVariant)
	panel.PUT("/products/:id/variants/:variantID", s.panelHandler.UpdateVariant)
	panel.DELETE("/products/:id/variants/:variantID", s.panelHandler.DeleteVariant)
	panel.POST("/products/:id/images", s.panelHandler.AddImage)
	panel.DELETE("/products/:id/images/:imageID", s.panelHandler.DeleteImage)

	panel.GET("/categories", s.panelHandler.Categories)
	panel.POST("/categories", s.panelHandler.CreateCategory)
	panel.DELETE("/categories/:id", s.panelHandler.DeleteCategory)

	panel.GET("/discounts", s.panelHandler.Discounts)
	panel.POST("/discounts", s.panelHandler.CreateDiscount)
	panel.PUT("/discounts/:id", s.panelHandler.UpdateDiscount)
	panel.DELETE("/discounts/:id", s.panelHandler.DeleteDiscount)

	panel.GET("/users", s.panelHandler.Users)
	panel.PUT("/users/:id", s.panelHandler.UpdateUser)

	panel.GET("/orders", s.panelHandler.Orders)
	panel.GET("/orders/:id", s.panelHandler.Order)
	panel.PUT("/orders/:id/status", s.panelHandler.SetOrderStatus)
	panel.POST("/orders/:id/complete", s.panelHandler.MarkOrderCompleted)

	panel.GET("/payment-methods", s.panelHandler.PaymentMethods)
	panel.POST("/payment-methods", s.panelHandler.CreatePaymentMethod)
	panel.PUT("/payment-methods/:id", s.panelHandler.UpdatePaymentMethod)
}

type errorResponse struct {
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	OrderID uint   `json:"order_id,omitempty"`
}

// handleError maps the apperr taxonomy onto HTTP statuses. Anything not
// recognised is logged and reported as a bare 500.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := s.errorStatus(err, c)
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		s.logger.Error("write error response", zap.Error(err))
	}
}

func (s *Server) errorStatus(err error, c echo.Context) (int, errorResponse) {
	var (
		httpErr    *echo.HTTPError
		validation *apperr.ValidationError
		payment    *apperr.PaymentError
	)

	switch {
	case errors.As(err, &httpErr):
		msg, ok := httpErr.Message.(string)
		if !ok {
			msg = http.StatusText(httpErr.Code)
		}
		return httpErr.Code, errorResponse{Error: msg}
	case errors.As(err, &validation):
		return http.StatusBadRequest, errorResponse{Error: validation.Message, Field: validation.Field}
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest, errorResponse{Error: err.Error()}
	case errors.Is(err, apperr.ErrNotFound), errors.Is(err, apperr.ErrForbidden):
		return http.StatusNotFound, errorResponse{Error: "not found"}
	case errors.Is(err, apperr.ErrUnauthenticated):
		return http.StatusUnauthorized, errorResponse{Error: err.Error()}
	case errors.As(err, &payment):
		s.logger.Warn("payment unavailable", zap.Uint("order_id", payment.OrderID), zap.Error(err))
		return http.StatusBadGateway, errorResponse{
			Error:   "payment could not be started, please retry later",
			OrderID: payment.OrderID,
		}
	case errors.Is(err, apperr.ErrGatewayUnavailable), errors.Is(err, apperr.ErrPaymentFailed):
		s.logger.Warn("payment unavailable", zap.Error(err))
		return http.StatusBadGateway, errorResponse{Error: "payment gateway unavailable, please retry later"}
	}

	s.logger.Error("unhandled error",
		zap.String("method", c.Request().Method),
		zap.String("uri", c.Request().RequestURI),
		zap.Error(err),
	)
	return http.StatusInternalServerError, errorResponse{Error: http.StatusText(http.StatusInternalServerError)}
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// ServeHTTP exposes the router for in-process tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
