// Package http exposes the order lifecycle over a JSON API built on echo.
//
// Every route except /health and /metrics requires a bearer token. Errors
// are rendered as {"code", "error", "message"} with the status chosen by
// the error's kind.
package http

import (
	"context"
	"net/http"

	"tracking/internal/core/application/usecases/commands"
	"tracking/internal/core/application/usecases/queries"
	"tracking/internal/core/domain/model/actor"
	"tracking/internal/core/domain/model/kernel"
	"tracking/internal/core/ports"
	"tracking/internal/pkg/metrics"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

// IdempotencyStore claims an Idempotency-Key for an order id. Remember
// returns the id that holds the claim; Forget releases a claim still held
// by orderID.
type IdempotencyStore interface {
	Remember(ctx context.Context, scope, key string, orderID kernel.ID) (kernel.ID, error)
	Forget(ctx context.Context, scope, key string, orderID kernel.ID) error
}

// LiveChannel upgrades a request into a subscription on an order channel.
type LiveChannel interface {
	Serve(w http.ResponseWriter, r *http.Request, orderID kernel.ID) error
}

// HealthFunc reports the hub figures shown on /health.
type HealthFunc func() any

// Server coordinates between HTTP handlers and application use cases.
type Server struct {
	// Command handlers
	createOrderHandler  commands.CreateOrderCommandHandler
	claimOrderHandler   commands.ClaimOrderCommandHandler
	updateStatusHandler commands.UpdateOrderStatusCommandHandler

	// Query handlers
	getOrderHandler   queries.GetOrderQueryHandler
	listOrdersHandler queries.ListOrdersQueryHandler
	getProfileHandler queries.GetProfileQueryHandler

	identity    ports.IdentityGateway
	idempotency IdempotencyStore
	live        LiveChannel
	health      HealthFunc

	metrics        *metrics.HTTPMetrics
	metricsHandler http.Handler
	logger         zerolog.Logger
}

// Handlers groups the use cases the server dispatches to.
type Handlers struct {
	CreateOrder  commands.CreateOrderCommandHandler
	ClaimOrder   commands.ClaimOrderCommandHandler
	UpdateStatus commands.UpdateOrderStatusCommandHandler
	GetOrder     queries.GetOrderQueryHandler
	ListOrders   queries.ListOrdersQueryHandler
	GetProfile   queries.GetProfileQueryHandler
}

type Option func(*Server)

// WithIdempotency enables the Idempotency-Key header on POST /order.
func WithIdempotency(store IdempotencyStore) Option {
	return func(s *Server) {
		s.idempotency = store
	}
}

// WithLiveChannel enables GET /ws/orders/:orderId.
func WithLiveChannel(live LiveChannel) Option {
	return func(s *Server) {
		s.live = live
	}
}

func WithHealth(fn HealthFunc) Option {
	return func(s *Server) {
		s.health = fn
	}
}

// WithMetrics records request metrics in m and serves handler on /metrics.
func WithMetrics(m *metrics.HTTPMetrics, handler http.Handler) Option {
	return func(s *Server) {
		s.metrics = m
		s.metricsHandler = handler
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func NewServer(h Handlers, identity ports.IdentityGateway, opts ...Option) *Server {
	s := &Server{
		createOrderHandler:  h.CreateOrder,
		claimOrderHandler:   h.ClaimOrder,
		updateStatusHandler: h.UpdateStatus,
		getOrderHandler:     h.GetOrder,
		listOrdersHandler:   h.ListOrders,
		getProfileHandler:   h.GetProfile,
		identity:            identity,
		logger:              zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register installs middleware, the error handler and every route on e.
func (s *Server) Register(e *echo.Echo) {
	e.HTTPErrorHandler = s.errorHandler
	e.Validator = newRequestValidator()

	e.Use(middleware.Recover())
	e.Use(requestLogger(s.logger))
	e.Use(observe(s.metrics))

	e.GET("/health", s.Health)
	if s.metricsHandler != nil {
		e.GET("/metrics", echo.WrapHandler(s.metricsHandler))
	}

	api := e.Group("", authenticate(s.identity))
	api.POST("/order", s.CreateOrder, requireRole(actor.RoleCustomer))
	api.POST("/order/:orderId/confirm", s.ClaimOrder, requireRole(actor.RoleDeliveryPartner))
	api.PATCH("/order/:orderId/status", s.UpdateOrderStatus, requireRole(actor.RoleDeliveryPartner))
	api.GET("/order/:orderId", s.GetOrder)
	api.GET("/orders", s.ListOrders)
	api.GET("/me", s.GetProfile)
	if s.live != nil {
		api.GET("/ws/orders/:orderId", s.ServeLiveChannel)
	}
}

// Health handles GET /health.
func (s *Server) Health(c echo.Context) error {
	body := map[string]any{"status": "ok"}
	if s.health != nil {
		body["hub"] = s.health()
	}
	return c.JSON(http.StatusOK, body)
}
