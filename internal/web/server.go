package web

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	cartapp "github.com/freshcart/backend/internal/cart/app"
	catalogapp "github.com/freshcart/backend/internal/catalog/app"
	orderapp "github.com/freshcart/backend/internal/order/app"
	paymentapp "github.com/freshcart/backend/internal/payment/app"
	"github.com/freshcart/backend/pkg/metrics"
)

type Server struct {
	orders   *orderapp.Service
	payments *paymentapp.Service
	carts    *cartapp.Service
	catalog  *catalogapp.Service

	pool    *pgxpool.Pool
	metrics *metrics.ServerMetrics
	log     *slog.Logger
	router  *gin.Engine
}

func NewServer(
	orders *orderapp.Service,
	payments *paymentapp.Service,
	carts *cartapp.Service,
	catalog *catalogapp.Service,
	pool *pgxpool.Pool,
	m *metrics.ServerMetrics,
	log *slog.Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		orders:   orders,
		payments: payments,
		carts:    carts,
		catalog:  catalog,
		pool:     pool,
		metrics:  m,
		log:      log,
		router:   router,
	}

	router.Use(s.observe())

	router.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/readyz", s.handleReady)
	router.GET("/metrics", gin.WrapH(m.Handler()))

	api := router.Group("/api")

	order := api.Group("/order", s.requireUser())
	{
		order.POST("/create", s.handleCreateOrder)
		order.GET("/user", s.handleUserOrders)
		order.GET("/all", s.requireAdmin(), s.handleAllOrders)
		order.GET("/:id", s.handleOrderByID)
		order.PUT("/update/:orderId", s.requireAdmin(), s.handleUpdateOrderStatus)
	}

	payment := api.Group("/payment")
	{
		payment.POST("/create-checkout-session", s.requireUser(), s.handleCreateCheckoutSession)
		// webhook is signature-verified, not authenticated
		payment.POST("/webhook", s.handleWebhook)
	}

	txn := api.Group("/transaction", s.requireUser())
	{
		txn.GET("/user", s.handleUserTransactions)
		txn.GET("/all", s.requireAdmin(), s.handleAllTransactions)
	}

	cart := api.Group("/cart", s.requireUser())
	{
		cart.GET("", s.handleGetCart)
		cart.POST("/add", s.handleAddToCart)
		cart.PUT("/update", s.handleUpdateCartItem)
		cart.DELETE("/remove/:productId", s.handleRemoveCartItem)
	}

	product := api.Group("/product")
	{
		product.GET("", s.handleListProducts)
		product.GET("/:id", s.handleGetProduct)
	}

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleReady(c *gin.Context) {
	if s.pool != nil {
		if err := s.pool.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_error"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
