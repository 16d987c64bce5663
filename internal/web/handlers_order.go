package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	orderapp "github.com/freshcart/backend/internal/order/app"
	"github.com/freshcart/backend/internal/order/domain"
)

type createOrderRequest struct {
	Address             domain.Address `json:"address" binding:"required"`
	PaymentMethod       string         `json:"paymentMethod" binding:"required"`
	PaymentStatus       string         `json:"paymentStatus"`
	OrderStatus         string         `json:"orderStatus"`
	TotalAmount         int64          `json:"totalAmount"`
	StripePaymentIntent string         `json:"stripePaymentIntent"`
}

func (s *Server) handleCreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}

	order, err := s.orders.PlaceOrder(c.Request.Context(), userID(c), orderapp.PlaceOrderRequest{
		Address:       req.Address,
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
		PaymentStatus: domain.PaymentStatus(req.PaymentStatus),
		OrderStatus:   domain.OrderStatus(req.OrderStatus),
		TotalAmount:   req.TotalAmount,
		PaymentIntent: req.StripePaymentIntent,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	s.metrics.OrdersCreated.WithLabelValues("direct").Inc()
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Order placed successfully",
		"data":    order,
	})
}

func (s *Server) handleUserOrders(c *gin.Context) {
	orders, err := s.orders.ListUserOrders(c.Request.Context(), userID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": orders})
}

func (s *Server) handleAllOrders(c *gin.Context) {
	orders, err := s.orders.ListAllOrders(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": orders})
}

func (s *Server) handleOrderByID(c *gin.Context) {
	order, err := s.orders.GetOrder(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": order})
}

type updateOrderStatusRequest struct {
	OrderStatus string `json:"orderStatus" binding:"required"`
}

func (s *Server) handleUpdateOrderStatus(c *gin.Context) {
	var req updateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}

	order, err := s.orders.UpdateOrderStatus(c.Request.Context(), c.Param("orderId"), domain.OrderStatus(req.OrderStatus))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Order status updated", "data": order})
}

func (s *Server) handleUserTransactions(c *gin.Context) {
	txns, err := s.orders.ListUserTransactions(c.Request.Context(), userID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(txns), "data": txns})
}

func (s *Server) handleAllTransactions(c *gin.Context) {
	txns, err := s.orders.ListAllTransactions(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(txns), "data": txns})
}
