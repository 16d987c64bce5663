package web

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/freshcart/backend/internal/order/domain"
	paymentapp "github.com/freshcart/backend/internal/payment/app"
)

const signatureHeader = "Stripe-Signature"

type checkoutCartItem struct {
	ProductID string `json:"productId" binding:"required"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int32  `json:"quantity" binding:"required"`
}

type createCheckoutSessionRequest struct {
	CartItems  []checkoutCartItem `json:"cartItems" binding:"required"`
	UserEmail  string             `json:"userEmail"`
	SuccessURL string             `json:"successUrl" binding:"required"`
	CancelURL  string             `json:"cancelUrl" binding:"required"`
	Address    domain.Address     `json:"address"`
	Discount   int64              `json:"discount"`
	CouponCode string             `json:"couponCode"`
}

func (s *Server) handleCreateCheckoutSession(c *gin.Context) {
	var req createCheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}

	items := make([]paymentapp.CheckoutItem, 0, len(req.CartItems))
	for _, it := range req.CartItems {
		items = append(items, paymentapp.CheckoutItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: it.Price,
			Quantity:  it.Quantity,
		})
	}

	url, err := s.payments.CreateCheckoutSession(c.Request.Context(), userID(c), paymentapp.CheckoutRequest{
		Items:      items,
		UserEmail:  req.UserEmail,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
		Address:    req.Address,
		Discount:   req.Discount,
		CouponCode: req.CouponCode,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "checkoutUrl": url})
}

// handleWebhook reads the raw body itself: signature verification needs the
// exact bytes the provider signed.
func (s *Server) handleWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "unreadable body"})
		return
	}

	outcome, err := s.payments.HandleWebhook(c.Request.Context(), payload, c.GetHeader(signatureHeader))
	if err != nil {
		if errors.Is(err, paymentapp.ErrSignature) {
			s.metrics.WebhookEvents.WithLabelValues("unknown", "signature_error").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "signature verification failed"})
			return
		}
		s.fail(c, err)
		return
	}

	eventType := paymentapp.EventCheckoutCompleted
	if outcome == paymentapp.OutcomeIgnored {
		eventType = "other"
	}
	if outcome == paymentapp.OutcomeCreated {
		s.metrics.OrdersCreated.WithLabelValues("webhook").Inc()
	}
	s.metrics.WebhookEvents.WithLabelValues(eventType, string(outcome)).Inc()

	// the gateway always gets an ack once the event verified, even when
	// settlement failed; failures are logged server-side
	c.JSON(http.StatusOK, gin.H{"received": true})
}
