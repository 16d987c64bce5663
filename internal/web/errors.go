package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	cartapp "github.com/freshcart/backend/internal/cart/app"
	catalogapp "github.com/freshcart/backend/internal/catalog/app"
	orderapp "github.com/freshcart/backend/internal/order/app"
	paymentapp "github.com/freshcart/backend/internal/payment/app"
)

func statusFromErr(err error) int {
	switch {
	case errors.Is(err, orderapp.ErrEmptyCart),
		errors.Is(err, paymentapp.ErrEmptyCart),
		errors.Is(err, orderapp.ErrInvalidInput),
		errors.Is(err, cartapp.ErrInvalidInput),
		errors.Is(err, catalogapp.ErrInvalidInput),
		errors.Is(err, paymentapp.ErrSignature):
		return http.StatusBadRequest
	case errors.Is(err, orderapp.ErrNotFound),
		errors.Is(err, cartapp.ErrNotFound),
		errors.Is(err, catalogapp.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFromErr(err)

	body := gin.H{"success": false, "message": err.Error()}
	if status == http.StatusInternalServerError {
		// internal detail stays in the logs
		s.log.Error("request failed", "path", c.FullPath(), "err", err)
		body["message"] = "internal error"
	}
	c.JSON(status, body)
}
