package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	cartapp "github.com/freshcart/backend/internal/cart/app"
	"github.com/freshcart/backend/internal/cart/domain"
)

type cartItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int32  `json:"quantity" binding:"required"`
}

func (s *Server) handleGetCart(c *gin.Context) {
	cart, err := s.carts.GetCart(c.Request.Context(), userID(c))
	if err != nil {
		if errors.Is(err, cartapp.ErrNotFound) {
			// a user without a cart just has an empty one
			c.JSON(http.StatusOK, gin.H{"success": true, "data": domain.Cart{Items: []domain.CartItem{}}})
			return
		}
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": cart})
}

func (s *Server) handleAddToCart(c *gin.Context) {
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid product or quantity"})
		return
	}

	cart, err := s.carts.AddItem(c.Request.Context(), userID(c), domain.CartItem{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Product added to cart", "data": cart})
}

func (s *Server) handleUpdateCartItem(c *gin.Context) {
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid product or quantity"})
		return
	}

	cart, err := s.carts.SetItemQuantity(c.Request.Context(), userID(c), domain.CartItem{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": cart})
}

func (s *Server) handleRemoveCartItem(c *gin.Context) {
	cart, err := s.carts.RemoveItem(c.Request.Context(), userID(c), c.Param("productId"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": cart})
}
