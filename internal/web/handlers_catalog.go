package web

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleListProducts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	products, next, err := s.catalog.ListProducts(c.Request.Context(), c.Query("q"), limit, c.Query("cursor"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": products, "nextCursor": next})
}

func (s *Server) handleGetProduct(c *gin.Context) {
	product, err := s.catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": product})
}
