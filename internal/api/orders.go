package api

import (
	"errors"
	"net/http"
	"strconv"

	"storefront-orders/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// listOrders returns the orders of the authenticated user
func (h *Handler) listOrders(c *gin.Context) {
	orders, err := h.orders.ListOrdersForUser(c.Request.Context(), userID(c))
	if err != nil {
		h.respondOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// getOrder handles get order by ID
func (h *Handler) getOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid order ID",
		})
		return
	}

	order, err := h.orders.GetOrderForUser(c.Request.Context(), userID(c), orderID)
	if err != nil {
		h.respondOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (h *Handler) respondOrderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
	case errors.Is(err, service.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
	default:
		h.logger.Error("Order request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load orders"})
	}
}

// getStore returns a storefront by slug
func (h *Handler) getStore(c *gin.Context) {
	st, err := h.storefronts.GetBySlug(c.Request.Context(), c.Param("slug"))
	if errors.Is(err, service.ErrStoreNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Store not found"})
		return
	}
	if err != nil {
		h.logger.Error("Store lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load store"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"store": st})
}
