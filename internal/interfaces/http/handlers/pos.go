// internal/interfaces/http/handlers/pos.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/your-org/erp-backend/internal/config"
	"github.com/your-org/erp-backend/internal/domain/cart"
	"github.com/your-org/erp-backend/internal/domain/checkout"
	"github.com/your-org/erp-backend/internal/domain/stock"
	"gorm.io/gorm"
)

// POSHandler handles point-of-sale cart and checkout endpoints
type POSHandler struct {
	carts    *cart.Service
	checkout *checkout.Service
}

// NewPOSHandler creates a new POS handler
func NewPOSHandler(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *POSHandler {
	carts := cart.NewService(db, redisClient, cfg)
	return &POSHandler{
		carts:    carts,
		checkout: checkout.NewService(db, cfg, carts, stock.NewLedger(db)),
	}
}

func (h *POSHandler) writeCartError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, cart.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
	case errors.Is(err, cart.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not in cart"})
	case errors.Is(err, cart.ErrProductInactive), errors.Is(err, cart.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// StartSession handles POST /pos/sessions
func (h *POSHandler) StartSession(c *gin.Context) {
	c.JSON(http.StatusCreated, gin.H{
		"data": gin.H{"session_id": cart.NewSessionID()},
	})
}

// GetCart handles GET /pos/carts/:session
func (h *POSHandler) GetCart(c *gin.Context) {
	sessionID := c.Param("session")

	sessionCart, err := h.carts.GetCart(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load cart"})
		return
	}

	totals := h.carts.CartTotals(sessionCart, decimal.Zero)
	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"cart":   sessionCart,
			"totals": totals,
		},
	})
}

// AddItem handles POST /pos/carts/:session/items
func (h *POSHandler) AddItem(c *gin.Context) {
	sessionID := c.Param("session")

	var req cart.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	sessionCart, err := h.carts.AddItem(c.Request.Context(), sessionID, &req)
	if err != nil {
		h.writeCartError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item added to cart",
		"data":    sessionCart,
	})
}

// UpdateItemRequest represents a cart quantity change
type UpdateItemRequest struct {
	Quantity int `json:"quantity"`
}

// UpdateItem handles PUT /pos/carts/:session/items/:id
func (h *POSHandler) UpdateItem(c *gin.Context) {
	sessionID := c.Param("session")
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	sessionCart, err := h.carts.UpdateItem(c.Request.Context(), sessionID, productID, req.Quantity)
	if err != nil {
		h.writeCartError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart updated",
		"data":    sessionCart,
	})
}

// RemoveItem handles DELETE /pos/carts/:session/items/:id
func (h *POSHandler) RemoveItem(c *gin.Context) {
	sessionID := c.Param("session")
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	sessionCart, err := h.carts.RemoveItem(c.Request.Context(), sessionID, productID)
	if err != nil {
		h.writeCartError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item removed from cart",
		"data":    sessionCart,
	})
}

// Checkout handles POST /pos/checkout
func (h *POSHandler) Checkout(c *gin.Context) {
	var req checkout.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	result, err := h.checkout.Checkout(c.Request.Context(), &req, currentUserID(c))
	if err != nil {
		var insufficientErr *stock.InsufficientStockError
		switch {
		case errors.As(err, &insufficientErr):
			c.JSON(http.StatusConflict, gin.H{"error": insufficientErr.Error()})
		case errors.Is(err, checkout.ErrEmptyCart):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, checkout.ErrCustomerNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Checkout failed"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Sale completed successfully",
		"data":    result,
	})
}
