// internal/interfaces/http/handlers/stock.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/erp-backend/internal/domain/stock"
	"github.com/your-org/erp-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// StockHandler handles stock ledger endpoints
type StockHandler struct {
	ledger *stock.Ledger
}

// NewStockHandler creates a new stock handler
func NewStockHandler(db *gorm.DB) *StockHandler {
	return &StockHandler{
		ledger: stock.NewLedger(db),
	}
}

// GetMovements handles GET /stock/movements
func (h *StockHandler) GetMovements(c *gin.Context) {
	var req stock.MovementListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	movements, total, err := h.ledger.Movements(&req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve movements"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  movements,
		"total": total,
	})
}

// AdjustRequest represents a manual stock adjustment
type AdjustRequest struct {
	ProductID uint   `json:"product_id" binding:"required"`
	Direction string `json:"direction" binding:"required,oneof=in out"`
	Quantity  int    `json:"quantity" binding:"required"`
	Note      string `json:"note"`
}

// Adjust handles POST /stock/adjustments
func (h *StockHandler) Adjust(c *gin.Context) {
	var req AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	var createdBy *uint
	if userID, ok := middleware.GetUserIDFromContext(c); ok {
		createdBy = &userID
	}

	movement, err := h.ledger.Adjust(stock.MovementRequest{
		ProductID:   req.ProductID,
		Direction:   req.Direction,
		Quantity:    req.Quantity,
		Note:        req.Note,
		CreatedByID: createdBy,
	})
	if err != nil {
		var insufficientErr *stock.InsufficientStockError
		switch {
		case errors.As(err, &insufficientErr):
			c.JSON(http.StatusConflict, gin.H{"error": insufficientErr.Error()})
		case errors.Is(err, stock.ErrInvalidQuantity), errors.Is(err, stock.ErrInvalidDirection):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, stock.ErrProductNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record adjustment"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Adjustment recorded successfully",
		"data":    movement,
	})
}

// Replay handles GET /stock/products/:id/replay. It recomputes the
// product's quantity from the ledger and reports any drift against
// the denormalized counter.
func (h *StockHandler) Replay(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	current, err := h.ledger.CurrentQuantity(id)
	if err != nil {
		if errors.Is(err, stock.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve product"})
		return
	}

	replayed, err := h.ledger.Replay(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to replay movements"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"product_id":        id,
			"current_quantity":  current,
			"replayed_quantity": replayed,
			"consistent":        current == replayed,
		},
	})
}
