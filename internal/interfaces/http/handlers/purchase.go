// internal/interfaces/http/handlers/purchase.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/erp-backend/internal/config"
	"github.com/your-org/erp-backend/internal/domain/purchase"
	"github.com/your-org/erp-backend/internal/domain/stock"
	"github.com/your-org/erp-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// PurchaseHandler handles purchase order endpoints
type PurchaseHandler struct {
	service *purchase.Service
}

// NewPurchaseHandler creates a new purchase handler
func NewPurchaseHandler(db *gorm.DB, cfg *config.Config) *PurchaseHandler {
	return &PurchaseHandler{
		service: purchase.NewService(db, cfg, stock.NewLedger(db)),
	}
}

func currentUserID(c *gin.Context) *uint {
	if userID, ok := middleware.GetUserIDFromContext(c); ok {
		return &userID
	}
	return nil
}

func (h *PurchaseHandler) writeError(c *gin.Context, err error) {
	var overErr *purchase.OverReceiptError
	var transitionErr *purchase.InvalidTransitionError
	var insufficientErr *stock.InsufficientStockError

	switch {
	case errors.Is(err, purchase.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &overErr), errors.As(err, &transitionErr), errors.As(err, &insufficientErr):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, purchase.ErrNotReceivable),
		errors.Is(err, purchase.ErrInvalidQuantity),
		errors.Is(err, purchase.ErrNoLines):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// GetOrders handles GET /purchase/orders
func (h *PurchaseHandler) GetOrders(c *gin.Context) {
	var req purchase.OrderListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	orders, total, err := h.service.GetOrders(&req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve purchase orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  orders,
		"total": total,
	})
}

// GetOrder handles GET /purchase/orders/:id
func (h *PurchaseHandler) GetOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.service.GetOrder(id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": order})
}

// CreateOrder handles POST /purchase/orders
func (h *PurchaseHandler) CreateOrder(c *gin.Context) {
	var req purchase.OrderCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	order, err := h.service.CreateOrder(&req, currentUserID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Purchase order created successfully",
		"data":    order,
	})
}

// StatusUpdateRequest represents a status change request
type StatusUpdateRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus handles PUT /purchase/orders/:id/status
func (h *PurchaseHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	order, err := h.service.UpdateStatus(id, req.Status, currentUserID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order status updated successfully",
		"data":    order,
	})
}

// ReceiveLine handles POST /purchase/orders/:id/receive
func (h *PurchaseHandler) ReceiveLine(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req purchase.ReceiveLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	order, err := h.service.ReceiveLine(id, &req, currentUserID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Goods received successfully",
		"data":    order,
	})
}

// CompleteOrder handles POST /purchase/orders/:id/complete
func (h *PurchaseHandler) CompleteOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.service.CompleteOrder(id, currentUserID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Purchase order completed successfully",
		"data":    order,
	})
}

// CreateInvoice handles POST /purchase/orders/:id/invoices
func (h *PurchaseHandler) CreateInvoice(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req purchase.InvoiceCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	invoice, err := h.service.CreateInvoice(id, &req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Purchase invoice created successfully",
		"data":    invoice,
	})
}

// MarkInvoicePaid handles POST /purchase/invoices/:id/pay
func (h *PurchaseHandler) MarkInvoicePaid(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	invoice, err := h.service.MarkInvoicePaid(id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Invoice marked as paid",
		"data":    invoice,
	})
}

// GetSupplierPerformance handles GET /purchase/suppliers/:id/performance
func (h *PurchaseHandler) GetSupplierPerformance(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	perf, err := h.service.GetSupplierPerformance(id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": perf})
}

// RefreshSupplierPerformance handles POST /purchase/suppliers/:id/performance/refresh
func (h *PurchaseHandler) RefreshSupplierPerformance(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	perf, err := h.service.UpdateSupplierMetrics(id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Supplier metrics recomputed",
		"data":    perf,
	})
}
