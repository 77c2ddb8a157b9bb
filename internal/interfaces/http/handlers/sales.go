// internal/interfaces/http/handlers/sales.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/erp-backend/internal/config"
	"github.com/your-org/erp-backend/internal/domain/sales"
	"github.com/your-org/erp-backend/internal/domain/stock"
	"gorm.io/gorm"
)

// SalesHandler handles customer and sales order endpoints
type SalesHandler struct {
	service *sales.Service
}

// NewSalesHandler creates a new sales handler
func NewSalesHandler(db *gorm.DB, cfg *config.Config) *SalesHandler {
	return &SalesHandler{
		service: sales.NewService(db, cfg, stock.NewLedger(db)),
	}
}

func (h *SalesHandler) writeError(c *gin.Context, err error) {
	var insufficientErr *stock.InsufficientStockError

	switch {
	case errors.Is(err, sales.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &insufficientErr):
		c.JSON(http.StatusConflict, gin.H{"error": insufficientErr.Error()})
	case errors.Is(err, sales.ErrNoLines), errors.Is(err, sales.ErrNotDraft):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// GetCustomers handles GET /sales/customers
func (h *SalesHandler) GetCustomers(c *gin.Context) {
	var req sales.CustomerListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	customers, total, err := h.service.GetCustomers(&req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve customers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  customers,
		"total": total,
	})
}

// CreateCustomer handles POST /sales/customers
func (h *SalesHandler) CreateCustomer(c *gin.Context) {
	var req sales.CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	customer, err := h.service.CreateCustomer(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Customer created successfully",
		"data":    customer,
	})
}

// GetOrders handles GET /sales/orders
func (h *SalesHandler) GetOrders(c *gin.Context) {
	var req sales.OrderListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	orders, total, err := h.service.GetOrders(&req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve sales orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  orders,
		"total": total,
	})
}

// GetOrder handles GET /sales/orders/:id
func (h *SalesHandler) GetOrder(c *gin.Context) {
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

// CreateOrder handles POST /sales/orders
func (h *SalesHandler) CreateOrder(c *gin.Context) {
	var req sales.OrderCreateRequest
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
		"message": "Sales order created successfully",
		"data":    order,
	})
}

// ConfirmOrder handles POST /sales/orders/:id/confirm
func (h *SalesHandler) ConfirmOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.service.ConfirmOrder(id, currentUserID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Sales order confirmed successfully",
		"data":    order,
	})
}

// CreateInvoice handles POST /sales/orders/:id/invoices
func (h *SalesHandler) CreateInvoice(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	invoice, err := h.service.CreateInvoice(id, false)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Sales invoice created successfully",
		"data":    invoice,
	})
}
